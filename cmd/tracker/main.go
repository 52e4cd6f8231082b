package main

import (
	"context"
	"database/sql"

	fxmodules "chess-tracker/internal/fx"
	"chess-tracker/internal/service"

	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

func main() {
	fx.New(
		fxmodules.Module,
		fx.Invoke(runTracker),
	).Run()
}

// runTracker executes a single tracker cycle and shuts the app down. The
// exit code is non-zero only when the game fetch failed and no work was
// possible; partial notification failures still exit zero so the dedup state
// keeps moving forward.
func runTracker(
	lc fx.Lifecycle,
	shutdowner fx.Shutdowner,
	runner *service.Runner,
	db *sql.DB,
	logger zerolog.Logger,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				code := 0
				if err := runner.Run(context.Background()); err != nil {
					code = 1
				}
				if err := shutdowner.Shutdown(fx.ExitCode(code)); err != nil {
					logger.Error().Err(err).Msg("shutdown failed")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if err := db.Close(); err != nil {
				logger.Warn().Err(err).Msg("error closing history database")
			}
			return nil
		},
	})
}

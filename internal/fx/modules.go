package fx

import (
	"chess-tracker/internal/api"
	"chess-tracker/internal/config"
	"chess-tracker/internal/constants"
	"chess-tracker/internal/database"
	"chess-tracker/internal/engine"
	"chess-tracker/internal/logger"
	"chess-tracker/internal/notify"
	"chess-tracker/internal/repository"
	"chess-tracker/internal/service"
	"chess-tracker/internal/state"

	"go.uber.org/fx"
)

func ProvideEngine(cfg *config.Config) *engine.Engine {
	return engine.New(engine.Config{
		AdvancementThresholds: cfg.LeagueThresholds,
		DeadlineWindow:        constants.DeadlineAlertWindow,
	})
}

var Module = fx.Options(
	fx.Provide(logger.New),
	fx.Provide(config.Load),
	fx.Provide(database.New),
	// remote sources
	fx.Provide(api.NewChessComClient),
	// core
	fx.Provide(ProvideEngine),
	// sinks and persistence
	fx.Provide(notify.NewDispatcher),
	fx.Provide(state.NewStore),
	fx.Provide(repository.NewHistoryRepository),
	// runner
	fx.Provide(service.NewRunner),
)

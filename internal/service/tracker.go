// Package service orchestrates one tracker run: load state, fetch remote
// facts, reconcile, dispatch, persist, archive. Steps after the game fetch
// degrade individually; only a failed game fetch aborts the run.
package service

import (
	"context"
	"fmt"
	"time"

	"chess-tracker/internal/api"
	"chess-tracker/internal/config"
	"chess-tracker/internal/constants"
	"chess-tracker/internal/domain"
	"chess-tracker/internal/engine"
	"chess-tracker/internal/extract"
	"chess-tracker/internal/notify"
	"chess-tracker/internal/repository"
	"chess-tracker/internal/state"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type Runner struct {
	cfg     *config.Config
	client  *api.ChessComClient
	engine  *engine.Engine
	disp    *notify.Dispatcher
	store   *state.Store
	history *repository.HistoryRepository
	logger  zerolog.Logger
	now     func() time.Time
}

func NewRunner(
	cfg *config.Config,
	client *api.ChessComClient,
	eng *engine.Engine,
	disp *notify.Dispatcher,
	store *state.Store,
	history *repository.HistoryRepository,
	logger zerolog.Logger,
) *Runner {
	return &Runner{
		cfg:     cfg,
		client:  client,
		engine:  eng,
		disp:    disp,
		store:   store,
		history: history,
		logger:  logger,
		now:     time.Now,
	}
}

// Run executes one tracker cycle. The returned error is non-nil only when
// the game fetch failed outright, i.e. no meaningful work was possible.
func (r *Runner) Run(ctx context.Context) error {
	logger := r.logger.With().Str("run_id", uuid.New().String()).Logger()
	logger.Info().Str("username", r.cfg.ChessUsername).Msg("run started")

	prev := r.store.Load()

	fetchCtx, cancel := context.WithTimeout(ctx, constants.ExternalAPITimeout)
	raws, err := r.client.GetLatestArchiveGames(fetchCtx, r.cfg.ChessUsername)
	cancel()
	if err != nil {
		logger.Error().Err(err).Msg("failed to fetch games, aborting run before any state mutation")
		return fmt.Errorf("fetch games: %w", err)
	}

	standing := r.fetchStanding(ctx, logger)
	r.disp.SetAvatarURL(r.fetchAvatar(ctx, logger))

	games := make([]domain.GameEvent, 0, len(raws))
	for _, raw := range raws {
		games = append(games, extract.GameFromArchive(raw, r.cfg.ChessUsername))
	}

	events, next := r.engine.Reconcile(prev, games, standing, r.now())

	dropped := 0
	for _, event := range events {
		if err := r.disp.Dispatch(event); err != nil {
			// at-most-once: state still advances, the event is lost
			logger.Warn().Err(err).Msg("notification dropped")
			dropped++
		}
	}

	if err := r.store.Save(next); err != nil {
		logger.Error().Err(err).Msg("failed to persist state")
	}

	r.archive(ctx, logger, events)

	logger.Info().
		Int("new_games", len(next.ProcessedGameIDs)-len(prev.ProcessedGameIDs)).
		Int("events", len(events)).
		Int("dropped", dropped).
		Msg("run complete")
	return nil
}

// fetchStanding degrades to nil on any failure: no standing this run is a
// normal outcome and must not affect game processing.
func (r *Runner) fetchStanding(ctx context.Context, logger zerolog.Logger) *domain.StandingSnapshot {
	fetchCtx, cancel := context.WithTimeout(ctx, constants.ExternalAPITimeout)
	defer cancel()

	resp, err := r.client.GetLeagueStanding(fetchCtx, r.cfg.ChessUsername)
	if err != nil {
		logger.Warn().Err(err).Msg("failed to fetch league standing, continuing without it")
		return nil
	}
	if resp == nil || resp.Division.League.Code == "" {
		logger.Debug().Msg("no league standing available")
		return nil
	}

	rank := resp.Stats.Ranking.String()
	if rank == "" {
		rank = "N/A"
	}

	return &domain.StandingSnapshot{
		LeagueCode:    resp.Division.League.Code,
		LeagueName:    resp.Division.League.Name,
		Rank:          rank,
		Points:        resp.Stats.TrophyCount,
		PeriodEndTime: resp.Division.EndTime,
	}
}

func (r *Runner) fetchAvatar(ctx context.Context, logger zerolog.Logger) string {
	fetchCtx, cancel := context.WithTimeout(ctx, constants.ExternalAPITimeout)
	defer cancel()

	profile, err := r.client.GetProfile(fetchCtx, r.cfg.ChessUsername)
	if err != nil {
		logger.Warn().Err(err).Msg("failed to fetch profile avatar, continuing without it")
		return ""
	}
	return profile.Avatar
}

func (r *Runner) archive(ctx context.Context, logger zerolog.Logger, events []domain.Event) {
	var reports []domain.GameReport
	for _, event := range events {
		if report, ok := event.(domain.GameReport); ok {
			reports = append(reports, report)
		}
	}
	if len(reports) == 0 {
		return
	}

	dbCtx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	if err := r.history.ArchiveBatch(dbCtx, reports); err != nil {
		logger.Warn().Err(err).Msg("failed to archive game history")
		return
	}

	total, err := r.history.Count(dbCtx)
	if err != nil {
		logger.Warn().Err(err).Msg("failed to count archived games")
		return
	}
	logger.Debug().Int("archived_total", total).Msg("game history archived")
}

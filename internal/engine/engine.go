// Package engine decides which remote facts are new. Reconcile is a pure
// function of its inputs: no I/O, no clocks, no ambient configuration.
package engine

import (
	"time"

	"chess-tracker/internal/domain"
)

type Config struct {
	// AdvancementThresholds maps league code to the trophy count needed to
	// advance. Leagues without an entry never produce a deadline alert.
	AdvancementThresholds map[string]int

	// DeadlineWindow is how close to the period end the alert fires.
	DeadlineWindow time.Duration
}

type Engine struct {
	cfg Config
}

func New(cfg Config) *Engine {
	return &Engine{cfg: cfg}
}

// Reconcile consumes the previous state, the ordered game list (oldest
// first) and the optional standing snapshot, and produces the notifications
// to emit plus the next state to persist. Given identical inputs it returns
// identical outputs, so a crash-and-retry of the whole run is safe.
func (e *Engine) Reconcile(prev domain.TrackerState, games []domain.GameEvent, standing *domain.StandingSnapshot, now time.Time) ([]domain.Event, domain.TrackerState) {
	next := prev.Clone()
	next.Normalize()

	processed := make(map[string]struct{}, len(next.ProcessedGameIDs))
	for _, id := range next.ProcessedGameIDs {
		processed[id] = struct{}{}
	}

	var events []domain.Event
	newGames := 0

	for _, game := range games {
		// A record with no derivable id would poison the dedup set.
		if game.GameID == "" {
			continue
		}
		// Checked against the running set: a duplicate id later in the same
		// batch is skipped too.
		if _, seen := processed[game.GameID]; seen {
			continue
		}

		delta := e.resolveRatingDelta(game, next.LastRatingByCategory)

		// The baseline tracks reality regardless of whether delivery later
		// succeeds; otherwise future deltas double-count.
		if game.PlayerRatingAfter != nil {
			next.LastRatingByCategory[string(game.Category)] = *game.PlayerRatingAfter
		}

		events = append(events, domain.GameReport{
			Game:        game,
			RatingDelta: delta,
			Standing:    standing,
		})

		processed[game.GameID] = struct{}{}
		next.ProcessedGameIDs = append(next.ProcessedGameIDs, game.GameID)
		newGames++
	}

	// Standing is only interesting alongside new activity; posting it on
	// every idle run would duplicate the same numbers.
	if standing != nil && newGames > 0 {
		events = append(events, domain.LeagueUpdate{Standing: *standing, NewGames: newGames})
	}

	if alert, ok := e.evaluateDeadline(&next, standing, now); ok {
		events = append(events, alert)
	}

	return events, next
}

// resolveRatingDelta applies the precedence order: the source-reported change
// is authoritative; otherwise the stored per-category baseline; otherwise
// zero for a first observation in that category. The baseline map is the
// running one, so two games of the same category in one batch each get their
// own delta.
func (e *Engine) resolveRatingDelta(game domain.GameEvent, baselines map[string]int) int {
	if game.RatingDeltaReported != nil {
		return *game.RatingDeltaReported
	}
	if game.PlayerRatingAfter == nil {
		return 0
	}
	baseline, ok := baselines[string(game.Category)]
	if !ok {
		return 0
	}
	return *game.PlayerRatingAfter - baseline
}

// evaluateDeadline is level-triggered, edge-fired: the alert goes out exactly
// once per league period, on the first run that observes the window, even if
// the job runs hourly. A missing period end time fails safe and never alerts.
func (e *Engine) evaluateDeadline(next *domain.TrackerState, standing *domain.StandingSnapshot, now time.Time) (domain.Event, bool) {
	if standing == nil || standing.PeriodEndTime == nil {
		return nil, false
	}

	end := *standing.PeriodEndTime
	if end != next.LeagueAlert.PeriodEndTime {
		// A new period always gets a fresh chance to alert.
		next.LeagueAlert = domain.LeagueAlertState{PeriodEndTime: end}
	}

	if next.LeagueAlert.AlertSent {
		return nil, false
	}

	threshold, ok := e.cfg.AdvancementThresholds[standing.LeagueCode]
	if !ok {
		return nil, false
	}

	remaining := time.Unix(end, 0).Sub(now)
	if remaining <= 0 || remaining >= e.cfg.DeadlineWindow {
		return nil, false
	}

	needed := threshold - standing.Points
	if needed < 0 {
		needed = 0
	}

	next.LeagueAlert.AlertSent = true
	return domain.LeagueDeadlineAlert{
		Standing:     *standing,
		PointsNeeded: needed,
		Remaining:    remaining,
	}, true
}

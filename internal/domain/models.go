package domain

import (
	"time"
)

type Result string

const (
	ResultWin  Result = "Win"
	ResultLoss Result = "Loss"
	ResultDraw Result = "Draw"
)

type Category string

const (
	CategoryBullet  Category = "bullet"
	CategoryBlitz   Category = "blitz"
	CategoryRapid   Category = "rapid"
	CategoryDaily   Category = "daily"
	CategoryUnknown Category = "unknown"
)

// GameEvent is one completed game involving the tracked player, normalized
// from a raw archive record. Immutable after extraction.
type GameEvent struct {
	// GameID is the last path segment of the canonical game URL. It is the
	// dedup key; the raw URL is not, since its form has varied across sources.
	GameID              string
	GameURL             string
	Opponent            string
	OpponentRating      *int
	PlayerRatingAfter   *int
	RatingDeltaReported *int
	Result              Result
	Category            Category
	TimeControl         string // human-readable, e.g. "10m 0s + 5s increment"
	Termination         string // "Unknown" when absent from the PGN
	PlayedAt            *time.Time
}

// StandingSnapshot is the tracked player's league standing at fetch time.
// At most one per run; absence is a normal outcome.
type StandingSnapshot struct {
	LeagueCode string
	LeagueName string
	Rank       string // 1-based, may be "N/A"
	Points     int
	// PeriodEndTime is epoch seconds. When nil, deadline alerting never fires.
	PeriodEndTime *int64
}

type LeagueAlertState struct {
	PeriodEndTime int64 `json:"period_end_time"`
	AlertSent     bool  `json:"alert_sent"`
}

// TrackerState is the durable cross-run snapshot. ProcessedGameIDs only
// grows; AlertSent is true for at most one league period at a time.
type TrackerState struct {
	ProcessedGameIDs     []string         `json:"processed_game_ids"`
	LastRatingByCategory map[string]int   `json:"last_rating_by_category"`
	LeagueAlert          LeagueAlertState `json:"league_alert"`
}

func EmptyState() TrackerState {
	return TrackerState{
		ProcessedGameIDs:     []string{},
		LastRatingByCategory: map[string]int{},
	}
}

// Normalize fills in nil collections so a partial or older persisted record
// behaves like a well-formed one.
func (s *TrackerState) Normalize() {
	if s.ProcessedGameIDs == nil {
		s.ProcessedGameIDs = []string{}
	}
	if s.LastRatingByCategory == nil {
		s.LastRatingByCategory = map[string]int{}
	}
}

func (s TrackerState) Clone() TrackerState {
	next := TrackerState{
		ProcessedGameIDs:     make([]string, len(s.ProcessedGameIDs)),
		LastRatingByCategory: make(map[string]int, len(s.LastRatingByCategory)),
		LeagueAlert:          s.LeagueAlert,
	}
	copy(next.ProcessedGameIDs, s.ProcessedGameIDs)
	for k, v := range s.LastRatingByCategory {
		next.LastRatingByCategory[k] = v
	}
	return next
}

// Event is a notification to deliver. Variants carry rendered fields only,
// nothing about transport.
type Event interface {
	eventVariant()
}

type GameReport struct {
	Game        GameEvent
	RatingDelta int
	Standing    *StandingSnapshot
}

type LeagueUpdate struct {
	Standing StandingSnapshot
	NewGames int
}

type LeagueDeadlineAlert struct {
	Standing     StandingSnapshot
	PointsNeeded int
	Remaining    time.Duration
}

func (GameReport) eventVariant()          {}
func (LeagueUpdate) eventVariant()        {}
func (LeagueDeadlineAlert) eventVariant() {}

// Package extract normalizes raw archive records into domain game events.
// Extraction is total: malformed optional fields degrade to documented
// defaults and never abort processing.
package extract

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"chess-tracker/internal/api"
	"chess-tracker/internal/constants"
	"chess-tracker/internal/domain"
)

const unknownTermination = "Unknown"

// GameFromArchive maps one raw game record to a GameEvent, resolving which
// side is the tracked player. When neither side matches the record is a data
// anomaly: opponent "Unknown", result Draw, no ratings.
func GameFromArchive(raw api.ArchiveGame, trackedUsername string) domain.GameEvent {
	event := domain.GameEvent{
		GameID:      GameID(raw.URL),
		GameURL:     raw.URL,
		Opponent:    "Unknown",
		Result:      domain.ResultDraw,
		Category:    CategoryFromTimeControl(raw.TimeControl),
		TimeControl: FormatTimeControl(raw.TimeControl),
		Termination: TerminationFromPGN(raw.PGN),
	}

	if raw.EndTime > 0 {
		playedAt := time.Unix(raw.EndTime, 0).UTC()
		event.PlayedAt = &playedAt
	}

	var player, opponent *api.ArchivePlayer
	switch {
	case strings.EqualFold(raw.White.Username, trackedUsername):
		player, opponent = &raw.White, &raw.Black
	case strings.EqualFold(raw.Black.Username, trackedUsername):
		player, opponent = &raw.Black, &raw.White
	default:
		return event
	}

	event.Opponent = opponent.Username
	event.OpponentRating = opponent.Rating
	event.PlayerRatingAfter = player.Rating
	event.RatingDeltaReported = player.RatingChange

	switch {
	case player.Result == "win":
		event.Result = domain.ResultWin
	case opponent.Result == "win":
		event.Result = domain.ResultLoss
	}

	return event
}

// GameID derives the stable dedup key from the canonical game URL: its last
// path segment. URL forms have varied across sources; the trailing id has not.
func GameID(url string) string {
	trimmed := strings.TrimRight(url, "/")
	if i := strings.LastIndex(trimmed, "/"); i >= 0 {
		return trimmed[i+1:]
	}
	return trimmed
}

// CategoryFromTimeControl classifies a raw time-control string by its base
// thinking time in seconds. Daily controls arrive as "1/86400" (seconds per
// move after the slash); live controls as "600" or "600+5".
func CategoryFromTimeControl(tc string) domain.Category {
	base := tc
	if _, perMove, ok := strings.Cut(base, "/"); ok {
		base = perMove
	}
	if main, _, ok := strings.Cut(base, "+"); ok {
		base = main
	}

	seconds, err := strconv.Atoi(strings.TrimSpace(base))
	if err != nil {
		return domain.CategoryUnknown
	}

	switch {
	case seconds < constants.BulletMaxSeconds:
		return domain.CategoryBullet
	case seconds < constants.BlitzMaxSeconds:
		return domain.CategoryBlitz
	case seconds < constants.RapidMaxSeconds:
		return domain.CategoryRapid
	default:
		return domain.CategoryDaily
	}
}

// FormatTimeControl renders a raw time-control string for display, e.g.
// "600+5" becomes "10m 0s + 5s increment". Unparseable input is returned
// verbatim.
func FormatTimeControl(tc string) string {
	if strings.EqualFold(tc, "unlimited") {
		return "Unlimited"
	}

	if main, increment, ok := strings.Cut(tc, "+"); ok {
		mainSeconds, err := strconv.Atoi(main)
		if err != nil {
			return tc
		}
		incrementSeconds, err := strconv.Atoi(increment)
		if err != nil {
			return tc
		}
		return fmt.Sprintf("%dm %ds + %ds increment", mainSeconds/60, mainSeconds%60, incrementSeconds)
	}

	mainSeconds, err := strconv.Atoi(tc)
	if err != nil {
		return tc
	}
	return fmt.Sprintf("%dm %ds", mainSeconds/60, mainSeconds%60)
}

// TerminationFromPGN pulls the free-text reason out of the PGN's
// [Termination "..."] tag. Absent or unparseable tags yield "Unknown".
func TerminationFromPGN(pgn string) string {
	const prefix = `[Termination "`

	i := strings.Index(pgn, prefix)
	if i < 0 {
		return unknownTermination
	}
	rest := pgn[i+len(prefix):]
	j := strings.Index(rest, `"`)
	if j <= 0 {
		return unknownTermination
	}
	return rest[:j]
}

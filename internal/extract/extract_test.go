package extract

import (
	"testing"
	"time"

	"chess-tracker/internal/api"
	"chess-tracker/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func TestCategoryFromTimeControl(t *testing.T) {
	cases := []struct {
		tc   string
		want domain.Category
	}{
		{"60", domain.CategoryBullet},
		{"179", domain.CategoryBullet},
		{"180", domain.CategoryBlitz},
		{"300", domain.CategoryBlitz},
		{"600", domain.CategoryRapid},
		{"900", domain.CategoryRapid},
		{"1800", domain.CategoryDaily},
		{"1/86400", domain.CategoryDaily},
		{"600+5", domain.CategoryRapid},
		{"60+1", domain.CategoryBullet},
		{"unlimited", domain.CategoryUnknown},
		{"", domain.CategoryUnknown},
	}

	for _, tt := range cases {
		t.Run(tt.tc, func(t *testing.T) {
			assert.Equal(t, tt.want, CategoryFromTimeControl(tt.tc))
		})
	}
}

func TestFormatTimeControl(t *testing.T) {
	cases := []struct {
		tc   string
		want string
	}{
		{"600+5", "10m 0s + 5s increment"},
		{"600", "10m 0s"},
		{"90", "1m 30s"},
		{"unlimited", "Unlimited"},
		{"Unlimited", "Unlimited"},
		{"1/86400", "1/86400"},
		{"abc", "abc"},
		{"abc+5", "abc+5"},
	}

	for _, tt := range cases {
		t.Run(tt.tc, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatTimeControl(tt.tc))
		})
	}
}

func TestGameID(t *testing.T) {
	assert.Equal(t, "123456789", GameID("https://www.chess.com/game/live/123456789"))
	assert.Equal(t, "987", GameID("https://www.chess.com/game/daily/987/"))
	assert.Equal(t, "plain", GameID("plain"))
	assert.Equal(t, "", GameID(""))
}

func TestTerminationFromPGN(t *testing.T) {
	pgn := "[Event \"Live Chess\"]\n[Termination \"rival won by resignation\"]\n\n1. e4 e5"
	assert.Equal(t, "rival won by resignation", TerminationFromPGN(pgn))
	assert.Equal(t, "Unknown", TerminationFromPGN("1. e4 e5"))
	assert.Equal(t, "Unknown", TerminationFromPGN(""))
	assert.Equal(t, "Unknown", TerminationFromPGN("[Termination \"\"]"))
}

func archiveGame(white, black api.ArchivePlayer) api.ArchiveGame {
	return api.ArchiveGame{
		URL:         "https://www.chess.com/game/live/555",
		PGN:         "[Termination \"checkmate\"]",
		TimeControl: "600",
		EndTime:     1_700_000_000,
		White:       white,
		Black:       black,
	}
}

func TestGameFromArchive_TrackedAsWhite(t *testing.T) {
	raw := archiveGame(
		api.ArchivePlayer{Username: "Tracked", Rating: intPtr(1500), Result: "win"},
		api.ArchivePlayer{Username: "rival", Rating: intPtr(1480), Result: "resigned"},
	)

	event := GameFromArchive(raw, "tracked")

	assert.Equal(t, "555", event.GameID)
	assert.Equal(t, "rival", event.Opponent)
	assert.Equal(t, domain.ResultWin, event.Result)
	require.NotNil(t, event.PlayerRatingAfter)
	assert.Equal(t, 1500, *event.PlayerRatingAfter)
	require.NotNil(t, event.OpponentRating)
	assert.Equal(t, 1480, *event.OpponentRating)
	assert.Equal(t, domain.CategoryRapid, event.Category)
	assert.Equal(t, "10m 0s", event.TimeControl)
	assert.Equal(t, "checkmate", event.Termination)
	require.NotNil(t, event.PlayedAt)
	assert.Equal(t, time.Unix(1_700_000_000, 0).UTC(), *event.PlayedAt)
}

func TestGameFromArchive_TrackedAsBlackLoss(t *testing.T) {
	raw := archiveGame(
		api.ArchivePlayer{Username: "rival", Rating: intPtr(1480), Result: "win"},
		api.ArchivePlayer{Username: "tracked", Rating: intPtr(1500), Result: "timeout"},
	)

	event := GameFromArchive(raw, "TRACKED")

	assert.Equal(t, "rival", event.Opponent)
	assert.Equal(t, domain.ResultLoss, event.Result)
	assert.Equal(t, 1500, *event.PlayerRatingAfter)
}

func TestGameFromArchive_DrawWhenNeitherSideWins(t *testing.T) {
	raw := archiveGame(
		api.ArchivePlayer{Username: "tracked", Rating: intPtr(1500), Result: "agreed"},
		api.ArchivePlayer{Username: "rival", Rating: intPtr(1480), Result: "agreed"},
	)

	event := GameFromArchive(raw, "tracked")
	assert.Equal(t, domain.ResultDraw, event.Result)
}

func TestGameFromArchive_UnknownPlayerAnomaly(t *testing.T) {
	raw := archiveGame(
		api.ArchivePlayer{Username: "someone", Result: "win"},
		api.ArchivePlayer{Username: "else", Result: "resigned"},
	)

	event := GameFromArchive(raw, "tracked")

	assert.Equal(t, "Unknown", event.Opponent)
	assert.Equal(t, domain.ResultDraw, event.Result)
	assert.Nil(t, event.PlayerRatingAfter)
	assert.Nil(t, event.OpponentRating)
	assert.Nil(t, event.RatingDeltaReported)
}

func TestGameFromArchive_ReportedRatingChangePassesThrough(t *testing.T) {
	raw := archiveGame(
		api.ArchivePlayer{Username: "tracked", Rating: intPtr(1508), Result: "win", RatingChange: intPtr(8)},
		api.ArchivePlayer{Username: "rival", Rating: intPtr(1480), Result: "checkmated"},
	)

	event := GameFromArchive(raw, "tracked")
	require.NotNil(t, event.RatingDeltaReported)
	assert.Equal(t, 8, *event.RatingDeltaReported)
}

func TestGameFromArchive_MissingOptionalFields(t *testing.T) {
	raw := api.ArchiveGame{
		URL:   "https://www.chess.com/game/live/777",
		White: api.ArchivePlayer{Username: "tracked", Result: "win"},
		Black: api.ArchivePlayer{Username: "rival", Result: "resigned"},
	}

	event := GameFromArchive(raw, "tracked")

	assert.Equal(t, domain.ResultWin, event.Result)
	assert.Equal(t, domain.CategoryUnknown, event.Category)
	assert.Equal(t, "Unknown", event.Termination)
	assert.Nil(t, event.PlayedAt)
	assert.Nil(t, event.PlayerRatingAfter)
}

package config

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_RequiresUsername(t *testing.T) {
	t.Setenv("CHESS_USERNAME", "")

	_, err := Load(zerolog.Nop())
	require.Error(t, err)
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("CHESS_USERNAME", "tracked")
	t.Setenv("WEBHOOK_URL", "")
	t.Setenv("STATE_PATH", "")
	t.Setenv("DB_PATH", "")
	t.Setenv("LEAGUE_THRESHOLDS", "")

	cfg, err := Load(zerolog.Nop())
	require.NoError(t, err)

	assert.Equal(t, "tracked", cfg.ChessUsername)
	assert.Equal(t, "tracker_state.json", cfg.StatePath)
	assert.Equal(t, "chess.db", cfg.DBPath)
	assert.Empty(t, cfg.WebhookURL)
	assert.Equal(t, 35, cfg.LeagueThresholds["silver"])
	_, hasLegend := cfg.LeagueThresholds["legend"]
	assert.False(t, hasLegend, "top league has no advancement cutoff")
}

func TestParseLeagueThresholds_Overrides(t *testing.T) {
	thresholds := parseLeagueThresholds("silver=40, legend=99", zerolog.Nop())

	assert.Equal(t, 40, thresholds["silver"], "override wins over the default")
	assert.Equal(t, 99, thresholds["legend"])
	assert.Equal(t, 30, thresholds["bronze"], "defaults survive")
}

func TestParseLeagueThresholds_SkipsMalformedPairs(t *testing.T) {
	thresholds := parseLeagueThresholds("silver=oops,nonsense,crystal=41", zerolog.Nop())

	assert.Equal(t, 35, thresholds["silver"], "non-numeric override is ignored")
	assert.Equal(t, 41, thresholds["crystal"])
}

package state

import (
	"os"
	"path/filepath"
	"testing"

	"chess-tracker/internal/domain"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	return &Store{
		path:   filepath.Join(t.TempDir(), "tracker_state.json"),
		logger: zerolog.Nop(),
	}
}

func TestLoad_MissingFileYieldsEmptyState(t *testing.T) {
	s := testStore(t)

	st := s.Load()
	assert.Empty(t, st.ProcessedGameIDs)
	assert.Empty(t, st.LastRatingByCategory)
	assert.False(t, st.LeagueAlert.AlertSent)
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	s := testStore(t)

	st := domain.EmptyState()
	st.ProcessedGameIDs = []string{"111", "222"}
	st.LastRatingByCategory["rapid"] = 1500
	st.LastRatingByCategory["blitz"] = 1320
	st.LeagueAlert = domain.LeagueAlertState{PeriodEndTime: 1_700_000_000, AlertSent: true}

	require.NoError(t, s.Save(st))
	loaded := s.Load()

	assert.Equal(t, st, loaded)
}

func TestSave_LeavesNoTempFile(t *testing.T) {
	s := testStore(t)

	require.NoError(t, s.Save(domain.EmptyState()))

	_, err := os.Stat(s.path + ".tmp")
	assert.True(t, os.IsNotExist(err), "temp file should be renamed away")
}

func TestLoad_CorruptFileYieldsEmptyState(t *testing.T) {
	s := testStore(t)
	require.NoError(t, os.WriteFile(s.path, []byte("{not json"), 0o644))

	st := s.Load()
	assert.Empty(t, st.ProcessedGameIDs)
	assert.Empty(t, st.LastRatingByCategory)
}

func TestLoad_PartialRecordIsNormalized(t *testing.T) {
	s := testStore(t)
	// an older state shape with only the alert sub-record
	require.NoError(t, os.WriteFile(s.path, []byte(`{"league_alert":{"period_end_time":123,"alert_sent":true}}`), 0o644))

	st := s.Load()
	assert.NotNil(t, st.ProcessedGameIDs)
	assert.NotNil(t, st.LastRatingByCategory)
	assert.Equal(t, int64(123), st.LeagueAlert.PeriodEndTime)
	assert.True(t, st.LeagueAlert.AlertSent)
}

func TestSave_OverwritesPreviousState(t *testing.T) {
	s := testStore(t)

	first := domain.EmptyState()
	first.ProcessedGameIDs = []string{"111"}
	require.NoError(t, s.Save(first))

	second := domain.EmptyState()
	second.ProcessedGameIDs = []string{"111", "222"}
	second.LastRatingByCategory["bullet"] = 900
	require.NoError(t, s.Save(second))

	assert.Equal(t, second, s.Load())
}

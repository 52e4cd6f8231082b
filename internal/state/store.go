// Package state persists the tracker snapshot as a flat JSON file.
package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"chess-tracker/internal/config"
	"chess-tracker/internal/domain"

	"github.com/rs/zerolog"
)

type Store struct {
	path   string
	logger zerolog.Logger
}

func NewStore(cfg *config.Config, logger zerolog.Logger) *Store {
	return &Store{path: cfg.StatePath, logger: logger}
}

// Load never fails the caller: a missing file is the empty initial state and
// a corrupt one is recovered to the same, with a warning.
func (s *Store) Load() domain.TrackerState {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		s.logger.Info().Str("path", s.path).Msg("no persisted state, starting fresh")
		return domain.EmptyState()
	}
	if err != nil {
		s.logger.Warn().Err(err).Str("path", s.path).Msg("failed to read persisted state, starting fresh")
		return domain.EmptyState()
	}

	var st domain.TrackerState
	if err := json.Unmarshal(data, &st); err != nil {
		s.logger.Warn().Err(err).Str("path", s.path).Msg("persisted state is corrupt, starting fresh")
		return domain.EmptyState()
	}

	st.Normalize()
	s.logger.Debug().
		Int("processed_games", len(st.ProcessedGameIDs)).
		Int("rating_baselines", len(st.LastRatingByCategory)).
		Msg("persisted state loaded")
	return st
}

// Save writes the full state to a temp file and renames it into place, so a
// partial write is never observable by the next Load.
func (s *Store) Save(st domain.TrackerState) error {
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write state: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("publish state: %w", err)
	}

	s.logger.Debug().Str("path", s.path).Int("processed_games", len(st.ProcessedGameIDs)).Msg("state persisted")
	return nil
}

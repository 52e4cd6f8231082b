// Package repository archives reported games and rating observations to a
// local SQLite database. The archive is best-effort decoration on top of the
// flat tracker state: a write failure is logged and never affects
// reconciliation or dedup.
package repository

import (
	"context"
	"database/sql"
	"fmt"

	"chess-tracker/internal/domain"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
)

type HistoryRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewHistoryRepository(db *sql.DB, logger zerolog.Logger) *HistoryRepository {
	return &HistoryRepository{db: db, logger: logger}
}

// ArchiveBatch records the run's game reports in one transaction. Rows for
// already-archived game ids are left untouched.
func (r *HistoryRepository) ArchiveBatch(ctx context.Context, reports []domain.GameReport) error {
	if len(reports) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, report := range reports {
		if err := r.insertGame(ctx, tx, report); err != nil {
			return err
		}
		if report.Game.PlayerRatingAfter != nil {
			if err := r.insertRating(ctx, tx, report); err != nil {
				return err
			}
		}
	}

	return tx.Commit()
}

func (r *HistoryRepository) insertGame(ctx context.Context, tx *sql.Tx, report domain.GameReport) error {
	id, err := gonanoid.New()
	if err != nil {
		return fmt.Errorf("failed to generate nanoid: %w", err)
	}

	game := report.Game
	_, err = tx.ExecContext(ctx, `
		INSERT INTO game_history (
			id, game_id, game_url, opponent, opponent_rating, result,
			category, time_control, rating_after, rating_delta, termination,
			played_at, reported_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(game_id) DO NOTHING`,
		id, game.GameID, game.GameURL, game.Opponent, nullableInt(game.OpponentRating),
		string(game.Result), string(game.Category), game.TimeControl,
		nullableInt(game.PlayerRatingAfter), report.RatingDelta, game.Termination,
		nullableTime(game),
	)
	if err != nil {
		return fmt.Errorf("failed to archive game %s: %w", game.GameID, err)
	}
	return nil
}

func (r *HistoryRepository) insertRating(ctx context.Context, tx *sql.Tx, report domain.GameReport) error {
	id, err := gonanoid.New()
	if err != nil {
		return fmt.Errorf("failed to generate nanoid: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO rating_history (id, game_id, category, rating, rating_delta, recorded_at)
		VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP)`,
		id, report.Game.GameID, string(report.Game.Category),
		*report.Game.PlayerRatingAfter, report.RatingDelta,
	)
	if err != nil {
		return fmt.Errorf("failed to archive rating for game %s: %w", report.Game.GameID, err)
	}
	return nil
}

// Count returns the number of archived games, logged at the end of each run.
func (r *HistoryRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM game_history`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count archived games: %w", err)
	}
	return count, nil
}

func nullableInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullableTime(game domain.GameEvent) any {
	if game.PlayedAt == nil {
		return nil
	}
	return *game.PlayedAt
}

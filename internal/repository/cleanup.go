package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

type cleanupRepository struct {
	db *sqlx.DB
}

func NewCleanupRepository(db *sqlx.DB) CleanupRepository {
	return &cleanupRepository{db: db}
}

// SweepExpired runs the four expiry sweeps inside one transaction. Each
// sweep is capped at limit rows, so a large backlog drains over several
// runs. A failed commit leaves no partial mutation; the scheduler simply
// retries the whole sweep next cycle.
func (r *cleanupRepository) SweepExpired(ctx context.Context, now time.Time, alertRetention time.Duration, limit int) (SweepResult, error) {
	var result SweepResult

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return result, fmt.Errorf("begin sweep: %w", err)
	}
	defer tx.Rollback()

	result.PresenceDeleted, err = execCapped(ctx, tx, `
		DELETE FROM presence_geo
		WHERE user_id IN (
			SELECT user_id FROM presence_geo WHERE expire_at < $1 LIMIT $2
		)
	`, now, limit)
	if err != nil {
		return SweepResult{}, fmt.Errorf("sweep presence: %w", err)
	}

	result.TokensDeleted, err = execCapped(ctx, tx, `
		DELETE FROM proximity_tokens
		WHERE token IN (
			SELECT token FROM proximity_tokens WHERE expire_at < $1 LIMIT $2
		)
	`, now, limit)
	if err != nil {
		return SweepResult{}, fmt.Errorf("sweep proximity tokens: %w", err)
	}

	result.AlertsDeleted, err = execCapped(ctx, tx, `
		DELETE FROM alerts
		WHERE id IN (
			SELECT id FROM alerts WHERE created_at < $1 LIMIT $2
		)
	`, now.Add(-alertRetention), limit)
	if err != nil {
		return SweepResult{}, fmt.Errorf("sweep alerts: %w", err)
	}

	// Availability rows are not deleted: the signal is closed and its
	// deadline cleared so the row can be reopened later.
	result.AvailabilityUpdated, err = execCapped(ctx, tx, `
		UPDATE availability
		SET open = FALSE, until = NULL, updated_at = NOW()
		WHERE user_id IN (
			SELECT user_id FROM availability WHERE until < $1 LIMIT $2
		)
	`, now, limit)
	if err != nil {
		return SweepResult{}, fmt.Errorf("sweep availability: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return SweepResult{}, fmt.Errorf("commit sweep: %w", err)
	}
	return result, nil
}

func execCapped(ctx context.Context, tx *sqlx.Tx, query string, cutoff time.Time, limit int) (int64, error) {
	res, err := tx.ExecContext(ctx, query, cutoff, limit)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

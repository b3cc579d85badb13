package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"putrace/internal/model"
)

type availabilityRepository struct {
	db *sqlx.DB
}

func NewAvailabilityRepository(db *sqlx.DB) AvailabilityRepository {
	return &availabilityRepository{db: db}
}

func (r *availabilityRepository) Upsert(ctx context.Context, av *model.Availability) error {
	query := `
		INSERT INTO availability (user_id, open, until, audience, custom_group_ids, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (user_id) DO UPDATE SET
			open = EXCLUDED.open,
			until = EXCLUDED.until,
			audience = EXCLUDED.audience,
			custom_group_ids = EXCLUDED.custom_group_ids,
			updated_at = NOW()
		RETURNING updated_at
	`
	err := r.db.QueryRowxContext(ctx, query,
		av.UserID,
		av.Open,
		av.Until,
		av.Audience,
		av.CustomGroupIDs,
	).Scan(&av.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert availability: %w", err)
	}
	return nil
}

func (r *availabilityRepository) GetByUserID(ctx context.Context, userID int64) (*model.Availability, error) {
	query := `
		SELECT user_id, open, until, audience, custom_group_ids, updated_at
		FROM availability
		WHERE user_id = $1
	`
	var av model.Availability
	err := r.db.GetContext(ctx, &av, query, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get availability: %w", err)
	}
	return &av, nil
}

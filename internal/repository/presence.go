package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"putrace/internal/model"
)

type presenceRepository struct {
	db *sqlx.DB
}

func NewPresenceRepository(db *sqlx.DB) PresenceRepository {
	return &presenceRepository{db: db}
}

func (r *presenceRepository) Upsert(ctx context.Context, p *model.Presence) error {
	query := `
		INSERT INTO presence_geo (user_id, geo_hash, expire_at, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (user_id) DO UPDATE SET
			geo_hash = EXCLUDED.geo_hash,
			expire_at = EXCLUDED.expire_at,
			updated_at = NOW()
		RETURNING updated_at
	`
	err := r.db.QueryRowxContext(ctx, query, p.UserID, p.GeoHash, p.ExpireAt).Scan(&p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert presence: %w", err)
	}
	return nil
}

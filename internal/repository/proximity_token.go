package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"putrace/internal/model"
)

type proximityTokenRepository struct {
	db *sqlx.DB
}

func NewProximityTokenRepository(db *sqlx.DB) ProximityTokenRepository {
	return &proximityTokenRepository{db: db}
}

func (r *proximityTokenRepository) Upsert(ctx context.Context, t *model.ProximityToken) error {
	query := `
		INSERT INTO proximity_tokens (token, user_id, expire_at, created_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (token) DO UPDATE SET
			user_id = EXCLUDED.user_id,
			expire_at = EXCLUDED.expire_at
		RETURNING created_at
	`
	err := r.db.QueryRowxContext(ctx, query, t.Token, t.UserID, t.ExpireAt).Scan(&t.CreatedAt)
	if err != nil {
		return fmt.Errorf("upsert proximity token: %w", err)
	}
	return nil
}

func (r *proximityTokenRepository) GetByToken(ctx context.Context, token string) (*model.ProximityToken, error) {
	query := `
		SELECT token, user_id, expire_at, created_at
		FROM proximity_tokens
		WHERE token = $1
	`
	var t model.ProximityToken
	err := r.db.GetContext(ctx, &t, query, token)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, model.ErrProximityTokenNotFound
		}
		return nil, fmt.Errorf("get proximity token: %w", err)
	}
	return &t, nil
}

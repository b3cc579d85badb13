package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"putrace/internal/model"
)

type alertRepository struct {
	db *sqlx.DB
}

func NewAlertRepository(db *sqlx.DB) AlertRepository {
	return &alertRepository{db: db}
}

func (r *alertRepository) Create(ctx context.Context, alert *model.Alert) error {
	query := `
		INSERT INTO alerts (user_id, title, body, route, type, post_id, source_user_id, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
		RETURNING id, created_at
	`
	err := r.db.QueryRowxContext(ctx, query,
		alert.UserID,
		alert.Title,
		alert.Body,
		alert.Route,
		alert.Type,
		alert.PostID,
		alert.SourceUserID,
		alert.ExpiresAt,
	).Scan(&alert.ID, &alert.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert alert: %w", err)
	}
	return nil
}

func (r *alertRepository) ListByRecipient(ctx context.Context, userID int64, limit int) ([]model.Alert, error) {
	query := `
		SELECT id, user_id, title, body, route, type, post_id, source_user_id, expires_at, created_at
		FROM alerts
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	var alerts []model.Alert
	if err := r.db.SelectContext(ctx, &alerts, query, userID, limit); err != nil {
		return nil, fmt.Errorf("list alerts: %w", err)
	}
	return alerts, nil
}

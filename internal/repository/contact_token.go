package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"putrace/internal/model"
)

type contactTokenRepository struct {
	db *sqlx.DB
}

func NewContactTokenRepository(db *sqlx.DB) ContactTokenRepository {
	return &contactTokenRepository{db: db}
}

// UpsertBatch merge-writes contact tokens inside one transaction so a
// re-import either fully applies or leaves the previous state intact.
func (r *contactTokenRepository) UpsertBatch(ctx context.Context, tokens []model.ContactToken) error {
	if len(tokens) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin contact token batch: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO contact_tokens (owner_id, token, kind, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (owner_id, token) DO UPDATE SET
			kind = EXCLUDED.kind,
			updated_at = NOW()
	`
	for _, t := range tokens {
		if _, err := tx.ExecContext(ctx, query, t.OwnerID, t.Token, t.Kind); err != nil {
			return fmt.Errorf("upsert contact token: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit contact token batch: %w", err)
	}
	return nil
}

// GetAll returns the full token collection for the graph builder.
func (r *contactTokenRepository) GetAll(ctx context.Context) ([]model.ContactToken, error) {
	query := `SELECT owner_id, token, kind, updated_at FROM contact_tokens`

	var tokens []model.ContactToken
	if err := r.db.SelectContext(ctx, &tokens, query); err != nil {
		return nil, fmt.Errorf("get all contact tokens: %w", err)
	}
	return tokens, nil
}

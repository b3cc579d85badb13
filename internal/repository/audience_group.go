package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"putrace/internal/model"
)

type audienceGroupRepository struct {
	db *sqlx.DB
}

func NewAudienceGroupRepository(db *sqlx.DB) AudienceGroupRepository {
	return &audienceGroupRepository{db: db}
}

func (r *audienceGroupRepository) Upsert(ctx context.Context, group *model.AudienceGroup) error {
	query := `
		INSERT INTO audience_groups (id, owner_id, name, member_user_ids, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			member_user_ids = EXCLUDED.member_user_ids,
			updated_at = NOW()
		WHERE audience_groups.owner_id = EXCLUDED.owner_id
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRowxContext(ctx, query,
		group.ID,
		group.OwnerID,
		group.Name,
		group.MemberUserIDs,
	).Scan(&group.CreatedAt, &group.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			// Conflict row owned by someone else: the update clause skipped it.
			return model.ErrGroupNotFound
		}
		return fmt.Errorf("upsert audience group: %w", err)
	}
	return nil
}

func (r *audienceGroupRepository) GetByID(ctx context.Context, ownerID int64, groupID string) (*model.AudienceGroup, error) {
	query := `
		SELECT id, owner_id, name, member_user_ids, created_at, updated_at
		FROM audience_groups
		WHERE id = $1 AND owner_id = $2
	`
	var g model.AudienceGroup
	err := r.db.GetContext(ctx, &g, query, groupID, ownerID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, model.ErrGroupNotFound
		}
		return nil, fmt.Errorf("get audience group: %w", err)
	}
	return &g, nil
}

func (r *audienceGroupRepository) ListByOwner(ctx context.Context, ownerID int64) ([]model.AudienceGroup, error) {
	query := `
		SELECT id, owner_id, name, member_user_ids, created_at, updated_at
		FROM audience_groups
		WHERE owner_id = $1
		ORDER BY created_at DESC
	`
	var groups []model.AudienceGroup
	if err := r.db.SelectContext(ctx, &groups, query, ownerID); err != nil {
		return nil, fmt.Errorf("list audience groups: %w", err)
	}
	return groups, nil
}

func (r *audienceGroupRepository) Delete(ctx context.Context, ownerID int64, groupID string) error {
	query := `DELETE FROM audience_groups WHERE id = $1 AND owner_id = $2`
	result, err := r.db.ExecContext(ctx, query, groupID, ownerID)
	if err != nil {
		return fmt.Errorf("delete audience group: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete audience group rows affected: %w", err)
	}
	if rows == 0 {
		return model.ErrGroupNotFound
	}
	return nil
}

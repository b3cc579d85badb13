package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"putrace/internal/model"
)

type graphEdgeRepository struct {
	db *sqlx.DB
}

func NewGraphEdgeRepository(db *sqlx.DB) GraphEdgeRepository {
	return &graphEdgeRepository{db: db}
}

// ReplaceDerived commits one graph build as a single transaction: every
// derived edge is upserted, then edges absent from the derived set are
// deleted. Readers never observe a partially applied run.
func (r *graphEdgeRepository) ReplaceDerived(ctx context.Context, edges []model.GraphEdge) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin graph replace: %w", err)
	}
	defer tx.Rollback()

	upsert := `
		INSERT INTO graph_edges (owner_id, peer_id, degree, shared_contacts, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		ON CONFLICT (owner_id, peer_id) DO UPDATE SET
			degree = EXCLUDED.degree,
			shared_contacts = EXCLUDED.shared_contacts,
			updated_at = NOW()
	`

	ownerIDs := make([]int64, 0, len(edges))
	peerIDs := make([]int64, 0, len(edges))
	for _, e := range edges {
		if _, err := tx.ExecContext(ctx, upsert, e.OwnerID, e.PeerID, e.Degree, e.SharedContacts); err != nil {
			return fmt.Errorf("upsert edge %d->%d: %w", e.OwnerID, e.PeerID, err)
		}
		ownerIDs = append(ownerIDs, e.OwnerID)
		peerIDs = append(peerIDs, e.PeerID)
	}

	// Remove edges whose token intersection became empty since the last
	// build. Matching on parallel (owner, peer) arrays keeps this one
	// statement regardless of edge count.
	prune := `
		DELETE FROM graph_edges
		WHERE (owner_id, peer_id) NOT IN (
			SELECT unnest($1::bigint[]), unnest($2::bigint[])
		)
	`
	if len(edges) == 0 {
		prune = `DELETE FROM graph_edges`
		if _, err := tx.ExecContext(ctx, prune); err != nil {
			return fmt.Errorf("prune edges: %w", err)
		}
	} else if _, err := tx.ExecContext(ctx, prune, pq.Array(ownerIDs), pq.Array(peerIDs)); err != nil {
		return fmt.Errorf("prune edges: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit graph replace: %w", err)
	}
	return nil
}

// GetPeerIDs returns edge peers for an owner, capped at limit. The cap
// bounds resolver latency; results beyond it are silently truncated.
func (r *graphEdgeRepository) GetPeerIDs(ctx context.Context, ownerID int64, limit int) ([]int64, error) {
	query := `
		SELECT peer_id FROM graph_edges
		WHERE owner_id = $1
		ORDER BY peer_id
		LIMIT $2
	`
	var peers []int64
	if err := r.db.SelectContext(ctx, &peers, query, ownerID, limit); err != nil {
		return nil, fmt.Errorf("get peer ids: %w", err)
	}
	return peers, nil
}

func (r *graphEdgeRepository) HasFirstDegree(ctx context.Context, ownerID, peerID int64) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM graph_edges
			WHERE owner_id = $1 AND peer_id = $2 AND degree = $3
		)
	`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, ownerID, peerID, model.DegreeFirst); err != nil {
		return false, fmt.Errorf("check first degree edge: %w", err)
	}
	return exists, nil
}

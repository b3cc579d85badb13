package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"putrace/internal/model"
	"putrace/internal/repository"
)

// GraphBuilder derives first-degree edges from contact-token intersections.
// It runs on a fixed cadence; between runs the edge graph may lag real
// contact changes by up to one cycle.
type GraphBuilder struct {
	tokenRepo repository.ContactTokenRepository
	edgeRepo  repository.GraphEdgeRepository
}

func NewGraphBuilder(
	tokenRepo repository.ContactTokenRepository,
	edgeRepo repository.GraphEdgeRepository,
) *GraphBuilder {
	return &GraphBuilder{
		tokenRepo: tokenRepo,
		edgeRepo:  edgeRepo,
	}
}

// Name identifies the job in scheduler logs.
func (b *GraphBuilder) Name() string { return "graph_builder" }

// Run loads the full contact-token collection, derives the edge set, and
// commits it as one atomic batch. Re-running on unchanged tokens re-derives
// the same edges, so a failed run is simply retried at the next tick.
//
// The pairwise scan is O(U^2 * T) for U users with T tokens each. That is
// acceptable only because runs are infrequent; it is the documented scaling
// limit of this job, not a hidden one.
func (b *GraphBuilder) Run(ctx context.Context) error {
	startTime := time.Now()

	tokens, err := b.tokenRepo.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("load contact tokens: %w", err)
	}

	tokensByOwner := groupTokensByOwner(tokens)
	edges := deriveEdges(tokensByOwner)

	if err := b.edgeRepo.ReplaceDerived(ctx, edges); err != nil {
		return fmt.Errorf("replace edges: %w", err)
	}

	log.Printf("[GraphBuilder] Run OK: users=%d edges=%d duration=%v",
		len(tokensByOwner), len(edges), time.Since(startTime))
	return nil
}

// groupTokensByOwner builds the per-user token sets the pairwise scan
// operates on. A user with zero tokens simply has no entry and never gains
// edges.
func groupTokensByOwner(tokens []model.ContactToken) map[int64]map[string]struct{} {
	byOwner := make(map[int64]map[string]struct{})
	for _, t := range tokens {
		set, ok := byOwner[t.OwnerID]
		if !ok {
			set = make(map[string]struct{})
			byOwner[t.OwnerID] = set
		}
		set[t.Token] = struct{}{}
	}
	return byOwner
}

// deriveEdges computes the token intersection for every unordered pair of
// distinct users and emits a pair of directed degree-1 edges wherever the
// intersection is non-empty. A canonical (low, high) pair key ensures each
// pair is compared once.
func deriveEdges(tokensByOwner map[int64]map[string]struct{}) []model.GraphEdge {
	type pairKey struct{ low, high int64 }
	processed := make(map[pairKey]struct{})

	var edges []model.GraphEdge
	for userA, tokensA := range tokensByOwner {
		for userB, tokensB := range tokensByOwner {
			if userA == userB {
				continue
			}

			key := pairKey{low: userA, high: userB}
			if key.low > key.high {
				key.low, key.high = key.high, key.low
			}
			if _, done := processed[key]; done {
				continue
			}
			processed[key] = struct{}{}

			shared := intersectionSize(tokensA, tokensB)
			if shared == 0 {
				continue
			}

			edges = append(edges,
				model.GraphEdge{
					OwnerID:        userA,
					PeerID:         userB,
					Degree:         model.DegreeFirst,
					SharedContacts: shared,
				},
				model.GraphEdge{
					OwnerID:        userB,
					PeerID:         userA,
					Degree:         model.DegreeFirst,
					SharedContacts: shared,
				},
			)
		}
	}
	return edges
}

func intersectionSize(a, b map[string]struct{}) int {
	// Iterate over the smaller set.
	if len(b) < len(a) {
		a, b = b, a
	}
	count := 0
	for token := range a {
		if _, ok := b[token]; ok {
			count++
		}
	}
	return count
}

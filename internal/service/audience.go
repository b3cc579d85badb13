package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"

	"putrace/internal/model"
	"putrace/internal/repository"
)

// Edge query page caps. They bound resolver latency for very connected
// users; results beyond a cap are silently truncated, which is a documented
// approximation rather than a correctness requirement.
const (
	firstDegreeEdgeLimit  = 1000
	secondDegreeEdgeLimit = 200
)

// AudienceService expands a content item's visibility rule into the concrete
// set of recipient user IDs. The output is a set: order-independent,
// deduplicated, and never containing the author.
type AudienceService struct {
	edgeRepo  repository.GraphEdgeRepository
	groupRepo repository.AudienceGroupRepository
	postRepo  repository.PostRepository
}

func NewAudienceService(
	edgeRepo repository.GraphEdgeRepository,
	groupRepo repository.AudienceGroupRepository,
	postRepo repository.PostRepository,
) *AudienceService {
	return &AudienceService{
		edgeRepo:  edgeRepo,
		groupRepo: groupRepo,
		postRepo:  postRepo,
	}
}

// Resolve expands a visibility rule for an author. Re-running against
// unchanged inputs yields the same set.
func (s *AudienceService) Resolve(ctx context.Context, authorID int64, visibility string, groupIDs []string) ([]int64, error) {
	allowed := make(map[int64]struct{})

	switch visibility {
	case model.VisibilityCustom:
		if err := s.expandGroups(ctx, authorID, groupIDs, allowed); err != nil {
			return nil, err
		}

	case model.VisibilityFirstDegree, model.VisibilitySecondDegree:
		peers, err := s.edgeRepo.GetPeerIDs(ctx, authorID, firstDegreeEdgeLimit)
		if err != nil {
			return nil, fmt.Errorf("first degree peers: %w", err)
		}
		for _, p := range peers {
			allowed[p] = struct{}{}
		}

		if visibility == model.VisibilitySecondDegree {
			// Two-hop closure. First-degree peers stay in the set; the
			// resolver produces the recipient set, it does not classify
			// members by exact degree.
			for _, p := range peers {
				second, err := s.edgeRepo.GetPeerIDs(ctx, p, secondDegreeEdgeLimit)
				if err != nil {
					return nil, fmt.Errorf("second degree peers of %d: %w", p, err)
				}
				for _, sp := range second {
					allowed[sp] = struct{}{}
				}
			}
		}

	default:
		return nil, model.ErrInvalidVisibility
	}

	// The author never sees their own content in an audience, even when
	// graph traversal loops back to them.
	delete(allowed, authorID)

	ids := make([]int64, 0, len(allowed))
	for id := range allowed {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// ResolvePost recomputes and persists a post's derived allowed_user_ids
// field. Concurrent resolutions of the same post are last-write-wins.
func (s *AudienceService) ResolvePost(ctx context.Context, post *model.Post) ([]int64, error) {
	audience, err := s.Resolve(ctx, post.AuthorID, post.Visibility, post.GroupIDs)
	if err != nil {
		return nil, err
	}

	if err := s.postRepo.SetAllowedUserIDs(ctx, post.ID, audience); err != nil {
		return nil, fmt.Errorf("persist audience: %w", err)
	}

	log.Printf("[Audience] Resolved post=%d visibility=%s audience=%d", post.ID, post.Visibility, len(audience))
	return audience, nil
}

// expandGroups unions the member sets of the author's referenced groups.
// A missing or deleted group contributes nothing; it is not an error.
func (s *AudienceService) expandGroups(ctx context.Context, authorID int64, groupIDs []string, allowed map[int64]struct{}) error {
	for _, gid := range groupIDs {
		group, err := s.groupRepo.GetByID(ctx, authorID, gid)
		if err != nil {
			if errors.Is(err, model.ErrGroupNotFound) {
				continue
			}
			return fmt.Errorf("load group %s: %w", gid, err)
		}
		for _, member := range group.MemberUserIDs {
			allowed[member] = struct{}{}
		}
	}
	return nil
}

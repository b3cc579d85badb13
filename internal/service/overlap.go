package service

import (
	"context"
	"fmt"

	"putrace/internal/model"
	"putrace/internal/repository"
)

// OverlapService counts content items that overlap a new item in both time
// and tags. The count only enriches notification bodies; it never filters
// recipients, which remain decided solely by audience resolution.
type OverlapService struct {
	postRepo repository.PostRepository
}

func NewOverlapService(postRepo repository.PostRepository) *OverlapService {
	return &OverlapService{postRepo: postRepo}
}

// CountOverlaps finds posts authored by anyone in the resolved audience
// whose window intersects the new post's window (inclusive) and whose tag
// set intersects its tags. Zero matches is a normal, silent outcome.
func (s *OverlapService) CountOverlaps(ctx context.Context, post *model.Post, audience []int64) (int, error) {
	if !post.HasWindow() || len(post.Tags) == 0 || len(audience) == 0 {
		return 0, nil
	}

	candidates, err := s.postRepo.FindOverlapping(ctx, audience, *post.StartAt, *post.EndAt)
	if err != nil {
		return 0, fmt.Errorf("find overlapping posts: %w", err)
	}

	tags := make(map[string]struct{}, len(post.Tags))
	for _, t := range post.Tags {
		tags[t] = struct{}{}
	}

	matches := 0
	for _, c := range candidates {
		if c.ID == post.ID {
			continue
		}
		if tagsIntersect(tags, c.Tags) {
			matches++
		}
	}
	return matches, nil
}

func tagsIntersect(tags map[string]struct{}, other []string) bool {
	for _, t := range other {
		if _, ok := tags[t]; ok {
			return true
		}
	}
	return false
}

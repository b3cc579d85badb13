package service

import (
	"context"
	"testing"
	"time"

	"github.com/lib/pq"

	"putrace/internal/model"
)

func windowPost(id, authorID int64, start, end time.Time, tags ...string) model.Post {
	return model.Post{
		ID:       id,
		AuthorID: authorID,
		StartAt:  &start,
		EndAt:    &end,
		Tags:     pq.StringArray(tags),
	}
}

// =============================================================================
// OVERLAP COUNT TESTS
// =============================================================================

func TestOverlapService_CountOverlaps_TagAndWindowMatch(t *testing.T) {
	start := time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)
	end := start.Add(2 * time.Hour)

	posts := &mockPostRepo{
		findOverlappingFn: func(ctx context.Context, authorIDs []int64, s, e time.Time) ([]model.Post, error) {
			if !s.Equal(start) || !e.Equal(end) {
				t.Errorf("queried window [%v, %v], want [%v, %v]", s, e, start, end)
			}
			return []model.Post{
				windowPost(20, 2, start, end, "coffee"),          // tag match
				windowPost(21, 3, start, end, "hiking"),          // no shared tag
				windowPost(22, 4, start, end, "coffee", "music"), // tag match
			}, nil
		},
	}
	svc := NewOverlapService(posts)

	post := windowPost(10, 1, start, end, "coffee")
	got, err := svc.CountOverlaps(context.Background(), &post, []int64{2, 3, 4})
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if got != 2 {
		t.Errorf("overlaps = %d, want 2", got)
	}
}

func TestOverlapService_CountOverlaps_ExcludesSelf(t *testing.T) {
	start := time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)

	posts := &mockPostRepo{
		findOverlappingFn: func(ctx context.Context, authorIDs []int64, s, e time.Time) ([]model.Post, error) {
			// The window query can return the post being counted against.
			return []model.Post{windowPost(10, 1, start, end, "coffee")}, nil
		},
	}
	svc := NewOverlapService(posts)

	post := windowPost(10, 1, start, end, "coffee")
	got, err := svc.CountOverlaps(context.Background(), &post, []int64{2})
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if got != 0 {
		t.Errorf("overlaps = %d, want 0", got)
	}
}

func TestOverlapService_CountOverlaps_NoWindowShortCircuits(t *testing.T) {
	called := false
	posts := &mockPostRepo{
		findOverlappingFn: func(ctx context.Context, authorIDs []int64, s, e time.Time) ([]model.Post, error) {
			called = true
			return nil, nil
		},
	}
	svc := NewOverlapService(posts)

	post := model.Post{ID: 10, AuthorID: 1, Tags: pq.StringArray{"coffee"}}
	got, err := svc.CountOverlaps(context.Background(), &post, []int64{2})
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if got != 0 {
		t.Errorf("overlaps = %d, want 0", got)
	}
	if called {
		t.Error("repository queried for a post with no window")
	}
}

func TestOverlapService_CountOverlaps_NoTagsShortCircuits(t *testing.T) {
	called := false
	posts := &mockPostRepo{
		findOverlappingFn: func(ctx context.Context, authorIDs []int64, s, e time.Time) ([]model.Post, error) {
			called = true
			return nil, nil
		},
	}
	svc := NewOverlapService(posts)

	start := time.Now()
	post := windowPost(10, 1, start, start.Add(time.Hour))
	got, err := svc.CountOverlaps(context.Background(), &post, []int64{2})
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if got != 0 {
		t.Errorf("overlaps = %d, want 0", got)
	}
	if called {
		t.Error("repository queried for a post with no tags")
	}
}

func TestOverlapService_CountOverlaps_EmptyAudience(t *testing.T) {
	svc := NewOverlapService(&mockPostRepo{})

	start := time.Now()
	post := windowPost(10, 1, start, start.Add(time.Hour), "coffee")
	got, err := svc.CountOverlaps(context.Background(), &post, nil)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if got != 0 {
		t.Errorf("overlaps = %d, want 0", got)
	}
}

func TestOverlapService_CountOverlaps_TouchingBoundaryCounts(t *testing.T) {
	// A candidate whose window ends exactly when the new post starts is
	// still an overlap: bounds are inclusive on both sides.
	start := time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)

	posts := &mockPostRepo{
		findOverlappingFn: func(ctx context.Context, authorIDs []int64, s, e time.Time) ([]model.Post, error) {
			return []model.Post{windowPost(20, 2, start.Add(-time.Hour), start, "coffee")}, nil
		},
	}
	svc := NewOverlapService(posts)

	post := windowPost(10, 1, start, end, "coffee")
	got, err := svc.CountOverlaps(context.Background(), &post, []int64{2})
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if got != 1 {
		t.Errorf("overlaps = %d, want 1", got)
	}
}

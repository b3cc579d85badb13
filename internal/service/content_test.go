package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/lib/pq"

	"putrace/internal/model"
	"putrace/internal/queue"
)

type mockPublisher struct {
	publishFn func(ctx context.Context, stream string, event queue.ContentEvent) (string, error)

	published []queue.ContentEvent
}

func (m *mockPublisher) Publish(ctx context.Context, stream string, event queue.ContentEvent) (string, error) {
	m.published = append(m.published, event)
	if m.publishFn != nil {
		return m.publishFn(ctx, stream, event)
	}
	return "1-0", nil
}

type mockAvailabilityRepo struct {
	upsertFn      func(ctx context.Context, av *model.Availability) error
	getByUserIDFn func(ctx context.Context, userID int64) (*model.Availability, error)
}

func (m *mockAvailabilityRepo) Upsert(ctx context.Context, av *model.Availability) error {
	if m.upsertFn != nil {
		return m.upsertFn(ctx, av)
	}
	return nil
}

func (m *mockAvailabilityRepo) GetByUserID(ctx context.Context, userID int64) (*model.Availability, error) {
	if m.getByUserIDFn != nil {
		return m.getByUserIDFn(ctx, userID)
	}
	return nil, nil
}

func newContentService(posts *mockPostRepo, avail *mockAvailabilityRepo, groups *mockAudienceGroupRepo, pub *mockPublisher) *ContentService {
	return NewContentService(posts, avail, groups, pub)
}

// =============================================================================
// POST WRITE TESTS
// =============================================================================

func TestContentService_CreatePost_PublishesEvent(t *testing.T) {
	posts := &mockPostRepo{
		createFn: func(ctx context.Context, post *model.Post) error {
			post.ID = 10
			return nil
		},
	}
	pub := &mockPublisher{}
	svc := newContentService(posts, &mockAvailabilityRepo{}, &mockAudienceGroupRepo{}, pub)

	text := "coffee?"
	post, err := svc.CreatePost(context.Background(), 1, &model.CreatePostRequest{
		Text:       &text,
		Visibility: model.VisibilityFirstDegree,
	})
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if post.ID != 10 {
		t.Errorf("post ID = %d, want 10", post.ID)
	}

	if len(pub.published) != 1 {
		t.Fatalf("events published = %d, want 1", len(pub.published))
	}
	ev := pub.published[0]
	if ev.Type != queue.EventPostCreated || ev.PostID != 10 || ev.AuthorID != 1 {
		t.Errorf("event = %+v, want post_created for post 10 by author 1", ev)
	}
}

func TestContentService_CreatePost_InvalidVisibility(t *testing.T) {
	pub := &mockPublisher{}
	svc := newContentService(&mockPostRepo{}, &mockAvailabilityRepo{}, &mockAudienceGroupRepo{}, pub)

	_, err := svc.CreatePost(context.Background(), 1, &model.CreatePostRequest{
		Visibility: "public",
	})
	if !errors.Is(err, model.ErrInvalidVisibility) {
		t.Errorf("error = %v, want ErrInvalidVisibility", err)
	}
	if len(pub.published) != 0 {
		t.Error("no event may be published for a rejected post")
	}
}

func TestContentService_CreatePost_TextTooLong(t *testing.T) {
	svc := newContentService(&mockPostRepo{}, &mockAvailabilityRepo{}, &mockAudienceGroupRepo{}, &mockPublisher{})

	text := strings.Repeat("x", model.MaxPostTextLength+1)
	_, err := svc.CreatePost(context.Background(), 1, &model.CreatePostRequest{
		Text:       &text,
		Visibility: model.VisibilityFirstDegree,
	})
	if !errors.Is(err, model.ErrTextTooLong) {
		t.Errorf("error = %v, want ErrTextTooLong", err)
	}
}

func TestContentService_CreatePost_InvertedWindow(t *testing.T) {
	svc := newContentService(&mockPostRepo{}, &mockAvailabilityRepo{}, &mockAudienceGroupRepo{}, &mockPublisher{})

	end := time.Now()
	start := end.Add(time.Hour)
	_, err := svc.CreatePost(context.Background(), 1, &model.CreatePostRequest{
		Visibility: model.VisibilityFirstDegree,
		StartAt:    &start,
		EndAt:      &end,
	})
	if !errors.Is(err, model.ErrInvalidWindow) {
		t.Errorf("error = %v, want ErrInvalidWindow", err)
	}
}

func TestContentService_CreatePost_HalfWindow(t *testing.T) {
	svc := newContentService(&mockPostRepo{}, &mockAvailabilityRepo{}, &mockAudienceGroupRepo{}, &mockPublisher{})

	start := time.Now()
	_, err := svc.CreatePost(context.Background(), 1, &model.CreatePostRequest{
		Visibility: model.VisibilityFirstDegree,
		StartAt:    &start,
	})
	if !errors.Is(err, model.ErrInvalidWindow) {
		t.Errorf("error = %v, want ErrInvalidWindow", err)
	}
}

func TestContentService_CreatePost_PublishFailureTolerated(t *testing.T) {
	// The post is durable once the insert commits; a dead queue only
	// delays audience resolution until the next write.
	posts := &mockPostRepo{
		createFn: func(ctx context.Context, post *model.Post) error {
			post.ID = 10
			return nil
		},
	}
	pub := &mockPublisher{
		publishFn: func(ctx context.Context, stream string, event queue.ContentEvent) (string, error) {
			return "", errors.New("redis down")
		},
	}
	svc := newContentService(posts, &mockAvailabilityRepo{}, &mockAudienceGroupRepo{}, pub)

	if _, err := svc.CreatePost(context.Background(), 1, &model.CreatePostRequest{
		Visibility: model.VisibilityFirstDegree,
	}); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
}

// =============================================================================
// POST READ TESTS
// =============================================================================

func TestContentService_GetPost_AudienceMemberAllowed(t *testing.T) {
	posts := &mockPostRepo{
		getByIDFn: func(ctx context.Context, postID int64) (*model.Post, error) {
			return &model.Post{ID: postID, AuthorID: 1, AllowedUserIDs: pq.Int64Array{2, 3}}, nil
		},
	}
	svc := newContentService(posts, &mockAvailabilityRepo{}, &mockAudienceGroupRepo{}, &mockPublisher{})

	if _, err := svc.GetPost(context.Background(), 2, 10); err != nil {
		t.Errorf("audience member denied: %v", err)
	}
	if _, err := svc.GetPost(context.Background(), 1, 10); err != nil {
		t.Errorf("author denied: %v", err)
	}
}

func TestContentService_GetPost_OutsiderDenied(t *testing.T) {
	posts := &mockPostRepo{
		getByIDFn: func(ctx context.Context, postID int64) (*model.Post, error) {
			return &model.Post{ID: postID, AuthorID: 1, AllowedUserIDs: pq.Int64Array{2}}, nil
		},
	}
	svc := newContentService(posts, &mockAvailabilityRepo{}, &mockAudienceGroupRepo{}, &mockPublisher{})

	// Denied with the same error as a missing post, so outsiders can't
	// distinguish "hidden from you" from "doesn't exist".
	_, err := svc.GetPost(context.Background(), 9, 10)
	if !errors.Is(err, model.ErrPostNotFound) {
		t.Errorf("error = %v, want ErrPostNotFound", err)
	}
}

// =============================================================================
// AVAILABILITY TESTS
// =============================================================================

func TestContentService_UpsertAvailability_OpenPublishes(t *testing.T) {
	pub := &mockPublisher{}
	svc := newContentService(&mockPostRepo{}, &mockAvailabilityRepo{}, &mockAudienceGroupRepo{}, pub)

	_, err := svc.UpsertAvailability(context.Background(), 1, &model.UpsertAvailabilityRequest{
		Open:     true,
		Audience: model.VisibilityFirstDegree,
	})
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if len(pub.published) != 1 || pub.published[0].Type != queue.EventAvailabilityOpened {
		t.Errorf("events = %v, want one availability_opened", pub.published)
	}
	if pub.published[0].UserID != 1 {
		t.Errorf("event user = %d, want 1", pub.published[0].UserID)
	}
}

func TestContentService_UpsertAvailability_CloseIsSilent(t *testing.T) {
	pub := &mockPublisher{}
	svc := newContentService(&mockPostRepo{}, &mockAvailabilityRepo{}, &mockAudienceGroupRepo{}, pub)

	_, err := svc.UpsertAvailability(context.Background(), 1, &model.UpsertAvailabilityRequest{
		Open:     false,
		Audience: model.VisibilityFirstDegree,
	})
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if len(pub.published) != 0 {
		t.Errorf("events = %v, want none when closing", pub.published)
	}
}

func TestContentService_UpsertAvailability_InvalidAudience(t *testing.T) {
	svc := newContentService(&mockPostRepo{}, &mockAvailabilityRepo{}, &mockAudienceGroupRepo{}, &mockPublisher{})

	_, err := svc.UpsertAvailability(context.Background(), 1, &model.UpsertAvailabilityRequest{
		Open:     true,
		Audience: "everyone",
	})
	if !errors.Is(err, model.ErrInvalidVisibility) {
		t.Errorf("error = %v, want ErrInvalidVisibility", err)
	}
}

// =============================================================================
// GROUP TESTS
// =============================================================================

func TestContentService_UpdateGroup_PublishesGroupsChanged(t *testing.T) {
	groups := &mockAudienceGroupRepo{
		getByIDFn: func(ctx context.Context, ownerID int64, groupID string) (*model.AudienceGroup, error) {
			return &model.AudienceGroup{ID: groupID, OwnerID: ownerID}, nil
		},
	}
	pub := &mockPublisher{}
	svc := newContentService(&mockPostRepo{}, &mockAvailabilityRepo{}, groups, pub)

	_, err := svc.UpdateGroup(context.Background(), 1, "g1", &model.UpsertGroupRequest{
		Name:          "close friends",
		MemberUserIDs: []int64{2, 3},
	})
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if len(pub.published) != 1 || pub.published[0].Type != queue.EventGroupsChanged {
		t.Fatalf("events = %v, want one groups_changed", pub.published)
	}
	if pub.published[0].OwnerID != 1 || pub.published[0].GroupID != "g1" {
		t.Errorf("event = %+v, want owner 1 group g1", pub.published[0])
	}
}

func TestContentService_UpdateGroup_ForeignGroupNotFound(t *testing.T) {
	pub := &mockPublisher{}
	svc := newContentService(&mockPostRepo{}, &mockAvailabilityRepo{}, &mockAudienceGroupRepo{}, pub)

	_, err := svc.UpdateGroup(context.Background(), 1, "someone-elses", &model.UpsertGroupRequest{})
	if !errors.Is(err, model.ErrGroupNotFound) {
		t.Errorf("error = %v, want ErrGroupNotFound", err)
	}
	if len(pub.published) != 0 {
		t.Error("no event may be published for a failed update")
	}
}

func TestContentService_DeleteGroup_PublishesGroupsChanged(t *testing.T) {
	pub := &mockPublisher{}
	svc := newContentService(&mockPostRepo{}, &mockAvailabilityRepo{}, &mockAudienceGroupRepo{}, pub)

	if err := svc.DeleteGroup(context.Background(), 1, "g1"); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if len(pub.published) != 1 || pub.published[0].Type != queue.EventGroupsChanged {
		t.Errorf("events = %v, want one groups_changed", pub.published)
	}
}

func TestContentService_CreateGroup_AssignsID(t *testing.T) {
	svc := newContentService(&mockPostRepo{}, &mockAvailabilityRepo{}, &mockAudienceGroupRepo{}, &mockPublisher{})

	group, err := svc.CreateGroup(context.Background(), 1, &model.UpsertGroupRequest{
		Name:          "hiking crew",
		MemberUserIDs: []int64{2},
	})
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if group.ID == "" {
		t.Error("expected a generated group ID")
	}
	if group.OwnerID != 1 {
		t.Errorf("owner = %d, want 1", group.OwnerID)
	}
}

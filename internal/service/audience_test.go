package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lib/pq"

	"putrace/internal/model"
)

// =============================================================================
// MOCK REPOSITORIES
// =============================================================================
//
// Shared by the audience, graph, overlap, and proximity tests in this
// package. Each field overrides one interface method; unset fields return
// zero values.

type mockGraphEdgeRepo struct {
	replaceDerivedFn func(ctx context.Context, edges []model.GraphEdge) error
	getPeerIDsFn     func(ctx context.Context, ownerID int64, limit int) ([]int64, error)
	hasFirstDegreeFn func(ctx context.Context, ownerID, peerID int64) (bool, error)

	replaceCalls [][]model.GraphEdge
}

func (m *mockGraphEdgeRepo) ReplaceDerived(ctx context.Context, edges []model.GraphEdge) error {
	m.replaceCalls = append(m.replaceCalls, edges)
	if m.replaceDerivedFn != nil {
		return m.replaceDerivedFn(ctx, edges)
	}
	return nil
}

func (m *mockGraphEdgeRepo) GetPeerIDs(ctx context.Context, ownerID int64, limit int) ([]int64, error) {
	if m.getPeerIDsFn != nil {
		return m.getPeerIDsFn(ctx, ownerID, limit)
	}
	return nil, nil
}

func (m *mockGraphEdgeRepo) HasFirstDegree(ctx context.Context, ownerID, peerID int64) (bool, error) {
	if m.hasFirstDegreeFn != nil {
		return m.hasFirstDegreeFn(ctx, ownerID, peerID)
	}
	return false, nil
}

type mockAudienceGroupRepo struct {
	upsertFn      func(ctx context.Context, group *model.AudienceGroup) error
	getByIDFn     func(ctx context.Context, ownerID int64, groupID string) (*model.AudienceGroup, error)
	listByOwnerFn func(ctx context.Context, ownerID int64) ([]model.AudienceGroup, error)
	deleteFn      func(ctx context.Context, ownerID int64, groupID string) error
}

func (m *mockAudienceGroupRepo) Upsert(ctx context.Context, group *model.AudienceGroup) error {
	if m.upsertFn != nil {
		return m.upsertFn(ctx, group)
	}
	return nil
}

func (m *mockAudienceGroupRepo) GetByID(ctx context.Context, ownerID int64, groupID string) (*model.AudienceGroup, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, ownerID, groupID)
	}
	return nil, model.ErrGroupNotFound
}

func (m *mockAudienceGroupRepo) ListByOwner(ctx context.Context, ownerID int64) ([]model.AudienceGroup, error) {
	if m.listByOwnerFn != nil {
		return m.listByOwnerFn(ctx, ownerID)
	}
	return nil, nil
}

func (m *mockAudienceGroupRepo) Delete(ctx context.Context, ownerID int64, groupID string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, ownerID, groupID)
	}
	return nil
}

type mockPostRepo struct {
	createFn               func(ctx context.Context, post *model.Post) error
	updateFn               func(ctx context.Context, post *model.Post) error
	getByIDFn              func(ctx context.Context, postID int64) (*model.Post, error)
	setAllowedUserIDsFn    func(ctx context.Context, postID int64, userIDs []int64) error
	findOverlappingFn      func(ctx context.Context, authorIDs []int64, start, end time.Time) ([]model.Post, error)
	listByAuthorAndGroupFn func(ctx context.Context, authorID int64, groupID string) ([]model.Post, error)

	setAllowedCalls []setAllowedCall
}

type setAllowedCall struct {
	PostID  int64
	UserIDs []int64
}

func (m *mockPostRepo) Create(ctx context.Context, post *model.Post) error {
	if m.createFn != nil {
		return m.createFn(ctx, post)
	}
	return nil
}

func (m *mockPostRepo) Update(ctx context.Context, post *model.Post) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, post)
	}
	return nil
}

func (m *mockPostRepo) GetByID(ctx context.Context, postID int64) (*model.Post, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, postID)
	}
	return nil, model.ErrPostNotFound
}

func (m *mockPostRepo) SetAllowedUserIDs(ctx context.Context, postID int64, userIDs []int64) error {
	m.setAllowedCalls = append(m.setAllowedCalls, setAllowedCall{PostID: postID, UserIDs: userIDs})
	if m.setAllowedUserIDsFn != nil {
		return m.setAllowedUserIDsFn(ctx, postID, userIDs)
	}
	return nil
}

func (m *mockPostRepo) FindOverlapping(ctx context.Context, authorIDs []int64, start, end time.Time) ([]model.Post, error) {
	if m.findOverlappingFn != nil {
		return m.findOverlappingFn(ctx, authorIDs, start, end)
	}
	return nil, nil
}

func (m *mockPostRepo) ListByAuthorAndGroup(ctx context.Context, authorID int64, groupID string) ([]model.Post, error) {
	if m.listByAuthorAndGroupFn != nil {
		return m.listByAuthorAndGroupFn(ctx, authorID, groupID)
	}
	return nil, nil
}

// =============================================================================
// RESOLVE TESTS
// =============================================================================

func equalIDs(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestAudienceService_Resolve_FirstDegree(t *testing.T) {
	edges := &mockGraphEdgeRepo{
		getPeerIDsFn: func(ctx context.Context, ownerID int64, limit int) ([]int64, error) {
			if ownerID != 1 {
				t.Errorf("queried peers of %d, want 1", ownerID)
			}
			return []int64{2, 3}, nil
		},
	}
	svc := NewAudienceService(edges, &mockAudienceGroupRepo{}, &mockPostRepo{})

	got, err := svc.Resolve(context.Background(), 1, model.VisibilityFirstDegree, nil)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if !equalIDs(got, []int64{2, 3}) {
		t.Errorf("audience = %v, want [2 3]", got)
	}
}

func TestAudienceService_Resolve_ExcludesAuthor(t *testing.T) {
	// The graph can loop back to the author (A - B - A on a second hop).
	// The author must never appear in their own audience.
	edges := &mockGraphEdgeRepo{
		getPeerIDsFn: func(ctx context.Context, ownerID int64, limit int) ([]int64, error) {
			switch ownerID {
			case 1:
				return []int64{2}, nil
			case 2:
				return []int64{1, 3}, nil
			}
			return nil, nil
		},
	}
	svc := NewAudienceService(edges, &mockAudienceGroupRepo{}, &mockPostRepo{})

	got, err := svc.Resolve(context.Background(), 1, model.VisibilitySecondDegree, nil)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if !equalIDs(got, []int64{2, 3}) {
		t.Errorf("audience = %v, want [2 3]", got)
	}
}

func TestAudienceService_Resolve_SecondDegreeIncludesFirstDegree(t *testing.T) {
	// A - B, B - C. Second degree for A is {B, C}: direct peers stay in.
	edges := &mockGraphEdgeRepo{
		getPeerIDsFn: func(ctx context.Context, ownerID int64, limit int) ([]int64, error) {
			switch ownerID {
			case 1:
				return []int64{2}, nil
			case 2:
				return []int64{1, 3}, nil
			case 3:
				return []int64{2}, nil
			}
			return nil, nil
		},
	}
	svc := NewAudienceService(edges, &mockAudienceGroupRepo{}, &mockPostRepo{})

	got, err := svc.Resolve(context.Background(), 1, model.VisibilitySecondDegree, nil)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if !equalIDs(got, []int64{2, 3}) {
		t.Errorf("audience = %v, want [2 3]", got)
	}
}

func TestAudienceService_Resolve_CustomUnionsGroups(t *testing.T) {
	groups := &mockAudienceGroupRepo{
		getByIDFn: func(ctx context.Context, ownerID int64, groupID string) (*model.AudienceGroup, error) {
			switch groupID {
			case "g1":
				return &model.AudienceGroup{ID: "g1", MemberUserIDs: pq.Int64Array{2, 3}}, nil
			case "g2":
				return &model.AudienceGroup{ID: "g2", MemberUserIDs: pq.Int64Array{3, 4}}, nil
			}
			return nil, model.ErrGroupNotFound
		},
	}
	svc := NewAudienceService(&mockGraphEdgeRepo{}, groups, &mockPostRepo{})

	// "missing" was deleted since the post was written; it contributes
	// nothing rather than failing the resolve.
	got, err := svc.Resolve(context.Background(), 1, model.VisibilityCustom, []string{"g1", "g2", "missing"})
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if !equalIDs(got, []int64{2, 3, 4}) {
		t.Errorf("audience = %v, want [2 3 4]", got)
	}
}

func TestAudienceService_Resolve_CustomExcludesAuthor(t *testing.T) {
	groups := &mockAudienceGroupRepo{
		getByIDFn: func(ctx context.Context, ownerID int64, groupID string) (*model.AudienceGroup, error) {
			// Author accidentally added themselves to the group.
			return &model.AudienceGroup{ID: groupID, MemberUserIDs: pq.Int64Array{1, 2}}, nil
		},
	}
	svc := NewAudienceService(&mockGraphEdgeRepo{}, groups, &mockPostRepo{})

	got, err := svc.Resolve(context.Background(), 1, model.VisibilityCustom, []string{"g1"})
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if !equalIDs(got, []int64{2}) {
		t.Errorf("audience = %v, want [2]", got)
	}
}

func TestAudienceService_Resolve_UnknownVisibility(t *testing.T) {
	svc := NewAudienceService(&mockGraphEdgeRepo{}, &mockAudienceGroupRepo{}, &mockPostRepo{})

	_, err := svc.Resolve(context.Background(), 1, "everyone", nil)
	if !errors.Is(err, model.ErrInvalidVisibility) {
		t.Errorf("error = %v, want ErrInvalidVisibility", err)
	}
}

func TestAudienceService_Resolve_Deterministic(t *testing.T) {
	edges := &mockGraphEdgeRepo{
		getPeerIDsFn: func(ctx context.Context, ownerID int64, limit int) ([]int64, error) {
			switch ownerID {
			case 1:
				return []int64{5, 2, 9}, nil
			default:
				return []int64{7, 2}, nil
			}
		},
	}
	svc := NewAudienceService(edges, &mockAudienceGroupRepo{}, &mockPostRepo{})

	first, err := svc.Resolve(context.Background(), 1, model.VisibilitySecondDegree, nil)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	second, err := svc.Resolve(context.Background(), 1, model.VisibilitySecondDegree, nil)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if !equalIDs(first, second) {
		t.Errorf("resolve not deterministic: %v vs %v", first, second)
	}
}

// =============================================================================
// RESOLVE-AND-PERSIST TESTS
// =============================================================================

func TestAudienceService_ResolvePost_PersistsAudience(t *testing.T) {
	edges := &mockGraphEdgeRepo{
		getPeerIDsFn: func(ctx context.Context, ownerID int64, limit int) ([]int64, error) {
			return []int64{2, 3}, nil
		},
	}
	posts := &mockPostRepo{}
	svc := NewAudienceService(edges, &mockAudienceGroupRepo{}, posts)

	post := &model.Post{ID: 10, AuthorID: 1, Visibility: model.VisibilityFirstDegree}
	got, err := svc.ResolvePost(context.Background(), post)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if !equalIDs(got, []int64{2, 3}) {
		t.Errorf("audience = %v, want [2 3]", got)
	}

	if len(posts.setAllowedCalls) != 1 {
		t.Fatalf("SetAllowedUserIDs called %d times, want 1", len(posts.setAllowedCalls))
	}
	call := posts.setAllowedCalls[0]
	if call.PostID != 10 || !equalIDs(call.UserIDs, []int64{2, 3}) {
		t.Errorf("persisted (%d, %v), want (10, [2 3])", call.PostID, call.UserIDs)
	}
}

func TestAudienceService_ResolvePost_EmptyAudiencePersisted(t *testing.T) {
	// A post whose groups all vanished still gets its derived field
	// written, so stale recipients are cleared.
	posts := &mockPostRepo{}
	svc := NewAudienceService(&mockGraphEdgeRepo{}, &mockAudienceGroupRepo{}, posts)

	post := &model.Post{ID: 11, AuthorID: 1, Visibility: model.VisibilityCustom, GroupIDs: pq.StringArray{"gone"}}
	got, err := svc.ResolvePost(context.Background(), post)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("audience = %v, want empty", got)
	}
	if len(posts.setAllowedCalls) != 1 {
		t.Errorf("SetAllowedUserIDs called %d times, want 1", len(posts.setAllowedCalls))
	}
}

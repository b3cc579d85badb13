package service

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"

	"putrace/internal/model"
	"putrace/internal/queue"
	"putrace/internal/repository"
)

// ContentService handles post, availability, and audience-group writes.
// Every write that can change an audience publishes an event so the worker
// recomputes derived fields and fans out alerts off the request path.
type ContentService struct {
	postRepo  repository.PostRepository
	availRepo repository.AvailabilityRepository
	groupRepo repository.AudienceGroupRepository
	publisher queue.Publisher
}

func NewContentService(
	postRepo repository.PostRepository,
	availRepo repository.AvailabilityRepository,
	groupRepo repository.AudienceGroupRepository,
	publisher queue.Publisher,
) *ContentService {
	return &ContentService{
		postRepo:  postRepo,
		availRepo: availRepo,
		groupRepo: groupRepo,
		publisher: publisher,
	}
}

// CreatePost validates and writes a post, then publishes post_created. The
// write returns before the audience is resolved; allowed_user_ids starts
// empty and is filled by the worker.
func (s *ContentService) CreatePost(ctx context.Context, authorID int64, req *model.CreatePostRequest) (*model.Post, error) {
	post, err := postFromRequest(authorID, req)
	if err != nil {
		return nil, err
	}

	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, err
	}

	s.publish(ctx, queue.NewPostCreatedEvent(post.ID, post.AuthorID))
	return post, nil
}

// UpdatePost replaces a post's fields and publishes post_updated so the
// audience is re-resolved. Update alerts are not re-sent.
func (s *ContentService) UpdatePost(ctx context.Context, authorID, postID int64, req *model.UpdatePostRequest) (*model.Post, error) {
	post, err := postFromRequest(authorID, req)
	if err != nil {
		return nil, err
	}
	post.ID = postID

	if err := s.postRepo.Update(ctx, post); err != nil {
		return nil, err
	}

	s.publish(ctx, queue.NewPostUpdatedEvent(post.ID, post.AuthorID))
	return post, nil
}

// GetPost returns a post if the viewer is its author or in its resolved
// audience.
func (s *ContentService) GetPost(ctx context.Context, viewerID, postID int64) (*model.Post, error) {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post.AuthorID == viewerID {
		return post, nil
	}
	for _, id := range post.AllowedUserIDs {
		if id == viewerID {
			return post, nil
		}
	}
	return nil, model.ErrPostNotFound
}

// UpsertAvailability stores the caller's availability signal. Opening the
// signal publishes availability_opened; closing it is silent.
func (s *ContentService) UpsertAvailability(ctx context.Context, userID int64, req *model.UpsertAvailabilityRequest) (*model.Availability, error) {
	if !model.IsValidVisibility(req.Audience) {
		return nil, model.ErrInvalidVisibility
	}

	av := &model.Availability{
		UserID:         userID,
		Open:           req.Open,
		Until:          req.Until,
		Audience:       req.Audience,
		CustomGroupIDs: req.CustomGroupIDs,
	}
	if err := s.availRepo.Upsert(ctx, av); err != nil {
		return nil, err
	}

	if av.Open {
		s.publish(ctx, queue.NewAvailabilityOpenedEvent(userID))
	}
	return av, nil
}

// GetAvailability returns the caller's availability, nil if never set.
func (s *ContentService) GetAvailability(ctx context.Context, userID int64) (*model.Availability, error) {
	return s.availRepo.GetByUserID(ctx, userID)
}

// CreateGroup creates an owner-scoped audience group.
func (s *ContentService) CreateGroup(ctx context.Context, ownerID int64, req *model.UpsertGroupRequest) (*model.AudienceGroup, error) {
	group := &model.AudienceGroup{
		ID:            uuid.NewString(),
		OwnerID:       ownerID,
		Name:          req.Name,
		MemberUserIDs: req.MemberUserIDs,
	}
	if err := s.groupRepo.Upsert(ctx, group); err != nil {
		return nil, err
	}
	return group, nil
}

// UpdateGroup replaces a group's name and members, then publishes
// groups_changed so dependent post audiences are recomputed.
func (s *ContentService) UpdateGroup(ctx context.Context, ownerID int64, groupID string, req *model.UpsertGroupRequest) (*model.AudienceGroup, error) {
	// Ownership check before the upsert so a foreign ID surfaces as not found.
	if _, err := s.groupRepo.GetByID(ctx, ownerID, groupID); err != nil {
		return nil, err
	}

	group := &model.AudienceGroup{
		ID:            groupID,
		OwnerID:       ownerID,
		Name:          req.Name,
		MemberUserIDs: req.MemberUserIDs,
	}
	if err := s.groupRepo.Upsert(ctx, group); err != nil {
		return nil, err
	}

	s.publish(ctx, queue.NewGroupsChangedEvent(ownerID, groupID))
	return group, nil
}

// DeleteGroup removes a group and publishes groups_changed; the deleted
// group then contributes nothing to dependent audiences.
func (s *ContentService) DeleteGroup(ctx context.Context, ownerID int64, groupID string) error {
	if err := s.groupRepo.Delete(ctx, ownerID, groupID); err != nil {
		return err
	}
	s.publish(ctx, queue.NewGroupsChangedEvent(ownerID, groupID))
	return nil
}

// ListGroups returns the caller's audience groups.
func (s *ContentService) ListGroups(ctx context.Context, ownerID int64) ([]model.AudienceGroup, error) {
	return s.groupRepo.ListByOwner(ctx, ownerID)
}

// publish logs and swallows publish failures: the write already committed
// and derived fields heal on the next write or group change.
func (s *ContentService) publish(ctx context.Context, event queue.ContentEvent) {
	if _, err := s.publisher.Publish(ctx, queue.StreamContent, event); err != nil {
		log.Printf("[Content] publish failed: type=%s err=%v", event.Type, err)
	}
}

func postFromRequest(authorID int64, req *model.CreatePostRequest) (*model.Post, error) {
	if !model.IsValidVisibility(req.Visibility) {
		return nil, model.ErrInvalidVisibility
	}
	if req.Text != nil && len(*req.Text) > model.MaxPostTextLength {
		return nil, model.ErrTextTooLong
	}
	if req.StartAt != nil && req.EndAt != nil && req.EndAt.Before(*req.StartAt) {
		return nil, model.ErrInvalidWindow
	}
	if (req.StartAt == nil) != (req.EndAt == nil) {
		return nil, fmt.Errorf("start_at and end_at must both be provided or both omitted: %w", model.ErrInvalidWindow)
	}

	return &model.Post{
		AuthorID:   authorID,
		Text:       req.Text,
		Visibility: req.Visibility,
		GroupIDs:   req.GroupIDs,
		StartAt:    req.StartAt,
		EndAt:      req.EndAt,
		Tags:       req.Tags,
	}, nil
}

package worker

import (
	"context"
	"fmt"
	"log"
	"time"

	"putrace/internal/model"
	"putrace/internal/queue"
	"putrace/internal/service"
)

// AudienceResolver expands visibility rules into recipient sets.
// Satisfied by service.AudienceService; abstracted so workers can be tested
// without a database.
type AudienceResolver interface {
	// Resolve expands a rule for an author without persisting anything.
	Resolve(ctx context.Context, authorID int64, visibility string, groupIDs []string) ([]int64, error)
	// ResolvePost recomputes and persists a post's derived audience.
	ResolvePost(ctx context.Context, post *model.Post) ([]int64, error)
}

// OverlapCounter counts audience-authored posts overlapping a new one.
type OverlapCounter interface {
	CountOverlaps(ctx context.Context, post *model.Post, audience []int64) (int, error)
}

// AlertFanout delivers a notification to a recipient set.
type AlertFanout interface {
	Deliver(ctx context.Context, recipients []int64, n service.Notification) service.FanoutResult
}

// PostProvider fetches posts for pipeline handlers.
type PostProvider interface {
	GetByID(ctx context.Context, postID int64) (*model.Post, error)
	ListByAuthorAndGroup(ctx context.Context, authorID int64, groupID string) ([]model.Post, error)
}

// AvailabilityProvider fetches availability signals.
type AvailabilityProvider interface {
	GetByUserID(ctx context.Context, userID int64) (*model.Availability, error)
}

// Handler processes content events from the queue: it resolves audiences,
// enriches with overlap counts, and triggers fan-out. Handlers are
// idempotent; a redelivered event re-derives the same state.
type Handler struct {
	resolver AudienceResolver
	overlap  OverlapCounter
	fanout   AlertFanout
	posts    PostProvider
	avail    AvailabilityProvider
}

// NewHandler creates a new event handler.
func NewHandler(
	resolver AudienceResolver,
	overlap OverlapCounter,
	fanout AlertFanout,
	posts PostProvider,
	avail AvailabilityProvider,
) *Handler {
	return &Handler{
		resolver: resolver,
		overlap:  overlap,
		fanout:   fanout,
		posts:    posts,
		avail:    avail,
	}
}

// HandleEvent routes an event to the appropriate handler based on type.
func (h *Handler) HandleEvent(ctx context.Context, event queue.ContentEvent) error {
	startTime := time.Now()
	var err error

	switch event.Type {
	case queue.EventPostCreated:
		err = h.handlePostCreated(ctx, event)
	case queue.EventPostUpdated:
		err = h.handlePostUpdated(ctx, event)
	case queue.EventAvailabilityOpened:
		err = h.handleAvailabilityOpened(ctx, event)
	case queue.EventGroupsChanged:
		err = h.handleGroupsChanged(ctx, event)
	default:
		log.Printf("[Worker] Unknown event type: %s", event.Type)
		return fmt.Errorf("unknown event type: %s", event.Type)
	}

	if err != nil {
		log.Printf("[Worker] HandleEvent FAILED: type=%s duration=%v err=%v",
			event.Type, time.Since(startTime), err)
		return err
	}

	log.Printf("[Worker] HandleEvent OK: type=%s duration=%v", event.Type, time.Since(startTime))
	return nil
}

// handlePostCreated resolves the post's audience, counts overlapping plans
// for context, and fans out "new plan" alerts.
func (h *Handler) handlePostCreated(ctx context.Context, event queue.ContentEvent) error {
	post, err := h.posts.GetByID(ctx, event.PostID)
	if err != nil {
		return fmt.Errorf("load post: %w", err)
	}

	audience, err := h.resolver.ResolvePost(ctx, post)
	if err != nil {
		return fmt.Errorf("resolve audience: %w", err)
	}
	if len(audience) == 0 {
		log.Printf("[Worker] PostCreated: post=%d has empty audience, nothing to do", post.ID)
		return nil
	}

	// Overlap enrichment is contextual only; a counting failure must not
	// cost anyone their alert.
	overlaps, err := h.overlap.CountOverlaps(ctx, post, audience)
	if err != nil {
		log.Printf("[Worker] PostCreated: overlap count failed post=%d err=%v", post.ID, err)
		overlaps = 0
	}

	body := truncate(textOf(post), 80)
	if overlaps > 0 {
		body += fmt.Sprintf("\n\n%d similar plans found!", overlaps)
	}

	postID := post.ID
	h.fanout.Deliver(ctx, audience, service.Notification{
		Title:  "New plan from your network",
		Body:   body,
		Route:  model.RoutePosts,
		Type:   model.AlertTypeNewPost,
		PostID: &postID,
	})
	return nil
}

// handlePostUpdated re-resolves the derived audience. Alerts are only sent
// on creation, not on every edit.
func (h *Handler) handlePostUpdated(ctx context.Context, event queue.ContentEvent) error {
	post, err := h.posts.GetByID(ctx, event.PostID)
	if err != nil {
		return fmt.Errorf("load post: %w", err)
	}

	if _, err := h.resolver.ResolvePost(ctx, post); err != nil {
		return fmt.Errorf("resolve audience: %w", err)
	}
	return nil
}

// handleAvailabilityOpened notifies the availability audience that the user
// is open to connect.
func (h *Handler) handleAvailabilityOpened(ctx context.Context, event queue.ContentEvent) error {
	av, err := h.avail.GetByUserID(ctx, event.UserID)
	if err != nil {
		return fmt.Errorf("load availability: %w", err)
	}
	if av == nil || !av.Open {
		// Closed again before the worker got here; stale event.
		return nil
	}

	audience, err := h.resolver.Resolve(ctx, av.UserID, av.Audience, av.CustomGroupIDs)
	if err != nil {
		return fmt.Errorf("resolve audience: %w", err)
	}
	if len(audience) == 0 {
		return nil
	}

	body := "Someone in your network is nearby and open to connect"
	if av.Until != nil {
		body += fmt.Sprintf(" until %s", av.Until.Format(time.Kitchen))
	}

	sourceID := av.UserID
	h.fanout.Deliver(ctx, audience, service.Notification{
		Title:        "Contact is available to connect",
		Body:         body,
		Route:        model.RouteNearby,
		Type:         model.AlertTypeAvailability,
		SourceUserID: &sourceID,
		ExpiresAt:    av.Until,
	})
	return nil
}

// handleGroupsChanged re-resolves audiences of posts whose custom
// visibility references the changed (or deleted) group.
func (h *Handler) handleGroupsChanged(ctx context.Context, event queue.ContentEvent) error {
	posts, err := h.posts.ListByAuthorAndGroup(ctx, event.OwnerID, event.GroupID)
	if err != nil {
		return fmt.Errorf("list dependent posts: %w", err)
	}

	var failCount int
	for i := range posts {
		if _, err := h.resolver.ResolvePost(ctx, &posts[i]); err != nil {
			log.Printf("[Worker] GroupsChanged: re-resolve failed post=%d err=%v", posts[i].ID, err)
			failCount++
			// Continue with other posts - don't fail the entire recompute
		}
	}

	log.Printf("[Worker] GroupsChanged DONE: group=%s posts=%d failed=%d",
		event.GroupID, len(posts), failCount)
	return nil
}

func textOf(post *model.Post) string {
	if post.Text == nil {
		return ""
	}
	return *post.Text
}

// truncate clips a string to at most n runes.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

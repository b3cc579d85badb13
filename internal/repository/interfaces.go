package repository

import (
	"context"
	"time"

	"putrace/internal/model"
)

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
}

type RefreshTokenRepository interface {
	Create(ctx context.Context, token *model.RefreshToken) error
	FindByTokenHash(ctx context.Context, tokenHash string) (*model.RefreshToken, error)
	Revoke(ctx context.Context, id string, replacedBy *string) error
	RevokeAllForUser(ctx context.Context, userID int64) error
}

type ContactTokenRepository interface {
	// UpsertBatch merge-writes contact tokens in a single transaction.
	// Re-importing the same export overwrites with the same values.
	UpsertBatch(ctx context.Context, tokens []model.ContactToken) error
	// GetAll returns every contact token for every user. The graph builder
	// loads the whole collection into one run; this is the documented
	// scaling limit of the pairwise scan.
	GetAll(ctx context.Context) ([]model.ContactToken, error)
}

type GraphEdgeRepository interface {
	// ReplaceDerived atomically makes the stored edge set equal to the
	// derived one: derived edges are upserted (created_at preserved),
	// edges no longer derivable are deleted. All or nothing.
	ReplaceDerived(ctx context.Context, edges []model.GraphEdge) error
	// GetPeerIDs returns the peer IDs of edges owned by ownerID, capped at
	// limit. Querying beyond the cap silently truncates.
	GetPeerIDs(ctx context.Context, ownerID int64, limit int) ([]int64, error)
	// HasFirstDegree reports whether a degree-1 edge owner->peer exists.
	HasFirstDegree(ctx context.Context, ownerID, peerID int64) (bool, error)
}

type AudienceGroupRepository interface {
	Upsert(ctx context.Context, group *model.AudienceGroup) error
	// GetByID returns the group only if it is owned by ownerID.
	// Returns model.ErrGroupNotFound on miss.
	GetByID(ctx context.Context, ownerID int64, groupID string) (*model.AudienceGroup, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]model.AudienceGroup, error)
	Delete(ctx context.Context, ownerID int64, groupID string) error
}

type PostRepository interface {
	Create(ctx context.Context, post *model.Post) error
	Update(ctx context.Context, post *model.Post) error
	GetByID(ctx context.Context, postID int64) (*model.Post, error)
	// SetAllowedUserIDs persists the derived audience. Last write wins when
	// two resolutions of the same post race.
	SetAllowedUserIDs(ctx context.Context, postID int64, userIDs []int64) error
	// FindOverlapping returns posts authored by any of authorIDs whose
	// window [start_at, end_at] intersects [start, end] inclusively.
	FindOverlapping(ctx context.Context, authorIDs []int64, start, end time.Time) ([]model.Post, error)
	// ListByAuthorAndGroup returns posts by authorID whose custom
	// visibility references groupID. Used to re-resolve audiences when a
	// group changes.
	ListByAuthorAndGroup(ctx context.Context, authorID int64, groupID string) ([]model.Post, error)
}

type AvailabilityRepository interface {
	Upsert(ctx context.Context, av *model.Availability) error
	GetByUserID(ctx context.Context, userID int64) (*model.Availability, error)
}

type AlertRepository interface {
	Create(ctx context.Context, alert *model.Alert) error
	ListByRecipient(ctx context.Context, userID int64, limit int) ([]model.Alert, error)
}

type DeviceTokenRepository interface {
	// Upsert creates or updates a device token. An existing token row is
	// reassigned to the new user (device changed hands).
	Upsert(ctx context.Context, userID int64, token, platform string) error
	// GetByUserID returns up to limit device tokens for a user.
	GetByUserID(ctx context.Context, userID int64, limit int) ([]model.DeviceToken, error)
	Delete(ctx context.Context, token string) error
}

type PresenceRepository interface {
	Upsert(ctx context.Context, p *model.Presence) error
}

type ProximityTokenRepository interface {
	Upsert(ctx context.Context, t *model.ProximityToken) error
	// GetByToken returns model.ErrProximityTokenNotFound on miss.
	GetByToken(ctx context.Context, token string) (*model.ProximityToken, error)
}

// SweepResult reports what one reaper run removed or transitioned.
type SweepResult struct {
	PresenceDeleted     int64
	TokensDeleted       int64
	AlertsDeleted       int64
	AvailabilityUpdated int64
}

type CleanupRepository interface {
	// SweepExpired removes expired presence and proximity tokens, deletes
	// alerts older than the retention window, and closes availability past
	// its until timestamp. Each sweep is capped at limit rows; everything
	// commits in one transaction or not at all.
	SweepExpired(ctx context.Context, now time.Time, alertRetention time.Duration, limit int) (SweepResult, error)
}

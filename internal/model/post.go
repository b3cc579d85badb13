package model

import (
	"errors"
	"time"

	"github.com/lib/pq"
)

// Visibility rules for posts and availability signals.
const (
	VisibilityCustom       = "custom"
	VisibilityFirstDegree  = "firstDegree"
	VisibilitySecondDegree = "secondDegree"
)

// IsValidVisibility reports whether v is a known visibility rule.
func IsValidVisibility(v string) bool {
	switch v {
	case VisibilityCustom, VisibilityFirstDegree, VisibilitySecondDegree:
		return true
	}
	return false
}

// Post is a content item with a visibility rule and an optional time window.
// AllowedUserIDs is a derived field: it is recomputed by the audience
// resolver on every write and is never authored directly.
type Post struct {
	ID             int64          `db:"id" json:"id"`
	AuthorID       int64          `db:"author_id" json:"author_id"`
	Text           *string        `db:"text" json:"text"`
	Visibility     string         `db:"visibility" json:"visibility"`
	GroupIDs       pq.StringArray `db:"group_ids" json:"group_ids,omitempty"`
	StartAt        *time.Time     `db:"start_at" json:"start_at,omitempty"`
	EndAt          *time.Time     `db:"end_at" json:"end_at,omitempty"`
	Tags           pq.StringArray `db:"tags" json:"tags,omitempty"`
	AllowedUserIDs pq.Int64Array  `db:"allowed_user_ids" json:"-"`
	CreatedAt      time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at" json:"updated_at"`
}

// HasWindow reports whether the post carries a usable time window.
func (p *Post) HasWindow() bool {
	return p.StartAt != nil && p.EndAt != nil && !p.EndAt.Before(*p.StartAt)
}

// CreatePostRequest is the request body for creating a post.
type CreatePostRequest struct {
	Text       *string    `json:"text"`
	Visibility string     `json:"visibility"`
	GroupIDs   []string   `json:"group_ids"`
	StartAt    *time.Time `json:"start_at"`
	EndAt      *time.Time `json:"end_at"`
	Tags       []string   `json:"tags"`
}

// UpdatePostRequest is the request body for updating a post. All fields
// replace the existing values; the audience is re-resolved afterwards.
type UpdatePostRequest = CreatePostRequest

// MaxPostTextLength bounds the free-form post text.
const MaxPostTextLength = 2000

// Post errors
var (
	ErrPostNotFound      = errors.New("post not found")
	ErrNotPostAuthor     = errors.New("not the author of this post")
	ErrInvalidVisibility = errors.New("invalid visibility rule")
	ErrInvalidWindow     = errors.New("end_at must not precede start_at")
	ErrTextTooLong       = errors.New("post text too long")
)

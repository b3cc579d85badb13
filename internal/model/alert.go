package model

import (
	"time"
)

// Alert types
const (
	AlertTypeNewPost      = "new_post"
	AlertTypeAvailability = "availability"
)

// Client navigation routes carried in alerts and push data payloads.
const (
	RoutePosts  = "/putrace/posts"
	RouteNearby = "/putrace/nearby"
)

// AlertRetention is how long alerts are kept before the reaper removes them.
const AlertRetention = 30 * 24 * time.Hour

// Alert is the durable per-recipient record of a notification. Exactly one
// is written per (content item, recipient) pair; push delivery is a
// best-effort enhancement on top of it. Append-only until reaped.
type Alert struct {
	ID           int64      `db:"id" json:"id"`
	UserID       int64      `db:"user_id" json:"-"` // Recipient
	Title        string     `db:"title" json:"title"`
	Body         string     `db:"body" json:"body"`
	Route        string     `db:"route" json:"route"`
	Type         string     `db:"type" json:"type"`
	PostID       *int64     `db:"post_id" json:"post_id,omitempty"`
	SourceUserID *int64     `db:"source_user_id" json:"source_user_id,omitempty"`
	ExpiresAt    *time.Time `db:"expires_at" json:"expires_at,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
}

// AlertListResponse is the alert list response.
type AlertListResponse struct {
	Alerts []Alert `json:"alerts"`
}

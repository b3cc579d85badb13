package model

import (
	"time"

	"github.com/lib/pq"
)

// Availability is a user's short-lived "open to connect" signal. One row per
// user, keyed by user ID. When `until` passes, the reaper flips open=false
// instead of deleting the row.
type Availability struct {
	UserID         int64          `db:"user_id" json:"user_id"`
	Open           bool           `db:"open" json:"open"`
	Until          *time.Time     `db:"until" json:"until,omitempty"`
	Audience       string         `db:"audience" json:"audience"`
	CustomGroupIDs pq.StringArray `db:"custom_group_ids" json:"custom_group_ids,omitempty"`
	UpdatedAt      time.Time      `db:"updated_at" json:"updated_at"`
}

// UpsertAvailabilityRequest is the request body for setting availability.
type UpsertAvailabilityRequest struct {
	Open           bool       `json:"open"`
	Until          *time.Time `json:"until"`
	Audience       string     `json:"audience"`
	CustomGroupIDs []string   `json:"custom_group_ids"`
}

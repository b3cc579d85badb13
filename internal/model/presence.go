package model

import (
	"time"
)

// Presence is a coarse location heartbeat. It is written by clients, read by
// nothing server-side, and deleted by the reaper once expired.
type Presence struct {
	UserID    int64     `db:"user_id" json:"user_id"`
	GeoHash   string    `db:"geo_hash" json:"geo_hash"`
	ExpireAt  time.Time `db:"expire_at" json:"expire_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// HeartbeatRequest is the request body for a presence heartbeat.
type HeartbeatRequest struct {
	GeoHash    string `json:"geo_hash"`
	TTLSeconds int    `json:"ttl_seconds"`
}

// Presence heartbeat TTL bounds (seconds).
const (
	DefaultPresenceTTL = 900
	MaxPresenceTTL     = 3600
)

package model

import (
	"errors"
	"time"
)

// ProximityToken is a short-lived token broadcast over short-range radio.
// Resolving one reveals a masked identity, and only to first-degree peers.
type ProximityToken struct {
	Token     string     `db:"token" json:"-"`
	UserID    int64      `db:"user_id" json:"-"`
	ExpireAt  *time.Time `db:"expire_at" json:"expire_at,omitempty"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
}

// IsExpired reports whether the token's expiry has passed. Tokens without an
// expiry never expire on their own; the reaper only removes dated ones.
func (t *ProximityToken) IsExpired(now time.Time) bool {
	return t.ExpireAt != nil && t.ExpireAt.Before(now)
}

// ResolveTokenRequest is the request body for resolving a proximity token.
type ResolveTokenRequest struct {
	Token string `json:"token"`
}

// ResolveTokenResponse is the resolution result. A lookup miss, expiry, or
// insufficient connection degree all produce Allowed=false, never an error.
type ResolveTokenResponse struct {
	Allowed bool    `json:"allowed"`
	PeerID  *int64  `json:"peer_id,omitempty"`
	Degree  *string `json:"degree,omitempty"`
	Display *string `json:"display,omitempty"`
}

// PublishTokenRequest is the request body for registering a broadcast token.
type PublishTokenRequest struct {
	Token      string `json:"token"`
	TTLSeconds int    `json:"ttl_seconds"`
}

var (
	// ErrProximityTokenNotFound is returned by the repository on lookup miss.
	// The service resolves it as {allowed:false}.
	ErrProximityTokenNotFound = errors.New("proximity token not found")
)

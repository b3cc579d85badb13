package model

import (
	"errors"
	"time"

	"github.com/lib/pq"
)

// AudienceGroup is an owner-scoped named set of user IDs referenced by
// custom-visibility content. Only its creator can read or modify it.
type AudienceGroup struct {
	ID            string        `db:"id" json:"id"`
	OwnerID       int64         `db:"owner_id" json:"-"`
	Name          string        `db:"name" json:"name"`
	MemberUserIDs pq.Int64Array `db:"member_user_ids" json:"member_user_ids"`
	CreatedAt     time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time     `db:"updated_at" json:"updated_at"`
}

// UpsertGroupRequest is the request body for creating or updating a group.
type UpsertGroupRequest struct {
	Name          string  `json:"name"`
	MemberUserIDs []int64 `json:"member_user_ids"`
}

var (
	// ErrGroupNotFound is returned when a group does not exist or is not
	// owned by the caller. Audience resolution treats it as an empty set.
	ErrGroupNotFound = errors.New("audience group not found")
)

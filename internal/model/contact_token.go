package model

import (
	"time"
)

// Contact token kinds
const (
	ContactKindEmail = "email"
	ContactKindPhone = "phone"
)

// ContactToken is a one-way, per-owner keyed hash of a normalized contact
// identifier (email or phone). Tokens from different owners are not directly
// comparable; shared contacts are detected by the graph builder's
// intersection step. Rows are merge-overwritten on re-upload.
type ContactToken struct {
	OwnerID   int64     `db:"owner_id" json:"-"`
	Token     string    `db:"token" json:"-"`
	Kind      string    `db:"kind" json:"kind"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// ImportContactsRequest is the request body for importing a contact export
// that was previously uploaded to object storage.
type ImportContactsRequest struct {
	FilePath   string `json:"file_path"`
	BucketName string `json:"bucket_name"`
}

// ImportContactsResponse reports how many tokens were written.
type ImportContactsResponse struct {
	TokensWritten int `json:"tokens_written"`
}

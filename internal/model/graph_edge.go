package model

import (
	"time"
)

// DegreeFirst is the only degree the graph builder materializes. Second
// degree is computed at resolution time by two-hop expansion, never stored.
const DegreeFirst = 1

// GraphEdge is a directed first-degree connection derived from a non-empty
// contact-token intersection. A mutual relationship is two rows (owner->peer
// and peer->owner). Edges never point to self.
type GraphEdge struct {
	OwnerID        int64     `db:"owner_id" json:"owner_id"`
	PeerID         int64     `db:"peer_id" json:"peer_id"`
	Degree         int       `db:"degree" json:"degree"`
	SharedContacts int       `db:"shared_contacts" json:"shared_contacts"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

package queue

import (
	"encoding/json"
	"fmt"
	"time"
)

// Event types for the content stream
const (
	EventPostCreated        = "post_created"
	EventPostUpdated        = "post_updated"
	EventAvailabilityOpened = "availability_opened"
	EventGroupsChanged      = "groups_changed"
)

// Stream names
const (
	StreamContent = "stream:content"
)

// Consumer group name for content workers
const (
	ConsumerGroupContent = "content_workers"
)

// ContentEvent represents an event published to the content stream.
// All content-write events share this structure.
type ContentEvent struct {
	Type      string `json:"type"`
	Timestamp int64  `json:"timestamp"` // Unix timestamp when event occurred

	// Post events (PostCreated, PostUpdated)
	PostID   int64 `json:"post_id,omitempty"`
	AuthorID int64 `json:"author_id,omitempty"`

	// Availability event (AvailabilityOpened)
	UserID int64 `json:"user_id,omitempty"`

	// Group event (GroupsChanged)
	OwnerID int64  `json:"owner_id,omitempty"`
	GroupID string `json:"group_id,omitempty"`
}

// NewPostCreatedEvent creates an event for a freshly written post.
// Worker will resolve its audience and fan out alerts.
func NewPostCreatedEvent(postID, authorID int64) ContentEvent {
	return ContentEvent{
		Type:      EventPostCreated,
		Timestamp: time.Now().Unix(),
		PostID:    postID,
		AuthorID:  authorID,
	}
}

// NewPostUpdatedEvent creates an event for an updated post.
// Worker will re-resolve its audience; no alerts are re-sent.
func NewPostUpdatedEvent(postID, authorID int64) ContentEvent {
	return ContentEvent{
		Type:      EventPostUpdated,
		Timestamp: time.Now().Unix(),
		PostID:    postID,
		AuthorID:  authorID,
	}
}

// NewAvailabilityOpenedEvent creates an event for an opened availability
// signal. Worker will resolve the audience and fan out alerts.
func NewAvailabilityOpenedEvent(userID int64) ContentEvent {
	return ContentEvent{
		Type:      EventAvailabilityOpened,
		Timestamp: time.Now().Unix(),
		UserID:    userID,
	}
}

// NewGroupsChangedEvent creates an event for a modified or deleted audience
// group. Worker will re-resolve audiences of posts referencing the group.
func NewGroupsChangedEvent(ownerID int64, groupID string) ContentEvent {
	return ContentEvent{
		Type:      EventGroupsChanged,
		Timestamp: time.Now().Unix(),
		OwnerID:   ownerID,
		GroupID:   groupID,
	}
}

// ToMap converts the event to a map for Redis XADD.
// Redis Streams store field-value pairs, so we serialize to JSON in a "data" field.
func (e ContentEvent) ToMap() (map[string]interface{}, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	return map[string]interface{}{
		"type": e.Type,
		"data": string(data),
	}, nil
}

// ParseContentEvent parses a ContentEvent from Redis stream message values.
func ParseContentEvent(values map[string]interface{}) (ContentEvent, error) {
	data, ok := values["data"].(string)
	if !ok {
		return ContentEvent{}, fmt.Errorf("missing or invalid 'data' field")
	}

	var event ContentEvent
	if err := json.Unmarshal([]byte(data), &event); err != nil {
		return ContentEvent{}, fmt.Errorf("unmarshal event: %w", err)
	}
	return event, nil
}

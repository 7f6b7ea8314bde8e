// Package events defines the event payloads exchanged over Kafka.
package events

import "time"

// Event type header values.
const (
	TypeActivityCreated = "activity.created"
)

// ActivityCreated is emitted when a user posts a new crud.
type ActivityCreated struct {
	ActivityUUID string     `json:"activity_uuid,omitempty"`
	Handle       string     `json:"handle"`
	Message      string     `json:"message"`
	TTL          string     `json:"ttl,omitempty"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

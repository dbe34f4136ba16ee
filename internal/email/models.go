package email

import (
	"time"
)

// EventType identifies what kind of email an event asks for.
type EventType string

const (
	// TypeWelcome greets a freshly registered account.
	TypeWelcome EventType = "welcome"
	// TypePasswordReset carries a reset link.
	TypePasswordReset EventType = "password_reset"
)

// Event is the message the users service publishes and this service
// consumes. MessageID deduplicates redeliveries.
type Event struct {
	MessageID string    `json:"message_id"`
	EventType EventType `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
	Recipient string    `json:"recipient"`

	// Data carries type-specific fields:
	// welcome: {"name": "..."}; password_reset: {"reset_link": "..."}.
	Data map[string]interface{} `json:"data"`
}

// Metadata is what the idempotency store keeps per processed event.
type Metadata struct {
	SentAt    time.Time `json:"sent_at"`
	Recipient string    `json:"recipient"`
	EventType EventType `json:"event_type"`
}

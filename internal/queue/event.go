// Package queue defines message payloads exchanged over the message broker.
package queue

// NotificationEvent is published when a user follows, likes or comments.
// It carries enough for the consumer to persist a notification row without
// querying the primary database about the interaction itself.
type NotificationEvent struct {
	EventID     string  `json:"event_id"`
	RecipientID uint64  `json:"recipient_id"`
	SenderID    uint64  `json:"sender_id"`
	Kind        string  `json:"kind"` // follow | like | comment
	PostID      *uint64 `json:"post_id,omitempty"`
	OccurredAt  string  `json:"occurred_at"`
}

package models

import (
	"time"
)

// Role identifies who authored a message in a conversation.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message represents a single message in a conversation.
// Messages are stored as an ordered JSON array on the conversation row and are never edited once appended.
type Message struct {
	Role      Role      `json:"role"`      // "user" or "assistant"
	Content   string    `json:"content"`   // The text content of the message
	Timestamp time.Time `json:"timestamp"` // Time the message was recorded
}

// CanonicalMessage is the provider-independent form of a message handed to adapters.
type CanonicalMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// ToCanonical strips timestamps and returns the history in chronological order.
func ToCanonical(messages []Message) []CanonicalMessage {
	history := make([]CanonicalMessage, len(messages))
	for i, msg := range messages {
		history[i] = CanonicalMessage{Role: msg.Role, Content: msg.Content}
	}
	return history
}

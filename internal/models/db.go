package models

import (
	"time"

	"github.com/google/uuid"
)

// DefaultConversationTitle is the placeholder title a conversation carries until its first exchange completes.
const DefaultConversationTitle = "New Conversation"

// maxTitleLength is measured in runes, not bytes.
const maxTitleLength = 30

// User represents a user in the database.
type User struct {
	ID             uuid.UUID `db:"id"`
	Email          string    `db:"email"`
	HashedPassword string    `db:"hashed_password"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
}

// Conversation is a persisted multi-turn chat bound to one provider and model.
// ModelProvider, ModelName and OwnerID are fixed at creation.
// Version is the optimistic-concurrency token checked on every update.
type Conversation struct {
	ID            uuid.UUID     `db:"id" json:"id"`
	OwnerID       uuid.UUID     `db:"owner_id" json:"ownerId"`
	Title         string        `db:"title" json:"title"`
	ModelProvider ModelProvider `db:"model_provider" json:"modelProvider"`
	ModelName     string        `db:"model_name" json:"modelName"`
	Messages      []Message     `db:"messages" json:"messages"` // Stored as JSONB
	Version       int           `db:"version" json:"version"`
	CreatedAt     time.Time     `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time     `db:"updated_at" json:"updatedAt"`
}

// ConversationSummary is the listing projection of a conversation; message bodies are excluded.
type ConversationSummary struct {
	ID            uuid.UUID     `db:"id" json:"id"`
	Title         string        `db:"title" json:"title"`
	ModelProvider ModelProvider `db:"model_provider" json:"modelProvider"`
	ModelName     string        `db:"model_name" json:"modelName"`
	CreatedAt     time.Time     `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time     `db:"updated_at" json:"updatedAt"`
}

// ModelDescriptor describes one model offered by a provider.
type ModelDescriptor struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// NewConversation returns an unsaved conversation with no messages and the default title.
func NewConversation(ownerID uuid.UUID, provider ModelProvider, modelName string) *Conversation {
	return &Conversation{
		ID:            uuid.New(),
		OwnerID:       ownerID,
		Title:         DefaultConversationTitle,
		ModelProvider: provider,
		ModelName:     modelName,
		Messages:      []Message{},
	}
}

// AppendMessage adds a message to the end of the transcript.
func (c *Conversation) AppendMessage(role Role, content string, at time.Time) Message {
	msg := Message{Role: role, Content: content, Timestamp: at}
	c.Messages = append(c.Messages, msg)
	return msg
}

// DeriveTitle builds a conversation title from the first user message.
// Messages longer than 30 characters are cut to 27 and suffixed with "...".
func DeriveTitle(firstMessage string) string {
	runes := []rune(firstMessage)
	if len(runes) <= maxTitleLength {
		return firstMessage
	}
	return string(runes[:maxTitleLength-3]) + "..."
}

// Summary projects the conversation to its listing fields.
func (c *Conversation) Summary() ConversationSummary {
	return ConversationSummary{
		ID:            c.ID,
		Title:         c.Title,
		ModelProvider: c.ModelProvider,
		ModelName:     c.ModelName,
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
}

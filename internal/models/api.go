package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// --- Request Structs ---

// SignupRequest defines the expected body for the signup endpoint.
type SignupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest defines the expected body for the login endpoint.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SendMessageRequest defines the body for POST /chat/message.
// ConversationID is omitted (or empty) to start a new chat, in which case ModelProvider and ModelName are required.
type SendMessageRequest struct {
	ConversationID *uuid.UUID `json:"conversationId,omitempty"`
	Message        string     `json:"message"`
	ModelProvider  string     `json:"modelProvider,omitempty"`
	ModelName      string     `json:"modelName,omitempty"`
}

// UnmarshalJSON treats an empty or null conversationId as absent.
func (r *SendMessageRequest) UnmarshalJSON(data []byte) error {
	type plain SendMessageRequest
	var raw struct {
		plain
		ConversationID *string `json:"conversationId"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*r = SendMessageRequest(raw.plain)
	r.ConversationID = nil
	if raw.ConversationID != nil && *raw.ConversationID != "" {
		id, err := uuid.Parse(*raw.ConversationID)
		if err != nil {
			return fmt.Errorf("invalid conversationId: %w", err)
		}
		r.ConversationID = &id
	}
	return nil
}

// --- Response Structs ---

// UserResponse defines the user information returned by the API.
// Avoid returning sensitive info like HashedPassword.
type UserResponse struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

// AuthResponse defines the response body for successful authentication.
type AuthResponse struct {
	AccessToken string       `json:"accessToken"`
	User        UserResponse `json:"user"`
}

// ErrorResponse defines the standard structure for API errors.
type ErrorResponse struct {
	Error string `json:"error"`
}

// SendMessageResponse carries the updated conversation and, separately, the assistant reply.
type SendMessageResponse struct {
	Conversation *Conversation `json:"conversation"`
	Message      Message       `json:"message"`
}

// ModelCatalog maps provider name to its available models.
type ModelCatalog map[ModelProvider][]ModelDescriptor

// ToUserResponse maps a db user to its API representation.
func ToUserResponse(u *User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
	}
}

package store

import (
	"context"
	"errors"

	"polychat-backend/internal/models"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a specific record is not found.
var ErrNotFound = errors.New("record not found")

// ErrConflict is returned when an update was based on a stale conversation version.
var ErrConflict = errors.New("record was modified concurrently")

// ErrDuplicate is returned when an insert violates a unique constraint (e.g. email).
var ErrDuplicate = errors.New("record already exists")

// Store defines the interface for database operations.
// Conversations are always scoped by owner: a conversation owned by someone else
// is indistinguishable from one that does not exist.
type Store interface {
	// User operations
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)

	// Conversation operations

	// CreateConversation inserts conv and sets Version, CreatedAt and UpdatedAt on it.
	CreateConversation(ctx context.Context, conv *models.Conversation) error
	GetConversationByID(ctx context.Context, id, ownerID uuid.UUID) (*models.Conversation, error)
	// ListConversationSummaries returns the owner's conversations, most recently updated first.
	ListConversationSummaries(ctx context.Context, ownerID uuid.UUID) ([]models.ConversationSummary, error)
	// UpdateConversation writes title and messages if conv.Version still matches the stored row.
	// On success conv.Version and conv.UpdatedAt are refreshed. A stale version yields ErrConflict.
	UpdateConversation(ctx context.Context, conv *models.Conversation) error
	DeleteConversation(ctx context.Context, id, ownerID uuid.UUID) error
}

package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"polychat-backend/internal/models"
	"polychat-backend/internal/store"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// --- Conversation Methods ---

const createConversation = `-- name: CreateConversation :one
INSERT INTO conversations (
    id, owner_id, title, model_provider, model_name, messages
) VALUES (
    $1, $2, $3, $4, $5, $6
)
RETURNING version, created_at, updated_at;
`

func (s *PostgresStore) CreateConversation(ctx context.Context, conv *models.Conversation) error {
	messages, err := marshalMessages(conv.Messages)
	if err != nil {
		return err
	}

	err = s.db.QueryRow(ctx, createConversation,
		conv.ID,
		conv.OwnerID,
		conv.Title,
		string(conv.ModelProvider),
		conv.ModelName,
		messages,
	).Scan(&conv.Version, &conv.CreatedAt, &conv.UpdatedAt)
	if err != nil {
		s.logger.Error("[PostgresStore] CreateConversation: insert failed", zap.Stringer("conversation_id", conv.ID), zap.Error(err))
		return fmt.Errorf("database error creating conversation: %w", err)
	}

	s.logger.Debug("[PostgresStore] CreateConversation: inserted", zap.Stringer("conversation_id", conv.ID))
	return nil
}

const getConversationByID = `-- name: GetConversationByID :one
SELECT id, owner_id, title, model_provider, model_name, messages, version, created_at, updated_at
FROM conversations
WHERE id = $1 AND owner_id = $2;
`

// GetConversationByID returns store.ErrNotFound both for missing ids and for
// conversations that belong to another owner.
func (s *PostgresStore) GetConversationByID(ctx context.Context, id, ownerID uuid.UUID) (*models.Conversation, error) {
	var (
		conv     models.Conversation
		provider string
		raw      []byte
	)
	err := s.db.QueryRow(ctx, getConversationByID, id, ownerID).Scan(
		&conv.ID,
		&conv.OwnerID,
		&conv.Title,
		&provider,
		&conv.ModelName,
		&raw,
		&conv.Version,
		&conv.CreatedAt,
		&conv.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		s.logger.Error("[PostgresStore] GetConversationByID: scan failed", zap.Stringer("conversation_id", id), zap.Error(err))
		return nil, fmt.Errorf("error scanning conversation: %w", err)
	}
	conv.ModelProvider = models.ModelProvider(provider)

	if conv.Messages, err = unmarshalMessages(raw); err != nil {
		return nil, err
	}
	return &conv, nil
}

const listConversationSummaries = `-- name: ListConversationSummaries :many
SELECT id, title, model_provider, model_name, created_at, updated_at
FROM conversations
WHERE owner_id = $1
ORDER BY updated_at DESC;
`

func (s *PostgresStore) ListConversationSummaries(ctx context.Context, ownerID uuid.UUID) ([]models.ConversationSummary, error) {
	rows, err := s.db.Query(ctx, listConversationSummaries, ownerID)
	if err != nil {
		s.logger.Error("[PostgresStore] ListConversationSummaries: query failed", zap.Stringer("owner_id", ownerID), zap.Error(err))
		return nil, fmt.Errorf("error querying conversations: %w", err)
	}
	defer rows.Close()

	items := []models.ConversationSummary{}
	for rows.Next() {
		var (
			i        models.ConversationSummary
			provider string
		)
		if err := rows.Scan(
			&i.ID,
			&i.Title,
			&provider,
			&i.ModelName,
			&i.CreatedAt,
			&i.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("error scanning conversation summary: %w", err)
		}
		i.ModelProvider = models.ModelProvider(provider)
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating conversation rows: %w", err)
	}
	return items, nil
}

const updateConversation = `-- name: UpdateConversation :one
UPDATE conversations
SET title = $4, messages = $5, version = version + 1, updated_at = NOW()
WHERE id = $1 AND owner_id = $2 AND version = $3
RETURNING version, updated_at;
`

const conversationExists = `-- name: ConversationExists :one
SELECT EXISTS (SELECT 1 FROM conversations WHERE id = $1 AND owner_id = $2);
`

func (s *PostgresStore) UpdateConversation(ctx context.Context, conv *models.Conversation) error {
	messages, err := marshalMessages(conv.Messages)
	if err != nil {
		return err
	}

	err = s.db.QueryRow(ctx, updateConversation,
		conv.ID,
		conv.OwnerID,
		conv.Version,
		conv.Title,
		messages,
	).Scan(&conv.Version, &conv.UpdatedAt)
	if err == nil {
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		s.logger.Error("[PostgresStore] UpdateConversation: update failed", zap.Stringer("conversation_id", conv.ID), zap.Error(err))
		return fmt.Errorf("database error updating conversation: %w", err)
	}

	// No row matched: either the conversation is gone or its version moved on.
	var exists bool
	if err := s.db.QueryRow(ctx, conversationExists, conv.ID, conv.OwnerID).Scan(&exists); err != nil {
		return fmt.Errorf("database error checking conversation: %w", err)
	}
	if !exists {
		return store.ErrNotFound
	}
	s.logger.Warn("[PostgresStore] UpdateConversation: stale version", zap.Stringer("conversation_id", conv.ID), zap.Int("version", conv.Version))
	return store.ErrConflict
}

const deleteConversation = `-- name: DeleteConversation :exec
DELETE FROM conversations
WHERE id = $1 AND owner_id = $2;
`

func (s *PostgresStore) DeleteConversation(ctx context.Context, id, ownerID uuid.UUID) error {
	cmdTag, err := s.db.Exec(ctx, deleteConversation, id, ownerID)
	if err != nil {
		s.logger.Error("[PostgresStore] DeleteConversation: exec failed", zap.Stringer("conversation_id", id), zap.Error(err))
		return fmt.Errorf("error deleting conversation: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func marshalMessages(messages []models.Message) ([]byte, error) {
	if messages == nil {
		messages = []models.Message{}
	}
	b, err := json.Marshal(messages)
	if err != nil {
		return nil, fmt.Errorf("error marshaling messages: %w", err)
	}
	return b, nil
}

func unmarshalMessages(raw []byte) ([]models.Message, error) {
	messages := []models.Message{}
	if len(raw) == 0 {
		return messages, nil
	}
	if err := json.Unmarshal(raw, &messages); err != nil {
		return nil, fmt.Errorf("error unmarshaling messages: %w", err)
	}
	return messages, nil
}

package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"polychat-backend/internal/models"
	"polychat-backend/internal/providers"
	"polychat-backend/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ProviderRegistry resolves adapters by provider name. *providers.Registry satisfies it.
type ProviderRegistry interface {
	Get(name models.ModelProvider) (providers.Provider, error)
	Names() []models.ModelProvider
}

// ChatService handles conversation dispatch and the owner-scoped conversation CRUD.
type ChatService struct {
	store     store.Store
	providers ProviderRegistry
	logger    *zap.Logger
	now       func() time.Time
}

// NewChatService creates a new ChatService.
func NewChatService(s store.Store, registry ProviderRegistry, logger *zap.Logger) *ChatService {
	return &ChatService{
		store:     s,
		providers: registry,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// SendMessage appends the user's message to a new or existing conversation, relays the whole
// transcript to the conversation's provider and stores the reply. Nothing is written unless the
// provider call succeeds.
func (s *ChatService) SendMessage(ctx context.Context, userID uuid.UUID, req models.SendMessageRequest) (*models.SendMessageResponse, error) {
	if strings.TrimSpace(req.Message) == "" {
		return nil, fmt.Errorf("%w: message is required", ErrValidation)
	}

	var (
		conv  *models.Conversation
		isNew bool
	)
	if req.ConversationID != nil {
		var err error
		conv, err = s.GetConversation(ctx, userID, *req.ConversationID)
		if err != nil {
			return nil, err
		}
	} else {
		if req.ModelProvider == "" || req.ModelName == "" {
			return nil, fmt.Errorf("%w: modelProvider and modelName are required for a new conversation", ErrValidation)
		}
		conv = models.NewConversation(userID, models.ModelProvider(req.ModelProvider), req.ModelName)
		isNew = true
	}

	// The adapter always comes from the conversation's bound provider, never from the request.
	provider, err := s.providers.Get(conv.ModelProvider)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidProvider, conv.ModelProvider)
	}

	conv.AppendMessage(models.RoleUser, req.Message, s.now())

	reply, err := provider.GenerateResponse(ctx, models.ToCanonical(conv.Messages), conv.ModelName)
	if err != nil {
		s.logger.Error("[ChatService] Provider call failed",
			zap.Stringer("conversation_id", conv.ID),
			zap.String("provider", string(conv.ModelProvider)),
			zap.String("model", conv.ModelName),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}

	assistant := conv.AppendMessage(models.RoleAssistant, reply, s.now())
	if len(conv.Messages) == 2 {
		conv.Title = models.DeriveTitle(conv.Messages[0].Content)
	}

	if err := s.persist(ctx, conv, isNew); err != nil {
		return nil, err
	}

	s.logger.Info("[ChatService] Message dispatched",
		zap.Stringer("conversation_id", conv.ID),
		zap.Stringer("user_id", userID),
		zap.Int("messages", len(conv.Messages)),
	)
	return &models.SendMessageResponse{Conversation: conv, Message: assistant}, nil
}

func (s *ChatService) persist(ctx context.Context, conv *models.Conversation, isNew bool) error {
	var err error
	if isNew {
		err = s.store.CreateConversation(ctx, conv)
	} else {
		err = s.store.UpdateConversation(ctx, conv)
	}

	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrConflict):
		return fmt.Errorf("%w: %s", ErrConversationConflict, conv.ID)
	case errors.Is(err, store.ErrNotFound):
		// Deleted between load and save.
		return ErrConversationNotFound
	default:
		s.logger.Error("[ChatService] Failed to persist conversation", zap.Stringer("conversation_id", conv.ID), zap.Error(err))
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
}

// ListConversations returns the user's conversation summaries, most recently updated first.
func (s *ChatService) ListConversations(ctx context.Context, userID uuid.UUID) ([]models.ConversationSummary, error) {
	items, err := s.store.ListConversationSummaries(ctx, userID)
	if err != nil {
		s.logger.Error("[ChatService] Failed to list conversations", zap.Stringer("user_id", userID), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return items, nil
}

// GetConversation returns ErrConversationNotFound for missing ids and for conversations owned by someone else.
func (s *ChatService) GetConversation(ctx context.Context, userID, conversationID uuid.UUID) (*models.Conversation, error) {
	conv, err := s.store.GetConversationByID(ctx, conversationID, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrConversationNotFound
		}
		s.logger.Error("[ChatService] Failed to load conversation", zap.Stringer("conversation_id", conversationID), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return conv, nil
}

// DeleteConversation removes the conversation. Deleting an already deleted id reports ErrConversationNotFound.
func (s *ChatService) DeleteConversation(ctx context.Context, userID, conversationID uuid.UUID) error {
	if err := s.store.DeleteConversation(ctx, conversationID, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrConversationNotFound
		}
		s.logger.Error("[ChatService] Failed to delete conversation", zap.Stringer("conversation_id", conversationID), zap.Error(err))
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	s.logger.Info("[ChatService] Conversation deleted", zap.Stringer("conversation_id", conversationID), zap.Stringer("user_id", userID))
	return nil
}

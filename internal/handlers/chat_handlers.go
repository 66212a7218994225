package handlers

import (
	"context"
	"errors"
	"net/http"

	"polychat-backend/internal/models"
	"polychat-backend/internal/providers"
	"polychat-backend/internal/services"
	"polychat-backend/pkg/httputil"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ChatService defines the conversation operations the chat handlers depend on.
type ChatService interface {
	SendMessage(ctx context.Context, userID uuid.UUID, req models.SendMessageRequest) (*models.SendMessageResponse, error)
	ListConversations(ctx context.Context, userID uuid.UUID) ([]models.ConversationSummary, error)
	GetConversation(ctx context.Context, userID, conversationID uuid.UUID) (*models.Conversation, error)
	DeleteConversation(ctx context.Context, userID, conversationID uuid.UUID) error
}

// ChatHandlers handles HTTP requests related to conversations.
type ChatHandlers struct {
	chatService ChatService
	logger      *zap.Logger
}

// NewChatHandlers creates a new ChatHandlers instance.
func NewChatHandlers(chatService ChatService, logger *zap.Logger) *ChatHandlers {
	return &ChatHandlers{
		chatService: chatService,
		logger:      logger,
	}
}

// HandleSendMessage handles POST /v1/chat/message.
func (h *ChatHandlers) HandleSendMessage(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req models.SendMessageRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	resp, err := h.chatService.SendMessage(r.Context(), userID, req)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, resp)
}

// HandleListConversations handles GET /v1/chat/conversations.
func (h *ChatHandlers) HandleListConversations(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	items, err := h.chatService.ListConversations(r.Context(), userID)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, items)
}

// HandleGetConversation handles GET /v1/chat/conversations/{conversationID}.
func (h *ChatHandlers) HandleGetConversation(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	conversationID, ok := parseUUIDParam(w, r, "conversationID", "conversation")
	if !ok {
		return
	}

	conv, err := h.chatService.GetConversation(r.Context(), userID, conversationID)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, conv)
}

// HandleDeleteConversation handles DELETE /v1/chat/conversations/{conversationID}.
func (h *ChatHandlers) HandleDeleteConversation(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	conversationID, ok := parseUUIDParam(w, r, "conversationID", "conversation")
	if !ok {
		return
	}

	if err := h.chatService.DeleteConversation(r.Context(), userID, conversationID); err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, struct{}{})
}

// respondServiceError maps service error kinds to status codes. Upstream and persistence
// failures only ever expose their stable public message.
func respondServiceError(w http.ResponseWriter, logger *zap.Logger, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidProvider):
		httputil.RespondError(w, http.StatusBadRequest, "Invalid model provider")
	case errors.Is(err, services.ErrValidation):
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrConversationNotFound):
		httputil.RespondError(w, http.StatusNotFound, "Conversation not found")
	case errors.Is(err, services.ErrConversationConflict):
		httputil.RespondError(w, http.StatusConflict, "Conversation was modified by another request")
	case errors.Is(err, services.ErrUpstream):
		message := "Failed to reach model provider"
		var upErr *providers.UpstreamError
		if errors.As(err, &upErr) {
			message = upErr.Error()
		}
		httputil.RespondError(w, http.StatusBadGateway, message)
	case errors.Is(err, services.ErrPersistence):
		httputil.RespondError(w, http.StatusInternalServerError, "Failed to save conversation")
	default:
		logger.Error("[ChatHandlers] Unexpected service error", zap.Error(err))
		httputil.RespondError(w, http.StatusInternalServerError, "Internal server error")
	}
}

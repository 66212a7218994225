package handlers

import (
	"context"
	"errors"
	"net/http"

	api_models "polychat-backend/internal/models"
	"polychat-backend/internal/services"
	"polychat-backend/pkg/httputil"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AuthService defines the interface expected from the auth service.
type AuthService interface {
	Signup(ctx context.Context, email, password string) (*api_models.User, error)
	Login(ctx context.Context, email, password string) (string, *api_models.User, error)
	Me(ctx context.Context, userID uuid.UUID) (*api_models.User, error)
}

type AuthHandler struct {
	authService AuthService
	logger      *zap.Logger
}

func NewAuthHandler(authSvc AuthService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authSvc,
		logger:      logger,
	}
}

// HandleSignup handles the POST /v1/auth/signup request.
func (h *AuthHandler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	var req api_models.SignupRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if req.Email == "" || req.Password == "" {
		httputil.RespondError(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	user, err := h.authService.Signup(r.Context(), req.Email, req.Password)
	if err != nil {
		h.logger.Info("[AuthHandler] Signup failed", zap.String("email", req.Email), zap.Error(err))
		switch {
		case errors.Is(err, services.ErrUserAlreadyExists):
			httputil.RespondError(w, http.StatusConflict, err.Error()) // 409
		case errors.Is(err, services.ErrValidation):
			httputil.RespondError(w, http.StatusBadRequest, err.Error()) // 400
		default:
			httputil.RespondError(w, http.StatusInternalServerError, "Signup failed due to an internal error") // 500
		}
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, api_models.ToUserResponse(user)) // 201 Created
}

// HandleLogin handles the POST /v1/auth/login request.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req api_models.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if req.Email == "" || req.Password == "" {
		httputil.RespondError(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	token, user, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidCredentials):
			httputil.RespondError(w, http.StatusUnauthorized, err.Error()) // 401
		default:
			h.logger.Error("[AuthHandler] Login failed", zap.String("email", req.Email), zap.Error(err))
			httputil.RespondError(w, http.StatusInternalServerError, "Login failed due to an internal error") // 500
		}
		return
	}

	resp := api_models.AuthResponse{
		AccessToken: token,
		User:        api_models.ToUserResponse(user),
	}
	httputil.RespondJSON(w, http.StatusOK, resp) // 200 OK
}

// HandleMe handles the GET /v1/auth/me request.
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	user, err := h.authService.Me(r.Context(), userID)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			httputil.RespondError(w, http.StatusNotFound, "User not found")
			return
		}
		h.logger.Error("[AuthHandler] Me failed", zap.Stringer("user_id", userID), zap.Error(err))
		httputil.RespondError(w, http.StatusInternalServerError, "Failed to load user")
		return
	}
	httputil.RespondJSON(w, http.StatusOK, api_models.ToUserResponse(user))
}

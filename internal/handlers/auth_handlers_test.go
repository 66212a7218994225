package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"polychat-backend/internal/auth"
	"polychat-backend/internal/models"
	"polychat-backend/internal/services"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type fakeAuthService struct {
	signupErr error
	loginErr  error
	meErr     error
	user      *models.User
}

func (f *fakeAuthService) Signup(_ context.Context, email, _ string) (*models.User, error) {
	if f.signupErr != nil {
		return nil, f.signupErr
	}
	return &models.User{ID: uuid.New(), Email: email, CreatedAt: time.Now()}, nil
}

func (f *fakeAuthService) Login(_ context.Context, email, _ string) (string, *models.User, error) {
	if f.loginErr != nil {
		return "", nil, f.loginErr
	}
	return "token-123", &models.User{ID: uuid.New(), Email: email}, nil
}

func (f *fakeAuthService) Me(_ context.Context, userID uuid.UUID) (*models.User, error) {
	if f.meErr != nil {
		return nil, f.meErr
	}
	return &models.User{ID: userID, Email: "me@example.com"}, nil
}

func postJSON(h http.HandlerFunc, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func TestHandleSignup(t *testing.T) {
	tests := []struct {
		name       string
		svcErr     error
		body       string
		wantStatus int
	}{
		{"created", nil, `{"email":"a@example.com","password":"longenough"}`, http.StatusCreated},
		{"missing fields", nil, `{"email":""}`, http.StatusBadRequest},
		{"bad json", nil, `{`, http.StatusBadRequest},
		{"duplicate", services.ErrUserAlreadyExists, `{"email":"a@example.com","password":"longenough"}`, http.StatusConflict},
		{"validation", fmt.Errorf("%w: password too short", services.ErrValidation), `{"email":"a@example.com","password":"x"}`, http.StatusBadRequest},
		{"internal", services.ErrCreatingUser, `{"email":"a@example.com","password":"longenough"}`, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewAuthHandler(&fakeAuthService{signupErr: tt.svcErr}, zap.NewNop())
			rec := postJSON(h.HandleSignup, tt.body)
			if rec.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d: %s", tt.wantStatus, rec.Code, rec.Body.String())
			}
			if rec.Code == http.StatusCreated {
				var user models.UserResponse
				if err := json.NewDecoder(rec.Body).Decode(&user); err != nil {
					t.Fatalf("decode: %v", err)
				}
				if user.Email != "a@example.com" {
					t.Errorf("unexpected user %+v", user)
				}
				if strings.Contains(rec.Body.String(), "assword") {
					t.Error("password material must not be returned")
				}
			}
		})
	}
}

func TestHandleLogin(t *testing.T) {
	h := NewAuthHandler(&fakeAuthService{}, zap.NewNop())
	rec := postJSON(h.HandleLogin, `{"email":"a@example.com","password":"longenough"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp models.AuthResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.AccessToken != "token-123" || resp.User.Email != "a@example.com" {
		t.Errorf("unexpected response %+v", resp)
	}

	h = NewAuthHandler(&fakeAuthService{loginErr: services.ErrInvalidCredentials}, zap.NewNop())
	if rec := postJSON(h.HandleLogin, `{"email":"a@example.com","password":"wrong"}`); rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}

	h = NewAuthHandler(&fakeAuthService{loginErr: errors.New("db down")}, zap.NewNop())
	if rec := postJSON(h.HandleLogin, `{"email":"a@example.com","password":"x"}`); rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}
}

func TestHandleMe(t *testing.T) {
	userID := uuid.New()
	h := NewAuthHandler(&fakeAuthService{}, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/", nil).WithContext(auth.WithUserID(context.Background(), userID))
	rec := httptest.NewRecorder()
	h.HandleMe(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var user models.UserResponse
	if err := json.NewDecoder(rec.Body).Decode(&user); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if user.ID != userID {
		t.Errorf("expected user %s, got %s", userID, user.ID)
	}

	rec = httptest.NewRecorder()
	h.HandleMe(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without user, got %d", rec.Code)
	}

	h = NewAuthHandler(&fakeAuthService{meErr: services.ErrUserNotFound}, zap.NewNop())
	rec = httptest.NewRecorder()
	h.HandleMe(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

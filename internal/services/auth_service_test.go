package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"polychat-backend/internal/auth"
	"polychat-backend/internal/config"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

func newTestAuthService() (*AuthService, *memStore) {
	s := newMemStore()
	cfg := &config.Config{JWTSecret: "test-secret", TokenExpiration: time.Hour}
	return NewAuthService(s, cfg, zap.NewNop()), s
}

func TestSignupAndLogin(t *testing.T) {
	svc, _ := newTestAuthService()
	ctx := context.Background()

	user, err := svc.Signup(ctx, "  Alice@Example.com ", "correct horse")
	if err != nil {
		t.Fatalf("Signup: %v", err)
	}
	if user.Email != "alice@example.com" {
		t.Errorf("expected normalized email, got %q", user.Email)
	}
	if user.HashedPassword == "correct horse" {
		t.Error("password stored in plain text")
	}

	token, loggedIn, err := svc.Login(ctx, "alice@example.com", "correct horse")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if loggedIn.ID != user.ID {
		t.Errorf("expected user %s, got %s", user.ID, loggedIn.ID)
	}
	claims, err := auth.ParseAccessToken(token, "test-secret")
	if err != nil {
		t.Fatalf("issued token does not parse: %v", err)
	}
	if claims.UserID != user.ID {
		t.Errorf("token carries %s, want %s", claims.UserID, user.ID)
	}

	me, err := svc.Me(ctx, user.ID)
	if err != nil || me.Email != "alice@example.com" {
		t.Errorf("Me returned %+v, %v", me, err)
	}
}

func TestSignup_Errors(t *testing.T) {
	svc, _ := newTestAuthService()
	ctx := context.Background()
	if _, err := svc.Signup(ctx, "bob@example.com", "password1"); err != nil {
		t.Fatalf("Signup: %v", err)
	}

	tests := []struct {
		name     string
		email    string
		password string
		want     error
	}{
		{"empty", "", "", ErrValidation},
		{"bad email", "bob", "password1", ErrValidation},
		{"short password", "carol@example.com", "short", ErrValidation},
		{"duplicate", "BOB@example.com", "password1", ErrUserAlreadyExists},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Signup(ctx, tt.email, tt.password); !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestLogin_InvalidCredentials(t *testing.T) {
	svc, _ := newTestAuthService()
	ctx := context.Background()
	if _, err := svc.Signup(ctx, "dave@example.com", "password1"); err != nil {
		t.Fatalf("Signup: %v", err)
	}

	for _, tc := range [][2]string{{"dave@example.com", "wrong-pass"}, {"nobody@example.com", "password1"}, {"", ""}} {
		if _, _, err := svc.Login(ctx, tc[0], tc[1]); !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("Login(%q): expected ErrInvalidCredentials, got %v", tc[0], err)
		}
	}
}

func TestMe_UnknownUser(t *testing.T) {
	svc, _ := newTestAuthService()
	if _, err := svc.Me(context.Background(), uuid.New()); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

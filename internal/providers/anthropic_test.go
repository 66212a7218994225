package providers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"polychat-backend/internal/models"

	"go.uber.org/zap"
)

func newTestAnthropic(t *testing.T, handler http.HandlerFunc) *AnthropicAdapter {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewAnthropicAdapter(Config{APIKey: "test-key", BaseURL: server.URL}, server.Client(), zap.NewNop())
}

func TestNewAnthropicAdapter_DefaultBaseURL(t *testing.T) {
	a := NewAnthropicAdapter(Config{APIKey: "k"}, NewHTTPClient(0), zap.NewNop())
	if a.cfg.BaseURL != DefaultAnthropicBaseURL {
		t.Errorf("expected base URL %q, got %q", DefaultAnthropicBaseURL, a.cfg.BaseURL)
	}
	if a.Name() != models.ProviderAnthropic {
		t.Errorf("expected name %q, got %q", models.ProviderAnthropic, a.Name())
	}
}

// TestAnthropicGenerateResponse_Basic checks headers, role coercion, token cap and text extraction.
func TestAnthropicGenerateResponse_Basic(t *testing.T) {
	a := newTestAnthropic(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if r.URL.Path != "/v1/messages" {
			t.Errorf("expected path /v1/messages, got %s", r.URL.Path)
		}
		if got := r.Header.Get("x-api-key"); got != "test-key" {
			t.Errorf("expected x-api-key header %q, got %q", "test-key", got)
		}
		if got := r.Header.Get("anthropic-version"); got != "2023-06-01" {
			t.Errorf("expected anthropic-version 2023-06-01, got %q", got)
		}

		var req anthropicRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		if req.Model != "claude-3-haiku-20240307" {
			t.Errorf("expected model claude-3-haiku-20240307, got %q", req.Model)
		}
		if req.MaxTokens != 1000 {
			t.Errorf("expected max_tokens 1000, got %d", req.MaxTokens)
		}
		wantRoles := []string{"user", "assistant", "user"}
		if len(req.Messages) != len(wantRoles) {
			t.Fatalf("expected %d messages, got %d", len(wantRoles), len(req.Messages))
		}
		for i, role := range wantRoles {
			if req.Messages[i].Role != role {
				t.Errorf("message %d: expected role %q, got %q", i, role, req.Messages[i].Role)
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"msg_1","type":"message","role":"assistant","content":[{"type":"text","text":"Paris."}]}`))
	})

	history := []models.CanonicalMessage{
		{Role: models.RoleUser, Content: "Hi"},
		{Role: models.RoleAssistant, Content: "Hello"},
		{Role: "system", Content: "coerced to user"},
	}
	text, err := a.GenerateResponse(context.Background(), history, "claude-3-haiku-20240307")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "Paris." {
		t.Errorf("expected %q, got %q", "Paris.", text)
	}
}

// TestAnthropicGenerateResponse_UpstreamErrorIsGeneric ensures the provider payload never reaches Error().
func TestAnthropicGenerateResponse_UpstreamErrorIsGeneric(t *testing.T) {
	a := newTestAnthropic(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"type":"error","error":{"type":"rate_limit_error","message":"secret detail"}}`))
	})

	_, err := a.GenerateResponse(context.Background(), []models.CanonicalMessage{{Role: models.RoleUser, Content: "x"}}, "claude-2.1")
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !errors.Is(err, ErrUpstream) {
		t.Errorf("expected errors.Is(err, ErrUpstream), got %v", err)
	}
	if err.Error() != "Failed to generate response from Anthropic" {
		t.Errorf("unexpected error text %q", err.Error())
	}
	if strings.Contains(err.Error(), "secret detail") {
		t.Error("upstream payload leaked into error text")
	}

	var upErr *UpstreamError
	if !errors.As(err, &upErr) {
		t.Fatal("expected *UpstreamError")
	}
	var se *statusError
	if !errors.As(upErr.Cause, &se) || se.StatusCode != http.StatusTooManyRequests {
		t.Errorf("expected cause to carry status 429, got %v", upErr.Cause)
	}
}

func TestAnthropicGenerateResponse_EmptyContent(t *testing.T) {
	a := newTestAnthropic(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"content":[]}`))
	})

	_, err := a.GenerateResponse(context.Background(), []models.CanonicalMessage{{Role: models.RoleUser, Content: "x"}}, "claude-2.1")
	if !errors.Is(err, ErrUpstream) {
		t.Fatalf("expected upstream error, got %v", err)
	}
}

func TestAnthropicListModels_StaticCatalog(t *testing.T) {
	a := newTestAnthropic(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected network call to %s", r.URL.Path)
	})

	list, err := a.ListModels(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(list) != 6 {
		t.Fatalf("expected 6 models, got %d", len(list))
	}
	if list[0].ID != "claude-3-opus-20240229" || list[0].Name != "Claude 3 Opus" {
		t.Errorf("unexpected first model %+v", list[0])
	}

	// Mutating the result must not affect later calls.
	list[0].ID = "mutated"
	again, _ := a.ListModels(context.Background())
	if again[0].ID != "claude-3-opus-20240229" {
		t.Error("catalog was mutated through a returned slice")
	}
}

package models

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
)

func TestSendMessageRequest_UnmarshalConversationID(t *testing.T) {
	id := uuid.New()

	cases := []struct {
		name    string
		body    string
		want    *uuid.UUID
		wantErr bool
	}{
		{"omitted", `{"message":"Hi","modelProvider":"openai","modelName":"gpt-4"}`, nil, false},
		{"empty string starts a new chat", `{"conversationId":"","message":"Hi","modelProvider":"openai","modelName":"gpt-4"}`, nil, false},
		{"null", `{"conversationId":null,"message":"Hi"}`, nil, false},
		{"valid id", `{"conversationId":"` + id.String() + `","message":"Hi"}`, &id, false},
		{"malformed id", `{"conversationId":"abc","message":"Hi"}`, nil, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var req SendMessageRequest
			err := json.Unmarshal([]byte(tc.body), &req)
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if req.Message != "Hi" {
				t.Errorf("expected message %q, got %q", "Hi", req.Message)
			}
			switch {
			case tc.want == nil && req.ConversationID != nil:
				t.Errorf("expected no conversation ID, got %s", *req.ConversationID)
			case tc.want != nil && (req.ConversationID == nil || *req.ConversationID != *tc.want):
				t.Errorf("expected conversation ID %s, got %v", *tc.want, req.ConversationID)
			}
		})
	}
}

func TestSendMessageRequest_UnmarshalKeepsOtherFields(t *testing.T) {
	var req SendMessageRequest
	body := `{"conversationId":"","message":"Hi","modelProvider":"google","modelName":"gemini-pro"}`
	if err := json.Unmarshal([]byte(body), &req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.ModelProvider != "google" || req.ModelName != "gemini-pro" {
		t.Errorf("unexpected request %+v", req)
	}
}

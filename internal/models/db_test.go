package models

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestDeriveTitle(t *testing.T) {
	forty := strings.Repeat("abcdefghij", 4)

	cases := []struct {
		name string
		in   string
		want string
	}{
		{"short message kept", "What is the capital of France?", "What is the capital of France?"},
		{"exactly thirty kept", strings.Repeat("x", 30), strings.Repeat("x", 30)},
		{"thirty one truncated", strings.Repeat("x", 31), strings.Repeat("x", 27) + "..."},
		{"forty truncated", forty, forty[:27] + "..."},
		{"multibyte counted as characters", strings.Repeat("é", 31), strings.Repeat("é", 27) + "..."},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := DeriveTitle(tc.in)
			if got != tc.want {
				t.Errorf("DeriveTitle(%q) = %q, want %q", tc.in, got, tc.want)
			}
			if n := len([]rune(got)); n > 30 {
				t.Errorf("title has %d characters, want at most 30", n)
			}
		})
	}
}

func TestNewConversation_Defaults(t *testing.T) {
	owner := uuid.New()
	conv := NewConversation(owner, ProviderOpenAI, "gpt-4")

	if conv.ID == uuid.Nil {
		t.Fatal("expected a generated conversation ID")
	}
	if conv.OwnerID != owner {
		t.Errorf("expected owner %s, got %s", owner, conv.OwnerID)
	}
	if conv.Title != DefaultConversationTitle {
		t.Errorf("expected default title, got %q", conv.Title)
	}
	if conv.Messages == nil || len(conv.Messages) != 0 {
		t.Errorf("expected empty non-nil messages, got %#v", conv.Messages)
	}
}

func TestToCanonical_PreservesOrderAndDropsTimestamps(t *testing.T) {
	conv := NewConversation(uuid.New(), ProviderGoogle, "gemini-pro")
	now := time.Now()
	conv.AppendMessage(RoleUser, "one", now)
	conv.AppendMessage(RoleAssistant, "two", now.Add(time.Second))
	conv.AppendMessage(RoleUser, "three", now.Add(2*time.Second))

	history := ToCanonical(conv.Messages)
	want := []CanonicalMessage{
		{Role: RoleUser, Content: "one"},
		{Role: RoleAssistant, Content: "two"},
		{Role: RoleUser, Content: "three"},
	}
	if len(history) != len(want) {
		t.Fatalf("expected %d messages, got %d", len(want), len(history))
	}
	for i := range want {
		if history[i] != want[i] {
			t.Errorf("message %d: expected %+v, got %+v", i, want[i], history[i])
		}
	}
}

func TestModelProvider_IsValid(t *testing.T) {
	for _, p := range []ModelProvider{ProviderOpenAI, ProviderAnthropic, ProviderGoogle} {
		if !p.IsValid() {
			t.Errorf("expected %q to be valid", p)
		}
	}
	for _, p := range []ModelProvider{"", "mistral", "OpenAI"} {
		if p.IsValid() {
			t.Errorf("expected %q to be invalid", p)
		}
	}
}

package providers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"polychat-backend/internal/models"

	"go.uber.org/zap"
)

const (
	// DefaultAnthropicBaseURL is the Anthropic API host.
	DefaultAnthropicBaseURL = "https://api.anthropic.com"

	anthropicMessagesPath = "/v1/messages"

	// anthropicVersion pins the Messages API wire format.
	anthropicVersion = "2023-06-01"

	anthropicDisplayName = "Anthropic"
)

// anthropicCatalog is served as-is; Anthropic has no listing endpoint for this API version.
var anthropicCatalog = []models.ModelDescriptor{
	{ID: "claude-3-opus-20240229", Name: "Claude 3 Opus"},
	{ID: "claude-3-sonnet-20240229", Name: "Claude 3 Sonnet"},
	{ID: "claude-3-haiku-20240307", Name: "Claude 3 Haiku"},
	{ID: "claude-2.1", Name: "Claude 2.1"},
	{ID: "claude-2.0", Name: "Claude 2.0"},
	{ID: "claude-instant-1.2", Name: "Claude Instant 1.2"},
}

// Ensure AnthropicAdapter implements the Provider interface.
var _ Provider = (*AnthropicAdapter)(nil)

// AnthropicAdapter relays conversations to the Anthropic Messages API.
type AnthropicAdapter struct {
	cfg    Config
	client *http.Client
	logger *zap.Logger
}

// NewAnthropicAdapter creates an Anthropic adapter. An empty BaseURL selects DefaultAnthropicBaseURL.
func NewAnthropicAdapter(cfg Config, client *http.Client, logger *zap.Logger) *AnthropicAdapter {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultAnthropicBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &AnthropicAdapter{cfg: cfg, client: client, logger: logger}
}

func (a *AnthropicAdapter) Name() models.ModelProvider { return models.ProviderAnthropic }

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicRequest struct {
	Model     string             `json:"model"`
	Messages  []anthropicMessage `json:"messages"`
	MaxTokens int                `json:"max_tokens"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

// GenerateResponse maps roles to Anthropic's vocabulary (assistant kept, everything else user)
// and returns the text of the first content block.
func (a *AnthropicAdapter) GenerateResponse(ctx context.Context, history []models.CanonicalMessage, modelName string) (string, error) {
	body := anthropicRequest{
		Model:     modelName,
		Messages:  make([]anthropicMessage, len(history)),
		MaxTokens: defaultMaxTokens,
	}
	for i, msg := range history {
		role := string(models.RoleUser)
		if msg.Role == models.RoleAssistant {
			role = string(models.RoleAssistant)
		}
		body.Messages[i] = anthropicMessage{Role: role, Content: msg.Content}
	}

	headers := []header{
		{Key: "x-api-key", Value: a.cfg.APIKey},
		{Key: "anthropic-version", Value: anthropicVersion},
	}

	var resp anthropicResponse
	if err := doJSON(ctx, a.client, a.logger, http.MethodPost, a.cfg.BaseURL+anthropicMessagesPath, headers, body, &resp); err != nil {
		return "", a.fail(err, modelName)
	}
	if len(resp.Content) == 0 {
		return "", a.fail(errors.New("response contained no content blocks"), modelName)
	}

	return resp.Content[0].Text, nil
}

// ListModels returns the fixed Anthropic catalog without a network call.
func (a *AnthropicAdapter) ListModels(ctx context.Context) ([]models.ModelDescriptor, error) {
	result := make([]models.ModelDescriptor, len(anthropicCatalog))
	copy(result, anthropicCatalog)
	return result, nil
}

func (a *AnthropicAdapter) fail(cause error, modelName string) error {
	a.logger.Error("[AnthropicAdapter] Upstream call failed",
		zap.String("model", modelName),
		zap.Error(cause),
	)
	return newUpstreamError(anthropicDisplayName, OpGenerate, cause)
}

package providers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"polychat-backend/internal/models"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"go.uber.org/zap"
)

const (
	// DefaultOpenAIBaseURL is the OpenAI REST API root; chat completions and model listing hang off it.
	DefaultOpenAIBaseURL = "https://api.openai.com/v1"

	openAIDisplayName = "OpenAI"

	// Sampling parameters are fixed for every generation call.
	defaultTemperature = 0.7
	defaultMaxTokens   = 1000
)

// openAIChatModelMarkers select chat-capable ids from the full model listing.
var openAIChatModelMarkers = []string{"gpt-3.5", "gpt-4"}

// Ensure OpenAIAdapter implements the Provider interface.
var _ Provider = (*OpenAIAdapter)(nil)

// OpenAIAdapter relays conversations to the OpenAI chat completions API.
type OpenAIAdapter struct {
	cfg    Config
	client *http.Client
	logger *zap.Logger
}

// NewOpenAIAdapter creates an OpenAI adapter. An empty BaseURL selects DefaultOpenAIBaseURL.
func NewOpenAIAdapter(cfg Config, client *http.Client, logger *zap.Logger) *OpenAIAdapter {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultOpenAIBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &OpenAIAdapter{cfg: cfg, client: client, logger: logger}
}

func (a *OpenAIAdapter) Name() models.ModelProvider { return models.ProviderOpenAI }

// GenerateResponse sends the history unchanged (user/assistant roles) to the chat completions endpoint.
func (a *OpenAIAdapter) GenerateResponse(ctx context.Context, history []models.CanonicalMessage, modelName string) (string, error) {
	llm, err := openai.New(
		openai.WithToken(a.cfg.APIKey),
		openai.WithBaseURL(a.cfg.BaseURL),
		openai.WithModel(modelName),
		openai.WithHTTPClient(a.client),
	)
	if err != nil {
		return "", a.fail(OpGenerate, err, modelName)
	}

	content := make([]llms.MessageContent, 0, len(history))
	for _, msg := range history {
		msgType := llms.ChatMessageTypeHuman
		if msg.Role == models.RoleAssistant {
			msgType = llms.ChatMessageTypeAI
		}
		content = append(content, llms.TextParts(msgType, msg.Content))
	}

	resp, err := llm.GenerateContent(ctx, content,
		llms.WithTemperature(defaultTemperature),
		llms.WithMaxTokens(defaultMaxTokens),
	)
	if err != nil {
		return "", a.fail(OpGenerate, err, modelName)
	}
	if len(resp.Choices) == 0 {
		return "", a.fail(OpGenerate, errors.New("response contained no choices"), modelName)
	}

	return resp.Choices[0].Content, nil
}

type openAIModelList struct {
	Data []struct {
		ID string `json:"id"`
	} `json:"data"`
}

// ListModels fetches the live model list and keeps GPT-3.5 and GPT-4 family chat models.
func (a *OpenAIAdapter) ListModels(ctx context.Context) ([]models.ModelDescriptor, error) {
	var list openAIModelList
	headers := []header{{Key: "Authorization", Value: "Bearer " + a.cfg.APIKey}}
	if err := doJSON(ctx, a.client, a.logger, http.MethodGet, a.cfg.BaseURL+"/models", headers, nil, &list); err != nil {
		return nil, a.fail(OpListModels, err, "")
	}

	result := make([]models.ModelDescriptor, 0, len(list.Data))
	for _, m := range list.Data {
		if !isOpenAIChatModel(m.ID) {
			continue
		}
		result = append(result, models.ModelDescriptor{ID: m.ID, Name: m.ID})
	}
	return result, nil
}

func isOpenAIChatModel(id string) bool {
	for _, marker := range openAIChatModelMarkers {
		if strings.Contains(id, marker) {
			return true
		}
	}
	return false
}

func (a *OpenAIAdapter) fail(op Operation, cause error, modelName string) error {
	a.logger.Error("[OpenAIAdapter] Upstream call failed",
		zap.String("op", string(op)),
		zap.String("model", modelName),
		zap.Error(cause),
	)
	return newUpstreamError(openAIDisplayName, op, cause)
}

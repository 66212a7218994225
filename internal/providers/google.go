package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"polychat-backend/internal/models"

	"go.uber.org/zap"
)

const (
	// DefaultGoogleBaseURL is the Generative Language API host.
	DefaultGoogleBaseURL = "https://generativelanguage.googleapis.com"

	googleDisplayName = "Google AI"

	// geminiMarker selects the content-parts API; any other model uses the legacy text endpoint.
	geminiMarker = "gemini"

	googleRoleModel = "model"
)

// Ensure GoogleAdapter implements the Provider interface.
var _ Provider = (*GoogleAdapter)(nil)

// GoogleAdapter relays conversations to Google's Generative Language API.
type GoogleAdapter struct {
	cfg    Config
	client *http.Client
	logger *zap.Logger
}

// NewGoogleAdapter creates a Google adapter. An empty BaseURL selects DefaultGoogleBaseURL.
func NewGoogleAdapter(cfg Config, client *http.Client, logger *zap.Logger) *GoogleAdapter {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultGoogleBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &GoogleAdapter{cfg: cfg, client: client, logger: logger}
}

func (a *GoogleAdapter) Name() models.ModelProvider { return models.ProviderGoogle }

// --- Gemini (generateContent) wire types ---

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role"`
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type geminiRequest struct {
	Contents         []geminiContent        `json:"contents"`
	GenerationConfig geminiGenerationConfig `json:"generationConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

// --- Legacy (generateText) wire types ---

type legacyPrompt struct {
	Text string `json:"text"`
}

type legacyTextRequest struct {
	Prompt          legacyPrompt `json:"prompt"`
	Temperature     float64      `json:"temperature"`
	MaxOutputTokens int          `json:"maxOutputTokens"`
}

type legacyTextResponse struct {
	Candidates []struct {
		Output string `json:"output"`
	} `json:"candidates"`
}

// GenerateResponse branches on the model family: Gemini models get a content-parts request with
// assistant turns sent as role "model"; legacy models get one Human/AI transcript prompt.
func (a *GoogleAdapter) GenerateResponse(ctx context.Context, history []models.CanonicalMessage, modelName string) (string, error) {
	var (
		text string
		err  error
	)
	if isGeminiModel(modelName) {
		text, err = a.generateContent(ctx, history, modelName)
	} else {
		text, err = a.generateText(ctx, history, modelName)
	}
	if err != nil {
		return "", a.fail(OpGenerate, err, modelName)
	}
	return text, nil
}

func isGeminiModel(modelName string) bool {
	return strings.Contains(modelName, geminiMarker)
}

func (a *GoogleAdapter) generateContent(ctx context.Context, history []models.CanonicalMessage, modelName string) (string, error) {
	body := geminiRequest{
		Contents: make([]geminiContent, len(history)),
		GenerationConfig: geminiGenerationConfig{
			Temperature:     defaultTemperature,
			MaxOutputTokens: defaultMaxTokens,
		},
	}
	for i, msg := range history {
		role := string(models.RoleUser)
		if msg.Role == models.RoleAssistant {
			role = googleRoleModel
		}
		body.Contents[i] = geminiContent{Role: role, Parts: []geminiPart{{Text: msg.Content}}}
	}

	var resp geminiResponse
	if err := doJSON(ctx, a.client, a.logger, http.MethodPost, a.modelURL("v1beta", modelName, "generateContent"), a.headers(), body, &resp); err != nil {
		return "", err
	}
	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", errors.New("response contained no candidate parts")
	}
	return resp.Candidates[0].Content.Parts[0].Text, nil
}

func (a *GoogleAdapter) generateText(ctx context.Context, history []models.CanonicalMessage, modelName string) (string, error) {
	body := legacyTextRequest{
		Prompt:          legacyPrompt{Text: BuildLegacyPrompt(history)},
		Temperature:     defaultTemperature,
		MaxOutputTokens: defaultMaxTokens,
	}

	var resp legacyTextResponse
	if err := doJSON(ctx, a.client, a.logger, http.MethodPost, a.modelURL("v1beta2", modelName, "generateText"), a.headers(), body, &resp); err != nil {
		return "", err
	}
	if len(resp.Candidates) == 0 {
		return "", errors.New("response contained no candidates")
	}
	return resp.Candidates[0].Output, nil
}

// BuildLegacyPrompt flattens a history into alternating "Human:"/"AI:" lines
// followed by a trailing "AI: " cue for the model to complete.
func BuildLegacyPrompt(history []models.CanonicalMessage) string {
	lines := make([]string, len(history))
	for i, msg := range history {
		speaker := "Human"
		if msg.Role == models.RoleAssistant {
			speaker = "AI"
		}
		lines[i] = speaker + ": " + msg.Content
	}
	return strings.Join(lines, "\n") + "\nAI: "
}

type googleModelList struct {
	Models []struct {
		Name                       string   `json:"name"`
		DisplayName                string   `json:"displayName"`
		SupportedGenerationMethods []string `json:"supportedGenerationMethods"`
	} `json:"models"`
}

// ListModels fetches the live list and keeps models that support content or text generation.
func (a *GoogleAdapter) ListModels(ctx context.Context) ([]models.ModelDescriptor, error) {
	var list googleModelList
	if err := doJSON(ctx, a.client, a.logger, http.MethodGet, a.cfg.BaseURL+"/v1beta/models", a.headers(), nil, &list); err != nil {
		return nil, a.fail(OpListModels, err, "")
	}

	result := make([]models.ModelDescriptor, 0, len(list.Models))
	for _, m := range list.Models {
		if !supportsGeneration(m.SupportedGenerationMethods) {
			continue
		}
		name := m.DisplayName
		if name == "" {
			name = m.Name
		}
		result = append(result, models.ModelDescriptor{ID: lastPathSegment(m.Name), Name: name})
	}
	return result, nil
}

func supportsGeneration(methods []string) bool {
	for _, method := range methods {
		if method == "generateContent" || method == "generateText" {
			return true
		}
	}
	return false
}

func lastPathSegment(name string) string {
	if i := strings.LastIndex(name, "/"); i >= 0 {
		return name[i+1:]
	}
	return name
}

func (a *GoogleAdapter) modelURL(version, modelName, method string) string {
	return fmt.Sprintf("%s/%s/models/%s:%s", a.cfg.BaseURL, version, url.PathEscape(modelName), method)
}

// headers carries the API key in x-goog-api-key so it never appears in a logged request URL.
func (a *GoogleAdapter) headers() []header {
	return []header{{Key: "x-goog-api-key", Value: a.cfg.APIKey}}
}

func (a *GoogleAdapter) fail(op Operation, cause error, modelName string) error {
	a.logger.Error("[GoogleAdapter] Upstream call failed",
		zap.String("op", string(op)),
		zap.String("model", modelName),
		zap.Error(cause),
	)
	return newUpstreamError(googleDisplayName, op, cause)
}

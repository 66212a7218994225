package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// maxErrorBodyPreview bounds how much of an upstream error body is kept for logs.
const maxErrorBodyPreview = 500

// Config holds the explicit settings injected into an adapter at construction.
type Config struct {
	APIKey  string
	BaseURL string
}

// NewHTTPClient returns the client shared by all adapters. A zero timeout leaves the transport default.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}

// header is a single request header applied by doJSON.
type header struct {
	Key   string
	Value string
}

// doJSON performs one HTTP request with an optional JSON body and decodes a 2xx JSON response into out.
// It never retries.
func doJSON(ctx context.Context, client *http.Client, logger *zap.Logger, method, url string, headers []header, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("error marshaling body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, h := range headers {
		req.Header.Set(h.Key, h.Value)
	}

	res, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("error sending request: %w", err)
	}
	defer func() {
		if closeErr := res.Body.Close(); closeErr != nil {
			logger.Warn("failed to close response body", zap.Error(closeErr))
		}
	}()

	respBody, err := io.ReadAll(res.Body)
	if err != nil {
		return fmt.Errorf("error reading response body: %w", err)
	}

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		preview := respBody
		if len(preview) > maxErrorBodyPreview {
			preview = preview[:maxErrorBodyPreview]
		}
		return &statusError{StatusCode: res.StatusCode, Body: string(preview)}
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("error unmarshaling response body (status %d): %w", res.StatusCode, err)
	}
	return nil
}

package analyzer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/stellaboard/stellaboard/internal/pkg/env"
)

const defaultTimeout = 10 * time.Minute

// HTTPAnalyzer calls the research engine over HTTP. A run can take minutes;
// the engine answers synchronously with the complete document.
type HTTPAnalyzer struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewHTTPAnalyzer creates a client for the given engine base URL.
func NewHTTPAnalyzer(baseURL, apiKey string, timeout time.Duration) *HTTPAnalyzer {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &HTTPAnalyzer{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
	}
}

// NewFromEnv builds the engine client from ANALYZER_URL / ANALYZER_API_KEY.
func NewFromEnv() *HTTPAnalyzer {
	return NewHTTPAnalyzer(
		env.GetEnv("ANALYZER_URL", "http://localhost:8100"),
		env.GetEnv("ANALYZER_API_KEY", ""),
		defaultTimeout,
	)
}

// Analyze posts the request and decodes the engine's document.
func (a *HTTPAnalyzer) Analyze(ctx context.Context, req Request) (*Document, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("analyzer: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/v1/analyze", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("analyzer: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if a.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+a.apiKey)
	}

	resp, err := a.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("analyzer: engine call failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("analyzer: engine returned %d: %s", resp.StatusCode, string(snippet))
	}

	var doc Document
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("analyzer: decode document: %w", err)
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

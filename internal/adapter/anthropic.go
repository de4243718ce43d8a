// Package adapter provides implementations for external AI provider integrations.
package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/quadrelay/quadrelay/internal/domain"
)

const (
	// DefaultAnthropicBaseURL is the default Anthropic API endpoint.
	DefaultAnthropicBaseURL = "https://api.anthropic.com/v1"

	// anthropicVersion is the required API version header value.
	anthropicVersion = "2023-06-01"

	// anthropicMaxTokens caps the reply length; the messages API requires it.
	anthropicMaxTokens = 4096

	// defaultSystemPrompt substitutes for an empty system prompt. The
	// messages API treats the system field as the assistant persona, so we
	// always send one.
	defaultSystemPrompt = "You are a helpful AI assistant."
)

// AnthropicAdapter implements ChatProvider for the Anthropic messages API.
// The system prompt travels in a dedicated top-level field, never inlined
// into the messages array; system-role entries in the array are rejected.
type AnthropicAdapter struct {
	availability
	model      string
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// AnthropicOption is a functional option for configuring AnthropicAdapter.
type AnthropicOption func(*AnthropicAdapter)

// WithAnthropicBaseURL sets a custom base URL.
func WithAnthropicBaseURL(url string) AnthropicOption {
	return func(a *AnthropicAdapter) {
		a.baseURL = strings.TrimSuffix(url, "/")
	}
}

// WithAnthropicHTTPClient sets a custom HTTP client.
func WithAnthropicHTTPClient(client *http.Client) AnthropicOption {
	return func(a *AnthropicAdapter) {
		a.httpClient = client
	}
}

// WithAnthropicTimeout sets the HTTP client timeout.
func WithAnthropicTimeout(timeout time.Duration) AnthropicOption {
	return func(a *AnthropicAdapter) {
		a.httpClient.Timeout = timeout
	}
}

// NewAnthropicAdapter creates an AnthropicAdapter for the given vendor model
// id and API key. Construction only validates the credential; no network I/O.
func NewAnthropicAdapter(model, apiKey string, opts ...AnthropicOption) *AnthropicAdapter {
	a := &AnthropicAdapter{
		availability: checkCredential(apiKey, "Anthropic"),
		model:        model,
		apiKey:       apiKey,
		baseURL:      DefaultAnthropicBaseURL,
		httpClient:   &http.Client{},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Name returns the provider identifier.
func (a *AnthropicAdapter) Name() string {
	return "anthropic"
}

// Chat sends the conversation to the messages API. The reply is the first
// content block's text.
func (a *AnthropicAdapter) Chat(ctx context.Context, messages []domain.Message, systemPrompt string) (string, error) {
	if !a.available {
		return "", a.errNotAvailable()
	}

	req, err := a.buildRequest(messages, systemPrompt)
	if err != nil {
		return "", err
	}

	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("failed to marshal anthropic request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/messages", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create http request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", a.apiKey)
	httpReq.Header.Set("anthropic-version", anthropicVersion)

	resp, err := a.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("failed to execute anthropic request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read anthropic response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr anthropicErrorResponse
		if err := json.Unmarshal(respBody, &apiErr); err == nil && apiErr.Error.Message != "" {
			return "", fmt.Errorf("anthropic API error [%d]: %s", resp.StatusCode, apiErr.Error.Message)
		}
		return "", fmt.Errorf("anthropic API error [%d]: %s", resp.StatusCode, string(respBody))
	}

	var reply anthropicResponse
	if err := json.Unmarshal(respBody, &reply); err != nil {
		return "", fmt.Errorf("failed to unmarshal anthropic response: %w", err)
	}
	if len(reply.Content) == 0 {
		return "", fmt.Errorf("anthropic API returned no content blocks")
	}

	return reply.Content[0].Text, nil
}

// buildRequest translates the uniform contract to the messages API shape.
// The messages array may only contain user/assistant turns.
func (a *AnthropicAdapter) buildRequest(messages []domain.Message, systemPrompt string) (anthropicRequest, error) {
	wire := make([]anthropicMessage, 0, len(messages))
	for _, m := range messages {
		if m.Role == domain.RoleSystem {
			return anthropicRequest{}, fmt.Errorf("anthropic messages must not contain system-role entries; pass the system prompt separately")
		}
		wire = append(wire, anthropicMessage{Role: string(m.Role), Content: m.Content})
	}

	system := systemPrompt
	if system == "" {
		system = defaultSystemPrompt
	}

	return anthropicRequest{
		Model:     a.model,
		MaxTokens: anthropicMaxTokens,
		System:    system,
		Messages:  wire,
	}, nil
}

// ============================================================================
// Anthropic wire types
// ============================================================================

// anthropicRequest is a messages API request body. System is a top-level
// field, separate from the messages array.
type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	System    string             `json:"system"`
	Messages  []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// anthropicResponse is a messages API response body.
type anthropicResponse struct {
	ID      string                  `json:"id"`
	Model   string                  `json:"model"`
	Content []anthropicContentBlock `json:"content"`
}

type anthropicContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// anthropicErrorResponse is the API error envelope.
type anthropicErrorResponse struct {
	Type  string               `json:"type"`
	Error anthropicErrorDetail `json:"error"`
}

type anthropicErrorDetail struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

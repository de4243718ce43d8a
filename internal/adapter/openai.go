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

// DefaultOpenAIBaseURL is the default OpenAI API endpoint.
const DefaultOpenAIBaseURL = "https://api.openai.com/v1"

// OpenAIAdapter implements ChatProvider for the OpenAI chat completions API.
type OpenAIAdapter struct {
	openAICompat
}

// NewOpenAIAdapter creates an OpenAIAdapter for the given vendor model id and
// API key. Construction only validates the credential; no network I/O.
func NewOpenAIAdapter(model, apiKey string, opts ...CompatOption) *OpenAIAdapter {
	return &OpenAIAdapter{
		openAICompat: newOpenAICompat("openai", "OpenAI", DefaultOpenAIBaseURL, model, apiKey, opts...),
	}
}

// CompatOption is a functional option for adapters speaking the OpenAI wire
// format (OpenAI itself and xAI).
type CompatOption func(*openAICompat)

// WithCompatBaseURL sets a custom base URL.
func WithCompatBaseURL(url string) CompatOption {
	return func(c *openAICompat) {
		c.baseURL = strings.TrimSuffix(url, "/")
	}
}

// WithCompatHTTPClient sets a custom HTTP client.
func WithCompatHTTPClient(client *http.Client) CompatOption {
	return func(c *openAICompat) {
		c.httpClient = client
	}
}

// WithCompatTimeout sets the HTTP client timeout. By default no timeout is
// enforced beyond the client's own; discovery and test paths set one.
func WithCompatTimeout(timeout time.Duration) CompatOption {
	return func(c *openAICompat) {
		c.httpClient.Timeout = timeout
	}
}

// openAICompat is the shared wire implementation for the OpenAI request
// schema. xAI reuses the same schema against a different base endpoint, so
// both variants embed this core.
type openAICompat struct {
	availability
	name       string
	vendor     string
	model      string
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

func newOpenAICompat(name, vendor, baseURL, model, apiKey string, opts ...CompatOption) openAICompat {
	c := openAICompat{
		availability: checkCredential(apiKey, vendor),
		name:         name,
		vendor:       vendor,
		model:        model,
		apiKey:       apiKey,
		baseURL:      baseURL,
		httpClient:   &http.Client{},
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// Name returns the provider identifier.
func (c *openAICompat) Name() string {
	return c.name
}

// Chat performs a chat completion request. A non-empty system prompt is
// prepended as a single system-role message; the conversation follows in
// order as one array in one request. The reply is the first completion's text.
func (c *openAICompat) Chat(ctx context.Context, messages []domain.Message, systemPrompt string) (string, error) {
	if !c.available {
		return "", c.errNotAvailable()
	}

	body, err := json.Marshal(openAIRequest{Model: c.model, Messages: c.buildMessages(messages, systemPrompt)})
	if err != nil {
		return "", fmt.Errorf("failed to marshal %s request: %w", c.name, err)
	}

	url := c.baseURL + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create http request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("failed to execute %s request: %w", c.name, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read %s response: %w", c.name, err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr openAIErrorResponse
		if err := json.Unmarshal(respBody, &apiErr); err == nil && apiErr.Error.Message != "" {
			return "", fmt.Errorf("%s API error [%d]: %s", c.name, resp.StatusCode, apiErr.Error.Message)
		}
		return "", fmt.Errorf("%s API error [%d]: %s", c.name, resp.StatusCode, string(respBody))
	}

	var completion openAIResponse
	if err := json.Unmarshal(respBody, &completion); err != nil {
		return "", fmt.Errorf("failed to unmarshal %s response: %w", c.name, err)
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("%s API returned no choices", c.name)
	}

	return completion.Choices[0].Message.Content, nil
}

// buildMessages exposes the message translation for tests.
func (c *openAICompat) buildMessages(messages []domain.Message, systemPrompt string) []openAIMessage {
	wire := make([]openAIMessage, 0, len(messages)+1)
	if systemPrompt != "" {
		wire = append(wire, openAIMessage{Role: "system", Content: systemPrompt})
	}
	for _, m := range messages {
		wire = append(wire, openAIMessage{Role: string(m.Role), Content: m.Content})
	}
	return wire
}

// ============================================================================
// OpenAI wire types
// ============================================================================

// openAIRequest is a chat completion request body.
type openAIRequest struct {
	Model    string          `json:"model"`
	Messages []openAIMessage `json:"messages"`
}

// openAIMessage is a single message in the conversation.
type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// openAIResponse is a chat completion response body.
type openAIResponse struct {
	ID      string         `json:"id"`
	Object  string         `json:"object"`
	Model   string         `json:"model"`
	Choices []openAIChoice `json:"choices"`
}

// openAIChoice is a single completion choice.
type openAIChoice struct {
	Index        int           `json:"index"`
	Message      openAIMessage `json:"message"`
	FinishReason string        `json:"finish_reason"`
}

// openAIErrorResponse is the error envelope of OpenAI-compatible APIs.
type openAIErrorResponse struct {
	Error openAIErrorDetail `json:"error"`
}

type openAIErrorDetail struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    string `json:"code,omitempty"`
}

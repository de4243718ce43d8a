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

// DefaultGoogleBaseURL is the default Gemini API endpoint.
const DefaultGoogleBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// GoogleAdapter implements ChatProvider for the Google Gemini API.
//
// Gemini has no system role at the wire level. Every input message except the
// final one becomes prior-turn history (assistant renamed to "model",
// system-role entries dropped entirely). The final message is the live turn;
// a non-empty system prompt is concatenated as a prefix before sending.
type GoogleAdapter struct {
	availability
	model      string
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// GoogleOption is a functional option for configuring GoogleAdapter.
type GoogleOption func(*GoogleAdapter)

// WithGoogleBaseURL sets a custom base URL.
func WithGoogleBaseURL(url string) GoogleOption {
	return func(g *GoogleAdapter) {
		g.baseURL = strings.TrimSuffix(url, "/")
	}
}

// WithGoogleHTTPClient sets a custom HTTP client.
func WithGoogleHTTPClient(client *http.Client) GoogleOption {
	return func(g *GoogleAdapter) {
		g.httpClient = client
	}
}

// WithGoogleTimeout sets the HTTP client timeout.
func WithGoogleTimeout(timeout time.Duration) GoogleOption {
	return func(g *GoogleAdapter) {
		g.httpClient.Timeout = timeout
	}
}

// NewGoogleAdapter creates a GoogleAdapter for the given vendor model id and
// API key. Construction only validates the credential; no network I/O.
func NewGoogleAdapter(model, apiKey string, opts ...GoogleOption) *GoogleAdapter {
	g := &GoogleAdapter{
		availability: checkCredential(apiKey, "Google"),
		model:        model,
		apiKey:       apiKey,
		baseURL:      DefaultGoogleBaseURL,
		httpClient:   &http.Client{},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Name returns the provider identifier.
func (g *GoogleAdapter) Name() string {
	return "google"
}

// Chat performs a generateContent request. The reply is the first candidate's
// first part text.
func (g *GoogleAdapter) Chat(ctx context.Context, messages []domain.Message, systemPrompt string) (string, error) {
	if !g.available {
		return "", g.errNotAvailable()
	}
	if len(messages) == 0 {
		return "", fmt.Errorf("google adapter requires at least one message")
	}

	geminiReq := g.buildRequest(messages, systemPrompt)

	body, err := json.Marshal(geminiReq)
	if err != nil {
		return "", fmt.Errorf("failed to marshal gemini request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", g.baseURL, g.model, g.apiKey)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create http request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("failed to execute gemini request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read gemini response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var geminiErr geminiErrorResponse
		if err := json.Unmarshal(respBody, &geminiErr); err == nil && geminiErr.Error.Message != "" {
			return "", fmt.Errorf("gemini API error [%d]: %s", resp.StatusCode, geminiErr.Error.Message)
		}
		return "", fmt.Errorf("gemini API error [%d]: %s", resp.StatusCode, string(respBody))
	}

	var geminiResp geminiResponse
	if err := json.Unmarshal(respBody, &geminiResp); err != nil {
		return "", fmt.Errorf("failed to unmarshal gemini response: %w", err)
	}
	if len(geminiResp.Candidates) == 0 || len(geminiResp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini API returned no candidates")
	}

	return geminiResp.Candidates[0].Content.Parts[0].Text, nil
}

// buildRequest converts the uniform contract to Gemini format. History is
// everything before the final message; the final message's text is the live
// prompt, prefixed with the system prompt when one is set.
func (g *GoogleAdapter) buildRequest(messages []domain.Message, systemPrompt string) geminiRequest {
	history := make([]geminiContent, 0, len(messages))
	for _, m := range messages[:len(messages)-1] {
		switch m.Role {
		case domain.RoleUser:
			history = append(history, geminiContent{Role: "user", Parts: []geminiPart{{Text: m.Content}}})
		case domain.RoleAssistant:
			history = append(history, geminiContent{Role: "model", Parts: []geminiPart{{Text: m.Content}}})
		case domain.RoleSystem:
			// No system role on the wire; dropped from history entirely.
		}
	}

	live := messages[len(messages)-1].Content
	if systemPrompt != "" && live != "" {
		live = systemPrompt + "\n\n" + live
	}

	return geminiRequest{
		Contents: append(history, geminiContent{Role: "user", Parts: []geminiPart{{Text: live}}}),
	}
}

// ============================================================================
// Gemini wire types
// ============================================================================

// geminiRequest is a generateContent request body.
type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

// geminiContent is a content block: one turn with its parts.
type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text,omitempty"`
}

// geminiResponse is a generateContent response body.
type geminiResponse struct {
	Candidates []geminiCandidate `json:"candidates"`
}

type geminiCandidate struct {
	Content      geminiContent `json:"content"`
	FinishReason string        `json:"finishReason"`
	Index        int           `json:"index"`
}

// geminiErrorResponse is the API error envelope.
type geminiErrorResponse struct {
	Error geminiErrorDetail `json:"error"`
}

type geminiErrorDetail struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

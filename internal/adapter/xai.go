// Package adapter provides implementations for external AI provider integrations.
package adapter

// DefaultXAIBaseURL is the default xAI API endpoint. xAI exposes an
// OpenAI-compatible API, so the adapter reuses the OpenAI wire codec.
const DefaultXAIBaseURL = "https://api.x.ai/v1"

// XAIAdapter implements ChatProvider for the xAI Grok API.
type XAIAdapter struct {
	openAICompat
}

// NewXAIAdapter creates an XAIAdapter for the given vendor model id and API key.
func NewXAIAdapter(model, apiKey string, opts ...CompatOption) *XAIAdapter {
	return &XAIAdapter{
		openAICompat: newOpenAICompat("xai", "xAI", DefaultXAIBaseURL, model, apiKey, opts...),
	}
}

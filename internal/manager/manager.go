// Package manager dispatches uniform chat requests to the right provider
// adapter. It resolves provider id -> descriptor, credential and vendor model,
// constructs the adapter variant for the call, and passes results and errors
// through unchanged. Adapters are built per call and never cached; each call
// is independent and stateless.
package manager

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/quadrelay/quadrelay/internal/adapter"
	"github.com/quadrelay/quadrelay/internal/domain"
	"github.com/quadrelay/quadrelay/internal/registry"
)

// UnknownProviderError is returned when a requested provider id is not in the
// descriptor table. Terminal, non-retryable; no network call is attempted.
type UnknownProviderError struct {
	ID string
}

func (e *UnknownProviderError) Error() string {
	return fmt.Sprintf("unknown provider: %s", e.ID)
}

// ProviderStatus describes one configured provider for introspection.
type ProviderStatus struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Model     string `json:"model"`
	Available bool   `json:"available"`
	Error     string `json:"error,omitempty"`
}

// Manager resolves provider ids to adapter instances and dispatches chat
// calls. The registry is supplied at construction so tests can substitute
// alternate tables.
type Manager struct {
	registry *registry.Registry
	lookup   domain.EnvLookup
	logger   *slog.Logger
}

// Option is a functional option for configuring Manager.
type Option func(*Manager)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithEnvLookup overrides how ambient credentials are read from the
// environment. Tests substitute a map-backed lookup.
func WithEnvLookup(lookup domain.EnvLookup) Option {
	return func(m *Manager) {
		m.lookup = lookup
	}
}

// New creates a Manager over the given registry.
func New(reg *registry.Registry, opts ...Option) *Manager {
	m := &Manager{
		registry: reg,
		lookup:   os.LookupEnv,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Chat sends the conversation to the requested provider and returns the
// reply text.
//
// The provider id must be a registered descriptor. The credential comes from
// two-tier resolution (caller's set first, then environment); a missing
// credential is not fatal here, only when the adapter is invoked. The vendor
// model is the resolved requested model when given, otherwise the
// descriptor's default. Adapter errors propagate unchanged.
func (m *Manager) Chat(ctx context.Context, providerID string, messages []domain.Message, systemPrompt string, creds domain.CredentialSet, requestedModel string) (string, error) {
	desc, ok := m.registry.Descriptor(providerID)
	if !ok {
		return "", &UnknownProviderError{ID: providerID}
	}

	key := domain.ResolveCredential(creds, desc.Class, m.lookup)

	model := desc.Model
	if requestedModel != "" {
		model = m.registry.ResolveModel(requestedModel)
	}

	provider, err := m.build(desc, model, key)
	if err != nil {
		return "", err
	}

	m.logger.Debug("dispatching chat",
		slog.String("provider", desc.ID),
		slog.String("model", model),
		slog.Int("messages", len(messages)),
	)

	return provider.Chat(ctx, messages, systemPrompt)
}

// ListProviders constructs one adapter per descriptor using ambient
// environment credentials only and reports each one's status. Side-effect-free
// beyond the constructions; no network I/O.
func (m *Manager) ListProviders() []ProviderStatus {
	descriptors := m.registry.Descriptors()
	statuses := make([]ProviderStatus, 0, len(descriptors))

	for _, desc := range descriptors {
		key := domain.ResolveCredential(nil, desc.Class, m.lookup)
		status := ProviderStatus{ID: desc.ID, Name: desc.Name, Model: desc.Model}

		provider, err := m.build(desc, desc.Model, key)
		if err != nil {
			status.Error = err.Error()
		} else {
			status.Available, status.Error = provider.Available()
		}
		statuses = append(statuses, status)
	}

	return statuses
}

// build constructs the adapter variant for a descriptor's credential class.
func (m *Manager) build(desc registry.Descriptor, model, key string) (adapter.ChatProvider, error) {
	switch desc.Class {
	case domain.CredentialOpenAI:
		return adapter.NewOpenAIAdapter(model, key), nil
	case domain.CredentialAnthropic:
		return adapter.NewAnthropicAdapter(model, key), nil
	case domain.CredentialGoogle:
		return adapter.NewGoogleAdapter(model, key), nil
	case domain.CredentialXAI:
		return adapter.NewXAIAdapter(model, key), nil
	}
	return nil, fmt.Errorf("no adapter variant for credential class %q", desc.Class)
}

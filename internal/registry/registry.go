// Package registry holds the static provider and model tables.
// It maps human-facing model identifiers to vendor API model identifiers and
// provider identifiers to the credential class they require. The tables are
// immutable once built; callers receive a *Registry at construction time
// rather than reading ambient globals, so tests can substitute their own.
package registry

import (
	"strings"

	"github.com/quadrelay/quadrelay/internal/domain"
)

// Descriptor is the static definition of one selectable provider. Defined at
// process start, never mutated.
type Descriptor struct {
	// ID is the provider identifier callers use (e.g. "claude-sonnet-4.5").
	ID string `json:"id"`

	// Name is the human-readable display name.
	Name string `json:"name"`

	// Class identifies which credential the provider needs.
	Class domain.CredentialClass `json:"credential_class"`

	// Model is the default vendor API model identifier.
	Model string `json:"model"`
}

// Registry is the immutable provider/model lookup table.
type Registry struct {
	descriptors []Descriptor
	byID        map[string]Descriptor
	aliases     map[string]string
}

// New builds a Registry from explicit tables. Descriptor order is preserved
// for listing.
func New(descriptors []Descriptor, aliases map[string]string) *Registry {
	r := &Registry{
		descriptors: make([]Descriptor, len(descriptors)),
		byID:        make(map[string]Descriptor, len(descriptors)),
		aliases:     make(map[string]string, len(aliases)),
	}
	copy(r.descriptors, descriptors)
	for _, d := range descriptors {
		r.byID[d.ID] = d
	}
	for k, v := range aliases {
		r.aliases[k] = v
	}
	return r
}

// Default returns the built-in registry covering the four supported vendors.
func Default() *Registry {
	return New(defaultDescriptors, defaultAliases)
}

// ResolveModel maps a friendly model id to the vendor API model id. Unknown
// ids pass through unchanged so newly released vendor models work before an
// alias exists for them.
func (r *Registry) ResolveModel(friendly string) string {
	if vendorModel, ok := r.aliases[friendly]; ok {
		return vendorModel
	}
	return friendly
}

// Descriptor returns the static descriptor for a provider id.
func (r *Registry) Descriptor(providerID string) (Descriptor, bool) {
	d, ok := r.byID[providerID]
	return d, ok
}

// Descriptors returns all registered descriptors in definition order.
func (r *Registry) Descriptors() []Descriptor {
	out := make([]Descriptor, len(r.descriptors))
	copy(out, r.descriptors)
	return out
}

// CredentialClassFor returns the credential class a provider id needs. The
// descriptor table is authoritative; unregistered ids fall back to prefix
// matching so frontends can pass bare model families ("gpt-4o", "claude").
// The second return is false when no class can be determined, meaning no
// credential is needed or available.
func (r *Registry) CredentialClassFor(providerID string) (domain.CredentialClass, bool) {
	if d, ok := r.byID[providerID]; ok {
		return d.Class, true
	}
	switch {
	case strings.HasPrefix(providerID, "openai"),
		strings.HasPrefix(providerID, "gpt"),
		strings.HasPrefix(providerID, "o3"),
		strings.HasPrefix(providerID, "o4"):
		return domain.CredentialOpenAI, true
	case strings.HasPrefix(providerID, "claude"):
		return domain.CredentialAnthropic, true
	case strings.HasPrefix(providerID, "gemini"):
		return domain.CredentialGoogle, true
	case strings.HasPrefix(providerID, "grok"):
		return domain.CredentialXAI, true
	}
	return "", false
}

// MatchesModelTag reports whether an assistant message's recorded model tag
// was produced by the given provider. It classifies both sides down to the
// vendor family, so "gpt-4o" matches any OpenAI provider id and never a
// Claude one. Used by the history filter to rebuild per-provider threads.
func (r *Registry) MatchesModelTag(providerID, modelTag string) bool {
	if modelTag == "" {
		return false
	}
	class, ok := r.CredentialClassFor(providerID)
	if !ok {
		return false
	}
	tag := strings.ToLower(modelTag)
	switch class {
	case domain.CredentialOpenAI:
		return strings.Contains(tag, "gpt") ||
			strings.HasPrefix(tag, "o3") ||
			strings.HasPrefix(tag, "o4") ||
			strings.Contains(tag, "openai")
	case domain.CredentialAnthropic:
		return strings.Contains(tag, "claude")
	case domain.CredentialGoogle:
		return strings.Contains(tag, "gemini")
	case domain.CredentialXAI:
		return strings.Contains(tag, "grok")
	}
	return false
}

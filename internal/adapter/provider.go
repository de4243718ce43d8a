// Package adapter provides implementations for external AI provider integrations.
// It uses the Adapter pattern to abstract provider-specific APIs behind a common
// interface: four variants (OpenAI, Anthropic, Google, xAI) translate the
// uniform (messages, system prompt) -> reply contract to their vendor's wire
// format. Adding a vendor means adding a variant, not reopening existing ones.
package adapter

import (
	"context"
	"fmt"

	"github.com/quadrelay/quadrelay/internal/domain"
)

// ChatProvider defines the interface for AI provider adapters.
// All provider implementations must satisfy this interface.
type ChatProvider interface {
	// Chat sends the ordered conversation and optional system prompt to the
	// vendor and returns the reply text. Vendor failures propagate with the
	// original message; there is no retry.
	Chat(ctx context.Context, messages []domain.Message, systemPrompt string) (string, error)

	// Name returns the provider's identifier string.
	Name() string

	// Available reports whether the adapter holds a usable credential, and
	// the human-readable reason when it does not.
	Available() (bool, string)
}

// availability is the constructed state shared by all adapter variants.
// Construction never performs network I/O; it only validates that the
// credential is present and not a placeholder.
type availability struct {
	available bool
	reason    string
}

// checkCredential validates a credential string for a vendor. The vendor name
// is used verbatim in the user-facing reason.
func checkCredential(key, vendor string) availability {
	if key == "" || domain.IsPlaceholderKey(key) {
		return availability{
			reason: fmt.Sprintf("%s API key not configured. Add it in Settings.", vendor),
		}
	}
	return availability{available: true}
}

// Available implements the ChatProvider availability check.
func (a availability) Available() (bool, string) {
	return a.available, a.reason
}

// errNotAvailable is returned by Chat on an adapter that was constructed
// without a usable credential. Never a silent no-op.
func (a availability) errNotAvailable() error {
	return fmt.Errorf("provider not available: %s", a.reason)
}

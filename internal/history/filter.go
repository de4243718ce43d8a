// Package history reconstructs per-provider conversation threads.
//
// A conversation's message log mixes assistant replies from every provider
// that was enabled at each turn. Before a provider is called, the log must be
// reduced to the sub-thread that provider actually participated in, so a
// provider that was toggled off for some turns never receives those turns'
// context.
package history

import (
	"github.com/quadrelay/quadrelay/internal/domain"
)

// Matcher classifies whether an assistant message's model tag belongs to a
// provider. *registry.Registry satisfies it.
type Matcher interface {
	MatchesModelTag(providerID, modelTag string) bool
}

// ForProvider scans the full log in chronological order and returns the
// messages the given provider should see.
//
// A user message is held pending; it is emitted only when this provider's own
// assistant reply follows it. Assistant messages from other providers are
// skipped, and a pending user message they answered is dropped for this
// provider's view. A trailing user message with no reply from this provider
// is never emitted; the caller appends the live user message after filtering.
func ForProvider(m Matcher, log []domain.StoredMessage, providerID string) []domain.Message {
	filtered := make([]domain.Message, 0, len(log))

	var pending *domain.StoredMessage
	for i := range log {
		msg := log[i]
		switch msg.Role {
		case domain.RoleUser:
			// Overwrites any unconsumed pending message; that turn is
			// orphaned for this provider.
			pending = &log[i]
		case domain.RoleAssistant:
			if !m.MatchesModelTag(providerID, msg.Model) {
				continue
			}
			if pending != nil {
				filtered = append(filtered, pending.Chat())
				pending = nil
			}
			filtered = append(filtered, msg.Chat())
		}
	}

	return filtered
}

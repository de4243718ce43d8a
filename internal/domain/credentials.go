// Package domain contains the core business entities and value objects.
package domain

import "strings"

// CredentialClass is the category of secret a provider needs.
// There is one class per vendor, shared across that vendor's models.
type CredentialClass string

const (
	CredentialOpenAI    CredentialClass = "openai"
	CredentialAnthropic CredentialClass = "anthropic"
	CredentialGoogle    CredentialClass = "google"
	CredentialXAI       CredentialClass = "xai"
)

// envNames maps each credential class to its conventional environment variable.
var envNames = map[CredentialClass]string{
	CredentialOpenAI:    "OPENAI_API_KEY",
	CredentialAnthropic: "ANTHROPIC_API_KEY",
	CredentialGoogle:    "GOOGLE_API_KEY",
	CredentialXAI:       "XAI_API_KEY",
}

// EnvName returns the environment variable that holds the secret for a
// credential class, or "" for an unknown class.
func (c CredentialClass) EnvName() string {
	return envNames[c]
}

// CredentialSet maps credential classes to secret strings. Presence is
// optional per class; a missing entry means "not configured here".
type CredentialSet map[CredentialClass]string

// EnvLookup reads a named environment variable. os.LookupEnv satisfies it;
// tests substitute a map-backed function.
type EnvLookup func(name string) (string, bool)

// ResolveCredential returns the secret for a credential class using two-tier
// resolution: an explicit entry in the set takes precedence, otherwise the
// class's environment variable is consulted. Returns "" when neither is set.
func ResolveCredential(set CredentialSet, class CredentialClass, lookup EnvLookup) string {
	if set != nil {
		if key := set[class]; key != "" {
			return key
		}
	}
	if lookup == nil {
		return ""
	}
	if key, ok := lookup(class.EnvName()); ok {
		return key
	}
	return ""
}

// IsPlaceholderKey reports whether a credential string is an unconfigured
// placeholder rather than a real secret. Keys copied straight out of sample
// configs start with "your-" (e.g. "your-openai-key-here").
func IsPlaceholderKey(key string) bool {
	return strings.HasPrefix(key, "your-")
}

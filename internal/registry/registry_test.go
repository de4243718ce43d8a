package registry

import (
	"testing"

	"github.com/quadrelay/quadrelay/internal/domain"
)

func TestRegistry_ResolveModel(t *testing.T) {
	r := Default()

	tests := []struct {
		friendly string
		want     string
	}{
		{"claude-opus-4.5", "claude-opus-4-5-20251101"},
		{"claude-3.5-sonnet", "claude-3-5-sonnet-20241022"},
		{"gemini-3-pro", "gemini-3-pro-preview"},
		{"grok-4.1", "grok-4-1-fast-reasoning"},
		{"gpt-5.1-thinking", "gpt-5.1"},
		// Unknown ids pass through unchanged.
		{"gpt-17-ultra", "gpt-17-ultra"},
		{"some-brand-new-model", "some-brand-new-model"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.friendly, func(t *testing.T) {
			if got := r.ResolveModel(tt.friendly); got != tt.want {
				t.Errorf("ResolveModel(%q) = %q, want %q", tt.friendly, got, tt.want)
			}
		})
	}
}

func TestRegistry_ResolveModel_PassThroughIdempotent(t *testing.T) {
	r := Default()
	once := r.ResolveModel("unaliased-model")
	twice := r.ResolveModel(once)
	if once != "unaliased-model" || twice != once {
		t.Errorf("pass-through not idempotent: %q -> %q -> %q", "unaliased-model", once, twice)
	}
}

func TestRegistry_CredentialClassFor(t *testing.T) {
	r := Default()

	tests := []struct {
		providerID string
		want       domain.CredentialClass
		wantOK     bool
	}{
		// Registered descriptors.
		{"openai-gpt5.1", domain.CredentialOpenAI, true},
		{"claude-opus-4.5", domain.CredentialAnthropic, true},
		{"gemini-3-pro", domain.CredentialGoogle, true},
		{"grok-4.1", domain.CredentialXAI, true},
		// Prefix fallback for unregistered ids.
		{"gpt-6-experimental", domain.CredentialOpenAI, true},
		{"o3-deep-research", domain.CredentialOpenAI, true},
		{"o4-mini-high", domain.CredentialOpenAI, true},
		{"claude-next", domain.CredentialAnthropic, true},
		{"gemini-ultra-2", domain.CredentialGoogle, true},
		{"grok-5", domain.CredentialXAI, true},
		// No match at all.
		{"llama-3", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.providerID, func(t *testing.T) {
			got, ok := r.CredentialClassFor(tt.providerID)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("CredentialClassFor(%q) = (%q, %v), want (%q, %v)",
					tt.providerID, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestRegistry_MatchesModelTag(t *testing.T) {
	r := Default()

	tests := []struct {
		name       string
		providerID string
		modelTag   string
		want       bool
	}{
		{"gpt tag matches openai", "openai", "gpt-4o", true},
		{"o3 tag matches openai", "openai", "o3", true},
		{"openai word matches openai", "openai-gpt4o", "openai-gpt4o", true},
		{"claude tag matches claude", "claude", "claude-3-opus", true},
		{"gemini tag matches gemini", "gemini", "gemini-2.5-pro", true},
		{"grok tag matches grok", "grok", "grok-3", true},
		{"gemini tag never matches claude", "claude", "gemini-2.5-pro", false},
		{"claude tag never matches openai", "openai", "claude-3-opus", false},
		{"empty tag matches nothing", "openai", "", false},
		{"unknown provider matches nothing", "llama", "gpt-4o", false},
		{"case insensitive tag", "claude", "Claude-Sonnet-4", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.MatchesModelTag(tt.providerID, tt.modelTag); got != tt.want {
				t.Errorf("MatchesModelTag(%q, %q) = %v, want %v",
					tt.providerID, tt.modelTag, got, tt.want)
			}
		})
	}
}

func TestRegistry_Descriptor(t *testing.T) {
	r := Default()

	d, ok := r.Descriptor("claude")
	if !ok {
		t.Fatal("Descriptor(claude) not found")
	}
	if d.Model != "claude-sonnet-4-5-20250929" {
		t.Errorf("claude default model = %q, want claude-sonnet-4-5-20250929", d.Model)
	}
	if d.Class != domain.CredentialAnthropic {
		t.Errorf("claude class = %q, want anthropic", d.Class)
	}

	if _, ok := r.Descriptor("no-such-provider"); ok {
		t.Error("Descriptor(no-such-provider) unexpectedly found")
	}
}

func TestNew_CopiesTables(t *testing.T) {
	descs := []Descriptor{{ID: "p1", Name: "P1", Class: domain.CredentialOpenAI, Model: "m1"}}
	aliases := map[string]string{"friendly": "vendor"}
	r := New(descs, aliases)

	// Mutating the inputs must not affect the registry.
	descs[0].Model = "changed"
	aliases["friendly"] = "changed"

	if d, _ := r.Descriptor("p1"); d.Model != "m1" {
		t.Errorf("descriptor mutated through input slice: %q", d.Model)
	}
	if got := r.ResolveModel("friendly"); got != "vendor" {
		t.Errorf("alias mutated through input map: %q", got)
	}
}

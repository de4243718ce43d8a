package registry

import "github.com/quadrelay/quadrelay/internal/domain"

// defaultAliases maps friendly model ids to the exact vendor API model names.
// Single source of truth for model naming; last refreshed December 2025.
var defaultAliases = map[string]string{
	// OpenAI
	"gpt-5.1":          "gpt-5.1",
	"gpt-5.1-thinking": "gpt-5.1",
	"gpt-5":            "gpt-5",
	"gpt-5-pro":        "gpt-5-pro",
	"gpt-5-mini":       "gpt-5-mini",
	"gpt-4o":           "gpt-4o",
	"gpt-4-turbo":      "gpt-4-turbo",
	"o3":               "o3",
	"o4-mini":          "o4-mini",

	// Anthropic
	"claude-opus-4.5":   "claude-opus-4-5-20251101",
	"claude-sonnet-4.5": "claude-sonnet-4-5-20250929",
	"claude-haiku-4.5":  "claude-3-5-haiku-20251015",
	"claude-opus-4.1":   "claude-opus-4-1-20250805",
	"claude-sonnet-4":   "claude-sonnet-4-20250514",
	"claude-3.5-sonnet": "claude-3-5-sonnet-20241022",
	"claude-3-opus":     "claude-3-opus-20240229",
	"claude-3-haiku":    "claude-3-haiku-20240307",

	// Google
	"gemini-3-pro":        "gemini-3-pro-preview",
	"gemini-3-deep-think": "gemini-3-pro-preview",
	"gemini-2.5-pro":      "gemini-2.5-pro",
	"gemini-2.5-flash":    "gemini-2.5-flash",
	"gemini-2.0-flash":    "gemini-2.0-flash",

	// xAI
	"grok-4.1":          "grok-4-1-fast-reasoning",
	"grok-4.1-thinking": "grok-4-1-fast-reasoning",
	"grok-4.1-fast":     "grok-4-1-fast-non-reasoning",
	"grok-4":            "grok-4-0709",
	"grok-3":            "grok-3",
}

// defaultDescriptors lists every selectable provider. The bare vendor ids
// ("openai", "claude", "gemini", "grok") default to that vendor's current
// stable model.
var defaultDescriptors = []Descriptor{
	// OpenAI
	{ID: "openai-gpt5.1", Name: "OpenAI GPT-5.1", Class: domain.CredentialOpenAI, Model: "gpt-5.1"},
	{ID: "openai-gpt5.1-thinking", Name: "OpenAI GPT-5.1 Thinking", Class: domain.CredentialOpenAI, Model: "gpt-5.1"},
	{ID: "openai-gpt5", Name: "OpenAI GPT-5", Class: domain.CredentialOpenAI, Model: "gpt-5"},
	{ID: "openai-gpt5-pro", Name: "OpenAI GPT-5 Pro", Class: domain.CredentialOpenAI, Model: "gpt-5-pro"},
	{ID: "openai-gpt5-mini", Name: "OpenAI GPT-5 Mini", Class: domain.CredentialOpenAI, Model: "gpt-5-mini"},
	{ID: "openai-gpt4o", Name: "OpenAI GPT-4o", Class: domain.CredentialOpenAI, Model: "gpt-4o"},
	{ID: "openai-gpt4-turbo", Name: "OpenAI GPT-4 Turbo", Class: domain.CredentialOpenAI, Model: "gpt-4-turbo"},
	{ID: "openai-o3", Name: "OpenAI o3", Class: domain.CredentialOpenAI, Model: "o3"},
	{ID: "openai-o4-mini", Name: "OpenAI o4-mini", Class: domain.CredentialOpenAI, Model: "o4-mini"},
	{ID: "openai", Name: "OpenAI", Class: domain.CredentialOpenAI, Model: "gpt-5.1"},

	// Anthropic
	{ID: "claude-opus-4.5", Name: "Claude Opus 4.5", Class: domain.CredentialAnthropic, Model: "claude-opus-4-5-20251101"},
	{ID: "claude-sonnet-4.5", Name: "Claude Sonnet 4.5", Class: domain.CredentialAnthropic, Model: "claude-sonnet-4-5-20250929"},
	{ID: "claude-haiku-4.5", Name: "Claude Haiku 4.5", Class: domain.CredentialAnthropic, Model: "claude-3-5-haiku-20251015"},
	{ID: "claude-opus-4.1", Name: "Claude Opus 4.1", Class: domain.CredentialAnthropic, Model: "claude-opus-4-1-20250805"},
	{ID: "claude-sonnet-4", Name: "Claude Sonnet 4", Class: domain.CredentialAnthropic, Model: "claude-sonnet-4-20250514"},
	{ID: "claude", Name: "Claude", Class: domain.CredentialAnthropic, Model: "claude-sonnet-4-5-20250929"},

	// Google
	{ID: "gemini-3-pro", Name: "Gemini 3 Pro (Preview)", Class: domain.CredentialGoogle, Model: "gemini-3-pro-preview"},
	{ID: "gemini-3-deep-think", Name: "Gemini 3 Deep Think", Class: domain.CredentialGoogle, Model: "gemini-3-pro-preview"},
	{ID: "gemini-2.5-pro", Name: "Gemini 2.5 Pro", Class: domain.CredentialGoogle, Model: "gemini-2.5-pro"},
	{ID: "gemini-2.5-flash", Name: "Gemini 2.5 Flash", Class: domain.CredentialGoogle, Model: "gemini-2.5-flash"},
	{ID: "gemini-2.0-flash", Name: "Gemini 2.0 Flash", Class: domain.CredentialGoogle, Model: "gemini-2.0-flash"},
	{ID: "gemini", Name: "Gemini", Class: domain.CredentialGoogle, Model: "gemini-2.5-pro"},

	// xAI
	{ID: "grok-4.1", Name: "xAI Grok 4.1", Class: domain.CredentialXAI, Model: "grok-4-1-fast-reasoning"},
	{ID: "grok-4.1-thinking", Name: "xAI Grok 4.1 Thinking", Class: domain.CredentialXAI, Model: "grok-4-1-fast-reasoning"},
	{ID: "grok-4.1-fast", Name: "xAI Grok 4.1 Fast", Class: domain.CredentialXAI, Model: "grok-4-1-fast-non-reasoning"},
	{ID: "grok-4", Name: "xAI Grok 4", Class: domain.CredentialXAI, Model: "grok-4-0709"},
	{ID: "grok-3", Name: "xAI Grok 3", Class: domain.CredentialXAI, Model: "grok-3"},
	{ID: "grok", Name: "xAI Grok", Class: domain.CredentialXAI, Model: "grok-3"},
}

package handler

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/quadrelay/quadrelay/internal/domain"
	"github.com/quadrelay/quadrelay/internal/manager"
)

func createConversation(t *testing.T, env *testEnv, token string) int64 {
	t.Helper()
	w := env.do(t, http.MethodPost, "/api/conversations", token, map[string]any{"title": "Chat"})
	mustStatus(t, w, http.StatusCreated)
	var conv struct {
		ID int64 `json:"id"`
	}
	decodeJSON(t, w, &conv)
	return conv.ID
}

func TestSendMessage(t *testing.T) {
	env := newTestEnv(t)
	user, token := env.signup(t, "eve@example.com")
	convID := createConversation(t, env, token)

	if err := env.store.SetAPIKeys(user.ID, domain.CredentialSet{domain.CredentialOpenAI: "sk-stored"}); err != nil {
		t.Fatalf("set api keys: %v", err)
	}
	env.chat.replies["openai"] = "Hello from GPT"

	path := fmt.Sprintf("/api/conversations/%d/messages", convID)
	w := env.do(t, http.MethodPost, path, token, map[string]any{
		"message":       "Hi",
		"provider":      "openai",
		"system_prompt": "Be brief.",
	})
	mustStatus(t, w, http.StatusOK)

	var resp struct {
		UserMessage *struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"user_message"`
		AssistantMessage struct {
			Role    string `json:"role"`
			Content string `json:"content"`
			Model   string `json:"model"`
		} `json:"assistant_message"`
	}
	decodeJSON(t, w, &resp)

	if resp.UserMessage == nil || resp.UserMessage.Content != "Hi" {
		t.Errorf("user_message = %+v", resp.UserMessage)
	}
	if resp.AssistantMessage.Content != "Hello from GPT" {
		t.Errorf("assistant content = %q", resp.AssistantMessage.Content)
	}
	// Without a model override the reply is tagged with the provider id
	if resp.AssistantMessage.Model != "openai" {
		t.Errorf("assistant model tag = %q, want %q", resp.AssistantMessage.Model, "openai")
	}

	// The stub saw the live turn, the system prompt, and the stored creds
	if len(env.chat.calls) != 1 {
		t.Fatalf("chat calls = %d, want 1", len(env.chat.calls))
	}
	call := env.chat.calls[0]
	if call.System != "Be brief." {
		t.Errorf("system prompt = %q", call.System)
	}
	if len(call.Messages) != 1 || call.Messages[0].Content != "Hi" {
		t.Errorf("messages = %+v", call.Messages)
	}
	if call.Creds[domain.CredentialOpenAI] != "sk-stored" {
		t.Errorf("stored credentials not passed through: %+v", call.Creds)
	}

	// Both turns landed in the log
	stored, err := env.store.ListMessages(convID)
	if err != nil {
		t.Fatalf("list messages: %v", err)
	}
	if len(stored) != 2 || stored[0].Role != domain.RoleUser || stored[1].Role != domain.RoleAssistant {
		t.Errorf("stored log = %+v", stored)
	}
}

func TestSendMessageModelOverride(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.signup(t, "eve@example.com")
	convID := createConversation(t, env, token)

	path := fmt.Sprintf("/api/conversations/%d/messages", convID)
	w := env.do(t, http.MethodPost, path, token, map[string]any{
		"message":  "Hi",
		"provider": "openai",
		"model":    "gpt-4o",
	})
	mustStatus(t, w, http.StatusOK)

	var resp struct {
		AssistantMessage struct {
			Model string `json:"model"`
		} `json:"assistant_message"`
	}
	decodeJSON(t, w, &resp)
	if resp.AssistantMessage.Model != "gpt-4o" {
		t.Errorf("assistant model tag = %q, want %q", resp.AssistantMessage.Model, "gpt-4o")
	}
	if env.chat.calls[0].Model != "gpt-4o" {
		t.Errorf("requested model = %q", env.chat.calls[0].Model)
	}
}

func TestSendMessageSkipUserMessage(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.signup(t, "eve@example.com")
	convID := createConversation(t, env, token)

	path := fmt.Sprintf("/api/conversations/%d/messages", convID)
	w := env.do(t, http.MethodPost, path, token, map[string]any{
		"message":           "Hi",
		"provider":          "claude",
		"skip_user_message": true,
	})
	mustStatus(t, w, http.StatusOK)

	var resp struct {
		UserMessage *struct{} `json:"user_message"`
	}
	decodeJSON(t, w, &resp)
	if resp.UserMessage != nil {
		t.Error("user_message should be null when skipped")
	}

	stored, err := env.store.ListMessages(convID)
	if err != nil {
		t.Fatalf("list messages: %v", err)
	}
	if len(stored) != 1 || stored[0].Role != domain.RoleAssistant {
		t.Errorf("stored log = %+v", stored)
	}
}

func TestSendMessageHistoryIsProviderScoped(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.signup(t, "eve@example.com")
	convID := createConversation(t, env, token)

	// Seed a fan-out turn: one user message answered by two vendors
	seed := []struct {
		role    domain.Role
		content string
		model   string
	}{
		{domain.RoleUser, "What is 2+2?", ""},
		{domain.RoleAssistant, "4", "gpt-4o"},
		{domain.RoleAssistant, "Four.", "claude-sonnet-4.5"},
	}
	for _, m := range seed {
		if _, err := env.store.AppendMessage(convID, m.role, m.content, m.model); err != nil {
			t.Fatalf("seed message: %v", err)
		}
	}

	path := fmt.Sprintf("/api/conversations/%d/messages", convID)
	w := env.do(t, http.MethodPost, path, token, map[string]any{
		"message":  "And 3+3?",
		"provider": "openai",
	})
	mustStatus(t, w, http.StatusOK)

	call := env.chat.calls[0]
	want := []domain.Message{
		{Role: domain.RoleUser, Content: "What is 2+2?"},
		{Role: domain.RoleAssistant, Content: "4"},
		{Role: domain.RoleUser, Content: "And 3+3?"},
	}
	if len(call.Messages) != len(want) {
		t.Fatalf("messages = %+v, want %+v", call.Messages, want)
	}
	for i := range want {
		if call.Messages[i] != want[i] {
			t.Errorf("messages[%d] = %+v, want %+v", i, call.Messages[i], want[i])
		}
	}
}

func TestSendMessageErrors(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.signup(t, "eve@example.com")
	convID := createConversation(t, env, token)
	path := fmt.Sprintf("/api/conversations/%d/messages", convID)

	// Unknown provider surfaces as a client error
	env.chat.errs["nope"] = &manager.UnknownProviderError{ID: "nope"}
	w := env.do(t, http.MethodPost, path, token, map[string]any{
		"message":  "Hi",
		"provider": "nope",
	})
	mustStatus(t, w, http.StatusBadRequest)

	// Vendor failures pass the message through verbatim
	env.chat.errs["openai"] = errors.New("provider not available: OpenAI API key not configured. Add it in Settings.")
	w = env.do(t, http.MethodPost, path, token, map[string]any{
		"message":  "Hi",
		"provider": "openai",
	})
	mustStatus(t, w, http.StatusInternalServerError)
	var resp struct {
		Error string `json:"error"`
	}
	decodeJSON(t, w, &resp)
	if resp.Error != "AI provider error: provider not available: OpenAI API key not configured. Add it in Settings." {
		t.Errorf("error = %q", resp.Error)
	}

	// Failed calls must not persist anything
	stored, err := env.store.ListMessages(convID)
	if err != nil {
		t.Fatalf("list messages: %v", err)
	}
	if len(stored) != 0 {
		t.Errorf("failed call persisted messages: %+v", stored)
	}

	// Missing conversation
	w = env.do(t, http.MethodPost, "/api/conversations/9999/messages", token, map[string]any{
		"message":  "Hi",
		"provider": "openai",
	})
	mustStatus(t, w, http.StatusNotFound)

	// Validation
	w = env.do(t, http.MethodPost, path, token, map[string]any{"provider": "openai"})
	mustStatus(t, w, http.StatusBadRequest)
	w = env.do(t, http.MethodPost, path, token, map[string]any{"message": "Hi"})
	mustStatus(t, w, http.StatusBadRequest)
}

func TestBatch(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.signup(t, "eve@example.com")

	env.chat.replies["openai"] = "gpt says hi"
	env.chat.errs["claude"] = errors.New("provider not available: Anthropic API key not configured. Add it in Settings.")

	w := env.do(t, http.MethodPost, "/api/chat/batch", token, map[string]any{
		"message":   "Hello everyone",
		"providers": []string{"openai", "claude"},
	})
	mustStatus(t, w, http.StatusOK)

	var resp struct {
		Message string `json:"message"`
		Results map[string]struct {
			Success bool   `json:"success"`
			Reply   string `json:"reply"`
			Error   string `json:"error"`
		} `json:"results"`
	}
	decodeJSON(t, w, &resp)

	if resp.Results["openai"].Reply != "gpt says hi" || !resp.Results["openai"].Success {
		t.Errorf("openai result = %+v", resp.Results["openai"])
	}
	// One provider's failure never aborts the rest
	if resp.Results["claude"].Success || resp.Results["claude"].Error == "" {
		t.Errorf("claude result = %+v", resp.Results["claude"])
	}
}

func TestBatchDefaultProviders(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.signup(t, "eve@example.com")

	w := env.do(t, http.MethodPost, "/api/chat/batch", token, map[string]any{
		"message": "Hello",
	})
	mustStatus(t, w, http.StatusOK)

	if len(env.chat.calls) != 4 {
		t.Fatalf("chat calls = %d, want one per vendor", len(env.chat.calls))
	}
	seen := map[string]bool{}
	for _, call := range env.chat.calls {
		seen[call.Provider] = true
	}
	for _, id := range []string{"openai", "claude", "gemini", "grok"} {
		if !seen[id] {
			t.Errorf("default batch skipped %q", id)
		}
	}
}

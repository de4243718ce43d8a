package adapter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/quadrelay/quadrelay/internal/domain"
)

func TestOpenAIAdapter_buildMessages(t *testing.T) {
	a := NewOpenAIAdapter("gpt-4o", "sk-test")

	tests := []struct {
		name         string
		messages     []domain.Message
		systemPrompt string
		validate     func(*testing.T, []openAIMessage)
	}{
		{
			name: "system prompt prepended as first message",
			messages: []domain.Message{
				{Role: domain.RoleUser, Content: "hi"},
			},
			systemPrompt: "You are terse.",
			validate: func(t *testing.T, msgs []openAIMessage) {
				if len(msgs) != 2 {
					t.Fatalf("len(messages) = %d, want 2", len(msgs))
				}
				if msgs[0].Role != "system" || msgs[0].Content != "You are terse." {
					t.Errorf("messages[0] = %+v, want system prompt first", msgs[0])
				}
				if msgs[1].Role != "user" || msgs[1].Content != "hi" {
					t.Errorf("messages[1] = %+v, want user turn", msgs[1])
				}
			},
		},
		{
			name: "empty system prompt adds nothing",
			messages: []domain.Message{
				{Role: domain.RoleUser, Content: "a"},
				{Role: domain.RoleAssistant, Content: "b"},
			},
			systemPrompt: "",
			validate: func(t *testing.T, msgs []openAIMessage) {
				if len(msgs) != 2 {
					t.Fatalf("len(messages) = %d, want 2", len(msgs))
				}
				if msgs[0].Role != "user" {
					t.Errorf("messages[0].Role = %s, want user", msgs[0].Role)
				}
			},
		},
		{
			name: "conversation order preserved",
			messages: []domain.Message{
				{Role: domain.RoleUser, Content: "one"},
				{Role: domain.RoleAssistant, Content: "two"},
				{Role: domain.RoleUser, Content: "three"},
			},
			systemPrompt: "S",
			validate: func(t *testing.T, msgs []openAIMessage) {
				want := []string{"S", "one", "two", "three"}
				if len(msgs) != len(want) {
					t.Fatalf("len(messages) = %d, want %d", len(msgs), len(want))
				}
				for i, w := range want {
					if msgs[i].Content != w {
						t.Errorf("messages[%d].Content = %q, want %q", i, msgs[i].Content, w)
					}
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.validate(t, a.buildMessages(tt.messages, tt.systemPrompt))
		})
	}
}

func TestOpenAIAdapter_Availability(t *testing.T) {
	tests := []struct {
		name          string
		apiKey        string
		wantAvailable bool
	}{
		{"real key", "sk-proj-abc", true},
		{"missing key", "", false},
		{"placeholder key", "your-openai-key-here", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewOpenAIAdapter("gpt-4o", tt.apiKey)
			available, reason := a.Available()
			if available != tt.wantAvailable {
				t.Errorf("Available() = %v, want %v", available, tt.wantAvailable)
			}
			if !tt.wantAvailable && reason == "" {
				t.Error("unavailable adapter has empty reason")
			}
		})
	}
}

func TestOpenAIAdapter_Chat_Unavailable(t *testing.T) {
	a := NewOpenAIAdapter("gpt-4o", "")
	_, err := a.Chat(context.Background(), []domain.Message{{Role: domain.RoleUser, Content: "hi"}}, "")
	if err == nil {
		t.Fatal("Chat on unavailable adapter succeeded, want error")
	}
	if !strings.Contains(err.Error(), "provider not available:") {
		t.Errorf("error = %q, want provider-not-available", err)
	}
}

func TestOpenAIAdapter_Chat(t *testing.T) {
	var gotReq openAIRequest
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %s, want /chat/completions", r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(openAIResponse{
			Choices: []openAIChoice{{Message: openAIMessage{Role: "assistant", Content: "hello there"}}},
		})
	}))
	defer srv.Close()

	a := NewOpenAIAdapter("gpt-4o", "sk-test", WithCompatBaseURL(srv.URL))
	reply, err := a.Chat(context.Background(), []domain.Message{{Role: domain.RoleUser, Content: "hi"}}, "be brief")
	if err != nil {
		t.Fatalf("Chat() error = %v", err)
	}
	if reply != "hello there" {
		t.Errorf("reply = %q, want %q", reply, "hello there")
	}
	if gotAuth != "Bearer sk-test" {
		t.Errorf("Authorization = %q, want Bearer sk-test", gotAuth)
	}
	if gotReq.Model != "gpt-4o" {
		t.Errorf("request model = %q, want gpt-4o", gotReq.Model)
	}
	if len(gotReq.Messages) != 2 || gotReq.Messages[0].Role != "system" {
		t.Errorf("request messages = %+v, want system prompt first", gotReq.Messages)
	}
}

func TestOpenAIAdapter_Chat_APIErrorVerbatim(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(openAIErrorResponse{
			Error: openAIErrorDetail{Message: "Incorrect API key provided", Type: "invalid_request_error"},
		})
	}))
	defer srv.Close()

	a := NewOpenAIAdapter("gpt-4o", "sk-bad", WithCompatBaseURL(srv.URL))
	_, err := a.Chat(context.Background(), []domain.Message{{Role: domain.RoleUser, Content: "hi"}}, "")
	if err == nil {
		t.Fatal("Chat() succeeded, want error")
	}
	if !strings.Contains(err.Error(), "Incorrect API key provided") {
		t.Errorf("error = %q, want vendor message passed through", err)
	}
}

func TestXAIAdapter_UsesOpenAISchema(t *testing.T) {
	var gotReq openAIRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(openAIResponse{
			Choices: []openAIChoice{{Message: openAIMessage{Role: "assistant", Content: "grok says hi"}}},
		})
	}))
	defer srv.Close()

	a := NewXAIAdapter("grok-3", "xai-test", WithCompatBaseURL(srv.URL))
	if a.Name() != "xai" {
		t.Errorf("Name() = %s, want xai", a.Name())
	}

	reply, err := a.Chat(context.Background(), []domain.Message{{Role: domain.RoleUser, Content: "hi"}}, "S")
	if err != nil {
		t.Fatalf("Chat() error = %v", err)
	}
	if reply != "grok says hi" {
		t.Errorf("reply = %q, want %q", reply, "grok says hi")
	}
	if gotReq.Model != "grok-3" {
		t.Errorf("request model = %q, want grok-3", gotReq.Model)
	}
	if len(gotReq.Messages) != 2 || gotReq.Messages[0].Role != "system" || gotReq.Messages[0].Content != "S" {
		t.Errorf("request messages = %+v, want OpenAI-style system prepend", gotReq.Messages)
	}
}

func TestXAIAdapter_PlaceholderKeyUnavailable(t *testing.T) {
	a := NewXAIAdapter("grok-3", "your-xai-key-here")
	if available, _ := a.Available(); available {
		t.Error("placeholder key should yield unavailable adapter")
	}
}

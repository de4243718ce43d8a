package storage

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"github.com/quadrelay/quadrelay/internal/domain"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "relay.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_Users(t *testing.T) {
	s := testStore(t)

	u, err := s.CreateUser("a@example.com", "hash", "Ada")
	if err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	if u.ID == 0 {
		t.Error("CreateUser() returned zero id")
	}

	if _, err := s.CreateUser("a@example.com", "otherhash", ""); !errors.Is(err, ErrEmailTaken) {
		t.Errorf("duplicate email error = %v, want ErrEmailTaken", err)
	}

	got, err := s.UserByEmail("a@example.com")
	if err != nil {
		t.Fatalf("UserByEmail() error = %v", err)
	}
	if got.ID != u.ID || got.PasswordHash != "hash" || got.FirstName != "Ada" {
		t.Errorf("UserByEmail() = %+v", got)
	}

	if _, err := s.UserByEmail("nobody@example.com"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing user error = %v, want ErrNotFound", err)
	}
}

func TestStore_APIKeys(t *testing.T) {
	s := testStore(t)
	u, _ := s.CreateUser("a@example.com", "hash", "")

	keys, err := s.APIKeys(u.ID)
	if err != nil {
		t.Fatalf("APIKeys() error = %v", err)
	}
	if len(keys) != 0 {
		t.Errorf("fresh user keys = %v, want empty", keys)
	}

	want := domain.CredentialSet{
		domain.CredentialOpenAI:    "sk-stored",
		domain.CredentialAnthropic: "sk-ant-stored",
	}
	if err := s.SetAPIKeys(u.ID, want); err != nil {
		t.Fatalf("SetAPIKeys() error = %v", err)
	}

	keys, err = s.APIKeys(u.ID)
	if err != nil {
		t.Fatalf("APIKeys() error = %v", err)
	}
	if keys[domain.CredentialOpenAI] != "sk-stored" || keys[domain.CredentialAnthropic] != "sk-ant-stored" {
		t.Errorf("APIKeys() = %v, want %v", keys, want)
	}

	if err := s.SetAPIKeys(9999, want); !errors.Is(err, ErrNotFound) {
		t.Errorf("SetAPIKeys(missing user) error = %v, want ErrNotFound", err)
	}
}

func TestStore_Conversations(t *testing.T) {
	s := testStore(t)
	u, _ := s.CreateUser("a@example.com", "hash", "")
	other, _ := s.CreateUser("b@example.com", "hash", "")

	c, err := s.CreateConversation(u.ID, "First", "be helpful", nil)
	if err != nil {
		t.Fatalf("CreateConversation() error = %v", err)
	}
	if string(c.Documents) != "[]" {
		t.Errorf("default documents = %s, want []", c.Documents)
	}

	// Ownership enforced.
	if _, err := s.Conversation(c.ID, other.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("foreign conversation error = %v, want ErrNotFound", err)
	}

	title := "Renamed"
	settings := json.RawMessage(`{"claude":true}`)
	updated, err := s.UpdateConversation(c.ID, u.ID, ConversationUpdate{Title: &title, ProviderSettings: settings})
	if err != nil {
		t.Fatalf("UpdateConversation() error = %v", err)
	}
	if updated.Title != "Renamed" || string(updated.ProviderSettings) != `{"claude":true}` {
		t.Errorf("UpdateConversation() = %+v", updated)
	}
	if updated.SystemPrompt != "be helpful" {
		t.Errorf("partial update touched system_prompt: %q", updated.SystemPrompt)
	}

	if _, err := s.UpdateConversation(c.ID, u.ID, ConversationUpdate{}); !errors.Is(err, ErrNoFields) {
		t.Errorf("UpdateConversation() with no fields error = %v, want ErrNoFields", err)
	}

	list, err := s.ListConversations(u.ID)
	if err != nil {
		t.Fatalf("ListConversations() error = %v", err)
	}
	if len(list) != 1 || list[0].ID != c.ID {
		t.Errorf("ListConversations() = %+v", list)
	}

	if err := s.DeleteConversation(c.ID, u.ID); err != nil {
		t.Fatalf("DeleteConversation() error = %v", err)
	}
	if err := s.DeleteConversation(c.ID, u.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("double delete error = %v, want ErrNotFound", err)
	}
}

func TestStore_Messages(t *testing.T) {
	s := testStore(t)
	u, _ := s.CreateUser("a@example.com", "hash", "")
	c, _ := s.CreateConversation(u.ID, "Chat", "", nil)

	if _, err := s.AppendMessage(c.ID, domain.RoleUser, "hi", ""); err != nil {
		t.Fatalf("AppendMessage(user) error = %v", err)
	}
	if _, err := s.AppendMessage(c.ID, domain.RoleAssistant, "hello", "gpt-4o"); err != nil {
		t.Fatalf("AppendMessage(assistant) error = %v", err)
	}

	messages, err := s.ListMessages(c.ID)
	if err != nil {
		t.Fatalf("ListMessages() error = %v", err)
	}
	if len(messages) != 2 {
		t.Fatalf("len(messages) = %d, want 2", len(messages))
	}
	if messages[0].Role != domain.RoleUser || messages[0].Model != "" {
		t.Errorf("messages[0] = %+v, want untagged user message", messages[0])
	}
	if messages[1].Model != "gpt-4o" {
		t.Errorf("messages[1].Model = %q, want gpt-4o", messages[1].Model)
	}
	if messages[0].ID >= messages[1].ID {
		t.Error("message ids not strictly increasing")
	}

	// Cascade on delete.
	if err := s.DeleteConversation(c.ID, u.ID); err != nil {
		t.Fatalf("DeleteConversation() error = %v", err)
	}
	messages, err = s.ListMessages(c.ID)
	if err != nil {
		t.Fatalf("ListMessages() after delete error = %v", err)
	}
	if len(messages) != 0 {
		t.Errorf("messages survived conversation delete: %+v", messages)
	}
}

func TestStore_TouchConversation(t *testing.T) {
	s := testStore(t)
	u, _ := s.CreateUser("a@example.com", "hash", "")
	first, _ := s.CreateConversation(u.ID, "First", "", nil)
	second, _ := s.CreateConversation(u.ID, "Second", "", nil)

	if err := s.TouchConversation(first.ID); err != nil {
		t.Fatalf("TouchConversation() error = %v", err)
	}

	list, err := s.ListConversations(u.ID)
	if err != nil {
		t.Fatalf("ListConversations() error = %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("len(list) = %d, want 2", len(list))
	}
	if list[0].ID != first.ID {
		t.Errorf("touched conversation not first in list; got id %d, want %d (second was %d)",
			list[0].ID, first.ID, second.ID)
	}
}

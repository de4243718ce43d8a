// Package domain contains the core business entities and value objects.
// These structs are framework-agnostic and represent the heart of the application.
package domain

import "time"

// Role identifies who authored a chat message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Message is a single conversation turn in the uniform chat contract.
// Ordering within a slice of Messages is chronological and significant.
type Message struct {
	// Role is one of: "user", "assistant", "system".
	Role Role `json:"role"`

	// Content is the message text.
	Content string `json:"content"`
}

// StoredMessage is a persisted conversation turn. Assistant messages carry
// the model tag of the provider that produced them; user and system messages
// have an empty Model.
type StoredMessage struct {
	ID        int64     `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Model     string    `json:"model,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Chat returns the message reduced to the uniform chat contract shape.
func (m StoredMessage) Chat() Message {
	return Message{Role: m.Role, Content: m.Content}
}

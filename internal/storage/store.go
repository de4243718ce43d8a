// Package storage persists users, conversations and messages in SQLite.
// The message log is append-only per conversation; core code depends only on
// insertion order and on the model tag being empty for user messages.
package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/quadrelay/quadrelay/internal/domain"
)

var (
	// ErrNotFound is returned when a row does not exist or is owned by
	// another user.
	ErrNotFound = errors.New("not found")

	// ErrEmailTaken is returned when signing up with an email that already
	// has an account.
	ErrEmailTaken = errors.New("email already registered")

	// ErrNoFields is returned by UpdateConversation when the update sets
	// nothing.
	ErrNoFields = errors.New("no fields to update")
)

// User is a registered account. APIKeys holds the user's stored vendor
// credentials, keyed by credential class.
type User struct {
	ID           int64                `json:"id"`
	Email        string               `json:"email"`
	PasswordHash string               `json:"-"`
	FirstName    string               `json:"first_name,omitempty"`
	APIKeys      domain.CredentialSet `json:"-"`
	CreatedAt    time.Time            `json:"created_at"`
}

// Conversation is one chat thread with its settings.
type Conversation struct {
	ID               int64           `json:"id"`
	UserID           int64           `json:"-"`
	Title            string          `json:"title"`
	SystemPrompt     string          `json:"system_prompt"`
	Documents        json.RawMessage `json:"documents"`
	ProviderSettings json.RawMessage `json:"provider_settings"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// ConversationUpdate carries the fields of a partial update; nil means leave
// unchanged.
type ConversationUpdate struct {
	Title            *string
	SystemPrompt     *string
	Documents        json.RawMessage
	ProviderSettings json.RawMessage
}

// Store handles SQLite operations for the relay.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and ensures the schema
// exists.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) initSchema() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS users (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	email         TEXT UNIQUE NOT NULL,
	password_hash TEXT NOT NULL,
	first_name    TEXT NOT NULL DEFAULT '',
	api_keys      TEXT NOT NULL DEFAULT '{}',
	created_at    TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS conversations (
	id                INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id           INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	title             TEXT NOT NULL DEFAULT 'New Conversation',
	system_prompt     TEXT NOT NULL DEFAULT '',
	documents         TEXT NOT NULL DEFAULT '[]',
	provider_settings TEXT NOT NULL DEFAULT '{}',
	created_at        TEXT NOT NULL,
	updated_at        TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS messages (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	conversation_id INTEGER NOT NULL REFERENCES conversations(id) ON DELETE CASCADE,
	role            TEXT NOT NULL,
	content         TEXT NOT NULL,
	model           TEXT,
	timestamp       TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_conversations_user ON conversations(user_id, updated_at);
CREATE INDEX IF NOT EXISTS idx_messages_conversation ON messages(conversation_id, id);
`)
	return err
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// ============================================================================
// Users
// ============================================================================

// CreateUser registers a new account. The password must already be hashed.
func (s *Store) CreateUser(email, passwordHash, firstName string) (User, error) {
	ts := now()
	res, err := s.db.Exec(
		`INSERT INTO users (email, password_hash, first_name, api_keys, created_at) VALUES (?, ?, ?, '{}', ?)`,
		email, passwordHash, firstName, ts,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return User{}, ErrEmailTaken
		}
		return User{}, fmt.Errorf("create user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return User{}, fmt.Errorf("create user: %w", err)
	}
	return User{
		ID:        id,
		Email:     email,
		FirstName: firstName,
		APIKeys:   domain.CredentialSet{},
		CreatedAt: parseTime(ts),
	}, nil
}

// UserByEmail looks up a user for login.
func (s *Store) UserByEmail(email string) (User, error) {
	return s.scanUser(s.db.QueryRow(
		`SELECT id, email, password_hash, first_name, api_keys, created_at FROM users WHERE email = ?`, email))
}

// UserByID looks up a user by primary key.
func (s *Store) UserByID(id int64) (User, error) {
	return s.scanUser(s.db.QueryRow(
		`SELECT id, email, password_hash, first_name, api_keys, created_at FROM users WHERE id = ?`, id))
}

func (s *Store) scanUser(row *sql.Row) (User, error) {
	var u User
	var keysJSON, createdAt string
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FirstName, &keysJSON, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("scan user: %w", err)
	}
	if err := json.Unmarshal([]byte(keysJSON), &u.APIKeys); err != nil {
		u.APIKeys = domain.CredentialSet{}
	}
	u.CreatedAt = parseTime(createdAt)
	return u, nil
}

// SetAPIKeys replaces a user's stored vendor credentials.
func (s *Store) SetAPIKeys(userID int64, keys domain.CredentialSet) error {
	if keys == nil {
		keys = domain.CredentialSet{}
	}
	keysJSON, err := json.Marshal(keys)
	if err != nil {
		return fmt.Errorf("marshal api keys: %w", err)
	}
	res, err := s.db.Exec(`UPDATE users SET api_keys = ? WHERE id = ?`, string(keysJSON), userID)
	if err != nil {
		return fmt.Errorf("set api keys: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// APIKeys returns a user's stored vendor credentials.
func (s *Store) APIKeys(userID int64) (domain.CredentialSet, error) {
	u, err := s.UserByID(userID)
	if err != nil {
		return nil, err
	}
	return u.APIKeys, nil
}

// ============================================================================
// Conversations
// ============================================================================

// CreateConversation starts a new thread for a user.
func (s *Store) CreateConversation(userID int64, title, systemPrompt string, documents json.RawMessage) (Conversation, error) {
	if len(documents) == 0 {
		documents = json.RawMessage("[]")
	}
	ts := now()
	res, err := s.db.Exec(
		`INSERT INTO conversations (user_id, title, system_prompt, documents, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		userID, title, systemPrompt, string(documents), ts, ts,
	)
	if err != nil {
		return Conversation{}, fmt.Errorf("create conversation: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Conversation{}, fmt.Errorf("create conversation: %w", err)
	}
	return Conversation{
		ID:               id,
		UserID:           userID,
		Title:            title,
		SystemPrompt:     systemPrompt,
		Documents:        documents,
		ProviderSettings: json.RawMessage("{}"),
		CreatedAt:        parseTime(ts),
		UpdatedAt:        parseTime(ts),
	}, nil
}

// ListConversations returns a user's conversations, most recently updated
// first.
func (s *Store) ListConversations(userID int64) ([]Conversation, error) {
	rows, err := s.db.Query(
		`SELECT id, user_id, title, system_prompt, documents, provider_settings, created_at, updated_at
		 FROM conversations WHERE user_id = ? ORDER BY updated_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	defer rows.Close()

	conversations := make([]Conversation, 0)
	for rows.Next() {
		c, err := scanConversation(rows)
		if err != nil {
			return nil, err
		}
		conversations = append(conversations, c)
	}
	return conversations, rows.Err()
}

// Conversation fetches one thread, enforcing ownership.
func (s *Store) Conversation(id, userID int64) (Conversation, error) {
	rows, err := s.db.Query(
		`SELECT id, user_id, title, system_prompt, documents, provider_settings, created_at, updated_at
		 FROM conversations WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return Conversation{}, fmt.Errorf("get conversation: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return Conversation{}, err
		}
		return Conversation{}, ErrNotFound
	}
	return scanConversation(rows)
}

func scanConversation(rows *sql.Rows) (Conversation, error) {
	var c Conversation
	var documents, settings, createdAt, updatedAt string
	if err := rows.Scan(&c.ID, &c.UserID, &c.Title, &c.SystemPrompt, &documents, &settings, &createdAt, &updatedAt); err != nil {
		return Conversation{}, fmt.Errorf("scan conversation: %w", err)
	}
	c.Documents = json.RawMessage(documents)
	c.ProviderSettings = json.RawMessage(settings)
	c.CreatedAt = parseTime(createdAt)
	c.UpdatedAt = parseTime(updatedAt)
	return c, nil
}

// UpdateConversation applies a partial update and bumps updated_at.
func (s *Store) UpdateConversation(id, userID int64, update ConversationUpdate) (Conversation, error) {
	sets := make([]string, 0, 5)
	args := make([]any, 0, 6)

	if update.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *update.Title)
	}
	if update.SystemPrompt != nil {
		sets = append(sets, "system_prompt = ?")
		args = append(args, *update.SystemPrompt)
	}
	if update.Documents != nil {
		sets = append(sets, "documents = ?")
		args = append(args, string(update.Documents))
	}
	if update.ProviderSettings != nil {
		sets = append(sets, "provider_settings = ?")
		args = append(args, string(update.ProviderSettings))
	}
	if len(sets) == 0 {
		return Conversation{}, ErrNoFields
	}

	sets = append(sets, "updated_at = ?")
	args = append(args, now(), id, userID)

	res, err := s.db.Exec(
		"UPDATE conversations SET "+strings.Join(sets, ", ")+" WHERE id = ? AND user_id = ?", args...)
	if err != nil {
		return Conversation{}, fmt.Errorf("update conversation: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return Conversation{}, ErrNotFound
	}
	return s.Conversation(id, userID)
}

// DeleteConversation removes a thread and, via cascade, its messages.
func (s *Store) DeleteConversation(id, userID int64) error {
	res, err := s.db.Exec(`DELETE FROM conversations WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete conversation: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// TouchConversation bumps a thread's updated_at.
func (s *Store) TouchConversation(id int64) error {
	_, err := s.db.Exec(`UPDATE conversations SET updated_at = ? WHERE id = ?`, now(), id)
	if err != nil {
		return fmt.Errorf("touch conversation: %w", err)
	}
	return nil
}

// ============================================================================
// Messages
// ============================================================================

// AppendMessage adds one turn to a conversation's log. The model tag is
// stored NULL when empty (user and system messages).
func (s *Store) AppendMessage(conversationID int64, role domain.Role, content, model string) (domain.StoredMessage, error) {
	ts := now()
	var modelArg any
	if model != "" {
		modelArg = model
	}
	res, err := s.db.Exec(
		`INSERT INTO messages (conversation_id, role, content, model, timestamp) VALUES (?, ?, ?, ?, ?)`,
		conversationID, string(role), content, modelArg, ts,
	)
	if err != nil {
		return domain.StoredMessage{}, fmt.Errorf("append message: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return domain.StoredMessage{}, fmt.Errorf("append message: %w", err)
	}
	return domain.StoredMessage{
		ID:        id,
		Role:      role,
		Content:   content,
		Model:     model,
		Timestamp: parseTime(ts),
	}, nil
}

// ListMessages returns a conversation's full log in insertion order.
func (s *Store) ListMessages(conversationID int64) ([]domain.StoredMessage, error) {
	rows, err := s.db.Query(
		`SELECT id, role, content, model, timestamp FROM messages WHERE conversation_id = ? ORDER BY id ASC`,
		conversationID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	messages := make([]domain.StoredMessage, 0)
	for rows.Next() {
		var m domain.StoredMessage
		var role, ts string
		var model sql.NullString
		if err := rows.Scan(&m.ID, &role, &m.Content, &model, &ts); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		m.Role = domain.Role(role)
		m.Model = model.String
		m.Timestamp = parseTime(ts)
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/quadrelay/quadrelay/internal/auth"
	"github.com/quadrelay/quadrelay/internal/document"
	"github.com/quadrelay/quadrelay/internal/domain"
	"github.com/quadrelay/quadrelay/internal/registry"
	"github.com/quadrelay/quadrelay/internal/storage"
)

// chatCall records one dispatch through the stub chat service.
type chatCall struct {
	Provider string
	Messages []domain.Message
	System   string
	Model    string
	Creds    domain.CredentialSet
}

// stubChat satisfies ChatService without any network traffic.
type stubChat struct {
	replies map[string]string
	errs    map[string]error
	calls   []chatCall
}

func (s *stubChat) Chat(ctx context.Context, providerID string, messages []domain.Message, systemPrompt string, creds domain.CredentialSet, requestedModel string) (string, error) {
	s.calls = append(s.calls, chatCall{
		Provider: providerID,
		Messages: messages,
		System:   systemPrompt,
		Model:    requestedModel,
		Creds:    creds,
	})
	if err, ok := s.errs[providerID]; ok {
		return "", err
	}
	if reply, ok := s.replies[providerID]; ok {
		return reply, nil
	}
	return "stub reply", nil
}

type testEnv struct {
	router *gin.Engine
	store  *storage.Store
	auth   *auth.Service
	chat   *stubChat
	docs   *document.FileStore
}

// newTestEnv assembles a router with the same routes main registers, backed
// by a temp-dir database and a stub chat service.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	store, err := storage.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	docs, err := document.NewFileStore(filepath.Join(t.TempDir(), "documents.json"), document.WithStoreLogger(logger))
	if err != nil {
		t.Fatalf("open document store: %v", err)
	}

	authSvc := auth.NewService("test-secret", time.Hour)
	chat := &stubChat{replies: map[string]string{}, errs: map[string]error{}}
	reg := registry.Default()

	authHandler := NewAuthHandler(store, authSvc, WithAuthLogger(logger))
	convHandler := NewConversationHandler(store, WithConversationLogger(logger))
	msgHandler := NewMessageHandler(store, chat, reg, WithMessageLogger(logger))
	docHandler := NewDocumentHandler(docs, WithDocumentLogger(logger))

	router := gin.New()
	router.Use(RecoveryMiddleware(logger))
	router.Use(CORSMiddleware())

	api := router.Group("/api")
	api.POST("/auth/signup", authHandler.HandleSignup)
	api.POST("/auth/login", authHandler.HandleLogin)

	api.POST("/documents", docHandler.HandleUpload)
	api.GET("/documents", docHandler.HandleList)
	api.GET("/documents/stats", docHandler.HandleStats)
	api.DELETE("/documents/:id", docHandler.HandleDelete)
	api.DELETE("/documents", docHandler.HandleClear)

	authed := api.Group("")
	authed.Use(AuthMiddleware(authSvc, store))
	authed.POST("/auth/logout", authHandler.HandleLogout)
	authed.GET("/auth/me", authHandler.HandleMe)
	authed.GET("/auth/keys", authHandler.HandleGetAPIKeys)
	authed.PUT("/auth/keys", authHandler.HandleUpdateAPIKeys)
	authed.GET("/conversations", convHandler.HandleList)
	authed.POST("/conversations", convHandler.HandleCreate)
	authed.GET("/conversations/:id", convHandler.HandleGet)
	authed.PATCH("/conversations/:id", convHandler.HandleUpdate)
	authed.DELETE("/conversations/:id", convHandler.HandleDelete)
	authed.POST("/conversations/:id/messages", msgHandler.HandleSend)
	authed.POST("/chat/batch", msgHandler.HandleBatch)

	return &testEnv{
		router: router,
		store:  store,
		auth:   authSvc,
		chat:   chat,
		docs:   docs,
	}
}

// signup creates a user directly and returns it with a valid token.
func (e *testEnv) signup(t *testing.T, email string) (storage.User, string) {
	t.Helper()
	hash, err := auth.HashPassword("password123")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	user, err := e.store.CreateUser(email, hash, "")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	token, err := e.auth.CreateToken(user.ID, user.Email)
	if err != nil {
		t.Fatalf("create token: %v", err)
	}
	return user, token
}

// do performs a JSON request against the router.
func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

// decodeJSON unmarshals a recorded response body.
func decodeJSON(t *testing.T, w *httptest.ResponseRecorder, target any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), target); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
}

// mustStatus fails the test if the response status differs.
func mustStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	if w.Code != want {
		t.Fatalf("status = %d, want %d; body: %s", w.Code, want, w.Body.String())
	}
}

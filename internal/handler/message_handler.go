package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/quadrelay/quadrelay/internal/domain"
	"github.com/quadrelay/quadrelay/internal/history"
	"github.com/quadrelay/quadrelay/internal/manager"
	"github.com/quadrelay/quadrelay/internal/storage"
)

// ChatService dispatches one chat turn to a provider. Implemented by
// manager.Manager; tests substitute a stub.
type ChatService interface {
	Chat(ctx context.Context, providerID string, messages []domain.Message, systemPrompt string, creds domain.CredentialSet, requestedModel string) (string, error)
}

// defaultBatchProviders is used when a batch request names no providers:
// one per vendor.
var defaultBatchProviders = []string{"openai", "claude", "gemini", "grok"}

// MessageHandler handles sending chat messages within a conversation and the
// multi-provider batch endpoint.
type MessageHandler struct {
	store   *storage.Store
	chat    ChatService
	matcher history.Matcher
	logger  *slog.Logger
}

// MessageHandlerOption is a functional option for configuring MessageHandler.
type MessageHandlerOption func(*MessageHandler)

// WithMessageLogger sets a custom logger.
func WithMessageLogger(logger *slog.Logger) MessageHandlerOption {
	return func(h *MessageHandler) {
		h.logger = logger
	}
}

// NewMessageHandler creates a new MessageHandler.
func NewMessageHandler(store *storage.Store, chat ChatService, matcher history.Matcher, opts ...MessageHandlerOption) *MessageHandler {
	h := &MessageHandler{
		store:   store,
		chat:    chat,
		matcher: matcher,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

type sendMessageRequest struct {
	Message      string `json:"message"`
	Provider     string `json:"provider"`
	SystemPrompt string `json:"system_prompt"`
	Model        string `json:"model"`
	// SkipUserMessage suppresses persisting the user turn. Batch-style
	// clients set it on every call after the first so the shared user
	// message is stored once.
	SkipUserMessage bool `json:"skip_user_message"`
}

type batchRequest struct {
	Message      string   `json:"message"`
	SystemPrompt string   `json:"system_prompt"`
	Providers    []string `json:"providers"`
}

type batchResult struct {
	Success bool   `json:"success"`
	Reply   string `json:"reply"`
	Error   string `json:"error,omitempty"`
}

// HandleSend handles POST /api/conversations/:id/messages.
//
// The provider only sees its own slice of the conversation: user turns it
// answered plus its own replies, rebuilt by the history filter, with the new
// message appended as the live turn.
func (h *MessageHandler) HandleSend(c *gin.Context) {
	user, ok := CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found"})
		return
	}
	id, ok := conversationID(c)
	if !ok {
		return
	}

	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Message cannot be empty"})
		return
	}
	if req.Provider == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Provider is required"})
		return
	}
	c.Set("provider", req.Provider)

	if _, err := h.store.Conversation(id, user.ID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Conversation not found"})
			return
		}
		h.logger.Error("conversation lookup failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	creds, err := h.store.APIKeys(user.ID)
	if err != nil {
		h.logger.Error("api key lookup failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	stored, err := h.store.ListMessages(id)
	if err != nil {
		h.logger.Error("message list failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	messages := history.ForProvider(h.matcher, stored, req.Provider)
	messages = append(messages, domain.Message{Role: domain.RoleUser, Content: req.Message})

	reply, err := h.chat.Chat(c.Request.Context(), req.Provider, messages, req.SystemPrompt, creds, req.Model)
	if err != nil {
		var unknown *manager.UnknownProviderError
		if errors.As(err, &unknown) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid provider: " + unknown.ID})
			return
		}
		h.logger.Error("provider call failed",
			slog.String("provider", req.Provider),
			slog.String("error", err.Error()),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "AI provider error: " + err.Error()})
		return
	}

	var userMessage *domain.StoredMessage
	if !req.SkipUserMessage {
		saved, err := h.store.AppendMessage(id, domain.RoleUser, req.Message, "")
		if err != nil {
			h.logger.Error("user message persist failed", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}
		userMessage = &saved
	}

	// Tag the reply with the requested model so the history filter can
	// attribute it; the bare provider id carries enough when no model
	// override was given.
	modelTag := req.Model
	if modelTag == "" {
		modelTag = req.Provider
	}
	assistantMessage, err := h.store.AppendMessage(id, domain.RoleAssistant, reply, modelTag)
	if err != nil {
		h.logger.Error("assistant message persist failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if err := h.store.TouchConversation(id); err != nil {
		h.logger.Warn("conversation touch failed", slog.String("error", err.Error()))
	}

	c.JSON(http.StatusOK, gin.H{
		"user_message":      userMessage,
		"assistant_message": assistantMessage,
	})
}

// HandleBatch handles POST /api/chat/batch: the same message is sent to each
// named provider in turn, and one provider's failure never aborts the rest.
func (h *MessageHandler) HandleBatch(c *gin.Context) {
	user, ok := CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found"})
		return
	}

	var req batchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Message cannot be empty"})
		return
	}
	if len(req.Providers) == 0 {
		req.Providers = defaultBatchProviders
	}

	creds, err := h.store.APIKeys(user.ID)
	if err != nil {
		h.logger.Error("api key lookup failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	messages := []domain.Message{{Role: domain.RoleUser, Content: req.Message}}

	results := make(map[string]batchResult, len(req.Providers))
	for _, providerID := range req.Providers {
		reply, err := h.chat.Chat(c.Request.Context(), providerID, messages, req.SystemPrompt, creds, "")
		if err != nil {
			results[providerID] = batchResult{Success: false, Error: err.Error()}
			continue
		}
		results[providerID] = batchResult{Success: true, Reply: reply}
	}

	c.JSON(http.StatusOK, gin.H{
		"message":       req.Message,
		"system_prompt": req.SystemPrompt,
		"results":       results,
	})
}

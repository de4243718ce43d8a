package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/quadrelay/quadrelay/internal/storage"
)

// ConversationHandler handles the conversation CRUD endpoints.
type ConversationHandler struct {
	store  *storage.Store
	logger *slog.Logger
}

// ConversationHandlerOption is a functional option for configuring ConversationHandler.
type ConversationHandlerOption func(*ConversationHandler)

// WithConversationLogger sets a custom logger.
func WithConversationLogger(logger *slog.Logger) ConversationHandlerOption {
	return func(h *ConversationHandler) {
		h.logger = logger
	}
}

// NewConversationHandler creates a new ConversationHandler.
func NewConversationHandler(store *storage.Store, opts ...ConversationHandlerOption) *ConversationHandler {
	h := &ConversationHandler{
		store:  store,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

type conversationSummary struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type createConversationRequest struct {
	Title        string          `json:"title"`
	SystemPrompt string          `json:"system_prompt"`
	Documents    json.RawMessage `json:"documents"`
}

type updateConversationRequest struct {
	Title            *string         `json:"title"`
	SystemPrompt     *string         `json:"system_prompt"`
	Documents        json.RawMessage `json:"documents"`
	ProviderSettings json.RawMessage `json:"provider_settings"`
}

// conversationID parses the :id route parameter.
func conversationID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid conversation id"})
		return 0, false
	}
	return id, true
}

// HandleList handles GET /api/conversations.
func (h *ConversationHandler) HandleList(c *gin.Context) {
	user, ok := CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found"})
		return
	}

	conversations, err := h.store.ListConversations(user.ID)
	if err != nil {
		h.logger.Error("conversation list failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	summaries := make([]conversationSummary, 0, len(conversations))
	for _, conv := range conversations {
		summaries = append(summaries, conversationSummary{
			ID:        conv.ID,
			Title:     conv.Title,
			CreatedAt: conv.CreatedAt,
			UpdatedAt: conv.UpdatedAt,
		})
	}

	c.JSON(http.StatusOK, gin.H{"conversations": summaries})
}

// HandleCreate handles POST /api/conversations.
func (h *ConversationHandler) HandleCreate(c *gin.Context) {
	user, ok := CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found"})
		return
	}

	var req createConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Title cannot be empty"})
		return
	}

	conv, err := h.store.CreateConversation(user.ID, req.Title, req.SystemPrompt, req.Documents)
	if err != nil {
		h.logger.Error("conversation create failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusCreated, conv)
}

// HandleGet handles GET /api/conversations/:id, returning the conversation
// with its full message log.
func (h *ConversationHandler) HandleGet(c *gin.Context) {
	user, ok := CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found"})
		return
	}
	id, ok := conversationID(c)
	if !ok {
		return
	}

	conv, err := h.store.Conversation(id, user.ID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Conversation not found"})
			return
		}
		h.logger.Error("conversation lookup failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	messages, err := h.store.ListMessages(id)
	if err != nil {
		h.logger.Error("message list failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":                conv.ID,
		"title":             conv.Title,
		"system_prompt":     conv.SystemPrompt,
		"documents":         conv.Documents,
		"provider_settings": conv.ProviderSettings,
		"created_at":        conv.CreatedAt,
		"updated_at":        conv.UpdatedAt,
		"messages":          messages,
	})
}

// HandleUpdate handles PATCH /api/conversations/:id. Only fields present in
// the body are changed.
func (h *ConversationHandler) HandleUpdate(c *gin.Context) {
	user, ok := CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found"})
		return
	}
	id, ok := conversationID(c)
	if !ok {
		return
	}

	var req updateConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	if req.Title != nil {
		trimmed := strings.TrimSpace(*req.Title)
		if trimmed == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Title cannot be empty"})
			return
		}
		req.Title = &trimmed
	}

	conv, err := h.store.UpdateConversation(id, user.ID, storage.ConversationUpdate{
		Title:            req.Title,
		SystemPrompt:     req.SystemPrompt,
		Documents:        req.Documents,
		ProviderSettings: req.ProviderSettings,
	})
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Conversation not found"})
			return
		}
		if errors.Is(err, storage.ErrNoFields) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "No fields to update"})
			return
		}
		h.logger.Error("conversation update failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, conv)
}

// HandleDelete handles DELETE /api/conversations/:id.
func (h *ConversationHandler) HandleDelete(c *gin.Context) {
	user, ok := CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found"})
		return
	}
	id, ok := conversationID(c)
	if !ok {
		return
	}

	if err := h.store.DeleteConversation(id, user.ID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Conversation not found"})
			return
		}
		h.logger.Error("conversation delete failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

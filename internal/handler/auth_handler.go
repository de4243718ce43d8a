package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/quadrelay/quadrelay/internal/auth"
	"github.com/quadrelay/quadrelay/internal/domain"
	"github.com/quadrelay/quadrelay/internal/storage"
)

// minPasswordLength is the minimum accepted password length at signup.
const minPasswordLength = 6

// AuthHandler handles signup, login, session introspection, and per-user
// API key management.
type AuthHandler struct {
	store  *storage.Store
	auth   *auth.Service
	logger *slog.Logger
}

// AuthHandlerOption is a functional option for configuring AuthHandler.
type AuthHandlerOption func(*AuthHandler)

// WithAuthLogger sets a custom logger.
func WithAuthLogger(logger *slog.Logger) AuthHandlerOption {
	return func(h *AuthHandler) {
		h.logger = logger
	}
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(store *storage.Store, authSvc *auth.Service, opts ...AuthHandlerOption) *AuthHandler {
	h := &AuthHandler{
		store:  store,
		auth:   authSvc,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

type signupRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleSignup handles POST /api/auth/signup.
func (h *AuthHandler) HandleSignup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "A valid email is required"})
		return
	}
	if len(req.Password) < minPasswordLength {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Password must be at least 6 characters"})
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.logger.Error("password hashing failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	user, err := h.store.CreateUser(req.Email, hash, strings.TrimSpace(req.FirstName))
	if err != nil {
		if errors.Is(err, storage.ErrEmailTaken) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Email already registered"})
			return
		}
		h.logger.Error("user creation failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	token, err := h.auth.CreateToken(user.ID, user.Email)
	if err != nil {
		h.logger.Error("token creation failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	h.logger.Info("user signed up", slog.Int64("user_id", user.ID))
	c.JSON(http.StatusCreated, gin.H{"token": token, "user": user})
}

// HandleLogin handles POST /api/auth/login.
func (h *AuthHandler) HandleLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	user, err := h.store.UserByEmail(strings.TrimSpace(strings.ToLower(req.Email)))
	if err != nil || !auth.VerifyPassword(req.Password, user.PasswordHash) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}

	token, err := h.auth.CreateToken(user.ID, user.Email)
	if err != nil {
		h.logger.Error("token creation failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token, "user": user})
}

// HandleLogout handles POST /api/auth/logout. Tokens are stateless, so this
// only confirms the session is still valid; discarding the token is the
// client's job.
func (h *AuthHandler) HandleLogout(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Logged out"})
}

// HandleMe handles GET /api/auth/me.
func (h *AuthHandler) HandleMe(c *gin.Context) {
	user, ok := CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found"})
		return
	}
	c.JSON(http.StatusOK, user)
}

type apiKeysRequest struct {
	OpenAI    *string `json:"openai"`
	Anthropic *string `json:"anthropic"`
	Google    *string `json:"google"`
	XAI       *string `json:"xai"`
}

// HandleGetAPIKeys handles GET /api/auth/keys. Keys are masked for display.
func (h *AuthHandler) HandleGetAPIKeys(c *gin.Context) {
	user, ok := CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found"})
		return
	}

	keys, err := h.store.APIKeys(user.ID)
	if err != nil {
		h.logger.Error("api key lookup failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"openai":        maskKey(keys[domain.CredentialOpenAI]),
		"anthropic":     maskKey(keys[domain.CredentialAnthropic]),
		"google":        maskKey(keys[domain.CredentialGoogle]),
		"xai":           maskKey(keys[domain.CredentialXAI]),
		"has_openai":    keys[domain.CredentialOpenAI] != "",
		"has_anthropic": keys[domain.CredentialAnthropic] != "",
		"has_google":    keys[domain.CredentialGoogle] != "",
		"has_xai":       keys[domain.CredentialXAI] != "",
	})
}

// HandleUpdateAPIKeys handles PUT /api/auth/keys. Only the keys present in
// the request body are changed; omitted vendors keep their stored value.
func (h *AuthHandler) HandleUpdateAPIKeys(c *gin.Context) {
	user, ok := CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found"})
		return
	}

	var req apiKeysRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	keys, err := h.store.APIKeys(user.ID)
	if err != nil {
		h.logger.Error("api key lookup failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	if keys == nil {
		keys = domain.CredentialSet{}
	}

	if req.OpenAI != nil {
		keys[domain.CredentialOpenAI] = strings.TrimSpace(*req.OpenAI)
	}
	if req.Anthropic != nil {
		keys[domain.CredentialAnthropic] = strings.TrimSpace(*req.Anthropic)
	}
	if req.Google != nil {
		keys[domain.CredentialGoogle] = strings.TrimSpace(*req.Google)
	}
	if req.XAI != nil {
		keys[domain.CredentialXAI] = strings.TrimSpace(*req.XAI)
	}

	if err := h.store.SetAPIKeys(user.ID, keys); err != nil {
		h.logger.Error("api key update failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// maskKey returns a masked version of an API key for display.
// Shows first 4 and last 4 characters.
func maskKey(key string) string {
	if key == "" || len(key) < 12 {
		return key
	}
	return key[:4] + "..." + key[len(key)-4:]
}

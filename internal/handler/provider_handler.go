package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/quadrelay/quadrelay/internal/manager"
)

// ProviderLister reports the status of every configured provider.
// Implemented by manager.Manager.
type ProviderLister interface {
	ListProviders() []manager.ProviderStatus
}

// ProviderHandler handles provider introspection and the health check.
type ProviderHandler struct {
	providers ProviderLister
}

// NewProviderHandler creates a new ProviderHandler.
func NewProviderHandler(providers ProviderLister) *ProviderHandler {
	return &ProviderHandler{providers: providers}
}

// HandleList handles GET /api/providers.
func (h *ProviderHandler) HandleList(c *gin.Context) {
	statuses := h.providers.ListProviders()
	c.JSON(http.StatusOK, gin.H{
		"providers": statuses,
		"count":     len(statuses),
	})
}

// HandleHealth handles GET /health.
func (h *ProviderHandler) HandleHealth(c *gin.Context) {
	statuses := h.providers.ListProviders()
	available := 0
	for _, s := range statuses {
		if s.Available {
			available++
		}
	}

	status := "healthy"
	if available == 0 {
		status = "degraded"
	}

	c.JSON(http.StatusOK, gin.H{
		"status":              status,
		"providers_available": available,
		"providers_total":     len(statuses),
	})
}

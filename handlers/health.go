package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"retmusic/services"
)

// HealthHandler handles health check endpoints
type HealthHandler struct {
	discovery *services.Discovery
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(discovery *services.Discovery) *HealthHandler {
	return &HealthHandler{discovery: discovery}
}

// HealthCheck returns the health status of the service
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"service":   "retmusic",
		"version":   "1.0.0",
		"timestamp": time.Now().Unix(),
	})
}

// APIStatus returns API status plus backend connectivity
func (h *HealthHandler) APIStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "retmusic API is running",
		"backend": h.discovery.Status(),
		"state":   h.discovery.State(),
	})
}

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const keepAliveText = "Market Intelligence Bot is running!"

// KeepAliveHandler answers the liveness probes of hosting platforms.
type KeepAliveHandler struct{}

func NewKeepAliveHandler() *KeepAliveHandler {
	return &KeepAliveHandler{}
}

// Home handles GET /
func (h *KeepAliveHandler) Home(c *gin.Context) {
	c.String(http.StatusOK, keepAliveText)
}

// HealthCheck handles GET /health
func (h *KeepAliveHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"message": "Bot is operational",
	})
}

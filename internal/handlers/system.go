package handlers

import (
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
)

// Health reports liveness plus provider availability. It answers 503 when
// no provider can serve a generation.
func (h *Handler) Health(c *gin.Context) {
	providers := h.Providers.Providers()
	status, code := "healthy", http.StatusOK
	if len(providers) == 0 {
		status, code = "degraded", http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{
		"status":     status,
		"version":    h.Version,
		"providers":  providers,
		"uptime":     time.Since(h.started).Round(time.Second).String(),
		"goroutines": runtime.NumGoroutine(),
		"timestamp":  time.Now().UTC(),
	})
}

// GetProviders returns per-provider usage statistics
func (h *Handler) GetProviders(c *gin.Context) {
	c.JSON(http.StatusOK, StandardResponse{
		Success: true,
		Data: gin.H{
			"available": h.Providers.Providers(),
			"usage":     h.Providers.Usage(),
		},
	})
}

package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

// GET /healthz
func (h *Handler) Health() gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /healthz"
		defer h.handlePanic(c, route)

		ctx, cancel := h.withTimeout(c)
		defer cancel()

		if err := h.pinger.Ping(ctx); err != nil {
			h.log.WarnContext(ctx, "store ping failed",
				slog.String("route", route),
				slog.Any("error", err))
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"ecommerce/internal/service"
	"ecommerce/internal/store"
)

func (h *Handler) handlePanic(c *gin.Context, route string) {
	if r := recover(); r != nil {
		h.log.ErrorContext(c.Request.Context(), "panic recovered",
			slog.String("route", route),
			slog.Any("panic", r))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

// withTimeout bounds the store work of one request.
func (h *Handler) withTimeout(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), h.opTimeout)
}

func (h *Handler) respondWithError(c *gin.Context, status int, route string, message string) {
	h.log.WarnContext(c.Request.Context(), "returning error",
		slog.String("route", route),
		slog.Int("status", status),
		slog.String("error", message))
	c.AbortWithStatusJSON(status, gin.H{"error": message})
}

// respondWithServiceError maps a service error to its status. Validation
// messages go back to the caller; everything else gets a terse message.
func (h *Handler) respondWithServiceError(c *gin.Context, route string, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		h.respondWithError(c, http.StatusBadRequest, route, err.Error())
	case errors.Is(err, service.ErrWriteConflict):
		h.respondWithError(c, http.StatusConflict, route, "order write conflict, retry the request")
	case errors.Is(err, store.ErrUnavailable), errors.Is(err, context.DeadlineExceeded):
		h.log.ErrorContext(c.Request.Context(), "store unavailable",
			slog.String("route", route),
			slog.Any("error", err))
		h.respondWithError(c, http.StatusServiceUnavailable, route, "database unavailable")
	default:
		h.log.ErrorContext(c.Request.Context(), "request failed",
			slog.String("route", route),
			slog.Any("error", err))
		h.respondWithError(c, http.StatusInternalServerError, route, "internal server error")
	}
}

// Package handlers exposes the catalog and order services over HTTP.
package handlers

import (
	"context"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	"ecommerce/internal/service"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingerFunc adapts a function to Pinger.
type PingerFunc func(ctx context.Context) error

func (f PingerFunc) Ping(ctx context.Context) error { return f(ctx) }

type Handler struct {
	products  service.ProductService
	orders    service.OrderService
	pinger    Pinger
	log       *slog.Logger
	opTimeout time.Duration
}

func New(products service.ProductService, orders service.OrderService, pinger Pinger, log *slog.Logger, opTimeout time.Duration) *Handler {
	return &Handler{
		products:  products,
		orders:    orders,
		pinger:    pinger,
		log:       log,
		opTimeout: opTimeout,
	}
}

func (h *Handler) Register(r gin.IRouter) {
	r.GET("/healthz", h.Health())

	r.POST("/products", h.CreateProduct())
	r.GET("/products", h.GetProducts())

	r.POST("/orders", h.CreateOrder())
	r.GET("/orders/:userId", h.GetUserOrders())
	r.GET("/test-orders/:userId", h.GetUserOrdersDebug())
}

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ecommerce/internal/service"
)

/*
POST /orders
- creates the user's order or appends the items to it
- 201 {"_id": id} in both cases
*/
func (h *Handler) CreateOrder() gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /orders"
		defer h.handlePanic(c, route)

		var req service.OrderCreateDto
		if err := c.ShouldBindJSON(&req); err != nil {
			h.respondWithError(c, http.StatusBadRequest, route, "invalid request body")
			return
		}

		ctx, cancel := h.withTimeout(c)
		defer cancel()

		res, err := h.orders.CreateOrUpdateOrder(ctx, req)
		if err != nil {
			h.respondWithServiceError(c, route, err)
			return
		}

		c.JSON(http.StatusCreated, res)
	}
}

// GET /orders/:userId
func (h *Handler) GetUserOrders() gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /orders/:userId"
		defer h.handlePanic(c, route)

		page, err := parsePaginationParams(c.Query("limit"), c.Query("offset"))
		if err != nil {
			h.respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}

		ctx, cancel := h.withTimeout(c)
		defer cancel()

		res, err := h.orders.ListUserOrders(ctx, c.Param("userId"), page)
		if err != nil {
			h.respondWithServiceError(c, route, err)
			return
		}

		c.JSON(http.StatusOK, res)
	}
}

// GET /test-orders/:userId returns every order with full product snapshots.
func (h *Handler) GetUserOrdersDebug() gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /test-orders/:userId"
		defer h.handlePanic(c, route)

		ctx, cancel := h.withTimeout(c)
		defer cancel()

		orders, err := h.orders.DebugListUserOrders(ctx, c.Param("userId"))
		if err != nil {
			h.respondWithServiceError(c, route, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"orders": orders})
	}
}

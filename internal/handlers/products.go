package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"ecommerce/internal/service"
)

/*
POST /products
- body: name, price, sizes
- 201 {"_id": id}
*/
func (h *Handler) CreateProduct() gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /products"
		defer h.handlePanic(c, route)

		var req service.ProductCreateDto
		if err := c.ShouldBindJSON(&req); err != nil {
			h.respondWithError(c, http.StatusBadRequest, route, "invalid request body")
			return
		}

		ctx, cancel := h.withTimeout(c)
		defer cancel()

		id, err := h.products.CreateProduct(ctx, req)
		if err != nil {
			h.respondWithServiceError(c, route, err)
			return
		}

		c.JSON(http.StatusCreated, gin.H{"_id": id})
	}
}

/*
GET /products
- name: substring, case-insensitive
- size: exact size label
- limit (default 10), offset (default 0)
*/
func (h *Handler) GetProducts() gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /products"
		defer h.handlePanic(c, route)

		h.log.DebugContext(c.Request.Context(), "hit",
			slog.String("route", route),
			slog.String("name", c.Query("name")),
			slog.String("size", c.Query("size")),
			slog.String("limit", c.Query("limit")),
			slog.String("offset", c.Query("offset")))

		page, err := parsePaginationParams(c.Query("limit"), c.Query("offset"))
		if err != nil {
			h.respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}

		query := service.ProductListQuery{
			Name: strings.TrimSpace(c.Query("name")),
			Size: strings.TrimSpace(c.Query("size")),
		}

		ctx, cancel := h.withTimeout(c)
		defer cancel()

		res, err := h.products.ListProducts(ctx, query, page)
		if err != nil {
			h.respondWithServiceError(c, route, err)
			return
		}

		c.JSON(http.StatusOK, res)
	}
}

package service

import (
	"context"
	"fmt"
	"log/slog"

	"ecommerce/internal/models"
	"ecommerce/internal/store"
)

// ProductService is the catalog used by the HTTP layer.
type ProductService interface {
	// CreateProduct stores a new product and returns its id.
	// Returns ErrInvalidInput when the product fails validation.
	CreateProduct(ctx context.Context, product ProductCreateDto) (string, error)

	// ListProducts returns one page of products matching query.
	ListProducts(ctx context.Context, query ProductListQuery, page Pagination) (*PageDto[ProductSummaryDto], error)
}

type ProductSizeDto struct {
	Size     string `json:"size" validate:"required"`
	Quantity int    `json:"quantity" validate:"gte=0"`
}

// ProductCreateDto is the body of a product creation. Price is a pointer so
// that a missing price is told apart from a free product.
type ProductCreateDto struct {
	Name  string           `json:"name" validate:"required,notblank"`
	Price *float64         `json:"price" validate:"required,gte=0"`
	Sizes []ProductSizeDto `json:"sizes" validate:"dive"`
}

type ProductListQuery struct {
	Name string
	Size string
}

// ProductSummaryDto is the listing projection of a product; sizes are left out.
type ProductSummaryDto struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

type Catalog struct {
	products store.ProductStore
	logger   *slog.Logger
}

func NewCatalog(products store.ProductStore, logger *slog.Logger) *Catalog {
	return &Catalog{products: products, logger: logger}
}

func (c *Catalog) CreateProduct(ctx context.Context, dto ProductCreateDto) (string, error) {
	if err := validateStruct(dto); err != nil {
		return "", err
	}

	product := &models.Product{
		Name:  dto.Name,
		Price: *dto.Price,
		Sizes: make([]models.ProductSize, 0, len(dto.Sizes)),
	}
	for _, s := range dto.Sizes {
		product.Sizes = append(product.Sizes, models.ProductSize(s))
	}

	id, err := c.products.Create(ctx, product)
	if err != nil {
		return "", fmt.Errorf("failed to create product: %w", err)
	}

	c.logger.InfoContext(ctx, "product created",
		slog.String("product_id", id.Hex()),
		slog.Int("sizes", len(product.Sizes)))
	return id.Hex(), nil
}

func (c *Catalog) ListProducts(ctx context.Context, query ProductListQuery, page Pagination) (*PageDto[ProductSummaryDto], error) {
	if err := page.Validate(); err != nil {
		return nil, err
	}

	products, err := c.products.Find(ctx, store.ProductQuery(query), page.Offset, page.Limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	summaries := make([]ProductSummaryDto, len(products))
	for i, p := range products {
		summaries[i] = ProductSummaryDto{
			ID:    p.ID.Hex(),
			Name:  p.Name,
			Price: p.Price,
		}
	}
	return newPage(summaries, page), nil
}

// Package store provides the product and order persistence used by the service layer.
package store

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"ecommerce/internal/models"
)

const (
	productsCollection = "products"
	ordersCollection   = "orders"
)

var (
	// ErrUnavailable marks transient store failures: timeouts, network errors
	// and an open circuit breaker. Callers may retry.
	ErrUnavailable = errors.New("store unavailable")

	// ErrDuplicateKey is returned when a write collides with a unique index.
	ErrDuplicateKey = errors.New("duplicate key")
)

// ProductQuery filters product listings. Empty fields are ignored and the
// remaining ones are ANDed.
type ProductQuery struct {
	// Name is a case-insensitive substring of the product name.
	Name string
	// Size matches products having at least one sizes entry with this size.
	Size string
}

// ProductStore is the catalog side of the document store.
type ProductStore interface {
	// Create inserts a product and returns the id assigned by the store.
	Create(ctx context.Context, product *models.Product) (primitive.ObjectID, error)

	// Find returns products matching query in creation order.
	// A limit of zero returns every match.
	Find(ctx context.Context, query ProductQuery, offset, limit int64) ([]models.Product, error)

	// FindByIDs returns the products that exist among ids, in no particular order.
	// Missing ids are simply absent from the result.
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Product, error)
}

// AppendResult reports the outcome of an order upsert.
type AppendResult struct {
	ID      primitive.ObjectID
	Created bool
}

// OrderStore is the order side of the document store.
type OrderStore interface {
	// AppendItems appends items to the order of userID in one atomic
	// operation, creating the order when the user has none.
	// Returns ErrDuplicateKey when a concurrent insert won the unique index.
	AppendItems(ctx context.Context, userID string, items []models.OrderItem) (AppendResult, error)

	// FindByUser returns the orders of userID in creation order.
	// A limit of zero returns every match.
	FindByUser(ctx context.Context, userID string, offset, limit int64) ([]models.Order, error)
}

package store

import (
	"context"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"ecommerce/internal/models"
)

// MemoryProductStore is an in-memory ProductStore. It follows the Mongo
// semantics closely enough for service and handler tests.
type MemoryProductStore struct {
	mu       sync.RWMutex
	products []models.Product
	lookups  atomic.Int64
}

func NewMemoryProductStore() *MemoryProductStore {
	return &MemoryProductStore{}
}

func (s *MemoryProductStore) Create(_ context.Context, product *models.Product) (primitive.ObjectID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	product.ID = primitive.NewObjectID()
	if product.CreatedAt.IsZero() {
		product.CreatedAt = time.Now().UTC()
	}
	stored := *product
	stored.Sizes = slices.Clone(product.Sizes)
	s.products = append(s.products, stored)
	return product.ID, nil
}

func (s *MemoryProductStore) Find(_ context.Context, query ProductQuery, offset, limit int64) ([]models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]models.Product, 0)
	for _, p := range s.products {
		if query.Name != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(query.Name)) {
			continue
		}
		if query.Size != "" && !slices.ContainsFunc(p.Sizes, func(sz models.ProductSize) bool { return sz.Size == query.Size }) {
			continue
		}
		matched = append(matched, p)
	}
	return paginate(matched, offset, limit), nil
}

func (s *MemoryProductStore) FindByIDs(_ context.Context, ids []primitive.ObjectID) ([]models.Product, error) {
	s.lookups.Add(1)

	s.mu.RLock()
	defer s.mu.RUnlock()

	found := make([]models.Product, 0, len(ids))
	for _, p := range s.products {
		if slices.Contains(ids, p.ID) {
			found = append(found, p)
		}
	}
	return found, nil
}

// Lookups returns how many times FindByIDs was called.
func (s *MemoryProductStore) Lookups() int64 {
	return s.lookups.Load()
}

// MemoryOrderStore is an in-memory OrderStore with the same append-or-create
// semantics as the Mongo upsert.
type MemoryOrderStore struct {
	mu     sync.Mutex
	orders []models.Order
}

func NewMemoryOrderStore() *MemoryOrderStore {
	return &MemoryOrderStore{}
}

func (s *MemoryOrderStore) AppendItems(_ context.Context, userID string, items []models.OrderItem) (AppendResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	for i := range s.orders {
		if s.orders[i].UserID == userID {
			s.orders[i].Items = append(s.orders[i].Items, items...)
			s.orders[i].UpdatedAt = now
			return AppendResult{ID: s.orders[i].ID}, nil
		}
	}

	order := models.Order{
		ID:        primitive.NewObjectID(),
		UserID:    userID,
		Items:     slices.Clone(items),
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.orders = append(s.orders, order)
	return AppendResult{ID: order.ID, Created: true}, nil
}

func (s *MemoryOrderStore) FindByUser(_ context.Context, userID string, offset, limit int64) ([]models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	matched := make([]models.Order, 0)
	for _, o := range s.orders {
		if o.UserID == userID {
			o.Items = slices.Clone(o.Items)
			matched = append(matched, o)
		}
	}
	return paginate(matched, offset, limit), nil
}

// Insert stores an order as is, bypassing the one-order-per-user rule.
// Tests use it to seed legacy documents.
func (s *MemoryOrderStore) Insert(order models.Order) primitive.ObjectID {
	s.mu.Lock()
	defer s.mu.Unlock()

	if order.ID.IsZero() {
		order.ID = primitive.NewObjectID()
	}
	s.orders = append(s.orders, order)
	return order.ID
}

func paginate[T any](items []T, offset, limit int64) []T {
	if offset >= int64(len(items)) {
		return make([]T, 0)
	}
	items = items[offset:]
	if limit > 0 && limit < int64(len(items)) {
		items = items[:limit]
	}
	return items
}

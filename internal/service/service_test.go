package service

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"ecommerce/internal/events"
	"ecommerce/internal/models"
	"ecommerce/internal/store"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func ptr[T any](v T) *T {
	return &v
}

// recordingPublisher keeps every published event.
type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

// stubOrderStore returns canned results, one per AppendItems call.
type stubOrderStore struct {
	results []store.AppendResult
	errs    []error
	calls   int
	orders  []models.Order
	findErr error
}

func (s *stubOrderStore) AppendItems(_ context.Context, _ string, _ []models.OrderItem) (store.AppendResult, error) {
	i := s.calls
	s.calls++
	var res store.AppendResult
	if i < len(s.results) {
		res = s.results[i]
	}
	var err error
	if i < len(s.errs) {
		err = s.errs[i]
	}
	return res, err
}

func (s *stubOrderStore) FindByUser(_ context.Context, _ string, _, _ int64) ([]models.Order, error) {
	return s.orders, s.findErr
}

// failingProductStore fails every lookup.
type failingProductStore struct {
	store.ProductStore
	err error
}

func (s failingProductStore) FindByIDs(context.Context, []primitive.ObjectID) ([]models.Product, error) {
	return nil, s.err
}

func (s failingProductStore) Find(context.Context, store.ProductQuery, int64, int64) ([]models.Product, error) {
	return nil, s.err
}

func (s failingProductStore) Create(context.Context, *models.Product) (primitive.ObjectID, error) {
	return primitive.NilObjectID, s.err
}

package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"ecommerce/internal/events"
	"ecommerce/internal/models"
	"ecommerce/internal/store"
)

const (
	notFoundName = "Not found"
	unknownName  = "Unknown"
)

// OrderService merges orders per user and serves the enriched read views.
type OrderService interface {
	// CreateOrUpdateOrder appends the items to the user's order, creating it
	// on the user's first order. Returns ErrInvalidInput on bad input and
	// ErrWriteConflict when a concurrent first order could not be merged.
	CreateOrUpdateOrder(ctx context.Context, order OrderCreateDto) (*OrderWriteDto, error)

	// ListUserOrders returns one page of the user's orders with product
	// names and totals resolved.
	ListUserOrders(ctx context.Context, userID string, page Pagination) (*PageDto[OrderDto], error)

	// DebugListUserOrders returns every order of the user with full product
	// snapshots. Product lookup failures degrade to placeholders.
	DebugListUserOrders(ctx context.Context, userID string) ([]DebugOrderDto, error)
}

type OrderItemCreateDto struct {
	ProductID string `json:"productId" validate:"required,objectid"`
	Qty       int    `json:"qty" validate:"gte=1"`
}

type OrderCreateDto struct {
	UserID string               `json:"userId" validate:"required,notblank"`
	Items  []OrderItemCreateDto `json:"items" validate:"required,min=1,dive"`
}

// OrderWriteDto identifies the order a write landed in.
type OrderWriteDto struct {
	ID      string `json:"_id"`
	Created bool   `json:"-"`
}

type ProductDetailsDto struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

type OrderItemDto struct {
	ProductDetails ProductDetailsDto `json:"productDetails"`
	Qty            int               `json:"qty"`
}

type OrderDto struct {
	ID    string         `json:"id"`
	Items []OrderItemDto `json:"items"`
	Total float64        `json:"total"`
}

type DebugProductDto struct {
	Name  string               `json:"name"`
	Price float64              `json:"price"`
	Sizes []models.ProductSize `json:"sizes"`
}

type DebugOrderItemDto struct {
	ProductID      string          `json:"productId"`
	Qty            int             `json:"qty"`
	ProductDetails DebugProductDto `json:"productDetails"`
}

type DebugOrderDto struct {
	ID        string              `json:"_id"`
	UserID    string              `json:"userId"`
	Items     []DebugOrderItemDto `json:"items"`
	CreatedAt *time.Time          `json:"createdAt,omitempty"`
	UpdatedAt *time.Time          `json:"updatedAt,omitempty"`
}

type Aggregator struct {
	orders    store.OrderStore
	products  store.ProductStore
	publisher events.Publisher
	logger    *slog.Logger
}

func NewAggregator(orders store.OrderStore, products store.ProductStore, publisher events.Publisher, logger *slog.Logger) *Aggregator {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &Aggregator{
		orders:    orders,
		products:  products,
		publisher: publisher,
		logger:    logger,
	}
}

func (a *Aggregator) CreateOrUpdateOrder(ctx context.Context, dto OrderCreateDto) (*OrderWriteDto, error) {
	if err := validateStruct(dto); err != nil {
		return nil, err
	}

	items := make([]models.OrderItem, len(dto.Items))
	for i, item := range dto.Items {
		items[i] = models.OrderItem{
			ProductID: models.ParseProductRef(item.ProductID),
			Qty:       item.Qty,
		}
	}

	res, err := a.orders.AppendItems(ctx, dto.UserID, items)
	if errors.Is(err, store.ErrDuplicateKey) {
		// A concurrent call inserted the user's order first; the retry
		// matches that document and appends to it.
		a.logger.WarnContext(ctx, "order upsert collided, retrying", slog.String("user_id", dto.UserID))
		res, err = a.orders.AppendItems(ctx, dto.UserID, items)
		if errors.Is(err, store.ErrDuplicateKey) {
			return nil, fmt.Errorf("%w: %w", ErrWriteConflict, err)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to write order for user %q: %w", dto.UserID, err)
	}

	a.publish(ctx, res, dto)

	a.logger.InfoContext(ctx, "order written",
		slog.String("order_id", res.ID.Hex()),
		slog.String("user_id", dto.UserID),
		slog.Bool("created", res.Created),
		slog.Int("items", len(items)))
	return &OrderWriteDto{ID: res.ID.Hex(), Created: res.Created}, nil
}

// publish emits the order event. The order is already stored, so failures
// are only logged.
func (a *Aggregator) publish(ctx context.Context, res store.AppendResult, dto OrderCreateDto) {
	event := events.OrderEvent{
		EventID:    uuid.NewString(),
		OrderID:    res.ID.Hex(),
		UserID:     dto.UserID,
		Created:    res.Created,
		Items:      make([]events.OrderEventItem, len(dto.Items)),
		OccurredAt: time.Now().UTC(),
	}
	for i, item := range dto.Items {
		event.Items[i] = events.OrderEventItem{ProductID: item.ProductID, Qty: item.Qty}
	}
	if err := a.publisher.Publish(ctx, event); err != nil {
		a.logger.ErrorContext(ctx, "failed to publish order event",
			slog.String("order_id", event.OrderID),
			slog.String("subject", event.Subject()),
			slog.Any("error", err))
	}
}

func (a *Aggregator) ListUserOrders(ctx context.Context, userID string, page Pagination) (*PageDto[OrderDto], error) {
	if err := page.Validate(); err != nil {
		return nil, err
	}

	orders, err := a.orders.FindByUser(ctx, userID, page.Offset, page.Limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders for user %q: %w", userID, err)
	}

	catalog, err := a.resolveProducts(ctx, orders)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve products for user %q: %w", userID, err)
	}

	dtos := make([]OrderDto, len(orders))
	for i, order := range orders {
		dtos[i] = enrichOrder(order, catalog)
	}
	return newPage(dtos, page), nil
}

func (a *Aggregator) DebugListUserOrders(ctx context.Context, userID string) ([]DebugOrderDto, error) {
	orders, err := a.orders.FindByUser(ctx, userID, 0, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders for user %q: %w", userID, err)
	}

	catalog, err := a.resolveProducts(ctx, orders)
	if err != nil {
		a.logger.WarnContext(ctx, "product lookup failed, rendering placeholders",
			slog.String("user_id", userID),
			slog.Any("error", err))
		catalog = nil
	}

	dtos := make([]DebugOrderDto, len(orders))
	for i, order := range orders {
		dtos[i] = debugOrder(order, catalog)
	}
	return dtos, nil
}

// resolveProducts loads every resolvable product referenced by orders in a
// single query. Orders without resolvable references cause no lookup.
func (a *Aggregator) resolveProducts(ctx context.Context, orders []models.Order) (map[primitive.ObjectID]models.Product, error) {
	seen := make(map[primitive.ObjectID]struct{})
	ids := make([]primitive.ObjectID, 0)
	for _, order := range orders {
		for _, item := range order.Items {
			if !item.ProductID.Resolvable() {
				continue
			}
			id := item.ProductID.ObjectID()
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return nil, nil
	}

	products, err := a.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[primitive.ObjectID]models.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	return byID, nil
}

func lookup(catalog map[primitive.ObjectID]models.Product, ref models.ProductRef) (models.Product, bool) {
	if !ref.Resolvable() {
		return models.Product{}, false
	}
	p, ok := catalog[ref.ObjectID()]
	return p, ok
}

func displayName(p models.Product) string {
	if p.Name == "" {
		return unknownName
	}
	return p.Name
}

// enrichOrder builds the listing view of an order. The total uses each
// item's own product price; unresolved items contribute nothing.
func enrichOrder(order models.Order, catalog map[primitive.ObjectID]models.Product) OrderDto {
	total := decimal.Zero
	items := make([]OrderItemDto, len(order.Items))
	for i, item := range order.Items {
		details := ProductDetailsDto{Name: notFoundName, ID: item.ProductID.String()}
		if p, ok := lookup(catalog, item.ProductID); ok {
			details.Name = displayName(p)
			total = total.Add(decimal.NewFromFloat(p.Price).Mul(decimal.NewFromInt(int64(item.Qty))))
		}
		items[i] = OrderItemDto{ProductDetails: details, Qty: item.Qty}
	}
	return OrderDto{
		ID:    order.ID.Hex(),
		Items: items,
		Total: total.InexactFloat64(),
	}
}

func debugOrder(order models.Order, catalog map[primitive.ObjectID]models.Product) DebugOrderDto {
	items := make([]DebugOrderItemDto, len(order.Items))
	for i, item := range order.Items {
		details := DebugProductDto{Name: notFoundName, Sizes: []models.ProductSize{}}
		if p, ok := lookup(catalog, item.ProductID); ok {
			details.Name = displayName(p)
			details.Price = p.Price
			if p.Sizes != nil {
				details.Sizes = p.Sizes
			}
		}
		items[i] = DebugOrderItemDto{
			ProductID:      item.ProductID.String(),
			Qty:            item.Qty,
			ProductDetails: details,
		}
	}

	dto := DebugOrderDto{
		ID:     order.ID.Hex(),
		UserID: order.UserID,
		Items:  items,
	}
	if !order.CreatedAt.IsZero() {
		dto.CreatedAt = &order.CreatedAt
	}
	if !order.UpdatedAt.IsZero() {
		dto.UpdatedAt = &order.UpdatedAt
	}
	return dto
}

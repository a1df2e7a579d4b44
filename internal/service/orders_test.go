package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"ecommerce/internal/events"
	"ecommerce/internal/models"
	"ecommerce/internal/store"
)

type aggregatorFixture struct {
	orders    *store.MemoryOrderStore
	products  *store.MemoryProductStore
	publisher *recordingPublisher
	agg       *Aggregator
	catalog   *Catalog
}

func newFixture() *aggregatorFixture {
	f := &aggregatorFixture{
		orders:    store.NewMemoryOrderStore(),
		products:  store.NewMemoryProductStore(),
		publisher: &recordingPublisher{},
	}
	f.agg = NewAggregator(f.orders, f.products, f.publisher, testLogger)
	f.catalog = NewCatalog(f.products, testLogger)
	return f
}

func (f *aggregatorFixture) product(t *testing.T, name string, price float64) string {
	t.Helper()
	id, err := f.catalog.CreateProduct(context.Background(), ProductCreateDto{
		Name:  name,
		Price: &price,
		Sizes: []ProductSizeDto{{Size: "M", Quantity: 5}},
	})
	require.NoError(t, err)
	return id
}

func (f *aggregatorFixture) stored(t *testing.T, userID string) []models.Order {
	t.Helper()
	orders, err := f.orders.FindByUser(context.Background(), userID, 0, 0)
	require.NoError(t, err)
	return orders
}

func itemRefs(items []models.OrderItem) []OrderItemCreateDto {
	out := make([]OrderItemCreateDto, len(items))
	for i, it := range items {
		out[i] = OrderItemCreateDto{ProductID: it.ProductID.String(), Qty: it.Qty}
	}
	return out
}

func Test_Aggregator_CreateOrUpdateOrder_FirstOrderCreatesDocument(t *testing.T) {
	f := newFixture()
	p1, p2 := primitive.NewObjectID().Hex(), primitive.NewObjectID().Hex()
	items := []OrderItemCreateDto{{ProductID: p1, Qty: 2}, {ProductID: p2, Qty: 1}}

	res, err := f.agg.CreateOrUpdateOrder(context.Background(), OrderCreateDto{UserID: "u1", Items: items})
	require.NoError(t, err)
	assert.True(t, res.Created)

	orders := f.stored(t, "u1")
	require.Len(t, orders, 1)
	assert.Equal(t, res.ID, orders[0].ID.Hex())
	assert.Equal(t, items, itemRefs(orders[0].Items))

	require.Len(t, f.publisher.events, 1)
	assert.Equal(t, events.OrderCreatedSubject, f.publisher.events[0].Subject())
}

func Test_Aggregator_CreateOrUpdateOrder_AppendsToExistingOrder(t *testing.T) {
	f := newFixture()
	p1, p2 := primitive.NewObjectID().Hex(), primitive.NewObjectID().Hex()
	first := []OrderItemCreateDto{{ProductID: p1, Qty: 2}}
	second := []OrderItemCreateDto{{ProductID: p2, Qty: 3}, {ProductID: p1, Qty: 1}}

	created, err := f.agg.CreateOrUpdateOrder(context.Background(), OrderCreateDto{UserID: "u1", Items: first})
	require.NoError(t, err)
	appended, err := f.agg.CreateOrUpdateOrder(context.Background(), OrderCreateDto{UserID: "u1", Items: second})
	require.NoError(t, err)

	assert.Equal(t, created.ID, appended.ID)
	assert.False(t, appended.Created)

	orders := f.stored(t, "u1")
	require.Len(t, orders, 1)
	assert.Equal(t, append(first, second...), itemRefs(orders[0].Items), "items are appended, never merged by product")

	require.Len(t, f.publisher.events, 2)
	assert.Equal(t, events.OrderItemsAppendedSubject, f.publisher.events[1].Subject())
}

func Test_Aggregator_CreateOrUpdateOrder_RepeatedOrderDuplicatesItems(t *testing.T) {
	f := newFixture()
	dto := OrderCreateDto{UserID: "u1", Items: []OrderItemCreateDto{{ProductID: primitive.NewObjectID().Hex(), Qty: 1}}}

	for range 2 {
		_, err := f.agg.CreateOrUpdateOrder(context.Background(), dto)
		require.NoError(t, err)
	}

	orders := f.stored(t, "u1")
	require.Len(t, orders, 1)
	assert.Equal(t, append(dto.Items, dto.Items...), itemRefs(orders[0].Items))
}

func Test_Aggregator_CreateOrUpdateOrder_Validation(t *testing.T) {
	valid := primitive.NewObjectID().Hex()
	testCases := []struct {
		name    string
		dto     OrderCreateDto
		errPart string
	}{
		{name: "missing user", dto: OrderCreateDto{Items: []OrderItemCreateDto{{ProductID: valid, Qty: 1}}}, errPart: "userId"},
		{name: "blank user", dto: OrderCreateDto{UserID: " ", Items: []OrderItemCreateDto{{ProductID: valid, Qty: 1}}}, errPart: "userId"},
		{name: "no items", dto: OrderCreateDto{UserID: "u1"}, errPart: "items"},
		{name: "empty items", dto: OrderCreateDto{UserID: "u1", Items: []OrderItemCreateDto{}}, errPart: "items"},
		{name: "zero qty", dto: OrderCreateDto{UserID: "u1", Items: []OrderItemCreateDto{{ProductID: valid, Qty: 0}}}, errPart: "items[0].qty"},
		{name: "negative qty", dto: OrderCreateDto{UserID: "u1", Items: []OrderItemCreateDto{{ProductID: valid, Qty: -3}}}, errPart: "items[0].qty"},
		{
			name:    "malformed product id",
			dto:     OrderCreateDto{UserID: "u1", Items: []OrderItemCreateDto{{ProductID: valid, Qty: 1}, {ProductID: "xyz", Qty: 1}}},
			errPart: "items[1].productId",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture()
			_, err := f.agg.CreateOrUpdateOrder(context.Background(), tc.dto)
			require.ErrorIs(t, err, ErrInvalidInput)
			assert.Contains(t, err.Error(), tc.errPart)
			assert.Empty(t, f.stored(t, tc.dto.UserID), "nothing may be written")
			assert.Empty(t, f.publisher.events)
		})
	}
}

func Test_Aggregator_CreateOrUpdateOrder_DuplicateKeyRetry(t *testing.T) {
	id := primitive.NewObjectID()
	dto := OrderCreateDto{UserID: "u1", Items: []OrderItemCreateDto{{ProductID: primitive.NewObjectID().Hex(), Qty: 1}}}

	testCases := []struct {
		name      string
		stub      *stubOrderStore
		wantErr   error
		wantCalls int
	}{
		{
			name: "retry merges into the winner",
			stub: &stubOrderStore{
				errs:    []error{store.ErrDuplicateKey, nil},
				results: []store.AppendResult{{}, {ID: id}},
			},
			wantCalls: 2,
		},
		{
			name:      "second collision is a conflict",
			stub:      &stubOrderStore{errs: []error{store.ErrDuplicateKey, store.ErrDuplicateKey}},
			wantErr:   ErrWriteConflict,
			wantCalls: 2,
		},
		{
			name:      "transient failure is not retried",
			stub:      &stubOrderStore{errs: []error{store.ErrUnavailable}},
			wantErr:   store.ErrUnavailable,
			wantCalls: 1,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			pub := &recordingPublisher{}
			agg := NewAggregator(tc.stub, store.NewMemoryProductStore(), pub, testLogger)

			res, err := agg.CreateOrUpdateOrder(context.Background(), dto)
			assert.Equal(t, tc.wantCalls, tc.stub.calls)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				assert.Empty(t, pub.events)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, id.Hex(), res.ID)
			assert.False(t, res.Created)
		})
	}
}

func Test_Aggregator_CreateOrUpdateOrder_PublishFailureIsIgnored(t *testing.T) {
	f := newFixture()
	f.publisher.err = errors.New("nats down")

	res, err := f.agg.CreateOrUpdateOrder(context.Background(), OrderCreateDto{
		UserID: "u1",
		Items:  []OrderItemCreateDto{{ProductID: primitive.NewObjectID().Hex(), Qty: 1}},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, res.ID)
	assert.Len(t, f.stored(t, "u1"), 1)
}

func Test_Aggregator_ListUserOrders_EnrichesItems(t *testing.T) {
	f := newFixture()
	shirt := f.product(t, "Shirt", 20)
	hat := f.product(t, "Hat", 7.5)
	missing := primitive.NewObjectID().Hex()

	_, err := f.agg.CreateOrUpdateOrder(context.Background(), OrderCreateDto{
		UserID: "u1",
		Items: []OrderItemCreateDto{
			{ProductID: shirt, Qty: 2},
			{ProductID: missing, Qty: 4},
			{ProductID: hat, Qty: 3},
		},
	})
	require.NoError(t, err)

	page, err := f.agg.ListUserOrders(context.Background(), "u1", Pagination{Limit: DefaultLimit})
	require.NoError(t, err)
	require.Len(t, page.Data, 1)

	order := page.Data[0]
	assert.Equal(t, []OrderItemDto{
		{ProductDetails: ProductDetailsDto{Name: "Shirt", ID: shirt}, Qty: 2},
		{ProductDetails: ProductDetailsDto{Name: "Not found", ID: missing}, Qty: 4},
		{ProductDetails: ProductDetailsDto{Name: "Hat", ID: hat}, Qty: 3},
	}, order.Items)
	assert.InDelta(t, 2*20+3*7.5, order.Total, 1e-9, "each item uses its own product price")
	assert.Equal(t, int64(1), f.products.Lookups(), "products are resolved in one batch")
}

func Test_Aggregator_ListUserOrders_TotalIsExact(t *testing.T) {
	f := newFixture()
	p := f.product(t, "Gum", 0.1)

	_, err := f.agg.CreateOrUpdateOrder(context.Background(), OrderCreateDto{
		UserID: "u1",
		Items:  []OrderItemCreateDto{{ProductID: p, Qty: 1}, {ProductID: p, Qty: 2}},
	})
	require.NoError(t, err)

	page, err := f.agg.ListUserOrders(context.Background(), "u1", Pagination{Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, 0.3, page.Data[0].Total)
}

func Test_Aggregator_ListUserOrders_ZeroItemsSkipLookups(t *testing.T) {
	f := newFixture()
	f.orders.Insert(models.Order{UserID: "u1"})

	page, err := f.agg.ListUserOrders(context.Background(), "u1", Pagination{Limit: DefaultLimit})
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, 0.0, page.Data[0].Total)
	assert.Empty(t, page.Data[0].Items)
	assert.Zero(t, f.products.Lookups())
}

func Test_Aggregator_ListUserOrders_UnresolvableReference(t *testing.T) {
	f := newFixture()
	f.orders.Insert(models.Order{
		UserID: "u1",
		Items:  []models.OrderItem{{ProductID: models.ParseProductRef("legacy-sku"), Qty: 1}},
	})

	page, err := f.agg.ListUserOrders(context.Background(), "u1", Pagination{Limit: DefaultLimit})
	require.NoError(t, err)
	assert.Equal(t, ProductDetailsDto{Name: "Not found", ID: "legacy-sku"}, page.Data[0].Items[0].ProductDetails)
	assert.Zero(t, f.products.Lookups())
}

func Test_Aggregator_ListUserOrders_Pagination(t *testing.T) {
	f := newFixture()
	for range 5 {
		f.orders.Insert(models.Order{UserID: "u1"})
	}
	f.orders.Insert(models.Order{UserID: "someone-else"})

	testCases := []struct {
		name     string
		page     Pagination
		wantLen  int
		wantPage PageInfo
	}{
		{name: "first page", page: Pagination{Limit: 2}, wantLen: 2, wantPage: PageInfo{Next: 2, Limit: 2, Previous: 0}},
		{name: "middle page", page: Pagination{Limit: 2, Offset: 3}, wantLen: 2, wantPage: PageInfo{Next: 5, Limit: 2, Previous: 1}},
		{name: "last page is short", page: Pagination{Limit: 3, Offset: 4}, wantLen: 1, wantPage: PageInfo{Next: 7, Limit: 3, Previous: 1}},
		{name: "past the end", page: Pagination{Limit: 10, Offset: 50}, wantLen: 0, wantPage: PageInfo{Next: 60, Limit: 10, Previous: 40}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := f.agg.ListUserOrders(context.Background(), "u1", tc.page)
			require.NoError(t, err)
			assert.Len(t, got.Data, tc.wantLen)
			assert.NotNil(t, got.Data)
			assert.Equal(t, tc.wantPage, got.Page)
		})
	}
}

func Test_Aggregator_ListUserOrders_ProductStoreFailurePropagates(t *testing.T) {
	orders := store.NewMemoryOrderStore()
	orders.Insert(models.Order{UserID: "u1", Items: []models.OrderItem{{ProductID: models.NewProductRef(primitive.NewObjectID()), Qty: 1}}})
	agg := NewAggregator(orders, failingProductStore{err: store.ErrUnavailable}, nil, testLogger)

	_, err := agg.ListUserOrders(context.Background(), "u1", Pagination{Limit: 1})
	assert.ErrorIs(t, err, store.ErrUnavailable)
}

func Test_Aggregator_DebugListUserOrders(t *testing.T) {
	f := newFixture()
	shirt := f.product(t, "Shirt", 20)
	missing := primitive.NewObjectID().Hex()

	_, err := f.agg.CreateOrUpdateOrder(context.Background(), OrderCreateDto{
		UserID: "u1",
		Items:  []OrderItemCreateDto{{ProductID: shirt, Qty: 2}, {ProductID: missing, Qty: 1}},
	})
	require.NoError(t, err)
	f.orders.Insert(models.Order{UserID: "u1", Items: []models.OrderItem{{ProductID: models.ParseProductRef("bad"), Qty: 5}}})

	orders, err := f.agg.DebugListUserOrders(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, orders, 2)

	first := orders[0]
	assert.Equal(t, "u1", first.UserID)
	assert.NotNil(t, first.CreatedAt)
	assert.Equal(t, DebugOrderItemDto{
		ProductID:      shirt,
		Qty:            2,
		ProductDetails: DebugProductDto{Name: "Shirt", Price: 20, Sizes: []models.ProductSize{{Size: "M", Quantity: 5}}},
	}, first.Items[0])
	assert.Equal(t, DebugProductDto{Name: "Not found", Price: 0, Sizes: []models.ProductSize{}}, first.Items[1].ProductDetails)

	legacy := orders[1]
	assert.Nil(t, legacy.CreatedAt)
	assert.Equal(t, "bad", legacy.Items[0].ProductID)
	assert.Equal(t, "Not found", legacy.Items[0].ProductDetails.Name)
}

func Test_Aggregator_DebugListUserOrders_LookupFailureDegrades(t *testing.T) {
	orders := store.NewMemoryOrderStore()
	orders.Insert(models.Order{UserID: "u1", Items: []models.OrderItem{{ProductID: models.NewProductRef(primitive.NewObjectID()), Qty: 1}}})
	agg := NewAggregator(orders, failingProductStore{err: store.ErrUnavailable}, nil, testLogger)

	got, err := agg.DebugListUserOrders(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, DebugProductDto{Name: "Not found", Sizes: []models.ProductSize{}}, got[0].Items[0].ProductDetails)
}

func Test_Aggregator_DebugListUserOrders_OrderStoreFailurePropagates(t *testing.T) {
	agg := NewAggregator(&stubOrderStore{findErr: store.ErrUnavailable}, store.NewMemoryProductStore(), nil, testLogger)
	_, err := agg.DebugListUserOrders(context.Background(), "u1")
	assert.ErrorIs(t, err, store.ErrUnavailable)
}

func Test_Aggregator_NilObjectIDIsKept(t *testing.T) {
	const zero = "000000000000000000000000"
	f := newFixture()

	_, err := f.agg.CreateOrUpdateOrder(context.Background(), OrderCreateDto{
		UserID: "u1",
		Items:  []OrderItemCreateDto{{ProductID: zero, Qty: 1}},
	})
	require.NoError(t, err)
	assert.Equal(t, []OrderItemCreateDto{{ProductID: zero, Qty: 1}}, itemRefs(f.stored(t, "u1")[0].Items))

	page, err := f.agg.ListUserOrders(context.Background(), "u1", Pagination{Limit: DefaultLimit})
	require.NoError(t, err)
	assert.Equal(t, ProductDetailsDto{Name: "Not found", ID: zero}, page.Data[0].Items[0].ProductDetails)
}

package checkout_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/mock/gomock"

	"storefront/internal/checkout"
	"storefront/internal/checkout/mocks"
	"storefront/internal/models"
)

var pricingCfg = checkout.PricingConfig{
	FreeShippingThreshold: 300,
	FlatShippingFee:       30,
	TaxRate:               0.17,
}

var testAddress = models.ShippingAddress{
	FullName:   "Jane Doe",
	Address:    "1 Main St",
	City:       "Springfield",
	PostalCode: "12345",
	Country:    "US",
}

/* =========================
   IN-MEMORY STORE
========================= */

// memStore is a mutex-guarded in-memory implementation of every store
// interface. WithTransaction serializes transactions and restores a deep
// snapshot on error, mimicking a serializable mongo transaction closely
// enough to exercise the workflow's all-or-nothing contract.
type memStore struct {
	txMu sync.Mutex
	mu   sync.Mutex

	products map[primitive.ObjectID]*models.Product
	carts    map[primitive.ObjectID]*models.Cart // keyed by user id
	orders   []*models.Order
}

func newMemStore() *memStore {
	return &memStore{
		products: map[primitive.ObjectID]*models.Product{},
		carts:    map[primitive.ObjectID]*models.Cart{},
	}
}

func (s *memStore) addProduct(p *models.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[p.ID] = p
}

func (s *memStore) addCart(c *models.Cart) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.carts[c.UserID] = c
}

func copyProduct(p *models.Product) *models.Product {
	cp := *p
	cp.Sizes = append([]models.SizeStock(nil), p.Sizes...)
	return &cp
}

func copyCart(c *models.Cart) *models.Cart {
	cp := *c
	cp.Items = append([]models.CartItem(nil), c.Items...)
	return &cp
}

func (s *memStore) FindProductByID(_ context.Context, id primitive.ObjectID) (*models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok || p.IsDeleted {
		return nil, checkout.ProductNotFoundError{ProductID: id}
	}
	return copyProduct(p), nil
}

func (s *memStore) DecrementStock(_ context.Context, id primitive.ObjectID, size string, quantity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return checkout.InventoryConflictError{Reason: "product vanished"}
	}
	for i := range p.Sizes {
		if p.Sizes[i].Size == size {
			if p.Sizes[i].Quantity < quantity {
				return checkout.InventoryConflictError{Reason: "stock decrement lost race"}
			}
			p.Sizes[i].Quantity -= quantity
			return nil
		}
	}
	return checkout.InventoryConflictError{Reason: "size vanished"}
}

func (s *memStore) FindCartByUser(_ context.Context, userID primitive.ObjectID) (*models.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.carts[userID]
	if !ok {
		return nil, nil
	}
	return copyCart(c), nil
}

func (s *memStore) ClearCart(_ context.Context, cartID primitive.ObjectID, version int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.carts {
		if c.ID == cartID {
			if c.Version != version {
				return checkout.InventoryConflictError{Reason: "cart already consumed"}
			}
			c.Items = nil
			c.Version++
			return nil
		}
	}
	return checkout.InventoryConflictError{Reason: "cart not found"}
}

func (s *memStore) CreateOrder(_ context.Context, order *models.Order) (primitive.ObjectID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := primitive.NewObjectID()
	cp := *order
	cp.ID = id
	s.orders = append(s.orders, &cp)
	return id, nil
}

func (s *memStore) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	snapProducts := make(map[primitive.ObjectID]*models.Product, len(s.products))
	for id, p := range s.products {
		snapProducts[id] = copyProduct(p)
	}
	snapCarts := make(map[primitive.ObjectID]*models.Cart, len(s.carts))
	for id, c := range s.carts {
		snapCarts[id] = copyCart(c)
	}
	snapOrders := append([]*models.Order(nil), s.orders...)
	s.mu.Unlock()

	if err := fn(ctx); err != nil {
		s.mu.Lock()
		s.products = snapProducts
		s.carts = snapCarts
		s.orders = snapOrders
		s.mu.Unlock()
		return err
	}
	return nil
}

func (s *memStore) stock(id primitive.ObjectID, size string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, _ := s.products[id].SizeQuantity(size)
	return q
}

func (s *memStore) cartItems(userID primitive.ObjectID) []models.CartItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.CartItem(nil), s.carts[userID].Items...)
}

func (s *memStore) orderCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.orders)
}

func seedStore(t *testing.T, store *memStore, stockM int) (primitive.ObjectID, *models.Product) {
	t.Helper()

	product := &models.Product{
		ID:    primitive.NewObjectID(),
		Name:  "Classic Tee",
		Price: 50,
		Sizes: []models.SizeStock{{Size: "M", Quantity: stockM}},
	}
	store.addProduct(product)

	userID := primitive.NewObjectID()
	store.addCart(&models.Cart{
		ID:     primitive.NewObjectID(),
		UserID: userID,
		Items: []models.CartItem{{
			ProductID: product.ID,
			Name:      product.Name,
			Price:     50,
			Quantity:  2,
			Size:      "M",
			AddedAt:   time.Now(),
		}},
	})
	return userID, product
}

/* =========================
   HAPPY PATH
========================= */

func TestPlaceOrderSuccess(t *testing.T) {
	store := newMemStore()
	userID, product := seedStore(t, store, 2)

	wf := checkout.NewWorkflow(store, store, store, store, pricingCfg)
	order, err := wf.PlaceOrder(context.Background(), userID, testAddress, "card")
	require.NoError(t, err)

	assert.False(t, order.ID.IsZero())
	assert.Equal(t, userID, order.UserID)
	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.False(t, order.IsPaid)
	assert.False(t, order.IsDelivered)

	require.Len(t, order.Items, 1)
	assert.Equal(t, product.ID, order.Items[0].ProductID)
	assert.Equal(t, "Classic Tee", order.Items[0].Name)
	assert.Equal(t, "M", order.Items[0].Size)

	assert.Equal(t, 100.0, order.ItemsPrice)
	assert.Equal(t, 30.0, order.ShippingPrice)
	assert.Equal(t, 17.0, order.TaxPrice)
	assert.Equal(t, 130.0, order.TotalPrice)

	// Stock decremented by exactly the purchased quantity; cart emptied.
	assert.Equal(t, 0, store.stock(product.ID, "M"))
	assert.Empty(t, store.cartItems(userID))
	assert.Equal(t, 1, store.orderCount())
}

func TestPlaceOrderUsesSnapshotPriceNotCurrentPrice(t *testing.T) {
	store := newMemStore()
	userID, product := seedStore(t, store, 5)

	// Admin doubles the price between add-to-cart and checkout.
	store.mu.Lock()
	store.products[product.ID].Price = 100
	store.mu.Unlock()

	wf := checkout.NewWorkflow(store, store, store, store, pricingCfg)
	order, err := wf.PlaceOrder(context.Background(), userID, testAddress, "card")
	require.NoError(t, err)

	assert.Equal(t, 100.0, order.ItemsPrice) // 2 x snapshot 50, not 2 x 100
}

/* =========================
   FAILURE PATHS
========================= */

func TestPlaceOrderEmptyCart(t *testing.T) {
	store := newMemStore()
	userID := primitive.NewObjectID()
	store.addCart(&models.Cart{ID: primitive.NewObjectID(), UserID: userID})

	wf := checkout.NewWorkflow(store, store, store, store, pricingCfg)
	_, err := wf.PlaceOrder(context.Background(), userID, testAddress, "card")

	var emptyErr checkout.EmptyCartError
	require.ErrorAs(t, err, &emptyErr)
	assert.Equal(t, 0, store.orderCount())
}

func TestPlaceOrderNoCartAtAll(t *testing.T) {
	store := newMemStore()

	wf := checkout.NewWorkflow(store, store, store, store, pricingCfg)
	_, err := wf.PlaceOrder(context.Background(), primitive.NewObjectID(), testAddress, "card")

	var emptyErr checkout.EmptyCartError
	require.ErrorAs(t, err, &emptyErr)
}

func TestPlaceOrderInsufficientStockWritesNothing(t *testing.T) {
	store := newMemStore()
	userID, product := seedStore(t, store, 1) // cart wants 2

	wf := checkout.NewWorkflow(store, store, store, store, pricingCfg)
	_, err := wf.PlaceOrder(context.Background(), userID, testAddress, "card")

	var stockErr checkout.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, "Classic Tee", stockErr.ProductName)
	assert.Equal(t, 1, stockErr.Available)
	assert.Equal(t, 2, stockErr.Requested)

	assert.Equal(t, 0, store.orderCount())
	assert.Equal(t, 1, store.stock(product.ID, "M"))
	assert.Len(t, store.cartItems(userID), 1)
}

func TestPlaceOrderProductDeletedSinceAddToCart(t *testing.T) {
	store := newMemStore()
	userID, product := seedStore(t, store, 2)

	store.mu.Lock()
	store.products[product.ID].IsDeleted = true
	store.mu.Unlock()

	wf := checkout.NewWorkflow(store, store, store, store, pricingCfg)
	_, err := wf.PlaceOrder(context.Background(), userID, testAddress, "card")

	var notFound checkout.ProductNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, product.ID, notFound.ProductID)
	assert.Equal(t, 0, store.orderCount())
}

// staleCatalog reports more stock than the counter holds, forcing the
// validation pass to succeed and the conditional decrement to lose.
type staleCatalog struct {
	*memStore
}

func (s staleCatalog) FindProductByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	p, err := s.memStore.FindProductByID(ctx, id)
	if err != nil {
		return nil, err
	}
	for i := range p.Sizes {
		p.Sizes[i].Quantity += 100
	}
	return p, nil
}

func TestPlaceOrderDecrementConflictRollsBackOrder(t *testing.T) {
	store := newMemStore()
	userID, product := seedStore(t, store, 1) // real stock 1, cart wants 2

	wf := checkout.NewWorkflow(staleCatalog{store}, store, store, store, pricingCfg)
	_, err := wf.PlaceOrder(context.Background(), userID, testAddress, "card")

	var conflict checkout.InventoryConflictError
	require.ErrorAs(t, err, &conflict)

	// The order insert preceded the decrement inside the transaction; the
	// rollback must erase it and leave stock and cart untouched.
	assert.Equal(t, 0, store.orderCount())
	assert.Equal(t, 1, store.stock(product.ID, "M"))
	assert.Len(t, store.cartItems(userID), 1)
}

/* =========================
   MOCK-BASED CALL-ORDER CHECKS
========================= */

func TestPlaceOrderValidationFailureTouchesNoWriteStores(t *testing.T) {
	ctrl := gomock.NewController(t)

	catalog := mocks.NewMockCatalogStore(ctrl)
	carts := mocks.NewMockCartStore(ctrl)
	orders := mocks.NewMockOrderStore(ctrl)
	tx := mocks.NewMockTxRunner(ctrl)

	userID := primitive.NewObjectID()
	productID := primitive.NewObjectID()
	cart := &models.Cart{
		ID:     primitive.NewObjectID(),
		UserID: userID,
		Items:  []models.CartItem{{ProductID: productID, Price: 50, Quantity: 2, Size: "M"}},
	}

	carts.EXPECT().FindCartByUser(gomock.Any(), userID).Return(cart, nil)
	tx.EXPECT().WithTransaction(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, fn func(context.Context) error) error {
			return fn(ctx)
		})
	catalog.EXPECT().FindProductByID(gomock.Any(), productID).
		Return(nil, checkout.ProductNotFoundError{ProductID: productID})
	// No CreateOrder, DecrementStock or ClearCart expectations: any such
	// call fails the test.

	wf := checkout.NewWorkflow(catalog, carts, orders, tx, pricingCfg)
	_, err := wf.PlaceOrder(context.Background(), userID, testAddress, "card")

	var notFound checkout.ProductNotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestPlaceOrderCartVersionConflict(t *testing.T) {
	ctrl := gomock.NewController(t)

	catalog := mocks.NewMockCatalogStore(ctrl)
	carts := mocks.NewMockCartStore(ctrl)
	orders := mocks.NewMockOrderStore(ctrl)
	tx := mocks.NewMockTxRunner(ctrl)

	userID := primitive.NewObjectID()
	product := &models.Product{
		ID:    primitive.NewObjectID(),
		Name:  "Classic Tee",
		Sizes: []models.SizeStock{{Size: "M", Quantity: 10}},
	}
	cart := &models.Cart{
		ID:      primitive.NewObjectID(),
		UserID:  userID,
		Version: 3,
		Items:   []models.CartItem{{ProductID: product.ID, Price: 50, Quantity: 1, Size: "M"}},
	}

	carts.EXPECT().FindCartByUser(gomock.Any(), userID).Return(cart, nil)
	tx.EXPECT().WithTransaction(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, fn func(context.Context) error) error {
			return fn(ctx)
		})
	catalog.EXPECT().FindProductByID(gomock.Any(), product.ID).Return(product, nil)
	orders.EXPECT().CreateOrder(gomock.Any(), gomock.Any()).Return(primitive.NewObjectID(), nil)
	catalog.EXPECT().DecrementStock(gomock.Any(), product.ID, "M", 1).Return(nil)
	// Another checkout consumed the cart between read and clear.
	carts.EXPECT().ClearCart(gomock.Any(), cart.ID, int64(3)).
		Return(checkout.InventoryConflictError{Reason: "cart already consumed"})

	wf := checkout.NewWorkflow(catalog, carts, orders, tx, pricingCfg)
	_, err := wf.PlaceOrder(context.Background(), userID, testAddress, "card")

	var conflict checkout.InventoryConflictError
	require.ErrorAs(t, err, &conflict)
}

/* =========================
   CONCURRENCY
========================= */

// Ten buyers race for five units. Exactly five orders may succeed and the
// stock may never go negative, regardless of interleaving.
func TestPlaceOrderConcurrentCheckoutsNeverOversell(t *testing.T) {
	const buyers = 10
	const stock = 5

	store := newMemStore()
	product := &models.Product{
		ID:    primitive.NewObjectID(),
		Name:  "Classic Tee",
		Price: 50,
		Sizes: []models.SizeStock{{Size: "M", Quantity: stock}},
	}
	store.addProduct(product)

	users := make([]primitive.ObjectID, buyers)
	for i := range users {
		users[i] = primitive.NewObjectID()
		store.addCart(&models.Cart{
			ID:     primitive.NewObjectID(),
			UserID: users[i],
			Items: []models.CartItem{{
				ProductID: product.ID,
				Name:      product.Name,
				Price:     50,
				Quantity:  1,
				Size:      "M",
			}},
		})
	}

	wf := checkout.NewWorkflow(store, store, store, store, pricingCfg)

	var wg sync.WaitGroup
	errs := make([]error, buyers)
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = wf.PlaceOrder(context.Background(), users[i], testAddress, "card")
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		var stockErr checkout.InsufficientStockError
		var conflict checkout.InventoryConflictError
		if !errors.As(err, &stockErr) && !errors.As(err, &conflict) {
			t.Fatalf("unexpected error type: %v", err)
		}
	}

	assert.Equal(t, stock, succeeded)
	assert.Equal(t, stock, store.orderCount())
	assert.Equal(t, 0, store.stock(product.ID, "M"))
}

// Package checkout implements the order-placement workflow: cart validation,
// stock check, pricing, order creation, inventory decrement and cart clear,
// executed as a single atomic unit against the backing store.
package checkout

import (
	"context"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/models"
)

//go:generate mockgen -source=workflow.go -destination=mocks/mocks.go -package=mocks

// CatalogStore is the slice of the product collection the workflow needs.
type CatalogStore interface {
	// FindProductByID returns the live product or ProductNotFoundError.
	FindProductByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error)
	// DecrementStock atomically subtracts quantity from the size counter,
	// only if the counter stays >= 0. Returns InventoryConflictError when
	// the conditional write matches nothing.
	DecrementStock(ctx context.Context, id primitive.ObjectID, size string, quantity int) error
}

// CartStore loads and consumes user carts.
type CartStore interface {
	FindCartByUser(ctx context.Context, userID primitive.ObjectID) (*models.Cart, error)
	// ClearCart empties the cart's items, conditional on the version the
	// workflow read. Returns InventoryConflictError when the version moved,
	// meaning a concurrent checkout already consumed this cart.
	ClearCart(ctx context.Context, cartID primitive.ObjectID, version int64) error
}

// OrderStore persists finalized orders.
type OrderStore interface {
	CreateOrder(ctx context.Context, order *models.Order) (primitive.ObjectID, error)
}

// TxRunner wraps fn in a transaction; every store call made with the ctx it
// passes to fn commits or rolls back together.
type TxRunner interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Workflow orchestrates order placement. It owns no state beyond its
// collaborators and is safe for concurrent use.
type Workflow struct {
	catalog CatalogStore
	carts   CartStore
	orders  OrderStore
	tx      TxRunner
	pricing PricingConfig
	now     func() time.Time
}

func NewWorkflow(catalog CatalogStore, carts CartStore, orders OrderStore, tx TxRunner, pricing PricingConfig) *Workflow {
	return &Workflow{
		catalog: catalog,
		carts:   carts,
		orders:  orders,
		tx:      tx,
		pricing: pricing,
		now:     time.Now,
	}
}

// PlaceOrder turns the user's current cart into a persisted order, or fails
// leaving all state untouched. Deliberately not idempotent: calling it twice
// with a repopulated cart places two orders, which is what checkout means.
//
// Stock is re-validated here even though it was checked at add-to-cart time;
// inventory is shared and can change between the two moments. The validation
// pass alone still leaves a check-then-act gap, so the order insert, the
// conditional stock decrements and the versioned cart clear all run inside
// one transaction; any conflict aborts the lot.
func (w *Workflow) PlaceOrder(ctx context.Context, userID primitive.ObjectID, address models.ShippingAddress, paymentMethod string) (*models.Order, error) {
	cart, err := w.carts.FindCartByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if cart == nil || len(cart.Items) == 0 {
		return nil, EmptyCartError{UserID: userID}
	}

	var order *models.Order
	err = w.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		for _, item := range cart.Items {
			product, err := w.catalog.FindProductByID(txCtx, item.ProductID)
			if err != nil {
				return err
			}
			if err := CheckStock(product, item.Size, item.Quantity); err != nil {
				return err
			}
		}

		pricing := ComputePricing(cart.Items, w.pricing)

		candidate := &models.Order{
			UserID:          userID,
			Items:           orderItemsFromCart(cart.Items),
			ShippingAddress: address,
			PaymentMethod:   paymentMethod,
			ItemsPrice:      pricing.ItemsPrice,
			ShippingPrice:   pricing.ShippingPrice,
			TaxPrice:        pricing.TaxPrice,
			TotalPrice:      pricing.TotalPrice,
			IsPaid:          false,
			IsDelivered:     false,
			Status:          models.OrderStatusPending,
			CreatedAt:       w.now(),
		}

		orderID, err := w.orders.CreateOrder(txCtx, candidate)
		if err != nil {
			return err
		}
		candidate.ID = orderID

		for _, item := range cart.Items {
			if err := w.catalog.DecrementStock(txCtx, item.ProductID, item.Size, item.Quantity); err != nil {
				return err
			}
		}

		if err := w.carts.ClearCart(txCtx, cart.ID, cart.Version); err != nil {
			return err
		}

		order = candidate
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[CHECKOUT] [INFO] order %s placed for user %s (%d items, total %.2f)",
		order.ID.Hex(), userID.Hex(), len(order.Items), order.TotalPrice)
	return order, nil
}

func orderItemsFromCart(items []models.CartItem) []models.OrderItem {
	out := make([]models.OrderItem, 0, len(items))
	for _, item := range items {
		out = append(out, models.OrderItem{
			ProductID: item.ProductID,
			Name:      item.Name,
			Image:     item.Image,
			Price:     item.Price,
			Quantity:  item.Quantity,
			Size:      item.Size,
			Color:     item.Color,
		})
	}
	return out
}

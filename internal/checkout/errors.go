package checkout

import (
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// EmptyCartError means checkout was attempted with no line items; nothing
// was written.
type EmptyCartError struct {
	UserID primitive.ObjectID
}

func (e EmptyCartError) Error() string {
	return "cart is empty"
}

// ProductNotFoundError means a cart line references a product that no longer
// exists (or was soft-deleted) at checkout time.
type ProductNotFoundError struct {
	ProductID primitive.ObjectID
}

func (e ProductNotFoundError) Error() string {
	return fmt.Sprintf("product %s not found", e.ProductID.Hex())
}

// InsufficientStockError means the requested quantity exceeds the available
// stock for one product size.
type InsufficientStockError struct {
	ProductID   primitive.ObjectID
	ProductName string
	Size        string
	Available   int
	Requested   int
}

func (e InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %q size %q: %d available, %d requested",
		e.ProductName, e.Size, e.Available, e.Requested)
}

// InventoryConflictError means an atomic write lost a race at commit time:
// either a stock decrement found less stock than the validation pass saw, or
// the cart was consumed by a concurrent checkout. The transaction was rolled
// back, so the caller may safely retry the whole PlaceOrder call.
type InventoryConflictError struct {
	Reason string
}

func (e InventoryConflictError) Error() string {
	return "inventory conflict: " + e.Reason
}

// PersistenceError wraps an unexpected store failure.
type PersistenceError struct {
	Op  string
	Err error
}

func (e PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e PersistenceError) Unwrap() error {
	return e.Err
}

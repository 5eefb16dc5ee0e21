package checkout

import "storefront/internal/models"

// CheckStock verifies that the product can satisfy the requested quantity in
// the requested size. It is a pure check against the product snapshot the
// caller just read; it narrows the checkout race window but the store-level
// conditional decrement is what actually closes it.
func CheckStock(product *models.Product, size string, quantity int) error {
	available, ok := product.SizeQuantity(size)
	if !ok {
		return InsufficientStockError{
			ProductID:   product.ID,
			ProductName: product.Name,
			Size:        size,
			Available:   0,
			Requested:   quantity,
		}
	}
	if available < quantity {
		return InsufficientStockError{
			ProductID:   product.ID,
			ProductName: product.Name,
			Size:        size,
			Available:   available,
			Requested:   quantity,
		}
	}
	return nil
}

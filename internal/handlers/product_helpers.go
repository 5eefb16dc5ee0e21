package handlers

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/mongo"

	"storefront/internal/models"
)

var (
	errEmptySize        = errors.New("size label must not be empty")
	errDuplicateSize    = errors.New("duplicate size label")
	errNegativeQuantity = errors.New("size quantity must not be negative")
)

// finalizeProduct fills the derived display fields that are not stored.
func finalizeProduct(p *models.Product) {
	p.IsOnSale = isProductOnSale(p.Price, p.SaleEnabled, p.SalePrice)
	p.InStock = p.TotalStock() > 0
}

func decodeProducts(ctx context.Context, cursor *mongo.Cursor) ([]models.Product, error) {
	products := make([]models.Product, 0)

	for cursor.Next(ctx) {
		var product models.Product
		if err := cursor.Decode(&product); err != nil {
			return nil, err
		}
		finalizeProduct(&product)
		products = append(products, product)
	}

	if err := cursor.Err(); err != nil {
		return nil, err
	}

	return products, nil
}

// validateSizes rejects duplicate size labels and negative quantities; a
// size entry's quantity may be zero but never below it.
func validateSizes(sizes []models.SizeStock) error {
	seen := map[string]struct{}{}
	for _, s := range sizes {
		if s.Size == "" {
			return errEmptySize
		}
		if _, ok := seen[s.Size]; ok {
			return errDuplicateSize
		}
		seen[s.Size] = struct{}{}
		if s.Quantity < 0 {
			return errNegativeQuantity
		}
	}
	return nil
}

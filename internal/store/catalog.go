package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"storefront/internal/checkout"
	"storefront/internal/models"
)

// FindProductByID returns the live (not soft-deleted) product.
func (s *Store) FindProductByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	var product models.Product
	err := s.db.Collection("products").FindOne(ctx, bson.M{
		"_id":       id,
		"isDeleted": bson.M{"$ne": true},
	}).Decode(&product)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, checkout.ProductNotFoundError{ProductID: id}
	}
	if err != nil {
		return nil, checkout.PersistenceError{Op: "find product", Err: err}
	}
	return &product, nil
}

// DecrementStock subtracts quantity from the size counter in a single
// conditional write: the filter only matches while the counter can absorb
// the decrement, so the quantity can never go below zero even under
// concurrent checkouts. A matched count of zero means the stock moved since
// validation; the caller treats that as a conflict and aborts.
func (s *Store) DecrementStock(ctx context.Context, id primitive.ObjectID, size string, quantity int) error {
	filter := bson.M{
		"_id":       id,
		"isDeleted": bson.M{"$ne": true},
		"sizes": bson.M{"$elemMatch": bson.M{
			"size":     size,
			"quantity": bson.M{"$gte": quantity},
		}},
	}
	update := bson.M{"$inc": bson.M{"sizes.$.quantity": -quantity}}

	res, err := s.db.Collection("products").UpdateOne(ctx, filter, update)
	if err != nil {
		return checkout.PersistenceError{Op: "decrement stock", Err: err}
	}
	if res.MatchedCount == 0 {
		return checkout.InventoryConflictError{
			Reason: fmt.Sprintf("stock for product %s size %q changed during checkout", id.Hex(), size),
		}
	}
	return nil
}

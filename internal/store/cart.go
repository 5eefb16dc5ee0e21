package store

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"storefront/internal/checkout"
	"storefront/internal/models"
)

// FindCartByUser returns the user's cart, or nil when none exists yet.
func (s *Store) FindCartByUser(ctx context.Context, userID primitive.ObjectID) (*models.Cart, error) {
	var cart models.Cart
	err := s.db.Collection("carts").FindOne(ctx, bson.M{"userId": userID}).Decode(&cart)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, checkout.PersistenceError{Op: "find cart", Err: err}
	}
	return &cart, nil
}

// ClearCart empties the cart conditional on the version the workflow read.
// The version filter is what stops two concurrent checkouts from both
// spending the same cart: the second clear matches nothing and the second
// transaction aborts.
func (s *Store) ClearCart(ctx context.Context, cartID primitive.ObjectID, version int64) error {
	res, err := s.db.Collection("carts").UpdateOne(ctx,
		bson.M{"_id": cartID, "version": version},
		bson.M{
			"$set": bson.M{
				"items":     []models.CartItem{},
				"updatedAt": time.Now(),
			},
			"$inc": bson.M{"version": 1},
		},
	)
	if err != nil {
		return checkout.PersistenceError{Op: "clear cart", Err: err}
	}
	if res.MatchedCount == 0 {
		return checkout.InventoryConflictError{Reason: "cart was modified by a concurrent checkout"}
	}
	return nil
}

package store

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/checkout"
	"storefront/internal/models"
)

// CreateOrder inserts the finalized order document and returns its id.
func (s *Store) CreateOrder(ctx context.Context, order *models.Order) (primitive.ObjectID, error) {
	res, err := s.db.Collection("orders").InsertOne(ctx, order)
	if err != nil {
		return primitive.NilObjectID, checkout.PersistenceError{Op: "create order", Err: err}
	}
	id, _ := res.InsertedID.(primitive.ObjectID)
	return id, nil
}

// Package store implements the checkout store interfaces against MongoDB.
// All writes the workflow performs go through here so the conditional
// decrement and the versioned cart clear stay in one place.
package store

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
)

// Store bundles the mongo-backed collaborators of the checkout workflow.
type Store struct {
	db *mongo.Database
}

func New(db *mongo.Database) *Store {
	return &Store{db: db}
}

// WithTransaction runs fn inside a mongo session transaction. Store methods
// called with the context fn receives join that transaction; on error the
// whole set of writes is rolled back.
func (s *Store) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	session, err := s.db.Client().StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		return nil, fn(sessCtx)
	})
	return err
}

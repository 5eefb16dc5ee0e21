package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CartItem is one line in a user's cart. Name, image and price are copied
// from the product at add time; Price is the snapshot the customer will pay
// regardless of later price edits.
type CartItem struct {
	ProductID primitive.ObjectID `bson:"productId" json:"productId"`
	Name      string             `bson:"name" json:"name"`
	Image     string             `bson:"image,omitempty" json:"image,omitempty"`
	Price     float64            `bson:"price" json:"price"`
	Quantity  int                `bson:"quantity" json:"quantity"`
	Size      string             `bson:"size" json:"size"`
	Color     string             `bson:"color,omitempty" json:"color,omitempty"`
	AddedAt   time.Time          `bson:"addedAt" json:"addedAt"`
}

// Cart holds the line items of a single user. There is at most one cart per
// user (unique index on userId); it is created lazily on first access and
// cleared, never deleted, when an order is placed. Version guards the clear:
// two concurrent checkouts cannot both consume the same cart.
type Cart struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    primitive.ObjectID `bson:"userId" json:"userId"`
	Items     []CartItem         `bson:"items" json:"items"`
	Version   int64              `bson:"version" json:"-"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

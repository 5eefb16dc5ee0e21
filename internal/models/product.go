package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SizeStock is the per-size available-quantity counter on a product.
// Quantity never goes below zero; the store enforces that with a
// conditional decrement.
type SizeStock struct {
	Size     string `bson:"size" json:"size"`
	Quantity int    `bson:"quantity" json:"quantity"`
}

type Product struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string             `bson:"name" json:"name"`
	Price       float64            `bson:"price" json:"price"`
	SaleEnabled bool               `bson:"saleEnabled" json:"saleEnabled"`
	SalePrice   float64            `bson:"salePrice" json:"salePrice"`
	IsOnSale    bool               `bson:"-" json:"isOnSale"`
	Sizes       []SizeStock        `bson:"sizes" json:"sizes"`
	Colors      []string           `bson:"colors,omitempty" json:"colors,omitempty"`
	Category    StringList         `bson:"category" json:"category"`
	Brand       string             `bson:"brand,omitempty" json:"brand,omitempty"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	Image       string             `bson:"image,omitempty" json:"image,omitempty"`
	InStock     bool               `bson:"-" json:"inStock"`
	IsActive    bool               `bson:"isActive" json:"isActive"`
	IsDeleted   bool               `bson:"isDeleted" json:"isDeleted,omitempty"`
	DeletedAt   *time.Time         `bson:"deletedAt,omitempty" json:"deletedAt,omitempty"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
}

// SizeQuantity returns the available quantity for a size and whether the
// product carries that size at all.
func (p Product) SizeQuantity(size string) (int, bool) {
	for _, s := range p.Sizes {
		if s.Size == size {
			return s.Quantity, true
		}
	}
	return 0, false
}

// TotalStock sums the quantities across all sizes.
func (p Product) TotalStock() int {
	total := 0
	for _, s := range p.Sizes {
		total += s.Quantity
	}
	return total
}

package checkout

import (
	"math"

	"storefront/internal/models"
)

// PricingConfig carries the shipping and tax knobs. Defaults live in
// internal/config; tests construct their own.
type PricingConfig struct {
	FreeShippingThreshold float64
	FlatShippingFee       float64
	TaxRate               float64
}

// Pricing is the computed price breakdown of a checkout.
//
// TaxPrice is informational only and is NOT included in TotalPrice. The
// storefront has always shown tax as part of the item price; whether that is
// right is a product decision, not one this code gets to make. Changing it
// would change what every customer is charged, so the behavior is pinned by
// tests.
type Pricing struct {
	ItemsPrice    float64 `json:"itemsPrice"`
	ShippingPrice float64 `json:"shippingPrice"`
	TaxPrice      float64 `json:"taxPrice"`
	TotalPrice    float64 `json:"totalPrice"`
}

// ComputePricing derives the price breakdown from cart line items. It uses
// the snapshot price captured at add-to-cart time, never a fresh product
// read, so a mid-checkout price edit cannot change what the customer pays.
// Pure function: no I/O, fully deterministic.
func ComputePricing(items []models.CartItem, cfg PricingConfig) Pricing {
	var itemsPrice float64
	for _, item := range items {
		itemsPrice += item.Price * float64(item.Quantity)
	}
	itemsPrice = round2(itemsPrice)

	shippingPrice := cfg.FlatShippingFee
	if itemsPrice > cfg.FreeShippingThreshold {
		shippingPrice = 0
	}

	return Pricing{
		ItemsPrice:    itemsPrice,
		ShippingPrice: shippingPrice,
		TaxPrice:      round2(itemsPrice * cfg.TaxRate),
		TotalPrice:    round2(itemsPrice + shippingPrice),
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

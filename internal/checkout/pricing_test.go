package checkout

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"storefront/internal/models"
)

var testPricing = PricingConfig{
	FreeShippingThreshold: 300,
	FlatShippingFee:       30,
	TaxRate:               0.17,
}

func TestComputePricingWorkedExample(t *testing.T) {
	// One item, size M, qty 2 at snapshot price 50.
	items := []models.CartItem{
		{Price: 50, Quantity: 2, Size: "M"},
	}

	p := ComputePricing(items, testPricing)

	assert.Equal(t, 100.0, p.ItemsPrice)
	assert.Equal(t, 30.0, p.ShippingPrice)
	assert.Equal(t, 17.0, p.TaxPrice)
	assert.Equal(t, 130.0, p.TotalPrice)
}

func TestComputePricingFreeShippingThreshold(t *testing.T) {
	tests := []struct {
		name         string
		itemsPrice   float64
		wantShipping float64
	}{
		{"below threshold", 299, 30},
		{"exactly threshold still pays", 300, 30},
		{"above threshold ships free", 300.01, 0},
		{"well above threshold", 1000, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items := []models.CartItem{{Price: tt.itemsPrice, Quantity: 1}}
			p := ComputePricing(items, testPricing)
			assert.Equal(t, tt.wantShipping, p.ShippingPrice)
		})
	}
}

// Tax is reported but never charged: totalPrice must always equal
// itemsPrice + shippingPrice, with taxPrice alongside. Regression guard for
// long-standing storefront behavior.
func TestComputePricingTaxExcludedFromTotal(t *testing.T) {
	carts := [][]models.CartItem{
		{{Price: 10, Quantity: 1}},
		{{Price: 50, Quantity: 2}, {Price: 19.99, Quantity: 3}},
		{{Price: 400, Quantity: 1}},
		{},
	}

	for _, items := range carts {
		p := ComputePricing(items, testPricing)
		assert.Equal(t, p.ItemsPrice+p.ShippingPrice, p.TotalPrice)
		if p.ItemsPrice > 0 {
			assert.Greater(t, p.TaxPrice, 0.0)
		}
	}
}

func TestComputePricingSumsSnapshotPrices(t *testing.T) {
	items := []models.CartItem{
		{Price: 19.99, Quantity: 3},
		{Price: 5.5, Quantity: 2},
	}

	p := ComputePricing(items, testPricing)

	assert.Equal(t, 70.97, p.ItemsPrice)
	assert.Equal(t, 12.06, p.TaxPrice)
}

func TestComputePricingEmptyCart(t *testing.T) {
	p := ComputePricing(nil, testPricing)

	assert.Equal(t, 0.0, p.ItemsPrice)
	assert.Equal(t, 30.0, p.ShippingPrice)
	assert.Equal(t, 0.0, p.TaxPrice)
	assert.Equal(t, 30.0, p.TotalPrice)
}

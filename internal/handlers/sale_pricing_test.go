package handlers

import (
	"encoding/json"
	"strings"
	"testing"

	"storefront/internal/models"
)

func TestValidateSaleFieldsMissingSalePrice(t *testing.T) {
	err := validateSaleFields(100, true, 0, false)
	if err == nil {
		t.Fatal("expected validation error when saleEnabled=true and salePrice is missing")
	}
}

func TestValidateSaleFieldsSalePriceGreaterOrEqualPrice(t *testing.T) {
	tests := []float64{100, 120}
	for _, salePrice := range tests {
		err := validateSaleFields(100, true, salePrice, true)
		if err == nil {
			t.Fatalf("expected validation error for salePrice=%v", salePrice)
		}
	}
}

func TestEffectiveProductPriceUsesSalePriceWhenOnSale(t *testing.T) {
	if got := effectiveProductPrice(100, true, 75); got != 75 {
		t.Fatalf("expected sale price 75, got %v", got)
	}
	if got := effectiveProductPrice(100, false, 75); got != 100 {
		t.Fatalf("expected regular price 100 when sale disabled, got %v", got)
	}
}

func TestResolveSaleUpdateDisablingSaleResetsSalePrice(t *testing.T) {
	disabled := false
	result, err := resolveSaleUpdate(100, true, 80, saleUpdateInput{SaleEnabled: &disabled})
	if err != nil {
		t.Fatalf("resolveSaleUpdate returned error: %v", err)
	}
	if result.SalePrice != 0 || !result.SetSalePrice {
		t.Fatalf("expected salePrice reset on disable, got %+v", result)
	}
}

func TestFinalizeProductDerivedFields(t *testing.T) {
	product := models.Product{
		Name:        "Test",
		Price:       120,
		SaleEnabled: true,
		SalePrice:   99,
		Sizes: []models.SizeStock{
			{Size: "S", Quantity: 0},
			{Size: "M", Quantity: 5},
		},
	}

	finalizeProduct(&product)

	if !product.IsOnSale {
		t.Fatal("expected IsOnSale to be true")
	}
	if !product.InStock {
		t.Fatal("expected InStock to be true with a non-empty size")
	}

	body, err := json.Marshal(product)
	if err != nil {
		t.Fatalf("json marshal failed: %v", err)
	}
	jsonBody := string(body)
	if !strings.Contains(jsonBody, "\"salePrice\":99") {
		t.Fatalf("expected salePrice in response json, got %s", jsonBody)
	}
	if !strings.Contains(jsonBody, "\"isOnSale\":true") {
		t.Fatalf("expected isOnSale=true in response json, got %s", jsonBody)
	}
}

func TestFinalizeProductAllSizesEmpty(t *testing.T) {
	product := models.Product{
		Name:  "Test",
		Price: 50,
		Sizes: []models.SizeStock{{Size: "M", Quantity: 0}},
	}

	finalizeProduct(&product)

	if product.InStock {
		t.Fatal("expected InStock to be false when every size is at zero")
	}
}

func TestValidateSizes(t *testing.T) {
	valid := []models.SizeStock{{Size: "S", Quantity: 0}, {Size: "M", Quantity: 3}}
	if err := validateSizes(valid); err != nil {
		t.Fatalf("expected valid sizes, got %v", err)
	}

	if err := validateSizes([]models.SizeStock{{Size: "", Quantity: 1}}); err == nil {
		t.Fatal("expected error for empty size label")
	}
	if err := validateSizes([]models.SizeStock{{Size: "M", Quantity: 1}, {Size: "M", Quantity: 2}}); err == nil {
		t.Fatal("expected error for duplicate size label")
	}
	if err := validateSizes([]models.SizeStock{{Size: "M", Quantity: -1}}); err == nil {
		t.Fatal("expected error for negative quantity")
	}
}

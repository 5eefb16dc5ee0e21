package checkout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/models"
)

func testProduct(sizes ...models.SizeStock) *models.Product {
	return &models.Product{
		ID:    primitive.NewObjectID(),
		Name:  "Classic Tee",
		Price: 50,
		Sizes: sizes,
	}
}

func TestCheckStockEnoughAvailable(t *testing.T) {
	p := testProduct(models.SizeStock{Size: "M", Quantity: 3})

	assert.NoError(t, CheckStock(p, "M", 3))
	assert.NoError(t, CheckStock(p, "M", 1))
}

func TestCheckStockInsufficient(t *testing.T) {
	p := testProduct(models.SizeStock{Size: "M", Quantity: 2})

	err := CheckStock(p, "M", 5)

	var stockErr InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, "Classic Tee", stockErr.ProductName)
	assert.Equal(t, "M", stockErr.Size)
	assert.Equal(t, 2, stockErr.Available)
	assert.Equal(t, 5, stockErr.Requested)
}

func TestCheckStockUnknownSize(t *testing.T) {
	p := testProduct(models.SizeStock{Size: "M", Quantity: 10})

	err := CheckStock(p, "XL", 1)

	var stockErr InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, 0, stockErr.Available)
}

func TestCheckStockZeroQuantitySize(t *testing.T) {
	p := testProduct(models.SizeStock{Size: "S", Quantity: 0})

	err := CheckStock(p, "S", 1)
	assert.Error(t, err)
}

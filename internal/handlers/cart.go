package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"storefront/internal/checkout"
	"storefront/internal/middleware"
	"storefront/internal/models"
)

type addCartItemRequest struct {
	ProductID string `json:"productId" binding:"required"`
	Size      string `json:"size" binding:"required"`
	Color     string `json:"color"`
	Quantity  int    `json:"quantity" binding:"required,gt=0"`
}

type updateCartItemRequest struct {
	Size     string `json:"size" binding:"required"`
	Color    string `json:"color"`
	Quantity int    `json:"quantity"`
}

// cartResponse pairs the cart with a price preview so the UI can show
// shipping and totals before checkout. The preview comes from the same pure
// pricing function the order workflow uses.
func cartResponse(cart *models.Cart, cfg checkout.PricingConfig) gin.H {
	items := []models.CartItem{}
	if cart != nil && cart.Items != nil {
		items = cart.Items
	}
	return gin.H{
		"items":   items,
		"pricing": checkout.ComputePricing(items, cfg),
	}
}

func GetCart(db *mongo.Database, cfg checkout.PricingConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /cart"
		defer handlePanic(c, route)

		userID, ok := middleware.UserID(c)
		if !ok {
			respondWithError(c, http.StatusUnauthorized, route, "unauthorized")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var cart models.Cart
		err := db.Collection("carts").FindOne(ctx, bson.M{"userId": userID}).Decode(&cart)
		if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		c.JSON(http.StatusOK, cartResponse(&cart, cfg))
	}
}

func AddCartItem(db *mongo.Database, cfg checkout.PricingConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /cart/items"
		defer handlePanic(c, route)

		userID, ok := middleware.UserID(c)
		if !ok {
			respondWithError(c, http.StatusUnauthorized, route, "unauthorized")
			return
		}

		var req addCartItemRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		productID, err := primitive.ObjectIDFromHex(req.ProductID)
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid productId")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var product models.Product
		err = db.Collection("products").FindOne(ctx, bson.M{
			"_id":       productID,
			"isActive":  bson.M{"$ne": false},
			"isDeleted": bson.M{"$ne": true},
		}).Decode(&product)
		if errors.Is(err, mongo.ErrNoDocuments) {
			respondWithError(c, http.StatusNotFound, route, "product not found")
			return
		}
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		if err := checkout.CheckStock(&product, req.Size, req.Quantity); err != nil {
			var stockErr checkout.InsufficientStockError
			if errors.As(err, &stockErr) {
				c.JSON(http.StatusConflict, gin.H{
					"error":     "insufficient stock",
					"product":   stockErr.ProductName,
					"size":      stockErr.Size,
					"available": stockErr.Available,
					"requested": stockErr.Requested,
				})
				return
			}
			respondWithError(c, http.StatusInternalServerError, route, "stock check failed")
			return
		}

		cart, err := loadOrEmptyCart(ctx, db, userID)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		// Same product+size+color merges into one line. The price snapshot
		// of the first add wins; quantity alone changes.
		merged := false
		for i := range cart.Items {
			item := &cart.Items[i]
			if item.ProductID == productID && item.Size == req.Size && item.Color == req.Color {
				item.Quantity += req.Quantity
				merged = true
				break
			}
		}
		if !merged {
			cart.Items = append(cart.Items, models.CartItem{
				ProductID: productID,
				Name:      product.Name,
				Image:     product.Image,
				Price:     effectiveProductPrice(product.Price, product.SaleEnabled, product.SalePrice),
				Quantity:  req.Quantity,
				Size:      req.Size,
				Color:     strings.TrimSpace(req.Color),
				AddedAt:   time.Now(),
			})
		}

		if err := saveCartItems(ctx, db, userID, cart.Items); err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		log.Printf("[%s] user %s cart now has %d lines", route, userID.Hex(), len(cart.Items))
		c.JSON(http.StatusOK, cartResponse(cart, cfg))
	}
}

func UpdateCartItem(db *mongo.Database, cfg checkout.PricingConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /cart/items/:productId"
		defer handlePanic(c, route)

		userID, ok := middleware.UserID(c)
		if !ok {
			respondWithError(c, http.StatusUnauthorized, route, "unauthorized")
			return
		}

		productID, err := primitive.ObjectIDFromHex(c.Param("productId"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid productId")
			return
		}

		var req updateCartItemRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}
		if req.Quantity < 0 {
			respondWithError(c, http.StatusBadRequest, route, "quantity must not be negative")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		cart, err := loadOrEmptyCart(ctx, db, userID)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		idx := -1
		for i := range cart.Items {
			if cart.Items[i].ProductID == productID && cart.Items[i].Size == req.Size && cart.Items[i].Color == req.Color {
				idx = i
				break
			}
		}
		if idx < 0 {
			respondWithError(c, http.StatusNotFound, route, "item not in cart")
			return
		}

		if req.Quantity == 0 {
			// Zero-quantity updates remove the line; carts never hold
			// zero-quantity items.
			cart.Items = append(cart.Items[:idx], cart.Items[idx+1:]...)
		} else {
			var product models.Product
			err = db.Collection("products").FindOne(ctx, bson.M{
				"_id":       productID,
				"isDeleted": bson.M{"$ne": true},
			}).Decode(&product)
			if err == nil {
				if err := checkout.CheckStock(&product, req.Size, req.Quantity); err != nil {
					var stockErr checkout.InsufficientStockError
					if errors.As(err, &stockErr) {
						c.JSON(http.StatusConflict, gin.H{
							"error":     "insufficient stock",
							"product":   stockErr.ProductName,
							"size":      stockErr.Size,
							"available": stockErr.Available,
							"requested": stockErr.Requested,
						})
						return
					}
				}
			}
			cart.Items[idx].Quantity = req.Quantity
		}

		if err := saveCartItems(ctx, db, userID, cart.Items); err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		c.JSON(http.StatusOK, cartResponse(cart, cfg))
	}
}

func RemoveCartItem(db *mongo.Database, cfg checkout.PricingConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /cart/items/:productId"
		defer handlePanic(c, route)

		userID, ok := middleware.UserID(c)
		if !ok {
			respondWithError(c, http.StatusUnauthorized, route, "unauthorized")
			return
		}

		productID, err := primitive.ObjectIDFromHex(c.Param("productId"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid productId")
			return
		}

		size := strings.TrimSpace(c.Query("size"))
		color := strings.TrimSpace(c.Query("color"))

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		cart, err := loadOrEmptyCart(ctx, db, userID)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		kept := cart.Items[:0]
		removed := false
		for _, item := range cart.Items {
			match := item.ProductID == productID &&
				(size == "" || item.Size == size) &&
				(color == "" || item.Color == color)
			if match {
				removed = true
				continue
			}
			kept = append(kept, item)
		}
		if !removed {
			respondWithError(c, http.StatusNotFound, route, "item not in cart")
			return
		}
		cart.Items = kept

		if err := saveCartItems(ctx, db, userID, cart.Items); err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		c.JSON(http.StatusOK, cartResponse(cart, cfg))
	}
}

func loadOrEmptyCart(ctx context.Context, db *mongo.Database, userID primitive.ObjectID) (*models.Cart, error) {
	var cart models.Cart
	err := db.Collection("carts").FindOne(ctx, bson.M{"userId": userID}).Decode(&cart)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return &models.Cart{UserID: userID, Items: []models.CartItem{}}, nil
	}
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

// saveCartItems upserts the user's single cart document. Every write bumps
// the version so an in-flight checkout that read the old cart cannot clear
// it afterwards.
func saveCartItems(ctx context.Context, db *mongo.Database, userID primitive.ObjectID, items []models.CartItem) error {
	now := time.Now()
	_, err := db.Collection("carts").UpdateOne(ctx,
		bson.M{"userId": userID},
		bson.M{
			"$set":         bson.M{"items": items, "updatedAt": now},
			"$inc":         bson.M{"version": 1},
			"$setOnInsert": bson.M{"createdAt": now},
		},
		options.Update().SetUpsert(true),
	)
	return err
}

package handlers

import (
	"context"
	"errors"
	"net/http"
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

type shippingAddressRequest struct {
	FullName   string `json:"fullName" binding:"required"`
	Address    string `json:"address" binding:"required"`
	City       string `json:"city" binding:"required"`
	PostalCode string `json:"postalCode" binding:"required"`
	Country    string `json:"country" binding:"required"`
}

type placeOrderRequest struct {
	ShippingAddress shippingAddressRequest `json:"shippingAddress" binding:"required"`
	PaymentMethod   string                 `json:"paymentMethod" binding:"required"`
}

// PlaceOrder runs the checkout workflow for the authenticated user's cart.
// The workflow owns all validation and atomicity; this handler only binds
// the request and translates typed errors into responses.
func PlaceOrder(db *mongo.Database, wf *checkout.Workflow) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /orders"
		defer handlePanic(c, route)

		if err := ensureDBConnection(c.Request.Context(), db); err != nil {
			respondWithError(c, http.StatusServiceUnavailable, route, "database unavailable")
			return
		}

		userID, ok := middleware.UserID(c)
		if !ok {
			respondWithError(c, http.StatusUnauthorized, route, "unauthorized")
			return
		}

		var req placeOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}
		if req.PaymentMethod != "card" && req.PaymentMethod != "cash" {
			respondWithError(c, http.StatusBadRequest, route, "invalid payment method")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
		defer cancel()

		order, err := wf.PlaceOrder(ctx, userID, models.ShippingAddress(req.ShippingAddress), req.PaymentMethod)
		if err != nil {
			respondCheckoutError(c, route, err)
			return
		}

		middleware.OrdersPlaced.Inc()
		c.JSON(http.StatusCreated, order)
	}
}

func respondCheckoutError(c *gin.Context, route string, err error) {
	var emptyCart checkout.EmptyCartError
	if errors.As(err, &emptyCart) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cart is empty"})
		return
	}

	var notFound checkout.ProductNotFoundError
	if errors.As(err, &notFound) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "product no longer available",
			"productId": notFound.ProductID.Hex(),
		})
		return
	}

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

	var conflict checkout.InventoryConflictError
	if errors.As(err, &conflict) {
		middleware.CheckoutConflicts.Inc()
		// Nothing was committed; the client may retry the whole checkout.
		c.JSON(http.StatusConflict, gin.H{
			"error":     "checkout conflict, please retry",
			"retryable": true,
		})
		return
	}

	respondWithError(c, http.StatusInternalServerError, route, "checkout failed")
}

func GetMyOrders(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /orders"
		defer handlePanic(c, route)

		userID, ok := middleware.UserID(c)
		if !ok {
			respondWithError(c, http.StatusUnauthorized, route, "unauthorized")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
		cursor, err := db.Collection("orders").Find(ctx, bson.M{"userId": userID}, findOptions)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		defer cursor.Close(ctx)

		orders := make([]models.Order, 0)
		if err := cursor.All(ctx, &orders); err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "decode error")
			return
		}

		c.JSON(http.StatusOK, orders)
	}
}

func GetOrderByID(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /orders/:id"
		defer handlePanic(c, route)

		userID, ok := middleware.UserID(c)
		if !ok {
			respondWithError(c, http.StatusUnauthorized, route, "unauthorized")
			return
		}

		orderID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid id")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var order models.Order
		err = db.Collection("orders").FindOne(ctx, bson.M{
			"_id":    orderID,
			"userId": userID,
		}).Decode(&order)
		if errors.Is(err, mongo.ErrNoDocuments) {
			respondWithError(c, http.StatusNotFound, route, "order not found")
			return
		}
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		c.JSON(http.StatusOK, order)
	}
}

package handlers

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"storefront/internal/models"
)

func GetAllOrders(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /admin/api/orders"
		defer handlePanic(c, route)

		filter := bson.M{}
		if status := strings.TrimSpace(c.Query("status")); status != "" {
			if !models.ValidOrderStatus(status) {
				respondWithError(c, http.StatusBadRequest, route, "invalid status")
				return
			}
			filter["status"] = status
		}

		findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})

		pageStr := c.Query("page")
		limitStr := c.Query("limit")
		if pageStr != "" && limitStr != "" {
			page, limit, err := parsePaginationParams(pageStr, limitStr)
			if err != nil {
				respondWithError(c, http.StatusBadRequest, route, "invalid pagination params")
				return
			}
			findOptions.SetSkip((page - 1) * limit).SetLimit(limit)
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		cursor, err := db.Collection("orders").Find(ctx, filter, findOptions)
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

// MarkOrderPaid records payment confirmation. The conditional filter makes
// the transition idempotent-safe: a second confirmation finds no unpaid
// order and reports conflict instead of moving paidAt.
func MarkOrderPaid(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /admin/api/orders/:id/pay"
		defer handlePanic(c, route)

		orderID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid id")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		now := time.Now()
		res, err := db.Collection("orders").UpdateOne(ctx,
			bson.M{"_id": orderID, "isPaid": false},
			bson.M{"$set": bson.M{
				"isPaid": true,
				"paidAt": now,
				"status": models.OrderStatusProcessing,
			}},
		)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		if res.MatchedCount == 0 {
			respondWithError(c, http.StatusConflict, route, "order not found or already paid")
			return
		}

		log.Printf("[%s] order %s marked paid", route, orderID.Hex())
		c.JSON(http.StatusOK, gin.H{"message": "order marked as paid", "paidAt": now})
	}
}

func MarkOrderDelivered(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /admin/api/orders/:id/deliver"
		defer handlePanic(c, route)

		orderID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid id")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		now := time.Now()
		res, err := db.Collection("orders").UpdateOne(ctx,
			bson.M{"_id": orderID, "isDelivered": false},
			bson.M{"$set": bson.M{
				"isDelivered": true,
				"deliveredAt": now,
				"status":      models.OrderStatusDelivered,
			}},
		)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		if res.MatchedCount == 0 {
			respondWithError(c, http.StatusConflict, route, "order not found or already delivered")
			return
		}

		log.Printf("[%s] order %s marked delivered", route, orderID.Hex())
		c.JSON(http.StatusOK, gin.H{"message": "order marked as delivered", "deliveredAt": now})
	}
}

type updateOrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateOrderStatus moves an order through the fulfilment flow. Items and
// the price breakdown stay untouched; status is the only mutable field here.
func UpdateOrderStatus(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /admin/api/orders/:id/status"
		defer handlePanic(c, route)

		orderID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid id")
			return
		}

		var req updateOrderStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}
		if !models.ValidOrderStatus(req.Status) {
			respondWithError(c, http.StatusBadRequest, route, "invalid status")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		res, err := db.Collection("orders").UpdateOne(ctx,
			bson.M{"_id": orderID},
			bson.M{"$set": bson.M{"status": req.Status}},
		)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		if res.MatchedCount == 0 {
			respondWithError(c, http.StatusNotFound, route, "order not found")
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "status updated", "status": req.Status})
	}
}

// DeleteOrder is the only way an order leaves the collection; nothing else
// in the system removes orders.
func DeleteOrder(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /admin/api/orders/:id"
		defer handlePanic(c, route)

		orderID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid id")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		result, err := db.Collection("orders").DeleteOne(ctx, bson.M{"_id": orderID})
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		if result.DeletedCount == 0 {
			respondWithError(c, http.StatusNotFound, route, "order not found")
			return
		}

		log.Printf("[%s] order %s deleted", route, orderID.Hex())
		c.JSON(http.StatusOK, gin.H{"message": "order deleted"})
	}
}

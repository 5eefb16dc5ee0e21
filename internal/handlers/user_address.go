package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"storefront/internal/middleware"
	"storefront/internal/models"
)

type addressRequest struct {
	FullName   string `json:"fullName" binding:"required"`
	Address    string `json:"address" binding:"required"`
	City       string `json:"city" binding:"required"`
	PostalCode string `json:"postalCode" binding:"required"`
	Country    string `json:"country" binding:"required"`
	IsDefault  bool   `json:"isDefault"`
}

func GetUserAddresses(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /user/addresses"
		defer handlePanic(c, route)

		userID, ok := middleware.UserID(c)
		if !ok {
			respondWithError(c, http.StatusUnauthorized, route, "unauthorized")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var user models.User
		if err := db.Collection("users").FindOne(ctx, bson.M{"_id": userID}).Decode(&user); err != nil {
			respondWithError(c, http.StatusNotFound, route, "user not found")
			return
		}

		if user.Addresses == nil {
			user.Addresses = []models.Address{}
		}
		c.JSON(http.StatusOK, user.Addresses)
	}
}

func CreateUserAddress(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /user/addresses"
		defer handlePanic(c, route)

		userID, ok := middleware.UserID(c)
		if !ok {
			respondWithError(c, http.StatusUnauthorized, route, "unauthorized")
			return
		}

		var req addressRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		address := models.Address{
			ID:         primitive.NewObjectID().Hex(),
			FullName:   strings.TrimSpace(req.FullName),
			Address:    strings.TrimSpace(req.Address),
			City:       strings.TrimSpace(req.City),
			PostalCode: strings.TrimSpace(req.PostalCode),
			Country:    strings.TrimSpace(req.Country),
			IsDefault:  req.IsDefault,
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		if address.IsDefault {
			// Only one default address at a time.
			_, _ = db.Collection("users").UpdateByID(ctx, userID, bson.M{
				"$set": bson.M{"addresses.$[].isDefault": false},
			})
		}

		res, err := db.Collection("users").UpdateByID(ctx, userID, bson.M{
			"$push": bson.M{"addresses": address},
			"$set":  bson.M{"updatedAt": time.Now()},
		})
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		if res.MatchedCount == 0 {
			respondWithError(c, http.StatusNotFound, route, "user not found")
			return
		}

		c.JSON(http.StatusCreated, address)
	}
}

func UpdateUserAddress(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /user/addresses/:id"
		defer handlePanic(c, route)

		userID, ok := middleware.UserID(c)
		if !ok {
			respondWithError(c, http.StatusUnauthorized, route, "unauthorized")
			return
		}

		addressID := strings.TrimSpace(c.Param("id"))
		if addressID == "" {
			respondWithError(c, http.StatusBadRequest, route, "invalid id")
			return
		}

		var req addressRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		if req.IsDefault {
			_, _ = db.Collection("users").UpdateByID(ctx, userID, bson.M{
				"$set": bson.M{"addresses.$[].isDefault": false},
			})
		}

		res, err := db.Collection("users").UpdateOne(ctx,
			bson.M{"_id": userID, "addresses.id": addressID},
			bson.M{"$set": bson.M{
				"addresses.$.fullName":   strings.TrimSpace(req.FullName),
				"addresses.$.address":    strings.TrimSpace(req.Address),
				"addresses.$.city":       strings.TrimSpace(req.City),
				"addresses.$.postalCode": strings.TrimSpace(req.PostalCode),
				"addresses.$.country":    strings.TrimSpace(req.Country),
				"addresses.$.isDefault":  req.IsDefault,
				"updatedAt":              time.Now(),
			}},
		)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		if res.MatchedCount == 0 {
			respondWithError(c, http.StatusNotFound, route, "address not found")
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "address updated"})
	}
}

func DeleteUserAddress(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /user/addresses/:id"
		defer handlePanic(c, route)

		userID, ok := middleware.UserID(c)
		if !ok {
			respondWithError(c, http.StatusUnauthorized, route, "unauthorized")
			return
		}

		addressID := strings.TrimSpace(c.Param("id"))

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		res, err := db.Collection("users").UpdateByID(ctx, userID, bson.M{
			"$pull": bson.M{"addresses": bson.M{"id": addressID}},
			"$set":  bson.M{"updatedAt": time.Now()},
		})
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		if res.ModifiedCount == 0 {
			respondWithError(c, http.StatusNotFound, route, "address not found")
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "address deleted"})
	}
}

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

	"storefront/internal/models"
)

type createProductRequest struct {
	Name        string             `json:"name" binding:"required"`
	Price       float64            `json:"price" binding:"required,gt=0"`
	SaleEnabled bool               `json:"saleEnabled"`
	SalePrice   float64            `json:"salePrice"`
	Sizes       []models.SizeStock `json:"sizes" binding:"required"`
	Colors      []string           `json:"colors"`
	Category    []string           `json:"category"`
	Brand       string             `json:"brand"`
	Description string             `json:"description"`
	Image       string             `json:"image"`
	IsActive    *bool              `json:"isActive"`
}

type updateProductRequest struct {
	Name        *string             `json:"name"`
	Price       *float64            `json:"price"`
	SaleEnabled *bool               `json:"saleEnabled"`
	SalePrice   *float64            `json:"salePrice"`
	Sizes       *[]models.SizeStock `json:"sizes"`
	Colors      *[]string           `json:"colors"`
	Category    *[]string           `json:"category"`
	Brand       *string             `json:"brand"`
	Description *string             `json:"description"`
	Image       *string             `json:"image"`
	IsActive    *bool               `json:"isActive"`
}

func GetAllProducts(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /admin/api/products"
		defer handlePanic(c, route)

		// Admins also see inactive and soft-deleted products.
		findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		cursor, err := db.Collection("products").Find(ctx, bson.M{}, findOptions)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		defer cursor.Close(ctx)

		products, err := decodeProducts(ctx, cursor)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "decode error")
			return
		}

		c.JSON(http.StatusOK, products)
	}
}

func CreateProduct(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /admin/api/products"
		defer handlePanic(c, route)

		var req createProductRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		if err := validateSizes(req.Sizes); err != nil {
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}
		if err := validateSaleFields(req.Price, req.SaleEnabled, req.SalePrice, req.SalePrice > 0); err != nil {
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}

		isActive := true
		if req.IsActive != nil {
			isActive = *req.IsActive
		}

		product := models.Product{
			Name:        strings.TrimSpace(req.Name),
			Price:       req.Price,
			SaleEnabled: req.SaleEnabled,
			SalePrice:   req.SalePrice,
			Sizes:       req.Sizes,
			Colors:      req.Colors,
			Category:    models.StringList(req.Category),
			Brand:       strings.TrimSpace(req.Brand),
			Description: strings.TrimSpace(req.Description),
			Image:       strings.TrimSpace(req.Image),
			IsActive:    isActive,
			CreatedAt:   time.Now(),
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		res, err := db.Collection("products").InsertOne(ctx, product)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		if id, ok := res.InsertedID.(primitive.ObjectID); ok {
			product.ID = id
		}
		finalizeProduct(&product)

		log.Printf("[%s] product %s created", route, product.ID.Hex())
		c.JSON(http.StatusCreated, product)
	}
}

func UpdateProduct(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /admin/api/products/:id"
		defer handlePanic(c, route)

		productID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid id")
			return
		}

		var req updateProductRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var existing models.Product
		err = db.Collection("products").FindOne(ctx, bson.M{
			"_id":       productID,
			"isDeleted": bson.M{"$ne": true},
		}).Decode(&existing)
		if errors.Is(err, mongo.ErrNoDocuments) {
			respondWithError(c, http.StatusNotFound, route, "product not found")
			return
		}
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		sale, err := resolveSaleUpdate(existing.Price, existing.SaleEnabled, existing.SalePrice, saleUpdateInput{
			Price:       req.Price,
			SaleEnabled: req.SaleEnabled,
			SalePrice:   req.SalePrice,
		})
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}

		set := bson.M{}
		if req.Name != nil {
			set["name"] = strings.TrimSpace(*req.Name)
		}
		if req.Price != nil {
			set["price"] = sale.Price
		}
		if sale.SetSaleEnabled {
			set["saleEnabled"] = sale.SaleEnabled
		}
		if sale.SetSalePrice {
			set["salePrice"] = sale.SalePrice
		}
		if req.Sizes != nil {
			if err := validateSizes(*req.Sizes); err != nil {
				respondWithError(c, http.StatusBadRequest, route, err.Error())
				return
			}
			set["sizes"] = *req.Sizes
		}
		if req.Colors != nil {
			set["colors"] = *req.Colors
		}
		if req.Category != nil {
			set["category"] = models.StringList(*req.Category)
		}
		if req.Brand != nil {
			set["brand"] = strings.TrimSpace(*req.Brand)
		}
		if req.Description != nil {
			set["description"] = strings.TrimSpace(*req.Description)
		}
		if req.Image != nil {
			set["image"] = strings.TrimSpace(*req.Image)
		}
		if req.IsActive != nil {
			set["isActive"] = *req.IsActive
		}

		if len(set) == 0 {
			respondWithError(c, http.StatusBadRequest, route, "no fields to update")
			return
		}

		res, err := db.Collection("products").UpdateOne(ctx,
			bson.M{"_id": productID, "isDeleted": bson.M{"$ne": true}},
			bson.M{"$set": set},
		)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		if res.MatchedCount == 0 {
			respondWithError(c, http.StatusNotFound, route, "product not found")
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "product updated"})
	}
}

// DeleteProduct soft-deletes. Orders keep denormalized copies of what they
// sold, so hiding the product never corrupts order history; hard deletion
// would only save a few bytes and break the admin's view of old orders.
func DeleteProduct(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /admin/api/products/:id"
		defer handlePanic(c, route)

		productID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid id")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		now := time.Now()
		res, err := db.Collection("products").UpdateOne(ctx,
			bson.M{"_id": productID, "isDeleted": bson.M{"$ne": true}},
			bson.M{"$set": bson.M{
				"isDeleted": true,
				"deletedAt": now,
				"isActive":  false,
			}},
		)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		if res.MatchedCount == 0 {
			respondWithError(c, http.StatusNotFound, route, "product not found")
			return
		}

		log.Printf("[%s] product %s soft-deleted", route, productID.Hex())
		c.JSON(http.StatusOK, gin.H{"message": "product deleted"})
	}
}

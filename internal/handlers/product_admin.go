package handlers

import (
	"context"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"backend/internal/inventory"
	"backend/internal/models"
)

type productCreateRequest struct {
	Name        string             `json:"name" binding:"required"`
	Category    []string           `json:"category" binding:"required"`
	Description string             `json:"description"`
	Brand       string             `json:"brand"`
	ImageURL    string             `json:"imageUrl"`
	PriceNew    float64            `json:"priceNew" binding:"required,gt=0"`
	PriceOld    float64            `json:"priceOld"`
	Sizes       []models.SizeStock `json:"sizes"`
	Quantity    int                `json:"quantity"`
	IsActive    *bool              `json:"isActive"`
}

type productUpdateRequest struct {
	Name        *string             `json:"name"`
	Category    *[]string           `json:"category"`
	Description *string             `json:"description"`
	Brand       *string             `json:"brand"`
	ImageURL    *string             `json:"imageUrl"`
	PriceNew    *float64            `json:"priceNew"`
	PriceOld    *float64            `json:"priceOld"`
	Sizes       *[]models.SizeStock `json:"sizes"`
	Quantity    *int                `json:"quantity"`
	IsActive    *bool               `json:"isActive"`
}

func normalizeCategories(values []string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0)

	for _, v := range values {
		name := strings.TrimSpace(v)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}

func validateDisplayPrices(priceNew, priceOld float64) string {
	if priceNew <= 0 {
		return "invalid priceNew"
	}
	if priceOld < 0 {
		return "priceOld must be zero or greater"
	}
	if priceOld > 0 && priceOld <= priceNew {
		return "priceOld must be greater than priceNew"
	}
	return ""
}

// GetAllProducts is the admin listing: paginated, searchable, and including
// inactive products.
func GetAllProducts(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /admin/api/products"
		defer handlePanic(c, route)

		page, limit, err := parsePaginationParams(c.Query("page"), c.Query("limit"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}

		filter := bson.M{
			"isDeleted": bson.M{"$ne": true},
		}

		if category := strings.TrimSpace(c.Query("category")); category != "" {
			filter["category"] = bson.M{"$in": []string{category}}
		}

		if search := strings.TrimSpace(c.Query("search")); search != "" {
			filter["$or"] = []bson.M{
				{"name": bson.M{"$regex": search, "$options": "i"}},
				{"brand": bson.M{"$regex": search, "$options": "i"}},
				{"description": bson.M{"$regex": search, "$options": "i"}},
			}
		}

		if isActive := strings.TrimSpace(c.Query("isActive")); isActive != "" {
			filter["isActive"] = strings.EqualFold(isActive, "true")
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		total, err := db.Collection("products").CountDocuments(ctx, filter)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		totalPages := int64(0)
		if total > 0 {
			totalPages = int64(math.Ceil(float64(total) / float64(limit)))
		}

		opts := options.Find().
			SetSkip((page - 1) * limit).
			SetLimit(limit).
			SetSort(bson.D{{Key: "createdAt", Value: -1}})

		cursor, err := db.Collection("products").Find(ctx, filter, opts)
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

		c.JSON(http.StatusOK, gin.H{
			"data": products,
			"pagination": gin.H{
				"page":       page,
				"limit":      limit,
				"total":      total,
				"totalPages": totalPages,
			},
		})
	}
}

// CreateProduct inserts a product. The aggregate quantity is recomputed from
// the sizes array whenever sizes are present; the client-supplied quantity is
// only honored for products without variants.
func CreateProduct(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /admin/api/products"
		defer handlePanic(c, route)

		var req productCreateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid request body")
			return
		}

		if msg := validateDisplayPrices(req.PriceNew, req.PriceOld); msg != "" {
			respondWithError(c, http.StatusBadRequest, route, msg)
			return
		}

		categories := normalizeCategories(req.Category)
		if len(categories) == 0 {
			respondWithError(c, http.StatusBadRequest, route, "category required")
			return
		}

		sizes := inventory.NormalizeSizes(req.Sizes)
		quantity := req.Quantity
		if len(sizes) > 0 {
			quantity = models.SizesTotal(sizes)
		} else if quantity < 0 {
			respondWithError(c, http.StatusBadRequest, route, "quantity must be zero or greater")
			return
		}

		isActive := true
		if req.IsActive != nil {
			isActive = *req.IsActive
		}

		product := models.Product{
			Name:        strings.TrimSpace(req.Name),
			Category:    models.StringList(categories),
			Description: strings.TrimSpace(req.Description),
			Brand:       strings.TrimSpace(req.Brand),
			ImageURL:    strings.TrimSpace(req.ImageURL),
			PriceNew:    req.PriceNew,
			PriceOld:    req.PriceOld,
			Sizes:       sizes,
			Quantity:    quantity,
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

		product.ID = res.InsertedID.(primitive.ObjectID)
		decorateProduct(&product)
		c.JSON(http.StatusCreated, product)
	}
}

// UpdateProduct applies a partial update. When sizes change the aggregate
// quantity is recomputed in the same update; a hand-entered quantity is
// rejected for sized products.
func UpdateProduct(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /admin/api/products/:id"
		defer handlePanic(c, route)

		id, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid id")
			return
		}

		var req productUpdateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid request body")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var existing models.Product
		err = db.Collection("products").FindOne(ctx, bson.M{
			"_id":       id,
			"isDeleted": bson.M{"$ne": true},
		}).Decode(&existing)
		if err == mongo.ErrNoDocuments {
			respondWithError(c, http.StatusNotFound, route, "product not found")
			return
		}
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		updateSet := bson.M{}

		if req.Name != nil {
			name := strings.TrimSpace(*req.Name)
			if name == "" {
				respondWithError(c, http.StatusBadRequest, route, "name required")
				return
			}
			updateSet["name"] = name
		}
		if req.Category != nil {
			categories := normalizeCategories(*req.Category)
			if len(categories) == 0 {
				respondWithError(c, http.StatusBadRequest, route, "category required")
				return
			}
			updateSet["category"] = models.StringList(categories)
		}
		if req.Description != nil {
			updateSet["description"] = strings.TrimSpace(*req.Description)
		}
		if req.Brand != nil {
			updateSet["brand"] = strings.TrimSpace(*req.Brand)
		}
		if req.ImageURL != nil {
			updateSet["imageUrl"] = strings.TrimSpace(*req.ImageURL)
		}

		priceNew := existing.PriceNew
		if req.PriceNew != nil {
			priceNew = *req.PriceNew
		}
		priceOld := existing.PriceOld
		if req.PriceOld != nil {
			priceOld = *req.PriceOld
		}
		if req.PriceNew != nil || req.PriceOld != nil {
			if msg := validateDisplayPrices(priceNew, priceOld); msg != "" {
				respondWithError(c, http.StatusBadRequest, route, msg)
				return
			}
			updateSet["priceNew"] = priceNew
			updateSet["priceOld"] = priceOld
		}

		sized := existing.HasSizes()
		if req.Sizes != nil {
			sizes := inventory.NormalizeSizes(*req.Sizes)
			updateSet["sizes"] = sizes
			updateSet["quantity"] = models.SizesTotal(sizes)
			sized = len(sizes) > 0
		}
		if req.Quantity != nil {
			if sized {
				respondWithError(c, http.StatusBadRequest, route, "quantity is derived from sizes")
				return
			}
			if *req.Quantity < 0 {
				respondWithError(c, http.StatusBadRequest, route, "quantity must be zero or greater")
				return
			}
			updateSet["quantity"] = *req.Quantity
		}
		if req.IsActive != nil {
			updateSet["isActive"] = *req.IsActive
		}

		if len(updateSet) == 0 {
			respondWithError(c, http.StatusBadRequest, route, "no fields to update")
			return
		}

		opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

		var updated models.Product
		err = db.Collection("products").FindOneAndUpdate(
			ctx,
			bson.M{"_id": id, "isDeleted": bson.M{"$ne": true}},
			bson.M{"$set": updateSet},
			opts,
		).Decode(&updated)
		if err == mongo.ErrNoDocuments {
			respondWithError(c, http.StatusNotFound, route, "product not found")
			return
		}
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		decorateProduct(&updated)
		c.JSON(http.StatusOK, updated)
	}
}

// DeleteProduct soft-deletes, keeping the document for order history.
func DeleteProduct(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /admin/api/products/:id"
		defer handlePanic(c, route)

		id, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid id")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		now := time.Now()
		res, err := db.Collection("products").UpdateOne(
			ctx,
			bson.M{"_id": id, "isDeleted": bson.M{"$ne": true}},
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

		c.JSON(http.StatusOK, gin.H{"message": "product deleted"})
	}
}

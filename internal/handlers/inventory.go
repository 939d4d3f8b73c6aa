package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"backend/internal/inventory"
	"backend/internal/models"
)

type adjustStockRequest struct {
	Sizes []models.SizeStock `json:"sizes" binding:"required"`
}

// AdjustStock replaces a product's per-size stock map and returns the
// recomputed aggregate. Used by both the inventory screen and the product
// editor.
func AdjustStock(ledger *inventory.Ledger) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /admin/api/products/:id/stock"
		defer handlePanic(c, route)

		id, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid id")
			return
		}

		var req adjustStockRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid request body")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		updated, err := ledger.Adjust(ctx, id, req.Sizes)
		if err != nil {
			var notFound inventory.ProductNotFoundError
			if errors.As(err, &notFound) {
				respondWithError(c, http.StatusNotFound, route, "product not found")
				return
			}
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		log.Printf("[%s] product %s quantity now %d", route, id.Hex(), updated.Quantity)
		c.JSON(http.StatusOK, gin.H{
			"sizes":    updated.Sizes,
			"quantity": updated.Quantity,
		})
	}
}

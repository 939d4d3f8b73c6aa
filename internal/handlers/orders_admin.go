package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"backend/internal/models"
	"backend/internal/orders"
)

func GetAllOrders(store *orders.MongoStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /admin/api/orders"
		defer handlePanic(c, route)

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		list, err := store.ListAll(ctx)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		c.JSON(http.StatusOK, list)
	}
}

type updateOrderStatusRequest struct {
	OrderStatus   *string `json:"orderStatus"`
	PaymentStatus *string `json:"paymentStatus"`
}

var validOrderStatuses = map[string]bool{
	models.OrderStatusProcessing: true,
	models.OrderStatusShipped:    true,
	models.OrderStatusDelivered:  true,
	models.OrderStatusCancelled:  true,
}

var validPaymentStatuses = map[string]bool{
	models.PaymentStatusPaid:    true,
	models.PaymentStatusPending: true,
}

// UpdateOrderStatus mutates the only order fields the back-office may touch.
func UpdateOrderStatus(store *orders.MongoStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PATCH /admin/api/orders/:id/status"
		defer handlePanic(c, route)

		id, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid id")
			return
		}

		var req updateOrderStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid request body")
			return
		}
		if req.OrderStatus == nil && req.PaymentStatus == nil {
			respondWithError(c, http.StatusBadRequest, route, "no status fields to update")
			return
		}
		if req.OrderStatus != nil && !validOrderStatuses[*req.OrderStatus] {
			respondWithError(c, http.StatusBadRequest, route, "invalid orderStatus")
			return
		}
		if req.PaymentStatus != nil && !validPaymentStatuses[*req.PaymentStatus] {
			respondWithError(c, http.StatusBadRequest, route, "invalid paymentStatus")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		updated, err := store.UpdateStatus(ctx, id, req.OrderStatus, req.PaymentStatus)
		if err != nil {
			if errors.Is(err, orders.ErrOrderMissing) {
				respondWithError(c, http.StatusNotFound, route, "order not found")
				return
			}
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		c.JSON(http.StatusOK, updated)
	}
}

func DeleteOrder(store *orders.MongoStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /admin/api/orders/:id"
		defer handlePanic(c, route)

		id, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid id")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		if err := store.Delete(ctx, id); err != nil {
			if errors.Is(err, orders.ErrOrderMissing) {
				respondWithError(c, http.StatusNotFound, route, "order not found")
				return
			}
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "order deleted"})
	}
}

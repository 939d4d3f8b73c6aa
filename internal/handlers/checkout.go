package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"backend/internal/cart"
	"backend/internal/checkout"
	"backend/internal/inventory"
	"backend/internal/middleware"
	"backend/internal/models"
	"backend/internal/orders"
)

type createOrderRequest struct {
	Items         []models.CartItem      `json:"items"`
	Address       models.ShippingAddress `json:"shippingAddress" binding:"required"`
	PaymentMethod string                 `json:"paymentMethod" binding:"required"`
	CouponCode    string                 `json:"couponCode"`
}

// CreateOrder drives one checkout submission through the assembler. Items
// may come inline or from the session cart; the cart is cleared only after
// the order is confirmed, so any failure leaves it intact for retry.
func CreateOrder(assembler *checkout.Assembler, carts *cart.Store, jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /orders"
		defer handlePanic(c, route)

		var req createOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid request body")
			return
		}

		userID, ok := middleware.UserIDFromHeader(c.GetHeader("Authorization"), jwtSecret)
		if !ok {
			respondWithError(c, http.StatusUnauthorized, route, "unauthorized")
			return
		}

		sessionID := c.GetHeader(cartSessionHeader)
		items := req.Items
		if len(items) == 0 {
			if sessionCart := carts.Get(sessionID); sessionCart != nil {
				items = sessionCart.Snapshot()
			}
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
		defer cancel()

		conf, err := assembler.PlaceOrder(ctx, checkout.Request{
			Items:         items,
			Address:       req.Address,
			PaymentMethod: req.PaymentMethod,
			CouponCode:    req.CouponCode,
			UserID:        userID,
		})
		if err != nil {
			respondCheckoutError(c, route, err)
			return
		}

		if sessionCart := carts.Get(sessionID); sessionCart != nil {
			sessionCart.Clear()
		}

		if userID != nil {
			log.Printf("[%s] order %s created for user %s", route, conf.OrderID.Hex(), userID.Hex())
		} else {
			log.Printf("[%s] guest order %s created", route, conf.OrderID.Hex())
		}

		c.JSON(http.StatusCreated, conf)
	}
}

func respondCheckoutError(c *gin.Context, route string, err error) {
	var insufficient inventory.InsufficientStockError
	if errors.As(err, &insufficient) {
		log.Printf("[%s] returning error %d: %s", route, http.StatusConflict, insufficient.Error())
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{
			"error":     insufficient.Error(),
			"productId": insufficient.ProductID.Hex(),
			"size":      insufficient.Size,
			"available": insufficient.Available,
			"requested": insufficient.Requested,
		})
		return
	}

	var notFound inventory.ProductNotFoundError
	if errors.As(err, &notFound) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "product not found",
			"productId": notFound.ProductID.Hex(),
		})
		return
	}

	var incomplete checkout.AddressIncompleteError
	if errors.As(err, &incomplete) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":   incomplete.Error(),
			"missing": incomplete.Missing,
		})
		return
	}

	if status, message, ok := couponErrorResponse(err); ok {
		respondWithError(c, status, route, message)
		return
	}

	switch {
	case errors.Is(err, checkout.ErrEmptyCart),
		errors.Is(err, checkout.ErrInvalidQuantity),
		errors.Is(err, checkout.ErrInvalidProduct),
		errors.Is(err, checkout.ErrInvalidPayment):
		respondWithError(c, http.StatusBadRequest, route, err.Error())
	default:
		// Infrastructure failure after retries. The assembler has already
		// rolled back any reservations; the order is not placed.
		respondWithError(c, http.StatusInternalServerError, route, "order could not be placed")
	}
}

// GetOrders lists the authenticated user's orders, newest first.
func GetOrders(store *orders.MongoStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /orders"
		defer handlePanic(c, route)

		userID, ok := userIDFromContext(c)
		if !ok {
			respondWithError(c, http.StatusUnauthorized, route, "unauthorized")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		list, err := store.ListByUser(ctx, userID)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		c.JSON(http.StatusOK, list)
	}
}

package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"backend/internal/coupon"
	"backend/internal/models"
)

type validateCouponRequest struct {
	Code     string  `json:"code" binding:"required"`
	Subtotal float64 `json:"subtotal"`
}

// ValidateCoupon is the read-only public check used by the cart drawer.
func ValidateCoupon(validator *coupon.Validator) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /coupons/validate"
		defer handlePanic(c, route)

		var req validateCouponRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid request body")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		applied, err := validator.Validate(ctx, req.Code, req.Subtotal)
		if err != nil {
			status, message, ok := couponErrorResponse(err)
			if !ok {
				respondWithError(c, http.StatusInternalServerError, route, "db error")
				return
			}
			respondWithError(c, status, route, message)
			return
		}

		c.JSON(http.StatusOK, applied)
	}
}

// couponErrorResponse maps the validator's typed errors to user-facing
// responses. The bool is false for infrastructure errors.
func couponErrorResponse(err error) (int, string, bool) {
	var notFound coupon.NotFoundError
	if errors.As(err, &notFound) {
		return http.StatusNotFound, notFound.Error(), true
	}
	var inactive coupon.InactiveError
	if errors.As(err, &inactive) {
		return http.StatusBadRequest, inactive.Error(), true
	}
	var below coupon.BelowMinimumError
	if errors.As(err, &below) {
		return http.StatusBadRequest, below.Error(), true
	}
	return 0, "", false
}

type createCouponRequest struct {
	Code          string  `json:"code" binding:"required"`
	DiscountType  string  `json:"discountType" binding:"required"`
	DiscountValue float64 `json:"discountValue"`
	MinCartValue  float64 `json:"minCartValue"`
	ImageURL      string  `json:"imageUrl"`
	IsActive      *bool   `json:"isActive"`
}

func ListCoupons(store *coupon.MongoStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /admin/api/coupons"
		defer handlePanic(c, route)

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		coupons, err := store.List(ctx)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		c.JSON(http.StatusOK, coupons)
	}
}

func CreateCoupon(store *coupon.MongoStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /admin/api/coupons"
		defer handlePanic(c, route)

		var req createCouponRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid request body")
			return
		}

		isActive := true
		if req.IsActive != nil {
			isActive = *req.IsActive
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		created, err := store.Create(ctx, models.Coupon{
			Code:          req.Code,
			DiscountType:  req.DiscountType,
			DiscountValue: req.DiscountValue,
			MinCartValue:  req.MinCartValue,
			ImageURL:      req.ImageURL,
			IsActive:      isActive,
		})
		if err != nil {
			switch {
			case errors.Is(err, coupon.ErrInvalidCoupon):
				respondWithError(c, http.StatusBadRequest, route, err.Error())
			case errors.Is(err, coupon.ErrCouponExists):
				respondWithError(c, http.StatusConflict, route, err.Error())
			default:
				respondWithError(c, http.StatusInternalServerError, route, "db error")
			}
			return
		}

		c.JSON(http.StatusCreated, created)
	}
}

type setCouponActiveRequest struct {
	IsActive *bool `json:"isActive" binding:"required"`
}

func SetCouponActive(store *coupon.MongoStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PATCH /admin/api/coupons/:id/active"
		defer handlePanic(c, route)

		id, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid id")
			return
		}

		var req setCouponActiveRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, http.StatusBadRequest, route, "isActive required")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		updated, err := store.SetActive(ctx, id, *req.IsActive)
		if err != nil {
			if errors.Is(err, coupon.ErrCouponMissing) {
				respondWithError(c, http.StatusNotFound, route, "coupon not found")
				return
			}
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		c.JSON(http.StatusOK, updated)
	}
}

func DeleteCoupon(store *coupon.MongoStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /admin/api/coupons/:id"
		defer handlePanic(c, route)

		id, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid id")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		if err := store.Delete(ctx, id); err != nil {
			if errors.Is(err, coupon.ErrCouponMissing) {
				respondWithError(c, http.StatusNotFound, route, "coupon not found")
				return
			}
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "coupon deleted"})
	}
}

package pricing

import (
	"math"

	"backend/internal/models"
)

// Quote is the computed price breakdown for a cart. Total is always exactly
// Subtotal - Discount, all three rounded half-up to two decimal places.
type Quote struct {
	Subtotal float64 `json:"subtotal"`
	Discount float64 `json:"discount"`
	Total    float64 `json:"total"`
}

// Calculate derives subtotal, discount and payable total from cart contents
// and an optional validated coupon. discountType is empty when no coupon is
// applied. The discount is clamped to [0, subtotal]; a flat coupon larger
// than the cart never drives the total negative.
func Calculate(items []models.CartItem, discountType string, discountValue float64) Quote {
	subtotal := 0.0
	for _, item := range items {
		subtotal += item.UnitPrice * float64(item.Quantity)
	}
	subtotal = RoundMoney(subtotal)

	discount := 0.0
	switch discountType {
	case models.DiscountTypePercent:
		discount = subtotal * discountValue / 100
	case models.DiscountTypeFlat:
		discount = discountValue
	}

	if discount < 0 {
		discount = 0
	}
	if discount > subtotal {
		discount = subtotal
	}
	discount = RoundMoney(discount)

	return Quote{
		Subtotal: subtotal,
		Discount: discount,
		Total:    RoundMoney(subtotal - discount),
	}
}

// Subtotal computes the pre-discount cart value.
func Subtotal(items []models.CartItem) float64 {
	return Calculate(items, "", 0).Subtotal
}

// RoundMoney rounds a currency amount half-up to two decimal places. Rounding
// happens exactly once, when a quote is computed.
func RoundMoney(v float64) float64 {
	return math.Round(v*100) / 100
}

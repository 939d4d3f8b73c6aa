package pricing

import (
	"testing"

	"backend/internal/models"
)

func cartWorth(subtotal float64) []models.CartItem {
	return []models.CartItem{
		{ProductID: "p1", Title: "Tee", UnitPrice: subtotal, Quantity: 1},
	}
}

func TestCalculateFlatDiscount(t *testing.T) {
	q := Calculate(cartWorth(1000), models.DiscountTypeFlat, 200)
	if q.Subtotal != 1000 || q.Discount != 200 || q.Total != 800 {
		t.Fatalf("expected 1000/200/800, got %+v", q)
	}
}

func TestCalculatePercentDiscountRounding(t *testing.T) {
	q := Calculate(cartWorth(999), models.DiscountTypePercent, 10)
	if q.Discount != 99.9 {
		t.Fatalf("expected discount 99.9, got %v", q.Discount)
	}
	if q.Total != 899.1 {
		t.Fatalf("expected total 899.1, got %v", q.Total)
	}
}

func TestCalculateNoCoupon(t *testing.T) {
	items := []models.CartItem{
		{ProductID: "p1", UnitPrice: 120, Quantity: 2},
		{ProductID: "p2", UnitPrice: 60, Quantity: 1},
	}
	q := Calculate(items, "", 0)
	if q.Subtotal != 300 || q.Discount != 0 || q.Total != 300 {
		t.Fatalf("expected 300/0/300, got %+v", q)
	}
}

func TestCalculateClampsFlatDiscountToSubtotal(t *testing.T) {
	q := Calculate(cartWorth(150), models.DiscountTypeFlat, 500)
	if q.Discount != 150 {
		t.Fatalf("expected discount clamped to 150, got %v", q.Discount)
	}
	if q.Total != 0 {
		t.Fatalf("expected total 0, got %v", q.Total)
	}
}

func TestCalculateNegativeDiscountValueClampedToZero(t *testing.T) {
	q := Calculate(cartWorth(100), models.DiscountTypeFlat, -50)
	if q.Discount != 0 || q.Total != 100 {
		t.Fatalf("expected no discount, got %+v", q)
	}
}

func TestTotalIsSubtotalMinusDiscount(t *testing.T) {
	tests := []struct {
		name          string
		subtotal      float64
		discountType  string
		discountValue float64
	}{
		{"flat small", 49.99, models.DiscountTypeFlat, 5},
		{"percent third", 100, models.DiscountTypePercent, 33},
		{"percent full", 250, models.DiscountTypePercent, 100},
		{"flat exact", 75, models.DiscountTypeFlat, 75},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := Calculate(cartWorth(tt.subtotal), tt.discountType, tt.discountValue)
			if q.Total != RoundMoney(q.Subtotal-q.Discount) {
				t.Fatalf("pricing identity broken: %+v", q)
			}
			if q.Discount < 0 || q.Discount > q.Subtotal {
				t.Fatalf("discount out of bounds: %+v", q)
			}
		})
	}
}

package coupon

import (
	"context"
	"fmt"
	"strings"

	"backend/internal/models"
)

// AppliedCoupon is the result of a successful validation. It carries the
// discount shape only; turning it into a currency amount is pricing's job.
type AppliedCoupon struct {
	Code          string  `json:"code"`
	DiscountType  string  `json:"discountType"`
	DiscountValue float64 `json:"discountValue"`
}

// NotFoundError reports an unknown coupon code.
type NotFoundError struct {
	Code string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("coupon %q not found", e.Code)
}

// InactiveError reports a coupon that exists but has been deactivated.
type InactiveError struct {
	Code string
}

func (e InactiveError) Error() string {
	return fmt.Sprintf("coupon %q is no longer active", e.Code)
}

// BelowMinimumError reports a cart subtotal under the coupon's minimum.
type BelowMinimumError struct {
	Code         string
	MinCartValue float64
	Subtotal     float64
}

func (e BelowMinimumError) Error() string {
	return fmt.Sprintf("coupon %q requires a cart value of at least %.2f", e.Code, e.MinCartValue)
}

//go:generate mockgen -destination=mocks/store.go -package=mocks backend/internal/coupon Store

// Store is the coupon lookup source. FindByCode returns (nil, nil) when no
// coupon matches.
type Store interface {
	FindByCode(ctx context.Context, code string) (*models.Coupon, error)
}

// Validator decides whether a code is usable for a given cart subtotal. It is
// a pure lookup: coupons are reusable and no redemption is recorded.
type Validator struct {
	store Store
}

func NewValidator(store Store) *Validator {
	return &Validator{store: store}
}

// Validate resolves a code against its stored form. Codes are upper-cased
// once, when the admin creates them, so lookups match the stored casing
// exactly.
func (v *Validator) Validate(ctx context.Context, code string, cartSubtotal float64) (AppliedCoupon, error) {
	code = strings.TrimSpace(code)

	c, err := v.store.FindByCode(ctx, code)
	if err != nil {
		return AppliedCoupon{}, err
	}
	if c == nil {
		return AppliedCoupon{}, NotFoundError{Code: code}
	}
	if !c.IsActive {
		return AppliedCoupon{}, InactiveError{Code: c.Code}
	}
	if cartSubtotal < c.MinCartValue {
		return AppliedCoupon{}, BelowMinimumError{
			Code:         c.Code,
			MinCartValue: c.MinCartValue,
			Subtotal:     cartSubtotal,
		}
	}

	return AppliedCoupon{
		Code:          c.Code,
		DiscountType:  c.DiscountType,
		DiscountValue: c.DiscountValue,
	}, nil
}

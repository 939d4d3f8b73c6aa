package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	DiscountTypeFlat    = "flat"
	DiscountTypePercent = "percent"
)

// Coupon defines a persisted discount code. Codes are stored upper-cased and
// are reusable; there is no redemption ledger.
type Coupon struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Code          string             `bson:"code" json:"code"`
	DiscountType  string             `bson:"discountType" json:"discountType"`
	DiscountValue float64            `bson:"discountValue" json:"discountValue"`
	MinCartValue  float64            `bson:"minCartValue" json:"minCartValue"`
	ImageURL      string             `bson:"imageUrl,omitempty" json:"imageUrl,omitempty"`
	IsActive      bool               `bson:"isActive" json:"isActive"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
}

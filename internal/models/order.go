package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	PaymentStatusPaid    = "Paid"
	PaymentStatusPending = "Pending"

	OrderStatusProcessing = "Processing"
	OrderStatusShipped    = "Shipped"
	OrderStatusDelivered  = "Delivered"
	OrderStatusCancelled  = "Cancelled"
)

// OrderItem is an immutable snapshot of one purchased line. Prices are frozen
// at purchase time and never re-read from the live product.
type OrderItem struct {
	ProductID primitive.ObjectID `bson:"productId" json:"productId"`
	Name      string             `bson:"name" json:"name"`
	Image     string             `bson:"image,omitempty" json:"image,omitempty"`
	Size      string             `bson:"size,omitempty" json:"size,omitempty"`
	Quantity  int                `bson:"quantity" json:"quantity"`
	UnitPrice float64            `bson:"unitPrice" json:"unitPrice"`
}

// ShippingAddress carries the six fields required to place an order.
type ShippingAddress struct {
	Name    string `bson:"name" json:"name"`
	Phone   string `bson:"phone" json:"phone"`
	Address string `bson:"address" json:"address"`
	City    string `bson:"city" json:"city"`
	State   string `bson:"state" json:"state"`
	Pincode string `bson:"pincode" json:"pincode"`
}

// Order defines the persisted order document. After creation only
// OrderStatus and PaymentStatus may change.
type Order struct {
	ID              primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	UserID          *primitive.ObjectID `bson:"userId" json:"userId"`
	Items           []OrderItem         `bson:"items" json:"items"`
	ShippingAddress ShippingAddress     `bson:"shippingAddress" json:"shippingAddress"`
	CouponCode      string              `bson:"couponCode,omitempty" json:"couponCode,omitempty"`
	DiscountAmount  float64             `bson:"discountAmount" json:"discountAmount"`
	TotalAmount     float64             `bson:"totalAmount" json:"totalAmount"`
	PaymentMethod   string              `bson:"paymentMethod" json:"paymentMethod"`
	PaymentStatus   string              `bson:"paymentStatus" json:"paymentStatus"`
	OrderStatus     string              `bson:"orderStatus" json:"orderStatus"`
	CreatedAt       time.Time           `bson:"createdAt" json:"createdAt"`
}

package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SizeStock is one sellable variant of a product with its own stock count.
type SizeStock struct {
	Size  string `bson:"size" json:"size"`
	Stock int    `bson:"stock" json:"stock"`
}

type Product struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string             `bson:"name" json:"name"`
	Category    StringList         `bson:"category" json:"category"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	Brand       string             `bson:"brand,omitempty" json:"brand,omitempty"`
	ImageURL    string             `bson:"imageUrl,omitempty" json:"imageUrl,omitempty"`
	PriceNew    float64            `bson:"priceNew" json:"priceNew"`
	PriceOld    float64            `bson:"priceOld,omitempty" json:"priceOld,omitempty"`
	OnSale      bool               `bson:"-" json:"onSale"`
	Sizes       []SizeStock        `bson:"sizes" json:"sizes"`
	Quantity    int                `bson:"quantity" json:"quantity"`
	InStock     bool               `bson:"-" json:"inStock"`
	IsActive    bool               `bson:"isActive" json:"isActive"`
	IsDeleted   bool               `bson:"isDeleted" json:"isDeleted,omitempty"`
	DeletedAt   *time.Time         `bson:"deletedAt,omitempty" json:"deletedAt,omitempty"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
}

// SizesTotal sums per-size stock. For products with variants the aggregate
// quantity field must always equal this value.
func SizesTotal(sizes []SizeStock) int {
	total := 0
	for _, s := range sizes {
		total += s.Stock
	}
	return total
}

// HasSizes reports whether stock is tracked per size rather than on the
// product-level quantity counter.
func (p Product) HasSizes() bool {
	return len(p.Sizes) > 0
}

package inventory

import (
	"context"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"backend/internal/models"
)

// InsufficientStockError reports a reservation that could not be satisfied.
// It is a recoverable, user-facing condition carrying the short size.
type InsufficientStockError struct {
	ProductID primitive.ObjectID
	Size      string
	Available int
	Requested int
}

func (e InsufficientStockError) Error() string {
	if e.Size == "" {
		return fmt.Sprintf("only %d left, %d requested", e.Available, e.Requested)
	}
	return fmt.Sprintf("only %d left in size %s, %d requested", e.Available, e.Size, e.Requested)
}

// ProductNotFoundError reports a reservation against a missing, deleted or
// inactive product.
type ProductNotFoundError struct {
	ProductID primitive.ObjectID
}

func (e ProductNotFoundError) Error() string {
	return fmt.Sprintf("product %s not found", e.ProductID.Hex())
}

// Ledger is the single source of truth for sellable stock. Every decrement
// happens as one conditional update so concurrent checkouts can never drive a
// stock count negative.
type Ledger struct {
	db *mongo.Database
}

func NewLedger(db *mongo.Database) *Ledger {
	return &Ledger{db: db}
}

func liveProductFilter(productID primitive.ObjectID) bson.M {
	return bson.M{
		"_id":       productID,
		"isDeleted": bson.M{"$ne": true},
		"isActive":  bson.M{"$ne": false},
	}
}

// Product returns a live product for order assembly (price/name/image
// snapshotting). Deleted and inactive products are invisible here.
func (l *Ledger) Product(ctx context.Context, productID primitive.ObjectID) (models.Product, error) {
	var p models.Product
	err := l.db.Collection("products").FindOne(ctx, liveProductFilter(productID)).Decode(&p)
	if err == mongo.ErrNoDocuments {
		return models.Product{}, ProductNotFoundError{ProductID: productID}
	}
	if err != nil {
		return models.Product{}, err
	}
	p.InStock = p.Quantity > 0
	p.OnSale = p.PriceOld > p.PriceNew && p.PriceOld > 0
	return p, nil
}

// GetStock returns the size-specific stock when size is non-empty, otherwise
// the product-level quantity.
func (l *Ledger) GetStock(ctx context.Context, productID primitive.ObjectID, size string) (int, error) {
	p, err := l.Product(ctx, productID)
	if err != nil {
		return 0, err
	}
	if size == "" {
		return p.Quantity, nil
	}
	for _, s := range p.Sizes {
		if s.Size == size {
			return s.Stock, nil
		}
	}
	return 0, nil
}

// Reserve atomically checks stock >= qty and decrements it in one update.
// For sized products the matched size entry and the aggregate quantity are
// decremented together, keeping quantity == sum(sizes[].stock). A zero
// MatchedCount means another checkout got there first; the caller gets an
// InsufficientStockError with the stock that remains.
func (l *Ledger) Reserve(ctx context.Context, productID primitive.ObjectID, size string, qty int) error {
	if qty <= 0 {
		return fmt.Errorf("reserve quantity must be positive, got %d", qty)
	}

	filter := liveProductFilter(productID)
	var update bson.M

	if size != "" {
		filter["sizes"] = bson.M{"$elemMatch": bson.M{
			"size":  size,
			"stock": bson.M{"$gte": qty},
		}}
		update = bson.M{"$inc": bson.M{
			"sizes.$.stock": -qty,
			"quantity":      -qty,
		}}
	} else {
		filter["sizes.0"] = bson.M{"$exists": false}
		filter["quantity"] = bson.M{"$gte": qty}
		update = bson.M{"$inc": bson.M{"quantity": -qty}}
	}

	res, err := l.db.Collection("products").UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		available, lookupErr := l.GetStock(ctx, productID, size)
		if lookupErr != nil {
			return lookupErr
		}
		return InsufficientStockError{
			ProductID: productID,
			Size:      size,
			Available: available,
			Requested: qty,
		}
	}
	return nil
}

// Release reverses a reservation after a later checkout step failed. It is
// the compensation half of reserve-all-or-compensate and must never be
// skipped once Reserve has succeeded for a line.
func (l *Ledger) Release(ctx context.Context, productID primitive.ObjectID, size string, qty int) error {
	if qty <= 0 {
		return fmt.Errorf("release quantity must be positive, got %d", qty)
	}

	filter := bson.M{"_id": productID}
	var update bson.M

	if size != "" {
		filter["sizes.size"] = size
		update = bson.M{"$inc": bson.M{
			"sizes.$.stock": qty,
			"quantity":      qty,
		}}
	} else {
		update = bson.M{"$inc": bson.M{"quantity": qty}}
	}

	res, err := l.db.Collection("products").UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ProductNotFoundError{ProductID: productID}
	}
	return nil
}

// Adjust replaces a product's per-size stock map with an admin-entered one.
// Entries are normalized (blank sizes dropped, duplicates merged, negative
// stock clamped to zero) and the aggregate quantity is recomputed in the same
// update, never hand-entered.
func (l *Ledger) Adjust(ctx context.Context, productID primitive.ObjectID, sizes []models.SizeStock) (models.Product, error) {
	normalized := NormalizeSizes(sizes)
	quantity := models.SizesTotal(normalized)

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated models.Product
	err := l.db.Collection("products").FindOneAndUpdate(
		ctx,
		bson.M{"_id": productID, "isDeleted": bson.M{"$ne": true}},
		bson.M{"$set": bson.M{
			"sizes":    normalized,
			"quantity": quantity,
		}},
		opts,
	).Decode(&updated)
	if err == mongo.ErrNoDocuments {
		return models.Product{}, ProductNotFoundError{ProductID: productID}
	}
	if err != nil {
		return models.Product{}, err
	}

	updated.InStock = updated.Quantity > 0
	return updated, nil
}

// NormalizeSizes trims size names, merges duplicate entries, and clamps
// negative stock to zero. The admin stock editor clamps decrements at zero,
// so the ledger does the same on its write path.
func NormalizeSizes(sizes []models.SizeStock) []models.SizeStock {
	seen := map[string]int{}
	out := make([]models.SizeStock, 0, len(sizes))

	for _, s := range sizes {
		name := strings.TrimSpace(s.Size)
		if name == "" {
			continue
		}
		stock := s.Stock
		if stock < 0 {
			stock = 0
		}
		if idx, ok := seen[name]; ok {
			out[idx].Stock += stock
			continue
		}
		seen[name] = len(out)
		out = append(out, models.SizeStock{Size: name, Stock: stock})
	}
	return out
}

package checkout

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"backend/internal/coupon"
	"backend/internal/inventory"
	"backend/internal/models"
	"backend/internal/pricing"
)

var (
	ErrEmptyCart       = errors.New("order must contain at least one item")
	ErrInvalidQuantity = errors.New("quantity must be positive")
	ErrInvalidProduct  = errors.New("invalid product id")
	ErrInvalidPayment  = errors.New("invalid payment method")
	ErrOrderNotPlaced  = errors.New("order could not be placed")
)

// AddressIncompleteError lists the missing shipping address fields.
type AddressIncompleteError struct {
	Missing []string
}

func (e AddressIncompleteError) Error() string {
	return "shipping address incomplete: " + strings.Join(e.Missing, ", ")
}

// Catalog resolves live products for snapshotting name, image and price.
type Catalog interface {
	Product(ctx context.Context, id primitive.ObjectID) (models.Product, error)
}

// StockReserver is the inventory side of checkout: atomic reservation plus
// the compensation call used to undo it.
type StockReserver interface {
	Reserve(ctx context.Context, productID primitive.ObjectID, size string, qty int) error
	Release(ctx context.Context, productID primitive.ObjectID, size string, qty int) error
}

// CouponValidator resolves a code against the coupon store.
type CouponValidator interface {
	Validate(ctx context.Context, code string, cartSubtotal float64) (coupon.AppliedCoupon, error)
}

// OrderStore persists the assembled order.
type OrderStore interface {
	Insert(ctx context.Context, order models.Order) (primitive.ObjectID, error)
}

// Request is one checkout submission.
type Request struct {
	Items         []models.CartItem
	Address       models.ShippingAddress
	PaymentMethod string
	CouponCode    string
	UserID        *primitive.ObjectID
}

// Confirmation is returned to the caller once the order is persisted.
type Confirmation struct {
	OrderID  primitive.ObjectID `json:"orderId"`
	Subtotal float64            `json:"subtotal"`
	Discount float64            `json:"discount"`
	Total    float64            `json:"total"`
}

// Assembler drives a checkout from draft to confirmed: validate address,
// resolve coupon, compute pricing, reserve inventory line by line, persist.
// Any failure after a reservation releases every unit already reserved, so a
// failed order never leaves stock committed.
type Assembler struct {
	catalog     Catalog
	stock       StockReserver
	coupons     CouponValidator
	orders      OrderStore
	maxAttempts int
	backoff     time.Duration
}

func NewAssembler(catalog Catalog, stock StockReserver, coupons CouponValidator, orders OrderStore) *Assembler {
	return &Assembler{
		catalog:     catalog,
		stock:       stock,
		coupons:     coupons,
		orders:      orders,
		maxAttempts: 3,
		backoff:     100 * time.Millisecond,
	}
}

// PlaceOrder validates, prices, reserves and persists one order. From the
// caller's point of view either everything holds (coupon applied, stock
// reserved, order written) or nothing does.
func (a *Assembler) PlaceOrder(ctx context.Context, req Request) (Confirmation, error) {
	if err := validateAddress(req.Address); err != nil {
		return Confirmation{}, err
	}
	if len(req.Items) == 0 {
		return Confirmation{}, ErrEmptyCart
	}
	if req.PaymentMethod != "cod" && req.PaymentMethod != "card" {
		return Confirmation{}, ErrInvalidPayment
	}

	lines, err := a.buildLines(ctx, req.Items)
	if err != nil {
		return Confirmation{}, err
	}

	// Pricing always works from the frozen lines, so a stale or tampered
	// client-side unit price can never change what the customer pays.
	priced := pricedItems(lines)
	subtotal := pricing.Subtotal(priced)

	// An invalid code supplied at submit time blocks the order; only an
	// omitted code means checkout without a discount.
	var applied coupon.AppliedCoupon
	if code := strings.TrimSpace(req.CouponCode); code != "" {
		applied, err = a.coupons.Validate(ctx, code, subtotal)
		if err != nil {
			return Confirmation{}, err
		}
	}

	quote := pricing.Calculate(priced, applied.DiscountType, applied.DiscountValue)

	reserved, err := a.reserveAll(ctx, lines)
	if err != nil {
		a.releaseAll(reserved)
		return Confirmation{}, err
	}

	order := models.Order{
		UserID:          req.UserID,
		Items:           lines,
		ShippingAddress: req.Address,
		CouponCode:      applied.Code,
		DiscountAmount:  quote.Discount,
		TotalAmount:     quote.Total,
		PaymentMethod:   req.PaymentMethod,
		PaymentStatus:   models.PaymentStatusPending,
		OrderStatus:     models.OrderStatusProcessing,
	}

	var orderID primitive.ObjectID
	err = a.withRetry(ctx, func(opCtx context.Context) error {
		id, insertErr := a.orders.Insert(opCtx, order)
		if insertErr != nil {
			return insertErr
		}
		orderID = id
		return nil
	})
	if err != nil {
		// Stock was decremented but the order never materialized. Undo the
		// reservations before reporting failure.
		a.releaseAll(reserved)
		return Confirmation{}, fmt.Errorf("%w: %v", ErrOrderNotPlaced, err)
	}

	return Confirmation{
		OrderID:  orderID,
		Subtotal: quote.Subtotal,
		Discount: quote.Discount,
		Total:    quote.Total,
	}, nil
}

// buildLines resolves each cart line against the live catalog and freezes
// name, image and unit price at purchase time. Client-supplied prices are
// never trusted.
func (a *Assembler) buildLines(ctx context.Context, items []models.CartItem) ([]models.OrderItem, error) {
	lines := make([]models.OrderItem, 0, len(items))
	cache := make(map[primitive.ObjectID]models.Product, len(items))

	for _, item := range items {
		if item.Quantity <= 0 {
			return nil, ErrInvalidQuantity
		}

		productID, err := primitive.ObjectIDFromHex(item.ProductID)
		if err != nil {
			return nil, ErrInvalidProduct
		}

		product, ok := cache[productID]
		if !ok {
			product, err = a.catalog.Product(ctx, productID)
			if err != nil {
				return nil, err
			}
			cache[productID] = product
		}

		if product.HasSizes() && item.Size == "" {
			return nil, fmt.Errorf("size required for product %s", product.Name)
		}

		lines = append(lines, models.OrderItem{
			ProductID: productID,
			Name:      product.Name,
			Image:     product.ImageURL,
			Size:      item.Size,
			Quantity:  item.Quantity,
			UnitPrice: product.PriceNew,
		})
	}
	return lines, nil
}

// reserveAll reserves line by line and returns the lines that succeeded so
// the caller can compensate. A multi-line order is never partially committed:
// the first failing line aborts the whole order.
func (a *Assembler) reserveAll(ctx context.Context, lines []models.OrderItem) ([]models.OrderItem, error) {
	reserved := make([]models.OrderItem, 0, len(lines))

	for _, line := range lines {
		err := a.withRetry(ctx, func(opCtx context.Context) error {
			return a.stock.Reserve(opCtx, line.ProductID, line.Size, line.Quantity)
		})
		if err != nil {
			return reserved, err
		}
		reserved = append(reserved, line)
	}
	return reserved, nil
}

// releaseAll compensates already-reserved lines. It runs on a detached
// context so a caller disconnect mid-checkout cannot orphan a decrement.
func (a *Assembler) releaseAll(reserved []models.OrderItem) {
	if len(reserved) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	for _, line := range reserved {
		if err := a.stock.Release(ctx, line.ProductID, line.Size, line.Quantity); err != nil {
			log.Printf("[CHECKOUT] [ERROR] release failed for product %s size %q qty %d: %v",
				line.ProductID.Hex(), line.Size, line.Quantity, err)
		}
	}
}

// withRetry runs op up to maxAttempts times with linear backoff. Business
// outcomes (insufficient stock, missing product) and context cancellation
// are returned immediately; only infrastructure errors retry.
func (a *Assembler) withRetry(ctx context.Context, op func(context.Context) error) error {
	var err error
	for attempt := 1; attempt <= a.maxAttempts; attempt++ {
		err = op(ctx)
		if err == nil || !isRetryable(err) {
			return err
		}
		if attempt == a.maxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(a.backoff * time.Duration(attempt)):
		}
	}
	return err
}

func isRetryable(err error) bool {
	var insufficient inventory.InsufficientStockError
	if errors.As(err, &insufficient) {
		return false
	}
	var notFound inventory.ProductNotFoundError
	if errors.As(err, &notFound) {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return true
}

func pricedItems(lines []models.OrderItem) []models.CartItem {
	items := make([]models.CartItem, 0, len(lines))
	for _, line := range lines {
		items = append(items, models.CartItem{
			ProductID: line.ProductID.Hex(),
			Title:     line.Name,
			UnitPrice: line.UnitPrice,
			Quantity:  line.Quantity,
			Size:      line.Size,
		})
	}
	return items
}

func validateAddress(addr models.ShippingAddress) error {
	missing := make([]string, 0, 6)

	fields := []struct {
		name  string
		value string
	}{
		{"name", addr.Name},
		{"phone", addr.Phone},
		{"address", addr.Address},
		{"city", addr.City},
		{"state", addr.State},
		{"pincode", addr.Pincode},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}

	if len(missing) > 0 {
		return AddressIncompleteError{Missing: missing}
	}
	return nil
}

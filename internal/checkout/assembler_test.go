package checkout

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"backend/internal/coupon"
	"backend/internal/inventory"
	"backend/internal/models"
)

// fakeLedger mirrors the mongo ledger's contract in memory: reservation is a
// single compare-and-decrement under one lock.
type fakeLedger struct {
	mu       sync.Mutex
	products map[primitive.ObjectID]*models.Product
}

func newFakeLedger(products ...models.Product) *fakeLedger {
	l := &fakeLedger{products: make(map[primitive.ObjectID]*models.Product)}
	for i := range products {
		p := products[i]
		l.products[p.ID] = &p
	}
	return l
}

func (l *fakeLedger) Product(_ context.Context, id primitive.ObjectID) (models.Product, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	p, ok := l.products[id]
	if !ok {
		return models.Product{}, inventory.ProductNotFoundError{ProductID: id}
	}
	return *p, nil
}

func (l *fakeLedger) Reserve(_ context.Context, id primitive.ObjectID, size string, qty int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	p, ok := l.products[id]
	if !ok {
		return inventory.ProductNotFoundError{ProductID: id}
	}

	if size == "" {
		if p.Quantity < qty {
			return inventory.InsufficientStockError{ProductID: id, Available: p.Quantity, Requested: qty}
		}
		p.Quantity -= qty
		return nil
	}

	for i := range p.Sizes {
		if p.Sizes[i].Size != size {
			continue
		}
		if p.Sizes[i].Stock < qty {
			return inventory.InsufficientStockError{ProductID: id, Size: size, Available: p.Sizes[i].Stock, Requested: qty}
		}
		p.Sizes[i].Stock -= qty
		p.Quantity -= qty
		return nil
	}
	return inventory.InsufficientStockError{ProductID: id, Size: size, Available: 0, Requested: qty}
}

func (l *fakeLedger) Release(_ context.Context, id primitive.ObjectID, size string, qty int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	p, ok := l.products[id]
	if !ok {
		return inventory.ProductNotFoundError{ProductID: id}
	}
	if size == "" {
		p.Quantity += qty
		return nil
	}
	for i := range p.Sizes {
		if p.Sizes[i].Size == size {
			p.Sizes[i].Stock += qty
			p.Quantity += qty
			return nil
		}
	}
	return fmt.Errorf("unknown size %q", size)
}

func (l *fakeLedger) stockOf(id primitive.ObjectID, size string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	p := l.products[id]
	if size == "" {
		return p.Quantity
	}
	for _, s := range p.Sizes {
		if s.Size == size {
			return s.Stock
		}
	}
	return -1
}

type fakeOrderStore struct {
	mu       sync.Mutex
	inserted []models.Order
	failWith error
}

func (s *fakeOrderStore) Insert(_ context.Context, order models.Order) (primitive.ObjectID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return primitive.NilObjectID, s.failWith
	}
	order.ID = primitive.NewObjectID()
	s.inserted = append(s.inserted, order)
	return order.ID, nil
}

type stubCoupons struct {
	applied coupon.AppliedCoupon
	err     error
}

func (s stubCoupons) Validate(context.Context, string, float64) (coupon.AppliedCoupon, error) {
	return s.applied, s.err
}

func sizedProduct(name string, price float64, sizes ...models.SizeStock) models.Product {
	return models.Product{
		ID:       primitive.NewObjectID(),
		Name:     name,
		PriceNew: price,
		Sizes:    sizes,
		Quantity: models.SizesTotal(sizes),
		IsActive: true,
	}
}

func validAddress() models.ShippingAddress {
	return models.ShippingAddress{
		Name:    "A Customer",
		Phone:   "5550100",
		Address: "1 Main St",
		City:    "Springfield",
		State:   "ST",
		Pincode: "12345",
	}
}

func cartLine(p models.Product, size string, qty int) models.CartItem {
	return models.CartItem{
		ProductID: p.ID.Hex(),
		Title:     p.Name,
		UnitPrice: p.PriceNew,
		Quantity:  qty,
		Size:      size,
	}
}

func newTestAssembler(ledger *fakeLedger, coupons CouponValidator, store *fakeOrderStore) *Assembler {
	a := NewAssembler(ledger, ledger, coupons, store)
	a.backoff = 0
	return a
}

func TestPlaceOrderAppliesFlatCoupon(t *testing.T) {
	p := sizedProduct("Tee", 1000, models.SizeStock{Size: "M", Stock: 5})
	ledger := newFakeLedger(p)
	store := &fakeOrderStore{}
	coupons := stubCoupons{applied: coupon.AppliedCoupon{
		Code:          "SAVE200",
		DiscountType:  models.DiscountTypeFlat,
		DiscountValue: 200,
	}}

	a := newTestAssembler(ledger, coupons, store)
	conf, err := a.PlaceOrder(context.Background(), Request{
		Items:         []models.CartItem{cartLine(p, "M", 1)},
		Address:       validAddress(),
		PaymentMethod: "cod",
		CouponCode:    "SAVE200",
	})

	require.NoError(t, err)
	assert.Equal(t, 1000.0, conf.Subtotal)
	assert.Equal(t, 200.0, conf.Discount)
	assert.Equal(t, 800.0, conf.Total)
	assert.Equal(t, 4, ledger.stockOf(p.ID, "M"))

	require.Len(t, store.inserted, 1)
	persisted := store.inserted[0]
	assert.Equal(t, "SAVE200", persisted.CouponCode)
	assert.Equal(t, models.PaymentStatusPending, persisted.PaymentStatus)
	assert.Equal(t, models.OrderStatusProcessing, persisted.OrderStatus)
}

func TestPlaceOrderInvalidCouponBlocksOrder(t *testing.T) {
	p := sizedProduct("Tee", 300, models.SizeStock{Size: "M", Stock: 5})
	ledger := newFakeLedger(p)
	store := &fakeOrderStore{}
	coupons := stubCoupons{err: coupon.BelowMinimumError{Code: "SAVE200", MinCartValue: 500, Subtotal: 300}}

	a := newTestAssembler(ledger, coupons, store)
	_, err := a.PlaceOrder(context.Background(), Request{
		Items:         []models.CartItem{cartLine(p, "M", 1)},
		Address:       validAddress(),
		PaymentMethod: "cod",
		CouponCode:    "SAVE200",
	})

	var below coupon.BelowMinimumError
	require.ErrorAs(t, err, &below)
	assert.Empty(t, store.inserted)
	assert.Equal(t, 5, ledger.stockOf(p.ID, "M"), "no stock may move for a blocked order")
}

func TestPlaceOrderOmittedCouponProceedsWithoutDiscount(t *testing.T) {
	p := sizedProduct("Tee", 300, models.SizeStock{Size: "M", Stock: 5})
	ledger := newFakeLedger(p)
	store := &fakeOrderStore{}
	// Validator would fail if consulted; an omitted code must never reach it.
	coupons := stubCoupons{err: errors.New("validator should not be called")}

	a := newTestAssembler(ledger, coupons, store)
	conf, err := a.PlaceOrder(context.Background(), Request{
		Items:         []models.CartItem{cartLine(p, "M", 1)},
		Address:       validAddress(),
		PaymentMethod: "cod",
	})

	require.NoError(t, err)
	assert.Equal(t, 300.0, conf.Total)
	assert.Equal(t, 0.0, conf.Discount)
}

func TestPlaceOrderMixedAvailabilityRollsBackEverything(t *testing.T) {
	inStock := sizedProduct("Tee", 100, models.SizeStock{Size: "M", Stock: 5})
	scarce := sizedProduct("Hoodie", 200, models.SizeStock{Size: "L", Stock: 1})
	ledger := newFakeLedger(inStock, scarce)
	store := &fakeOrderStore{}

	a := newTestAssembler(ledger, stubCoupons{}, store)
	_, err := a.PlaceOrder(context.Background(), Request{
		Items: []models.CartItem{
			cartLine(inStock, "M", 2),
			cartLine(scarce, "L", 3),
		},
		Address:       validAddress(),
		PaymentMethod: "cod",
	})

	var insufficient inventory.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, "L", insufficient.Size)
	assert.Equal(t, 1, insufficient.Available)

	assert.Equal(t, 5, ledger.stockOf(inStock.ID, "M"), "earlier reservation must be compensated")
	assert.Equal(t, 1, ledger.stockOf(scarce.ID, "L"))
	assert.Empty(t, store.inserted)
}

func TestPlaceOrderPersistenceFailureReleasesStock(t *testing.T) {
	p := sizedProduct("Tee", 100, models.SizeStock{Size: "M", Stock: 3})
	ledger := newFakeLedger(p)
	store := &fakeOrderStore{failWith: errors.New("write concern error")}

	a := newTestAssembler(ledger, stubCoupons{}, store)
	_, err := a.PlaceOrder(context.Background(), Request{
		Items:         []models.CartItem{cartLine(p, "M", 2)},
		Address:       validAddress(),
		PaymentMethod: "cod",
	})

	require.ErrorIs(t, err, ErrOrderNotPlaced)
	assert.Equal(t, 3, ledger.stockOf(p.ID, "M"), "never leave stock decremented with no order")
}

func TestPlaceOrderConcurrentCheckoutsForLastUnit(t *testing.T) {
	p := sizedProduct("Tee", 100, models.SizeStock{Size: "M", Stock: 1})
	ledger := newFakeLedger(p)
	store := &fakeOrderStore{}

	a := newTestAssembler(ledger, stubCoupons{}, store)

	var wg sync.WaitGroup
	results := make(chan error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := a.PlaceOrder(context.Background(), Request{
				Items:         []models.CartItem{cartLine(p, "M", 1)},
				Address:       validAddress(),
				PaymentMethod: "cod",
			})
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	succeeded, failed := 0, 0
	for err := range results {
		if err == nil {
			succeeded++
			continue
		}
		var insufficient inventory.InsufficientStockError
		require.ErrorAs(t, err, &insufficient)
		failed++
	}

	assert.Equal(t, 1, succeeded, "exactly one checkout wins the last unit")
	assert.Equal(t, 1, failed)
	assert.Equal(t, 0, ledger.stockOf(p.ID, "M"), "stock ends at 0, never -1")
	assert.Len(t, store.inserted, 1)
}

func TestPlaceOrderAddressIncomplete(t *testing.T) {
	p := sizedProduct("Tee", 100, models.SizeStock{Size: "M", Stock: 5})
	a := newTestAssembler(newFakeLedger(p), stubCoupons{}, &fakeOrderStore{})

	addr := validAddress()
	addr.Phone = ""
	addr.Pincode = "  "

	_, err := a.PlaceOrder(context.Background(), Request{
		Items:         []models.CartItem{cartLine(p, "M", 1)},
		Address:       addr,
		PaymentMethod: "cod",
	})

	var incomplete AddressIncompleteError
	require.ErrorAs(t, err, &incomplete)
	assert.ElementsMatch(t, []string{"phone", "pincode"}, incomplete.Missing)
}

func TestPlaceOrderValidationErrors(t *testing.T) {
	p := sizedProduct("Tee", 100, models.SizeStock{Size: "M", Stock: 5})
	a := newTestAssembler(newFakeLedger(p), stubCoupons{}, &fakeOrderStore{})

	tests := []struct {
		name    string
		req     Request
		wantErr error
	}{
		{
			name:    "empty cart",
			req:     Request{Address: validAddress(), PaymentMethod: "cod"},
			wantErr: ErrEmptyCart,
		},
		{
			name: "zero quantity",
			req: Request{
				Items:         []models.CartItem{cartLine(p, "M", 0)},
				Address:       validAddress(),
				PaymentMethod: "cod",
			},
			wantErr: ErrInvalidQuantity,
		},
		{
			name: "bad product id",
			req: Request{
				Items:         []models.CartItem{{ProductID: "not-hex", Quantity: 1}},
				Address:       validAddress(),
				PaymentMethod: "cod",
			},
			wantErr: ErrInvalidProduct,
		},
		{
			name: "unknown payment method",
			req: Request{
				Items:         []models.CartItem{cartLine(p, "M", 1)},
				Address:       validAddress(),
				PaymentMethod: "wire",
			},
			wantErr: ErrInvalidPayment,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := a.PlaceOrder(context.Background(), tt.req)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestPlaceOrderFrozenPriceIgnoresClientPrice(t *testing.T) {
	p := sizedProduct("Tee", 250, models.SizeStock{Size: "M", Stock: 5})
	ledger := newFakeLedger(p)
	store := &fakeOrderStore{}

	a := newTestAssembler(ledger, stubCoupons{}, store)

	tampered := cartLine(p, "M", 2)
	tampered.UnitPrice = 1 // client lies about the price

	conf, err := a.PlaceOrder(context.Background(), Request{
		Items:         []models.CartItem{tampered},
		Address:       validAddress(),
		PaymentMethod: "cod",
	})

	require.NoError(t, err)
	assert.Equal(t, 500.0, conf.Total)
	require.Len(t, store.inserted, 1)
	assert.Equal(t, 250.0, store.inserted[0].Items[0].UnitPrice)
}

func TestPlaceOrderSizeRequiredForSizedProduct(t *testing.T) {
	p := sizedProduct("Tee", 100, models.SizeStock{Size: "M", Stock: 5})
	a := newTestAssembler(newFakeLedger(p), stubCoupons{}, &fakeOrderStore{})

	_, err := a.PlaceOrder(context.Background(), Request{
		Items:         []models.CartItem{cartLine(p, "", 1)},
		Address:       validAddress(),
		PaymentMethod: "cod",
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "size required")
}

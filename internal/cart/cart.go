package cart

import (
	"sync"

	"github.com/google/uuid"

	"backend/internal/models"
)

// Store holds one cart per browsing session. Sessions are identified by an
// opaque id issued on first use; carts never touch storage until checkout.
type Store struct {
	mu    sync.Mutex
	carts map[string]*Cart
}

func NewStore() *Store {
	return &Store{carts: make(map[string]*Cart)}
}

// Get returns the cart for an existing session, or nil when the session is
// unknown.
func (s *Store) Get(sessionID string) *Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.carts[sessionID]
}

// GetOrCreate returns the session's cart, issuing a fresh session id when
// none is supplied.
func (s *Store) GetOrCreate(sessionID string) (string, *Cart) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	c, ok := s.carts[sessionID]
	if !ok {
		c = &Cart{}
		s.carts[sessionID] = c
	}
	return sessionID, c
}

// Drop discards a session's cart entirely.
func (s *Store) Drop(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts, sessionID)
}

// Cart is a single session's mutable line collection. Lines merge by product
// id; quantities are signed deltas and a line whose quantity falls to zero or
// below is removed.
type Cart struct {
	mu              sync.Mutex
	items           []models.CartItem
	discountPercent float64
}

// Add merges an item into the cart. A zero quantity counts as +1. Sending a
// negative delta large enough to zero out the line removes it, which makes
// the negative-delta path an alias for Remove.
func (c *Cart) Add(item models.CartItem) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delta := item.Quantity
	if delta == 0 {
		delta = 1
	}

	for i := range c.items {
		if c.items[i].ProductID != item.ProductID {
			continue
		}
		c.items[i].Quantity += delta
		if item.Size != "" {
			c.items[i].Size = item.Size
		}
		if c.items[i].Quantity <= 0 {
			c.removeLocked(item.ProductID)
		}
		return
	}

	if delta <= 0 {
		return
	}
	item.Quantity = delta
	c.items = append(c.items, item)
}

// Remove deletes the line for a product entirely.
func (c *Cart) Remove(productID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.removeLocked(productID)
}

func (c *Cart) removeLocked(productID string) {
	kept := c.items[:0]
	for _, item := range c.items {
		if item.ProductID != productID {
			kept = append(kept, item)
		}
	}
	c.items = kept
}

// Clear empties the cart and resets any applied discount percentage.
func (c *Cart) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = nil
	c.discountPercent = 0
}

// SetDiscountPercent records the discount shown in the drawer. Purely
// presentational; checkout recomputes pricing from the validated coupon.
func (c *Cart) SetDiscountPercent(p float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.discountPercent = p
}

func (c *Cart) DiscountPercent() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.discountPercent
}

// Snapshot returns an immutable copy of the cart's lines for checkout.
func (c *Cart) Snapshot() []models.CartItem {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]models.CartItem, len(c.items))
	copy(out, c.items)
	return out
}

// Len reports the number of distinct lines.
func (c *Cart) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

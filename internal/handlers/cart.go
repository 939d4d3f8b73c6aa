package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"backend/internal/cart"
	"backend/internal/models"
)

// Carts live server-side per browsing session. The session id travels in the
// X-Cart-Session header; the first mutating call issues one.
const cartSessionHeader = "X-Cart-Session"

type cartResponse struct {
	SessionID string            `json:"sessionId"`
	Items     []models.CartItem `json:"items"`
}

func respondWithCart(c *gin.Context, sessionID string, items []models.CartItem) {
	c.Header(cartSessionHeader, sessionID)
	c.JSON(http.StatusOK, cartResponse{SessionID: sessionID, Items: items})
}

// GetCart returns the session's cart; an unknown session gets an empty one.
func GetCart(store *cart.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.GetHeader(cartSessionHeader)

		current := store.Get(sessionID)
		if current == nil {
			respondWithCart(c, sessionID, []models.CartItem{})
			return
		}
		respondWithCart(c, sessionID, current.Snapshot())
	}
}

type addCartItemRequest struct {
	ProductID string  `json:"productId" binding:"required"`
	Title     string  `json:"title"`
	UnitPrice float64 `json:"unitPrice"`
	Image     string  `json:"image"`
	Quantity  int     `json:"quantity"`
	Size      string  `json:"size"`
}

// AddCartItem merges a line into the cart. Quantity is a signed delta; a
// negative delta that zeroes the line removes it, same as the DELETE route.
func AddCartItem(store *cart.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /cart/items"
		defer handlePanic(c, route)

		var req addCartItemRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid request body")
			return
		}

		sessionID, current := store.GetOrCreate(c.GetHeader(cartSessionHeader))
		current.Add(models.CartItem{
			ProductID: req.ProductID,
			Title:     req.Title,
			UnitPrice: req.UnitPrice,
			Image:     req.Image,
			Quantity:  req.Quantity,
			Size:      req.Size,
		})

		respondWithCart(c, sessionID, current.Snapshot())
	}
}

// RemoveCartItem deletes a line entirely, the drawer's explicit removal path.
func RemoveCartItem(store *cart.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /cart/items/:productId"
		defer handlePanic(c, route)

		sessionID := c.GetHeader(cartSessionHeader)
		current := store.Get(sessionID)
		if current == nil {
			respondWithCart(c, sessionID, []models.CartItem{})
			return
		}

		current.Remove(c.Param("productId"))
		respondWithCart(c, sessionID, current.Snapshot())
	}
}

// ClearCart empties the session's cart.
func ClearCart(store *cart.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.GetHeader(cartSessionHeader)
		if current := store.Get(sessionID); current != nil {
			current.Clear()
		}
		respondWithCart(c, sessionID, []models.CartItem{})
	}
}

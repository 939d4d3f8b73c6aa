package models

// CartItem is an ephemeral line in a browsing session's cart. Quantity acts
// as a signed delta on mutation and is always positive at rest.
//
// Lines are keyed by ProductID only: adding the same product in a second size
// merges into the existing line and the newest size wins. This mirrors the
// storefront's historical behaviour.
type CartItem struct {
	ProductID string  `json:"productId"`
	Title     string  `json:"title"`
	UnitPrice float64 `json:"unitPrice"`
	Image     string  `json:"image,omitempty"`
	Quantity  int     `json:"quantity"`
	Size      string  `json:"size,omitempty"`
}

package domain

import "encoding/json"

// CartItem is one entry of the cart payload as sent by the storefront.
// Fields stay raw because the storefront is loose about types
// (prices arrive as numbers or strings, quantities may be missing).
type CartItem struct {
	Name     json.RawMessage `json:"name,omitempty"`
	Price    json.RawMessage `json:"price,omitempty"`
	Quantity json.RawMessage `json:"quantity,omitempty"`
	Image    json.RawMessage `json:"image,omitempty"`
}

type Cart struct {
	Items []CartItem
}

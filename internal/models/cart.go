package models

import (
	"github.com/shopspring/decimal"
)

// CartItem is a single product line in a cart snapshot
type CartItem struct {
	ProductID   string  `json:"productId"`
	ProductName string  `json:"productName"`
	Price       float64 `json:"price"`
	Quantity    int     `json:"quantity"`
}

// LineTotal returns price * quantity
func (i CartItem) LineTotal() decimal.Decimal {
	return decimal.NewFromFloat(i.Price).Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Cart is the server-owned shopping cart as seen by one identity
type Cart struct {
	Items []CartItem `json:"items"`
}

// ItemCount returns the sum of all line quantities
func (c Cart) ItemCount() int {
	count := 0
	for _, item := range c.Items {
		count += item.Quantity
	}
	return count
}

// Subtotal returns the sum of all line totals, rounded to cents
func (c Cart) Subtotal() float64 {
	total := decimal.Zero
	for _, item := range c.Items {
		total = total.Add(item.LineTotal())
	}
	f, _ := total.Round(2).Float64()
	return f
}

// Find returns the line for productID, if any
func (c Cart) Find(productID string) (CartItem, bool) {
	for _, item := range c.Items {
		if item.ProductID == productID {
			return item, true
		}
	}
	return CartItem{}, false
}

// Normalize returns a copy that holds at most one line per product and no
// line with a quantity below one. Line order follows first appearance.
func (c Cart) Normalize() Cart {
	items := make([]CartItem, 0, len(c.Items))
	index := make(map[string]int, len(c.Items))
	for _, item := range c.Items {
		if item.Quantity < 1 {
			continue
		}
		if pos, ok := index[item.ProductID]; ok {
			items[pos].Quantity += item.Quantity
			continue
		}
		index[item.ProductID] = len(items)
		items = append(items, item)
	}
	return Cart{Items: items}
}

// CartView is the JSON shape handed to the UI
type CartView struct {
	Items     []CartItem `json:"items"`
	ItemCount int        `json:"itemCount"`
	Subtotal  float64    `json:"subtotal"`
	Loaded    bool       `json:"loaded"`
	Error     string     `json:"error,omitempty"`
	Version   uint64     `json:"version"`
}

// AddToCartRequest is the body of POST /cart/add
type AddToCartRequest struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,min=1"`
}

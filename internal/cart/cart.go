package cart

import (
	"github.com/google/uuid"

	"kantin-kiosk/internal/domain"
)

// Line is one product in the cart with its quantity (always >= 1 while the
// line exists).
type Line struct {
	Product  domain.Product `json:"product"`
	Quantity int           `json:"quantity"`
}

// Cart holds the shopping cart for one kiosk session. At most one line per
// product id; insertion order is preserved. The cart itself is not
// goroutine-safe: the checkout session serializes access.
type Cart struct {
	lines []Line
}

// New returns an empty cart
func New() *Cart {
	return &Cart{}
}

// AddItem adds one unit of the product. If the product is already in the
// cart its quantity is incremented.
func (c *Cart) AddItem(p domain.Product) {
	for i := range c.lines {
		if c.lines[i].Product.ID == p.ID {
			c.lines[i].Quantity++
			return
		}
	}
	c.lines = append(c.lines, Line{Product: p, Quantity: 1})
}

// ChangeQuantity adjusts the quantity of the given product by delta. The
// result is clamped at 0 and a zero-quantity line is removed. Unknown product
// ids are ignored.
func (c *Cart) ChangeQuantity(productID uuid.UUID, delta int) {
	for i := range c.lines {
		if c.lines[i].Product.ID != productID {
			continue
		}
		q := c.lines[i].Quantity + delta
		if q <= 0 {
			c.lines = append(c.lines[:i], c.lines[i+1:]...)
			return
		}
		c.lines[i].Quantity = q
		return
	}
}

// Total returns the cart total: sum of price * quantity over all lines
func (c *Cart) Total() int64 {
	var total int64
	for _, l := range c.lines {
		total += l.Product.Price * int64(l.Quantity)
	}
	return total
}

// ItemCount returns the sum of quantities over all lines
func (c *Cart) ItemCount() int {
	count := 0
	for _, l := range c.lines {
		count += l.Quantity
	}
	return count
}

// Lines returns a copy of the cart lines in insertion order
func (c *Cart) Lines() []Line {
	out := make([]Line, len(c.lines))
	copy(out, c.lines)
	return out
}

// IsEmpty reports whether the cart has no lines
func (c *Cart) IsEmpty() bool {
	return len(c.lines) == 0
}

// Sellers returns the distinct seller ids of the products in the cart, in
// first-appearance order.
func (c *Cart) Sellers() []uuid.UUID {
	var sellers []uuid.UUID
	seen := make(map[uuid.UUID]bool)
	for _, l := range c.lines {
		if !seen[l.Product.SellerID] {
			seen[l.Product.SellerID] = true
			sellers = append(sellers, l.Product.SellerID)
		}
	}
	return sellers
}

// Clear empties the cart. Safe to call on an already empty cart.
func (c *Cart) Clear() {
	c.lines = nil
}

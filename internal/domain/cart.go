package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CartItem is a server-persisted cart row, unique per (user, product).
type CartItem struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	ProductID string    `json:"product_id"`
	Quantity  int       `json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
	Product   *Product  `json:"product,omitempty"`
}

// GuestCartItem is a locally-persisted line of an anonymous visitor's cart.
// It has no product snapshot.
type GuestCartItem struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// CartLine is the common view of a server or guest cart row.
type CartLine struct {
	ID        string   `json:"id"`
	ProductID string   `json:"product_id"`
	Quantity  int      `json:"quantity"`
	Product   *Product `json:"product,omitempty"`
}

func (l CartLine) Subtotal() decimal.Decimal {
	if l.Product == nil {
		return decimal.Zero
	}
	return l.Product.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

type Cart struct {
	UserID  string     `json:"user_id,omitempty"`
	GuestID string     `json:"guest_id,omitempty"`
	Lines   []CartLine `json:"lines"`
}

// Total sums price times quantity over resolved lines; unresolved lines
// contribute zero.
func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range c.Lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

func (c *Cart) ItemCount() int {
	n := 0
	for _, l := range c.Lines {
		n += l.Quantity
	}
	return n
}

func (c *Cart) Empty() bool {
	return len(c.Lines) == 0
}

func LinesFromItems(items []CartItem) []CartLine {
	lines := make([]CartLine, 0, len(items))
	for _, it := range items {
		lines = append(lines, CartLine{
			ID:        it.ID,
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			Product:   it.Product,
		})
	}
	return lines
}

// LinesFromGuest uses the product id as line id, since guest lines have no
// row of their own.
func LinesFromGuest(items []GuestCartItem) []CartLine {
	lines := make([]CartLine, 0, len(items))
	for _, it := range items {
		lines = append(lines, CartLine{
			ID:        it.ProductID,
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
		})
	}
	return lines
}

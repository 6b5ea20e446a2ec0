package checkout

import (
	"strings"

	"github.com/IGSolution/carehappyfarmsdemo/internal/domain"
	"github.com/shopspring/decimal"
)

type Delivery struct {
	Location   domain.Location `json:"location"`
	Address    string          `json:"address"`
	Directions string          `json:"directions,omitempty"`
	Phone      string          `json:"phone"`
}

// Context carries everything one checkout needs. It is built per request
// and never shared between checkouts.
type Context struct {
	Identity      *domain.Identity
	Lines         []domain.CartLine
	Delivery      Delivery
	PaymentMethod domain.PaymentMethod
	// AttemptID resumes an earlier attempt when set.
	AttemptID string
}

// Validate checks the context in the order the buyer sees the messages.
func (c *Context) Validate() error {
	if c.Identity == nil || c.Identity.ID == "" {
		return &ValidationError{Field: "identity", Message: "Please sign in to complete your order"}
	}
	if strings.TrimSpace(c.Delivery.Address) == "" {
		return &ValidationError{Field: "address", Message: "Please enter a delivery address"}
	}
	if strings.TrimSpace(c.Delivery.Phone) == "" {
		return &ValidationError{Field: "phone", Message: "Please enter a phone number"}
	}
	if len(c.Lines) == 0 {
		return &ValidationError{Field: "cart", Message: "Your cart is empty"}
	}
	if !c.Delivery.Location.Valid() {
		return &ValidationError{Field: "location", Message: "Please choose a delivery location"}
	}
	if !c.PaymentMethod.Valid() {
		return &ValidationError{Field: "payment_method", Message: "Please choose a payment method"}
	}
	for _, l := range c.Lines {
		if l.Product == nil {
			return &ValidationError{Field: "cart", Message: "Some items in your cart are no longer available"}
		}
	}
	return nil
}

func (c *Context) Total() decimal.Decimal {
	cart := domain.Cart{Lines: c.Lines}
	return cart.Total()
}

// orderItems snapshots unit price and producer from the loaded products.
func (c *Context) orderItems(orderID string) []domain.OrderItem {
	items := make([]domain.OrderItem, 0, len(c.Lines))
	for _, l := range c.Lines {
		items = append(items, domain.OrderItem{
			OrderID:    orderID,
			ProductID:  l.ProductID,
			ProducerID: l.Product.ProducerID,
			Quantity:   l.Quantity,
			UnitPrice:  l.Product.Price,
		})
	}
	return items
}

package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CheckoutAttempt is the persisted cursor of one checkout saga, keyed by a
// generated attempt id.
type CheckoutAttempt struct {
	ID               string          `json:"id"`
	UserID           string          `json:"user_id"`
	OrderID          string          `json:"order_id,omitempty"`
	Status           CheckoutStatus  `json:"status"`
	PaymentMethod    PaymentMethod   `json:"payment_method"`
	TotalAmount      decimal.Decimal `json:"total_amount"`
	Reference        string          `json:"reference,omitempty"`
	AuthorizationURL string          `json:"authorization_url,omitempty"`
	FailureReason    string          `json:"failure_reason,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// ProducerNotification is the payload sent to a producer about new order
// lines.
type ProducerNotification struct {
	OrderID         string      `json:"order_id"`
	ProducerID      string      `json:"farmer_id"`
	OrderItems      []OrderItem `json:"order_items"`
	CustomerEmail   string      `json:"customer_email"`
	DeliveryAddress string      `json:"delivery_address"`
}

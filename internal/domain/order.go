package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is free text on the backend; these are the values this
// service writes.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusCancelled OrderStatus = "cancelled"
)

type Order struct {
	ID               string          `json:"id"`
	CustomerID       string          `json:"customer_id"`
	TotalAmount      decimal.Decimal `json:"total_amount"`
	DeliveryLocation Location        `json:"delivery_location"`
	DeliveryAddress  string          `json:"delivery_address"`
	PhoneNumber      string          `json:"phone_number"`
	Status           OrderStatus     `json:"status"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// OrderItem snapshots the unit price and producer at order time.
type OrderItem struct {
	ID         string          `json:"id,omitempty"`
	OrderID    string          `json:"order_id"`
	ProductID  string          `json:"product_id"`
	ProducerID string          `json:"farmer_id"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	CreatedAt  *time.Time      `json:"created_at,omitempty"`
	Product    *Product        `json:"product,omitempty"`
}

const additionalDirectionsSeparator = "\n\nAdditional directions: "

// DeliveryAddress embeds optional additional directions into the address.
func DeliveryAddress(address, directions string) string {
	if directions == "" {
		return address
	}
	return address + additionalDirectionsSeparator + directions
}

// GroupByProducer keeps first-seen producer order.
func GroupByProducer(items []OrderItem) ([]string, map[string][]OrderItem) {
	var producers []string
	grouped := make(map[string][]OrderItem)
	for _, it := range items {
		if _, seen := grouped[it.ProducerID]; !seen {
			producers = append(producers, it.ProducerID)
		}
		grouped[it.ProducerID] = append(grouped[it.ProducerID], it)
	}
	return producers, grouped
}

package repository

import (
	"context"

	"github.com/IGSolution/carehappyfarmsdemo/internal/domain"
	"github.com/IGSolution/carehappyfarmsdemo/internal/gateway"
	"github.com/shopspring/decimal"
)

const (
	ordersTable     = "orders"
	orderItemsTable = "order_items"
)

type OrderStore struct {
	client *gateway.Client
}

func NewOrderStore(client *gateway.Client) *OrderStore {
	return &OrderStore{client: client}
}

type orderRow struct {
	CustomerID       string             `json:"customer_id"`
	TotalAmount      decimal.Decimal    `json:"total_amount"`
	DeliveryLocation domain.Location    `json:"delivery_location"`
	DeliveryAddress  string             `json:"delivery_address"`
	PhoneNumber      string             `json:"phone_number"`
	Status           domain.OrderStatus `json:"status"`
}

func (s *OrderStore) CreateOrder(ctx context.Context, order domain.Order) (*domain.Order, error) {
	row := orderRow{
		CustomerID:       order.CustomerID,
		TotalAmount:      order.TotalAmount,
		DeliveryLocation: order.DeliveryLocation,
		DeliveryAddress:  order.DeliveryAddress,
		PhoneNumber:      order.PhoneNumber,
		Status:           order.Status,
	}

	var created []domain.Order
	if err := s.client.From(ordersTable).Insert(ctx, row, &created); err != nil {
		return nil, translate("create order", err)
	}
	if len(created) == 0 || created[0].ID == "" {
		return nil, translate("create order", gateway.ErrMalformedResponse)
	}
	return &created[0], nil
}

type orderItemRow struct {
	OrderID    string          `json:"order_id"`
	ProductID  string          `json:"product_id"`
	ProducerID string          `json:"farmer_id"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
}

// CreateItems inserts all rows in one request, so either every line is
// stored or none is.
func (s *OrderStore) CreateItems(ctx context.Context, items []domain.OrderItem) ([]domain.OrderItem, error) {
	rows := make([]orderItemRow, 0, len(items))
	for _, it := range items {
		rows = append(rows, orderItemRow{
			OrderID:    it.OrderID,
			ProductID:  it.ProductID,
			ProducerID: it.ProducerID,
			Quantity:   it.Quantity,
			UnitPrice:  it.UnitPrice,
		})
	}

	var created []domain.OrderItem
	if err := s.client.From(orderItemsTable).Insert(ctx, rows, &created); err != nil {
		return nil, translate("create order items", err)
	}
	return created, nil
}

func (s *OrderStore) SetStatus(ctx context.Context, orderID string, status domain.OrderStatus) error {
	err := s.client.From(ordersTable).
		Eq("id", orderID).
		Update(ctx, map[string]domain.OrderStatus{"status": status}, nil)
	return translate("set order status", err)
}

func (s *OrderStore) ListItemsForProducer(ctx context.Context, producerID string) ([]domain.OrderItem, error) {
	var items []domain.OrderItem
	err := s.client.From(orderItemsTable).
		Select(withProduct).
		Eq("farmer_id", producerID).
		Order("created_at", false).
		Execute(ctx, &items)
	if err != nil {
		return nil, translate("list producer order items", err)
	}
	return items, nil
}

package repository

import (
	"context"

	"github.com/IGSolution/carehappyfarmsdemo/internal/domain"
	"github.com/IGSolution/carehappyfarmsdemo/internal/gateway"
	"github.com/shopspring/decimal"
)

const productsTable = "products"

type ProductStore struct {
	client *gateway.Client
}

func NewProductStore(client *gateway.Client) *ProductStore {
	return &ProductStore{client: client}
}

// ListAvailable returns available products, newest first. An empty category
// means every category.
func (s *ProductStore) ListAvailable(ctx context.Context, category domain.Category) ([]domain.Product, error) {
	q := s.client.From(productsTable).
		Select("*").
		Eq("is_available", true)
	if category != "" {
		q = q.Eq("category", category)
	}

	var products []domain.Product
	if err := q.Order("created_at", false).Execute(ctx, &products); err != nil {
		return nil, translate("list products", err)
	}
	return products, nil
}

func (s *ProductStore) GetAvailable(ctx context.Context, id string) (*domain.Product, error) {
	var p domain.Product
	err := s.client.From(productsTable).
		Select("*").
		Eq("id", id).
		Eq("is_available", true).
		Single().
		Execute(ctx, &p)
	if err != nil {
		return nil, translate("get product", err)
	}
	return &p, nil
}

func (s *ProductStore) GetByIDs(ctx context.Context, ids []string) ([]domain.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var products []domain.Product
	err := s.client.From(productsTable).
		Select("*").
		In("id", ids).
		Execute(ctx, &products)
	if err != nil {
		return nil, translate("get products", err)
	}
	return products, nil
}

func (s *ProductStore) ListByProducer(ctx context.Context, producerID string) ([]domain.Product, error) {
	var products []domain.Product
	err := s.client.From(productsTable).
		Select("*").
		Eq("farmer_id", producerID).
		Order("created_at", false).
		Execute(ctx, &products)
	if err != nil {
		return nil, translate("list producer products", err)
	}
	return products, nil
}

// GetOwned returns a product of producerID regardless of availability.
func (s *ProductStore) GetOwned(ctx context.Context, producerID, id string) (*domain.Product, error) {
	var p domain.Product
	err := s.client.From(productsTable).
		Select("*").
		Eq("id", id).
		Eq("farmer_id", producerID).
		Single().
		Execute(ctx, &p)
	if err != nil {
		return nil, translate("get owned product", err)
	}
	return &p, nil
}

type productRow struct {
	ProducerID    string          `json:"farmer_id"`
	Name          string          `json:"name"`
	Description   *string         `json:"description"`
	Price         decimal.Decimal `json:"price"`
	Unit          string          `json:"unit"`
	Category      domain.Category `json:"category"`
	StockQuantity int             `json:"stock_quantity"`
	ImageURL      *string         `json:"image_url"`
	IsAvailable   bool            `json:"is_available"`
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func (s *ProductStore) Create(ctx context.Context, producerID string, in domain.ProductInput) (*domain.Product, error) {
	row := productRow{
		ProducerID:    producerID,
		Name:          in.Name,
		Description:   nullable(in.Description),
		Price:         in.Price,
		Unit:          in.Unit,
		Category:      in.Category,
		StockQuantity: in.StockQuantity,
		ImageURL:      nullable(in.ImageURL),
		IsAvailable:   true,
	}

	var created []domain.Product
	if err := s.client.From(productsTable).Insert(ctx, row, &created); err != nil {
		return nil, translate("create product", err)
	}
	if len(created) == 0 {
		return nil, translate("create product", gateway.ErrMalformedResponse)
	}
	return &created[0], nil
}

// Update patches a product owned by producerID. A product owned by someone
// else is reported as not found.
func (s *ProductStore) Update(ctx context.Context, producerID, id string, fields map[string]any) (*domain.Product, error) {
	var updated []domain.Product
	err := s.client.From(productsTable).
		Eq("id", id).
		Eq("farmer_id", producerID).
		Update(ctx, fields, &updated)
	if err != nil {
		return nil, translate("update product", err)
	}
	if len(updated) == 0 {
		return nil, translate("update product", ErrNotFound)
	}
	return &updated[0], nil
}

func (s *ProductStore) Delete(ctx context.Context, producerID, id string) error {
	err := s.client.From(productsTable).
		Eq("id", id).
		Eq("farmer_id", producerID).
		Delete(ctx)
	return translate("delete product", err)
}

package catalog

import (
	"context"
	"errors"
	"strings"

	"github.com/IGSolution/carehappyfarmsdemo/internal/domain"
	"github.com/IGSolution/carehappyfarmsdemo/internal/repository"
)

func validateInput(in domain.ProductInput) error {
	switch {
	case strings.TrimSpace(in.Name) == "":
		return &ValidationError{Field: "name", Message: "name is required"}
	case !in.Price.IsPositive():
		return &ValidationError{Field: "price", Message: "price must be positive"}
	case strings.TrimSpace(in.Unit) == "":
		return &ValidationError{Field: "unit", Message: "unit is required"}
	case !in.Category.Valid():
		return &ValidationError{Field: "category", Message: "unknown category"}
	case in.StockQuantity < 0:
		return &ValidationError{Field: "stock_quantity", Message: "stock cannot be negative"}
	}
	return nil
}

func notFound(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrProductNotFound
	}
	return err
}

func (s *Service) ListProducerProducts(ctx context.Context, producerID string) ([]domain.Product, error) {
	return s.products.ListByProducer(ctx, producerID)
}

// CreateProduct stores a new available product for producerID.
func (s *Service) CreateProduct(ctx context.Context, producerID string, in domain.ProductInput) (*domain.Product, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	return s.products.Create(ctx, producerID, in)
}

func (s *Service) UpdateProduct(ctx context.Context, producerID, id string, in domain.ProductInput) (*domain.Product, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	fields := map[string]any{
		"name":           in.Name,
		"description":    in.Description,
		"price":          in.Price,
		"unit":           in.Unit,
		"category":       in.Category,
		"stock_quantity": in.StockQuantity,
		"image_url":      in.ImageURL,
	}
	p, err := s.products.Update(ctx, producerID, id, fields)
	return p, notFound(err)
}

func (s *Service) DeleteProduct(ctx context.Context, producerID, id string) error {
	if _, err := s.products.GetOwned(ctx, producerID, id); err != nil {
		return notFound(err)
	}
	return s.products.Delete(ctx, producerID, id)
}

func (s *Service) ToggleAvailability(ctx context.Context, producerID, id string) (*domain.Product, error) {
	current, err := s.products.GetOwned(ctx, producerID, id)
	if err != nil {
		return nil, notFound(err)
	}
	p, err := s.products.Update(ctx, producerID, id, map[string]any{"is_available": !current.IsAvailable})
	return p, notFound(err)
}

// ListProducerOrderItems returns order lines sold by producerID, newest
// first.
func (s *Service) ListProducerOrderItems(ctx context.Context, producerID string) ([]domain.OrderItem, error) {
	return s.orders.ListItemsForProducer(ctx, producerID)
}

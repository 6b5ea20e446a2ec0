// Package catalog lists products for shoppers and manages a producer's own
// products.
package catalog

import (
	"context"
	"errors"
	"strings"

	"github.com/IGSolution/carehappyfarmsdemo/internal/domain"
	"github.com/IGSolution/carehappyfarmsdemo/internal/repository"
)

const AllCategories = "all"

type Filter struct {
	Category string
	Search   string
}

type Service struct {
	products repository.ProductRepository
	orders   repository.OrderRepository
}

func NewService(products repository.ProductRepository, orders repository.OrderRepository) *Service {
	return &Service{products: products, orders: orders}
}

// ListProducts returns available products, newest first. Search is a
// case-insensitive substring match over name and description applied after
// the fetch.
func (s *Service) ListProducts(ctx context.Context, f Filter) ([]domain.Product, error) {
	var category domain.Category
	if f.Category != "" && f.Category != AllCategories {
		category = domain.Category(f.Category)
	}

	products, err := s.products.ListAvailable(ctx, category)
	if err != nil {
		return nil, err
	}

	term := strings.ToLower(strings.TrimSpace(f.Search))
	if term == "" {
		return products, nil
	}
	out := products[:0]
	for _, p := range products {
		if matches(p, term) {
			out = append(out, p)
		}
	}
	return out, nil
}

func matches(p domain.Product, term string) bool {
	if strings.Contains(strings.ToLower(p.Name), term) {
		return true
	}
	return p.Description != nil && strings.Contains(strings.ToLower(*p.Description), term)
}

func (s *Service) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	p, err := s.products.GetAvailable(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrProductNotFound
	}
	return p, err
}

// Package cart manages server carts for signed-in users and Redis-backed
// carts for guests.
package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/IGSolution/carehappyfarmsdemo/internal/domain"
	"github.com/IGSolution/carehappyfarmsdemo/internal/repository"
	"github.com/IGSolution/carehappyfarmsdemo/pkg/logger"
	"golang.org/x/sync/singleflight"
)

// ProductLookup resolves guest lines to products.
type ProductLookup interface {
	GetByIDs(ctx context.Context, ids []string) ([]domain.Product, error)
}

type Service struct {
	repo     repository.CartRepository
	cache    Cache
	guests   GuestStore
	products ProductLookup
	sfg      singleflight.Group // Prevents cache stampede
	locks    *keyedMutex
}

func NewService(repo repository.CartRepository, cache Cache, guests GuestStore, products ProductLookup) *Service {
	return &Service{
		repo:     repo,
		cache:    cache,
		guests:   guests,
		products: products,
		locks:    newKeyedMutex(),
	}
}

// GetCart returns the user's server cart with products joined.
func (s *Service) GetCart(ctx context.Context, userID string) (*domain.Cart, error) {
	if userID == "" {
		return nil, ErrMissingOwner
	}

	v, err, _ := s.sfg.Do(userID, func() (interface{}, error) {
		cart, err := s.cache.Get(ctx, userID)
		if err == nil {
			return cart, nil
		}
		if !errors.Is(err, ErrCacheMiss) {
			logger.FromContext(ctx).WithError(err).Warn("cart cache get failed")
		}

		// Mutations invalidate under the same lock, so the cart written
		// below can't outlive a change made after the read.
		unlock := s.locks.Lock(userID)
		defer unlock()

		items, err := s.repo.ListItems(ctx, userID)
		if err != nil {
			return nil, err
		}
		cart = &domain.Cart{UserID: userID, Lines: domain.LinesFromItems(items)}

		if err := s.cache.Set(ctx, userID, cart); err != nil {
			logger.FromContext(ctx).WithError(err).Warn("cart cache set failed")
		}
		return cart, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.Cart), nil
}

// AddToCart increments an existing (user, product) row or inserts one.
func (s *Service) AddToCart(ctx context.Context, userID, productID string, quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	unlock := s.locks.Lock(userID)
	defer unlock()
	defer s.invalidateCache(ctx, userID)

	existing, err := s.repo.FindItem(ctx, userID, productID)
	switch {
	case err == nil:
		return s.repo.UpdateQuantity(ctx, userID, existing.ID, existing.Quantity+quantity)
	case errors.Is(err, repository.ErrNotFound):
		err = s.repo.InsertItem(ctx, userID, productID, quantity)
		if errors.Is(err, repository.ErrDuplicate) {
			// Another instance inserted the row first.
			existing, err = s.repo.FindItem(ctx, userID, productID)
			if err != nil {
				return err
			}
			return s.repo.UpdateQuantity(ctx, userID, existing.ID, existing.Quantity+quantity)
		}
		return err
	default:
		return fmt.Errorf("add to cart: %w", err)
	}
}

// SetQuantity sets a row's quantity; zero or less removes the row.
func (s *Service) SetQuantity(ctx context.Context, userID, itemID string, quantity int) error {
	if quantity <= 0 {
		return s.RemoveItem(ctx, userID, itemID)
	}
	unlock := s.locks.Lock(userID)
	defer unlock()
	defer s.invalidateCache(ctx, userID)

	return s.repo.UpdateQuantity(ctx, userID, itemID, quantity)
}

func (s *Service) RemoveItem(ctx context.Context, userID, itemID string) error {
	unlock := s.locks.Lock(userID)
	defer unlock()
	defer s.invalidateCache(ctx, userID)

	return s.repo.DeleteItem(ctx, userID, itemID)
}

func (s *Service) ClearCart(ctx context.Context, userID string) error {
	unlock := s.locks.Lock(userID)
	defer unlock()
	defer s.invalidateCache(ctx, userID)

	return s.repo.DeleteAll(ctx, userID)
}

// Invalidate drops the cached cart so the next read re-fetches.
func (s *Service) Invalidate(ctx context.Context, userID string) {
	s.invalidateCache(ctx, userID)
}

func (s *Service) invalidateCache(ctx context.Context, userID string) {
	c, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
	defer cancel()
	if err := s.cache.Delete(c, userID); err != nil {
		logger.FromContext(ctx).WithError(err).Warn("cart cache invalidate failed")
	}
}

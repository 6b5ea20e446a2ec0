package cart

import (
	"context"

	"github.com/IGSolution/carehappyfarmsdemo/internal/domain"
	"github.com/IGSolution/carehappyfarmsdemo/pkg/logger"
)

// GetGuestCart returns the guest's lines without products.
func (s *Service) GetGuestCart(ctx context.Context, guestID string) (*domain.Cart, error) {
	if guestID == "" {
		return nil, ErrMissingOwner
	}
	items, err := s.guests.Load(ctx, guestID)
	if err != nil {
		return nil, err
	}
	return &domain.Cart{GuestID: guestID, Lines: domain.LinesFromGuest(items)}, nil
}

func (s *Service) AddToGuestCart(ctx context.Context, guestID, productID string, quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	return s.mutateGuest(ctx, guestID, func(items []domain.GuestCartItem) []domain.GuestCartItem {
		for i := range items {
			if items[i].ProductID == productID {
				items[i].Quantity += quantity
				return items
			}
		}
		return append(items, domain.GuestCartItem{ProductID: productID, Quantity: quantity})
	})
}

// SetGuestQuantity sets a line's quantity; zero or less removes it. Guest
// line ids are product ids.
func (s *Service) SetGuestQuantity(ctx context.Context, guestID, productID string, quantity int) error {
	if quantity <= 0 {
		return s.RemoveGuestItem(ctx, guestID, productID)
	}
	found := false
	err := s.mutateGuest(ctx, guestID, func(items []domain.GuestCartItem) []domain.GuestCartItem {
		for i := range items {
			if items[i].ProductID == productID {
				items[i].Quantity = quantity
				found = true
			}
		}
		return items
	})
	if err != nil {
		return err
	}
	if !found {
		return ErrItemNotFound
	}
	return nil
}

func (s *Service) RemoveGuestItem(ctx context.Context, guestID, productID string) error {
	return s.mutateGuest(ctx, guestID, func(items []domain.GuestCartItem) []domain.GuestCartItem {
		out := items[:0]
		for _, it := range items {
			if it.ProductID != productID {
				out = append(out, it)
			}
		}
		return out
	})
}

func (s *Service) mutateGuest(ctx context.Context, guestID string, fn func([]domain.GuestCartItem) []domain.GuestCartItem) error {
	if guestID == "" {
		return ErrMissingOwner
	}
	unlock := s.locks.Lock("guest:" + guestID)
	defer unlock()

	items, err := s.guests.Load(ctx, guestID)
	if err != nil {
		return err
	}
	return s.guests.Save(ctx, guestID, fn(items))
}

// ResolveGuestCart fills products for the lines it can. Lines whose product
// is gone stay unresolved and count zero toward the total.
func (s *Service) ResolveGuestCart(ctx context.Context, cart *domain.Cart) *domain.Cart {
	if cart == nil || len(cart.Lines) == 0 || s.products == nil {
		return cart
	}

	ids := make([]string, 0, len(cart.Lines))
	for _, l := range cart.Lines {
		ids = append(ids, l.ProductID)
	}
	products, err := s.products.GetByIDs(ctx, ids)
	if err != nil {
		logger.FromContext(ctx).WithError(err).Warn("resolve guest cart failed")
		return cart
	}

	byID := make(map[string]domain.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	resolved := &domain.Cart{GuestID: cart.GuestID, Lines: make([]domain.CartLine, len(cart.Lines))}
	for i, l := range cart.Lines {
		if p, ok := byID[l.ProductID]; ok {
			l.Product = &p
		}
		resolved.Lines[i] = l
	}
	return resolved
}

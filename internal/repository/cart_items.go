package repository

import (
	"context"

	"github.com/IGSolution/carehappyfarmsdemo/internal/domain"
	"github.com/IGSolution/carehappyfarmsdemo/internal/gateway"
)

const (
	cartItemsTable = "cart_items"
	withProduct    = "*,product:products(*)"
)

type CartStore struct {
	client *gateway.Client
}

func NewCartStore(client *gateway.Client) *CartStore {
	return &CartStore{client: client}
}

func (s *CartStore) ListItems(ctx context.Context, userID string) ([]domain.CartItem, error) {
	var items []domain.CartItem
	err := s.client.From(cartItemsTable).
		Select(withProduct).
		Eq("user_id", userID).
		Order("created_at", true).
		Execute(ctx, &items)
	if err != nil {
		return nil, translate("list cart items", err)
	}
	return items, nil
}

// FindItem returns the user's row for productID, or ErrNotFound.
func (s *CartStore) FindItem(ctx context.Context, userID, productID string) (*domain.CartItem, error) {
	var items []domain.CartItem
	err := s.client.From(cartItemsTable).
		Select("*").
		Eq("user_id", userID).
		Eq("product_id", productID).
		Limit(1).
		Execute(ctx, &items)
	if err != nil {
		return nil, translate("find cart item", err)
	}
	if len(items) == 0 {
		return nil, translate("find cart item", ErrNotFound)
	}
	return &items[0], nil
}

func (s *CartStore) InsertItem(ctx context.Context, userID, productID string, quantity int) error {
	row := map[string]any{
		"user_id":    userID,
		"product_id": productID,
		"quantity":   quantity,
	}
	return translate("insert cart item", s.client.From(cartItemsTable).Insert(ctx, row, nil))
}

func (s *CartStore) UpdateQuantity(ctx context.Context, userID, itemID string, quantity int) error {
	err := s.client.From(cartItemsTable).
		Eq("id", itemID).
		Eq("user_id", userID).
		Update(ctx, map[string]int{"quantity": quantity}, nil)
	return translate("update cart item", err)
}

func (s *CartStore) DeleteItem(ctx context.Context, userID, itemID string) error {
	err := s.client.From(cartItemsTable).
		Eq("id", itemID).
		Eq("user_id", userID).
		Delete(ctx)
	return translate("delete cart item", err)
}

func (s *CartStore) DeleteAll(ctx context.Context, userID string) error {
	err := s.client.From(cartItemsTable).Eq("user_id", userID).Delete(ctx)
	return translate("clear cart", err)
}

// Package repository gives typed access to the backend collections. Every
// call runs with whatever access token the context carries.
package repository

import (
	"context"
	"time"

	"github.com/IGSolution/carehappyfarmsdemo/internal/domain"
)

type ProfileRepository interface {
	GetProfile(ctx context.Context, id string) (*domain.Profile, error)
	UpdateProfile(ctx context.Context, id string, patch any) error
}

type ProductRepository interface {
	ListAvailable(ctx context.Context, category domain.Category) ([]domain.Product, error)
	GetAvailable(ctx context.Context, id string) (*domain.Product, error)
	GetByIDs(ctx context.Context, ids []string) ([]domain.Product, error)
	ListByProducer(ctx context.Context, producerID string) ([]domain.Product, error)
	GetOwned(ctx context.Context, producerID, id string) (*domain.Product, error)
	Create(ctx context.Context, producerID string, in domain.ProductInput) (*domain.Product, error)
	Update(ctx context.Context, producerID, id string, fields map[string]any) (*domain.Product, error)
	Delete(ctx context.Context, producerID, id string) error
}

type CartRepository interface {
	ListItems(ctx context.Context, userID string) ([]domain.CartItem, error)
	FindItem(ctx context.Context, userID, productID string) (*domain.CartItem, error)
	InsertItem(ctx context.Context, userID, productID string, quantity int) error
	UpdateQuantity(ctx context.Context, userID, itemID string, quantity int) error
	DeleteItem(ctx context.Context, userID, itemID string) error
	DeleteAll(ctx context.Context, userID string) error
}

type OrderRepository interface {
	CreateOrder(ctx context.Context, order domain.Order) (*domain.Order, error)
	CreateItems(ctx context.Context, items []domain.OrderItem) ([]domain.OrderItem, error)
	SetStatus(ctx context.Context, orderID string, status domain.OrderStatus) error
	ListItemsForProducer(ctx context.Context, producerID string) ([]domain.OrderItem, error)
}

type InvitationRepository interface {
	FindActiveByEmail(ctx context.Context, email string, now time.Time) (*domain.AdminInvitation, error)
	FindByToken(ctx context.Context, token string) (*domain.AdminInvitation, error)
	Create(ctx context.Context, inv domain.AdminInvitation) (*domain.AdminInvitation, error)
	List(ctx context.Context) ([]domain.AdminInvitation, error)
	Delete(ctx context.Context, id string) error
	MarkUsed(ctx context.Context, token string) error
}

package cart

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/IGSolution/carehappyfarmsdemo/internal/domain"
	"github.com/IGSolution/carehappyfarmsdemo/internal/repository"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockCartRepo struct {
	mu        sync.RWMutex
	items     map[string]*domain.CartItem // id -> item
	nextID    int
	listCalls int
	listErr   error
	products  map[string]*domain.Product
}

func newMockCartRepo() *mockCartRepo {
	return &mockCartRepo{
		items:    make(map[string]*domain.CartItem),
		products: make(map[string]*domain.Product),
	}
}

func (m *mockCartRepo) ListItems(ctx context.Context, userID string) ([]domain.CartItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listCalls++
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []domain.CartItem
	for _, it := range m.items {
		if it.UserID == userID {
			cp := *it
			cp.Product = m.products[it.ProductID]
			out = append(out, cp)
		}
	}
	return out, nil
}

func (m *mockCartRepo) FindItem(ctx context.Context, userID, productID string) (*domain.CartItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, it := range m.items {
		if it.UserID == userID && it.ProductID == productID {
			cp := *it
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *mockCartRepo) InsertItem(ctx context.Context, userID, productID string, quantity int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, it := range m.items {
		if it.UserID == userID && it.ProductID == productID {
			return repository.ErrDuplicate
		}
	}
	m.nextID++
	id := fmt.Sprintf("c%d", m.nextID)
	m.items[id] = &domain.CartItem{ID: id, UserID: userID, ProductID: productID, Quantity: quantity}
	return nil
}

func (m *mockCartRepo) UpdateQuantity(ctx context.Context, userID, itemID string, quantity int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.items[itemID]
	if !ok || it.UserID != userID {
		return repository.ErrNotFound
	}
	it.Quantity = quantity
	return nil
}

func (m *mockCartRepo) DeleteItem(ctx context.Context, userID, itemID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if it, ok := m.items[itemID]; ok && it.UserID == userID {
		delete(m.items, itemID)
	}
	return nil
}

func (m *mockCartRepo) DeleteAll(ctx context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, it := range m.items {
		if it.UserID == userID {
			delete(m.items, id)
		}
	}
	return nil
}

func (m *mockCartRepo) quantity(userID, productID string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, it := range m.items {
		if it.UserID == userID && it.ProductID == productID {
			return it.Quantity
		}
	}
	return 0
}

type mockProducts struct {
	products []domain.Product
	err      error
}

func (m *mockProducts) GetByIDs(ctx context.Context, ids []string) ([]domain.Product, error) {
	if m.err != nil {
		return nil, m.err
	}
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var out []domain.Product
	for _, p := range m.products {
		if want[p.ID] {
			out = append(out, p)
		}
	}
	return out, nil
}

type fixture struct {
	svc      *Service
	repo     *mockCartRepo
	products *mockProducts
	mr       *miniredis.Miniredis
}

func setupService(t *testing.T) *fixture {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	repo := newMockCartRepo()
	products := &mockProducts{}
	svc := NewService(repo, NewRedisCache(client), NewRedisGuestStore(client), products)
	return &fixture{svc: svc, repo: repo, products: products, mr: mr}
}

func TestAddToCart_SequentialAddsIncrement(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()

	require.NoError(t, f.svc.AddToCart(ctx, "u1", "p1", 1))
	require.NoError(t, f.svc.AddToCart(ctx, "u1", "p1", 1))

	assert.Equal(t, 2, f.repo.quantity("u1", "p1"))
}

func TestAddToCart_ConcurrentAddsAreSerialized(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, f.svc.AddToCart(ctx, "u1", "p1", 1))
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, f.repo.quantity("u1", "p1"))
}

func TestAddToCart_RejectsNonPositive(t *testing.T) {
	f := setupService(t)
	assert.ErrorIs(t, f.svc.AddToCart(context.Background(), "u1", "p1", 0), ErrInvalidQuantity)
}

func TestGetCart_CachesAndInvalidates(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()
	f.repo.products["p1"] = &domain.Product{ID: "p1", Price: decimal.NewFromInt(300)}
	require.NoError(t, f.svc.AddToCart(ctx, "u1", "p1", 2))

	cart, err := f.svc.GetCart(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(600).Equal(cart.Total()))

	assert.True(t, f.mr.Exists("cart:u1"))

	_, err = f.svc.GetCart(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, f.repo.listCalls)

	require.NoError(t, f.svc.AddToCart(ctx, "u1", "p1", 1))
	assert.False(t, f.mr.Exists("cart:u1"))

	cart, err = f.svc.GetCart(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 3, cart.ItemCount())
	assert.Equal(t, 2, f.repo.listCalls)
}

// slowSetCache holds back cache writes so a mutation can arrive while one
// is pending.
type slowSetCache struct {
	Cache
	delay   time.Duration
	started chan struct{}
	once    sync.Once
}

func (c *slowSetCache) Set(ctx context.Context, userID string, cart *domain.Cart) error {
	c.once.Do(func() { close(c.started) })
	time.Sleep(c.delay)
	return c.Cache.Set(ctx, userID, cart)
}

func TestGetCart_MutationDuringCacheFillIsNotLost(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()
	cache := &slowSetCache{Cache: f.svc.cache, delay: 50 * time.Millisecond, started: make(chan struct{})}
	f.svc.cache = cache

	require.NoError(t, f.svc.AddToCart(ctx, "u1", "p1", 1))

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, err := f.svc.GetCart(ctx, "u1")
		assert.NoError(t, err)
	}()

	<-cache.started
	require.NoError(t, f.svc.AddToCart(ctx, "u1", "p2", 1))
	<-done

	cart, err := f.svc.GetCart(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, cart.Lines, 2)
	assert.Equal(t, 2, cart.ItemCount())
}

func TestGetCart_RepoError(t *testing.T) {
	f := setupService(t)
	f.repo.listErr = errors.New("backend down")

	_, err := f.svc.GetCart(context.Background(), "u1")
	assert.Error(t, err)
}

func TestSetQuantity_ZeroRemoves(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()
	require.NoError(t, f.svc.AddToCart(ctx, "u1", "p1", 3))
	item, err := f.repo.FindItem(ctx, "u1", "p1")
	require.NoError(t, err)

	require.NoError(t, f.svc.SetQuantity(ctx, "u1", item.ID, 5))
	assert.Equal(t, 5, f.repo.quantity("u1", "p1"))

	require.NoError(t, f.svc.SetQuantity(ctx, "u1", item.ID, 0))
	_, err = f.repo.FindItem(ctx, "u1", "p1")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestClearCart(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()
	require.NoError(t, f.svc.AddToCart(ctx, "u1", "p1", 1))
	require.NoError(t, f.svc.AddToCart(ctx, "u1", "p2", 1))
	require.NoError(t, f.svc.AddToCart(ctx, "u2", "p1", 1))

	require.NoError(t, f.svc.ClearCart(ctx, "u1"))

	cart, err := f.svc.GetCart(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, cart.Empty())
	assert.Equal(t, 1, f.repo.quantity("u2", "p1"))
}

func TestGuestCart_AddSetRemove(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()

	require.NoError(t, f.svc.AddToGuestCart(ctx, "g1", "p1", 1))
	require.NoError(t, f.svc.AddToGuestCart(ctx, "g1", "p1", 2))
	require.NoError(t, f.svc.AddToGuestCart(ctx, "g1", "p2", 1))

	cart, err := f.svc.GetGuestCart(ctx, "g1")
	require.NoError(t, err)
	require.Len(t, cart.Lines, 2)
	assert.Equal(t, 4, cart.ItemCount())
	assert.Nil(t, cart.Lines[0].Product)

	ttl := f.mr.TTL("guest_cart:g1")
	assert.Equal(t, GuestCartTTL, ttl)

	require.NoError(t, f.svc.SetGuestQuantity(ctx, "g1", "p1", 7))
	assert.ErrorIs(t, f.svc.SetGuestQuantity(ctx, "g1", "missing", 2), ErrItemNotFound)
	require.NoError(t, f.svc.SetGuestQuantity(ctx, "g1", "p2", 0))

	cart, err = f.svc.GetGuestCart(ctx, "g1")
	require.NoError(t, err)
	require.Len(t, cart.Lines, 1)
	assert.Equal(t, "p1", cart.Lines[0].ID)
	assert.Equal(t, 7, cart.Lines[0].Quantity)

	require.NoError(t, f.svc.RemoveGuestItem(ctx, "g1", "p1"))
	assert.False(t, f.mr.Exists("guest_cart:g1"))
}

func TestGuestCart_CorruptEntryIsEmpty(t *testing.T) {
	f := setupService(t)
	f.mr.Set("guest_cart:g1", "{not json")

	cart, err := f.svc.GetGuestCart(context.Background(), "g1")
	require.NoError(t, err)
	assert.True(t, cart.Empty())
}

func TestResolveGuestCart_PartialResolution(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()
	f.products.products = []domain.Product{{ID: "p1", Price: decimal.NewFromInt(1000)}}

	require.NoError(t, f.svc.AddToGuestCart(ctx, "g1", "p1", 2))
	require.NoError(t, f.svc.AddToGuestCart(ctx, "g1", "gone", 5))

	cart, err := f.svc.GetGuestCart(ctx, "g1")
	require.NoError(t, err)
	resolved := f.svc.ResolveGuestCart(ctx, cart)

	require.NotNil(t, resolved.Lines[0].Product)
	assert.Nil(t, resolved.Lines[1].Product)
	assert.True(t, decimal.NewFromInt(2000).Equal(resolved.Total()))
	assert.Equal(t, 7, resolved.ItemCount())
}

func TestResolveGuestCart_LookupFailureKeepsLines(t *testing.T) {
	f := setupService(t)
	f.products.err = errors.New("offline")
	cart := &domain.Cart{GuestID: "g1", Lines: []domain.CartLine{{ID: "p1", ProductID: "p1", Quantity: 1}}}

	resolved := f.svc.ResolveGuestCart(context.Background(), cart)
	assert.Same(t, cart, resolved)
}

func TestMissingOwner(t *testing.T) {
	f := setupService(t)
	_, err := f.svc.GetCart(context.Background(), "")
	assert.ErrorIs(t, err, ErrMissingOwner)
	_, err = f.svc.GetGuestCart(context.Background(), "")
	assert.ErrorIs(t, err, ErrMissingOwner)
}

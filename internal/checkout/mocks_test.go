package checkout

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/IGSolution/carehappyfarmsdemo/internal/domain"
	"github.com/IGSolution/carehappyfarmsdemo/internal/gateway"
	"github.com/IGSolution/carehappyfarmsdemo/internal/repository"
)

// mockOrders implements repository.OrderRepository in memory.
type mockOrders struct {
	mu     sync.RWMutex
	orders map[string]*domain.Order
	items  []domain.OrderItem
	seq    int

	createOrderErr error
	createItemsErr error
	setStatusErr   error
	createCalls    int
	// beforeSetStatus runs ahead of every status write.
	beforeSetStatus func(orderID string)
}

func newMockOrders() *mockOrders {
	return &mockOrders{orders: make(map[string]*domain.Order)}
}

func (m *mockOrders) CreateOrder(_ context.Context, order domain.Order) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.createCalls++
	if m.createOrderErr != nil {
		return nil, m.createOrderErr
	}
	m.seq++
	order.ID = fmt.Sprintf("order-%d", m.seq)
	m.orders[order.ID] = &order
	created := order
	return &created, nil
}

func (m *mockOrders) CreateItems(_ context.Context, items []domain.OrderItem) ([]domain.OrderItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createItemsErr != nil {
		return nil, m.createItemsErr
	}
	m.items = append(m.items, items...)
	return items, nil
}

func (m *mockOrders) SetStatus(_ context.Context, orderID string, status domain.OrderStatus) error {
	if m.beforeSetStatus != nil {
		m.beforeSetStatus(orderID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.setStatusErr != nil {
		return m.setStatusErr
	}
	o, ok := m.orders[orderID]
	if !ok {
		return repository.ErrNotFound
	}
	o.Status = status
	return nil
}

func (m *mockOrders) ListItemsForProducer(_ context.Context, producerID string) ([]domain.OrderItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []domain.OrderItem
	for _, it := range m.items {
		if it.ProducerID == producerID {
			out = append(out, it)
		}
	}
	return out, nil
}

func (m *mockOrders) order(id string) domain.Order {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return *m.orders[id]
}

func (m *mockOrders) itemsOf(orderID string) []domain.OrderItem {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []domain.OrderItem
	for _, it := range m.items {
		if it.OrderID == orderID {
			out = append(out, it)
		}
	}
	return out
}

func (m *mockOrders) put(order domain.Order) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders[order.ID] = &order
}

type functionCall struct {
	Name string
	Body map[string]any
}

// mockFunctions answers backend function calls with canned bodies.
type mockFunctions struct {
	mu        sync.RWMutex
	responses map[string]string
	errs      map[string]error
	calls     []functionCall
}

func newMockFunctions() *mockFunctions {
	return &mockFunctions{
		responses: map[string]string{
			"initialize-payment":             `{"status":true,"data":{"authorization_url":"https://checkout.paystack.com/abc","access_code":"abc","reference":"ref-1"}}`,
			"initialize-flutterwave-payment": `{"status":true,"data":{"link":"https://checkout.flutterwave.com/xyz"}}`,
			"verify-payment":                 `{"status":true,"data":{"status":"success","reference":"ref-1"}}`,
		},
		errs: make(map[string]error),
	}
}

func (m *mockFunctions) Invoke(_ context.Context, name string, body any) (*gateway.Envelope, error) {
	raw, _ := json.Marshal(body)
	var decoded map[string]any
	_ = json.Unmarshal(raw, &decoded)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, functionCall{Name: name, Body: decoded})
	if err := m.errs[name]; err != nil {
		return nil, err
	}
	return gateway.NewEnvelope(name, []byte(m.responses[name])), nil
}

func (m *mockFunctions) respond(name, body string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[name] = body
}

func (m *mockFunctions) callsTo(name string) []functionCall {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []functionCall
	for _, c := range m.calls {
		if c.Name == name {
			out = append(out, c)
		}
	}
	return out
}

func (m *mockFunctions) total() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.calls)
}

type mockCart struct {
	mu      sync.RWMutex
	cleared []string
	err     error
}

func (m *mockCart) ClearCart(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cleared = append(m.cleared, userID)
	return m.err
}

func (m *mockCart) clearedUsers() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.cleared...)
}

type mockObserver struct {
	mu     sync.RWMutex
	counts map[string]int
}

func newMockObserver() *mockObserver {
	return &mockObserver{counts: make(map[string]int)}
}

func (m *mockObserver) ObserveStep(step, outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counts[step+"/"+outcome]++
}

func (m *mockObserver) count(step, outcome string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.counts[step+"/"+outcome]
}

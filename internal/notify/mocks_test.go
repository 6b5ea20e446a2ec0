package notify

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/IGSolution/carehappyfarmsdemo/internal/checkout/store"
	"github.com/IGSolution/carehappyfarmsdemo/internal/gateway"
	"github.com/segmentio/kafka-go"
	"github.com/streadway/amqp"
)

type mockOutbox struct {
	mu        sync.RWMutex
	events    []*store.OutboxEvent
	processed map[string]bool
	fetchErr  error
	markErr   error
}

func newMockOutbox(events ...*store.OutboxEvent) *mockOutbox {
	return &mockOutbox{events: events, processed: make(map[string]bool)}
}

func (m *mockOutbox) GetUnprocessedEvents(_ context.Context, limit int) ([]*store.OutboxEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.fetchErr != nil {
		return nil, m.fetchErr
	}
	var out []*store.OutboxEvent
	for _, e := range m.events {
		if !m.processed[e.ID] && len(out) < limit {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *mockOutbox) MarkEventAsProcessed(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.markErr != nil {
		return m.markErr
	}
	m.processed[id] = true
	return nil
}

func (m *mockOutbox) isProcessed(id string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.processed[id]
}

type mockPublisher struct {
	mu        sync.RWMutex
	published []string
	failFor   map[string]bool
}

func (m *mockPublisher) Publish(_ context.Context, event *store.OutboxEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failFor[event.ID] {
		return errors.New("broker unavailable")
	}
	m.published = append(m.published, event.ID)
	return nil
}

func (m *mockPublisher) Close() error { return nil }

type mockFunctions struct {
	mu       sync.RWMutex
	response string
	errs     []error
	bodies   []map[string]any
}

func (m *mockFunctions) Invoke(_ context.Context, name string, body any) (*gateway.Envelope, error) {
	raw, _ := json.Marshal(body)
	var decoded map[string]any
	_ = json.Unmarshal(raw, &decoded)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.bodies = append(m.bodies, decoded)
	if len(m.errs) > 0 {
		err := m.errs[0]
		m.errs = m.errs[1:]
		if err != nil {
			return nil, err
		}
	}
	resp := m.response
	if resp == "" {
		resp = `{"success":true}`
	}
	return gateway.NewEnvelope(name, []byte(resp)), nil
}

func (m *mockFunctions) calls() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.bodies)
}

type mockWriter struct {
	mu   sync.RWMutex
	msgs []kafka.Message
	err  error
}

func (m *mockWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.msgs = append(m.msgs, msgs...)
	return nil
}

func (m *mockWriter) Close() error { return nil }

type mockChannel struct {
	mu        sync.RWMutex
	exchange  string
	key       string
	published []amqp.Publishing
	err       error
}

func (m *mockChannel) Publish(exchange, key string, _, _ bool, msg amqp.Publishing) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.exchange, m.key = exchange, key
	m.published = append(m.published, msg)
	return nil
}

func (m *mockChannel) Close() error { return nil }

// mockReader hands out queued messages, then blocks until ctx is done.
type mockReader struct {
	mu        sync.RWMutex
	queue     []kafka.Message
	committed []int64
}

func (m *mockReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	m.mu.Lock()
	if len(m.queue) > 0 {
		msg := m.queue[0]
		m.queue = m.queue[1:]
		m.mu.Unlock()
		return msg, nil
	}
	m.mu.Unlock()
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (m *mockReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, msg := range msgs {
		m.committed = append(m.committed, msg.Offset)
	}
	return nil
}

func (m *mockReader) Close() error { return nil }

func (m *mockReader) commits() []int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]int64(nil), m.committed...)
}

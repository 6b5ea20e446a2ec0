package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/IGSolution/carehappyfarmsdemo/internal/domain"
)

type dialect struct {
	name            string
	dollarParams    bool
	isUniqueViolate func(error) bool
}

// SQLStore implements Store over database/sql for both supported drivers.
type SQLStore struct {
	db      *sql.DB
	dialect dialect
}

// rebind turns ? placeholders into $n for drivers that need it.
func (s *SQLStore) rebind(query string) string {
	if !s.dialect.dollarParams {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

const attemptColumns = `id, user_id, order_id, status, payment_method, total_amount,
	reference, authorization_url, failure_reason, created_at, updated_at`

func (s *SQLStore) CreateAttempt(ctx context.Context, a *domain.CheckoutAttempt) error {
	query := s.rebind(`INSERT INTO checkout_attempts (` + attemptColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)

	_, err := s.db.ExecContext(ctx, query,
		a.ID, a.UserID, a.OrderID, string(a.Status), string(a.PaymentMethod), a.TotalAmount,
		a.Reference, a.AuthorizationURL, a.FailureReason, a.CreatedAt.UTC(), a.UpdatedAt.UTC(),
	)
	if err != nil {
		if s.dialect.isUniqueViolate(err) {
			return ErrDuplicateAttempt
		}
		return fmt.Errorf("failed to insert checkout attempt: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAttempt(row rowScanner) (*domain.CheckoutAttempt, error) {
	var (
		a             domain.CheckoutAttempt
		status        string
		paymentMethod string
	)
	err := row.Scan(
		&a.ID, &a.UserID, &a.OrderID, &status, &paymentMethod, &a.TotalAmount,
		&a.Reference, &a.AuthorizationURL, &a.FailureReason, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	a.Status = domain.CheckoutStatus(status)
	a.PaymentMethod = domain.PaymentMethod(paymentMethod)
	return &a, nil
}

func (s *SQLStore) GetAttempt(ctx context.Context, id string) (*domain.CheckoutAttempt, error) {
	query := s.rebind(`SELECT ` + attemptColumns + ` FROM checkout_attempts WHERE id = ?`)

	a, err := scanAttempt(s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAttemptNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get checkout attempt: %w", err)
	}
	return a, nil
}

func (s *SQLStore) UpdateAttempt(ctx context.Context, a *domain.CheckoutAttempt, expected domain.CheckoutStatus) error {
	query := s.rebind(`UPDATE checkout_attempts
		SET order_id = ?, status = ?, reference = ?, authorization_url = ?, failure_reason = ?, updated_at = ?
		WHERE id = ? AND status = ?`)

	res, err := s.db.ExecContext(ctx, query,
		a.OrderID, string(a.Status), a.Reference, a.AuthorizationURL, a.FailureReason, a.UpdatedAt.UTC(),
		a.ID, string(expected),
	)
	if err != nil {
		return fmt.Errorf("failed to update checkout attempt: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return ErrStaleAttempt
	}
	return nil
}

func (s *SQLStore) ListStaleAttempts(ctx context.Context, statuses []domain.CheckoutStatus, before time.Time, limit int) ([]*domain.CheckoutAttempt, error) {
	if len(statuses) == 0 {
		return nil, nil
	}

	args := make([]any, 0, len(statuses)+2)
	marks := make([]string, 0, len(statuses))
	for _, st := range statuses {
		marks = append(marks, "?")
		args = append(args, string(st))
	}
	args = append(args, before.UTC(), limit)

	query := s.rebind(`SELECT ` + attemptColumns + ` FROM checkout_attempts
		WHERE status IN (` + strings.Join(marks, ", ") + `) AND updated_at < ?
		ORDER BY updated_at
		LIMIT ?`)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query stale attempts: %w", err)
	}
	defer rows.Close()

	var attempts []*domain.CheckoutAttempt
	for rows.Next() {
		a, err := scanAttempt(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attempt: %w", err)
		}
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}

// EnqueueEvents inserts all events in one transaction. Events whose id is
// already stored are skipped.
func (s *SQLStore) EnqueueEvents(ctx context.Context, events []*OutboxEvent) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := s.rebind(`INSERT INTO outbox (id, aggregate_id, event_type, payload, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (id) DO NOTHING`)
	for _, e := range events {
		if _, err := tx.ExecContext(ctx, query, e.ID, e.AggregateID, e.EventType, string(e.Payload), e.CreatedAt.UTC()); err != nil {
			return fmt.Errorf("failed to insert outbox event: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit outbox events: %w", err)
	}
	return nil
}

func (s *SQLStore) GetUnprocessedEvents(ctx context.Context, limit int) ([]*OutboxEvent, error) {
	query := s.rebind(`SELECT id, aggregate_id, event_type, payload, created_at
		FROM outbox
		WHERE processed_at IS NULL
		ORDER BY created_at
		LIMIT ?`)

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query outbox: %w", err)
	}
	defer rows.Close()

	var events []*OutboxEvent
	for rows.Next() {
		var (
			e       OutboxEvent
			payload string
		)
		if err := rows.Scan(&e.ID, &e.AggregateID, &e.EventType, &payload, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan outbox event: %w", err)
		}
		e.Payload = []byte(payload)
		events = append(events, &e)
	}
	return events, rows.Err()
}

func (s *SQLStore) MarkEventAsProcessed(ctx context.Context, id string) error {
	query := s.rebind(`UPDATE outbox SET processed_at = ? WHERE id = ?`)
	if _, err := s.db.ExecContext(ctx, query, time.Now().UTC(), id); err != nil {
		return fmt.Errorf("failed to mark event processed: %w", err)
	}
	return nil
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

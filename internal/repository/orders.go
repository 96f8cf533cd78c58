package repository

import (
	"context"
	"errors"

	"restaurant-orders/internal/domain"
)

var (
	// ErrDuplicateOrder is returned by Create when the order id is already
	// taken. Ids are generated once at ingestion, so hitting this indicates
	// a bug upstream rather than a normal race.
	ErrDuplicateOrder = errors.New("order id already exists")
)

// StatusUpdate carries the fields of an idempotent status upsert. Nil
// pointers leave the stored value untouched, which is how a success-path
// write avoids clearing last_error or resetting retry_count.
type StatusUpdate struct {
	Status     domain.Status
	LastError  *string
	RetryCount *int
}

// OrderStore is the persistence boundary of the pipeline. Every call
// round-trips to the backing store; there is no in-process caching.
type OrderStore interface {
	// Create inserts a new order with status Received.
	Create(ctx context.Context, orderID string, items []domain.OrderItem) (domain.Order, error)

	// UpsertStatus updates the order's status fields, creating a bare
	// record if none exists for the id (defensive recovery path). Repeated
	// identical calls leave the record in the same final state.
	UpsertStatus(ctx context.Context, orderID string, upd StatusUpdate) (domain.Order, error)

	// ListAll returns every order, most recent createdAt first.
	ListAll(ctx context.Context) ([]domain.Order, error)
}

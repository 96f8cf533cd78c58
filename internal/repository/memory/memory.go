// Package memory provides an in-memory OrderStore with the same semantics
// as the Postgres implementation. It backs unit tests and local runs without
// a database.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"restaurant-orders/internal/domain"
	"restaurant-orders/internal/repository"
)

type Store struct {
	// Now supplies timestamps; tests swap it for a fake clock.
	Now func() time.Time

	mu     sync.Mutex
	orders map[string]*domain.Order
	seq    []string
}

func NewStore() *Store {
	return &Store{
		Now:    time.Now,
		orders: make(map[string]*domain.Order),
	}
}

var _ repository.OrderStore = (*Store)(nil)

func (s *Store) Create(_ context.Context, orderID string, items []domain.OrderItem) (domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.orders[orderID]; ok {
		return domain.Order{}, repository.ErrDuplicateOrder
	}

	now := s.Now()
	ord := &domain.Order{
		OrderID:   orderID,
		Items:     append([]domain.OrderItem(nil), items...),
		Status:    domain.StatusReceived,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.orders[orderID] = ord
	s.seq = append(s.seq, orderID)
	return *ord, nil
}

func (s *Store) UpsertStatus(_ context.Context, orderID string, upd repository.StatusUpdate) (domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.Now()
	ord, ok := s.orders[orderID]
	if !ok {
		// defensive recovery path: a status write for an unknown id
		// creates a bare record
		ord = &domain.Order{OrderID: orderID, CreatedAt: now}
		s.orders[orderID] = ord
		s.seq = append(s.seq, orderID)
	}

	ord.Status = upd.Status
	if upd.LastError != nil {
		v := *upd.LastError
		ord.LastError = &v
	}
	if upd.RetryCount != nil {
		ord.RetryCount = *upd.RetryCount
	}
	ord.UpdatedAt = now

	out := *ord
	out.Items = append([]domain.OrderItem(nil), ord.Items...)
	return out, nil
}

func (s *Store) ListAll(_ context.Context) ([]domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.seq) == 0 {
		return nil, nil
	}

	out := make([]domain.Order, 0, len(s.seq))
	for i := len(s.seq) - 1; i >= 0; i-- {
		ord := s.orders[s.seq[i]]
		cp := *ord
		cp.Items = append([]domain.OrderItem(nil), ord.Items...)
		out = append(out, cp)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// Get returns a copy of a single order; test helper.
func (s *Store) Get(orderID string) (domain.Order, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ord, ok := s.orders[orderID]
	if !ok {
		return domain.Order{}, false
	}
	cp := *ord
	cp.Items = append([]domain.OrderItem(nil), ord.Items...)
	return cp, true
}

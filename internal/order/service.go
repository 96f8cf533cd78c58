package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"restaurant-orders/internal/domain"
	"restaurant-orders/internal/repository"
)

var ErrNoItems = errors.New("at least one item is required")

// Publisher hand-off contract; satisfied by publisher.Publisher.
type Publisher interface {
	Publish(ctx context.Context, msg domain.OrderMessage) error
}

type Service struct {
	store repository.OrderStore
	pub   Publisher
	log   *zap.Logger
}

func NewService(store repository.OrderStore, pub Publisher, log *zap.Logger) *Service {
	return &Service{store: store, pub: pub, log: log}
}

// SubmitOrder persists a new order with status Received and hands a copy of
// its id and items to the queue. The call does not return until the publish
// completes, so with the unbounded publisher a caller can block for as long
// as the broker stays unreachable.
func (s *Service) SubmitOrder(ctx context.Context, items []domain.OrderItem) (domain.Order, error) {
	if len(items) == 0 {
		return domain.Order{}, ErrNoItems
	}

	orderID := uuid.NewString()
	ord, err := s.store.Create(ctx, orderID, items)
	if err != nil {
		return domain.Order{}, fmt.Errorf("create order: %w", err)
	}
	s.log.Info("order created", zap.String("order_id", orderID))

	msg := domain.OrderMessage{ID: orderID, Items: items}
	if err := s.pub.Publish(ctx, msg); err != nil {
		return domain.Order{}, fmt.Errorf("publish order %s: %w", orderID, err)
	}
	return ord, nil
}

func (s *Service) ListOrders(ctx context.Context) ([]domain.Order, error) {
	return s.store.ListAll(ctx)
}

package order_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"restaurant-orders/internal/domain"
	"restaurant-orders/internal/order"
	"restaurant-orders/internal/repository/memory"
)

type fakePublisher struct {
	mu   sync.Mutex
	msgs []domain.OrderMessage
	err  error
}

func (p *fakePublisher) Publish(_ context.Context, msg domain.OrderMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.msgs = append(p.msgs, msg)
	return nil
}

func TestSubmitOrder_PersistsThenPublishes(t *testing.T) {
	store := memory.NewStore()
	pub := &fakePublisher{}
	svc := order.NewService(store, pub, zap.NewNop())

	items := []domain.OrderItem{{Name: "Pizza", Quantity: 2}}
	ord, err := svc.SubmitOrder(context.Background(), items)
	require.NoError(t, err)

	assert.NotEmpty(t, ord.OrderID)
	assert.Equal(t, domain.StatusReceived, ord.Status)
	assert.Equal(t, items, ord.Items)

	require.Len(t, pub.msgs, 1)
	assert.Equal(t, domain.OrderMessage{ID: ord.OrderID, Items: items}, pub.msgs[0])
}

func TestSubmitOrder_GeneratesUniqueIDs(t *testing.T) {
	store := memory.NewStore()
	svc := order.NewService(store, &fakePublisher{}, zap.NewNop())

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		ord, err := svc.SubmitOrder(context.Background(), []domain.OrderItem{{Name: "Tea", Quantity: 1}})
		require.NoError(t, err)
		require.False(t, seen[ord.OrderID], "order id %s reused", ord.OrderID)
		seen[ord.OrderID] = true
	}
}

func TestSubmitOrder_RejectsEmptyItems(t *testing.T) {
	svc := order.NewService(memory.NewStore(), &fakePublisher{}, zap.NewNop())

	_, err := svc.SubmitOrder(context.Background(), nil)
	require.ErrorIs(t, err, order.ErrNoItems)
}

func TestSubmitOrder_PublishFailureSurfaces(t *testing.T) {
	store := memory.NewStore()
	pub := &fakePublisher{err: errors.New("attempts exhausted")}
	svc := order.NewService(store, pub, zap.NewNop())

	_, err := svc.SubmitOrder(context.Background(), []domain.OrderItem{{Name: "Tea", Quantity: 1}})
	require.Error(t, err)

	// the order is already persisted by the time publish fails
	orders, lerr := store.ListAll(context.Background())
	require.NoError(t, lerr)
	assert.Len(t, orders, 1)
}

package domain_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"restaurant-orders/internal/domain"
)

func TestStatus_Valid(t *testing.T) {
	for _, s := range []domain.Status{
		domain.StatusReceived,
		domain.StatusInQueue,
		domain.StatusPreparing,
		domain.StatusReady,
		domain.StatusCompleted,
	} {
		assert.True(t, s.Valid(), "%s", s)
	}
	assert.False(t, domain.Status("Cooking").Valid())
	assert.False(t, domain.Status("").Valid())
}

func TestOrderMessage_WireFormat(t *testing.T) {
	msg := domain.OrderMessage{
		ID:    "ord-1",
		Items: []domain.OrderItem{{Name: "Pizza", Quantity: 2}},
	}
	b, err := json.Marshal(msg)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"ord-1","items":[{"name":"Pizza","quantity":2}]}`, string(b))
}

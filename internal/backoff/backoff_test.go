package backoff_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"restaurant-orders/internal/backoff"
)

func TestDelay(t *testing.T) {
	assert.Equal(t, time.Second, backoff.Delay(0))
	assert.Equal(t, 2*time.Second, backoff.Delay(1))
	assert.Equal(t, 4*time.Second, backoff.Delay(2))
	assert.Equal(t, 8*time.Second, backoff.Delay(3))
}

func TestDelay_Clamped(t *testing.T) {
	// very high attempt counts must not overflow into a negative duration
	assert.Positive(t, backoff.Delay(100))
	assert.Equal(t, backoff.Delay(100), backoff.Delay(1000))
	assert.Equal(t, time.Second, backoff.Delay(-5))
}

func TestSleep_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	err := backoff.Sleep(ctx, time.Hour)
	require.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), time.Second)
}

func TestSleep_Elapses(t *testing.T) {
	require.NoError(t, backoff.Sleep(context.Background(), time.Millisecond))
}

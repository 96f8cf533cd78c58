package order_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"restaurant-orders/internal/domain"
	"restaurant-orders/internal/order"
	"restaurant-orders/internal/repository"
	"restaurant-orders/internal/repository/memory"
)

type failingStore struct {
	repository.OrderStore
	err error
}

func (f *failingStore) Create(context.Context, string, []domain.OrderItem) (domain.Order, error) {
	return domain.Order{}, f.err
}

func (f *failingStore) ListAll(context.Context) ([]domain.Order, error) {
	return nil, f.err
}

func newServer(t *testing.T, store repository.OrderStore, pub order.Publisher) *httptest.Server {
	t.Helper()
	handler := order.NewHandler(order.NewService(store, pub, zap.NewNop()), zap.NewNop())
	srv := httptest.NewServer(handler.Routes())
	t.Cleanup(srv.Close)
	return srv
}

func postOrder(t *testing.T, srv *httptest.Server, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(srv.URL+"/orders", "application/json", bytes.NewBufferString(body))
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestCreateOrder_Created(t *testing.T) {
	srv := newServer(t, memory.NewStore(), &fakePublisher{})

	resp := postOrder(t, srv, `{"items":[{"name":"Pizza","quantity":2}]}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var ord domain.Order
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&ord))
	assert.NotEmpty(t, ord.OrderID)
	assert.Equal(t, domain.StatusReceived, ord.Status)
	assert.Equal(t, []domain.OrderItem{{Name: "Pizza", Quantity: 2}}, ord.Items)
	assert.False(t, ord.CreatedAt.IsZero())
}

func TestCreateOrder_InvalidJSON(t *testing.T) {
	srv := newServer(t, memory.NewStore(), &fakePublisher{})

	resp := postOrder(t, srv, `{"items":`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCreateOrder_EmptyItems(t *testing.T) {
	srv := newServer(t, memory.NewStore(), &fakePublisher{})

	resp := postOrder(t, srv, `{"items":[]}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCreateOrder_StoreFailure(t *testing.T) {
	store := &failingStore{OrderStore: memory.NewStore(), err: errors.New("db unreachable")}
	srv := newServer(t, store, &fakePublisher{})

	resp := postOrder(t, srv, `{"items":[{"name":"Pizza","quantity":1}]}`)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestCreateOrder_PublishFailure(t *testing.T) {
	srv := newServer(t, memory.NewStore(), &fakePublisher{err: errors.New("attempts exhausted")})

	// publish failures look exactly like persistence failures to the caller
	resp := postOrder(t, srv, `{"items":[{"name":"Pizza","quantity":1}]}`)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestListOrders_EmptyStoreIs404(t *testing.T) {
	srv := newServer(t, memory.NewStore(), &fakePublisher{})

	resp, err := http.Get(srv.URL + "/bulkorders")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "Order not found", body["error"])
}

func TestListOrders_AfterSubmission(t *testing.T) {
	srv := newServer(t, memory.NewStore(), &fakePublisher{})

	postOrder(t, srv, `{"items":[{"name":"Pizza","quantity":2}]}`)

	resp, err := http.Get(srv.URL + "/bulkorders")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json"))

	var orders []domain.Order
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&orders))
	require.Len(t, orders, 1)
	assert.Equal(t, domain.StatusReceived, orders[0].Status)
}

func TestListOrders_MostRecentFirst(t *testing.T) {
	store := memory.NewStore()
	clock := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	store.Now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}
	srv := newServer(t, store, &fakePublisher{})

	postOrder(t, srv, `{"items":[{"name":"First","quantity":1}]}`)
	postOrder(t, srv, `{"items":[{"name":"Second","quantity":1}]}`)

	resp, err := http.Get(srv.URL + "/bulkorders")
	require.NoError(t, err)
	defer resp.Body.Close()

	var orders []domain.Order
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&orders))
	require.Len(t, orders, 2)
	assert.Equal(t, "Second", orders[0].Items[0].Name)
	assert.Equal(t, "First", orders[1].Items[0].Name)
}

func TestListOrders_StoreFailure(t *testing.T) {
	store := &failingStore{OrderStore: memory.NewStore(), err: errors.New("db unreachable")}
	srv := newServer(t, store, &fakePublisher{})

	resp, err := http.Get(srv.URL + "/bulkorders")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

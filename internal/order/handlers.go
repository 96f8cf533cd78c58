package order

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"restaurant-orders/internal/domain"
)

type Handler struct {
	svc *Service
	log *zap.Logger
}

func NewHandler(svc *Service, log *zap.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Post("/orders", h.CreateOrder)
	r.Get("/bulkorders", h.ListOrders)
	return r
}

type createOrderRequest struct {
	Items []domain.OrderItem `json:"items"`
}

func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	ord, err := h.svc.SubmitOrder(r.Context(), req.Items)
	switch {
	case errors.Is(err, ErrNoItems):
		writeError(w, http.StatusBadRequest, err.Error())
	case err != nil:
		// persistence and publish failures are not distinguished here
		h.log.Error("create order failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to create order")
	default:
		writeJSON(w, http.StatusCreated, ord)
	}
}

func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.svc.ListOrders(r.Context())
	if err != nil {
		h.log.Error("list orders failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}
	if len(orders) == 0 {
		writeError(w, http.StatusNotFound, "Order not found")
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

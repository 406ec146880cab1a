package http

import (
	"log/slog"
	"net/http"

	"github.com/DavidAnato/AgriConnect/pkg/httputil"
)

// OrderHandler handles the buyer's order endpoints.
type OrderHandler struct {
	logger *slog.Logger
}

// NewOrderHandler creates a new order HTTP handler.
func NewOrderHandler(logger *slog.Logger) *OrderHandler {
	return &OrderHandler{logger: logger}
}

// ListOrders handles GET /api/orders
func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := workspaceFrom(r.Context()).Orders.List(r.Context())
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, orders)
}

// GetOrder handles GET /api/orders/{id}
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	order, err := workspaceFrom(r.Context()).Orders.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, order)
}

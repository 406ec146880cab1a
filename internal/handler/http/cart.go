package http

import (
	"log/slog"
	"net/http"

	apperrors "github.com/DavidAnato/AgriConnect/pkg/errors"
	"github.com/DavidAnato/AgriConnect/pkg/httputil"
)

// CartHandler handles HTTP requests for cart endpoints.
type CartHandler struct {
	logger *slog.Logger
}

// NewCartHandler creates a new cart HTTP handler.
func NewCartHandler(logger *slog.Logger) *CartHandler {
	return &CartHandler{logger: logger}
}

// --- Request DTOs ---

// AddItemRequest is the JSON request body for adding a product to the cart.
type AddItemRequest struct {
	ProductID int64   `json:"product_id" validate:"required,gt=0"`
	Quantity  float64 `json:"quantity" validate:"gt=0"`
}

// UpdateQuantityRequest is the JSON request body for changing a line.
type UpdateQuantityRequest struct {
	Quantity float64 `json:"quantity"`
}

// CheckoutRequest is the JSON request body for checkout.
type CheckoutRequest struct {
	ShippingAddress string `json:"shipping_address" validate:"max=500"`
}

// --- Handlers ---

// GetCart handles GET /api/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	c := workspaceFrom(r.Context()).Cart
	if err := c.Load(r.Context()); err != nil && !apperrors.IsAuth(err) {
		writeError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, c.Snapshot())
}

// AddItem handles POST /api/cart/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req AddItemRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	c := workspaceFrom(r.Context()).Cart
	if err := c.AddItem(r.Context(), req.ProductID, req.Quantity); err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, c.Snapshot())
}

// UpdateQuantity handles PUT /api/cart/items/{productId}
func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	productID, ok := parseIDParam(w, r, "productId")
	if !ok {
		return
	}

	var req UpdateQuantityRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	c := workspaceFrom(r.Context()).Cart
	if err := c.UpdateQuantity(r.Context(), productID, req.Quantity); err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, c.Snapshot())
}

// RemoveItem handles DELETE /api/cart/items/{productId}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	productID, ok := parseIDParam(w, r, "productId")
	if !ok {
		return
	}

	c := workspaceFrom(r.Context()).Cart
	if err := c.RemoveFromCart(r.Context(), productID); err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, c.Snapshot())
}

// ClearCart handles DELETE /api/cart
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	c := workspaceFrom(r.Context()).Cart
	if err := c.ClearCart(r.Context()); err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, c.Snapshot())
}

// Checkout handles POST /api/cart/checkout
func (h *CartHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req CheckoutRequest
	if r.ContentLength != 0 {
		if err := decode(r, &req); err != nil {
			writeError(w, r, err, h.logger)
			return
		}
	}

	orders, err := workspaceFrom(r.Context()).Cart.Checkout(r.Context(), req.ShippingAddress)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusCreated, orders)
}

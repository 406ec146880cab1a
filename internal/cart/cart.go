// Package cart mirrors the server-owned cart of one visitor. The server is
// authoritative: every successful call replaces the mirror with the cart the
// backend returned, and a failed call leaves it untouched.
package cart

import (
	"context"
	"log/slog"
	"math"
	"net/http"
	"slices"
	"sync"

	"github.com/DavidAnato/AgriConnect/internal/domain"
	"github.com/DavidAnato/AgriConnect/internal/gateway"
	apperrors "github.com/DavidAnato/AgriConnect/pkg/errors"
	"github.com/DavidAnato/AgriConnect/pkg/logger"
)

const (
	pathCart       = "/commerce/cart/"
	pathAddItem    = "/commerce/cart/add-item/"
	pathRemoveItem = "/commerce/cart/remove-item/"
	pathClear      = "/commerce/cart/clear/"
	pathCheckout   = "/commerce/cart/checkout/"
)

// View is a read-only copy of the mirror.
type View struct {
	Items []domain.CartLine `json:"items"`
	Total domain.Decimal    `json:"total"`
	Count domain.Decimal    `json:"count"`
}

// Cart is the local mirror. It is safe for concurrent use.
type Cart struct {
	gw     *gateway.Gateway
	logger *slog.Logger

	mu     sync.RWMutex
	mirror domain.Cart
}

// New creates an empty mirror backed by gw.
func New(gw *gateway.Gateway, l *slog.Logger) *Cart {
	if l == nil {
		l = logger.Discard()
	}
	return &Cart{gw: gw, logger: l}
}

// AddItem adds quantity of productID. A quantity that is not a positive
// finite number is rejected without calling the backend.
func (c *Cart) AddItem(ctx context.Context, productID int64, quantity float64) error {
	if !(quantity > 0) {
		return apperrors.InvalidInput("quantity must be greater than zero")
	}
	return c.setQuantity(ctx, productID, quantity)
}

// UpdateQuantity sets the quantity of productID. The backend handles adding
// and setting through the same endpoint.
func (c *Cart) UpdateQuantity(ctx context.Context, productID int64, quantity float64) error {
	return c.setQuantity(ctx, productID, quantity)
}

func (c *Cart) setQuantity(ctx context.Context, productID int64, quantity float64) error {
	if math.IsNaN(quantity) || math.IsInf(quantity, 0) {
		return apperrors.InvalidInput("quantity must be a finite number")
	}
	return c.mutate(ctx, pathAddItem, map[string]any{
		"product_id": productID,
		"quantity":   domain.Decimal(quantity),
	})
}

// RemoveFromCart removes the line of productID. When the mirror has no such
// line the call is a no-op: the UI may be showing a stale cart.
func (c *Cart) RemoveFromCart(ctx context.Context, productID int64) error {
	c.mu.RLock()
	line := c.mirror.FindLine(productID)
	var lineID int64
	if line != nil {
		lineID = line.ID
	}
	c.mu.RUnlock()

	if line == nil {
		return nil
	}
	return c.mutate(ctx, pathRemoveItem, map[string]any{"item_id": lineID})
}

// ClearCart empties the cart server side.
func (c *Cart) ClearCart(ctx context.Context) error {
	return c.mutate(ctx, pathClear, nil)
}

// Checkout turns the cart into orders, one per producer, and then clears
// it. Once the orders exist the local mirror is emptied whatever the clear
// call returns.
func (c *Cart) Checkout(ctx context.Context, shippingAddress string) ([]domain.Order, error) {
	var body any
	if shippingAddress != "" {
		body = map[string]string{"shipping_address": shippingAddress}
	}

	orders, err := gateway.Fetch[[]domain.Order](ctx, c.gw, gateway.Request{
		Method: http.MethodPost,
		Path:   pathCheckout,
		Body:   body,
	})
	if err != nil {
		return nil, err
	}

	if err := c.ClearCart(ctx); err != nil {
		logger.WithContext(ctx, c.logger).WarnContext(ctx, "clear after checkout failed",
			slog.String("error", err.Error()),
		)
	}
	c.replace(domain.Cart{})

	logger.WithContext(ctx, c.logger).InfoContext(ctx, "checkout completed",
		slog.Int("orders", len(orders)),
	)
	return orders, nil
}

// Load fetches the current cart without ever redirecting. The error keeps
// its class: apperrors.IsAuth for anonymous or expired sessions,
// apperrors.ErrNetwork when the backend is unreachable.
func (c *Cart) Load(ctx context.Context) error {
	cart, err := gateway.Fetch[domain.Cart](gateway.WithoutNavigator(ctx), c.gw, gateway.Request{
		Method: http.MethodGet,
		Path:   pathCart,
	})
	if err != nil {
		return err
	}
	c.replace(cart)
	return nil
}

// Mount performs the initial load. An anonymous visitor simply gets an empty
// cart; other failures are logged and also leave the cart empty.
func (c *Cart) Mount(ctx context.Context) {
	err := c.Load(ctx)
	switch {
	case err == nil:
	case apperrors.IsAuth(err):
		logger.WithContext(ctx, c.logger).DebugContext(ctx, "cart unavailable for anonymous visitor")
	default:
		logger.WithContext(ctx, c.logger).WarnContext(ctx, "initial cart load failed",
			slog.String("error", err.Error()),
		)
	}
}

// Reset empties the mirror without calling the backend, for instance after
// logout.
func (c *Cart) Reset() {
	c.replace(domain.Cart{})
}

func (c *Cart) mutate(ctx context.Context, path string, body any) error {
	cart, err := gateway.Fetch[domain.Cart](ctx, c.gw, gateway.Request{
		Method: http.MethodPost,
		Path:   path,
		Body:   body,
	})
	if err != nil {
		return err
	}
	c.replace(cart)
	return nil
}

func (c *Cart) replace(cart domain.Cart) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mirror = cart
}

// Items returns a copy of the cart lines.
func (c *Cart) Items() []domain.CartLine {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.mirror.Items)
}

// Total returns the server total when present, the sum of line subtotals
// otherwise.
func (c *Cart) Total() domain.Decimal {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.mirror.DisplayTotal()
}

// Count returns the total quantity in the cart.
func (c *Cart) Count() domain.Decimal {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.mirror.ItemCount()
}

// Snapshot returns a consistent copy of lines, total and count.
func (c *Cart) Snapshot() View {
	c.mu.RLock()
	defer c.mu.RUnlock()
	items := slices.Clone(c.mirror.Items)
	if items == nil {
		items = []domain.CartLine{}
	}
	return View{
		Items: items,
		Total: c.mirror.DisplayTotal(),
		Count: c.mirror.ItemCount(),
	}
}

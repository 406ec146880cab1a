// Package orders reads the buyer and producer sides of commerce orders.
package orders

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/DavidAnato/AgriConnect/internal/domain"
	"github.com/DavidAnato/AgriConnect/internal/gateway"
	"github.com/DavidAnato/AgriConnect/pkg/validator"
)

const (
	pathOrders      = "/commerce/orders/"
	pathVendor      = "/commerce/orders/vendor/"
	pathVendorStats = "/commerce/orders/vendor-stats/"
)

// Service wraps the order endpoints.
type Service struct {
	gw *gateway.Gateway
}

// NewService creates an order Service.
func NewService(gw *gateway.Gateway) *Service {
	return &Service{gw: gw}
}

// List returns the caller's orders as a buyer.
func (s *Service) List(ctx context.Context) ([]domain.Order, error) {
	return gateway.Fetch[[]domain.Order](ctx, s.gw, gateway.Request{
		Method: http.MethodGet,
		Path:   pathOrders,
	})
}

// Get returns one of the caller's orders.
func (s *Service) Get(ctx context.Context, id int64) (domain.Order, error) {
	return gateway.Fetch[domain.Order](ctx, s.gw, gateway.Request{
		Method: http.MethodGet,
		Path:   pathOrders + strconv.FormatInt(id, 10) + "/",
	})
}

// VendorOrders returns the orders placed with the calling producer. An
// empty status returns all of them.
func (s *Service) VendorOrders(ctx context.Context, status domain.OrderStatus) ([]domain.Order, error) {
	orders, err := gateway.Fetch[[]domain.Order](ctx, s.gw, gateway.Request{
		Method: http.MethodGet,
		Path:   pathVendor,
	})
	if err != nil {
		return nil, err
	}
	return FilterByStatus(orders, status), nil
}

// VendorStats returns the calling producer's sales summary over p. Empty
// bounds are left to the backend, which defaults to the current month.
func (s *Service) VendorStats(ctx context.Context, p domain.Period) (domain.VendorStats, error) {
	if err := validator.Validate(p); err != nil {
		return domain.VendorStats{}, err
	}

	v := url.Values{}
	if p.Start != "" {
		v.Set("start", p.Start)
	}
	if p.End != "" {
		v.Set("end", p.End)
	}

	return gateway.Fetch[domain.VendorStats](ctx, s.gw, gateway.Request{
		Method: http.MethodGet,
		Path:   pathVendorStats,
		Query:  v,
	})
}

// FilterByStatus keeps the orders in status. An empty status keeps all.
func FilterByStatus(orders []domain.Order, status domain.OrderStatus) []domain.Order {
	if status == "" {
		return orders
	}
	out := make([]domain.Order, 0, len(orders))
	for _, o := range orders {
		if o.Status == status {
			out = append(out, o)
		}
	}
	return out
}

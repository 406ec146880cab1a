package httpclient

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sony/gobreaker/v2"
)

// Doer is the request-executing surface shared by Client and
// CircuitBreakerClient.
type Doer interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// CircuitBreakerConfig holds configuration for the circuit breaker.
type CircuitBreakerConfig struct {
	// Name identifies the upstream in metrics and logs.
	Name string

	// MaxRequests is the number of probes let through while half-open.
	MaxRequests uint32

	// Interval clears the counts while closed. 0 never clears them.
	Interval time.Duration

	// Timeout is how long the breaker stays open.
	Timeout time.Duration

	FailureRatio float64
	MinRequests  uint32
}

// DefaultCircuitBreakerConfig returns the settings used for the marketplace
// API.
func DefaultCircuitBreakerConfig(name string) CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Name:         name,
		MaxRequests:  1,
		Interval:     60 * time.Second,
		Timeout:      30 * time.Second,
		FailureRatio: 0.5,
		MinRequests:  5,
	}
}

var (
	upstreamBreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "storefront_upstream_breaker_state",
			Help: "State of the upstream circuit breaker (0=closed, 1=half-open, 2=open)",
		},
		[]string{"upstream"},
	)

	upstreamBreakerRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_upstream_breaker_rejected_total",
			Help: "Requests rejected without reaching the upstream because the breaker was open",
		},
		[]string{"upstream"},
	)
)

func init() {
	prometheus.MustRegister(upstreamBreakerState, upstreamBreakerRejected)
}

func stateValue(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

// errServerFailure marks a 5xx response as a breaker failure while the
// response itself still reaches the caller.
var errServerFailure = errors.New("upstream server error")

// ErrCircuitOpen is returned when the breaker rejects a request.
var ErrCircuitOpen = gobreaker.ErrOpenState

// ErrTooManyRequests is returned when the half-open breaker already has its
// probes in flight.
var ErrTooManyRequests = gobreaker.ErrTooManyRequests

// CircuitBreakerClient guards an upstream with a circuit breaker.
//
// 5xx responses count as failures but are still returned so that the
// backend's error body can be mapped. A caller cancelling its own request
// is not a failure. Once open, requests fail fast with ErrCircuitOpen.
type CircuitBreakerClient struct {
	client  Doer
	breaker *gobreaker.CircuitBreaker[*http.Response]
	logger  *slog.Logger
	name    string
}

// NewCircuitBreakerClient wraps client with a circuit breaker.
func NewCircuitBreakerClient(client Doer, cfg CircuitBreakerConfig, logger *slog.Logger) *CircuitBreakerClient {
	cb := gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.FailureRatio
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("upstream breaker state change",
				slog.String("upstream", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
			upstreamBreakerState.WithLabelValues(name).Set(stateValue(to))
		},
	})
	upstreamBreakerState.WithLabelValues(cfg.Name).Set(0)

	return &CircuitBreakerClient{
		client:  client,
		breaker: cb,
		logger:  logger,
		name:    cfg.Name,
	}
}

// Do executes req through the breaker.
func (c *CircuitBreakerClient) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	resp, err := c.breaker.Execute(func() (*http.Response, error) {
		resp, err := c.client.Do(ctx, req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= http.StatusInternalServerError {
			return resp, fmt.Errorf("%w: status %d", errServerFailure, resp.StatusCode)
		}
		return resp, nil
	})
	switch {
	case err == nil:
		return resp, nil
	case errors.Is(err, errServerFailure) && resp != nil:
		return resp, nil
	case errors.Is(err, ErrCircuitOpen), errors.Is(err, ErrTooManyRequests):
		upstreamBreakerRejected.WithLabelValues(c.name).Inc()
		c.logger.DebugContext(ctx, "upstream request rejected by breaker",
			slog.String("upstream", c.name),
			slog.String("path", req.URL.Path),
		)
		return nil, fmt.Errorf("%s: %w", c.name, err)
	default:
		return nil, err
	}
}

// State returns the current state of the breaker.
func (c *CircuitBreakerClient) State() gobreaker.State {
	return c.breaker.State()
}

// Name returns the upstream name used in metrics.
func (c *CircuitBreakerClient) Name() string {
	return c.name
}

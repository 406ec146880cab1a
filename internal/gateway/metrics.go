package gateway

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agriconnect_gateway_requests_total",
			Help: "Backend calls issued by the gateway by method and status",
		},
		[]string{"method", "status"},
	)

	refreshTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agriconnect_gateway_refresh_total",
			Help: "Token refresh outcomes (success, failure, reused)",
		},
		[]string{"result"},
	)

	teardownTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "agriconnect_gateway_session_teardown_total",
			Help: "Sessions cleared after an unrecoverable refresh failure",
		},
	)
)

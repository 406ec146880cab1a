package tracing

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// restoreGlobals puts back the global provider and propagator after a test
// that installs its own.
func restoreGlobals(t *testing.T) {
	t.Helper()
	tp, prop := otel.GetTracerProvider(), otel.GetTextMapPropagator()
	t.Cleanup(func() {
		otel.SetTracerProvider(tp)
		otel.SetTextMapPropagator(prop)
	})
}

func TestInitTracer_DisabledIsNoop(t *testing.T) {
	restoreGlobals(t)
	before := otel.GetTracerProvider()

	shutdown, err := InitTracer(context.Background(), DefaultConfig("storefront"))
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	assert.NoError(t, shutdown(context.Background()))
	assert.Equal(t, before, otel.GetTracerProvider())
}

func TestInitTracer_Enabled(t *testing.T) {
	for _, rate := range []float64{1, 0.5, 0} {
		restoreGlobals(t)
		cfg := DefaultConfig("storefront")
		cfg.Enabled = true
		cfg.Environment = "test"
		cfg.OTLPEndpoint = "127.0.0.1:0"
		cfg.SampleRate = rate

		shutdown, err := InitTracer(context.Background(), cfg)
		require.NoError(t, err, "rate %v", rate)
		assert.IsType(t, &sdktrace.TracerProvider{}, otel.GetTracerProvider())
		_ = shutdown(context.Background())
	}
}

func TestInjectHeaders_CarriesSpanContext(t *testing.T) {
	restoreGlobals(t)
	cfg := DefaultConfig("storefront")
	cfg.Enabled = true
	cfg.OTLPEndpoint = "127.0.0.1:0"
	shutdown, err := InitTracer(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = shutdown(context.Background()) })

	ctx, span := Tracer("github.com/DavidAnato/AgriConnect/internal/gateway").Start(context.Background(), "GET /commerce/cart/")
	defer span.End()

	h := http.Header{}
	InjectHeaders(ctx, h)
	assert.Contains(t, h.Get("traceparent"), span.SpanContext().TraceID().String())
}

func TestInjectHeaders_NoSpan(t *testing.T) {
	h := http.Header{}
	InjectHeaders(context.Background(), h)
	assert.Empty(t, h.Get("traceparent"))
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig("storefront")
	assert.Equal(t, "storefront", cfg.ServiceName)
	assert.False(t, cfg.Enabled)
	assert.Equal(t, 1.0, cfg.SampleRate)
	assert.Equal(t, "localhost:4318", cfg.OTLPEndpoint)
}

func TestRatioSampler(t *testing.T) {
	assert.Equal(t, "AlwaysOnSampler", ratioSampler(1.5).Description())
	assert.Equal(t, "AlwaysOffSampler", ratioSampler(-1).Description())
	assert.Equal(t, "TraceIDRatioBased{0.25}", ratioSampler(0.25).Description())
}

func TestExporterOptions(t *testing.T) {
	assert.Len(t, exporterOptions("localhost:4318"), 2)
	assert.Len(t, exporterOptions("https://otel.example.net/v1/traces"), 1)
}

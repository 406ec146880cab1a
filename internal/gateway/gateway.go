package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"github.com/DavidAnato/AgriConnect/internal/domain"
	"github.com/DavidAnato/AgriConnect/internal/tokenstore"
	apperrors "github.com/DavidAnato/AgriConnect/pkg/errors"
	"github.com/DavidAnato/AgriConnect/pkg/httpclient"
	"github.com/DavidAnato/AgriConnect/pkg/logger"
	"github.com/DavidAnato/AgriConnect/pkg/tracing"
	"github.com/DavidAnato/AgriConnect/pkg/validator"
)

const (
	// RefreshPath exchanges a refresh token for a new pair.
	RefreshPath = "/authentication/token/refresh/"
	// LoginPath is where the user is sent once the session is gone.
	LoginPath = "/login"

	serviceName = "agriconnect-api"
)

var errNoRefreshToken = errors.New("no refresh token stored")

// TeardownFunc runs after a failed refresh cleared the session.
type TeardownFunc func(ctx context.Context)

// Gateway performs authenticated calls against the marketplace API. On a 401
// it refreshes the access token once and re-issues the request once; when the
// refresh fails the session is cleared and the caller gets ErrSessionExpired.
type Gateway struct {
	baseURL string
	client  httpclient.Doer
	store   *tokenstore.Store
	logger  *slog.Logger
	tracer  trace.Tracer

	refreshGroup singleflight.Group

	mu       sync.Mutex
	teardown []TeardownFunc
}

// New creates a Gateway. baseURL is trimmed of trailing slashes.
func New(baseURL string, client httpclient.Doer, store *tokenstore.Store, l *slog.Logger) *Gateway {
	if l == nil {
		l = logger.Discard()
	}
	return &Gateway{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		store:   store,
		logger:  l,
		tracer:  tracing.Tracer("github.com/DavidAnato/AgriConnect/internal/gateway"),
	}
}

// Store returns the token store backing the gateway.
func (g *Gateway) Store() *tokenstore.Store {
	return g.store
}

// OnTeardown registers fn to run every time a failed refresh clears the
// session.
func (g *Gateway) OnTeardown(fn TeardownFunc) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.teardown = append(g.teardown, fn)
}

// Do issues req and returns the backend response as-is, except for the
// 401 path: a 401 triggers one refresh and one retry. A 401 on the retry is
// returned to the caller.
func (g *Gateway) Do(ctx context.Context, req Request) (*http.Response, error) {
	payload, contentType, err := req.encode()
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	access := g.store.AccessToken(ctx)
	resp, err := g.send(ctx, req, payload, contentType, access)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}
	drain(resp)

	fresh, err := g.refresh(ctx, access, navigatorFor(ctx, req))
	if err != nil {
		return nil, err
	}

	return g.send(ctx, req, payload, contentType, fresh)
}

// send performs one HTTP round trip.
func (g *Gateway) send(ctx context.Context, req Request, payload []byte, contentType, access string) (*http.Response, error) {
	ctx, span := g.tracer.Start(ctx, "agriconnect "+req.Method,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", req.Method),
			attribute.String("url.path", req.Path),
		),
	)
	defer span.End()

	target := g.baseURL + req.Path
	if len(req.Query) > 0 {
		target += "?" + req.Query.Encode()
	}

	var body io.Reader = http.NoBody
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, body)
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("build %s %s: %w", req.Method, req.Path, err))
	}

	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Content-Type", contentType)
	if access != "" {
		httpReq.Header.Set("Authorization", "Bearer "+access)
	}
	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		httpReq.Header.Set("X-Correlation-ID", id)
	}
	tracing.InjectHeaders(ctx, httpReq.Header)

	resp, err := g.client.Do(ctx, httpReq)
	if err != nil {
		requestsTotal.WithLabelValues(req.Method, "error").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport error")
		logger.WithContext(ctx, g.logger).WarnContext(ctx, "backend unreachable",
			slog.String("method", req.Method),
			slog.String("path", req.Path),
			slog.String("error", err.Error()),
		)
		return nil, apperrors.Unreachable(err)
	}

	requestsTotal.WithLabelValues(req.Method, strconv.Itoa(resp.StatusCode)).Inc()
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
	if resp.StatusCode >= 500 {
		span.SetStatus(codes.Error, http.StatusText(resp.StatusCode))
	}
	return resp, nil
}

// refresh returns an access token to retry with. used is the token the
// rejected request carried. When another caller already rotated it, the
// stored token is returned without a new refresh.
func (g *Gateway) refresh(ctx context.Context, used string, nav Navigator) (string, error) {
	if current := g.store.AccessToken(ctx); current != "" && current != used {
		refreshTotal.WithLabelValues("reused").Inc()
		return current, nil
	}

	v, err, shared := g.refreshGroup.Do("refresh", func() (any, error) {
		// The refresh outlives any single caller: others may be waiting on it.
		rctx := context.WithoutCancel(ctx)
		access, err := g.exchange(rctx)
		if err != nil {
			refreshTotal.WithLabelValues("failure").Inc()
			g.tearDown(rctx, err)
			return "", err
		}
		refreshTotal.WithLabelValues("success").Inc()
		return access, nil
	})
	if shared {
		g.logger.DebugContext(ctx, "joined in-flight token refresh")
	}
	if err != nil {
		if nav != nil {
			nav(LoginPath)
		}
		return "", apperrors.SessionExpired(err)
	}
	return v.(string), nil
}

// exchange trades the stored refresh token for a new pair and stores it.
func (g *Gateway) exchange(ctx context.Context) (string, error) {
	refresh := g.store.RefreshToken(ctx)
	if refresh == "" {
		return "", errNoRefreshToken
	}

	payload, err := json.Marshal(map[string]string{"refresh": refresh})
	if err != nil {
		return "", fmt.Errorf("encode refresh body: %w", err)
	}

	req := Request{Method: http.MethodPost, Path: RefreshPath}
	resp, err := g.send(ctx, req, payload, "application/json", "")
	if err != nil {
		return "", err
	}

	creds, err := DecodeJSON[domain.Credentials](resp)
	if err != nil {
		return "", fmt.Errorf("refresh rejected: %w", err)
	}

	g.store.SetCredentials(ctx, creds)
	return creds.Access, nil
}

// tearDown clears the session after an unrecoverable refresh failure. An
// anonymous caller had no session to lose, so only the hooks run.
func (g *Gateway) tearDown(ctx context.Context, cause error) {
	hadSession := g.store.AccessToken(ctx) != "" || g.store.RefreshToken(ctx) != ""
	g.store.Clear(ctx)

	if hadSession {
		teardownTotal.Inc()
		logger.WithContext(ctx, g.logger).InfoContext(ctx, "session torn down after failed refresh",
			slog.String("reason", cause.Error()),
		)
	}

	g.mu.Lock()
	hooks := make([]TeardownFunc, len(g.teardown))
	copy(hooks, g.teardown)
	g.mu.Unlock()

	for _, fn := range hooks {
		fn(ctx)
	}
}

// drain discards and closes a response body so the connection is reused.
func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	_ = resp.Body.Close()
}

// DecodeJSON reads a response into T and closes the body. Non-2xx statuses
// become AppErrors carrying the backend's message; a 2xx body that does not
// decode or fails validation is a schema error.
func DecodeJSON[T any](resp *http.Response) (T, error) {
	var v T
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return v, httpclient.ParseResponseError(resp, serviceName)
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil && !errors.Is(err, io.EOF) {
		return v, apperrors.Schema(fmt.Sprintf("decode %T: %v", v, err))
	}
	if err := validator.Validate(&v); err != nil {
		return v, apperrors.Schema(fmt.Sprintf("invalid %T: %v", v, err))
	}
	return v, nil
}

// Fetch issues req and decodes the response into T.
func Fetch[T any](ctx context.Context, g *Gateway, req Request) (T, error) {
	resp, err := g.Do(ctx, req)
	if err != nil {
		var zero T
		return zero, err
	}
	return DecodeJSON[T](resp)
}

// Send issues req and only checks the status. The body is discarded.
func Send(ctx context.Context, g *Gateway, req Request) error {
	resp, err := g.Do(ctx, req)
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return httpclient.ParseResponseError(resp, serviceName)
	}
	drain(resp)
	return nil
}

package backend

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/epi-platform/admin-api/internal/config"
	"github.com/epi-platform/admin-api/pkg/circuitbreaker"
	"github.com/epi-platform/admin-api/pkg/errors"
	"github.com/epi-platform/admin-api/pkg/metrics"
)

const maxResponseBytes = 16 << 20

type tokenKey struct{}

// WithToken attaches the caller's bearer token so backend calls act on the
// admin's behalf.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

func tokenFrom(ctx context.Context) string {
	if v, ok := ctx.Value(tokenKey{}).(string); ok {
		return v
	}
	return ""
}

// Client talks to the external catalog backend.
type Client struct {
	baseURL    string
	token      string
	timeout    time.Duration
	httpClient *http.Client
	cb         *circuitbreaker.CircuitBreaker
	metrics    *metrics.Metrics
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func NewClient(cfg config.BackendConfig, m *metrics.Metrics, opts ...Option) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	c := &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		token:      cfg.Token,
		timeout:    timeout,
		httpClient: &http.Client{},
		metrics:    m,
		cb: circuitbreaker.NewCircuitBreaker(circuitbreaker.Settings{
			Name:        "catalog-backend",
			MaxFailures: cfg.BreakerFailures,
			Timeout:     cfg.BreakerTimeout,
			IsFailure:   isServerFailure,
		}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Breaker exposes the breaker state for readiness checks.
func (c *Client) Breaker() *circuitbreaker.CircuitBreaker {
	return c.cb
}

// request is one backend call. endpoint is the path template, used as the
// metrics label.
type request struct {
	method      string
	endpoint    string
	path        string
	query       url.Values
	body        io.Reader
	contentType string
}

func (c *Client) do(ctx context.Context, r request) (int, []byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	u := c.baseURL + r.path
	if len(r.query) > 0 {
		u += "?" + r.query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, r.method, u, r.body)
	if err != nil {
		return 0, nil, fmt.Errorf("build backend request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}
	token := tokenFrom(ctx)
	if token == "" {
		token = c.token
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	var (
		status int
		body   []byte
	)
	start := time.Now()
	err = c.cb.Execute(func() error {
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("backend %s %s: %w", r.method, r.endpoint, err)
		}
		defer resp.Body.Close()

		status = resp.StatusCode
		body, err = io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
		if err != nil {
			return fmt.Errorf("read backend response: %w", err)
		}
		if status >= http.StatusInternalServerError {
			return &Error{Status: status, Message: http.StatusText(status)}
		}
		return nil
	})
	c.observe(r.endpoint, status, time.Since(start))

	var be *Error
	if err != nil && !stderrors.As(err, &be) {
		log.Warn().Err(err).Str("endpoint", r.endpoint).Msg("catalog backend call failed")
		return status, nil, err
	}
	return status, body, nil
}

func (c *Client) observe(endpoint string, status int, d time.Duration) {
	if c.metrics == nil {
		return
	}
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	c.metrics.BackendRequests.WithLabelValues(endpoint, label).Inc()
	c.metrics.BackendLatency.WithLabelValues(endpoint).Observe(d.Seconds())
}

func (c *Client) doJSON(ctx context.Context, method, endpoint, p string, query url.Values, payload interface{}) (int, []byte, error) {
	r := request{method: method, endpoint: endpoint, path: p, query: query}
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, fmt.Errorf("encode backend payload: %w", err)
		}
		r.body = bytes.NewReader(b)
		r.contentType = "application/json"
	}
	return c.do(ctx, r)
}

// call performs a JSON round trip and runs the single decode step.
func call[T any](ctx context.Context, c *Client, resource, method, endpoint, p string, query url.Values, payload interface{}) (Result[T], error) {
	status, body, err := c.doJSON(ctx, method, endpoint, p, query, payload)
	if err != nil {
		return Result[T]{}, translate(resource, err)
	}
	res, err := decode[T](status, body)
	if err != nil {
		return res, translate(resource, err)
	}
	return res, nil
}

func isServerFailure(err error) bool {
	var be *Error
	if stderrors.As(err, &be) {
		return be.Status >= http.StatusInternalServerError
	}
	return true
}

// translate maps backend failures onto application errors, keeping the
// backend's message for the admin.
func translate(resource string, err error) error {
	if stderrors.Is(err, circuitbreaker.ErrOpen) {
		return errors.Upstream("catalog backend is unavailable, try again shortly", err)
	}

	var be *Error
	if !stderrors.As(err, &be) {
		return errors.Upstream("", err)
	}

	switch be.Status {
	case http.StatusNotFound:
		return errors.NotFound(resource, err)
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return errors.BadRequest(be.Message, err)
	case http.StatusUnauthorized:
		return errors.Unauthorized(err)
	case http.StatusForbidden:
		return errors.Forbidden(be.Message)
	case http.StatusConflict:
		return errors.Conflict(be.Message, err)
	default:
		return errors.Upstream(be.Message, err)
	}
}

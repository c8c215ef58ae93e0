// Package commerce implements the CommerceGateway against the WooCommerce REST API
// and the storefront WordPress plugin endpoints.
package commerce

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"storefront/config"
	domainerrors "storefront/internal/domain/errors"
	"storefront/internal/domain/service"
	"storefront/internal/errors"

	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"golang.org/x/sync/singleflight"
)

const (
	wcPathPrefix         = "/wp-json/wc/v3"
	storefrontPathPrefix = "/wp-json/storefront/v1"

	maxResponseBodySize = 4 << 20

	defaultTimeout             = 12 * time.Second
	defaultBreakerMaxRequests  = 3
	defaultBreakerTimeout      = 30 * time.Second
	defaultConsecutiveFailures = 5
)

// Params holds dependencies for the commerce client, injected by Fx
type Params struct {
	fx.In

	Config         *config.Config
	Logger         *slog.Logger
	TracerProvider trace.TracerProvider `optional:"true"`
}

type client struct {
	baseURL        string
	consumerKey    string
	consumerSecret string
	timeout        time.Duration
	httpClient     *http.Client
	breaker        *gobreaker.CircuitBreaker[[]byte]
	group          singleflight.Group
	cache          *staticCache
	logger         *slog.Logger
}

// New creates the WooCommerce gateway client
func New(params Params) (service.CommerceGateway, error) {
	cfg := params.Config.Commerce
	if cfg == nil || cfg.BaseURL == "" {
		return nil, errors.New("commerce base url is required")
	}

	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, errors.Wrap(err, "invalid commerce base url")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	logger := params.Logger.With(slog.String("component", "commerce_client"))

	var transportOpts []otelhttp.Option
	if params.TracerProvider != nil {
		transportOpts = append(transportOpts, otelhttp.WithTracerProvider(params.TracerProvider))
	}

	c := &client{
		baseURL:        strings.TrimRight(cfg.BaseURL, "/"),
		consumerKey:    cfg.ConsumerKey,
		consumerSecret: cfg.ConsumerSecret,
		timeout:        timeout,
		httpClient: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport, transportOpts...),
		},
		cache:  newStaticCache(cfg.StaticCacheTTL),
		logger: logger,
	}
	c.breaker = gobreaker.NewCircuitBreaker[[]byte](breakerSettings(cfg.Breaker, logger))

	return c, nil
}

func breakerSettings(cfg config.BreakerConfig, logger *slog.Logger) gobreaker.Settings {
	maxRequests := cfg.MaxRequests
	if maxRequests == 0 {
		maxRequests = defaultBreakerMaxRequests
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultBreakerTimeout
	}

	failures := cfg.ConsecutiveFailures
	if failures == 0 {
		failures = defaultConsecutiveFailures
	}

	return gobreaker.Settings{
		Name:        "commerce",
		MaxRequests: maxRequests,
		Interval:    cfg.Interval,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		// A rejected request proves the backend is up.
		IsSuccessful: func(err error) bool {
			return err == nil || domainerrors.IsKind(err, domainerrors.KindValidation)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
		},
	}
}

// wooError is the error body returned by WordPress REST endpoints.
type wooError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// do performs one call and decodes the response into out.
// Errors are NetworkError, ValidationError (4xx) or ServerError (5xx, malformed body).
func (c *client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	payload, err := c.breaker.Execute(func() ([]byte, error) {
		return c.roundTrip(ctx, method, path, query, body)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return domainerrors.ErrNetwork.WithDetails("commerce backend unavailable: " + err.Error())
		}

		return err
	}

	if out == nil {
		return nil
	}

	if err := json.Unmarshal(payload, out); err != nil {
		c.logger.Error("Malformed commerce response",
			slog.String("method", method),
			slog.String("path", path),
			slog.Any("error", err),
		)

		return domainerrors.ErrServer.WithDetails("malformed response from " + path)
	}

	return nil
}

func (c *client) roundTrip(ctx context.Context, method, path string, query url.Values, body any) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, errors.Wrap(err, "failed to encode commerce request")
		}
		reader = bytes.NewReader(encoded)
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build commerce request")
	}
	req.SetBasicAuth(c.consumerKey, c.consumerSecret)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("Commerce request failed",
			slog.String("method", method),
			slog.String("path", path),
			slog.Bool("timeout", errors.IsTimeout(err)),
			slog.Any("error", err),
		)

		return nil, domainerrors.ErrNetwork.WithDetails(transportDetails(err))
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodySize))
	if err != nil {
		return nil, domainerrors.ErrNetwork.WithDetails(transportDetails(err))
	}

	c.logger.Debug("Commerce request completed",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", resp.StatusCode),
		slog.Duration("elapsed", time.Since(start)),
	)

	switch {
	case resp.StatusCode >= http.StatusInternalServerError:
		return nil, domainerrors.ErrServer.WithDetails("commerce backend returned " + strconv.Itoa(resp.StatusCode))
	case resp.StatusCode >= http.StatusBadRequest:
		return nil, validationError(resp.StatusCode, payload)
	}

	return payload, nil
}

func validationError(status int, payload []byte) error {
	var body wooError
	_ = json.Unmarshal(payload, &body)

	message := strings.TrimSpace(body.Message)
	if message == "" {
		message = http.StatusText(status)
	}

	details := body.Code
	if details == "" {
		details = "status " + strconv.Itoa(status)
	}

	return domainerrors.ErrValidation.WithMessage(message).WithDetails(details)
}

func transportDetails(err error) string {
	if errors.IsTimeout(err) {
		return "request timed out"
	}

	return err.Error()
}

// shared collapses concurrent identical lookups and serves them from the static cache.
func shared[T any](c *client, key string, load func() (T, error)) (T, error) {
	if cached, ok := c.cache.get(key); ok {
		if value, ok := cached.(T); ok {
			return value, nil
		}
	}

	value, err, _ := c.group.Do(key, func() (any, error) {
		result, err := load()
		if err != nil {
			return nil, err
		}
		c.cache.set(key, result)

		return result, nil
	})
	if err != nil {
		var zero T

		return zero, err
	}

	return value.(T), nil
}

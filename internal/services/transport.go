package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/desertthunder/mixdeck/internal/shared"
)

var (
	// ErrProviderUnavailable means the provider could not be reached or kept failing.
	ErrProviderUnavailable = fmt.Errorf("provider %w", shared.ErrServiceUnavailable)
	// ErrProviderRequest means the provider answered with a client error.
	ErrProviderRequest = errors.New("provider rejected request")
)

// maxBody bounds how much of a search response is read.
const maxBody = 8 << 20

// transport sends provider requests through a rate limiter, a circuit breaker and a retrying client.
type transport struct {
	name    string
	client  *retryablehttp.Client
	breaker *gobreaker.CircuitBreaker
	limiter *rate.Limiter
	logger  *log.Logger
}

// newTransport builds a transport for one provider. base supplies the underlying [http.Client] (the oauth2 client
// for Spotify); nil uses a pooled default.
func newTransport(name string, cfg shared.HTTPConfig, base *http.Client, logger *log.Logger) *transport {
	if logger == nil {
		logger = log.Default()
	}
	logger = shared.WithLogger(logger.WithPrefix(name), "provider", name)

	client := retryablehttp.NewClient()
	if base != nil {
		client.HTTPClient = base
	}
	if cfg.Timeout > 0 {
		client.HTTPClient.Timeout = cfg.Timeout
	}
	client.RetryMax = max(cfg.Retries, 0)
	client.RetryWaitMin = 200 * time.Millisecond
	client.RetryWaitMax = 2 * time.Second
	client.ErrorHandler = retryablehttp.PassthroughErrorHandler
	client.Logger = leveledLogger{logger}

	settings := gobreaker.Settings{
		Name:        name + "-api",
		MaxRequests: 3,
		Interval:    10 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrProviderRequest) || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}

	return &transport{
		name:    name,
		client:  client,
		breaker: gobreaker.NewCircuitBreaker(settings),
		limiter: rate.NewLimiter(limit, max(cfg.Burst, 1)),
		logger:  logger,
	}
}

// get performs a GET and returns the body of a 2xx response.
func (t *transport) get(ctx context.Context, url string, header http.Header) ([]byte, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	body, err := t.breaker.Execute(func() (any, error) {
		req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		for k, vs := range header {
			for _, v := range vs {
				req.Header.Add(k, v)
			}
		}
		req.Header.Set("Accept", "application/json")

		resp, err := t.client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("%w: %s: %v", ErrProviderUnavailable, t.name, err)
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
		if err != nil {
			return nil, fmt.Errorf("%w: %s: failed to read response: %v", ErrProviderUnavailable, t.name, err)
		}

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			return data, nil
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			return nil, fmt.Errorf("%w: %s returned %d", ErrProviderUnavailable, t.name, resp.StatusCode)
		default:
			return nil, fmt.Errorf("%w: %s returned %d: %s", ErrProviderRequest, t.name, resp.StatusCode, snippet(data))
		}
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %s: %v", ErrProviderUnavailable, t.name, err)
		}
		return nil, err
	}

	return body.([]byte), nil
}

func snippet(b []byte) string {
	const n = 200
	if len(b) > n {
		return string(b[:n]) + "..."
	}
	return string(b)
}

// leveledLogger routes retryablehttp's logging through charmbracelet/log.
type leveledLogger struct {
	l *log.Logger
}

var _ retryablehttp.LeveledLogger = leveledLogger{}

func (l leveledLogger) Error(msg string, kv ...any) { l.l.Error(msg, kv...) }
func (l leveledLogger) Warn(msg string, kv ...any)  { l.l.Warn(msg, kv...) }
func (l leveledLogger) Info(msg string, kv ...any)  { l.l.Debug(msg, kv...) }
func (l leveledLogger) Debug(msg string, kv ...any) { l.l.Debug(msg, kv...) }

package resilience

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/hashicorp/go-hclog"
	"github.com/sony/gobreaker"

	"github.com/hashicorp-forge/hermes-dmclient/pkg/document"
)

// Settings configures an UploadClient.
type Settings struct {
	// Name identifies the circuit in logs
	// Default: "document-upload"
	Name string

	// MaxFailures is the number of consecutive failures that opens the circuit
	// Default: 5
	MaxFailures uint32

	// OpenTimeout is how long the circuit stays open before letting a probe through
	// Default: 30 seconds
	OpenTimeout time.Duration

	// HalfOpenRequests is the number of probes allowed while half-open
	// Default: 1
	HalfOpenRequests uint32

	// MaxRetries for retryable failures within one call. Zero disables retries.
	MaxRetries uint64

	// RetryInitialInterval is the first backoff delay
	// Default: 500 milliseconds
	RetryInitialInterval time.Duration

	// RetryMaxInterval caps the backoff delay
	// Default: 5 seconds
	RetryMaxInterval time.Duration

	// Fallback produces the response while the circuit is open
	// Default: document.ServiceUnavailable
	Fallback document.UploadFunc

	// Logger (optional)
	Logger hclog.Logger
}

// DefaultSettings returns Settings with sensible defaults.
func DefaultSettings() Settings {
	return Settings{
		Name:                 "document-upload",
		MaxFailures:          5,
		OpenTimeout:          30 * time.Second,
		HalfOpenRequests:     1,
		RetryInitialInterval: 500 * time.Millisecond,
		RetryMaxInterval:     5 * time.Second,
		Fallback:             document.ServiceUnavailable,
	}
}

func (s *Settings) applyDefaults() {
	defaults := DefaultSettings()
	if s.Name == "" {
		s.Name = defaults.Name
	}
	if s.MaxFailures == 0 {
		s.MaxFailures = defaults.MaxFailures
	}
	if s.OpenTimeout == 0 {
		s.OpenTimeout = defaults.OpenTimeout
	}
	if s.HalfOpenRequests == 0 {
		s.HalfOpenRequests = defaults.HalfOpenRequests
	}
	if s.RetryInitialInterval == 0 {
		s.RetryInitialInterval = defaults.RetryInitialInterval
	}
	if s.RetryMaxInterval == 0 {
		s.RetryMaxInterval = defaults.RetryMaxInterval
	}
	if s.Fallback == nil {
		s.Fallback = defaults.Fallback
	}
	if s.Logger == nil {
		s.Logger = hclog.NewNullLogger()
	}
}

// UploadClient decorates a document.UploadClient with a circuit breaker and
// optional retries. While the circuit is open, or a half-open probe is already
// in flight, calls are answered by the fallback without reaching the wrapped
// client.
//
// Only retryable transport failures (network errors and 5xx responses) count
// against the circuit and are retried. Invalid input, unreadable files, decode
// failures and 4xx responses are returned unchanged.
type UploadClient struct {
	next     document.UploadClient
	breaker  *gobreaker.CircuitBreaker
	settings Settings
	logger   hclog.Logger
}

var _ document.UploadClient = (*UploadClient)(nil)

// NewUploadClient wraps next.
func NewUploadClient(next document.UploadClient, settings Settings) (*UploadClient, error) {
	if next == nil {
		return nil, fmt.Errorf("upload client is required")
	}
	settings.applyDefaults()

	logger := settings.Logger.Named("resilience")

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        settings.Name,
		MaxRequests: settings.HalfOpenRequests,
		Timeout:     settings.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= settings.MaxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Info("circuit state changed",
				"circuit", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
		IsSuccessful: func(err error) bool {
			return err == nil || !document.IsRetryable(err)
		},
	})

	return &UploadClient{
		next:     next,
		breaker:  breaker,
		settings: settings,
		logger:   logger,
	}, nil
}

// State returns the current circuit state.
func (c *UploadClient) State() gobreaker.State {
	return c.breaker.State()
}

// Upload calls the wrapped client through the circuit breaker.
func (c *UploadClient) Upload(ctx context.Context, authToken, serviceAuthToken, userID string, files []document.File) (*document.UploadResponse, error) {
	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.uploadWithRetry(ctx, authToken, serviceAuthToken, userID, files)
	})

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		c.logger.Warn("upload circuit not closed, using fallback",
			"circuit", c.settings.Name,
			"state", c.breaker.State().String(),
			"files", len(files),
		)
		return c.settings.Fallback(ctx, authToken, serviceAuthToken, userID, files)
	}
	if err != nil {
		return nil, err
	}

	return result.(*document.UploadResponse), nil
}

func (c *UploadClient) uploadWithRetry(ctx context.Context, authToken, serviceAuthToken, userID string, files []document.File) (*document.UploadResponse, error) {
	if c.settings.MaxRetries == 0 {
		return c.next.Upload(ctx, authToken, serviceAuthToken, userID, files)
	}

	var resp *document.UploadResponse
	var lastErr error
	attempt := 0
	operation := func() error {
		attempt++
		r, err := c.next.Upload(ctx, authToken, serviceAuthToken, userID, files)
		if err != nil {
			lastErr = err
			if !document.IsRetryable(err) {
				return backoff.Permanent(err)
			}
			return err
		}
		resp = r
		return nil
	}
	notify := func(err error, wait time.Duration) {
		c.logger.Warn("upload failed, retrying",
			"attempt", attempt,
			"wait", wait,
			"error", err,
		)
	}

	if err := backoff.RetryNotify(operation, c.newBackOff(ctx), notify); err != nil {
		// A context that ends while waiting between attempts must not hide
		// the failure that caused the wait.
		if lastErr != nil && !errors.Is(err, lastErr) && ctx.Err() != nil && errors.Is(err, ctx.Err()) {
			return nil, fmt.Errorf("%w: %w", lastErr, err)
		}
		return nil, err
	}
	return resp, nil
}

func (c *UploadClient) newBackOff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.settings.RetryInitialInterval
	b.MaxInterval = c.settings.RetryMaxInterval
	b.MaxElapsedTime = 0
	b.Reset()

	return backoff.WithContext(backoff.WithMaxRetries(b, c.settings.MaxRetries), ctx)
}

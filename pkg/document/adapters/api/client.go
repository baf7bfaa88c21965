package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/hashicorp/go-hclog"
	"golang.org/x/time/rate"
	"resty.dev/v3"

	"github.com/hashicorp-forge/hermes-dmclient/pkg/document"
)

// Header names used by the document management services.
const (
	HeaderAuthorization        = "Authorization"
	HeaderServiceAuthorization = "ServiceAuthorization"
	HeaderUserID               = "user-id"
	HeaderContentType          = "Content-Type"
)

// client holds what the upload and metadata clients share: one resty client
// per endpoint, an optional rate limiter and a named logger. It keeps no
// per-call state.
type client struct {
	config  *Config
	resty   *resty.Client
	limiter *rate.Limiter
	logger  hclog.Logger
}

func newClient(cfg *Config, name string) (*client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	// Work on a copy so defaults don't leak into the caller's config.
	c := *cfg
	c.applyDefaults()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid %s config: %w", name, err)
	}

	logger := c.Logger.Named(name)

	rc := resty.NewWithClient(c.NewHTTPClient())
	rc.SetHeader("User-Agent", c.UserAgent)
	rc.SetLogger(&restyLogger{logger: logger})

	var limiter *rate.Limiter
	if c.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(c.RateLimit), c.Burst)
	}

	return &client{
		config:  &c,
		resty:   rc,
		limiter: limiter,
		logger:  logger,
	}, nil
}

// endpoint joins the base URL and path with exactly one slash. path is used
// as given otherwise.
func (c *client) endpoint(path string) string {
	return strings.TrimRight(c.config.BaseURL, "/") + "/" + strings.TrimLeft(path, "/")
}

// execute sends req and returns the response body of a 2xx response. A failed
// exchange is returned as a *document.TransportError; a rate limit wait that
// cannot complete is a plain *document.Error.
func (c *client) execute(ctx context.Context, op, method, path string, req *resty.Request) ([]byte, error) {
	endpoint := c.endpoint(path)

	if c.limiter != nil {
		// Throttling is local; the request was never sent.
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &document.Error{
				Op:  op,
				Err: fmt.Errorf("rate limit wait: %w", err),
			}
		}
	}

	req.SetContext(ctx).SetDoNotParseResponse(true)

	c.logger.Debug("sending request", "op", op, "method", method, "url", endpoint)

	var resp *resty.Response
	var err error
	switch method {
	case http.MethodGet:
		resp, err = req.Get(endpoint)
	case http.MethodPost:
		resp, err = req.Post(endpoint)
	default:
		return nil, fmt.Errorf("unsupported HTTP method: %s", method)
	}
	if err != nil {
		c.logger.Debug("request failed", "op", op, "url", endpoint, "error", err)
		return nil, &document.TransportError{Method: method, URL: endpoint, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &document.TransportError{
			Method:     method,
			URL:        endpoint,
			StatusCode: resp.StatusCode(),
			Status:     resp.Status(),
			Err:        fmt.Errorf("failed to read response: %w", err),
		}
	}

	c.logger.Debug("received response",
		"op", op,
		"url", endpoint,
		"status", resp.StatusCode(),
		"bytes", len(body),
	)

	if !resp.IsSuccess() {
		return nil, &document.TransportError{
			Method:     method,
			URL:        endpoint,
			StatusCode: resp.StatusCode(),
			Status:     resp.Status(),
			Body:       body,
		}
	}

	return body, nil
}

// decode unmarshals a response body, reporting failures as ErrDecode.
func decode(op string, body []byte, v any) error {
	if bytes.Equal(bytes.TrimSpace(body), []byte("null")) {
		return &document.Error{Op: op, Err: document.ErrDecode, Msg: "response body is null"}
	}
	if err := json.Unmarshal(body, v); err != nil {
		return &document.Error{
			Op:  op,
			Err: fmt.Errorf("%w: %w", document.ErrDecode, err),
		}
	}
	return nil
}

func invalidInput(op string, err error) error {
	return &document.Error{
		Op:  op,
		Err: fmt.Errorf("%w: %w", document.ErrInvalidInput, err),
	}
}

// restyLogger routes resty's own diagnostics through hclog.
type restyLogger struct {
	logger hclog.Logger
}

func (l *restyLogger) Errorf(format string, v ...any) {
	l.logger.Error(fmt.Sprintf(format, v...))
}

func (l *restyLogger) Warnf(format string, v ...any) {
	l.logger.Warn(fmt.Sprintf(format, v...))
}

func (l *restyLogger) Debugf(format string, v ...any) {
	l.logger.Debug(fmt.Sprintf(format, v...))
}

package api

import (
	"crypto/tls"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"
)

// Config contains configuration for one remote endpoint: either the document
// management store (uploads) or the metadata download gateway.
//
// Example configuration (HCL, see internal/config):
//
//	document_management {
//	  url        = "http://dm-store:8080"
//	  timeout    = "30s"
//	  rate_limit = 10
//	}
type Config struct {
	// BaseURL is the base URL of the remote service
	// Example: "http://dm-store:8080"
	BaseURL string `json:"baseUrl"`

	// TLSVerify controls TLS certificate verification
	// Set to false only for development/testing with self-signed certs
	TLSVerify *bool `json:"tlsVerify,omitempty"`

	// Timeout for each request
	// Default: 30 seconds
	Timeout time.Duration `json:"timeout,omitempty"`

	// RateLimit caps outgoing requests per second. Zero disables limiting.
	RateLimit float64 `json:"rateLimit,omitempty"`

	// Burst is the limiter bucket size
	// Default: 1
	Burst int `json:"burst,omitempty"`

	// UserAgent sent with every request
	UserAgent string `json:"userAgent,omitempty"`

	// Logger (optional)
	Logger hclog.Logger `json:"-"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	tlsVerify := true
	return &Config{
		TLSVerify: &tlsVerify,
		Timeout:   30 * time.Second,
		Burst:     1,
		UserAgent: "hermes-dmclient",
	}
}

// applyDefaults fills zero values from DefaultConfig.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()
	if c.TLSVerify == nil {
		c.TLSVerify = defaults.TLSVerify
	}
	if c.Timeout == 0 {
		c.Timeout = defaults.Timeout
	}
	if c.Burst == 0 {
		c.Burst = defaults.Burst
	}
	if c.UserAgent == "" {
		c.UserAgent = defaults.UserAgent
	}
	if c.Logger == nil {
		c.Logger = hclog.NewNullLogger()
	}
}

// Validate checks if the configuration is valid. All problems are reported.
func (c *Config) Validate() error {
	var result *multierror.Error

	if c.BaseURL == "" {
		result = multierror.Append(result, fmt.Errorf("base_url is required"))
	} else {
		parsedURL, err := url.Parse(c.BaseURL)
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("invalid base_url: %w", err))
		} else if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
			result = multierror.Append(result,
				fmt.Errorf("base_url must use http or https scheme, got: %q", parsedURL.Scheme))
		} else if parsedURL.Host == "" {
			result = multierror.Append(result, fmt.Errorf("base_url must include a host"))
		}
	}

	if c.Timeout < 0 {
		result = multierror.Append(result, fmt.Errorf("timeout must be positive, got: %v", c.Timeout))
	}

	if c.RateLimit < 0 {
		result = multierror.Append(result, fmt.Errorf("rate_limit must be non-negative, got: %v", c.RateLimit))
	}

	if c.Burst < 0 {
		result = multierror.Append(result, fmt.Errorf("burst must be non-negative, got: %d", c.Burst))
	}

	return result.ErrorOrNil()
}

// NewHTTPClient creates the underlying HTTP client for this endpoint
func (c *Config) NewHTTPClient() *http.Client {
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	}

	// Configure TLS verification
	if c.TLSVerify != nil && !*c.TLSVerify {
		transport.TLSClientConfig = &tls.Config{
			InsecureSkipVerify: true,
		}
	}

	return &http.Client{
		Timeout:   c.Timeout,
		Transport: transport,
	}
}

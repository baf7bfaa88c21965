package config

import (
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"
	"github.com/hashicorp/hcl/v2/hclsimple"

	"github.com/hashicorp-forge/hermes-dmclient/pkg/document/adapters/api"
	"github.com/hashicorp-forge/hermes-dmclient/pkg/resilience"
)

// Environment variables that override the configuration file.
const (
	EnvDocumentManagementURL = "DOCUMENT_MANAGEMENT_URL"
	EnvMetadataGatewayURL    = "DOCUMENT_MANAGEMENT_API_GATEWAY_URL"
	EnvAuthToken             = "DM_AUTH_TOKEN"
	EnvServiceAuthToken      = "DM_SERVICE_AUTH_TOKEN"
)

// Config is the dmclient configuration file.
type Config struct {
	// DocumentManagement is the upload service.
	DocumentManagement *Endpoint `hcl:"document_management,block"`

	// MetadataGateway is the metadata download gateway.
	MetadataGateway *Endpoint `hcl:"metadata_gateway,block"`

	// Resilience enables the circuit breaker around uploads when present.
	Resilience *Resilience `hcl:"resilience,block"`

	// LogLevel is one of trace, debug, info, warn or error.
	LogLevel string `hcl:"log_level,optional"`
}

// Endpoint configures one remote service.
type Endpoint struct {
	URL           string  `hcl:"url,optional"`
	Timeout       string  `hcl:"timeout,optional"` // e.g., "30s"
	TLSSkipVerify bool    `hcl:"tls_skip_verify,optional"`
	RateLimit     float64 `hcl:"rate_limit,optional"` // requests per second, 0 disables
	Burst         int     `hcl:"burst,optional"`
	UserAgent     string  `hcl:"user_agent,optional"`
}

// Resilience configures the upload circuit breaker and retries.
type Resilience struct {
	MaxFailures          int    `hcl:"max_failures,optional"`
	OpenTimeout          string `hcl:"open_timeout,optional"`
	HalfOpenRequests     int    `hcl:"half_open_requests,optional"`
	MaxRetries           int    `hcl:"max_retries,optional"`
	RetryInitialInterval string `hcl:"retry_initial_interval,optional"`
	RetryMaxInterval     string `hcl:"retry_max_interval,optional"`
}

// NewConfig loads the configuration file at path and applies environment
// overrides. An empty path yields a configuration built from the environment
// alone.
func NewConfig(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return nil, fmt.Errorf("configuration file not found: %s", path)
		}
		if err := hclsimple.DecodeFile(path, nil, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse configuration file: %w", err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) applyEnv() {
	if val, ok := os.LookupEnv(EnvDocumentManagementURL); ok && val != "" {
		if c.DocumentManagement == nil {
			c.DocumentManagement = &Endpoint{}
		}
		c.DocumentManagement.URL = val
	}
	if val, ok := os.LookupEnv(EnvMetadataGatewayURL); ok && val != "" {
		if c.MetadataGateway == nil {
			c.MetadataGateway = &Endpoint{}
		}
		c.MetadataGateway.URL = val
	}
}

// Validate checks the values that can be checked without knowing which
// service will be used. Every problem is reported.
func (c *Config) Validate() error {
	var result *multierror.Error

	if c.LogLevel != "" && hclog.LevelFromString(c.LogLevel) == hclog.NoLevel {
		result = multierror.Append(result, fmt.Errorf("log_level: unknown level %q", c.LogLevel))
	}
	if c.DocumentManagement != nil {
		if _, err := c.DocumentManagement.toAPIConfig(nil); err != nil {
			result = multierror.Append(result, fmt.Errorf("document_management: %w", err))
		}
	}
	if c.MetadataGateway != nil {
		if _, err := c.MetadataGateway.toAPIConfig(nil); err != nil {
			result = multierror.Append(result, fmt.Errorf("metadata_gateway: %w", err))
		}
	}
	if c.Resilience != nil {
		if _, err := c.Resilience.toSettings(nil); err != nil {
			result = multierror.Append(result, fmt.Errorf("resilience: %w", err))
		}
	}

	return result.ErrorOrNil()
}

// Level returns the configured log level, defaulting to info.
func (c *Config) Level() hclog.Level {
	if c.LogLevel == "" {
		return hclog.Info
	}
	return hclog.LevelFromString(c.LogLevel)
}

// UploadConfig returns the client configuration of the upload service.
func (c *Config) UploadConfig(logger hclog.Logger) (*api.Config, error) {
	if c.DocumentManagement == nil || c.DocumentManagement.URL == "" {
		return nil, fmt.Errorf("document management URL is required (document_management.url or %s)", EnvDocumentManagementURL)
	}
	return c.DocumentManagement.toAPIConfig(logger)
}

// MetadataConfig returns the client configuration of the metadata gateway.
func (c *Config) MetadataConfig(logger hclog.Logger) (*api.Config, error) {
	if c.MetadataGateway == nil || c.MetadataGateway.URL == "" {
		return nil, fmt.Errorf("metadata gateway URL is required (metadata_gateway.url or %s)", EnvMetadataGatewayURL)
	}
	return c.MetadataGateway.toAPIConfig(logger)
}

// ResilienceSettings returns the circuit breaker settings and whether the
// resilience block is present.
func (c *Config) ResilienceSettings(logger hclog.Logger) (resilience.Settings, bool, error) {
	if c.Resilience == nil {
		return resilience.Settings{}, false, nil
	}
	s, err := c.Resilience.toSettings(logger)
	if err != nil {
		return resilience.Settings{}, false, err
	}
	return s, true, nil
}

func (e *Endpoint) toAPIConfig(logger hclog.Logger) (*api.Config, error) {
	cfg := api.DefaultConfig()
	cfg.BaseURL = e.URL
	cfg.RateLimit = e.RateLimit
	cfg.Logger = logger

	if e.TLSSkipVerify {
		verify := false
		cfg.TLSVerify = &verify
	}
	if e.Burst != 0 {
		cfg.Burst = e.Burst
	}
	if e.UserAgent != "" {
		cfg.UserAgent = e.UserAgent
	}

	var result *multierror.Error
	if e.Timeout != "" {
		d, err := parseDuration("timeout", e.Timeout)
		if err != nil {
			result = multierror.Append(result, err)
		}
		cfg.Timeout = d
	}
	if e.RateLimit < 0 {
		result = multierror.Append(result, fmt.Errorf("rate_limit must not be negative"))
	}
	if e.Burst < 0 {
		result = multierror.Append(result, fmt.Errorf("burst must not be negative"))
	}
	if e.URL != "" {
		if err := cfg.Validate(); err != nil {
			result = multierror.Append(result, err)
		}
	}

	if err := result.ErrorOrNil(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (r *Resilience) toSettings(logger hclog.Logger) (resilience.Settings, error) {
	s := resilience.DefaultSettings()
	s.Logger = logger

	var result *multierror.Error

	if r.MaxFailures < 0 {
		result = multierror.Append(result, fmt.Errorf("max_failures must not be negative"))
	} else if r.MaxFailures > 0 {
		s.MaxFailures = uint32(r.MaxFailures)
	}
	if r.HalfOpenRequests < 0 {
		result = multierror.Append(result, fmt.Errorf("half_open_requests must not be negative"))
	} else if r.HalfOpenRequests > 0 {
		s.HalfOpenRequests = uint32(r.HalfOpenRequests)
	}
	if r.MaxRetries < 0 {
		result = multierror.Append(result, fmt.Errorf("max_retries must not be negative"))
	} else {
		s.MaxRetries = uint64(r.MaxRetries)
	}

	durations := []struct {
		name  string
		value string
		dst   *time.Duration
	}{
		{"open_timeout", r.OpenTimeout, &s.OpenTimeout},
		{"retry_initial_interval", r.RetryInitialInterval, &s.RetryInitialInterval},
		{"retry_max_interval", r.RetryMaxInterval, &s.RetryMaxInterval},
	}
	for _, d := range durations {
		if d.value == "" {
			continue
		}
		v, err := parseDuration(d.name, d.value)
		if err != nil {
			result = multierror.Append(result, err)
			continue
		}
		*d.dst = v
	}

	return s, result.ErrorOrNil()
}

func parseDuration(name, value string) (time.Duration, error) {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive", name)
	}
	return d, nil
}

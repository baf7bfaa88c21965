package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTempFile(t *testing.T, pattern, content string) string {
	t.Helper()
	tmpfile, err := os.CreateTemp(t.TempDir(), pattern)
	require.NoError(t, err)
	_, err = tmpfile.WriteString(content)
	require.NoError(t, err)
	require.NoError(t, tmpfile.Close())
	return tmpfile.Name()
}

func clearEnv(t *testing.T) {
	t.Helper()
	t.Setenv(EnvDocumentManagementURL, "")
	t.Setenv(EnvMetadataGatewayURL, "")
}

func TestNewConfig(t *testing.T) {
	t.Run("complete configuration", func(t *testing.T) {
		clearEnv(t)
		path := createTempFile(t, "dmclient-*.hcl", `
log_level = "debug"

document_management {
  url        = "http://dm-store:8080"
  timeout    = "10s"
  rate_limit = 5
  burst      = 2
}

metadata_gateway {
  url             = "https://gateway.example.com/api"
  tls_skip_verify = true
}

resilience {
  max_failures           = 3
  open_timeout           = "1m"
  max_retries            = 2
  retry_initial_interval = "100ms"
}
`)

		cfg, err := NewConfig(path)
		require.NoError(t, err)
		assert.Equal(t, hclog.Debug, cfg.Level())

		upload, err := cfg.UploadConfig(hclog.NewNullLogger())
		require.NoError(t, err)
		assert.Equal(t, "http://dm-store:8080", upload.BaseURL)
		assert.Equal(t, 10*time.Second, upload.Timeout)
		assert.Equal(t, 5.0, upload.RateLimit)
		assert.Equal(t, 2, upload.Burst)
		require.NotNil(t, upload.TLSVerify)
		assert.True(t, *upload.TLSVerify)

		metadata, err := cfg.MetadataConfig(hclog.NewNullLogger())
		require.NoError(t, err)
		assert.Equal(t, "https://gateway.example.com/api", metadata.BaseURL)
		assert.Equal(t, 30*time.Second, metadata.Timeout)
		require.NotNil(t, metadata.TLSVerify)
		assert.False(t, *metadata.TLSVerify)

		settings, ok, err := cfg.ResilienceSettings(hclog.NewNullLogger())
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, uint32(3), settings.MaxFailures)
		assert.Equal(t, time.Minute, settings.OpenTimeout)
		assert.Equal(t, uint64(2), settings.MaxRetries)
		assert.Equal(t, 100*time.Millisecond, settings.RetryInitialInterval)
		assert.Equal(t, 5*time.Second, settings.RetryMaxInterval)
		assert.NotNil(t, settings.Fallback)
	})

	t.Run("file not found", func(t *testing.T) {
		_, err := NewConfig("/nonexistent/dmclient.hcl")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "configuration file not found")
	})

	t.Run("invalid HCL syntax", func(t *testing.T) {
		path := createTempFile(t, "invalid-*.hcl", `
document_management {
  this is not valid HCL
}
`)
		_, err := NewConfig(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to parse")
	})

	t.Run("every invalid value is reported", func(t *testing.T) {
		clearEnv(t)
		path := createTempFile(t, "bad-*.hcl", `
log_level = "loud"

document_management {
  url     = "ftp://dm-store"
  timeout = "soon"
}

resilience {
  max_failures = -1
  open_timeout = "0s"
}
`)
		_, err := NewConfig(path)
		require.Error(t, err)
		msg := err.Error()
		assert.Contains(t, msg, "log_level")
		assert.Contains(t, msg, "document_management")
		assert.Contains(t, msg, "http or https")
		assert.Contains(t, msg, "timeout")
		assert.Contains(t, msg, "max_failures")
		assert.Contains(t, msg, "open_timeout")
	})

	t.Run("environment only", func(t *testing.T) {
		t.Setenv(EnvDocumentManagementURL, "http://dm-store:8080")
		t.Setenv(EnvMetadataGatewayURL, "http://gateway:8080")

		cfg, err := NewConfig("")
		require.NoError(t, err)
		assert.Equal(t, hclog.Info, cfg.Level())

		upload, err := cfg.UploadConfig(nil)
		require.NoError(t, err)
		assert.Equal(t, "http://dm-store:8080", upload.BaseURL)

		metadata, err := cfg.MetadataConfig(nil)
		require.NoError(t, err)
		assert.Equal(t, "http://gateway:8080", metadata.BaseURL)

		_, ok, err := cfg.ResilienceSettings(nil)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("environment overrides file", func(t *testing.T) {
		clearEnv(t)
		t.Setenv(EnvDocumentManagementURL, "http://override:9090")
		path := filepath.Join(t.TempDir(), "dmclient.hcl")
		require.NoError(t, os.WriteFile(path, []byte(`
document_management {
  url     = "http://dm-store:8080"
  timeout = "5s"
}
`), 0o600))

		cfg, err := NewConfig(path)
		require.NoError(t, err)

		upload, err := cfg.UploadConfig(nil)
		require.NoError(t, err)
		assert.Equal(t, "http://override:9090", upload.BaseURL)
		assert.Equal(t, 5*time.Second, upload.Timeout)
	})
}

func TestConfig_MissingURLs(t *testing.T) {
	clearEnv(t)
	cfg, err := NewConfig("")
	require.NoError(t, err)

	_, err = cfg.UploadConfig(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), EnvDocumentManagementURL)

	_, err = cfg.MetadataConfig(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), EnvMetadataGatewayURL)
}

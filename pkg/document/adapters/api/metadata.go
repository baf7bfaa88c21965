package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/hashicorp-forge/hermes-dmclient/pkg/document"
)

const (
	// HealthPath is the gateway's liveness endpoint.
	HealthPath = "/health"

	healthContentType = "application/json;charset=UTF-8"
)

// MetadataClient implements document.MetadataClient against the metadata
// download gateway.
type MetadataClient struct {
	*client
}

var _ document.MetadataClient = (*MetadataClient)(nil)

// NewMetadataClient creates a metadata client for the gateway at cfg.BaseURL.
func NewMetadataClient(cfg *Config) (*MetadataClient, error) {
	c, err := newClient(cfg, "metadata-client")
	if err != nil {
		return nil, err
	}
	return &MetadataClient{client: c}, nil
}

// GetMetadata issues GET <base-url>/<documentMetadataPath>. The path is not
// escaped or checked; callers control what they embed in it.
func (c *MetadataClient) GetMetadata(ctx context.Context, authToken, documentMetadataPath string) (*document.Document, error) {
	const op = "GetMetadata"

	if authToken == "" {
		return nil, invalidInput(op, fmt.Errorf("auth token is required"))
	}
	if strings.Trim(documentMetadataPath, "/") == "" {
		return nil, invalidInput(op, fmt.Errorf("document metadata path is required"))
	}

	r := c.resty.R().SetHeader(HeaderAuthorization, authToken)

	body, err := c.execute(ctx, op, http.MethodGet, documentMetadataPath, r)
	if err != nil {
		return nil, err
	}

	var doc document.Document
	if err := decode(op, body, &doc); err != nil {
		return nil, err
	}

	return &doc, nil
}

// Health issues GET <base-url>/health.
func (c *MetadataClient) Health(ctx context.Context) (*document.HealthStatus, error) {
	const op = "Health"

	r := c.resty.R().SetHeader(HeaderContentType, healthContentType)

	body, err := c.execute(ctx, op, http.MethodGet, HealthPath, r)
	if err != nil {
		return nil, err
	}

	var status document.HealthStatus
	if err := decode(op, body, &status); err != nil {
		return nil, err
	}

	return &status, nil
}

package api

import (
	"bytes"
	"context"
	"fmt"
	"net/http"

	"github.com/hashicorp-forge/hermes-dmclient/pkg/document"
)

const (
	// DocumentsPath is where the store accepts uploads.
	DocumentsPath = "/documents"

	// FilesField is the multipart field name of each uploaded file.
	FilesField = "files"

	// ClassificationField is the multipart field carrying the classification.
	ClassificationField = "classification"
)

// UploadClient implements document.UploadClient against the document
// management store.
type UploadClient struct {
	*client
}

var _ document.UploadClient = (*UploadClient)(nil)

// NewUploadClient creates an upload client for the store at cfg.BaseURL.
func NewUploadClient(cfg *Config) (*UploadClient, error) {
	c, err := newClient(cfg, "upload-client")
	if err != nil {
		return nil, err
	}
	return &UploadClient{client: c}, nil
}

type part struct {
	name        string
	contentType string
	data        []byte
}

// Upload posts files to <base-url>/documents as multipart/form-data: one
// "files" part per file, each with its own Content-Type, and one
// "classification" part. Input is validated and every file read before the
// request is sent.
func (c *UploadClient) Upload(ctx context.Context, authToken, serviceAuthToken, userID string, files []document.File) (*document.UploadResponse, error) {
	const op = "Upload"

	req := document.UploadRequest{
		AuthToken:        authToken,
		ServiceAuthToken: serviceAuthToken,
		UserID:           userID,
		Files:            files,
	}
	if err := req.Validate(); err != nil {
		return nil, invalidInput(op, err)
	}

	parts, err := readParts(files)
	if err != nil {
		return nil, &document.Error{Op: op, Err: err}
	}

	r := c.resty.R().
		SetHeader(HeaderAuthorization, authToken).
		SetHeader(HeaderServiceAuthorization, serviceAuthToken).
		SetHeader(HeaderUserID, userID)

	for _, p := range parts {
		r.SetMultipartField(FilesField, p.name, p.contentType, bytes.NewReader(p.data))
	}
	r.SetMultipartFormData(map[string]string{
		ClassificationField: document.UploadClassification.String(),
	})

	c.logger.Debug("uploading files", "count", len(parts), "user_id", userID)

	body, err := c.execute(ctx, op, http.MethodPost, DocumentsPath, r)
	if err != nil {
		return nil, err
	}

	var resp document.UploadResponse
	if err := decode(op, body, &resp); err != nil {
		return nil, err
	}

	return &resp, nil
}

// readParts loads the payload of every file.
func readParts(files []document.File) ([]part, error) {
	parts := make([]part, 0, len(files))
	for _, f := range files {
		data, err := f.Bytes()
		if err != nil {
			return nil, fmt.Errorf("%w: reading %q: %w", document.ErrTemporaryStore, f.Name, err)
		}
		parts = append(parts, part{
			name:        f.Name,
			contentType: f.ContentType,
			data:        data,
		})
	}
	return parts, nil
}

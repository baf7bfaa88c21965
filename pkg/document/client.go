package document

import "context"

// UploadClient uploads files to the document management store.
type UploadClient interface {
	// Upload posts files as one multipart request. authToken and
	// serviceAuthToken are forwarded verbatim as the Authorization and
	// ServiceAuthorization headers, userID as the user-id header.
	Upload(ctx context.Context, authToken, serviceAuthToken, userID string, files []File) (*UploadResponse, error)
}

// MetadataClient reads document metadata through the metadata gateway.
type MetadataClient interface {
	// GetMetadata fetches the record at documentMetadataPath, which is
	// appended to the gateway base URL as given.
	GetMetadata(ctx context.Context, authToken, documentMetadataPath string) (*Document, error)

	// Health probes the gateway.
	Health(ctx context.Context) (*HealthStatus, error)
}

// UploadFunc adapts an ordinary function to the UploadClient interface.
type UploadFunc func(ctx context.Context, authToken, serviceAuthToken, userID string, files []File) (*UploadResponse, error)

// Upload calls f.
func (f UploadFunc) Upload(ctx context.Context, authToken, serviceAuthToken, userID string, files []File) (*UploadResponse, error) {
	return f(ctx, authToken, serviceAuthToken, userID, files)
}

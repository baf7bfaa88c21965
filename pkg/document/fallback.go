package document

import (
	"context"
	"net/http"
)

// ServiceUnavailable is the degraded-mode counterpart of UploadClient.Upload.
// It returns one result per file with a 503 status, in input order, and never
// performs I/O. Only files is consulted.
func ServiceUnavailable(_ context.Context, _, _, _ string, files []File) (*UploadResponse, error) {
	results := make([]FileUploadResult, len(files))
	for i, f := range files {
		results[i] = FileUploadResult{
			FileName: f.Name,
			MimeType: f.ContentType,
			Status:   http.StatusServiceUnavailable,
		}
	}
	return &UploadResponse{Results: results}, nil
}

var _ UploadClient = UploadFunc(ServiceUnavailable)

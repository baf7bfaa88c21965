// Package api provides HTTP clients for the document management store and the
// metadata download gateway.
//
// # Overview
//
// UploadClient and MetadataClient implement the interfaces in pkg/document by
// making REST calls with resty. Each client talks to one endpoint and is
// configured on its own, so uploads and metadata reads can point at different
// deployments.
//
// # Configuration Example
//
//	document_management {
//	  url        = "http://dm-store:8080"
//	  timeout    = "30s"
//	  rate_limit = 10
//	}
//
//	metadata_gateway {
//	  url     = "http://dm-gateway:3453"
//	  timeout = "10s"
//	}
//
// # API Endpoints Used
//
// Document management store:
//   - POST /documents (multipart/form-data: files, classification)
//
// Metadata download gateway:
//   - GET  /{document_metadata_uri}
//   - GET  /health
//
// # Headers
//
// Upload requests carry Authorization, ServiceAuthorization and user-id, all
// forwarded verbatim. Metadata requests carry Authorization only. Tokens are
// never logged.
//
// # Error Handling
//
// The clients never retry. Non-2xx responses and network failures are
// returned as *document.TransportError with the status and body untouched.
// Retries, circuit breaking and fallback belong to pkg/resilience.
package api

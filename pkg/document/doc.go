// Package document defines the types and client contracts for talking to a
// remote document management service.
//
// # Clients
//
// Two independent contracts are exposed:
//
//   - UploadClient posts one or more in-memory files as a multipart request to
//     the document management store and returns one FileUploadResult per file.
//   - MetadataClient fetches a document's metadata record through the metadata
//     download gateway and probes the gateway's health endpoint.
//
// The concrete HTTP implementation lives in the adapters/api package. Both
// endpoints are configured separately because the store and the gateway are
// not assumed to be the same service instance.
//
// # Errors
//
// Every failure can be classified with errors.Is:
//
//   - ErrInvalidInput: caller supplied bad input, nothing was sent
//   - ErrTemporaryStore: a file's bytes could not be read, nothing was sent
//   - ErrTransport: the HTTP call failed; use errors.As with *TransportError
//     to get the status code and body exactly as returned
//   - ErrDecode: the response body did not match the expected schema
//
// # Degraded mode
//
// ServiceUnavailable has the same shape as UploadClient.Upload and produces a
// synthetic response with a 503 status per file. It never touches the network
// and is meant to be selected by a resilience wrapper such as the one in
// pkg/resilience when the upload circuit is open.
package document

// Package resilience wraps document clients with the policies the clients
// themselves leave out: circuit breaking, bounded retries and degraded-mode
// fallback.
package resilience

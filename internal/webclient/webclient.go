package webclient

import "context"

// WebClient is the "native fetch" used by the request builder: it executes one
// fully built request and returns the buffered response.
type WebClient interface {
	Do(ctx context.Context, req *Request) (*Response, error)

	// Get is a convenience method for simple GET requests
	Get(ctx context.Context, url string) (*Response, error)

	Close() error
}

// Package httpclient is the transport shared by the API client and the webhook sink.
package httpclient

import "context"

// Response is the part of an HTTP response callers read.
type Response interface {
	Body() []byte
	StatusCode() int
	// Status is the status line text, e.g. "404 Not Found".
	Status() string
}

// Doer issues a request with an arbitrary verb. A nil body sends no payload.
type Doer interface {
	Do(ctx context.Context, method, url string, headers map[string]string, body []byte) (Response, error)
}

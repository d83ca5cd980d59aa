package llm

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

type contextKey string

const (
	requestIDContextKey contextKey = "llm_request_id"

	requestIDHeader = "X-Request-Id"
)

// WithRequestID returns a context carrying the id of the analyst action
// that triggered a provider call. Outbound requests are tagged with it.
func WithRequestID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, requestIDContextKey, id)
}

// RequestIDFromContext retrieves the request id, if present.
func RequestIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(requestIDContextKey).(uuid.UUID)
	return id, ok
}

// contextAwareTransport copies the request id from the context into the
// X-Request-Id header of each outbound provider request.
type contextAwareTransport struct {
	base http.RoundTripper
}

func (t *contextAwareTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if id, ok := RequestIDFromContext(req.Context()); ok {
		req = req.Clone(req.Context())
		req.Header.Set(requestIDHeader, id.String())
	}
	return t.base.RoundTrip(req)
}

// newHTTPClient builds the HTTP client shared by the provider SDKs.
func newHTTPClient(cfg *Config) *http.Client {
	return &http.Client{
		Timeout:   cfg.Timeout,
		Transport: &contextAwareTransport{base: http.DefaultTransport},
	}
}

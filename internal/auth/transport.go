package auth

import (
	"net/http"

	"github.com/google/uuid"
)

// RequestIDHeader carries a per-request correlation id.
const RequestIDHeader = "X-Request-ID"

// Transport is an http.RoundTripper that attaches a bearer token from a
// TokenSource to every request. The token is fetched per request, so the
// source's caching policy decides when a refresh actually happens.
type Transport struct {
	Source TokenSource

	// Base is the underlying transport. http.DefaultTransport when nil.
	Base http.RoundTripper
}

// NewTransport creates a Transport over the default base transport.
func NewTransport(source TokenSource) *Transport {
	return &Transport{Source: source}
}

// RoundTrip implements http.RoundTripper. The request is cloned before
// mutation, per the RoundTripper contract.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	tok, err := t.Source.Token(req.Context())
	if err != nil {
		return nil, err
	}

	clone := req.Clone(req.Context())
	clone.Header.Set("Authorization", "Bearer "+tok.Value)
	if clone.Header.Get(RequestIDHeader) == "" {
		clone.Header.Set(RequestIDHeader, uuid.NewString())
	}

	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(clone)
}

package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kwhite/azchat/internal/core"
)

func TestTransport_AttachesBearerToken(t *testing.T) {
	var gotAuth, gotID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotID = r.Header.Get(RequestIDHeader)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	source := TokenSourceFunc(func(ctx context.Context) (Token, error) {
		return Token{Value: "abc123", ExpiresOn: time.Now().Add(time.Hour)}, nil
	})

	client := &http.Client{Transport: NewTransport(source)}
	resp, err := client.Get(srv.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	resp.Body.Close()

	if gotAuth != "Bearer abc123" {
		t.Errorf("expected bearer header, got %q", gotAuth)
	}
	if gotID == "" {
		t.Error("expected a generated request id")
	}
}

func TestTransport_DoesNotMutateOriginalRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	source := TokenSourceFunc(func(ctx context.Context) (Token, error) {
		return Token{Value: "abc123", ExpiresOn: time.Now().Add(time.Hour)}, nil
	})

	req, _ := http.NewRequest(http.MethodGet, srv.URL, nil)
	client := &http.Client{Transport: NewTransport(source)}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	resp.Body.Close()

	if req.Header.Get("Authorization") != "" {
		t.Error("original request should not carry the injected header")
	}
}

func TestTransport_TokenErrorAbortsRequest(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
	}))
	defer srv.Close()

	source := TokenSourceFunc(func(ctx context.Context) (Token, error) {
		return Token{}, core.WrapError(core.ErrAuthFailed, errors.New("denied"))
	})

	client := &http.Client{Transport: NewTransport(source)}
	_, err := client.Get(srv.URL)
	if !errors.Is(err, core.ErrAuthFailed) {
		t.Fatalf("expected AUTH_FAILED, got %v", err)
	}
	if hits != 0 {
		t.Errorf("expected no outbound call after token failure, got %d", hits)
	}
}

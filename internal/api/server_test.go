// internal/api/server_test.go
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kwhite/azchat/internal/chat"
	"github.com/kwhite/azchat/internal/core"
	"github.com/kwhite/azchat/internal/metrics"
	"github.com/kwhite/azchat/internal/template"
	"go.uber.org/zap"
)

// stubService fakes the chat client with canned results.
type stubService struct {
	resp      *chat.Response
	err       error
	lastMsg   string
	lastTmpl  string
	lastVars  map[string]string
	chatCalls int
}

func (s *stubService) Chat(ctx context.Context, message string, opts ...chat.Option) (*chat.Response, error) {
	s.chatCalls++
	s.lastMsg = message
	return s.resp, s.err
}

func (s *stubService) ChatWithTemplate(ctx context.Context, tmpl string, vars map[string]string, opts ...chat.Option) (*chat.Response, error) {
	s.lastTmpl = tmpl
	s.lastVars = vars
	rendered, err := template.Render(tmpl, vars)
	if err != nil {
		return nil, err
	}
	return s.Chat(ctx, rendered, opts...)
}

func newTestServer(svc ChatService, reg *metrics.Registry) *Server {
	return NewServer(Config{Host: "127.0.0.1", Port: 0}, svc, reg, zap.NewNop())
}

func TestServer_Health(t *testing.T) {
	srv := newTestServer(&stubService{}, nil)

	req := httptest.NewRequest("GET", "/api/health", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"status":"ok"`) {
		t.Errorf("unexpected body: %s", w.Body.String())
	}
}

func TestServer_Chat(t *testing.T) {
	svc := &stubService{resp: &chat.Response{
		Content: "hello there",
		Usage:   chat.Usage{InputTokens: 3, OutputTokens: 5},
	}}
	srv := newTestServer(svc, nil)

	body := `{"message": "hi", "system_message": "be nice", "max_tokens": 64}`
	req := httptest.NewRequest("POST", "/api/chat", strings.NewReader(body))
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if svc.lastMsg != "hi" {
		t.Errorf("expected message forwarded, got %q", svc.lastMsg)
	}

	var resp struct {
		Data chatResult `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Data.Content != "hello there" {
		t.Errorf("unexpected content: %q", resp.Data.Content)
	}
	if resp.Data.OutputTokens != 5 {
		t.Errorf("unexpected usage: %+v", resp.Data)
	}
}

func TestServer_Chat_EmptyMessage(t *testing.T) {
	srv := newTestServer(&stubService{}, nil)

	req := httptest.NewRequest("POST", "/api/chat", strings.NewReader(`{}`))
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestServer_Chat_MethodNotAllowed(t *testing.T) {
	srv := newTestServer(&stubService{}, nil)

	req := httptest.NewRequest("GET", "/api/chat", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", w.Code)
	}
}

func TestServer_ChatTemplate(t *testing.T) {
	svc := &stubService{resp: &chat.Response{Content: "ok"}}
	srv := newTestServer(svc, nil)

	body := `{"template": "Hello {name}", "variables": {"name": "World"}}`
	req := httptest.NewRequest("POST", "/api/chat/template", strings.NewReader(body))
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if svc.lastMsg != "Hello World" {
		t.Errorf("expected rendered message, got %q", svc.lastMsg)
	}
}

func TestServer_ChatTemplate_MissingKey(t *testing.T) {
	svc := &stubService{resp: &chat.Response{Content: "ok"}}
	srv := newTestServer(svc, nil)

	body := `{"template": "Hello {name}", "variables": {}}`
	req := httptest.NewRequest("POST", "/api/chat/template", strings.NewReader(body))
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for missing key, got %d", w.Code)
	}
	if svc.chatCalls != 0 {
		t.Errorf("expected no chat call, got %d", svc.chatCalls)
	}
}

func TestServer_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"timeout", core.WrapError(core.ErrRequestTimeout, errors.New("deadline")), http.StatusGatewayTimeout},
		{"auth", core.WrapError(core.ErrAuthFailed, errors.New("denied")), http.StatusBadGateway},
		{"upstream", core.WrapError(core.ErrRequestFailed, errors.New("status 500")), http.StatusBadGateway},
		{"malformed", core.WrapError(core.ErrResponseMalformed, errors.New("no choices")), http.StatusBadGateway},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(&stubService{err: tt.err}, nil)

			req := httptest.NewRequest("POST", "/api/chat", strings.NewReader(`{"message": "hi"}`))
			w := httptest.NewRecorder()
			srv.Handler().ServeHTTP(w, req)

			if w.Code != tt.status {
				t.Errorf("expected %d, got %d", tt.status, w.Code)
			}
		})
	}
}

func TestServer_MetricsEndpoint(t *testing.T) {
	reg := metrics.NewRegistry()
	srv := newTestServer(&stubService{resp: &chat.Response{Content: "ok"}}, reg)

	req := httptest.NewRequest("GET", "/metrics", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 from /metrics, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "go_goroutines") {
		t.Error("expected runtime metrics in exposition")
	}
}

func TestServer_APIKey(t *testing.T) {
	svc := &stubService{resp: &chat.Response{Content: "ok"}}
	srv := NewServer(Config{Host: "127.0.0.1", Port: 0, APIKey: "sekrit"}, svc, nil, zap.NewNop())

	req := httptest.NewRequest("POST", "/api/chat", strings.NewReader(`{"message": "hi"}`))
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without key, got %d", w.Code)
	}

	req = httptest.NewRequest("POST", "/api/chat", strings.NewReader(`{"message": "hi"}`))
	req.Header.Set("X-API-Key", "sekrit")
	w = httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("expected 200 with key, got %d", w.Code)
	}

	// Health stays open.
	req = httptest.NewRequest("GET", "/api/health", nil)
	w = httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("expected open health endpoint, got %d", w.Code)
	}
}

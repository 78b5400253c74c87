// internal/api/server.go
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/kwhite/azchat/internal/api/middleware"
	"github.com/kwhite/azchat/internal/api/response"
	"github.com/kwhite/azchat/internal/chat"
	"github.com/kwhite/azchat/internal/core"
	"github.com/kwhite/azchat/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// ChatService is the server's view of the chat client.
type ChatService interface {
	Chat(ctx context.Context, message string, opts ...chat.Option) (*chat.Response, error)
	ChatWithTemplate(ctx context.Context, tmpl string, vars map[string]string, opts ...chat.Option) (*chat.Response, error)
}

// Server exposes the chat client over HTTP.
type Server struct {
	httpServer *http.Server
	service    ChatService
	logger     *zap.Logger
}

// Config holds server configuration
type Config struct {
	Host        string
	Port        int
	APIKey      string
	MetricsPath string
}

// NewServer creates a new HTTP server. A nil registry disables the
// metrics endpoint and middleware.
func NewServer(cfg Config, service ChatService, reg *metrics.Registry, logger *zap.Logger) *Server {
	s := &Server{
		service: service,
		logger:  logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/health", s.handleHealth)

	auth := middleware.APIKeyAuth(cfg.APIKey)
	mux.Handle("/api/chat", auth(http.HandlerFunc(s.handleChat)))
	mux.Handle("/api/chat/template", auth(http.HandlerFunc(s.handleChatTemplate)))

	var handler http.Handler = mux
	if reg != nil {
		path := cfg.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		mux.Handle(path, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		handler = metrics.HTTPMiddleware(reg)(mux)
	}

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 2 * time.Minute, // completions can be slow
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

// Handler returns the root handler, for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

type chatRequest struct {
	Message       string   `json:"message"`
	SystemMessage string   `json:"system_message,omitempty"`
	Temperature   *float64 `json:"temperature,omitempty"`
	MaxTokens     *int     `json:"max_tokens,omitempty"`
}

type templateRequest struct {
	Template      string            `json:"template"`
	Variables     map[string]string `json:"variables"`
	SystemMessage string            `json:"system_message,omitempty"`
	Temperature   *float64          `json:"temperature,omitempty"`
	MaxTokens     *int              `json:"max_tokens,omitempty"`
}

type chatResult struct {
	Content      string `json:"content"`
	InputTokens  int    `json:"input_tokens"`
	OutputTokens int    `json:"output_tokens"`
	FinishReason string `json:"finish_reason,omitempty"`
}

var errBadRequest = &core.Error{Code: "BAD_REQUEST", Message: "invalid request body"}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		response.Error(w, http.StatusMethodNotAllowed,
			core.WrapError(errBadRequest, fmt.Errorf("method %s not allowed", r.Method)))
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, core.WrapError(errBadRequest, err))
		return
	}
	if req.Message == "" {
		response.Error(w, http.StatusBadRequest,
			core.WrapError(errBadRequest, fmt.Errorf("message is required")))
		return
	}

	resp, err := s.service.Chat(r.Context(), req.Message,
		callOptions(req.SystemMessage, req.Temperature, req.MaxTokens)...)
	if err != nil {
		s.writeChatError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, toResult(resp))
}

func (s *Server) handleChatTemplate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		response.Error(w, http.StatusMethodNotAllowed,
			core.WrapError(errBadRequest, fmt.Errorf("method %s not allowed", r.Method)))
		return
	}

	var req templateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, core.WrapError(errBadRequest, err))
		return
	}
	if req.Template == "" {
		response.Error(w, http.StatusBadRequest,
			core.WrapError(errBadRequest, fmt.Errorf("template is required")))
		return
	}

	resp, err := s.service.ChatWithTemplate(r.Context(), req.Template, req.Variables,
		callOptions(req.SystemMessage, req.Temperature, req.MaxTokens)...)
	if err != nil {
		s.writeChatError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, toResult(resp))
}

func (s *Server) writeChatError(w http.ResponseWriter, err error) {
	s.logger.Warn("chat request failed", zap.Error(err))
	response.Error(w, httpStatus(err), err)
}

// httpStatus maps the client's error taxonomy onto gateway responses.
func httpStatus(err error) int {
	switch {
	case errors.Is(err, core.ErrTemplateInvalid):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrRequestTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, core.ErrAuthFailed),
		errors.Is(err, core.ErrRequestFailed),
		errors.Is(err, core.ErrResponseMalformed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func callOptions(system string, temperature *float64, maxTokens *int) []chat.Option {
	var opts []chat.Option
	if system != "" {
		opts = append(opts, chat.WithSystemMessage(system))
	}
	if temperature != nil {
		opts = append(opts, chat.WithTemperature(*temperature))
	}
	if maxTokens != nil {
		opts = append(opts, chat.WithMaxTokens(*maxTokens))
	}
	return opts
}

func toResult(resp *chat.Response) chatResult {
	return chatResult{
		Content:      resp.Content,
		InputTokens:  resp.Usage.InputTokens,
		OutputTokens: resp.Usage.OutputTokens,
		FinishReason: resp.FinishReason,
	}
}

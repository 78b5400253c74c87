// Package chat implements the Azure OpenAI chat client: a service-principal
// authenticated wrapper around a single deployment's chat-completions
// endpoint, with optional prompt templating and transcript archiving.
package chat

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/kwhite/azchat/internal/auth"
	"github.com/kwhite/azchat/internal/config"
	"github.com/kwhite/azchat/internal/core"
	"github.com/kwhite/azchat/internal/metrics"
	"github.com/kwhite/azchat/internal/template"
	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// Client talks to one Azure OpenAI deployment. Safe for concurrent use:
// the token cache inside the transport is the only shared mutable state.
type Client struct {
	api        *openai.Client
	deployment string
	defaults   config.ChatConfig

	log      *zap.Logger
	metrics  *metrics.Registry
	recorder Recorder
}

// ClientOption configures a Client at construction time.
type ClientOption func(*Client)

// WithLogger attaches a logger. Defaults to a no-op logger.
func WithLogger(log *zap.Logger) ClientOption {
	return func(c *Client) { c.log = log }
}

// WithMetrics attaches a metrics registry. Nil is a valid no-op registry.
func WithMetrics(reg *metrics.Registry) ClientOption {
	return func(c *Client) { c.metrics = reg }
}

// WithRecorder attaches a transcript recorder. Archive failures are
// logged, never surfaced to the chat caller.
func WithRecorder(rec Recorder) ClientOption {
	return func(c *Client) { c.recorder = rec }
}

// New creates a client from validated configuration and a token source.
// Construction performs no network I/O; the first token is fetched lazily
// by the transport on the first call.
func New(cfg *config.Config, source auth.TokenSource, opts ...ClientOption) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Client{
		deployment: cfg.Azure.Deployment,
		defaults:   cfg.Chat,
		log:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}

	apiCfg := openai.DefaultAzureConfig("", strings.TrimSuffix(cfg.Azure.Endpoint, "/"))
	apiCfg.APIType = openai.APITypeAzureAD
	apiCfg.APIVersion = cfg.Azure.APIVersion
	// Deployment names are taken verbatim; the default mapper strips
	// dots and colons.
	apiCfg.AzureModelMapperFunc = func(model string) string { return model }
	apiCfg.HTTPClient = &http.Client{Transport: auth.NewTransport(source)}

	c.api = openai.NewClientWithConfig(apiCfg)
	return c, nil
}

// NewFromConfig wires the full credential chain: a service-principal
// source wrapped in the expiry-aware cache, with refreshes counted on the
// attached registry.
func NewFromConfig(cfg *config.Config, opts ...ClientOption) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Peek at the options for the registry so cache refreshes are counted.
	probe := &Client{}
	for _, opt := range opts {
		opt(probe)
	}

	source, err := auth.NewClientSecretSource(
		cfg.Azure.TenantID, cfg.Azure.ClientID, cfg.Azure.ClientSecret, "")
	if err != nil {
		return nil, err
	}

	cached := auth.NewCachedSource(source,
		auth.WithRefreshHook(probe.metrics.RecordTokenRefresh))

	return New(cfg, cached, opts...)
}

// Chat sends a single user message and returns the first completion.
// One outbound call, no retries; transient-failure policy belongs to the
// caller.
func (c *Client) Chat(ctx context.Context, message string, opts ...Option) (*Response, error) {
	o := callOptions{
		systemMessage: c.defaults.SystemMessage,
		temperature:   c.defaults.Temperature,
		maxTokens:     c.defaults.MaxTokens,
		timeout:       c.defaults.Timeout,
	}
	for _, opt := range opts {
		opt(&o)
	}

	if _, ok := ctx.Deadline(); !ok && o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := c.complete(ctx, o, message)
	elapsed := time.Since(start)

	c.metrics.RecordChat(outcome(err), elapsed.Seconds())
	if err != nil {
		c.log.Warn("chat request failed",
			zap.String("deployment", c.deployment),
			zap.Duration("elapsed", elapsed),
			zap.Error(err))
		return nil, err
	}

	c.metrics.RecordUsage(resp.Usage.InputTokens, resp.Usage.OutputTokens)
	c.log.Debug("chat request completed",
		zap.String("deployment", c.deployment),
		zap.Duration("elapsed", elapsed),
		zap.Int("input_tokens", resp.Usage.InputTokens),
		zap.Int("output_tokens", resp.Usage.OutputTokens))

	c.record(ctx, o, message, resp)
	return resp, nil
}

// ChatWithTemplate renders a {name}-placeholder template and sends the
// result as the user message. A missing substitution key fails before any
// network call.
func (c *Client) ChatWithTemplate(ctx context.Context, tmpl string, vars map[string]string, opts ...Option) (*Response, error) {
	message, err := template.Render(tmpl, vars)
	if err != nil {
		return nil, err
	}
	return c.Chat(ctx, message, opts...)
}

func (c *Client) complete(ctx context.Context, o callOptions, message string) (*Response, error) {
	msgs := make([]Message, 0, 2)
	if o.systemMessage != "" {
		msgs = append(msgs, Message{Role: openai.ChatMessageRoleSystem, Content: o.systemMessage})
	}
	msgs = append(msgs, Message{Role: openai.ChatMessageRoleUser, Content: message})

	// The request body omits a zero temperature, which would silently
	// re-enable the service default. Smallest nonzero float32 survives
	// serialization and rounds to zero on the service side.
	temp := float32(o.temperature)
	if temp == 0 {
		temp = math.SmallestNonzeroFloat32
	}

	req := openai.ChatCompletionRequest{
		Model:       c.deployment,
		Messages:    toAPIMessages(msgs),
		MaxTokens:   o.maxTokens,
		Temperature: temp,
	}

	resp, err := c.api.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, mapError(err)
	}

	if len(resp.Choices) == 0 {
		return nil, core.WrapError(core.ErrResponseMalformed,
			fmt.Errorf("response contains no choices"))
	}

	return &Response{
		Content: strings.TrimSpace(resp.Choices[0].Message.Content),
		Usage: Usage{
			InputTokens:  resp.Usage.PromptTokens,
			OutputTokens: resp.Usage.CompletionTokens,
		},
		FinishReason: string(resp.Choices[0].FinishReason),
	}, nil
}

func toAPIMessages(msgs []Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, len(msgs))
	for i, m := range msgs {
		out[i] = openai.ChatCompletionMessage{Role: m.Role, Content: m.Content}
	}
	return out
}

// record archives the exchange when a recorder is attached. Failures are
// reported through the log and metrics only.
func (c *Client) record(ctx context.Context, o callOptions, prompt string, resp *Response) {
	if c.recorder == nil {
		return
	}
	ex := Exchange{
		CreatedAt:     time.Now().UTC(),
		Deployment:    c.deployment,
		SystemMessage: o.systemMessage,
		Prompt:        prompt,
		Completion:    resp.Content,
		InputTokens:   resp.Usage.InputTokens,
		OutputTokens:  resp.Usage.OutputTokens,
		FinishReason:  resp.FinishReason,
	}
	if err := c.recorder.Record(ctx, ex); err != nil {
		c.metrics.RecordTranscript("error")
		c.log.Warn("transcript archive failed", zap.Error(err))
		return
	}
	c.metrics.RecordTranscript("ok")
}

// mapError folds transport and API errors into the client's taxonomy.
func mapError(err error) error {
	var coreErr *core.Error
	if errors.As(err, &coreErr) {
		// Token acquisition failures surface through the transport
		// already classified.
		return coreErr
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return core.WrapError(core.ErrRequestTimeout, err)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return core.WrapError(core.ErrRequestFailed,
			fmt.Errorf("status %d: %s", apiErr.HTTPStatusCode, apiErr.Message))
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return core.WrapError(core.ErrRequestFailed,
			fmt.Errorf("status %d: %v", reqErr.HTTPStatusCode, reqErr.Err))
	}

	return core.WrapError(core.ErrRequestFailed, err)
}

func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	var coreErr *core.Error
	if errors.As(err, &coreErr) {
		return coreErr.Code
	}
	return "unknown"
}

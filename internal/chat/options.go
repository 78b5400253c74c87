package chat

import "time"

// callOptions are the per-call generation knobs. Zero values are filled
// from the client's configured defaults before options apply.
type callOptions struct {
	systemMessage string
	temperature   float64
	maxTokens     int
	timeout       time.Duration
}

// Option overrides a generation parameter for a single call.
type Option func(*callOptions)

// WithSystemMessage sets the system message sent before the user message.
func WithSystemMessage(msg string) Option {
	return func(o *callOptions) { o.systemMessage = msg }
}

// WithTemperature overrides the sampling temperature. An explicit 0 is
// honored: it is sent as the smallest nonzero float32 so the encoder
// does not drop it and fall back to the service default.
func WithTemperature(t float64) Option {
	return func(o *callOptions) { o.temperature = t }
}

// WithMaxTokens overrides the completion token limit.
func WithMaxTokens(n int) Option {
	return func(o *callOptions) { o.maxTokens = n }
}

// WithTimeout overrides the per-call deadline. Ignored when the caller's
// context already carries one.
func WithTimeout(d time.Duration) Option {
	return func(o *callOptions) { o.timeout = d }
}

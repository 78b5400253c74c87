package chat

import (
	"context"
	"time"
)

// Message represents a chat message
type Message struct {
	Role    string // "system", "user" or "assistant"
	Content string
}

// Response holds the completion returned by the deployment.
type Response struct {
	Content      string
	Usage        Usage
	FinishReason string
}

// Usage tracks token consumption
type Usage struct {
	InputTokens  int
	OutputTokens int
}

// Exchange is one completed prompt/completion round trip, as handed to
// a transcript Recorder.
type Exchange struct {
	CreatedAt     time.Time `json:"created_at"`
	Deployment    string    `json:"deployment"`
	SystemMessage string    `json:"system_message,omitempty"`
	Prompt        string    `json:"prompt"`
	Completion    string    `json:"completion"`
	InputTokens   int       `json:"input_tokens"`
	OutputTokens  int       `json:"output_tokens"`
	FinishReason  string    `json:"finish_reason,omitempty"`
}

// Recorder persists completed exchanges. Implementations must not block
// the caller longer than their own storage round trip.
type Recorder interface {
	Record(ctx context.Context, ex Exchange) error
}

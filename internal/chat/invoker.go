package chat

import "context"

// Invoker is the narrow contract consumed by prompt-orchestration
// frameworks: prompt text in, completion text out, errors propagated
// unchanged.
type Invoker interface {
	Invoke(ctx context.Context, prompt string) (string, error)
}

// invoker adapts a Client to the Invoker contract with a fixed set of
// call options.
type invoker struct {
	client *Client
	opts   []Option
}

// Invoker returns an adapter that forwards every prompt to Chat with the
// given options applied.
func (c *Client) Invoker(opts ...Option) Invoker {
	return &invoker{client: c, opts: opts}
}

func (i *invoker) Invoke(ctx context.Context, prompt string) (string, error) {
	resp, err := i.client.Chat(ctx, prompt, i.opts...)
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}

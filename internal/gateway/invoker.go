package gateway

import "context"

// Request is one logical inference call: a prompt, an optional image, and the
// token/temperature budget for the target model.
type Request struct {
	Model       string
	Prompt      string
	ImagePath   string //empty for text-only calls
	MaxTokens   int32
	Temperature float32
}

// Invoker is one call strategy against the remote service. The gateway walks
// an ordered list of invokers, each wrapped in its own bounded retry, so a
// broken primary transport degrades to the secondary instead of failing the
// operation.
type Invoker interface {
	Name() string
	Invoke(ctx context.Context, req Request) (string, error)
}

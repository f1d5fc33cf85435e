package analysis

import "context"

// LLMRequest asks the inference provider for a single structured completion.
type LLMRequest struct {
	Model     string
	System    string
	Prompt    string
	MaxTokens int
}

// LLMResponse carries the raw completion text and its token usage.
type LLMResponse struct {
	Text  string
	Usage TokenUsage
}

// LLMClient is the inference-provider seam. Implementations must return JSON
// text conforming to the schema described in the request's system prompt.
type LLMClient interface {
	Complete(ctx context.Context, req LLMRequest) (LLMResponse, error)
}

package rag

import (
	"context"
	"fmt"

	"github.com/teilomillet/gollm"
)

const (
	// maxNewTokens bounds the length of a generated answer.
	maxNewTokens = 512
	// temperature matches the conversational tone the prompt was tuned for.
	temperature = 0.7
)

// Completer generates the final answer text from an assembled prompt.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// LLMCompleter implements Completer on top of gollm. Every upstream call is
// attempted exactly once; there are no retries anywhere in the request path.
type LLMCompleter struct {
	llm gollm.LLM
}

// NewLLMCompleter initializes the hosted model client. The API key is
// required; construction fails without it.
func NewLLMCompleter(provider, model, apiKey string) (*LLMCompleter, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("completion API key is required")
	}

	llm, err := gollm.NewLLM(
		gollm.SetProvider(provider),
		gollm.SetModel(model),
		gollm.SetAPIKey(apiKey),
		gollm.SetMaxTokens(maxNewTokens),
		gollm.SetTemperature(temperature),
		gollm.SetMaxRetries(0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize LLM: %w", err)
	}

	return &LLMCompleter{llm: llm}, nil
}

// Complete implements Completer. Only newly generated text is returned, not
// an echo of the prompt.
func (c *LLMCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	return c.llm.Generate(ctx, gollm.NewPrompt(prompt))
}

// Package chat turns an assembled dataset context and a user question into a
// reply, either through a language model provider or through rule-based
// templates when no provider is available.
package chat

import "context"

// LLMClient is a text-in text-out completion provider.
type LLMClient interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

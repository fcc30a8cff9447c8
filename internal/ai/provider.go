package ai

import "context"

// Provider generates agent text. Implementations may be slow and may fail;
// callers must never let a provider error corrupt game state.
type Provider interface {
	Complete(ctx context.Context, model string, prompt string) (string, error)
	CompleteWithSystem(ctx context.Context, model string, systemPrompt string, prompt string) (string, error)
}

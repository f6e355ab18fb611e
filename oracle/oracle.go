// Package oracle is the LLM decision channel for steered exploration. It is
// strictly optional: a nil Client disables the steered loop and nothing else
// in a scan depends on it.
package oracle

import (
	"context"
)

// Client answers one multimodal prompt with free-form text. Implementations
// own their transport, throttling and retry behavior; callers only see the
// final text or a terminal error.
type Client interface {
	// Complete sends the prompt, with an optional PNG screenshot attached,
	// and returns the raw model output.
	Complete(ctx context.Context, prompt string, image []byte) (string, error)
}

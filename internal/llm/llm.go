package llm

import (
	"context"
	"errors"
)

var (
	// ErrNotConfigured is returned when no API token was provided.
	ErrNotConfigured = errors.New("inference client not configured")
	// ErrInsufficientResponse is returned for empty or near-empty completions.
	ErrInsufficientResponse = errors.New("model returned insufficient response")
)

// MinResponseLength is the shortest trimmed completion accepted as an answer.
const MinResponseLength = 50

// Client is a minimal LLM interface to allow pluggable providers.
type Client interface {
	Complete(ctx context.Context, system, user string) (string, error)
	// Model names the model that produced completions, for display.
	Model() string
}

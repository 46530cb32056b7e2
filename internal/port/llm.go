package port

import (
	"context"

	"assistant/internal/domain"
)

// ChatModel represents a language model for answer generation.
type ChatModel interface {
	// Stream generates a completion for the conversation, invoking
	// onDelta for each text fragment as it arrives. A non-nil error
	// from onDelta aborts the stream.
	Stream(ctx context.Context, messages []domain.ChatMessage, onDelta func(delta string) error) error

	// ModelName returns the name of the model.
	ModelName() string
}

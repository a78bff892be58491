package api

import (
	"context"

	"github.com/diogo/cleanfire/internal/models"
)

// FragmentStream yields the fragments of one streamed reply.
type FragmentStream interface {
	// Next returns the next fragment, io.EOF at the end of the reply, or a
	// terminal error.
	Next() (string, error)
	Close() error
}

// ChatSessionInterface defines the session operations used by the chat core
type ChatSessionInterface interface {
	SendMessageStream(ctx context.Context, userText string) (FragmentStream, error)
	GetModel() models.Model
	History() []Content
}

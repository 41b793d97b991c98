package domain

import (
	"context"
	"fmt"
)

// ChatMessage is one turn of a chat conversation.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatCompleter produces the assistant reply for a conversation.
type ChatCompleter interface {
	Complete(ctx context.Context, apiKey string, messages []ChatMessage) (string, error)
}

// UpstreamError is a non-success answer from the chat provider. Status and
// Message are forwarded to the client.
type UpstreamError struct {
	Status  int
	Message string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("chat provider returned %d: %s", e.Status, e.Message)
}

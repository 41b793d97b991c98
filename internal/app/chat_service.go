package app

import (
	"context"

	"kanba/internal/domain"
)

// ChatService relays conversations to the AI provider.
type ChatService struct {
	client     domain.ChatCompleter
	defaultKey string
}

// NewChatService creates a ChatService. defaultKey is used when the caller
// does not supply its own key.
func NewChatService(client domain.ChatCompleter, defaultKey string) *ChatService {
	return &ChatService{client: client, defaultKey: defaultKey}
}

// Reply returns the assistant's answer to messages.
func (s *ChatService) Reply(ctx context.Context, apiKey string, messages []domain.ChatMessage) (string, error) {
	if apiKey == "" {
		apiKey = s.defaultKey
	}
	if len(messages) == 0 || apiKey == "" {
		return "", domain.Invalid("Messages and API key are required")
	}
	if s.client == nil {
		return "", ErrChatNotConfigured
	}
	return s.client.Complete(ctx, apiKey, messages)
}

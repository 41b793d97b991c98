package app_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kanba/internal/app"
	"kanba/internal/domain"
)

type mockCompleter struct {
	completeFn func(ctx context.Context, apiKey string, msgs []domain.ChatMessage) (string, error)
}

func (m *mockCompleter) Complete(ctx context.Context, apiKey string, msgs []domain.ChatMessage) (string, error) {
	return m.completeFn(ctx, apiKey, msgs)
}

func TestChatService_Reply(t *testing.T) {
	msgs := []domain.ChatMessage{{Role: "user", Content: "hi"}}
	var gotKey string
	client := &mockCompleter{completeFn: func(_ context.Context, key string, _ []domain.ChatMessage) (string, error) {
		gotKey = key
		return "hello", nil
	}}

	svc := app.NewChatService(client, "server-key")
	reply, err := svc.Reply(context.Background(), "", msgs)
	require.NoError(t, err)
	assert.Equal(t, "hello", reply)
	assert.Equal(t, "server-key", gotKey)

	_, err = svc.Reply(context.Background(), "user-key", msgs)
	require.NoError(t, err)
	assert.Equal(t, "user-key", gotKey)

	_, err = svc.Reply(context.Background(), "user-key", nil)
	requireValidation(t, err, "Messages and API key are required")

	_, err = app.NewChatService(client, "").Reply(context.Background(), "", msgs)
	requireValidation(t, err, "Messages and API key are required")

	_, err = app.NewChatService(nil, "k").Reply(context.Background(), "", msgs)
	assert.ErrorIs(t, err, app.ErrChatNotConfigured)
}

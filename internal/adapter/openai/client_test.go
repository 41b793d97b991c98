package openai_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kanba/internal/adapter/openai"
	"kanba/internal/app"
	"kanba/internal/domain"
)

var conversation = []domain.ChatMessage{{Role: "user", Content: "Plan my sprint"}}

func TestComplete_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var body struct {
			Model     string               `json:"model"`
			Messages  []domain.ChatMessage `json:"messages"`
			MaxTokens int                  `json:"max_tokens"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "gpt-4o-mini", body.Model)
		assert.Equal(t, 1000, body.MaxTokens)
		assert.Equal(t, conversation, body.Messages)

		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"Start with the backlog."}}]}`))
	}))
	defer srv.Close()

	reply, err := openai.New(srv.URL+"/v1/", "").Complete(context.Background(), "sk-test", conversation)
	require.NoError(t, err)
	assert.Equal(t, "Start with the backlog.", reply)
}

func TestComplete_Failures(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantStatus int
		wantMsg    string
		wantErr    error
	}{
		{"upstream error message", http.StatusUnauthorized, `{"error":{"message":"Incorrect API key provided"}}`, 401, "Incorrect API key provided", nil},
		{"upstream without message", http.StatusTooManyRequests, `oops`, 429, "OpenAI API error (429)", nil},
		{"invalid json", http.StatusOK, `<html>`, 0, "", app.ErrChatUnavailable},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			_, err := openai.New(srv.URL, "").Complete(context.Background(), "k", conversation)
			require.Error(t, err)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			var upstream *domain.UpstreamError
			require.ErrorAs(t, err, &upstream)
			assert.Equal(t, tc.wantStatus, upstream.Status)
			assert.Equal(t, tc.wantMsg, upstream.Message)
		})
	}
}

func TestComplete_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := openai.New(url, "").Complete(context.Background(), "k", conversation)
	assert.ErrorIs(t, err, app.ErrChatUnavailable)
}

func TestComplete_EmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	reply, err := openai.New(srv.URL, "").Complete(context.Background(), "k", conversation)
	require.NoError(t, err)
	assert.Equal(t, "No response", reply)
}

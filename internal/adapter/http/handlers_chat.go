package adapthttp

import (
	"errors"
	"net/http"

	"kanba/internal/app"
	"kanba/internal/domain"
	"kanba/internal/logging"
)

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	req := decodeJSON[struct {
		Messages []domain.ChatMessage `json:"messages"`
		APIKey   string               `json:"apiKey"`
	}](w, r)

	reply, err := s.chat.Reply(r.Context(), req.APIKey, req.Messages)
	if err != nil {
		var (
			verr     *domain.ValidationError
			upstream *domain.UpstreamError
		)
		switch {
		case errors.As(err, &verr):
			writeError(w, http.StatusBadRequest, verr.Msg)
		case errors.As(err, &upstream):
			writeError(w, upstream.Status, upstream.Message)
		case errors.Is(err, app.ErrChatNotConfigured):
			writeError(w, http.StatusInternalServerError, "AI service not configured")
		case errors.Is(err, app.ErrChatUnavailable):
			logging.LogError(r.Context(), s.logger, "ai chat: provider unavailable", err)
			writeError(w, http.StatusBadGateway, "Failed to reach AI service")
		default:
			logging.LogError(r.Context(), s.logger, "ai chat", err)
			writeError(w, http.StatusInternalServerError, "Failed to process AI request")
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": reply})
}

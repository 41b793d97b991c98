// Package adapthttp implements the HTTP adapter for the application.
package adapthttp

import (
	"errors"
	"net/http"

	"kanba/internal/app"
	"kanba/internal/domain"
	"kanba/internal/logging"
)

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	req := decodeJSON[credentials](w, r)

	user, sid, err := s.auth.Register(r.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		s.metrics.AuthEvent("register", "failure")
		var verr *domain.ValidationError
		switch {
		case errors.As(err, &verr):
			writeError(w, http.StatusBadRequest, verr.Msg)
		case errors.Is(err, domain.ErrEmailTaken):
			writeError(w, http.StatusBadRequest, "Email already registered")
		case errors.Is(err, app.ErrHashingFailed):
			logging.LogError(r.Context(), s.logger, "register: hash password", err)
			writeError(w, http.StatusInternalServerError, "Failed to hash password")
		case errors.Is(err, app.ErrSessionFailed):
			logging.LogError(r.Context(), s.logger, "register: create session", err)
			writeError(w, http.StatusInternalServerError, "Failed to create session")
		default:
			logging.LogError(r.Context(), s.logger, "register: create user", err)
			writeError(w, http.StatusBadRequest, "Database error")
		}
		return
	}

	s.metrics.AuthEvent("register", "success")
	s.setSessionCookie(w, sid)
	writeJSON(w, http.StatusOK, map[string]any{"user": user.View()})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	req := decodeJSON[credentials](w, r)

	user, sid, err := s.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		s.metrics.AuthEvent("login", "failure")
		var verr *domain.ValidationError
		switch {
		case errors.As(err, &verr):
			writeError(w, http.StatusBadRequest, verr.Msg)
		case errors.Is(err, app.ErrInvalidCredentials):
			writeError(w, http.StatusUnauthorized, "Invalid email or password")
		case errors.Is(err, app.ErrSessionFailed):
			logging.LogError(r.Context(), s.logger, "login: create session", err)
			writeError(w, http.StatusInternalServerError, "Failed to create session")
		default:
			logging.LogError(r.Context(), s.logger, "login: lookup user", err)
			writeError(w, http.StatusInternalServerError, "Database error")
		}
		return
	}

	s.metrics.AuthEvent("login", "success")
	s.setSessionCookie(w, sid)
	writeJSON(w, http.StatusOK, map[string]any{"user": user.View()})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if id := sessionID(r); id != "" {
		s.auth.Logout(r.Context(), id)
	}
	s.metrics.AuthEvent("logout", "success")
	s.clearSessionCookie(w)
	writeSuccess(w)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	user := s.auth.CurrentUser(r.Context(), sessionID(r))
	writeJSON(w, http.StatusOK, map[string]any{"user": user.View()})
}

func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	req := decodeJSON[credentials](w, r)

	user, err := s.auth.UpdateName(r.Context(), userID(r), req.Name)
	if err != nil {
		s.writeServiceError(w, r, err, errorMessages{
			notFound: "User not found",
			internal: "Failed to update user",
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": user.View()})
}

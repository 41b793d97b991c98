package adapthttp

import (
	"net/http"
	"time"

	"kanba/internal/app"
)

const sessionCookieName = "session"

var sessionMaxAge = int(app.SessionTTL / time.Second)

// sessionCookie returns the cookie carrying id. Production deployments serve
// the frontend from another site, so the cookie must be SameSite=None and
// therefore Secure.
func (s *Server) sessionCookie(id string, maxAge int) *http.Cookie {
	c := &http.Cookie{
		Name:     sessionCookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		MaxAge:   maxAge,
		SameSite: http.SameSiteLaxMode,
	}
	if s.cfg.Production {
		c.SameSite = http.SameSiteNoneMode
		c.Secure = true
	}
	return c
}

func (s *Server) setSessionCookie(w http.ResponseWriter, id string) {
	http.SetCookie(w, s.sessionCookie(id, sessionMaxAge))
}

// clearSessionCookie expires the cookie immediately (Max-Age=0).
func (s *Server) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, s.sessionCookie("", -1))
}

// sessionID returns the session cookie value, or "" when there is none.
func sessionID(r *http.Request) string {
	c, err := r.Cookie(sessionCookieName)
	if err != nil {
		return ""
	}
	return c.Value
}

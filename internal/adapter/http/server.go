package adapthttp

import (
	"log/slog"
	"net/http"

	"kanba/internal/app"
	"kanba/internal/observability"
)

// Config holds the HTTP settings that do not belong to a service.
type Config struct {
	// FrontendURL is the only origin allowed by CORS and the target of the
	// SSO redirect.
	FrontendURL string
	// Production issues cross-site (SameSite=None; Secure) session cookies.
	Production bool
}

// Server is the driving HTTP adapter that routes requests to application
// services.
type Server struct {
	auth    *app.AuthService
	board   *app.BoardService
	chat    *app.ChatService
	cfg     Config
	sso     *SSOConfig
	logger  *slog.Logger
	metrics *observability.Metrics
}

// New creates a Server wired to the given application services.
func New(auth *app.AuthService, board *app.BoardService, chat *app.ChatService, cfg Config) *Server {
	return &Server{
		auth:   auth,
		board:  board,
		chat:   chat,
		cfg:    cfg,
		logger: slog.Default(),
	}
}

// WithLogger sets the logger used for access logs and internal errors.
func (s *Server) WithLogger(l *slog.Logger) *Server {
	if l != nil {
		s.logger = l
	}
	return s
}

// WithMetrics records request and auth metrics on m.
func (s *Server) WithMetrics(m *observability.Metrics) *Server {
	s.metrics = m
	return s
}

// WithSSO enables the OIDC login routes.
func (s *Server) WithSSO(c *SSOConfig) *Server {
	s.sso = c
	return s
}

// Handler returns the root http.Handler for the application.
func (s *Server) Handler() http.Handler {
	api := http.NewServeMux()
	s.route(api, "GET /health", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}))

	s.route(api, "POST /auth/register", http.HandlerFunc(s.handleRegister))
	s.route(api, "POST /auth/login", http.HandlerFunc(s.handleLogin))
	s.route(api, "POST /auth/logout", http.HandlerFunc(s.handleLogout))
	s.route(api, "GET /auth/me", http.HandlerFunc(s.handleMe))
	s.route(api, "PUT /auth/update", s.requireSession(http.HandlerFunc(s.handleUpdateUser)))

	s.route(api, "GET /auth/config", http.HandlerFunc(s.handleAuthConfig))
	s.route(api, "GET /auth/sso/login", http.HandlerFunc(s.handleSSOLogin))
	s.route(api, "GET /auth/sso/callback", http.HandlerFunc(s.handleSSOCallback))

	s.route(api, "GET /projects", s.requireSession(http.HandlerFunc(s.handleListProjects)))
	s.route(api, "POST /projects", s.requireSession(http.HandlerFunc(s.handleCreateProject)))
	s.route(api, "GET /projects/{id}", s.requireSession(http.HandlerFunc(s.handleGetProject)))
	s.route(api, "DELETE /projects/{id}", s.requireSession(http.HandlerFunc(s.handleDeleteProject)))
	s.route(api, "POST /projects/{id}/invite", s.requireSession(http.HandlerFunc(s.handleInvite)))

	s.route(api, "POST /columns", s.requireSession(http.HandlerFunc(s.handleCreateColumn)))
	s.route(api, "PUT /columns", s.requireSession(http.HandlerFunc(s.handleUpdateColumn)))
	s.route(api, "DELETE /columns", s.requireSession(http.HandlerFunc(s.handleDeleteColumn)))

	s.route(api, "POST /tasks", s.requireSession(http.HandlerFunc(s.handleCreateTask)))
	s.route(api, "PUT /tasks", s.requireSession(http.HandlerFunc(s.handleUpdateTask)))
	s.route(api, "DELETE /tasks", s.requireSession(http.HandlerFunc(s.handleDeleteTask)))
	s.route(api, "POST /tasks/move", s.requireSession(http.HandlerFunc(s.handleMoveTask)))

	s.route(api, "POST /ai-chat", http.HandlerFunc(s.handleChat))

	root := http.NewServeMux()
	root.Handle("/api/", http.StripPrefix("/api", api))

	return s.loggingMiddleware(s.cors(withNoCache(root)))
}

// route registers h under pattern and records metrics labelled with it.
func (s *Server) route(mux *http.ServeMux, pattern string, h http.Handler) {
	mux.Handle(pattern, s.instrument(pattern, h))
}

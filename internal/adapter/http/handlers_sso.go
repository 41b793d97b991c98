package adapthttp

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"net/http"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/samber/oops"
	"golang.org/x/oauth2"

	"kanba/internal/app"
	"kanba/internal/logging"
)

const stateCookieName = "oauth_state"

// SSOConfig is an OIDC relying-party configuration.
type SSOConfig struct {
	Name     string
	OAuth2   *oauth2.Config
	Verifier *oidc.IDTokenVerifier
}

// NewSSOConfig discovers the provider at issuer and builds the client.
func NewSSOConfig(ctx context.Context, issuer, clientID, clientSecret, redirectURL, name string) (*SSOConfig, error) {
	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, oops.Code("OIDC_DISCOVERY_FAILED").With("issuer", issuer).Wrap(err)
	}
	return &SSOConfig{
		Name: name,
		OAuth2: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Endpoint:     provider.Endpoint(),
			Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
		},
		Verifier: provider.Verifier(&oidc.Config{ClientID: clientID}),
	}, nil
}

func (s *Server) handleAuthConfig(w http.ResponseWriter, r *http.Request) {
	name := ""
	if s.sso != nil {
		name = s.sso.Name
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"sso_enabled": s.sso != nil,
		"sso_name":    name,
	})
}

func (s *Server) handleSSOLogin(w http.ResponseWriter, r *http.Request) {
	if s.sso == nil {
		writeError(w, http.StatusNotFound, "SSO is not enabled")
		return
	}
	state, err := generateState()
	if err != nil {
		logging.LogError(r.Context(), s.logger, "sso: generate state", err)
		writeError(w, http.StatusInternalServerError, "Failed to start login")
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Path:     "/",
		HttpOnly: true,
		Secure:   r.TLS != nil || s.cfg.Production,
		SameSite: http.SameSiteLaxMode, // Lax required for cross-site redirect returns
		MaxAge:   300,
	})
	http.Redirect(w, r, s.sso.OAuth2.AuthCodeURL(state), http.StatusFound)
}

func (s *Server) handleSSOCallback(w http.ResponseWriter, r *http.Request) {
	if s.sso == nil {
		writeError(w, http.StatusNotFound, "SSO is not enabled")
		return
	}

	state, err := r.Cookie(stateCookieName)
	if err != nil || state.Value == "" || r.URL.Query().Get("state") != state.Value {
		writeError(w, http.StatusBadRequest, "Invalid state")
		return
	}
	http.SetCookie(w, &http.Cookie{Name: stateCookieName, Path: "/", MaxAge: -1})

	token, err := s.sso.OAuth2.Exchange(r.Context(), r.URL.Query().Get("code"))
	if err != nil {
		logging.LogError(r.Context(), s.logger, "sso: exchange code", err)
		writeError(w, http.StatusBadGateway, "Failed to exchange token")
		return
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok {
		writeError(w, http.StatusBadGateway, "No id_token in response")
		return
	}

	idToken, err := s.sso.Verifier.Verify(r.Context(), rawIDToken)
	if err != nil {
		logging.LogError(r.Context(), s.logger, "sso: verify id token", err)
		writeError(w, http.StatusUnauthorized, "Failed to verify token")
		return
	}

	var claims struct {
		Email         string `json:"email"`
		EmailVerified bool   `json:"email_verified"`
		Name          string `json:"name"`
	}
	if err := idToken.Claims(&claims); err != nil {
		writeError(w, http.StatusBadGateway, "Failed to parse claims")
		return
	}

	_, sid, err := s.auth.LoginExternal(r.Context(), app.ExternalIdentity{
		Email:         claims.Email,
		Name:          claims.Name,
		EmailVerified: claims.EmailVerified,
	})
	if err != nil {
		s.metrics.AuthEvent("sso", "failure")
		if errors.Is(err, app.ErrEmailNotVerified) {
			writeError(w, http.StatusForbidden, "Email address is not verified")
			return
		}
		s.writeServiceError(w, r, err, errorMessages{internal: "Login failed"})
		return
	}

	s.metrics.AuthEvent("sso", "success")
	s.setSessionCookie(w, sid)
	http.Redirect(w, r, s.cfg.FrontendURL, http.StatusFound)
}

func generateState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// Package app holds the application services and business logic.
package app

import (
	"context"
	"errors"
	"log/slog"

	"github.com/samber/oops"

	"kanba/internal/domain"
	"kanba/internal/logging"
)

// dummyPasswordHash is verified against when the email is unknown so that
// both failure paths cost one argon2id computation.
//
//nolint:gosec // G101: not a credential.
const dummyPasswordHash = "$argon2id$v=19$m=65536,t=2,p=1$AAAAAAAAAAAAAAAAAAAAAA$AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"

// externalPasswordHash marks accounts provisioned through SSO. It never
// parses as a hash, so password login is impossible for them.
const externalPasswordHash = "!external"

// Hasher hashes and verifies passwords.
type Hasher interface {
	Hash(password string) (string, error)
	Verify(password, encoded string) bool
}

// AuthService runs the login, registration, logout and profile flows.
type AuthService struct {
	users    domain.UserRepository
	sessions *SessionManager
	hasher   Hasher
	logger   *slog.Logger
}

// NewAuthService creates a new authentication service.
func NewAuthService(users domain.UserRepository, sessions *SessionManager, hasher Hasher, logger *slog.Logger) *AuthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{
		users:    users,
		sessions: sessions,
		hasher:   hasher,
		logger:   logger,
	}
}

// Login checks the credentials and opens a new session. It returns the user
// and the session id to hand to the client.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, string, error) {
	if email == "" || password == "" {
		return nil, "", domain.Invalid("Email and password are required")
	}

	user, err := s.users.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		s.hasher.Verify(password, dummyPasswordHash)
		return nil, "", ErrInvalidCredentials
	case err != nil:
		return nil, "", oops.Code("AUTH_LOGIN_FAILED").With("operation", "get user by email").Wrap(err)
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, "", ErrInvalidCredentials
	}

	sessionID, err := s.openSession(ctx, user.ID)
	if err != nil {
		return nil, "", err
	}
	return user, sessionID, nil
}

// Register creates an account and opens a session for it.
func (s *AuthService) Register(ctx context.Context, email, password, name string) (*domain.User, string, error) {
	if email == "" || password == "" || name == "" {
		return nil, "", domain.Invalid("Email, password, and name are required")
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, "", errors.Join(ErrHashingFailed, err)
	}

	user, err := s.users.Create(ctx, email, hash, name)
	switch {
	case errors.Is(err, domain.ErrEmailTaken):
		return nil, "", domain.ErrEmailTaken
	case err != nil:
		return nil, "", errors.Join(ErrRegistrationFailed, err)
	}

	sessionID, err := s.openSession(ctx, user.ID)
	if err != nil {
		return nil, "", err
	}
	return user, sessionID, nil
}

// ExternalIdentity is what an identity provider asserted about a user.
type ExternalIdentity struct {
	Email         string
	Name          string
	EmailVerified bool
}

// LoginExternal signs in a user already authenticated by an identity
// provider, creating the account on first use. The provider must have
// verified the email, since it selects the account.
func (s *AuthService) LoginExternal(ctx context.Context, id ExternalIdentity) (*domain.User, string, error) {
	email, name := id.Email, id.Name
	if email == "" {
		return nil, "", domain.Invalid("Identity provider returned no email")
	}
	if !id.EmailVerified {
		return nil, "", ErrEmailNotVerified
	}
	if name == "" {
		name = email
	}

	user, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		user, err = s.users.Create(ctx, email, externalPasswordHash, name)
		if errors.Is(err, domain.ErrEmailTaken) {
			// Lost a race with a concurrent first login.
			user, err = s.users.GetByEmail(ctx, email)
		}
	}
	if err != nil {
		return nil, "", oops.Code("AUTH_EXTERNAL_LOGIN_FAILED").With("email", email).Wrap(err)
	}

	sessionID, err := s.openSession(ctx, user.ID)
	if err != nil {
		return nil, "", err
	}
	return user, sessionID, nil
}

// Logout deletes the session. Failures are logged and otherwise ignored.
func (s *AuthService) Logout(ctx context.Context, sessionID string) {
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		logging.LogError(ctx, s.logger, "logout: session delete failed", err)
	}
}

// ResolveSession returns the owner of a live session.
func (s *AuthService) ResolveSession(ctx context.Context, sessionID string) (string, bool) {
	return s.sessions.Resolve(ctx, sessionID)
}

// CurrentUser returns the user owning sessionID, or nil when the session is
// absent, expired or points at a missing user.
func (s *AuthService) CurrentUser(ctx context.Context, sessionID string) *domain.User {
	userID, ok := s.sessions.Resolve(ctx, sessionID)
	if !ok {
		return nil
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			logging.LogError(ctx, s.logger, "me: user lookup failed", err)
		}
		return nil
	}
	return user
}

// UpdateName changes the display name of userID.
func (s *AuthService) UpdateName(ctx context.Context, userID, name string) (*domain.User, error) {
	if name == "" {
		return nil, domain.Invalid("Name is required")
	}
	user, err := s.users.UpdateName(ctx, userID, name)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, oops.Code("AUTH_UPDATE_FAILED").With("user_id", userID).Wrap(err)
	}
	return user, nil
}

func (s *AuthService) openSession(ctx context.Context, userID string) (string, error) {
	id := s.sessions.GenerateID()
	if err := s.sessions.Create(ctx, id, userID); err != nil {
		return "", err
	}
	return id, nil
}

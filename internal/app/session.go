package app

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"kanba/internal/domain"
	"kanba/internal/logging"
)

// SessionTTL is the fixed lifetime of a session. Expiry is set once at
// creation and never extended by use.
const SessionTTL = 7 * 24 * time.Hour

// SessionManager applies the session lifecycle on top of a SessionRepository.
type SessionManager struct {
	repo   domain.SessionRepository
	now    func() time.Time
	logger *slog.Logger
}

// SessionOption configures a SessionManager.
type SessionOption func(*SessionManager)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) SessionOption {
	return func(m *SessionManager) { m.now = now }
}

// WithSessionLogger sets the logger used for swallowed store errors.
func WithSessionLogger(l *slog.Logger) SessionOption {
	return func(m *SessionManager) { m.logger = l }
}

// NewSessionManager creates a SessionManager backed by repo.
func NewSessionManager(repo domain.SessionRepository, opts ...SessionOption) *SessionManager {
	m := &SessionManager{repo: repo, now: time.Now, logger: slog.Default()}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// GenerateID returns a new random (v4) session identifier.
func (m *SessionManager) GenerateID() string {
	return uuid.NewString()
}

// Create stores id for userID, expiring SessionTTL from now. An existing
// session with the same id is overwritten.
func (m *SessionManager) Create(ctx context.Context, id, userID string) error {
	if err := m.repo.Upsert(ctx, id, userID, m.now().Add(SessionTTL)); err != nil {
		return errors.Join(ErrSessionFailed, err)
	}
	return nil
}

// Resolve returns the user owning id. Unknown ids, expired ids and store
// failures all report false.
func (m *SessionManager) Resolve(ctx context.Context, id string) (string, bool) {
	if id == "" {
		return "", false
	}
	userID, err := m.repo.ResolveUserID(ctx, id, m.now())
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			logging.LogError(ctx, m.logger, "session lookup failed", err)
		}
		return "", false
	}
	return userID, true
}

// Delete removes id. Deleting an unknown id succeeds.
func (m *SessionManager) Delete(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	return m.repo.Delete(ctx, id)
}

// SweepExpired removes every expired session and returns how many were
// removed.
func (m *SessionManager) SweepExpired(ctx context.Context) (int64, error) {
	return m.repo.DeleteExpired(ctx, m.now())
}

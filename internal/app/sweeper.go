package app

import (
	"context"
	"log/slog"
	"time"

	"kanba/internal/logging"
)

// Sweeper periodically removes expired sessions.
type Sweeper struct {
	sessions *SessionManager
	interval time.Duration
	logger   *slog.Logger
	onSweep  func(removed int64)
}

// NewSweeper creates a Sweeper. onSweep, when set, is called after each
// successful pass.
func NewSweeper(sessions *SessionManager, interval time.Duration, logger *slog.Logger, onSweep func(int64)) *Sweeper {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sweeper{sessions: sessions, interval: interval, logger: logger, onSweep: onSweep}
}

// Run sweeps every interval until ctx is done. A non-positive interval
// returns immediately.
func (s *Sweeper) Run(ctx context.Context) error {
	if s.interval <= 0 {
		return nil
	}
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.SweepOnce(ctx)
		}
	}
}

// SweepOnce runs a single pass and returns the number of rows removed.
func (s *Sweeper) SweepOnce(ctx context.Context) int64 {
	n, err := s.sessions.SweepExpired(ctx)
	if err != nil {
		logging.LogError(ctx, s.logger, "session sweep failed", err)
		return 0
	}
	if n > 0 {
		s.logger.InfoContext(ctx, "expired sessions removed", "count", n)
	}
	if s.onSweep != nil {
		s.onSweep(n)
	}
	return n
}

package app_test

import (
	"context"
	"strings"
	"sync"
	"time"

	"kanba/internal/domain"
)

type mockUserRepo struct {
	getByEmailFn func(ctx context.Context, email string) (*domain.User, error)
	getByIDFn    func(ctx context.Context, id string) (*domain.User, error)
	createFn     func(ctx context.Context, email, hash, name string) (*domain.User, error)
	updateNameFn func(ctx context.Context, id, name string) (*domain.User, error)
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	if m.getByEmailFn != nil {
		return m.getByEmailFn(ctx, email)
	}
	return nil, domain.ErrNotFound
}

func (m *mockUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, domain.ErrNotFound
}

func (m *mockUserRepo) Create(ctx context.Context, email, hash, name string) (*domain.User, error) {
	if m.createFn != nil {
		return m.createFn(ctx, email, hash, name)
	}
	return &domain.User{ID: "u1", Email: email, PasswordHash: hash, Name: name}, nil
}

func (m *mockUserRepo) UpdateName(ctx context.Context, id, name string) (*domain.User, error) {
	if m.updateNameFn != nil {
		return m.updateNameFn(ctx, id, name)
	}
	return &domain.User{ID: id, Name: name}, nil
}

type mockSessionRepo struct {
	upsertFn        func(ctx context.Context, id, userID string, expiresAt time.Time) error
	resolveFn       func(ctx context.Context, id string, now time.Time) (string, error)
	deleteFn        func(ctx context.Context, id string) error
	deleteExpiredFn func(ctx context.Context, now time.Time) (int64, error)
}

func (m *mockSessionRepo) Upsert(ctx context.Context, id, userID string, expiresAt time.Time) error {
	if m.upsertFn != nil {
		return m.upsertFn(ctx, id, userID, expiresAt)
	}
	return nil
}

func (m *mockSessionRepo) ResolveUserID(ctx context.Context, id string, now time.Time) (string, error) {
	if m.resolveFn != nil {
		return m.resolveFn(ctx, id, now)
	}
	return "", domain.ErrNotFound
}

func (m *mockSessionRepo) Delete(ctx context.Context, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

func (m *mockSessionRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	if m.deleteExpiredFn != nil {
		return m.deleteExpiredFn(ctx, now)
	}
	return 0, nil
}

// plainHasher stands in for argon2id where hashing cost is irrelevant.
type plainHasher struct {
	mu       sync.Mutex
	hashErr  error
	verified []string
}

func (h *plainHasher) Hash(password string) (string, error) {
	if h.hashErr != nil {
		return "", h.hashErr
	}
	return "plain$" + password, nil
}

func (h *plainHasher) Verify(password, encoded string) bool {
	h.mu.Lock()
	h.verified = append(h.verified, encoded)
	h.mu.Unlock()
	stored, ok := strings.CutPrefix(encoded, "plain$")
	return ok && stored == password
}

// clock is a settable time source.
type clock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock() *clock {
	return &clock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// Package domain contains the core business entities and interfaces.
package domain

import (
	"context"
	"time"
)

// User represents a registered account.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	Name         string
	AvatarURL    string
	CreatedAt    time.Time
}

// UserView is the public projection of a User. It never carries the hash.
type UserView struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// View returns the public projection of u.
func (u *User) View() *UserView {
	if u == nil {
		return nil
	}
	return &UserView{ID: u.ID, Email: u.Email, Name: u.Name, AvatarURL: u.AvatarURL}
}

// Session maps an opaque identifier to a user until ExpiresAt.
type Session struct {
	ID        string
	UserID    string
	ExpiresAt time.Time
}

// Valid reports whether the session is usable at now.
func (s Session) Valid(now time.Time) bool {
	return now.Before(s.ExpiresAt)
}

// UserRepository defines the port for user persistence operations.
// Lookups return ErrNotFound when no row matches.
type UserRepository interface {
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	// Create fails with ErrEmailTaken when the email is already registered.
	Create(ctx context.Context, email, passwordHash, name string) (*User, error)
	UpdateName(ctx context.Context, id, name string) (*User, error)
}

// SessionRepository defines the port for session persistence operations.
type SessionRepository interface {
	// Upsert inserts the session or overwrites the owner and expiry of an
	// existing row with the same id.
	Upsert(ctx context.Context, id, userID string, expiresAt time.Time) error
	// ResolveUserID returns ErrNotFound for both unknown and expired ids.
	ResolveUserID(ctx context.Context, id string, now time.Time) (string, error)
	// Delete is idempotent.
	Delete(ctx context.Context, id string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

package app

import "errors"

var (
	// ErrInvalidCredentials is returned for an unknown email and for a wrong
	// password alike.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrHashingFailed is returned when a password cannot be hashed.
	ErrHashingFailed = errors.New("password hashing failed")
	// ErrSessionFailed is returned when a session cannot be persisted.
	ErrSessionFailed = errors.New("failed to create session")
	// ErrRegistrationFailed is returned when the user row cannot be created
	// for a reason other than a duplicate email.
	ErrRegistrationFailed = errors.New("failed to create user")
	// ErrEmailNotVerified is returned when an identity provider has not
	// verified the email it asserts.
	ErrEmailNotVerified = errors.New("email not verified by identity provider")
	// ErrChatNotConfigured is returned when no provider key is available.
	ErrChatNotConfigured = errors.New("chat provider not configured")
	// ErrChatUnavailable is returned when the chat provider cannot be reached
	// or answers with something unreadable.
	ErrChatUnavailable = errors.New("chat provider unavailable")
)

package domain

import "errors"

var (
	// ErrNotFound is returned when a record does not exist or is not visible
	// to the acting user.
	ErrNotFound = errors.New("not found")
	// ErrEmailTaken is returned when registering an email that already exists.
	ErrEmailTaken = errors.New("email already registered")
	// ErrForbidden is returned when the acting user lacks the required role.
	ErrForbidden = errors.New("forbidden")
	// ErrAlreadyMember is returned when inviting an existing project member.
	ErrAlreadyMember = errors.New("already a member")
	// ErrInvalidInput is returned when the store rejects a parameter value.
	ErrInvalidInput = errors.New("invalid input")
)

// ValidationError reports a request that is missing or has malformed fields.
// Msg is safe to return to clients.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// Invalid returns a ValidationError with the given message.
func Invalid(msg string) error {
	return &ValidationError{Msg: msg}
}

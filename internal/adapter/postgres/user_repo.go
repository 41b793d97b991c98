package postgres

import (
	"context"

	"github.com/google/uuid"

	"kanba/internal/domain"
)

const userColumns = `id, email, password_hash, name, COALESCE(avatar_url, ''), created_at`

// requireIDs returns ErrNotFound unless every id parses as a UUID. A
// malformed id cannot name an existing row.
func requireIDs(ids ...string) error {
	for _, id := range ids {
		if err := uuid.Validate(id); err != nil {
			return domain.ErrNotFound
		}
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*domain.User, error) {
	var u domain.User
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.AvatarURL, &u.CreatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByEmail returns the user registered under email.
func (d *DB) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	row := d.sql.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	u, err := scanUser(row)
	if err != nil {
		return nil, translate("USER_QUERY_FAILED", err, nil)
	}
	return u, nil
}

// GetByID returns the user with the given id.
func (d *DB) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if err := requireIDs(id); err != nil {
		return nil, err
	}
	row := d.sql.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	u, err := scanUser(row)
	if err != nil {
		return nil, translate("USER_QUERY_FAILED", err, nil)
	}
	return u, nil
}

// Create inserts a user. A duplicate email yields domain.ErrEmailTaken.
func (d *DB) Create(ctx context.Context, email, passwordHash, name string) (*domain.User, error) {
	row := d.sql.QueryRowContext(ctx,
		`INSERT INTO users (email, password_hash, name) VALUES ($1, $2, $3)
		 RETURNING `+userColumns,
		email, passwordHash, name)
	u, err := scanUser(row)
	if err != nil {
		return nil, translate("USER_CREATE_FAILED", err, domain.ErrEmailTaken)
	}
	return u, nil
}

// UpdateName sets the display name of a user and returns the updated row.
func (d *DB) UpdateName(ctx context.Context, id, name string) (*domain.User, error) {
	if err := requireIDs(id); err != nil {
		return nil, err
	}
	row := d.sql.QueryRowContext(ctx,
		`UPDATE users SET name = $2 WHERE id = $1 RETURNING `+userColumns,
		id, name)
	u, err := scanUser(row)
	if err != nil {
		return nil, translate("USER_UPDATE_FAILED", err, nil)
	}
	return u, nil
}

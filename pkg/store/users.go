package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/propdeskhq/propdesk/pkg/auth"
)

// UserStore implements auth.UserStore.
type UserStore struct {
	db *sql.DB
}

const userColumns = `id, name, email, password_hash, role, phone_number, active, created_at, updated_at`

func (s *UserStore) CreateUser(ctx context.Context, u *auth.User) (*auth.User, error) {
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO users (name, email, password_hash, role, phone_number, active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+userColumns,
		u.Name, strings.ToLower(u.Email), u.PasswordHash, u.Role, u.PhoneNumber, u.Active)
	return scanUser(row)
}

func (s *UserStore) GetUser(ctx context.Context, id int) (*auth.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, auth.ErrUserNotFound
	}
	return u, err
}

func (s *UserStore) GetUserByEmail(ctx context.Context, email string) (*auth.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE LOWER(email) = $1`, strings.ToLower(email))
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, auth.ErrUserNotFound
	}
	return u, err
}

func scanUser(row rowScanner) (*auth.User, error) {
	var u auth.User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role,
		&u.PhoneNumber, &u.Active, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

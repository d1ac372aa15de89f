package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Veraticus/seguros/internal/model"
)

// ErrUserExists is returned when a username is already taken.
var ErrUserExists = errors.New("user already exists")

// CreateUser inserts a new credential record.
func (s *SQLiteStorage) CreateUser(ctx context.Context, user *model.User) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateUser(user); err != nil {
		return err
	}

	createdAt := user.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (username, password_hash, role, created_at)
		VALUES (?, ?, ?, ?)
	`, user.Username, user.PasswordHash, string(user.Role), createdAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: %s", ErrUserExists, user.Username)
	}
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	user.CreatedAt = createdAt
	return nil
}

// GetUser returns the named user or ErrNotFound.
func (s *SQLiteStorage) GetUser(ctx context.Context, username string) (*model.User, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(username, "username"); err != nil {
		return nil, err
	}
	return s.getUserTx(ctx, s.db, username)
}

func (s *SQLiteStorage) getUserTx(ctx context.Context, q queryable, username string) (*model.User, error) {
	row := q.QueryRowContext(ctx, `
		SELECT username, password_hash, role, created_at, last_login_at
		FROM users
		WHERE username = ?
	`, username)

	user, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %q: %w", username, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// ListUsers returns every user ordered by username.
func (s *SQLiteStorage) ListUsers(ctx context.Context) ([]model.User, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT username, password_hash, role, created_at, last_login_at
		FROM users
		ORDER BY username
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var users []model.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, *user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}
	return users, nil
}

// CountUsers returns the number of stored users.
func (s *SQLiteStorage) CountUsers(ctx context.Context) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}

// DeleteUser removes the named user or returns ErrNotFound.
func (s *SQLiteStorage) DeleteUser(ctx context.Context, username string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(username, "username"); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE username = ?`, username)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check deleted rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("user %q: %w", username, ErrNotFound)
	}
	return nil
}

// UpdateLastLogin stamps a successful login.
func (s *SQLiteStorage) UpdateLastLogin(ctx context.Context, username string, at time.Time) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, `UPDATE users SET last_login_at = ? WHERE username = ?`, at, username); err != nil {
		return fmt.Errorf("failed to update last login: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*model.User, error) {
	var (
		user      model.User
		role      string
		lastLogin sql.NullTime
	)
	if err := row.Scan(&user.Username, &user.PasswordHash, &role, &user.CreatedAt, &lastLogin); err != nil {
		return nil, err
	}
	user.Role = model.Role(role)
	if lastLogin.Valid {
		t := lastLogin.Time
		user.LastLoginAt = &t
	}
	return &user, nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mvsouza/cakefund/internal/models"
	"github.com/mvsouza/cakefund/internal/storage"
)

const userColumns = "id, name, email, photo_url, balance, is_active, is_admin, version, created_at"

// CreateUser inserts a new user with a zero balance.
func (s *SQLiteStore) CreateUser(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if user.CreatedAt == 0 {
		user.CreatedAt = time.Now().Unix()
	}

	var email interface{}
	if user.Email != "" {
		email = user.Email
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, name, email, photo_url, balance, is_active, is_admin, version, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, 0, ?)`,
		user.ID, user.Name, email, user.PhotoURL, user.Balance.String(),
		user.IsActive, user.IsAdmin, user.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

// GetUser retrieves a user by ID.
func (s *SQLiteStore) GetUser(ctx context.Context, userID string) (*models.User, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id = ?", userID)
	user, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("user %s: %w", userID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// ListUsers retrieves all users ordered by name.
func (s *SQLiteStore) ListUsers(ctx context.Context) ([]*models.User, error) {
	return s.listUsers(ctx, "SELECT "+userColumns+" FROM users ORDER BY name")
}

// ListActiveUsers retrieves users participating in round accounting.
func (s *SQLiteStore) ListActiveUsers(ctx context.Context) ([]*models.User, error) {
	return s.listUsers(ctx, "SELECT "+userColumns+" FROM users WHERE is_active = 1 ORDER BY name")
}

func (s *SQLiteStore) listUsers(ctx context.Context, query string) ([]*models.User, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}
	return users, nil
}

// UpdateUserProfile updates the user's name and photo URL.
func (s *SQLiteStore) UpdateUserProfile(ctx context.Context, userID, name, photoURL string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE users SET name = ?, photo_url = ? WHERE id = ?",
		name, photoURL, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to update user profile: %w", err)
	}
	return requireRow(res, userID)
}

// SetUserActive toggles round participation for a user.
func (s *SQLiteStore) SetUserActive(ctx context.Context, userID string, active bool) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE users SET is_active = ? WHERE id = ?", active, userID)
	if err != nil {
		return fmt.Errorf("failed to set user active flag: %w", err)
	}
	return requireRow(res, userID)
}

func requireRow(res sql.Result, userID string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("user %s: %w", userID, storage.ErrNotFound)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUser(row rowScanner) (*models.User, error) {
	user := &models.User{}
	var email, photoURL sql.NullString
	var balance string

	err := row.Scan(&user.ID, &user.Name, &email, &photoURL, &balance,
		&user.IsActive, &user.IsAdmin, &user.Version, &user.CreatedAt)
	if err != nil {
		return nil, err
	}

	if email.Valid {
		user.Email = email.String
	}
	if photoURL.Valid {
		user.PhotoURL = photoURL.String
	}
	user.Balance, err = scanDecimal(balance)
	if err != nil {
		return nil, err
	}
	return user, nil
}

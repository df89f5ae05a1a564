package database

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
)

// UserStore handles database operations for accounts
type UserStore struct {
	db *sql.DB
}

func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CreateUser inserts a new account and returns it with its uid
func (s *UserStore) CreateUser(email, passwordHash string) (*User, error) {
	u := &User{UID: uuid.NewString(), Email: normalizeEmail(email), PasswordHash: passwordHash}

	_, err := s.db.Exec("INSERT INTO users (uid, email, password_hash) VALUES (?, ?, ?)",
		u.UID, u.Email, u.PasswordHash)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}
	return u, nil
}

// GetUserByEmail looks an account up by its normalized email
func (s *UserStore) GetUserByEmail(email string) (*User, error) {
	row := s.db.QueryRow("SELECT uid, email, password_hash, created_at FROM users WHERE email = ?",
		normalizeEmail(email))

	var u User
	err := row.Scan(&u.UID, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	return &u, nil
}

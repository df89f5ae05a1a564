package database

import (
	"errors"
	"time"

	"github.com/CrowderSoup/lists-app/items"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrUserExists = errors.New("user already exists")
)

type User struct {
	UID          string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// Snapshot is an owner's complete item set at one revision
type Snapshot struct {
	Owner    string       `json:"owner"`
	Revision int64        `json:"revision"`
	Items    []items.Item `json:"items"`
}

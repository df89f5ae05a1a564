package database

import (
	"database/sql"
	"fmt"
	"log"

	_ "github.com/mattn/go-sqlite3"
)

var schema = []struct {
	name string
	ddl  string
}{
	{"users", `CREATE TABLE IF NOT EXISTS users (
		uid TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`},
	{"items", `CREATE TABLE IF NOT EXISTS items (
		id TEXT PRIMARY KEY,
		owner TEXT NOT NULL,
		kind TEXT NOT NULL,
		text TEXT NOT NULL,
		done INTEGER NOT NULL DEFAULT 0,
		created INTEGER NOT NULL,
		category TEXT NOT NULL DEFAULT '',
		requester_name TEXT NOT NULL DEFAULT '',
		priority INTEGER NOT NULL DEFAULT 0
	)`},
	{"items owner index", `CREATE INDEX IF NOT EXISTS items_owner ON items (owner)`},
	{"owner_revisions", `CREATE TABLE IF NOT EXISTS owner_revisions (
		owner TEXT PRIMARY KEY,
		revision INTEGER NOT NULL
	)`},
}

// InitDB opens the sqlite file at path and creates the tables
func InitDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// sqlite allows a single writer; one connection keeps transactions serialized.
	db.SetMaxOpenConns(1)

	for _, s := range schema {
		if _, err := db.Exec(s.ddl); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to create %s: %w", s.name, err)
		}
	}

	log.Println("Database initialized successfully")
	return db, nil
}

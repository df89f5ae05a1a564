package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/CrowderSoup/lists-app/items"
)

// ItemStore handles database operations for list items. Every write bumps
// the owner's revision inside the same transaction so snapshots can be
// ordered by clients.
type ItemStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewItemStore(db *sql.DB) *ItemStore {
	return &ItemStore{db: db, now: time.Now}
}

const itemColumns = "id, owner, kind, text, done, created, category, requester_name, priority"

type scanner interface {
	Scan(dest ...any) error
}

func scanItem(row scanner) (items.Item, error) {
	var (
		it      items.Item
		created int64
	)
	err := row.Scan(&it.ID, &it.Owner, &it.Kind, &it.Text, &it.Done, &created,
		&it.Category, &it.RequesterName, &it.Priority)
	if err != nil {
		return items.Item{}, err
	}
	it.Created = time.Unix(0, created).UTC()
	return it, nil
}

// ListItems returns the owner's items together with the current revision
func (s *ItemStore) ListItems(owner string) (*Snapshot, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	snap := &Snapshot{Owner: owner, Items: []items.Item{}}
	err = tx.QueryRow("SELECT revision FROM owner_revisions WHERE owner = ?", owner).Scan(&snap.Revision)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to query revision: %w", err)
	}

	rows, err := tx.Query("SELECT "+itemColumns+" FROM items WHERE owner = ? ORDER BY created, id", owner)
	if err != nil {
		return nil, fmt.Errorf("failed to query items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		snap.Items = append(snap.Items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read items: %w", err)
	}
	return snap, nil
}

// CreateItem stores a new item for owner under a fresh id. The creation
// time is assigned here unless the item carries one, which happens when a
// deleted item is restored.
func (s *ItemStore) CreateItem(owner string, it items.Item) (items.Item, error) {
	it.ID = uuid.NewString()
	it.Owner = owner
	if it.Created.IsZero() {
		it.Created = s.now().UTC()
	}

	err := s.write(owner, func(tx *sql.Tx) error {
		_, err := tx.Exec("INSERT INTO items ("+itemColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
			it.ID, it.Owner, it.Kind, it.Text, it.Done, it.Created.UnixNano(),
			it.Category, it.RequesterName, it.Priority)
		if err != nil {
			return fmt.Errorf("failed to insert item: %w", err)
		}
		return nil
	})
	if err != nil {
		return items.Item{}, err
	}
	return it, nil
}

// UpdateItem applies a partial update to one of owner's items. A patch that
// breaks the rules of the item's kind returns an *items.ValidationError and
// writes nothing.
func (s *ItemStore) UpdateItem(owner, id string, p items.Patch) (items.Item, error) {
	var updated items.Item
	err := s.write(owner, func(tx *sql.Tx) error {
		row := tx.QueryRow("SELECT "+itemColumns+" FROM items WHERE id = ? AND owner = ?", id, owner)
		it, err := scanItem(row)
		if err == sql.ErrNoRows {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to query item: %w", err)
		}
		if err := p.Validate(it.Kind); err != nil {
			return err
		}

		updated = it.Apply(p)
		_, err = tx.Exec(`UPDATE items SET text = ?, done = ?, category = ?, requester_name = ?, priority = ?
			WHERE id = ? AND owner = ?`,
			updated.Text, updated.Done, updated.Category, updated.RequesterName, updated.Priority, id, owner)
		if err != nil {
			return fmt.Errorf("failed to update item: %w", err)
		}
		return nil
	})
	if err != nil {
		return items.Item{}, err
	}
	return updated, nil
}

// DeleteItem removes one of owner's items
func (s *ItemStore) DeleteItem(owner, id string) error {
	return s.write(owner, func(tx *sql.Tx) error {
		res, err := tx.Exec("DELETE FROM items WHERE id = ? AND owner = ?", id, owner)
		if err != nil {
			return fmt.Errorf("failed to delete item: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to delete item: %w", err)
		}
		if n == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (s *ItemStore) write(owner string, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	_, err = tx.Exec(`
		INSERT INTO owner_revisions (owner, revision)
		VALUES (?, 1)
		ON CONFLICT(owner) DO UPDATE SET revision = revision + 1
	`, owner)
	if err != nil {
		return fmt.Errorf("failed to bump revision: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

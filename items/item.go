package items

import (
	"time"
)

// Kind is the discriminant tag of an item. It never changes after creation.
type Kind string

const (
	KindGoal     Kind = "goal"
	KindWish     Kind = "wish"
	KindTodo     Kind = "todo"
	KindShopping Kind = "shopping"
)

// Kinds lists every kind in display order
var Kinds = []Kind{KindTodo, KindShopping, KindGoal, KindWish}

// Valid reports whether k is one of the four known kinds
func (k Kind) Valid() bool {
	switch k {
	case KindGoal, KindWish, KindTodo, KindShopping:
		return true
	}
	return false
}

// Category buckets goals on screen
type Category string

const (
	CategoryPersonal Category = "personal"
	CategoryCareer   Category = "career"
	CategoryHealth   Category = "health"
	CategoryFinance  Category = "finance"
	CategoryFamily   Category = "family"
	CategoryTravel   Category = "travel"
)

// Categories is the fixed bucket order used when grouping goals
var Categories = []Category{
	CategoryPersonal,
	CategoryCareer,
	CategoryHealth,
	CategoryFinance,
	CategoryFamily,
	CategoryTravel,
}

// DefaultCategory is used when a goal is added without a category
const DefaultCategory = CategoryPersonal

// ParseCategory maps user input onto a known category
func ParseCategory(s string) (Category, bool) {
	if s == "" {
		return DefaultCategory, true
	}
	for _, c := range Categories {
		if string(c) == s {
			return c, true
		}
	}
	return "", false
}

// Item is the single record type persisted in the document store.
// Priority holds the todo priority (1-5) or the shopping urgency (1-3)
// and is zero for the other kinds.
type Item struct {
	ID            string    `json:"id"`
	Owner         string    `json:"owner"`
	Kind          Kind      `json:"kind"`
	Text          string    `json:"text"`
	Done          bool      `json:"done"`
	Created       time.Time `json:"created"`
	Category      Category  `json:"category,omitempty"`
	RequesterName string    `json:"requesterName,omitempty"`
	Priority      int       `json:"priority,omitempty"`
}

// PendingCreated reports whether the store has not assigned a timestamp yet
func (it Item) PendingCreated() bool {
	return it.Created.IsZero()
}

// Restore returns a copy suitable for re-creating a deleted item.
// Everything but the identifier is kept.
func (it Item) Restore() Item {
	it.ID = ""
	return it
}

// Apply returns a copy of it with the patch fields written over it
func (it Item) Apply(p Patch) Item {
	if p.Text != nil {
		it.Text = *p.Text
	}
	if p.Done != nil {
		it.Done = *p.Done
	}
	if p.Category != nil {
		it.Category = *p.Category
	}
	if p.RequesterName != nil {
		it.RequesterName = *p.RequesterName
	}
	if p.Priority != nil {
		it.Priority = *p.Priority
	}
	return it
}

// Patch is a partial field update. Nil fields are left alone.
// ID, owner, kind and creation time have no patch field and so stay immutable.
type Patch struct {
	Text          *string   `json:"text,omitempty"`
	Done          *bool     `json:"done,omitempty"`
	Category      *Category `json:"category,omitempty"`
	RequesterName *string   `json:"requesterName,omitempty"`
	Priority      *int      `json:"priority,omitempty"`
}

// Empty reports whether the patch changes nothing
func (p Patch) Empty() bool {
	return p.Text == nil && p.Done == nil && p.Category == nil &&
		p.RequesterName == nil && p.Priority == nil
}

// SetDone builds a patch that only flips completion
func SetDone(done bool) Patch {
	return Patch{Done: &done}
}

// SetPriority builds a patch that only changes priority or urgency
func SetPriority(priority int) Patch {
	return Patch{Priority: &priority}
}

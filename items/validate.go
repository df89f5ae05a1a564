package items

import (
	"fmt"
	"strings"
)

// ValidationError rejects user input before anything is written
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// Draft carries the fields a user types when adding an item
type Draft struct {
	Kind          Kind
	Text          string
	Category      string
	RequesterName string
	Priority      int
}

// NewItem validates a draft and builds the item to submit.
// Out-of-range priorities are coerced to the kind's default rather than rejected.
// ID and Created are left for the store to assign.
func NewItem(owner string, d Draft) (Item, error) {
	if strings.TrimSpace(owner) == "" {
		return Item{}, invalid("owner", "not signed in")
	}
	if !d.Kind.Valid() {
		return Item{}, invalid("kind", fmt.Sprintf("unknown kind %q", d.Kind))
	}

	text := strings.TrimSpace(d.Text)
	if text == "" {
		return Item{}, invalid("text", "must not be empty")
	}

	it := Item{
		Owner: owner,
		Kind:  d.Kind,
		Text:  text,
	}

	switch d.Kind {
	case KindGoal:
		c, ok := ParseCategory(strings.TrimSpace(d.Category))
		if !ok {
			return Item{}, invalid("category", fmt.Sprintf("unknown category %q", d.Category))
		}
		it.Category = c
	case KindWish:
		name := strings.TrimSpace(d.RequesterName)
		if name == "" {
			return Item{}, invalid("requesterName", "must not be empty")
		}
		it.RequesterName = name
	case KindTodo, KindShopping:
		it.Priority = CoercePriority(d.Kind, d.Priority)
	}

	return it, nil
}

// Validate checks a patch against the rules of the item's kind
func (p Patch) Validate(kind Kind) error {
	if p.Text != nil && strings.TrimSpace(*p.Text) == "" {
		return invalid("text", "must not be empty")
	}
	if p.Category != nil {
		if kind != KindGoal {
			return invalid("category", "only goals have a category")
		}
		if _, ok := ParseCategory(string(*p.Category)); !ok || *p.Category == "" {
			return invalid("category", fmt.Sprintf("unknown category %q", *p.Category))
		}
	}
	if p.RequesterName != nil {
		if kind != KindWish {
			return invalid("requesterName", "only wishes have a requester")
		}
		if strings.TrimSpace(*p.RequesterName) == "" {
			return invalid("requesterName", "must not be empty")
		}
	}
	if p.Priority != nil {
		lo, hi, ok := PriorityRange(kind)
		if !ok {
			return invalid("priority", fmt.Sprintf("%s items have no priority", kind))
		}
		if *p.Priority < lo || *p.Priority > hi {
			return invalid("priority", fmt.Sprintf("%d outside %d..%d", *p.Priority, lo, hi))
		}
	}
	return nil
}

// Package engines turns the raw item set into the ordered lists shown for
// each kind. Every projection is a pure function of its input: the result
// does not depend on the order items arrive in.
package engines

import (
	"cmp"
	"slices"
	"strings"

	"github.com/CrowderSoup/lists-app/items"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Filter is the user-controlled view state of one list
type Filter struct {
	OpenOnly bool
}

// Engine holds the sort and filter rules of one kind
type Engine struct {
	Kind            items.Kind
	DefaultOpenOnly bool

	compare func(a, b items.Item) int
}

// Goals orders open before done, then oldest first. Rendering groups by category.
func Goals() Engine {
	return Engine{
		Kind: items.KindGoal,
		compare: func(a, b items.Item) int {
			return openFirst(a, b)
		},
	}
}

// Wishes orders by requester name, then open before done, then oldest first.
// Only open wishes are shown by default.
func Wishes() Engine {
	return Engine{
		Kind:            items.KindWish,
		DefaultOpenOnly: true,
		compare: func(a, b items.Item) int {
			return openFirst(a, b)
		},
	}
}

// Todos orders by priority, most urgent first, then oldest first
func Todos() Engine {
	return Engine{
		Kind: items.KindTodo,
		compare: func(a, b items.Item) int {
			return cmp.Compare(b.Priority, a.Priority)
		},
	}
}

// Shopping orders unbought first, then by urgency, then oldest first
func Shopping() Engine {
	return Engine{
		Kind: items.KindShopping,
		compare: func(a, b items.Item) int {
			if c := openFirst(a, b); c != 0 {
				return c
			}
			return cmp.Compare(b.Priority, a.Priority)
		},
	}
}

// For returns the engine of a kind
func For(k items.Kind) (Engine, bool) {
	switch k {
	case items.KindGoal:
		return Goals(), true
	case items.KindWish:
		return Wishes(), true
	case items.KindTodo:
		return Todos(), true
	case items.KindShopping:
		return Shopping(), true
	}
	return Engine{}, false
}

// DefaultFilter is the filter a list starts with
func (e Engine) DefaultFilter() Filter {
	return Filter{OpenOnly: e.DefaultOpenOnly}
}

// Project selects the engine's kind from all, applies the filter and sorts.
// The input slice is not modified.
func (e Engine) Project(all []items.Item, f Filter) []items.Item {
	out := make([]items.Item, 0, len(all))
	for _, it := range all {
		if it.Kind != e.Kind {
			continue
		}
		if f.OpenOnly && it.Done {
			continue
		}
		out = append(out, it)
	}

	compare := e.compare
	if e.Kind == items.KindWish {
		// Collators keep internal buffers, so each projection gets its own.
		col := collate.New(language.German)
		compare = func(a, b items.Item) int {
			if c := col.CompareString(a.RequesterName, b.RequesterName); c != 0 {
				return c
			}
			if c := strings.Compare(a.RequesterName, b.RequesterName); c != 0 {
				return c
			}
			return e.compare(a, b)
		}
	}

	slices.SortFunc(out, func(a, b items.Item) int {
		if compare != nil {
			if c := compare(a, b); c != 0 {
				return c
			}
		}
		return byCreated(a, b)
	})
	return out
}

// NextPriority is the value a priority click moves the item to
func (e Engine) NextPriority(it items.Item) (int, bool) {
	if _, _, ok := items.PriorityRange(e.Kind); !ok || it.Kind != e.Kind {
		return 0, false
	}
	return items.CyclePriority(e.Kind, it.Priority), true
}

// Group is one category bucket of the goals list
type Group struct {
	Category items.Category
	Items    []items.Item
}

// ProjectGroups buckets the goal projection by category. Every category is
// present, in items.Categories order, even when empty. Goals with a category
// outside the known set are left out.
func (e Engine) ProjectGroups(all []items.Item, f Filter) []Group {
	groups := make([]Group, len(items.Categories))
	index := make(map[items.Category]int, len(items.Categories))
	for i, c := range items.Categories {
		groups[i] = Group{Category: c, Items: []items.Item{}}
		index[c] = i
	}

	for _, it := range e.Project(all, f) {
		cat := it.Category
		if cat == "" {
			cat = items.DefaultCategory
		}
		i, ok := index[cat]
		if !ok {
			continue
		}
		groups[i].Items = append(groups[i].Items, it)
	}
	return groups
}

func openFirst(a, b items.Item) int {
	switch {
	case a.Done == b.Done:
		return 0
	case !a.Done:
		return -1
	default:
		return 1
	}
}

// byCreated is the shared tie-breaker: oldest first, items still waiting for
// a server timestamp last, and the id as the final word.
func byCreated(a, b items.Item) int {
	ap, bp := a.PendingCreated(), b.PendingCreated()
	switch {
	case ap && !bp:
		return 1
	case !ap && bp:
		return -1
	case !ap && !bp:
		if c := a.Created.Compare(b.Created); c != 0 {
			return c
		}
	}
	return strings.Compare(a.ID, b.ID)
}

// Package render maps projected lists to display rows. It has no state and
// draws nothing; every row keeps the item id so controls can act on it.
package render

import (
	"fmt"
	"time"

	"github.com/CrowderSoup/lists-app/engines"
	"github.com/CrowderSoup/lists-app/items"
)

// DateLayout is the short German date format (d.m.yyyy)
const DateLayout = "2.1.2006"

// Row is one item ready to be drawn
type Row struct {
	ID      string
	Kind    items.Kind
	Text    string
	Done    bool
	Created string
	Pending bool
	Badge   string
}

// Section is one goal category with its rows
type Section struct {
	Category items.Category
	Rows     []Row
}

// Rows maps an ordered list one to one, keeping the order
func Rows(list []items.Item) []Row {
	rows := make([]Row, len(list))
	for i, it := range list {
		rows[i] = RowFor(it)
	}
	return rows
}

// Sections maps the grouped goal projection
func Sections(groups []engines.Group) []Section {
	out := make([]Section, len(groups))
	for i, g := range groups {
		out[i] = Section{Category: g.Category, Rows: Rows(g.Items)}
	}
	return out
}

// RowFor builds the display record of a single item
func RowFor(it items.Item) Row {
	r := Row{
		ID:    it.ID,
		Kind:  it.Kind,
		Text:  it.Text,
		Done:  it.Done,
		Badge: Badge(it),
	}
	if it.PendingCreated() {
		r.Pending = true
	} else {
		r.Created = FormatDate(it.Created)
	}
	return r
}

// Badge is the kind-specific value shown next to an item:
// P<n> for todos, D<n> for shopping, the requester for wishes and
// the category for goals.
func Badge(it items.Item) string {
	switch it.Kind {
	case items.KindTodo:
		return fmt.Sprintf("P%d", it.Priority)
	case items.KindShopping:
		return fmt.Sprintf("D%d", it.Priority)
	case items.KindWish:
		return it.RequesterName
	case items.KindGoal:
		return string(it.Category)
	}
	return ""
}

// FormatDate renders a creation time in local time
func FormatDate(t time.Time) string {
	return t.Local().Format(DateLayout)
}

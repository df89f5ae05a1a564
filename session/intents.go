package session

import "github.com/CrowderSoup/lists-app/items"

// Intent is one user gesture. The session routes each intent either to the
// remote store or to the undo controller.
type Intent interface {
	isIntent()
}

// AddItem validates the draft and creates it for the signed-in user
type AddItem struct {
	Draft items.Draft
}

// ToggleDone flips completion of one item
type ToggleDone struct {
	ID string
}

// Delete removes one item
type Delete struct {
	ID string
}

// CyclePriority advances the priority or urgency of one item
type CyclePriority struct {
	ID string
}

// DeleteCompleted removes every done item of a kind, restorable for a while
type DeleteCompleted struct {
	Kind items.Kind
}

// Undo restores the last DeleteCompleted batch
type Undo struct{}

// ChangeFilter switches a list between showing all and showing open items
type ChangeFilter struct {
	Kind     items.Kind
	OpenOnly bool
}

func (AddItem) isIntent()         {}
func (ToggleDone) isIntent()      {}
func (Delete) isIntent()          {}
func (CyclePriority) isIntent()   {}
func (DeleteCompleted) isIntent() {}
func (Undo) isIntent()            {}
func (ChangeFilter) isIntent()    {}

package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up       key.Binding
	Down     key.Binding
	NextTab  key.Binding
	PrevTab  key.Binding
	Add      key.Binding
	Toggle   key.Binding
	Delete   key.Binding
	Cycle    key.Binding
	Clear    key.Binding
	Undo     key.Binding
	OpenOnly key.Binding
	Unlock   key.Binding
	Logout   key.Binding
	Quit     key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		NextTab:  key.NewBinding(key.WithKeys("tab", "right", "l"), key.WithHelp("tab", "next list")),
		PrevTab:  key.NewBinding(key.WithKeys("shift+tab", "left", "h"), key.WithHelp("shift+tab", "prev list")),
		Add:      key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add")),
		Toggle:   key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "done")),
		Delete:   key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
		Cycle:    key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "priority")),
		Clear:    key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "clear done")),
		Undo:     key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "undo")),
		OpenOnly: key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "open only")),
		Unlock:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "unlock")),
		Logout:   key.NewBinding(key.WithKeys("L"), key.WithHelp("L", "log out")),
		Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// ShortHelp and FullHelp satisfy help.KeyMap
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Add, k.Toggle, k.Delete, k.Cycle, k.Clear, k.Undo, k.OpenOnly, k.NextTab, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.NextTab, k.PrevTab},
		{k.Add, k.Toggle, k.Delete, k.Cycle},
		{k.Clear, k.Undo, k.OpenOnly},
		{k.Unlock, k.Logout, k.Quit},
	}
}

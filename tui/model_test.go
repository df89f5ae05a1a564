package tui

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/CrowderSoup/lists-app/items"
	"github.com/CrowderSoup/lists-app/remote"
	"github.com/CrowderSoup/lists-app/render"
	"github.com/CrowderSoup/lists-app/session"
)

func testModel() model {
	s := session.New(remote.NewStore(remote.NewMemoryBackend()), remote.NewMemoryIdentity())
	return newModel(context.Background(), s)
}

func TestDraftPerKind(t *testing.T) {
	m := testModel()

	cases := []struct {
		kind  items.Kind
		extra string
		check func(items.Draft) bool
	}{
		{items.KindTodo, "5", func(d items.Draft) bool { return d.Priority == 5 }},
		{items.KindTodo, "soon", func(d items.Draft) bool { return d.Priority == 0 }},
		{items.KindShopping, "1", func(d items.Draft) bool { return d.Priority == 1 }},
		{items.KindGoal, "health", func(d items.Draft) bool { return d.Category == "health" }},
		{items.KindWish, " Anna ", func(d items.Draft) bool { return d.RequesterName == "Anna" }},
	}
	for _, c := range cases {
		for i, k := range items.Kinds {
			if k == c.kind {
				m.tab = i
			}
		}
		m.text.SetValue("Thing")
		m.extra.SetValue(c.extra)
		d := m.draft()
		if d.Kind != c.kind || d.Text != "Thing" || !c.check(d) {
			t.Fatalf("%s with %q: unexpected draft %+v", c.kind, c.extra, d)
		}
	}
}

func TestRowLine(t *testing.T) {
	line := rowLine(render.Row{Text: "Milk", Badge: "D3", Created: "7.3.2025"}, false)
	for _, want := range []string{"Milk", "D3", "7.3.2025"} {
		if !strings.Contains(line, want) {
			t.Fatalf("row line %q is missing %q", line, want)
		}
	}
	if pending := rowLine(render.Row{Text: "New", Pending: true}, true); !strings.Contains(pending, "…") {
		t.Fatalf("pending row should show a marker: %q", pending)
	}
}

func TestTabsWrapAround(t *testing.T) {
	m := testModel()
	m.mode = modeList

	next, _ := m.updateList(tea.KeyMsg{Type: tea.KeyShiftTab})
	m = next.(model)
	if m.tab != len(items.Kinds)-1 {
		t.Fatalf("shift+tab from the first list should wrap, got tab %d", m.tab)
	}
	next, _ = m.updateList(tea.KeyMsg{Type: tea.KeyTab})
	m = next.(model)
	if m.tab != 0 {
		t.Fatalf("tab from the last list should wrap, got tab %d", m.tab)
	}
}

func TestEmptyAddIsRejectedLocally(t *testing.T) {
	m := testModel()
	m.mode = modeAdd

	next, _ := m.updateAdd(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(model)
	if m.mode != modeAdd || m.errMsg == "" {
		t.Fatalf("empty add should stay in add mode with an error, got mode %d err %q", m.mode, m.errMsg)
	}
}

// Package tui is the terminal front end. It turns key presses into session
// intents and draws whatever view the session publishes last.
package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/CrowderSoup/lists-app/gate"
	"github.com/CrowderSoup/lists-app/items"
	"github.com/CrowderSoup/lists-app/render"
	"github.com/CrowderSoup/lists-app/session"
)

type mode int

const (
	modeLogin mode = iota
	modeList
	modeAdd
	modeUnlock
)

var tabTitles = map[items.Kind]string{
	items.KindTodo:     "Todos",
	items.KindShopping: "Shopping",
	items.KindGoal:     "Goals",
	items.KindWish:     "Wishes",
}

type viewMsg session.View

type loginMsg struct{ err error }

type unlockMsg struct {
	section gate.Section
	ok      bool
}

type model struct {
	ctx  context.Context
	sess *session.Session
	keys keyMap
	help help.Model

	view   session.View
	mode   mode
	tab    int
	cursor map[items.Kind]int
	width  int
	height int

	email    textinput.Model
	password textinput.Model
	text     textinput.Model
	extra    textinput.Model
	secret   textinput.Model
	focus    int

	status string
	errMsg string
	busy   bool
}

func newModel(ctx context.Context, s *session.Session) model {
	m := model{
		ctx:    ctx,
		sess:   s,
		keys:   defaultKeys(),
		help:   help.New(),
		cursor: make(map[items.Kind]int),
		mode:   modeLogin,
	}
	m.help.Styles.ShortKey = helpStyle
	m.help.Styles.ShortDesc = helpStyle

	m.email = newInput("Email", 254)
	m.password = newInput("Password", 128)
	m.password.EchoMode = textinput.EchoPassword
	m.password.EchoCharacter = '•'
	m.text = newInput("New item...", 200)
	m.extra = newInput("", 64)
	m.secret = newInput("Secret", 32)
	m.secret.EchoMode = textinput.EchoPassword
	m.email.Focus()
	return m
}

func newInput(placeholder string, limit int) textinput.Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = placeholder
	ti.CharLimit = limit
	return ti
}

// Run blocks until the user quits or ctx ends
func Run(ctx context.Context, s *session.Session) error {
	p := tea.NewProgram(newModel(ctx, s), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}

func waitForView(s *session.Session) tea.Cmd {
	return func() tea.Msg {
		return viewMsg(<-s.Views())
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, waitForView(m.sess))
}

func (m model) kind() items.Kind {
	return items.Kinds[m.tab]
}

func (m model) rows() []render.Row {
	return m.view.Rows(m.kind())
}

func (m model) selected() (render.Row, bool) {
	rows := m.rows()
	i := m.cursor[m.kind()]
	if i < 0 || i >= len(rows) {
		return render.Row{}, false
	}
	return rows[i], true
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		return m, nil

	case viewMsg:
		m.view = session.View(msg)
		if m.view.Err != nil {
			m.errMsg = m.view.Err.Error()
		}
		if !m.view.SignedIn() && m.mode != modeLogin {
			m.mode = modeLogin
			m.email.Focus()
		}
		m.clampCursor()
		return m, waitForView(m.sess)

	case loginMsg:
		m.busy = false
		if msg.err != nil {
			m.errMsg = msg.err.Error()
			return m, nil
		}
		m.errMsg = ""
		m.password.SetValue("")
		m.mode = modeList
		return m, nil

	case unlockMsg:
		m.secret.SetValue("")
		m.secret.Blur()
		m.mode = modeList
		if !msg.ok {
			m.errMsg = "wrong secret"
		}
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		switch m.mode {
		case modeLogin:
			return m.updateLogin(msg)
		case modeAdd:
			return m.updateAdd(msg)
		case modeUnlock:
			return m.updateUnlock(msg)
		}
		return m.updateList(msg)
	}
	return m, nil
}

func (m model) updateLogin(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		return m, tea.Quit
	case "tab", "shift+tab", "up", "down":
		m.focus = 1 - m.focus
		if m.focus == 0 {
			m.password.Blur()
			m.email.Focus()
		} else {
			m.email.Blur()
			m.password.Focus()
		}
		return m, nil
	case "enter":
		if m.busy {
			return m, nil
		}
		m.busy = true
		m.errMsg = ""
		ctx, s := m.ctx, m.sess
		email, pw := m.email.Value(), m.password.Value()
		return m, func() tea.Msg {
			_, err := s.Login(ctx, email, pw)
			return loginMsg{err: err}
		}
	}

	var cmd tea.Cmd
	if m.focus == 0 {
		m.email, cmd = m.email.Update(msg)
	} else {
		m.password, cmd = m.password.Update(msg)
	}
	return m, cmd
}

func (m model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.errMsg = ""
	k := m.kind()
	locked := m.view.Locked[session.SectionFor(k)]

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.NextTab):
		m.tab = (m.tab + 1) % len(items.Kinds)
		return m, nil
	case key.Matches(msg, m.keys.PrevTab):
		m.tab = (m.tab + len(items.Kinds) - 1) % len(items.Kinds)
		return m, nil
	case key.Matches(msg, m.keys.Logout):
		ctx, s := m.ctx, m.sess
		return m, func() tea.Msg {
			if err := s.Logout(ctx); err != nil {
				return loginMsg{err: err}
			}
			return nil
		}
	}

	if locked {
		if key.Matches(msg, m.keys.Unlock) {
			m.mode = modeUnlock
			m.secret.SetValue("")
			m.secret.Focus()
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Up):
		if m.cursor[k] > 0 {
			m.cursor[k]--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor[k] < len(m.rows())-1 {
			m.cursor[k]++
		}
	case key.Matches(msg, m.keys.Add):
		m.mode = modeAdd
		m.focus = 0
		m.text.SetValue("")
		m.extra.SetValue("")
		m.extra.Placeholder = extraPlaceholder(k)
		m.extra.Blur()
		m.text.Focus()
	case key.Matches(msg, m.keys.Toggle):
		if r, ok := m.selected(); ok {
			m.sess.Dispatch(session.ToggleDone{ID: r.ID})
		}
	case key.Matches(msg, m.keys.Delete):
		if r, ok := m.selected(); ok {
			m.sess.Dispatch(session.Delete{ID: r.ID})
		}
	case key.Matches(msg, m.keys.Cycle):
		if r, ok := m.selected(); ok {
			m.sess.Dispatch(session.CyclePriority{ID: r.ID})
		}
	case key.Matches(msg, m.keys.Clear):
		m.sess.Dispatch(session.DeleteCompleted{Kind: k})
	case key.Matches(msg, m.keys.Undo):
		m.sess.Dispatch(session.Undo{})
	case key.Matches(msg, m.keys.OpenOnly):
		m.sess.Dispatch(session.ChangeFilter{Kind: k, OpenOnly: !m.view.Filters[k].OpenOnly})
	}
	return m, nil
}

func extraPlaceholder(k items.Kind) string {
	switch k {
	case items.KindTodo:
		return "Priority 1-5 (default 3)"
	case items.KindShopping:
		return "Urgency 1-3 (default 2)"
	case items.KindGoal:
		names := make([]string, len(items.Categories))
		for i, c := range items.Categories {
			names[i] = string(c)
		}
		return "Category: " + strings.Join(names, ", ")
	case items.KindWish:
		return "Wished by (name)"
	}
	return ""
}

func (m model) draft() items.Draft {
	k := m.kind()
	d := items.Draft{Kind: k, Text: m.text.Value()}
	extra := strings.TrimSpace(m.extra.Value())
	switch k {
	case items.KindTodo, items.KindShopping:
		if n, err := strconv.Atoi(extra); err == nil {
			d.Priority = n
		}
	case items.KindGoal:
		d.Category = extra
	case items.KindWish:
		d.RequesterName = extra
	}
	return d
}

func (m model) updateAdd(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = modeList
		m.text.Blur()
		m.extra.Blur()
		return m, nil
	case "tab", "shift+tab":
		m.focus = 1 - m.focus
		if m.focus == 0 {
			m.extra.Blur()
			m.text.Focus()
		} else {
			m.text.Blur()
			m.extra.Focus()
		}
		return m, nil
	case "enter":
		if strings.TrimSpace(m.text.Value()) == "" {
			m.errMsg = "text cannot be empty"
			return m, nil
		}
		m.sess.Dispatch(session.AddItem{Draft: m.draft()})
		m.errMsg = ""
		m.mode = modeList
		m.text.Blur()
		m.extra.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	if m.focus == 0 {
		m.text, cmd = m.text.Update(msg)
	} else {
		m.extra, cmd = m.extra.Update(msg)
	}
	return m, cmd
}

func (m model) updateUnlock(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = modeList
		m.secret.Blur()
		return m, nil
	case "enter":
		section := session.SectionFor(m.kind())
		s, secret := m.sess, m.secret.Value()
		return m, func() tea.Msg {
			return unlockMsg{section: section, ok: s.Unlock(section, secret)}
		}
	}
	var cmd tea.Cmd
	m.secret, cmd = m.secret.Update(msg)
	return m, cmd
}

func (m *model) clampCursor() {
	for _, k := range items.Kinds {
		n := len(m.view.Rows(k))
		if m.cursor[k] >= n {
			m.cursor[k] = n - 1
		}
		if m.cursor[k] < 0 {
			m.cursor[k] = 0
		}
	}
}

func (m model) View() string {
	var b strings.Builder
	switch m.mode {
	case modeLogin:
		b.WriteString(titleStyle.Render("Sign in or create an account") + "\n\n")
		b.WriteString(m.email.View() + "\n")
		b.WriteString(m.password.View() + "\n")
		if m.busy {
			b.WriteString(mutedStyle.Render("signing in...") + "\n")
		}
	default:
		b.WriteString(m.tabsView() + "\n\n")
		b.WriteString(m.listView())
		switch m.mode {
		case modeAdd:
			b.WriteString("\n" + inputBar("Add to "+tabTitles[m.kind()], m.text.View()+"\n"+m.extra.View()))
		case modeUnlock:
			b.WriteString("\n" + inputBar("Unlock "+tabTitles[m.kind()], m.secret.View()))
		}
		b.WriteString("\n" + m.help.View(m.keys))
	}
	if m.errMsg != "" {
		b.WriteString("\n" + errorStyle.Render("✖ "+m.errMsg))
	}
	return panel(b.String(), m.width)
}

func (m model) tabsView() string {
	parts := make([]string, 0, len(items.Kinds)+1)
	for i, k := range items.Kinds {
		title := tabTitles[k]
		if i == m.tab {
			parts = append(parts, activeTab.Render(title))
		} else {
			parts = append(parts, tabStyle.Render(title))
		}
	}
	parts = append(parts, mutedStyle.Render(m.view.Email))
	return strings.Join(parts, " ")
}

func (m model) listView() string {
	k := m.kind()
	if m.view.Locked[session.SectionFor(k)] {
		return mutedStyle.Render("This list is locked. Press enter to unlock.")
	}
	if !m.view.Loaded {
		return mutedStyle.Render("loading...")
	}

	var b strings.Builder
	filter := "all"
	if m.view.Filters[k].OpenOnly {
		filter = "open only"
	}
	b.WriteString(accentStyle.Render(fmt.Sprintf("%s (%s)", tabTitles[k], filter)))
	if m.view.UndoAvailable {
		b.WriteString("  " + successStyle.Render("u: undo clear"))
	}
	b.WriteString("\n")

	cur := m.cursor[k]
	if k == items.KindGoal {
		i := 0
		for _, sec := range m.view.Goals {
			b.WriteString(titleStyle.Render(string(sec.Category)) + "\n")
			if len(sec.Rows) == 0 {
				b.WriteString(mutedStyle.Render("  nothing here") + "\n")
			}
			for _, r := range sec.Rows {
				b.WriteString(rowLine(r, i == cur) + "\n")
				i++
			}
		}
		return b.String()
	}

	rows := m.rows()
	if len(rows) == 0 {
		b.WriteString(mutedStyle.Render("  nothing here") + "\n")
	}
	for i, r := range rows {
		b.WriteString(rowLine(r, i == cur) + "\n")
	}
	return b.String()
}

func rowLine(r render.Row, selected bool) string {
	box := mutedStyle.Render(boxUnchecked)
	text := r.Text
	if r.Done {
		box = successStyle.Render(boxChecked)
		text = doneStyle.Render(text)
	}
	line := fmt.Sprintf("%s %s", box, text)
	if r.Badge != "" {
		line += " " + accentStyle.Render("["+r.Badge+"]")
	}
	if r.Pending {
		line += " " + mutedStyle.Render("…")
	} else if r.Created != "" {
		line += " " + mutedStyle.Render(r.Created)
	}
	prefix := "  "
	if selected {
		prefix = selectedStyle.Render("> ")
	}
	return prefix + line
}

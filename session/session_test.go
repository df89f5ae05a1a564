package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/CrowderSoup/lists-app/gate"
	"github.com/CrowderSoup/lists-app/items"
	"github.com/CrowderSoup/lists-app/remote"
	"github.com/CrowderSoup/lists-app/undo"
)

type harness struct {
	backend  *remote.MemoryBackend
	identity *remote.MemoryIdentity
	session  *Session
	expire   chan func()
}

func start(t *testing.T, opts ...Option) *harness {
	t.Helper()
	h := &harness{
		backend:  remote.NewMemoryBackend(),
		identity: remote.NewMemoryIdentity(),
		expire:   make(chan func(), 8),
	}
	sched := func(d time.Duration, f func()) func() {
		h.expire <- f
		return func() {}
	}
	opts = append(opts, WithUndoOptions(undo.WithScheduler(sched)))
	h.session = New(remote.NewStore(h.backend), h.identity, opts...)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		h.session.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return h
}

// waitView reads views until one satisfies ok
func (h *harness) waitView(t *testing.T, what string, ok func(View) bool) View {
	t.Helper()
	deadline := time.After(3 * time.Second)
	for {
		select {
		case v := <-h.session.Views():
			if ok(v) {
				return v
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %s", what)
		}
	}
}

func (h *harness) login(t *testing.T, email string) View {
	t.Helper()
	id, err := h.session.Login(context.Background(), email, "secret1")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	return h.waitView(t, "signed-in view", func(v View) bool { return v.UID == id.UID && v.Loaded })
}

func texts(v View, kind items.Kind) []string {
	var out []string
	for _, r := range v.Rows(kind) {
		out = append(out, r.Text)
	}
	return out
}

func TestLogin_SignUpThenSignInFallback(t *testing.T) {
	h := start(t)
	ctx := context.Background()

	first, err := h.session.Login(ctx, "ana@example.com", "secret1")
	if err != nil {
		t.Fatalf("first Login: %v", err)
	}
	second, err := h.session.Login(ctx, "ana@example.com", "secret1")
	if err != nil {
		t.Fatalf("second Login: %v", err)
	}
	if first.UID != second.UID {
		t.Fatalf("existing account should sign in, got uids %q and %q", first.UID, second.UID)
	}

	_, err = h.session.Login(ctx, "ana@example.com", "wrong-password")
	var authErr *AuthError
	if !errors.As(err, &authErr) || !errors.Is(err, remote.ErrInvalidCredentials) {
		t.Fatalf("expected AuthError wrapping ErrInvalidCredentials, got %v", err)
	}

	_, err = h.session.Login(ctx, "ana@example.com", "12345")
	var verr *items.ValidationError
	if !errors.As(err, &verr) || verr.Field != "password" {
		t.Fatalf("expected password ValidationError, got %v", err)
	}
	if _, err := h.session.Login(ctx, "", ""); !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError for empty credentials, got %v", err)
	}
}

func TestAddItem_ShowsInPriorityOrder(t *testing.T) {
	h := start(t)
	h.login(t, "ana@example.com")

	h.session.Dispatch(AddItem{Draft: items.Draft{Kind: items.KindTodo, Text: "Low", Priority: 1}})
	h.session.Dispatch(AddItem{Draft: items.Draft{Kind: items.KindTodo, Text: "High", Priority: 5}})
	h.session.Dispatch(AddItem{Draft: items.Draft{Kind: items.KindTodo, Text: "Default"}})

	v := h.waitView(t, "three todos", func(v View) bool { return len(v.Todos) == 3 })
	got := texts(v, items.KindTodo)
	want := []string{"High", "Default", "Low"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("todos = %v, want %v", got, want)
		}
	}
	if v.Todos[1].Badge != "P3" {
		t.Fatalf("default todo priority badge = %q, want P3", v.Todos[1].Badge)
	}
}

func TestAddItem_InvalidDraftSurfacesError(t *testing.T) {
	h := start(t)
	h.login(t, "ana@example.com")

	h.session.Dispatch(AddItem{Draft: items.Draft{Kind: items.KindWish, Text: "Bike"}})
	v := h.waitView(t, "validation error", func(v View) bool { return v.Err != nil })
	var verr *items.ValidationError
	if !errors.As(v.Err, &verr) {
		t.Fatalf("expected ValidationError, got %v", v.Err)
	}
	if len(h.backend.Items(v.UID)) != 0 {
		t.Fatalf("invalid draft must not be written")
	}
}

func TestToggleAndCycle(t *testing.T) {
	h := start(t)
	h.login(t, "ana@example.com")

	h.session.Dispatch(AddItem{Draft: items.Draft{Kind: items.KindShopping, Text: "Milk", Priority: 3}})
	v := h.waitView(t, "milk", func(v View) bool { return len(v.Shopping) == 1 })
	id := v.Shopping[0].ID

	h.session.Dispatch(CyclePriority{ID: id})
	h.waitView(t, "urgency wrapped to 1", func(v View) bool {
		return len(v.Shopping) == 1 && v.Shopping[0].Badge == "D1"
	})

	h.session.Dispatch(ToggleDone{ID: id})
	h.waitView(t, "milk done", func(v View) bool {
		return len(v.Shopping) == 1 && v.Shopping[0].Done
	})
}

func TestIdentitySwitchShowsOnlyOwnItems(t *testing.T) {
	h := start(t)
	ctx := context.Background()

	h.login(t, "ana@example.com")
	h.session.Dispatch(AddItem{Draft: items.Draft{Kind: items.KindTodo, Text: "Ana's"}})
	h.waitView(t, "ana's todo", func(v View) bool { return len(v.Todos) == 1 })

	if err := h.session.Logout(ctx); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	h.waitView(t, "signed-out view", func(v View) bool {
		return !v.SignedIn() && v.Loaded && len(v.Todos) == 0
	})

	h.login(t, "ben@example.com")
	h.session.Dispatch(AddItem{Draft: items.Draft{Kind: items.KindTodo, Text: "Ben's"}})
	v := h.waitView(t, "ben's todo", func(v View) bool { return len(v.Todos) == 1 })
	if v.Todos[0].Text != "Ben's" {
		t.Fatalf("ben sees %q", v.Todos[0].Text)
	}
}

func TestDeleteCompletedAndUndo(t *testing.T) {
	h := start(t)
	h.login(t, "ana@example.com")

	for _, text := range []string{"Bread", "Eggs", "Milk"} {
		h.session.Dispatch(AddItem{Draft: items.Draft{Kind: items.KindShopping, Text: text}})
	}
	v := h.waitView(t, "three items", func(v View) bool { return len(v.Shopping) == 3 })
	for _, r := range v.Shopping {
		if r.Text != "Milk" {
			h.session.Dispatch(ToggleDone{ID: r.ID})
		}
	}
	h.waitView(t, "two done", func(v View) bool {
		n := 0
		for _, r := range v.Shopping {
			if r.Done {
				n++
			}
		}
		return n == 2
	})

	h.session.Dispatch(DeleteCompleted{Kind: items.KindShopping})
	h.waitView(t, "done items gone", func(v View) bool {
		return len(v.Shopping) == 1 && v.UndoAvailable
	})

	h.session.Dispatch(Undo{})
	v = h.waitView(t, "restored", func(v View) bool {
		return len(v.Shopping) == 3 && !v.UndoAvailable
	})
	for _, r := range v.Shopping {
		if r.Text != "Milk" && !r.Done {
			t.Fatalf("%s should come back done", r.Text)
		}
	}
}

func TestUndoExpires(t *testing.T) {
	h := start(t)
	h.login(t, "ana@example.com")

	h.session.Dispatch(AddItem{Draft: items.Draft{Kind: items.KindTodo, Text: "Old"}})
	v := h.waitView(t, "todo", func(v View) bool { return len(v.Todos) == 1 })
	h.session.Dispatch(ToggleDone{ID: v.Todos[0].ID})
	h.waitView(t, "done", func(v View) bool { return len(v.Todos) == 1 && v.Todos[0].Done })

	h.session.Dispatch(DeleteCompleted{Kind: items.KindTodo})
	h.waitView(t, "undo offered", func(v View) bool { return v.UndoAvailable })

	select {
	case f := <-h.expire:
		f()
	case <-time.After(3 * time.Second):
		t.Fatalf("no undo timer was scheduled")
	}
	h.waitView(t, "undo gone", func(v View) bool { return !v.UndoAvailable })
}

func TestGatedSections(t *testing.T) {
	g := gate.New(map[gate.Section]string{gate.SectionGoals: "5202"})
	h := start(t, WithGate(g))
	h.login(t, "ana@example.com")

	h.session.Dispatch(AddItem{Draft: items.Draft{Kind: items.KindGoal, Text: "Run a marathon"}})
	v := h.waitView(t, "goal written", func(v View) bool { return len(h.backend.Items(v.UID)) == 1 })
	if !v.Locked[gate.SectionGoals] || len(v.Goals) != 0 {
		t.Fatalf("goals must stay hidden while locked")
	}

	if h.session.Unlock(gate.SectionGoals, "0000") {
		t.Fatalf("wrong secret unlocked goals")
	}
	if !h.session.Unlock(gate.SectionGoals, "5202") {
		t.Fatalf("right secret rejected")
	}
	v = h.waitView(t, "goals shown", func(v View) bool { return !v.Locked[gate.SectionGoals] })
	if got := texts(v, items.KindGoal); len(got) != 1 || got[0] != "Run a marathon" {
		t.Fatalf("goals = %v", got)
	}
}

func TestChangeFilter(t *testing.T) {
	h := start(t)
	h.login(t, "ana@example.com")

	h.session.Dispatch(AddItem{Draft: items.Draft{Kind: items.KindTodo, Text: "A"}})
	h.session.Dispatch(AddItem{Draft: items.Draft{Kind: items.KindTodo, Text: "B"}})
	v := h.waitView(t, "two todos", func(v View) bool { return len(v.Todos) == 2 })
	h.session.Dispatch(ToggleDone{ID: v.Todos[0].ID})
	h.waitView(t, "one done", func(v View) bool { return len(v.Todos) == 2 && (v.Todos[0].Done || v.Todos[1].Done) })

	h.session.Dispatch(ChangeFilter{Kind: items.KindTodo, OpenOnly: true})
	v = h.waitView(t, "open only", func(v View) bool { return v.Filters[items.KindTodo].OpenOnly })
	if len(v.Todos) != 1 || v.Todos[0].Done {
		t.Fatalf("open-only filter shows %+v", v.Todos)
	}
}

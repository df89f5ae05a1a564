// Package session runs the client: a single loop that reacts to user
// intents, snapshot deliveries, identity changes and timers. The latest
// snapshot is the only item state; every view is derived from it.
package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/CrowderSoup/lists-app/engines"
	"github.com/CrowderSoup/lists-app/gate"
	"github.com/CrowderSoup/lists-app/items"
	"github.com/CrowderSoup/lists-app/remote"
	"github.com/CrowderSoup/lists-app/render"
	"github.com/CrowderSoup/lists-app/undo"
)

const minPasswordLength = 6

// AuthError is a sign-in or sign-up failure, shown to the user as is
type AuthError struct {
	Err error
}

func (e *AuthError) Error() string { return e.Err.Error() }

func (e *AuthError) Unwrap() error { return e.Err }

// View is everything a front end needs to draw
type View struct {
	UID      string
	Email    string
	Loaded   bool
	Revision int64

	Goals    []render.Section
	Wishes   []render.Row
	Todos    []render.Row
	Shopping []render.Row

	Filters       map[items.Kind]engines.Filter
	Locked        map[gate.Section]bool
	UndoAvailable bool
	Err           error
}

// SignedIn reports whether the view belongs to a user
func (v View) SignedIn() bool {
	return v.UID != ""
}

// Rows returns the rows of a flat list; goals are flattened across categories
func (v View) Rows(kind items.Kind) []render.Row {
	switch kind {
	case items.KindWish:
		return v.Wishes
	case items.KindTodo:
		return v.Todos
	case items.KindShopping:
		return v.Shopping
	case items.KindGoal:
		var rows []render.Row
		for _, s := range v.Goals {
			rows = append(rows, s.Rows...)
		}
		return rows
	}
	return nil
}

type Option func(*Session)

// WithGate puts protected sections behind the given gate
func WithGate(g *gate.Gate) Option {
	return func(s *Session) { s.gate = g }
}

// WithUndoOptions tunes the bulk-delete controller
func WithUndoOptions(opts ...undo.Option) Option {
	return func(s *Session) { s.undoOpts = append(s.undoOpts, opts...) }
}

// Session wires the store, the identity provider and the undo controller
// to one event loop
type Session struct {
	store    *remote.Store
	identity remote.IdentityProvider
	gate     *gate.Gate
	undo     *undo.Controller
	undoOpts []undo.Option

	intents chan Intent
	events  chan func()
	views   chan View
	done    chan struct{}

	// Owned by the loop.
	who     remote.Identity
	snap    remote.Snapshot
	loaded  bool
	filters map[items.Kind]engines.Filter
	lastErr error
}

func New(store *remote.Store, identity remote.IdentityProvider, opts ...Option) *Session {
	s := &Session{
		store:    store,
		identity: identity,
		intents:  make(chan Intent, 16),
		events:   make(chan func(), 16),
		views:    make(chan View, 1),
		done:     make(chan struct{}),
		filters:  make(map[items.Kind]engines.Filter),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.gate == nil {
		s.gate = gate.New(nil)
	}
	for _, k := range items.Kinds {
		e, _ := engines.For(k)
		s.filters[k] = e.DefaultFilter()
	}

	undoOpts := append([]undo.Option{undo.WithExpiryHook(func() { s.post(func() {}) })}, s.undoOpts...)
	s.undo = undo.NewController(store, undoOpts...)
	return s
}

// Views delivers the latest view after every change. Slow readers only
// ever see the most recent one.
func (s *Session) Views() <-chan View {
	return s.views
}

// Dispatch hands an intent to the loop
func (s *Session) Dispatch(in Intent) {
	select {
	case s.intents <- in:
	case <-s.done:
	}
}

// Run processes events until ctx is cancelled. Ending the run ends the
// session: the subscription is released and every gated section locks again.
func (s *Session) Run(ctx context.Context) error {
	defer close(s.done)
	defer s.gate.Close()
	defer s.store.Unsubscribe()

	s.store.Subscribe("")
	s.publish()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case id := <-s.identity.Changes():
			s.switchIdentity(id)
		case snap := <-s.store.Snapshots():
			s.applySnapshot(snap)
		case in := <-s.intents:
			s.handle(ctx, in)
		case ev := <-s.events:
			ev()
		}
		s.publish()
	}
}

// Login signs up and falls back to signing in when the account exists
func (s *Session) Login(ctx context.Context, email, password string) (remote.Identity, error) {
	email = strings.TrimSpace(email)
	password = strings.TrimSpace(password)
	if email == "" || password == "" {
		return remote.Identity{}, &items.ValidationError{Field: "credentials", Reason: "email and password are required"}
	}
	if len(password) < minPasswordLength {
		return remote.Identity{}, &items.ValidationError{
			Field:  "password",
			Reason: fmt.Sprintf("must be at least %d characters", minPasswordLength),
		}
	}

	id, err := s.identity.SignUp(ctx, email, password)
	if errors.Is(err, remote.ErrAccountExists) {
		id, err = s.identity.SignIn(ctx, email, password)
	}
	if err != nil {
		return remote.Identity{}, &AuthError{Err: err}
	}
	log.Printf("Signed in as %s", id.Email)
	return id, nil
}

// Logout signs the current user out
func (s *Session) Logout(ctx context.Context) error {
	if err := s.identity.SignOut(ctx); err != nil {
		return &AuthError{Err: err}
	}
	return nil
}

// Unlock opens a gated section for the rest of the session
func (s *Session) Unlock(section gate.Section, secret string) bool {
	ok := s.gate.Unlock(section, secret)
	if ok {
		s.post(func() {})
	}
	return ok
}

func (s *Session) post(f func()) {
	select {
	case s.events <- f:
	case <-s.done:
	}
}

// switchIdentity is the only place a subscription is created or replaced
func (s *Session) switchIdentity(id remote.Identity) {
	log.Printf("Identity changed: %q", id.Email)
	s.who = id
	s.undo.Reset()
	s.loaded = false
	s.lastErr = nil
	s.snap = remote.Snapshot{Owner: id.UID}
	s.store.Subscribe(id.UID)
}

func (s *Session) applySnapshot(snap remote.Snapshot) {
	if snap.Generation != s.store.Generation() {
		return
	}
	if snap.Err != nil {
		s.lastErr = snap.Err
		return
	}
	var serr *remote.SubscriptionError
	if errors.As(s.lastErr, &serr) {
		s.lastErr = nil
	}
	s.snap = snap
	s.loaded = true
}

func (s *Session) handle(ctx context.Context, in Intent) {
	s.lastErr = nil

	switch in := in.(type) {
	case AddItem:
		it, err := items.NewItem(s.who.UID, in.Draft)
		if err != nil {
			s.lastErr = err
			return
		}
		s.watch(s.store.Create(ctx, it))

	case ToggleDone:
		it, ok := s.find(in.ID)
		if !ok {
			return
		}
		s.update(ctx, it, items.SetDone(!it.Done))

	case Delete:
		if _, ok := s.find(in.ID); !ok {
			return
		}
		s.watch(s.store.Delete(ctx, in.ID))

	case CyclePriority:
		it, ok := s.find(in.ID)
		if !ok {
			return
		}
		e, _ := engines.For(it.Kind)
		next, ok := e.NextPriority(it)
		if !ok {
			return
		}
		s.update(ctx, it, items.SetPriority(next))

	case DeleteCompleted:
		for _, ch := range s.undo.DeleteCompleted(ctx, in.Kind, s.snap.Items) {
			s.watch(ch)
		}

	case Undo:
		for _, ch := range s.undo.Undo(ctx) {
			s.watch(ch)
		}

	case ChangeFilter:
		if !in.Kind.Valid() {
			return
		}
		s.filters[in.Kind] = engines.Filter{OpenOnly: in.OpenOnly}
	}
}

// find looks an id up in the latest snapshot
func (s *Session) find(id string) (items.Item, bool) {
	for _, it := range s.snap.Items {
		if it.ID == id {
			return it, true
		}
	}
	s.lastErr = fmt.Errorf("item %s: %w", id, remote.ErrNotFound)
	return items.Item{}, false
}

// update writes p to it unless p breaks the rules of the item's kind
func (s *Session) update(ctx context.Context, it items.Item, p items.Patch) {
	if err := p.Validate(it.Kind); err != nil {
		s.lastErr = err
		return
	}
	s.watch(s.store.Update(ctx, it.ID, p))
}

// watch reports a failed write back to the loop
func (s *Session) watch(ch <-chan remote.WriteResult) {
	go func() {
		r, ok := <-ch
		if !ok || r.Err == nil {
			return
		}
		s.post(func() { s.lastErr = r.Err })
	}()
}

func (s *Session) view() View {
	v := View{
		UID:           s.who.UID,
		Email:         s.who.Email,
		Loaded:        s.loaded,
		Revision:      s.snap.Revision,
		Filters:       make(map[items.Kind]engines.Filter, len(s.filters)),
		Locked:        make(map[gate.Section]bool),
		UndoAvailable: s.undo.Available(),
		Err:           s.lastErr,
	}
	for k, f := range s.filters {
		v.Filters[k] = f
	}

	all := s.snap.Items
	for _, k := range items.Kinds {
		sec := SectionFor(k)
		if !s.gate.Unlocked(sec) {
			v.Locked[sec] = true
			continue
		}
		e, _ := engines.For(k)
		f := s.filters[k]
		switch k {
		case items.KindGoal:
			v.Goals = render.Sections(e.ProjectGroups(all, f))
		case items.KindWish:
			v.Wishes = render.Rows(e.Project(all, f))
		case items.KindTodo:
			v.Todos = render.Rows(e.Project(all, f))
		case items.KindShopping:
			v.Shopping = render.Rows(e.Project(all, f))
		}
	}
	return v
}

func (s *Session) publish() {
	v := s.view()
	select {
	case <-s.views:
	default:
	}
	s.views <- v
}

// SectionFor maps a kind to the gate section that shows it
func SectionFor(k items.Kind) gate.Section {
	switch k {
	case items.KindGoal:
		return gate.SectionGoals
	case items.KindWish:
		return gate.SectionWishes
	case items.KindShopping:
		return gate.SectionShopping
	}
	return gate.SectionTodos
}

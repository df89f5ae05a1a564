package remote

import (
	"context"
	"errors"
	"log"
	"sync"
	"sync/atomic"

	"github.com/CrowderSoup/lists-app/items"
)

// Feed is one delivery from a backend's live query: the complete set of
// documents owned by the watched identity.
type Feed struct {
	Revision int64
	Items    []items.Item
	Err      error
}

// Backend is the document store the Store talks to
type Backend interface {
	// Watch starts a live query for every document owned by owner.
	// The channel is closed once ctx is cancelled or the query fails.
	Watch(ctx context.Context, owner string) (<-chan Feed, error)
	Create(ctx context.Context, it items.Item) (string, error)
	Update(ctx context.Context, id string, p items.Patch) error
	Delete(ctx context.Context, id string) error
}

// Snapshot replaces the whole item set of the current identity.
// Generation identifies the subscription that produced it.
type Snapshot struct {
	Owner      string
	Generation uint64
	Revision   int64
	Items      []items.Item
	Err        error
}

// WriteResult reports the outcome of one asynchronous write
type WriteResult struct {
	Op  Op
	ID  string
	Err error
}

// Store keeps exactly one live subscription and relays its snapshots.
// Writes go straight to the backend; their effect only shows up through
// a later snapshot.
type Store struct {
	backend Backend
	out     chan Snapshot
	gen     atomic.Uint64

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewStore creates a store over the given backend
func NewStore(backend Backend) *Store {
	return &Store{
		backend: backend,
		out:     make(chan Snapshot),
	}
}

// Snapshots is the single delivery channel for every subscription
func (s *Store) Snapshots() <-chan Snapshot {
	return s.out
}

// Generation returns the token of the most recent subscription
func (s *Store) Generation() uint64 {
	return s.gen.Load()
}

// Subscribe replaces the live subscription with one for owner and returns
// its generation. The previous subscription is cancelled and its relay has
// exited before the new one starts, so nothing from the old owner can be
// delivered afterwards. An empty owner yields one empty snapshot.
func (s *Store) Subscribe(owner string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopLocked()

	gen := s.gen.Add(1)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	s.cancel, s.done = cancel, done

	go s.relay(ctx, done, gen, owner)
	return gen
}

// Unsubscribe stops delivery. Calling it again is harmless.
func (s *Store) Unsubscribe() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

func (s *Store) stopLocked() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	s.cancel, s.done = nil, nil
}

func (s *Store) relay(ctx context.Context, done chan<- struct{}, gen uint64, owner string) {
	defer close(done)

	if owner == "" {
		s.deliver(ctx, Snapshot{Generation: gen, Items: []items.Item{}})
		return
	}

	feed, err := s.backend.Watch(ctx, owner)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		log.Printf("Error starting subscription for %s: %v", owner, err)
		s.deliver(ctx, Snapshot{Owner: owner, Generation: gen, Err: &SubscriptionError{Owner: owner, Err: err}})
		return
	}

	last := int64(-1)
	for {
		select {
		case <-ctx.Done():
			return
		case f, ok := <-feed:
			if !ok {
				return
			}
			if f.Err != nil {
				log.Printf("Subscription error for %s: %v", owner, f.Err)
				if !s.deliver(ctx, Snapshot{Owner: owner, Generation: gen, Err: &SubscriptionError{Owner: owner, Err: f.Err}}) {
					return
				}
				continue
			}
			// Never let older data overwrite what is already displayed.
			if f.Revision < last {
				continue
			}
			last = f.Revision
			snap := Snapshot{
				Owner:      owner,
				Generation: gen,
				Revision:   f.Revision,
				Items:      f.Items,
			}
			if snap.Items == nil {
				snap.Items = []items.Item{}
			}
			if !s.deliver(ctx, snap) {
				return
			}
		}
	}
}

func (s *Store) deliver(ctx context.Context, snap Snapshot) bool {
	if ctx.Err() != nil {
		return false
	}
	select {
	case s.out <- snap:
		return true
	case <-ctx.Done():
		return false
	}
}

// Create submits a new document. The result carries the assigned id.
func (s *Store) Create(ctx context.Context, it items.Item) <-chan WriteResult {
	return s.write(OpCreate, "", func() (string, error) {
		return s.backend.Create(ctx, it)
	})
}

// Update writes the patch fields of one document
func (s *Store) Update(ctx context.Context, id string, p items.Patch) <-chan WriteResult {
	return s.write(OpUpdate, id, func() (string, error) {
		return id, s.backend.Update(ctx, id, p)
	})
}

// Delete removes one document
func (s *Store) Delete(ctx context.Context, id string) <-chan WriteResult {
	return s.write(OpDelete, id, func() (string, error) {
		return id, s.backend.Delete(ctx, id)
	})
}

func (s *Store) write(op Op, id string, fn func() (string, error)) <-chan WriteResult {
	res := make(chan WriteResult, 1)
	go func() {
		defer close(res)
		gotID, err := fn()
		if gotID == "" {
			gotID = id
		}
		if err != nil {
			err = &StoreWriteError{Op: op, ID: id, Err: err}
			log.Printf("Store write failed: %v", err)
		}
		res <- WriteResult{Op: op, ID: gotID, Err: err}
	}()
	return res
}

// Pending collects the result channels of a batch of writes
type Pending []<-chan WriteResult

// Wait blocks until every write in the batch has finished
func (p Pending) Wait() []WriteResult {
	results := make([]WriteResult, 0, len(p))
	for _, ch := range p {
		if r, ok := <-ch; ok {
			results = append(results, r)
		}
	}
	return results
}

// JoinErrors combines the failures of a batch, nil when all succeeded
func JoinErrors(results []WriteResult) error {
	var errs []error
	for _, r := range results {
		if r.Err != nil {
			errs = append(errs, r.Err)
		}
	}
	return errors.Join(errs...)
}

package remote

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/CrowderSoup/lists-app/items"
)

func recvSnapshot(t *testing.T, s *Store) Snapshot {
	t.Helper()
	select {
	case snap := <-s.Snapshots():
		return snap
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for snapshot")
	}
	return Snapshot{}
}

func expectNoSnapshot(t *testing.T, s *Store, d time.Duration) {
	t.Helper()
	select {
	case snap := <-s.Snapshots():
		t.Fatalf("unexpected snapshot: %+v", snap)
	case <-time.After(d):
	}
}

func mustCreate(t *testing.T, s *Store, it items.Item) string {
	t.Helper()
	res := <-s.Create(context.Background(), it)
	if res.Err != nil {
		t.Fatalf("Create: %v", res.Err)
	}
	return res.ID
}

func TestStore_SubscribeDeliversOwnersItems(t *testing.T) {
	backend := NewMemoryBackend()
	s := NewStore(backend)
	defer s.Unsubscribe()

	mustCreate(t, s, items.Item{Owner: "alice", Kind: items.KindTodo, Text: "a1", Priority: 3})
	mustCreate(t, s, items.Item{Owner: "bob", Kind: items.KindTodo, Text: "b1", Priority: 3})

	gen := s.Subscribe("alice")
	snap := recvSnapshot(t, s)
	if snap.Generation != gen || snap.Owner != "alice" {
		t.Fatalf("unexpected snapshot header: %+v", snap)
	}
	if len(snap.Items) != 1 || snap.Items[0].Text != "a1" {
		t.Fatalf("expected only alice's item, got %+v", snap.Items)
	}

	id := mustCreate(t, s, items.Item{Owner: "alice", Kind: items.KindTodo, Text: "a2", Priority: 3})
	snap = recvSnapshot(t, s)
	if len(snap.Items) != 2 {
		t.Fatalf("expected 2 items after create, got %d", len(snap.Items))
	}
	if snap.Items[1].ID != id || snap.Items[1].Created.IsZero() {
		t.Fatalf("expected assigned id and timestamp, got %+v", snap.Items[1])
	}
}

func TestStore_IdentitySwitchDropsOldOwner(t *testing.T) {
	backend := NewMemoryBackend()
	s := NewStore(backend)
	defer s.Unsubscribe()

	mustCreate(t, s, items.Item{Owner: "alice", Kind: items.KindGoal, Text: "a"})
	mustCreate(t, s, items.Item{Owner: "bob", Kind: items.KindGoal, Text: "b"})

	s.Subscribe("alice")
	if snap := recvSnapshot(t, s); snap.Owner != "alice" {
		t.Fatalf("expected alice snapshot, got %+v", snap)
	}

	// A write for alice lands while nobody reads; the relay is blocked delivering it.
	mustCreate(t, s, items.Item{Owner: "alice", Kind: items.KindGoal, Text: "a2"})

	gen := s.Subscribe("bob")
	snap := recvSnapshot(t, s)
	if snap.Owner != "bob" || snap.Generation != gen {
		t.Fatalf("expected first snapshot after switch to be bob's, got %+v", snap)
	}
	for _, it := range snap.Items {
		if it.Owner != "bob" {
			t.Fatalf("foreign item in bob's snapshot: %+v", it)
		}
	}

	// Further writes for alice must never surface.
	mustCreate(t, s, items.Item{Owner: "alice", Kind: items.KindGoal, Text: "a3"})
	expectNoSnapshot(t, s, 100*time.Millisecond)
}

func TestStore_EmptyOwnerGetsOneEmptySnapshot(t *testing.T) {
	s := NewStore(NewMemoryBackend())
	defer s.Unsubscribe()

	gen := s.Subscribe("")
	snap := recvSnapshot(t, s)
	if snap.Owner != "" || snap.Generation != gen || len(snap.Items) != 0 || snap.Items == nil {
		t.Fatalf("expected synthetic empty snapshot, got %+v", snap)
	}
	expectNoSnapshot(t, s, 50*time.Millisecond)
}

func TestStore_UnsubscribeIsIdempotent(t *testing.T) {
	backend := NewMemoryBackend()
	s := NewStore(backend)

	s.Subscribe("alice")
	recvSnapshot(t, s)
	s.Unsubscribe()
	s.Unsubscribe()

	mustCreate(t, s, items.Item{Owner: "alice", Kind: items.KindTodo, Text: "x", Priority: 1})
	expectNoSnapshot(t, s, 50*time.Millisecond)
}

type scriptedBackend struct {
	MemoryBackend
	feed chan Feed
}

func (b *scriptedBackend) Watch(ctx context.Context, owner string) (<-chan Feed, error) {
	return b.feed, nil
}

func TestStore_DropsOlderRevisions(t *testing.T) {
	b := &scriptedBackend{feed: make(chan Feed, 4)}
	s := NewStore(b)
	defer s.Unsubscribe()

	b.feed <- Feed{Revision: 2, Items: []items.Item{{ID: "x"}}}
	b.feed <- Feed{Revision: 1}
	b.feed <- Feed{Revision: 3}
	s.Subscribe("alice")

	if snap := recvSnapshot(t, s); snap.Revision != 2 {
		t.Fatalf("expected revision 2, got %d", snap.Revision)
	}
	if snap := recvSnapshot(t, s); snap.Revision != 3 {
		t.Fatalf("expected revision 3 after stale one was dropped, got %d", snap.Revision)
	}
}

func TestStore_SubscriptionErrorIsSurfaced(t *testing.T) {
	b := &scriptedBackend{feed: make(chan Feed, 1)}
	s := NewStore(b)
	defer s.Unsubscribe()

	boom := errors.New("connection reset")
	b.feed <- Feed{Err: boom}
	s.Subscribe("alice")

	snap := recvSnapshot(t, s)
	var serr *SubscriptionError
	if !errors.As(snap.Err, &serr) || !errors.Is(snap.Err, boom) {
		t.Fatalf("expected SubscriptionError wrapping cause, got %v", snap.Err)
	}
	if snap.Items != nil {
		t.Fatalf("error snapshot must not carry items")
	}
}

func TestStore_WriteFailureIsReported(t *testing.T) {
	backend := NewMemoryBackend()
	boom := errors.New("quota exceeded")
	backend.SetWriteHook(func(op Op, id string) error {
		if op == OpDelete {
			return boom
		}
		return nil
	})
	s := NewStore(backend)

	id := mustCreate(t, s, items.Item{Owner: "alice", Kind: items.KindTodo, Text: "x", Priority: 1})

	res := <-s.Delete(context.Background(), id)
	var werr *StoreWriteError
	if !errors.As(res.Err, &werr) {
		t.Fatalf("expected StoreWriteError, got %v", res.Err)
	}
	if werr.Op != OpDelete || werr.ID != id || !errors.Is(res.Err, boom) {
		t.Fatalf("unexpected error: %+v", werr)
	}

	res = <-s.Update(context.Background(), "missing", items.SetDone(true))
	if !errors.Is(res.Err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", res.Err)
	}

	results := Pending{
		s.Update(context.Background(), id, items.SetDone(true)),
		s.Delete(context.Background(), id),
	}.Wait()
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if err := JoinErrors(results); !errors.Is(err, boom) {
		t.Fatalf("expected joined error to contain delete failure, got %v", err)
	}
}

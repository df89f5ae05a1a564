package remote

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/CrowderSoup/lists-app/items"
	"github.com/google/uuid"
)

// MemoryBackend is an in-process document store with live queries.
// It assigns ids and creation timestamps the way the server does.
type MemoryBackend struct {
	mu       sync.Mutex
	docs     map[string]items.Item
	revision int64
	watchers map[*memoryWatch]struct{}
	now      func() time.Time
	lastTS   time.Time
	hook     func(op Op, id string) error
}

type memoryWatch struct {
	owner string
	ch    chan Feed
}

// push replaces any undelivered feed; snapshots are complete so only the latest matters
func (w *memoryWatch) push(f Feed) {
	select {
	case <-w.ch:
	default:
	}
	w.ch <- f
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		docs:     make(map[string]items.Item),
		watchers: make(map[*memoryWatch]struct{}),
		now:      time.Now,
	}
}

// SetWriteHook installs a function consulted before every write.
// A non-nil return fails the write without touching any document.
func (m *MemoryBackend) SetWriteHook(hook func(op Op, id string) error) {
	m.mu.Lock()
	m.hook = hook
	m.mu.Unlock()
}

func (m *MemoryBackend) Watch(ctx context.Context, owner string) (<-chan Feed, error) {
	w := &memoryWatch{owner: owner, ch: make(chan Feed, 1)}

	m.mu.Lock()
	m.watchers[w] = struct{}{}
	w.push(m.feedLocked(owner))
	m.mu.Unlock()

	go func() {
		<-ctx.Done()
		m.mu.Lock()
		delete(m.watchers, w)
		close(w.ch)
		m.mu.Unlock()
	}()

	return w.ch, nil
}

func (m *MemoryBackend) Create(ctx context.Context, it items.Item) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.checkLocked(OpCreate, ""); err != nil {
		return "", err
	}

	it.ID = uuid.NewString()
	if it.Created.IsZero() {
		it.Created = m.stampLocked()
	}
	m.docs[it.ID] = it
	m.publishLocked(it.Owner)
	return it.ID, nil
}

func (m *MemoryBackend) Update(ctx context.Context, id string, p items.Patch) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.checkLocked(OpUpdate, id); err != nil {
		return err
	}
	it, ok := m.docs[id]
	if !ok {
		return ErrNotFound
	}
	m.docs[id] = it.Apply(p)
	m.publishLocked(it.Owner)
	return nil
}

func (m *MemoryBackend) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.checkLocked(OpDelete, id); err != nil {
		return err
	}
	it, ok := m.docs[id]
	if !ok {
		return ErrNotFound
	}
	delete(m.docs, id)
	m.publishLocked(it.Owner)
	return nil
}

// Items returns the documents of one owner ordered by creation
func (m *MemoryBackend) Items(owner string) []items.Item {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.itemsLocked(owner)
}

func (m *MemoryBackend) checkLocked(op Op, id string) error {
	if m.hook == nil {
		return nil
	}
	return m.hook(op, id)
}

// stampLocked hands out strictly increasing timestamps
func (m *MemoryBackend) stampLocked() time.Time {
	ts := m.now()
	if !ts.After(m.lastTS) {
		ts = m.lastTS.Add(time.Microsecond)
	}
	m.lastTS = ts
	return ts
}

func (m *MemoryBackend) itemsLocked(owner string) []items.Item {
	out := make([]items.Item, 0)
	for _, it := range m.docs {
		if it.Owner == owner {
			out = append(out, it)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Created.Equal(out[j].Created) {
			return out[i].Created.Before(out[j].Created)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (m *MemoryBackend) feedLocked(owner string) Feed {
	return Feed{Revision: m.revision, Items: m.itemsLocked(owner)}
}

func (m *MemoryBackend) publishLocked(owner string) {
	m.revision++
	for w := range m.watchers {
		if w.owner == owner {
			w.push(m.feedLocked(owner))
		}
	}
}

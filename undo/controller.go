// Package undo implements "delete completed" with a short window in which
// the whole batch can be brought back.
package undo

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/CrowderSoup/lists-app/items"
	"github.com/CrowderSoup/lists-app/remote"
)

// DefaultTimeout is how long a deleted batch can be restored
const DefaultTimeout = 5 * time.Second

// Writer is the part of the remote store the controller writes through
type Writer interface {
	Create(ctx context.Context, it items.Item) <-chan remote.WriteResult
	Delete(ctx context.Context, id string) <-chan remote.WriteResult
}

// Scheduler runs f once after d and returns a function that cancels it.
// The default wraps time.AfterFunc.
type Scheduler func(d time.Duration, f func()) (cancel func())

// State of the controller
type State int

const (
	Idle State = iota
	PendingUndo
)

func (s State) String() string {
	if s == PendingUndo {
		return "pending-undo"
	}
	return "idle"
}

type Option func(*Controller)

// WithTimeout changes the undo window
func WithTimeout(d time.Duration) Option {
	return func(c *Controller) { c.timeout = d }
}

// WithScheduler replaces the timer source
func WithScheduler(s Scheduler) Option {
	return func(c *Controller) { c.schedule = s }
}

// WithExpiryHook is called (outside the controller's lock) when a batch expires
func WithExpiryHook(f func()) Option {
	return func(c *Controller) { c.onExpire = f }
}

// Controller holds at most one restorable batch. A new deletion replaces
// the previous batch rather than stacking on top of it.
type Controller struct {
	w        Writer
	timeout  time.Duration
	schedule Scheduler
	onExpire func()

	mu     sync.Mutex
	state  State
	batch  []items.Item
	gen    uint64
	cancel func()
}

func NewController(w Writer, opts ...Option) *Controller {
	c := &Controller{
		w:        w,
		timeout:  DefaultTimeout,
		schedule: afterFunc,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func afterFunc(d time.Duration, f func()) func() {
	t := time.AfterFunc(d, f)
	return func() { t.Stop() }
}

// State returns the current state
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Available reports whether Undo would restore anything
func (c *Controller) Available() bool {
	return c.State() == PendingUndo
}

// Batch returns a copy of the items held for restoring
func (c *Controller) Batch() []items.Item {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]items.Item(nil), c.batch...)
}

// DeleteCompleted deletes every done item of kind found in current and
// holds them for restoring. With nothing done it does nothing at all.
// Individual delete failures do not stop the rest of the batch.
func (c *Controller) DeleteCompleted(ctx context.Context, kind items.Kind, current []items.Item) remote.Pending {
	var batch []items.Item
	for _, it := range current {
		if it.Kind == kind && it.Done {
			batch = append(batch, it)
		}
	}
	if len(batch) == 0 {
		return nil
	}

	c.mu.Lock()
	c.stopTimerLocked()
	c.gen++
	gen := c.gen
	c.state = PendingUndo
	c.batch = batch
	c.cancel = c.schedule(c.timeout, func() { c.expire(gen) })
	c.mu.Unlock()

	log.Printf("Deleting %d completed %s items", len(batch), kind)

	pending := make(remote.Pending, 0, len(batch))
	for _, it := range batch {
		pending = append(pending, c.w.Delete(ctx, it.ID))
	}
	return pending
}

// Undo re-creates the held batch with new identifiers and every other field
// unchanged. Outside PendingUndo it is a no-op.
func (c *Controller) Undo(ctx context.Context) remote.Pending {
	c.mu.Lock()
	if c.state != PendingUndo {
		c.mu.Unlock()
		return nil
	}
	batch := c.batch
	c.clearLocked()
	c.mu.Unlock()

	log.Printf("Restoring %d deleted items", len(batch))

	pending := make(remote.Pending, 0, len(batch))
	for _, it := range batch {
		pending = append(pending, c.w.Create(ctx, it.Restore()))
	}
	return pending
}

// Reset drops any held batch without writing anything
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clearLocked()
}

func (c *Controller) expire(gen uint64) {
	c.mu.Lock()
	// A timer from an earlier batch must not clear the current one.
	if gen != c.gen || c.state != PendingUndo {
		c.mu.Unlock()
		return
	}
	c.batch = nil
	c.state = Idle
	c.cancel = nil
	hook := c.onExpire
	c.mu.Unlock()

	if hook != nil {
		hook()
	}
}

func (c *Controller) clearLocked() {
	c.stopTimerLocked()
	c.gen++
	c.batch = nil
	c.state = Idle
}

func (c *Controller) stopTimerLocked() {
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

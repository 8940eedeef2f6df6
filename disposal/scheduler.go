package disposal

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/wippyai/handlekit"
	"github.com/wippyai/handlekit/errors"
	"github.com/wippyai/handlekit/lifecycle"
)

// Disposable is an entry the scheduler can retry.
type Disposable interface {
	// TryDispose attempts disposal now. It must be idempotent: the same
	// entry may be queued several times.
	TryDispose()
}

// EventType identifies a scheduler event.
type EventType int

const (
	EventEnqueued EventType = iota
	EventDrained
	EventDropped
)

func (t EventType) String() string {
	switch t {
	case EventEnqueued:
		return "enqueued"
	case EventDrained:
		return "drained"
	case EventDropped:
		return "dropped"
	default:
		return fmt.Sprintf("EventType(%d)", int(t))
	}
}

// Event describes a queue change. Count is the number of entries affected.
type Event struct {
	Type    EventType
	Count   int
	Pending int
}

// Observer receives scheduler events. Observers run synchronously and must
// not call back into the scheduler.
type Observer func(Event)

// Stats is a snapshot of scheduler counters.
type Stats struct {
	Enqueued uint64
	Drained  uint64
	Drains   uint64
	Dropped  uint64
	Panics   uint64
	Pending  int
}

// Scheduler holds disposals deferred while the subsystem is detached.
type Scheduler struct {
	sub       handlekit.Subsystem
	unbind    func()
	observers map[uint64]Observer
	queue     []Disposable
	stats     Stats
	maxBatch  int
	nextObs   uint64
	wake      atomic.Bool
	mu        sync.Mutex
	drainMu   sync.Mutex
	closed    bool
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithMaxBatch limits how many entries a single Drain call retries. Zero
// means no limit. Close and the drains run by Bind always drain everything.
func WithMaxBatch(n int) Option {
	return func(s *Scheduler) { s.maxBatch = n }
}

// NewScheduler creates a scheduler for sub. A nil sub is always installed.
func NewScheduler(sub handlekit.Subsystem, opts ...Option) *Scheduler {
	s := &Scheduler{
		sub:       sub,
		observers: make(map[uint64]Observer),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Installed reports whether the subsystem is installed.
func (s *Scheduler) Installed() bool {
	return s.sub == nil || s.sub.Installed()
}

// Enqueue defers d until the next drain. After Close the entry is dropped
// and logged.
func (s *Scheduler) Enqueue(d Disposable) {
	s.mu.Lock()
	if s.closed {
		s.stats.Dropped++
		s.mu.Unlock()
		Logger().Warn("disposal dropped: scheduler closed")
		s.notify(Event{Type: EventDropped, Count: 1})
		return
	}
	s.queue = append(s.queue, d)
	s.stats.Enqueued++
	pending := len(s.queue)
	bound := s.unbind != nil
	s.mu.Unlock()

	s.notify(Event{Type: EventEnqueued, Count: 1, Pending: pending})

	// The install drain may have run between the caller's installed check
	// and this append.
	if bound {
		s.wake.Store(true)
		s.kick()
	}
}

// Pending returns the number of queued entries.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// Drain retries queued entries if the subsystem is installed and returns
// how many were retried.
func (s *Scheduler) Drain() int {
	return s.drain(context.Background(), s.maxBatch)
}

func (s *Scheduler) drain(ctx context.Context, limit int) int {
	s.drainMu.Lock()
	n := s.drainLocked(ctx, limit)
	s.drainMu.Unlock()

	s.kick()
	return n
}

// kick drains entries enqueued on a bound scheduler while it is installed.
// If another drain holds drainMu, that drain calls kick after unlocking and
// sees wake.
func (s *Scheduler) kick() {
	for s.wake.Load() && s.bound() && s.Installed() {
		if !s.drainMu.TryLock() {
			return
		}
		s.wake.Store(false)
		s.drainLocked(context.Background(), 0)
		s.drainMu.Unlock()
	}
}

func (s *Scheduler) bound() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unbind != nil
}

// drainLocked runs one pass over a snapshot of the queue. drainMu must be
// held.
func (s *Scheduler) drainLocked(ctx context.Context, limit int) int {
	if !s.Installed() {
		return 0
	}

	s.mu.Lock()
	n := len(s.queue)
	if limit > 0 && n > limit {
		n = limit
	}
	batch := make([]Disposable, n)
	copy(batch, s.queue[:n])
	s.queue = append(s.queue[:0:0], s.queue[n:]...)
	s.stats.Drains++
	s.mu.Unlock()

	done := 0
	for i, d := range batch {
		if ctx.Err() != nil {
			s.requeue(batch[i:])
			break
		}
		s.retry(d)
		done++
	}

	s.mu.Lock()
	s.stats.Drained += uint64(done)
	pending := len(s.queue)
	s.mu.Unlock()

	if done > 0 {
		Logger().Debug("pending disposals drained",
			zap.Int("count", done),
			zap.Int("pending", pending))
		s.notify(Event{Type: EventDrained, Count: done, Pending: pending})
	}
	return done
}

func (s *Scheduler) retry(d Disposable) {
	defer func() {
		if r := recover(); r != nil {
			s.mu.Lock()
			s.stats.Panics++
			s.mu.Unlock()
			Logger().Error("pending disposal panicked", zap.Any("panic", r))
		}
	}()
	d.TryDispose()
}

func (s *Scheduler) requeue(ds []Disposable) {
	s.mu.Lock()
	s.queue = append(append([]Disposable(nil), ds...), s.queue...)
	s.mu.Unlock()
}

const maxClosePasses = 16

// Notifier is a lifecycle that reports state transitions.
type Notifier interface {
	handlekit.Subsystem
	OnChange(handler lifecycle.Handler) func()
}

// Bind drains the whole queue whenever lc transitions to installed, and once
// immediately if it is installed now. WithMaxBatch does not apply to these
// drains. While bound, an entry enqueued when the subsystem is already
// installed is drained right away. Binding again replaces the previous
// binding.
func (s *Scheduler) Bind(lc Notifier) {
	remove := lc.OnChange(func(state lifecycle.State) {
		if state == lifecycle.StateInstalled {
			s.drain(context.Background(), 0)
		}
	})

	s.mu.Lock()
	prev := s.unbind
	s.unbind = remove
	s.mu.Unlock()

	if prev != nil {
		prev()
	}
	if lc.Installed() {
		s.drain(context.Background(), 0)
	}
}

// Unbind removes the binding installed by Bind. Queued entries stay queued
// until Drain or Close.
func (s *Scheduler) Unbind() {
	s.mu.Lock()
	unbind := s.unbind
	s.unbind = nil
	s.mu.Unlock()

	if unbind != nil {
		unbind()
	}
}

// Subscribe registers an observer. Returns a function that removes it.
func (s *Scheduler) Subscribe(fn Observer) func() {
	s.mu.Lock()
	id := s.nextObs
	s.nextObs++
	s.observers[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.observers, id)
		s.mu.Unlock()
	}
}

func (s *Scheduler) notify(ev Event) {
	s.mu.Lock()
	if len(s.observers) == 0 {
		s.mu.Unlock()
		return
	}
	obs := make([]Observer, 0, len(s.observers))
	for _, o := range s.observers {
		obs = append(obs, o)
	}
	s.mu.Unlock()

	for _, o := range obs {
		o(ev)
	}
}

// Stats returns a snapshot of the scheduler counters.
func (s *Scheduler) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.stats
	st.Pending = len(s.queue)
	return st
}

// Close unbinds the lifecycle and drains the queue if the subsystem is
// installed. Entries that cannot be retried are abandoned and reported with
// an errors.Leaked error. Close is idempotent.
func (s *Scheduler) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	s.Unbind()

	// Entries retried during a drain may enqueue again if the subsystem
	// detaches mid-drain; stop once a pass makes no progress.
	for pass := 0; pass < maxClosePasses && s.Pending() > 0 && ctx.Err() == nil; pass++ {
		if s.drain(ctx, 0) == 0 {
			break
		}
	}

	s.mu.Lock()
	s.closed = true
	leaked := len(s.queue)
	s.queue = nil
	s.stats.Dropped += uint64(leaked)
	s.mu.Unlock()

	if leaked > 0 {
		Logger().Warn("pending disposals abandoned", zap.Int("count", leaked))
		s.notify(Event{Type: EventDropped, Count: leaked})
		return errors.Leaked(leaked)
	}
	return nil
}

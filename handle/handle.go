package handle

import (
	"context"
	"runtime"
	"sync"

	"go.uber.org/zap"

	"github.com/wippyai/handlekit"
	"github.com/wippyai/handlekit/disposal"
)

// state is everything a release needs. The runtime cleanup holds a pointer
// to it, so it must never reference the Handle.
type state struct {
	releaser handlekit.Releaser
	base     handlekit.Disposer
	sched    *disposal.Scheduler
	name     string
	mu       sync.Mutex
	id       handlekit.ID
	owns     bool
}

// Handle owns or borrows a native identifier.
type Handle struct {
	st      *state
	cleanup runtime.Cleanup
}

// Option configures a Handle.
type Option func(*options)

type options struct {
	sched *disposal.Scheduler
	base  handlekit.Disposer
	name  string
}

// WithScheduler defers release through s while its subsystem is detached.
// Without a scheduler the subsystem is treated as always installed.
func WithScheduler(s *disposal.Scheduler) Option {
	return func(o *options) { o.sched = s }
}

// WithBase sets the next layer down, disposed after this handle's own
// identifier is released. The base is kept reachable until then, so its
// own cleanup cannot run before this handle's.
func WithBase(base handlekit.Disposer) Option {
	return func(o *options) { o.base = base }
}

// WithName sets a label used in log entries.
func WithName(name string) Option {
	return func(o *options) { o.name = name }
}

// New wraps id, which must have been returned by the native layer. When owns
// is true the handle releases id through r exactly once.
func New(r handlekit.Releaser, id handlekit.ID, owns bool, opts ...Option) *Handle {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	st := &state{
		releaser: r,
		base:     o.base,
		sched:    o.sched,
		name:     o.name,
		id:       id,
		owns:     owns,
	}
	h := &Handle{st: st}
	h.cleanup = runtime.AddCleanup(h, cleanupState, st)
	return h
}

// ID returns the identifier, or handlekit.Null once disposed.
func (h *Handle) ID() handlekit.ID {
	h.st.mu.Lock()
	defer h.st.mu.Unlock()
	return h.st.id
}

// Owns reports whether the handle still has to release its identifier.
func (h *Handle) Owns() bool {
	h.st.mu.Lock()
	defer h.st.mu.Unlock()
	return h.st.owns
}

// Disposed reports whether the identifier has been reset to Null.
func (h *Handle) Disposed() bool {
	return h.ID() == handlekit.Null
}

// Name returns the log label.
func (h *Handle) Name() string {
	return h.st.name
}

// Base returns the next layer down, if any.
func (h *Handle) Base() handlekit.Disposer {
	return h.st.base
}

// Scheduler returns the scheduler passed with WithScheduler, or nil.
func (h *Handle) Scheduler() *disposal.Scheduler {
	return h.st.sched
}

// Dispose releases the identifier if owned, or queues the handle on its
// scheduler while the subsystem is detached. Safe to call repeatedly and
// concurrently. Disposal never fails; release errors are logged.
func (h *Handle) Dispose() {
	if !h.st.installed() {
		h.st.sched.Enqueue(h)
		return
	}

	h.st.release()
	h.cleanup.Stop()
	h.st.disposeBase()
}

// TryDispose is the scheduler retry entry point.
func (h *Handle) TryDispose() {
	h.Dispose()
}

// Use calls fn with the live identifier while holding the handle lock, so
// a concurrent Dispose cannot release it mid-call. It returns ErrDisposed
// when the handle has been disposed. fn must not call back into h.
func (h *Handle) Use(fn func(id handlekit.ID) error) error {
	h.st.mu.Lock()
	defer h.st.mu.Unlock()

	if h.st.id == handlekit.Null {
		return disposedError(h.st.name)
	}
	return fn(h.st.id)
}

func (st *state) installed() bool {
	return st.sched == nil || st.sched.Installed()
}

func (st *state) release() {
	st.mu.Lock()
	defer st.mu.Unlock()

	if st.id == handlekit.Null {
		return
	}

	if st.owns {
		st.owns = false
		if err := st.releaser.Release(context.Background(), st.id); err != nil {
			Logger().Error("native release failed",
				zap.String("name", st.name),
				zap.Uint64("id", uint64(st.id)),
				zap.Error(err))
		}
	}

	st.id = handlekit.Null
}

func (st *state) disposeBase() {
	if st.base != nil {
		st.base.Dispose()
	}
}

// TryDispose lets the cleanup path queue the inner state once the Handle
// itself is gone. The base goes after this layer, as with Dispose.
func (st *state) TryDispose() {
	if !st.installed() {
		st.sched.Enqueue(st)
		return
	}
	st.release()
	st.disposeBase()
}

func cleanupState(st *state) {
	defer func() {
		if r := recover(); r != nil {
			Logger().Error("handle cleanup panicked",
				zap.String("name", st.name),
				zap.Any("panic", r))
		}
	}()

	Logger().Debug("handle reclaimed without Dispose", zap.String("name", st.name))
	st.TryDispose()
}

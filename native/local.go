package native

import (
	"context"
	"sync"

	"github.com/wippyai/handlekit"
	"github.com/wippyai/handlekit/errors"
)

// Dropper is optionally implemented by values stored in Local that need
// cleanup when their identifier is released.
type Dropper interface {
	Drop()
}

// Stats is a snapshot of Local's counters.
type Stats struct {
	Created         uint64
	Released        uint64
	DoubleReleases  uint64
	InvalidReleases uint64
	Live            int
}

// Local is an in-memory native library with a handle table and free list.
// Implements handlekit.Library.
type Local struct {
	failures map[string]Status
	entries  []entry
	freeList []handlekit.ID
	stats    Stats
	limit    int
	mu       sync.Mutex
	noReuse  bool
	closed   bool
}

type entry struct {
	value any
	valid bool
	// released marks a slot that was issued and released; used to tell a
	// double release from an identifier that was never issued.
	released bool
}

type liveEntry struct {
	value any
	id    handlekit.ID
}

// Option configures a Local library.
type Option func(*Local)

// WithoutReuse disables identifier reuse, so every Create returns a fresh
// identifier and stale releases are always detected.
func WithoutReuse() Option {
	return func(l *Local) { l.noReuse = true }
}

// WithLimit caps the number of identifiers the library can issue.
func WithLimit(n int) Option {
	return func(l *Local) { l.limit = n }
}

// NewLocal creates a new in-memory library.
func NewLocal(opts ...Option) *Local {
	l := &Local{
		entries:  make([]entry, 0, 64),
		freeList: make([]handlekit.ID, 0, 16),
		failures: make(map[string]Status),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Create allocates an empty native instance.
func (l *Local) Create(ctx context.Context) (handlekit.ID, error) {
	return l.CreateValue(ctx, nil)
}

// CreateValue allocates a native instance holding value.
func (l *Local) CreateValue(_ context.Context, value any) (handlekit.ID, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return handlekit.Null, errors.Closed(errors.PhaseCreate, "native library")
	}
	if st, ok := l.takeFailure("create"); ok {
		return handlekit.Null, errors.New(errors.PhaseCreate, errors.KindNativeFailure).
			Op("create").Code(st.Code).Detail("%s", st.Message).Build()
	}

	e := entry{value: value, valid: true}

	if !l.noReuse && len(l.freeList) > 0 {
		id := l.freeList[len(l.freeList)-1]
		l.freeList = l.freeList[:len(l.freeList)-1]
		l.entries[id-1] = e
		l.stats.Created++
		return id, nil
	}

	if l.limit > 0 && len(l.entries) >= l.limit {
		return handlekit.Null, errors.Exhausted(l.limit)
	}

	l.entries = append(l.entries, e)
	l.stats.Created++
	return handlekit.ID(len(l.entries)), nil
}

// Value retrieves the value stored for id.
func (l *Local) Value(id handlekit.ID) (any, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.lookup(id)
	if !ok {
		return nil, false
	}
	return e.value, true
}

// Update replaces the value stored for id.
func (l *Local) Update(id handlekit.ID, value any) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.lookup(id)
	if !ok {
		return false
	}
	e.value = value
	return true
}

// Live reports whether id is currently issued.
func (l *Local) Live(id handlekit.ID) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	_, ok := l.lookup(id)
	return ok
}

// Release frees id. Releasing an identifier that is not live returns an
// error and is counted; it never corrupts the table.
func (l *Local) Release(_ context.Context, id handlekit.ID) error {
	l.mu.Lock()

	if l.closed {
		l.mu.Unlock()
		return errors.Closed(errors.PhaseRelease, "native library")
	}
	if st, ok := l.takeFailure("release"); ok {
		l.mu.Unlock()
		return errors.New(errors.PhaseRelease, errors.KindNativeFailure).
			Op("release").ID(uint64(id)).Code(st.Code).Detail("%s", st.Message).Build()
	}

	if id == handlekit.Null || int(id) > len(l.entries) {
		l.stats.InvalidReleases++
		l.mu.Unlock()
		return errors.InvalidHandle(errors.PhaseRelease, uint64(id))
	}

	e := &l.entries[id-1]
	if !e.valid {
		if e.released {
			l.stats.DoubleReleases++
		} else {
			l.stats.InvalidReleases++
		}
		l.mu.Unlock()
		return errors.DoubleRelease(uint64(id))
	}

	value := e.value
	e.valid = false
	e.released = true
	e.value = nil
	l.freeList = append(l.freeList, id)
	l.stats.Released++
	l.mu.Unlock()

	// Drop outside the lock so values may call back into the library.
	if d, ok := value.(Dropper); ok {
		d.Drop()
	}
	return nil
}

// FailNext makes the next call of op ("create", "release", or any operation
// name a simulator checks with Inject) fail with code and msg.
func (l *Local) FailNext(op string, code int32, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.failures[op] = Status{Code: code, Message: msg}
}

// Inject applies a failure queued with FailNext for op to st.
// It reports whether a failure was injected.
func (l *Local) Inject(op string, st *Status) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, ok := l.takeFailure(op)
	if ok {
		st.Fail(f.Code, f.Message)
	}
	return ok
}

// Stats returns a snapshot of the library counters.
func (l *Local) Stats() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()

	s := l.stats
	s.Live = l.liveCount()
	return s
}

// Len returns the number of live identifiers.
func (l *Local) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.liveCount()
}

// Each iterates over live identifiers until fn returns false.
func (l *Local) Each(fn func(handlekit.ID, any) bool) {
	l.mu.Lock()
	live := make([]liveEntry, 0, len(l.entries))
	for i, e := range l.entries {
		if e.valid {
			live = append(live, liveEntry{value: e.value, id: handlekit.ID(i + 1)})
		}
	}
	l.mu.Unlock()

	for _, e := range live {
		if !fn(e.id, e.value) {
			return
		}
	}
}

// Close releases every live identifier and stops accepting operations.
func (l *Local) Close() error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil
	}
	l.closed = true

	var droppers []Dropper
	for i := range l.entries {
		if l.entries[i].valid {
			if d, ok := l.entries[i].value.(Dropper); ok {
				droppers = append(droppers, d)
			}
			l.entries[i].valid = false
			l.entries[i].value = nil
		}
	}
	l.entries = nil
	l.freeList = nil
	l.mu.Unlock()

	for _, d := range droppers {
		d.Drop()
	}
	return nil
}

func (l *Local) lookup(id handlekit.ID) (*entry, bool) {
	if id == handlekit.Null || int(id) > len(l.entries) {
		return nil, false
	}
	e := &l.entries[id-1]
	if !e.valid {
		return nil, false
	}
	return e, true
}

func (l *Local) liveCount() int {
	count := 0
	for _, e := range l.entries {
		if e.valid {
			count++
		}
	}
	return count
}

func (l *Local) takeFailure(op string) (Status, bool) {
	st, ok := l.failures[op]
	if ok {
		delete(l.failures, op)
	}
	return st, ok
}

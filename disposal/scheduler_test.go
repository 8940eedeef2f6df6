package disposal

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	hkerrors "github.com/wippyai/handlekit/errors"
	"github.com/wippyai/handlekit/lifecycle"
)

type fakeDisposable struct {
	onTry func()
	tries atomic.Int32
}

func (f *fakeDisposable) TryDispose() {
	f.tries.Add(1)
	if f.onTry != nil {
		f.onTry()
	}
}

func TestScheduler_NilSubsystemInstalled(t *testing.T) {
	s := NewScheduler(nil)
	assert.True(t, s.Installed())
}

func TestScheduler_DrainRequiresInstalled(t *testing.T) {
	lc := lifecycle.New(lifecycle.WithState(lifecycle.StateDetached))
	s := NewScheduler(lc)

	d := &fakeDisposable{}
	s.Enqueue(d)
	s.Enqueue(d)

	assert.Zero(t, s.Drain())
	assert.Equal(t, 2, s.Pending())

	lc.Install()
	assert.Equal(t, 2, s.Drain())
	assert.Equal(t, int32(2), d.tries.Load())
	assert.Zero(t, s.Pending())

	st := s.Stats()
	assert.Equal(t, uint64(2), st.Enqueued)
	assert.Equal(t, uint64(2), st.Drained)
	assert.Equal(t, uint64(1), st.Drains)
}

func TestScheduler_ConcurrentEnqueue(t *testing.T) {
	lc := lifecycle.New(lifecycle.WithState(lifecycle.StateDetached))
	s := NewScheduler(lc)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Enqueue(&fakeDisposable{})
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, s.Pending())
}

func TestScheduler_EnqueueDuringDrainWaits(t *testing.T) {
	s := NewScheduler(nil)

	late := &fakeDisposable{}
	first := &fakeDisposable{}
	first.onTry = func() { s.Enqueue(late) }
	s.Enqueue(first)

	assert.Equal(t, 1, s.Drain())
	assert.Zero(t, late.tries.Load())
	assert.Equal(t, 1, s.Pending())

	assert.Equal(t, 1, s.Drain())
	assert.Equal(t, int32(1), late.tries.Load())
}

func TestScheduler_SerializedDrain(t *testing.T) {
	s := NewScheduler(nil)

	var running, maxRunning atomic.Int32
	for i := 0; i < 20; i++ {
		d := &fakeDisposable{}
		d.onTry = func() {
			n := running.Add(1)
			for {
				m := maxRunning.Load()
				if n <= m || maxRunning.CompareAndSwap(m, n) {
					break
				}
			}
			running.Add(-1)
		}
		s.Enqueue(d)
	}

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Drain()
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxRunning.Load())
	assert.Equal(t, uint64(20), s.Stats().Drained)
}

func TestScheduler_MaxBatch(t *testing.T) {
	s := NewScheduler(nil, WithMaxBatch(2))
	for i := 0; i < 5; i++ {
		s.Enqueue(&fakeDisposable{})
	}

	assert.Equal(t, 2, s.Drain())
	assert.Equal(t, 3, s.Pending())
	require.NoError(t, s.Close(context.Background()))
	assert.Equal(t, uint64(5), s.Stats().Drained)
}

func TestScheduler_PanicRecovered(t *testing.T) {
	s := NewScheduler(nil)

	bad := &fakeDisposable{onTry: func() { panic("native crash") }}
	good := &fakeDisposable{}
	s.Enqueue(bad)
	s.Enqueue(good)

	assert.NotPanics(t, func() { s.Drain() })
	assert.Equal(t, int32(1), good.tries.Load())
	assert.Equal(t, uint64(1), s.Stats().Panics)
}

func TestScheduler_BindDrainsOnInstall(t *testing.T) {
	lc := lifecycle.New(lifecycle.WithState(lifecycle.StateDetached))
	s := NewScheduler(lc)
	s.Bind(lc)

	d := &fakeDisposable{}
	s.Enqueue(d)
	assert.Zero(t, d.tries.Load())

	lc.Install()
	assert.Equal(t, int32(1), d.tries.Load())

	lc.Detach()
	s.Enqueue(d)
	lc.Install()
	assert.Equal(t, int32(2), d.tries.Load())
}

func TestScheduler_BindInstalledDrainsImmediately(t *testing.T) {
	lc := lifecycle.New(lifecycle.WithState(lifecycle.StateDetached))
	s := NewScheduler(lc)

	d := &fakeDisposable{}
	s.Enqueue(d)
	lc.Install()
	assert.Zero(t, d.tries.Load())

	s.Bind(lc)
	assert.Equal(t, int32(1), d.tries.Load())
}

func TestScheduler_Observers(t *testing.T) {
	s := NewScheduler(nil)

	var events []Event
	remove := s.Subscribe(func(ev Event) { events = append(events, ev) })

	s.Enqueue(&fakeDisposable{})
	s.Enqueue(&fakeDisposable{})
	s.Drain()
	remove()
	s.Enqueue(&fakeDisposable{})

	require.Len(t, events, 3)
	assert.Equal(t, Event{Type: EventEnqueued, Count: 1, Pending: 1}, events[0])
	assert.Equal(t, Event{Type: EventEnqueued, Count: 1, Pending: 2}, events[1])
	assert.Equal(t, Event{Type: EventDrained, Count: 2, Pending: 0}, events[2])
	assert.Equal(t, "drained", events[2].Type.String())
}

func TestScheduler_CloseInstalledDrains(t *testing.T) {
	lc := lifecycle.New()
	s := NewScheduler(lc)
	s.Bind(lc)

	lc.Detach()
	d := &fakeDisposable{}
	s.Enqueue(d)
	lc.Install()
	lc.Detach()
	s.Enqueue(d)

	lc.Install()
	require.NoError(t, s.Close(context.Background()))
	assert.Equal(t, int32(2), d.tries.Load())
	require.NoError(t, s.Close(context.Background()))
}

func TestScheduler_CloseDetachedLeaks(t *testing.T) {
	lc := lifecycle.New(lifecycle.WithState(lifecycle.StateDetached))
	s := NewScheduler(lc)
	s.Bind(lc)

	d := &fakeDisposable{}
	s.Enqueue(d)
	s.Enqueue(d)

	err := s.Close(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, &hkerrors.Error{Phase: hkerrors.PhaseDrain, Kind: hkerrors.KindLeaked}))
	assert.Contains(t, err.Error(), "2 pending")
	assert.Zero(t, d.tries.Load())

	// Unbound: installing later does not retry abandoned entries.
	lc.Install()
	assert.Zero(t, d.tries.Load())

	s.Enqueue(d)
	assert.Zero(t, s.Pending())
	assert.Equal(t, uint64(3), s.Stats().Dropped)
}

func TestScheduler_CloseCanceled(t *testing.T) {
	s := NewScheduler(nil)
	s.Enqueue(&fakeDisposable{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.Close(ctx)
	assert.True(t, errors.Is(err, &hkerrors.Error{Phase: hkerrors.PhaseDrain, Kind: hkerrors.KindLeaked}))
}

func TestScheduler_BindDrainIgnoresMaxBatch(t *testing.T) {
	lc := lifecycle.New(lifecycle.WithState(lifecycle.StateDetached))
	s := NewScheduler(lc, WithMaxBatch(2))
	s.Bind(lc)

	ds := make([]*fakeDisposable, 5)
	for i := range ds {
		ds[i] = &fakeDisposable{}
		s.Enqueue(ds[i])
	}

	lc.Install()
	assert.Zero(t, s.Pending())
	for _, d := range ds {
		assert.Equal(t, int32(1), d.tries.Load())
	}

	// manual drains still honor the limit
	lc.Detach()
	for i := 0; i < 3; i++ {
		s.Enqueue(&fakeDisposable{})
	}
	s.Unbind()
	lc.Install()
	assert.Equal(t, 2, s.Drain())
	assert.Equal(t, 1, s.Pending())
}

// installingSubsystem reports detached once, installing lc just before it
// answers, the way a lifecycle can flip between a caller's check and its
// Enqueue.
type installingSubsystem struct {
	lc    *lifecycle.Lifecycle
	armed atomic.Bool
}

func (s *installingSubsystem) Installed() bool {
	if s.armed.CompareAndSwap(true, false) {
		s.lc.Install()
		return false
	}
	return s.lc.Installed()
}

func TestScheduler_EnqueueAfterInstallDrains(t *testing.T) {
	lc := lifecycle.New(lifecycle.WithState(lifecycle.StateDetached))
	sub := &installingSubsystem{lc: lc}
	s := NewScheduler(sub)
	s.Bind(lc)

	sub.armed.Store(true)
	d := &fakeDisposable{}
	if !s.Installed() {
		s.Enqueue(d)
	}

	assert.True(t, s.Installed())
	assert.Zero(t, s.Pending())
	assert.Equal(t, int32(1), d.tries.Load())
}

func TestScheduler_EnqueueDuringBoundDrain(t *testing.T) {
	lc := lifecycle.New(lifecycle.WithState(lifecycle.StateDetached))
	s := NewScheduler(lc)
	s.Bind(lc)

	late := &fakeDisposable{}
	first := &fakeDisposable{}
	first.onTry = func() { s.Enqueue(late) }
	s.Enqueue(first)

	lc.Install()
	assert.Equal(t, int32(1), first.tries.Load())
	assert.Equal(t, int32(1), late.tries.Load())
	assert.Zero(t, s.Pending())
}

func TestScheduler_UnboundEnqueueWaitsForDrain(t *testing.T) {
	s := NewScheduler(nil)
	d := &fakeDisposable{}
	s.Enqueue(d)

	assert.Equal(t, 1, s.Pending())
	assert.Zero(t, d.tries.Load())
}

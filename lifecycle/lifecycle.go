// Package lifecycle tracks whether the subsystem able to release native
// resources is installed.
package lifecycle

import "sync"

// State is the subsystem lifecycle state.
type State string

const (
	// StateInstalled indicates native release calls may be issued.
	StateInstalled State = "installed"

	// StateDetached indicates the subsystem is torn down; releases must wait.
	StateDetached State = "detached"
)

// Handler is called when the lifecycle state changes.
type Handler func(state State)

// Lifecycle holds the current subsystem state and notifies handlers on
// transitions. Implements handlekit.Subsystem.
type Lifecycle struct {
	handlers map[uint64]Handler
	state    State
	nextID   uint64
	mu       sync.RWMutex
}

// Option configures a Lifecycle.
type Option func(*Lifecycle)

// WithState sets the initial state. The default is StateInstalled.
func WithState(s State) Option {
	return func(l *Lifecycle) { l.state = s }
}

// New creates a lifecycle.
func New(opts ...Option) *Lifecycle {
	l := &Lifecycle{
		state:    StateInstalled,
		handlers: make(map[uint64]Handler),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// State returns the current state.
func (l *Lifecycle) State() State {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state
}

// Installed reports whether the subsystem is installed.
func (l *Lifecycle) Installed() bool {
	return l.State() == StateInstalled
}

// Install marks the subsystem installed and notifies handlers.
func (l *Lifecycle) Install() {
	l.update(StateInstalled)
}

// Detach marks the subsystem torn down and notifies handlers.
func (l *Lifecycle) Detach() {
	l.update(StateDetached)
}

// OnChange registers a handler called after every state transition.
// Returns a function that removes the handler.
func (l *Lifecycle) OnChange(handler Handler) func() {
	l.mu.Lock()
	id := l.nextID
	l.nextID++
	l.handlers[id] = handler
	l.mu.Unlock()

	return func() {
		l.mu.Lock()
		delete(l.handlers, id)
		l.mu.Unlock()
	}
}

func (l *Lifecycle) update(newState State) {
	l.mu.Lock()
	if l.state == newState {
		l.mu.Unlock()
		return
	}
	l.state = newState
	handlers := make([]Handler, 0, len(l.handlers))
	for _, h := range l.handlers {
		handlers = append(handlers, h)
	}
	l.mu.Unlock()

	// Handlers run outside the lock so they may query the state.
	for _, h := range handlers {
		h(newState)
	}
}

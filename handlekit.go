package handlekit

import "context"

// ID is an opaque address-sized identifier into native memory.
// It is only meaningful to the native layer that issued it.
type ID uintptr

// Null is the sentinel stored by a wrapper once its identifier is released.
const Null ID = 0

// IsNull reports whether id is the null sentinel.
func (id ID) IsNull() bool {
	return id == Null
}

// Creator allocates a new native instance.
type Creator interface {
	Create(ctx context.Context) (ID, error)
}

// Releaser frees a native instance. Implementations are not required to be
// idempotent: callers must release a given identifier at most once.
type Releaser interface {
	Release(ctx context.Context, id ID) error
}

// Library is a native layer that can both create and release instances.
type Library interface {
	Creator
	Releaser
}

// Subsystem reports whether the component capable of performing native
// release is currently installed.
type Subsystem interface {
	Installed() bool
}

// Disposer is implemented by anything holding native resources that can be
// released explicitly.
type Disposer interface {
	Dispose()
}

// ReleaserFunc adapts a plain function to the Releaser interface.
type ReleaserFunc func(ctx context.Context, id ID) error

// Release calls f(ctx, id).
func (f ReleaserFunc) Release(ctx context.Context, id ID) error {
	return f(ctx, id)
}

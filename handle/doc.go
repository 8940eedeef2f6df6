// Package handle wraps opaque native identifiers with at-most-once release.
//
// A Handle records the identifier, whether it owns it, and the Releaser able
// to free it. Dispose may be called any number of times from any goroutine;
// the native release runs at most once. When the handle's scheduler reports
// the subsystem detached, Dispose queues the handle instead of releasing and
// the scheduler retries it after the subsystem is installed again.
//
// # Layers
//
// A binding whose native object has several layers (a typed handle over a
// base object) gives each layer its own Handle and links them with WithBase.
// Disposing the top layer releases its own identifier and then disposes the
// layer below. Disposal only ever flows downward.
//
// # Cleanup
//
// Every handle registers a runtime cleanup. If a handle becomes unreachable
// without Dispose, the cleanup performs the same release-or-enqueue decision
// on the handle's inner state. Cleanups recover and log panics. They are a
// safety net; call Dispose explicitly.
//
// # Ordering
//
// Within the per-handle lock the ownership flag is cleared before the native
// release and the identifier is reset to Null after it returns. A release
// that panics leaves the identifier set but can never be retried.
package handle

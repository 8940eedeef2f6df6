// Package disposal defers native releases until the subsystem able to perform
// them is installed.
//
// A Scheduler is passed explicitly to every handle that may need it. When a
// handle is disposed while the subsystem is detached, the handle enqueues
// itself and returns. Binding the scheduler to a lifecycle drains the queue
// each time the subsystem is installed again; every entry's TryDispose is
// retried once per drain.
//
// Enqueue is safe from any goroutine, including runtime cleanup goroutines.
// Drains are serialized and work on a snapshot, so entries enqueued while a
// drain runs wait for the next one.
package disposal

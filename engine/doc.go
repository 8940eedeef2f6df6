// Package engine runs a native handle library inside a wazero sandbox.
//
// The guest module owns the handle table: it issues identifiers, tracks which
// are live and counts invalid and double releases. Go code only sees opaque
// identifiers, which makes the guest a faithful stand-in for a C library
// behind cgo while staying portable and fully observable in tests.
//
// # Guest ABI
//
//	create() -> i32            new identifier, 0 when exhausted
//	release(id i32) -> i32     0 ok, 1 invalid identifier, 2 double release
//	is_live(id i32) -> i32     1 when id is issued and not released
//	live() -> i32              number of live identifiers
//	released() -> i32          number of successful releases
//	double_releases() -> i32   number of releases of already released ids
//
// Identifiers are never reused, so a stale release is always reported as a
// double release instead of freeing an unrelated instance.
//
// # Concurrency
//
// wazero functions are not safe for concurrent calls, so Library serializes
// every call into the guest with a mutex.
package engine

// Package native provides an in-memory reference native library and the
// pending-status calling convention used by the bindings.
//
// # Local Library
//
// Local is a handle table with a free list. Identifiers start at 1; 0 is the
// null sentinel and never issued.
//
//	lib := native.NewLocal()
//	id, _ := lib.Create(ctx)
//	_ = lib.Release(ctx, id)
//	err := lib.Release(ctx, id) // errors.DoubleRelease
//
// Releasing an identifier twice is reported and counted rather than crashing,
// which makes Local suitable for asserting at-most-once release in tests.
//
// # Pending Status
//
// Native calls report failure out of band through a Status, mirroring the
// pending-exception slot of generated bindings. Call checks the status right
// after the call returns:
//
//	ip, err := native.Call("get-ip-address", func(st *native.Status) string {
//	    return ap.GetIPAddress(id, family, st)
//	})
package native

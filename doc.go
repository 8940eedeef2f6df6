// Package handlekit provides ownership wrappers for opaque native handles.
//
// A native layer (a cgo library, a WebAssembly guest, a platform service)
// hands out identifiers for objects it owns. Go code wrapping those
// identifiers has to release each one exactly once, even when Dispose is
// called repeatedly, from several goroutines, or by the garbage collector
// after the release-capable subsystem has already been torn down.
//
// # Architecture Overview
//
//	handlekit/          Root package with ID, Library and Subsystem interfaces
//	├── handle/         Handle: owned/borrowed identifier with at-most-once release
//	├── disposal/       Scheduler: pending-disposal queue drained on install
//	├── lifecycle/      Lifecycle: installed/detached subsystem state
//	├── native/         Local in-memory native library and pending-status calls
//	├── engine/         wazero-backed native library (guest owns the handle table)
//	├── wasm/           Minimal WebAssembly binary encoder for the guest module
//	├── scene/          Animatable scene-graph object binding
//	├── wifi/           Access point address configuration binding
//	├── config/         YAML configuration
//	├── errors/         Structured error types
//	└── cmd/handlectl/  Exercise and inspection CLI
//
// # Quick Start
//
//	lc := lifecycle.New()
//	sched := disposal.NewScheduler(lc)
//	sched.Bind(lc)
//	defer sched.Close(ctx)
//
//	lib, err := engine.NewLibrary(ctx, nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer lib.Close(ctx)
//
//	id, err := lib.Create(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	h := handle.New(lib, id, true, handle.WithScheduler(sched))
//	defer h.Dispose()
//
// # Disposal Model
//
// Dispose either releases the identifier immediately (subsystem installed) or
// queues the handle on its scheduler. The scheduler retries queued handles
// when the lifecycle reports the subsystem installed again. A cleanup
// registered with runtime.AddCleanup performs the same decision for handles
// that become unreachable without an explicit Dispose.
//
// # Thread Safety
//
// Handle and Scheduler are safe for concurrent use. Wrappers built on top of
// a Handle (scene.Animatable, wifi.AddressInformation) are safe to dispose
// concurrently, but callers must not use a wrapper after disposing it.
package handlekit

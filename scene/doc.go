// Package scene binds animatable scene-graph objects owned by a native
// library.
//
// An Animatable has two native layers: the typed handle returned by the
// library and the base object beneath it. Each layer is a handle.Handle; the
// typed layer is disposed first and then disposes the base layer. Copies
// share the base object and keep it alive until every copy is disposed.
//
//	sim := scene.NewSimulator()
//	obj, err := scene.New(sim, handle.WithScheduler(sched))
//	if err != nil {
//	    return err
//	}
//	defer obj.Dispose()
//
//	idx, err := obj.RegisterProperty("opacity", scene.FloatValue(1))
//
// Every call checks the native status immediately and returns a
// *errors.Error when the library reported a failure. Calls on a disposed
// object return an error matching handle.ErrDisposed.
package scene

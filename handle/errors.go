package handle

import (
	"github.com/wippyai/handlekit/errors"
)

// ErrDisposed matches errors returned by Use on a disposed handle.
var ErrDisposed = &errors.Error{Phase: errors.PhaseCall, Kind: errors.KindDisposed}

func disposedError(name string) error {
	if name == "" {
		name = "handle"
	}
	return errors.Disposed(name)
}

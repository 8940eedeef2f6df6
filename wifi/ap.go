package wifi

import (
	"github.com/wippyai/handlekit"
	"github.com/wippyai/handlekit/errors"
	"github.com/wippyai/handlekit/handle"
	"github.com/wippyai/handlekit/native"
)

// AP is an access point profile owned by the WiFi manager.
type AP struct {
	lib Native
	h   *handle.Handle
}

// OpenAP creates an access point profile for essid.
func OpenAP(lib Native, essid string, opts ...handle.Option) (*AP, error) {
	id, err := native.Call(OpCreateAP, func(st *native.Status) handlekit.ID {
		return lib.CreateAP(essid, st)
	})
	if err != nil {
		logFailure("failed to create access point", err)
		return nil, err
	}
	return WrapAP(lib, id, true, opts...), nil
}

// WrapAP takes an access point identifier returned by another native call.
func WrapAP(lib Native, id handlekit.ID, owns bool, opts ...handle.Option) *AP {
	hopts := append([]handle.Option{handle.WithName("wifi.ap")}, opts...)
	return &AP{
		lib: lib,
		h:   handle.New(apReleaser(lib), id, owns, hopts...),
	}
}

// ID returns the access point identifier, or handlekit.Null once disposed.
func (ap *AP) ID() handlekit.ID { return ap.h.ID() }

// Disposed reports whether the access point handle has been released.
func (ap *AP) Disposed() bool { return ap.h.Disposed() }

// Dispose destroys the access point profile.
func (ap *AP) Dispose() {
	ap.h.Dispose()
}

// ESSID returns the network name.
func (ap *AP) ESSID() (string, error) {
	var essid string
	err := ap.h.Use(func(id handlekit.ID) error {
		var err error
		essid, err = native.Call(OpESSID, func(st *native.Status) string {
			return ap.lib.ESSID(id, st)
		})
		return err
	})
	return essid, err
}

// AddressInformation returns the address configuration of one family. The
// result borrows the AP identifier and never releases it.
func (ap *AP) AddressInformation(family AddressFamily) (*AddressInformation, error) {
	if family != IPv4 && family != IPv6 {
		return nil, errors.InvalidInput(errors.PhaseCall, "unknown address family "+family.String())
	}

	var info *AddressInformation
	err := ap.h.Use(func(id handlekit.ID) error {
		// only the scheduler carries over; a base belongs to the AP alone
		view := handle.New(apReleaser(ap.lib), id, false,
			handle.WithName("wifi.address."+family.String()),
			handle.WithScheduler(ap.h.Scheduler()))
		info = &AddressInformation{
			lib:    ap.lib,
			ap:     ap,
			h:      view,
			family: family,
		}
		return nil
	})
	return info, err
}

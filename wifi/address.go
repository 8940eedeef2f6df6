package wifi

import (
	"fmt"
	"net/netip"

	"go.uber.org/zap"

	"github.com/wippyai/handlekit"
	"github.com/wippyai/handlekit/errors"
	"github.com/wippyai/handlekit/handle"
	"github.com/wippyai/handlekit/native"
)

// AddressInformation is the address configuration of one family of an AP.
type AddressInformation struct {
	lib    Native
	ap     *AP
	h      *handle.Handle // borrowed AP identifier
	family AddressFamily
}

// Family returns the address family this view configures.
func (i *AddressInformation) Family() AddressFamily { return i.family }

// Dispose forgets the borrowed identifier. The AP is unaffected.
func (i *AddressInformation) Dispose() {
	i.h.Dispose()
}

// Disposed reports whether the view has been disposed.
func (i *AddressInformation) Disposed() bool { return i.h.Disposed() }

// IP returns the interface address, or the unspecified address when unset.
func (i *AddressInformation) IP() (netip.Addr, error) {
	return i.address(OpGetIPAddress, "ip address", func(id handlekit.ID, st *native.Status) string {
		return i.lib.IPAddress(id, i.family, st)
	})
}

// SetIP sets the interface address. addr must match the family.
func (i *AddressInformation) SetIP(addr netip.Addr) error {
	return i.setAddress(OpSetIPAddress, "ip address", addr, func(id handlekit.ID, s string, st *native.Status) {
		i.lib.SetIPAddress(id, i.family, s, st)
	})
}

// SubnetMask returns the subnet mask.
func (i *AddressInformation) SubnetMask() (netip.Addr, error) {
	return i.address(OpGetSubnetMask, "subnet mask", func(id handlekit.ID, st *native.Status) string {
		return i.lib.SubnetMask(id, i.family, st)
	})
}

// SetSubnetMask sets the subnet mask.
func (i *AddressInformation) SetSubnetMask(addr netip.Addr) error {
	return i.setAddress(OpSetSubnetMask, "subnet mask", addr, func(id handlekit.ID, s string, st *native.Status) {
		i.lib.SetSubnetMask(id, i.family, s, st)
	})
}

// Gateway returns the default gateway address.
func (i *AddressInformation) Gateway() (netip.Addr, error) {
	return i.address(OpGetGateway, "gateway address", func(id handlekit.ID, st *native.Status) string {
		return i.lib.GatewayAddress(id, i.family, st)
	})
}

// SetGateway sets the default gateway address.
func (i *AddressInformation) SetGateway(addr netip.Addr) error {
	return i.setAddress(OpSetGateway, "gateway address", addr, func(id handlekit.ID, s string, st *native.Status) {
		i.lib.SetGatewayAddress(id, i.family, s, st)
	})
}

// DNS1 returns the primary DNS server address.
func (i *AddressInformation) DNS1() (netip.Addr, error) { return i.dns(1) }

// DNS2 returns the secondary DNS server address.
func (i *AddressInformation) DNS2() (netip.Addr, error) { return i.dns(2) }

// SetDNS1 sets the primary DNS server address.
func (i *AddressInformation) SetDNS1(addr netip.Addr) error { return i.setDNS(1, addr) }

// SetDNS2 sets the secondary DNS server address.
func (i *AddressInformation) SetDNS2(addr netip.Addr) error { return i.setDNS(2, addr) }

func (i *AddressInformation) dns(order int) (netip.Addr, error) {
	what := dnsName(order)
	return i.address(OpGetDNSAddress, what, func(id handlekit.ID, st *native.Status) string {
		return i.lib.DNSAddress(id, order, i.family, st)
	})
}

func (i *AddressInformation) setDNS(order int, addr netip.Addr) error {
	what := dnsName(order)
	return i.setAddress(OpSetDNSAddress, what, addr, func(id handlekit.ID, s string, st *native.Status) {
		i.lib.SetDNSAddress(id, order, i.family, s, st)
	})
}

func dnsName(order int) string {
	if order == 1 {
		return "first dns address"
	}
	return "second dns address"
}

// IPConfigType returns how the family is configured. On failure it returns
// IPConfigNone with the error.
func (i *AddressInformation) IPConfigType() (IPConfigType, error) {
	t, err := call(i, OpGetIPConfigType, func(id handlekit.ID, st *native.Status) IPConfigType {
		return i.lib.IPConfigType(id, i.family, st)
	})
	if err != nil {
		i.logError("failed to get ip config type", err)
		return IPConfigNone, err
	}
	return t, nil
}

// SetIPConfigType changes how the family is configured.
func (i *AddressInformation) SetIPConfigType(t IPConfigType) error {
	if t < IPConfigNone || t > IPConfigFixed {
		return errors.InvalidInput(errors.PhaseCall, "unknown ip config type "+t.String())
	}
	_, err := call(i, OpSetIPConfigType, func(id handlekit.ID, st *native.Status) struct{} {
		i.lib.SetIPConfigType(id, i.family, t, st)
		return struct{}{}
	})
	if err != nil {
		i.logError("failed to set ip config type", err)
	}
	return err
}

func (i *AddressInformation) address(op, what string, fn func(handlekit.ID, *native.Status) string) (netip.Addr, error) {
	s, err := call(i, op, fn)
	if err != nil {
		i.logError("failed to get "+what, err)
		return i.unspecified(), err
	}
	if s == "" {
		return i.unspecified(), nil
	}

	addr, perr := netip.ParseAddr(s)
	if perr != nil {
		err = errors.New(errors.PhaseCall, errors.KindInvalidData).
			Op(op).Detail("native %s %q", what, s).Cause(perr).Build()
		i.logError("failed to parse "+what, err)
		return i.unspecified(), err
	}
	return addr, nil
}

func (i *AddressInformation) setAddress(op, what string, addr netip.Addr, fn func(handlekit.ID, string, *native.Status)) error {
	if err := i.checkFamily(addr); err != nil {
		return err
	}
	_, err := call(i, op, func(id handlekit.ID, st *native.Status) struct{} {
		fn(id, addr.String(), st)
		return struct{}{}
	})
	if err != nil {
		i.logError("failed to set "+what, err)
	}
	return err
}

func (i *AddressInformation) checkFamily(addr netip.Addr) error {
	switch {
	case !addr.IsValid():
		return errors.InvalidInput(errors.PhaseCall, "invalid address")
	case i.family == IPv4 && !addr.Is4():
		return errors.InvalidInput(errors.PhaseCall, fmt.Sprintf("%s is not an ipv4 address", addr))
	case i.family == IPv6 && !addr.Is6():
		return errors.InvalidInput(errors.PhaseCall, fmt.Sprintf("%s is not an ipv6 address", addr))
	}
	return nil
}

func (i *AddressInformation) unspecified() netip.Addr {
	if i.family == IPv6 {
		return netip.IPv6Unspecified()
	}
	return netip.IPv4Unspecified()
}

func (i *AddressInformation) logError(msg string, err error) {
	Logger().Error(msg,
		zap.Stringer("family", i.family),
		zap.Uint64("ap", uint64(i.h.ID())),
		zap.Error(err))
}

// call runs fn with the borrowed identifier while both the view and its AP
// are live.
func call[T any](i *AddressInformation, op string, fn func(handlekit.ID, *native.Status) T) (T, error) {
	var out T
	err := i.h.Use(func(id handlekit.ID) error {
		return i.ap.h.Use(func(handlekit.ID) error {
			v, err := native.Call(op, func(st *native.Status) T { return fn(id, st) })
			out = v
			return err
		})
	})
	return out, err
}

func logFailure(msg string, err error) {
	Logger().Error(msg, zap.Error(err))
}

package wifi

import (
	"context"
	"fmt"

	"github.com/wippyai/handlekit"
	"github.com/wippyai/handlekit/native"
)

// AddressFamily selects IPv4 or IPv6 configuration.
type AddressFamily int32

const (
	IPv4 AddressFamily = iota
	IPv6
)

func (f AddressFamily) String() string {
	switch f {
	case IPv4:
		return "ipv4"
	case IPv6:
		return "ipv6"
	default:
		return fmt.Sprintf("AddressFamily(%d)", int32(f))
	}
}

// IPConfigType is how an address family is configured.
type IPConfigType int32

const (
	IPConfigNone IPConfigType = iota
	IPConfigStatic
	IPConfigDynamic
	IPConfigAuto
	IPConfigFixed
)

func (t IPConfigType) String() string {
	switch t {
	case IPConfigNone:
		return "none"
	case IPConfigStatic:
		return "static"
	case IPConfigDynamic:
		return "dynamic"
	case IPConfigAuto:
		return "auto"
	case IPConfigFixed:
		return "fixed"
	default:
		return fmt.Sprintf("IPConfigType(%d)", int32(t))
	}
}

// Native is the WiFi manager ABI. Every call reports failure through st.
type Native interface {
	CreateAP(essid string, st *native.Status) handlekit.ID
	DestroyAP(ap handlekit.ID, st *native.Status)
	ESSID(ap handlekit.ID, st *native.Status) string

	IPAddress(ap handlekit.ID, family AddressFamily, st *native.Status) string
	SetIPAddress(ap handlekit.ID, family AddressFamily, addr string, st *native.Status)
	SubnetMask(ap handlekit.ID, family AddressFamily, st *native.Status) string
	SetSubnetMask(ap handlekit.ID, family AddressFamily, addr string, st *native.Status)
	GatewayAddress(ap handlekit.ID, family AddressFamily, st *native.Status) string
	SetGatewayAddress(ap handlekit.ID, family AddressFamily, addr string, st *native.Status)
	// DNSAddress takes order 1 or 2.
	DNSAddress(ap handlekit.ID, order int, family AddressFamily, st *native.Status) string
	SetDNSAddress(ap handlekit.ID, order int, family AddressFamily, addr string, st *native.Status)
	IPConfigType(ap handlekit.ID, family AddressFamily, st *native.Status) IPConfigType
	SetIPConfigType(ap handlekit.ID, family AddressFamily, t IPConfigType, st *native.Status)
}

// Operation names used in errors and failure injection.
const (
	OpCreateAP        = "ap-create"
	OpDestroyAP       = "ap-destroy"
	OpESSID           = "get-essid"
	OpGetIPAddress    = "get-ip-address"
	OpSetIPAddress    = "set-ip-address"
	OpGetSubnetMask   = "get-subnet-mask"
	OpSetSubnetMask   = "set-subnet-mask"
	OpGetGateway      = "get-gateway-address"
	OpSetGateway      = "set-gateway-address"
	OpGetDNSAddress   = "get-dns-address"
	OpSetDNSAddress   = "set-dns-address"
	OpGetIPConfigType = "get-ip-config-type"
	OpSetIPConfigType = "set-ip-config-type"
)

// Error codes reported by the WiFi manager.
const (
	CodeNone             int32 = 0
	CodeInvalidParameter int32 = -22
	CodeOutOfMemory      int32 = -12
	CodeInvalidOperation int32 = -38
	CodeNotSupported     int32 = -1073741822
)

func apReleaser(lib Native) handlekit.Releaser {
	return handlekit.ReleaserFunc(func(_ context.Context, id handlekit.ID) error {
		return native.Do(OpDestroyAP, func(st *native.Status) { lib.DestroyAP(id, st) })
	})
}

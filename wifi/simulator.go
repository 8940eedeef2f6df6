package wifi

import (
	"context"
	"fmt"
	"net/netip"
	"sync"

	"github.com/wippyai/handlekit"
	"github.com/wippyai/handlekit/native"
)

// Simulator is an in-memory WiFi manager holding access point profiles.
type Simulator struct {
	aps *native.Local // *apRecord
	mu  sync.Mutex    // guards record contents
}

type apRecord struct {
	essid   string
	configs [2]familyConfig
}

type familyConfig struct {
	ip      string
	mask    string
	gateway string
	dns     [2]string
	typ     IPConfigType
}

var _ Native = (*Simulator)(nil)

// NewSimulator creates a WiFi manager with no profiles.
func NewSimulator() *Simulator {
	return &Simulator{aps: native.NewLocal()}
}

// FailNext makes the next call of op fail with code and msg.
func (s *Simulator) FailNext(op string, code int32, msg string) {
	s.aps.FailNext(op, code, msg)
}

// Stats returns the profile table counters.
func (s *Simulator) Stats() native.Stats {
	return s.aps.Stats()
}

// SetRaw stores addr for the IP address of family without validation, as a
// misbehaving native stack might.
func (s *Simulator) SetRaw(ap handlekit.ID, family AddressFamily, addr string) error {
	return native.Do("set-raw", func(st *native.Status) {
		s.withConfig("", ap, family, st, func(c *familyConfig) { c.ip = addr })
	})
}

func (s *Simulator) CreateAP(essid string, st *native.Status) handlekit.ID {
	if s.aps.Inject(OpCreateAP, st) {
		return handlekit.Null
	}
	if essid == "" {
		st.Fail(CodeInvalidParameter, "empty essid")
		return handlekit.Null
	}
	rec := &apRecord{essid: essid}
	rec.configs[IPv4].typ = IPConfigDynamic
	rec.configs[IPv6].typ = IPConfigAuto

	id, err := s.aps.CreateValue(context.Background(), rec)
	if err != nil {
		st.Fail(CodeOutOfMemory, err.Error())
		return handlekit.Null
	}
	return id
}

func (s *Simulator) DestroyAP(ap handlekit.ID, st *native.Status) {
	if s.aps.Inject(OpDestroyAP, st) {
		return
	}
	if err := s.aps.Release(context.Background(), ap); err != nil {
		st.Fail(CodeInvalidParameter, err.Error())
	}
}

func (s *Simulator) ESSID(ap handlekit.ID, st *native.Status) string {
	if s.aps.Inject(OpESSID, st) {
		return ""
	}
	rec, ok := s.record(ap, st)
	if !ok {
		return ""
	}
	return rec.essid
}

func (s *Simulator) IPAddress(ap handlekit.ID, family AddressFamily, st *native.Status) string {
	var v string
	s.withConfig(OpGetIPAddress, ap, family, st, func(c *familyConfig) { v = c.ip })
	return v
}

func (s *Simulator) SetIPAddress(ap handlekit.ID, family AddressFamily, addr string, st *native.Status) {
	s.setAddress(OpSetIPAddress, ap, family, addr, st, func(c *familyConfig) { c.ip = addr })
}

func (s *Simulator) SubnetMask(ap handlekit.ID, family AddressFamily, st *native.Status) string {
	var v string
	s.withConfig(OpGetSubnetMask, ap, family, st, func(c *familyConfig) { v = c.mask })
	return v
}

func (s *Simulator) SetSubnetMask(ap handlekit.ID, family AddressFamily, addr string, st *native.Status) {
	s.setAddress(OpSetSubnetMask, ap, family, addr, st, func(c *familyConfig) { c.mask = addr })
}

func (s *Simulator) GatewayAddress(ap handlekit.ID, family AddressFamily, st *native.Status) string {
	var v string
	s.withConfig(OpGetGateway, ap, family, st, func(c *familyConfig) { v = c.gateway })
	return v
}

func (s *Simulator) SetGatewayAddress(ap handlekit.ID, family AddressFamily, addr string, st *native.Status) {
	s.setAddress(OpSetGateway, ap, family, addr, st, func(c *familyConfig) { c.gateway = addr })
}

func (s *Simulator) DNSAddress(ap handlekit.ID, order int, family AddressFamily, st *native.Status) string {
	var v string
	if !validOrder(order, st) {
		return ""
	}
	s.withConfig(OpGetDNSAddress, ap, family, st, func(c *familyConfig) { v = c.dns[order-1] })
	return v
}

func (s *Simulator) SetDNSAddress(ap handlekit.ID, order int, family AddressFamily, addr string, st *native.Status) {
	if !validOrder(order, st) {
		return
	}
	s.setAddress(OpSetDNSAddress, ap, family, addr, st, func(c *familyConfig) { c.dns[order-1] = addr })
}

func (s *Simulator) IPConfigType(ap handlekit.ID, family AddressFamily, st *native.Status) IPConfigType {
	var t IPConfigType
	s.withConfig(OpGetIPConfigType, ap, family, st, func(c *familyConfig) { t = c.typ })
	return t
}

func (s *Simulator) SetIPConfigType(ap handlekit.ID, family AddressFamily, t IPConfigType, st *native.Status) {
	s.withConfig(OpSetIPConfigType, ap, family, st, func(c *familyConfig) { c.typ = t })
}

func validOrder(order int, st *native.Status) bool {
	if order != 1 && order != 2 {
		st.Fail(CodeInvalidParameter, fmt.Sprintf("dns order %d", order))
		return false
	}
	return true
}

func (s *Simulator) setAddress(op string, ap handlekit.ID, family AddressFamily, addr string, st *native.Status, set func(*familyConfig)) {
	a, err := netip.ParseAddr(addr)
	if err != nil || (family == IPv4) != a.Is4() {
		st.Fail(CodeInvalidParameter, fmt.Sprintf("invalid %s address %q", family, addr))
		return
	}
	s.withConfig(op, ap, family, st, set)
}

func (s *Simulator) record(ap handlekit.ID, st *native.Status) (*apRecord, bool) {
	v, ok := s.aps.Value(ap)
	if !ok {
		st.Fail(CodeInvalidParameter, fmt.Sprintf("unknown access point %d", ap))
		return nil, false
	}
	return v.(*apRecord), true
}

func (s *Simulator) withConfig(op string, ap handlekit.ID, family AddressFamily, st *native.Status, fn func(*familyConfig)) {
	if s.aps.Inject(op, st) {
		return
	}
	if family != IPv4 && family != IPv6 {
		st.Fail(CodeInvalidParameter, fmt.Sprintf("invalid address family %d", family))
		return
	}
	rec, ok := s.record(ap, st)
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&rec.configs[family])
}

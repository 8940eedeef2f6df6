package wifi

import (
	stderrors "errors"
	"net/netip"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/wippyai/handlekit/disposal"
	"github.com/wippyai/handlekit/errors"
	"github.com/wippyai/handlekit/handle"
	"github.com/wippyai/handlekit/lifecycle"
)

func openAP(t *testing.T, sim *Simulator) *AP {
	t.Helper()
	ap, err := OpenAP(sim, "office")
	require.NoError(t, err)
	t.Cleanup(ap.Dispose)
	return ap
}

func info(t *testing.T, ap *AP, family AddressFamily) *AddressInformation {
	t.Helper()
	i, err := ap.AddressInformation(family)
	require.NoError(t, err)
	t.Cleanup(i.Dispose)
	return i
}

func TestAP_OpenDispose(t *testing.T) {
	sim := NewSimulator()
	ap, err := OpenAP(sim, "office")
	require.NoError(t, err)

	essid, err := ap.ESSID()
	require.NoError(t, err)
	assert.Equal(t, "office", essid)
	assert.Equal(t, 1, sim.Stats().Live)

	ap.Dispose()
	ap.Dispose()
	assert.Zero(t, sim.Stats().Live)
	assert.Equal(t, uint64(1), sim.Stats().Released)

	_, err = ap.ESSID()
	assert.ErrorIs(t, err, handle.ErrDisposed)
}

func TestAP_OpenFailure(t *testing.T) {
	sim := NewSimulator()

	_, err := OpenAP(sim, "")
	var e *errors.Error
	require.True(t, stderrors.As(err, &e))
	assert.Equal(t, CodeInvalidParameter, e.Code)
	assert.Equal(t, OpCreateAP, e.Op)
}

func TestAddressInformation_DefaultsUnspecified(t *testing.T) {
	sim := NewSimulator()
	ap := openAP(t, sim)

	v4 := info(t, ap, IPv4)
	ip, err := v4.IP()
	require.NoError(t, err)
	assert.Equal(t, netip.IPv4Unspecified(), ip)

	v6 := info(t, ap, IPv6)
	gw, err := v6.Gateway()
	require.NoError(t, err)
	assert.Equal(t, netip.IPv6Unspecified(), gw)

	typ, err := v4.IPConfigType()
	require.NoError(t, err)
	assert.Equal(t, IPConfigDynamic, typ)
}

func TestAddressInformation_RoundTrip(t *testing.T) {
	sim := NewSimulator()
	ap := openAP(t, sim)

	tests := []struct {
		family AddressFamily
		ip     string
		mask   string
		gw     string
		dns1   string
		dns2   string
	}{
		{IPv4, "192.168.1.20", "255.255.255.0", "192.168.1.1", "8.8.8.8", "1.1.1.1"},
		{IPv6, "2001:db8::20", "ffff:ffff:ffff:ffff::", "fe80::1", "2001:4860:4860::8888", "2606:4700:4700::1111"},
	}

	for _, tt := range tests {
		t.Run(tt.family.String(), func(t *testing.T) {
			i := info(t, ap, tt.family)

			require.NoError(t, i.SetIP(netip.MustParseAddr(tt.ip)))
			require.NoError(t, i.SetSubnetMask(netip.MustParseAddr(tt.mask)))
			require.NoError(t, i.SetGateway(netip.MustParseAddr(tt.gw)))
			require.NoError(t, i.SetDNS1(netip.MustParseAddr(tt.dns1)))
			require.NoError(t, i.SetDNS2(netip.MustParseAddr(tt.dns2)))
			require.NoError(t, i.SetIPConfigType(IPConfigStatic))

			getters := []struct {
				get  func() (netip.Addr, error)
				want string
			}{
				{i.IP, tt.ip},
				{i.SubnetMask, tt.mask},
				{i.Gateway, tt.gw},
				{i.DNS1, tt.dns1},
				{i.DNS2, tt.dns2},
			}
			for _, g := range getters {
				got, err := g.get()
				require.NoError(t, err)
				assert.Equal(t, netip.MustParseAddr(g.want), got)
			}

			typ, err := i.IPConfigType()
			require.NoError(t, err)
			assert.Equal(t, IPConfigStatic, typ)
		})
	}
}

func TestAddressInformation_FamiliesIndependent(t *testing.T) {
	sim := NewSimulator()
	ap := openAP(t, sim)

	v4 := info(t, ap, IPv4)
	v6 := info(t, ap, IPv6)
	require.NoError(t, v4.SetIP(netip.MustParseAddr("10.0.0.2")))

	ip, err := v6.IP()
	require.NoError(t, err)
	assert.Equal(t, netip.IPv6Unspecified(), ip)
}

func TestAddressInformation_RejectsWrongFamily(t *testing.T) {
	sim := NewSimulator()
	ap := openAP(t, sim)

	v4 := info(t, ap, IPv4)
	v6 := info(t, ap, IPv6)

	invalid := &errors.Error{Phase: errors.PhaseCall, Kind: errors.KindInvalidInput}
	assert.ErrorIs(t, v4.SetIP(netip.MustParseAddr("::1")), invalid)
	assert.ErrorIs(t, v6.SetGateway(netip.MustParseAddr("10.0.0.1")), invalid)
	assert.ErrorIs(t, v4.SetDNS1(netip.Addr{}), invalid)
	assert.ErrorIs(t, v4.SetIPConfigType(IPConfigType(42)), invalid)

	ip, _ := v4.IP()
	assert.Equal(t, netip.IPv4Unspecified(), ip)
}

func TestAddressInformation_NativeFailureLogged(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	SetLogger(zap.New(core))
	defer SetLogger(zap.NewNop())

	sim := NewSimulator()
	ap := openAP(t, sim)
	v4 := info(t, ap, IPv4)

	sim.FailNext(OpGetDNSAddress, CodeInvalidOperation, "no profile")
	addr, err := v4.DNS2()
	require.Error(t, err)
	assert.Equal(t, netip.IPv4Unspecified(), addr)

	var e *errors.Error
	require.True(t, stderrors.As(err, &e))
	assert.Equal(t, CodeInvalidOperation, e.Code)

	entries := logs.FilterMessage("failed to get second dns address").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "ipv4", entries[0].ContextMap()["family"])

	sim.FailNext(OpSetIPConfigType, CodeNotSupported, "")
	assert.Error(t, v4.SetIPConfigType(IPConfigFixed))
	assert.Equal(t, 1, logs.FilterMessage("failed to set ip config type").Len())

	sim.FailNext(OpGetIPConfigType, CodeInvalidOperation, "busy")
	typ, err := v4.IPConfigType()
	assert.Error(t, err)
	assert.Equal(t, IPConfigNone, typ)
}

func TestAddressInformation_MalformedNativeAddress(t *testing.T) {
	sim := NewSimulator()
	ap := openAP(t, sim)
	v4 := info(t, ap, IPv4)

	require.NoError(t, sim.SetRaw(ap.ID(), IPv4, "not-an-ip"))
	ip, err := v4.IP()
	assert.ErrorIs(t, err, &errors.Error{Phase: errors.PhaseCall, Kind: errors.KindInvalidData})
	assert.Equal(t, netip.IPv4Unspecified(), ip)
}

func TestAddressInformation_BorrowsAP(t *testing.T) {
	sim := NewSimulator()
	ap, err := OpenAP(sim, "lab")
	require.NoError(t, err)

	v4, err := ap.AddressInformation(IPv4)
	require.NoError(t, err)

	v4.Dispose()
	v4.Dispose()
	assert.Equal(t, 1, sim.Stats().Live, "view never releases the AP")
	assert.True(t, v4.Disposed())
	assert.False(t, ap.Disposed())

	ap.Dispose()
	st := sim.Stats()
	assert.Zero(t, st.Live)
	assert.Equal(t, uint64(1), st.Released)
	assert.Zero(t, st.DoubleReleases)
}

func TestAddressInformation_APDisposedFirst(t *testing.T) {
	sim := NewSimulator()
	ap, err := OpenAP(sim, "lab")
	require.NoError(t, err)

	v6, err := ap.AddressInformation(IPv6)
	require.NoError(t, err)
	ap.Dispose()

	ip, err := v6.IP()
	assert.ErrorIs(t, err, handle.ErrDisposed)
	assert.Equal(t, netip.IPv6Unspecified(), ip)

	v6.Dispose()
	assert.Zero(t, sim.Stats().DoubleReleases)

	_, err = ap.AddressInformation(IPv4)
	assert.ErrorIs(t, err, handle.ErrDisposed)
}

func TestAP_UnknownFamily(t *testing.T) {
	sim := NewSimulator()
	ap := openAP(t, sim)

	_, err := ap.AddressInformation(AddressFamily(7))
	assert.ErrorIs(t, err, &errors.Error{Phase: errors.PhaseCall, Kind: errors.KindInvalidInput})
}

type disposeCounter struct {
	n atomic.Int32
}

func (d *disposeCounter) Dispose() { d.n.Add(1) }

func TestAddressInformation_DoesNotDisposeAPBase(t *testing.T) {
	sim := NewSimulator()
	sched := disposal.NewScheduler(lifecycle.New())
	base := &disposeCounter{}

	ap, err := OpenAP(sim, "office", handle.WithScheduler(sched), handle.WithBase(base))
	require.NoError(t, err)

	v4, err := ap.AddressInformation(IPv4)
	require.NoError(t, err)
	assert.Same(t, sched, v4.h.Scheduler())
	assert.Nil(t, v4.h.Base())

	v4.Dispose()
	assert.Zero(t, base.n.Load())
	assert.Equal(t, 1, sim.Stats().Live)

	ap.Dispose()
	assert.Equal(t, int32(1), base.n.Load())
	assert.Zero(t, sim.Stats().Live)
}

// Package wifi binds access point address configuration owned by a native
// WiFi manager.
//
// An AP owns its native access point handle. AddressInformation returns a
// view of one address family of that AP; the view borrows the AP handle and
// never releases it, so it may be disposed before or after the AP.
//
//	ap, err := wifi.OpenAP(sim, "office", handle.WithScheduler(sched))
//	if err != nil {
//	    return err
//	}
//	defer ap.Dispose()
//
//	info, err := ap.AddressInformation(wifi.IPv4)
//	if err != nil {
//	    return err
//	}
//	defer info.Dispose()
//	ip, err := info.IP()
//
// Getters log native failures and return them along with the unspecified
// address of the family. Addresses cross the native boundary as strings and
// are parsed with net/netip; an empty string means the address is unset.
package wifi

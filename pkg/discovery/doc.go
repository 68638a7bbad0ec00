// Package discovery provides mDNS browsing for brokers on the local
// network.
//
// Brokers announce themselves under the "_dsa-broker._tcp" service
// type. The TXT record carries the handshake path and scheme, so a
// link configured without a broker URI can resolve one:
//
//	browser, _ := discovery.NewMDNSBrowser(discovery.DefaultBrowserConfig())
//	svc, err := browser.FindFirst(ctx)
//	if err == nil {
//		uri := svc.ConnURL()
//	}
//
// Browsing aggregates announcements by instance name, so a broker
// visible on several interfaces shows up once with all its addresses.
package discovery

// Package httputil holds small HTTP helpers shared by the API handlers.
package httputil

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// ClientIP returns the address used to attribute a request to a client.
// Proxy headers (the leftmost X-Forwarded-For entry, then X-Real-IP) are
// consulted only when trustProxy is set, and only if they hold a parseable
// address; otherwise RemoteAddr is used. IPv4-mapped IPv6 addresses are
// unmapped so one client has one key.
func ClientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		xff, _, _ := strings.Cut(r.Header.Get("X-Forwarded-For"), ",")
		for _, candidate := range []string{xff, r.Header.Get("X-Real-IP")} {
			if ip, ok := parseIP(candidate); ok {
				return ip
			}
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	if ip, ok := parseIP(host); ok {
		return ip
	}
	return host
}

func parseIP(s string) (string, bool) {
	addr, err := netip.ParseAddr(strings.TrimSpace(s))
	if err != nil {
		return "", false
	}
	return addr.Unmap().WithZone("").String(), true
}

package tenant

import (
	"net"
	"net/http"
	"strings"

	"golang.org/x/net/idna"
)

// ForwardedHostHeader is consulted instead of Host when forwarding is trusted.
const ForwardedHostHeader = "X-Forwarded-Host"

// HostFromRequest returns the raw host candidate list of the request.
// X-Forwarded-Host is only honoured when trustForwarded is set, i.e. when the
// service runs behind a proxy that overwrites the header.
func HostFromRequest(r *http.Request, trustForwarded bool) string {
	if trustForwarded {
		if fh := r.Header.Get(ForwardedHostHeader); fh != "" {
			return fh
		}
	}
	return r.Host
}

// NormalizeHost reduces a raw host header to a comparable hostname: the first
// comma-separated candidate without port, lowercased, without a trailing dot
// or leading "www.", and IDNA-encoded.
func NormalizeHost(raw string) string {
	h := raw
	if idx := strings.IndexByte(h, ','); idx != -1 {
		h = h[:idx]
	}
	h = strings.TrimSpace(h)

	switch {
	case strings.HasPrefix(h, "["):
		// [::1]:8080
		if end := strings.IndexByte(h, ']'); end > 0 {
			h = h[1:end]
		}
	case strings.Count(h, ":") == 1:
		h = h[:strings.IndexByte(h, ':')]
	}

	h = strings.ToLower(strings.TrimSuffix(h, "."))
	h = strings.TrimPrefix(h, "www.")

	if net.ParseIP(h) != nil {
		return h
	}
	if ascii, err := idna.Lookup.ToASCII(h); err == nil {
		h = ascii
	}
	return h
}

// isLoopback reports whether a normalized host points at the local machine.
func isLoopback(host string) bool {
	if host == "localhost" || strings.HasSuffix(host, ".localhost") {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

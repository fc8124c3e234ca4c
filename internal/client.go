package internal

import (
	"net"
	"net/http"
	"path"
	"strings"
)

// ClientIP returns the client address of r. Forwarding headers are only
// consulted when trustProxy is set.
func ClientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
			first, _, _ := strings.Cut(fwd, ",")
			if ip := strings.TrimSpace(first); net.ParseIP(ip) != nil {
				return ip
			}
		}
		if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); net.ParseIP(ip) != nil {
			return ip
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// CanonicalPath returns the cleaned request path and whether the path the
// router sees is already in that form. Dot segments, repeated or trailing
// slashes and percent-encoded slashes or dots make a path non-canonical.
func CanonicalPath(r *http.Request) (string, bool) {
	p := r.URL.Path
	if p == "" {
		return "/", r.URL.RawPath == ""
	}

	clean := p
	if clean[0] != '/' {
		clean = "/" + clean
	}
	clean = path.Clean(clean)
	if clean != p {
		return clean, false
	}

	raw := strings.ToLower(r.URL.RawPath)
	if strings.Contains(raw, "%2f") || strings.Contains(raw, "%2e") {
		return clean, false
	}
	return clean, true
}

package utils

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// proxyHeaders are checked in order when the server sits behind a
// trusted proxy or tunnel. CF-Connecting-IP wins because cloudflared
// rewrites X-Forwarded-For.
var proxyHeaders = []string{"CF-Connecting-IP", "X-Forwarded-For", "X-Real-IP"}

// ClientIP resolves the caller's IP for rate limiting and the ops
// allowlist. With trustProxy set it prefers the proxy headers; without
// it only RemoteAddr counts, since any client can forge a header.
func ClientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		for _, h := range proxyHeaders {
			if ip := normalizeAddr(firstValue(r.Header.Get(h))); ip != "" {
				return ip
			}
		}
	}
	return normalizeAddr(r.RemoteAddr)
}

// firstValue takes the left-most element of a comma-separated header,
// which for X-Forwarded-For is the original client.
func firstValue(v string) string {
	if i := strings.IndexByte(v, ','); i >= 0 {
		v = v[:i]
	}
	return strings.TrimSpace(v)
}

// normalizeAddr strips an optional port ("ip:port", "[v6]:port") and
// returns the bare address, or "" when the input holds no address.
func normalizeAddr(s string) string {
	if s == "" {
		return ""
	}
	if host, _, err := net.SplitHostPort(s); err == nil {
		s = host
	}
	if _, err := netip.ParseAddr(s); err != nil {
		return ""
	}
	return s
}

// Allowlist answers whether an address belongs to a configured set of
// IPs and CIDR ranges. Entries that parse as neither are dropped at
// construction time.
type Allowlist struct {
	prefixes []netip.Prefix
}

func NewAllowlist(entries []string) *Allowlist {
	a := &Allowlist{}
	for _, raw := range entries {
		s := strings.TrimSpace(raw)
		if s == "" {
			continue
		}
		if p, err := netip.ParsePrefix(s); err == nil {
			a.prefixes = append(a.prefixes, p.Masked())
			continue
		}
		// A bare IP is a /32 (or /128) prefix.
		if ip, err := netip.ParseAddr(s); err == nil {
			a.prefixes = append(a.prefixes, netip.PrefixFrom(ip, ip.BitLen()))
		}
	}
	return a
}

func (a *Allowlist) Empty() bool { return len(a.prefixes) == 0 }

func (a *Allowlist) Contains(ipStr string) bool {
	ip, err := netip.ParseAddr(ipStr)
	if err != nil {
		return false
	}
	ip = ip.Unmap()
	for _, p := range a.prefixes {
		if p.Contains(ip) {
			return true
		}
	}
	return false
}

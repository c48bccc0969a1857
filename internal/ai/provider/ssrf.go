package provider

import (
	"context"
	"net"
	"net/url"
)

// allowedHosts are known vendor hostnames. They skip the DNS check entirely,
// so a slow or poisoned resolver cannot block calls to first-class vendors.
var allowedHosts = map[string]bool{
	"api.openai.com":                    true,
	"api.anthropic.com":                 true,
	"generativelanguage.googleapis.com": true,
}

// hostResolver is satisfied by *net.Resolver; tests substitute a stub.
type hostResolver interface {
	LookupIPAddr(ctx context.Context, host string) ([]net.IPAddr, error)
}

// checkEndpoint enforces the egress policy for caller-supplied endpoint
// URLs: http/https only, and the hostname must not resolve to a private or
// reserved address unless it is on the vendor allow-list. Any violation is a
// NETWORK_ERROR raised before a single byte is sent.
func checkEndpoint(ctx context.Context, resolver hostResolver, rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return newError(CodeNetworkError, "invalid endpoint URL: %v", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return newError(CodeNetworkError, "endpoint scheme %q is not allowed", u.Scheme)
	}

	host := u.Hostname()
	if host == "" {
		return newError(CodeNetworkError, "endpoint URL has no host")
	}
	if allowedHosts[host] {
		return nil
	}

	if ip := net.ParseIP(host); ip != nil {
		if isPrivateAddress(ip) {
			return newError(CodeNetworkError, "endpoint address %s is in a private range", ip)
		}
		return nil
	}

	addrs, err := resolver.LookupIPAddr(ctx, host)
	if err != nil {
		return newError(CodeNetworkError, "failed to resolve endpoint host %q: %v", host, err)
	}
	for _, addr := range addrs {
		if isPrivateAddress(addr.IP) {
			return newError(CodeNetworkError, "endpoint host %q resolves to private address %s", host, addr.IP)
		}
	}

	return nil
}

// isPrivateAddress reports whether ip falls in a range that outbound AI
// calls must never reach: loopback, RFC1918, link-local (v4 and v6),
// unspecified, and IPv6 unique-local. IPv4-mapped IPv6 addresses are
// normalized by net.IP before the checks apply.
func isPrivateAddress(ip net.IP) bool {
	if ip.IsLoopback() || ip.IsPrivate() || ip.IsUnspecified() {
		return true
	}
	if ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() {
		return true
	}
	// fc00::/7 unique-local. net.IP.IsPrivate covers RFC1918 and fc00::/7
	// from Go 1.17 on, but keep the explicit check for clarity with
	// 16-byte representations that are not v4-mapped.
	if v4 := ip.To4(); v4 == nil && len(ip) == net.IPv6len {
		if ip[0]&0xfe == 0xfc {
			return true
		}
	}
	return false
}

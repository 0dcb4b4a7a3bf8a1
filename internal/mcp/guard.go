package mcp

import (
	"crypto/subtle"
	"net"
	"net/http"
	"strings"

	"github.com/payram/file-manager-mcp-server/internal/protocol"
)

// NewHTTPGuard restricts the HTTP transport. Loopback callers and addresses
// inside the comma-separated CIDR allowlist pass; everyone else gets 403.
// A non-empty token additionally requires "Authorization: Bearer <token>".
func NewHTTPGuard(token, allowlist string) func(http.Handler) http.Handler {
	g := &httpGuard{token: token, allowed: parseAllowlist(allowlist)}
	return g.wrap
}

type httpGuard struct {
	token   string
	allowed []*net.IPNet
}

func (g *httpGuard) wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !g.isAllowed(parseRemoteIP(r.RemoteAddr)) {
			writeJSON(w, protocol.NewError(nil, protocol.Errorf(protocol.CodeInvalidRequest, "Forbidden: request IP not allowed")), http.StatusForbidden)
			return
		}
		if g.token != "" {
			const bearerPrefix = "Bearer "
			auth := r.Header.Get("Authorization")
			provided := strings.TrimSpace(strings.TrimPrefix(auth, bearerPrefix))
			if !strings.HasPrefix(auth, bearerPrefix) || subtle.ConstantTimeCompare([]byte(provided), []byte(g.token)) != 1 {
				writeJSON(w, protocol.NewError(nil, protocol.Errorf(protocol.CodeInvalidRequest, "Unauthorized: missing or invalid bearer token")), http.StatusUnauthorized)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (g *httpGuard) isAllowed(ip net.IP) bool {
	if ip == nil {
		return false
	}
	if ip.IsLoopback() {
		return true
	}
	for _, network := range g.allowed {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}

func parseRemoteIP(remoteAddr string) net.IP {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err == nil {
		return net.ParseIP(host)
	}
	return net.ParseIP(remoteAddr)
}

func parseAllowlist(raw string) []*net.IPNet {
	var networks []*net.IPNet
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		_, network, err := net.ParseCIDR(entry)
		if err != nil {
			continue
		}
		networks = append(networks, network)
	}
	return networks
}

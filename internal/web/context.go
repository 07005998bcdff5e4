package web

import (
	"context"
	"net"
	"net/http"

	"github.com/JonMunkholm/csvloc/internal/core"
)

// withRequestMetadata adds client IP and User-Agent to ctx so jobs started
// by the request record who asked for them.
func withRequestMetadata(ctx context.Context, r *http.Request) context.Context {
	ip := r.RemoteAddr // Already processed by the trusted real IP middleware
	if host, _, err := net.SplitHostPort(ip); err == nil {
		ip = host
	}
	ctx = core.ContextWithClientIP(ctx, ip)
	ctx = core.ContextWithUserAgent(ctx, r.UserAgent())
	return ctx
}

package middleware

import (
	"context"
	"net"
	"net/http"
)

// contextKey defines a custom type for context keys to avoid collisions.
type contextKey string

const clientContextKey = contextKey("client")

// ClientInfo describes the caller of a request as far as analytics care.
type ClientInfo struct {
	IP        string
	UserAgent string
	Referrer  string
}

// GetClientInfo retrieves the client information from the request context.
func GetClientInfo(ctx context.Context) *ClientInfo {
	if info, ok := ctx.Value(clientContextKey).(*ClientInfo); ok {
		return info
	}
	return &ClientInfo{}
}

// SetClientInfo adds the client information to the request context.
func SetClientInfo(ctx context.Context, info *ClientInfo) context.Context {
	return context.WithValue(ctx, clientContextKey, info)
}

// Client stores the caller's address, user agent and referrer in the request
// context. It expects chi's RealIP middleware to have run first.
func Client(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := r.RemoteAddr
		if host, _, err := net.SplitHostPort(ip); err == nil {
			ip = host
		}
		info := &ClientInfo{
			IP:        ip,
			UserAgent: r.UserAgent(),
			Referrer:  r.Referer(),
		}
		next.ServeHTTP(w, r.WithContext(SetClientInfo(r.Context(), info)))
	})
}

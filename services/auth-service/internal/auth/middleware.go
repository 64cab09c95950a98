package auth

import (
	"net/http"

	authlib "github.com/weirdname404/async-arch-course/libs/auth"
)

// Middleware enforces bearer-token authentication on incoming requests.
type Middleware struct {
	inner authlib.Middleware
}

// NewMiddleware constructs Middleware with validation config. Login, health
// and metrics endpoints stay open.
func NewMiddleware(cfg Config) Middleware {
	skipper := func(r *http.Request) bool {
		switch r.URL.Path {
		case "/auth/login", "/healthz", "/metrics":
			return true
		}
		return false
	}
	return Middleware{inner: authlib.NewMiddleware(authlib.Config(cfg), skipper)}
}

// Wrap attaches authentication handling to an http.Handler.
func (m Middleware) Wrap(next http.Handler) http.Handler {
	return m.inner.Wrap(next)
}

// Package auth adapts the shared token library for the auth service.
package auth

import (
	"context"
	"time"

	authlib "github.com/weirdname404/async-arch-course/libs/auth"
)

// Role constants re-exported for service convenience.
const (
	RoleDev     = authlib.RoleDev
	RoleAdmin   = authlib.RoleAdmin
	RoleManager = authlib.RoleManager
)

// Claims mirrors the shared auth claims type for service convenience.
type Claims = authlib.Claims

// Config mirrors the shared auth config.
type Config = authlib.Config

// IssueToken signs an access token for the given user.
func IssueToken(username, role string, ttl time.Duration, cfg Config) (string, error) {
	return authlib.Issue(username, role, ttl, cfg)
}

// WithClaims stores the claims in the request context.
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return authlib.WithClaims(ctx, claims)
}

// FromContext retrieves claims from context.
func FromContext(ctx context.Context) (*Claims, bool) {
	return authlib.FromContext(ctx)
}

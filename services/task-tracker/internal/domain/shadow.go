package domain

import "context"

// ShadowUser is the tracker-local replica of an auth-service account,
// maintained by the event reconciler. It carries only the fields the tracker
// needs to authorize requests and validate assignees.
type ShadowUser struct {
	PubID    string
	Username string
	Email    string
	Role     string
	IsActive bool
}

// ShadowUserPatch is a partial shadow update. Nil fields are left untouched.
type ShadowUserPatch struct {
	Username *string
	Email    *string
	Role     *string
	IsActive *bool
}

// Empty reports whether the patch would change nothing.
func (p ShadowUserPatch) Empty() bool {
	return p.Username == nil && p.Email == nil && p.Role == nil && p.IsActive == nil
}

// ShadowUserRepository stores the replicated user set keyed by pub_id.
// Find methods return nil without error when no document matches.
type ShadowUserRepository interface {
	FindByPubID(ctx context.Context, pubID string) (*ShadowUser, error)
	FindByUsername(ctx context.Context, username string) (*ShadowUser, error)
	Upsert(ctx context.Context, user ShadowUser) error
	Apply(ctx context.Context, pubID string, patch ShadowUserPatch) (int64, error)
	Delete(ctx context.Context, pubID string) (int64, error)
}

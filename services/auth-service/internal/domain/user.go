package domain

import "time"

// User is the authoritative account record owned by the auth service. ID is
// the internal storage identifier; PubID is the stable identifier other
// services join on.
type User struct {
	ID           string
	PubID        string
	Username     string
	PasswordHash string
	Role         string
	Email        string
	Name         string
	IsActive     bool
	CreatedAt    time.Time
}

// PublicFields returns the event/API view of the user. The password hash and
// the internal id never leave this service.
func (u User) PublicFields() map[string]any {
	data := map[string]any{
		"pub_id":    u.PubID,
		"username":  u.Username,
		"email":     u.Email,
		"role":      u.Role,
		"is_active": u.IsActive,
	}
	if u.Name != "" {
		data["name"] = u.Name
	}
	return data
}

// CreateUserInput captures the payload for user creation.
type CreateUserInput struct {
	Username string
	Password string
	Role     string
	Email    string
	Name     string
}

// UpdateUserInput carries a partial update; nil fields stay untouched.
type UpdateUserInput struct {
	Username *string
	Password *string
	Role     *string
	Email    *string
	Name     *string
	IsActive *bool
}

// Empty reports whether the update carries no fields at all.
func (in UpdateUserInput) Empty() bool {
	return in.Username == nil && in.Password == nil && in.Role == nil &&
		in.Email == nil && in.Name == nil && in.IsActive == nil
}

// Sensitive reports whether the update touches fields only admins may change.
func (in UpdateUserInput) Sensitive() bool {
	return in.Role != nil || in.IsActive != nil
}

// PublicFields returns the changed fields that are broadcast in the
// user_updated event payload.
func (in UpdateUserInput) PublicFields() map[string]any {
	data := make(map[string]any)
	if in.Username != nil {
		data["username"] = *in.Username
	}
	if in.Role != nil {
		data["role"] = *in.Role
	}
	if in.Email != nil {
		data["email"] = *in.Email
	}
	if in.Name != nil {
		data["name"] = *in.Name
	}
	if in.IsActive != nil {
		data["is_active"] = *in.IsActive
	}
	return data
}

// UserPatch is the persisted subset of an update, with the password already
// hashed.
type UserPatch struct {
	Username     *string
	PasswordHash *string
	Role         *string
	Email        *string
	Name         *string
	IsActive     *bool
}

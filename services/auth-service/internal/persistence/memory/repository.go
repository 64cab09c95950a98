// Package memory provides an in-memory user repository for tests and local
// development.
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/weirdname404/async-arch-course/services/auth-service/internal/domain"
)

// Repository stores users in a mutex-guarded map keyed by pub_id.
type Repository struct {
	mu    sync.RWMutex
	users map[string]domain.User
}

// NewRepository constructs an empty Repository.
func NewRepository() *Repository {
	return &Repository{users: make(map[string]domain.User)}
}

// FindByPubID implements domain.UserRepository.
func (r *Repository) FindByPubID(_ context.Context, pubID string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[pubID]
	if !ok {
		return nil, nil
	}
	return &user, nil
}

// FindByUsername implements domain.UserRepository.
func (r *Repository) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, user := range r.users {
		if user.Username == username {
			u := user
			return &u, nil
		}
	}
	return nil, nil
}

// List implements domain.UserRepository.
func (r *Repository) List(_ context.Context) ([]domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.User, 0, len(r.users))
	for _, user := range r.users {
		out = append(out, user)
	}
	return out, nil
}

// Insert implements domain.UserRepository.
func (r *Repository) Insert(_ context.Context, user domain.User) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	r.users[user.PubID] = user
	return user.ID, nil
}

// Update implements domain.UserRepository.
func (r *Repository) Update(_ context.Context, pubID string, patch domain.UserPatch) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[pubID]
	if !ok {
		return 0, nil
	}
	if patch.Username != nil {
		user.Username = *patch.Username
	}
	if patch.PasswordHash != nil {
		user.PasswordHash = *patch.PasswordHash
	}
	if patch.Role != nil {
		user.Role = *patch.Role
	}
	if patch.Email != nil {
		user.Email = *patch.Email
	}
	if patch.Name != nil {
		user.Name = *patch.Name
	}
	if patch.IsActive != nil {
		user.IsActive = *patch.IsActive
	}
	r.users[pubID] = user
	return 1, nil
}

// Delete implements domain.UserRepository.
func (r *Repository) Delete(_ context.Context, pubID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[pubID]; !ok {
		return 0, nil
	}
	delete(r.users, pubID)
	return 1, nil
}

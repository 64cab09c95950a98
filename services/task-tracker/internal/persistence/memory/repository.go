// Package memory provides in-memory task and shadow user repositories for
// tests and local development.
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/weirdname404/async-arch-course/services/task-tracker/internal/domain"
)

// TaskRepository stores tasks in a mutex-guarded map keyed by pub_id.
type TaskRepository struct {
	mu    sync.RWMutex
	tasks map[string]domain.Task
}

// NewTaskRepository constructs an empty TaskRepository.
func NewTaskRepository() *TaskRepository {
	return &TaskRepository{tasks: make(map[string]domain.Task)}
}

// FindByPubID implements domain.TaskRepository.
func (r *TaskRepository) FindByPubID(_ context.Context, pubID string) (*domain.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	task, ok := r.tasks[pubID]
	if !ok {
		return nil, nil
	}
	return &task, nil
}

// List implements domain.TaskRepository.
func (r *TaskRepository) List(_ context.Context) ([]domain.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Task, 0, len(r.tasks))
	for _, task := range r.tasks {
		out = append(out, task)
	}
	return out, nil
}

// Insert implements domain.TaskRepository.
func (r *TaskRepository) Insert(_ context.Context, task domain.Task) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	r.tasks[task.PubID] = task
	return task.ID, nil
}

// Update implements domain.TaskRepository.
func (r *TaskRepository) Update(_ context.Context, pubID string, patch domain.TaskPatch) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	task, ok := r.tasks[pubID]
	if !ok {
		return 0, nil
	}
	if patch.Title != nil {
		task.Title = *patch.Title
	}
	if patch.Description != nil {
		task.Description = *patch.Description
	}
	if patch.IsOpen != nil {
		task.IsOpen = *patch.IsOpen
	}
	r.tasks[pubID] = task
	return 1, nil
}

// Delete implements domain.TaskRepository.
func (r *TaskRepository) Delete(_ context.Context, pubID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tasks[pubID]; !ok {
		return 0, nil
	}
	delete(r.tasks, pubID)
	return 1, nil
}

// ShadowUserRepository stores shadow users in a mutex-guarded map keyed by
// pub_id.
type ShadowUserRepository struct {
	mu    sync.RWMutex
	users map[string]domain.ShadowUser
}

// NewShadowUserRepository constructs an empty ShadowUserRepository.
func NewShadowUserRepository() *ShadowUserRepository {
	return &ShadowUserRepository{users: make(map[string]domain.ShadowUser)}
}

// FindByPubID implements domain.ShadowUserRepository.
func (r *ShadowUserRepository) FindByPubID(_ context.Context, pubID string) (*domain.ShadowUser, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[pubID]
	if !ok {
		return nil, nil
	}
	return &user, nil
}

// FindByUsername implements domain.ShadowUserRepository.
func (r *ShadowUserRepository) FindByUsername(_ context.Context, username string) (*domain.ShadowUser, error) {
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

// Upsert implements domain.ShadowUserRepository.
func (r *ShadowUserRepository) Upsert(_ context.Context, user domain.ShadowUser) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.users[user.PubID] = user
	return nil
}

// Apply implements domain.ShadowUserRepository.
func (r *ShadowUserRepository) Apply(_ context.Context, pubID string, patch domain.ShadowUserPatch) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[pubID]
	if !ok {
		return 0, nil
	}
	if patch.Username != nil {
		user.Username = *patch.Username
	}
	if patch.Email != nil {
		user.Email = *patch.Email
	}
	if patch.Role != nil {
		user.Role = *patch.Role
	}
	if patch.IsActive != nil {
		user.IsActive = *patch.IsActive
	}
	r.users[pubID] = user
	return 1, nil
}

// Delete implements domain.ShadowUserRepository.
func (r *ShadowUserRepository) Delete(_ context.Context, pubID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[pubID]; !ok {
		return 0, nil
	}
	delete(r.users, pubID)
	return 1, nil
}

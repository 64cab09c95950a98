// Package domain defines the business logic for the task tracker.
package domain

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/weirdname404/async-arch-course/libs/auth"
)

var (
	// ErrTaskNotFound is returned when no task matches the given pub_id.
	ErrTaskNotFound = errors.New("task not found")
	// ErrAssigneeNotFound is returned when the assignee pub_id is unknown.
	ErrAssigneeNotFound = errors.New("assignee not found")
	// ErrAssigneeNotDev is returned when a task is assigned to a non-dev.
	ErrAssigneeNotDev = errors.New("tasks can only be assigned to devs")
	// ErrValidation wraps input validation failures.
	ErrValidation = errors.New("validation failed")
)

// TaskRepository captures the document-store operations the service needs.
// Find methods return nil without error when no document matches.
type TaskRepository interface {
	FindByPubID(ctx context.Context, pubID string) (*Task, error)
	List(ctx context.Context) ([]Task, error)
	Insert(ctx context.Context, task Task) (string, error)
	Update(ctx context.Context, pubID string, patch TaskPatch) (int64, error)
	Delete(ctx context.Context, pubID string) (int64, error)
}

// TaskService orchestrates task CRUD against the shadow user set.
type TaskService struct {
	tasks  TaskRepository
	users  ShadowUserRepository
	logger *log.Logger
}

// NewTaskService constructs a TaskService.
func NewTaskService(tasks TaskRepository, users ShadowUserRepository, logger *log.Logger) *TaskService {
	if logger == nil {
		logger = log.Default()
	}
	return &TaskService{tasks: tasks, users: users, logger: logger}
}

// CreateTask validates the assignee against the shadow user set and stores
// the task.
func (s *TaskService) CreateTask(ctx context.Context, input CreateTaskInput) (*Task, error) {
	if strings.TrimSpace(input.Title) == "" {
		return nil, fmt.Errorf("%w: title is required", ErrValidation)
	}
	if err := s.checkAssignee(ctx, input.AssigneePubID); err != nil {
		return nil, err
	}

	task := Task{
		PubID:         NewTaskPubID(),
		Title:         input.Title,
		Description:   input.Description,
		IsOpen:        true,
		AssigneePubID: input.AssigneePubID,
		CreatedAt:     time.Now().UTC(),
	}
	id, err := s.tasks.Insert(ctx, task)
	if err != nil {
		return nil, err
	}
	task.ID = id
	s.logger.Printf("task %s created for %s", task.PubID, task.AssigneePubID)
	return &task, nil
}

// GetTask fetches a task by pub_id.
func (s *TaskService) GetTask(ctx context.Context, pubID string) (*Task, error) {
	task, err := s.tasks.FindByPubID(ctx, pubID)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, ErrTaskNotFound
	}
	return task, nil
}

// ListTasks returns all tasks.
func (s *TaskService) ListTasks(ctx context.Context) ([]Task, error) {
	return s.tasks.List(ctx)
}

// UpdateTask applies a partial update and returns the current task state.
func (s *TaskService) UpdateTask(ctx context.Context, pubID string, input UpdateTaskInput) (*Task, error) {
	if input.Title != nil && strings.TrimSpace(*input.Title) == "" {
		return nil, fmt.Errorf("%w: title cannot be empty", ErrValidation)
	}

	if !input.Empty() {
		patch := TaskPatch{
			Title:       input.Title,
			Description: input.Description,
			IsOpen:      input.IsOpen,
		}
		if _, err := s.tasks.Update(ctx, pubID, patch); err != nil {
			return nil, err
		}
	}

	task, err := s.tasks.FindByPubID(ctx, pubID)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, ErrTaskNotFound
	}
	return task, nil
}

// DeleteTask removes a task.
func (s *TaskService) DeleteTask(ctx context.Context, pubID string) error {
	deleted, err := s.tasks.Delete(ctx, pubID)
	if err != nil {
		return err
	}
	if deleted == 0 {
		return ErrTaskNotFound
	}
	return nil
}

func (s *TaskService) checkAssignee(ctx context.Context, pubID string) error {
	if strings.TrimSpace(pubID) == "" {
		return fmt.Errorf("%w: assignee pub_id is required", ErrValidation)
	}
	user, err := s.users.FindByPubID(ctx, pubID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrAssigneeNotFound
	}
	if user.Role != auth.RoleDev {
		return ErrAssigneeNotDev
	}
	return nil
}

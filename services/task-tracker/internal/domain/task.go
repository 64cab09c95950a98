package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Task is a unit of work assigned to a dev. Tasks open on creation and are
// closed by flipping IsOpen.
type Task struct {
	ID            string
	PubID         string
	Title         string
	Description   string
	IsOpen        bool
	AssigneePubID string
	CreatedAt     time.Time
}

// NewTaskPubID generates the short public task id.
func NewTaskPubID() string {
	hex := strings.ReplaceAll(uuid.NewString(), "-", "")
	return hex[:16]
}

// CreateTaskInput carries the fields of a task creation request.
type CreateTaskInput struct {
	Title         string
	Description   string
	AssigneePubID string
}

// UpdateTaskInput is a partial task update. Nil fields are left untouched.
// Reassignment is not supported; tasks stay with the dev they were created
// for.
type UpdateTaskInput struct {
	Title       *string
	Description *string
	IsOpen      *bool
}

// Empty reports whether the update would change nothing.
func (u UpdateTaskInput) Empty() bool {
	return u.Title == nil && u.Description == nil && u.IsOpen == nil
}

// TaskPatch mirrors UpdateTaskInput at the repository boundary.
type TaskPatch struct {
	Title       *string
	Description *string
	IsOpen      *bool
}

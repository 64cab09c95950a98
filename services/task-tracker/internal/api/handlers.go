// Package api exposes HTTP handlers for the task tracker.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/weirdname404/async-arch-course/services/task-tracker/internal/auth"
	"github.com/weirdname404/async-arch-course/services/task-tracker/internal/domain"
)

// Handler coordinates HTTP requests with the task service and the shadow
// user collection.
type Handler struct {
	service *domain.TaskService
	users   domain.ShadowUserRepository
}

// NewHandler builds a Handler.
func NewHandler(service *domain.TaskService, users domain.ShadowUserRepository) *Handler {
	return &Handler{service: service, users: users}
}

// RegisterRoutes wires endpoints to the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/tasks", h.tasks)
	mux.HandleFunc("/tasks/", h.taskByPubID)
	mux.HandleFunc("/healthz", healthz)
}

// healthz reports a simple OK status for container health checks.
func healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) tasks(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.createTask(w, r)
	case http.MethodGet:
		h.listTasks(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
	}
}

func (h *Handler) taskByPubID(w http.ResponseWriter, r *http.Request) {
	pubID := strings.TrimPrefix(r.URL.Path, "/tasks/")
	if pubID == "" || strings.Contains(pubID, "/") {
		writeError(w, http.StatusBadRequest, "invalid_request", "missing task id")
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.getTask(w, r, pubID)
	case http.MethodPatch:
		h.updateTask(w, r, pubID)
	case http.MethodDelete:
		h.deleteTask(w, r, pubID)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
	}
}

func (h *Handler) createTask(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.currentUser(w, r); !ok {
		return
	}

	var req CreateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}

	task, err := h.service.CreateTask(r.Context(), domain.CreateTaskInput{
		Title:         req.Title,
		Description:   req.Description,
		AssigneePubID: req.AssigneePubID,
	})
	if err != nil {
		writeTaskError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toTaskView(*task))
}

func (h *Handler) listTasks(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.currentUser(w, r); !ok {
		return
	}

	tasks, err := h.service.ListTasks(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}

	items := make([]TaskView, 0, len(tasks))
	for _, task := range tasks {
		items = append(items, toTaskView(task))
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (h *Handler) getTask(w http.ResponseWriter, r *http.Request, pubID string) {
	if _, ok := h.currentUser(w, r); !ok {
		return
	}

	task, err := h.service.GetTask(r.Context(), pubID)
	if err != nil {
		writeTaskError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTaskView(*task))
}

func (h *Handler) updateTask(w http.ResponseWriter, r *http.Request, pubID string) {
	if _, ok := h.currentUser(w, r); !ok {
		return
	}

	var req UpdateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}

	task, err := h.service.UpdateTask(r.Context(), pubID, domain.UpdateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		IsOpen:      req.IsOpen,
	})
	if err != nil {
		writeTaskError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toTaskView(*task))
}

func (h *Handler) deleteTask(w http.ResponseWriter, r *http.Request, pubID string) {
	if _, ok := h.currentUser(w, r); !ok {
		return
	}

	if err := h.service.DeleteTask(r.Context(), pubID); err != nil {
		writeTaskError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// currentUser resolves the bearer token subject against the shadow user
// collection. The tracker trusts the token signature but still refuses
// callers whose replicated account is unknown or deactivated.
func (h *Handler) currentUser(w http.ResponseWriter, r *http.Request) (*domain.ShadowUser, bool) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return nil, false
	}

	user, err := h.users.FindByUsername(r.Context(), claims.Subject)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return nil, false
	}
	if user == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized", "could not validate credentials")
		return nil, false
	}
	if !user.IsActive {
		writeError(w, http.StatusForbidden, "forbidden", "inactive user")
		return nil, false
	}
	return user, true
}

// writeTaskError maps an unknown assignee to 404 and a known non-dev
// assignee to 400: the first is a lookup miss, the second a rule violation.
func writeTaskError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrAssigneeNotDev):
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
	case errors.Is(err, domain.ErrAssigneeNotFound):
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, domain.ErrTaskNotFound):
		writeError(w, http.StatusNotFound, "not_found", "task not found")
	default:
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
	}
}

// CreateTaskRequest is the payload for POST /tasks.
type CreateTaskRequest struct {
	Title         string `json:"title"`
	Description   string `json:"description,omitempty"`
	AssigneePubID string `json:"assignee_id"`
}

// UpdateTaskRequest is the payload for PATCH /tasks/{pub_id}.
type UpdateTaskRequest struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	IsOpen      *bool   `json:"is_open,omitempty"`
}

// TaskView is the public representation of a task.
type TaskView struct {
	PubID         string `json:"pub_id"`
	Title         string `json:"title"`
	Description   string `json:"description,omitempty"`
	IsOpen        bool   `json:"is_open"`
	AssigneePubID string `json:"assignee_id"`
}

func toTaskView(task domain.Task) TaskView {
	return TaskView{
		PubID:         task.PubID,
		Title:         task.Title,
		Description:   task.Description,
		IsOpen:        task.IsOpen,
		AssigneePubID: task.AssigneePubID,
	}
}

func writeError(w http.ResponseWriter, status int, code, detail string) {
	writeJSON(w, status, map[string]string{"type": code, "detail": detail})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

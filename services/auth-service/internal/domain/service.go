// Package domain defines the business logic for the auth/user service.
package domain

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/weirdname404/async-arch-course/libs/auth"
	"github.com/weirdname404/async-arch-course/libs/events"
)

var (
	// ErrUserNotFound is returned when no user matches the given pub_id.
	ErrUserNotFound = errors.New("user not found")
	// ErrUsernameTaken is returned when the requested username already exists.
	ErrUsernameTaken = errors.New("username already taken")
	// ErrBadCredentials is returned on a failed login attempt.
	ErrBadCredentials = errors.New("incorrect username or password")
	// ErrInactiveUser is returned when a deactivated account is used.
	ErrInactiveUser = errors.New("inactive user")
	// ErrInsufficientRights is returned when the caller's role does not allow the operation.
	ErrInsufficientRights = errors.New("insufficient rights")
	// ErrValidation wraps input validation failures.
	ErrValidation = errors.New("validation failed")
)

// UserRepository captures the document-store operations the service needs.
// Find methods return nil without error when no document matches.
type UserRepository interface {
	FindByPubID(ctx context.Context, pubID string) (*User, error)
	FindByUsername(ctx context.Context, username string) (*User, error)
	List(ctx context.Context) ([]User, error)
	Insert(ctx context.Context, user User) (string, error)
	Update(ctx context.Context, pubID string, patch UserPatch) (int64, error)
	Delete(ctx context.Context, pubID string) (int64, error)
}

// PasswordHasher is the opaque one-way hash/verify capability.
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(plain, digest string) bool
}

// EventPublisher broadcasts user lifecycle events. Delivery is best-effort:
// the service logs failures and never rolls back the store write.
type EventPublisher interface {
	PublishCUD(ctx context.Context, kind events.Kind, data map[string]any) error
	PublishBIZ(ctx context.Context, kind events.Kind, data map[string]any) error
}

// Service orchestrates user CRUD, credential checks and event publication.
type Service struct {
	repo      UserRepository
	hasher    PasswordHasher
	publisher EventPublisher
	logger    *log.Logger
}

// NewService constructs a Service.
func NewService(repo UserRepository, hasher PasswordHasher, publisher EventPublisher, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.Default()
	}
	return &Service{repo: repo, hasher: hasher, publisher: publisher, logger: logger}
}

// Authenticate verifies a username/password pair and returns the matching
// active user.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*User, error) {
	user, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil || !s.hasher.Verify(password, user.PasswordHash) {
		return nil, ErrBadCredentials
	}
	if !user.IsActive {
		return nil, ErrInactiveUser
	}
	return user, nil
}

// ActiveUser resolves a token subject to an active account.
func (s *Service) ActiveUser(ctx context.Context, username string) (*User, error) {
	user, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	if !user.IsActive {
		return nil, ErrInactiveUser
	}
	return user, nil
}

// CreateUser validates input, stores the user and publishes user_created.
func (s *Service) CreateUser(ctx context.Context, input CreateUserInput) (*User, error) {
	if err := validateCreate(input); err != nil {
		return nil, err
	}

	existing, err := s.repo.FindByUsername(ctx, input.Username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrUsernameTaken
	}

	digest, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	user := User{
		PubID:        uuid.NewString(),
		Username:     input.Username,
		PasswordHash: digest,
		Role:         input.Role,
		Email:        input.Email,
		Name:         input.Name,
		IsActive:     true,
		CreatedAt:    time.Now().UTC(),
	}

	id, err := s.repo.Insert(ctx, user)
	if err != nil {
		return nil, err
	}
	user.ID = id

	s.publishCUD(ctx, events.UserCreated, user.PublicFields())
	return &user, nil
}

// GetUser fetches a user by pub_id.
func (s *Service) GetUser(ctx context.Context, pubID string) (*User, error) {
	user, err := s.repo.FindByPubID(ctx, pubID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// ListUsers returns all users.
func (s *Service) ListUsers(ctx context.Context) ([]User, error) {
	return s.repo.List(ctx)
}

// UpdateUser applies a partial update on behalf of actor and publishes
// user_updated, plus user_role_changed when the role was touched.
func (s *Service) UpdateUser(ctx context.Context, actor *User, pubID string, input UpdateUserInput) (*User, error) {
	if input.Sensitive() && actor.Role != auth.RoleAdmin {
		return nil, ErrInsufficientRights
	}
	if input.Role != nil && !auth.ValidRole(*input.Role) {
		return nil, fmt.Errorf("%w: unknown role %q", ErrValidation, *input.Role)
	}

	patch := UserPatch{
		Username: input.Username,
		Role:     input.Role,
		Email:    input.Email,
		Name:     input.Name,
		IsActive: input.IsActive,
	}
	if input.Password != nil {
		digest, err := s.hasher.Hash(*input.Password)
		if err != nil {
			return nil, err
		}
		patch.PasswordHash = &digest
	}

	if !input.Empty() {
		if _, err := s.repo.Update(ctx, pubID, patch); err != nil {
			return nil, err
		}
	}

	user, err := s.repo.FindByPubID(ctx, pubID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	if data := input.PublicFields(); len(data) > 0 {
		data["pub_id"] = pubID
		s.publishCUD(ctx, events.UserUpdated, data)
		if input.Role != nil {
			s.publishBIZ(ctx, events.UserRoleChanged, data)
		}
	}

	return user, nil
}

// DeleteUser removes a user and publishes user_deleted.
func (s *Service) DeleteUser(ctx context.Context, pubID string) error {
	deleted, err := s.repo.Delete(ctx, pubID)
	if err != nil {
		return err
	}
	if deleted == 0 {
		return ErrUserNotFound
	}
	s.publishCUD(ctx, events.UserDeleted, map[string]any{"pub_id": pubID})
	return nil
}

// Superuser bootstrap identity, stable across restarts.
const (
	SuperuserPubID    = "0a9c5bfe-af63-457b-811b-c1cdcd375222"
	superuserUsername = "admin"
	superuserPassword = "admin"
	superuserEmail    = "admin@admin.com"
)

// EnsureSuperuser creates the bootstrap admin account on first start and
// publishes its user_created event.
func (s *Service) EnsureSuperuser(ctx context.Context) (*User, error) {
	existing, err := s.repo.FindByPubID(ctx, SuperuserPubID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		s.logger.Printf("superuser exists")
		return existing, nil
	}

	digest, err := s.hasher.Hash(superuserPassword)
	if err != nil {
		return nil, err
	}

	user := User{
		PubID:        SuperuserPubID,
		Username:     superuserUsername,
		PasswordHash: digest,
		Role:         auth.RoleAdmin,
		Email:        superuserEmail,
		IsActive:     true,
		CreatedAt:    time.Now().UTC(),
	}
	id, err := s.repo.Insert(ctx, user)
	if err != nil {
		return nil, err
	}
	user.ID = id
	s.logger.Printf("superuser created")
	s.publishCUD(ctx, events.UserCreated, user.PublicFields())
	return &user, nil
}

func (s *Service) publishCUD(ctx context.Context, kind events.Kind, data map[string]any) {
	if err := s.publisher.PublishCUD(ctx, kind, data); err != nil {
		s.logger.Printf("publish %s failed, shadow copies will diverge until the next event: %v", kind, err)
	}
}

func (s *Service) publishBIZ(ctx context.Context, kind events.Kind, data map[string]any) {
	if err := s.publisher.PublishBIZ(ctx, kind, data); err != nil {
		s.logger.Printf("publish %s failed: %v", kind, err)
	}
}

func validateCreate(input CreateUserInput) error {
	if strings.TrimSpace(input.Username) == "" {
		return fmt.Errorf("%w: username is required", ErrValidation)
	}
	if input.Password == "" {
		return fmt.Errorf("%w: password is required", ErrValidation)
	}
	if !auth.ValidRole(input.Role) {
		return fmt.Errorf("%w: unknown role %q", ErrValidation, input.Role)
	}
	if !strings.Contains(input.Email, "@") {
		return fmt.Errorf("%w: invalid email", ErrValidation)
	}
	return nil
}

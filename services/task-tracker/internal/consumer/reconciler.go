package consumer

import (
	"context"
	"fmt"
	"log"

	"github.com/weirdname404/async-arch-course/libs/events"
	"github.com/weirdname404/async-arch-course/services/task-tracker/internal/domain"
)

// Reconciler applies user CUD events to the shadow user collection. All
// writes are keyed by pub_id, so replays and duplicates are harmless.
type Reconciler struct {
	users  domain.ShadowUserRepository
	logger *log.Logger
}

// NewReconciler constructs a reconciler over the shadow user repository.
func NewReconciler(users domain.ShadowUserRepository, logger *log.Logger) *Reconciler {
	if logger == nil {
		logger = log.Default()
	}
	return &Reconciler{users: users, logger: logger}
}

// Handle decodes the envelope and dispatches on the routing key.
func (r *Reconciler) Handle(ctx context.Context, msg Message) error {
	envelope, err := events.Decode(msg.Value)
	if err != nil {
		recordRejected("decode")
		return err
	}

	switch msg.Key {
	case events.KeyCUD:
		return r.handleCUD(ctx, msg, envelope)
	case events.KeyBIZ:
		r.handleBIZ(msg, envelope)
		return nil
	default:
		recordRejected("unknown_key")
		r.logger.Printf("ignoring event %s with unknown key %q", envelope.Name, msg.Key)
		return nil
	}
}

func (r *Reconciler) handleCUD(ctx context.Context, msg Message, envelope events.Envelope) error {
	pubID := stringField(envelope.Data, "pub_id")
	if pubID == "" {
		recordRejected("missing_pub_id")
		return fmt.Errorf("event %s (%s) has no pub_id", envelope.Name, envelope.ID)
	}

	switch envelope.Name {
	case events.UserCreated:
		if err := r.users.Upsert(ctx, shadowFromPayload(pubID, envelope.Data)); err != nil {
			return fmt.Errorf("apply %s: %w", envelope.Name, err)
		}

	case events.UserUpdated:
		if err := r.applyUpdate(ctx, pubID, envelope.Data); err != nil {
			return fmt.Errorf("apply %s: %w", envelope.Name, err)
		}

	case events.UserDeleted:
		deleted, err := r.users.Delete(ctx, pubID)
		if err != nil {
			return fmt.Errorf("apply %s: %w", envelope.Name, err)
		}
		if deleted == 0 {
			r.logger.Printf("delete for unknown user %s, nothing to do", pubID)
		}

	default:
		recordRejected("unknown_kind")
		r.logger.Printf("ignoring unknown cud event %q (%s)", envelope.Name, envelope.ID)
		return nil
	}

	recordProcessed(msg, string(envelope.Name))
	return nil
}

// applyUpdate patches an existing shadow user. When the user is unknown,
// perhaps because an earlier event was lost, the update's payload is
// promoted to a full shadow record so the copy heals itself.
func (r *Reconciler) applyUpdate(ctx context.Context, pubID string, data map[string]any) error {
	patch := domain.ShadowUserPatch{
		Username: optionalString(data, "username"),
		Email:    optionalString(data, "email"),
		Role:     optionalString(data, "role"),
		IsActive: optionalBool(data, "is_active"),
	}
	if patch.Empty() {
		return nil
	}

	matched, err := r.users.Apply(ctx, pubID, patch)
	if err != nil {
		return err
	}
	if matched > 0 {
		return nil
	}
	return r.users.Upsert(ctx, shadowFromPayload(pubID, data))
}

func (r *Reconciler) handleBIZ(msg Message, envelope events.Envelope) {
	switch envelope.Name {
	case events.UserRoleChanged:
		r.logger.Printf("user %s changed role to %q", stringField(envelope.Data, "pub_id"), stringField(envelope.Data, "role"))
	default:
		r.logger.Printf("ignoring biz event %q (%s)", envelope.Name, envelope.ID)
	}
	recordProcessed(msg, string(envelope.Name))
}

func shadowFromPayload(pubID string, data map[string]any) domain.ShadowUser {
	user := domain.ShadowUser{
		PubID:    pubID,
		Username: stringField(data, "username"),
		Email:    stringField(data, "email"),
		Role:     stringField(data, "role"),
		IsActive: true,
	}
	if active := optionalBool(data, "is_active"); active != nil {
		user.IsActive = *active
	}
	return user
}

func stringField(data map[string]any, key string) string {
	value, _ := data[key].(string)
	return value
}

func optionalString(data map[string]any, key string) *string {
	if value, ok := data[key].(string); ok {
		return &value
	}
	return nil
}

func optionalBool(data map[string]any, key string) *bool {
	if value, ok := data[key].(bool); ok {
		return &value
	}
	return nil
}

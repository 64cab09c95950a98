package consumer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/weirdname404/async-arch-course/libs/events"
	"github.com/weirdname404/async-arch-course/services/task-tracker/internal/domain"
	"github.com/weirdname404/async-arch-course/services/task-tracker/internal/persistence/memory"
)

func encodeEvent(t *testing.T, name events.Kind, data map[string]any) []byte {
	t.Helper()
	raw, err := events.Encode(events.NewEnvelope(name, data))
	require.NoError(t, err)
	return raw
}

func cudMessage(t *testing.T, name events.Kind, data map[string]any) Message {
	t.Helper()
	return Message{Topic: events.UserTopic, Key: events.KeyCUD, Value: encodeEvent(t, name, data)}
}

func TestUserCreatedMaterializesShadowUser(t *testing.T) {
	users := memory.NewShadowUserRepository()
	rec := NewReconciler(users, nil)

	msg := cudMessage(t, events.UserCreated, map[string]any{
		"pub_id":    "u-1",
		"username":  "alice",
		"email":     "alice@example.com",
		"role":      "dev",
		"is_active": true,
	})
	require.NoError(t, rec.Handle(context.Background(), msg))

	user, err := users.FindByPubID(context.Background(), "u-1")
	require.NoError(t, err)
	require.NotNil(t, user)
	require.Equal(t, "alice", user.Username)
	require.Equal(t, "dev", user.Role)
	require.True(t, user.IsActive)
}

func TestUserCreatedReplayIsIdempotent(t *testing.T) {
	users := memory.NewShadowUserRepository()
	rec := NewReconciler(users, nil)

	msg := cudMessage(t, events.UserCreated, map[string]any{
		"pub_id":   "u-1",
		"username": "alice",
		"role":     "dev",
	})
	require.NoError(t, rec.Handle(context.Background(), msg))
	require.NoError(t, rec.Handle(context.Background(), msg))

	user, err := users.FindByPubID(context.Background(), "u-1")
	require.NoError(t, err)
	require.NotNil(t, user)
	require.Equal(t, "alice", user.Username)
}

func TestUserUpdatedPatchesExistingUser(t *testing.T) {
	users := memory.NewShadowUserRepository()
	require.NoError(t, users.Upsert(context.Background(), domain.ShadowUser{
		PubID: "u-1", Username: "alice", Email: "alice@example.com", Role: "dev", IsActive: true,
	}))
	rec := NewReconciler(users, nil)

	msg := cudMessage(t, events.UserUpdated, map[string]any{
		"pub_id": "u-1",
		"role":   "manager",
	})
	require.NoError(t, rec.Handle(context.Background(), msg))

	user, err := users.FindByPubID(context.Background(), "u-1")
	require.NoError(t, err)
	require.Equal(t, "manager", user.Role)
	require.Equal(t, "alice", user.Username)
	require.Equal(t, "alice@example.com", user.Email)
}

func TestUserUpdatedForUnknownUserHealsShadowCopy(t *testing.T) {
	users := memory.NewShadowUserRepository()
	rec := NewReconciler(users, nil)

	msg := cudMessage(t, events.UserUpdated, map[string]any{
		"pub_id":   "u-ghost",
		"username": "ghost",
		"role":     "dev",
	})
	require.NoError(t, rec.Handle(context.Background(), msg))

	user, err := users.FindByPubID(context.Background(), "u-ghost")
	require.NoError(t, err)
	require.NotNil(t, user)
	require.Equal(t, "ghost", user.Username)
	require.Equal(t, "dev", user.Role)
	require.True(t, user.IsActive)
}

func TestUserDeletedRemovesShadowUser(t *testing.T) {
	users := memory.NewShadowUserRepository()
	require.NoError(t, users.Upsert(context.Background(), domain.ShadowUser{PubID: "u-1", Username: "alice"}))
	rec := NewReconciler(users, nil)

	msg := cudMessage(t, events.UserDeleted, map[string]any{"pub_id": "u-1"})
	require.NoError(t, rec.Handle(context.Background(), msg))

	user, err := users.FindByPubID(context.Background(), "u-1")
	require.NoError(t, err)
	require.Nil(t, user)

	// a replayed delete finds nothing and stays quiet
	require.NoError(t, rec.Handle(context.Background(), msg))
}

func TestMissingPubIDIsRejected(t *testing.T) {
	users := memory.NewShadowUserRepository()
	rec := NewReconciler(users, nil)

	msg := cudMessage(t, events.UserCreated, map[string]any{"username": "nameless"})
	require.Error(t, rec.Handle(context.Background(), msg))

	user, err := users.FindByUsername(context.Background(), "nameless")
	require.NoError(t, err)
	require.Nil(t, user)
}

func TestUnknownKindIsIgnored(t *testing.T) {
	users := memory.NewShadowUserRepository()
	rec := NewReconciler(users, nil)

	msg := cudMessage(t, events.Kind("user_promoted"), map[string]any{"pub_id": "u-1"})
	require.NoError(t, rec.Handle(context.Background(), msg))

	user, err := users.FindByPubID(context.Background(), "u-1")
	require.NoError(t, err)
	require.Nil(t, user)
}

func TestBizEventDoesNotMutateShadowState(t *testing.T) {
	users := memory.NewShadowUserRepository()
	require.NoError(t, users.Upsert(context.Background(), domain.ShadowUser{
		PubID: "u-1", Username: "alice", Role: "dev", IsActive: true,
	}))
	rec := NewReconciler(users, nil)

	msg := Message{
		Topic: events.UserTopic,
		Key:   events.KeyBIZ,
		Value: encodeEvent(t, events.UserRoleChanged, map[string]any{"pub_id": "u-1", "role": "manager"}),
	}
	require.NoError(t, rec.Handle(context.Background(), msg))

	user, err := users.FindByPubID(context.Background(), "u-1")
	require.NoError(t, err)
	require.Equal(t, "dev", user.Role)
}

func TestMalformedPayloadDoesNotHaltConsumption(t *testing.T) {
	users := memory.NewShadowUserRepository()
	rec := NewReconciler(users, nil)

	broken := Message{Topic: events.UserTopic, Key: events.KeyCUD, Value: []byte{0xff, 0x00, 0x01}}
	require.Error(t, rec.Handle(context.Background(), broken))

	valid := cudMessage(t, events.UserCreated, map[string]any{"pub_id": "u-1", "username": "alice", "role": "dev"})
	require.NoError(t, rec.Handle(context.Background(), valid))

	user, err := users.FindByPubID(context.Background(), "u-1")
	require.NoError(t, err)
	require.NotNil(t, user)
}

//go:build integration
// +build integration

package mongo

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	mongocontainer "github.com/testcontainers/testcontainers-go/modules/mongodb"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/weirdname404/async-arch-course/services/task-tracker/internal/domain"
)

func setupDatabase(t *testing.T) *mongodriver.Database {
	t.Helper()
	ctx := context.Background()

	container, err := mongocontainer.Run(ctx, "mongo:7")
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	uri, err := container.ConnectionString(ctx)
	require.NoError(t, err)

	client, err := mongodriver.Connect(ctx, options.Client().ApplyURI(uri))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Disconnect(ctx) })

	return client.Database("tracker_test")
}

func TestShadowUserUpsertIsIdempotent(t *testing.T) {
	ctx := context.Background()
	repo := NewShadowUserRepository(setupDatabase(t))
	require.NoError(t, repo.EnsureIndexes(ctx))

	user := domain.ShadowUser{PubID: "u-1", Username: "alice", Email: "alice@example.com", Role: "dev", IsActive: true}
	require.NoError(t, repo.Upsert(ctx, user))
	require.NoError(t, repo.Upsert(ctx, user))

	found, err := repo.FindByPubID(ctx, "u-1")
	require.NoError(t, err)
	require.NotNil(t, found)
	require.Equal(t, "alice", found.Username)

	role := "manager"
	matched, err := repo.Apply(ctx, "u-1", domain.ShadowUserPatch{Role: &role})
	require.NoError(t, err)
	require.EqualValues(t, 1, matched)

	patched, err := repo.FindByPubID(ctx, "u-1")
	require.NoError(t, err)
	require.Equal(t, "manager", patched.Role)
	require.Equal(t, "alice@example.com", patched.Email)

	matched, err = repo.Apply(ctx, "u-ghost", domain.ShadowUserPatch{Role: &role})
	require.NoError(t, err)
	require.EqualValues(t, 0, matched)

	deleted, err := repo.Delete(ctx, "u-1")
	require.NoError(t, err)
	require.EqualValues(t, 1, deleted)

	deleted, err = repo.Delete(ctx, "u-1")
	require.NoError(t, err)
	require.EqualValues(t, 0, deleted)
}

func TestTaskRepositoryCRUD(t *testing.T) {
	ctx := context.Background()
	repo := NewTaskRepository(setupDatabase(t))
	require.NoError(t, repo.EnsureIndexes(ctx))

	task := domain.Task{
		PubID:         domain.NewTaskPubID(),
		Title:         "wire the consumer",
		IsOpen:        true,
		AssigneePubID: "u-1",
		CreatedAt:     time.Now().UTC().Truncate(time.Millisecond),
	}

	id, err := repo.Insert(ctx, task)
	require.NoError(t, err)
	require.NotEmpty(t, id)
	require.NotEqual(t, task.PubID, id)

	found, err := repo.FindByPubID(ctx, task.PubID)
	require.NoError(t, err)
	require.NotNil(t, found)
	require.Equal(t, "wire the consumer", found.Title)

	closed := false
	matched, err := repo.Update(ctx, task.PubID, domain.TaskPatch{IsOpen: &closed})
	require.NoError(t, err)
	require.EqualValues(t, 1, matched)

	updated, err := repo.FindByPubID(ctx, task.PubID)
	require.NoError(t, err)
	require.False(t, updated.IsOpen)

	tasks, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 1)

	deleted, err := repo.Delete(ctx, task.PubID)
	require.NoError(t, err)
	require.EqualValues(t, 1, deleted)
}

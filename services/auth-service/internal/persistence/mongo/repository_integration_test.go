//go:build integration
// +build integration

package mongo

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	mongocontainer "github.com/testcontainers/testcontainers-go/modules/mongodb"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/weirdname404/async-arch-course/libs/auth"
	"github.com/weirdname404/async-arch-course/services/auth-service/internal/domain"
)

func TestRepositoryCRUD(t *testing.T) {
	ctx := context.Background()

	container, err := mongocontainer.Run(ctx, "mongo:7")
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	uri, err := container.ConnectionString(ctx)
	require.NoError(t, err)

	client, err := mongodriver.Connect(ctx, options.Client().ApplyURI(uri))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Disconnect(ctx) })

	repo := NewRepository(client.Database("auth_test"))
	require.NoError(t, repo.EnsureIndexes(ctx))

	user := domain.User{
		PubID:        uuid.NewString(),
		Username:     "popug",
		PasswordHash: "digest",
		Role:         auth.RoleDev,
		Email:        "popug@example.com",
		IsActive:     true,
		CreatedAt:    time.Now().UTC().Truncate(time.Millisecond),
	}

	id, err := repo.Insert(ctx, user)
	require.NoError(t, err)
	require.NotEmpty(t, id)
	require.NotEqual(t, user.PubID, id)

	found, err := repo.FindByPubID(ctx, user.PubID)
	require.NoError(t, err)
	require.NotNil(t, found)
	require.Equal(t, id, found.ID)
	require.Equal(t, "popug", found.Username)

	byName, err := repo.FindByUsername(ctx, "popug")
	require.NoError(t, err)
	require.NotNil(t, byName)
	require.Equal(t, user.PubID, byName.PubID)

	role := auth.RoleManager
	matched, err := repo.Update(ctx, user.PubID, domain.UserPatch{Role: &role})
	require.NoError(t, err)
	require.EqualValues(t, 1, matched)

	updated, err := repo.FindByPubID(ctx, user.PubID)
	require.NoError(t, err)
	require.Equal(t, auth.RoleManager, updated.Role)
	require.Equal(t, "popug@example.com", updated.Email)

	users, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)

	deleted, err := repo.Delete(ctx, user.PubID)
	require.NoError(t, err)
	require.EqualValues(t, 1, deleted)

	deleted, err = repo.Delete(ctx, user.PubID)
	require.NoError(t, err)
	require.EqualValues(t, 0, deleted)

	gone, err := repo.FindByPubID(ctx, user.PubID)
	require.NoError(t, err)
	require.Nil(t, gone)
}

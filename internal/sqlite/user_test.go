package sqlite

import (
	"context"
	"testing"

	"github.com/rpggio/phishbox/internal/domain/user"
	"github.com/rpggio/phishbox/internal/repository"
	"github.com/stretchr/testify/require"
)

func TestUserRepository_CRUD(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	repo := NewUserRepository(db)

	admin := &user.User{ID: "u1", Email: "admin@corp.example", PasswordHash: []byte("hash"), CanManageUsers: true, CreatedAt: seedTime}
	require.NoError(t, repo.Create(ctx, admin))

	dup := &user.User{ID: "u2", Email: "admin@corp.example", PasswordHash: []byte("x"), CreatedAt: seedTime}
	require.ErrorIs(t, repo.Create(ctx, dup), repository.ErrUniqueViolation)

	got, err := repo.GetByEmail(ctx, "admin@corp.example")
	require.NoError(t, err)
	require.Equal(t, "u1", got.ID)
	require.Equal(t, []byte("hash"), got.PasswordHash)
	require.True(t, got.CanManageUsers)

	got.CanManageUsers = false
	require.NoError(t, repo.Update(ctx, got))
	got, err = repo.Get(ctx, "u1")
	require.NoError(t, err)
	require.False(t, got.CanManageUsers)

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	require.NoError(t, repo.Delete(ctx, "u1"))
	_, err = repo.Get(ctx, "u1")
	require.ErrorIs(t, err, repository.ErrNotFound)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Empty(t, list)
}

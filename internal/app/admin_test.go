package app

import (
	"context"
	"testing"

	"github.com/andymarkow/tradesim/internal/domain/users"
	"github.com/andymarkow/tradesim/internal/storage/inmemory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureAdmin(t *testing.T) {
	ctx := context.Background()

	t.Run("no credentials", func(t *testing.T) {
		store := inmemory.NewStorage()

		require.NoError(t, EnsureAdmin(ctx, store, "", ""))

		accounts, err := store.ListUsers(ctx)
		require.NoError(t, err)
		assert.Empty(t, accounts)
	})

	t.Run("creates admin", func(t *testing.T) {
		store := inmemory.NewStorage()

		require.NoError(t, EnsureAdmin(ctx, store, "Admin@Example.com", "secret-pass"))

		usr, err := store.GetUserByEmail(ctx, "admin@example.com")
		require.NoError(t, err)
		assert.True(t, usr.IsAdmin)
		assert.NoError(t, usr.CheckPassword("secret-pass"))
	})

	t.Run("promotes existing user", func(t *testing.T) {
		store := inmemory.NewStorage()

		usr, err := users.NewUser(users.Params{Email: "admin@example.com", Password: "old-password"})
		require.NoError(t, err)
		require.NoError(t, store.CreateUser(ctx, usr))

		require.NoError(t, EnsureAdmin(ctx, store, "admin@example.com", "new-password"))

		stored, err := store.GetUser(ctx, usr.ID)
		require.NoError(t, err)
		assert.True(t, stored.IsAdmin)
		assert.NoError(t, stored.CheckPassword("new-password"))
		assert.ErrorIs(t, stored.CheckPassword("old-password"), users.ErrUserPasswordMismatch)
	})

	t.Run("invalid password", func(t *testing.T) {
		store := inmemory.NewStorage()

		assert.ErrorIs(t, EnsureAdmin(ctx, store, "admin@example.com", "123"), users.ErrUserPasswdTooShort)
	})
}

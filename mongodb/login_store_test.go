package mongodb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pilab-dev/identity-store/domain"
	iderrors "github.com/pilab-dev/identity-store/errors"
)

func TestLoginLifecycle_Integration(t *testing.T) {
	store, ctx := setupStoreTest(t, "identity_store_logins")

	user := newTestUser("judy")
	require.NoError(t, store.CreateUser(ctx, user))

	login := domain.UserLogin{
		LoginProvider:       "google",
		ProviderKey:         "k1",
		ProviderDisplayName: "Google",
	}
	require.NoError(t, store.AddLogin(ctx, user.ID, login))

	t.Run("GetLogins", func(t *testing.T) {
		logins, err := store.GetLogins(ctx, user.ID)
		require.NoError(t, err)
		require.Len(t, logins, 1)
		assert.Equal(t, user.ID, logins[0].UserID)
		assert.Equal(t, "google", logins[0].LoginProvider)
		assert.Equal(t, "k1", logins[0].ProviderKey)
	})

	t.Run("FindByLogin", func(t *testing.T) {
		got, err := store.FindByLogin(ctx, "google", "k1")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, user.ID, got.ID)
	})

	t.Run("RemoveThenAbsent", func(t *testing.T) {
		require.NoError(t, store.RemoveLogin(ctx, user.ID, "google", "k1"))

		got, err := store.FindByLogin(ctx, "google", "k1")
		require.NoError(t, err)
		assert.Nil(t, got)

		logins, err := store.GetLogins(ctx, user.ID)
		require.NoError(t, err)
		assert.Empty(t, logins)
	})

	t.Run("RemoveMissingIsNotFound", func(t *testing.T) {
		err := store.RemoveLogin(ctx, user.ID, "google", "k1")
		require.Error(t, err)
		assert.True(t, iderrors.HasCode(err, iderrors.NotFound))
	})
}

func TestFindByLogin_OrphanedLogin_Integration(t *testing.T) {
	store, ctx := setupStoreTest(t, "identity_store_orphan_login")

	user := newTestUser("kate")
	require.NoError(t, store.CreateUser(ctx, user))
	require.NoError(t, store.AddLogin(ctx, user.ID, domain.UserLogin{
		LoginProvider: "github", ProviderKey: "gh-9",
	}))

	// User deletion does not cascade to login documents; the dangling login
	// resolves to an absent user.
	require.NoError(t, store.DeleteUser(ctx, user))

	got, err := store.FindByLogin(ctx, "github", "gh-9")
	require.NoError(t, err)
	assert.Nil(t, got)

	logins, err := store.GetLogins(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, logins, 1, "login document survives user deletion")
}

package mongodb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pilab-dev/identity-store/domain"
)

func TestSaveUserTokens_ReplaceAll_Integration(t *testing.T) {
	store, ctx := setupStoreTest(t, "identity_store_tokens")

	user := newTestUser("mallory")
	require.NoError(t, store.CreateUser(ctx, user))

	t1 := domain.UserToken{LoginProvider: "google", Name: "access", Value: "v1"}
	t2 := domain.UserToken{LoginProvider: "google", Name: "refresh", Value: "v2"}
	t3 := domain.UserToken{LoginProvider: "github", Name: "access", Value: "v3"}

	require.NoError(t, store.SaveUserTokens(ctx, user.ID, []domain.UserToken{t1, t2}))

	tokens, err := store.GetUserTokens(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, tokens, 2)

	// A second save fully replaces the first set; nothing is merged.
	require.NoError(t, store.SaveUserTokens(ctx, user.ID, []domain.UserToken{t3}))

	tokens, err = store.GetUserTokens(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, tokens, 1)
	assert.Equal(t, "github", tokens[0].LoginProvider)
	assert.Equal(t, "access", tokens[0].Name)
	assert.Equal(t, "v3", tokens[0].Value)

	// Saving an empty set clears everything.
	require.NoError(t, store.SaveUserTokens(ctx, user.ID, nil))
	tokens, err = store.GetUserTokens(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, tokens)
}

func TestGetUserTokens_ScopedToUser_Integration(t *testing.T) {
	store, ctx := setupStoreTest(t, "identity_store_token_scope")

	u1 := newTestUser("nina")
	u2 := newTestUser("oscar")
	require.NoError(t, store.CreateUser(ctx, u1))
	require.NoError(t, store.CreateUser(ctx, u2))

	require.NoError(t, store.SaveUserTokens(ctx, u1.ID, []domain.UserToken{
		{LoginProvider: "google", Name: "access", Value: "a"},
	}))
	require.NoError(t, store.SaveUserTokens(ctx, u2.ID, []domain.UserToken{
		{LoginProvider: "google", Name: "access", Value: "b"},
	}))

	// Replacing one user's tokens must not touch the other's.
	require.NoError(t, store.SaveUserTokens(ctx, u1.ID, nil))

	tokens, err := store.GetUserTokens(ctx, u2.ID)
	require.NoError(t, err)
	require.Len(t, tokens, 1)
	assert.Equal(t, "b", tokens[0].Value)
}

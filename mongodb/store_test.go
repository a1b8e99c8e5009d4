package mongodb

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/pilab-dev/identity-store/domain"
	iderrors "github.com/pilab-dev/identity-store/errors"
)

// newDetachedStore builds a Store around a client that never dials: the
// driver connects lazily, so any accidental I/O would hang instead of
// passing. Argument validation and the closed/cancelled guards must all
// trigger before the first network call, which is exactly what these tests
// pin down.
func newDetachedStore(t *testing.T) *Store {
	t.Helper()
	client, err := mongo.Connect(context.Background(),
		options.Client().ApplyURI("mongodb://127.0.0.1:1/?connect=direct"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Disconnect(context.Background()) })

	db := client.Database("identity_store_unit")
	return &Store{
		client: client,
		users:  db.Collection(DefaultCollectionNames.Users),
		claims: db.Collection(DefaultCollectionNames.UserClaims),
		logins: db.Collection(DefaultCollectionNames.UserLogins),
		tokens: db.Collection(DefaultCollectionNames.UserTokens),
	}
}

func TestCollectionNamesValidate(t *testing.T) {
	require.NoError(t, DefaultCollectionNames.Validate())

	missing := DefaultCollectionNames
	missing.UserTokens = ""
	err := missing.Validate()
	require.Error(t, err)
	assert.True(t, iderrors.HasCode(err, iderrors.ConfigurationInvalid))
}

func TestNewStore_InvalidCollectionNames(t *testing.T) {
	_, err := NewStore(context.Background(), nil, CollectionNames{Users: "users"})
	require.Error(t, err)
	assert.True(t, iderrors.HasCode(err, iderrors.ConfigurationInvalid))
}

func TestArgumentValidationPrecedesIO(t *testing.T) {
	s := newDetachedStore(t)
	ctx := context.Background()

	calls := []struct {
		name string
		call func() error
	}{
		{"CreateUser nil", func() error { return s.CreateUser(ctx, nil) }},
		{"UpdateUser nil", func() error { return s.UpdateUser(ctx, nil) }},
		{"UpdateUser empty ID", func() error { return s.UpdateUser(ctx, &domain.User{}) }},
		{"DeleteUser nil", func() error { return s.DeleteUser(ctx, nil) }},
		{"DeleteUser empty ID", func() error { return s.DeleteUser(ctx, &domain.User{}) }},
		{"FindByID", func() error { _, err := s.FindByID(ctx, ""); return err }},
		{"FindByNormalizedUserName", func() error { _, err := s.FindByNormalizedUserName(ctx, ""); return err }},
		{"FindByNormalizedEmail", func() error { _, err := s.FindByNormalizedEmail(ctx, ""); return err }},
		{"GetClaims", func() error { _, err := s.GetClaims(ctx, ""); return err }},
		{"AddClaims empty userID", func() error { return s.AddClaims(ctx, "", []domain.UserClaim{{}}) }},
		{"AddClaims nil claims", func() error { return s.AddClaims(ctx, "u1", nil) }},
		{"ReplaceClaim empty userID", func() error {
			return s.ReplaceClaim(ctx, "", domain.UserClaim{ClaimType: "t"}, domain.UserClaim{ClaimType: "t"})
		}},
		{"ReplaceClaim empty type", func() error {
			return s.ReplaceClaim(ctx, "u1", domain.UserClaim{}, domain.UserClaim{})
		}},
		{"RemoveClaims nil claims", func() error { return s.RemoveClaims(ctx, "u1", nil) }},
		{"GetUsersForClaim empty type", func() error { _, err := s.GetUsersForClaim(ctx, domain.UserClaim{}); return err }},
		{"AddLogin empty userID", func() error {
			return s.AddLogin(ctx, "", domain.UserLogin{LoginProvider: "p", ProviderKey: "k"})
		}},
		{"AddLogin empty provider", func() error {
			return s.AddLogin(ctx, "u1", domain.UserLogin{ProviderKey: "k"})
		}},
		{"RemoveLogin empty key", func() error { return s.RemoveLogin(ctx, "u1", "p", "") }},
		{"GetLogins", func() error { _, err := s.GetLogins(ctx, ""); return err }},
		{"FindByLogin empty provider", func() error { _, err := s.FindByLogin(ctx, "", "k"); return err }},
		{"GetUserTokens", func() error { _, err := s.GetUserTokens(ctx, ""); return err }},
		{"SaveUserTokens empty userID", func() error { return s.SaveUserTokens(ctx, "", nil) }},
	}
	for _, tc := range calls {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.call()
			require.Error(t, err)
			assert.True(t, iderrors.HasCode(err, iderrors.InvalidArgument), "got %v", err)
		})
	}
}

func TestClosedStoreRejectsOperations(t *testing.T) {
	s := newDetachedStore(t)
	s.Close()
	ctx := context.Background()

	err := s.CreateUser(ctx, &domain.User{ID: "u1"})
	assert.True(t, iderrors.HasCode(err, iderrors.StoreClosed))

	_, err = s.FindByID(ctx, "u1")
	assert.True(t, iderrors.HasCode(err, iderrors.StoreClosed))

	err = s.SaveUserTokens(ctx, "u1", nil)
	assert.True(t, iderrors.HasCode(err, iderrors.StoreClosed))
}

func TestCancelledContextRejectedAtEntry(t *testing.T) {
	s := newDetachedStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.CreateUser(ctx, &domain.User{ID: "u1"})
	assert.ErrorIs(t, err, context.Canceled)

	_, err = s.GetClaims(ctx, "u1")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestClosedStoreDescriberOverride(t *testing.T) {
	s := newDetachedStore(t)
	s.describer = iderrors.DescriberFunc(func(code string) string { return "translated: " + code })
	s.Close()

	err := s.CreateUser(context.Background(), &domain.User{ID: "u1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "translated: store_closed")
}

package mongodb

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/pilab-dev/identity-store/domain"
	iderrors "github.com/pilab-dev/identity-store/errors"
)

func TestUserDocumentRoundTrip(t *testing.T) {
	lockoutEnd := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	user := &domain.User{
		ID:                   "user-1",
		UserName:             "Ádám Kovács",
		NormalizedUserName:   "ádám kovács",
		Email:                "Adam@Example.com",
		NormalizedEmail:      "adam@example.com",
		EmailConfirmed:       true,
		PasswordHash:         "AQAAAA$fakehash",
		SecurityStamp:        "sec-stamp-1",
		ConcurrencyStamp:     "cc-stamp-1",
		PhoneNumber:          "+36 1 234 5678",
		PhoneNumberConfirmed: true,
		TwoFactorEnabled:     true,
		LockoutEnd:           &lockoutEnd,
		LockoutEnabled:       true,
		AccessFailedCount:    3,
	}

	got, err := userFromDoc(userToDoc(user))
	require.NoError(t, err)
	assert.Equal(t, user, got)
}

func TestUserDocumentRoundTrip_ZeroValues(t *testing.T) {
	user := &domain.User{ID: "user-zero"}

	got, err := userFromDoc(userToDoc(user))
	require.NoError(t, err)
	assert.Equal(t, user, got)
	assert.Nil(t, got.LockoutEnd)
}

func TestUserDocumentRoundTrip_BoundaryValues(t *testing.T) {
	user := &domain.User{
		ID:                 strings.Repeat("x", 1500),
		UserName:           "日本語ユーザーé",
		NormalizedUserName: "",
		AccessFailedCount:  2147483647,
	}

	got, err := userFromDoc(userToDoc(user))
	require.NoError(t, err)
	assert.Equal(t, user, got)
}

func TestUserFromDoc_PartialDocument(t *testing.T) {
	// Projections return only a subset of fields; everything else must
	// degrade to zero values.
	got, err := userFromDoc(bson.M{
		"_id":              "user-2",
		"normalized_email": "a@b.c",
	})
	require.NoError(t, err)
	assert.Equal(t, "user-2", got.ID)
	assert.Equal(t, "a@b.c", got.NormalizedEmail)
	assert.Empty(t, got.UserName)
	assert.Zero(t, got.AccessFailedCount)
	assert.False(t, got.LockoutEnabled)
	assert.Nil(t, got.LockoutEnd)
}

func TestUserFromDoc_DriverDecodedTypes(t *testing.T) {
	// Documents decoded by the driver carry int32/int64 numbers and
	// primitive.DateTime timestamps instead of native Go values.
	when := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	got, err := userFromDoc(bson.M{
		"_id":                 "user-3",
		"access_failed_count": int32(7),
		"lockout_end":         primitive.NewDateTimeFromTime(when),
	})
	require.NoError(t, err)
	assert.Equal(t, 7, got.AccessFailedCount)
	require.NotNil(t, got.LockoutEnd)
	assert.True(t, when.Equal(*got.LockoutEnd))
}

func TestUserFromDoc_TypeMismatch(t *testing.T) {
	_, err := userFromDoc(bson.M{
		"_id":       "user-4",
		"user_name": int64(42),
	})
	require.Error(t, err)
	assert.True(t, iderrors.HasCode(err, iderrors.MappingFailure))

	var me *iderrors.MappingError
	require.True(t, errors.As(err, &me))
	assert.Equal(t, "user_name", me.Field)
}

func TestChildDocumentRoundTrips(t *testing.T) {
	claim := domain.UserClaim{UserID: "u1", ClaimType: "role", ClaimValue: "admin"}
	gotClaim, err := claimFromDoc(claimToDoc(claim.UserID, claim))
	require.NoError(t, err)
	assert.Equal(t, claim, gotClaim)

	login := domain.UserLogin{
		UserID:              "u1",
		LoginProvider:       "google",
		ProviderKey:         "gk-123",
		ProviderDisplayName: "Google",
	}
	gotLogin, err := loginFromDoc(loginToDoc(login.UserID, login))
	require.NoError(t, err)
	assert.Equal(t, login, gotLogin)

	token := domain.UserToken{
		UserID:        "u1",
		LoginProvider: "google",
		Name:          "refresh_token",
		Value:         "opaque-value",
	}
	gotToken, err := tokenFromDoc(tokenToDoc(token.UserID, token))
	require.NoError(t, err)
	assert.Equal(t, token, gotToken)
}

func TestChildFromDoc_TypeMismatch(t *testing.T) {
	_, err := claimFromDoc(bson.M{"user_id": "u1", "claim_type": true})
	assert.True(t, iderrors.HasCode(err, iderrors.MappingFailure))

	_, err = tokenFromDoc(bson.M{"user_id": "u1", "value": bson.M{"nested": 1}})
	assert.True(t, iderrors.HasCode(err, iderrors.MappingFailure))
}

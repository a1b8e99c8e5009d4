package mongodb

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	iderrors "github.com/pilab-dev/identity-store/errors"
)

// CollectionNames routes the four logical entity collections to their
// physical names in the database.
type CollectionNames struct {
	Users      string
	UserClaims string
	UserLogins string
	UserTokens string
}

// DefaultCollectionNames matches the defaults shipped by the config package.
var DefaultCollectionNames = CollectionNames{
	Users:      "identity_users",
	UserClaims: "identity_user_claims",
	UserLogins: "identity_user_logins",
	UserTokens: "identity_user_tokens",
}

// Validate rejects missing collection names eagerly, before any handle is
// resolved.
func (n CollectionNames) Validate() error {
	for name, value := range map[string]string{
		"users":       n.Users,
		"user claims": n.UserClaims,
		"user logins": n.UserLogins,
		"user tokens": n.UserTokens,
	} {
		if value == "" {
			return iderrors.NewConfiguration(fmt.Sprintf("%s collection name must not be empty", name))
		}
	}
	return nil
}

// ensureIndexes creates the non-unique lookup indexes backing the store's
// equality-filtered queries. None of them are unique: the store deliberately
// enforces no uniqueness on normalized names, emails or login keys.
func (s *Store) ensureIndexes(ctx context.Context) error {
	userIndexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "normalized_user_name", Value: 1}}},
		{Keys: bson.D{{Key: "normalized_email", Value: 1}}},
	}
	if _, err := s.users.Indexes().CreateMany(ctx, userIndexes, options.CreateIndexes()); err != nil {
		return fmt.Errorf("failed to create indexes for %s collection: %w", s.users.Name(), err)
	}

	childIndexes := map[*mongo.Collection][]mongo.IndexModel{
		s.claims: {
			{Keys: bson.D{{Key: "user_id", Value: 1}}},
			{Keys: bson.D{{Key: "claim_type", Value: 1}, {Key: "claim_value", Value: 1}}},
		},
		s.logins: {
			{Keys: bson.D{{Key: "user_id", Value: 1}}},
			{Keys: bson.D{{Key: "login_provider", Value: 1}, {Key: "provider_key", Value: 1}}},
		},
		s.tokens: {
			{Keys: bson.D{{Key: "user_id", Value: 1}}},
		},
	}
	for coll, models := range childIndexes {
		if _, err := coll.Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("failed to create indexes for %s collection: %w", coll.Name(), err)
		}
	}
	log.Info().Msg("Indexes for identity collections ensured.")
	return nil
}

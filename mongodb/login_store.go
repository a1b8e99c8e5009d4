package mongodb

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/pilab-dev/identity-store/domain"
	iderrors "github.com/pilab-dev/identity-store/errors"
)

// AddLogin links an external login to the user with a single document
// insert. The (provider, key) pair is not checked for uniqueness; that
// discipline belongs to the caller.
func (s *Store) AddLogin(ctx context.Context, userID string, login domain.UserLogin) error {
	if err := s.guard(ctx); err != nil {
		return err
	}
	if userID == "" {
		return s.invalidArg("userID")
	}
	if login.LoginProvider == "" {
		return s.invalidArg("login.LoginProvider")
	}
	if login.ProviderKey == "" {
		return s.invalidArg("login.ProviderKey")
	}

	if _, err := s.logins.InsertOne(ctx, loginToDoc(userID, login)); err != nil {
		log.Error().Err(err).Str("userID", userID).Str("provider", login.LoginProvider).Msg("Error adding login in MongoDB")
		return fmt.Errorf("failed to add login: %w", err)
	}
	return nil
}

// RemoveLogin deletes the login document matching the user, provider and
// provider key inside a transaction. A missing match is a not_found error.
func (s *Store) RemoveLogin(ctx context.Context, userID, loginProvider, providerKey string) error {
	if err := s.guard(ctx); err != nil {
		return err
	}
	if userID == "" {
		return s.invalidArg("userID")
	}
	if loginProvider == "" {
		return s.invalidArg("loginProvider")
	}
	if providerKey == "" {
		return s.invalidArg("providerKey")
	}

	filter := bson.M{
		"user_id":        userID,
		"login_provider": loginProvider,
		"provider_key":   providerKey,
	}
	return s.withTxn(ctx, func(sc mongo.SessionContext) error {
		doc, err := s.findFirst(sc, s.logins, filter)
		if err != nil {
			return err
		}
		if doc == nil {
			return iderrors.NewNotFound("login")
		}
		if _, err := s.logins.DeleteOne(sc, bson.M{"_id": doc["_id"]}); err != nil {
			return fmt.Errorf("failed to remove login: %w", err)
		}
		return nil
	})
}

// GetLogins returns all external logins linked to the user.
func (s *Store) GetLogins(ctx context.Context, userID string) ([]domain.UserLogin, error) {
	if err := s.guard(ctx); err != nil {
		return nil, err
	}
	if userID == "" {
		return nil, s.invalidArg("userID")
	}

	cursor, err := s.logins.Find(ctx, bson.M{"user_id": userID})
	if err != nil {
		log.Error().Err(err).Str("userID", userID).Msg("Error listing logins from MongoDB")
		return nil, fmt.Errorf("failed to list logins: %w", err)
	}
	defer cursor.Close(ctx)

	var logins []domain.UserLogin
	for cursor.Next(ctx) {
		var doc bson.M
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode login document: %w", err)
		}
		login, err := loginFromDoc(doc)
		if err != nil {
			return nil, err
		}
		logins = append(logins, login)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate logins: %w", err)
	}
	return logins, nil
}

// FindByLogin resolves the user linked to the external login, or nil when no
// login document matches. This is a secondary lookup: login document first,
// then the user document it points at, two round trips.
func (s *Store) FindByLogin(ctx context.Context, loginProvider, providerKey string) (*domain.User, error) {
	if err := s.guard(ctx); err != nil {
		return nil, err
	}
	if loginProvider == "" {
		return nil, s.invalidArg("loginProvider")
	}
	if providerKey == "" {
		return nil, s.invalidArg("providerKey")
	}

	doc, err := s.findFirst(ctx, s.logins, bson.M{
		"login_provider": loginProvider,
		"provider_key":   providerKey,
	})
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, nil
	}
	userID, err := docString(doc, "user_id")
	if err != nil {
		return nil, err
	}
	if userID == "" {
		return nil, nil
	}
	return s.findOneUser(ctx, bson.M{"_id": userID})
}

package mongodb

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/pilab-dev/identity-store/domain"
)

// CreateUser writes the user document unconditionally (upsert at the user's
// ID). The store does not check the normalized name or email for duplicates;
// callers wanting that guarantee must do a find first.
func (s *Store) CreateUser(ctx context.Context, user *domain.User) error {
	if err := s.guard(ctx); err != nil {
		return err
	}
	if user == nil {
		return s.invalidArg("user")
	}
	if user.ID == "" {
		user.ID = NewObjectID()
	}
	if user.ConcurrencyStamp == "" {
		user.ConcurrencyStamp = uuid.NewString()
	}
	if user.SecurityStamp == "" {
		user.SecurityStamp = uuid.NewString()
	}

	_, err := s.users.ReplaceOne(ctx, bson.M{"_id": user.ID}, userToDoc(user), options.Replace().SetUpsert(true))
	if err != nil {
		log.Error().Err(err).Str("userID", user.ID).Msg("Error creating user in MongoDB")
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// UpdateUser replaces the user document inside a transaction that first
// re-reads the stored concurrency stamp. A stamp mismatch aborts the
// transaction with a concurrency_failure error and leaves the document
// untouched; losing callers are expected to reload and retry. On success the
// entity's stamp is regenerated.
func (s *Store) UpdateUser(ctx context.Context, user *domain.User) error {
	if err := s.guard(ctx); err != nil {
		return err
	}
	if user == nil {
		return s.invalidArg("user")
	}
	if user.ID == "" {
		return s.invalidArg("user.ID")
	}

	// The expected stamp is captured outside the transaction and the next
	// stamp is only published to the entity after commit, so driver-level
	// transaction retries always compare against the caller's original read.
	expected := user.ConcurrencyStamp
	next := uuid.NewString()

	doc := userToDoc(user)
	doc["concurrency_stamp"] = next

	err := s.withTxn(ctx, func(sc mongo.SessionContext) error {
		stored, err := s.readStamp(sc, user.ID)
		if err != nil {
			return err
		}
		if stored != expected {
			return s.concurrencyFailure()
		}
		if _, err := s.users.ReplaceOne(sc, bson.M{"_id": user.ID}, doc); err != nil {
			return fmt.Errorf("failed to update user: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	user.ConcurrencyStamp = next
	return nil
}

// DeleteUser removes the user document under the same stamp check as
// UpdateUser. Claim, login and token documents owned by the user are not
// cascaded; cleaning up orphans is the caller's responsibility.
func (s *Store) DeleteUser(ctx context.Context, user *domain.User) error {
	if err := s.guard(ctx); err != nil {
		return err
	}
	if user == nil {
		return s.invalidArg("user")
	}
	if user.ID == "" {
		return s.invalidArg("user.ID")
	}

	expected := user.ConcurrencyStamp
	return s.withTxn(ctx, func(sc mongo.SessionContext) error {
		stored, err := s.readStamp(sc, user.ID)
		if err != nil {
			return err
		}
		if stored != expected {
			return s.concurrencyFailure()
		}
		if _, err := s.users.DeleteOne(sc, bson.M{"_id": user.ID}); err != nil {
			return fmt.Errorf("failed to delete user: %w", err)
		}
		return nil
	})
}

// readStamp fetches only the concurrency stamp of the stored document. A
// missing document is reported as a concurrency failure: the caller's copy
// is stale either way.
func (s *Store) readStamp(sc mongo.SessionContext, id string) (string, error) {
	var doc bson.M
	err := s.users.FindOne(sc, bson.M{"_id": id},
		options.FindOne().SetProjection(bson.M{"concurrency_stamp": 1})).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return "", s.concurrencyFailure()
	}
	if err != nil {
		return "", fmt.Errorf("failed to read concurrency stamp: %w", err)
	}
	return docString(doc, "concurrency_stamp")
}

// FindByID returns the user with the given ID, or nil when absent.
func (s *Store) FindByID(ctx context.Context, id string) (*domain.User, error) {
	if err := s.guard(ctx); err != nil {
		return nil, err
	}
	if id == "" {
		return nil, s.invalidArg("id")
	}
	return s.findOneUser(ctx, bson.M{"_id": id})
}

// FindByNormalizedUserName returns the first user whose normalized user name
// equals normalizedName, or nil when none matches. Ties between duplicate
// names are broken arbitrarily by the first returned document.
func (s *Store) FindByNormalizedUserName(ctx context.Context, normalizedName string) (*domain.User, error) {
	if err := s.guard(ctx); err != nil {
		return nil, err
	}
	if normalizedName == "" {
		return nil, s.invalidArg("normalizedName")
	}
	return s.findOneUser(ctx, bson.M{"normalized_user_name": normalizedName})
}

// FindByNormalizedEmail returns the first user whose normalized email equals
// normalizedEmail, or nil when none matches.
func (s *Store) FindByNormalizedEmail(ctx context.Context, normalizedEmail string) (*domain.User, error) {
	if err := s.guard(ctx); err != nil {
		return nil, err
	}
	if normalizedEmail == "" {
		return nil, s.invalidArg("normalizedEmail")
	}
	return s.findOneUser(ctx, bson.M{"normalized_email": normalizedEmail})
}

func (s *Store) findOneUser(ctx context.Context, filter bson.M) (*domain.User, error) {
	var doc bson.M
	err := s.users.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		log.Error().Err(err).Interface("filter", filter).Msg("Error finding user in MongoDB")
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return userFromDoc(doc)
}

// ListUsers retrieves a paginated list of users sorted by ID. pageToken is
// used as skip offset; an empty next token means the enumeration is done.
func (s *Store) ListUsers(ctx context.Context, pageToken string, pageSize int) ([]*domain.User, string, error) {
	if err := s.guard(ctx); err != nil {
		return nil, "", err
	}
	if pageSize <= 0 {
		pageSize = 10
	}
	if pageSize > 100 {
		pageSize = 100
	}

	skip := int64(0)
	if pageToken != "" {
		parsedSkip, err := strconv.ParseInt(pageToken, 10, 64)
		if err != nil {
			log.Warn().Err(err).Str("pageToken", pageToken).Msg("Invalid pageToken, using default skip 0")
		} else if parsedSkip > 0 {
			skip = parsedSkip
		}
	}

	findOptions := options.Find().
		SetSkip(skip).
		SetLimit(int64(pageSize)).
		SetSort(bson.D{{Key: "_id", Value: 1}})

	cursor, err := s.users.Find(ctx, bson.M{}, findOptions)
	if err != nil {
		log.Error().Err(err).Msg("Error listing users from MongoDB")
		return nil, "", fmt.Errorf("failed to list users: %w", err)
	}
	defer cursor.Close(ctx)

	var users []*domain.User
	for cursor.Next(ctx) {
		var doc bson.M
		if err := cursor.Decode(&doc); err != nil {
			return nil, "", fmt.Errorf("failed to decode user document: %w", err)
		}
		user, err := userFromDoc(doc)
		if err != nil {
			return nil, "", err
		}
		users = append(users, user)
	}
	if err := cursor.Err(); err != nil {
		return nil, "", fmt.Errorf("failed to iterate users: %w", err)
	}

	nextPageToken := ""
	if len(users) == pageSize {
		nextPageToken = strconv.FormatInt(skip+int64(pageSize), 10)
	}
	return users, nextPageToken, nil
}

package mongodb

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/pilab-dev/identity-store/domain"
	iderrors "github.com/pilab-dev/identity-store/errors"
)

// GetClaims returns all claims owned by the user, matched by the
// denormalized user_id field.
func (s *Store) GetClaims(ctx context.Context, userID string) ([]domain.UserClaim, error) {
	if err := s.guard(ctx); err != nil {
		return nil, err
	}
	if userID == "" {
		return nil, s.invalidArg("userID")
	}

	cursor, err := s.claims.Find(ctx, bson.M{"user_id": userID})
	if err != nil {
		log.Error().Err(err).Str("userID", userID).Msg("Error listing claims from MongoDB")
		return nil, fmt.Errorf("failed to list claims: %w", err)
	}
	defer cursor.Close(ctx)

	var claims []domain.UserClaim
	for cursor.Next(ctx) {
		var doc bson.M
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode claim document: %w", err)
		}
		claim, err := claimFromDoc(doc)
		if err != nil {
			return nil, err
		}
		claims = append(claims, claim)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate claims: %w", err)
	}
	return claims, nil
}

// AddClaims inserts one claim document per claim, all inside a single
// transaction so a mid-loop failure never leaves a partially-applied set.
func (s *Store) AddClaims(ctx context.Context, userID string, claims []domain.UserClaim) error {
	if err := s.guard(ctx); err != nil {
		return err
	}
	if userID == "" {
		return s.invalidArg("userID")
	}
	if claims == nil {
		return s.invalidArg("claims")
	}
	if len(claims) == 0 {
		return nil
	}

	return s.withTxn(ctx, func(sc mongo.SessionContext) error {
		for _, claim := range claims {
			if _, err := s.claims.InsertOne(sc, claimToDoc(userID, claim)); err != nil {
				return fmt.Errorf("failed to insert claim: %w", err)
			}
		}
		return nil
	})
}

// ReplaceClaim rewrites the first claim document matching the user and the
// old claim with the new type and value. A missing match is a not_found
// error, never a silent success.
func (s *Store) ReplaceClaim(ctx context.Context, userID string, claim, newClaim domain.UserClaim) error {
	if err := s.guard(ctx); err != nil {
		return err
	}
	if userID == "" {
		return s.invalidArg("userID")
	}
	if claim.ClaimType == "" {
		return s.invalidArg("claim.ClaimType")
	}

	return s.withTxn(ctx, func(sc mongo.SessionContext) error {
		doc, err := s.findFirst(sc, s.claims, claimFilter(userID, claim))
		if err != nil {
			return err
		}
		if doc == nil {
			return iderrors.NewNotFound("claim")
		}
		update := bson.M{"$set": bson.M{
			"claim_type":  newClaim.ClaimType,
			"claim_value": newClaim.ClaimValue,
		}}
		if _, err := s.claims.UpdateOne(sc, bson.M{"_id": doc["_id"]}, update); err != nil {
			return fmt.Errorf("failed to replace claim: %w", err)
		}
		return nil
	})
}

// RemoveClaims deletes the first matching claim document per given claim,
// all inside one transaction. Any claim without a matching document aborts
// the transaction with a not_found error.
func (s *Store) RemoveClaims(ctx context.Context, userID string, claims []domain.UserClaim) error {
	if err := s.guard(ctx); err != nil {
		return err
	}
	if userID == "" {
		return s.invalidArg("userID")
	}
	if claims == nil {
		return s.invalidArg("claims")
	}
	if len(claims) == 0 {
		return nil
	}

	return s.withTxn(ctx, func(sc mongo.SessionContext) error {
		for _, claim := range claims {
			doc, err := s.findFirst(sc, s.claims, claimFilter(userID, claim))
			if err != nil {
				return err
			}
			if doc == nil {
				return iderrors.NewNotFound("claim")
			}
			if _, err := s.claims.DeleteOne(sc, bson.M{"_id": doc["_id"]}); err != nil {
				return fmt.Errorf("failed to remove claim: %w", err)
			}
		}
		return nil
	})
}

// GetUsersForClaim returns every user holding a claim equal to the given
// type and value. Each matching claim document costs one extra user lookup;
// the fan-out is not batched. Orphaned claims whose user is gone are
// skipped.
func (s *Store) GetUsersForClaim(ctx context.Context, claim domain.UserClaim) ([]*domain.User, error) {
	if err := s.guard(ctx); err != nil {
		return nil, err
	}
	if claim.ClaimType == "" {
		return nil, s.invalidArg("claim.ClaimType")
	}

	filter := bson.M{"claim_type": claim.ClaimType, "claim_value": claim.ClaimValue}
	cursor, err := s.claims.Find(ctx, filter)
	if err != nil {
		log.Error().Err(err).Str("claimType", claim.ClaimType).Msg("Error querying claims from MongoDB")
		return nil, fmt.Errorf("failed to query claims: %w", err)
	}
	defer cursor.Close(ctx)

	var userIDs []string
	for cursor.Next(ctx) {
		var doc bson.M
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode claim document: %w", err)
		}
		userID, err := docString(doc, "user_id")
		if err != nil {
			return nil, err
		}
		if userID != "" {
			userIDs = append(userIDs, userID)
		}
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate claims: %w", err)
	}

	var users []*domain.User
	for _, userID := range userIDs {
		user, err := s.findOneUser(ctx, bson.M{"_id": userID})
		if err != nil {
			return nil, err
		}
		if user != nil {
			users = append(users, user)
		}
	}
	return users, nil
}

func claimFilter(userID string, c domain.UserClaim) bson.M {
	return bson.M{
		"user_id":     userID,
		"claim_type":  c.ClaimType,
		"claim_value": c.ClaimValue,
	}
}

// findFirst returns the first document matching filter, or nil when none
// does.
func (s *Store) findFirst(ctx context.Context, coll *mongo.Collection, filter bson.M) (bson.M, error) {
	var doc bson.M
	err := coll.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", coll.Name(), err)
	}
	return doc, nil
}

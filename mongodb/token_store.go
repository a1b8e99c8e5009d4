package mongodb

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/pilab-dev/identity-store/domain"
)

// GetUserTokens returns every token document owned by the user.
func (s *Store) GetUserTokens(ctx context.Context, userID string) ([]domain.UserToken, error) {
	if err := s.guard(ctx); err != nil {
		return nil, err
	}
	if userID == "" {
		return nil, s.invalidArg("userID")
	}

	cursor, err := s.tokens.Find(ctx, bson.M{"user_id": userID})
	if err != nil {
		log.Error().Err(err).Str("userID", userID).Msg("Error listing tokens from MongoDB")
		return nil, fmt.Errorf("failed to list tokens: %w", err)
	}
	defer cursor.Close(ctx)

	var tokens []domain.UserToken
	for cursor.Next(ctx) {
		var doc bson.M
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode token document: %w", err)
		}
		token, err := tokenFromDoc(doc)
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, token)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tokens: %w", err)
	}
	return tokens, nil
}

// SaveUserTokens replaces the user's complete token set: all existing token
// documents are deleted, then the incoming set is inserted, both inside one
// transaction. This is replace-all, not merge; saving an empty set clears
// every token.
func (s *Store) SaveUserTokens(ctx context.Context, userID string, tokens []domain.UserToken) error {
	if err := s.guard(ctx); err != nil {
		return err
	}
	if userID == "" {
		return s.invalidArg("userID")
	}

	return s.withTxn(ctx, func(sc mongo.SessionContext) error {
		if _, err := s.tokens.DeleteMany(sc, bson.M{"user_id": userID}); err != nil {
			return fmt.Errorf("failed to clear tokens: %w", err)
		}
		for _, token := range tokens {
			if _, err := s.tokens.InsertOne(sc, tokenToDoc(userID, token)); err != nil {
				return fmt.Errorf("failed to insert token: %w", err)
			}
		}
		return nil
	})
}

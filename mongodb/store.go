// Package mongodb implements the identity persistence contract on top of a
// MongoDB database. Relational behavior is emulated: child records reference
// their owner through a denormalized user_id field queried by equality, and
// read-modify-write sequences run inside multi-document transactions, the
// only consistency primitive the store relies on.
package mongodb

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/pilab-dev/identity-store/domain"
	iderrors "github.com/pilab-dev/identity-store/errors"
)

// Store implements domain.UserStore against four MongoDB collections. It
// holds no mutable state beyond the closed flag and performs no in-process
// caching: every read is a fresh round trip so results are never stale
// relative to the concurrency-stamp protocol.
type Store struct {
	client *mongo.Client
	users  *mongo.Collection
	claims *mongo.Collection
	logins *mongo.Collection
	tokens *mongo.Collection

	describer iderrors.Describer
	closed    atomic.Bool
}

// StoreOption customizes a Store at construction.
type StoreOption func(*Store)

// WithErrorDescriber installs the describer used to build user-facing
// descriptions for domain failures. Defaults to iderrors.DefaultDescriber.
func WithErrorDescriber(d iderrors.Describer) StoreOption {
	return func(s *Store) { s.describer = d }
}

// NewStore resolves the four collections and validates the routing
// configuration eagerly. Lookup index creation is attempted but a failure
// only logs a warning; existing compatible indexes are the common cause.
func NewStore(ctx context.Context, db *mongo.Database, names CollectionNames, opts ...StoreOption) (*Store, error) {
	if err := names.Validate(); err != nil {
		return nil, err
	}
	s := &Store{
		client: db.Client(),
		users:  db.Collection(names.Users),
		claims: db.Collection(names.UserClaims),
		logins: db.Collection(names.UserLogins),
		tokens: db.Collection(names.UserTokens),
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.ensureIndexes(ctx); err != nil {
		log.Warn().Err(err).Msg("Failed to create identity collection indexes (may already exist or options conflict)")
	}
	return s, nil
}

// Close marks the store unusable. It does not disconnect the shared client;
// that stays the owner's responsibility (see Disconnect).
func (s *Store) Close() {
	s.closed.Store(true)
}

// guard runs the common entry checks: closed store first, then cooperative
// cancellation. Neither touches the network.
func (s *Store) guard(ctx context.Context) error {
	if s.closed.Load() {
		return iderrors.New(s.describer, iderrors.StoreClosed)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return nil
}

func (s *Store) invalidArg(name string) error {
	return iderrors.NewInvalidArgument(name)
}

func (s *Store) concurrencyFailure() error {
	return iderrors.New(s.describer, iderrors.ConcurrencyFailure)
}

// withTxn runs fn inside a single MongoDB transaction. The driver may invoke
// fn more than once on transient errors, so fn must be safe to retry.
func (s *Store) withTxn(ctx context.Context, fn func(sc mongo.SessionContext) error) error {
	sess, err := s.client.StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}

// Ensure interface compliance
var _ domain.UserStore = (*Store)(nil)

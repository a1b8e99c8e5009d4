package domain

import "context"

// UserStore is the persistence contract consumed by an upstream
// identity-management layer. Single-entity lookups report absence by
// returning a nil entity and a nil error; mutations report domain failures
// (concurrency conflicts, missing claims) as typed errors carrying a
// machine-checkable code.
type UserStore interface {
	// CreateUser writes the user document unconditionally (upsert). The store
	// performs no uniqueness check on the normalized name or email; callers
	// wanting duplicate detection must look the user up first.
	CreateUser(ctx context.Context, user *User) error
	// UpdateUser replaces the user document if and only if the stored
	// concurrency stamp still equals user.ConcurrencyStamp. On success the
	// stamp is regenerated in place.
	UpdateUser(ctx context.Context, user *User) error
	// DeleteUser removes the user document under the same stamp check as
	// UpdateUser. Dependent claim, login and token documents are not
	// cascaded; orphan cleanup is the caller's concern.
	DeleteUser(ctx context.Context, user *User) error
	FindByID(ctx context.Context, id string) (*User, error)
	FindByNormalizedUserName(ctx context.Context, normalizedName string) (*User, error)
	FindByNormalizedEmail(ctx context.Context, normalizedEmail string) (*User, error)
	// ListUsers pages through all user documents. pageToken is the opaque
	// token returned by a previous call, or empty for the first page.
	ListUsers(ctx context.Context, pageToken string, pageSize int) ([]*User, string, error)

	GetClaims(ctx context.Context, userID string) ([]UserClaim, error)
	AddClaims(ctx context.Context, userID string, claims []UserClaim) error
	ReplaceClaim(ctx context.Context, userID string, claim, newClaim UserClaim) error
	RemoveClaims(ctx context.Context, userID string, claims []UserClaim) error
	// GetUsersForClaim resolves every user holding a claim equal to the given
	// type and value. Each matching claim document triggers its own user
	// lookup; the fan-out is not batched.
	GetUsersForClaim(ctx context.Context, claim UserClaim) ([]*User, error)

	AddLogin(ctx context.Context, userID string, login UserLogin) error
	RemoveLogin(ctx context.Context, userID, loginProvider, providerKey string) error
	GetLogins(ctx context.Context, userID string) ([]UserLogin, error)
	// FindByLogin resolves the user linked to an external login, or nil when
	// no login document matches.
	FindByLogin(ctx context.Context, loginProvider, providerKey string) (*User, error)

	GetUserTokens(ctx context.Context, userID string) ([]UserToken, error)
	// SaveUserTokens replaces the user's full token set: every existing token
	// document is deleted and the provided set is inserted, atomically.
	SaveUserTokens(ctx context.Context, userID string, tokens []UserToken) error
}

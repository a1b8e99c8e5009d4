package domain

import "time"

// User is the identity record persisted by the store. One document per user,
// keyed by ID. The ID is opaque to the store and immutable once assigned.
type User struct {
	ID                   string     `bson:"_id,omitempty"`
	UserName             string     `bson:"user_name"`
	NormalizedUserName   string     `bson:"normalized_user_name"`
	Email                string     `bson:"email"`
	NormalizedEmail      string     `bson:"normalized_email"`
	EmailConfirmed       bool       `bson:"email_confirmed"`
	PasswordHash         string     `bson:"password_hash"`
	SecurityStamp        string     `bson:"security_stamp"`
	PhoneNumber          string     `bson:"phone_number"`
	PhoneNumberConfirmed bool       `bson:"phone_number_confirmed"`
	TwoFactorEnabled     bool       `bson:"two_factor_enabled"`
	LockoutEnd           *time.Time `bson:"lockout_end,omitempty"`
	LockoutEnabled       bool       `bson:"lockout_enabled"`
	AccessFailedCount    int        `bson:"access_failed_count"`

	// ConcurrencyStamp is the optimistic-lock token. It is regenerated on
	// every successful update and compared on update/delete; a mismatch means
	// another writer committed first.
	ConcurrencyStamp string `bson:"concurrency_stamp"`
}

// UserClaim associates a claim type/value pair with a user. Claims live in
// their own collection and reference the owner through the denormalized
// UserID field; referential integrity is the caller's responsibility.
// Multiple claims of the same type may coexist for one user.
type UserClaim struct {
	UserID     string `bson:"user_id"`
	ClaimType  string `bson:"claim_type"`
	ClaimValue string `bson:"claim_value"`
}

// UserLogin links a user to an external login provider. The natural identity
// of a login is the (LoginProvider, ProviderKey) pair; the store does not
// enforce its uniqueness.
type UserLogin struct {
	UserID              string `bson:"user_id"`
	LoginProvider       string `bson:"login_provider"`
	ProviderKey         string `bson:"provider_key"`
	ProviderDisplayName string `bson:"provider_display_name,omitempty"`
}

// UserToken is a named token issued to a user by a login provider. Tokens are
// always saved as a complete set per user (replace-all, not merge).
type UserToken struct {
	UserID        string `bson:"user_id"`
	LoginProvider string `bson:"login_provider"`
	Name          string `bson:"name"`
	Value         string `bson:"value"`
}

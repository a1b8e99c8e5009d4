package mongodb

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/pilab-dev/identity-store/domain"
	iderrors "github.com/pilab-dev/identity-store/errors"
)

// The mapper converts between typed entities and generic bson documents. The
// field schema is spelled out in code rather than derived by reflection, so
// the stored shape is explicit and conversions are lossless round trips.
// Absent fields degrade to zero values, which lets partial documents (for
// example projections onto indexed fields) decode cleanly; a field whose
// stored type is incompatible with the entity schema fails with a mapping
// error.

// Typed field accessors. Each tolerates both the values the mapper itself
// writes and the wider set of types the driver produces when decoding into
// bson.M (int32/int64 for numbers, primitive.DateTime for times).

func docString(doc bson.M, key string) (string, error) {
	v, ok := doc[key]
	if !ok || v == nil {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", iderrors.NewMapping(key, v)
	}
	return s, nil
}

func docBool(doc bson.M, key string) (bool, error) {
	v, ok := doc[key]
	if !ok || v == nil {
		return false, nil
	}
	b, ok := v.(bool)
	if !ok {
		return false, iderrors.NewMapping(key, v)
	}
	return b, nil
}

func docInt(doc bson.M, key string) (int, error) {
	switch v := doc[key].(type) {
	case nil:
		return 0, nil
	case int:
		return v, nil
	case int32:
		return int(v), nil
	case int64:
		return int(v), nil
	default:
		return 0, iderrors.NewMapping(key, v)
	}
}

func docTimePtr(doc bson.M, key string) (*time.Time, error) {
	switch v := doc[key].(type) {
	case nil:
		return nil, nil
	case time.Time:
		t := v
		return &t, nil
	case *time.Time:
		return v, nil
	case primitive.DateTime:
		t := v.Time().UTC()
		return &t, nil
	default:
		return nil, iderrors.NewMapping(key, v)
	}
}

func userToDoc(u *domain.User) bson.M {
	doc := bson.M{
		"_id":                    u.ID,
		"user_name":              u.UserName,
		"normalized_user_name":   u.NormalizedUserName,
		"email":                  u.Email,
		"normalized_email":       u.NormalizedEmail,
		"email_confirmed":        u.EmailConfirmed,
		"password_hash":          u.PasswordHash,
		"security_stamp":         u.SecurityStamp,
		"concurrency_stamp":      u.ConcurrencyStamp,
		"phone_number":           u.PhoneNumber,
		"phone_number_confirmed": u.PhoneNumberConfirmed,
		"two_factor_enabled":     u.TwoFactorEnabled,
		"lockout_enabled":        u.LockoutEnabled,
		"access_failed_count":    u.AccessFailedCount,
	}
	if u.LockoutEnd != nil {
		doc["lockout_end"] = u.LockoutEnd.UTC()
	}
	return doc
}

func userFromDoc(doc bson.M) (*domain.User, error) {
	var u domain.User
	var err error
	if u.ID, err = docString(doc, "_id"); err != nil {
		return nil, err
	}
	if u.UserName, err = docString(doc, "user_name"); err != nil {
		return nil, err
	}
	if u.NormalizedUserName, err = docString(doc, "normalized_user_name"); err != nil {
		return nil, err
	}
	if u.Email, err = docString(doc, "email"); err != nil {
		return nil, err
	}
	if u.NormalizedEmail, err = docString(doc, "normalized_email"); err != nil {
		return nil, err
	}
	if u.EmailConfirmed, err = docBool(doc, "email_confirmed"); err != nil {
		return nil, err
	}
	if u.PasswordHash, err = docString(doc, "password_hash"); err != nil {
		return nil, err
	}
	if u.SecurityStamp, err = docString(doc, "security_stamp"); err != nil {
		return nil, err
	}
	if u.ConcurrencyStamp, err = docString(doc, "concurrency_stamp"); err != nil {
		return nil, err
	}
	if u.PhoneNumber, err = docString(doc, "phone_number"); err != nil {
		return nil, err
	}
	if u.PhoneNumberConfirmed, err = docBool(doc, "phone_number_confirmed"); err != nil {
		return nil, err
	}
	if u.TwoFactorEnabled, err = docBool(doc, "two_factor_enabled"); err != nil {
		return nil, err
	}
	if u.LockoutEnd, err = docTimePtr(doc, "lockout_end"); err != nil {
		return nil, err
	}
	if u.LockoutEnabled, err = docBool(doc, "lockout_enabled"); err != nil {
		return nil, err
	}
	if u.AccessFailedCount, err = docInt(doc, "access_failed_count"); err != nil {
		return nil, err
	}
	return &u, nil
}

func claimToDoc(userID string, c domain.UserClaim) bson.M {
	return bson.M{
		"user_id":     userID,
		"claim_type":  c.ClaimType,
		"claim_value": c.ClaimValue,
	}
}

func claimFromDoc(doc bson.M) (domain.UserClaim, error) {
	var c domain.UserClaim
	var err error
	if c.UserID, err = docString(doc, "user_id"); err != nil {
		return c, err
	}
	if c.ClaimType, err = docString(doc, "claim_type"); err != nil {
		return c, err
	}
	if c.ClaimValue, err = docString(doc, "claim_value"); err != nil {
		return c, err
	}
	return c, nil
}

func loginToDoc(userID string, l domain.UserLogin) bson.M {
	return bson.M{
		"user_id":               userID,
		"login_provider":        l.LoginProvider,
		"provider_key":          l.ProviderKey,
		"provider_display_name": l.ProviderDisplayName,
	}
}

func loginFromDoc(doc bson.M) (domain.UserLogin, error) {
	var l domain.UserLogin
	var err error
	if l.UserID, err = docString(doc, "user_id"); err != nil {
		return l, err
	}
	if l.LoginProvider, err = docString(doc, "login_provider"); err != nil {
		return l, err
	}
	if l.ProviderKey, err = docString(doc, "provider_key"); err != nil {
		return l, err
	}
	if l.ProviderDisplayName, err = docString(doc, "provider_display_name"); err != nil {
		return l, err
	}
	return l, nil
}

func tokenToDoc(userID string, t domain.UserToken) bson.M {
	return bson.M{
		"user_id":        userID,
		"login_provider": t.LoginProvider,
		"name":           t.Name,
		"value":          t.Value,
	}
}

func tokenFromDoc(doc bson.M) (domain.UserToken, error) {
	var t domain.UserToken
	var err error
	if t.UserID, err = docString(doc, "user_id"); err != nil {
		return t, err
	}
	if t.LoginProvider, err = docString(doc, "login_provider"); err != nil {
		return t, err
	}
	if t.Name, err = docString(doc, "name"); err != nil {
		return t, err
	}
	if t.Value, err = docString(doc, "value"); err != nil {
		return t, err
	}
	return t, nil
}

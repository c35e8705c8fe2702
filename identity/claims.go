package identity

import (
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

// TokenClaims is the subset of id-token claims this module cares about.
type TokenClaims struct {
	Subject    string
	Username   string
	Email      string
	GivenName  string
	FamilyName string
	ExpiresAt  time.Time
}

// Claims decodes the claims of an id token without verifying its signature.
// Verification belongs to the provider and to resource servers; the client
// only reads claims for logging and profile fallbacks.
func Claims(idToken string) (*TokenClaims, error) {
	mapClaims := jwtlib.MapClaims{}
	if _, _, err := jwtlib.NewParser().ParseUnverified(idToken, mapClaims); err != nil {
		return nil, errors.Wrap(err, "[Claims] parsing id token")
	}

	claims := &TokenClaims{
		Subject:    stringClaim(mapClaims, "sub"),
		Username:   stringClaim(mapClaims, "preferred_username"),
		Email:      stringClaim(mapClaims, "email"),
		GivenName:  stringClaim(mapClaims, "given_name"),
		FamilyName: stringClaim(mapClaims, "family_name"),
	}
	if exp, err := mapClaims.GetExpirationTime(); err == nil && exp != nil {
		claims.ExpiresAt = exp.Time
	}
	return claims, nil
}

func stringClaim(claims jwtlib.MapClaims, name string) string {
	value, _ := claims[name].(string)
	return value
}

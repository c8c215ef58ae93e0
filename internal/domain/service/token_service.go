package service

import (
	"github.com/golang-jwt/jwt/v5"

	"storefront/internal/domain/entity"
)

// IdentityClaims are the claims carried by a storefront identity token.
// The subject is the WordPress user id.
type IdentityClaims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// IdentityTokenService issues and validates identity tokens.
// A request without a valid token is treated as a guest.
type IdentityTokenService interface {
	// IssueToken signs a token for an authenticated user.
	IssueToken(identity entity.Identity, email string) (string, error)

	// ParseIdentity validates a token and returns the identity it proves.
	ParseIdentity(tokenString string) (entity.Identity, *IdentityClaims, error)
}

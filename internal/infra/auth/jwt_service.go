// Package auth provides concrete implementations for authentication-related domain services.
package auth

import (
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"

	"storefront/config"
	"storefront/internal/domain/entity"
	"storefront/internal/domain/service"
)

const defaultIdentityTTL = 24 * time.Hour

// jwtService is a concrete implementation of the IdentityTokenService interface using the JWT standard.
type jwtService struct {
	secret string        // Secret key for signing identity tokens.
	issuer string        // Expected issuer, empty to accept any.
	ttl    time.Duration // Time-to-live for issued tokens.
	now    func() time.Time
}

// NewJWTService is the constructor for jwtService.
func NewJWTService(cfg *config.Config) (service.IdentityTokenService, error) {
	if cfg.SecretKey.Identity == "" {
		return nil, errors.New("identity token secret must be provided")
	}

	ttl := cfg.SecretKey.TTL
	if ttl <= 0 {
		ttl = defaultIdentityTTL
	}

	return &jwtService{
		secret: cfg.SecretKey.Identity,
		issuer: cfg.SecretKey.Issuer,
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

// IssueToken signs a token whose subject is the WordPress user id.
func (s *jwtService) IssueToken(identity entity.Identity, email string) (string, error) {
	if identity.IsGuest() {
		return "", errors.New("cannot issue an identity token for a guest")
	}

	now := s.now()
	claims := &service.IdentityClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(identity.UserID, 10),
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.secret))
	if err != nil {
		return "", errors.Wrap(err, "failed to sign identity token")
	}

	return signed, nil
}

// ParseIdentity checks the token signature, expiry and issuer, then reads the user id from the subject.
func (s *jwtService) ParseIdentity(tokenString string) (entity.Identity, *service.IdentityClaims, error) {
	claims := &service.IdentityClaims{}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	_, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return []byte(s.secret), nil
	}, opts...)
	if err != nil {
		return entity.Guest(), nil, errors.Wrap(err, "invalid identity token")
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || userID <= 0 {
		return entity.Guest(), nil, errors.Errorf("identity token subject %q is not a user id", claims.Subject)
	}

	return entity.AuthenticatedUser(userID), claims, nil
}

package authsvc

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/mkrupp/collabgames/internal/domain"
)

// TokenValidator verifies access tokens and extracts the identity key.
type TokenValidator struct {
	secret []byte
	parser *jwt.Parser
}

// NewTokenValidator creates a validator accepting only tokens signed with
// secret under algorithm. now is the clock used for expiry checks; nil means time.Now.
func NewTokenValidator(secret []byte, algorithm string, now func() time.Time) (*TokenValidator, error) {
	if len(secret) == 0 {
		return nil, ErrEmptySecret
	}

	method, err := hmacMethod(algorithm)
	if err != nil {
		return nil, err
	}

	if now == nil {
		now = time.Now
	}

	return &TokenValidator{
		secret: secret,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{method.Alg()}),
			jwt.WithExpirationRequired(),
			jwt.WithJSONNumber(),
			jwt.WithStrictDecoding(),
			jwt.WithTimeFunc(now),
		),
	}, nil
}

// Validate checks signature and expiry, then coerces the subject to an identity key.
// Every failure, expiry included, is domain.ErrInvalidToken.
func (v *TokenValidator) Validate(raw string) (int64, error) {
	claims := jwt.MapClaims{}

	if _, err := v.parser.ParseWithClaims(raw, claims, v.key); err != nil {
		return 0, errors.Join(domain.ErrInvalidToken, fmt.Errorf("parse token: %w", err))
	}

	sub, ok := claims["sub"]
	if !ok {
		return 0, fmt.Errorf("%w: missing subject", domain.ErrInvalidToken)
	}

	subject := domain.ParseSubject(sub)

	id, ok := subject.IdentityKey()
	if !ok {
		return 0, fmt.Errorf("%w: non-numeric subject %q", domain.ErrInvalidToken, subject.Raw)
	}

	return id, nil
}

func (v *TokenValidator) key(*jwt.Token) (any, error) {
	return v.secret, nil
}

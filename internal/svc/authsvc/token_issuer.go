package authsvc

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/mkrupp/collabgames/internal/domain"
)

var (
	// ErrUnsupportedAlgorithm is returned for signing algorithms other than HS256, HS384 and HS512.
	ErrUnsupportedAlgorithm = errors.New("unsupported signing algorithm")
	// ErrEmptySecret is returned when the signing secret is empty.
	ErrEmptySecret = errors.New("empty signing secret")
)

// hmacMethod returns the HMAC signing method named by algorithm.
func hmacMethod(algorithm string) (*jwt.SigningMethodHMAC, error) {
	method, ok := jwt.GetSigningMethod(algorithm).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, algorithm)
	}

	return method, nil
}

// TokenIssuer signs access tokens carrying only "sub" and "exp".
type TokenIssuer struct {
	method *jwt.SigningMethodHMAC
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenIssuer creates an issuer signing with secret under algorithm.
// Tokens issued with Issue expire after ttl.
func NewTokenIssuer(secret []byte, algorithm string, ttl time.Duration) (*TokenIssuer, error) {
	if len(secret) == 0 {
		return nil, ErrEmptySecret
	}

	method, err := hmacMethod(algorithm)
	if err != nil {
		return nil, err
	}

	return &TokenIssuer{
		method: method,
		secret: secret,
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

// TTL returns the default token lifetime.
func (i *TokenIssuer) TTL() time.Duration {
	return i.ttl
}

// Issue signs a token for the user with the default lifetime.
func (i *TokenIssuer) Issue(id int64) (string, error) {
	return i.IssueWithTTL(id, i.ttl)
}

// IssueWithTTL signs a token for the user that expires ttl from now.
// A negative ttl yields a token that is already expired.
func (i *TokenIssuer) IssueWithTTL(id int64, ttl time.Duration) (string, error) {
	//nolint:exhaustruct
	claims := jwt.RegisteredClaims{
		Subject:   domain.FormatSubject(id),
		ExpiresAt: jwt.NewNumericDate(i.now().Add(ttl)),
	}

	signed, err := jwt.NewWithClaims(i.method, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return signed, nil
}

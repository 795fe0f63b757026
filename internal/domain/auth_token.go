package domain

import (
	"errors"
	"strings"
)

var (
	// ErrUnauthenticated is returned when no identity could be established:
	// no token was presented, or the token names a user that does not exist.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrInvalidToken is returned when a token is malformed, unverifiable, expired
	// or carries a subject that is not an identity key.
	ErrInvalidToken = errors.New("invalid auth token")
)

// TokenTypeBearer is the token type reported to clients.
const TokenTypeBearer = "bearer"

// IssuedToken is the response payload of a successful login or registration.
type IssuedToken struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	UserID      int64  `json:"user_id"`
	UserName    string `json:"user_name"`
}

// NewIssuedToken composes the response for the given user and signed token.
func NewIssuedToken(token string, user *User) IssuedToken {
	return IssuedToken{
		AccessToken: token,
		TokenType:   TokenTypeBearer,
		UserID:      user.ID,
		UserName:    user.Name,
	}
}

// BearerToken is a token as presented by a client. Present is false when the
// request carried no bearer credentials at all.
type BearerToken struct {
	Raw     string
	Present bool
}

// ParseAuthorizationHeader extracts the bearer token from an Authorization header value.
// The scheme is matched case-insensitively. Any other scheme counts as absent.
func ParseAuthorizationHeader(header string) BearerToken {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return BearerToken{}
	}

	token = strings.TrimSpace(token)
	if token == "" {
		return BearerToken{}
	}

	return BearerToken{Raw: token, Present: true}
}

package authclient

import (
	"context"

	"github.com/mkrupp/collabgames/internal/domain"
)

// IdentityResolver resolves the user a bearer token speaks for.
type IdentityResolver interface {
	// Resolve returns the user named by the token's subject.
	// It fails with domain.ErrUnauthenticated when no token was presented or the
	// subject does not exist, and with domain.ErrInvalidToken when the token is
	// malformed, unverifiable, expired or has a non-numeric subject.
	// Any other error is an infrastructure fault.
	Resolve(ctx context.Context, token domain.BearerToken) (*domain.User, error)
}

package authsvc

import (
	"context"

	"github.com/mkrupp/collabgames/internal/domain"
	"github.com/mkrupp/collabgames/internal/infra/logging"
	"github.com/mkrupp/collabgames/internal/repo/user"
)

// AuthFailure says why an authentication did not succeed. It is for logs only;
// callers must treat every failure alike.
type AuthFailure int

const (
	AuthOK AuthFailure = iota
	AuthUnknownName
	AuthWrongPassword
	AuthLookupFault
)

func (f AuthFailure) String() string {
	switch f {
	case AuthOK:
		return "ok"
	case AuthUnknownName:
		return "unknown_name"
	case AuthWrongPassword:
		return "wrong_password"
	case AuthLookupFault:
		return "lookup_fault"
	default:
		return "unknown"
	}
}

// Authentication is the outcome of checking a name and password.
type Authentication struct {
	User    *domain.User
	Failure AuthFailure
	Err     error // set for AuthLookupFault
}

// OK reports whether the credentials were verified.
func (a Authentication) OK() bool {
	return a.Failure == AuthOK && a.User != nil
}

type passwordBurner interface {
	Burn(password string)
}

// Authenticator verifies credentials against stored users.
type Authenticator struct {
	hasher PasswordHasher
	log    logging.Logger
}

// NewAuthenticator creates an Authenticator using the given hasher.
func NewAuthenticator(hasher PasswordHasher) *Authenticator {
	return &Authenticator{
		hasher: hasher,
		log:    logging.GetLogger("svc.authsvc.authenticator"),
	}
}

// Authenticate looks up the user by exact name and verifies the password.
// Store faults are reported as a failed authentication.
func (a *Authenticator) Authenticate(
	ctx context.Context,
	repo user.Repository,
	name, password string,
) (auth Authentication) {
	defer func() {
		switch auth.Failure {
		case AuthOK:
			a.log.DebugContext(ctx, "credentials verified", logging.Group("user", "id", auth.User.ID))
		case AuthLookupFault:
			a.log.ErrorContext(ctx, "authentication lookup failed", "reason", auth.Failure, "error", auth.Err)
		default:
			a.log.InfoContext(ctx, "authentication failed", "reason", auth.Failure)
		}
	}()

	found, ok, err := repo.GetUserByName(ctx, name)
	if err != nil {
		//nolint:exhaustruct
		return Authentication{Failure: AuthLookupFault, Err: err}
	}

	if !ok {
		if burner, ok := a.hasher.(passwordBurner); ok {
			burner.Burn(password)
		}

		//nolint:exhaustruct
		return Authentication{Failure: AuthUnknownName}
	}

	if !a.hasher.Verify(found.PasswordHash, password) {
		//nolint:exhaustruct
		return Authentication{Failure: AuthWrongPassword}
	}

	//nolint:exhaustruct
	return Authentication{User: found, Failure: AuthOK}
}

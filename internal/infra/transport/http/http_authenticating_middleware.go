package http

import (
	"errors"
	"net/http"

	"github.com/mkrupp/collabgames/internal/domain"
	context_ "github.com/mkrupp/collabgames/internal/infra/context"
	"github.com/mkrupp/collabgames/internal/infra/logging"
	"github.com/mkrupp/collabgames/internal/svc/authsvc/authclient"
)

// CredentialsInvalidDetail is the uniform message for every failed bearer authentication.
const CredentialsInvalidDetail = "Could not validate credentials"

// AuthenticatingMiddleware creates middleware that resolves the bearer token of each request.
// Requests without a token, or with a token that does not resolve to a user, are rejected
// with 401 and a Bearer challenge. On success, the user is added to the request context.
func AuthenticatingMiddleware(
	next http.Handler,
	resolver authclient.IdentityResolver,
	log logging.Logger,
) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		token := domain.ParseAuthorizationHeader(r.Header.Get(AuthorizationHeader))

		user, err := resolver.Resolve(ctx, token)
		if err != nil {
			switch {
			case errors.Is(err, domain.ErrUnauthenticated), errors.Is(err, domain.ErrInvalidToken):
				log.WarnContext(ctx, "authentication failed", "error", err, "token_present", token.Present)
				WriteUnauthorized(w, CredentialsInvalidDetail, ErrorCode(err))
			default:
				log.ErrorContext(ctx, "resolve identity failed", "error", err)
				WriteError(w, r, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
			}

			return
		}

		next.ServeHTTP(w, r.WithContext(context_.WithUser(ctx, user)))
	})
}

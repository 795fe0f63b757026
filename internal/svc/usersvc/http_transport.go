// Package usersvc serves the authenticated user's own profile. It is the
// in-process consumer of the identity resolution contract.
package usersvc

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	context_ "github.com/mkrupp/collabgames/internal/infra/context"
	"github.com/mkrupp/collabgames/internal/infra/logging"
	http_ "github.com/mkrupp/collabgames/internal/infra/transport/http"
	"github.com/mkrupp/collabgames/internal/svc/authsvc/authclient"
)

// ErrNoUser is returned when a handler runs without a resolved user.
var ErrNoUser = errors.New("no user in context")

// HTTPTransport handles /users requests. Every route requires a bearer token.
type HTTPTransport struct {
	handler http.Handler
	log     logging.Logger
}

var _ http_.HTTPTransport = (*HTTPTransport)(nil)

// NewHTTPTransport creates the transport, authenticating requests with resolver.
func NewHTTPTransport(resolver authclient.IdentityResolver) *HTTPTransport {
	ht := &HTTPTransport{
		log: logging.GetLogger("svc.usersvc.http_transport"),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /users/me", ht.HandleMe)

	ht.handler = http_.AuthenticatingMiddleware(mux, resolver, ht.log)

	return ht
}

// ServeHTTP implements http.Handler.
func (ht *HTTPTransport) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ht.handler.ServeHTTP(w, r)
}

// HandleMe returns the profile of the authenticated user.
func (ht *HTTPTransport) HandleMe(w http.ResponseWriter, r *http.Request) {
	_ = ht.handleMe(w, r)
}

func (ht *HTTPTransport) handleMe(w http.ResponseWriter, r *http.Request) (err error) {
	defer func(ctx context.Context) {
		if err != nil {
			ht.log.ErrorContext(ctx, "get profile failed", "error", err)
		}
	}(r.Context())

	user, ok := context_.UserFromContext(r.Context())
	if !ok {
		http_.WriteError(w, r, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))

		return ErrNoUser
	}

	if err := http_.WriteJSON(w, http.StatusOK, user.Profile()); err != nil {
		return fmt.Errorf("encode response: %w", err)
	}

	return nil
}

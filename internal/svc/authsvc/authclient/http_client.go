package authclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/mkrupp/collabgames/internal/domain"
	context_ "github.com/mkrupp/collabgames/internal/infra/context"
	"github.com/mkrupp/collabgames/internal/infra/logging"
)

const (
	TraceIDHeader       = "X-Request-ID"
	AuthorizationHeader = "Authorization"

	invalidTokenCode = "invalid_token"
)

// ErrUnexpectedStatus is returned when the auth service answers with a status
// other than 200 or 401.
var ErrUnexpectedStatus = errors.New("unexpected status")

// HTTPClientConfig holds configuration for the HTTP auth client.
type HTTPClientConfig struct {
	// AuthURL is the endpoint for token validation requests
	AuthURL string `env:"AUTH_URL" envDefault:"http://localhost:8080/auth/validate"`
}

// HTTPClient implements IdentityResolver by asking a remote auth service.
type HTTPClient struct {
	httpClient *http.Client
	log        logging.Logger
	cfg        HTTPClientConfig
}

var _ IdentityResolver = (*HTTPClient)(nil)

// NewHTTPClient creates a new HTTPClient with the given configuration.
// If httpClient is nil, http.DefaultClient will be used.
func NewHTTPClient(
	cfg HTTPClientConfig,
	httpClient *http.Client,
) *HTTPClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &HTTPClient{
		httpClient: httpClient,
		log:        logging.GetLogger("svc.authsvc.http_client"),
		cfg:        cfg,
	}
}

type validateError struct {
	Code string `json:"error"`
}

// Resolve implements IdentityResolver.Resolve. An absent token is rejected
// without a round trip.
func (c *HTTPClient) Resolve(ctx context.Context, token domain.BearerToken) (_ *domain.User, err error) {
	if !token.Present {
		return nil, domain.ErrUnauthenticated
	}

	defer func() {
		if err != nil {
			c.log.DebugContext(ctx, "remote resolve failed", "error", err)
		}
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.AuthURL, nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}

	req.Header.Set(AuthorizationHeader, "Bearer "+token.Raw)

	if traceID, ok := context_.TraceIDFromContext(ctx); ok {
		req.Header.Set(TraceIDHeader, traceID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("post: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized:
		var body validateError
		if err := json.NewDecoder(resp.Body).Decode(&body); err == nil && body.Code == invalidTokenCode {
			return nil, domain.ErrInvalidToken
		}

		return nil, domain.ErrUnauthenticated
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	var profile domain.UserProfile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}

	//nolint:exhaustruct
	return &domain.User{
		ID:          profile.ID,
		Name:        profile.Name,
		Categories:  profile.Categories,
		PointTotal:  profile.PointTotal,
		LastLoginAt: profile.LastLoginAt,
	}, nil
}

package authsvc_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkrupp/collabgames/internal/domain"
	http_ "github.com/mkrupp/collabgames/internal/infra/transport/http"
	"github.com/mkrupp/collabgames/internal/svc/authsvc"
)

func newTestTransport(t *testing.T) (*authsvc.HTTPTransport, *authsvc.AuthService) {
	t.Helper()

	svc := setupSQLiteService(t)

	//nolint:exhaustruct
	return authsvc.NewHTTPTransport(svc, authsvc.HTTPTransportConfig{}), svc
}

func formRequest(target string, form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	return req
}

func jsonRequest(t *testing.T, target string, body any) *http.Request {
	t.Helper()

	raw, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(string(raw)))
	req.Header.Set("Content-Type", "application/json")

	return req
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	return rec
}

func decodeToken(t *testing.T, rec *httptest.ResponseRecorder) domain.IssuedToken {
	t.Helper()

	var token domain.IssuedToken
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&token))

	return token
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) http_.ErrorResponse {
	t.Helper()

	var resp http_.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))

	return resp
}

func registerAlice(t *testing.T, h http.Handler) domain.IssuedToken {
	t.Helper()

	rec := serve(h, jsonRequest(t, "/auth/register", map[string]any{
		"name":             "alice",
		"password":         "s3cret",
		"confirm_password": "s3cret",
		"categories":       []string{"chess"},
	}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	return decodeToken(t, rec)
}

func TestHTTPTransport_RegisterJSON(t *testing.T) {
	t.Parallel()

	ht, _ := newTestTransport(t)

	token := registerAlice(t, ht)

	assert.Equal(t, int64(1), token.UserID)
	assert.Equal(t, "alice", token.UserName)
	assert.Equal(t, domain.TokenTypeBearer, token.TokenType)
	assert.Equal(t, "1", subjectOf(t, token.AccessToken))
}

func TestHTTPTransport_RegisterForm(t *testing.T) {
	t.Parallel()

	ht, svc := newTestTransport(t)

	rec := serve(ht, formRequest("/auth/register", url.Values{
		"name":             {"bob"},
		"password":         {"pw"},
		"confirm_password": {"pw"},
		"categories":       {"go", "chess"},
	}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	token := decodeToken(t, rec)

	u, err := svc.Resolve(t.Context(), domain.BearerToken{Raw: token.AccessToken, Present: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"go", "chess"}, u.Categories)
}

func TestHTTPTransport_RegisterRejected(t *testing.T) {
	t.Parallel()

	ht, _ := newTestTransport(t)
	registerAlice(t, ht)

	tests := []struct {
		name       string
		body       map[string]any
		wantDetail string
	}{
		{
			name:       "password mismatch",
			body:       map[string]any{"name": "carol", "password": "a", "confirm_password": "b"},
			wantDetail: "Passwords do not match",
		},
		{
			name:       "duplicate name",
			body:       map[string]any{"name": "alice", "password": "a", "confirm_password": "a"},
			wantDetail: "Username already registered",
		},
		{
			name:       "missing name",
			body:       map[string]any{"password": "a", "confirm_password": "a"},
			wantDetail: "missing field: name",
		},
		{
			name: "category with comma",
			body: map[string]any{
				"name": "dave", "password": "a", "confirm_password": "a", "categories": []string{"a,b"},
			},
			wantDetail: "Categories must be non-empty and must not contain commas",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(ht, jsonRequest(t, "/auth/register", tt.body))

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.wantDetail, decodeError(t, rec).Detail)
		})
	}

	t.Run("malformed body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader("{"))
		req.Header.Set("Content-Type", "application/json")

		rec := serve(ht, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHTTPTransport_RegisterPersistenceFailure(t *testing.T) {
	t.Parallel()

	svc, store := setupTestService(t)
	store.createErr = ErrRepoError

	//nolint:exhaustruct
	ht := authsvc.NewHTTPTransport(svc, authsvc.HTTPTransportConfig{})

	rec := serve(ht, jsonRequest(t, "/auth/register", map[string]any{
		"name": "alice", "password": "a", "confirm_password": "a",
	}))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Registration failed: create user", decodeError(t, rec).Detail)
	assert.Equal(t, 0, store.count())
}

func TestHTTPTransport_Token(t *testing.T) {
	t.Parallel()

	ht, _ := newTestTransport(t)
	registered := registerAlice(t, ht)

	for _, path := range []string{"/auth/token", "/token"} {
		t.Run(path, func(t *testing.T) {
			rec := serve(ht, formRequest(path, url.Values{"username": {"alice"}, "password": {"s3cret"}}))
			require.Equal(t, http.StatusOK, rec.Code)

			token := decodeToken(t, rec)
			assert.Equal(t, registered.UserID, token.UserID)
			assert.Equal(t, "alice", token.UserName)
			assert.Equal(t, domain.TokenTypeBearer, token.TokenType)
		})
	}

	t.Run("wrong password", func(t *testing.T) {
		rec := serve(ht, formRequest("/auth/token", url.Values{"username": {"alice"}, "password": {"nope"}}))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, http_.BearerChallenge, rec.Header().Get(http_.WWWAuthenticateHeader))
		assert.Equal(t, authsvc.IncorrectCredentialsDetail, decodeError(t, rec).Detail)
	})

	t.Run("unknown user looks the same", func(t *testing.T) {
		rec := serve(ht, formRequest("/auth/token", url.Values{"username": {"mallory"}, "password": {"nope"}}))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, http_.BearerChallenge, rec.Header().Get(http_.WWWAuthenticateHeader))
		assert.Equal(t, authsvc.IncorrectCredentialsDetail, decodeError(t, rec).Detail)
	})

	t.Run("missing password", func(t *testing.T) {
		rec := serve(ht, formRequest("/auth/token", url.Values{"username": {"alice"}}))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("wrong method", func(t *testing.T) {
		rec := serve(ht, httptest.NewRequest(http.MethodGet, "/auth/token", nil))

		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})
}

func TestHTTPTransport_Login(t *testing.T) {
	t.Parallel()

	ht, _ := newTestTransport(t)
	registered := registerAlice(t, ht)

	t.Run("query parameters", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/auth/login?username=alice&password=s3cret", nil)

		rec := serve(ht, req)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, registered.UserID, decodeToken(t, rec).UserID)
	})

	t.Run("form", func(t *testing.T) {
		rec := serve(ht, formRequest("/auth/login", url.Values{"username": {"alice"}, "password": {"s3cret"}}))

		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("wrong password has no challenge", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/auth/login?username=alice&password=bad", nil)

		rec := serve(ht, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Empty(t, rec.Header().Get(http_.WWWAuthenticateHeader))
		assert.Equal(t, authsvc.IncorrectCredentialsDetail, decodeError(t, rec).Detail)
	})
}

func TestHTTPTransport_Validate(t *testing.T) {
	t.Parallel()

	ht, _ := newTestTransport(t)
	registered := registerAlice(t, ht)

	t.Run("valid token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/auth/validate", nil)
		req.Header.Set(http_.AuthorizationHeader, "Bearer "+registered.AccessToken)

		rec := serve(ht, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var profile domain.UserProfile
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&profile))
		assert.Equal(t, registered.UserID, profile.ID)
		assert.Equal(t, "alice", profile.Name)
		assert.Equal(t, []string{"chess"}, profile.Categories)
	})

	tests := []struct {
		name     string
		header   string
		wantCode string
	}{
		{name: "no header", header: "", wantCode: http_.ErrorCodeUnauthenticated},
		{name: "other scheme", header: "Basic YWxpY2U6czNjcmV0", wantCode: http_.ErrorCodeUnauthenticated},
		{name: "garbage token", header: "Bearer garbage", wantCode: http_.ErrorCodeInvalidToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/auth/validate", nil)
			if tt.header != "" {
				req.Header.Set(http_.AuthorizationHeader, tt.header)
			}

			rec := serve(ht, req)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, http_.BearerChallenge, rec.Header().Get(http_.WWWAuthenticateHeader))

			resp := decodeError(t, rec)
			assert.Equal(t, http_.CredentialsInvalidDetail, resp.Detail)
			assert.Equal(t, tt.wantCode, resp.Code)
		})
	}
}

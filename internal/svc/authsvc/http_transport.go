package authsvc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"

	"github.com/mkrupp/collabgames/internal/domain"
	"github.com/mkrupp/collabgames/internal/infra/logging"
	http_ "github.com/mkrupp/collabgames/internal/infra/transport/http"
)

const (
	// IncorrectCredentialsDetail is returned for every failed token or login request.
	IncorrectCredentialsDetail = "Incorrect username or password"

	maxRegisterBodyBytes = 1 << 16
)

var (
	// ErrNoUsername is returned when the username is missing from the request.
	ErrNoUsername = errors.New("no username")
	// ErrNoPassword is returned when the password is missing from the request.
	ErrNoPassword = errors.New("no password")
)

// HTTPTransportConfig contains configuration parameters for the HTTP transport layer.
type HTTPTransportConfig struct {
	http_.HTTPTransportConfig
}

// HTTPTransport handles HTTP requests for the authentication service.
type HTTPTransport struct {
	authSvc *AuthService
	log     logging.Logger
	cfg     HTTPTransportConfig
	mux     *http.ServeMux
}

// NewHTTPTransport creates a new HTTPTransport instance with the given configuration.
// It requires an AuthService for handling authentication operations.
func NewHTTPTransport(
	authSvc *AuthService,
	cfg HTTPTransportConfig,
) *HTTPTransport {
	ht := &HTTPTransport{
		authSvc: authSvc,
		log:     logging.GetLogger("svc.authsvc.http_transport"),
		cfg:     cfg,
		mux:     http.NewServeMux(),
	}

	ht.mux.HandleFunc("POST /auth/token", ht.HandleToken)
	ht.mux.HandleFunc("POST /token", ht.HandleToken)
	ht.mux.HandleFunc("POST /auth/login", ht.HandleLogin)
	ht.mux.HandleFunc("POST /auth/register", ht.HandleRegister)
	ht.mux.HandleFunc("POST /auth/validate", ht.HandleValidate)

	return ht
}

// ServeHTTP implements http.Handler with these routes:
// - POST /auth/token, POST /token: OAuth2 password form, returns a token
// - POST /auth/login: same, fields may also be given as query parameters
// - POST /auth/register: register a new user and return a token
// - POST /auth/validate: resolve the bearer token to a user profile.
func (ht *HTTPTransport) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ht.mux.ServeHTTP(w, r)
}

var _ http_.HTTPTransport = (*HTTPTransport)(nil)

// HandleToken processes token requests.
// Expects form parameters: username, password.
func (ht *HTTPTransport) HandleToken(w http.ResponseWriter, r *http.Request) {
	_ = ht.handleCredentials(w, r, true)
}

// HandleLogin processes user login requests.
// Expects form or query parameters: username, password.
func (ht *HTTPTransport) HandleLogin(w http.ResponseWriter, r *http.Request) {
	_ = ht.handleCredentials(w, r, false)
}

func (ht *HTTPTransport) handleCredentials(w http.ResponseWriter, r *http.Request, challenge bool) (err error) {
	log := ht.log.With(logging.Group("http", "method", r.Method, "url", r.URL.Path))

	defer func(ctx context.Context) {
		if err != nil {
			log.WarnContext(ctx, "user login failed", "error", err)
		} else {
			log.DebugContext(ctx, "user logged in")
		}
	}(r.Context())

	// ParseForm merges the query into r.Form for POST bodies
	if err := r.ParseForm(); err != nil {
		http_.WriteError(w, r, http.StatusBadRequest, "invalid form")

		return fmt.Errorf("parse form: %w", err)
	}

	username := r.Form.Get("username")
	if username == "" {
		http_.WriteError(w, r, http.StatusBadRequest, "Missing field: username")

		return ErrNoUsername
	}

	log = log.With(logging.Group("user", "name", username))

	password := r.Form.Get("password")
	if password == "" {
		http_.WriteError(w, r, http.StatusBadRequest, "Missing field: password")

		return ErrNoPassword
	}

	token, err := ht.authSvc.Login(r.Context(), username, password)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidCredentials) && challenge:
			http_.WriteUnauthorized(w, IncorrectCredentialsDetail, "")
		case errors.Is(err, domain.ErrInvalidCredentials):
			http_.WriteError(w, r, http.StatusUnauthorized, IncorrectCredentialsDetail)
		default:
			http_.WriteError(w, r, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
		}

		return fmt.Errorf("login user: %w", err)
	}

	if err := http_.WriteJSON(w, http.StatusOK, token); err != nil {
		return fmt.Errorf("encode response: %w", err)
	}

	return nil
}

// HandleRegister processes user registration requests.
// Accepts a JSON body {name, password, confirm_password, categories} or
// the same fields as a form, with categories repeated.
func (ht *HTTPTransport) HandleRegister(w http.ResponseWriter, r *http.Request) {
	_ = ht.handleRegister(w, r)
}

func (ht *HTTPTransport) handleRegister(w http.ResponseWriter, r *http.Request) (err error) {
	log := ht.log.With(logging.Group("http", "method", r.Method, "url", r.URL.Path))

	status := http.StatusOK

	defer func(ctx context.Context) {
		switch {
		case err == nil:
			log.DebugContext(ctx, "user registered")
		case status < http.StatusInternalServerError:
			log.WarnContext(ctx, "user register rejected", "http.status", status, "error", err)
		default:
			log.ErrorContext(ctx, "user register failed", "http.status", status, "error", err)
		}
	}(r.Context())

	req, err := decodeRegisterRequest(w, r)
	if err != nil {
		status = http.StatusBadRequest
		http_.WriteError(w, r, status, "invalid request body")

		return err
	}

	log = log.With(logging.Group("user", "name", req.Name))

	token, err := ht.authSvc.Register(r.Context(), req)
	if err != nil {
		var detail string

		status, detail = registerErrorResponse(err)
		http_.WriteError(w, r, status, detail)

		return fmt.Errorf("register user: %w", err)
	}

	if err := http_.WriteJSON(w, http.StatusOK, token); err != nil {
		return fmt.Errorf("encode response: %w", err)
	}

	return nil
}

func decodeRegisterRequest(w http.ResponseWriter, r *http.Request) (RegisterRequest, error) {
	var req RegisterRequest

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRegisterBodyBytes))
		if err := dec.Decode(&req); err != nil {
			return req, fmt.Errorf("decode body: %w", err)
		}

		return req, nil
	}

	if err := r.ParseForm(); err != nil {
		return req, fmt.Errorf("parse form: %w", err)
	}

	req.Name = r.Form.Get("name")
	req.Password = r.Form.Get("password")
	req.ConfirmPassword = r.Form.Get("confirm_password")
	req.Categories = r.Form["categories"]

	return req, nil
}

func registerErrorResponse(err error) (int, string) {
	var persistErr *domain.PersistenceError

	switch {
	case errors.Is(err, domain.ErrMissingField):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrPasswordMismatch):
		return http.StatusBadRequest, "Passwords do not match"
	case errors.Is(err, domain.ErrDuplicateName):
		return http.StatusBadRequest, "Username already registered"
	case errors.Is(err, domain.ErrPasswordTooLong):
		return http.StatusBadRequest, "Password too long"
	case errors.Is(err, domain.ErrInvalidCategory):
		return http.StatusBadRequest, "Categories must be non-empty and must not contain commas"
	case errors.As(err, &persistErr):
		return http.StatusInternalServerError, "Registration failed: " + persistErr.Op
	default:
		return http.StatusInternalServerError, "Registration failed"
	}
}

// HandleValidate resolves the bearer token in the Authorization header.
// Returns the user profile if the token is valid.
func (ht *HTTPTransport) HandleValidate(w http.ResponseWriter, r *http.Request) {
	_ = ht.handleValidate(w, r)
}

func (ht *HTTPTransport) handleValidate(w http.ResponseWriter, r *http.Request) (err error) {
	log := ht.log.With(logging.Group("http", "method", r.Method, "url", r.URL.Path))

	defer func(ctx context.Context) {
		if err != nil {
			log.WarnContext(ctx, "user token validation failed", "error", err)
		} else {
			log.DebugContext(ctx, "user token validated")
		}
	}(r.Context())

	token := domain.ParseAuthorizationHeader(r.Header.Get(http_.AuthorizationHeader))

	user, err := ht.authSvc.Resolve(r.Context(), token)
	if err != nil {
		if errors.Is(err, domain.ErrUnauthenticated) || errors.Is(err, domain.ErrInvalidToken) {
			http_.WriteUnauthorized(w, http_.CredentialsInvalidDetail, http_.ErrorCode(err))
		} else {
			http_.WriteError(w, r, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
		}

		return fmt.Errorf("resolve token: %w", err)
	}

	log = log.With(logging.Group("user", "id", user.ID))

	if err := http_.WriteJSON(w, http.StatusOK, user.Profile()); err != nil {
		return fmt.Errorf("encode response: %w", err)
	}

	return nil
}

package authsvc

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mkrupp/collabgames/internal/domain"
	"github.com/mkrupp/collabgames/internal/infra/logging"
	"github.com/mkrupp/collabgames/internal/repo/user"
	"github.com/mkrupp/collabgames/internal/svc/authsvc/authclient"
)

// AuthConfig contains configuration parameters for the authentication service.
type AuthConfig struct {
	// SecretKey is the HMAC signing secret. When empty, SecretKeyFile is used.
	SecretKey string `env:"SECRET_KEY" envDefault:""`

	// SecretKeyFile holds a base64 secret, generated on first start
	SecretKeyFile string `env:"SECRET_KEY_FILE" envDefault:"var/storage/authsvc.secret"`

	// Algorithm is the token signing algorithm (HS256, HS384 or HS512)
	Algorithm string `env:"ALGORITHM" envDefault:"HS256"`

	// AccessTokenExpireMinutes is the lifetime of access tokens
	AccessTokenExpireMinutes int `env:"ACCESS_TOKEN_EXPIRE_MINUTES" envDefault:"30"`

	// BcryptCost is the work factor of password hashes
	BcryptCost int `env:"BCRYPT_COST" envDefault:"10"`
}

// AccessTokenTTL returns the configured token lifetime.
func (c AuthConfig) AccessTokenTTL() time.Duration {
	return time.Duration(c.AccessTokenExpireMinutes) * time.Minute
}

// RegisterRequest carries the fields of a registration.
type RegisterRequest struct {
	Name            string   `json:"name"`
	Password        string   `json:"password"`
	ConfirmPassword string   `json:"confirm_password"`
	Categories      []string `json:"categories"`
}

// AuthService provides registration, login and identity resolution.
type AuthService struct {
	Config        AuthConfig
	Store         user.Store
	Hasher        PasswordHasher
	Authenticator *Authenticator
	Issuer        *TokenIssuer
	Validator     *TokenValidator
	Log           logging.Logger

	// Now is the service clock; nil means time.Now.
	Now func() time.Time
}

var _ authclient.IdentityResolver = (*AuthService)(nil)

// NewAuthService creates a new AuthService with the given user store factory and configuration.
// Returns an error if the signing secret cannot be loaded or the store cannot be created.
func NewAuthService(ctx context.Context, storeFactory user.StoreFactory, cfg AuthConfig) (*AuthService, error) {
	secret, err := GetSigningSecret(cfg)
	if err != nil {
		return nil, fmt.Errorf("get signing secret: %w", err)
	}

	store, err := storeFactory(ctx)
	if err != nil {
		return nil, fmt.Errorf("new user store: %w", err)
	}

	svc, err := NewAuthServiceWithStore(store, secret, cfg)
	if err != nil {
		_ = store.Close()

		return nil, err
	}

	return svc, nil
}

// NewAuthServiceWithStore wires an AuthService around an existing store and secret.
func NewAuthServiceWithStore(store user.Store, secret []byte, cfg AuthConfig) (*AuthService, error) {
	hasher, err := NewBcryptHasher(cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("new hasher: %w", err)
	}

	issuer, err := NewTokenIssuer(secret, cfg.Algorithm, cfg.AccessTokenTTL())
	if err != nil {
		return nil, fmt.Errorf("new token issuer: %w", err)
	}

	validator, err := NewTokenValidator(secret, cfg.Algorithm, nil)
	if err != nil {
		return nil, fmt.Errorf("new token validator: %w", err)
	}

	return &AuthService{
		Config:        cfg,
		Store:         store,
		Hasher:        hasher,
		Authenticator: NewAuthenticator(hasher),
		Issuer:        issuer,
		Validator:     validator,
		Log:           logging.GetLogger("svc.authsvc.auth_service"),
		Now:           nil,
	}, nil
}

func (s *AuthService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}

	return time.Now()
}

// Register creates a new user and returns a token for it.
// Validation failures (missing field, password mismatch, duplicate name,
// over-long password) leave the store untouched. A store fault during creation
// is rolled back and reported as a *domain.PersistenceError.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (_ domain.IssuedToken, err error) {
	log := s.Log.With(logging.Group("user", "name", req.Name))

	defer func() {
		switch {
		case err == nil:
			log.DebugContext(ctx, "user registered")
		case isRegisterRejection(err):
			log.WarnContext(ctx, "register user rejected", "error", err)
		default:
			log.ErrorContext(ctx, "register user failed", "error", err)
		}
	}()

	switch {
	case req.Name == "":
		return domain.IssuedToken{}, fmt.Errorf("%w: name", domain.ErrMissingField)
	case req.Password == "":
		return domain.IssuedToken{}, fmt.Errorf("%w: password", domain.ErrMissingField)
	case req.Password != req.ConfirmPassword:
		return domain.IssuedToken{}, domain.ErrPasswordMismatch
	}

	if err := domain.ValidateCategories(req.Categories); err != nil {
		return domain.IssuedToken{}, err
	}

	sess, err := s.Store.Open(ctx)
	if err != nil {
		return domain.IssuedToken{}, domain.NewPersistenceError("open session", err)
	}
	defer sess.Close()

	_, exists, err := sess.GetUserByName(ctx, req.Name)
	if err != nil {
		return domain.IssuedToken{}, domain.NewPersistenceError("lookup user", err)
	} else if exists {
		return domain.IssuedToken{}, domain.ErrDuplicateName
	}

	passwordHash, err := s.Hasher.Hash(req.Password)
	if err != nil {
		return domain.IssuedToken{}, fmt.Errorf("hash password: %w", err)
	}

	now := s.now().UTC().Truncate(time.Second)
	newUser := &domain.User{
		ID:           0,
		Name:         req.Name,
		PasswordHash: passwordHash,
		Categories:   append([]string{}, req.Categories...),
		PointTotal:   0,
		LastLoginAt:  &now,
		CreatedAt:    now.Unix(),
	}

	err = sess.WithTx(ctx, func(ctx context.Context, repo user.Repository) error {
		return repo.CreateUser(ctx, newUser)
	})
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateName) {
			return domain.IssuedToken{}, domain.ErrDuplicateName
		}

		return domain.IssuedToken{}, domain.NewPersistenceError("create user", err)
	}

	log = log.With(logging.Group("user", "id", newUser.ID))

	token, err := s.Issuer.Issue(newUser.ID)
	if err != nil {
		return domain.IssuedToken{}, fmt.Errorf("issue token: %w", err)
	}

	return domain.NewIssuedToken(token, newUser), nil
}

// isRegisterRejection reports whether a registration failed on the caller's input.
func isRegisterRejection(err error) bool {
	for _, target := range []error{
		domain.ErrMissingField,
		domain.ErrPasswordMismatch,
		domain.ErrDuplicateName,
		domain.ErrPasswordTooLong,
		domain.ErrInvalidCategory,
	} {
		if errors.Is(err, target) {
			return true
		}
	}

	return false
}

// Login verifies the credentials and returns a token for the user.
// Every credential failure, store faults included, is domain.ErrInvalidCredentials.
// The last login timestamp is updated on a best-effort basis.
func (s *AuthService) Login(ctx context.Context, name, password string) (_ domain.IssuedToken, err error) {
	log := s.Log.With(logging.Group("user", "name", name))

	defer func() {
		if err != nil {
			log.WarnContext(ctx, "login failed", "error", err)
		} else {
			log.DebugContext(ctx, "login successful")
		}
	}()

	sess, err := s.Store.Open(ctx)
	if err != nil {
		log.ErrorContext(ctx, "open session failed", "error", err)

		return domain.IssuedToken{}, domain.ErrInvalidCredentials
	}
	defer sess.Close()

	auth := s.Authenticator.Authenticate(ctx, sess, name, password)
	if !auth.OK() {
		return domain.IssuedToken{}, domain.ErrInvalidCredentials
	}

	if failure := s.recordLogin(ctx, sess, auth.User); failure != nil {
		log.WarnContext(ctx, "record login failed", "op", failure.Op, "error", failure.Err)
	}

	token, err := s.Issuer.Issue(auth.User.ID)
	if err != nil {
		return domain.IssuedToken{}, fmt.Errorf("issue token: %w", err)
	}

	return domain.NewIssuedToken(token, auth.User), nil
}

// recordLogin stamps the login time in its own transaction.
func (s *AuthService) recordLogin(ctx context.Context, sess user.Session, u *domain.User) *domain.SideEffectFailure {
	now := s.now().UTC().Truncate(time.Second)

	err := sess.WithTx(ctx, func(ctx context.Context, repo user.Repository) error {
		return repo.UpdateLastLogin(ctx, u.ID, now)
	})
	if err != nil {
		return &domain.SideEffectFailure{Op: "update last login", Err: err}
	}

	u.LastLoginAt = &now

	return nil
}

// Resolve implements authclient.IdentityResolver.
func (s *AuthService) Resolve(ctx context.Context, token domain.BearerToken) (_ *domain.User, err error) {
	log := s.Log

	defer func() {
		if err != nil {
			log.DebugContext(ctx, "resolve identity failed", "error", err)
		}
	}()

	if !token.Present {
		return nil, fmt.Errorf("%w: no token", domain.ErrUnauthenticated)
	}

	id, err := s.Validator.Validate(token.Raw)
	if err != nil {
		return nil, err
	}

	log = log.With(logging.Group("token", "sub", id))

	sess, err := s.Store.Open(ctx)
	if err != nil {
		return nil, domain.NewPersistenceError("open session", err)
	}
	defer sess.Close()

	found, ok, err := sess.GetUserByID(ctx, id)
	if err != nil {
		return nil, domain.NewPersistenceError("lookup user", err)
	} else if !ok {
		return nil, fmt.Errorf("%w: unknown subject", domain.ErrUnauthenticated)
	}

	return found, nil
}

// Close releases resources held by the service, such as database connections.
// Returns an error if cleanup fails.
func (s *AuthService) Close() error {
	if err := s.Store.Close(); err != nil {
		return fmt.Errorf("close user store: %w", err)
	}

	return nil
}

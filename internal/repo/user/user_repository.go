package user

import (
	"context"
	"time"

	"github.com/mkrupp/collabgames/internal/domain"
)

// Repository defines the user operations available within a session.
type Repository interface {
	// CreateUser inserts a new user and sets its ID.
	// Returns domain.ErrDuplicateName if the name is already taken.
	CreateUser(ctx context.Context, user *domain.User) error

	// GetUserByName retrieves a user by exact name.
	// Returns the user and true if found, or nil and false if not found.
	// Returns an error if the operation fails.
	GetUserByName(ctx context.Context, name string) (*domain.User, bool, error)

	// GetUserByID retrieves a user by identity key, with the same contract as GetUserByName.
	GetUserByID(ctx context.Context, id int64) (*domain.User, bool, error)

	// UpdateLastLogin stamps the user's last login time.
	// Returns domain.ErrUserNotFound if no row was updated.
	UpdateLastLogin(ctx context.Context, id int64, at time.Time) error
}

// Session is a request-scoped handle on the store. It must be closed when
// the request is done, on every exit path.
type Session interface {
	Repository

	// WithTx runs fn in a transaction. All writes made through the repository
	// passed to fn are committed together or not at all.
	WithTx(ctx context.Context, fn func(ctx context.Context, repo Repository) error) error

	// Close releases the session.
	Close() error
}

// Store hands out sessions.
type Store interface {
	// Open acquires a new session.
	Open(ctx context.Context) (Session, error)

	// Close releases any resources held by the store.
	Close() error
}

// StoreFactory is a function that creates a new Store instance.
// Returns an error if initialization fails.
type StoreFactory func(ctx context.Context) (Store, error)

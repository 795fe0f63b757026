package authsvc

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/mkrupp/collabgames/internal/domain"
)

// PasswordHasher hashes passwords and verifies them in constant time.
type PasswordHasher interface {
	Hash(password string) ([]byte, error)
	Verify(hash []byte, password string) bool
}

// BcryptHasher implements PasswordHasher with bcrypt.
type BcryptHasher struct {
	cost  int
	dummy []byte
}

var _ PasswordHasher = (*BcryptHasher)(nil)

// NewBcryptHasher creates a hasher with the given cost.
// Returns an error if the cost is out of bcrypt's range.
func NewBcryptHasher(cost int) (*BcryptHasher, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost %d: %w", cost, bcrypt.InvalidCostError(cost))
	}

	dummy, err := bcrypt.GenerateFromPassword([]byte("collabgames-dummy-password"), cost)
	if err != nil {
		return nil, fmt.Errorf("generate dummy hash: %w", err)
	}

	return &BcryptHasher{cost: cost, dummy: dummy}, nil
}

// Hash returns the bcrypt hash of password.
// Passwords longer than 72 bytes fail with domain.ErrPasswordTooLong.
func (h *BcryptHasher) Hash(password string) ([]byte, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return nil, errors.Join(domain.ErrPasswordTooLong, err)
		}

		return nil, fmt.Errorf("hash password: %w", err)
	}

	return hash, nil
}

// Verify reports whether password matches hash.
func (h *BcryptHasher) Verify(hash []byte, password string) bool {
	return bcrypt.CompareHashAndPassword(hash, []byte(password)) == nil
}

// Burn runs a comparison against a fixed hash so that lookups of unknown
// names take as long as lookups of known ones.
func (h *BcryptHasher) Burn(password string) {
	_ = bcrypt.CompareHashAndPassword(h.dummy, []byte(password))
}

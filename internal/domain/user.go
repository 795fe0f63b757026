package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrDuplicateName is returned when trying to create a user with a name that is already taken.
	ErrDuplicateName = errors.New("user name already taken")
	// ErrUserNotFound is returned when looking up a non-existent user.
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidCredentials is returned when the name/password combination is incorrect.
	// It deliberately does not say which of the two was wrong.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrPasswordMismatch is returned when password and confirmation differ on registration.
	ErrPasswordMismatch = errors.New("passwords do not match")
	// ErrPasswordTooLong is returned when a password exceeds the hasher's input limit.
	ErrPasswordTooLong = errors.New("password too long")
	// ErrMissingField is returned when a required request field is empty.
	ErrMissingField = errors.New("missing field")
	// ErrInvalidCategory is returned for a category tag that would not survive storage.
	ErrInvalidCategory = errors.New("invalid category")
)

// CategorySeparator joins the category tags of a user in storage.
const CategorySeparator = ","

// User represents a registered player.
type User struct {
	ID           int64      // Unique identifier, assigned by the store
	Name         string     // Display name, unique and immutable
	PasswordHash []byte     // bcrypt hash
	Categories   []string   // Ordered category tags
	PointTotal   int64      // Accumulated points
	LastLoginAt  *time.Time // Nil until the first recorded login
	CreatedAt    int64      // Unix timestamp of account creation
}

// EncodeCategories joins categories for storage. An empty list encodes as "".
func EncodeCategories(categories []string) string {
	return strings.Join(categories, CategorySeparator)
}

// ValidateCategories rejects empty tags and tags containing CategorySeparator,
// neither of which round-trips through EncodeCategories.
func ValidateCategories(categories []string) error {
	for _, c := range categories {
		if c == "" || strings.Contains(c, CategorySeparator) {
			return fmt.Errorf("%w: %q", ErrInvalidCategory, c)
		}
	}

	return nil
}

// DecodeCategories is the inverse of EncodeCategories.
func DecodeCategories(encoded string) []string {
	if encoded == "" {
		return []string{}
	}

	return strings.Split(encoded, CategorySeparator)
}

// UserProfile is the public view of a User.
type UserProfile struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	Categories  []string   `json:"categories"`
	PointTotal  int64      `json:"point_total"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
}

// Profile returns the public view of the user.
func (u *User) Profile() UserProfile {
	categories := u.Categories
	if categories == nil {
		categories = []string{}
	}

	return UserProfile{
		ID:          u.ID,
		Name:        u.Name,
		Categories:  categories,
		PointTotal:  u.PointTotal,
		LastLoginAt: u.LastLoginAt,
	}
}

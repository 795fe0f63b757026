package authsvc_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mkrupp/collabgames/internal/domain"
	"github.com/mkrupp/collabgames/internal/svc/authsvc"
)

func TestBcryptHasher(t *testing.T) {
	t.Parallel()

	hasher, err := authsvc.NewBcryptHasher(bcrypt.MinCost)
	require.NoError(t, err)

	hash, err := hasher.Hash("secret")
	require.NoError(t, err)
	assert.NotEqual(t, []byte("secret"), hash)

	assert.True(t, hasher.Verify(hash, "secret"))
	assert.False(t, hasher.Verify(hash, "Secret"))
	assert.False(t, hasher.Verify([]byte("not-a-hash"), "secret"))

	again, err := hasher.Hash("secret")
	require.NoError(t, err)
	assert.NotEqual(t, hash, again, "hashes are salted")
}

func TestBcryptHasher_TooLong(t *testing.T) {
	t.Parallel()

	hasher, err := authsvc.NewBcryptHasher(bcrypt.MinCost)
	require.NoError(t, err)

	_, err = hasher.Hash(strings.Repeat("x", 73))
	require.ErrorIs(t, err, domain.ErrPasswordTooLong)
}

func TestBcryptHasher_InvalidCost(t *testing.T) {
	t.Parallel()

	_, err := authsvc.NewBcryptHasher(bcrypt.MaxCost + 1)
	require.Error(t, err)

	_, err = authsvc.NewBcryptHasher(0)
	require.Error(t, err)
}

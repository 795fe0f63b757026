package authsvc

import (
	"bytes"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// DefaultSecretSize is the size in bytes of generated signing secrets.
const DefaultSecretSize = 32

// ErrInvalidSecretFile is returned when a secret file does not hold a base64 secret.
var ErrInvalidSecretFile = errors.New("invalid secret file")

// DecodeSecret reads a base64-encoded secret.
func DecodeSecret(r io.Reader) ([]byte, error) {
	buf, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read secret: %w", err)
	}

	secret, err := base64.StdEncoding.DecodeString(string(bytes.TrimSpace(buf)))
	if err != nil {
		return nil, errors.Join(ErrInvalidSecretFile, err)
	}

	if len(secret) == 0 {
		return nil, ErrInvalidSecretFile
	}

	return secret, nil
}

// GenerateSecret creates a random secret of the given size.
func GenerateSecret(size int) ([]byte, error) {
	secret := make([]byte, size)

	if _, err := rand.Read(secret); err != nil {
		return nil, fmt.Errorf("generate secret: %w", err)
	}

	return secret, nil
}

// EncodeSecret encodes a secret for storage.
func EncodeSecret(secret []byte) []byte {
	return []byte(base64.StdEncoding.EncodeToString(secret) + "\n")
}

// GetSigningSecret returns the configured secret. When none is configured, the
// secret is loaded from cfg.SecretKeyFile, which is created with a fresh random
// secret if it does not exist yet.
func GetSigningSecret(cfg AuthConfig) ([]byte, error) {
	if cfg.SecretKey != "" {
		return []byte(cfg.SecretKey), nil
	}

	path := cfg.SecretKeyFile

	// Try decode existing secret
	secretFile, err := os.Open(path)
	if err == nil {
		defer secretFile.Close()

		secret, err := DecodeSecret(secretFile)
		if err != nil {
			return nil, fmt.Errorf("decode secret %s: %w", path, err)
		}

		return secret, nil
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("open secret file: %w", err)
	}

	// Generate new secret
	secret, err := GenerateSecret(DefaultSecretSize)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create secret dir: %w", err)
	}

	if err := os.WriteFile(path, EncodeSecret(secret), 0o600); err != nil {
		return nil, fmt.Errorf("write secret file: %w", err)
	}

	return secret, nil
}

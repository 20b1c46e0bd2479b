// Package keyring stores API session tokens in the OS keyring, one per
// backend URL.
package keyring

import (
	"errors"
	"fmt"
	"strings"

	"github.com/zalando/go-keyring"

	"github.com/prompt2production/needled-mobile-sub000/internal/constants"
)

var (
	// ErrNotFound is returned when no token is stored for the backend.
	ErrNotFound = errors.New("no token stored in keyring")
	// ErrKeyringUnavailable is returned when the OS keyring is not available
	ErrKeyringUnavailable = errors.New("OS keyring is not available")
)

// account normalizes the backend URL so trailing slashes share an entry.
func account(backend string) string {
	return "token:" + strings.TrimRight(strings.TrimSpace(backend), "/")
}

// GetToken returns the session token for backend.
func GetToken(backend string) (string, error) {
	token, err := keyring.Get(constants.AppName, account(backend))
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("%w: %v", ErrKeyringUnavailable, err)
	}
	return token, nil
}

// SetToken stores token for backend, replacing any previous one.
func SetToken(backend, token string) error {
	if strings.TrimSpace(backend) == "" {
		return errors.New("backend URL cannot be empty")
	}
	if token == "" {
		return errors.New("token cannot be empty")
	}
	if err := keyring.Set(constants.AppName, account(backend), token); err != nil {
		return fmt.Errorf("failed to store token in keyring: %w", err)
	}
	return nil
}

// DeleteToken removes the token for backend. The auth collaborator calls it
// when the server rejects the session.
func DeleteToken(backend string) error {
	err := keyring.Delete(constants.AppName, account(backend))
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete token from keyring: %w", err)
	}
	return nil
}

// IsAvailable checks if the OS keyring is available on the current system.
// This is a best-effort check and may not catch all failure scenarios.
func IsAvailable() bool {
	_, err := keyring.Get(constants.AppName, "test-availability")
	return err == nil || errors.Is(err, keyring.ErrNotFound)
}

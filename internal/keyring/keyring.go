// Package keyring keeps the reminder store's credentials in the OS keyring
// so they never land in the config file or shell history.
package keyring

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"

	"github.com/julianstephens/careminder/internal/constants"
)

// Key names one secret stored under the application's keyring service.
type Key string

const (
	// ConnectionKey holds the PostgreSQL connection string.
	ConnectionKey Key = constants.DefaultKeyringUser
	checkKey      Key = "availability-check"
)

var (
	// ErrNotFound is returned when no secret is stored under a key
	ErrNotFound = errors.New("credentials not found in keyring")
	// ErrKeyringUnavailable is returned when the OS keyring is not available
	ErrKeyringUnavailable = errors.New("OS keyring is not available")
)

// Get reads the secret stored under key.
func Get(key Key) (string, error) {
	value, err := keyring.Get(constants.AppName, string(key))
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("%w: %v", ErrKeyringUnavailable, err)
	}
	return value, nil
}

// Set stores value under key, replacing any previous secret.
func Set(key Key, value string) error {
	if value == "" {
		return fmt.Errorf("%s cannot be empty", key)
	}
	if err := keyring.Set(constants.AppName, string(key), value); err != nil {
		return fmt.Errorf("failed to store %s in keyring: %w", key, err)
	}
	return nil
}

// Delete removes the secret stored under key.
func Delete(key Key) error {
	if err := keyring.Delete(constants.AppName, string(key)); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete %s from keyring: %w", key, err)
	}
	return nil
}

// GetConnectionString retrieves the database connection string.
func GetConnectionString() (string, error) {
	return Get(ConnectionKey)
}

// SetConnectionString stores the database connection string.
func SetConnectionString(connStr string) error {
	return Set(ConnectionKey, connStr)
}

// DeleteConnectionString removes the database connection string.
func DeleteConnectionString() error {
	return Delete(ConnectionKey)
}

// Status reports whether the keyring answers and whether a connection
// string is stored.
type Status struct {
	Available     bool
	HasConnection bool
}

// Probe is a best-effort availability check: a read that fails with
// anything other than ErrNotFound marks the keyring unavailable.
func Probe() Status {
	if _, err := Get(checkKey); err != nil && !errors.Is(err, ErrNotFound) {
		return Status{}
	}
	_, err := GetConnectionString()
	return Status{Available: true, HasConnection: err == nil}
}

// IsAvailable checks if the OS keyring is available on the current system.
func IsAvailable() bool {
	return Probe().Available
}

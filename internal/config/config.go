// Package config resolves where reminders are stored, reading optional
// .env files and the OS keyring before falling back to the --config flag.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"

	"github.com/julianstephens/careminder/internal/constants"
	"github.com/julianstephens/careminder/internal/keyring"
	"github.com/julianstephens/careminder/internal/storage"
	"github.com/julianstephens/careminder/internal/storage/postgres"
)

// KeyringTarget is the --config value that reads the connection string
// from the OS keyring.
const KeyringTarget = "keyring"

// ConnectionEnv may hold a full PostgreSQL connection string, password
// included. It takes precedence over --config.
const ConnectionEnv = constants.EnvPrefix + "DB_CONNECTION"

type Source string

const (
	SourceFlag    Source = "flag"
	SourceEnv     Source = "env"
	SourceKeyring Source = "keyring"
)

// Target is a resolved store location.
type Target struct {
	// Location is a SQLite file path or a PostgreSQL connection string.
	Location string
	Source   Source
}

func (t Target) IsPostgres() bool {
	return storage.IsPostgres(t.Location)
}

// Describe returns the location safe for display: PostgreSQL targets from
// the environment or keyring are never echoed since they may carry a
// password.
func (t Target) Describe() string {
	if t.IsPostgres() && t.Source != SourceFlag {
		return "postgresql (" + string(t.Source) + ")"
	}
	return t.Location
}

// LoadEnv loads each .env file that exists. Variables already set in the
// environment win.
func LoadEnv(paths ...string) error {
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

// DefaultEnvFiles lists the .env files read at startup: the working
// directory first, then the config directory.
func DefaultEnvFiles() []string {
	files := []string{".env"}
	if dir, err := ExpandHome(filepath.Dir(constants.DefaultConfigPath)); err == nil {
		files = append(files, filepath.Join(dir, ".env"))
	}
	return files
}

// Resolve picks the store location from, in order, ConnectionEnv, the
// keyring when flagValue is KeyringTarget, and flagValue itself. A
// PostgreSQL URL passed on the command line must not embed a password.
func Resolve(flagValue string) (Target, error) {
	if conn := strings.TrimSpace(os.Getenv(ConnectionEnv)); conn != "" {
		if !storage.IsPostgres(conn) {
			return Target{}, fmt.Errorf("%s must be a postgres:// URL", ConnectionEnv)
		}
		return Target{Location: conn, Source: SourceEnv}, nil
	}

	if flagValue == KeyringTarget {
		conn, err := keyring.GetConnectionString()
		if err != nil {
			return Target{}, fmt.Errorf("failed to read connection string from keyring: %w", err)
		}
		return Target{Location: conn, Source: SourceKeyring}, nil
	}

	if storage.IsPostgres(flagValue) {
		if _, err := postgres.ValidateConnString(flagValue); err != nil {
			if errors.Is(err, postgres.ErrEmbeddedCredentials) {
				return Target{}, fmt.Errorf("%w; store it with `%s keyring set` or set %s instead", err, constants.AppName, ConnectionEnv)
			}
			return Target{}, err
		}
		return Target{Location: flagValue, Source: SourceFlag}, nil
	}

	path, err := ExpandHome(flagValue)
	if err != nil {
		return Target{}, err
	}
	return Target{Location: path, Source: SourceFlag}, nil
}

// Open returns an unopened store for t.
func (t Target) Open() storage.Provider {
	return storage.New(t.Location)
}

// Dir is where logs and backups live: the SQLite file's directory, or the
// default config directory for PostgreSQL.
func (t Target) Dir() string {
	if !t.IsPostgres() {
		return filepath.Dir(t.Location)
	}
	dir, err := ExpandHome(filepath.Dir(constants.DefaultConfigPath))
	if err != nil {
		return "."
	}
	return dir
}

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}

// File: internal/config/env.go
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

var (
	// ErrConfig matches every configuration failure via errors.Is.
	ErrConfig = errors.New("configuration error")
	// ErrMissingValue reports a required key that has no value.
	ErrMissingValue = errors.New("required value is missing")
	// ErrEnvFileNotFound reports an absent .env.<name> file.
	ErrEnvFileNotFound = errors.New("environment file not found")
)

// ConfigError is fatal at session start.
type ConfigError struct {
	Key string
	Err error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config %s: %v", e.Key, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// Is lets every ConfigError match ErrConfig.
func (e *ConfigError) Is(target error) bool { return target == ErrConfig }

// EnvFilePath returns the location of the environment file for name.
func EnvFilePath(dir, name string) string {
	return filepath.Join(dir, ".env."+name)
}

// LoadEnvironment loads <dir>/.env.<name> into the process environment,
// overriding variables that are already set.
func LoadEnvironment(dir, name string) (string, error) {
	if !oneOf(name, Environments) {
		return "", &ConfigError{Key: "env", Err: fmt.Errorf("must be one of %v, got %q", Environments, name)}
	}

	path := EnvFilePath(dir, name)
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", &ConfigError{Key: "env", Err: fmt.Errorf("%w: %s", ErrEnvFileNotFound, path)}
		}
		return "", &ConfigError{Key: "env", Err: err}
	}

	if err := godotenv.Overload(path); err != nil {
		return "", &ConfigError{Key: "env", Err: fmt.Errorf("failed to parse %s: %w", path, err)}
	}
	return path, nil
}

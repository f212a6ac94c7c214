package domain

import (
	"errors"
	"fmt"
)

// ErrNoRepositoryReference is returned when the input text contains no repository link.
var ErrNoRepositoryReference = errors.New("no repository reference found")

// ConfigError reports missing or malformed configuration. It is always fatal
// and is raised before any network call.
type ConfigError struct {
	Key string
	Err error
}

func (e *ConfigError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("configuration error: %v", e.Err)
	}
	return fmt.Sprintf("configuration error: %s: %v", e.Key, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// NotFoundError reports that the repository summary could not be fetched,
// whether the repository is missing, deleted, or not visible with the token.
type NotFoundError struct {
	Repo string
	Err  error
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("repository not found: %s: %v", e.Repo, e.Err)
}

func (e *NotFoundError) Unwrap() error { return e.Err }

// DerivationError reports a failed metric derivation.
type DerivationError struct {
	Metric string
	Err    error
}

func (e *DerivationError) Error() string {
	return fmt.Sprintf("failed to derive %s: %v", e.Metric, e.Err)
}

func (e *DerivationError) Unwrap() error { return e.Err }

package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidName is returned when a caller passes an empty or blank
	// repository name.
	ErrInvalidName = errors.New("engine: repository name must not be empty")

	// ErrNotRunning is returned when the engine is used before Start or
	// after Shutdown.
	ErrNotRunning = errors.New("engine: not running")

	// ErrAlreadyStarted is returned by Start on a running engine.
	ErrAlreadyStarted = errors.New("engine: already started")

	// ErrShutDown is returned by Start after Shutdown; a shut-down engine
	// is terminal and never restarts.
	ErrShutDown = errors.New("engine: shut down")

	// ErrNotFound is returned when a repository name has no corresponding
	// configuration node.
	ErrNotFound = errors.New("engine: repository is not configured")
)

// ConfigurationError reports a malformed or incomplete repository
// configuration, such as a missing source name. No instance is created.
type ConfigurationError struct {
	Repository string
	Path       string
	Reason     string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration for repository %q at %s: %s", e.Repository, e.Path, e.Reason)
}

// ConstructionError reports a factory or type-registration failure while
// building a repository instance. The registry is left unchanged.
type ConstructionError struct {
	Repository string
	Err        error
}

func (e *ConstructionError) Error() string {
	return fmt.Sprintf("failed to construct repository %q: %v", e.Repository, e.Err)
}

func (e *ConstructionError) Unwrap() error { return e.Err }

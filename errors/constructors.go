package errors

import (
	"fmt"
)

// ConfigNotFound creates a configuration not found error
func ConfigNotFound(path string) *SpecdeckError {
	return New(ErrCodeConfigNotFound, fmt.Sprintf("configuration file not found: %s", path)).
		WithDetail("path", path)
}

// ConfigInvalid creates an invalid configuration error
func ConfigInvalid(reason string) *SpecdeckError {
	return New(ErrCodeConfigInvalid, fmt.Sprintf("invalid configuration: %s", reason))
}

// WatchRootNotFound creates an error for a missing watch root directory
func WatchRootNotFound(root string) *SpecdeckError {
	return New(ErrCodeWatchRootNotFound, fmt.Sprintf("watch root does not exist: %s", root)).
		WithDetail("root", root)
}

// WatchRootInvalid creates an error for a watch root that is not a directory
func WatchRootInvalid(root string, err error) *SpecdeckError {
	return Wrap(err, ErrCodeWatchRootInvalid, fmt.Sprintf("watch root is not usable: %s", root)).
		WithDetail("root", root)
}

// WatcherClosed creates an error for operations on a stopped watcher
func WatcherClosed() *SpecdeckError {
	return New(ErrCodeWatcherClosed, "watcher has been stopped")
}

// EntityNotFound creates an entity not found error
func EntityNotFound(key string) *SpecdeckError {
	return New(ErrCodeEntityNotFound, fmt.Sprintf("entity '%s' not found", key)).
		WithDetail("key", key)
}

// ParseFailed creates a parse failure error
func ParseFailed(path string, err error) *SpecdeckError {
	return Wrap(err, ErrCodeParseFailed, fmt.Sprintf("failed to parse %s", path)).
		WithDetail("path", path)
}

// StopTimeout creates an error for a background loop that did not stop in time
func StopTimeout(component string, timeout string) *SpecdeckError {
	return New(ErrCodeStopTimeout,
		fmt.Sprintf("%s did not stop within %s", component, timeout)).
		WithDetail("component", component).
		WithDetail("timeout", timeout)
}

package plugin

import (
	"errors"
	"fmt"
)

// Errors for plugin operations.
var (
	// ErrPluginExists is returned when loading a second plugin with the same name.
	ErrPluginExists = errors.New("plugin already loaded")

	// ErrPluginNotFound is returned for an unknown plugin name.
	ErrPluginNotFound = errors.New("plugin not found")

	// ErrAlreadyAttached is returned when attaching a host twice.
	ErrAlreadyAttached = errors.New("plugin host already attached")

	// ErrVetoed is matched by *VetoError.
	ErrVetoed = errors.New("edit vetoed by plugin")
)

// VetoError reports that a plugin rejected a commit.
type VetoError struct {
	Plugin string
	Reason string
}

// Error implements the error interface.
func (e *VetoError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("plugin %s rejected the edit", e.Plugin)
	}
	return fmt.Sprintf("plugin %s rejected the edit: %s", e.Plugin, e.Reason)
}

// Is reports whether target is ErrVetoed.
func (e *VetoError) Is(target error) bool {
	return target == ErrVetoed
}

// LoadError wraps a failure to load a plugin file.
type LoadError struct {
	Plugin string
	Path   string
	Err    error
}

// Error implements the error interface.
func (e *LoadError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("loading plugin %s: %v", e.Plugin, e.Err)
	}
	return fmt.Sprintf("loading plugin %s from %s: %v", e.Plugin, e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *LoadError) Unwrap() error {
	return e.Err
}

package scopetree

import (
	"errors"
	"fmt"
)

// Configuration errors are programmer mistakes and are returned immediately.
var (
	// ErrNoFactory indicates that no factory exists or can be derived for a screen.
	ErrNoFactory = errors.New("no factory")
	// ErrInvalidModule indicates a component declaration that breaks the
	// one-module, one-constructor, at-most-one-parameter rule.
	ErrInvalidModule = errors.New("invalid module declaration")
	// ErrInvalidFactoryType indicates an explicit factory type that cannot be instantiated.
	ErrInvalidFactoryType = errors.New("invalid factory type")
	// ErrOddServicePairs indicates an extra-services list with an odd length.
	ErrOddServicePairs = errors.New("odd number of service key/value arguments")
	// ErrInvalidServiceKey indicates a service key that is not a non-empty string.
	ErrInvalidServiceKey = errors.New("invalid service key")
	// ErrCircularResolution indicates a factory that resolves the scope it is building.
	ErrCircularResolution = errors.New("circular scope resolution")
	// ErrInvalidObserver indicates an observer that cannot be compared for equality.
	ErrInvalidObserver = errors.New("observer is not comparable")
)

// Lifecycle-timing conditions arise from normal teardown races.
var (
	// ErrScopeDestroyed indicates an operation on a destroyed scope.
	ErrScopeDestroyed = errors.New("scope destroyed")
	// ErrServiceNotFound indicates that no scope on the path to the root holds a service.
	ErrServiceNotFound = errors.New("no such service")
)

var (
	// ErrTypeMismatch indicates a service whose value has an unexpected type.
	ErrTypeMismatch = errors.New("service type mismatch")
	// ErrListenerFailed indicates that a registry listener returned an error or panicked.
	ErrListenerFailed = errors.New("listener failed")
)

// ConfigurationError reports a misconfigured screen, module or service list.
type ConfigurationError struct {
	Key    string
	Reason string
	Err    error
}

func (e *ConfigurationError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("configuration error for %s: %v", e.Key, e.Err)
	}
	return fmt.Sprintf("configuration error for %s: %v: %s", e.Key, e.Err, e.Reason)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

func configErr(key string, err error, format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Key: key, Err: err, Reason: fmt.Sprintf(format, args...)}
}

// BuildError represents a factory that failed to build a component.
type BuildError struct {
	Key string
	Err error
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("building component for %s: %v", e.Key, e.Err)
}

func (e *BuildError) Unwrap() error {
	return e.Err
}

// ScopeDestroyedError represents an operation attempted on a destroyed scope.
type ScopeDestroyedError struct {
	Path string
}

func (e *ScopeDestroyedError) Error() string {
	return fmt.Sprintf("scope destroyed: %s", e.Path)
}

func (e *ScopeDestroyedError) Is(target error) bool {
	return target == ErrScopeDestroyed
}

// ServiceNotFoundError represents a lookup that reached the root without a hit.
type ServiceNotFoundError struct {
	Name string
	Path string
}

func (e *ServiceNotFoundError) Error() string {
	return fmt.Sprintf("no such service %q from scope %s", e.Name, e.Path)
}

func (e *ServiceNotFoundError) Is(target error) bool {
	return target == ErrServiceNotFound
}

// TypeMismatchError represents a type assertion failure.
type TypeMismatchError struct {
	Name     string
	Expected string
	Got      string
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("service %q: type mismatch: expected %s, got %s", e.Name, e.Expected, e.Got)
}

func (e *TypeMismatchError) Is(target error) bool {
	return target == ErrTypeMismatch
}

// ListenerError represents one listener's failure during Dispatch.
type ListenerError struct {
	Registry string
	Listener string
	Err      error
}

func (e *ListenerError) Error() string {
	return fmt.Sprintf("registry %s: listener %s: %v", e.Registry, e.Listener, e.Err)
}

func (e *ListenerError) Unwrap() error {
	return e.Err
}

func (e *ListenerError) Is(target error) bool {
	return target == ErrListenerFailed
}

// IsConfigurationError reports whether err is a programmer error that should fail loudly.
func IsConfigurationError(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}

// IsLifecycleTiming reports whether err is an expected teardown-race condition
// that callers should absorb locally.
func IsLifecycleTiming(err error) bool {
	return errors.Is(err, ErrScopeDestroyed) || errors.Is(err, ErrServiceNotFound)
}

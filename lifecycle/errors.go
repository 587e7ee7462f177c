package lifecycle

import (
	"errors"
	"fmt"
)

var (
	// ErrOutsideLifecycle indicates a binding started at an event with no
	// teardown counterpart, e.g. after STOP.
	ErrOutsideLifecycle = errors.New("outside lifecycle")
	// ErrStreamCompleted indicates that the lifecycle stream has ended.
	ErrStreamCompleted = errors.New("lifecycle stream completed")
	// ErrTargetReached indicates that a binding's cancellation event was emitted.
	ErrTargetReached = errors.New("lifecycle target event reached")
)

// OutsideLifecycleError reports the event a binding could not map to a teardown event.
type OutsideLifecycleError struct {
	Event Event
}

func (e *OutsideLifecycleError) Error() string {
	return fmt.Sprintf("cannot bind to lifecycle at %s: outside lifecycle", e.Event)
}

func (e *OutsideLifecycleError) Is(target error) bool {
	return target == ErrOutsideLifecycle
}

// TargetReachedError reports the event that cancelled a binding.
type TargetReachedError struct {
	Event Event
}

func (e *TargetReachedError) Error() string {
	return fmt.Sprintf("lifecycle reached %s", e.Event)
}

func (e *TargetReachedError) Is(target error) bool {
	return target == ErrTargetReached
}

// IsSilentCompletion reports whether cause ends a binding without an error
// being surfaced to the subscriber.
func IsSilentCompletion(cause error) bool {
	return errors.Is(cause, ErrTargetReached) ||
		errors.Is(cause, ErrOutsideLifecycle) ||
		errors.Is(cause, ErrStreamCompleted)
}

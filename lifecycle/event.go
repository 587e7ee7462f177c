package lifecycle

import (
	"fmt"
	"maps"
	"strings"
)

// Event is one discrete state in a lifecycle sequence.
type Event string

const (
	Create  Event = "CREATE"
	Start   Event = "START"
	Resume  Event = "RESUME"
	Pause   Event = "PAUSE"
	Stop    Event = "STOP"
	Destroy Event = "DESTROY"
)

func (e Event) String() string {
	return string(e)
}

// ParseEvent normalizes a lifecycle event name, e.g. "resume" -> RESUME.
func ParseEvent(s string) (Event, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	if name == "" {
		return "", fmt.Errorf("empty lifecycle event name")
	}
	return Event(name), nil
}

// Table maps each lifecycle event to its natural teardown counterpart.
// An event missing from the table is outside the lifecycle.
type Table map[Event]Event

// DefaultTable returns START->STOP, RESUME->PAUSE, PAUSE->STOP.
// Binding after STOP is outside the lifecycle.
func DefaultTable() Table {
	return Table{
		Start:  Stop,
		Resume: Pause,
		Pause:  Stop,
	}
}

// ActivityTable extends DefaultTable with CREATE->DESTROY and STOP->DESTROY,
// for owners that also report creation and destruction.
func ActivityTable() Table {
	return DefaultTable().Extend(Table{
		Create: Destroy,
		Stop:   Destroy,
	})
}

// Extend returns a copy of t with the given correspondences added or replaced.
func (t Table) Extend(pairs Table) Table {
	out := make(Table, len(t)+len(pairs))
	maps.Copy(out, t)
	maps.Copy(out, pairs)
	return out
}

// Corresponding returns the teardown event for e.
func (t Table) Corresponding(e Event) (Event, error) {
	target, ok := t[e]
	if !ok {
		return "", &OutsideLifecycleError{Event: e}
	}
	return target, nil
}

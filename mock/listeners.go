package mock

import (
	"github.com/centraunit/scopetree"
)

// RecordingListener remembers every event it receives.
type RecordingListener[E any] struct {
	Name   string
	Events []E
	Log    *[]string
}

func (l *RecordingListener[E]) OnEvent(event E) error {
	l.Events = append(l.Events, event)
	if l.Log != nil {
		*l.Log = append(*l.Log, l.Name)
	}
	return nil
}

// FailingListener returns Err for every event.
type FailingListener[E any] struct {
	Err   error
	Calls int
}

func (l *FailingListener[E]) OnEvent(E) error {
	l.Calls++
	return l.Err
}

// PanickingListener panics for every event.
type PanickingListener[E any] struct {
	Value any
}

func (l *PanickingListener[E]) OnEvent(E) error {
	panic(l.Value)
}

// UnregisteringListener removes Target from Registry when it receives an event.
type UnregisteringListener[E any] struct {
	Registry *scopetree.Registry[E]
	Target   scopetree.Listener[E]
}

func (l *UnregisteringListener[E]) OnEvent(E) error {
	l.Registry.Unregister(l.Target)
	return nil
}

// RecordingObserver appends "<name>:enter:<path>" and "<name>:exit:<path>" to Log.
type RecordingObserver struct {
	Name string
	Log  *[]string
}

func (o *RecordingObserver) OnEnterScope(s *scopetree.Scope) {
	*o.Log = append(*o.Log, o.Name+":enter:"+s.Path())
}

func (o *RecordingObserver) OnExitScope(s *scopetree.Scope) {
	*o.Log = append(*o.Log, o.Name+":exit:"+s.Path())
}

// PanickingObserver panics when its scope exits.
type PanickingObserver struct{}

func (*PanickingObserver) OnEnterScope(*scopetree.Scope) {}

func (*PanickingObserver) OnExitScope(*scopetree.Scope) {
	panic("observer exploded")
}

// ClosableService observes the scope it is installed on.
type ClosableService struct {
	Entered bool
	Closed  bool
}

func (c *ClosableService) OnEnterScope(*scopetree.Scope) { c.Entered = true }

func (c *ClosableService) OnExitScope(*scopetree.Scope) { c.Closed = true }

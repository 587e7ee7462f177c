// Package lifecycle binds long-running work to the lifecycle of its owner.
//
// A Stream is a hot source of lifecycle events that replays only the latest
// event to new subscribers. Work bound to a Stream through BindUntil or
// BindLifecycle is cancelled silently when the owner reaches the matching
// teardown event.
package lifecycle

import (
	"io"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/centraunit/scopetree"
	"github.com/sourcegraph/conc/panics"
)

// Stream publishes lifecycle events of one owner.
//
// Emit, Subscribe and Complete may be called from any goroutine, including
// from inside a callback. Callbacks run one at a time in emission order on
// the goroutine that is delivering when they are queued. A call made while
// another delivery is running queues its callbacks behind it and returns
// without waiting for them.
type Stream struct {
	mu        sync.Mutex
	subs      []*subscriber
	latest    Event
	hasLatest bool
	completed bool

	// pending holds deliveries queued in emission order; draining is set
	// while one goroutine runs them.
	pending  []func()
	draining bool

	table  Table
	logger *slog.Logger
	nextID atomic.Uint64
}

type subscriber struct {
	id         uint64
	onEvent    func(Event)
	onComplete func()
	active     atomic.Bool
}

// StreamOption configures a Stream.
type StreamOption func(*Stream)

// WithTable sets the correspondence table used by BindLifecycle.
func WithTable(t Table) StreamOption {
	return func(s *Stream) {
		s.table = t
	}
}

// WithLogger sets the logger for binding decisions and callback panics.
func WithLogger(logger *slog.Logger) StreamOption {
	return func(s *Stream) {
		s.logger = logger
	}
}

// WithInitial seeds the stream with a current event.
func WithInitial(e Event) StreamOption {
	return func(s *Stream) {
		s.latest, s.hasLatest = e, true
	}
}

// NewStream creates a stream with no current event and the default table.
func NewStream(opts ...StreamOption) *Stream {
	s := &Stream{table: DefaultTable()}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return s
}

// Table returns the stream's correspondence table.
func (s *Stream) Table() Table {
	return s.table
}

// Latest returns the current event. ok is false before the first Emit.
func (s *Stream) Latest() (e Event, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest, s.hasLatest
}

// Completed reports whether Complete has been called.
func (s *Stream) Completed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.completed
}

// Emit makes e the current event and delivers it to every subscriber.
// It returns ErrStreamCompleted after Complete.
func (s *Stream) Emit(e Event) error {
	s.mu.Lock()
	if s.completed {
		s.mu.Unlock()
		return ErrStreamCompleted
	}
	s.latest, s.hasLatest = e, true
	subs := slices.Clone(s.subs)
	s.pending = append(s.pending, func() {
		s.logger.Debug("lifecycle event", "event", e, "subscribers", len(subs))
		for _, sub := range subs {
			if sub.active.Load() {
				s.safeCall(func() { sub.onEvent(e) })
			}
		}
	})
	s.drainLocked()
	return nil
}

// Subscribe registers onEvent and onComplete, either of which may be nil.
// When the stream has a current event, onEvent receives it before Subscribe
// returns, unless another delivery is running; then it follows that
// delivery. Subscribing to a completed stream returns ErrStreamCompleted.
func (s *Stream) Subscribe(onEvent func(Event), onComplete func()) (unsubscribe func(), err error) {
	if onEvent == nil {
		onEvent = func(Event) {}
	}
	if onComplete == nil {
		onComplete = func() {}
	}

	s.mu.Lock()
	if s.completed {
		s.mu.Unlock()
		return func() {}, ErrStreamCompleted
	}
	sub := &subscriber{
		id:         s.nextID.Add(1),
		onEvent:    onEvent,
		onComplete: onComplete,
	}
	sub.active.Store(true)
	s.subs = append(s.subs, sub)
	if s.hasLatest {
		latest := s.latest
		s.pending = append(s.pending, func() {
			if sub.active.Load() {
				s.safeCall(func() { sub.onEvent(latest) })
			}
		})
	}
	s.drainLocked()
	return func() { s.unsubscribe(sub) }, nil
}

// drainLocked runs queued deliveries until none are left. It is called with
// mu held and returns with mu released. When another call is already
// draining, that call runs the new deliveries instead.
func (s *Stream) drainLocked() {
	if s.draining {
		s.mu.Unlock()
		return
	}
	s.draining = true
	for len(s.pending) > 0 {
		next := s.pending[0]
		s.pending[0] = nil
		s.pending = s.pending[1:]
		s.mu.Unlock()
		next()
		s.mu.Lock()
	}
	s.pending = nil
	s.draining = false
	s.mu.Unlock()
}

func (s *Stream) unsubscribe(sub *subscriber) {
	if !sub.active.CompareAndSwap(true, false) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = slices.DeleteFunc(s.subs, func(x *subscriber) bool {
		return x.id == sub.id
	})
}

// Len returns the number of active subscribers.
func (s *Stream) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

// Complete ends the stream. Subscribers' onComplete runs once, after any
// delivery already queued; later Emit and Subscribe calls fail with
// ErrStreamCompleted.
func (s *Stream) Complete() {
	s.mu.Lock()
	if s.completed {
		s.mu.Unlock()
		return
	}
	s.completed = true
	subs := s.subs
	s.subs = nil
	s.pending = append(s.pending, func() {
		for _, sub := range subs {
			if sub.active.CompareAndSwap(true, false) {
				s.safeCall(sub.onComplete)
			}
		}
		s.logger.Debug("lifecycle completed", "subscribers", len(subs))
	})
	s.drainLocked()
}

func (s *Stream) safeCall(fn func()) {
	var pc panics.Catcher
	pc.Try(fn)
	if r := pc.Recovered(); r != nil {
		s.logger.Error("lifecycle subscriber panicked", "error", r.AsError())
	}
}

// OnEnterScope implements scopetree.Observer.
func (s *Stream) OnEnterScope(*scopetree.Scope) {}

// OnExitScope completes the stream when its owner's scope is destroyed.
func (s *Stream) OnExitScope(*scopetree.Scope) {
	s.Complete()
}

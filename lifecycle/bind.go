package lifecycle

import (
	"context"
	"errors"

	"github.com/sourcegraph/conc/panics"
)

// decider observes lifecycle events for one binding and reports when the
// binding must end. It keeps no history beyond what it needs for the next call.
type decider interface {
	observe(e Event) (stop bool, cause error)
}

// untilEvent stops at the first occurrence of target, including a replayed one.
type untilEvent struct {
	target Event
}

func (d *untilEvent) observe(e Event) (bool, error) {
	if e == d.target {
		return true, &TargetReachedError{Event: e}
	}
	return false, nil
}

// untilCorresponding maps the first observed event through the table and
// then stops at its counterpart. An unmapped first event stops at once.
type untilCorresponding struct {
	table  Table
	target Event
	armed  bool
}

func (d *untilCorresponding) observe(e Event) (bool, error) {
	if !d.armed {
		target, err := d.table.Corresponding(e)
		if err != nil {
			return true, err
		}
		d.target, d.armed = target, true
		return false, nil
	}
	if e == d.target {
		return true, &TargetReachedError{Event: e}
	}
	return false, nil
}

// UntilEvent returns a context cancelled when l emits target. When target is
// already the current event the context is cancelled before UntilEvent
// returns, or right after the running callback when called from one.
// context.Cause reports why the context ended.
func UntilEvent(parent context.Context, l *Stream, target Event) (context.Context, context.CancelFunc) {
	return bindContext(parent, l, &untilEvent{target: target})
}

// UntilCorresponding returns a context cancelled at the teardown event that
// corresponds to l's current event, e.g. PAUSE when bound after RESUME.
// Binding outside the lifecycle cancels the context immediately with an
// *OutsideLifecycleError cause. A stream with no current event arms on its
// first emission.
func UntilCorresponding(parent context.Context, l *Stream) (context.Context, context.CancelFunc) {
	return bindContext(parent, l, &untilCorresponding{table: l.Table()})
}

func bindContext(parent context.Context, l *Stream, d decider) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancelCause(parent)

	unsubscribe, err := l.Subscribe(
		func(e Event) {
			if ctx.Err() != nil {
				return
			}
			if stop, cause := d.observe(e); stop {
				l.logger.Debug("lifecycle binding cancelled", "event", e, "cause", cause)
				cancel(cause)
			}
		},
		func() { cancel(ErrStreamCompleted) },
	)
	if err != nil {
		cancel(err)
		return ctx, func() {}
	}
	context.AfterFunc(ctx, unsubscribe)
	return ctx, func() { cancel(context.Canceled) }
}

// Source produces values until ctx is done or emit returns false.
// Returning ctx.Err() or context.Cause(ctx) after cancellation is not a failure.
type Source[T any] func(ctx context.Context, emit func(T) bool) error

// FromChan adapts a channel to a Source that forwards values until ch closes.
func FromChan[T any](ch <-chan T) Source[T] {
	return func(ctx context.Context, emit func(T) bool) error {
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case v, ok := <-ch:
				if !ok || !emit(v) {
					return nil
				}
			}
		}
	}
}

// Subscription is a Source running under a lifecycle binding.
// Items is closed once the source has returned.
type Subscription[T any] struct {
	ctx    context.Context
	cancel context.CancelFunc
	items  chan T
	done   chan struct{}
	err    error
	cause  error
}

// BindUntil runs src until l emits target, then cancels it and completes the
// subscription without an error. A target equal to l's current event
// completes the subscription before src starts.
func BindUntil[T any](ctx context.Context, l *Stream, target Event, src Source[T]) *Subscription[T] {
	bctx, cancel := UntilEvent(ctx, l, target)
	return start(bctx, cancel, src)
}

// BindLifecycle runs src until the teardown event corresponding to l's
// current event. Binding outside the lifecycle completes the subscription
// immediately without starting src; Cause then reports an *OutsideLifecycleError.
func BindLifecycle[T any](ctx context.Context, l *Stream, src Source[T]) *Subscription[T] {
	bctx, cancel := UntilCorresponding(ctx, l)
	return start(bctx, cancel, src)
}

func start[T any](ctx context.Context, cancel context.CancelFunc, src Source[T]) *Subscription[T] {
	s := &Subscription[T]{
		ctx:    ctx,
		cancel: cancel,
		items:  make(chan T),
		done:   make(chan struct{}),
	}
	go s.run(src)
	return s
}

func (s *Subscription[T]) run(src Source[T]) {
	defer close(s.done)
	defer close(s.items)

	var err error
	if s.ctx.Err() == nil {
		var pc panics.Catcher
		pc.Try(func() {
			err = src(s.ctx, s.emit)
		})
		if r := pc.Recovered(); r != nil {
			err = r.AsError()
		}
	}

	if s.ctx.Err() != nil {
		s.cause = context.Cause(s.ctx)
		if err != nil && (errors.Is(err, s.ctx.Err()) || errors.Is(err, s.cause)) {
			err = nil
		}
	}
	s.err = err
	s.cancel()
}

func (s *Subscription[T]) emit(v T) bool {
	if s.ctx.Err() != nil {
		return false
	}
	select {
	case s.items <- v:
		return true
	case <-s.ctx.Done():
		return false
	}
}

// Items returns the values produced by the source.
func (s *Subscription[T]) Items() <-chan T {
	return s.items
}

// Done is closed once the subscription has completed.
func (s *Subscription[T]) Done() <-chan struct{} {
	return s.done
}

// Context returns the bound context the source runs under.
func (s *Subscription[T]) Context() context.Context {
	return s.ctx
}

// Unsubscribe cancels the source. It does not wait for it to return.
func (s *Subscription[T]) Unsubscribe() {
	s.cancel()
}

// Err returns the source's own failure once Done is closed. Lifecycle
// cancellation and Unsubscribe are not failures.
func (s *Subscription[T]) Err() error {
	<-s.done
	return s.err
}

// Cause returns why the binding ended once Done is closed: a
// *TargetReachedError, an *OutsideLifecycleError, ErrStreamCompleted,
// context.Canceled after Unsubscribe, or nil when the source finished on its own.
func (s *Subscription[T]) Cause() error {
	<-s.done
	return s.cause
}

// Wait blocks until the subscription completes and returns Err.
func (s *Subscription[T]) Wait() error {
	return s.Err()
}

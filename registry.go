package scopetree

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/sourcegraph/conc/panics"
)

// Listener receives the events dispatched by a Registry.
// Listeners are compared with ==, so use pointer receivers.
type Listener[E any] interface {
	OnEvent(event E) error
}

// registration binds a listener to the scope it was registered against and
// removes itself from the registry when that scope exits.
type registration[E any] struct {
	registry *Registry[E]
	listener Listener[E]
	scope    *Scope
	removed  bool
}

func (r *registration[E]) OnEnterScope(*Scope) {}

func (r *registration[E]) OnExitScope(*Scope) {
	r.registry.remove(r)
}

// Registry lets an owner expose register/dispatch to arbitrary listeners,
// each bound to the lifetime of the scope it registered against.
//
// Attach the registry to the owner's own scope so that the owner closing first
// drops every listener at once.
//
// A Registry is not safe for concurrent use; Register and Dispatch run on the
// goroutine that drives the scope tree.
type Registry[E any] struct {
	name   string
	live   []*registration[E]
	logger *slog.Logger
}

// RegistryOption configures a Registry.
type RegistryOption func(*registryConfig)

type registryConfig struct {
	logger *slog.Logger
}

// WithRegistryLogger sets the logger used to report listener failures.
func WithRegistryLogger(logger *slog.Logger) RegistryOption {
	return func(c *registryConfig) {
		c.logger = logger
	}
}

// NewRegistry creates an empty registry. name appears in logs and errors.
func NewRegistry[E any](name string, opts ...RegistryOption) *Registry[E] {
	var cfg registryConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = discardLogger()
	}
	return &Registry[E]{
		name:   name,
		logger: cfg.logger.With("registry", name),
	}
}

// Name returns the registry's name.
func (r *Registry[E]) Name() string {
	return r.name
}

// Len returns the number of live registrations.
func (r *Registry[E]) Len() int {
	return len(r.live)
}

// Attach binds the registry to its owner's scope.
func (r *Registry[E]) Attach(owner *Scope) error {
	return owner.Register(r)
}

// Register adds l for as long as scope is alive. Registering a listener that
// is already live is a no-op, whichever scope it was registered against.
func (r *Registry[E]) Register(scope *Scope, l Listener[E]) error {
	if !comparableValue(l) {
		return configErr(r.name, ErrInvalidObserver, "listener %T", l)
	}
	if scope == nil {
		return configErr(r.name, ErrScopeDestroyed, "nil scope")
	}
	if r.find(l) >= 0 {
		return nil
	}
	if scope.closing() {
		return &ScopeDestroyedError{Path: scope.path}
	}

	reg := &registration[E]{
		registry: r,
		listener: l,
		scope:    scope,
	}
	if err := scope.Register(reg); err != nil {
		return err
	}
	r.live = append(r.live, reg)
	return nil
}

// Unregister removes l. It reports whether l was live.
func (r *Registry[E]) Unregister(l Listener[E]) bool {
	i := r.find(l)
	if i < 0 {
		return false
	}
	reg := r.live[i]
	reg.scope.Unregister(reg)
	r.remove(reg)
	return true
}

func (r *Registry[E]) find(l Listener[E]) int {
	return slices.IndexFunc(r.live, func(reg *registration[E]) bool {
		return reg.listener == l
	})
}

// remove drops reg from the live set exactly once.
func (r *Registry[E]) remove(reg *registration[E]) {
	if reg.removed {
		return
	}
	reg.removed = true
	if i := slices.Index(r.live, reg); i >= 0 {
		r.live = slices.Delete(r.live, i, i+1)
	}
}

// Dispatch delivers event to every live listener in registration order on the
// calling goroutine. A listener that fails or panics is logged and skipped;
// the others still receive the event. The failures are returned joined.
//
// Listeners removed while the dispatch is running are not called.
func (r *Registry[E]) Dispatch(event E) error {
	snapshot := slices.Clone(r.live)
	var errs []error
	for _, reg := range snapshot {
		if reg.removed {
			continue
		}
		if err := r.deliver(reg, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (r *Registry[E]) deliver(reg *registration[E], event E) error {
	var pc panics.Catcher
	var err error
	pc.Try(func() {
		err = reg.listener.OnEvent(event)
	})
	if rec := pc.Recovered(); rec != nil {
		err = rec.AsError()
	}
	if err == nil {
		return nil
	}
	lerr := &ListenerError{
		Registry: r.name,
		Listener: fmt.Sprintf("%T", reg.listener),
		Err:      err,
	}
	r.logger.Warn("listener failed",
		"listener", lerr.Listener,
		"scope", reg.scope.path,
		"error", err,
	)
	return lerr
}

// OnOwnerScopeExit drops every listener, whatever scope they registered against.
func (r *Registry[E]) OnOwnerScopeExit() {
	live := r.live
	r.live = nil
	for _, reg := range live {
		reg.removed = true
		reg.scope.Unregister(reg)
	}
}

// OnEnterScope implements Observer for the owner's scope.
func (r *Registry[E]) OnEnterScope(*Scope) {}

// OnExitScope implements Observer for the owner's scope.
func (r *Registry[E]) OnExitScope(*Scope) {
	r.OnOwnerScopeExit()
}

// Package presenter provides the owner of a screen's scope: it drives the
// lifecycle stream for that scope and exposes per-feature registries that
// child scopes can listen to without outliving the owner.
package presenter

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/centraunit/scopetree"
	"github.com/centraunit/scopetree/lifecycle"
)

// LifecycleService is the service name under which the owner's lifecycle
// stream is installed on its scope.
const LifecycleService = "presenter.lifecycle"

// ErrAlreadyOwned indicates that the screen's scope existed before the
// presenter was created.
var ErrAlreadyOwned = errors.New("scope already exists")

// Presenter owns one scope. It is driven from the goroutine that drives the
// scope tree.
type Presenter struct {
	manager *scopetree.Manager
	scope   *scopetree.Scope
	stream  *lifecycle.Stream
	logger  *slog.Logger

	PauseResume    *scopetree.Registry[PauseResume]
	ActivityResult *scopetree.Registry[ActivityResult]
	Drawer         *scopetree.Registry[DrawerEvent]
}

type config struct {
	logger *slog.Logger
	table  lifecycle.Table
	extra  []any
}

// Option configures a Presenter.
type Option func(*config)

// WithLogger sets the logger shared by the stream and the registries.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithTable sets the lifecycle correspondence table.
func WithTable(t lifecycle.Table) Option {
	return func(c *config) {
		c.table = t
	}
}

// WithServices installs extra services on the presenter's scope.
func WithServices(pairs ...any) Option {
	return func(c *config) {
		c.extra = append(c.extra, pairs...)
	}
}

// New resolves the scope for screen under parent and takes ownership of it.
// A nil parent means the root scope.
func New(m *scopetree.Manager, parent *scopetree.Scope, screen scopetree.Screen, opts ...Option) (*Presenter, error) {
	cfg := config{table: lifecycle.DefaultTable()}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	stream := lifecycle.NewStream(
		lifecycle.WithTable(cfg.table),
		lifecycle.WithLogger(cfg.logger),
	)
	extra := append([]any{LifecycleService, stream}, cfg.extra...)
	scope, err := m.Resolve(parent, screen, extra...)
	if err != nil {
		return nil, err
	}
	if owned, err := scopetree.Lookup[*lifecycle.Stream](scope, LifecycleService); err != nil || owned != stream {
		return nil, fmt.Errorf("presenter for %s: %w", scope.Path(), ErrAlreadyOwned)
	}

	logger := cfg.logger.With("scope", scope.Path())
	p := &Presenter{
		manager:        m,
		scope:          scope,
		stream:         stream,
		logger:         logger,
		PauseResume:    scopetree.NewRegistry[PauseResume]("pause-resume", scopetree.WithRegistryLogger(logger)),
		ActivityResult: scopetree.NewRegistry[ActivityResult]("activity-result", scopetree.WithRegistryLogger(logger)),
		Drawer:         scopetree.NewRegistry[DrawerEvent]("drawer", scopetree.WithRegistryLogger(logger)),
	}
	for _, attach := range []func(*scopetree.Scope) error{
		p.PauseResume.Attach,
		p.ActivityResult.Attach,
		p.Drawer.Attach,
	} {
		if err := attach(scope); err != nil {
			m.Destroy(scope)
			return nil, err
		}
	}
	logger.Debug("presenter created")
	return p, nil
}

// Scope returns the owned scope.
func (p *Presenter) Scope() *scopetree.Scope {
	return p.scope
}

// Lifecycle returns the owner's lifecycle stream.
func (p *Presenter) Lifecycle() *lifecycle.Stream {
	return p.stream
}

// Context returns a context carrying the owned scope.
func (p *Presenter) Context(parent context.Context) context.Context {
	return scopetree.WithScope(parent, p.scope)
}

func (p *Presenter) emit(e lifecycle.Event) error {
	if p.scope.Destroyed() {
		return &scopetree.ScopeDestroyedError{Path: p.scope.Path()}
	}
	return p.stream.Emit(e)
}

// Create emits CREATE. Only tables that map CREATE bind work to it.
func (p *Presenter) Create() error {
	return p.emit(lifecycle.Create)
}

// Start emits START.
func (p *Presenter) Start() error {
	return p.emit(lifecycle.Start)
}

// Resume emits RESUME and then notifies pause/resume listeners.
func (p *Presenter) Resume() error {
	if err := p.emit(lifecycle.Resume); err != nil {
		return err
	}
	return p.PauseResume.Dispatch(PauseResume{Resumed: true})
}

// Pause notifies pause/resume listeners and then emits PAUSE.
func (p *Presenter) Pause() error {
	if p.scope.Destroyed() {
		return &scopetree.ScopeDestroyedError{Path: p.scope.Path()}
	}
	dispatchErr := p.PauseResume.Dispatch(PauseResume{Resumed: false})
	return errors.Join(dispatchErr, p.emit(lifecycle.Pause))
}

// Stop emits STOP.
func (p *Presenter) Stop() error {
	return p.emit(lifecycle.Stop)
}

// DeliverResult dispatches an activity result to its listeners.
func (p *Presenter) DeliverResult(r ActivityResult) error {
	p.logger.Debug("activity result", "request", r.RequestCode, "ok", r.OK())
	return p.ActivityResult.Dispatch(r)
}

// DrawerSlide reports the drawer's slide offset in [0, 1].
func (p *Presenter) DrawerSlide(offset float64) error {
	return p.Drawer.Dispatch(DrawerEvent{Kind: DrawerSlide, Offset: offset})
}

// DrawerOpened reports a fully opened drawer.
func (p *Presenter) DrawerOpened() error {
	return p.Drawer.Dispatch(DrawerEvent{Kind: DrawerOpened, Offset: 1})
}

// DrawerClosed reports a fully closed drawer.
func (p *Presenter) DrawerClosed() error {
	return p.Drawer.Dispatch(DrawerEvent{Kind: DrawerClosed})
}

// DrawerStateChanged reports a drawer motion state change.
func (p *Presenter) DrawerStateChanged(state int) error {
	return p.Drawer.Dispatch(DrawerEvent{Kind: DrawerStateChanged, State: state})
}

// Close destroys the owned scope. Child scopes are torn down first, then the
// registries drop their listeners and the lifecycle stream completes.
func (p *Presenter) Close() {
	p.manager.Destroy(p.scope)
}

// BindLifecycle runs src until the teardown event corresponding to the
// presenter's current lifecycle event.
func BindLifecycle[T any](ctx context.Context, p *Presenter, src lifecycle.Source[T]) *lifecycle.Subscription[T] {
	return lifecycle.BindLifecycle(p.Context(ctx), p.stream, src)
}

// BindUntil runs src until the presenter emits target.
func BindUntil[T any](ctx context.Context, p *Presenter, target lifecycle.Event, src lifecycle.Source[T]) *lifecycle.Subscription[T] {
	return lifecycle.BindUntil(p.Context(ctx), p.stream, target, src)
}

// LifecycleFrom returns the lifecycle stream of the nearest presenter above
// the scope carried by ctx.
func LifecycleFrom(ctx context.Context) (*lifecycle.Stream, error) {
	return scopetree.ServiceFrom[*lifecycle.Stream](ctx, LifecycleService)
}

package scopetree

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// DefaultRootName is the name of the root scope when none is configured.
const DefaultRootName = "root"

// Manager finds or creates child scopes for screens and tears them down.
// It owns the scope tree and the factory resolver.
//
// A Manager is not safe for concurrent use: Resolve, Destroy and registry
// dispatch all run on one designated goroutine.
type Manager struct {
	tree     *Tree
	resolver *FactoryResolver
	logger   *slog.Logger

	// building holds the paths whose components are being built, so a factory
	// that resolves its own scope again is reported instead of recursing.
	building map[string]bool
}

type managerConfig struct {
	rootName     string
	rootServices []any
	resolver     *FactoryResolver
	logger       *slog.Logger
}

// Option configures a Manager.
type Option func(*managerConfig)

// WithLogger sets the logger used for scope and factory diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *managerConfig) {
		c.logger = logger
	}
}

// WithResolver shares a factory resolver between managers.
func WithResolver(r *FactoryResolver) Option {
	return func(c *managerConfig) {
		c.resolver = r
	}
}

// WithRootName sets the name of the root scope.
func WithRootName(name string) Option {
	return func(c *managerConfig) {
		c.rootName = name
	}
}

// WithRootServices installs services on the root scope as alternating
// key/value pairs.
func WithRootServices(pairs ...any) Option {
	return func(c *managerConfig) {
		c.rootServices = append(c.rootServices, pairs...)
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// NewManager creates a manager with a fresh tree holding only the root scope.
// It fails when the root services are malformed.
func NewManager(opts ...Option) (*Manager, error) {
	cfg := managerConfig{rootName: DefaultRootName}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = discardLogger()
	}
	if cfg.resolver == nil {
		cfg.resolver = NewFactoryResolver(cfg.logger)
	}
	if cfg.rootName == "" || strings.Contains(cfg.rootName, PathSeparator) {
		return nil, configErr(cfg.rootName, ErrInvalidServiceKey, "invalid root scope name")
	}

	services, err := servicePairs(cfg.rootName, cfg.rootServices)
	if err != nil {
		return nil, err
	}

	tree := newTree(cfg.rootName, services, cfg.logger)
	tree.root.enter()
	return &Manager{
		tree:     tree,
		resolver: cfg.resolver,
		logger:   cfg.logger,
		building: make(map[string]bool),
	}, nil
}

// Root returns the root scope.
func (m *Manager) Root() *Scope {
	return m.tree.root
}

// Tree returns the arena of live scopes.
func (m *Manager) Tree() *Tree {
	return m.tree
}

// Len returns the number of live scopes, the root included.
func (m *Manager) Len() int {
	return m.tree.Len()
}

// Resolver returns the manager's factory resolver.
func (m *Manager) Resolver() *FactoryResolver {
	return m.resolver
}

// Resolve returns the child of parent named screen.ScopeName(), building it
// when it does not exist yet. extra holds alternating service key/value pairs
// installed on a newly built scope.
//
// Missing factories and malformed service lists are configuration errors.
// extra is validated on every call, also when the scope already exists.
// A destroyed parent, or one being torn down, yields a *ScopeDestroyedError.
func (m *Manager) Resolve(parent *Scope, screen Screen, extra ...any) (*Scope, error) {
	if parent == nil {
		parent = m.tree.root
	}
	if parent.closing() {
		return nil, &ScopeDestroyedError{Path: parent.path}
	}
	if screen == nil {
		return nil, configErr(parent.path, ErrNoFactory, "nil screen")
	}
	name := screen.ScopeName()
	if name == "" || strings.Contains(name, PathSeparator) {
		return nil, configErr(fmt.Sprintf("%T", screen), ErrInvalidServiceKey,
			"invalid scope name %q", name)
	}

	services, err := servicePairs(name, extra)
	if err != nil {
		return nil, err
	}
	if existing, ok := parent.Child(name); ok {
		return existing, nil
	}

	path := parent.path + PathSeparator + name
	if m.building[path] {
		return nil, configErr(path, ErrCircularResolution, "factory resolves its own scope")
	}
	m.building[path] = true
	component, hasComponent, err := m.build(parent, screen)
	delete(m.building, path)
	if err != nil {
		return nil, err
	}
	if parent.closing() {
		return nil, &ScopeDestroyedError{Path: parent.path}
	}
	if existing, ok := parent.Child(name); ok {
		return existing, nil
	}
	if hasComponent {
		services[ComponentService] = component
	}

	child := m.tree.newScope(parent, name, services)
	child.enter()
	m.logger.Debug("scope created",
		"scope", child.path,
		"component", hasComponent,
		"services", len(services),
	)
	return child, nil
}

func (m *Manager) build(parent *Scope, screen Screen) (any, bool, error) {
	factory, err := m.resolver.Resolve(screen)
	if err != nil {
		if _, ok := screen.(Componentless); ok && errors.Is(err, ErrNoFactory) {
			return nil, false, nil
		}
		return nil, false, err
	}
	component, err := factory.Build(parent.nearestComponent(), screen)
	if err != nil {
		return nil, false, &BuildError{Key: screen.ScopeName(), Err: err}
	}
	return component, true, nil
}

// Destroy tears down scope and its subtree. Destroying a nil scope, a
// destroyed one, or one whose teardown is already running does nothing.
func (m *Manager) Destroy(scope *Scope) {
	if scope == nil || scope.closing() {
		return
	}
	if scope == m.tree.root {
		m.logger.Debug("destroying root scope", "scope", scope.path)
	}
	scope.teardown()
}

// Find returns the live scope at path, e.g. "root/Album:42".
func (m *Manager) Find(path string) (*Scope, bool) {
	parts := strings.Split(path, PathSeparator)
	cur := m.tree.root
	if cur.destroyed || parts[0] != cur.name {
		return nil, false
	}
	for _, name := range parts[1:] {
		next, ok := cur.Child(name)
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

// Walk visits every live scope depth-first, parents before children and
// siblings in name order. Returning false from fn skips the scope's subtree.
func (m *Manager) Walk(fn func(scope *Scope, depth int) bool) {
	if m.tree.root.destroyed {
		return
	}
	var visit func(s *Scope, depth int)
	visit = func(s *Scope, depth int) {
		if !fn(s, depth) {
			return
		}
		for _, child := range s.Children() {
			visit(child, depth+1)
		}
	}
	visit(m.tree.root, 0)
}

// servicePairs converts alternating key/value arguments into a service map.
func servicePairs(key string, pairs []any) (map[string]any, error) {
	if len(pairs)%2 != 0 {
		return nil, configErr(key, ErrOddServicePairs, "got %d arguments", len(pairs))
	}
	services := make(map[string]any, len(pairs)/2+1)
	for i := 0; i < len(pairs); i += 2 {
		name, ok := pairs[i].(string)
		if !ok || name == "" {
			return nil, configErr(key, ErrInvalidServiceKey, "argument %d is %T", i, pairs[i])
		}
		if name == ComponentService {
			return nil, configErr(key, ErrInvalidServiceKey, "%q is reserved", name)
		}
		services[name] = pairs[i+1]
	}
	return services, nil
}

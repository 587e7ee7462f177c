package scopetree

import (
	"fmt"
	"log/slog"
	"reflect"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc/panics"
)

// ComponentService is the well-known service name under which a scope's
// component is installed.
const ComponentService = "scopetree.component"

// PathSeparator joins scope names in Path.
const PathSeparator = "/"

// ID identifies a scope inside its tree's arena.
type ID = uuid.UUID

// Tree is the arena that owns every live scope. Parent and child links are
// IDs into the arena, so a child never holds its parent alive.
//
// A Tree is not safe for concurrent use. All mutations happen on one goroutine.
type Tree struct {
	nodes  map[ID]*Scope
	root   *Scope
	logger *slog.Logger
}

// Scope is a named node in the tree holding services and a lifetime.
type Scope struct {
	tree      *Tree
	id        ID
	name      string
	path      string
	parent    ID
	children  map[string]ID
	services  map[string]any
	observers []Observer
	// destroying is set for the whole teardown; destroyed only once it ends.
	destroying bool
	destroyed  bool
}

func newTree(rootName string, services map[string]any, logger *slog.Logger) *Tree {
	t := &Tree{
		nodes:  make(map[ID]*Scope, 16),
		logger: logger,
	}
	t.root = t.newScope(nil, rootName, services)
	return t
}

func newID() ID {
	return uuid.Must(uuid.NewV7())
}

func (t *Tree) newScope(parent *Scope, name string, services map[string]any) *Scope {
	if services == nil {
		services = make(map[string]any)
	}
	s := &Scope{
		tree:     t,
		id:       newID(),
		name:     name,
		path:     name,
		children: make(map[string]ID),
		services: services,
	}
	if parent != nil {
		s.parent = parent.id
		s.path = parent.path + PathSeparator + name
		parent.children[name] = s.id
	}
	t.nodes[s.id] = s
	return s
}

func (t *Tree) get(id ID) *Scope {
	if id == uuid.Nil {
		return nil
	}
	return t.nodes[id]
}

// Root returns the root scope.
func (t *Tree) Root() *Scope {
	return t.root
}

// Len returns the number of live scopes, the root included.
func (t *Tree) Len() int {
	return len(t.nodes)
}

// ID returns the arena ID of the scope.
func (s *Scope) ID() ID {
	return s.id
}

// Name returns the scope's name, unique among its siblings.
func (s *Scope) Name() string {
	return s.name
}

// Path returns the names from the root down to s joined by PathSeparator.
func (s *Scope) Path() string {
	return s.path
}

// Destroyed reports whether the scope has been torn down.
func (s *Scope) Destroyed() bool {
	return s.destroyed
}

// Parent returns the parent scope, or nil for the root and for destroyed scopes.
func (s *Scope) Parent() *Scope {
	if s.destroyed {
		return nil
	}
	return s.tree.get(s.parent)
}

// Child returns the live child with the given name.
func (s *Scope) Child(name string) (*Scope, bool) {
	if s.destroyed {
		return nil, false
	}
	id, ok := s.children[name]
	if !ok {
		return nil, false
	}
	child := s.tree.get(id)
	return child, child != nil
}

// Children returns the live children sorted by name.
func (s *Scope) Children() []*Scope {
	if s.destroyed {
		return nil
	}
	out := make([]*Scope, 0, len(s.children))
	for _, id := range s.children {
		if child := s.tree.get(id); child != nil {
			out = append(out, child)
		}
	}
	slices.SortFunc(out, func(a, b *Scope) int {
		return strings.Compare(a.name, b.name)
	})
	return out
}

// Service looks name up in s and then in each ancestor up to the root.
func (s *Scope) Service(name string) (any, error) {
	if s.destroyed {
		return nil, &ScopeDestroyedError{Path: s.path}
	}
	for cur := s; cur != nil; cur = cur.tree.get(cur.parent) {
		if v, ok := cur.services[name]; ok {
			return v, nil
		}
	}
	return nil, &ServiceNotFoundError{Name: name, Path: s.path}
}

// HasService reports whether name resolves from s.
func (s *Scope) HasService(name string) bool {
	_, err := s.Service(name)
	return err == nil
}

// Component returns the component installed on s itself.
// Componentless scopes report false.
func (s *Scope) Component() (any, bool) {
	if s.destroyed {
		return nil, false
	}
	c, ok := s.services[ComponentService]
	return c, ok
}

// ServiceNames returns the names installed directly on s, sorted.
func (s *Scope) ServiceNames() []string {
	names := make([]string, 0, len(s.services))
	for name := range s.services {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// nearestComponent returns the component of s or of its closest ancestor holding one.
func (s *Scope) nearestComponent() any {
	for cur := s; cur != nil; cur = cur.tree.get(cur.parent) {
		if c, ok := cur.services[ComponentService]; ok {
			return c
		}
	}
	return nil
}

// Register attaches o to the scope and calls its OnEnterScope.
// Registering an observer that is already attached is a no-op.
func (s *Scope) Register(o Observer) error {
	if s.closing() {
		return &ScopeDestroyedError{Path: s.path}
	}
	if !comparableValue(o) {
		return configErr(s.path, ErrInvalidObserver, "%T", o)
	}
	if slices.Contains(s.observers, o) {
		return nil
	}
	s.observers = append(s.observers, o)
	o.OnEnterScope(s)
	return nil
}

// Unregister detaches o without calling OnExitScope.
// It reports whether o was attached.
func (s *Scope) Unregister(o Observer) bool {
	i := slices.Index(s.observers, o)
	if i < 0 {
		return false
	}
	s.observers = slices.Delete(s.observers, i, i+1)
	return true
}

// ObserverCount returns the number of observers attached to s.
func (s *Scope) ObserverCount() int {
	return len(s.observers)
}

func (s *Scope) String() string {
	return fmt.Sprintf("Scope(%s)", s.path)
}

// enter notifies services that observe their own scope.
func (s *Scope) enter() {
	for _, name := range s.ServiceNames() {
		if o, ok := s.services[name].(Observer); ok {
			s.safeNotify(name, func() { o.OnEnterScope(s) })
		}
	}
}

// teardown destroys the subtree rooted at s: children depth-first, then the
// exit callbacks of s, then the detach from the parent.
func (s *Scope) teardown() {
	if s.closing() {
		return
	}
	s.destroying = true
	for _, id := range s.children {
		if child := s.tree.get(id); child != nil {
			child.teardown()
		}
	}

	observers := s.observers
	s.observers = nil
	for _, o := range observers {
		s.safeNotify(fmt.Sprintf("%T", o), func() { o.OnExitScope(s) })
	}
	for _, name := range s.ServiceNames() {
		if o, ok := s.services[name].(Observer); ok {
			s.safeNotify(name, func() { o.OnExitScope(s) })
		}
	}

	s.destroyed = true
	if parent := s.tree.get(s.parent); parent != nil {
		delete(parent.children, s.name)
	}
	delete(s.tree.nodes, s.id)
	s.children = nil
	s.tree.logger.Debug("scope destroyed", "scope", s.path)
}

// closing reports whether s is destroyed or in the middle of its teardown.
func (s *Scope) closing() bool {
	return s.destroyed || s.destroying
}

// comparableValue reports whether v can be compared with == without
// panicking. Interface fields are rejected since their dynamic value may not
// be comparable; pointer observers are always accepted.
func comparableValue(v any) bool {
	if v == nil {
		return false
	}
	return comparableType(reflect.TypeOf(v))
}

func comparableType(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Pointer, reflect.Chan, reflect.UnsafePointer:
		return true
	case reflect.Interface, reflect.Func, reflect.Map, reflect.Slice:
		return false
	case reflect.Array:
		return comparableType(t.Elem())
	case reflect.Struct:
		for i := range t.NumField() {
			if !comparableType(t.Field(i).Type) {
				return false
			}
		}
		return true
	default:
		return t.Comparable()
	}
}

// safeNotify runs a scope callback, logging a panic instead of unwinding
// through the teardown.
func (s *Scope) safeNotify(who string, fn func()) {
	var pc panics.Catcher
	pc.Try(fn)
	if r := pc.Recovered(); r != nil {
		s.tree.logger.Error("scope observer panicked",
			"scope", s.path,
			"observer", who,
			"error", r.AsError(),
		)
	}
}

// Lookup resolves a service by name and asserts its type.
func Lookup[T any](s *Scope, name string) (T, error) {
	var zero T
	v, err := s.Service(name)
	if err != nil {
		return zero, err
	}
	typed, ok := v.(T)
	if !ok {
		return zero, &TypeMismatchError{
			Name:     name,
			Expected: reflect.TypeFor[T]().String(),
			Got:      fmt.Sprintf("%T", v),
		}
	}
	return typed, nil
}

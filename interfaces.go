// Package scopetree provides a hierarchical scope tree where each scope owns
// the object graph built for one screen, plus registries whose listeners are
// released when their scope exits.
package scopetree

import "reflect"

// Observer receives scope enter and exit notifications.
type Observer interface {
	// OnEnterScope is called once the observer is attached to a live scope.
	OnEnterScope(scope *Scope)

	// OnExitScope is called when the scope is destroyed.
	// Destroying the exiting scope or an ancestor from here is a no-op, and
	// resolving a child under it fails with ErrScopeDestroyed.
	OnExitScope(scope *Scope)
}

// Screen identifies a unit that owns a scope.
// The dynamic Go type of the screen is its factory cache key.
type Screen interface {
	// ScopeName returns the child name used under the parent scope, e.g. "Album:42".
	ScopeName() string
}

// Factory builds the object graph for a screen's scope.
type Factory interface {
	// Build returns the component for screen. parent is the nearest ancestor's
	// component, or nil when the scope is built standalone.
	Build(parent any, screen Screen) (any, error)
}

// FactoryFunc adapts a function to the Factory interface.
type FactoryFunc func(parent any, screen Screen) (any, error)

// Build calls f(parent, screen).
func (f FactoryFunc) Build(parent any, screen Screen) (any, error) {
	return f(parent, screen)
}

// FactoryDeclarer is implemented by screens that name an explicit factory type.
// The type must implement Factory and be default-constructible.
type FactoryDeclarer interface {
	FactoryType() reflect.Type
}

// ComponentDeclarer is implemented by screens resolved through their declared
// component and module.
type ComponentDeclarer interface {
	ComponentSpec() ComponentSpec
}

// Componentless marks screens that intentionally get a scope without a component.
type Componentless interface {
	Componentless()
}

package manifest

import (
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/centraunit/scopetree"
)

// Component is the component built by the "static" catalog entry.
type Component struct {
	Kind   string
	Screen string
	Parent any
}

// Builder builds a component for node from the nearest ancestor component.
type Builder func(parent any, node *Node) (any, error)

// Catalog maps component kinds named in a manifest to their builders.
type Catalog map[string]Builder

// DefaultCatalog returns a catalog with the "static" kind.
func DefaultCatalog() Catalog {
	return Catalog{
		"static": func(parent any, node *Node) (any, error) {
			return &Component{Kind: "static", Screen: node.Name, Parent: parent}, nil
		},
	}
}

// Kinds returns the catalog's kinds, sorted.
func (c Catalog) Kinds() []string {
	kinds := make([]string, 0, len(c))
	for k := range c {
		kinds = append(kinds, k)
	}
	slices.Sort(kinds)
	return kinds
}

// ComponentScreen is a manifest node with a component.
type ComponentScreen struct {
	Node *Node
}

func (s *ComponentScreen) ScopeName() string { return s.Node.Name }

// GroupScreen is a manifest node without a component.
type GroupScreen struct {
	Node *Node
}

func (s *GroupScreen) ScopeName() string { return s.Node.Name }

func (*GroupScreen) Componentless() {}

// catalogFactory builds every ComponentScreen by looking its kind up in the catalog.
type catalogFactory struct {
	catalog Catalog
}

func (f *catalogFactory) Build(parent any, screen scopetree.Screen) (any, error) {
	s, ok := screen.(*ComponentScreen)
	if !ok {
		return nil, fmt.Errorf("unexpected screen %T", screen)
	}
	build, ok := f.catalog[s.Node.Component]
	if !ok {
		return nil, fmt.Errorf("unknown component %q", s.Node.Component)
	}
	return build(parent, s.Node)
}

// Register seeds resolver with the factory for manifest screens.
func Register(resolver *scopetree.FactoryResolver, catalog Catalog) error {
	return scopetree.RegisterFactory[*ComponentScreen](resolver, &catalogFactory{catalog: catalog})
}

// Options returns the manager options for the manifest's root.
func (m *Manifest) Options() []scopetree.Option {
	var opts []scopetree.Option
	if m.Root != "" {
		opts = append(opts, scopetree.WithRootName(m.Root))
	}
	if len(m.Services) > 0 {
		opts = append(opts, scopetree.WithRootServices(servicePairs(m.Services)...))
	}
	return opts
}

// Build resolves every screen of m under the manager's root, parents first.
// The manager's resolver must have been seeded with Register.
func Build(mgr *scopetree.Manager, m *Manifest, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return buildNodes(mgr, mgr.Root(), m.Screens, logger)
}

func buildNodes(mgr *scopetree.Manager, parent *scopetree.Scope, nodes []Node, logger *slog.Logger) error {
	for i := range nodes {
		n := &nodes[i]
		var screen scopetree.Screen = &GroupScreen{Node: n}
		if n.Component != "" {
			screen = &ComponentScreen{Node: n}
		}
		scope, err := mgr.Resolve(parent, screen, servicePairs(n.Services)...)
		if err != nil {
			return fmt.Errorf("building %s%s%s: %w", parent.Path(), scopetree.PathSeparator, n.Name, err)
		}
		logger.Debug("manifest screen built", "scope", scope.Path(), "component", n.Component)
		if err := buildNodes(mgr, scope, n.Children, logger); err != nil {
			return err
		}
	}
	return nil
}

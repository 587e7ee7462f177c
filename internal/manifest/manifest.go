// Package manifest describes a scope tree in YAML and builds it through a
// scopetree.Manager.
//
//	root: app
//	services:
//	  locale: en
//	screens:
//	  - name: Album:42
//	    component: static
//	    services:
//	      title: Holidays
//	    children:
//	      - name: Overlay
//
// A node without a component gets a componentless scope.
package manifest

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/centraunit/scopetree"
	"gopkg.in/yaml.v3"
)

// Manifest is the root of a screen manifest.
type Manifest struct {
	Root     string         `yaml:"root,omitempty"`
	Services map[string]any `yaml:"services,omitempty"`
	Screens  []Node         `yaml:"screens"`
}

// Node is one screen and its child screens.
type Node struct {
	Name      string         `yaml:"name"`
	Component string         `yaml:"component,omitempty"`
	Services  map[string]any `yaml:"services,omitempty"`
	Children  []Node         `yaml:"children,omitempty"`
}

// Parse decodes a manifest, rejecting unknown fields.
func Parse(data []byte) (*Manifest, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var m Manifest
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	return &m, nil
}

// Load reads and parses the manifest at path.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	return Parse(data)
}

// Marshal encodes m as YAML.
func (m *Manifest) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(m); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Validate checks scope names and component kinds against catalog and
// returns every problem found, joined.
func (m *Manifest) Validate(catalog Catalog) error {
	var errs []error
	if strings.Contains(m.Root, scopetree.PathSeparator) {
		errs = append(errs, fmt.Errorf("root %q: must not contain %q", m.Root, scopetree.PathSeparator))
	}
	errs = append(errs, validateNodes(m.Screens, rootLabel(m.Root), catalog)...)
	return errors.Join(errs...)
}

func rootLabel(root string) string {
	if root == "" {
		return scopetree.DefaultRootName
	}
	return root
}

func validateNodes(nodes []Node, parent string, catalog Catalog) []error {
	var errs []error
	seen := make(map[string]bool, len(nodes))
	for i := range nodes {
		n := &nodes[i]
		path := parent + scopetree.PathSeparator + n.Name
		switch {
		case n.Name == "":
			errs = append(errs, fmt.Errorf("%s: screen %d has no name", parent, i))
			continue
		case strings.Contains(n.Name, scopetree.PathSeparator):
			errs = append(errs, fmt.Errorf("%s: name must not contain %q", path, scopetree.PathSeparator))
			continue
		case seen[n.Name]:
			errs = append(errs, fmt.Errorf("%s: duplicate screen name", path))
		}
		seen[n.Name] = true
		if n.Component != "" {
			if _, ok := catalog[n.Component]; !ok {
				errs = append(errs, fmt.Errorf("%s: unknown component %q (known: %s)",
					path, n.Component, strings.Join(catalog.Kinds(), ", ")))
			}
		}
		errs = append(errs, validateNodes(n.Children, path, catalog)...)
	}
	return errs
}

// Count returns the number of screens in the manifest.
func (m *Manifest) Count() int {
	var count func(nodes []Node) int
	count = func(nodes []Node) int {
		total := len(nodes)
		for _, n := range nodes {
			total += count(n.Children)
		}
		return total
	}
	return count(m.Screens)
}

// servicePairs flattens services into key/value pairs in key order.
func servicePairs(services map[string]any) []any {
	keys := make([]string, 0, len(services))
	for k := range services {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	pairs := make([]any, 0, len(keys)*2)
	for _, k := range keys {
		pairs = append(pairs, k, services[k])
	}
	return pairs
}

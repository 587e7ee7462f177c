package scopetree

import (
	"io"
	"strings"
)

// LabelFunc decorates the label of a scope when rendering a tree.
type LabelFunc func(scope *Scope, label string) string

// Label returns the plain label used by Render: the scope name, a
// [component] marker when the scope holds one, and its own service names.
func Label(s *Scope) string {
	var sb strings.Builder
	sb.WriteString(s.name)
	if _, ok := s.Component(); ok {
		sb.WriteString(" [component]")
	}
	var names []string
	for _, name := range s.ServiceNames() {
		if name != ComponentService {
			names = append(names, name)
		}
	}
	if len(names) > 0 {
		sb.WriteString(" {")
		sb.WriteString(strings.Join(names, ", "))
		sb.WriteString("}")
	}
	return sb.String()
}

// Render writes the subtree rooted at scope, one scope per line, children in
// name order. decorate may be nil.
func Render(w io.Writer, scope *Scope, decorate LabelFunc) error {
	if decorate == nil {
		decorate = func(_ *Scope, label string) string { return label }
	}
	var sb strings.Builder
	if scope.destroyed {
		sb.WriteString(scope.name + " (destroyed)\n")
	} else {
		sb.WriteString(decorate(scope, Label(scope)) + "\n")
		renderChildren(&sb, scope, "", decorate)
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

func renderChildren(sb *strings.Builder, s *Scope, prefix string, decorate LabelFunc) {
	children := s.Children()
	for i, child := range children {
		branch, next := "├── ", "│   "
		if i == len(children)-1 {
			branch, next = "└── ", "    "
		}
		sb.WriteString(prefix + branch + decorate(child, Label(child)) + "\n")
		renderChildren(sb, child, prefix+next, decorate)
	}
}

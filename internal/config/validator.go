package config

import (
	"fmt"
	"slices"
	"strings"

	"github.com/centraunit/scopetree"
	"github.com/centraunit/scopetree/internal/logging"
)

var envKeyReplacer = strings.NewReplacer(".", "_")

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string // The config field path (e.g., "lifecycle.table")
	Value   any    // The invalid value
	Message string // Human-readable error description
}

// Error implements the error interface for ValidationError
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for ValidationErrors
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// Validate checks the Config for invalid values and returns all validation errors found
func (c *Config) Validate() []ValidationError {
	var errs []ValidationError
	errs = append(errs, c.validateLogging()...)
	errs = append(errs, c.validateTree()...)
	errs = append(errs, c.validateLifecycle()...)
	return errs
}

func (c *Config) validateLogging() []ValidationError {
	var errs []ValidationError
	if !logging.IsValidLevel(c.Logging.Level) {
		errs = append(errs, ValidationError{
			Field:   "logging.level",
			Value:   c.Logging.Level,
			Message: fmt.Sprintf("must be one of: %s", strings.ToLower(strings.Join(logging.ValidLevels(), ", "))),
		})
	}
	if !slices.Contains(logging.ValidFormats(), strings.ToLower(c.Logging.Format)) {
		errs = append(errs, ValidationError{
			Field:   "logging.format",
			Value:   c.Logging.Format,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(logging.ValidFormats(), ", ")),
		})
	}
	return errs
}

func (c *Config) validateTree() []ValidationError {
	name := c.Tree.RootName
	if name == "" || strings.Contains(name, scopetree.PathSeparator) {
		return []ValidationError{{
			Field:   "tree.root_name",
			Value:   name,
			Message: fmt.Sprintf("must be non-empty and must not contain %q", scopetree.PathSeparator),
		}}
	}
	return nil
}

func (c *Config) validateLifecycle() []ValidationError {
	var errs []ValidationError
	if !slices.Contains(ValidTables(), c.Lifecycle.Table) {
		errs = append(errs, ValidationError{
			Field:   "lifecycle.table",
			Value:   c.Lifecycle.Table,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidTables(), ", ")),
		})
	}
	for from, to := range c.Lifecycle.Extra {
		if strings.TrimSpace(from) == "" || strings.TrimSpace(to) == "" {
			errs = append(errs, ValidationError{
				Field:   "lifecycle.extra",
				Value:   fmt.Sprintf("%q: %q", from, to),
				Message: "event names must be non-empty",
			})
		}
	}
	return errs
}

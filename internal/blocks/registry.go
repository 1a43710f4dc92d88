package blocks

import (
	"fmt"
	"slices"

	"github.com/roach88/blockdoc/internal/ir"
)

// Predicate reports whether block data holds a value. A block without a
// value is a placeholder.
type Predicate func(data ir.BlockData) bool

// Registry maps block type tags to their hasValue predicates and, when the
// type was compiled from a definition, to its spec.
//
// A Registry is filled during setup and read afterwards. Register must not
// race with lookups. A nil *Registry behaves as an empty one.
type Registry struct {
	predicates map[string]Predicate
	specs      map[string]ir.BlockTypeSpec
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		predicates: make(map[string]Predicate),
		specs:      make(map[string]ir.BlockTypeSpec),
	}
}

// RegistryFromSpecs builds a registry from compiled block type definitions.
// Duplicate names are rejected.
func RegistryFromSpecs(specs []ir.BlockTypeSpec) (*Registry, error) {
	r := NewRegistry()
	for _, spec := range specs {
		if _, dup := r.specs[spec.Name]; dup {
			return nil, fmt.Errorf("duplicate block type %q", spec.Name)
		}
		r.RegisterSpec(spec)
	}
	return r, nil
}

// Register installs the predicate for a block type, replacing any earlier
// one. A nil predicate removes it.
func (r *Registry) Register(blockType string, p Predicate) {
	if p == nil {
		delete(r.predicates, blockType)
		return
	}
	r.predicates[blockType] = p
}

// RegisterSpec records a block type definition. When the definition lists
// value fields, the type gets a FieldsPredicate over them.
func (r *Registry) RegisterSpec(spec ir.BlockTypeSpec) {
	r.specs[spec.Name] = spec
	if len(spec.ValueFields) > 0 {
		r.Register(spec.Name, FieldsPredicate(spec.ValueFields...))
	}
}

// Predicate returns the predicate registered for blockType.
func (r *Registry) Predicate(blockType string) (Predicate, bool) {
	if r == nil {
		return nil, false
	}
	p, ok := r.predicates[blockType]
	return p, ok
}

// HasValue applies the predicate for blockType to data. Types without a
// predicate always have a value.
func (r *Registry) HasValue(blockType string, data ir.BlockData) bool {
	p, ok := r.Predicate(blockType)
	if !ok {
		return true
	}
	return p(data)
}

// Spec returns the definition a type was registered from.
func (r *Registry) Spec(name string) (ir.BlockTypeSpec, bool) {
	if r == nil {
		return ir.BlockTypeSpec{}, false
	}
	spec, ok := r.specs[name]
	return spec, ok
}

// Types returns every type known to the registry, sorted.
func (r *Registry) Types() []string {
	if r == nil {
		return nil
	}
	seen := make(map[string]struct{}, len(r.specs)+len(r.predicates))
	for name := range r.specs {
		seen[name] = struct{}{}
	}
	for name := range r.predicates {
		seen[name] = struct{}{}
	}
	types := make([]string, 0, len(seen))
	for name := range seen {
		types = append(types, name)
	}
	slices.Sort(types)
	return types
}

// FieldsPredicate reports a value when any of the named fields holds
// content: a non-empty string, array or object, or any int or bool.
func FieldsPredicate(fields ...string) Predicate {
	fields = slices.Clone(fields)
	return func(data ir.BlockData) bool {
		for _, f := range fields {
			v, ok := data[f]
			if ok && !ir.IsZeroValue(v) {
				return true
			}
		}
		return false
	}
}

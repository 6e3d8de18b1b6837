package metadata

import (
	"fmt"
	"maps"
	"reflect"
	"slices"

	"github.com/syssam/metamodel"
	"github.com/syssam/metamodel/diagnostics"
)

// Property is a scalar member of an entity type.
type Property struct {
	name                string
	typ                 reflect.Type
	nullable            bool
	declaringEntityType *EntityType
}

// Name returns the property name.
func (p *Property) Name() string { return p.name }

// Type returns the declared value type.
func (p *Property) Type() reflect.Type { return p.typ }

// IsNullable reports whether the property accepts null values.
func (p *Property) IsNullable() bool { return p.nullable }

// DeclaringEntityType returns the entity type declaring the property.
func (p *Property) DeclaringEntityType() *EntityType { return p.declaringEntityType }

// String implements fmt.Stringer.
func (p *Property) String() string {
	return p.declaringEntityType.DisplayName() + "." + p.name
}

// SetNullable changes the nullability. Key properties cannot be nullable.
func (p *Property) SetNullable(nullable bool) error {
	if err := p.declaringEntityType.checkLive(); err != nil {
		return err
	}
	if nullable && p.IsKey() {
		return metamodel.NewInvalidMetadataError(p.declaringEntityType.DisplayName(), "key property %q cannot be nullable", p.name)
	}
	assign(p.declaringEntityType.model, &p.nullable, nullable)
	return nil
}

// IsKey reports whether the property is part of any key.
func (p *Property) IsKey() bool {
	for _, t := range p.declaringEntityType.subtree() {
		for _, k := range t.keys {
			if slices.Contains(k.properties, p) {
				return true
			}
		}
	}
	return false
}

// nullableType reports whether values of t can be nil.
func nullableType(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Pointer, reflect.Slice, reflect.Map, reflect.Interface:
		return true
	default:
		return false
	}
}

// AddProperty declares a new property.
func (e *EntityType) AddProperty(name string, typ reflect.Type) (*Property, error) {
	if err := e.checkLive(); err != nil {
		return nil, err
	}
	if name == "" {
		return nil, metamodel.NewInvalidMetadataError(e.DisplayName(), "property name cannot be empty")
	}
	if typ == nil {
		return nil, metamodel.NewInvalidMetadataError(e.DisplayName(), "property %q has no type", name)
	}
	for _, t := range e.subtree() {
		if _, ok := t.properties[name]; ok {
			return nil, &metamodel.DuplicateMetadataError{Kind: "property", Name: fmt.Sprintf("%q", name), EntityType: t.DisplayName()}
		}
	}
	if e.base != nil && e.base.FindProperty(name) != nil {
		return nil, &metamodel.DuplicateMetadataError{Kind: "property", Name: fmt.Sprintf("%q", name), EntityType: e.DisplayName()}
	}
	p := &Property{
		name:                name,
		typ:                 typ,
		nullable:            nullableType(typ),
		declaringEntityType: e,
	}
	m := e.model
	err := m.change(func() error {
		setEntry(m, e.properties, name, p)
		display := e.DisplayName()
		m.emit(func(l *diagnostics.Logger) { l.PropertyAdded(display, name, typ.String()) })
		return m.conventions.propertyAdded(p)
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// GetOrAddProperty returns the property with the given name visible on the
// entity type, adding it when missing.
func (e *EntityType) GetOrAddProperty(name string, typ reflect.Type) (*Property, error) {
	if p := e.FindProperty(name); p != nil {
		return p, nil
	}
	return e.AddProperty(name, typ)
}

// FindProperty returns the property declared on the entity type or one of
// its base types, or nil.
func (e *EntityType) FindProperty(name string) *Property {
	for t := e; t != nil; t = t.base {
		if p, ok := t.properties[name]; ok {
			return p
		}
	}
	return nil
}

// FindDeclaredProperty returns the property declared on this entity type, or nil.
func (e *EntityType) FindDeclaredProperty(name string) *Property {
	return e.properties[name]
}

// Properties returns the declared properties ordered by name.
func (e *EntityType) Properties() []*Property {
	props := slices.Collect(maps.Values(e.properties))
	sortByName(props)
	return props
}

// AllProperties returns inherited properties followed by declared ones.
func (e *EntityType) AllProperties() []*Property {
	if e.base == nil {
		return e.Properties()
	}
	return append(e.base.AllProperties(), e.Properties()...)
}

// RemoveProperty removes a declared property. Properties used by a key,
// foreign key or index anywhere in the hierarchy cannot be removed.
func (e *EntityType) RemoveProperty(name string) (*Property, error) {
	if err := e.checkLive(); err != nil {
		return nil, err
	}
	p, ok := e.properties[name]
	if !ok {
		return nil, nil
	}
	for _, t := range e.subtree() {
		for _, u := range t.usages() {
			if slices.Contains(u.properties, p) {
				return nil, &metamodel.MetadataInUseError{
					Kind:       "property",
					Name:       fmt.Sprintf("%q", name),
					EntityType: e.DisplayName(),
					UsedBy:     u.describe(t),
				}
			}
		}
	}
	deleteEntry(e.model, e.properties, name)
	display := e.DisplayName()
	e.model.emit(func(l *diagnostics.Logger) { l.PropertyRemoved(display, name) })
	return p, nil
}

// resolveProperties checks that every property is visible on e.
func (e *EntityType) resolveProperties(kind string, props []*Property) error {
	if len(props) == 0 {
		return metamodel.NewInvalidMetadataError(e.DisplayName(), "%s must have at least one property", kind)
	}
	seen := make(map[*Property]bool, len(props))
	for _, p := range props {
		if p == nil {
			return metamodel.NewInvalidMetadataError(e.DisplayName(), "%s contains a nil property", kind)
		}
		if !p.declaringEntityType.IsAssignableFrom(e) {
			return metamodel.NewInvalidMetadataError(e.DisplayName(), "%s property %q is declared on entity type %q", kind, p.name, p.declaringEntityType.DisplayName())
		}
		if seen[p] {
			return metamodel.NewInvalidMetadataError(e.DisplayName(), "%s contains property %q more than once", kind, p.name)
		}
		seen[p] = true
	}
	return nil
}

// PropertiesByName resolves property names visible on the entity type.
func (e *EntityType) PropertiesByName(names ...string) ([]*Property, error) {
	props := make([]*Property, 0, len(names))
	for _, n := range names {
		p := e.FindProperty(n)
		if p == nil {
			return nil, metamodel.NewInvalidMetadataError(e.DisplayName(), "property %q not found", n)
		}
		props = append(props, p)
	}
	return props, nil
}

func propertyNames(props []*Property) []string {
	names := make([]string, len(props))
	for i, p := range props {
		names[i] = p.name
	}
	return names
}

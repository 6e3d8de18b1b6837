package metadata

import (
	"cmp"
	"fmt"
	"maps"
	"reflect"
	"slices"

	"github.com/syssam/metamodel"
	"github.com/syssam/metamodel/diagnostics"
)

// State is the lifecycle state of an entity type.
type State int

const (
	// Live entity types are registered in their model.
	Live State = iota
	// Detached entity types were removed from their model and reject mutation.
	Detached
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case Live:
		return "live"
	case Detached:
		return "detached"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// EntityType is one mapped entity in a Model.
type EntityType struct {
	model       *Model
	name        string
	display     string
	native      reflect.Type
	base        *EntityType
	derived     map[*EntityType]struct{}
	properties  map[string]*Property
	keys        []*Key
	primaryKey  *Key
	foreignKeys []*ForeignKey
	indexes     []*Index
	// principalOf holds the foreign keys naming this entity type as
	// principal, in insertion order, whichever type declares their key.
	principalOf []*ForeignKey
	// definingNavigation and definingEntityType are set for delegated identity.
	definingNavigation string
	definingEntityType *EntityType
	owned              []*EntityType
	state              State
}

func newEntityType(m *Model, id TypeIdentity) *EntityType {
	return &EntityType{
		model:      m,
		name:       id.Name(),
		display:    id.DisplayName(),
		native:     id.NativeType(),
		derived:    make(map[*EntityType]struct{}),
		properties: make(map[string]*Property),
	}
}

// Model returns the model the entity type belongs (or belonged) to.
func (e *EntityType) Model() *Model { return e.model }

// Name returns the full name of the entity type.
func (e *EntityType) Name() string { return e.name }

// ShortName returns the display name of the underlying type, without the
// delegated identity prefix.
func (e *EntityType) ShortName() string { return e.display }

// DisplayName returns a human-readable name. Delegated-identity entity types
// render as "Owner.Navigation#Type".
func (e *EntityType) DisplayName() string {
	if e.definingEntityType != nil {
		return delegatedDisplayName(e.definingEntityType, e.definingNavigation, e.display)
	}
	return e.display
}

// String implements fmt.Stringer.
func (e *EntityType) String() string { return e.DisplayName() }

// NativeType returns the bound Go type, or nil for name-only entity types.
func (e *EntityType) NativeType() reflect.Type { return e.native }

// State returns the lifecycle state.
func (e *EntityType) State() State { return e.state }

// Builder returns a fluent builder for the entity type, or nil once the
// entity type has been removed from its model.
func (e *EntityType) Builder() *EntityTypeBuilder {
	if e.state == Detached {
		return nil
	}
	return &EntityTypeBuilder{et: e}
}

// IsDelegated reports whether the entity type has a delegated identity.
func (e *EntityType) IsDelegated() bool { return e.definingEntityType != nil }

// DefiningNavigation returns the navigation of a delegated identity.
func (e *EntityType) DefiningNavigation() string { return e.definingNavigation }

// DefiningEntityType returns the owner of a delegated identity.
func (e *EntityType) DefiningEntityType() *EntityType { return e.definingEntityType }

// OwnedTypes returns the delegated-identity entity types this one owns.
func (e *EntityType) OwnedTypes() []*EntityType { return slices.Clone(e.owned) }

// BaseType returns the base entity type, or nil.
func (e *EntityType) BaseType() *EntityType { return e.base }

// RootType returns the root of the inheritance hierarchy.
func (e *EntityType) RootType() *EntityType {
	root := e
	for root.base != nil {
		root = root.base
	}
	return root
}

// DerivedTypes returns the directly derived entity types ordered by name.
func (e *EntityType) DerivedTypes() []*EntityType {
	derived := slices.Collect(maps.Keys(e.derived))
	slices.SortFunc(derived, compareEntityTypes)
	return derived
}

// IsAssignableFrom reports whether other is e or derives from e.
func (e *EntityType) IsAssignableFrom(other *EntityType) bool {
	for t := other; t != nil; t = t.base {
		if t == e {
			return true
		}
	}
	return false
}

func (e *EntityType) checkLive() error {
	if e.state == Detached {
		return metamodel.ErrDetached
	}
	return nil
}

// HasBaseType sets the base entity type. A nil base clears it.
func (e *EntityType) HasBaseType(base *EntityType) error {
	if err := e.checkLive(); err != nil {
		return err
	}
	if base == e.base {
		return nil
	}
	if base != nil {
		if base.model != e.model || base.state == Detached {
			return metamodel.NewInvalidMetadataError(e.DisplayName(), "base type %q does not belong to the same model", base.DisplayName())
		}
		if e.IsAssignableFrom(base) {
			return &metamodel.CircularInheritanceError{EntityType: e.DisplayName(), BaseType: base.DisplayName()}
		}
		for _, t := range e.subtree() {
			for name := range t.properties {
				if p := base.FindProperty(name); p != nil {
					return &metamodel.DuplicateMetadataError{
						Kind:       "property",
						Name:       fmt.Sprintf("%q", name),
						EntityType: t.DisplayName(),
					}
				}
			}
		}
	}
	if err := e.checkInheritedUsage(base); err != nil {
		return err
	}

	m := e.model
	old := e.base
	if old != nil {
		deleteEntry(m, old.derived, e)
	}
	assign(m, &e.base, base)
	if base != nil {
		setEntry(m, base.derived, e, struct{}{})
	}
	display, from, to := e.DisplayName(), nameOf(old), nameOf(base)
	m.emit(func(l *diagnostics.Logger) { l.BaseTypeChanged(display, from, to) })
	// Derived types use the primary key of their root.
	if base != nil && e.primaryKey != nil {
		assign(m, &e.primaryKey, nil)
		m.emit(func(l *diagnostics.Logger) { l.PrimaryKeyChanged(display, nil) })
	}
	return nil
}

// checkInheritedUsage fails when keys, foreign keys or indexes in the subtree
// of e use properties that would no longer be inherited under base, or when
// a foreign key with a principal in the subtree targets a key that would no
// longer be inherited.
func (e *EntityType) checkInheritedUsage(base *EntityType) error {
	subtree := e.subtree()
	inherited := func(declaring *EntityType) bool {
		if slices.Contains(subtree, declaring) {
			return true
		}
		return base != nil && declaring.IsAssignableFrom(base)
	}
	visible := func(p *Property) bool { return inherited(p.declaringEntityType) }
	for _, t := range subtree {
		for _, fk := range t.principalOf {
			if k := fk.principalKey; !inherited(k.declaringEntityType) {
				return &metamodel.MetadataInUseError{
					Kind:       "key",
					Name:       metamodel.FormatProperties(k.PropertyNames()),
					EntityType: k.declaringEntityType.DisplayName(),
					UsedBy:     usage{kind: "foreign key", properties: fk.properties}.describe(fk.declaringEntityType),
				}
			}
		}
		for _, u := range t.usages() {
			for _, p := range u.properties {
				if !visible(p) {
					return &metamodel.MetadataInUseError{
						Kind:       "property",
						Name:       fmt.Sprintf("%q", p.name),
						EntityType: p.declaringEntityType.DisplayName(),
						UsedBy:     u.describe(t),
					}
				}
			}
		}
	}
	return nil
}

// subtree returns e followed by all transitively derived entity types.
func (e *EntityType) subtree() []*EntityType {
	out := []*EntityType{e}
	for i := 0; i < len(out); i++ {
		out = append(out, out[i].DerivedTypes()...)
	}
	return out
}

// ReferencingForeignKeys returns every foreign key in the model whose
// principal key is declared by this entity type, followed by the remaining
// ones naming it as principal entity type.
func (e *EntityType) ReferencingForeignKeys() []*ForeignKey {
	var fks []*ForeignKey
	for _, k := range e.keys {
		fks = append(fks, k.referencing...)
	}
	for _, fk := range e.principalOf {
		if !slices.Contains(fks, fk) {
			fks = append(fks, fk)
		}
	}
	return fks
}

// checkRemovable enforces the removal invariants.
func (e *EntityType) checkRemovable() error {
	if fks := e.ReferencingForeignKeys(); len(fks) > 0 {
		fk := fks[0]
		return &metamodel.EntityTypeInUseByReferencingForeignKeyError{
			EntityType: e.DisplayName(),
			Properties: fk.PropertyNames(),
			Dependent:  fk.declaringEntityType.DisplayName(),
		}
	}
	if derived := e.DerivedTypes(); len(derived) > 0 {
		return &metamodel.EntityTypeInUseByDerivedError{
			EntityType: e.DisplayName(),
			Derived:    derived[0].DisplayName(),
		}
	}
	if len(e.foreignKeys) > 0 {
		fk := e.foreignKeys[0]
		return &metamodel.EntityTypeInUseByForeignKeyError{
			EntityType: e.DisplayName(),
			Principal:  fk.principalEntityType.DisplayName(),
			Properties: fk.PropertyNames(),
		}
	}
	if len(e.owned) > 0 {
		return &metamodel.MetadataInUseError{
			Kind:       "entity type",
			Name:       fmt.Sprintf("%q", e.DisplayName()),
			EntityType: e.DisplayName(),
			UsedBy:     fmt.Sprintf("entity type with delegated identity %q", e.owned[0].DisplayName()),
		}
	}
	return nil
}

func nameOf(e *EntityType) string {
	if e == nil {
		return ""
	}
	return e.DisplayName()
}

// usage is a property list held by a key, foreign key or index.
type usage struct {
	kind       string
	properties []*Property
}

func (u usage) describe(owner *EntityType) string {
	return fmt.Sprintf("%s %s on entity type %q", u.kind, metamodel.FormatProperties(propertyNames(u.properties)), owner.DisplayName())
}

func (e *EntityType) usages() []usage {
	out := make([]usage, 0, len(e.keys)+len(e.foreignKeys)+len(e.indexes))
	for _, k := range e.keys {
		out = append(out, usage{kind: "key", properties: k.properties})
	}
	for _, fk := range e.foreignKeys {
		out = append(out, usage{kind: "foreign key", properties: fk.properties})
	}
	for _, ix := range e.indexes {
		out = append(out, usage{kind: "index", properties: ix.properties})
	}
	return out
}

func sortByName[T interface{ Name() string }](items []T) {
	slices.SortFunc(items, func(a, b T) int { return cmp.Compare(a.Name(), b.Name()) })
}

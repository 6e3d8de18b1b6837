package metadata

import (
	"reflect"
	"slices"

	"github.com/syssam/metamodel"
	"github.com/syssam/metamodel/diagnostics"
)

// ForeignKey references a principal key from a set of dependent properties.
// It is owned by the dependent entity type.
type ForeignKey struct {
	properties          []*Property
	principalKey        *Key
	principalEntityType *EntityType
	declaringEntityType *EntityType
}

// Properties returns the dependent properties in order.
func (fk *ForeignKey) Properties() []*Property { return slices.Clone(fk.properties) }

// PropertyNames returns the dependent property names in order.
func (fk *ForeignKey) PropertyNames() []string { return propertyNames(fk.properties) }

// PrincipalKey returns the referenced key.
func (fk *ForeignKey) PrincipalKey() *Key { return fk.principalKey }

// PrincipalEntityType returns the principal entity type.
func (fk *ForeignKey) PrincipalEntityType() *EntityType { return fk.principalEntityType }

// DeclaringEntityType returns the dependent entity type owning the foreign key.
func (fk *ForeignKey) DeclaringEntityType() *EntityType { return fk.declaringEntityType }

// IsSelfReferencing reports whether the dependent and principal hierarchies coincide.
func (fk *ForeignKey) IsSelfReferencing() bool {
	return fk.declaringEntityType.RootType() == fk.principalEntityType.RootType()
}

// String implements fmt.Stringer.
func (fk *ForeignKey) String() string {
	return fk.declaringEntityType.DisplayName() + " " + metamodel.FormatProperties(fk.PropertyNames()) +
		" -> " + fk.principalEntityType.DisplayName() + " " + metamodel.FormatProperties(fk.principalKey.PropertyNames())
}

// AddForeignKey declares a foreign key from props to principalKey on principal.
func (e *EntityType) AddForeignKey(props []*Property, principalKey *Key, principal *EntityType) (*ForeignKey, error) {
	if err := e.checkLive(); err != nil {
		return nil, err
	}
	if principal == nil || principal.model != e.model || principal.state == Detached {
		return nil, metamodel.NewInvalidMetadataError(e.DisplayName(), "principal entity type must belong to the same model")
	}
	if principalKey == nil || !principalKey.declaringEntityType.IsAssignableFrom(principal) {
		return nil, metamodel.NewInvalidMetadataError(e.DisplayName(), "principal key is not declared on entity type %q", principal.DisplayName())
	}
	if err := e.resolveProperties("foreign key", props); err != nil {
		return nil, err
	}
	if len(props) != len(principalKey.properties) {
		return nil, metamodel.NewInvalidMetadataError(e.DisplayName(),
			"foreign key %s has %d properties but principal key %s has %d",
			metamodel.FormatProperties(propertyNames(props)), len(props),
			metamodel.FormatProperties(principalKey.PropertyNames()), len(principalKey.properties))
	}
	for i, p := range props {
		if kp := principalKey.properties[i]; !compatible(p.typ, kp.typ) {
			return nil, metamodel.NewInvalidMetadataError(e.DisplayName(),
				"foreign key property %q of type %s is incompatible with principal key property %q of type %s",
				p.name, p.typ, kp.name, kp.typ)
		}
	}
	if e.selfReferencesDelegatedIdentity(principal) {
		return nil, &metamodel.ForeignKeySelfReferencingDelegatedIdentityError{EntityType: principal.DisplayName()}
	}
	if e.FindForeignKey(props, principalKey, principal) != nil {
		return nil, &metamodel.DuplicateMetadataError{
			Kind:       "foreign key",
			Name:       metamodel.FormatProperties(propertyNames(props)),
			EntityType: e.DisplayName(),
		}
	}
	fk := &ForeignKey{
		properties:          slices.Clone(props),
		principalKey:        principalKey,
		principalEntityType: principal,
		declaringEntityType: e,
	}
	m := e.model
	appendTo(m, &e.foreignKeys, fk)
	appendTo(m, &principalKey.referencing, fk)
	appendTo(m, &principal.principalOf, fk)
	display, names, principalName := e.DisplayName(), fk.PropertyNames(), principal.DisplayName()
	m.emit(func(l *diagnostics.Logger) { l.ForeignKeyAdded(display, names, principalName) })
	return fk, nil
}

// unlink removes fk from the reverse sets of its principal.
func (fk *ForeignKey) unlink() {
	m := fk.declaringEntityType.model
	removeFrom(m, &fk.principalKey.referencing, fk)
	removeFrom(m, &fk.principalEntityType.principalOf, fk)
}

// selfReferencesDelegatedIdentity reports whether a foreign key from e to
// principal would run along an ownership chain: a delegated entity type
// referencing itself, or an owner referencing an entity type it defines.
func (e *EntityType) selfReferencesDelegatedIdentity(principal *EntityType) bool {
	if principal == e {
		return e.IsDelegated()
	}
	for owner := principal.definingEntityType; owner != nil; owner = owner.definingEntityType {
		if owner == e {
			return true
		}
	}
	return false
}

// compatible reports whether a dependent property type can hold principal
// key values. Pointer dependents accept their element type.
func compatible(dependent, principal reflect.Type) bool {
	if dependent == principal {
		return true
	}
	return dependent.Kind() == reflect.Pointer && dependent.Elem() == principal
}

// GetOrAddForeignKey returns the matching foreign key, adding it when missing.
func (e *EntityType) GetOrAddForeignKey(props []*Property, principalKey *Key, principal *EntityType) (*ForeignKey, error) {
	if fk := e.FindForeignKey(props, principalKey, principal); fk != nil {
		return fk, nil
	}
	return e.AddForeignKey(props, principalKey, principal)
}

// FindForeignKey returns the foreign key declared over props referencing
// principalKey on principal, or nil.
func (e *EntityType) FindForeignKey(props []*Property, principalKey *Key, principal *EntityType) *ForeignKey {
	for _, fk := range e.foreignKeys {
		if fk.principalKey == principalKey && fk.principalEntityType == principal && slices.Equal(fk.properties, props) {
			return fk
		}
	}
	return nil
}

// ForeignKeys returns the declared foreign keys in insertion order.
func (e *EntityType) ForeignKeys() []*ForeignKey { return slices.Clone(e.foreignKeys) }

// RemoveForeignKey removes the matching foreign key and returns it, or nil
// when none matches.
func (e *EntityType) RemoveForeignKey(props []*Property, principalKey *Key, principal *EntityType) (*ForeignKey, error) {
	if err := e.checkLive(); err != nil {
		return nil, err
	}
	fk := e.FindForeignKey(props, principalKey, principal)
	if fk == nil {
		return nil, nil
	}
	removeFrom(e.model, &e.foreignKeys, fk)
	fk.unlink()
	display, names, principalName := e.DisplayName(), fk.PropertyNames(), principal.DisplayName()
	e.model.emit(func(l *diagnostics.Logger) { l.ForeignKeyRemoved(display, names, principalName) })
	return fk, nil
}

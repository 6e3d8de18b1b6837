package metadata

import (
	"slices"

	"github.com/syssam/metamodel"
	"github.com/syssam/metamodel/diagnostics"
)

// Key is an ordered set of properties whose values are unique within an
// entity type hierarchy.
type Key struct {
	properties          []*Property
	declaringEntityType *EntityType
	// referencing foreign keys, in insertion order.
	referencing []*ForeignKey
}

// Properties returns the key properties in order.
func (k *Key) Properties() []*Property { return slices.Clone(k.properties) }

// PropertyNames returns the key property names in order.
func (k *Key) PropertyNames() []string { return propertyNames(k.properties) }

// DeclaringEntityType returns the entity type declaring the key.
func (k *Key) DeclaringEntityType() *EntityType { return k.declaringEntityType }

// IsPrimaryKey reports whether the key is the primary key of its entity type.
func (k *Key) IsPrimaryKey() bool { return k.declaringEntityType.primaryKey == k }

// ReferencingForeignKeys returns the foreign keys targeting this key.
func (k *Key) ReferencingForeignKeys() []*ForeignKey { return slices.Clone(k.referencing) }

// String implements fmt.Stringer.
func (k *Key) String() string {
	return k.declaringEntityType.DisplayName() + " " + metamodel.FormatProperties(k.PropertyNames())
}

// AddKey declares a new key over the given properties.
func (e *EntityType) AddKey(props ...*Property) (*Key, error) {
	if err := e.checkLive(); err != nil {
		return nil, err
	}
	if err := e.resolveProperties("key", props); err != nil {
		return nil, err
	}
	for _, p := range props {
		if p.nullable {
			return nil, metamodel.NewInvalidMetadataError(e.DisplayName(), "key property %q cannot be nullable", p.name)
		}
	}
	if e.FindKey(props...) != nil {
		return nil, &metamodel.DuplicateMetadataError{
			Kind:       "key",
			Name:       metamodel.FormatProperties(propertyNames(props)),
			EntityType: e.DisplayName(),
		}
	}
	k := &Key{properties: slices.Clone(props), declaringEntityType: e}
	appendTo(e.model, &e.keys, k)
	display, names := e.DisplayName(), k.PropertyNames()
	e.model.emit(func(l *diagnostics.Logger) { l.KeyAdded(display, names) })
	return k, nil
}

// GetOrAddKey returns the key over the given properties, adding it when missing.
func (e *EntityType) GetOrAddKey(props ...*Property) (*Key, error) {
	if k := e.FindKey(props...); k != nil {
		return k, nil
	}
	return e.AddKey(props...)
}

// FindKey returns the key declared over exactly the given properties, or nil.
func (e *EntityType) FindKey(props ...*Property) *Key {
	for _, k := range e.keys {
		if slices.Equal(k.properties, props) {
			return k
		}
	}
	return nil
}

// Keys returns the declared keys in insertion order.
func (e *EntityType) Keys() []*Key { return slices.Clone(e.keys) }

// PrimaryKey returns the primary key of the hierarchy, or nil.
func (e *EntityType) PrimaryKey() *Key {
	return e.RootType().primaryKey
}

// SetPrimaryKey makes the key over props the primary key, adding the key
// when missing. Calling it without properties clears the primary key.
func (e *EntityType) SetPrimaryKey(props ...*Property) (*Key, error) {
	if err := e.checkLive(); err != nil {
		return nil, err
	}
	if e.base != nil {
		return nil, metamodel.NewInvalidMetadataError(e.DisplayName(), "a primary key can only be set on the root entity type %q", e.RootType().DisplayName())
	}
	display := e.DisplayName()
	if len(props) == 0 {
		if e.primaryKey != nil {
			assign(e.model, &e.primaryKey, nil)
			e.model.emit(func(l *diagnostics.Logger) { l.PrimaryKeyChanged(display, nil) })
		}
		return nil, nil
	}
	k, err := e.GetOrAddKey(props...)
	if err != nil {
		return nil, err
	}
	if e.primaryKey != k {
		assign(e.model, &e.primaryKey, k)
		names := k.PropertyNames()
		e.model.emit(func(l *diagnostics.Logger) { l.PrimaryKeyChanged(display, names) })
	}
	return k, nil
}

// RemoveKey removes the key over the given properties. Keys referenced by a
// foreign key cannot be removed.
func (e *EntityType) RemoveKey(props ...*Property) (*Key, error) {
	if err := e.checkLive(); err != nil {
		return nil, err
	}
	k := e.FindKey(props...)
	if k == nil {
		return nil, nil
	}
	if len(k.referencing) > 0 {
		fk := k.referencing[0]
		return nil, &metamodel.MetadataInUseError{
			Kind:       "key",
			Name:       metamodel.FormatProperties(k.PropertyNames()),
			EntityType: e.DisplayName(),
			UsedBy:     usage{kind: "foreign key", properties: fk.properties}.describe(fk.declaringEntityType),
		}
	}
	removeFrom(e.model, &e.keys, k)
	if e.primaryKey == k {
		assign(e.model, &e.primaryKey, nil)
	}
	display, names := e.DisplayName(), k.PropertyNames()
	e.model.emit(func(l *diagnostics.Logger) { l.KeyRemoved(display, names) })
	return k, nil
}

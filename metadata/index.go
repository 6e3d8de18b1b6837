package metadata

import (
	"slices"

	"github.com/syssam/metamodel"
	"github.com/syssam/metamodel/diagnostics"
)

// Index is an ordered set of properties marking a lookup path.
type Index struct {
	properties          []*Property
	declaringEntityType *EntityType
	unique              bool
}

// Properties returns the indexed properties in order.
func (ix *Index) Properties() []*Property { return slices.Clone(ix.properties) }

// PropertyNames returns the indexed property names in order.
func (ix *Index) PropertyNames() []string { return propertyNames(ix.properties) }

// DeclaringEntityType returns the entity type declaring the index.
func (ix *Index) DeclaringEntityType() *EntityType { return ix.declaringEntityType }

// IsUnique reports whether the index enforces uniqueness.
func (ix *Index) IsUnique() bool { return ix.unique }

// SetUnique sets the uniqueness flag.
func (ix *Index) SetUnique(unique bool) error {
	if err := ix.declaringEntityType.checkLive(); err != nil {
		return err
	}
	assign(ix.declaringEntityType.model, &ix.unique, unique)
	return nil
}

// String implements fmt.Stringer.
func (ix *Index) String() string {
	return ix.declaringEntityType.DisplayName() + " " + metamodel.FormatProperties(ix.PropertyNames())
}

// AddIndex declares a non-unique index over the given properties.
func (e *EntityType) AddIndex(props ...*Property) (*Index, error) {
	if err := e.checkLive(); err != nil {
		return nil, err
	}
	if err := e.resolveProperties("index", props); err != nil {
		return nil, err
	}
	if e.FindIndex(props...) != nil {
		return nil, &metamodel.DuplicateMetadataError{
			Kind:       "index",
			Name:       metamodel.FormatProperties(propertyNames(props)),
			EntityType: e.DisplayName(),
		}
	}
	ix := &Index{properties: slices.Clone(props), declaringEntityType: e}
	appendTo(e.model, &e.indexes, ix)
	display, names, unique := e.DisplayName(), ix.PropertyNames(), ix.unique
	e.model.emit(func(l *diagnostics.Logger) { l.IndexAdded(display, names, unique) })
	return ix, nil
}

// GetOrAddIndex returns the index over the given properties, adding it when missing.
func (e *EntityType) GetOrAddIndex(props ...*Property) (*Index, error) {
	if ix := e.FindIndex(props...); ix != nil {
		return ix, nil
	}
	return e.AddIndex(props...)
}

// FindIndex returns the index declared over exactly the given properties, or nil.
func (e *EntityType) FindIndex(props ...*Property) *Index {
	for _, ix := range e.indexes {
		if slices.Equal(ix.properties, props) {
			return ix
		}
	}
	return nil
}

// Indexes returns the declared indexes in insertion order.
func (e *EntityType) Indexes() []*Index { return slices.Clone(e.indexes) }

// RemoveIndex removes the index over the given properties and returns it,
// or nil when none matches.
func (e *EntityType) RemoveIndex(props ...*Property) (*Index, error) {
	if err := e.checkLive(); err != nil {
		return nil, err
	}
	ix := e.FindIndex(props...)
	if ix == nil {
		return nil, nil
	}
	removeFrom(e.model, &e.indexes, ix)
	display, names := e.DisplayName(), ix.PropertyNames()
	e.model.emit(func(l *diagnostics.Logger) { l.IndexRemoved(display, names) })
	return ix, nil
}

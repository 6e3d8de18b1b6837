package metadata

import (
	"github.com/syssam/metamodel"
	"github.com/syssam/metamodel/diagnostics"
)

// AddDelegatedIdentityEntityType registers an entity type whose identity is
// delegated to owner through navigation. Several owners may each own an
// entity type of the same name.
func (m *Model) AddDelegatedIdentityEntityType(id TypeIdentity, navigation string, owner *EntityType) (*EntityType, error) {
	if id.IsZero() {
		return nil, metamodel.NewInvalidMetadataError("", "entity type name cannot be empty")
	}
	if navigation == "" {
		return nil, metamodel.NewInvalidMetadataError(id.DisplayName(), "defining navigation cannot be empty")
	}
	if owner == nil || owner.model != m {
		return nil, metamodel.NewInvalidMetadataError(id.DisplayName(), "owner entity type must belong to the same model")
	}
	if owner.state == Detached {
		return nil, metamodel.ErrDetached
	}
	descriptor := delegatedDisplayName(owner, navigation, id.DisplayName())
	if _, ok := m.entityTypes[id.Name()]; ok {
		return nil, &metamodel.ClashingNonDelegatedIdentityEntityTypeError{EntityType: descriptor}
	}
	if m.findDelegated(id.Name(), navigation, owner) != nil {
		return nil, metamodel.NewDuplicateEntityTypeError(descriptor)
	}
	et := newEntityType(m, id)
	et.definingNavigation = navigation
	et.definingEntityType = owner
	err := m.change(func() error {
		m.record(func() { et.state = Detached })
		m.addDelegated(et)
		appendTo(m, &owner.owned, et)
		display, ownerName := et.DisplayName(), owner.DisplayName()
		m.emit(func(l *diagnostics.Logger) { l.DelegatedEntityTypeAdded(display, navigation, ownerName) })
		return m.conventions.entityTypeAdded(et)
	})
	if err != nil {
		return nil, err
	}
	return et, nil
}

// FindDelegatedIdentityEntityType returns the delegated-identity entity type
// registered for (id, navigation, owner), or nil.
func (m *Model) FindDelegatedIdentityEntityType(id TypeIdentity, navigation string, owner ReadOnlyEntityType) *EntityType {
	o, err := AsEntityType(owner)
	if err != nil {
		return nil
	}
	return m.findDelegated(id.Name(), navigation, o)
}

func (m *Model) findDelegated(name, navigation string, owner *EntityType) *EntityType {
	for _, et := range m.delegated[name] {
		if et.definingNavigation == navigation && et.definingEntityType == owner {
			return et
		}
	}
	return nil
}

// IsDelegatedIdentityEntityType reports whether entity types with delegated
// identity are registered under the name of id.
func (m *Model) IsDelegatedIdentityEntityType(id TypeIdentity) bool {
	return len(m.delegated[id.Name()]) > 0
}

// RemoveDelegatedIdentityEntityType removes a delegated-identity entity type.
// It returns nil and no error for entity types that are not registered as
// delegated in this model, including ones already removed.
func (m *Model) RemoveDelegatedIdentityEntityType(et *EntityType) (*EntityType, error) {
	if et == nil || et.model != m || et.state == Detached || !et.IsDelegated() {
		return nil, nil
	}
	if err := et.checkRemovable(); err != nil {
		return nil, err
	}
	m.detach(et)
	display := et.DisplayName()
	m.emit(func(l *diagnostics.Logger) { l.DelegatedEntityTypeRemoved(display) })
	return et, nil
}

// RemoveDelegatedIdentityEntityTypeBy removes the delegated-identity entity
// type registered for (id, navigation, owner).
func (m *Model) RemoveDelegatedIdentityEntityTypeBy(id TypeIdentity, navigation string, owner *EntityType) (*EntityType, error) {
	et := m.findDelegated(id.Name(), navigation, owner)
	if et == nil {
		return nil, nil
	}
	return m.RemoveDelegatedIdentityEntityType(et)
}

func delegatedDisplayName(owner *EntityType, navigation, name string) string {
	return owner.DisplayName() + "." + navigation + "#" + name
}

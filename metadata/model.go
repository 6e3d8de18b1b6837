// Package metadata implements the entity-metadata graph: a Model of entity
// types connected by keys, foreign keys, indexes, ownership and single
// inheritance, with typed failures for every invariant violation.
//
// A Model is not safe for concurrent mutation. Callers serialize writes;
// read operations have no side effects and return fresh slices.
package metadata

import (
	"cmp"
	"fmt"
	"reflect"
	"slices"

	"github.com/google/uuid"

	"github.com/syssam/metamodel"
	"github.com/syssam/metamodel/diagnostics"
)

// Model is the root of the metadata graph.
type Model struct {
	id          uuid.UUID
	entityTypes map[string]*EntityType
	nativeTypes map[reflect.Type]*EntityType
	// delegated maps a name to every delegated-identity entity type sharing it.
	delegated   map[string][]*EntityType
	strategy    metamodel.ChangeTrackingStrategy
	conventions *ConventionSet
	logger      *diagnostics.Logger
	// journal is set while a change is running.
	journal *journal
}

// Option configures a Model.
type Option func(*Model)

// WithConventions sets the conventions applied as metadata is added.
func WithConventions(cs *ConventionSet) Option {
	return func(m *Model) {
		m.conventions = cs
	}
}

// WithLogger sets the diagnostics logger receiving mutation events.
func WithLogger(l *diagnostics.Logger) Option {
	return func(m *Model) {
		m.logger = l
	}
}

// WithChangeTrackingStrategy sets the initial change tracking strategy.
// Unknown values are ignored.
func WithChangeTrackingStrategy(s metamodel.ChangeTrackingStrategy) Option {
	return func(m *Model) {
		if s.Valid() {
			m.strategy = s
		}
	}
}

// WithID sets the model identifier instead of a random one.
func WithID(id uuid.UUID) Option {
	return func(m *Model) {
		m.id = id
	}
}

// NewModel returns an empty model using the Snapshot change tracking strategy.
func NewModel(opts ...Option) *Model {
	m := &Model{
		id:          uuid.New(),
		entityTypes: make(map[string]*EntityType),
		nativeTypes: make(map[reflect.Type]*EntityType),
		delegated:   make(map[string][]*EntityType),
		strategy:    metamodel.Snapshot,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.conventions == nil {
		m.conventions = NewConventionSet()
	}
	if m.logger == nil {
		m.logger = diagnostics.NewNop()
	}
	return m
}

// ID returns the model identifier.
func (m *Model) ID() uuid.UUID { return m.id }

// Logger returns the diagnostics logger of the model.
func (m *Model) Logger() *diagnostics.Logger { return m.logger }

// ChangeTrackingStrategy returns the model-wide change tracking strategy.
func (m *Model) ChangeTrackingStrategy() metamodel.ChangeTrackingStrategy { return m.strategy }

// SetChangeTrackingStrategy sets the change tracking strategy. Unknown values
// are rejected.
func (m *Model) SetChangeTrackingStrategy(s metamodel.ChangeTrackingStrategy) error {
	if !s.Valid() {
		return metamodel.NewInvalidMetadataError("", "unknown change tracking strategy %d", int(s))
	}
	if s != m.strategy {
		from, to := m.strategy.String(), s.String()
		assign(m, &m.strategy, s)
		m.emit(func(l *diagnostics.Logger) { l.ChangeTrackingStrategyChanged(from, to) })
	}
	return nil
}

// AddEntityType registers a new entity type.
func (m *Model) AddEntityType(id TypeIdentity) (*EntityType, error) {
	if id.IsZero() {
		return nil, metamodel.NewInvalidMetadataError("", "entity type name cannot be empty")
	}
	name := id.Name()
	if _, ok := m.entityTypes[name]; ok {
		return nil, metamodel.NewDuplicateEntityTypeError(id.DisplayName())
	}
	if len(m.delegated[name]) > 0 {
		return nil, &metamodel.ClashingDelegatedIdentityEntityTypeError{EntityType: id.DisplayName()}
	}
	et := newEntityType(m, id)
	err := m.change(func() error {
		m.record(func() { et.state = Detached })
		setEntry(m, m.entityTypes, name, et)
		if t := id.NativeType(); t != nil {
			setEntry(m, m.nativeTypes, t, et)
		}
		display := et.DisplayName()
		m.emit(func(l *diagnostics.Logger) { l.EntityTypeAdded(display) })
		return m.conventions.entityTypeAdded(et)
	})
	if err != nil {
		return nil, err
	}
	return et, nil
}

// GetOrAddEntityType returns the entity type registered for id, adding it
// when missing.
func (m *Model) GetOrAddEntityType(id TypeIdentity) (*EntityType, error) {
	if et := m.FindEntityType(id); et != nil {
		return et, nil
	}
	return m.AddEntityType(id)
}

// FindEntityType returns the non-delegated entity type registered for id,
// or nil. Type identities resolve through the bound Go type only.
func (m *Model) FindEntityType(id TypeIdentity) *EntityType {
	if t := id.NativeType(); t != nil {
		return m.nativeTypes[t]
	}
	return m.entityTypes[id.Name()]
}

// RemoveEntityType removes the non-delegated entity type registered for id.
// It returns nil and no error when there is nothing to remove.
func (m *Model) RemoveEntityType(id TypeIdentity) (*EntityType, error) {
	et := m.FindEntityType(id)
	if et == nil {
		return nil, nil
	}
	if err := et.checkRemovable(); err != nil {
		return nil, err
	}
	m.detach(et)
	display := et.DisplayName()
	m.emit(func(l *diagnostics.Logger) { l.EntityTypeRemoved(display) })
	return et, nil
}

// EntityTypes returns every entity type ordered by name. Delegated-identity
// entity types sharing a name are ordered by navigation, then owner.
func (m *Model) EntityTypes() []*EntityType {
	all := make([]*EntityType, 0, len(m.entityTypes))
	for _, et := range m.entityTypes {
		all = append(all, et)
	}
	for _, ets := range m.delegated {
		all = append(all, ets...)
	}
	slices.SortFunc(all, compareEntityTypes)
	return all
}

func compareEntityTypes(a, b *EntityType) int {
	if c := cmp.Compare(a.name, b.name); c != 0 {
		return c
	}
	if c := cmp.Compare(a.definingNavigation, b.definingNavigation); c != 0 {
		return c
	}
	switch {
	case a.definingEntityType == nil && b.definingEntityType == nil:
		return 0
	case a.definingEntityType == nil:
		return -1
	case b.definingEntityType == nil:
		return 1
	}
	return cmp.Compare(a.definingEntityType.DisplayName(), b.definingEntityType.DisplayName())
}

// detach unlinks et from every index and from its neighbours, and marks it
// detached.
func (m *Model) detach(et *EntityType) {
	if et.IsDelegated() {
		m.removeDelegated(et)
		removeFrom(m, &et.definingEntityType.owned, et)
	} else {
		deleteEntry(m, m.entityTypes, et.name)
		if et.native != nil {
			deleteEntry(m, m.nativeTypes, et.native)
		}
	}
	for _, fk := range et.foreignKeys {
		fk.unlink()
	}
	if et.base != nil {
		deleteEntry(m, et.base.derived, et)
	}
	assign(m, &et.state, Detached)
}

func (m *Model) addDelegated(et *EntityType) {
	setEntry(m, m.delegated, et.name, append(slices.Clone(m.delegated[et.name]), et))
}

func (m *Model) removeDelegated(et *EntityType) {
	rest := slices.DeleteFunc(slices.Clone(m.delegated[et.name]), func(o *EntityType) bool { return o == et })
	if len(rest) == 0 {
		deleteEntry(m, m.delegated, et.name)
		return
	}
	setEntry(m, m.delegated, et.name, rest)
}

// ReadOnlyModel is the read-only view of a Model.
type ReadOnlyModel interface {
	ID() uuid.UUID
	ChangeTrackingStrategy() metamodel.ChangeTrackingStrategy
	IsDelegatedIdentityEntityType(TypeIdentity) bool
	EntityTypes() []*EntityType
}

var _ ReadOnlyModel = (*Model)(nil)

// AsModel returns the built-in Model behind m. Other implementations of
// ReadOnlyModel are rejected with a CustomMetadataError.
func AsModel(m ReadOnlyModel) (*Model, error) {
	if mm, ok := m.(*Model); ok && mm != nil {
		return mm, nil
	}
	return nil, &metamodel.CustomMetadataError{
		Method:         "AsModel",
		Interface:      "ReadOnlyModel",
		Implementation: fmt.Sprintf("%T", m),
	}
}

package metadata_test

import (
	"errors"
	"reflect"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/syssam/metamodel"
	"github.com/syssam/metamodel/diagnostics"
	"github.com/syssam/metamodel/metadata"
)

type Customer struct {
	ID     int
	Name   string
	Orders []*Order
}

type SpecialCustomer struct {
	Customer
	Level int
}

type Order struct {
	ID         int
	CustomerID int
}

var (
	intType    = reflect.TypeFor[int]()
	stringType = reflect.TypeFor[string]()
)

// customerOrder builds Customer{ID} and Order{ID, CustomerID} with a foreign
// key from Order.CustomerID to the primary key of Customer.
func customerOrder(t *testing.T, m *metadata.Model) (*metadata.EntityType, *metadata.EntityType, *metadata.ForeignKey) {
	t.Helper()
	customer, err := m.AddEntityType(metadata.For[Customer]())
	require.NoError(t, err)
	id, err := customer.AddProperty("ID", intType)
	require.NoError(t, err)
	pk, err := customer.SetPrimaryKey(id)
	require.NoError(t, err)

	order, err := m.AddEntityType(metadata.For[Order]())
	require.NoError(t, err)
	fkProp, err := order.AddProperty("CustomerID", intType)
	require.NoError(t, err)
	fk, err := order.AddForeignKey([]*metadata.Property{fkProp}, pk, customer)
	require.NoError(t, err)
	return customer, order, fk
}

func TestModel_AddEntityType(t *testing.T) {
	t.Parallel()

	m := metadata.NewModel()
	customer, err := m.AddEntityType(metadata.For[Customer]())
	require.NoError(t, err)
	assert.Equal(t, "Customer", customer.DisplayName())
	assert.Equal(t, metadata.For[Customer]().Name(), customer.Name())
	assert.Equal(t, reflect.TypeFor[Customer](), customer.NativeType())
	assert.Same(t, m, customer.Model())
	assert.Equal(t, metadata.Live, customer.State())
	assert.NotNil(t, customer.Builder())

	assert.Same(t, customer, m.FindEntityType(metadata.For[Customer]()))
	assert.Same(t, customer, m.FindEntityType(metadata.TypeOf(reflect.TypeFor[*Customer]())))
	assert.Same(t, customer, m.FindEntityType(metadata.Named(customer.Name())), "name and type resolve to the same entity type")

	_, err = m.AddEntityType(metadata.For[Customer]())
	require.Error(t, err)
	assert.True(t, metamodel.IsDuplicateEntityType(err))
	assert.Equal(t, `metamodel: entity type "Customer" cannot be added because an entity type with the same name already exists`, err.Error())

	_, err = m.AddEntityType(metadata.Named(""))
	assert.ErrorIs(t, err, metamodel.ErrInvalid)
}

func TestModel_GetOrAddEntityType(t *testing.T) {
	t.Parallel()

	m := metadata.NewModel()
	first, err := m.GetOrAddEntityType(metadata.Named("Customer"))
	require.NoError(t, err)
	second, err := m.GetOrAddEntityType(metadata.Named("Customer"))
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Len(t, m.EntityTypes(), 1)
}

func TestModel_EntityTypesOrderedByName(t *testing.T) {
	t.Parallel()

	m := metadata.NewModel()
	for _, name := range []string{"Order", "Customer", "Product", "Address"} {
		_, err := m.AddEntityType(metadata.Named(name))
		require.NoError(t, err)
	}
	var names []string
	for _, et := range m.EntityTypes() {
		names = append(names, et.Name())
	}
	assert.Equal(t, []string{"Address", "Customer", "Order", "Product"}, names)

	ets := m.EntityTypes()
	ets[0] = nil
	assert.NotNil(t, m.EntityTypes()[0], "callers get a fresh slice")
}

func TestModel_RemoveEntityType(t *testing.T) {
	t.Parallel()

	t.Run("Absent", func(t *testing.T) {
		t.Parallel()
		m := metadata.NewModel()
		et, err := m.RemoveEntityType(metadata.Named("Customer"))
		require.NoError(t, err)
		assert.Nil(t, et)
		et, err = m.RemoveEntityType(metadata.For[Customer]())
		require.NoError(t, err)
		assert.Nil(t, et)
	})

	t.Run("ReferencedByForeignKey", func(t *testing.T) {
		t.Parallel()
		m := metadata.NewModel()
		customer, order, fk := customerOrder(t, m)

		_, err := m.RemoveEntityType(metadata.For[Customer]())
		require.Error(t, err)
		assert.True(t, metamodel.IsEntityTypeInUseByReferencingForeignKey(err))
		assert.Equal(t, `metamodel: cannot remove entity type "Customer" because it is referenced by foreign key {'CustomerID'} on entity type "Order"`, err.Error())
		assert.Same(t, customer, m.FindEntityType(metadata.For[Customer]()), "failed removal leaves the model unchanged")
		assert.NotNil(t, customer.Builder())

		removed, err := order.RemoveForeignKey(fk.Properties(), fk.PrincipalKey(), customer)
		require.NoError(t, err)
		assert.Same(t, fk, removed)

		removed2, err := m.RemoveEntityType(metadata.For[Customer]())
		require.NoError(t, err)
		assert.Same(t, customer, removed2)
		assert.Nil(t, m.FindEntityType(metadata.For[Customer]()))
		assert.Nil(t, customer.Builder())
		assert.Equal(t, metadata.Detached, customer.State())
		assert.Same(t, order, m.FindEntityType(metadata.For[Order]()))
	})

	t.Run("OwnForeignKey", func(t *testing.T) {
		t.Parallel()
		m := metadata.NewModel()
		customer, order, fk := customerOrder(t, m)

		_, err := m.RemoveEntityType(metadata.For[Order]())
		require.Error(t, err)
		assert.True(t, metamodel.IsEntityTypeInUseByForeignKey(err))

		_, err = order.RemoveForeignKey(fk.Properties(), fk.PrincipalKey(), customer)
		require.NoError(t, err)
		_, err = m.RemoveEntityType(metadata.For[Order]())
		require.NoError(t, err)
	})

	t.Run("PrincipalThroughInheritedKey", func(t *testing.T) {
		t.Parallel()
		m := metadata.NewModel()
		customer, order, fk := customerOrder(t, m)
		special, err := m.AddEntityType(metadata.For[SpecialCustomer]())
		require.NoError(t, err)
		require.NoError(t, special.HasBaseType(customer))
		_, err = order.RemoveForeignKey(fk.Properties(), fk.PrincipalKey(), customer)
		require.NoError(t, err)
		fk, err = order.AddForeignKey(fk.Properties(), customer.PrimaryKey(), special)
		require.NoError(t, err)
		assert.Equal(t, []*metadata.ForeignKey{fk}, special.ReferencingForeignKeys())
		assert.Equal(t, []*metadata.ForeignKey{fk}, customer.ReferencingForeignKeys())

		_, err = m.RemoveEntityType(metadata.For[SpecialCustomer]())
		require.Error(t, err)
		assert.True(t, metamodel.IsEntityTypeInUseByReferencingForeignKey(err))
		assert.Equal(t, `metamodel: cannot remove entity type "SpecialCustomer" because it is referenced by foreign key {'CustomerID'} on entity type "Order"`, err.Error())
		assert.Equal(t, metadata.Live, special.State())
		assert.Same(t, special, fk.PrincipalEntityType())

		_, err = order.RemoveForeignKey(fk.Properties(), fk.PrincipalKey(), special)
		require.NoError(t, err)
		assert.Empty(t, special.ReferencingForeignKeys())
		_, err = m.RemoveEntityType(metadata.For[SpecialCustomer]())
		require.NoError(t, err)
	})

	t.Run("HasDerived", func(t *testing.T) {
		t.Parallel()
		m := metadata.NewModel()
		customer, err := m.AddEntityType(metadata.For[Customer]())
		require.NoError(t, err)
		special, err := m.AddEntityType(metadata.For[SpecialCustomer]())
		require.NoError(t, err)
		require.NoError(t, special.HasBaseType(customer))

		_, err = m.RemoveEntityType(metadata.For[Customer]())
		require.Error(t, err)
		assert.True(t, metamodel.IsEntityTypeInUseByDerived(err))
		assert.Equal(t, `metamodel: cannot remove entity type "Customer" because entity type "SpecialCustomer" is derived from it`, err.Error())

		_, err = m.RemoveEntityType(metadata.For[SpecialCustomer]())
		require.NoError(t, err)
		assert.Empty(t, customer.DerivedTypes())
		_, err = m.RemoveEntityType(metadata.For[Customer]())
		require.NoError(t, err)
	})

	t.Run("DetachedRejectsMutation", func(t *testing.T) {
		t.Parallel()
		m := metadata.NewModel()
		customer, err := m.AddEntityType(metadata.Named("Customer"))
		require.NoError(t, err)
		_, err = m.RemoveEntityType(metadata.Named("Customer"))
		require.NoError(t, err)

		_, err = customer.AddProperty("ID", intType)
		assert.ErrorIs(t, err, metamodel.ErrDetached)
		_, err = m.RemoveEntityType(metadata.Named("Customer"))
		assert.NoError(t, err)
	})
}

func TestModel_ReferencingForeignKeys(t *testing.T) {
	t.Parallel()

	m := metadata.NewModel()
	customer, _, fk := customerOrder(t, m)

	// registered after the principal key was created
	invoice, err := m.AddEntityType(metadata.Named("Invoice"))
	require.NoError(t, err)
	p, err := invoice.AddProperty("CustomerID", intType)
	require.NoError(t, err)
	fk2, err := invoice.AddForeignKey([]*metadata.Property{p}, customer.PrimaryKey(), customer)
	require.NoError(t, err)

	assert.Equal(t, []*metadata.ForeignKey{fk, fk2}, customer.ReferencingForeignKeys())
	assert.Equal(t, []*metadata.ForeignKey{fk, fk2}, customer.PrimaryKey().ReferencingForeignKeys())
	assert.Empty(t, invoice.ReferencingForeignKeys())

	_, err = invoice.RemoveForeignKey([]*metadata.Property{p}, customer.PrimaryKey(), customer)
	require.NoError(t, err)
	assert.Equal(t, []*metadata.ForeignKey{fk}, customer.ReferencingForeignKeys())
}

func TestModel_DelegatedIdentity(t *testing.T) {
	t.Parallel()

	t.Run("AddAndFind", func(t *testing.T) {
		t.Parallel()
		m := metadata.NewModel()
		customer, err := m.AddEntityType(metadata.For[Customer]())
		require.NoError(t, err)

		order, err := m.AddDelegatedIdentityEntityType(metadata.For[Order](), "Orders", customer)
		require.NoError(t, err)
		assert.True(t, order.IsDelegated())
		assert.Equal(t, "Orders", order.DefiningNavigation())
		assert.Same(t, customer, order.DefiningEntityType())
		assert.Equal(t, "Customer.Orders#Order", order.DisplayName())
		assert.Equal(t, "Order", order.ShortName())
		assert.Equal(t, []*metadata.EntityType{order}, customer.OwnedTypes())

		assert.Same(t, order, m.FindDelegatedIdentityEntityType(metadata.For[Order](), "Orders", customer))
		assert.Nil(t, m.FindDelegatedIdentityEntityType(metadata.For[Order](), "Other", customer))
		assert.Nil(t, m.FindEntityType(metadata.For[Order]()), "delegated types are not in the name index")
		assert.True(t, m.IsDelegatedIdentityEntityType(metadata.For[Order]()))
		assert.False(t, m.IsDelegatedIdentityEntityType(metadata.For[Customer]()))

		_, err = m.AddEntityType(metadata.For[Order]())
		require.Error(t, err)
		assert.True(t, metamodel.IsClashingDelegatedIdentityEntityType(err))
		assert.Equal(t, `metamodel: cannot add entity type "Order" because entity types with delegated identity of the same type already exist`, err.Error())

		_, err = m.AddDelegatedIdentityEntityType(metadata.For[Order](), "Orders", customer)
		require.Error(t, err)
		assert.True(t, metamodel.IsDuplicateEntityType(err))
		assert.Contains(t, err.Error(), `"Customer.Orders#Order"`)
	})

	t.Run("ClashesWithNonDelegated", func(t *testing.T) {
		t.Parallel()
		m := metadata.NewModel()
		customer, err := m.AddEntityType(metadata.For[Customer]())
		require.NoError(t, err)
		_, err = m.AddEntityType(metadata.For[Order]())
		require.NoError(t, err)

		_, err = m.AddDelegatedIdentityEntityType(metadata.For[Order](), "Orders", customer)
		require.Error(t, err)
		assert.True(t, metamodel.IsClashingNonDelegatedIdentityEntityType(err))
		var clash *metamodel.ClashingNonDelegatedIdentityEntityTypeError
		require.ErrorAs(t, err, &clash)
		assert.Equal(t, "Customer.Orders#Order", clash.EntityType)
		assert.Empty(t, customer.OwnedTypes())
	})

	t.Run("SameTypeOwnedTwice", func(t *testing.T) {
		t.Parallel()
		m := metadata.NewModel()
		vendor, err := m.AddEntityType(metadata.Named("Vendor"))
		require.NoError(t, err)
		customer, err := m.AddEntityType(metadata.Named("Customer"))
		require.NoError(t, err)
		a1, err := m.AddDelegatedIdentityEntityType(metadata.Named("Address"), "Address", vendor)
		require.NoError(t, err)
		a2, err := m.AddDelegatedIdentityEntityType(metadata.Named("Address"), "Address", customer)
		require.NoError(t, err)
		assert.NotSame(t, a1, a2)

		var names []string
		for _, et := range m.EntityTypes() {
			names = append(names, et.DisplayName())
		}
		assert.Equal(t, []string{"Customer.Address#Address", "Vendor.Address#Address", "Customer", "Vendor"}, names)
	})

	t.Run("Remove", func(t *testing.T) {
		t.Parallel()
		m := metadata.NewModel()
		customer, err := m.AddEntityType(metadata.For[Customer]())
		require.NoError(t, err)
		id, err := customer.AddProperty("ID", intType)
		require.NoError(t, err)
		pk, err := customer.SetPrimaryKey(id)
		require.NoError(t, err)

		order, err := m.AddDelegatedIdentityEntityType(metadata.For[Order](), "Orders", customer)
		require.NoError(t, err)
		ownerID, err := order.AddProperty("CustomerID", intType)
		require.NoError(t, err)
		_, err = order.AddForeignKey([]*metadata.Property{ownerID}, pk, customer)
		require.NoError(t, err)

		_, err = m.RemoveEntityType(metadata.For[Customer]())
		require.Error(t, err, "owner is referenced by the delegated type")

		_, err = m.RemoveDelegatedIdentityEntityType(order)
		require.Error(t, err)
		assert.True(t, metamodel.IsEntityTypeInUseByForeignKey(err))
		var inUse *metamodel.EntityTypeInUseByForeignKeyError
		require.ErrorAs(t, err, &inUse)
		assert.Equal(t, "Customer.Orders#Order", inUse.EntityType)
		assert.Equal(t, "Customer", inUse.Principal)
		assert.Equal(t, []string{"CustomerID"}, inUse.Properties)

		_, err = order.RemoveForeignKey([]*metadata.Property{ownerID}, pk, customer)
		require.NoError(t, err)
		removed, err := m.RemoveDelegatedIdentityEntityTypeBy(metadata.For[Order](), "Orders", customer)
		require.NoError(t, err)
		assert.Same(t, order, removed)
		assert.Nil(t, order.Builder())
		assert.Empty(t, customer.OwnedTypes())
		assert.False(t, m.IsDelegatedIdentityEntityType(metadata.For[Order]()))

		removed, err = m.RemoveDelegatedIdentityEntityType(order)
		require.NoError(t, err)
		assert.Nil(t, removed)

		_, err = m.AddEntityType(metadata.For[Order]())
		assert.NoError(t, err, "the name is free again")
	})

	t.Run("OwnerInUse", func(t *testing.T) {
		t.Parallel()
		m := metadata.NewModel()
		customer, err := m.AddEntityType(metadata.Named("Customer"))
		require.NoError(t, err)
		_, err = m.AddDelegatedIdentityEntityType(metadata.Named("Address"), "Address", customer)
		require.NoError(t, err)

		_, err = m.RemoveEntityType(metadata.Named("Customer"))
		require.Error(t, err)
		assert.True(t, metamodel.IsInUse(err))
	})

	t.Run("InvalidOwner", func(t *testing.T) {
		t.Parallel()
		m := metadata.NewModel()
		other, err := metadata.NewModel().AddEntityType(metadata.Named("Customer"))
		require.NoError(t, err)
		_, err = m.AddDelegatedIdentityEntityType(metadata.Named("Address"), "Address", other)
		assert.ErrorIs(t, err, metamodel.ErrInvalid)
		_, err = m.AddDelegatedIdentityEntityType(metadata.Named("Address"), "Address", nil)
		assert.ErrorIs(t, err, metamodel.ErrInvalid)
	})
}

func TestModel_ForeignKeySelfReferencingDelegatedIdentity(t *testing.T) {
	t.Parallel()

	m := metadata.NewModel()
	customer, err := m.AddEntityType(metadata.For[Customer]())
	require.NoError(t, err)
	cid, err := customer.AddProperty("OrderRef", intType)
	require.NoError(t, err)

	order, err := m.AddDelegatedIdentityEntityType(metadata.For[Order](), "Orders", customer)
	require.NoError(t, err)
	id, err := order.AddProperty("ID", intType)
	require.NoError(t, err)
	parent, err := order.AddProperty("ParentID", intType)
	require.NoError(t, err)
	key, err := order.AddKey(id)
	require.NoError(t, err)

	_, err = order.AddForeignKey([]*metadata.Property{parent}, key, order)
	require.Error(t, err)
	assert.True(t, metamodel.IsForeignKeySelfReferencingDelegatedIdentity(err))
	assert.Contains(t, err.Error(), `"Customer.Orders#Order"`)
	assert.Empty(t, order.ForeignKeys())
	assert.Empty(t, key.ReferencingForeignKeys())

	_, err = customer.AddForeignKey([]*metadata.Property{cid}, key, order)
	require.Error(t, err)
	assert.True(t, metamodel.IsForeignKeySelfReferencingDelegatedIdentity(err))
}

func TestModel_ChangeTrackingStrategy(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.DebugLevel)
	m := metadata.NewModel(metadata.WithLogger(diagnostics.New(zap.New(core))))
	assert.Equal(t, metamodel.Snapshot, m.ChangeTrackingStrategy())

	require.NoError(t, m.SetChangeTrackingStrategy(metamodel.ChangingAndChangedNotifications))
	assert.Equal(t, metamodel.ChangingAndChangedNotifications, m.ChangeTrackingStrategy())
	assert.Equal(t, 1, logs.FilterField(zap.Int(diagnostics.EventIDKey, diagnostics.ChangeTrackingStrategyChanged.ID)).Len())

	err := m.SetChangeTrackingStrategy(metamodel.ChangeTrackingStrategy(42))
	assert.ErrorIs(t, err, metamodel.ErrInvalid)
	assert.Equal(t, metamodel.ChangingAndChangedNotifications, m.ChangeTrackingStrategy())

	m2 := metadata.NewModel(metadata.WithChangeTrackingStrategy(metamodel.ChangedNotifications))
	assert.Equal(t, metamodel.ChangedNotifications, m2.ChangeTrackingStrategy())
}

func TestModel_ID(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	assert.Equal(t, id, metadata.NewModel(metadata.WithID(id)).ID())
	assert.NotEqual(t, metadata.NewModel().ID(), metadata.NewModel().ID())
}

func TestModel_LogsMutations(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.DebugLevel)
	m := metadata.NewModel(metadata.WithLogger(diagnostics.New(zap.New(core))))
	customerOrder(t, m)

	var events []string
	for _, e := range logs.All() {
		events = append(events, e.ContextMap()[diagnostics.EventNameKey].(string))
	}
	assert.Equal(t, []string{
		"EntityTypeAdded", "PropertyAdded", "KeyAdded", "PrimaryKeyChanged",
		"EntityTypeAdded", "PropertyAdded", "ForeignKeyAdded",
	}, events)
}

type foreignModel struct{ metadata.ReadOnlyModel }

type foreignEntityType struct{ metadata.ReadOnlyEntityType }

func TestAsModel(t *testing.T) {
	t.Parallel()

	m := metadata.NewModel()
	got, err := metadata.AsModel(m)
	require.NoError(t, err)
	assert.Same(t, m, got)

	_, err = metadata.AsModel(foreignModel{})
	require.Error(t, err)
	assert.True(t, metamodel.IsCustomMetadata(err))
	var custom *metamodel.CustomMetadataError
	require.True(t, errors.As(err, &custom))
	assert.Equal(t, "AsModel", custom.Method)
	assert.Equal(t, "metadata_test.foreignModel", custom.Implementation)
}

func TestAsEntityType(t *testing.T) {
	t.Parallel()

	m := metadata.NewModel()
	customer, err := m.AddEntityType(metadata.Named("Customer"))
	require.NoError(t, err)
	got, err := metadata.AsEntityType(customer)
	require.NoError(t, err)
	assert.Same(t, customer, got)

	_, err = metadata.AsEntityType(foreignEntityType{})
	assert.True(t, metamodel.IsCustomMetadata(err))
	assert.Nil(t, m.FindDelegatedIdentityEntityType(metadata.Named("Address"), "Address", foreignEntityType{}))
}

package metadata_test

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/metamodel"
	"github.com/syssam/metamodel/metadata"
)

func TestEntityTypeBuilder(t *testing.T) {
	t.Parallel()

	m := metadata.NewModel()
	customer, err := m.AddEntityType(metadata.Named("Customer"))
	require.NoError(t, err)
	b := customer.Builder().
		Property("ID", intType).
		Property("Email", stringType).
		Property("Nick", reflect.TypeFor[*string]()).
		HasKey("ID").
		HasAlternateKey("Email").
		HasUniqueIndex("Email").
		HasIndex("Nick").
		Owns(metadata.Named("Address"), "Address", func(ab *metadata.EntityTypeBuilder) {
			ab.Property("Street", stringType).Property("CustomerID", intType)
		})
	require.NoError(t, b.Err())
	assert.Same(t, customer, b.Metadata())

	assert.Equal(t, []string{"ID"}, customer.PrimaryKey().PropertyNames())
	assert.Len(t, customer.Keys(), 2)
	require.Len(t, customer.Indexes(), 2)
	assert.True(t, customer.Indexes()[0].IsUnique())
	assert.False(t, customer.Indexes()[1].IsUnique())

	address := m.FindDelegatedIdentityEntityType(metadata.Named("Address"), "Address", customer)
	require.NotNil(t, address)
	assert.NotNil(t, address.FindProperty("Street"))

	order, err := m.AddEntityType(metadata.Named("Order"))
	require.NoError(t, err)
	ob := order.Builder().
		Property("CustomerID", intType).
		HasForeignKey(customer, "CustomerID")
	require.NoError(t, ob.Err())
	require.Len(t, order.ForeignKeys(), 1)
	assert.Same(t, customer.PrimaryKey(), order.ForeignKeys()[0].PrincipalKey())
}

func TestEntityTypeBuilder_StopsAtFirstError(t *testing.T) {
	t.Parallel()

	m := metadata.NewModel()
	customer, err := m.AddEntityType(metadata.Named("Customer"))
	require.NoError(t, err)
	b := customer.Builder().
		Property("ID", intType).
		HasKey("Missing").
		Property("Name", stringType)
	require.Error(t, b.Err())
	assert.ErrorIs(t, b.Err(), metamodel.ErrInvalid)
	assert.Nil(t, customer.FindProperty("Name"))
}

func TestEntityTypeBuilder_BaseTypeAndDetach(t *testing.T) {
	t.Parallel()

	m := metadata.NewModel()
	base, err := m.AddEntityType(metadata.Named("Customer"))
	require.NoError(t, err)
	derived, err := m.AddEntityType(metadata.Named("SpecialCustomer"))
	require.NoError(t, err)

	b := derived.Builder().HasBaseType(metadata.Named("Customer"))
	require.NoError(t, b.Err())
	assert.Same(t, base, derived.BaseType())

	b = derived.Builder().HasBaseType(metadata.Named("Nope"))
	assert.ErrorIs(t, b.Err(), metamodel.ErrInvalid)

	held := derived.Builder()
	_, err = m.RemoveEntityType(metadata.Named("SpecialCustomer"))
	require.NoError(t, err)
	assert.Nil(t, derived.Builder())
	assert.ErrorIs(t, held.Property("X", intType).Err(), metamodel.ErrDetached)
}

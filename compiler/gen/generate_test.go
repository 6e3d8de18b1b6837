package gen

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"regexp"
	"testing"

	"github.com/dave/jennifer/jen"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/syssam/metamodel/compiler/load"
	"github.com/syssam/metamodel/diagnostics"
	"github.com/syssam/metamodel/metadata"
)

const shop = `
change_tracking: changed_notifications
entities:
  - name: Customer
    properties:
      - {name: ID, type: int}
      - {name: Email, type: string}
      - {name: Ref, type: uuid}
    primary_key: [ID]
    owned:
      - navigation: Profile
        entity:
          name: Profile
          properties:
            - {name: Bio, type: string, nullable: true}
            - {name: Avatar, type: bytes, nullable: true}
  - name: SpecialCustomer
    base: Customer
    properties:
      - {name: Level, type: int8}
  - name: Order
    properties:
      - {name: ID, type: int}
      - {name: CustomerID, type: int}
      - {name: Placed, type: time}
      - {name: Note, type: string, nullable: true}
    primary_key: [ID]
    foreign_keys:
      - properties: [CustomerID]
        principal: Customer
    owned:
      - navigation: Lines
        entity:
          name: Line
          properties:
            - {name: OrderID, type: int}
            - {name: Number, type: int}
          primary_key: [OrderID, Number]
          foreign_keys:
            - properties: [OrderID]
              principal: Order
`

func shopModel(t *testing.T) *metadata.Model {
	t.Helper()
	doc, err := load.Parse([]byte(shop))
	require.NoError(t, err)
	m, err := load.Build(doc)
	require.NoError(t, err)
	return m
}

func readFile(t *testing.T, dir, name string) string {
	t.Helper()
	b, err := os.ReadFile(filepath.Join(dir, name))
	require.NoError(t, err)
	return string(b)
}

func assertField(t *testing.T, src, name, typ, tag string) {
	t.Helper()
	re := regexp.MustCompile(`(?m)^\s+` + name + `\s+` + regexp.QuoteMeta(typ) + `\s+` + regexp.QuoteMeta("`json:\""+tag+"\"`") + `$`)
	assert.Regexp(t, re, src)
}

func TestGenerate(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.DebugLevel)
	dir := t.TempDir()
	err := Generate(context.Background(), shopModel(t),
		WithTarget(dir),
		WithPackage("shop"),
		WithWorkers(2),
		WithLogger(diagnostics.New(zap.New(core))),
	)
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.Equal(t, []string{"customer.go", "order.go", "registry.go", "special_customer.go"}, names)

	t.Run("Customer", func(t *testing.T) {
		src := readFile(t, dir, "customer.go")
		assert.Contains(t, src, "// Code generated by metamodel. DO NOT EDIT.")
		assert.Contains(t, src, "package shop")
		assert.Contains(t, src, `"github.com/google/uuid"`)
		assertField(t, src, "ID", "int", "id")
		assertField(t, src, "Email", "string", "email")
		assertField(t, src, "Ref", "uuid.UUID", "ref")
		assertField(t, src, "Profile", "*CustomerProfile", "profile,omitempty")
		assert.Contains(t, src, "type CustomerProfile struct")
		assertField(t, src, "Bio", "*string", "bio,omitempty")
		assertField(t, src, "Avatar", "[]byte", "avatar,omitempty")
		assert.Contains(t, src, `func (Customer) PrimaryKey() []string {`)
		assert.Contains(t, src, `return []string{"ID"}`)
	})

	t.Run("Order", func(t *testing.T) {
		src := readFile(t, dir, "order.go")
		assert.Contains(t, src, `import "time"`)
		assertField(t, src, "CustomerID", "int", "customer_id")
		assertField(t, src, "Placed", "time.Time", "placed")
		assertField(t, src, "Note", "*string", "note,omitempty")
		assertField(t, src, "Lines", "[]*OrderLine", "lines,omitempty")
		assert.Contains(t, src, "// OrderLine is owned by Order through Lines.")
		assert.Contains(t, src, `return []string{"OrderID", "Number"}`)
	})

	t.Run("SpecialCustomer", func(t *testing.T) {
		src := readFile(t, dir, "special_customer.go")
		assert.Regexp(t, regexp.MustCompile(`(?m)^\s+Customer$`), src)
		assertField(t, src, "Level", "int8", "level")
		assert.NotContains(t, src, "PrimaryKey", "derived types inherit the method of their base")
	})

	t.Run("Registry", func(t *testing.T) {
		src := readFile(t, dir, RegistryFile)
		assert.Contains(t, src, `const ChangeTrackingStrategy = "changed_notifications"`)
		assert.Regexp(t, regexp.MustCompile(`(?s)"Customer",.*"Order",.*"Order.Lines#Line",`), src)
		assert.NotContains(t, src, "Cycles")
	})

	records := logs.FilterMessage("code generated").All()
	require.Len(t, records, 1)
	assert.Equal(t, int64(4), records[0].ContextMap()["files"])
	assert.Equal(t, dir, records[0].ContextMap()["target"])
}

func TestGenerate_Errors(t *testing.T) {
	t.Parallel()

	t.Run("NilModel", func(t *testing.T) {
		err := Generate(context.Background(), nil, WithTarget(t.TempDir()))
		assert.True(t, IsSchemaError(err))
	})

	t.Run("MissingTarget", func(t *testing.T) {
		err := Generate(context.Background(), metadata.NewModel())
		assert.True(t, IsConfigError(err))
	})

	t.Run("UnsupportedType", func(t *testing.T) {
		m := metadata.NewModel()
		et, err := m.AddEntityType(metadata.Named("Job"))
		require.NoError(t, err)
		_, err = et.AddProperty("Run", reflect.TypeFor[func()]())
		require.NoError(t, err)

		dir := t.TempDir()
		err = Generate(context.Background(), m, WithTarget(dir))
		require.Error(t, err)
		var se *SchemaError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, "Job", se.EntityType)
		assert.Equal(t, "Run", se.Property)
		assert.Equal(t, `gen: entity type "Job" property "Run": unsupported property type: type func() has no generated form`, se.Error())

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		assert.Empty(t, entries, "nothing is written when planning fails")
	})

	t.Run("StructNameCollision", func(t *testing.T) {
		m := metadata.NewModel()
		order, err := m.AddEntityType(metadata.Named("Order"))
		require.NoError(t, err)
		_, err = m.AddDelegatedIdentityEntityType(metadata.Named("Line"), "Lines", order)
		require.NoError(t, err)
		_, err = m.AddEntityType(metadata.Named("OrderLine"))
		require.NoError(t, err)

		err = Generate(context.Background(), m, WithTarget(t.TempDir()))
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidSchema)
		assert.True(t, IsCollisionError(err))
		assert.Equal(t, `gen: type OrderLine of entity type "OrderLine" collides with entity type "Order.Lines#Line"`, err.Error())
	})

	t.Run("Canceled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := Generate(ctx, shopModel(t), WithTarget(t.TempDir()), WithWorkers(1))
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestGenerate_Cycles(t *testing.T) {
	t.Parallel()

	m := metadata.NewModel()
	a, err := m.AddEntityType(metadata.Named("A"))
	require.NoError(t, err)
	b, err := m.AddEntityType(metadata.Named("B"))
	require.NoError(t, err)
	require.NoError(t, a.Builder().Property("ID", reflect.TypeFor[int]()).Property("BID", reflect.TypeFor[int]()).HasKey("ID").Err())
	require.NoError(t, b.Builder().Property("ID", reflect.TypeFor[int]()).Property("AID", reflect.TypeFor[int]()).HasKey("ID").Err())
	require.NoError(t, a.Builder().HasForeignKey(b, "BID").Err())
	require.NoError(t, b.Builder().HasForeignKey(a, "AID").Err())

	dir := t.TempDir()
	require.NoError(t, Generate(context.Background(), m, WithTarget(dir)))
	src := readFile(t, dir, RegistryFile)
	assert.Contains(t, src, "var Cycles = []string{")
	assert.Contains(t, src, `"A -> B (foreign_key)"`)
}

func TestGoType(t *testing.T) {
	tests := []struct {
		typ     reflect.Type
		want    string
		wantErr bool
	}{
		{reflect.TypeFor[int](), "int", false},
		{reflect.TypeFor[*int](), "*int", false},
		{reflect.TypeFor[[]byte](), "[]byte", false},
		{reflect.TypeFor[[]string](), "[]string", false},
		{reflect.TypeFor[[4]int](), "[4]int", false},
		{reflect.TypeFor[map[string]int](), "map[string]int", false},
		{reflect.TypeFor[any](), "any", false},
		{reflect.TypeFor[func()](), "", true},
		{reflect.TypeFor[chan int](), "", true},
		{reflect.TypeFor[error](), "error", false},
		{reflect.TypeFor[interface{ Close() error }](), "", true},
	}

	for _, tt := range tests {
		t.Run(tt.typ.String(), func(t *testing.T) {
			code, err := goType(tt.typ)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, codeString(code))
		})
	}
}

func codeString(c jen.Code) string {
	return fmt.Sprintf("%#v", c)
}

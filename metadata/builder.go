package metadata

import (
	"reflect"

	"github.com/syssam/metamodel"
)

// EntityTypeBuilder configures an entity type fluently. The first failing
// call is recorded and every later call becomes a no-op; check Err when done.
//
//	b := et.Builder().
//		Property("ID", reflect.TypeFor[int]()).
//		Property("Email", reflect.TypeFor[string]()).
//		HasKey("ID").
//		HasIndex("Email")
//	if err := b.Err(); err != nil {
//		return err
//	}
type EntityTypeBuilder struct {
	et  *EntityType
	err error
}

// Metadata returns the entity type being configured.
func (b *EntityTypeBuilder) Metadata() *EntityType { return b.et }

// Err returns the first error recorded by the builder.
func (b *EntityTypeBuilder) Err() error { return b.err }

func (b *EntityTypeBuilder) do(f func(*EntityType) error) *EntityTypeBuilder {
	if b.err != nil {
		return b
	}
	if b.et.state == Detached {
		b.err = metamodel.ErrDetached
		return b
	}
	b.err = f(b.et)
	return b
}

// Property adds the property when missing.
func (b *EntityTypeBuilder) Property(name string, typ reflect.Type) *EntityTypeBuilder {
	return b.do(func(e *EntityType) error {
		_, err := e.GetOrAddProperty(name, typ)
		return err
	})
}

// Nullable sets the nullability of the named properties.
func (b *EntityTypeBuilder) Nullable(nullable bool, names ...string) *EntityTypeBuilder {
	return b.do(func(e *EntityType) error {
		props, err := e.PropertiesByName(names...)
		if err != nil {
			return err
		}
		for _, p := range props {
			if err := p.SetNullable(nullable); err != nil {
				return err
			}
		}
		return nil
	})
}

// HasKey sets the primary key over the named properties.
func (b *EntityTypeBuilder) HasKey(names ...string) *EntityTypeBuilder {
	return b.do(func(e *EntityType) error {
		props, err := e.PropertiesByName(names...)
		if err != nil {
			return err
		}
		_, err = e.SetPrimaryKey(props...)
		return err
	})
}

// HasAlternateKey adds a key over the named properties.
func (b *EntityTypeBuilder) HasAlternateKey(names ...string) *EntityTypeBuilder {
	return b.do(func(e *EntityType) error {
		props, err := e.PropertiesByName(names...)
		if err != nil {
			return err
		}
		_, err = e.GetOrAddKey(props...)
		return err
	})
}

// HasIndex adds an index over the named properties.
func (b *EntityTypeBuilder) HasIndex(names ...string) *EntityTypeBuilder {
	return b.index(false, names)
}

// HasUniqueIndex adds a unique index over the named properties.
func (b *EntityTypeBuilder) HasUniqueIndex(names ...string) *EntityTypeBuilder {
	return b.index(true, names)
}

func (b *EntityTypeBuilder) index(unique bool, names []string) *EntityTypeBuilder {
	return b.do(func(e *EntityType) error {
		props, err := e.PropertiesByName(names...)
		if err != nil {
			return err
		}
		ix, err := e.GetOrAddIndex(props...)
		if err != nil {
			return err
		}
		return ix.SetUnique(unique)
	})
}

// HasBaseType sets the base type to the entity type registered under id.
func (b *EntityTypeBuilder) HasBaseType(id TypeIdentity) *EntityTypeBuilder {
	return b.do(func(e *EntityType) error {
		base := e.model.FindEntityType(id)
		if base == nil {
			return metamodel.NewInvalidMetadataError(e.DisplayName(), "base type %q not found", id.DisplayName())
		}
		return e.HasBaseType(base)
	})
}

// HasForeignKey adds a foreign key from the named properties to the primary
// key of principal.
func (b *EntityTypeBuilder) HasForeignKey(principal *EntityType, names ...string) *EntityTypeBuilder {
	return b.do(func(e *EntityType) error {
		if principal == nil {
			return metamodel.NewInvalidMetadataError(e.DisplayName(), "principal entity type cannot be nil")
		}
		pk := principal.PrimaryKey()
		if pk == nil {
			return metamodel.NewInvalidMetadataError(e.DisplayName(), "principal entity type %q has no primary key", principal.DisplayName())
		}
		props, err := e.PropertiesByName(names...)
		if err != nil {
			return err
		}
		_, err = e.GetOrAddForeignKey(props, pk, principal)
		return err
	})
}

// Owns adds a delegated-identity entity type reached through navigation and
// configures it with build.
func (b *EntityTypeBuilder) Owns(id TypeIdentity, navigation string, build func(*EntityTypeBuilder)) *EntityTypeBuilder {
	return b.do(func(e *EntityType) error {
		owned := e.model.findDelegated(id.Name(), navigation, e)
		if owned == nil {
			var err error
			if owned, err = e.model.AddDelegatedIdentityEntityType(id, navigation, e); err != nil {
				return err
			}
		}
		if build == nil {
			return nil
		}
		ob := owned.Builder()
		build(ob)
		return ob.err
	})
}

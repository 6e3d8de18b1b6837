package load

import (
	"fmt"

	"github.com/syssam/metamodel"
	"github.com/syssam/metamodel/metadata"
)

// Build creates a model from the document. Entity types, properties and
// owned entity types are added first, then base types, keys and indexes,
// and foreign keys last so that entities may reference each other in any
// order. opts are applied before the document's change tracking strategy.
func Build(doc *Document, opts ...metadata.Option) (*metadata.Model, error) {
	strategy, err := metamodel.ParseChangeTrackingStrategy(doc.ChangeTracking)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	m := metadata.NewModel(opts...)
	if doc.ChangeTracking != "" {
		if err := m.SetChangeTrackingStrategy(strategy); err != nil {
			return nil, err
		}
	}
	b := &builder{model: m, types: make(map[string]*metadata.EntityType)}
	for _, e := range doc.Entities {
		if err := b.addEntity(e, "", nil); err != nil {
			return nil, err
		}
	}
	for _, step := range []func(*Entity, *metadata.EntityType) error{b.setBase, b.addKeys, b.addForeignKeys} {
		for _, p := range b.order {
			if err := step(p.entity, p.et); err != nil {
				return nil, fmt.Errorf("load: entity %q: %w", p.et.DisplayName(), err)
			}
		}
	}
	source := doc.Source
	if source == "" {
		source = "document"
	}
	m.Logger().SchemaLoaded(source, len(b.order))
	return m, nil
}

type pair struct {
	entity *Entity
	et     *metadata.EntityType
}

type builder struct {
	model *metadata.Model
	// types indexes entity types by display name.
	types map[string]*metadata.EntityType
	order []pair
}

func (b *builder) addEntity(e *Entity, navigation string, owner *metadata.EntityType) error {
	if e == nil || e.Name == "" {
		return fmt.Errorf("load: entity without a name")
	}
	var (
		et  *metadata.EntityType
		err error
	)
	if owner == nil {
		et, err = b.model.AddEntityType(metadata.Named(e.Name))
	} else {
		if e.Base != "" {
			return fmt.Errorf("load: owned entity %q cannot declare a base type", e.Name)
		}
		et, err = b.model.AddDelegatedIdentityEntityType(metadata.Named(e.Name), navigation, owner)
	}
	if err != nil {
		return fmt.Errorf("load: %w", err)
	}
	eb := et.Builder()
	for _, p := range e.Properties {
		typ, err := TypeOf(p.Type)
		if err != nil {
			return fmt.Errorf("load: entity %q: property %q: %w", et.DisplayName(), p.Name, err)
		}
		eb.Property(p.Name, typ).Nullable(p.Nullable, p.Name)
	}
	if err := eb.Err(); err != nil {
		return fmt.Errorf("load: entity %q: %w", et.DisplayName(), err)
	}
	b.types[et.DisplayName()] = et
	b.order = append(b.order, pair{entity: e, et: et})
	for _, o := range e.Owned {
		if o == nil {
			continue
		}
		if err := b.addEntity(o.Entity, o.Navigation, et); err != nil {
			return err
		}
	}
	return nil
}

func (b *builder) lookup(name string) (*metadata.EntityType, error) {
	et, ok := b.types[name]
	if !ok {
		return nil, fmt.Errorf("entity %q not found", name)
	}
	return et, nil
}

func (b *builder) setBase(e *Entity, et *metadata.EntityType) error {
	if e.Base == "" {
		return nil
	}
	base, err := b.lookup(e.Base)
	if err != nil {
		return fmt.Errorf("base type: %w", err)
	}
	return et.HasBaseType(base)
}

func (b *builder) addKeys(e *Entity, et *metadata.EntityType) error {
	eb := et.Builder()
	if len(e.PrimaryKey) > 0 {
		eb.HasKey(e.PrimaryKey...)
	}
	for _, k := range e.Keys {
		eb.HasAlternateKey(k...)
	}
	for _, ix := range e.Indexes {
		if ix.Unique {
			eb.HasUniqueIndex(ix.Properties...)
		} else {
			eb.HasIndex(ix.Properties...)
		}
	}
	return eb.Err()
}

func (b *builder) addForeignKeys(e *Entity, et *metadata.EntityType) error {
	for _, fk := range e.ForeignKeys {
		principal, err := b.lookup(fk.Principal)
		if err != nil {
			return fmt.Errorf("foreign key %s: principal %w", metamodel.FormatProperties(fk.Properties), err)
		}
		key, err := principalKey(principal, fk.PrincipalKey)
		if err != nil {
			return fmt.Errorf("foreign key %s: %w", metamodel.FormatProperties(fk.Properties), err)
		}
		props, err := et.PropertiesByName(fk.Properties...)
		if err != nil {
			return err
		}
		if _, err := et.AddForeignKey(props, key, principal); err != nil {
			return err
		}
	}
	return nil
}

// principalKey finds the key over names declared on principal or one of its
// base types. No names selects the primary key.
func principalKey(principal *metadata.EntityType, names []string) (*metadata.Key, error) {
	if len(names) == 0 {
		if pk := principal.PrimaryKey(); pk != nil {
			return pk, nil
		}
		return nil, fmt.Errorf("principal %q has no primary key", principal.DisplayName())
	}
	props, err := principal.PropertiesByName(names...)
	if err != nil {
		return nil, err
	}
	for t := principal; t != nil; t = t.BaseType() {
		if k := t.FindKey(props...); k != nil {
			return k, nil
		}
	}
	return nil, fmt.Errorf("principal %q has no key %s", principal.DisplayName(), metamodel.FormatProperties(names))
}

package load

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/syssam/metamodel"
	"github.com/syssam/metamodel/metadata"
)

// Export describes the model as a document. Building the exported document
// yields a model that exports to an equal document. Entity types bound to Go
// types are exported under their short names.
func Export(m *metadata.Model) (*Document, error) {
	doc := &Document{}
	if s := m.ChangeTrackingStrategy(); s != metamodel.Snapshot {
		doc.ChangeTracking = s.String()
	}
	for _, et := range m.EntityTypes() {
		if et.IsDelegated() {
			continue
		}
		e, err := exportEntity(et)
		if err != nil {
			return nil, err
		}
		doc.Entities = append(doc.Entities, e)
	}
	slices.SortStableFunc(doc.Entities, func(a, b *Entity) int { return cmp.Compare(a.Name, b.Name) })
	return doc, nil
}

func exportEntity(et *metadata.EntityType) (*Entity, error) {
	e := &Entity{Name: et.ShortName()}
	if base := et.BaseType(); base != nil {
		e.Base = base.DisplayName()
	}
	for _, p := range et.Properties() {
		typ, err := TypeName(p.Type())
		if err != nil {
			return nil, fmt.Errorf("load: entity %q: property %q: %w", et.DisplayName(), p.Name(), err)
		}
		e.Properties = append(e.Properties, &Property{Name: p.Name(), Type: typ, Nullable: p.IsNullable()})
	}
	var pk *metadata.Key
	if et.BaseType() == nil {
		pk = et.PrimaryKey()
	}
	if pk != nil {
		e.PrimaryKey = pk.PropertyNames()
	}
	for _, k := range et.Keys() {
		if k != pk {
			e.Keys = append(e.Keys, k.PropertyNames())
		}
	}
	for _, ix := range et.Indexes() {
		e.Indexes = append(e.Indexes, &Index{Properties: ix.PropertyNames(), Unique: ix.IsUnique()})
	}
	for _, fk := range et.ForeignKeys() {
		d := &ForeignKey{
			Properties: fk.PropertyNames(),
			Principal:  fk.PrincipalEntityType().DisplayName(),
		}
		if !fk.PrincipalKey().IsPrimaryKey() {
			d.PrincipalKey = fk.PrincipalKey().PropertyNames()
		}
		e.ForeignKeys = append(e.ForeignKeys, d)
	}
	for _, o := range et.OwnedTypes() {
		oe, err := exportEntity(o)
		if err != nil {
			return nil, err
		}
		e.Owned = append(e.Owned, &Owned{Navigation: o.DefiningNavigation(), Entity: oe})
	}
	return e, nil
}

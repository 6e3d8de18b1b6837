// Package metamodel holds the error taxonomy and shared enums of the
// entity-metadata graph.
//
// The graph itself lives in the metadata package:
//
//	m := metadata.NewModel(metadata.WithConventions(metadata.DefaultConventions()))
//	customer, _ := m.AddEntityType(metadata.For[Customer]())
//	id, _ := customer.AddProperty("ID", reflect.TypeFor[int]())
//	key, _ := customer.SetPrimaryKey(id)
//
// Failures are typed. Each error type matches one of the sentinels below
// with errors.Is, and has an IsX helper:
//
//	if _, err := m.RemoveEntityType(metadata.Named("Customer")); metamodel.IsInUse(err) {
//	    // remove the referencing foreign keys first
//	}
package metamodel

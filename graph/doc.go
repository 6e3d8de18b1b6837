// Package graph analyzes the dependencies between the entity types of a
// metadata model.
//
// # Edges
//
// Every entity type is a vertex named by its display name. Edges point from
// the entity type that must exist first to the one depending on it:
//
//   - principal -> dependent, for every foreign key that is not self-referencing
//   - base -> derived, for every inheritance link
//   - owner -> owned, for every entity type with delegated identity
//
// # Order
//
// Analysis.Order lists entity types so that every entity type comes after the
// ones it depends on. Ties are broken by name, so the order is stable for a
// given model. Edges that would close a cycle are not added to the graph;
// they are reported in Analysis.Cycles instead.
//
//	a, err := graph.Analyze(m)
//	if err != nil {
//		return err
//	}
//	for _, name := range a.Order {
//		fmt.Println(name)
//	}
package graph

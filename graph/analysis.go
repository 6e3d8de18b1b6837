package graph

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/dominikbraun/graph"

	"github.com/syssam/metamodel/metadata"
)

// EdgeKind is the relationship an edge was derived from.
type EdgeKind string

// Edge kinds.
const (
	ForeignKey  EdgeKind = "foreign_key"
	Inheritance EdgeKind = "inheritance"
	Ownership   EdgeKind = "ownership"
)

const kindAttribute = "kind"

// Cycle is an edge left out of the graph because it would close a cycle.
type Cycle struct {
	From       string
	To         string
	Kind       EdgeKind
	Properties []string
}

// String implements fmt.Stringer.
func (c Cycle) String() string {
	return fmt.Sprintf("%s -> %s (%s)", c.From, c.To, c.Kind)
}

// Analysis is the dependency graph of a model.
type Analysis struct {
	// Order lists entity types after the ones they depend on.
	Order []string
	// Cycles lists the edges rejected to keep the graph acyclic.
	Cycles []Cycle

	graph        graph.Graph[string, string]
	adjacency    map[string]map[string]graph.Edge[string]
	predecessors map[string]map[string]graph.Edge[string]
}

// Analyze builds the dependency graph of m.
func Analyze(m *metadata.Model) (*Analysis, error) {
	if m == nil {
		return nil, fmt.Errorf("graph: model cannot be nil")
	}
	g := graph.New(graph.StringHash, graph.Directed(), graph.PreventCycles())
	ets := m.EntityTypes()
	for _, et := range ets {
		if err := g.AddVertex(et.DisplayName()); err != nil {
			return nil, fmt.Errorf("graph: add vertex %s: %w", et.DisplayName(), err)
		}
	}

	a := &Analysis{graph: g}
	for _, et := range ets {
		if base := et.BaseType(); base != nil {
			if err := a.addEdge(base.DisplayName(), et.DisplayName(), Inheritance, nil); err != nil {
				return nil, err
			}
		}
		if owner := et.DefiningEntityType(); owner != nil {
			if err := a.addEdge(owner.DisplayName(), et.DisplayName(), Ownership, nil); err != nil {
				return nil, err
			}
		}
	}
	for _, et := range ets {
		for _, fk := range et.ForeignKeys() {
			principal := fk.PrincipalEntityType().DisplayName()
			if principal == et.DisplayName() {
				continue
			}
			if err := a.addEdge(principal, et.DisplayName(), ForeignKey, fk.PropertyNames()); err != nil {
				return nil, err
			}
		}
	}

	order, err := graph.StableTopologicalSort(g, func(x, y string) bool { return x < y })
	if err != nil {
		return nil, fmt.Errorf("graph: topological sort: %w", err)
	}
	a.Order = order
	if a.adjacency, err = g.AdjacencyMap(); err != nil {
		return nil, fmt.Errorf("graph: adjacency map: %w", err)
	}
	if a.predecessors, err = g.PredecessorMap(); err != nil {
		return nil, fmt.Errorf("graph: predecessor map: %w", err)
	}
	return a, nil
}

func (a *Analysis) addEdge(from, to string, kind EdgeKind, props []string) error {
	err := a.graph.AddEdge(from, to, graph.EdgeAttribute(kindAttribute, string(kind)))
	switch {
	case err == nil, errors.Is(err, graph.ErrEdgeAlreadyExists):
		return nil
	case errors.Is(err, graph.ErrEdgeCreatesCycle):
		a.Cycles = append(a.Cycles, Cycle{From: from, To: to, Kind: kind, Properties: props})
		return nil
	default:
		return fmt.Errorf("graph: add edge %s -> %s: %w", from, to, err)
	}
}

// Dependents returns the entity types depending directly on name, sorted.
func (a *Analysis) Dependents(name string) ([]string, error) {
	return neighbours(a.adjacency, name)
}

// Dependencies returns the entity types name depends on directly, sorted.
func (a *Analysis) Dependencies(name string) ([]string, error) {
	return neighbours(a.predecessors, name)
}

// Kind returns the kind of the edge from -> to.
func (a *Analysis) Kind(from, to string) (EdgeKind, bool) {
	e, ok := a.adjacency[from][to]
	if !ok {
		return "", false
	}
	return EdgeKind(e.Properties.Attributes[kindAttribute]), true
}

// Roots returns the entity types without dependencies, sorted.
func (a *Analysis) Roots() []string {
	var roots []string
	for name, preds := range a.predecessors {
		if len(preds) == 0 {
			roots = append(roots, name)
		}
	}
	slices.Sort(roots)
	return roots
}

func neighbours(m map[string]map[string]graph.Edge[string], name string) ([]string, error) {
	edges, ok := m[name]
	if !ok {
		return nil, fmt.Errorf("graph: entity type %q: %w", name, graph.ErrVertexNotFound)
	}
	return slices.Sorted(maps.Keys(edges)), nil
}

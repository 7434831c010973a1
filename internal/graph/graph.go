// Package graph derives the service dependency graph from the registry
// and computes dependency-safe orderings over it. The graph is read-only
// after Build and safe to share across goroutines without locking.
package graph

import (
	"fmt"
	"sort"

	"nodestack/internal/errors"
	"nodestack/internal/registry"
)

// CycleError reports a dependency cycle detected during ordering. It is
// fatal for that ordering request; callers must not fall back to an
// arbitrary order.
type CycleError struct {
	// Member is a service on the detected cycle
	Member string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("dependency cycle detected through service %q", e.Member)
}

// ToStackError converts the cycle into the shared error taxonomy
func (e *CycleError) ToStackError() *errors.StackError {
	return errors.NewWithDetails(errors.ErrDependencyCycle, "Dependency cycle detected",
		fmt.Sprintf("Service: %s", e.Member))
}

// Graph holds forward and reverse dependency edges between services
type Graph struct {
	dependencies map[string]map[string]bool
	dependents   map[string]map[string]bool
}

// Build constructs the graph from the registry. Every declared dependency
// must reference a registered service; an edge to an unknown name is a
// configuration error and prevents the graph from being used at all.
func Build(reg *registry.Registry) (*Graph, error) {
	g := &Graph{
		dependencies: make(map[string]map[string]bool, reg.Len()),
		dependents:   make(map[string]map[string]bool, reg.Len()),
	}

	for _, svc := range reg.All() {
		g.dependencies[svc.Name] = make(map[string]bool, len(svc.Dependencies))
		if g.dependents[svc.Name] == nil {
			g.dependents[svc.Name] = map[string]bool{}
		}
	}

	for _, svc := range reg.All() {
		for _, dep := range svc.Dependencies {
			if !reg.Has(dep) {
				return nil, errors.UnknownDependency(svc.Name, dep)
			}
			g.dependencies[svc.Name][dep] = true
			g.dependents[dep][svc.Name] = true
		}
	}

	return g, nil
}

// DependenciesOf returns the services the named service requires. Unknown
// names yield an empty set: absence of a service must not crash a read path.
func (g *Graph) DependenciesOf(name string) []string {
	return sortedKeys(g.dependencies[name])
}

// DependentsOf returns the services that require the named service.
// Unknown names yield an empty set.
func (g *Graph) DependentsOf(name string) []string {
	return sortedKeys(g.dependents[name])
}

// visit states for the topological ordering
const (
	unvisited = iota
	inProgress
	done
)

// TopologicalOrder orders the given subset so that every service appears
// after all of its dependencies within the subset. Edges that leave the
// subset are ignored. A cycle inside the subset returns a CycleError.
func (g *Graph) TopologicalOrder(subset []string) ([]string, error) {
	included := make(map[string]bool, len(subset))
	for _, name := range subset {
		included[name] = true
	}

	// Sorted roots keep the output deterministic across runs
	roots := make([]string, len(subset))
	copy(roots, subset)
	sort.Strings(roots)

	state := make(map[string]int, len(subset))
	order := make([]string, 0, len(subset))

	var visit func(name string) error
	visit = func(name string) error {
		switch state[name] {
		case done:
			return nil
		case inProgress:
			// The node is on its own ancestor chain
			return &CycleError{Member: name}
		}

		state[name] = inProgress
		for _, dep := range g.DependenciesOf(name) {
			if !included[dep] {
				continue
			}
			if err := visit(dep); err != nil {
				return err
			}
		}
		state[name] = done
		order = append(order, name)
		return nil
	}

	for _, name := range roots {
		if err := visit(name); err != nil {
			return nil, err
		}
	}

	return order, nil
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for key := range set {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

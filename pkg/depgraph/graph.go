// Package depgraph builds and evaluates the directed graph of control
// visibility dependencies. Each edge reads "dependent observes controlling";
// the graph is checked for cycles once, when the build phase closes, and is
// immutable afterwards.
package depgraph

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-wizard/pkg/model"
	"github.com/goliatone/go-wizard/pkg/rules"
)

// CyclicDependencyError names the controls participating in a dependency
// cycle. It is a build-time-only failure.
type CyclicDependencyError struct {
	Cycle []string
}

func (e *CyclicDependencyError) Error() string {
	return fmt.Sprintf("depgraph: dependency cycle: %s", strings.Join(e.Cycle, " -> "))
}

// UnknownControlError reports a dependency expression referencing a control
// that does not exist in scope.
type UnknownControlError struct {
	Control string // the dependent control's path
	Ref     string // the unresolved reference
}

func (e *UnknownControlError) Error() string {
	return fmt.Sprintf("depgraph: control %q references unknown control %q", e.Control, e.Ref)
}

// ExpressionError wraps a dependency expression that failed to compile.
type ExpressionError struct {
	Control string
	Rule    string
	Err     error
}

func (e *ExpressionError) Error() string {
	return fmt.Sprintf("depgraph: control %q: bad expression %q: %v", e.Control, e.Rule, e.Err)
}

func (e *ExpressionError) Unwrap() error { return e.Err }

// Graph is the resolved dependency graph over canonical "step.control" paths.
type Graph struct {
	nodes      []string
	preds      map[string]rules.Predicate
	dependents map[string][]string
	rank       map[string]int
}

// Build compiles every control's dependency expression, resolves bare control
// names against scope, and verifies acyclicity. Steps must already be in
// display order. Reference resolution for an unqualified name searches the
// dependent's own step first, then earlier steps nearest-first; qualified
// "step.control" references resolve anywhere.
func Build(steps []model.Step) (*Graph, error) {
	g := &Graph{
		preds:      make(map[string]rules.Predicate),
		dependents: make(map[string][]string),
		rank:       make(map[string]int),
	}

	index := make(map[string]struct{})
	for _, step := range steps {
		for _, control := range step.Controls {
			path := model.Path(step.Name, control.Name)
			g.nodes = append(g.nodes, path)
			index[path] = struct{}{}
		}
	}

	edges := make(map[string][]string) // dependent -> controlling
	for stepIdx, step := range steps {
		for _, control := range step.Controls {
			if control.When == "" {
				continue
			}
			path := model.Path(step.Name, control.Name)
			pred, err := rules.Parse(control.When)
			if err != nil {
				return nil, &ExpressionError{Control: path, Rule: control.When, Err: err}
			}
			if pred == nil {
				continue
			}
			resolved, err := rules.RewriteRefs(pred, func(ref string) (string, error) {
				target, err := resolveRef(steps, stepIdx, ref, index)
				if err != nil {
					return "", &UnknownControlError{Control: path, Ref: ref}
				}
				return target, nil
			})
			if err != nil {
				return nil, err
			}
			g.preds[path] = resolved
			for _, controlling := range rules.References(resolved) {
				edges[path] = append(edges[path], controlling)
				g.dependents[controlling] = append(g.dependents[controlling], path)
			}
		}
	}

	if err := g.check(edges); err != nil {
		return nil, err
	}
	return g, nil
}

func resolveRef(steps []model.Step, fromStep int, ref string, index map[string]struct{}) (string, error) {
	if _, ok := index[ref]; ok {
		// Already step-qualified.
		return ref, nil
	}
	// Own step first, then earlier steps nearest-first.
	for i := fromStep; i >= 0; i-- {
		candidate := model.Path(steps[i].Name, ref)
		if _, ok := index[candidate]; ok {
			return candidate, nil
		}
	}
	// Forward references are legal for same-step chains declared out of
	// order and for later steps; the cycle check still guards correctness.
	for i := fromStep + 1; i < len(steps); i++ {
		candidate := model.Path(steps[i].Name, ref)
		if _, ok := index[candidate]; ok {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("depgraph: unresolved reference %q", ref)
}

// check runs cycle detection and assigns topological ranks in one DFS pass.
func (g *Graph) check(edges map[string][]string) error {
	const (
		white = 0
		grey  = 1
		black = 2
	)
	color := make(map[string]int, len(g.nodes))
	next := 0

	var stack []string
	var visit func(node string) *CyclicDependencyError
	visit = func(node string) *CyclicDependencyError {
		color[node] = grey
		stack = append(stack, node)
		for _, controlling := range edges[node] {
			switch color[controlling] {
			case grey:
				// Trim the stack to the cycle members.
				start := 0
				for i, name := range stack {
					if name == controlling {
						start = i
						break
					}
				}
				cycle := append(append([]string(nil), stack[start:]...), controlling)
				return &CyclicDependencyError{Cycle: cycle}
			case white:
				if err := visit(controlling); err != nil {
					return err
				}
			}
		}
		stack = stack[:len(stack)-1]
		color[node] = black
		g.rank[node] = next
		next++
		return nil
	}

	for _, node := range g.nodes {
		if color[node] == white {
			if err := visit(node); err != nil {
				return err
			}
		}
	}
	return nil
}

// Predicate returns the resolved visibility predicate for a control path, or
// nil when the control is unconditionally visible.
func (g *Graph) Predicate(path string) rules.Predicate {
	return g.preds[path]
}

// Dependents returns the controls directly observing the given path, in
// declaration order.
func (g *Graph) Dependents(path string) []string {
	return g.dependents[path]
}

// Affected returns every control transitively observing the given path,
// ordered so that each control appears after all controls it reads. This is
// the recomputation order after a value change.
func (g *Graph) Affected(path string) []string {
	seen := map[string]struct{}{path: {}}
	var out []string
	var walk func(node string)
	walk = func(node string) {
		for _, dep := range g.dependents[node] {
			if _, ok := seen[dep]; ok {
				continue
			}
			seen[dep] = struct{}{}
			out = append(out, dep)
			walk(dep)
		}
	}
	walk(path)
	sortByRank(out, g.rank)
	return out
}

// Conditional returns every control carrying a predicate, in dependency
// order. The session walks this list to seed initial visibility.
func (g *Graph) Conditional() []string {
	out := make([]string, 0, len(g.preds))
	for _, node := range g.nodes {
		if _, ok := g.preds[node]; ok {
			out = append(out, node)
		}
	}
	sortByRank(out, g.rank)
	return out
}

// sortByRank orders paths by ascending topological rank. DFS assigns ranks
// postorder along read-edges, so a controlling control always ranks below the
// controls that observe it and is recomputed first.
func sortByRank(paths []string, rank map[string]int) {
	for i := 1; i < len(paths); i++ {
		for j := i; j > 0 && rank[paths[j-1]] > rank[paths[j]]; j-- {
			paths[j-1], paths[j] = paths[j], paths[j-1]
		}
	}
}

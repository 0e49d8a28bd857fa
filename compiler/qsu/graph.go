package qsu

import (
	"reflect"
	"slices"

	"go.uber.org/multierr"

	"github.com/romanowski/quasar/compiler/names"
	"github.com/romanowski/quasar/compiler/planerr"
)

// Graph is a symbol-indexed DAG view of a QScript plan under rewriting.
// Invariants: every symbol referenced by any vertex is present, the graph
// is acyclic, and the root reaches every vertex that matters.  Fresh
// symbols come only from the names.Generator threaded through the passes.
type Graph struct {
	Vertices map[names.Symbol]Vertex
	Root     names.Symbol
}

func New() *Graph {
	return &Graph{Vertices: make(map[names.Symbol]Vertex)}
}

// Install allocates a fresh symbol for v, inserts it, and returns the
// symbol.  The root is unchanged unless the graph was empty.
func (g *Graph) Install(gen *names.Generator, v Vertex) names.Symbol {
	sym := gen.Fresh()
	g.Vertices[sym] = v
	if g.Root == "" {
		g.Root = sym
	}
	return sym
}

// Vertex returns the vertex named by sym.
func (g *Graph) Vertex(sym names.Symbol) (Vertex, error) {
	v, ok := g.Vertices[sym]
	if !ok {
		return nil, planerr.E(planerr.UnresolvedReference, sym)
	}
	return v, nil
}

// Merge unions o's vertices into g.  Coincident symbols must name
// identical vertices; a conflicting duplicate is an internal error since
// symbols have a single minting authority.
func (g *Graph) Merge(o *Graph) error {
	for sym, v := range o.Vertices {
		if prev, ok := g.Vertices[sym]; ok && !reflect.DeepEqual(prev, v) {
			return planerr.E(planerr.Internal, sym, "merge of conflicting vertices")
		}
		g.Vertices[sym] = v
	}
	return nil
}

// OverwriteAtRoot replaces the root's vertex, leaving every other vertex
// and edge unchanged.
func (g *Graph) OverwriteAtRoot(v Vertex) {
	g.Vertices[g.Root] = v
}

// Postorder returns the symbols reachable from the root, children before
// parents, detecting cycles.
func (g *Graph) Postorder() ([]names.Symbol, error) {
	var out []names.Symbol
	state := make(map[names.Symbol]int) // 1 on stack, 2 done
	var visit func(sym names.Symbol) error
	visit = func(sym names.Symbol) error {
		switch state[sym] {
		case 1:
			return planerr.E(planerr.Internal, sym, "cycle in graph")
		case 2:
			return nil
		}
		state[sym] = 1
		v, err := g.Vertex(sym)
		if err != nil {
			return err
		}
		for _, src := range Sources(v) {
			if err := visit(src); err != nil {
				return err
			}
		}
		state[sym] = 2
		out = append(out, sym)
		return nil
	}
	if err := visit(g.Root); err != nil {
		return nil, err
	}
	return out, nil
}

// RewriteM applies f to every reachable vertex bottom-up.  When f returns
// a non-nil vertex, it replaces the focus; a nil vertex leaves the focus
// unchanged.  f may install fresh vertices as it runs.  Termination is
// guaranteed by acyclicity.
func (g *Graph) RewriteM(f func(names.Symbol, Vertex) (Vertex, error)) error {
	order, err := g.Postorder()
	if err != nil {
		return err
	}
	for _, sym := range order {
		v, err := g.Vertex(sym)
		if err != nil {
			return err
		}
		rewritten, err := f(sym, v)
		if err != nil {
			return err
		}
		if rewritten != nil {
			g.Vertices[sym] = rewritten
		}
	}
	return nil
}

// RevIdx maps each symbol to the symbols whose vertices reference it.
type RevIdx map[names.Symbol][]names.Symbol

// ReverseIndex builds the reverse adjacency of the whole vertex map.
// Referrer lists are sorted so iteration is deterministic.
func (g *Graph) ReverseIndex() RevIdx {
	idx := make(RevIdx)
	for sym, v := range g.Vertices {
		for _, src := range Sources(v) {
			idx[src] = append(idx[src], sym)
		}
	}
	for _, referrers := range idx {
		slices.Sort(referrers)
	}
	return idx
}

// Reachable returns the set of symbols reachable from the root.
func (g *Graph) Reachable() (map[names.Symbol]bool, error) {
	order, err := g.Postorder()
	if err != nil {
		return nil, err
	}
	set := make(map[names.Symbol]bool, len(order))
	for _, sym := range order {
		set[sym] = true
	}
	return set, nil
}

// Verify checks the graph invariants: the root is present, no vertex
// references an absent symbol, and there are no cycles.  Missing-symbol
// violations are reported together; the cycle check runs only when there
// are none, and reports the first cycle it meets.
func (g *Graph) Verify() error {
	var errs error
	if _, ok := g.Vertices[g.Root]; !ok {
		errs = multierr.Append(errs, planerr.E(planerr.UnresolvedReference, g.Root, "missing root"))
	}
	for sym, v := range g.Vertices {
		for _, src := range Sources(v) {
			if _, ok := g.Vertices[src]; !ok {
				errs = multierr.Append(errs, planerr.E(planerr.UnresolvedReference, sym, "dangling reference to %s", src))
			}
		}
	}
	if errs != nil {
		return errs
	}
	if _, err := g.Postorder(); err != nil {
		errs = multierr.Append(errs, err)
	}
	return errs
}

// Copy returns a graph with its own vertex map.  The vertices themselves,
// with their expressions and branches, are shared with g; passes treat
// them as immutable and replace rather than mutate.
func (g *Graph) Copy() *Graph {
	vertices := make(map[names.Symbol]Vertex, len(g.Vertices))
	for sym, v := range g.Vertices {
		vertices[sym] = v
	}
	return &Graph{Vertices: vertices, Root: g.Root}
}

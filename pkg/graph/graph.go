package graph

import (
	"errors"
	"maps"
	"slices"
)

var (
	// ErrNegativeNode is returned by [Graph.AddNode] and [Graph.AddEdge] when
	// a node index is negative. Qubit indices are always non-negative.
	ErrNegativeNode = errors.New("node index must not be negative")

	// ErrSelfLoop is returned by [Graph.AddEdge] when both endpoints are the
	// same node. Coupling and interaction graphs are simple graphs.
	ErrSelfLoop = errors.New("self-loop not allowed")

	// ErrUnknownNode is returned by [Graph.RemoveNode] when the node does not
	// exist.
	ErrUnknownNode = errors.New("unknown node")
)

// Edge is an unordered pair of node indices. Edges produced by this package
// are always normalized so that A < B.
type Edge struct {
	A int `json:"a" toml:"a" bson:"a"`
	B int `json:"b" toml:"b" bson:"b"`
}

// NewEdge returns the normalized edge between u and v.
func NewEdge(u, v int) Edge {
	if u > v {
		u, v = v, u
	}
	return Edge{A: u, B: v}
}

// Compare orders edges lexicographically by (A, B). It is suitable for
// [slices.SortFunc].
func (e Edge) Compare(o Edge) int {
	if e.A != o.A {
		return e.A - o.A
	}
	return e.B - o.B
}

// Graph is an undirected simple graph over non-negative integer node indices.
// It represents both the interaction graph of a circuit and the connectivity
// graph of a device.
//
// Adding an edge implicitly adds its endpoints. Parallel edges collapse into
// one. The zero value is not usable; call [New].
//
// Graph is not safe for concurrent mutation. Concurrent reads of a graph that
// is no longer being modified are safe, which is how device graphs are shared
// across ranking workers.
type Graph struct {
	adj   map[int]map[int]struct{}
	edges int
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{adj: make(map[int]map[int]struct{})}
}

// FromEdges builds a graph from an edge list plus any extra isolated nodes.
// It returns the first error encountered while adding.
func FromEdges(edges []Edge, nodes ...int) (*Graph, error) {
	g := New()
	for _, n := range nodes {
		if err := g.AddNode(n); err != nil {
			return nil, err
		}
	}
	for _, e := range edges {
		if _, err := g.AddEdge(e.A, e.B); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// AddNode adds n to the graph. Adding an existing node is a no-op.
func (g *Graph) AddNode(n int) error {
	if n < 0 {
		return ErrNegativeNode
	}
	if _, ok := g.adj[n]; !ok {
		g.adj[n] = make(map[int]struct{})
	}
	return nil
}

// AddEdge adds the undirected edge u-v, creating missing endpoints.
// It reports whether a new edge was created; re-adding an existing edge
// returns false and no error.
func (g *Graph) AddEdge(u, v int) (bool, error) {
	if u < 0 || v < 0 {
		return false, ErrNegativeNode
	}
	if u == v {
		return false, ErrSelfLoop
	}
	_ = g.AddNode(u)
	_ = g.AddNode(v)
	if _, ok := g.adj[u][v]; ok {
		return false, nil
	}
	g.adj[u][v] = struct{}{}
	g.adj[v][u] = struct{}{}
	g.edges++
	return true, nil
}

// RemoveNode deletes n and all of its incident edges.
func (g *Graph) RemoveNode(n int) error {
	nbrs, ok := g.adj[n]
	if !ok {
		return ErrUnknownNode
	}
	for m := range nbrs {
		delete(g.adj[m], n)
		g.edges--
	}
	delete(g.adj, n)
	return nil
}

// HasNode reports whether n is in the graph.
func (g *Graph) HasNode(n int) bool {
	_, ok := g.adj[n]
	return ok
}

// HasEdge reports whether u and v are adjacent.
func (g *Graph) HasEdge(u, v int) bool {
	_, ok := g.adj[u][v]
	return ok
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int { return len(g.adj) }

// EdgeCount returns the number of undirected edges.
func (g *Graph) EdgeCount() int { return g.edges }

// Degree returns the number of neighbors of n, or 0 if n is unknown.
func (g *Graph) Degree(n int) int { return len(g.adj[n]) }

// Nodes returns all node indices in ascending order.
func (g *Graph) Nodes() []int {
	return slices.Sorted(maps.Keys(g.adj))
}

// Neighbors returns the neighbors of n in ascending order.
// Returns nil if n has no neighbors or does not exist.
func (g *Graph) Neighbors(n int) []int {
	if len(g.adj[n]) == 0 {
		return nil
	}
	return slices.Sorted(maps.Keys(g.adj[n]))
}

// Edges returns every edge once, normalized and sorted by (A, B).
func (g *Graph) Edges() []Edge {
	edges := make([]Edge, 0, g.edges)
	for u, nbrs := range g.adj {
		for v := range nbrs {
			if u < v {
				edges = append(edges, Edge{A: u, B: v})
			}
		}
	}
	slices.SortFunc(edges, Edge.Compare)
	return edges
}

// Clone returns a deep copy of the graph.
func (g *Graph) Clone() *Graph {
	out := &Graph{adj: make(map[int]map[int]struct{}, len(g.adj)), edges: g.edges}
	for n, nbrs := range g.adj {
		out.adj[n] = maps.Clone(nbrs)
	}
	return out
}

// Induced returns the subgraph induced by nodes. Unknown nodes are ignored.
func (g *Graph) Induced(nodes []int) *Graph {
	keep := make(map[int]bool, len(nodes))
	out := New()
	for _, n := range nodes {
		if g.HasNode(n) {
			keep[n] = true
			_ = out.AddNode(n)
		}
	}
	for n := range keep {
		for m := range g.adj[n] {
			if keep[m] && n < m {
				_, _ = out.AddEdge(n, m)
			}
		}
	}
	return out
}

// Relabel returns a copy of the graph with every node n renamed to f(n).
// The caller must ensure f is injective over the node set.
func (g *Graph) Relabel(f func(int) int) *Graph {
	out := New()
	for n := range g.adj {
		_ = out.AddNode(f(n))
	}
	for _, e := range g.Edges() {
		_, _ = out.AddEdge(f(e.A), f(e.B))
	}
	return out
}

// Equal reports whether g and o have identical node and edge sets.
func (g *Graph) Equal(o *Graph) bool {
	if g.NodeCount() != o.NodeCount() || g.EdgeCount() != o.EdgeCount() {
		return false
	}
	for n, nbrs := range g.adj {
		onbrs, ok := o.adj[n]
		if !ok || len(onbrs) != len(nbrs) {
			return false
		}
		for m := range nbrs {
			if _, ok := onbrs[m]; !ok {
				return false
			}
		}
	}
	return true
}

// MaxDegree returns the largest node degree, or 0 for an empty graph.
func (g *Graph) MaxDegree() int {
	best := 0
	for _, nbrs := range g.adj {
		best = max(best, len(nbrs))
	}
	return best
}

// Components returns the connected components, each sorted ascending, ordered
// by their smallest node.
func (g *Graph) Components() [][]int {
	seen := make(map[int]bool, len(g.adj))
	var comps [][]int
	for _, start := range g.Nodes() {
		if seen[start] {
			continue
		}
		var comp []int
		stack := []int{start}
		seen[start] = true
		for len(stack) > 0 {
			n := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			comp = append(comp, n)
			for m := range g.adj[n] {
				if !seen[m] {
					seen[m] = true
					stack = append(stack, m)
				}
			}
		}
		slices.Sort(comp)
		comps = append(comps, comp)
	}
	return comps
}

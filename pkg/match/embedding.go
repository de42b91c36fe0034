package match

import (
	"slices"

	"github.com/matzehuels/qmap/pkg/graph"
	"github.com/matzehuels/qmap/pkg/match/perm"
)

// Embedding is an injective placement of pattern nodes onto target nodes.
//
// Logical lists the pattern nodes in ascending order and Physical[i] is the
// target node hosting Logical[i]. For a deflated circuit Logical is
// 0..n-1, so Physical is directly the layout: position = logical qubit.
type Embedding struct {
	Logical  []int `json:"logical"`
	Physical []int `json:"physical"`
}

// Layout returns a copy of the physical qubit sequence.
func (e Embedding) Layout() []int { return slices.Clone(e.Physical) }

// Len returns the number of placed nodes.
func (e Embedding) Len() int { return len(e.Logical) }

// PhysicalOf returns the target node hosting pattern node l.
func (e Embedding) PhysicalOf(l int) (int, bool) {
	i, ok := slices.BinarySearch(e.Logical, l)
	if !ok {
		return 0, false
	}
	return e.Physical[i], true
}

// Map returns the placement as a pattern node → target node map.
func (e Embedding) Map() map[int]int {
	m := make(map[int]int, len(e.Logical))
	for i, l := range e.Logical {
		m[l] = e.Physical[i]
	}
	return m
}

// Valid reports whether e places every node of pattern on a distinct node of
// target and maps every pattern edge onto a target edge.
func (e Embedding) Valid(pattern, target *graph.Graph) bool {
	if len(e.Logical) != len(e.Physical) || !slices.Equal(e.Logical, pattern.Nodes()) {
		return false
	}
	used := make(map[int]bool, len(e.Physical))
	for _, p := range e.Physical {
		if used[p] || !target.HasNode(p) {
			return false
		}
		used[p] = true
	}
	for _, edge := range pattern.Edges() {
		a, _ := e.PhysicalOf(edge.A)
		b, _ := e.PhysicalOf(edge.B)
		if !target.HasEdge(a, b) {
			return false
		}
	}
	return true
}

// FromLayout builds an embedding for a pattern whose nodes are 0..len-1,
// which is the case for any deflated circuit.
func FromLayout(layout []int) Embedding {
	return Embedding{Logical: perm.Seq(len(layout)), Physical: slices.Clone(layout)}
}

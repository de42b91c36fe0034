// Package interaction derives the qubit interaction graph of a circuit.
//
// The interaction graph has one node per active qubit and one edge per pair
// of qubits joined by at least one two-qubit operation. It is the pattern
// the matcher embeds into device connectivity graphs. Operations on one
// qubit, or on three or more, contribute nodes only: they place no
// constraint on the coupling map.
package interaction

import (
	"slices"

	"github.com/matzehuels/qmap/pkg/circuit"
	"github.com/matzehuels/qmap/pkg/graph"
)

// Graph is the interaction graph of one circuit snapshot, together with the
// operation counts the cost model needs.
type Graph struct {
	*graph.Graph

	// Measured counts measurements per logical qubit.
	Measured map[int]int
	// SingleOps counts single-qubit gates per logical qubit. Measurements and
	// resets are not gates.
	SingleOps map[int]int
	// EdgeOps counts two-qubit operations per interaction edge.
	EdgeOps map[graph.Edge]int
}

func newGraph() *Graph {
	return &Graph{
		Graph:     graph.New(),
		Measured:  make(map[int]int),
		SingleOps: make(map[int]int),
		EdgeOps:   make(map[graph.Edge]int),
	}
}

// Extract builds the interaction graph of c.
//
// Barriers and delays are skipped entirely. A reset adds its qubit as a node
// without counting as a gate. An operation whose arity
// cannot be classified (repeated or out-of-range qubit, empty name) yields an
// UNSUPPORTED_OPERATION error. A circuit without qubits or operations yields
// an empty graph.
func Extract(c *circuit.Circuit) (*Graph, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	g := newGraph()
	for _, op := range c.Ops {
		if op.IsDirective() {
			continue
		}
		for _, q := range op.Qubits {
			_ = g.AddNode(q)
		}
		switch {
		case op.IsReset():
		case op.IsMeasure():
			for _, q := range op.Qubits {
				g.Measured[q]++
			}
		case len(op.Qubits) == 1:
			g.SingleOps[op.Qubits[0]]++
		case len(op.Qubits) == 2:
			u, v := op.Qubits[0], op.Qubits[1]
			_, _ = g.AddEdge(u, v)
			g.EdgeOps[graph.NewEdge(u, v)]++
		}
	}
	return g, nil
}

// MeasuredQubits returns the measured logical qubits in ascending order.
func (g *Graph) MeasuredQubits() []int {
	out := make([]int, 0, len(g.Measured))
	for q, n := range g.Measured {
		if n > 0 {
			out = append(out, q)
		}
	}
	slices.Sort(out)
	return out
}

// Relabel returns a copy of g with every logical qubit q renamed to f(q).
// f must be injective over the graph's nodes.
func (g *Graph) Relabel(f func(int) int) *Graph {
	out := &Graph{
		Graph:     g.Graph.Relabel(f),
		Measured:  make(map[int]int, len(g.Measured)),
		SingleOps: make(map[int]int, len(g.SingleOps)),
		EdgeOps:   make(map[graph.Edge]int, len(g.EdgeOps)),
	}
	for q, n := range g.Measured {
		out.Measured[f(q)] = n
	}
	for q, n := range g.SingleOps {
		out.SingleOps[f(q)] = n
	}
	for e, n := range g.EdgeOps {
		out.EdgeOps[graph.NewEdge(f(e.A), f(e.B))] = n
	}
	return out
}

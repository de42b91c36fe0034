// Package cost scores embeddings against a device error model.
//
// The cost of a placement is the probability that at least one of the
// resources it uses fails:
//
//	cost = 1 - ∏ (1 - eᵢ)
//
// By default the factors are one two-qubit error per interaction edge, taken
// at the physical coupling the edge lands on, and one readout error per
// measured logical qubit. Single-qubit gate errors are usually negligible
// next to those and are only included with [Options.IncludeSingleQubit].
//
// A resource with no calibration entry counts as certain failure, so the
// placement scores 1 and sorts last without aborting the ranking.
package cost

import (
	"cmp"
	"math"
	"slices"

	"github.com/matzehuels/qmap/pkg/device"
	"github.com/matzehuels/qmap/pkg/graph"
	"github.com/matzehuels/qmap/pkg/interaction"
	"github.com/matzehuels/qmap/pkg/match"
)

// Options selects which factors enter the product.
type Options struct {
	// IncludeSingleQubit adds one single-gate error per logical qubit that
	// carries at least one single-qubit operation.
	IncludeSingleQubit bool
	// PerOperation raises every factor to the number of operations on its
	// resource instead of counting each resource once.
	PerOperation bool
}

// Kind identifies the resource a term is charged for.
type Kind string

// Term kinds.
const (
	KindTwoQubit   Kind = "cx"
	KindReadout    Kind = "readout"
	KindSingleGate Kind = "gate"
)

// Term is one factor of the product.
type Term struct {
	Kind     Kind    `json:"kind"`
	Logical  []int   `json:"logical"`
	Physical []int   `json:"physical"`
	Error    float64 `json:"error"`
	Count    int     `json:"count"`
	// Missing is set when the device has no calibration for the resource.
	Missing bool `json:"missing,omitempty"`
}

// Evaluator scores embeddings. It is stateless and safe for concurrent use.
type Evaluator struct {
	opts Options
}

// New creates an evaluator.
func New(opts Options) *Evaluator {
	return &Evaluator{opts: opts}
}

// Options returns the evaluator's configuration.
func (ev *Evaluator) Options() Options { return ev.opts }

// Score evaluates one embedding with default options.
func Score(e match.Embedding, ig *interaction.Graph, cal device.Calibration) float64 {
	return New(Options{}).Score(e, ig, cal)
}

// Score returns the cost of e on a device with calibration cal. The result
// lies in [0, 1] and depends only on its inputs.
func (ev *Evaluator) Score(e match.Embedding, ig *interaction.Graph, cal device.Calibration) float64 {
	return FromTerms(ev.Terms(e, ig, cal))
}

// FromTerms combines terms into a cost.
func FromTerms(terms []Term) float64 {
	fidelity := 1.0
	for _, t := range terms {
		fidelity *= math.Pow(1-t.Error, float64(t.Count))
	}
	return clamp(1 - fidelity)
}

// Terms lists the factors of the cost of e in a fixed order: couplings by
// logical edge, then readouts and single-gate errors by logical qubit.
func (ev *Evaluator) Terms(e match.Embedding, ig *interaction.Graph, cal device.Calibration) []Term {
	var terms []Term

	for _, edge := range ig.Edges() {
		t := Term{Kind: KindTwoQubit, Logical: []int{edge.A, edge.B}, Count: ev.count(ig.EdgeOps[edge])}
		a, okA := e.PhysicalOf(edge.A)
		b, okB := e.PhysicalOf(edge.B)
		if okA && okB {
			t.Physical = []int{a, b}
			t.Error, t.Missing = rate(cal.TwoQubitError(a, b))
		} else {
			t.Error, t.Missing = 1, true
		}
		terms = append(terms, t)
	}

	for _, q := range ig.MeasuredQubits() {
		terms = append(terms, ev.qubitTerm(KindReadout, e, q, ig.Measured[q], cal.ReadoutError))
	}

	if ev.opts.IncludeSingleQubit {
		for _, q := range ig.Nodes() {
			if n := ig.SingleOps[q]; n > 0 {
				terms = append(terms, ev.qubitTerm(KindSingleGate, e, q, n, cal.SingleGateError))
			}
		}
	}
	return terms
}

func (ev *Evaluator) qubitTerm(kind Kind, e match.Embedding, q, ops int, lookup func(int) (float64, bool)) Term {
	t := Term{Kind: kind, Logical: []int{q}, Count: ev.count(ops)}
	p, ok := e.PhysicalOf(q)
	if !ok {
		t.Error, t.Missing = 1, true
		return t
	}
	t.Physical = []int{p}
	t.Error, t.Missing = rate(lookup(p))
	return t
}

func (ev *Evaluator) count(ops int) int {
	if ev.opts.PerOperation && ops > 1 {
		return ops
	}
	return 1
}

// rate maps a calibration lookup to an error in [0, 1]. Missing and NaN
// entries are maximal.
func rate(e float64, ok bool) (float64, bool) {
	if !ok {
		return 1, true
	}
	if math.IsNaN(e) {
		return 1, false
	}
	return clamp(e), false
}

func clamp(x float64) float64 {
	return min(max(x, 0), 1)
}

// Labels returns matcher labels under which two placements on the same image
// are duplicates only if this evaluator scores them identically. Pass them as
// [match.Options.NodeLabel] and [match.Options.EdgeLabel].
func (ev *Evaluator) Labels(ig *interaction.Graph) (func(int) int, func(graph.Edge) int) {
	type signature struct{ measured, single int }
	sig := func(q int) signature {
		s := signature{measured: min(ig.Measured[q], 1)}
		if ev.opts.PerOperation {
			s.measured = ig.Measured[q]
		}
		if ev.opts.IncludeSingleQubit {
			s.single = ev.count(ig.SingleOps[q])
			if ig.SingleOps[q] == 0 {
				s.single = 0
			}
		}
		return s
	}

	var sigs []signature
	for _, q := range ig.Nodes() {
		sigs = append(sigs, sig(q))
	}
	slices.SortFunc(sigs, func(a, b signature) int {
		return cmp.Or(cmp.Compare(a.measured, b.measured), cmp.Compare(a.single, b.single))
	})
	sigs = slices.Compact(sigs)
	ids := make(map[signature]int, len(sigs))
	for i, s := range sigs {
		ids[s] = i
	}

	node := func(q int) int { return ids[sig(q)] }
	edge := func(e graph.Edge) int {
		if ev.opts.PerOperation {
			return ig.EdgeOps[e]
		}
		return 0
	}
	return node, edge
}

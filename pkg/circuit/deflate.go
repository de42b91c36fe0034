package circuit

import (
	"fmt"
	"slices"
)

// IndexMap records how a deflated circuit's bits relate to the original.
//
// Old→new lookups return -1 for bits that were idle and therefore dropped.
// New→old slices are dense: NewToOldQubit[i] is the original global index of
// deflated qubit i.
type IndexMap struct {
	OldToNewQubit map[int]int `json:"old_to_new_qubit"`
	NewToOldQubit []int       `json:"new_to_old_qubit"`
	OldToNewClbit map[int]int `json:"old_to_new_clbit"`
	NewToOldClbit []int       `json:"new_to_old_clbit"`
}

func newIndexMap(qubits, clbits []int) *IndexMap {
	m := &IndexMap{
		OldToNewQubit: make(map[int]int, len(qubits)),
		NewToOldQubit: slices.Clone(qubits),
		OldToNewClbit: make(map[int]int, len(clbits)),
		NewToOldClbit: slices.Clone(clbits),
	}
	for i, q := range qubits {
		m.OldToNewQubit[q] = i
	}
	for i, b := range clbits {
		m.OldToNewClbit[b] = i
	}
	return m
}

// Qubit returns the deflated index of original qubit old, or -1 if it was
// dropped.
func (m *IndexMap) Qubit(old int) int {
	if n, ok := m.OldToNewQubit[old]; ok {
		return n
	}
	return -1
}

// Clbit returns the deflated index of original clbit old, or -1 if it was
// dropped.
func (m *IndexMap) Clbit(old int) int {
	if n, ok := m.OldToNewClbit[old]; ok {
		return n
	}
	return -1
}

// OriginalQubit returns the original index of deflated qubit i.
func (m *IndexMap) OriginalQubit(i int) int { return m.NewToOldQubit[i] }

// OriginalClbit returns the original index of deflated clbit i.
func (m *IndexMap) OriginalClbit(i int) int { return m.NewToOldClbit[i] }

// Width returns the number of qubits in the deflated circuit.
func (m *IndexMap) Width() int { return len(m.NewToOldQubit) }

// ExpandLayout reinterprets a layout computed for the deflated circuit in
// terms of the original circuit: the result maps each original active qubit
// to its physical qubit. Idle original qubits are absent from the map.
func (m *IndexMap) ExpandLayout(layout []int) (map[int]int, error) {
	if len(layout) != len(m.NewToOldQubit) {
		return nil, fmt.Errorf("layout has %d entries, deflated circuit has %d qubits", len(layout), len(m.NewToOldQubit))
	}
	out := make(map[int]int, len(layout))
	for i, p := range layout {
		out[m.NewToOldQubit[i]] = p
	}
	return out, nil
}

// Deflate returns a copy of c restricted to its active qubits and clbits.
//
// A qubit is active when a non-directive operation touches it; a clbit is
// active when any operation references it. Active bits are renumbered densely
// from 0 in their original relative order, so all quantum registers collapse
// into one register "q" and all classical registers into one register "c"
// (omitted when no clbit is active). Barriers and delays are narrowed to
// the active qubits they span and dropped if none remain.
//
// Deflation never changes which qubits interact, only their indices.
// Deflating an already deflated circuit returns an equal circuit and an
// identity map. The source circuit is not modified.
func Deflate(c *Circuit) (*Circuit, *IndexMap, error) {
	if err := c.Validate(); err != nil {
		return nil, nil, err
	}

	idx := newIndexMap(c.ActiveQubits(), c.ActiveClbits())
	out := New(idx.Width(), len(idx.NewToOldClbit))
	out.Name = c.Name

	for _, op := range c.Ops {
		qubits := make([]int, 0, len(op.Qubits))
		for _, q := range op.Qubits {
			if n := idx.Qubit(q); n >= 0 {
				qubits = append(qubits, n)
			}
		}
		if op.IsDirective() && len(qubits) == 0 {
			continue
		}
		var clbits []int
		if len(op.Clbits) > 0 {
			clbits = make([]int, len(op.Clbits))
			for i, b := range op.Clbits {
				clbits[i] = idx.Clbit(b)
			}
		}
		if len(qubits) == 0 {
			qubits = nil
		}
		out.Ops = append(out.Ops, Operation{
			Name:   op.Name,
			Qubits: qubits,
			Clbits: clbits,
			Params: slices.Clone(op.Params),
		})
	}
	return out, idx, nil
}

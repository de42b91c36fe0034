package circuit

import (
	"fmt"
	"slices"

	errs "github.com/matzehuels/qmap/pkg/errors"
)

// Operation names with special meaning to the layout search.
const (
	OpMeasure = "measure"
	OpBarrier = "barrier"
	OpDelay   = "delay"
	OpReset   = "reset"
)

// Register is a named, contiguous block of qubits or classical bits.
type Register struct {
	Name string `json:"name"`
	Size int    `json:"size"`
}

// Operation is one instruction applied to a set of qubits and classical bits.
// Qubit and clbit targets are flat global indices across all registers of
// the circuit, in register declaration order.
type Operation struct {
	Name   string    `json:"name"`
	Qubits []int     `json:"qubits,omitempty"`
	Clbits []int     `json:"clbits,omitempty"`
	Params []float64 `json:"params,omitempty"`
}

// IsDirective reports whether the operation is a barrier or a delay. Neither
// acts on qubit state, so directives do not make a qubit active and never
// create interaction edges.
func (op Operation) IsDirective() bool { return op.Name == OpBarrier || op.Name == OpDelay }

// IsReset reports whether the operation is a reset. A reset makes its qubit
// active but carries no gate error.
func (op Operation) IsReset() bool { return op.Name == OpReset }

// IsMeasure reports whether the operation is a measurement.
func (op Operation) IsMeasure() bool { return op.Name == OpMeasure }

// Circuit is a minimal quantum circuit: registers plus an ordered list of
// operations. It carries no gate semantics; the layout search only needs to
// know which qubits every operation touches.
//
// The zero value is an empty circuit with no qubits.
type Circuit struct {
	Name  string      `json:"name,omitempty"`
	QRegs []Register  `json:"qregs,omitempty"`
	CRegs []Register  `json:"cregs,omitempty"`
	Ops   []Operation `json:"ops,omitempty"`
}

// New creates a circuit with one quantum register "q" of width qubits and,
// when clbits > 0, one classical register "c".
func New(qubits, clbits int) *Circuit {
	c := &Circuit{}
	if qubits > 0 {
		c.QRegs = []Register{{Name: "q", Size: qubits}}
	}
	if clbits > 0 {
		c.CRegs = []Register{{Name: "c", Size: clbits}}
	}
	return c
}

// NumQubits returns the total width of all quantum registers.
func (c *Circuit) NumQubits() int { return regWidth(c.QRegs) }

// NumClbits returns the total width of all classical registers.
func (c *Circuit) NumClbits() int { return regWidth(c.CRegs) }

func regWidth(regs []Register) int {
	n := 0
	for _, r := range regs {
		n += r.Size
	}
	return n
}

// AddQReg appends a quantum register and returns the global index of its
// first qubit.
func (c *Circuit) AddQReg(name string, size int) int {
	off := c.NumQubits()
	c.QRegs = append(c.QRegs, Register{Name: name, Size: size})
	return off
}

// AddCReg appends a classical register and returns the global index of its
// first bit.
func (c *Circuit) AddCReg(name string, size int) int {
	off := c.NumClbits()
	c.CRegs = append(c.CRegs, Register{Name: name, Size: size})
	return off
}

// Qubit returns the global index of qubit i of the named quantum register.
func (c *Circuit) Qubit(reg string, i int) (int, error) {
	return lookup(c.QRegs, reg, i)
}

// Clbit returns the global index of bit i of the named classical register.
func (c *Circuit) Clbit(reg string, i int) (int, error) {
	return lookup(c.CRegs, reg, i)
}

func lookup(regs []Register, name string, i int) (int, error) {
	off := 0
	for _, r := range regs {
		if r.Name == name {
			if i < 0 || i >= r.Size {
				return 0, errs.New(errs.ErrCodeInvalidInput, "index %d out of range for register %q of size %d", i, name, r.Size)
			}
			return off + i, nil
		}
		off += r.Size
	}
	return 0, errs.New(errs.ErrCodeInvalidInput, "unknown register %q", name)
}

// Append adds an operation. Targets are validated later by [Circuit.Validate].
func (c *Circuit) Append(name string, qubits []int, clbits []int, params ...float64) *Circuit {
	c.Ops = append(c.Ops, Operation{
		Name:   name,
		Qubits: slices.Clone(qubits),
		Clbits: slices.Clone(clbits),
		Params: slices.Clone(params),
	})
	return c
}

// H appends a Hadamard gate.
func (c *Circuit) H(q int) *Circuit { return c.Append("h", []int{q}, nil) }

// X appends a Pauli-X gate.
func (c *Circuit) X(q int) *Circuit { return c.Append("x", []int{q}, nil) }

// CX appends a controlled-NOT gate.
func (c *Circuit) CX(ctrl, tgt int) *Circuit { return c.Append("cx", []int{ctrl, tgt}, nil) }

// Measure appends a measurement of qubit q into classical bit b.
func (c *Circuit) Measure(q, b int) *Circuit { return c.Append(OpMeasure, []int{q}, []int{b}) }

// Reset appends a reset of qubit q to |0>.
func (c *Circuit) Reset(q int) *Circuit { return c.Append(OpReset, []int{q}, nil) }

// Delay appends an idle period of the given duration on qubit q.
func (c *Circuit) Delay(q int, duration float64) *Circuit {
	return c.Append(OpDelay, []int{q}, nil, duration)
}

// Barrier appends a barrier across the given qubits.
func (c *Circuit) Barrier(qubits ...int) *Circuit { return c.Append(OpBarrier, qubits, nil) }

// MeasureAll adds a classical register "meas" as wide as the circuit, a
// barrier over every qubit and one measurement per qubit.
func (c *Circuit) MeasureAll() *Circuit {
	n := c.NumQubits()
	off := c.AddCReg("meas", n)
	all := make([]int, n)
	for i := range all {
		all[i] = i
	}
	c.Barrier(all...)
	for q := range n {
		c.Measure(q, off+q)
	}
	return c
}

// Validate checks every operation's targets. An operation with an empty name,
// a repeated qubit or a qubit outside the circuit has no well-defined arity
// and yields UNSUPPORTED_OPERATION. Out-of-range classical bits yield
// INVALID_INPUT.
func (c *Circuit) Validate() error {
	for _, r := range append(slices.Clone(c.QRegs), c.CRegs...) {
		if r.Size < 0 {
			return errs.New(errs.ErrCodeInvalidInput, "register %q has negative size %d", r.Name, r.Size)
		}
	}
	nq, nc := c.NumQubits(), c.NumClbits()
	for i, op := range c.Ops {
		if err := errs.ValidateOperationName(op.Name); err != nil {
			return fmt.Errorf("operation %d: %w", i, err)
		}
		seen := make(map[int]bool, len(op.Qubits))
		for _, q := range op.Qubits {
			if err := errs.ValidateQubitIndex(q, nq); err != nil {
				return fmt.Errorf("operation %d (%s): %w", i, op.Name, err)
			}
			if seen[q] {
				return errs.New(errs.ErrCodeUnsupportedOperation, "operation %d (%s) repeats qubit %d", i, op.Name, q)
			}
			seen[q] = true
		}
		for _, b := range op.Clbits {
			if b < 0 || b >= nc {
				return errs.New(errs.ErrCodeInvalidInput, "operation %d (%s): clbit %d out of range [0, %d)", i, op.Name, b, nc)
			}
		}
	}
	return nil
}

// ActiveQubits returns, in ascending order, the qubits touched by at least
// one non-directive operation.
func (c *Circuit) ActiveQubits() []int {
	seen := make(map[int]bool)
	for _, op := range c.Ops {
		if op.IsDirective() {
			continue
		}
		for _, q := range op.Qubits {
			seen[q] = true
		}
	}
	return sortedKeys(seen)
}

// ActiveClbits returns, in ascending order, the classical bits referenced by
// at least one operation.
func (c *Circuit) ActiveClbits() []int {
	seen := make(map[int]bool)
	for _, op := range c.Ops {
		for _, b := range op.Clbits {
			seen[b] = true
		}
	}
	return sortedKeys(seen)
}

func sortedKeys(m map[int]bool) []int {
	out := make([]int, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

// Clone returns a deep copy of the circuit.
func (c *Circuit) Clone() *Circuit {
	out := &Circuit{
		Name:  c.Name,
		QRegs: slices.Clone(c.QRegs),
		CRegs: slices.Clone(c.CRegs),
		Ops:   make([]Operation, len(c.Ops)),
	}
	for i, op := range c.Ops {
		out.Ops[i] = Operation{
			Name:   op.Name,
			Qubits: slices.Clone(op.Qubits),
			Clbits: slices.Clone(op.Clbits),
			Params: slices.Clone(op.Params),
		}
	}
	return out
}

// Equal reports whether two circuits have the same registers and operations.
// Names are ignored.
func (c *Circuit) Equal(o *Circuit) bool {
	if !slices.Equal(c.QRegs, o.QRegs) || !slices.Equal(c.CRegs, o.CRegs) || len(c.Ops) != len(o.Ops) {
		return false
	}
	for i := range c.Ops {
		a, b := c.Ops[i], o.Ops[i]
		if a.Name != b.Name || !slices.Equal(a.Qubits, b.Qubits) ||
			!slices.Equal(a.Clbits, b.Clbits) || !slices.Equal(a.Params, b.Params) {
			return false
		}
	}
	return true
}

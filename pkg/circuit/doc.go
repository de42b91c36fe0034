// Package circuit models the parts of a quantum circuit that qubit layout
// selection depends on, and implements circuit deflation.
//
// # Model
//
// A [Circuit] is a list of named quantum and classical registers followed by
// an ordered list of [Operation] values. Operations address bits by flat
// global index: qubit 0 is the first qubit of the first quantum register,
// and a register declared after a 2-qubit register starts at index 2.
//
//	c := &circuit.Circuit{}
//	a := c.AddQReg("a", 2)
//	b := c.AddQReg("b", 3)
//	c.H(a).CX(a, a+1).CX(a+1, b)
//
// Gate semantics are deliberately absent. Only the targets matter: which
// qubits an operation touches, and which classical bits it writes.
//
// # Deflation
//
// [Deflate] drops every qubit that no operation touches and every classical
// bit that no operation references, then renumbers the remaining bits
// densely. The returned [IndexMap] translates in both directions so that a
// layout found for the deflated circuit can be applied to the original one.
//
// Barriers do not count as activity. A qubit covered only by a barrier is
// idle and is removed from the barrier along with the register.
//
// # Serialization
//
// Circuits round-trip through JSON with [Marshal], [Write], [Read] and
// [ReadFile]. Reading validates every operation's targets.
package circuit

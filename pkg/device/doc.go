// Package device describes candidate hardware: a connectivity graph plus a
// calibration snapshot.
//
// # Device Interface
//
// The layout search only needs three things from a device, captured by
// [Device]: a name, the coupling graph, and the error rates. Any type can
// implement it. [Static] is the in-memory implementation produced from a
// [Spec], which is also the wire and file format.
//
// # Calibration
//
// [Calibration] holds readout and single-gate errors per physical qubit and
// two-qubit errors per coupled pair. An entry that is absent means the
// resource was never characterized. That is not an error here; the cost
// model treats it as maximal error.
//
// # Sources
//
// Devices come from three places:
//   - [Builtin]: fake 5- and 7-qubit devices with fixed snapshots
//   - [LoadFile] and [LoadDir]: TOML definitions with [[qubit]] and
//     [[coupling]] tables
//   - package mongosrc: a MongoDB collection of specs
//
// A [Catalog] keeps devices in a stable order and resolves them by name.
package device

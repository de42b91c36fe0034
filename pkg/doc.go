// Package pkg provides the core libraries for qmap qubit layout selection.
//
// # Overview
//
// qmap decides which physical qubits of a device should host which logical
// qubits of a circuit. A placement is valid when every pair of qubits that
// share a two-qubit gate lands on a coupled pair, so no swaps are needed. Among
// valid placements, qmap prefers the one whose gates and measurements have the
// lowest combined error according to the device's calibration data.
//
// # Architecture
//
// The data flow through qmap:
//
//	circuit (JSON)
//	     ↓
//	[circuit] validate, optionally deflate idle qubits
//	     ↓
//	[interaction] extract the two-qubit interaction graph
//	     ↓
//	[match] enumerate subgraph embeddings into each device's coupling map
//	     ↓
//	[cost] score each embedding from calibration data
//	     ↓
//	[rank] merge and sort candidates across devices
//
// [pipeline] runs these stages with caching, and [server] and the CLI expose
// the pipeline to users.
//
// # Quick Start
//
//	c := circuit.New(3, 3)
//	c.H(0).CX(0, 1).CX(1, 2)
//	c.Measure(0, 0).Measure(1, 1).Measure(2, 2)
//
//	devices := device.Builtin().All()
//	cands, err := rank.BestOverallLayout(ctx, c, devices, rank.DefaultOptions())
//	if err != nil {
//	    return err
//	}
//	fmt.Println(cands[0].Device, cands[0].Layout, cands[0].Cost)
//
// # Main Packages
//
// ## Domain
//
// [circuit] - Circuit model: registers, operations, validation, JSON
// encoding and deflation with its index map.
//
// [graph] - Undirected simple graphs with integer nodes, shared by the
// interaction graph and device coupling maps.
//
// [interaction] - Interaction graph extraction, with per-edge and per-qubit
// operation counts for the cost model.
//
// [match] - VF2-style subgraph isomorphism with image deduplication, call
// limits and cancellation. [match/perm] holds the permutation helpers its
// tests check against.
//
// [cost] - Error-product cost model with optional single-qubit and
// per-operation terms.
//
// [device] - Device model, the built-in catalog, TOML device files and
// fingerprints. [device/mongosrc] loads catalogs from MongoDB.
//
// [rank] - Per-device and cross-device ranking with a bounded worker pool.
//
// ## Infrastructure
//
// [cache] - Result cache backends (file, Redis, null) and key derivation.
//
// [observability] - Hook registry for metrics and tracing.
//
// [errors] - Coded errors shared by the CLI and the HTTP API.
//
// [buildinfo] - Version information injected at build time.
//
// ## Delivery
//
// [pipeline] - Orchestration: deflate → rank → expand, plus rendering.
//
// [render/dot] - Graphviz drawings of a placement on its device.
//
// [server] - HTTP API.
package pkg

// Package graph provides the undirected simple graph shared by circuit
// interaction graphs and device connectivity graphs.
//
// # Overview
//
// Both sides of a layout search are plain undirected graphs over integer
// qubit indices. The interaction graph has one node per active logical qubit
// and one edge per pair of qubits joined by a two-qubit operation. The
// connectivity graph has one node per physical qubit and one edge per directly
// coupled pair.
//
// # Basic Usage
//
//	g := graph.New()
//	g.AddEdge(0, 1)
//	g.AddEdge(1, 2)
//	g.HasEdge(2, 1) // true, edges are unordered
//
// Nodes and edges come back sorted ([Graph.Nodes], [Graph.Edges],
// [Graph.Neighbors]) so that every algorithm built on top of this package
// is deterministic.
//
// # Concurrency
//
// A Graph is not safe for concurrent mutation. Once built, a graph can be
// read from many goroutines at once; the ranker relies on this to match one
// circuit against many devices in parallel.
package graph

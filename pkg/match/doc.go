// Package match finds embeddings of a circuit's interaction graph into a
// device's connectivity graph.
//
// # Embeddings
//
// An embedding places every pattern node (logical qubit) on a distinct
// target node (physical qubit) such that every pattern edge lands on a
// target edge. Target edges that the pattern does not use are allowed
// unless [Options.Induced] is set.
//
//	res := match.Find(ctx, ig.Graph, dev.ConnectivityGraph(), match.Options{Successors: true})
//	for _, e := range res.Embeddings {
//	    fmt.Println(e.Layout())
//	}
//
// # Successors
//
// A symmetric device admits many placements that occupy the same physical
// qubits and couplings and differ only by a permutation of logical qubits.
// With [Options.Successors] the search keeps the first placement found for
// every distinct image, where an image is the sorted set of target nodes
// plus the sorted set of target edges the pattern occupies.
//
// Placements on the same image can still differ in cost when some logical
// qubits are measured and others are not. [Options.NodeLabel] and
// [Options.EdgeLabel] attach labels to pattern elements so that such
// placements stay distinct. The ranker labels measured qubits and, where the
// cost model counts them, operation multiplicities.
//
// Without Successors the search stops at the first embedding.
//
// # Budgets
//
// Search cost grows combinatorially with pattern size and device width.
// [Options.CallLimit] caps the number of candidate pairs tried and the
// context carries a deadline. A search stopped by either returns
// [Result.Truncated] and no embeddings, which callers treat as "this device
// does not fit".
package match

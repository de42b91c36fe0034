package match

import (
	"cmp"
	"context"
	"slices"
	"strconv"

	"github.com/matzehuels/qmap/pkg/graph"
	"github.com/matzehuels/qmap/pkg/match/perm"
)

// ctxCheckInterval is how many search-tree nodes are expanded between
// context checks.
const ctxCheckInterval = 256

// Options configures a search.
type Options struct {
	// Induced requires target nodes of the image to be non-adjacent wherever
	// the pattern nodes are non-adjacent. By default extra target couplings
	// inside the image are allowed.
	Induced bool

	// Successors enumerates every placement, keeping one representative per
	// distinct image. When false the search stops at the first embedding.
	Successors bool

	// CallLimit bounds the number of candidate pairs tried. Zero means no
	// limit. A search that hits the limit reports Truncated and returns no
	// embeddings.
	CallLimit int

	// NodeLabel and EdgeLabel refine what counts as a distinct image. Two
	// embeddings are duplicates only if every target node and target edge
	// of the image receives the same label from the pattern element mapped
	// onto it. Nil means every element has label 0.
	NodeLabel func(n int) int
	EdgeLabel func(e graph.Edge) int
}

// Result is the outcome of one search.
type Result struct {
	Embeddings []Embedding
	// Truncated is set when the call limit or the context stopped the search.
	Truncated bool
	// Calls counts candidate pairs tried.
	Calls int
	// Duplicates counts complete embeddings dropped because their image had
	// already been found.
	Duplicates int
	// SearchSpace is the number of raw injective maps from pattern nodes to
	// target nodes, before any pruning.
	SearchSpace int
}

// Embeddings returns the embeddings of pattern into target, deduplicated by
// image when successors is true and capped at one otherwise.
func Embeddings(pattern, target *graph.Graph, successors bool) []Embedding {
	return Find(context.Background(), pattern, target, Options{Successors: successors}).Embeddings
}

// Find searches for embeddings of pattern into target.
//
// The search is a VF2-style state-space search over an explicit stack.
// Pattern nodes are placed in a fixed order that keeps the placed part
// connected where possible, and each candidate target node is checked for
// degree, adjacency to already placed neighbours and, in induced mode,
// non-adjacency to already placed non-neighbours before the search descends.
//
// An empty pattern has exactly one (empty) embedding. A pattern with more
// nodes, more edges or a higher maximum degree than the target has none.
// Neither case is an error.
func Find(ctx context.Context, pattern, target *graph.Graph, opts Options) Result {
	pNodes := pattern.Nodes()
	tNodes := target.Nodes()
	res := Result{SearchSpace: perm.Arrangements(len(tNodes), len(pNodes))}

	if len(pNodes) == 0 {
		res.Embeddings = []Embedding{{Logical: []int{}, Physical: []int{}}}
		return res
	}
	if len(pNodes) > len(tNodes) ||
		pattern.EdgeCount() > target.EdgeCount() ||
		pattern.MaxDegree() > target.MaxDegree() {
		return res
	}
	if ctx.Err() != nil {
		res.Truncated = true
		return res
	}

	newSearch(pattern, target, pNodes, tNodes, opts).run(ctx, &res)
	return res
}

type patternEdge struct {
	a, b int // dense pattern indices
	orig graph.Edge
}

type search struct {
	opts Options

	pNodes []int
	tNodes []int
	pDeg   []int
	tDeg   []int
	tAdj   [][]bool
	tNbrs  [][]int
	all    []int
	pEdges []patternEdge

	order   []int   // pattern dense index placed at each depth
	prevAdj [][]int // earlier depths adjacent in the pattern
	prevNon [][]int // earlier depths not adjacent in the pattern

	assign []int // target dense index chosen at each depth
	used   []bool
	seen   map[string]struct{}
}

func newSearch(pattern, target *graph.Graph, pNodes, tNodes []int, opts Options) *search {
	pIdx := denseIndex(pNodes)
	tIdx := denseIndex(tNodes)
	pAdj, pDeg, _ := denseAdjacency(pattern, pNodes, pIdx)
	tAdj, tDeg, tNbrs := denseAdjacency(target, tNodes, tIdx)

	s := &search{
		opts:   opts,
		pNodes: pNodes,
		tNodes: tNodes,
		pDeg:   pDeg,
		tDeg:   tDeg,
		tAdj:   tAdj,
		tNbrs:  tNbrs,
		all:    perm.Seq(len(tNodes)),
		assign: make([]int, len(pNodes)),
		used:   make([]bool, len(tNodes)),
		seen:   make(map[string]struct{}),
	}
	for _, e := range pattern.Edges() {
		s.pEdges = append(s.pEdges, patternEdge{a: pIdx[e.A], b: pIdx[e.B], orig: e})
	}

	s.order = visitOrder(pAdj, pDeg)
	s.prevAdj = make([][]int, len(s.order))
	s.prevNon = make([][]int, len(s.order))
	for d, p := range s.order {
		for j := range d {
			if pAdj[p][s.order[j]] {
				s.prevAdj[d] = append(s.prevAdj[d], j)
			} else if opts.Induced {
				s.prevNon[d] = append(s.prevNon[d], j)
			}
		}
	}
	return s
}

func denseIndex(nodes []int) map[int]int {
	idx := make(map[int]int, len(nodes))
	for i, n := range nodes {
		idx[n] = i
	}
	return idx
}

func denseAdjacency(g *graph.Graph, nodes []int, idx map[int]int) ([][]bool, []int, [][]int) {
	adj := make([][]bool, len(nodes))
	deg := make([]int, len(nodes))
	nbrs := make([][]int, len(nodes))
	for i, n := range nodes {
		adj[i] = make([]bool, len(nodes))
		for _, m := range g.Neighbors(n) {
			j := idx[m]
			adj[i][j] = true
			nbrs[i] = append(nbrs[i], j)
		}
		deg[i] = len(nbrs[i])
	}
	return adj, deg, nbrs
}

// visitOrder places next the node with the most already placed neighbours,
// breaking ties by higher degree and then by lower index.
func visitOrder(adj [][]bool, deg []int) []int {
	n := len(deg)
	order := make([]int, 0, n)
	placed := make([]bool, n)
	links := make([]int, n)
	for len(order) < n {
		best := -1
		for v := range n {
			if placed[v] {
				continue
			}
			if best < 0 || links[v] > links[best] || (links[v] == links[best] && deg[v] > deg[best]) {
				best = v
			}
		}
		placed[best] = true
		order = append(order, best)
		for v := range n {
			if adj[best][v] {
				links[v]++
			}
		}
	}
	return order
}

// candidates narrows depth d to the neighbours of an already placed pattern
// neighbour when there is one.
func (s *search) candidates(d int) []int {
	if len(s.prevAdj[d]) > 0 {
		return s.tNbrs[s.assign[s.prevAdj[d][0]]]
	}
	return s.all
}

func (s *search) feasible(d, t int) bool {
	if s.used[t] || s.tDeg[t] < s.pDeg[s.order[d]] {
		return false
	}
	for _, j := range s.prevAdj[d] {
		if !s.tAdj[t][s.assign[j]] {
			return false
		}
	}
	for _, j := range s.prevNon[d] {
		if s.tAdj[t][s.assign[j]] {
			return false
		}
	}
	return true
}

func (s *search) run(ctx context.Context, res *Result) {
	n := len(s.order)
	cands := make([][]int, n)
	cursor := make([]int, n)
	cands[0] = s.candidates(0)

	for depth := 0; depth >= 0; {
		if cursor[depth] == len(cands[depth]) {
			depth--
			if depth >= 0 {
				s.used[s.assign[depth]] = false
			}
			continue
		}
		t := cands[depth][cursor[depth]]
		cursor[depth]++

		res.Calls++
		if (s.opts.CallLimit > 0 && res.Calls > s.opts.CallLimit) ||
			(res.Calls%ctxCheckInterval == 0 && ctx.Err() != nil) {
			res.Truncated = true
			res.Embeddings = nil
			return
		}
		if !s.feasible(depth, t) {
			continue
		}

		s.assign[depth] = t
		if depth == n-1 {
			if s.emit(res) && !s.opts.Successors {
				return
			}
			continue
		}
		s.used[t] = true
		depth++
		cands[depth] = s.candidates(depth)
		cursor[depth] = 0
	}
}

// emit records the current complete assignment. It reports whether the
// embedding was kept.
func (s *search) emit(res *Result) bool {
	phys := make([]int, len(s.pNodes))
	for d, p := range s.order {
		phys[p] = s.tNodes[s.assign[d]]
	}
	if s.opts.Successors {
		key := s.imageKey(phys)
		if _, dup := s.seen[key]; dup {
			res.Duplicates++
			return false
		}
		s.seen[key] = struct{}{}
	}
	res.Embeddings = append(res.Embeddings, Embedding{Logical: slices.Clone(s.pNodes), Physical: phys})
	return true
}

type labelled[T any] struct {
	item  T
	label int
}

// imageKey canonicalizes the image of an embedding: its labelled target
// nodes and labelled target edges, both sorted.
func (s *search) imageKey(phys []int) string {
	nodes := make([]labelled[int], len(phys))
	for i, p := range phys {
		nodes[i] = labelled[int]{p, s.nodeLabel(s.pNodes[i])}
	}
	slices.SortFunc(nodes, func(a, b labelled[int]) int { return cmp.Compare(a.item, b.item) })

	edges := make([]labelled[graph.Edge], len(s.pEdges))
	for i, pe := range s.pEdges {
		edges[i] = labelled[graph.Edge]{graph.NewEdge(phys[pe.a], phys[pe.b]), s.edgeLabel(pe.orig)}
	}
	slices.SortFunc(edges, func(a, b labelled[graph.Edge]) int { return a.item.Compare(b.item) })

	buf := make([]byte, 0, 8*(len(nodes)+len(edges)))
	for _, n := range nodes {
		buf = strconv.AppendInt(buf, int64(n.item), 10)
		buf = append(buf, ':')
		buf = strconv.AppendInt(buf, int64(n.label), 10)
		buf = append(buf, ',')
	}
	buf = append(buf, '|')
	for _, e := range edges {
		buf = strconv.AppendInt(buf, int64(e.item.A), 10)
		buf = append(buf, '-')
		buf = strconv.AppendInt(buf, int64(e.item.B), 10)
		buf = append(buf, ':')
		buf = strconv.AppendInt(buf, int64(e.label), 10)
		buf = append(buf, ',')
	}
	return string(buf)
}

func (s *search) nodeLabel(n int) int {
	if s.opts.NodeLabel == nil {
		return 0
	}
	return s.opts.NodeLabel(n)
}

func (s *search) edgeLabel(e graph.Edge) int {
	if s.opts.EdgeLabel == nil {
		return 0
	}
	return s.opts.EdgeLabel(e)
}

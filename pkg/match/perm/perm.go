// Package perm enumerates permutations and injective index maps.
//
// The matcher uses [Arrangements] to report the size of the raw search
// space it prunes. [Injections] walks that whole space and serves as the
// brute-force reference the matcher is checked against.
package perm

import (
	"iter"
	"math"
)

// Seq returns [0, 1, ..., n-1]. For n <= 0 it returns an empty slice.
func Seq(n int) []int {
	out := make([]int, max(n, 0))
	for i := range out {
		out[i] = i
	}
	return out
}

// Arrangements returns n!/(n-k)!, the number of injective maps from k items
// into n slots. It returns 0 when k > n and saturates at math.MaxInt.
func Arrangements(n, k int) int {
	if k < 0 || k > n {
		return 0
	}
	out := 1
	for i := n - k + 1; i <= n; i++ {
		if out > math.MaxInt/i {
			return math.MaxInt
		}
		out *= i
	}
	return out
}

// Permutations yields every permutation of [0, n) using Heap's algorithm.
// The yielded slice is reused between iterations; clone it to keep it.
// n = 0 yields one empty permutation.
func Permutations(n int) iter.Seq[[]int] {
	return func(yield func([]int) bool) {
		p := Seq(n)
		if !yield(p) {
			return
		}
		c := make([]int, n)
		for i := 1; i < n; {
			if c[i] >= i {
				c[i] = 0
				i++
				continue
			}
			if i%2 == 0 {
				p[0], p[i] = p[i], p[0]
			} else {
				p[c[i]], p[i] = p[i], p[c[i]]
			}
			if !yield(p) {
				return
			}
			c[i]++
			i = 1
		}
	}
}

// Combinations yields every k-subset of [0, n) in lexicographic order.
// The yielded slice is reused between iterations.
func Combinations(n, k int) iter.Seq[[]int] {
	return func(yield func([]int) bool) {
		if k < 0 || k > n {
			return
		}
		c := Seq(k)
		for {
			if !yield(c) {
				return
			}
			i := k - 1
			for i >= 0 && c[i] == n-k+i {
				i--
			}
			if i < 0 {
				return
			}
			c[i]++
			for j := i + 1; j < k; j++ {
				c[j] = c[j-1] + 1
			}
		}
	}
}

// Injections yields every injective map from [0, k) into [0, n) as a slice
// m with m[i] the image of i. There are [Arrangements](n, k) of them. Each
// yielded slice is a fresh allocation.
func Injections(n, k int) iter.Seq[[]int] {
	return func(yield func([]int) bool) {
		for subset := range Combinations(n, k) {
			for p := range Permutations(k) {
				m := make([]int, k)
				for i, j := range p {
					m[i] = subset[j]
				}
				if !yield(m) {
					return
				}
			}
		}
	}
}

// Suffix array over concatenated residue text, used for exact peptide lookup.
package dsa

import (
	"sort"
)

// SuffixArray indexes every suffix of Text in lexicographic order.
// Enables O(m log n) exact search where m is pattern length, n is text length.
type SuffixArray struct {
	Text string
	SA   []int // SA[i] = start of the i-th smallest suffix
	rank []int
}

// BuildSuffixArray constructs a suffix array using prefix doubling.
// Time Complexity: O(n log^2 n)
func BuildSuffixArray(text string) *SuffixArray {
	n := len(text)
	sa := &SuffixArray{
		Text: text,
		SA:   make([]int, n),
		rank: make([]int, n),
	}
	if n == 0 {
		return sa
	}

	for i := 0; i < n; i++ {
		sa.SA[i] = i
		sa.rank[i] = int(text[i])
	}

	// second returns the rank of the suffix k positions ahead, -1 past the end.
	second := func(pos, k int) int {
		if pos+k < n {
			return sa.rank[pos+k]
		}
		return -1
	}

	tmp := make([]int, n)
	for k := 1; k < n; k *= 2 {
		sort.Slice(sa.SA, func(i, j int) bool {
			a, b := sa.SA[i], sa.SA[j]
			if sa.rank[a] != sa.rank[b] {
				return sa.rank[a] < sa.rank[b]
			}
			return second(a, k) < second(b, k)
		})

		tmp[sa.SA[0]] = 0
		for i := 1; i < n; i++ {
			prev, curr := sa.SA[i-1], sa.SA[i]
			tmp[curr] = tmp[prev]
			if sa.rank[prev] != sa.rank[curr] || second(prev, k) != second(curr, k) {
				tmp[curr]++
			}
		}
		copy(sa.rank, tmp)

		if sa.rank[sa.SA[n-1]] == n-1 {
			break
		}
	}

	return sa
}

// Search returns the sorted start positions of every occurrence of pattern.
func (sa *SuffixArray) Search(pattern string) []int {
	n := len(sa.SA)
	m := len(pattern)
	if m == 0 || n == 0 {
		return nil
	}

	prefix := func(i int) string {
		suffix := sa.Text[sa.SA[i]:]
		if len(suffix) > m {
			return suffix[:m]
		}
		return suffix
	}

	left := sort.Search(n, func(i int) bool { return prefix(i) >= pattern })
	right := sort.Search(n, func(i int) bool { return prefix(i) > pattern })

	var matches []int
	for i := left; i < right; i++ {
		if prefix(i) == pattern {
			matches = append(matches, sa.SA[i])
		}
	}
	sort.Ints(matches)
	return matches
}

// Count returns the number of occurrences of pattern.
func (sa *SuffixArray) Count(pattern string) int {
	return len(sa.Search(pattern))
}

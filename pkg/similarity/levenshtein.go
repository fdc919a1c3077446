// Package similarity provides edit-distance utilities for log line comparison.
package similarity

import "unicode/utf8"

// Exceeded is returned by BoundedDistance when the distance is above the limit.
const Exceeded = -1

// Distance returns the Levenshtein distance between a and b: the minimum number
// of single-rune insertions, deletions or substitutions turning one into the other.
func Distance(a, b string) int {
	if a == b {
		return 0
	}

	s, t := symbols(a), symbols(b)
	// Keep the rows sized on the shorter string
	if len(s) > len(t) {
		s, t = t, s
	}
	if len(s) == 0 {
		return len(t)
	}

	prev := make([]int, len(s)+1)
	curr := make([]int, len(s)+1)
	for i := range prev {
		prev[i] = i
	}

	for j := 1; j <= len(t); j++ {
		curr[0] = j
		for i := 1; i <= len(s); i++ {
			if s[i-1] == t[j-1] {
				curr[i] = prev[i-1]
				continue
			}
			curr[i] = 1 + min(curr[i-1], prev[i], prev[i-1])
		}
		prev, curr = curr, prev
	}

	return prev[len(s)]
}

// BoundedDistance returns Distance(a, b) if it is at most limit, and Exceeded
// otherwise. Only the diagonal band of width limit is evaluated, and the scan
// stops as soon as a whole band row is above limit, so long lines that are far
// apart are rejected in O(limit * len) time.
//
// A negative limit is treated as 0: only identical strings match.
func BoundedDistance(a, b string, limit int) int {
	if limit < 0 {
		limit = 0
	}
	if a == b {
		return 0
	}

	s, t := symbols(a), symbols(b)
	if len(s) > len(t) {
		s, t = t, s
	}
	n, m := len(s), len(t)

	if m-n > limit {
		return Exceeded
	}
	if n == 0 {
		return m
	}
	// The distance never exceeds m, a larger limit changes nothing.
	if limit > m {
		limit = m
	}

	// Cells outside the band, or above limit, saturate at inf.
	inf := limit + 1
	prev := make([]int, n+1)
	curr := make([]int, n+1)
	for i := range prev {
		prev[i] = inf
		curr[i] = inf
		if i <= limit {
			prev[i] = i
		}
	}

	for j := 1; j <= m; j++ {
		lo := max(1, j-limit)
		hi := min(n, j+limit)

		curr[0] = inf
		if j <= limit {
			curr[0] = j
		}
		if lo > 1 {
			curr[lo-1] = inf
		}

		rowMin := curr[0]
		for i := lo; i <= hi; i++ {
			v := prev[i-1]
			if s[i-1] != t[j-1] {
				v = 1 + min(curr[i-1], prev[i], prev[i-1])
			}
			if v > inf {
				v = inf
			}
			curr[i] = v
			rowMin = min(rowMin, v)
		}

		if rowMin > limit {
			return Exceeded
		}
		prev, curr = curr, prev
	}

	if prev[n] > limit {
		return Exceeded
	}
	return prev[n]
}

// symbols decodes str into runes. Each byte of an invalid UTF-8 sequence maps
// to its own negative value, so distinct invalid bytes never compare equal
// and never collide with a real rune.
func symbols(str string) []rune {
	out := make([]rune, 0, len(str))
	for i := 0; i < len(str); {
		r, size := utf8.DecodeRuneInString(str[i:])
		if r == utf8.RuneError && size == 1 {
			r = -rune(str[i]) - 1
		}
		out = append(out, r)
		i += size
	}
	return out
}

// Within reports whether a and b are at most limit edits apart.
func Within(a, b string, limit int) bool {
	return BoundedDistance(a, b, limit) != Exceeded
}

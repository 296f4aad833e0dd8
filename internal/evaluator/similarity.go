package evaluator

import "strings"

// StringSimilarity grades two strings by sequence-matching ratio in
// [0,1]. Comparison is case-insensitive: both values are uppercased
// before matching.
type StringSimilarity struct {
	Threshold float64
}

// Evaluate returns the matching ratio of the two values and passes when
// it reaches the threshold.
func (e *StringSimilarity) Evaluate(expected, actual string) FieldScore {
	score := MatchRatio(strings.ToUpper(expected), strings.ToUpper(actual))
	return FieldScore{
		Expected: expected,
		Actual:   actual,
		Score:    score,
		Passed:   score >= e.Threshold,
	}
}

// MatchRatio computes the Ratcliff/Obershelp similarity of two strings:
// twice the number of matching characters divided by the total length.
// Matching characters are counted by finding the longest common block
// and recursing on the pieces to its left and right. Two empty strings
// are considered identical.
func MatchRatio(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	total := len(ra) + len(rb)
	if total == 0 {
		return 1.0
	}
	return 2.0 * float64(matchingRunes(ra, rb)) / float64(total)
}

type matchSpan struct {
	alo, ahi, blo, bhi int
}

func matchingRunes(a, b []rune) int {
	matches := 0
	queue := []matchSpan{{0, len(a), 0, len(b)}}
	for len(queue) > 0 {
		s := queue[len(queue)-1]
		queue = queue[:len(queue)-1]

		i, j, size := longestMatch(a, b, s)
		if size == 0 {
			continue
		}
		matches += size
		queue = append(queue,
			matchSpan{s.alo, i, s.blo, j},
			matchSpan{i + size, s.ahi, j + size, s.bhi},
		)
	}
	return matches
}

// longestMatch finds the longest block of runes common to a[alo:ahi]
// and b[blo:bhi], preferring the earliest position in a and then in b.
func longestMatch(a, b []rune, s matchSpan) (int, int, int) {
	b2j := make(map[rune][]int)
	for j := s.blo; j < s.bhi; j++ {
		b2j[b[j]] = append(b2j[b[j]], j)
	}

	besti, bestj, bestSize := s.alo, s.blo, 0
	j2len := make(map[int]int)
	for i := s.alo; i < s.ahi; i++ {
		newj2len := make(map[int]int)
		for _, j := range b2j[a[i]] {
			k := j2len[j-1] + 1
			newj2len[j] = k
			if k > bestSize {
				besti, bestj, bestSize = i-k+1, j-k+1, k
			}
		}
		j2len = newj2len
	}
	return besti, bestj, bestSize
}

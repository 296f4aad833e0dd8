package evaluator

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// numericEpsilon keeps the relative-difference denominator away from
// zero when the expected value itself is zero.
const numericEpsilon = 1e-9

// ExactMatch scores 1.0 only when the normalized values are equal.
// Normalization lower-cases and trims surrounding whitespace.
type ExactMatch struct{}

// Evaluate compares the normalized values.
func (e *ExactMatch) Evaluate(expected, actual string) FieldScore {
	score := FieldScore{Expected: expected, Actual: actual}
	if normalize(expected) == normalize(actual) {
		score.Score = 1.0
		score.Passed = true
	}
	return score
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// NumericSimilarity grades two numeric values by relative difference
// after stripping currency formatting. Unparsable values fail closed to
// a zero score.
type NumericSimilarity struct {
	Threshold float64
}

// Evaluate parses both values and grades by relative difference against
// the expected magnitude.
func (e *NumericSimilarity) Evaluate(expected, actual string) FieldScore {
	score := FieldScore{Expected: expected, Actual: actual}

	want, err := parseAmount(expected)
	if err != nil {
		score.Reason = fmt.Sprintf("expected value is not numeric: %v", err)
		return score
	}
	got, err := parseAmount(actual)
	if err != nil {
		score.Reason = fmt.Sprintf("actual value is not numeric: %v", err)
		return score
	}

	denom := math.Max(math.Abs(want), numericEpsilon)
	score.Score = 1 - math.Min(1, math.Abs(want-got)/denom)
	score.Passed = score.Score >= e.Threshold
	return score
}

// parseAmount strips currency symbols and thousands separators before
// parsing. Receipt totals arrive as "$1,234.50" or "RM 9.00".
func parseAmount(s string) (float64, error) {
	cleaned := strings.NewReplacer("$", "", "RM", "", ",", "").Replace(s)
	cleaned = strings.TrimSpace(cleaned)

	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("cannot parse '%s' as a number", s)
	}
	return v, nil
}

// Package evaluator scores extracted field values against expected
// annotations. Each field is scored by one of a closed set of
// evaluator variants selected through a registry built from the
// dataset configuration.
package evaluator

import (
	"fmt"
	"sort"
)

// FieldScore is the outcome of comparing one field's expected and
// actual values. Score is always within [0,1]. Reason is set only when
// the evaluator degraded, for example on an unparsable or missing
// actual value.
type FieldScore struct {
	Field    string  `json:"field"`
	Expected string  `json:"expected"`
	Actual   string  `json:"actual"`
	Score    float64 `json:"score"`
	Passed   bool    `json:"passed"`
	Reason   string  `json:"reason,omitempty"`
}

// Evaluator compares an expected and an actual value for one field.
// Implementations never return an error: malformed input degrades to a
// zero score with the reason recorded on the FieldScore.
type Evaluator interface {
	Evaluate(expected, actual string) FieldScore
}

// Kind names an evaluator variant in dataset configuration.
type Kind string

const (
	// KindSimilarity grades by sequence-matching ratio.
	KindSimilarity Kind = "similarity"
	// KindExact requires normalized equality.
	KindExact Kind = "exact"
	// KindNumeric grades numeric values by relative difference.
	KindNumeric Kind = "numeric"
	// KindDate matches calendar dates with optional day/month swap
	// tolerance.
	KindDate Kind = "date"
)

// Options carries the scoring policies shared by every dataset in a
// run.
type Options struct {
	SimilarityThreshold float64
	NumericThreshold    float64
	AllowDayMonthSwap   bool
	DateFormats         []string
}

// DefaultOptions returns the policies used when the configuration
// leaves them unset.
func DefaultOptions() Options {
	return Options{
		SimilarityThreshold: 0.8,
		NumericThreshold:    1.0,
		AllowDayMonthSwap:   true,
		DateFormats:         DefaultDateFormats(),
	}
}

// New constructs the evaluator variant named by kind.
func New(kind Kind, opts Options) (Evaluator, error) {
	switch kind {
	case KindSimilarity:
		return &StringSimilarity{Threshold: opts.SimilarityThreshold}, nil
	case KindExact:
		return &ExactMatch{}, nil
	case KindNumeric:
		return &NumericSimilarity{Threshold: opts.NumericThreshold}, nil
	case KindDate:
		return &DateMatch{Formats: opts.DateFormats, AllowDayMonthSwap: opts.AllowDayMonthSwap}, nil
	default:
		return nil, fmt.Errorf("unknown evaluator kind: %s", kind)
	}
}

// Registry maps field names to the evaluator scoring them. The field
// order is fixed at construction so evaluation output is deterministic.
type Registry struct {
	evaluators map[string]Evaluator
	fields     []string
}

// NewRegistry builds a registry from a field name to evaluator kind
// mapping.
func NewRegistry(fields map[string]Kind, opts Options) (*Registry, error) {
	if len(fields) == 0 {
		return nil, fmt.Errorf("no fields registered")
	}

	r := &Registry{
		evaluators: make(map[string]Evaluator, len(fields)),
		fields:     make([]string, 0, len(fields)),
	}
	for name, kind := range fields {
		ev, err := New(kind, opts)
		if err != nil {
			return nil, fmt.Errorf("field '%s': %w", name, err)
		}
		r.evaluators[name] = ev
		r.fields = append(r.fields, name)
	}
	sort.Strings(r.fields)

	return r, nil
}

// Fields returns the registered field names in sorted order.
func (r *Registry) Fields() []string {
	out := make([]string, len(r.fields))
	copy(out, r.fields)
	return out
}

// Evaluate scores every registered field the case defines an
// expectation for, in sorted field order. A field missing from the
// extraction output scores zero with the reason recorded. Expected
// fields without a registered evaluator are ignored.
func (r *Registry) Evaluate(expected, actual map[string]string) []FieldScore {
	scores := make([]FieldScore, 0, len(r.fields))
	for _, field := range r.fields {
		exp, ok := expected[field]
		if !ok {
			continue
		}

		act, ok := actual[field]
		if !ok {
			scores = append(scores, FieldScore{
				Field:    field,
				Expected: exp,
				Reason:   "field missing from extraction output",
			})
			continue
		}

		score := r.evaluators[field].Evaluate(exp, act)
		score.Field = field
		scores = append(scores, score)
	}
	return scores
}

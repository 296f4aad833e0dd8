// Package metrics provides collection and aggregation of per-case
// evaluation results.
package metrics

import (
	"sort"
	"sync"
	"time"

	"github.com/lamim/extract-api-bench/internal/evaluator"
)

// CaseResult represents a single case evaluation result. CaseIndex is
// the case's position in input order across the whole run and drives
// report ordering.
type CaseResult struct {
	CaseIndex int                    `json:"case_index"`
	CaseID    string                 `json:"case_id"`
	Dataset   string                 `json:"dataset"`
	Success   bool                   `json:"success"`
	Error     string                 `json:"error,omitempty"`
	ErrorKind string                 `json:"error_kind,omitempty"`
	Scores    []evaluator.FieldScore `json:"scores,omitempty"`
	Latency   time.Duration          `json:"latency"`
	Timestamp time.Time              `json:"timestamp"`
}

// AllPassed reports whether extraction succeeded and every evaluated
// field passed.
func (r CaseResult) AllPassed() bool {
	if !r.Success {
		return false
	}
	for _, s := range r.Scores {
		if !s.Passed {
			return false
		}
	}
	return true
}

// FieldAggregate contains per-field statistics across the cases where
// the field was evaluated.
type FieldAggregate struct {
	Field     string  `json:"field"`
	Evaluated int     `json:"evaluated"`
	Passed    int     `json:"passed"`
	MeanScore float64 `json:"mean_score"`
	PassRate  float64 `json:"pass_rate"`
}

// Summary contains aggregated metrics for a dataset
type Summary struct {
	Dataset          string           `json:"dataset"`
	TotalCases       int              `json:"total_cases"`
	SuccessfulCases  int              `json:"successful_cases"`
	FailedCases      int              `json:"failed_cases"`
	FullyPassedCases int              `json:"fully_passed_cases"`
	ErrorRate        float64          `json:"error_rate"`
	Fields           []FieldAggregate `json:"fields,omitempty"`
	ErrorBreakdown   map[string]int   `json:"error_breakdown,omitempty"`
	TotalLatency     time.Duration    `json:"total_latency"`
	AvgLatency       time.Duration    `json:"avg_latency"`
	MinLatency       time.Duration    `json:"min_latency"`
	MaxLatency       time.Duration    `json:"max_latency"`
	P50Latency       time.Duration    `json:"p50_latency"`
	P95Latency       time.Duration    `json:"p95_latency"`
	P99Latency       time.Duration    `json:"p99_latency"`
}

// Collector handles collection and aggregation of case results. Adds
// may come from concurrent runner goroutines; reads return sorted
// copies.
type Collector struct {
	results []CaseResult
	mu      sync.RWMutex
}

// NewCollector creates a new metrics collector
func NewCollector() *Collector {
	return &Collector{
		results: make([]CaseResult, 0),
	}
}

// AddResult adds a case result to the collector
func (c *Collector) AddResult(r CaseResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.results = append(c.results, r)
}

// GetResults returns all collected results in input order
func (c *Collector) GetResults() []CaseResult {
	c.mu.RLock()
	defer c.mu.RUnlock()
	results := make([]CaseResult, len(c.results))
	copy(results, c.results)
	sort.Slice(results, func(i, j int) bool {
		return results[i].CaseIndex < results[j].CaseIndex
	})
	return results
}

// GetResultsByDataset returns the dataset's results in input order
func (c *Collector) GetResultsByDataset(dataset string) []CaseResult {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var filtered []CaseResult
	for _, r := range c.results {
		if r.Dataset == dataset {
			filtered = append(filtered, r)
		}
	}
	sort.Slice(filtered, func(i, j int) bool {
		return filtered[i].CaseIndex < filtered[j].CaseIndex
	})
	return filtered
}

// GetAllDatasets returns the dataset names in input order
func (c *Collector) GetAllDatasets() []string {
	results := c.GetResults()

	seen := make(map[string]bool)
	datasets := make([]string, 0)
	for _, r := range results {
		if !seen[r.Dataset] {
			seen[r.Dataset] = true
			datasets = append(datasets, r.Dataset)
		}
	}
	return datasets
}

// ComputeSummary computes summary metrics for a dataset. It is a pure
// reduction over the gathered results and runs only after the batch
// completes.
func (c *Collector) ComputeSummary(dataset string) *Summary {
	results := c.GetResultsByDataset(dataset)

	if len(results) == 0 {
		return &Summary{Dataset: dataset}
	}

	summary := &Summary{
		Dataset:        dataset,
		TotalCases:     len(results),
		ErrorBreakdown: make(map[string]int),
	}

	type fieldAccum struct {
		evaluated int
		passed    int
		scoreSum  float64
	}
	fieldStats := make(map[string]*fieldAccum)

	var totalLatency time.Duration
	latencies := make([]time.Duration, 0, len(results))

	for i, r := range results {
		if r.Success {
			summary.SuccessfulCases++
			if r.AllPassed() {
				summary.FullyPassedCases++
			}
			for _, s := range r.Scores {
				acc := fieldStats[s.Field]
				if acc == nil {
					acc = &fieldAccum{}
					fieldStats[s.Field] = acc
				}
				acc.evaluated++
				acc.scoreSum += s.Score
				if s.Passed {
					acc.passed++
				}
			}
		} else {
			summary.FailedCases++
			if r.ErrorKind != "" {
				summary.ErrorBreakdown[r.ErrorKind]++
			} else if r.Error != "" {
				summary.ErrorBreakdown["unknown"]++
			}
		}

		totalLatency += r.Latency
		latencies = append(latencies, r.Latency)

		if i == 0 {
			summary.MinLatency = r.Latency
			summary.MaxLatency = r.Latency
		} else {
			if r.Latency < summary.MinLatency {
				summary.MinLatency = r.Latency
			}
			if r.Latency > summary.MaxLatency {
				summary.MaxLatency = r.Latency
			}
		}
	}

	summary.TotalLatency = totalLatency
	summary.AvgLatency = totalLatency / time.Duration(len(results))
	summary.ErrorRate = float64(summary.FailedCases) / float64(len(results)) * 100

	// Field aggregates in sorted field order.
	fieldNames := make([]string, 0, len(fieldStats))
	for name := range fieldStats {
		fieldNames = append(fieldNames, name)
	}
	sort.Strings(fieldNames)
	for _, name := range fieldNames {
		acc := fieldStats[name]
		summary.Fields = append(summary.Fields, FieldAggregate{
			Field:     name,
			Evaluated: acc.evaluated,
			Passed:    acc.passed,
			MeanScore: acc.scoreSum / float64(acc.evaluated),
			PassRate:  float64(acc.passed) / float64(acc.evaluated) * 100,
		})
	}

	summary.P50Latency = calculatePercentileDuration(latencies, 0.50)
	summary.P95Latency = calculatePercentileDuration(latencies, 0.95)
	summary.P99Latency = calculatePercentileDuration(latencies, 0.99)

	return summary
}

// calculatePercentileDuration calculates the percentile of a duration slice
func calculatePercentileDuration(durations []time.Duration, percentile float64) time.Duration {
	if len(durations) == 0 {
		return 0
	}

	sorted := make([]time.Duration, len(durations))
	copy(sorted, durations)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i] < sorted[j]
	})

	index := int(float64(len(sorted)-1) * percentile)
	if index < 0 {
		index = 0
	}
	if index >= len(sorted) {
		index = len(sorted) - 1
	}
	return sorted[index]
}

package metrics

import (
	"sync"
	"testing"
	"time"

	"github.com/lamim/extract-api-bench/internal/evaluator"
)

func TestCollector_AddAndGet(t *testing.T) {
	c := NewCollector()

	r1 := CaseResult{
		CaseIndex: 0,
		CaseID:    "X001",
		Dataset:   "sroie2019",
		Success:   true,
		Latency:   100 * time.Millisecond,
		Scores: []evaluator.FieldScore{
			{Field: "company", Score: 1.0, Passed: true},
		},
	}
	r2 := CaseResult{
		CaseIndex: 1,
		CaseID:    "X002",
		Dataset:   "sroie2019",
		Success:   false,
		Error:     "request failed: connection refused",
		ErrorKind: "network",
		Latency:   500 * time.Millisecond,
	}

	c.AddResult(r1)
	c.AddResult(r2)

	results := c.GetResults()
	if len(results) != 2 {
		t.Errorf("expected 2 results, got %d", len(results))
	}

	// Verify data integrity
	if results[0].CaseID != "X001" {
		t.Errorf("expected first result X001, got %s", results[0].CaseID)
	}
	if results[1].ErrorKind != "network" {
		t.Errorf("expected second result error kind network, got %s", results[1].ErrorKind)
	}
}

func TestCollector_ResultsSortedByCaseIndex(t *testing.T) {
	c := NewCollector()

	// Completion order differs from input order.
	c.AddResult(CaseResult{CaseIndex: 2, CaseID: "X003", Dataset: "sroie2019"})
	c.AddResult(CaseResult{CaseIndex: 0, CaseID: "X001", Dataset: "sroie2019"})
	c.AddResult(CaseResult{CaseIndex: 1, CaseID: "X002", Dataset: "sroie2019"})

	results := c.GetResults()
	expected := []string{"X001", "X002", "X003"}
	for i := range expected {
		if results[i].CaseID != expected[i] {
			t.Fatalf("expected results[%d]=%s, got %s", i, expected[i], results[i].CaseID)
		}
	}
}

func TestCollector_GetByDataset(t *testing.T) {
	c := NewCollector()

	c.AddResult(CaseResult{CaseIndex: 0, Dataset: "sroie2019", CaseID: "X001"})
	c.AddResult(CaseResult{CaseIndex: 1, Dataset: "sroie2019", CaseID: "X002"})
	c.AddResult(CaseResult{CaseIndex: 2, Dataset: "handwriting", CaseID: "a01-000u"})

	receipts := c.GetResultsByDataset("sroie2019")
	if len(receipts) != 2 {
		t.Errorf("expected 2 sroie2019 results, got %d", len(receipts))
	}

	handwriting := c.GetResultsByDataset("handwriting")
	if len(handwriting) != 1 {
		t.Errorf("expected 1 handwriting result, got %d", len(handwriting))
	}

	empty := c.GetResultsByDataset("nonexistent")
	if len(empty) != 0 {
		t.Errorf("expected 0 results for nonexistent dataset, got %d", len(empty))
	}
}

func TestCollector_GetAllDatasets_InputOrder(t *testing.T) {
	c := NewCollector()

	// sroie2019 comes first in input order even though handwriting
	// results arrived first.
	c.AddResult(CaseResult{CaseIndex: 5, Dataset: "handwriting"})
	c.AddResult(CaseResult{CaseIndex: 0, Dataset: "sroie2019"})
	c.AddResult(CaseResult{CaseIndex: 6, Dataset: "handwriting"})
	c.AddResult(CaseResult{CaseIndex: 1, Dataset: "sroie2019"})

	datasets := c.GetAllDatasets()
	expected := []string{"sroie2019", "handwriting"}
	if len(datasets) != len(expected) {
		t.Fatalf("expected %d datasets, got %d", len(expected), len(datasets))
	}
	for i := range expected {
		if datasets[i] != expected[i] {
			t.Fatalf("expected datasets[%d]=%q, got %q", i, expected[i], datasets[i])
		}
	}
}

func TestCaseResult_AllPassed(t *testing.T) {
	passed := CaseResult{
		Success: true,
		Scores: []evaluator.FieldScore{
			{Field: "company", Passed: true},
			{Field: "total", Passed: true},
		},
	}
	if !passed.AllPassed() {
		t.Error("expected case with all passing fields to be fully passed")
	}

	mixed := CaseResult{
		Success: true,
		Scores: []evaluator.FieldScore{
			{Field: "company", Passed: true},
			{Field: "total", Passed: false},
		},
	}
	if mixed.AllPassed() {
		t.Error("expected case with a failing field to not be fully passed")
	}

	errored := CaseResult{Success: false}
	if errored.AllPassed() {
		t.Error("expected errored case to not be fully passed")
	}
}

func TestComputeSummary_Empty(t *testing.T) {
	c := NewCollector()

	summary := c.ComputeSummary("sroie2019")

	if summary.Dataset != "sroie2019" {
		t.Errorf("expected dataset sroie2019, got %s", summary.Dataset)
	}
	if summary.TotalCases != 0 {
		t.Errorf("expected 0 total cases, got %d", summary.TotalCases)
	}
}

func TestComputeSummary_SingleResult(t *testing.T) {
	c := NewCollector()
	c.AddResult(CaseResult{
		Dataset: "sroie2019",
		Success: true,
		Latency: 100 * time.Millisecond,
		Scores: []evaluator.FieldScore{
			{Field: "company", Score: 1.0, Passed: true},
		},
	})

	summary := c.ComputeSummary("sroie2019")

	if summary.TotalCases != 1 {
		t.Errorf("expected 1 total case, got %d", summary.TotalCases)
	}
	if summary.SuccessfulCases != 1 {
		t.Errorf("expected 1 successful case, got %d", summary.SuccessfulCases)
	}
	if summary.AvgLatency != 100*time.Millisecond {
		t.Errorf("expected avg latency 100ms, got %v", summary.AvgLatency)
	}
	if summary.MinLatency != 100*time.Millisecond || summary.MaxLatency != 100*time.Millisecond {
		t.Errorf("expected min=max=100ms, got min=%v max=%v", summary.MinLatency, summary.MaxLatency)
	}
}

func TestComputeSummary_FieldAggregates(t *testing.T) {
	c := NewCollector()
	c.AddResult(CaseResult{
		CaseIndex: 0,
		Dataset:   "sroie2019",
		Success:   true,
		Latency:   100 * time.Millisecond,
		Scores: []evaluator.FieldScore{
			{Field: "company", Score: 1.0, Passed: true},
			{Field: "total", Score: 1.0, Passed: true},
		},
	})
	c.AddResult(CaseResult{
		CaseIndex: 1,
		Dataset:   "sroie2019",
		Success:   true,
		Latency:   200 * time.Millisecond,
		Scores: []evaluator.FieldScore{
			{Field: "company", Score: 0.6, Passed: false},
			{Field: "total", Score: 1.0, Passed: true},
		},
	})

	summary := c.ComputeSummary("sroie2019")

	if len(summary.Fields) != 2 {
		t.Fatalf("expected 2 field aggregates, got %d", len(summary.Fields))
	}

	// Sorted field order: company before total.
	company := summary.Fields[0]
	if company.Field != "company" {
		t.Fatalf("expected first aggregate for company, got %s", company.Field)
	}
	if company.Evaluated != 2 {
		t.Errorf("expected company evaluated 2, got %d", company.Evaluated)
	}
	if company.Passed != 1 {
		t.Errorf("expected company passed 1, got %d", company.Passed)
	}
	if company.MeanScore != 0.8 {
		t.Errorf("expected company mean score 0.8, got %.4f", company.MeanScore)
	}
	if company.PassRate != 50 {
		t.Errorf("expected company pass rate 50, got %.2f", company.PassRate)
	}

	total := summary.Fields[1]
	if total.PassRate != 100 {
		t.Errorf("expected total pass rate 100, got %.2f", total.PassRate)
	}
	if summary.FullyPassedCases != 1 {
		t.Errorf("expected 1 fully passed case, got %d", summary.FullyPassedCases)
	}
}

func TestComputeSummary_ErrorBreakdown(t *testing.T) {
	c := NewCollector()
	c.AddResult(CaseResult{Dataset: "sroie2019", Success: true, Scores: []evaluator.FieldScore{{Field: "company", Score: 1, Passed: true}}})
	c.AddResult(CaseResult{Dataset: "sroie2019", Success: false, Error: "request failed", ErrorKind: "network"})
	c.AddResult(CaseResult{Dataset: "sroie2019", Success: false, Error: "request failed", ErrorKind: "network"})
	c.AddResult(CaseResult{Dataset: "sroie2019", Success: false, Error: "API returned status 500", ErrorKind: "http"})

	summary := c.ComputeSummary("sroie2019")

	if summary.FailedCases != 3 {
		t.Errorf("expected 3 failed cases, got %d", summary.FailedCases)
	}
	if summary.ErrorRate != 75 {
		t.Errorf("expected error rate 75, got %.2f", summary.ErrorRate)
	}
	if summary.ErrorBreakdown["network"] != 2 {
		t.Errorf("expected 2 network errors, got %d", summary.ErrorBreakdown["network"])
	}
	if summary.ErrorBreakdown["http"] != 1 {
		t.Errorf("expected 1 http error, got %d", summary.ErrorBreakdown["http"])
	}

	// Errored cases contribute no field stats.
	if len(summary.Fields) != 1 || summary.Fields[0].Evaluated != 1 {
		t.Errorf("expected field stats only from the successful case, got %+v", summary.Fields)
	}
}

func TestComputeSummary_LatencyStats(t *testing.T) {
	c := NewCollector()
	latencies := []time.Duration{
		50 * time.Millisecond,
		100 * time.Millisecond,
		200 * time.Millisecond,
		400 * time.Millisecond,
	}
	for i, l := range latencies {
		c.AddResult(CaseResult{CaseIndex: i, Dataset: "sroie2019", Success: true, Latency: l})
	}

	summary := c.ComputeSummary("sroie2019")

	if summary.MinLatency != 50*time.Millisecond {
		t.Errorf("expected min latency 50ms, got %v", summary.MinLatency)
	}
	if summary.MaxLatency != 400*time.Millisecond {
		t.Errorf("expected max latency 400ms, got %v", summary.MaxLatency)
	}
	expectedAvg := 750 * time.Millisecond / 4
	if summary.AvgLatency != expectedAvg {
		t.Errorf("expected avg latency %v, got %v", expectedAvg, summary.AvgLatency)
	}
	if summary.TotalLatency != 750*time.Millisecond {
		t.Errorf("expected total latency 750ms, got %v", summary.TotalLatency)
	}
	// index = int(3 * 0.50) = 1
	if summary.P50Latency != 100*time.Millisecond {
		t.Errorf("expected p50 100ms, got %v", summary.P50Latency)
	}
	// index = int(3 * 0.99) = 2
	if summary.P99Latency != 200*time.Millisecond {
		t.Errorf("expected p99 200ms, got %v", summary.P99Latency)
	}
}

func TestComputeSummary_AllFailures(t *testing.T) {
	c := NewCollector()
	c.AddResult(CaseResult{Dataset: "sroie2019", Success: false, ErrorKind: "network", Latency: 100 * time.Millisecond})
	c.AddResult(CaseResult{Dataset: "sroie2019", Success: false, ErrorKind: "parse", Latency: 200 * time.Millisecond})

	summary := c.ComputeSummary("sroie2019")

	if summary.SuccessfulCases != 0 {
		t.Errorf("expected 0 successful cases, got %d", summary.SuccessfulCases)
	}
	if summary.FailedCases != 2 {
		t.Errorf("expected 2 failed cases, got %d", summary.FailedCases)
	}
	if summary.ErrorRate != 100 {
		t.Errorf("expected error rate 100, got %.2f", summary.ErrorRate)
	}
	if len(summary.Fields) != 0 {
		t.Errorf("expected no field aggregates, got %d", len(summary.Fields))
	}
}

func TestCollector_ConcurrentAdd(t *testing.T) {
	c := NewCollector()
	var wg sync.WaitGroup

	// Add results concurrently from multiple goroutines
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			c.AddResult(CaseResult{
				CaseIndex: id,
				Dataset:   "concurrent",
				CaseID:    "case",
				Success:   id%2 == 0,
			})
		}(i)
	}

	wg.Wait()

	results := c.GetResultsByDataset("concurrent")
	if len(results) != 100 {
		t.Errorf("expected 100 concurrent results, got %d", len(results))
	}
}

func TestCollector_ConcurrentReadWrite(t *testing.T) {
	c := NewCollector()
	var wg sync.WaitGroup

	// Writers
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			c.AddResult(CaseResult{CaseIndex: id, Dataset: "mixed"})
		}(i)
	}

	// Readers
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = c.GetResults()
			_ = c.GetResultsByDataset("mixed")
			_ = c.ComputeSummary("mixed")
		}()
	}

	wg.Wait()
}

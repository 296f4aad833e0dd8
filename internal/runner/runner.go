// Package runner fans dataset cases out to the extraction API under a
// concurrency cap, scores the returned fields, and collects per-case
// results.
package runner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/lamim/extract-api-bench/internal/config"
	"github.com/lamim/extract-api-bench/internal/dataset"
	"github.com/lamim/extract-api-bench/internal/debug"
	"github.com/lamim/extract-api-bench/internal/evaluator"
	"github.com/lamim/extract-api-bench/internal/extraction"
	"github.com/lamim/extract-api-bench/internal/metrics"
	"github.com/lamim/extract-api-bench/internal/progress"
)

// Extractor is the client surface the runner depends on.
type Extractor interface {
	Extract(ctx context.Context, documentType string, cs dataset.Case) extraction.Result
}

// Batch binds one dataset's cases to the document type they are sent
// as and the registry that scores their fields.
type Batch struct {
	Dataset      string
	DocumentType string
	Cases        []dataset.Case
	Registry     *evaluator.Registry
}

// Runner executes all batches against the extraction API.
type Runner struct {
	client      Extractor
	batches     []Batch
	config      *config.Config
	collector   *metrics.Collector
	progress    *progress.Manager
	debugLogger *debug.Logger
}

// NewRunner creates a runner over the given batches.
func NewRunner(cfg *config.Config, client Extractor, batches []Batch, prog *progress.Manager, debugLog *debug.Logger) *Runner {
	return &Runner{
		client:      client,
		batches:     batches,
		config:      cfg,
		collector:   metrics.NewCollector(),
		progress:    prog,
		debugLogger: debugLog,
	}
}

// TotalCases returns the number of cases across all batches.
func (r *Runner) TotalCases() int {
	total := 0
	for _, b := range r.batches {
		total += len(b.Cases)
	}
	return total
}

// Run sends every case through the extraction API, at most
// Concurrency cases in flight at once. Case failures are recorded as
// results and never abort the run; Run returns an error only when the
// parent context is canceled.
func (r *Runner) Run(ctx context.Context) error {
	if r.progress != nil && r.progress.IsEnabled() {
		fmt.Println("Starting benchmark...")
	} else {
		fmt.Printf("Starting benchmark with %d cases across %d datasets\n", r.TotalCases(), len(r.batches))
		fmt.Printf("Concurrency: %d, Timeout: %s\n\n", r.config.General.Concurrency, r.config.General.Timeout)
	}

	// Create semaphore for concurrency control
	sem := make(chan struct{}, r.config.General.Concurrency)
	var wg sync.WaitGroup

	// Case index counts across batches so reports keep input order.
	index := 0
	for _, batch := range r.batches {
		for _, cs := range batch.Cases {
			wg.Add(1)
			go func(idx int, b Batch, c dataset.Case) {
				defer wg.Done()
				sem <- struct{}{}
				defer func() { <-sem }()

				r.runCase(ctx, idx, b, c)
			}(index, batch, cs)
			index++
		}
	}

	wg.Wait()

	if r.progress != nil {
		r.progress.Finish()
	}

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("run interrupted: %w", err)
	}

	fmt.Println("\nBenchmark completed!")

	return nil
}

func (r *Runner) runCase(ctx context.Context, index int, batch Batch, cs dataset.Case) {
	result := metrics.CaseResult{
		CaseIndex: index,
		CaseID:    cs.ID,
		Dataset:   batch.Dataset,
		Timestamp: time.Now(),
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, r.config.General.TimeoutDuration())
	defer cancel()

	// Start debug logging for this case. The client picks the logger
	// up from the context and records request/response/error detail.
	if r.debugLogger != nil && r.debugLogger.IsEnabled() {
		caseLog := r.debugLogger.StartCase(batch.Dataset, cs.ID)
		timeoutCtx = extraction.WithDebugLogger(timeoutCtx, r.debugLogger)
		timeoutCtx = extraction.WithCaseLog(timeoutCtx, caseLog)
		defer r.debugLogger.EndCase(caseLog)
	}

	if r.progress != nil {
		r.progress.StartCase(batch.Dataset, cs.ID)
	}

	if r.progress == nil || !r.progress.IsEnabled() {
		fmt.Printf("[%s] Running '%s'...\n", batch.Dataset, cs.ID)
	}

	extRes := r.client.Extract(timeoutCtx, batch.DocumentType, cs)
	result.Latency = extRes.Latency

	if extRes.Err != nil {
		result.Success = false
		result.Error = extRes.Err.Message
		result.ErrorKind = string(extRes.Err.Kind)

		if r.progress == nil || !r.progress.IsEnabled() {
			fmt.Printf("  ✗ %s failed: %s\n", cs.ID, extRes.Err.Message)
		}
	} else {
		result.Success = true
		result.Scores = batch.Registry.Evaluate(cs.Expected, extRes.Fields)

		if r.progress == nil || !r.progress.IsEnabled() {
			passed := 0
			for _, s := range result.Scores {
				if s.Passed {
					passed++
				}
			}
			fmt.Printf("  ✓ %s: %d/%d fields passed, %v latency\n",
				cs.ID, passed, len(result.Scores), extRes.Latency.Round(time.Millisecond))
		}
	}

	if r.progress != nil {
		r.progress.CompleteCase(batch.Dataset, cs.ID, result.AllPassed())
	}

	r.collector.AddResult(result)
}

// GetCollector returns the metrics collector
func (r *Runner) GetCollector() *metrics.Collector {
	return r.collector
}

// EnsureOutputDir creates a timestamped session subdirectory for results
func (r *Runner) EnsureOutputDir() error {
	// Create a timestamped subdirectory for this session
	timestamp := time.Now().Format("2006-01-02_15-04-05")
	sessionDir := filepath.Join(r.config.General.OutputDir, timestamp)

	// Update config to use the session directory for this run
	r.config.General.OutputDir = sessionDir

	// #nosec G301 - 0750 is more restrictive than 0755 but still allows owner/group access
	return os.MkdirAll(sessionDir, 0750)
}

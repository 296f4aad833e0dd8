// Package report renders evaluation results as console text and as
// persisted Markdown, JSON, and HTML files.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lamim/extract-api-bench/internal/metrics"
)

// Generator creates reports from collected case results
type Generator struct {
	collector *metrics.Collector
	outputDir string
	endpoint  string
}

// NewGenerator creates a new report generator
func NewGenerator(collector *metrics.Collector, outputDir, endpoint string) *Generator {
	return &Generator{
		collector: collector,
		outputDir: outputDir,
		endpoint:  endpoint,
	}
}

// GenerateAll generates all report formats
func (g *Generator) GenerateAll() error {
	if err := g.GenerateMarkdown(); err != nil {
		return fmt.Errorf("failed to generate markdown report: %w", err)
	}
	if err := g.GenerateJSON(); err != nil {
		return fmt.Errorf("failed to generate JSON report: %w", err)
	}
	if err := g.GenerateHTML(); err != nil {
		return fmt.Errorf("failed to generate HTML report: %w", err)
	}
	return nil
}

// GenerateMarkdown creates a markdown summary report
func (g *Generator) GenerateMarkdown() error {
	datasets := g.collector.GetAllDatasets()
	timestamp := time.Now().Format("2006-01-02 15:04:05")

	var sb strings.Builder
	sb.WriteString("# Document Extraction Benchmark Report\n\n")
	sb.WriteString(fmt.Sprintf("**Generated:** %s\n\n", timestamp))
	sb.WriteString(fmt.Sprintf("**Endpoint:** %s\n\n", g.endpoint))

	// Overview table
	sb.WriteString("## Summary\n\n")
	sb.WriteString("| Dataset | Cases | Extracted | Errors | Fully Passed | Avg Latency | P95 Latency |\n")
	sb.WriteString("|---------|-------|-----------|--------|--------------|-------------|-------------|\n")

	for _, ds := range datasets {
		summary := g.collector.ComputeSummary(ds)
		if summary == nil {
			continue
		}
		sb.WriteString(fmt.Sprintf("| %s | %d | %d | %d | %d | %v | %v |\n",
			summary.Dataset,
			summary.TotalCases,
			summary.SuccessfulCases,
			summary.FailedCases,
			summary.FullyPassedCases,
			summary.AvgLatency.Round(time.Millisecond),
			summary.P95Latency.Round(time.Millisecond),
		))
	}

	sb.WriteString("\n")

	// Per-field aggregates
	sb.WriteString("## Field Results\n\n")

	for _, ds := range datasets {
		summary := g.collector.ComputeSummary(ds)
		if summary == nil || len(summary.Fields) == 0 {
			continue
		}

		sb.WriteString(fmt.Sprintf("### %s\n\n", ds))
		sb.WriteString("| Field | Evaluated | Passed | Pass Rate | Mean Score |\n")
		sb.WriteString("|-------|-----------|--------|-----------|------------|\n")
		for _, f := range summary.Fields {
			sb.WriteString(fmt.Sprintf("| %s | %d | %d | %.1f%% | %.3f |\n",
				f.Field, f.Evaluated, f.Passed, f.PassRate, f.MeanScore))
		}
		sb.WriteString("\n")
	}

	// Detailed results by dataset
	sb.WriteString("## Detailed Results\n\n")

	for _, ds := range datasets {
		sb.WriteString(fmt.Sprintf("### %s\n\n", ds))
		sb.WriteString("| # | Case | Status | Fields Passed | Latency | Error |\n")
		sb.WriteString("|---|------|--------|---------------|---------|-------|\n")

		for i, r := range g.collector.GetResultsByDataset(ds) {
			status := "✅ Pass"
			if !r.AllPassed() {
				status = "❌ Fail"
			}

			fields := "-"
			if r.Success {
				passed := 0
				for _, s := range r.Scores {
					if s.Passed {
						passed++
					}
				}
				fields = fmt.Sprintf("%d/%d", passed, len(r.Scores))
			}

			errText := ""
			if r.Error != "" {
				errText = fmt.Sprintf("%s: %s", r.ErrorKind, r.Error)
			}

			sb.WriteString(fmt.Sprintf("| %d | %s | %s | %s | %v | %s |\n",
				i+1,
				r.CaseID,
				status,
				fields,
				r.Latency.Round(time.Millisecond),
				errText,
			))
		}
		sb.WriteString("\n")
	}

	// Write file
	outputPath := filepath.Join(g.outputDir, "report.md")
	// #nosec G306 - 0640 allows owner/group to read, which is appropriate for report files
	return os.WriteFile(outputPath, []byte(sb.String()), 0640)
}

// GenerateJSON creates a JSON report with raw data
func (g *Generator) GenerateJSON() error {
	data := map[string]interface{}{
		"timestamp": time.Now(),
		"endpoint":  g.endpoint,
		"datasets":  g.collector.GetAllDatasets(),
		"results":   g.collector.GetResults(),
	}

	// Add summaries
	summaries := make(map[string]*metrics.Summary)
	for _, ds := range g.collector.GetAllDatasets() {
		summaries[ds] = g.collector.ComputeSummary(ds)
	}
	data["summaries"] = summaries

	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return err
	}

	outputPath := filepath.Join(g.outputDir, "report.json")
	// #nosec G306 - 0640 allows owner/group to read, which is appropriate for report files
	return os.WriteFile(outputPath, jsonData, 0640)
}

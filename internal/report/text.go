package report

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
)

const textRule = "================================================================================"

// WriteText renders the full evaluation report to w. Output is a pure
// function of the collected results: the same results always produce
// the same bytes, so tests can compare renderings directly.
func (g *Generator) WriteText(w io.Writer) error {
	var sb strings.Builder

	datasets := g.collector.GetAllDatasets()
	results := g.collector.GetResults()

	sb.WriteString(textRule + "\n")
	sb.WriteString(" Document Extraction Benchmark Report\n")
	sb.WriteString(textRule + "\n\n")

	fmt.Fprintf(&sb, "Endpoint: %s\n", g.endpoint)
	fmt.Fprintf(&sb, "Datasets: %d (%s)\n", len(datasets), strings.Join(datasets, ", "))
	fmt.Fprintf(&sb, "Cases:    %d\n", len(results))

	for _, ds := range datasets {
		dsResults := g.collector.GetResultsByDataset(ds)
		fmt.Fprintf(&sb, "\n--- Dataset: %s (%d cases) ---\n", ds, len(dsResults))

		for i, r := range dsResults {
			fmt.Fprintf(&sb, "\n[%d] %s (%v)\n", i+1, r.CaseID, r.Latency.Round(time.Millisecond))

			if !r.Success {
				fmt.Fprintf(&sb, "    ✗ %s error: %s\n", r.ErrorKind, r.Error)
				continue
			}

			for _, s := range r.Scores {
				mark := "✓"
				if !s.Passed {
					mark = "✗"
				}
				fmt.Fprintf(&sb, "    %s %-12s %.3f  exp=%q  got=%q", mark, s.Field, s.Score, s.Expected, s.Actual)
				if s.Reason != "" {
					fmt.Fprintf(&sb, "  (%s)", s.Reason)
				}
				sb.WriteString("\n")
			}
		}

		summary := g.collector.ComputeSummary(ds)
		if summary == nil || len(summary.Fields) == 0 {
			continue
		}

		fmt.Fprintf(&sb, "\nField results for %s:\n", ds)
		table := tablewriter.NewWriter(&sb)
		table.Header([]string{"Field", "Evaluated", "Passed", "Pass Rate", "Mean Score"})
		for _, f := range summary.Fields {
			table.Append([]string{
				f.Field,
				fmt.Sprintf("%d", f.Evaluated),
				fmt.Sprintf("%d", f.Passed),
				fmt.Sprintf("%.1f%%", f.PassRate),
				fmt.Sprintf("%.3f", f.MeanScore),
			})
		}
		table.Render()
	}

	sb.WriteString("\nRun summary:\n")
	table := tablewriter.NewWriter(&sb)
	table.Header([]string{"Dataset", "Cases", "Extracted", "Errors", "Fully Passed", "Avg", "P50", "P95", "P99"})
	for _, ds := range datasets {
		summary := g.collector.ComputeSummary(ds)
		if summary == nil {
			continue
		}
		table.Append([]string{
			summary.Dataset,
			fmt.Sprintf("%d", summary.TotalCases),
			fmt.Sprintf("%d", summary.SuccessfulCases),
			fmt.Sprintf("%d", summary.FailedCases),
			fmt.Sprintf("%d", summary.FullyPassedCases),
			summary.AvgLatency.Round(time.Millisecond).String(),
			summary.P50Latency.Round(time.Millisecond).String(),
			summary.P95Latency.Round(time.Millisecond).String(),
			summary.P99Latency.Round(time.Millisecond).String(),
		})
	}
	table.Render()

	if line := g.errorBreakdownLine(datasets); line != "" {
		sb.WriteString("\n" + line + "\n")
	}

	sb.WriteString("\n" + textRule + "\n")

	_, err := io.WriteString(w, sb.String())
	return err
}

// errorBreakdownLine folds the per-dataset error breakdowns into one
// sorted line, empty when the run had no errors.
func (g *Generator) errorBreakdownLine(datasets []string) string {
	totals := make(map[string]int)
	for _, ds := range datasets {
		summary := g.collector.ComputeSummary(ds)
		if summary == nil {
			continue
		}
		for kind, n := range summary.ErrorBreakdown {
			totals[kind] += n
		}
	}
	if len(totals) == 0 {
		return ""
	}

	kinds := make([]string, 0, len(totals))
	for kind := range totals {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)

	parts := make([]string, 0, len(kinds))
	for _, kind := range kinds {
		parts = append(parts, fmt.Sprintf("%s %d", kind, totals[kind]))
	}
	return "Errors by kind: " + strings.Join(parts, ", ")
}

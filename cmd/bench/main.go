// Package main provides the entry point for the document extraction
// benchmark tool.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/lamim/extract-api-bench/internal/config"
	"github.com/lamim/extract-api-bench/internal/dataset"
	"github.com/lamim/extract-api-bench/internal/debug"
	"github.com/lamim/extract-api-bench/internal/evaluator"
	"github.com/lamim/extract-api-bench/internal/extraction"
	"github.com/lamim/extract-api-bench/internal/progress"
	"github.com/lamim/extract-api-bench/internal/report"
	"github.com/lamim/extract-api-bench/internal/runner"
)

// version is stamped at build time via -ldflags "-X main.version=..."
var version = "dev"

type cliFlags struct {
	configPath    *string
	datasets      *string
	endpoint      *string
	concurrency   *int
	timeout       *string
	limit         *int
	outputDir     *string
	format        *string
	noProgress    *bool
	debugMode     *bool
	debugFullMode *bool
	showVersion   *bool
}

func parseFlags() *cliFlags {
	return &cliFlags{
		configPath:    flag.String("config", "config.toml", "Path to configuration file"),
		datasets:      flag.String("datasets", "all", "Datasets to evaluate: all, or a comma-separated list of names"),
		endpoint:      flag.String("endpoint", "", "Extraction API base URL (overrides config)"),
		concurrency:   flag.Int("concurrency", 0, "Max in-flight extraction requests (overrides config)"),
		timeout:       flag.String("timeout", "", "Per-case timeout, e.g. 45s (overrides config)"),
		limit:         flag.Int("limit", 0, "Evaluate at most N cases per dataset (0 = all)"),
		outputDir:     flag.String("output", "", "Output directory for reports (overrides config)"),
		format:        flag.String("format", "all", "Persisted report format: all, md, json, html, none"),
		noProgress:    flag.Bool("no-progress", false, "Disable progress bar (useful for CI)"),
		debugMode:     flag.Bool("debug", false, "Enable debug logging with request/response data"),
		debugFullMode: flag.Bool("debug-full", false, "Enable full debug logging with complete request/response bodies and timing breakdown"),
		showVersion:   flag.Bool("version", false, "Print version and exit"),
	}
}

func loadEnvFile() {
	if data, err := os.ReadFile(".env"); err == nil {
		lines := strings.Split(string(data), "\n")
		for _, line := range lines {
			line = strings.TrimSpace(line)
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			parts := strings.SplitN(line, "=", 2)
			if len(parts) == 2 {
				key := strings.TrimSpace(parts[0])
				value := strings.TrimSpace(parts[1])
				value = strings.Trim(value, `"'`)
				_ = os.Setenv(key, value)
			}
		}
	}
}

func main() {
	flags := parseFlags()
	flag.Parse()

	if *flags.showVersion {
		fmt.Printf("extract-api-bench %s\n", version)
		return
	}

	loadEnvFile()

	cfg, err := config.Load(*flags.configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	applyOverrides(cfg, flags)

	selected := filterDatasets(cfg.Datasets, *flags.datasets)
	if len(selected) == 0 {
		fmt.Fprintf(os.Stderr, "Error: no datasets match %q (configured: %s)\n",
			*flags.datasets, strings.Join(datasetNames(cfg.Datasets), ", "))
		os.Exit(1)
	}
	cfg.Datasets = selected

	finalOutputDir, err := ensureOutputDir(cfg.General.OutputDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating output directory: %v\n", err)
		os.Exit(1)
	}
	cfg.General.OutputDir = finalOutputDir

	// Enable debug mode if debug-full is set
	enableDebug := *flags.debugMode || *flags.debugFullMode
	debugLogger := debug.NewLogger(enableDebug, *flags.debugFullMode, cfg.General.OutputDir)

	printBanner()

	if enableDebug {
		if *flags.debugFullMode {
			fmt.Printf("🐛 Debug-full mode enabled: complete bodies + timing breakdown\n")
			fmt.Printf("   Logging to: %s/\n\n", debugLogger.GetOutputPath())
		} else {
			fmt.Printf("🐛 Debug mode enabled: logging to %s/\n\n", debugLogger.GetOutputPath())
		}
	}

	client, err := extraction.NewClient(cfg.General.Endpoint, cfg.General.APIKeyEnv, cfg.General.TimeoutDuration())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	batches, err := loadBatches(cfg, *flags.limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	totalCases := 0
	for _, b := range batches {
		totalCases += len(b.Cases)
	}

	// Create progress manager
	prog := progress.NewManager(totalCases, !*flags.noProgress)

	// Create runner with progress manager and debug logger
	run := runner.NewRunner(cfg, client, batches, prog, debugLogger)

	// SIGINT cancels in-flight cases; the run then exits non-zero
	// without writing a partial report.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run.Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error running benchmark: %v\n", err)
		os.Exit(1)
	}

	// Finalize debug logging
	if enableDebug {
		if err := debugLogger.Finalize(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to write debug log: %v\n", err)
		} else {
			fmt.Printf("✓ Debug logs written to: %s/\n", debugLogger.GetOutputPath())
		}
	}

	gen := report.NewGenerator(run.GetCollector(), cfg.General.OutputDir, cfg.General.Endpoint)

	// The console report is the primary output and always renders.
	if err := gen.WriteText(os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing report: %v\n", err)
		os.Exit(1)
	}

	generateReports(flags.format, gen, cfg.General.OutputDir)
}

func printBanner() {
	fmt.Println(`
╔══════════════════════════════════════════════════════════════╗
║            Document Extraction API Benchmark                 ║
║      Receipt and handwriting field accuracy evaluation       ║
╚══════════════════════════════════════════════════════════════╝`)
	fmt.Println()
}

// applyOverrides folds CLI flags into the loaded configuration.
func applyOverrides(cfg *config.Config, flags *cliFlags) {
	if *flags.endpoint != "" {
		cfg.General.Endpoint = *flags.endpoint
	}
	if *flags.concurrency > 0 {
		cfg.General.Concurrency = *flags.concurrency
	}
	if *flags.timeout != "" {
		cfg.General.Timeout = *flags.timeout
	}
	if *flags.outputDir != "" {
		cfg.General.OutputDir = *flags.outputDir
	}
}

// loadBatches reads every selected dataset manifest and pairs its
// cases with the registry scoring them.
func loadBatches(cfg *config.Config, limit int) ([]runner.Batch, error) {
	opts := evaluator.DefaultOptions()
	opts.SimilarityThreshold = cfg.Evaluation.SimilarityThreshold
	opts.NumericThreshold = cfg.Evaluation.NumericThreshold
	opts.AllowDayMonthSwap = cfg.Evaluation.DayMonthSwapAllowed()
	if len(cfg.Evaluation.DateFormats) > 0 {
		opts.DateFormats = cfg.Evaluation.DateFormats
	}

	batches := make([]runner.Batch, 0, len(cfg.Datasets))
	for _, ds := range cfg.Datasets {
		var cases []dataset.Case
		var err error

		switch ds.Type {
		case "receipts":
			cases, err = dataset.LoadReceiptManifest(ds.Manifest)
		case "handwriting":
			cases, err = dataset.LoadHandwritingManifest(ds.Manifest, ds.ImagesDir)
		default:
			err = fmt.Errorf("unknown dataset type: %s", ds.Type)
		}
		if err != nil {
			return nil, fmt.Errorf("loading dataset '%s': %w", ds.Name, err)
		}

		if limit > 0 && len(cases) > limit {
			cases = cases[:limit]
		}

		fields := make(map[string]evaluator.Kind, len(ds.Fields))
		for name, kind := range ds.Fields {
			fields[name] = evaluator.Kind(kind)
		}
		registry, err := evaluator.NewRegistry(fields, opts)
		if err != nil {
			return nil, fmt.Errorf("dataset '%s': %w", ds.Name, err)
		}

		fmt.Printf("✓ Loaded dataset '%s': %d cases (%s)\n", ds.Name, len(cases), ds.DocumentType)

		batches = append(batches, runner.Batch{
			Dataset:      ds.Name,
			DocumentType: ds.DocumentType,
			Cases:        cases,
			Registry:     registry,
		})
	}

	return batches, nil
}

func generateReports(formatFlag *string, gen *report.Generator, outputDir string) {
	formats := parseFormats(*formatFlag)
	if len(formats) == 0 {
		return
	}

	fmt.Println("\nGenerating reports...")
	for _, f := range formats {
		switch f {
		case "html":
			if err := gen.GenerateHTML(); err != nil {
				fmt.Fprintf(os.Stderr, "Error generating HTML report: %v\n", err)
			} else {
				fmt.Printf("✓ Generated HTML report: %s/report.html\n", outputDir)
			}
		case "md":
			if err := gen.GenerateMarkdown(); err != nil {
				fmt.Fprintf(os.Stderr, "Error generating Markdown report: %v\n", err)
			} else {
				fmt.Printf("✓ Generated Markdown report: %s/report.md\n", outputDir)
			}
		case "json":
			if err := gen.GenerateJSON(); err != nil {
				fmt.Fprintf(os.Stderr, "Error generating JSON report: %v\n", err)
			} else {
				fmt.Printf("✓ Generated JSON report: %s/report.json\n", outputDir)
			}
		case "all":
			if err := gen.GenerateAll(); err != nil {
				fmt.Fprintf(os.Stderr, "Error generating reports: %v\n", err)
			} else {
				fmt.Printf("✓ Generated all reports in: %s/\n", outputDir)
			}
		default:
			fmt.Fprintf(os.Stderr, "Warning: unknown report format %q\n", f)
		}
	}
}

// filterDatasets keeps the configured datasets named in filter, in
// configuration order. "all" keeps everything.
func filterDatasets(datasets []config.DatasetConfig, filter string) []config.DatasetConfig {
	if filter == "all" {
		return datasets
	}

	wanted := make(map[string]bool)
	for _, name := range strings.Split(filter, ",") {
		wanted[strings.TrimSpace(name)] = true
	}

	var filtered []config.DatasetConfig
	for _, ds := range datasets {
		if wanted[ds.Name] {
			filtered = append(filtered, ds)
		}
	}
	return filtered
}

func datasetNames(datasets []config.DatasetConfig) []string {
	names := make([]string, 0, len(datasets))
	for _, ds := range datasets {
		names = append(names, ds.Name)
	}
	return names
}

func parseFormats(s string) []string {
	if s == "none" || s == "" {
		return nil
	}
	if s == "all" {
		return []string{"all"}
	}
	return strings.Split(s, ",")
}

// ensureOutputDir creates a timestamped subdirectory for results
func ensureOutputDir(baseDir string) (string, error) {
	timestamp := time.Now().Format("2006-01-02_15-04-05")
	sessionDir := filepath.Join(baseDir, timestamp)

	if err := os.MkdirAll(sessionDir, 0750); err != nil {
		return "", err
	}

	return sessionDir, nil
}

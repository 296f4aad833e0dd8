package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lamim/extract-api-bench/internal/config"
)

func strPtr(s string) *string { return &s }
func intPtr(v int) *int       { return &v }

func TestParseFormats_All(t *testing.T) {
	result := parseFormats("all")
	if len(result) != 1 || result[0] != "all" {
		t.Errorf("expected [all], got %v", result)
	}
}

func TestParseFormats_Single(t *testing.T) {
	result := parseFormats("html")
	if len(result) != 1 || result[0] != "html" {
		t.Errorf("expected [html], got %v", result)
	}
}

func TestParseFormats_List(t *testing.T) {
	result := parseFormats("html,md,json")
	expected := []string{"html", "md", "json"}
	if len(result) != 3 {
		t.Fatalf("expected 3 formats, got %d", len(result))
	}
	for i, exp := range expected {
		if result[i] != exp {
			t.Errorf("expected %s at index %d, got %s", exp, i, result[i])
		}
	}
}

func TestParseFormats_None(t *testing.T) {
	if result := parseFormats("none"); result != nil {
		t.Errorf("expected nil for 'none', got %v", result)
	}
	if result := parseFormats(""); result != nil {
		t.Errorf("expected nil for empty string, got %v", result)
	}
}

func TestFilterDatasets_All(t *testing.T) {
	datasets := []config.DatasetConfig{{Name: "receipts"}, {Name: "handwriting"}}
	result := filterDatasets(datasets, "all")
	if len(result) != 2 {
		t.Errorf("expected 2 datasets for 'all', got %d", len(result))
	}
}

func TestFilterDatasets_Single(t *testing.T) {
	datasets := []config.DatasetConfig{{Name: "receipts"}, {Name: "handwriting"}}
	result := filterDatasets(datasets, "handwriting")
	if len(result) != 1 || result[0].Name != "handwriting" {
		t.Errorf("expected [handwriting], got %v", datasetNames(result))
	}
}

func TestFilterDatasets_ListKeepsConfigOrder(t *testing.T) {
	datasets := []config.DatasetConfig{{Name: "a"}, {Name: "b"}, {Name: "c"}}
	result := filterDatasets(datasets, "c, a")
	if len(result) != 2 {
		t.Fatalf("expected 2 datasets, got %d", len(result))
	}
	// Configuration order wins over filter order.
	if result[0].Name != "a" || result[1].Name != "c" {
		t.Errorf("expected [a c], got %v", datasetNames(result))
	}
}

func TestFilterDatasets_UnknownName(t *testing.T) {
	datasets := []config.DatasetConfig{{Name: "receipts"}}
	result := filterDatasets(datasets, "invoices")
	if len(result) != 0 {
		t.Errorf("expected no datasets, got %v", datasetNames(result))
	}
}

func TestApplyOverrides(t *testing.T) {
	cfg := &config.Config{
		General: config.GeneralConfig{
			Endpoint:    "http://localhost:8000",
			Concurrency: 20,
			Timeout:     "30s",
			OutputDir:   "./results",
		},
	}

	flags := &cliFlags{
		endpoint:    strPtr("http://10.0.0.5:9000"),
		concurrency: intPtr(5),
		timeout:     strPtr("45s"),
		outputDir:   strPtr("/tmp/out"),
	}
	applyOverrides(cfg, flags)

	if cfg.General.Endpoint != "http://10.0.0.5:9000" {
		t.Errorf("endpoint override not applied: %s", cfg.General.Endpoint)
	}
	if cfg.General.Concurrency != 5 {
		t.Errorf("concurrency override not applied: %d", cfg.General.Concurrency)
	}
	if cfg.General.Timeout != "45s" {
		t.Errorf("timeout override not applied: %s", cfg.General.Timeout)
	}
	if cfg.General.OutputDir != "/tmp/out" {
		t.Errorf("output override not applied: %s", cfg.General.OutputDir)
	}
}

func TestApplyOverrides_ZeroValuesKeepConfig(t *testing.T) {
	cfg := &config.Config{
		General: config.GeneralConfig{
			Endpoint:    "http://localhost:8000",
			Concurrency: 20,
			Timeout:     "30s",
			OutputDir:   "./results",
		},
	}

	flags := &cliFlags{
		endpoint:    strPtr(""),
		concurrency: intPtr(0),
		timeout:     strPtr(""),
		outputDir:   strPtr(""),
	}
	applyOverrides(cfg, flags)

	if cfg.General.Endpoint != "http://localhost:8000" || cfg.General.Concurrency != 20 ||
		cfg.General.Timeout != "30s" || cfg.General.OutputDir != "./results" {
		t.Errorf("zero-valued flags must not override config: %+v", cfg.General)
	}
}

// writeReceiptFixture lays out n receipt cases with image and expected
// JSON files, returning the manifest path.
func writeReceiptFixture(t *testing.T, n int) string {
	t.Helper()
	dir := t.TempDir()

	var sb strings.Builder
	sb.WriteString("cases:\n")
	for i := 0; i < n; i++ {
		img := filepath.Join(dir, fmt.Sprintf("r%d.jpg", i))
		if err := os.WriteFile(img, []byte("jpg"), 0o644); err != nil {
			t.Fatalf("failed to write image: %v", err)
		}
		exp := filepath.Join(dir, fmt.Sprintf("r%d.json", i))
		if err := os.WriteFile(exp, []byte(`{"company":"ACME","total":"1.00"}`), 0o644); err != nil {
			t.Fatalf("failed to write expected output: %v", err)
		}
		fmt.Fprintf(&sb, "  - name: r%d\n    inputs: %s\n    expected_output: %s\n", i, img, exp)
	}

	manifest := filepath.Join(dir, "cases.yaml")
	if err := os.WriteFile(manifest, []byte(sb.String()), 0o644); err != nil {
		t.Fatalf("failed to write manifest: %v", err)
	}
	return manifest
}

func TestLoadBatches_Receipts(t *testing.T) {
	manifest := writeReceiptFixture(t, 3)

	cfg := &config.Config{
		Evaluation: config.EvaluationConfig{SimilarityThreshold: 0.8, NumericThreshold: 1.0},
		Datasets: []config.DatasetConfig{{
			Name:         "receipts",
			Type:         "receipts",
			Manifest:     manifest,
			DocumentType: "Receipt",
			Fields:       map[string]string{"company": "similarity", "total": "numeric"},
		}},
	}

	batches, err := loadBatches(cfg, 0)
	if err != nil {
		t.Fatalf("loadBatches failed: %v", err)
	}
	if len(batches) != 1 {
		t.Fatalf("expected 1 batch, got %d", len(batches))
	}

	b := batches[0]
	if b.Dataset != "receipts" || b.DocumentType != "Receipt" {
		t.Errorf("unexpected batch identity: %s/%s", b.Dataset, b.DocumentType)
	}
	if len(b.Cases) != 3 {
		t.Errorf("expected 3 cases, got %d", len(b.Cases))
	}
	if fields := b.Registry.Fields(); len(fields) != 2 || fields[0] != "company" || fields[1] != "total" {
		t.Errorf("unexpected registry fields: %v", fields)
	}
}

func TestLoadBatches_LimitTruncates(t *testing.T) {
	manifest := writeReceiptFixture(t, 5)

	cfg := &config.Config{
		Evaluation: config.EvaluationConfig{SimilarityThreshold: 0.8, NumericThreshold: 1.0},
		Datasets: []config.DatasetConfig{{
			Name:         "receipts",
			Type:         "receipts",
			Manifest:     manifest,
			DocumentType: "Receipt",
			Fields:       map[string]string{"company": "similarity"},
		}},
	}

	batches, err := loadBatches(cfg, 2)
	if err != nil {
		t.Fatalf("loadBatches failed: %v", err)
	}
	if len(batches[0].Cases) != 2 {
		t.Errorf("expected limit to truncate to 2 cases, got %d", len(batches[0].Cases))
	}
	// Limit takes the first cases in manifest order.
	if batches[0].Cases[0].ID != "r0" || batches[0].Cases[1].ID != "r1" {
		t.Errorf("expected cases [r0 r1], got [%s %s]", batches[0].Cases[0].ID, batches[0].Cases[1].ID)
	}
}

func TestLoadBatches_Handwriting(t *testing.T) {
	dir := t.TempDir()
	imagesDir := filepath.Join(dir, "images")
	if err := os.MkdirAll(imagesDir, 0o755); err != nil {
		t.Fatalf("failed to create images dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(imagesDir, "h1.png"), []byte("png"), 0o644); err != nil {
		t.Fatalf("failed to write image: %v", err)
	}

	manifest := filepath.Join(dir, "labels.csv")
	if err := os.WriteFile(manifest, []byte("FILENAME,IDENTITY\nh1.png,JOHN DOE\n"), 0o644); err != nil {
		t.Fatalf("failed to write manifest: %v", err)
	}

	cfg := &config.Config{
		Evaluation: config.EvaluationConfig{SimilarityThreshold: 0.8, NumericThreshold: 1.0},
		Datasets: []config.DatasetConfig{{
			Name:         "handwriting",
			Type:         "handwriting",
			Manifest:     manifest,
			ImagesDir:    imagesDir,
			DocumentType: "Handwriting",
			Fields:       map[string]string{"name": "similarity"},
		}},
	}

	batches, err := loadBatches(cfg, 0)
	if err != nil {
		t.Fatalf("loadBatches failed: %v", err)
	}
	if len(batches[0].Cases) != 1 {
		t.Fatalf("expected 1 case, got %d", len(batches[0].Cases))
	}
	if batches[0].Cases[0].Expected["name"] != "JOHN DOE" {
		t.Errorf("unexpected expected name: %q", batches[0].Cases[0].Expected["name"])
	}
}

func TestLoadBatches_MissingManifest(t *testing.T) {
	cfg := &config.Config{
		Evaluation: config.EvaluationConfig{SimilarityThreshold: 0.8, NumericThreshold: 1.0},
		Datasets: []config.DatasetConfig{{
			Name:         "receipts",
			Type:         "receipts",
			Manifest:     filepath.Join(t.TempDir(), "missing.yaml"),
			DocumentType: "Receipt",
			Fields:       map[string]string{"company": "similarity"},
		}},
	}

	_, err := loadBatches(cfg, 0)
	if err == nil {
		t.Fatal("expected error for missing manifest")
	}
	if !strings.Contains(err.Error(), "receipts") {
		t.Errorf("error should name the dataset: %v", err)
	}
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	content := "# comment\nBENCH_TEST_ENV_KEY=\"quoted value\"\n\nBENCH_TEST_ENV_PLAIN = plain\n"
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write .env: %v", err)
	}

	oldwd, err := os.Getwd()
	if err != nil {
		t.Fatalf("failed to get working directory: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("failed to change directory: %v", err)
	}
	t.Cleanup(func() {
		_ = os.Chdir(oldwd)
		_ = os.Unsetenv("BENCH_TEST_ENV_KEY")
		_ = os.Unsetenv("BENCH_TEST_ENV_PLAIN")
	})

	loadEnvFile()

	if got := os.Getenv("BENCH_TEST_ENV_KEY"); got != "quoted value" {
		t.Errorf("expected quoted value (quotes removed), got %q", got)
	}
	if got := os.Getenv("BENCH_TEST_ENV_PLAIN"); got != "plain" {
		t.Errorf("expected plain (spaces trimmed), got %q", got)
	}
}

func TestEnsureOutputDir(t *testing.T) {
	base := t.TempDir()

	sessionDir, err := ensureOutputDir(base)
	if err != nil {
		t.Fatalf("ensureOutputDir failed: %v", err)
	}

	if !strings.HasPrefix(sessionDir, base) {
		t.Errorf("session dir %s not under %s", sessionDir, base)
	}
	info, err := os.Stat(sessionDir)
	if err != nil {
		t.Fatalf("session dir not created: %v", err)
	}
	if !info.IsDir() {
		t.Error("session path is not a directory")
	}
}

func TestPrintBanner_NoPanic(t *testing.T) {
	// Just verify it doesn't panic
	defer func() {
		if r := recover(); r != nil {
			t.Errorf("printBanner panicked: %v", r)
		}
	}()

	printBanner()
}

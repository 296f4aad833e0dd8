// Package config provides configuration loading and validation for the
// benchmark tool.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Config represents the main configuration structure
type Config struct {
	General    GeneralConfig    `toml:"general"`
	Evaluation EvaluationConfig `toml:"evaluation"`
	Datasets   []DatasetConfig  `toml:"datasets"`
}

// GeneralConfig contains endpoint and execution settings
type GeneralConfig struct {
	Endpoint    string `toml:"endpoint"`
	APIKeyEnv   string `toml:"api_key_env"`
	Concurrency int    `toml:"concurrency"`
	Timeout     string `toml:"timeout"`
	OutputDir   string `toml:"output_dir"`
}

// EvaluationConfig contains the scoring policies shared by every dataset
type EvaluationConfig struct {
	SimilarityThreshold float64 `toml:"similarity_threshold"`
	NumericThreshold    float64 `toml:"numeric_threshold"`
	// AllowDayMonthSwap is a pointer so an explicit false in TOML is
	// distinguishable from an unset field.
	AllowDayMonthSwap *bool    `toml:"allow_day_month_swap,omitempty"`
	DateFormats       []string `toml:"date_formats,omitempty"`
}

// DatasetConfig represents a single dataset to evaluate
type DatasetConfig struct {
	Name         string `toml:"name"`
	Type         string `toml:"type"` // receipts, handwriting
	Manifest     string `toml:"manifest"`
	ImagesDir    string `toml:"images_dir,omitempty"`
	DocumentType string `toml:"document_type"`
	// Fields maps extracted field names to evaluator kinds:
	// similarity, exact, numeric, date.
	Fields map[string]string `toml:"fields"`
}

var validFieldKinds = map[string]bool{
	"similarity": true,
	"exact":      true,
	"numeric":    true,
	"date":       true,
}

// TimeoutDuration parses the timeout string into a Duration
func (g GeneralConfig) TimeoutDuration() time.Duration {
	d, err := time.ParseDuration(g.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// DayMonthSwapAllowed reports whether date evaluation tolerates
// transposed day and month values. Unset defaults to on; receipt
// annotations are known to mix the two notations.
func (e EvaluationConfig) DayMonthSwapAllowed() bool {
	if e.AllowDayMonthSwap == nil {
		return true
	}
	return *e.AllowDayMonthSwap
}

// validatePath checks for path traversal attempts
func validatePath(path string) error {
	// Clean the path
	cleanPath := filepath.Clean(path)

	// Check for path traversal sequences that go above current directory
	// This prevents ../../../etc/passwd type attacks
	if strings.HasPrefix(cleanPath, "..") || strings.Contains(cleanPath, "../") {
		return fmt.Errorf("path contains invalid traversal sequence: %s", path)
	}

	return nil
}

// Load reads and parses the TOML configuration file
func Load(path string) (*Config, error) {
	// Validate path for security
	if err := validatePath(path); err != nil {
		return nil, fmt.Errorf("invalid config path: %w", err)
	}

	// #nosec G304 - Path validated above, this is intentional file inclusion
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Set defaults
	if cfg.General.Endpoint == "" {
		cfg.General.Endpoint = "http://localhost:8000"
	}
	if cfg.General.APIKeyEnv == "" {
		cfg.General.APIKeyEnv = "AXIA_API_KEY"
	}
	if cfg.General.Concurrency <= 0 {
		cfg.General.Concurrency = 20
	}
	if cfg.General.Timeout == "" {
		cfg.General.Timeout = "30s"
	}
	if cfg.General.OutputDir == "" {
		cfg.General.OutputDir = "./results"
	}
	if cfg.Evaluation.SimilarityThreshold <= 0 {
		cfg.Evaluation.SimilarityThreshold = 0.8
	}
	if cfg.Evaluation.NumericThreshold <= 0 {
		cfg.Evaluation.NumericThreshold = 1.0
	}

	if cfg.Evaluation.SimilarityThreshold > 1 {
		return nil, fmt.Errorf("similarity_threshold must be within (0,1], got %g", cfg.Evaluation.SimilarityThreshold)
	}
	if cfg.Evaluation.NumericThreshold > 1 {
		return nil, fmt.Errorf("numeric_threshold must be within (0,1], got %g", cfg.Evaluation.NumericThreshold)
	}

	// Validate datasets
	if len(cfg.Datasets) == 0 {
		return nil, fmt.Errorf("no datasets defined in configuration")
	}

	seen := make(map[string]bool, len(cfg.Datasets))
	for i, ds := range cfg.Datasets {
		if ds.Name == "" {
			return nil, fmt.Errorf("dataset at index %d is missing a name", i)
		}
		if seen[ds.Name] {
			return nil, fmt.Errorf("duplicate dataset name: %s", ds.Name)
		}
		seen[ds.Name] = true
		if ds.Type != "receipts" && ds.Type != "handwriting" {
			return nil, fmt.Errorf("dataset '%s' has invalid type: %s", ds.Name, ds.Type)
		}
		if ds.Manifest == "" {
			return nil, fmt.Errorf("dataset '%s' requires a manifest path", ds.Name)
		}
		if err := validatePath(ds.Manifest); err != nil {
			return nil, fmt.Errorf("dataset '%s' has invalid manifest path: %w", ds.Name, err)
		}
		if ds.Type == "handwriting" && ds.ImagesDir == "" {
			return nil, fmt.Errorf("dataset '%s' of type 'handwriting' requires an images_dir", ds.Name)
		}
		if ds.ImagesDir != "" {
			if err := validatePath(ds.ImagesDir); err != nil {
				return nil, fmt.Errorf("dataset '%s' has invalid images_dir: %w", ds.Name, err)
			}
		}
		if ds.DocumentType == "" {
			return nil, fmt.Errorf("dataset '%s' is missing a document_type", ds.Name)
		}
		if len(ds.Fields) == 0 {
			return nil, fmt.Errorf("dataset '%s' defines no fields to evaluate", ds.Name)
		}
		for field, kind := range ds.Fields {
			if !validFieldKinds[kind] {
				return nil, fmt.Errorf("dataset '%s' field '%s' has unknown evaluator kind: %s", ds.Name, field, kind)
			}
		}
	}

	return &cfg, nil
}

// Save writes the configuration to a TOML file
func (c *Config) Save(path string) error {
	// Validate path for security
	if err := validatePath(path); err != nil {
		return fmt.Errorf("invalid config path: %w", err)
	}

	// #nosec G304 - Path validated above, this is intentional file creation
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	encoder := toml.NewEncoder(f)
	return encoder.Encode(c)
}

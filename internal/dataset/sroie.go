package dataset

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// receiptManifest mirrors the cases.yaml layout.
type receiptManifest struct {
	Cases []receiptCase `yaml:"cases"`
}

type receiptCase struct {
	Name           string            `yaml:"name"`
	Inputs         string            `yaml:"inputs"`
	ExpectedOutput string            `yaml:"expected_output"`
	Metadata       map[string]string `yaml:"metadata,omitempty"`
}

// LoadReceiptManifest reads a YAML receipt manifest and the JSON
// expected-output file each case references. Paths inside the manifest
// are used as written, relative to the working directory, matching the
// layout the manifest was generated against.
func LoadReceiptManifest(path string) ([]Case, error) {
	// #nosec G304 - manifest paths come from validated configuration
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var manifest receiptManifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", path, err)
	}
	if len(manifest.Cases) == 0 {
		return nil, fmt.Errorf("manifest %s contains no cases", path)
	}

	cases := make([]Case, 0, len(manifest.Cases))
	for i, mc := range manifest.Cases {
		if mc.Name == "" {
			return nil, fmt.Errorf("manifest %s: case at index %d is missing a name", path, i)
		}
		if mc.Inputs == "" {
			return nil, fmt.Errorf("manifest %s: case '%s' is missing inputs", path, mc.Name)
		}

		expected, err := loadExpectedJSON(mc.ExpectedOutput)
		if err != nil {
			return nil, fmt.Errorf("failed to load expected output for case '%s': %w", mc.Name, err)
		}

		cases = append(cases, Case{
			ID:       mc.Name,
			Input:    mc.Inputs,
			Expected: expected,
			Metadata: mc.Metadata,
		})
	}

	if err := Validate(cases); err != nil {
		return nil, err
	}
	return cases, nil
}

// loadExpectedJSON reads one ground-truth file. Numbers keep their
// literal form so "9.00" survives as written.
func loadExpectedJSON(path string) (map[string]string, error) {
	if path == "" {
		return nil, fmt.Errorf("no expected_output path given")
	}

	// #nosec G304 - expected-output paths come from the manifest
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read expected output: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	raw := make(map[string]interface{})
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to parse expected output %s: %w", path, err)
	}

	return stringifyFields(raw), nil
}

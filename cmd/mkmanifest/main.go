// Package main provides mkmanifest, which pairs dataset images with
// their expected-output JSON files and writes the cases.yaml manifest
// the benchmark consumes.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

type manifest struct {
	Cases []manifestCase `yaml:"cases"`
}

type manifestCase struct {
	Name           string `yaml:"name"`
	Inputs         string `yaml:"inputs"`
	ExpectedOutput string `yaml:"expected_output"`
}

func main() {
	imagesDir := flag.String("images", "", "Directory containing input images")
	expectedDir := flag.String("expected", "", "Directory containing expected-output JSON files")
	out := flag.String("out", "cases.yaml", "Manifest file to write")
	ext := flag.String("ext", "jpg", "Image file extension to match")
	flag.Parse()

	if *imagesDir == "" || *expectedDir == "" {
		fmt.Fprintln(os.Stderr, "Error: -images and -expected are required")
		flag.Usage()
		os.Exit(1)
	}

	if err := run(*imagesDir, *expectedDir, *out, *ext); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(imagesDir, expectedDir, out, ext string) error {
	m, skipped, err := buildManifest(imagesDir, expectedDir, ext)
	if err != nil {
		return err
	}

	for _, name := range skipped {
		fmt.Fprintf(os.Stderr, "Warning: no expected output for %s, skipping\n", name)
	}

	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}

	// #nosec G306 - 0640 allows owner/group to read, which is appropriate for manifest files
	if err := os.WriteFile(out, data, 0640); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}

	fmt.Printf("✓ Wrote %d cases to %s (%d images skipped)\n", len(m.Cases), out, len(skipped))
	return nil
}

// buildManifest pairs every *.ext image under imagesDir with the JSON
// file of the same stem under expectedDir. Images without a matching
// JSON file are reported in skipped. Directory listing order keeps the
// manifest deterministic.
func buildManifest(imagesDir, expectedDir, ext string) (*manifest, []string, error) {
	entries, err := os.ReadDir(imagesDir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read images directory: %w", err)
	}

	suffix := "." + strings.TrimPrefix(ext, ".")

	var m manifest
	var skipped []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.EqualFold(filepath.Ext(name), suffix) {
			continue
		}

		stem := strings.TrimSuffix(name, filepath.Ext(name))
		expectedPath := filepath.Join(expectedDir, stem+".json")
		if _, err := os.Stat(expectedPath); err != nil {
			skipped = append(skipped, name)
			continue
		}

		m.Cases = append(m.Cases, manifestCase{
			Name:           stem,
			Inputs:         filepath.Join(imagesDir, name),
			ExpectedOutput: expectedPath,
		})
	}

	if len(m.Cases) == 0 {
		return nil, skipped, fmt.Errorf("no image in %s has a matching expected output in %s", imagesDir, expectedDir)
	}

	return &m, skipped, nil
}

package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LoadHandwritingManifest reads a CSV manifest with FILENAME and
// IDENTITY columns. Each row becomes a case whose input image lives
// under imagesDir and whose single expected field is the name.
func LoadHandwritingManifest(path, imagesDir string) ([]Case, error) {
	// #nosec G304 - manifest paths come from validated configuration
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open manifest: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	reader := csv.NewReader(f)
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest header: %w", err)
	}

	fileCol, identCol := -1, -1
	for i, name := range header {
		switch strings.TrimSpace(name) {
		case "FILENAME":
			fileCol = i
		case "IDENTITY":
			identCol = i
		}
	}
	if fileCol < 0 || identCol < 0 {
		return nil, fmt.Errorf("manifest %s is missing the FILENAME or IDENTITY column", path)
	}

	var cases []Case
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read manifest row: %w", err)
		}

		filename := strings.TrimSpace(record[fileCol])
		if filename == "" {
			continue
		}

		cases = append(cases, Case{
			ID:       filename,
			Input:    filepath.Join(imagesDir, filename),
			Expected: map[string]string{"name": record[identCol]},
		})
	}

	if len(cases) == 0 {
		return nil, fmt.Errorf("manifest %s contains no cases", path)
	}

	if err := Validate(cases); err != nil {
		return nil, err
	}
	return cases, nil
}

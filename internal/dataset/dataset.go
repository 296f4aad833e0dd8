// Package dataset defines the evaluation case model and loads the case
// manifests for the supported dataset formats.
package dataset

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
)

// Case is one evaluation unit: an input artifact paired with the
// expected field values for it. Cases are built during dataset load and
// never mutated afterwards.
type Case struct {
	ID       string
	Input    string
	Expected map[string]string
	Metadata map[string]string
}

// DuplicateCaseError reports two cases sharing an id within one batch.
type DuplicateCaseError struct {
	ID string
}

func (e *DuplicateCaseError) Error() string {
	return fmt.Sprintf("duplicate case id '%s' in dataset", e.ID)
}

// MissingInputError reports a case whose input artifact does not exist.
type MissingInputError struct {
	CaseID string
	Path   string
}

func (e *MissingInputError) Error() string {
	return fmt.Sprintf("case '%s' references missing input file: %s", e.CaseID, e.Path)
}

// Validate checks a loaded batch for duplicate ids and missing input
// files. Loaders run it before handing cases to the runner.
func Validate(cases []Case) error {
	seen := make(map[string]struct{}, len(cases))
	for _, c := range cases {
		if _, dup := seen[c.ID]; dup {
			return &DuplicateCaseError{ID: c.ID}
		}
		seen[c.ID] = struct{}{}

		if _, err := os.Stat(c.Input); err != nil {
			return &MissingInputError{CaseID: c.ID, Path: c.Input}
		}
	}
	return nil
}

// stringifyFields flattens decoded JSON values to strings so evaluators
// can treat every field uniformly. Null values are dropped: a null
// annotation means the dataset defines no expectation for that field.
func stringifyFields(raw map[string]interface{}) map[string]string {
	fields := make(map[string]string, len(raw))
	for name, value := range raw {
		switch v := value.(type) {
		case nil:
			continue
		case string:
			fields[name] = v
		case json.Number:
			fields[name] = v.String()
		case bool:
			fields[name] = strconv.FormatBool(v)
		default:
			fields[name] = fmt.Sprintf("%v", v)
		}
	}
	return fields
}

package labels

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FormatError reports a label store file that could not be parsed.
type FormatError struct {
	File string
	Err  error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("malformed label file %s: %v", e.File, e.Err)
}

func (e *FormatError) Unwrap() error { return e.Err }

// NotFoundError reports a track whose video has no entry in the label store.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no label for %q in label store", e.ID)
}

// Table maps a video name to its ground-truth label (0 = genuine, 1 = fake).
type Table map[string]float32

type record struct {
	IsFake float64 `json:"is_fake"`
}

// Resolve scans a directory of label store files and builds the label table.
// Each file is one JSON object mapping "<name>.<ext>" to a detail record with
// an is_fake field; the key is the name before the first dot. Files are read
// in directory order, so a later file overwrites an earlier one on collision.
func Resolve(dir string) (Table, error) {
	table := make(Table)
	if err := mergeDir(table, dir); err != nil {
		return nil, err
	}
	return table, nil
}

// ResolveSplit builds one table from the nested training/ and validation/
// label directories used by the cross-validation layout.
func ResolveSplit(root string) (Table, error) {
	table := make(Table)
	for _, split := range []string{"training", "validation"} {
		if err := mergeDir(table, filepath.Join(root, split)); err != nil {
			return nil, err
		}
	}
	return table, nil
}

func mergeDir(table Table, dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read label directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read label file %s: %w", path, err)
		}

		var file map[string]record
		if err := json.Unmarshal(data, &file); err != nil {
			return &FormatError{File: path, Err: err}
		}

		for name, details := range file {
			id, _, _ := strings.Cut(name, ".")
			table[id] = float32(details.IsFake)
		}
	}
	return nil
}

// Lookup returns the label for a video name.
func (t Table) Lookup(video string) (float32, error) {
	label, ok := t[video]
	if !ok {
		return 0, &NotFoundError{ID: video}
	}
	return label, nil
}

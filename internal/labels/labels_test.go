package labels

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeLabelFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write label file: %v", err)
	}
}

func TestResolve_BasicLookup(t *testing.T) {
	dir := t.TempDir()
	writeLabelFile(t, dir, "metadata.json", `{"abc.mp4": {"is_fake": 1}, "def.mp4": {"is_fake": 0}}`)

	table, err := Resolve(dir)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	label, err := table.Lookup("abc")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if label != 1.0 {
		t.Errorf("Expected label 1.0 for abc, got %v", label)
	}

	label, err = table.Lookup("def")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if label != 0.0 {
		t.Errorf("Expected label 0.0 for def, got %v", label)
	}
}

func TestResolve_LastFileWins(t *testing.T) {
	dir := t.TempDir()
	// ReadDir returns names sorted, so b.json overwrites a.json.
	writeLabelFile(t, dir, "a.json", `{"clip.mp4": {"is_fake": 0}}`)
	writeLabelFile(t, dir, "b.json", `{"clip.mp4": {"is_fake": 1}}`)

	table, err := Resolve(dir)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	label, err := table.Lookup("clip")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if label != 1.0 {
		t.Errorf("Expected later file to win with 1.0, got %v", label)
	}
}

func TestResolve_MalformedFile(t *testing.T) {
	dir := t.TempDir()
	writeLabelFile(t, dir, "broken.json", `{"abc.mp4": `)

	_, err := Resolve(dir)
	var formatErr *FormatError
	if !errors.As(err, &formatErr) {
		t.Fatalf("Expected FormatError, got %v", err)
	}
}

func TestResolve_MissingDirectory(t *testing.T) {
	if _, err := Resolve(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Error("Expected error for missing directory")
	}
}

func TestLookup_Missing(t *testing.T) {
	table := Table{"known": 1.0}

	_, err := table.Lookup("unknown")
	var notFound *NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("Expected NotFoundError, got %v", err)
	}
	if notFound.ID != "unknown" {
		t.Errorf("Expected id 'unknown' in error, got %q", notFound.ID)
	}
}

func TestResolveSplit(t *testing.T) {
	root := t.TempDir()
	for _, split := range []string{"training", "validation"} {
		if err := os.MkdirAll(filepath.Join(root, split), 0755); err != nil {
			t.Fatalf("Failed to create split dir: %v", err)
		}
	}
	writeLabelFile(t, filepath.Join(root, "training"), "meta.json", `{"train_clip.mp4": {"is_fake": 1}}`)
	writeLabelFile(t, filepath.Join(root, "validation"), "meta.json", `{"val_clip.mp4": {"is_fake": 0}}`)

	table, err := ResolveSplit(root)
	if err != nil {
		t.Fatalf("ResolveSplit failed: %v", err)
	}

	if label, _ := table.Lookup("train_clip"); label != 1.0 {
		t.Errorf("Expected train_clip label 1.0, got %v", label)
	}
	if label, _ := table.Lookup("val_clip"); label != 0.0 {
		t.Errorf("Expected val_clip label 0.0, got %v", label)
	}
}

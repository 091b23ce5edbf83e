package dataset

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"
)

func TestSplitTrackID(t *testing.T) {
	tests := []struct {
		id        string
		video     string
		face      string
		expectErr bool
	}{
		{"abc_0", "abc", "0", false},
		{"my_video_12", "my_video", "12", false},
		{"plain", "", "", true},
		{"_0", "", "", true},
		{"video_", "", "", true},
	}

	for _, tt := range tests {
		video, face, err := SplitTrackID(tt.id)
		if tt.expectErr {
			if err == nil {
				t.Errorf("SplitTrackID(%q): expected error", tt.id)
			}
			continue
		}
		if err != nil {
			t.Errorf("SplitTrackID(%q) failed: %v", tt.id, err)
			continue
		}
		if video != tt.video || face != tt.face {
			t.Errorf("SplitTrackID(%q) = (%q, %q), expected (%q, %q)", tt.id, video, face, tt.video, tt.face)
		}
	}
}

func TestListTrackIDs(t *testing.T) {
	root := t.TempDir()
	for _, dir := range []string{
		"video-b/0", "video-b/1", "video-a/0",
	} {
		if err := os.MkdirAll(filepath.Join(root, dir), 0755); err != nil {
			t.Fatalf("Failed to create fixture: %v", err)
		}
	}
	// A stray file at either level must be ignored.
	if err := os.WriteFile(filepath.Join(root, "notes.txt"), []byte("x"), 0644); err != nil {
		t.Fatalf("Failed to create fixture: %v", err)
	}
	if err := os.WriteFile(filepath.Join(root, "video-a", "thumb.png"), []byte("x"), 0644); err != nil {
		t.Fatalf("Failed to create fixture: %v", err)
	}

	ids, err := ListTrackIDs(root)
	if err != nil {
		t.Fatalf("ListTrackIDs failed: %v", err)
	}

	want := []string{"video-a_0", "video-b_0", "video-b_1"}
	if len(ids) != len(want) {
		t.Fatalf("Expected %v, got %v", want, ids)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("Expected %v, got %v", want, ids)
		}
	}
}

func TestListTrackIDs_MissingRoot(t *testing.T) {
	if _, err := ListTrackIDs(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Error("Expected error for missing frames root")
	}
}

func writeFrames(t *testing.T, dir string, count int) {
	t.Helper()
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("Failed to create frame directory: %v", err)
	}
	for i := 0; i < count; i++ {
		name := filepath.Join(dir, strconv.Itoa(i)+".png")
		if err := os.WriteFile(name, []byte("stub"), 0644); err != nil {
			t.Fatalf("Failed to create frame file: %v", err)
		}
	}
}

func TestDiscoverTracks(t *testing.T) {
	root := t.TempDir()

	// Kept: canonical face with enough frames, in both splits.
	writeFrames(t, filepath.Join(root, "training", "video-a", "0"), 30)
	writeFrames(t, filepath.Join(root, "validation", "video-d", "0"), 24)
	// Dropped: too few frames.
	writeFrames(t, filepath.Join(root, "training", "video-b", "0"), 10)
	// Dropped: only a secondary face track.
	writeFrames(t, filepath.Join(root, "training", "video-c", "1"), 30)

	tracks, err := discoverTracks(root)
	if err != nil {
		t.Fatalf("discoverTracks failed: %v", err)
	}

	if len(tracks) != 2 {
		t.Fatalf("Expected 2 tracks, got %d: %+v", len(tracks), tracks)
	}
	if tracks[0].id != "video-a_0" || tracks[0].video != "video-a" {
		t.Errorf("Unexpected first track: %+v", tracks[0])
	}
	if tracks[1].id != "video-d_0" || tracks[1].video != "video-d" {
		t.Errorf("Unexpected second track: %+v", tracks[1])
	}
}

func TestDiscoverTracks_MissingSplit(t *testing.T) {
	root := t.TempDir()
	writeFrames(t, filepath.Join(root, "training", "video-a", "0"), 30)

	// No validation/ directory at all.
	if _, err := discoverTracks(root); err == nil {
		t.Error("Expected error for missing validation split")
	}
}

func TestTrackError_Unwrap(t *testing.T) {
	inner := os.ErrNotExist
	err := &TrackError{ID: "video-a_0", Err: inner}

	if err.Error() == "" {
		t.Error("Expected non-empty error message")
	}
	if err.Unwrap() != inner {
		t.Error("Unwrap should return the wrapped cause")
	}
}

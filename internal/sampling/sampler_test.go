package sampling

import (
	"errors"
	"strconv"
	"strings"
	"testing"
)

func TestSortFrameFiles_NumericOrder(t *testing.T) {
	names := []string{"10.png", "2.png", "0.png", "1.png", "9.png"}

	sorted, err := SortFrameFiles(names)
	if err != nil {
		t.Fatalf("SortFrameFiles failed: %v", err)
	}

	expected := []string{"0.png", "1.png", "2.png", "9.png", "10.png"}
	for i, name := range expected {
		if sorted[i] != name {
			t.Errorf("Position %d: expected %s, got %s", i, name, sorted[i])
		}
	}
}

func TestSortFrameFiles_NonNumericStem(t *testing.T) {
	invalid := [][]string{
		{"0.png", "thumb.png"},
		{"frame-1.png"},
		{""},
	}

	for _, names := range invalid {
		_, err := SortFrameFiles(names)
		var formatErr *FormatError
		if !errors.As(err, &formatErr) {
			t.Errorf("SortFrameFiles(%v): expected FormatError, got %v", names, err)
		}
	}
}

func TestSelectGroups_EvenSpacing(t *testing.T) {
	// 30 frames, 2 groups of 2: interval = (30-2)/2 = 14.
	frames := make([]string, 30)
	for i := range frames {
		frames[i] = frameName(i)
	}
	sorted, err := SortFrameFiles(frames)
	if err != nil {
		t.Fatalf("SortFrameFiles failed: %v", err)
	}

	groups, err := SelectGroups(sorted, 2, 2)
	if err != nil {
		t.Fatalf("SelectGroups failed: %v", err)
	}

	expected := [][]string{
		{"0.png", "1.png"},
		{"14.png", "15.png"},
	}
	if len(groups) != len(expected) {
		t.Fatalf("Expected %d groups, got %d", len(expected), len(groups))
	}
	for i, group := range expected {
		for j, name := range group {
			if groups[i][j] != name {
				t.Errorf("Group %d frame %d: expected %s, got %s", i, j, name, groups[i][j])
			}
		}
	}
}

func TestSelectGroups_Properties(t *testing.T) {
	tests := []struct {
		totalFrames int
		numGroups   int
		groupSize   int
	}{
		{24, 5, 2},
		{30, 2, 2},
		{100, 10, 2},
		{2, 1, 2},
		{50, 1, 2},
	}

	for _, tt := range tests {
		frames := make([]string, tt.totalFrames)
		members := make(map[string]bool, tt.totalFrames)
		for i := range frames {
			frames[i] = frameName(i)
			members[frames[i]] = true
		}

		groups, err := SelectGroups(frames, tt.numGroups, tt.groupSize)
		if err != nil {
			t.Fatalf("SelectGroups(%d frames, %d, %d) failed: %v", tt.totalFrames, tt.numGroups, tt.groupSize, err)
		}

		if len(groups) != tt.numGroups {
			t.Errorf("Expected %d groups, got %d", tt.numGroups, len(groups))
		}
		for _, group := range groups {
			if len(group) != tt.groupSize {
				t.Errorf("Expected group size %d, got %d", tt.groupSize, len(group))
			}
			for j, name := range group {
				if !members[name] {
					t.Errorf("Group member %s is not in the frame list", name)
				}
				if j > 0 && stem(t, group[j-1]) >= stem(t, name) {
					t.Errorf("Group stems not strictly increasing: %v", group)
				}
			}
		}
	}
}

func TestSelectGroups_ZeroGroups(t *testing.T) {
	groups, err := SelectGroups([]string{"0.png", "1.png"}, 0, 2)
	if err != nil {
		t.Fatalf("SelectGroups with 0 groups failed: %v", err)
	}
	if len(groups) != 0 {
		t.Errorf("Expected empty result, got %d groups", len(groups))
	}
}

func TestSelectGroups_TooFewFrames(t *testing.T) {
	// 1 frame cannot fill a group of 2; must fail, never index out of bounds.
	_, err := SelectGroups([]string{"0.png"}, 2, 2)

	var rangeErr *OutOfRangeError
	if !errors.As(err, &rangeErr) {
		t.Fatalf("Expected OutOfRangeError, got %v", err)
	}
	if rangeErr.Total != 1 {
		t.Errorf("Expected total 1, got %d", rangeErr.Total)
	}
}

func TestSelectGroups_InvalidParameters(t *testing.T) {
	if _, err := SelectGroups([]string{"0.png"}, -1, 2); err == nil {
		t.Error("Expected error for negative num_groups")
	}
	if _, err := SelectGroups([]string{"0.png"}, 1, 0); err == nil {
		t.Error("Expected error for zero group_size")
	}
}

func frameName(i int) string {
	return strconv.Itoa(i) + ".png"
}

func stem(t *testing.T, name string) int {
	t.Helper()
	s, _, _ := strings.Cut(name, ".")
	n, err := strconv.Atoi(s)
	if err != nil {
		t.Fatalf("Bad frame name %q: %v", name, err)
	}
	return n
}

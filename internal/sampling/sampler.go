package sampling

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// FormatError reports a frame filename whose stem is not a frame index.
type FormatError struct {
	Name string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("frame file %q does not have a numeric stem", e.Name)
}

// OutOfRangeError reports a track with fewer usable frames than the sampling
// configuration requires. It is a data-integrity failure of one track, not of
// the run; callers are expected to skip the track.
type OutOfRangeError struct {
	Index int
	Total int
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("sampled frame index %d outside [0, %d): track has fewer frames than configured", e.Index, e.Total)
}

// SortFrameFiles orders frame filenames by their numeric stem, ascending.
// Lexicographic order is wrong here: "10.png" must follow "9.png".
func SortFrameFiles(names []string) ([]string, error) {
	type frame struct {
		stem int
		name string
	}
	frames := make([]frame, 0, len(names))
	for _, name := range names {
		stem, _, _ := strings.Cut(name, ".")
		n, err := strconv.Atoi(stem)
		if err != nil || n < 0 {
			return nil, &FormatError{Name: name}
		}
		frames = append(frames, frame{stem: n, name: name})
	}
	sort.Slice(frames, func(i, j int) bool { return frames[i].stem < frames[j].stem })

	sorted := make([]string, len(frames))
	for i, f := range frames {
		sorted[i] = f.name
	}
	return sorted, nil
}

// SelectGroups picks numGroups windows of groupSize consecutive frames from a
// numerically sorted frame list. Groups start at i*interval where
// interval = (total - groupSize) / numGroups, spacing them roughly evenly
// across the track while keeping each group contiguous.
func SelectGroups(frames []string, numGroups, groupSize int) ([][]string, error) {
	if numGroups < 0 || groupSize < 1 {
		return nil, fmt.Errorf("invalid sampling parameters: num_groups=%d group_size=%d", numGroups, groupSize)
	}
	if numGroups == 0 {
		return [][]string{}, nil
	}

	total := len(frames)
	interval := (total - groupSize) / numGroups

	groups := make([][]string, 0, numGroups)
	for i := 0; i < numGroups; i++ {
		group := make([]string, 0, groupSize)
		for j := 0; j < groupSize; j++ {
			idx := i*interval + j
			if idx < 0 || idx >= total {
				return nil, &OutOfRangeError{Index: idx, Total: total}
			}
			group = append(group, frames[idx])
		}
		groups = append(groups, group)
	}
	return groups, nil
}

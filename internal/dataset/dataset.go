package dataset

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"deepscan/internal/augment"
	"deepscan/internal/config"
	"deepscan/internal/labels"
	"deepscan/internal/sampling"
	"deepscan/internal/tensor"

	"gocv.io/x/gocv"
)

// Sample is one assembled track: a (groups, frames, channels, height, width)
// volume, its ground-truth label and the track identifier.
type Sample struct {
	Volume *tensor.Tensor
	Label  float32
	ID     string
}

// TrackError wraps a failure that affects a single track. The inference
// driver inspects the wrapped cause to decide between skipping the track and
// aborting the run.
type TrackError struct {
	ID  string
	Err error
}

func (e *TrackError) Error() string { return fmt.Sprintf("track %s: %v", e.ID, e.Err) }

func (e *TrackError) Unwrap() error { return e.Err }

// Dataset assembles samples for externally enumerated track ids under a
// single frames root, laid out as root/{video}/{face}/{frame}.png. Access is
// pure per index: no mutable state is shared between calls, so independent
// workers may read concurrently.
type Dataset struct {
	ids      []string
	root     string
	labels   labels.Table
	pipeline *augment.Pipeline
	cfg      *config.Config
}

// New builds a flat-id dataset.
func New(ids []string, framesRoot string, table labels.Table, pipeline *augment.Pipeline, cfg *config.Config) *Dataset {
	return &Dataset{
		ids:      ids,
		root:     framesRoot,
		labels:   table,
		pipeline: pipeline,
		cfg:      cfg,
	}
}

// Len returns the number of tracks.
func (d *Dataset) Len() int { return len(d.ids) }

// At assembles the sample for one track index.
func (d *Dataset) At(i int) (Sample, error) {
	id := d.ids[i]

	video, face, err := SplitTrackID(id)
	if err != nil {
		return Sample{}, &TrackError{ID: id, Err: err}
	}

	label, err := d.labels.Lookup(video)
	if err != nil {
		return Sample{}, &TrackError{ID: id, Err: err}
	}

	volume, err := assembleVolume(filepath.Join(d.root, video, face), d.pipeline, d.cfg)
	if err != nil {
		return Sample{}, &TrackError{ID: id, Err: err}
	}

	return Sample{Volume: volume, Label: label, ID: id}, nil
}

// SplitTrackID decomposes "{video}_{face}" at the last underscore, so video
// names containing underscores stay intact.
func SplitTrackID(id string) (video, face string, err error) {
	idx := strings.LastIndex(id, "_")
	if idx <= 0 || idx == len(id)-1 {
		return "", "", fmt.Errorf("malformed track id %q: want {video}_{face}", id)
	}
	return id[:idx], id[idx+1:], nil
}

// ListTrackIDs enumerates every {video}_{face} directory pair under a frames
// root, in sorted order.
func ListTrackIDs(root string) ([]string, error) {
	videos, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("failed to read frames root: %w", err)
	}

	var ids []string
	for _, video := range videos {
		if !video.IsDir() {
			continue
		}
		faces, err := os.ReadDir(filepath.Join(root, video.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read video directory %s: %w", video.Name(), err)
		}
		for _, face := range faces {
			if !face.IsDir() {
				continue
			}
			ids = append(ids, video.Name()+"_"+face.Name())
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// assembleVolume lists a frame directory, samples its groups, augments each
// pair and stacks everything into one (g, f, c, h, w) volume.
func assembleVolume(dir string, pipeline *augment.Pipeline, cfg *config.Config) (*tensor.Tensor, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read frame directory: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			names = append(names, entry.Name())
		}
	}

	sorted, err := sampling.SortFrameFiles(names)
	if err != nil {
		return nil, err
	}
	groups, err := sampling.SelectGroups(sorted, cfg.Sampling.NumGroups, cfg.Sampling.GroupSize)
	if err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	groupTensors := make([]*tensor.Tensor, 0, len(groups))
	for _, group := range groups {
		pair, err := loadPair(dir, group)
		if err != nil {
			return nil, err
		}
		if err := pipeline.Apply(rng, pair); err != nil {
			pair.Close()
			return nil, err
		}

		first, err := matToCHW(pair.A)
		if err == nil {
			var second *tensor.Tensor
			second, err = matToCHW(pair.B)
			if err == nil {
				var stacked *tensor.Tensor
				stacked, err = tensor.Stack([]*tensor.Tensor{first, second})
				if err == nil {
					groupTensors = append(groupTensors, stacked)
				}
			}
		}
		pair.Close()
		if err != nil {
			return nil, err
		}
	}

	volume, err := tensor.Stack(groupTensors)
	if err != nil {
		return nil, err
	}

	shape := cfg.Model.InputShape
	if err := volume.AssertShape("sample volume",
		cfg.Sampling.NumGroups, cfg.Sampling.GroupSize, shape.Channels, shape.Height, shape.Width); err != nil {
		return nil, err
	}
	return volume, nil
}

// loadPair reads the two frames of a group as RGB.
func loadPair(dir string, group []string) (*augment.Pair, error) {
	if len(group) != 2 {
		return nil, fmt.Errorf("motion group has %d frames, want 2", len(group))
	}

	first, err := readRGB(filepath.Join(dir, group[0]))
	if err != nil {
		return nil, err
	}
	second, err := readRGB(filepath.Join(dir, group[1]))
	if err != nil {
		first.Close()
		return nil, err
	}
	return &augment.Pair{A: first, B: second}, nil
}

func readRGB(path string) (gocv.Mat, error) {
	bgr := gocv.IMRead(path, gocv.IMReadColor)
	if bgr.Empty() {
		return gocv.NewMat(), fmt.Errorf("failed to decode frame image %s", path)
	}
	defer bgr.Close()

	rgb := gocv.NewMat()
	gocv.CvtColor(bgr, &rgb, gocv.ColorBGRToRGB)
	return rgb, nil
}

// matToCHW converts an HWC uint8 frame to a CHW float32 tensor scaled to
// [0, 1].
func matToCHW(mat gocv.Mat) (*tensor.Tensor, error) {
	if mat.Channels() != 3 {
		return nil, fmt.Errorf("frame has %d channels, want 3", mat.Channels())
	}
	data, err := mat.DataPtrUint8()
	if err != nil {
		return nil, fmt.Errorf("failed to access frame data: %w", err)
	}

	h, w := mat.Rows(), mat.Cols()
	out := tensor.New(3, h, w)
	buf := out.Data()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			base := (y*w + x) * 3
			for c := 0; c < 3; c++ {
				buf[(c*h+y)*w+x] = float32(data[base+c]) / 255.0
			}
		}
	}
	return out, nil
}

package dataset

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"deepscan/internal/augment"
	"deepscan/internal/config"
	"deepscan/internal/labels"
)

const (
	// canonicalFace is the only face index kept by the cross-validation
	// discovery walk.
	canonicalFace = "0"
	// minTrackFrames is the hygiene gate: shorter tracks are dropped at
	// construction time instead of failing at sample time.
	minTrackFrames = 24
)

// SplitDataset assembles samples for tracks discovered by walking the nested
// training/ and validation/ directories of a cross-validation layout. Only
// the canonical face with enough frames survives discovery.
type SplitDataset struct {
	tracks   []splitTrack
	labels   labels.Table
	pipeline *augment.Pipeline
	cfg      *config.Config
}

type splitTrack struct {
	dir   string // full path to the face directory
	video string // label lookup key
	id    string // {video}_{face}
}

// NewSplit discovers tracks under framesRoot/{training,validation} and builds
// the dataset.
func NewSplit(framesRoot string, table labels.Table, pipeline *augment.Pipeline, cfg *config.Config) (*SplitDataset, error) {
	tracks, err := discoverTracks(framesRoot)
	if err != nil {
		return nil, err
	}
	return &SplitDataset{
		tracks:   tracks,
		labels:   table,
		pipeline: pipeline,
		cfg:      cfg,
	}, nil
}

// Len returns the number of discovered tracks.
func (d *SplitDataset) Len() int { return len(d.tracks) }

// At assembles the sample for one discovered track.
func (d *SplitDataset) At(i int) (Sample, error) {
	track := d.tracks[i]

	label, err := d.labels.Lookup(track.video)
	if err != nil {
		return Sample{}, &TrackError{ID: track.id, Err: err}
	}

	volume, err := assembleVolume(track.dir, d.pipeline, d.cfg)
	if err != nil {
		return Sample{}, &TrackError{ID: track.id, Err: err}
	}

	return Sample{Volume: volume, Label: label, ID: track.id}, nil
}

func discoverTracks(root string) ([]splitTrack, error) {
	var tracks []splitTrack

	for _, split := range []string{"training", "validation"} {
		splitDir := filepath.Join(root, split)
		videos, err := os.ReadDir(splitDir)
		if err != nil {
			return nil, fmt.Errorf("failed to read split directory %s: %w", splitDir, err)
		}

		for _, video := range videos {
			if !video.IsDir() {
				continue
			}
			faceDir := filepath.Join(splitDir, video.Name(), canonicalFace)
			frames, err := os.ReadDir(faceDir)
			if err != nil {
				// Video has no canonical face track.
				continue
			}
			if len(frames) < minTrackFrames {
				continue
			}
			tracks = append(tracks, splitTrack{
				dir:   faceDir,
				video: video.Name(),
				id:    video.Name() + "_" + canonicalFace,
			})
		}
	}

	sort.Slice(tracks, func(i, j int) bool { return tracks[i].dir < tracks[j].dir })
	return tracks, nil
}

package model

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"deepscan/internal/config"
	"deepscan/internal/tensor"
)

// headFileName holds the trained weights that are not part of a backbone
// graph: the motion-difference convolution and the two fusion projections.
const headFileName = "head.json"

type layerCheckpoint struct {
	In      int       `json:"in"`
	Out     int       `json:"out"`
	Weights []float32 `json:"weights"`
	Bias    []float32 `json:"bias"`
}

type convCheckpoint struct {
	Shape   []int     `json:"shape"`
	Weights []float32 `json:"weights"`
	Bias    []float32 `json:"bias"`
}

type headCheckpoint struct {
	MotionDiff convCheckpoint  `json:"motion-diff"`
	Fusion1    layerCheckpoint `json:"fusion-1"`
	Fusion2    layerCheckpoint `json:"fusion-2"`
}

// loadHead reads head.json from the checkpoint directory and validates it
// against the configured shape.
func loadHead(modelDir string, cfg *config.Config) (*Conv3D, *Fusion, error) {
	path := filepath.Join(modelDir, headFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read head checkpoint: %w", err)
	}

	var head headCheckpoint
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, nil, fmt.Errorf("failed to parse head checkpoint %s: %w", path, err)
	}

	shape := cfg.Model.InputShape
	features := cfg.Model.Submodules.Spatiotemporal.MotionDiff.Features

	weights, err := tensor.FromSlice(head.MotionDiff.Weights, head.MotionDiff.Shape...)
	if err != nil {
		return nil, nil, err
	}
	if err := weights.AssertShape("motion-diff weights",
		features, shape.Channels, shape.FramesPerGroup, 3, 3); err != nil {
		return nil, nil, err
	}
	conv, err := NewConv3D(weights, head.MotionDiff.Bias, 1, 1)
	if err != nil {
		return nil, nil, err
	}

	l1, err := NewLinear(head.Fusion1.Weights, head.Fusion1.Bias, head.Fusion1.In, head.Fusion1.Out)
	if err != nil {
		return nil, nil, err
	}
	l2, err := NewLinear(head.Fusion2.Weights, head.Fusion2.Bias, head.Fusion2.In, head.Fusion2.Out)
	if err != nil {
		return nil, nil, err
	}

	fusion, err := NewFusion(shape.GroupsPerVideo, shape.FramesPerGroup, l1, l2)
	if err != nil {
		return nil, nil, err
	}
	return conv, fusion, nil
}

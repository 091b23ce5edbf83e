package augment

import (
	"fmt"
	"math/rand"

	"gocv.io/x/gocv"
)

// Pair holds the two frames of a motion group. Every stage draws its random
// parameters once and applies them identically to both frames, so the pixel
// correspondence needed by the motion-difference convolution survives the
// augmentation.
type Pair struct {
	A gocv.Mat
	B gocv.Mat
}

// Close releases both frames.
func (p *Pair) Close() {
	if !p.A.Empty() {
		p.A.Close()
	}
	if !p.B.Empty() {
		p.B.Close()
	}
}

// replace swaps in transformed frames and releases the old ones.
func (p *Pair) replace(a, b gocv.Mat) {
	p.A.Close()
	p.B.Close()
	p.A = a
	p.B = b
}

// Stage is one transform of the augmentation pipeline. Apply mutates the pair
// in place using a single shared parameter draw from rng.
type Stage interface {
	Name() string
	Apply(rng *rand.Rand, p *Pair) error
}

// StageSpec selects a stage by name with an independent application
// probability, so pipelines can be reordered from configuration instead of
// code edits.
type StageSpec struct {
	Name        string
	Probability float64
}

type weightedStage struct {
	stage Stage
	prob  float64
}

// Pipeline is an ordered list of stages, each applied with its own
// probability.
type Pipeline struct {
	stages []weightedStage
}

// Apply runs the pipeline over one pair.
func (pl *Pipeline) Apply(rng *rand.Rand, p *Pair) error {
	for _, ws := range pl.stages {
		if ws.prob < 1.0 && rng.Float64() >= ws.prob {
			continue
		}
		if err := ws.stage.Apply(rng, p); err != nil {
			return fmt.Errorf("augment stage %s: %w", ws.stage.Name(), err)
		}
	}
	return nil
}

func (pl *Pipeline) add(prob float64, s Stage) {
	pl.stages = append(pl.stages, weightedStage{stage: s, prob: prob})
}

// Inference builds the deterministic profile: fit the longest side, pad to a
// square black canvas, resize. Output is always (imgSize, imgSize, 3) for
// both frames regardless of input aspect ratio.
func Inference(imgSize int) *Pipeline {
	pl := &Pipeline{}
	pl.add(1.0, &longestMaxSize{max: imgSize})
	pl.add(1.0, &padToSquare{size: imgSize})
	pl.add(1.0, &resizeExact{size: imgSize})
	return pl
}

// Training builds the stochastic profile used when assembling training
// samples. The shape stages in the middle are unconditional; everything else
// fires independently.
func Training(imgSize int) *Pipeline {
	pl := &Pipeline{}
	pl.add(0.5, &jpegCompression{qualityLow: 60, qualityHigh: 100})
	pl.add(1.0, &longestMaxSize{max: imgSize})
	pl.add(1.0, &padToSquare{size: imgSize})
	pl.add(1.0, &resizeExact{size: imgSize})
	pl.add(0.1, &gaussNoise{sigmaLow: 3, sigmaHigh: 7})
	pl.add(0.05, &gaussianBlur{kernel: 3})
	pl.add(0.7, &brightnessContrast{limit: 0.2})
	pl.add(0.2, &toGray{})
	pl.add(0.5, &horizontalFlip{})
	pl.add(0.5, &shiftScaleRotate{shiftLimit: 0.05, scaleLimit: 0.1, rotateLimit: 5})
	return pl
}

// FromSpecs builds a pipeline from a configured stage list. An unknown stage
// name is a configuration error.
func FromSpecs(specs []StageSpec, imgSize int) (*Pipeline, error) {
	pl := &Pipeline{}
	for _, spec := range specs {
		stage, err := newStage(spec.Name, imgSize)
		if err != nil {
			return nil, err
		}
		prob := spec.Probability
		if prob <= 0 || prob > 1 {
			return nil, fmt.Errorf("augment stage %q: probability %v outside (0, 1]", spec.Name, spec.Probability)
		}
		pl.add(prob, stage)
	}
	return pl, nil
}

func newStage(name string, imgSize int) (Stage, error) {
	switch name {
	case "jpeg-compression":
		return &jpegCompression{qualityLow: 60, qualityHigh: 100}, nil
	case "longest-max-size":
		return &longestMaxSize{max: imgSize}, nil
	case "pad-to-square":
		return &padToSquare{size: imgSize}, nil
	case "resize":
		return &resizeExact{size: imgSize}, nil
	case "gauss-noise":
		return &gaussNoise{sigmaLow: 3, sigmaHigh: 7}, nil
	case "gaussian-blur":
		return &gaussianBlur{kernel: 3}, nil
	case "brightness-contrast":
		return &brightnessContrast{limit: 0.2}, nil
	case "to-gray":
		return &toGray{}, nil
	case "horizontal-flip":
		return &horizontalFlip{}, nil
	case "shift-scale-rotate":
		return &shiftScaleRotate{shiftLimit: 0.05, scaleLimit: 0.1, rotateLimit: 5}, nil
	}
	return nil, fmt.Errorf("unknown augment stage %q", name)
}

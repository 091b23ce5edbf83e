package model

import (
	"deepscan/internal/config"
	"deepscan/internal/tensor"
)

// Spatial scores individual frames through the shared appearance extractor.
// It acts on the flattened (video × groups × frames) batch axis, so the
// weights are shared across every frame regardless of group membership; no
// temporal context is used.
type Spatial struct {
	extractor FeatureExtractor
	channels  int
	height    int
	width     int
}

// NewSpatial builds the spatial branch around an extractor.
func NewSpatial(extractor FeatureExtractor, shape config.InputShape) *Spatial {
	return &Spatial{
		extractor: extractor,
		channels:  shape.Channels,
		height:    shape.Height,
		width:     shape.Width,
	}
}

// Forward scores a (batch, channels, height, width) stack of frames.
func (s *Spatial) Forward(frames *tensor.Tensor) ([]float32, error) {
	if err := frames.AssertShape("spatial input", -1, s.channels, s.height, s.width); err != nil {
		return nil, err
	}
	return s.extractor.Forward(frames)
}

// Close releases the extractor.
func (s *Spatial) Close() error { return s.extractor.Close() }

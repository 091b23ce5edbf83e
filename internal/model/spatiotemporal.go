package model

import (
	"deepscan/internal/config"
	"deepscan/internal/tensor"
)

// Spatiotemporal scores frame groups. The frame axis is reordered into a
// depth axis, collapsed to one by the motion-difference convolution, and the
// resulting map is scored by its own appearance extractor: one score per
// group.
type Spatiotemporal struct {
	conv      *Conv3D
	extractor FeatureExtractor
	frames    int
	channels  int
	height    int
	width     int
}

// NewSpatiotemporal builds the spatiotemporal branch.
func NewSpatiotemporal(conv *Conv3D, extractor FeatureExtractor, shape config.InputShape) *Spatiotemporal {
	return &Spatiotemporal{
		conv:      conv,
		extractor: extractor,
		frames:    shape.FramesPerGroup,
		channels:  shape.Channels,
		height:    shape.Height,
		width:     shape.Width,
	}
}

// Forward scores a (batch, frames, channels, height, width) stack of groups.
func (s *Spatiotemporal) Forward(groups *tensor.Tensor) ([]float32, error) {
	if err := groups.AssertShape("spatiotemporal input", -1, s.frames, s.channels, s.height, s.width); err != nil {
		return nil, err
	}

	// (n, f, c, h, w) -> (n, c, f, h, w): frames become convolution depth.
	depthFirst, err := groups.Permute(0, 2, 1, 3, 4)
	if err != nil {
		return nil, err
	}

	motion, err := s.conv.Forward(depthFirst)
	if err != nil {
		return nil, err
	}

	// The kernel spans the full frame axis, so depth collapsed to 1; squeeze it.
	if err := motion.AssertShape("motion map", -1, -1, 1, s.height, s.width); err != nil {
		return nil, err
	}
	squeezed, err := motion.Reshape(motion.Dim(0), motion.Dim(1), s.height, s.width)
	if err != nil {
		return nil, err
	}

	return s.extractor.Forward(squeezed)
}

// Close releases the extractor.
func (s *Spatiotemporal) Close() error { return s.extractor.Close() }

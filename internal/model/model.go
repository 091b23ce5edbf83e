package model

import (
	"deepscan/internal/config"
	"deepscan/internal/tensor"
)

// Model is the two-branch detector: a spatial branch scoring every frame, a
// spatiotemporal branch scoring every group, and a fusion head merging both
// into one fake probability per video. It runs in evaluation mode only.
type Model struct {
	cfg            *config.Config
	spatial        *Spatial
	spatiotemporal *Spatiotemporal
	fusion         *Fusion
}

// Load opens the checkpoint directory: one backbone graph per branch, chosen
// by the configured scale, plus the head weights.
func Load(modelDir string, cfg *config.Config) (*Model, error) {
	spatialExtractor, err := OpenExtractor(modelDir, "spatial", cfg.Model.Submodules.Spatial.Backbone)
	if err != nil {
		return nil, err
	}

	spatiotemporalExtractor, err := OpenExtractor(modelDir, "spatiotemporal", cfg.Model.Submodules.Spatiotemporal.Backbone)
	if err != nil {
		spatialExtractor.Close()
		return nil, err
	}

	conv, fusion, err := loadHead(modelDir, cfg)
	if err != nil {
		spatialExtractor.Close()
		spatiotemporalExtractor.Close()
		return nil, err
	}

	return New(cfg, spatialExtractor, spatiotemporalExtractor, conv, fusion), nil
}

// New assembles a model from its parts. Tests use this with stub extractors.
func New(cfg *config.Config, spatialExtractor, spatiotemporalExtractor FeatureExtractor, conv *Conv3D, fusion *Fusion) *Model {
	shape := cfg.Model.InputShape
	return &Model{
		cfg:            cfg,
		spatial:        NewSpatial(spatialExtractor, shape),
		spatiotemporal: NewSpatiotemporal(conv, spatiotemporalExtractor, shape),
		fusion:         fusion,
	}
}

// Forward scores one sample volume shaped (groups, frames, channels, height,
// width) and returns P(fake). Every reshape is checked; a volume that does
// not match the configured input shape fails loudly instead of being coerced.
func (m *Model) Forward(volume *tensor.Tensor) (float32, error) {
	shape := m.cfg.Model.InputShape
	if err := volume.AssertShape("model input",
		shape.GroupsPerVideo, shape.FramesPerGroup, shape.Channels, shape.Height, shape.Width); err != nil {
		return 0, err
	}

	// Spatial branch: flatten groups and frames into one frame batch.
	frames, err := volume.Reshape(
		shape.GroupsPerVideo*shape.FramesPerGroup, shape.Channels, shape.Height, shape.Width)
	if err != nil {
		return 0, err
	}
	frameScores, err := m.spatial.Forward(frames)
	if err != nil {
		return 0, err
	}

	// Spatiotemporal branch: the volume is already one group per row.
	groupScores, err := m.spatiotemporal.Forward(volume)
	if err != nil {
		return 0, err
	}

	return m.fusion.Forward(frameScores, groupScores)
}

// Threshold returns the configured decision cutoff for reporting.
func (m *Model) Threshold() float64 {
	return m.cfg.Model.DecisionStrategy.Threshold
}

// Close releases both backbones.
func (m *Model) Close() {
	m.spatial.Close()
	m.spatiotemporal.Close()
}

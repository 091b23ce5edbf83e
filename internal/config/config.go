package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Error reports a missing or inconsistent configuration key. Configuration
// errors are fatal at startup.
type Error struct {
	Key    string
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("config key %q: %s", e.Key, e.Reason)
}

// InputShape is the fixed tensor shape the model is built for. No ragged
// dimensions ever reach the model; the dataset guarantees it.
type InputShape struct {
	BatchSize      int `json:"batch-size"`
	GroupsPerVideo int `json:"groups-per-video"`
	FramesPerGroup int `json:"frames-per-group"`
	Channels       int `json:"channels"`
	Height         int `json:"height"`
	Width          int `json:"width"`
}

// Backbone selects the appearance feature extractor variant.
type Backbone struct {
	Scale      string `json:"scale"`
	NumClasses int    `json:"num-classes"`
}

// MotionDiff configures the depth-collapsing convolution of the
// spatiotemporal branch.
type MotionDiff struct {
	Features int `json:"features"`
}

// Submodule configures one branch of the model.
type Submodule struct {
	Backbone   Backbone    `json:"backbone"`
	MotionDiff *MotionDiff `json:"motion-diff,omitempty"`
}

// Submodules holds both branch configurations.
type Submodules struct {
	Spatial        Submodule `json:"spatial"`
	Spatiotemporal Submodule `json:"spatiotemporal"`
}

// DecisionStrategy holds the probability cutoff consumed by reporting.
type DecisionStrategy struct {
	Threshold float64 `json:"threshold"`
}

// Model groups the model-side configuration.
type Model struct {
	InputShape       InputShape       `json:"input-shape"`
	Submodules       Submodules       `json:"submodules"`
	DecisionStrategy DecisionStrategy `json:"decision-strategy"`
}

// Sampling controls how frame groups are drawn from a track.
type Sampling struct {
	NumGroups int `json:"num_groups"`
	GroupSize int `json:"group_size"`
}

// AugmentStage names one pipeline stage with its application probability.
type AugmentStage struct {
	Name        string  `json:"name"`
	Probability float64 `json:"probability"`
}

// Config is the immutable configuration document, loaded once at process
// start and passed by reference into every constructor. It is never mutated
// after Load returns.
type Config struct {
	Model        Model          `json:"model"`
	Sampling     Sampling       `json:"sampling"`
	InputSize    int            `json:"input-size"`
	Augmentation []AugmentStage `json:"augmentation,omitempty"`

	// Paths sourced from the environment, not the document.
	LogDirectory string `json:"-"`
	DatabasePath string `json:"-"`
}

// DefaultPath returns the configuration document location, overridable via
// CONFIG_PATH.
func DefaultPath() string {
	return getEnv("CONFIG_PATH", filepath.Join(".", "config", "infer_config.json"))
}

// Load reads and validates the configuration document.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config document: %w", err)
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config document %s: %w", path, err)
	}

	cfg.LogDirectory = getEnv("LOG_DIR", filepath.Join(".", "logs"))
	cfg.DatabasePath = getEnv("DB_PATH", filepath.Join(".", "deepscan.db"))

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	shape := c.Model.InputShape
	checks := []struct {
		key string
		val int
	}{
		{"model.input-shape.batch-size", shape.BatchSize},
		{"model.input-shape.groups-per-video", shape.GroupsPerVideo},
		{"model.input-shape.frames-per-group", shape.FramesPerGroup},
		{"model.input-shape.channels", shape.Channels},
		{"model.input-shape.height", shape.Height},
		{"model.input-shape.width", shape.Width},
		{"sampling.num_groups", c.Sampling.NumGroups},
		{"sampling.group_size", c.Sampling.GroupSize},
		{"input-size", c.InputSize},
	}
	for _, check := range checks {
		if check.val < 1 {
			return &Error{Key: check.key, Reason: "missing or not a positive integer"}
		}
	}

	if shape.Height != shape.Width {
		return &Error{Key: "model.input-shape.height", Reason: "input frames must be square"}
	}
	if shape.Height != c.InputSize {
		return &Error{Key: "input-size", Reason: fmt.Sprintf("must match model.input-shape.height (%d)", shape.Height)}
	}
	if shape.GroupsPerVideo != c.Sampling.NumGroups {
		return &Error{Key: "sampling.num_groups", Reason: fmt.Sprintf("must match model.input-shape.groups-per-video (%d)", shape.GroupsPerVideo)}
	}
	if shape.FramesPerGroup != c.Sampling.GroupSize {
		return &Error{Key: "sampling.group_size", Reason: fmt.Sprintf("must match model.input-shape.frames-per-group (%d)", shape.FramesPerGroup)}
	}
	if shape.FramesPerGroup != 2 {
		return &Error{Key: "model.input-shape.frames-per-group", Reason: "motion pairs are fixed at 2 frames per group"}
	}

	if c.Model.Submodules.Spatial.Backbone.Scale == "" {
		return &Error{Key: "model.submodules.spatial.backbone.scale", Reason: "missing"}
	}
	if c.Model.Submodules.Spatiotemporal.Backbone.Scale == "" {
		return &Error{Key: "model.submodules.spatiotemporal.backbone.scale", Reason: "missing"}
	}
	if c.Model.Submodules.Spatiotemporal.MotionDiff == nil || c.Model.Submodules.Spatiotemporal.MotionDiff.Features < 1 {
		return &Error{Key: "model.submodules.spatiotemporal.motion-diff.features", Reason: "missing or not a positive integer"}
	}

	if t := c.Model.DecisionStrategy.Threshold; t <= 0 || t >= 1 {
		return &Error{Key: "model.decision-strategy.threshold", Reason: "must be strictly between 0 and 1"}
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

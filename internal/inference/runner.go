package inference

import (
	"errors"
	"math"
	"os"

	"deepscan/internal/dataset"
	"deepscan/internal/labels"
	"deepscan/internal/logger"
	"deepscan/internal/tensor"

	"github.com/schollz/progressbar/v3"
)

// Dataset is the random-access sample source the runner iterates.
type Dataset interface {
	Len() int
	At(i int) (dataset.Sample, error)
}

// Scorer turns one sample volume into P(fake).
type Scorer interface {
	Forward(volume *tensor.Tensor) (float32, error)
}

// Observer is notified once per scored track (results buffer, progress hub).
type Observer interface {
	TrackScored(id string, pred, target float32)
}

// Result is one row of the result table.
type Result struct {
	Pred   float32
	Target float32
}

// ResultTable maps track ids to predictions. It grows monotonically during a
// run and is consumed once at shutdown.
type ResultTable map[string]Result

// Runner drives a sequential inference pass over the dataset, batch size 1,
// with no cross-sample dependency. Per-track data failures are logged and
// skipped; model and shape failures abort the run.
type Runner struct {
	scorer            Scorer
	data              Dataset
	logger            *logger.Logger
	skipMissingLabels bool
	observers         []Observer
}

// NewRunner builds a runner. skipMissingLabels softens the label lookup
// failure from fatal to skip-and-log.
func NewRunner(scorer Scorer, data Dataset, log *logger.Logger, skipMissingLabels bool) *Runner {
	return &Runner{
		scorer:            scorer,
		data:              data,
		logger:            log,
		skipMissingLabels: skipMissingLabels,
	}
}

// AddObserver registers a per-track listener.
func (r *Runner) AddObserver(o Observer) {
	r.observers = append(r.observers, o)
}

// Run processes the full dataset and returns the result table.
func (r *Runner) Run() (ResultTable, error) {
	bar := progressbar.NewOptions(r.data.Len(),
		progressbar.OptionSetDescription("🔎 Scoring tracks"),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
	)
	defer bar.Finish()

	table := make(ResultTable)
	skipped := 0

	for i := 0; i < r.data.Len(); i++ {
		sample, err := r.data.At(i)
		bar.Add(1)
		if err != nil {
			var trackErr *dataset.TrackError
			if !errors.As(err, &trackErr) {
				return nil, err
			}
			var missing *labels.NotFoundError
			if errors.As(trackErr.Err, &missing) && !r.skipMissingLabels {
				return nil, err
			}
			r.logger.Warning("Skipping track: %v", err)
			skipped++
			continue
		}

		pred, err := r.scorer.Forward(sample.Volume)
		if err != nil {
			return nil, err
		}

		table[sample.ID] = Result{Pred: pred, Target: sample.Label}
		for _, o := range r.observers {
			o.TrackScored(sample.ID, pred, sample.Label)
		}
	}

	if skipped > 0 {
		r.logger.Warning("Skipped %d of %d tracks", skipped, r.data.Len())
	}
	return table, nil
}

// BCESum computes summed binary cross-entropy over the result table, plus its
// mean. Predictions are clamped away from 0 and 1 so the loss stays finite.
func BCESum(table ResultTable) (total, mean float64) {
	const eps = 1e-7
	for _, res := range table {
		p := float64(res.Pred)
		if p < eps {
			p = eps
		}
		if p > 1-eps {
			p = 1 - eps
		}
		y := float64(res.Target)
		total += -(y*math.Log(p) + (1-y)*math.Log(1-p))
	}
	if len(table) > 0 {
		mean = total / float64(len(table))
	}
	return total, mean
}

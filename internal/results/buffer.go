package results

import (
	"sync"

	"deepscan/internal/logger"
	"deepscan/internal/repository/sqlite"
)

// Buffer accumulates scored tracks and flushes them to the run repository in
// batches, so the sequential inference loop is not stalled by one database
// write per track.
type Buffer struct {
	repo      *sqlite.RunRepository
	runID     string
	threshold float64
	limit     int
	logger    *logger.Logger

	mu   sync.Mutex
	rows []sqlite.Prediction
}

// NewBuffer creates a buffer flushing every limit predictions.
func NewBuffer(repo *sqlite.RunRepository, runID string, threshold float64, limit int, log *logger.Logger) *Buffer {
	if limit < 1 {
		limit = 1
	}
	return &Buffer{
		repo:      repo,
		runID:     runID,
		threshold: threshold,
		limit:     limit,
		logger:    log,
		rows:      make([]sqlite.Prediction, 0, limit),
	}
}

// TrackScored buffers one prediction; implements the runner observer.
func (b *Buffer) TrackScored(id string, pred, target float32) {
	b.mu.Lock()
	b.rows = append(b.rows, sqlite.Prediction{
		RunID:   b.runID,
		TrackID: id,
		Pred:    float64(pred),
		Target:  float64(target),
		Fake:    float64(pred) > b.threshold,
	})
	full := len(b.rows) >= b.limit
	b.mu.Unlock()

	if full {
		b.Flush()
	}
}

// Flush writes all buffered predictions in one transaction.
func (b *Buffer) Flush() {
	b.mu.Lock()
	if len(b.rows) == 0 {
		b.mu.Unlock()
		return
	}
	batch := make([]sqlite.Prediction, len(b.rows))
	copy(batch, b.rows)
	b.rows = b.rows[:0]
	b.mu.Unlock()

	if err := b.repo.InsertBatch(batch); err != nil {
		b.logger.Error("Failed to persist %d predictions: %v", len(batch), err)
		return
	}
	b.logger.Info("Flushed %d predictions to database", len(batch))
}

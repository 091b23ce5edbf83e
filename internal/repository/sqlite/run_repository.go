package sqlite

import (
	"fmt"
	"time"
)

// Run is one recorded inference pass.
type Run struct {
	ID        string
	StartedAt time.Time
	ModelPath string
	Threshold float64
	TotalLoss float64
	MeanLoss  float64
	Tracks    int
}

// Prediction is one scored track of a run.
type Prediction struct {
	RunID   string
	TrackID string
	Pred    float64
	Target  float64
	Fake    bool
}

// RunRepository stores inference runs and their per-track predictions.
type RunRepository struct {
	db *DB
}

// NewRunRepository creates a new SQLite run repository.
func NewRunRepository(db *DB) *RunRepository {
	return &RunRepository{db: db}
}

// InsertRun records a started run.
func (r *RunRepository) InsertRun(run *Run) error {
	r.db.Lock()
	defer r.db.Unlock()

	_, err := r.db.Conn().Exec(`
		INSERT INTO runs (id, started_at, model_path, threshold)
		VALUES (?, ?, ?, ?)
	`, run.ID, run.StartedAt, run.ModelPath, run.Threshold)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}
	return nil
}

// FinishRun records the aggregate loss once the run completes.
func (r *RunRepository) FinishRun(runID string, totalLoss, meanLoss float64, tracks int) error {
	r.db.Lock()
	defer r.db.Unlock()

	_, err := r.db.Conn().Exec(`
		UPDATE runs SET total_loss = ?, mean_loss = ?, tracks = ? WHERE id = ?
	`, totalLoss, meanLoss, tracks, runID)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	return nil
}

// InsertBatch adds multiple predictions in a single transaction.
func (r *RunRepository) InsertBatch(predictions []Prediction) error {
	r.db.Lock()
	defer r.db.Unlock()

	tx, err := r.db.Conn().Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO predictions (run_id, track_id, pred, target, fake)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, p := range predictions {
		if _, err := stmt.Exec(p.RunID, p.TrackID, p.Pred, p.Target, p.Fake); err != nil {
			return fmt.Errorf("failed to insert prediction: %w", err)
		}
	}

	return tx.Commit()
}

// GetRuns retrieves all recorded runs, newest first.
func (r *RunRepository) GetRuns() ([]Run, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	rows, err := r.db.Conn().Query(`
		SELECT id, started_at, model_path, threshold,
		       COALESCE(total_loss, 0), COALESCE(mean_loss, 0), tracks
		FROM runs ORDER BY started_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		if err := rows.Scan(&run.ID, &run.StartedAt, &run.ModelPath, &run.Threshold,
			&run.TotalLoss, &run.MeanLoss, &run.Tracks); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}

	return runs, nil
}

// GetPredictionsByRunID retrieves all predictions for a run.
func (r *RunRepository) GetPredictionsByRunID(runID string) ([]Prediction, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	rows, err := r.db.Conn().Query(`
		SELECT run_id, track_id, pred, target, fake
		FROM predictions WHERE run_id = ?
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query predictions: %w", err)
	}
	defer rows.Close()

	var predictions []Prediction
	for rows.Next() {
		var p Prediction
		if err := rows.Scan(&p.RunID, &p.TrackID, &p.Pred, &p.Target, &p.Fake); err != nil {
			return nil, fmt.Errorf("failed to scan prediction: %w", err)
		}
		predictions = append(predictions, p)
	}

	return predictions, nil
}

package sqlite

import (
	"path/filepath"
	"strconv"
	"testing"
	"time"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestRunRepository_InsertAndFinish(t *testing.T) {
	repo := NewRunRepository(testDB(t))

	run := &Run{
		ID:        "run-1",
		StartedAt: time.Now(),
		ModelPath: "/models/detector",
		Threshold: 0.5,
	}
	if err := repo.InsertRun(run); err != nil {
		t.Fatalf("Failed to insert run: %v", err)
	}

	if err := repo.FinishRun("run-1", 3.21, 0.64, 5); err != nil {
		t.Fatalf("Failed to finish run: %v", err)
	}

	runs, err := repo.GetRuns()
	if err != nil {
		t.Fatalf("Failed to get runs: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("Expected 1 run, got %d", len(runs))
	}
	got := runs[0]
	if got.ID != "run-1" || got.ModelPath != "/models/detector" {
		t.Errorf("Unexpected run: %+v", got)
	}
	if got.TotalLoss != 3.21 || got.MeanLoss != 0.64 || got.Tracks != 5 {
		t.Errorf("Aggregates not recorded: %+v", got)
	}
}

func TestRunRepository_UnfinishedRunHasZeroLoss(t *testing.T) {
	repo := NewRunRepository(testDB(t))

	if err := repo.InsertRun(&Run{ID: "run-1", StartedAt: time.Now(), ModelPath: "m", Threshold: 0.5}); err != nil {
		t.Fatalf("Failed to insert run: %v", err)
	}

	runs, err := repo.GetRuns()
	if err != nil {
		t.Fatalf("Failed to get runs: %v", err)
	}
	if runs[0].TotalLoss != 0 || runs[0].MeanLoss != 0 {
		t.Errorf("Expected zero loss for unfinished run, got %+v", runs[0])
	}
}

func TestRunRepository_PredictionsRoundTrip(t *testing.T) {
	repo := NewRunRepository(testDB(t))

	if err := repo.InsertRun(&Run{ID: "run-1", StartedAt: time.Now(), ModelPath: "m", Threshold: 0.5}); err != nil {
		t.Fatalf("Failed to insert run: %v", err)
	}

	batch := []Prediction{
		{RunID: "run-1", TrackID: "video-a_0", Pred: 0.9, Target: 1, Fake: true},
		{RunID: "run-1", TrackID: "video-b_0", Pred: 0.2, Target: 0, Fake: false},
	}
	if err := repo.InsertBatch(batch); err != nil {
		t.Fatalf("Failed to insert batch: %v", err)
	}

	predictions, err := repo.GetPredictionsByRunID("run-1")
	if err != nil {
		t.Fatalf("Failed to get predictions: %v", err)
	}
	if len(predictions) != 2 {
		t.Fatalf("Expected 2 predictions, got %d", len(predictions))
	}
	for i, p := range batch {
		if predictions[i] != p {
			t.Errorf("Prediction %d mismatch: expected %+v, got %+v", i, p, predictions[i])
		}
	}

	other, err := repo.GetPredictionsByRunID("run-2")
	if err != nil {
		t.Fatalf("Failed to get predictions: %v", err)
	}
	if len(other) != 0 {
		t.Errorf("Expected no predictions for unknown run, got %d", len(other))
	}
}

func TestRunRepository_RunsNewestFirst(t *testing.T) {
	repo := NewRunRepository(testDB(t))

	base := time.Now()
	for i := 0; i < 3; i++ {
		run := &Run{
			ID:        "run-" + strconv.Itoa(i),
			StartedAt: base.Add(time.Duration(i) * time.Minute),
			ModelPath: "m",
			Threshold: 0.5,
		}
		if err := repo.InsertRun(run); err != nil {
			t.Fatalf("Failed to insert run: %v", err)
		}
	}

	runs, err := repo.GetRuns()
	if err != nil {
		t.Fatalf("Failed to get runs: %v", err)
	}
	if len(runs) != 3 {
		t.Fatalf("Expected 3 runs, got %d", len(runs))
	}
	if runs[0].ID != "run-2" || runs[2].ID != "run-0" {
		t.Errorf("Runs not ordered newest first: %v, %v, %v", runs[0].ID, runs[1].ID, runs[2].ID)
	}
}

func TestRunRepository_ConcurrentBatches(t *testing.T) {
	repo := NewRunRepository(testDB(t))

	if err := repo.InsertRun(&Run{ID: "run-1", StartedAt: time.Now(), ModelPath: "m", Threshold: 0.5}); err != nil {
		t.Fatalf("Failed to insert run: %v", err)
	}

	done := make(chan bool, 10)
	for i := 0; i < 10; i++ {
		go func(idx int) {
			batch := []Prediction{{
				RunID:   "run-1",
				TrackID: "video-" + strconv.Itoa(idx) + "_0",
				Pred:    0.5,
				Target:  1,
			}}
			if err := repo.InsertBatch(batch); err != nil {
				t.Errorf("Concurrent batch %d failed: %v", idx, err)
			}
			done <- true
		}(i)
	}
	for i := 0; i < 10; i++ {
		<-done
	}

	predictions, err := repo.GetPredictionsByRunID("run-1")
	if err != nil {
		t.Fatalf("Failed to get predictions: %v", err)
	}
	if len(predictions) != 10 {
		t.Errorf("Expected 10 predictions, got %d", len(predictions))
	}
}

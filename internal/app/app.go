package app

import (
	"fmt"
	"os"
	"time"

	"deepscan/internal/augment"
	"deepscan/internal/config"
	"deepscan/internal/dataset"
	"deepscan/internal/inference"
	"deepscan/internal/labels"
	"deepscan/internal/logger"
	"deepscan/internal/model"
	"deepscan/internal/progress"
	"deepscan/internal/report"
	"deepscan/internal/repository/sqlite"
	"deepscan/internal/results"

	"github.com/google/uuid"
)

// predictionBatchSize is how many scored tracks are buffered before one
// database transaction.
const predictionBatchSize = 32

// Options carries the CLI surface of one inference run. Sampling and shape
// parameters never come from flags; those live in the configuration document.
type Options struct {
	ConfigPath        string
	DataPath          string
	MetadataPath      string
	ModelPath         string
	SavePath          string
	Listen            string
	SkipMissingLabels bool
	CrossValidation   bool
}

// RunInference executes one full pass: config, labels, dataset, model,
// sequential scoring, report and persistence.
func RunInference(opts Options) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return err
	}

	log := logger.NewLogger(cfg.LogDirectory)
	log.Info("🔬 deepscan inference")
	log.Info("📁 Frames: %s", opts.DataPath)
	log.Info("🏷️  Labels: %s", opts.MetadataPath)
	log.Info("🤖 Model: %s", opts.ModelPath)

	pipeline, err := buildPipeline(cfg)
	if err != nil {
		return err
	}

	data, err := buildDataset(opts, cfg, pipeline)
	if err != nil {
		return err
	}
	log.Info("Dataset ready: %d tracks", data.Len())

	detector, err := model.Load(opts.ModelPath, cfg)
	if err != nil {
		return err
	}
	defer detector.Close()

	db, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer db.Close()

	repo := sqlite.NewRunRepository(db)
	runID := uuid.NewString()
	if err := repo.InsertRun(&sqlite.Run{
		ID:        runID,
		StartedAt: time.Now().UTC(),
		ModelPath: opts.ModelPath,
		Threshold: detector.Threshold(),
	}); err != nil {
		return err
	}

	buffer := results.NewBuffer(repo, runID, detector.Threshold(), predictionBatchSize, log)

	runner := inference.NewRunner(detector, data, log, opts.SkipMissingLabels)
	runner.AddObserver(buffer)

	if opts.Listen != "" {
		hub := progress.NewHub(log)
		progress.Serve(opts.Listen, hub, log)
		runner.AddObserver(hub)
	}

	table, err := runner.Run()
	buffer.Flush()
	if err != nil {
		return err
	}

	totalLoss, meanLoss := inference.BCESum(table)
	if err := repo.FinishRun(runID, totalLoss, meanLoss, len(table)); err != nil {
		log.Error("Failed to record run summary: %v", err)
	}

	if err := report.Write(opts.SavePath, table); err != nil {
		return err
	}
	log.Info("Report written: %s", opts.SavePath)
	log.Info("Total loss: %f (mean: %f)", totalLoss, meanLoss)

	report.Summary(os.Stdout, table, totalLoss, meanLoss, detector.Threshold())
	return nil
}

func buildPipeline(cfg *config.Config) (*augment.Pipeline, error) {
	if len(cfg.Augmentation) == 0 {
		return augment.Inference(cfg.InputSize), nil
	}
	specs := make([]augment.StageSpec, 0, len(cfg.Augmentation))
	for _, stage := range cfg.Augmentation {
		specs = append(specs, augment.StageSpec{Name: stage.Name, Probability: stage.Probability})
	}
	return augment.FromSpecs(specs, cfg.InputSize)
}

func buildDataset(opts Options, cfg *config.Config, pipeline *augment.Pipeline) (inference.Dataset, error) {
	var table labels.Table
	var err error
	if opts.CrossValidation {
		table, err = labels.ResolveSplit(opts.MetadataPath)
	} else {
		table, err = labels.Resolve(opts.MetadataPath)
	}
	if err != nil {
		return nil, err
	}

	if opts.CrossValidation {
		return dataset.NewSplit(opts.DataPath, table, pipeline, cfg)
	}

	ids, err := dataset.ListTrackIDs(opts.DataPath)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("no tracks found under %s", opts.DataPath)
	}
	return dataset.New(ids, opts.DataPath, table, pipeline, cfg), nil
}

package training

import (
	"context"
	"fmt"
	"time"

	"github.com/OldStager01/healthcare-records/internal/logger"
	"github.com/OldStager01/healthcare-records/internal/prediction"
	"github.com/OldStager01/healthcare-records/pkg/models"
)

type Config struct {
	Version      string
	TestFraction float64
	Seed         int64
	Forest       ForestConfig
}

func DefaultConfig() Config {
	return Config{
		TestFraction: 0.2,
		Seed:         42,
		Forest: ForestConfig{
			NTrees: 100,
			Tree: TreeConfig{
				MaxDepth:        15,
				MinSamplesSplit: 10,
				MinSamplesLeaf:  5,
			},
			Bootstrap: true,
			Seed:      42,
		},
	}
}

type Report struct {
	Version        string
	Samples        int
	Dropped        int
	Positives      int
	TrainSize      int
	TestSize       int
	ROCAUC         float64
	Confusion      ConfusionMatrix
	TopFeatures    []FeatureImportance
	Stratification Stratification
	Duration       time.Duration
}

// Train fits encoders, scaler and forest and evaluates on a held-out split.
// Risk stratification is computed over every usable row.
func Train(ctx context.Context, patients []*models.Patient, cfg Config) (*prediction.Model, *Report, error) {
	if cfg.Version == "" {
		return nil, nil, fmt.Errorf("training: version is required")
	}
	start := time.Now()

	ds, err := Prepare(patients)
	if err != nil {
		return nil, nil, err
	}

	report := &Report{
		Version: cfg.Version,
		Samples: len(ds.X),
		Dropped: ds.Dropped,
	}
	for _, label := range ds.Y {
		report.Positives += label
	}

	trainIdx, testIdx := StratifiedSplit(ds.Y, cfg.TestFraction, cfg.Seed)
	report.TrainSize, report.TestSize = len(trainIdx), len(testIdx)

	trainX, trainY := subset(ds, trainIdx)
	testX, testY := subset(ds, testIdx)

	scaler := prediction.FitScaler(trainX)
	for i := range trainX {
		trainX[i] = scaler.Transform(trainX[i])
	}

	logger.WithFields(map[string]interface{}{
		"samples": report.Samples,
		"train":   report.TrainSize,
		"test":    report.TestSize,
		"trees":   cfg.Forest.NTrees,
	}).Info("Training random forest")

	forest, importances, err := TrainForest(ctx, trainX, trainY, cfg.Forest)
	if err != nil {
		return nil, nil, fmt.Errorf("training: fit forest: %w", err)
	}

	model := &prediction.Model{
		Version:            cfg.Version,
		Encoders:           ds.Encoders,
		Scaler:             scaler,
		Forest:             forest,
		FeatureImportances: importances[:],
	}

	testScores := score(model, testX)
	report.ROCAUC = ROCAUC(testY, testScores)
	report.Confusion = NewConfusionMatrix(testY, testScores)
	report.TopFeatures = TopFeatures(importances, 5)
	report.Stratification = Stratify(score(model, ds.X))
	report.Duration = time.Since(start)

	return model, report, nil
}

func subset(ds *Dataset, idx []int) ([]prediction.Vector, []int) {
	x := make([]prediction.Vector, len(idx))
	y := make([]int, len(idx))
	for k, i := range idx {
		x[k] = ds.X[i]
		y[k] = ds.Y[i]
	}
	return x, y
}

// score runs the forest on unscaled encoded rows.
func score(m *prediction.Model, x []prediction.Vector) []float64 {
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = m.Forest.PredictProba(m.Scaler.Transform(v))
	}
	return out
}

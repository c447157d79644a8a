package model

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/shownfy/kansai-mansion-analytics/internal/config"
	"github.com/shownfy/kansai-mansion-analytics/internal/features"
)

// DefaultMAPE is used for the confidence interval when an artifact carries
// no test metrics.
const DefaultMAPE = 10.0

// Artifact is everything serving needs: the fitted encoder and the
// regressor trained on its output.
type Artifact struct {
	Name        string
	Version     string
	RunID       string
	TrainedAt   time.Time
	Encoder     *features.Encoder
	Regressor   *Regressor
	Metrics     Metrics
	Importances []Importance
	TrainRows   int
	TestRows    int
}

// MAPE returns the test MAPE, or DefaultMAPE when unknown.
func (a *Artifact) MAPE() float64 {
	if a.Metrics.MAPE <= 0 {
		return DefaultMAPE
	}
	return a.Metrics.MAPE
}

// NewVersion returns a sortable version string for a training time.
func NewVersion(t time.Time) string {
	return t.Format("20060102_150405.000") + "_" + uuid.New().String()[:8]
}

// Fit splits the rows, fits the encoder on the training part, trains the
// regressor and evaluates it on the held-out part.
func Fit(rows []features.Row, targets []float64, cfg config.ModelConfig) (*Artifact, error) {
	if len(rows) == 0 {
		return nil, ErrEmptyTrainingSet
	}
	if len(rows) != len(targets) {
		return nil, fmt.Errorf("%w: %d rows, %d targets", ErrShapeMismatch, len(rows), len(targets))
	}

	trainIdx, testIdx := TrainTestSplit(len(rows), cfg.TestRatio, cfg.Seed)
	trainRows, trainY := subset(rows, targets, trainIdx)
	testRows, testY := subset(rows, targets, testIdx)

	enc, err := features.FitEncoder(trainRows)
	if err != nil {
		return nil, err
	}
	Xtrain, err := enc.TransformAll(trainRows)
	if err != nil {
		return nil, err
	}

	slog.Info("Model: training started",
		"name", cfg.Name, "train_rows", len(trainRows), "test_rows", len(testRows), "columns", enc.Width())

	started := time.Now()
	reg, err := Train(Xtrain, trainY, ParamsFromConfig(cfg))
	if err != nil {
		return nil, err
	}

	var metrics Metrics
	if len(testRows) > 0 {
		Xtest, err := enc.TransformAll(testRows)
		if err != nil {
			return nil, err
		}
		metrics = Evaluate(testY, reg.PredictAll(Xtest))
	}

	art := &Artifact{
		Name:        cfg.Name,
		Version:     NewVersion(started),
		TrainedAt:   started,
		Encoder:     enc,
		Regressor:   reg,
		Metrics:     metrics,
		Importances: Importances(reg, enc.FeatureNames()),
		TrainRows:   len(trainRows),
		TestRows:    len(testRows),
	}

	slog.Info("Model: training completed",
		"version", art.Version,
		"rmse", metrics.RMSE, "mae", metrics.MAE, "mape", metrics.MAPE, "r2", metrics.R2,
		"duration", time.Since(started).Round(time.Millisecond))
	return art, nil
}

func subset(rows []features.Row, targets []float64, idx []int) ([]features.Row, []float64) {
	r := make([]features.Row, len(idx))
	y := make([]float64, len(idx))
	for i, j := range idx {
		r[i] = rows[j]
		y[i] = targets[j]
	}
	return r, y
}

// Package model trains and stores the gradient-boosted price regressor.
package model

import (
	"errors"
	"fmt"
	"log/slog"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/shownfy/kansai-mansion-analytics/internal/config"
)

var (
	// ErrEmptyTrainingSet is returned when there is nothing to fit.
	ErrEmptyTrainingSet = errors.New("empty training set")

	// ErrShapeMismatch is returned when X and y disagree in length.
	ErrShapeMismatch = errors.New("feature matrix and target length differ")
)

// Params are the boosting hyperparameters.
type Params struct {
	NEstimators    int
	MaxDepth       int
	LearningRate   float64
	MinSamplesLeaf int
}

// ParamsFromConfig reads the hyperparameters from the model config.
func ParamsFromConfig(cfg config.ModelConfig) Params {
	return Params{
		NEstimators:    cfg.NEstimators,
		MaxDepth:       cfg.MaxDepth,
		LearningRate:   cfg.LearningRate,
		MinSamplesLeaf: cfg.MinSamplesLeaf,
	}
}

// Regressor is a least-squares gradient-boosted tree ensemble. Fields are
// exported for gob encoding.
type Regressor struct {
	Init         float64
	LearningRate float64
	Trees        []*Node
	NFeatures    int
	// Gains is the total squared-error reduction credited to each feature.
	Gains []float64
}

// Train fits a regressor on an encoded matrix.
func Train(X [][]float64, y []float64, p Params) (*Regressor, error) {
	if len(X) == 0 {
		return nil, ErrEmptyTrainingSet
	}
	if len(X) != len(y) {
		return nil, fmt.Errorf("%w: %d rows, %d targets", ErrShapeMismatch, len(X), len(y))
	}
	if p.MinSamplesLeaf < 1 {
		p.MinSamplesLeaf = 1
	}

	nFeatures := len(X[0])
	r := &Regressor{
		Init:         stat.Mean(y, nil),
		LearningRate: p.LearningRate,
		NFeatures:    nFeatures,
		Gains:        make([]float64, nFeatures),
	}

	pred := make([]float64, len(y))
	for i := range pred {
		pred[i] = r.Init
	}
	residual := make([]float64, len(y))

	b := &treeBuilder{
		X:              X,
		target:         residual,
		maxDepth:       p.MaxDepth,
		minSamplesLeaf: p.MinSamplesLeaf,
		gains:          r.Gains,
		goesLeft:       make([]bool, len(y)),
	}
	sorted := presort(X)

	for t := 0; t < p.NEstimators; t++ {
		floats.SubTo(residual, y, pred)
		tree := b.build(sorted, 0)
		r.Trees = append(r.Trees, tree)
		for i, x := range X {
			pred[i] += r.LearningRate * tree.predict(x)
		}
		if (t+1)%50 == 0 {
			slog.Debug("Model: boosting progress", "trees", t+1, "train_rmse", rmse(y, pred))
		}
	}
	return r, nil
}

// Predict scores one encoded row.
func (r *Regressor) Predict(x []float64) float64 {
	out := r.Init
	for _, t := range r.Trees {
		out += r.LearningRate * t.predict(x)
	}
	return out
}

// PredictAll scores every row of X.
func (r *Regressor) PredictAll(X [][]float64) []float64 {
	out := make([]float64, len(X))
	for i, x := range X {
		out[i] = r.Predict(x)
	}
	return out
}

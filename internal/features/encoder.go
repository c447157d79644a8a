package features

import (
	"errors"
	"fmt"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// ErrNoRows is returned when fitting an encoder on an empty matrix.
var ErrNoRows = errors.New("no rows to fit encoder")

// Encoder standardizes numeric features and one-hot encodes categorical
// ones. It is fitted once on the training rows and stored with the model;
// serving reuses it as is. Fields are exported for gob encoding.
type Encoder struct {
	Means      []float64
	Stds       []float64
	Categories [][]string
}

// FitEncoder learns per-column mean and standard deviation and the
// category vocabulary of each categorical feature.
func FitEncoder(rows []Row) (*Encoder, error) {
	if len(rows) == 0 {
		return nil, ErrNoRows
	}

	nNum := len(NumericFeatures)
	columns := make([][]float64, nNum)
	for i := range columns {
		columns[i] = make([]float64, len(rows))
	}
	seen := make([]map[string]struct{}, len(CategoricalFeatures))
	for i := range seen {
		seen[i] = make(map[string]struct{})
	}

	for r, row := range rows {
		for i, v := range row.Numeric() {
			columns[i][r] = v
		}
		for i, v := range row.Categorical() {
			seen[i][v] = struct{}{}
		}
	}

	enc := &Encoder{
		Means:      make([]float64, nNum),
		Stds:       make([]float64, nNum),
		Categories: make([][]string, len(CategoricalFeatures)),
	}
	for i, col := range columns {
		mean, std := stat.PopMeanStdDev(col, nil)
		if std == 0 {
			std = 1
		}
		enc.Means[i] = mean
		enc.Stds[i] = std
	}
	for i, set := range seen {
		cats := make([]string, 0, len(set))
		for c := range set {
			cats = append(cats, c)
		}
		sort.Strings(cats)
		enc.Categories[i] = cats
	}
	return enc, nil
}

// Width is the length of an encoded vector.
func (e *Encoder) Width() int {
	n := len(e.Means)
	for _, cats := range e.Categories {
		n += len(cats)
	}
	return n
}

// Transform encodes one row. A category not seen during fitting leaves all
// of its one-hot columns at zero.
func (e *Encoder) Transform(row Row) ([]float64, error) {
	numeric := row.Numeric()
	if len(numeric) != len(e.Means) || len(e.Categories) != len(CategoricalFeatures) {
		return nil, fmt.Errorf("encoder shape mismatch: fitted %d numeric / %d categorical, row has %d / %d",
			len(e.Means), len(e.Categories), len(numeric), len(CategoricalFeatures))
	}

	out := make([]float64, 0, e.Width())
	for i, v := range numeric {
		out = append(out, (v-e.Means[i])/e.Stds[i])
	}
	for i, v := range row.Categorical() {
		for _, c := range e.Categories[i] {
			if c == v {
				out = append(out, 1)
			} else {
				out = append(out, 0)
			}
		}
	}
	return out, nil
}

// TransformAll encodes rows into a matrix.
func (e *Encoder) TransformAll(rows []Row) ([][]float64, error) {
	out := make([][]float64, len(rows))
	for i, row := range rows {
		x, err := e.Transform(row)
		if err != nil {
			return nil, err
		}
		out[i] = x
	}
	return out, nil
}

// FeatureNames returns the encoded column names, e.g. "structure_type=RC".
func (e *Encoder) FeatureNames() []string {
	names := append([]string(nil), NumericFeatures...)
	for i, cats := range e.Categories {
		for _, c := range cats {
			names = append(names, CategoricalFeatures[i]+"="+c)
		}
	}
	return names
}

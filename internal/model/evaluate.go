package model

import (
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Metrics are computed on the held-out test split.
type Metrics struct {
	RMSE float64 `json:"rmse"`
	MAE  float64 `json:"mae"`
	MAPE float64 `json:"mape"` // percent
	R2   float64 `json:"r2"`
}

// Evaluate compares predictions with actual prices. Rows with a zero
// actual price are left out of MAPE.
func Evaluate(actual, predicted []float64) Metrics {
	if len(actual) == 0 || len(actual) != len(predicted) {
		return Metrics{}
	}

	var absSum, pctSum float64
	pctN := 0
	for i := range actual {
		diff := math.Abs(actual[i] - predicted[i])
		absSum += diff
		if actual[i] != 0 {
			pctSum += diff / math.Abs(actual[i])
			pctN++
		}
	}

	m := Metrics{
		RMSE: rmse(actual, predicted),
		MAE:  absSum / float64(len(actual)),
	}
	if pctN > 0 {
		m.MAPE = pctSum / float64(pctN) * 100
	}
	if r2 := stat.RSquaredFrom(predicted, actual, nil); !math.IsNaN(r2) && !math.IsInf(r2, 0) {
		m.R2 = r2
	}
	return m
}

func rmse(actual, predicted []float64) float64 {
	var sq float64
	for i := range actual {
		d := actual[i] - predicted[i]
		sq += d * d
	}
	return math.Sqrt(sq / float64(len(actual)))
}

// TrainTestSplit shuffles row indices with the given seed and holds out
// testRatio of them. At least one row always stays in training.
func TrainTestSplit(n int, testRatio float64, seed int64) (train, test []int) {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	rnd := rand.New(rand.NewSource(seed))
	rnd.Shuffle(n, func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })

	nTest := int(math.Floor(testRatio * float64(n)))
	if nTest >= n {
		nTest = n - 1
	}
	if nTest < 0 {
		nTest = 0
	}
	test = append([]int(nil), idx[:nTest]...)
	train = append([]int(nil), idx[nTest:]...)
	sort.Ints(test)
	sort.Ints(train)
	return train, test
}

// Importance is the share of squared-error reduction credited to a feature.
type Importance struct {
	Feature    string  `json:"feature"`
	Importance float64 `json:"importance"`
}

// Importances normalizes the regressor's gains and sorts them, largest
// first. names must follow the encoded column order.
func Importances(r *Regressor, names []string) []Importance {
	total := 0.0
	for _, g := range r.Gains {
		total += g
	}
	out := make([]Importance, 0, len(r.Gains))
	for i, g := range r.Gains {
		name := ""
		if i < len(names) {
			name = names[i]
		}
		share := 0.0
		if total > 0 {
			share = g / total
		}
		out = append(out, Importance{Feature: name, Importance: share})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Importance > out[j].Importance })
	return out
}

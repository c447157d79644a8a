// Package predict scores serving rows with the trained artifact.
package predict

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/shownfy/kansai-mansion-analytics/internal/config"
	"github.com/shownfy/kansai-mansion-analytics/internal/features"
	"github.com/shownfy/kansai-mansion-analytics/internal/model"
)

// ErrModelUnavailable means no artifact is loaded. It is a system fault,
// not an input problem, and fails every request until a reload succeeds.
var ErrModelUnavailable = errors.New("prediction model unavailable")

// ciMultiplier widens the test MAPE into the interval half-width.
const ciMultiplier = 1.5

// Outcomes reported to an Observer.
const (
	OutcomeOK          = "ok"
	OutcomeInvalid     = "invalid_input"
	OutcomeUnavailable = "unavailable"
	OutcomeError       = "error"
	OutcomeCached      = "cached"
)

// ArtifactLoader loads the artifact to serve.
type ArtifactLoader interface {
	LoadLatest() (*model.Artifact, error)
}

// Cache stores predictions for repeated identical requests.
type Cache interface {
	Get(ctx context.Context, key string) (*Prediction, bool)
	Set(ctx context.Context, key string, p *Prediction)
}

// Observer receives per-request outcomes.
type Observer interface {
	ObservePrediction(outcome string, elapsed time.Duration)
	ObserveFallback(kind string)
}

// Prediction is a point estimate with its interval.
type Prediction struct {
	Price        float64             `json:"predicted_price"`
	PricePerSqm  float64             `json:"price_per_sqm"`
	Lower        float64             `json:"confidence_lower"`
	Upper        float64             `json:"confidence_upper"`
	ModelVersion string              `json:"model_version"`
	Prefecture   string              `json:"prefecture"`
	Municipality string              `json:"municipality,omitempty"`
	Station      string              `json:"station,omitempty"`
	Fallbacks    []features.Fallback `json:"fallbacks,omitempty"`
	Features     features.Row        `json:"features"`
}

// ProjectionPoint is the estimate at one building age.
type ProjectionPoint struct {
	BuildingAge  int     `json:"building_age"`
	YearsFromNow int     `json:"years_from_now"`
	Price        float64 `json:"predicted_price"`
	PricePerSqm  float64 `json:"price_per_sqm"`
}

// Projection is the price-versus-age curve for one unit.
type Projection struct {
	ModelVersion string              `json:"model_version"`
	Fallbacks    []features.Fallback `json:"fallbacks,omitempty"`
	Points       []ProjectionPoint   `json:"points"`
}

// Engine serves predictions. The artifact pointer is swapped atomically on
// reload; everything it points to is read-only.
type Engine struct {
	mu       sync.RWMutex
	artifact *model.Artifact
	recon    *features.Reconstructor

	loader   ArtifactLoader
	step     int
	maxAge   int
	cache    Cache
	observer Observer
	now      func() time.Time
}

// NewEngine creates an engine without an artifact. Call Reload to load one.
func NewEngine(recon *features.Reconstructor, loader ArtifactLoader, cfg config.ModelConfig) *Engine {
	return &Engine{
		recon:  recon,
		loader: loader,
		step:   cfg.ProjectionStep,
		maxAge: cfg.MaxServingAge,
		now:    time.Now,
	}
}

// WithCache enables the prediction cache.
func (e *Engine) WithCache(c Cache) *Engine {
	e.cache = c
	return e
}

// WithObserver sets the metrics observer.
func (e *Engine) WithObserver(o Observer) *Engine {
	e.observer = o
	return e
}

// Reload loads the latest artifact. On failure the current artifact, if
// any, keeps serving.
func (e *Engine) Reload() error {
	art, err := e.loader.LoadLatest()
	if err != nil {
		return fmt.Errorf("failed to load model artifact: %w", err)
	}
	e.SetArtifact(art)
	slog.Info("Predict: model loaded", "name", art.Name, "version", art.Version, "mape", art.Metrics.MAPE)
	return nil
}

// SetArtifact replaces the served artifact.
func (e *Engine) SetArtifact(art *model.Artifact) {
	e.mu.Lock()
	e.artifact = art
	e.mu.Unlock()
}

// SetReconstructor replaces the master data used for serving rows.
func (e *Engine) SetReconstructor(r *features.Reconstructor) {
	e.mu.Lock()
	e.recon = r
	e.mu.Unlock()
}

// Artifact returns the served artifact, or nil.
func (e *Engine) Artifact() *model.Artifact {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.artifact
}

// Reconstructor returns the current reconstructor.
func (e *Engine) Reconstructor() *features.Reconstructor {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.recon
}

func (e *Engine) snapshot() (*model.Artifact, *features.Reconstructor) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.artifact, e.recon
}

// Score encodes rows with the artifact's fitted encoder and runs the
// regressor. It does no validation of its own.
func Score(art *model.Artifact, rows []features.Row) ([]float64, error) {
	if art == nil {
		return nil, ErrModelUnavailable
	}
	out := make([]float64, len(rows))
	for i, row := range rows {
		x, err := art.Encoder.Transform(row)
		if err != nil {
			return nil, err
		}
		out[i] = art.Regressor.Predict(x)
	}
	return out, nil
}

// Predict estimates the price of one unit.
func (e *Engine) Predict(ctx context.Context, in features.Input) (*Prediction, error) {
	started := e.now()
	p, outcome, err := e.predict(ctx, in)
	e.observe(outcome, e.now().Sub(started))
	return p, err
}

func (e *Engine) predict(ctx context.Context, in features.Input) (*Prediction, string, error) {
	art, recon := e.snapshot()
	if art == nil {
		return nil, OutcomeUnavailable, ErrModelUnavailable
	}
	if in.PredictionYear == 0 {
		in.PredictionYear = e.now().Year()
	}

	key := ""
	if e.cache != nil {
		key = CacheKey(art.Version, recon.Tables().Fingerprint(), in)
		if p, ok := e.cache.Get(ctx, key); ok {
			e.observeFallbacks(p.Fallbacks)
			return p, OutcomeCached, nil
		}
	}

	rec, err := recon.Reconstruct(in)
	if err != nil {
		return nil, outcomeFor(err), err
	}
	e.observeFallbacks(rec.Fallbacks)

	prices, err := Score(art, []features.Row{rec.Row})
	if err != nil {
		return nil, outcomeFor(err), err
	}

	price := math.Max(0, math.Round(prices[0]))
	margin := price * art.MAPE() / 100 * ciMultiplier
	p := &Prediction{
		Price:        price,
		PricePerSqm:  math.Round(price / rec.Row.AreaSqm),
		Lower:        math.Max(0, math.Round(price-margin)),
		Upper:        math.Round(price + margin),
		ModelVersion: art.Version,
		Prefecture:   rec.Prefecture,
		Municipality: rec.Municipality,
		Station:      rec.Station,
		Fallbacks:    rec.Fallbacks,
		Features:     rec.Row,
	}
	if len(rec.Fallbacks) > 0 {
		slog.Info("Predict: fallback values used", "address", in.Address, "fallbacks", rec.Fallbacks)
	}

	if e.cache != nil {
		e.cache.Set(ctx, key, p)
	}
	return p, OutcomeOK, nil
}

// Project estimates the price at the current building age and every
// step after it, up to the maximum supported age. It never extrapolates
// beyond that age.
func (e *Engine) Project(ctx context.Context, in features.Input) (*Projection, error) {
	started := e.now()
	p, outcome, err := e.project(in)
	e.observe(outcome, e.now().Sub(started))
	return p, err
}

func (e *Engine) project(in features.Input) (*Projection, string, error) {
	art, recon := e.snapshot()
	if art == nil {
		return nil, OutcomeUnavailable, ErrModelUnavailable
	}
	if in.PredictionYear == 0 {
		in.PredictionYear = e.now().Year()
	}

	rec, err := recon.Reconstruct(in)
	if err != nil {
		return nil, outcomeFor(err), err
	}
	e.observeFallbacks(rec.Fallbacks)

	ages := ProjectionAges(rec.Row.BuildingAge, e.step, e.maxAge)
	rows := make([]features.Row, len(ages))
	for i, age := range ages {
		rows[i] = rec.Row.WithAge(age)
	}
	prices, err := Score(art, rows)
	if err != nil {
		return nil, outcomeFor(err), err
	}

	proj := &Projection{
		ModelVersion: art.Version,
		Fallbacks:    rec.Fallbacks,
		Points:       make([]ProjectionPoint, len(ages)),
	}
	for i, age := range ages {
		price := math.Max(0, math.Round(prices[i]))
		proj.Points[i] = ProjectionPoint{
			BuildingAge:  age,
			YearsFromNow: age - rec.Row.BuildingAge,
			Price:        price,
			PricePerSqm:  math.Round(price / rec.Row.AreaSqm),
		}
	}
	return proj, OutcomeOK, nil
}

// ProjectionAges returns current, current+step, ... while not above maxAge.
func ProjectionAges(current, step, maxAge int) []int {
	if step <= 0 || current > maxAge {
		return nil
	}
	var ages []int
	for age := current; age <= maxAge; age += step {
		ages = append(ages, age)
	}
	return ages
}

// CacheKey identifies a request for a given model version and master data.
func CacheKey(version, tables string, in features.Input) string {
	data, _ := json.Marshal(in)
	sum := sha256.Sum256(append([]byte(version+"|"+tables+"|"), data...))
	return hex.EncodeToString(sum[:])
}

func outcomeFor(err error) string {
	switch {
	case features.IsInputError(err):
		return OutcomeInvalid
	case errors.Is(err, ErrModelUnavailable):
		return OutcomeUnavailable
	default:
		return OutcomeError
	}
}

func (e *Engine) observe(outcome string, elapsed time.Duration) {
	if e.observer != nil {
		e.observer.ObservePrediction(outcome, elapsed)
	}
}

func (e *Engine) observeFallbacks(fallbacks []features.Fallback) {
	if e.observer == nil {
		return
	}
	for _, f := range fallbacks {
		e.observer.ObserveFallback(string(f))
	}
}

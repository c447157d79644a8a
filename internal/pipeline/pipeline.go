// Package pipeline builds the dimensional warehouse and the training
// feature set from raw transaction records. Each stage fully materializes
// its output before the next one reads it.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/shownfy/kansai-mansion-analytics/internal/config"
	"github.com/shownfy/kansai-mansion-analytics/internal/features"
	"github.com/shownfy/kansai-mansion-analytics/internal/masterdata"
	"github.com/shownfy/kansai-mansion-analytics/internal/models"
	"github.com/shownfy/kansai-mansion-analytics/internal/source"
)

// Stage names passed to a ProgressFunc.
const (
	StageLoad       = "load"
	StageNormalize  = "normalize"
	StageDimensions = "dimensions"
	StageFacts      = "facts"
	StageTraining   = "training"
)

// StageCount is the number of stages reported by Run.
const StageCount = 5

// ProgressFunc is called after each stage completes.
type ProgressFunc func(stage string)

// Build is the output of one run.
type Build struct {
	RunID      string
	Dimensions *Dimensions
	Facts      []models.TransactionFact
	Training   []models.TrainingExample
	Report     *Report
}

// Pipeline runs the offline build.
type Pipeline struct {
	cfg      config.PipelineConfig
	region   config.Region
	tables   *masterdata.Tables
	Progress ProgressFunc
	now      func() time.Time
}

// New creates a pipeline
func New(cfg config.PipelineConfig, region config.Region, tables *masterdata.Tables) *Pipeline {
	return &Pipeline{
		cfg:    cfg,
		region: region,
		tables: tables,
		now:    time.Now,
	}
}

// Run reads all records from src and builds dimensions, facts and the
// training set. Only a failing source aborts the run.
func (p *Pipeline) Run(ctx context.Context, src source.Source) (*Build, error) {
	return p.RunWithID(ctx, uuid.New().String(), src)
}

// RunWithID is Run with a caller-assigned run ID.
func (p *Pipeline) RunWithID(ctx context.Context, runID string, src source.Source) (*Build, error) {
	report := newReport(runID, p.now())
	slog.Info("Pipeline: run started", "run_id", runID)

	raw, err := src.Records(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read source records: %w", err)
	}
	report.RawRecords = len(raw)
	p.progress(StageLoad)

	build, err := p.BuildFrom(ctx, runID, raw, report)
	if err != nil {
		return nil, err
	}
	report.FinishedAt = p.now()
	report.Log()
	return build, nil
}

// BuildFrom runs every stage after loading on records already in memory.
func (p *Pipeline) BuildFrom(ctx context.Context, runID string, raw []models.RawTransaction, report *Report) (*Build, error) {
	records := Stage(raw, p.region, report)
	p.progress(StageNormalize)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dims := BuildDimensions(records, p.region, p.cfg)
	p.progress(StageDimensions)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	facts := BuildFacts(runID, records, dims, p.cfg, report)
	p.progress(StageFacts)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	training := AssembleTraining(runID, facts, dims, p.tables.Hazards, features.NewStationDefaults(p.cfg), report)
	p.progress(StageTraining)

	return &Build{
		RunID:      runID,
		Dimensions: dims,
		Facts:      facts,
		Training:   training,
		Report:     report,
	}, nil
}

// NewReport starts a report for a run assembled outside Run.
func NewReport(runID string) *Report {
	return newReport(runID, time.Now())
}

func (p *Pipeline) progress(stage string) {
	if p.Progress != nil {
		p.Progress(stage)
	}
}

// Rows returns the feature rows and targets of a training set.
func Rows(examples []models.TrainingExample) ([]features.Row, []float64) {
	rows := make([]features.Row, len(examples))
	targets := make([]float64, len(examples))
	for i, e := range examples {
		rows[i] = e.Row
		targets[i] = float64(e.TradePrice)
	}
	return rows, targets
}

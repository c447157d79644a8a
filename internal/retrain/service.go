// Package retrain runs the full offline cycle: warehouse build, model
// training, artifact retention and hand-off to the serving engine.
package retrain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/shownfy/kansai-mansion-analytics/internal/config"
	"github.com/shownfy/kansai-mansion-analytics/internal/masterdata"
	"github.com/shownfy/kansai-mansion-analytics/internal/model"
	"github.com/shownfy/kansai-mansion-analytics/internal/models"
	"github.com/shownfy/kansai-mansion-analytics/internal/pipeline"
	"github.com/shownfy/kansai-mansion-analytics/internal/predict"
	"github.com/shownfy/kansai-mansion-analytics/internal/source"
	"github.com/shownfy/kansai-mansion-analytics/internal/warehouse"
)

// ErrAlreadyRunning is returned when a rebuild is requested while one is
// still in progress.
var ErrAlreadyRunning = errors.New("rebuild already running")

// Lock shared by replicas so that only one of them rebuilds at a time.
const (
	lockName = "rebuild"
	lockTTL  = 2 * time.Hour
)

// Locker is a lock shared between instances.
type Locker interface {
	TryLock(ctx context.Context, name string, ttl time.Duration) (bool, error)
	Unlock(ctx context.Context, name string) error
}

// Result is the outcome of a full rebuild.
type Result struct {
	Run      *models.PipelineRun `json:"run"`
	Artifact *model.Artifact     `json:"-"`
	Pruned   *model.PruneResult  `json:"pruned,omitempty"`
}

// Service ties the pipeline, the warehouse and the artifact store together.
type Service struct {
	wh       *warehouse.Warehouse
	pipeline *pipeline.Pipeline
	source   source.Source
	store    *model.Store
	cfg      config.ModelConfig
	tables   *masterdata.Tables

	engine   *predict.Engine
	locker   Locker
	onReport func(*pipeline.Report)

	mu      sync.Mutex
	running bool
}

// NewService creates a retrain service. tables are the static master
// tables that warehouse prices are overlaid on when serving is refreshed.
func NewService(wh *warehouse.Warehouse, p *pipeline.Pipeline, src source.Source, store *model.Store, cfg config.ModelConfig, tables *masterdata.Tables) *Service {
	return &Service{
		wh:       wh,
		pipeline: p,
		source:   src,
		store:    store,
		cfg:      cfg,
		tables:   tables,
	}
}

// WithEngine makes Rebuild hand new artifacts to the engine.
func (s *Service) WithEngine(e *predict.Engine) *Service {
	s.engine = e
	return s
}

// WithLocker makes Rebuild take a lock shared with other instances.
func (s *Service) WithLocker(l Locker) *Service {
	s.locker = l
	return s
}

// OnReport registers a callback for every finished build report.
func (s *Service) OnReport(f func(*pipeline.Report)) *Service {
	s.onReport = f
	return s
}

// Running reports whether a rebuild is in progress.
func (s *Service) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Rebuild builds the warehouse, trains a model on it and refreshes serving.
// Only one rebuild runs at a time.
func (s *Service) Rebuild(ctx context.Context, trigger string) (*Result, error) {
	run, err := s.Begin(trigger)
	if err != nil {
		return nil, err
	}
	return run(ctx)
}

// Begin claims the rebuild slot, or returns ErrAlreadyRunning. The returned
// function runs the claimed rebuild and must be called exactly once; the
// slot is released when it returns.
func (s *Service) Begin(trigger string) (func(ctx context.Context) (*Result, error), error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return nil, ErrAlreadyRunning
	}
	s.running = true

	return func(ctx context.Context) (*Result, error) {
		defer func() {
			s.mu.Lock()
			s.running = false
			s.mu.Unlock()
		}()
		return s.rebuild(ctx, trigger)
	}, nil
}

func (s *Service) rebuild(ctx context.Context, trigger string) (*Result, error) {
	if s.locker != nil {
		ok, err := s.locker.TryLock(ctx, lockName, lockTTL)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrAlreadyRunning
		}
		defer func() {
			if err := s.locker.Unlock(context.Background(), lockName); err != nil {
				slog.Warn("Retrain: failed to release lock", "error", err)
			}
		}()
	}

	run, err := s.Build(ctx, trigger)
	if err != nil {
		return &Result{Run: run}, err
	}

	art, pruned, err := s.Train(ctx, run)
	if err != nil {
		return &Result{Run: run}, err
	}

	if err := s.Refresh(ctx, art); err != nil {
		slog.Warn("Retrain: failed to refresh serving", "error", err)
	}
	return &Result{Run: run, Artifact: art, Pruned: pruned}, nil
}

// Build runs the pipeline and replaces the warehouse contents. The run is
// recorded as running first and updated when it finishes or fails.
func (s *Service) Build(ctx context.Context, trigger string) (*models.PipelineRun, error) {
	run := warehouse.NewRun(uuid.New().String(), trigger)
	if err := s.wh.RecordRun(ctx, run); err != nil {
		return nil, fmt.Errorf("failed to record run: %w", err)
	}

	build, err := s.pipeline.RunWithID(ctx, run.ID, s.source)
	if err == nil {
		err = s.wh.SaveBuild(ctx, build)
	}
	if err != nil {
		s.fail(run, err)
		return run, err
	}

	warehouse.ApplyReport(run, build.Report)
	run.Status = models.PipelineRunStatusSucceeded
	finished := time.Now()
	run.FinishedAt = &finished
	if err := s.wh.RecordRun(ctx, run); err != nil {
		return run, fmt.Errorf("failed to record run: %w", err)
	}
	if s.onReport != nil {
		s.onReport(build.Report)
	}
	return run, nil
}

// Train fits a model on the warehouse training set, stores the artifact,
// marks it active and prunes old artifacts. run may be nil when training
// on an existing build.
func (s *Service) Train(ctx context.Context, run *models.PipelineRun) (*model.Artifact, *model.PruneResult, error) {
	examples, err := s.wh.LoadTrainingRows(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load training rows: %w", err)
	}
	if len(examples) > 0 && run == nil {
		run, err = s.wh.GetRun(ctx, examples[0].RunID)
		if err != nil && !errors.Is(err, warehouse.ErrNotFound) {
			return nil, nil, err
		}
	}

	rows, targets := pipeline.Rows(examples)
	art, err := model.Fit(rows, targets, s.cfg)
	if err != nil {
		if run != nil {
			s.fail(run, err)
		}
		return nil, nil, err
	}

	path, err := s.store.Save(art)
	if err != nil {
		return nil, nil, err
	}

	version := &models.ModelVersion{
		Version:   art.Version,
		Name:      art.Name,
		Path:      path,
		TrainRows: art.TrainRows,
		TestRows:  art.TestRows,
		RMSE:      art.Metrics.RMSE,
		MAE:       art.Metrics.MAE,
		MAPE:      art.Metrics.MAPE,
		R2:        art.Metrics.R2,
		Status:    models.ModelVersionStatusActive,
		TrainedAt: art.TrainedAt,
	}
	if run != nil {
		art.RunID = run.ID
		version.RunID = run.ID
		run.ModelVersion = art.Version
		if err := s.wh.RecordRun(ctx, run); err != nil {
			slog.Warn("Retrain: failed to attach model version to run", "run_id", run.ID, "error", err)
		}
	}
	if err := s.wh.RecordModelVersion(ctx, version); err != nil {
		return art, nil, fmt.Errorf("failed to record model version: %w", err)
	}

	pruned, err := s.prune(ctx)
	if err != nil {
		slog.Warn("Retrain: artifact pruning failed", "error", err)
	}
	return art, pruned, nil
}

func (s *Service) prune(ctx context.Context) (*model.PruneResult, error) {
	if s.cfg.Retention <= 0 {
		return nil, nil
	}
	result, err := s.store.Prune(model.PruneConfig{Keep: s.cfg.Retention})
	if err != nil {
		return result, err
	}
	if err := s.wh.MarkPruned(ctx, result.Deleted); err != nil {
		return result, err
	}
	return result, nil
}

// Refresh overlays the warehouse municipality prices on the master tables
// and hands the artifact to the engine. A nil artifact reloads latest.gob.
func (s *Service) Refresh(ctx context.Context, art *model.Artifact) error {
	if s.engine == nil {
		return nil
	}

	prices, err := s.wh.MunicipalityPrices(ctx)
	if err != nil {
		return fmt.Errorf("failed to load municipality prices: %w", err)
	}
	if len(prices) > 0 {
		recon := s.engine.Reconstructor().WithTables(s.tables.WithMunicipalityPrices(prices))
		s.engine.SetReconstructor(recon)
	}

	if art == nil {
		return s.engine.Reload()
	}
	s.engine.SetArtifact(art)
	slog.Info("Retrain: serving refreshed", "version", art.Version, "municipality_prices", len(prices))
	return nil
}

func (s *Service) fail(run *models.PipelineRun, cause error) {
	run.Status = models.PipelineRunStatusFailed
	run.Error = cause.Error()
	finished := time.Now()
	run.FinishedAt = &finished
	// the caller's context may already be cancelled
	if err := s.wh.RecordRun(context.Background(), run); err != nil {
		slog.Error("Retrain: failed to record failed run", "run_id", run.ID, "error", err)
	}
	slog.Error("Retrain: run failed", "run_id", run.ID, "error", cause)
}

// Package app assembles the services shared by the API server and the CLI.
package app

import (
	"fmt"
	"log/slog"

	"github.com/shownfy/kansai-mansion-analytics/internal/config"
	"github.com/shownfy/kansai-mansion-analytics/internal/features"
	"github.com/shownfy/kansai-mansion-analytics/internal/masterdata"
	"github.com/shownfy/kansai-mansion-analytics/internal/model"
	"github.com/shownfy/kansai-mansion-analytics/internal/pipeline"
	"github.com/shownfy/kansai-mansion-analytics/internal/predict"
	"github.com/shownfy/kansai-mansion-analytics/internal/retrain"
	"github.com/shownfy/kansai-mansion-analytics/internal/source"
	"github.com/shownfy/kansai-mansion-analytics/internal/warehouse"
)

// App holds the wired services.
type App struct {
	Config    *config.Config
	Region    config.Region
	Tables    *masterdata.Tables
	Warehouse *warehouse.Warehouse
	Source    source.Source
	Pipeline  *pipeline.Pipeline
	Store     *model.Store
	Engine    *predict.Engine
	Retrain   *retrain.Service

	closers []func() error
}

// New opens the warehouse and the raw source and wires the offline and
// serving services. The engine starts without an artifact.
func New(cfg *config.Config) (*App, error) {
	a := &App{
		Config: cfg,
		Region: config.KansaiRegion(),
	}

	tables, err := masterdata.Load(cfg.MasterDataPath)
	if err != nil {
		return nil, err
	}
	a.Tables = tables

	wh, err := warehouse.Open(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to open warehouse: %w", err)
	}
	a.closers = append(a.closers, wh.Close)
	if err := wh.InitSchema(); err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	a.Warehouse = wh

	src, err := openSource(cfg.Source)
	if err != nil {
		a.Close()
		return nil, err
	}
	if c, ok := src.(interface{ Close() error }); ok {
		a.closers = append(a.closers, c.Close)
	}
	a.Source = src

	a.Pipeline = pipeline.New(cfg.Pipeline, a.Region, tables)
	a.Store = model.NewStore(cfg.Model.Dir, cfg.Model.Name)
	recon := features.NewReconstructor(a.Region, tables, cfg.Pipeline, cfg.Model.MaxServingAge)
	a.Engine = predict.NewEngine(recon, a.Store, cfg.Model)
	a.Retrain = retrain.NewService(wh, a.Pipeline, src, a.Store, cfg.Model, tables).WithEngine(a.Engine)

	slog.Info("App: initialized",
		"database", cfg.Database.Type,
		"source", cfg.Source.Type,
		"model_dir", cfg.Model.Dir,
	)
	return a, nil
}

func openSource(cfg config.SourceConfig) (source.Source, error) {
	switch cfg.Type {
	case "", "json":
		return source.NewJSONFileSource(cfg.Path), nil
	case "postgres":
		src, err := source.NewPostgresSource(cfg.Postgres, cfg.Table)
		if err != nil {
			return nil, fmt.Errorf("failed to open raw source: %w", err)
		}
		return src, nil
	default:
		return nil, fmt.Errorf("unsupported source type: %s", cfg.Type)
	}
}

// OnClose registers a function that Close calls.
func (a *App) OnClose(f func() error) {
	a.closers = append(a.closers, f)
}

// Close releases connections in reverse order of opening.
func (a *App) Close() error {
	var firstErr error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	a.closers = nil
	return firstErr
}

package warehouse

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/shownfy/kansai-mansion-analytics/internal/models"
	"github.com/shownfy/kansai-mansion-analytics/internal/pipeline"
)

// ErrNotFound is returned when a requested record does not exist
var ErrNotFound = errors.New("record not found")

// NewRun creates the history entry for a run that is about to start
func NewRun(runID, trigger string) *models.PipelineRun {
	return &models.PipelineRun{
		ID:        runID,
		Status:    models.PipelineRunStatusRunning,
		Trigger:   trigger,
		StartedAt: time.Now(),
	}
}

// ApplyReport copies the counts of a finished run into its history entry
func ApplyReport(run *models.PipelineRun, report *pipeline.Report) {
	run.ID = report.RunID
	run.RawRecords = report.RawRecords
	run.Staged = report.Staged
	run.Facts = report.Facts
	run.TrainingRows = report.TrainingRows
	run.Dropped = report.Dropped()
	run.Drops = run.Drops[:0]
	for _, reason := range report.Reasons() {
		run.Drops = append(run.Drops, models.PipelineRunDrop{
			RunID:  report.RunID,
			Reason: string(reason),
			Count:  report.Drops[reason],
		})
	}
}

// RecordRun inserts or updates a run and replaces its drop counts
func (w *Warehouse) RecordRun(ctx context.Context, run *models.PipelineRun) error {
	return w.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		drops := run.Drops
		run.Drops = nil
		err := tx.Save(run).Error
		run.Drops = drops
		if err != nil {
			return err
		}
		if err := tx.Where("run_id = ?", run.ID).Delete(&models.PipelineRunDrop{}).Error; err != nil {
			return err
		}
		for i := range drops {
			drops[i].ID = 0
			drops[i].RunID = run.ID
		}
		return createAll(tx, drops)
	})
}

// ListRuns returns the most recent runs first
func (w *Warehouse) ListRuns(ctx context.Context, limit int) ([]models.PipelineRun, error) {
	if limit <= 0 {
		limit = 20
	}
	var runs []models.PipelineRun
	err := w.db.WithContext(ctx).
		Preload("Drops").
		Order("started_at DESC").
		Limit(limit).
		Find(&runs).Error
	return runs, err
}

// GetRun returns one run with its drop counts
func (w *Warehouse) GetRun(ctx context.Context, id string) (*models.PipelineRun, error) {
	var run models.PipelineRun
	err := w.db.WithContext(ctx).Preload("Drops").Where("id = ?", id).First(&run).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// RecordModelVersion stores a trained artifact and makes it the only
// active version
func (w *Warehouse) RecordModelVersion(ctx context.Context, v *models.ModelVersion) error {
	return w.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if v.Status == models.ModelVersionStatusActive {
			err := tx.Model(&models.ModelVersion{}).
				Where("status = ?", models.ModelVersionStatusActive).
				Update("status", models.ModelVersionStatusStored).Error
			if err != nil {
				return err
			}
		}
		return tx.Save(v).Error
	})
}

// ActiveModelVersion returns the version currently served
func (w *Warehouse) ActiveModelVersion(ctx context.Context) (*models.ModelVersion, error) {
	var v models.ModelVersion
	err := w.db.WithContext(ctx).
		Where("status = ?", models.ModelVersionStatusActive).
		Order("trained_at DESC").
		First(&v).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// ListModelVersions returns versions newest first
func (w *Warehouse) ListModelVersions(ctx context.Context) ([]models.ModelVersion, error) {
	var versions []models.ModelVersion
	err := w.db.WithContext(ctx).Order("trained_at DESC").Find(&versions).Error
	return versions, err
}

// MarkPruned flags versions whose artifact files were deleted
func (w *Warehouse) MarkPruned(ctx context.Context, versions []string) error {
	if len(versions) == 0 {
		return nil
	}
	now := time.Now()
	return w.db.WithContext(ctx).Model(&models.ModelVersion{}).
		Where("version IN ?", versions).
		Updates(map[string]interface{}{
			"status":    models.ModelVersionStatusPruned,
			"pruned_at": &now,
		}).Error
}

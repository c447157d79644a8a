// Package warehouse persists dimension, fact and training tables together
// with the run and model history.
package warehouse

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/shownfy/kansai-mansion-analytics/internal/config"
	"github.com/shownfy/kansai-mansion-analytics/internal/masterdata"
	"github.com/shownfy/kansai-mansion-analytics/internal/models"
	"github.com/shownfy/kansai-mansion-analytics/internal/pipeline"
)

const batchSize = 500

// ErrUnsupportedDatabase is returned for an unknown database type.
var ErrUnsupportedDatabase = errors.New("unsupported database type")

// Warehouse wraps the gorm connection
type Warehouse struct {
	db *gorm.DB
}

// Open connects to the configured database
func Open(cfg config.DatabaseConfig) (*Warehouse, error) {
	var dialector gorm.Dialector
	switch cfg.Type {
	case "mysql":
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
			cfg.MySQL.User, cfg.MySQL.Password, cfg.MySQL.Host, cfg.MySQL.Port, cfg.MySQL.Database)
		dialector = mysql.Open(dsn)
	case "postgres":
		sslmode := cfg.Postgres.SSLMode
		if sslmode == "" {
			sslmode = "disable"
		}
		dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			cfg.Postgres.Host, cfg.Postgres.Port, cfg.Postgres.User, cfg.Postgres.Password, cfg.Postgres.Database, sslmode)
		dialector = postgres.Open(dsn)
	case "sqlite", "":
		dialector = sqlite.Open(cfg.SQLite.Path)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDatabase, cfg.Type)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
		NowFunc: func() time.Time {
			return time.Now().Local()
		},
	})
	if err != nil {
		return nil, err
	}

	// Test connection
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if err := sqlDB.Ping(); err != nil {
		return nil, err
	}

	return &Warehouse{db: db}, nil
}

// NewFromDB creates a Warehouse from an existing gorm.DB instance
func NewFromDB(db *gorm.DB) *Warehouse {
	return &Warehouse{db: db}
}

// DB returns the underlying gorm.DB instance
func (w *Warehouse) DB() *gorm.DB {
	return w.db
}

// Close closes the connection
func (w *Warehouse) Close() error {
	sqlDB, err := w.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// InitSchema creates tables using GORM AutoMigrate
func (w *Warehouse) InitSchema() error {
	return w.db.AutoMigrate(
		&models.PrefectureDim{},
		&models.MunicipalityDim{},
		&models.StructureDim{},
		&models.FloorPlanDim{},
		&models.TransactionFact{},
		&models.TrainingExample{},
		&models.PipelineRun{},
		&models.PipelineRunDrop{},
		&models.ModelVersion{},
	)
}

// SaveBuild replaces the warehouse contents with a new build in one
// transaction. Readers never see a half-written build.
func (w *Warehouse) SaveBuild(ctx context.Context, build *pipeline.Build) error {
	return w.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, table := range []interface{}{
			&models.TrainingExample{},
			&models.TransactionFact{},
			&models.FloorPlanDim{},
			&models.StructureDim{},
			&models.MunicipalityDim{},
			&models.PrefectureDim{},
		} {
			if err := tx.Where("1 = 1").Delete(table).Error; err != nil {
				return fmt.Errorf("failed to clear %T: %w", table, err)
			}
		}

		dims := build.Dimensions
		if err := createAll(tx, dims.Prefectures); err != nil {
			return fmt.Errorf("failed to save prefectures: %w", err)
		}
		if err := createAll(tx, dims.Municipalities); err != nil {
			return fmt.Errorf("failed to save municipalities: %w", err)
		}
		if err := createAll(tx, dims.Structures); err != nil {
			return fmt.Errorf("failed to save structures: %w", err)
		}
		if err := createAll(tx, dims.FloorPlans); err != nil {
			return fmt.Errorf("failed to save floor plans: %w", err)
		}
		if err := createAll(tx, build.Facts); err != nil {
			return fmt.Errorf("failed to save facts: %w", err)
		}
		if err := createAll(tx, build.Training); err != nil {
			return fmt.Errorf("failed to save training rows: %w", err)
		}
		return nil
	})
}

func createAll[T any](tx *gorm.DB, rows []T) error {
	if len(rows) == 0 {
		return nil
	}
	return tx.CreateInBatches(&rows, batchSize).Error
}

// LoadTrainingRows returns the training set of the current build
func (w *Warehouse) LoadTrainingRows(ctx context.Context) ([]models.TrainingExample, error) {
	var rows []models.TrainingExample
	err := w.db.WithContext(ctx).Order("id ASC").Find(&rows).Error
	return rows, err
}

// MunicipalityStats returns the municipality dimension ordered by key
func (w *Warehouse) MunicipalityStats(ctx context.Context) ([]models.MunicipalityDim, error) {
	var rows []models.MunicipalityDim
	err := w.db.WithContext(ctx).Order(clause.OrderByColumn{Column: clause.Column{Name: "key"}}).Find(&rows).Error
	return rows, err
}

// MunicipalityPrices returns the average unit price of every municipality
// with qualifying transactions, keyed by prefecture and name
func (w *Warehouse) MunicipalityPrices(ctx context.Context) (map[string]float64, error) {
	stats, err := w.MunicipalityStats(ctx)
	if err != nil {
		return nil, err
	}
	prices := make(map[string]float64, len(stats))
	for _, m := range stats {
		if m.HasStats() {
			prices[masterdata.MunicipalityKey(m.PrefectureName, m.Name)] = m.AvgPricePerSqm
		}
	}
	return prices, nil
}

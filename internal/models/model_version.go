package models

import "time"

// ModelVersionStatus represents the lifecycle of a trained artifact
type ModelVersionStatus string

const (
	ModelVersionStatusActive ModelVersionStatus = "active" // 配信中
	ModelVersionStatusStored ModelVersionStatus = "stored" // 保存のみ
	ModelVersionStatusPruned ModelVersionStatus = "pruned" // 削除済み
)

// ModelVersion records a trained artifact and its test metrics
type ModelVersion struct {
	Version   string             `gorm:"type:varchar(64);primaryKey" json:"version"`
	Name      string             `gorm:"type:varchar(50);not null" json:"name"`
	Path      string             `gorm:"type:text;not null" json:"path"`
	RunID     string             `gorm:"type:varchar(36);index" json:"run_id,omitempty"`
	TrainRows int                `gorm:"not null" json:"train_rows"`
	TestRows  int                `gorm:"not null" json:"test_rows"`
	RMSE      float64            `json:"rmse"`
	MAE       float64            `json:"mae"`
	MAPE      float64            `json:"mape"`
	R2        float64            `json:"r2"`
	Status    ModelVersionStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	TrainedAt time.Time          `gorm:"not null;index" json:"trained_at"`
	PrunedAt  *time.Time         `json:"pruned_at,omitempty"`
}

// TableName specifies the table name
func (ModelVersion) TableName() string {
	return "model_versions"
}

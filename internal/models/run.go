package models

import "time"

// PipelineRunStatus represents the state of a pipeline run
type PipelineRunStatus string

const (
	PipelineRunStatusRunning   PipelineRunStatus = "running"
	PipelineRunStatusSucceeded PipelineRunStatus = "succeeded"
	PipelineRunStatusFailed    PipelineRunStatus = "failed"
)

// PipelineRun is the history entry of one warehouse build
type PipelineRun struct {
	ID           string            `gorm:"type:varchar(36);primaryKey" json:"id"`
	Status       PipelineRunStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	Trigger      string            `gorm:"type:varchar(20);not null" json:"trigger"` // cli, scheduler, admin
	RawRecords   int               `gorm:"not null" json:"raw_records"`
	Staged       int               `gorm:"not null" json:"staged"`
	Facts        int               `gorm:"not null" json:"facts"`
	TrainingRows int               `gorm:"not null" json:"training_rows"`
	Dropped      int               `gorm:"not null" json:"dropped"`
	ModelVersion string            `gorm:"type:varchar(64)" json:"model_version,omitempty"`
	Error        string            `gorm:"type:text" json:"error,omitempty"`
	StartedAt    time.Time         `gorm:"not null;index" json:"started_at"`
	FinishedAt   *time.Time        `json:"finished_at,omitempty"`

	Drops []PipelineRunDrop `gorm:"foreignKey:RunID" json:"drops,omitempty"`
}

// TableName specifies the table name
func (PipelineRun) TableName() string {
	return "pipeline_runs"
}

// PipelineRunDrop is the number of records a run excluded for one reason
type PipelineRunDrop struct {
	ID     uint   `gorm:"primaryKey;autoIncrement" json:"-"`
	RunID  string `gorm:"type:varchar(36);not null;index" json:"-"`
	Reason string `gorm:"type:varchar(30);not null" json:"reason"`
	Count  int    `gorm:"not null" json:"count"`
}

// TableName specifies the table name
func (PipelineRunDrop) TableName() string {
	return "pipeline_run_drops"
}

// Run triggers
const (
	TriggerCLI       = "cli"
	TriggerScheduler = "scheduler"
	TriggerAdmin     = "admin"
)

package models

import (
	"time"

	"github.com/shownfy/kansai-mansion-analytics/internal/features"
)

// TransactionFact is one usable transaction joined to all four dimensions.
type TransactionFact struct {
	ID              uint    `gorm:"primaryKey;autoIncrement" json:"id"`
	RunID           string  `gorm:"type:varchar(36);not null;index" json:"run_id"`
	PrefectureKey   int     `gorm:"not null;index" json:"prefecture_key"`
	MunicipalityKey int     `gorm:"not null;index" json:"municipality_key"`
	StructureKey    int     `gorm:"not null" json:"structure_key"`
	FloorPlanKey    int     `gorm:"not null" json:"floor_plan_key"`
	DistrictName    string  `gorm:"type:varchar(100)" json:"district_name,omitempty"`
	TradePrice      int64   `gorm:"not null" json:"trade_price"`
	AreaSqm         float64 `gorm:"not null" json:"area_sqm"`
	PricePerSqm     float64 `gorm:"not null" json:"price_per_sqm"`
	BuildingYear    int     `gorm:"not null" json:"building_year"`
	BuildingAge     int     `gorm:"not null;index" json:"building_age"`
	TradeYear       int     `gorm:"not null;index" json:"trade_year"`
	Quarter         int     `gorm:"not null" json:"quarter"`
	CoverageRatio   float64 `json:"coverage_ratio"`
	FloorAreaRatio  float64 `json:"floor_area_ratio"`
}

// TableName specifies the table name
func (TransactionFact) TableName() string {
	return "fact_transaction"
}

// TrainingExample is an assembled feature row with its target price.
type TrainingExample struct {
	ID         uint         `gorm:"primaryKey;autoIncrement" json:"id"`
	RunID      string       `gorm:"type:varchar(36);not null;index" json:"run_id"`
	FactID     uint         `gorm:"not null" json:"fact_id"`
	Row        features.Row `gorm:"embedded" json:"features"`
	TradePrice int64        `gorm:"not null" json:"trade_price"`
	CreatedAt  time.Time    `gorm:"autoCreateTime" json:"created_at"`
}

// TableName specifies the table name
func (TrainingExample) TableName() string {
	return "training_features"
}

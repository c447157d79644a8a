package models

import "time"

// PrefectureDim is one of the six Kansai prefectures observed in usable
// transactions. Key equals the local prefecture code.
type PrefectureDim struct {
	Key       int       `gorm:"primaryKey;autoIncrement:false" json:"key"`
	Name      string    `gorm:"type:varchar(20);not null;uniqueIndex" json:"name"`
	JISCode   string    `gorm:"type:varchar(2);not null" json:"jis_code"`
	Rank      int       `gorm:"not null" json:"rank"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName specifies the table name
func (PrefectureDim) TableName() string {
	return "dim_prefecture"
}

// PriceTier は市区町村の価格帯
type PriceTier string

const (
	PriceTierHigh PriceTier = "high"
	PriceTierMid  PriceTier = "mid"
	PriceTierLow  PriceTier = "low"
)

// MunicipalityDim carries price statistics over usable transactions.
// A municipality without qualifying transactions keeps zero statistics.
type MunicipalityDim struct {
	Key               int       `gorm:"primaryKey;autoIncrement:false" json:"key"`
	Name              string    `gorm:"type:varchar(100);not null;uniqueIndex:idx_municipality_name" json:"name"`
	PrefectureKey     int       `gorm:"not null;index;uniqueIndex:idx_municipality_name" json:"prefecture_key"`
	PrefectureName    string    `gorm:"type:varchar(20);not null" json:"prefecture_name"`
	TransactionCount  int       `gorm:"not null" json:"transaction_count"`
	AvgPricePerSqm    float64   `gorm:"not null" json:"avg_price_per_sqm"`
	MedianPricePerSqm float64   `gorm:"not null" json:"median_price_per_sqm"`
	MinPricePerSqm    float64   `gorm:"not null" json:"min_price_per_sqm"`
	MaxPricePerSqm    float64   `gorm:"not null" json:"max_price_per_sqm"`
	PriceTier         PriceTier `gorm:"type:varchar(10);not null;index" json:"price_tier"`
	CreatedAt         time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName specifies the table name
func (MunicipalityDim) TableName() string {
	return "dim_municipality"
}

// HasStats reports whether any qualifying transaction contributed.
func (m *MunicipalityDim) HasStats() bool {
	return m.TransactionCount > 0
}

// StructureDim maps a raw structure string onto its structure type.
type StructureDim struct {
	Key           int       `gorm:"primaryKey;autoIncrement:false" json:"key"`
	RawValue      string    `gorm:"type:varchar(100);not null;uniqueIndex" json:"raw_value"`
	StructureType string    `gorm:"type:varchar(10);not null;index" json:"structure_type"`
	Multiplier    float64   `gorm:"not null" json:"multiplier"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName specifies the table name
func (StructureDim) TableName() string {
	return "dim_structure"
}

// FloorPlanDim maps a raw floor-plan string onto rooms and the LDK flag.
type FloorPlanDim struct {
	Key       int       `gorm:"primaryKey;autoIncrement:false" json:"key"`
	RawValue  string    `gorm:"type:varchar(50);not null;uniqueIndex" json:"raw_value"`
	NumRooms  int       `gorm:"not null" json:"num_rooms"`
	HasLDK    bool      `gorm:"not null" json:"has_ldk"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName specifies the table name
func (FloorPlanDim) TableName() string {
	return "dim_floor_plan"
}

package models

// RawTransaction is one reported sale as delivered by the transaction
// price API. Numeric fields arrive as strings and are coerced by the
// source that reads them.
type RawTransaction struct {
	ID             uint    `gorm:"primaryKey;autoIncrement" json:"-"`
	Type           string  `gorm:"type:varchar(50)" json:"Type"`
	Prefecture     string  `gorm:"type:varchar(20);index" json:"Prefecture"`
	Municipality   string  `gorm:"type:varchar(100)" json:"Municipality"`
	DistrictName   string  `gorm:"type:varchar(100)" json:"DistrictName"`
	FloorPlan      string  `gorm:"type:varchar(50)" json:"FloorPlan"`
	Structure      string  `gorm:"type:varchar(100)" json:"Structure"`
	TradePrice     int64   `json:"TradePrice"`
	Area           float64 `json:"Area"`
	CoverageRatio  float64 `json:"CoverageRatio"`
	FloorAreaRatio float64 `json:"FloorAreaRatio"`
	BuildingYear   string  `gorm:"type:varchar(20)" json:"BuildingYear"`
	Period         string  `gorm:"type:varchar(30)" json:"Period"`
}

// TableName specifies the table name
func (RawTransaction) TableName() string {
	return "raw_transactions"
}

// 中古マンション等の取引種別
const CondominiumType = "中古マンション等"

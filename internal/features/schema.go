// Package features defines the feature row shared by training and
// serving, the encoder fitted on the training matrix, and the
// reconstruction of a row from user input at prediction time.
package features

import (
	"strconv"

	"github.com/shownfy/kansai-mansion-analytics/internal/config"
	"github.com/shownfy/kansai-mansion-analytics/internal/masterdata"
	"github.com/shownfy/kansai-mansion-analytics/internal/normalize"
)

// Row is the model input. The training assembler and the serving
// reconstructor both produce this type, so the two paths cannot drift in
// field set or encoding domain.
type Row struct {
	AreaSqm               float64                   `gorm:"column:area_sqm" json:"area_sqm"`
	BuildingAge           int                       `gorm:"column:building_age" json:"building_age"`
	NumRooms              int                       `gorm:"column:num_rooms" json:"num_rooms"`
	HasLDK                bool                      `gorm:"column:has_ldk" json:"has_ldk"`
	StructureType         normalize.StructureType   `gorm:"column:structure_type;type:varchar(10)" json:"structure_type"`
	CoverageRatio         float64                   `gorm:"column:coverage_ratio" json:"coverage_ratio"`
	FloorAreaRatio        float64                   `gorm:"column:floor_area_ratio" json:"floor_area_ratio"`
	PrefectureCode        int                       `gorm:"column:prefecture_code" json:"prefecture_code"`
	TimeToStationMin      float64                   `gorm:"column:time_to_station_min" json:"time_to_station_min"`
	CityAvgPricePerSqm    float64                   `gorm:"column:city_avg_price_per_sqm" json:"city_avg_price_per_sqm"`
	StationAvgPricePerSqm float64                   `gorm:"column:station_avg_price_per_sqm" json:"station_avg_price_per_sqm"`
	LogPassengerCount     float64                   `gorm:"column:log_passenger_count" json:"log_passenger_count"`
	StationRank           masterdata.StationRank    `gorm:"column:station_rank;type:varchar(10)" json:"station_rank"`
	TotalHazardRisk       float64                   `gorm:"column:total_hazard_risk" json:"total_hazard_risk"`
	HazardRiskCategory    masterdata.HazardCategory `gorm:"column:hazard_risk_category;type:varchar(10)" json:"hazard_risk_category"`
	TradeYear             int                       `gorm:"column:trade_year" json:"trade_year"`
	Quarter               int                       `gorm:"column:quarter" json:"quarter"`
}

// NumericFeatures are scaled by the encoder, in this order.
var NumericFeatures = []string{
	"area_sqm",
	"building_age",
	"num_rooms",
	"time_to_station_min",
	"coverage_ratio",
	"floor_area_ratio",
	"city_avg_price_per_sqm",
	"station_avg_price_per_sqm",
	"log_passenger_count",
	"total_hazard_risk",
	"trade_year",
	"quarter",
}

// CategoricalFeatures are one-hot encoded, in this order.
var CategoricalFeatures = []string{
	"structure_type",
	"has_ldk",
	"prefecture_code",
	"station_rank",
	"hazard_risk_category",
}

// Numeric returns the numeric features in NumericFeatures order.
func (r Row) Numeric() []float64 {
	return []float64{
		r.AreaSqm,
		float64(r.BuildingAge),
		float64(r.NumRooms),
		r.TimeToStationMin,
		r.CoverageRatio,
		r.FloorAreaRatio,
		r.CityAvgPricePerSqm,
		r.StationAvgPricePerSqm,
		r.LogPassengerCount,
		r.TotalHazardRisk,
		float64(r.TradeYear),
		float64(r.Quarter),
	}
}

// Categorical returns the categorical features in CategoricalFeatures order.
func (r Row) Categorical() []string {
	ldk := "0"
	if r.HasLDK {
		ldk = "1"
	}
	return []string{
		string(r.StructureType),
		ldk,
		strconv.Itoa(r.PrefectureCode),
		string(r.StationRank),
		string(r.HazardRiskCategory),
	}
}

// WithAge returns a copy of the row with a different building age.
func (r Row) WithAge(age int) Row {
	r.BuildingAge = age
	return r
}

// StationDefaults are the station-related values used when no verified
// station association exists. Training applies them to every record and
// serving applies them when the station cannot be resolved.
type StationDefaults struct {
	Minutes         float64
	Station         masterdata.StationStats
	PriceMultiplier float64
}

// NewStationDefaults reads the station defaults from the pipeline config.
func NewStationDefaults(cfg config.PipelineConfig) StationDefaults {
	return StationDefaults{
		Minutes:         cfg.DefaultStationMinutes,
		Station:         masterdata.DefaultStation,
		PriceMultiplier: cfg.StationPriceMultiplier,
	}
}

// StationAverage estimates the station-area price from the municipality
// average. No station-level price signal exists.
func (d StationDefaults) StationAverage(cityAvg float64) float64 {
	return cityAvg * d.PriceMultiplier
}

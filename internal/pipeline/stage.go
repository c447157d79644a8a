package pipeline

import (
	"github.com/shownfy/kansai-mansion-analytics/internal/config"
	"github.com/shownfy/kansai-mansion-analytics/internal/models"
	"github.com/shownfy/kansai-mansion-analytics/internal/normalize"
)

// Record is a raw transaction whose year, period and prefecture parsed.
// Area is not checked here: a municipality whose records all lack an area
// still gets a dimension row.
type Record struct {
	Prefecture     string
	Municipality   string
	DistrictName   string
	FloorPlan      string
	Structure      string
	TradePrice     int64
	Area           float64
	CoverageRatio  float64
	FloorAreaRatio float64
	BuildingYear   int
	TradeYear      int
	Quarter        int
}

// Stage normalizes raw records and drops those that cannot be used.
func Stage(raw []models.RawTransaction, region config.Region, report *Report) []Record {
	records := make([]Record, 0, len(raw))
	for _, r := range raw {
		pref, ok := region.ByName(normalize.Fold(r.Prefecture))
		if !ok {
			report.drop(DropPrefecture)
			continue
		}
		municipality := normalize.Fold(r.Municipality)
		if municipality == "" {
			report.drop(DropMunicipality)
			continue
		}
		if r.TradePrice <= 0 {
			report.drop(DropPrice)
			continue
		}
		year, ok := normalize.ParseBuildingYear(r.BuildingYear)
		if !ok {
			report.drop(DropBuildingYear)
			continue
		}
		tradeYear, quarter, ok := normalize.ParsePeriod(r.Period)
		if !ok {
			report.drop(DropPeriod)
			continue
		}

		records = append(records, Record{
			Prefecture:     pref.Name,
			Municipality:   municipality,
			DistrictName:   normalize.Fold(r.DistrictName),
			FloorPlan:      normalize.Fold(r.FloorPlan),
			Structure:      normalize.Fold(r.Structure),
			TradePrice:     r.TradePrice,
			Area:           r.Area,
			CoverageRatio:  r.CoverageRatio,
			FloorAreaRatio: r.FloorAreaRatio,
			BuildingYear:   year,
			TradeYear:      tradeYear,
			Quarter:        quarter,
		})
	}
	report.Staged = len(records)
	return records
}

// PricePerSqm returns the unit price, or false when area is not positive.
func (r Record) PricePerSqm() (float64, bool) {
	if r.Area <= 0 {
		return 0, false
	}
	return float64(r.TradePrice) / r.Area, true
}

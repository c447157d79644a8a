package pipeline

import (
	"github.com/shownfy/kansai-mansion-analytics/internal/config"
	"github.com/shownfy/kansai-mansion-analytics/internal/models"
)

// BuildFacts joins each record to its dimension keys by name and applies
// the building-age and area bounds, both inclusive. Records that miss a
// join or fall outside a bound are counted and skipped.
func BuildFacts(runID string, records []Record, dims *Dimensions, cfg config.PipelineConfig, report *Report) []models.TransactionFact {
	idx := dims.index()
	facts := make([]models.TransactionFact, 0, len(records))

	for _, r := range records {
		pricePerSqm, ok := r.PricePerSqm()
		if !ok {
			report.drop(DropArea)
			continue
		}

		pref, ok := idx.prefectures[r.Prefecture]
		if !ok {
			report.drop(DropJoinMiss)
			continue
		}
		muni, ok := idx.municipalities[municipalityID{prefectureKey: pref.Key, name: r.Municipality}]
		if !ok {
			report.drop(DropJoinMiss)
			continue
		}
		structure, ok := idx.structures[r.Structure]
		if !ok {
			report.drop(DropJoinMiss)
			continue
		}
		plan, ok := idx.floorPlans[r.FloorPlan]
		if !ok {
			report.drop(DropJoinMiss)
			continue
		}

		age := r.TradeYear - r.BuildingYear
		if age < cfg.MinBuildingAge || age > cfg.MaxBuildingAge {
			report.drop(DropAgeRange)
			continue
		}
		if r.Area < cfg.MinArea || r.Area > cfg.MaxArea {
			report.drop(DropAreaRange)
			continue
		}

		facts = append(facts, models.TransactionFact{
			ID:              uint(len(facts) + 1),
			RunID:           runID,
			PrefectureKey:   pref.Key,
			MunicipalityKey: muni.Key,
			StructureKey:    structure.Key,
			FloorPlanKey:    plan.Key,
			DistrictName:    r.DistrictName,
			TradePrice:      r.TradePrice,
			AreaSqm:         r.Area,
			PricePerSqm:     pricePerSqm,
			BuildingYear:    r.BuildingYear,
			BuildingAge:     age,
			TradeYear:       r.TradeYear,
			Quarter:         r.Quarter,
			CoverageRatio:   r.CoverageRatio,
			FloorAreaRatio:  r.FloorAreaRatio,
		})
	}
	report.Facts = len(facts)
	return facts
}

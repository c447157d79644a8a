package pipeline

import (
	"github.com/shownfy/kansai-mansion-analytics/internal/features"
	"github.com/shownfy/kansai-mansion-analytics/internal/masterdata"
	"github.com/shownfy/kansai-mansion-analytics/internal/models"
	"github.com/shownfy/kansai-mansion-analytics/internal/normalize"
)

// AssembleTraining turns facts into feature rows.
//
// Transactions carry no verified station, so every row gets the default
// station values and a station average of municipality average times the
// configured multiplier. Those columns are near-constant in training and
// serving must fill them the same way when it has no better data.
func AssembleTraining(runID string, facts []models.TransactionFact, dims *Dimensions, hazards *masterdata.HazardTable, defaults features.StationDefaults, report *Report) []models.TrainingExample {
	idx := dims.index()
	examples := make([]models.TrainingExample, 0, len(facts))

	for _, f := range facts {
		row := features.Row{
			AreaSqm:            f.AreaSqm,
			BuildingAge:        f.BuildingAge,
			NumRooms:           normalize.DefaultRooms,
			StructureType:      normalize.StructureOther,
			CoverageRatio:      f.CoverageRatio,
			FloorAreaRatio:     f.FloorAreaRatio,
			PrefectureCode:     f.PrefectureKey,
			TimeToStationMin:   defaults.Minutes,
			LogPassengerCount:  defaults.Station.LogPassengers,
			StationRank:        defaults.Station.Rank,
			TotalHazardRisk:    masterdata.DefaultHazard.Total,
			HazardRiskCategory: masterdata.DefaultHazard.Category,
			TradeYear:          f.TradeYear,
			Quarter:            f.Quarter,
		}

		if plan, ok := idx.floorPlanByKey[f.FloorPlanKey]; ok {
			row.NumRooms = plan.NumRooms
			row.HasLDK = plan.HasLDK
		}
		if st, ok := idx.structureByKey[f.StructureKey]; ok {
			row.StructureType = normalize.StructureType(st.StructureType)
		}
		if muni, ok := idx.byMunicipality[f.MunicipalityKey]; ok {
			row.CityAvgPricePerSqm = muni.AvgPricePerSqm
			if risk, ok := hazards.Lookup(muni.PrefectureName, muni.Name); ok {
				row.TotalHazardRisk = risk.Total
				row.HazardRiskCategory = risk.Category
			}
		}
		row.StationAvgPricePerSqm = defaults.StationAverage(row.CityAvgPricePerSqm)

		examples = append(examples, models.TrainingExample{
			RunID:      runID,
			FactID:     f.ID,
			Row:        row,
			TradePrice: f.TradePrice,
		})
	}
	report.TrainingRows = len(examples)
	return examples
}

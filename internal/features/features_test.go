package features

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shownfy/kansai-mansion-analytics/internal/config"
	"github.com/shownfy/kansai-mansion-analytics/internal/masterdata"
	"github.com/shownfy/kansai-mansion-analytics/internal/normalize"
)

func newTestReconstructor() *Reconstructor {
	cfg := config.DefaultConfig()
	return NewReconstructor(config.KansaiRegion(), masterdata.Default(), cfg.Pipeline, cfg.Model.MaxServingAge)
}

func floatPtr(v float64) *float64 { return &v }

func TestReconstructResolvedAddress(t *testing.T) {
	r := newTestReconstructor()

	rec, err := r.Reconstruct(Input{
		Address:        "大阪府大阪市北区梅田1丁目",
		FloorPlan:      "3LDK",
		AreaSqm:        70,
		BuildingYear:   2015,
		StationMinutes: floatPtr(5),
		PredictionYear: 2025,
	})
	require.NoError(t, err)
	assert.Empty(t, rec.Fallbacks)
	assert.Equal(t, "大阪府", rec.Prefecture)
	assert.Equal(t, "大阪市北区", rec.Municipality)
	assert.Equal(t, "梅田", rec.Station)

	row := rec.Row
	assert.Equal(t, 70.0, row.AreaSqm)
	assert.Equal(t, 10, row.BuildingAge)
	assert.Equal(t, 3, row.NumRooms)
	assert.True(t, row.HasLDK)
	assert.Equal(t, normalize.StructureRC, row.StructureType)
	assert.Equal(t, DefaultCoverageRatio, row.CoverageRatio)
	assert.Equal(t, DefaultFloorAreaRatio, row.FloorAreaRatio)
	assert.Equal(t, 1, row.PrefectureCode)
	assert.Equal(t, 5.0, row.TimeToStationMin)
	assert.Equal(t, 780000.0, row.CityAvgPricePerSqm)
	assert.InDelta(t, 858000.0, row.StationAvgPricePerSqm, 1e-6)
	assert.InDelta(t, math.Log10(500000), row.LogPassengerCount, 1e-9)
	assert.Equal(t, masterdata.RankLarge, row.StationRank)
	assert.InDelta(t, 0.8, row.TotalHazardRisk, 1e-9)
	assert.Equal(t, masterdata.HazardLow, row.HazardRiskCategory)
	assert.Equal(t, 2025, row.TradeYear)
	assert.Equal(t, DefaultQuarter, row.Quarter)
}

func TestReconstructFallbacksMatchTrainingDefaults(t *testing.T) {
	r := newTestReconstructor()
	defaults := NewStationDefaults(config.DefaultConfig().Pipeline)

	rec, err := r.Reconstruct(Input{
		Address:        "奈良県吉野郡",
		FloorPlan:      "2DK",
		AreaSqm:        55,
		BuildingYear:   2000,
		PredictionYear: 2025,
	})
	require.NoError(t, err)

	assert.True(t, rec.UsedFallback(FallbackMunicipality))
	assert.False(t, rec.UsedFallback(FallbackGlobalPrice))
	assert.True(t, rec.UsedFallback(FallbackStation))
	assert.True(t, rec.UsedFallback(FallbackStationMinutes))
	assert.True(t, rec.UsedFallback(FallbackHazard))

	row := rec.Row
	assert.Equal(t, 4, row.PrefectureCode)
	assert.Equal(t, 300000.0, row.CityAvgPricePerSqm)
	assert.InDelta(t, 330000.0, row.StationAvgPricePerSqm, 1e-6)
	assert.Equal(t, defaults.Minutes, row.TimeToStationMin)
	assert.Equal(t, defaults.Station.LogPassengers, row.LogPassengerCount)
	assert.Equal(t, defaults.Station.Rank, row.StationRank)
	assert.Equal(t, masterdata.RankMedium, row.StationRank)
	assert.Equal(t, masterdata.DefaultHazard.Total, row.TotalHazardRisk)
	assert.Equal(t, masterdata.HazardMedium, row.HazardRiskCategory)
	assert.Equal(t, 2, row.NumRooms)
	assert.False(t, row.HasLDK)
}

func TestReconstructUserStationAndCoordinates(t *testing.T) {
	r := newTestReconstructor()

	rec, err := r.Reconstruct(Input{
		Address:        "京都府京都市中京区",
		FloorPlan:      "1LDK",
		AreaSqm:        40,
		BuildingYear:   2020,
		Station:        "京都駅",
		PredictionYear: 2025,
	})
	require.NoError(t, err)
	assert.Equal(t, "京都", rec.Station)
	assert.False(t, rec.UsedFallback(FallbackStation))
	assert.True(t, rec.UsedFallback(FallbackStationMinutes))

	rec, err = r.Reconstruct(Input{
		Address:        "大阪府大阪市北区",
		AreaSqm:        60,
		BuildingYear:   2010,
		Lat:            floatPtr(34.7008),
		Lon:            floatPtr(135.4985),
		PredictionYear: 2025,
	})
	require.NoError(t, err)
	assert.Equal(t, "梅田", rec.Station)
	assert.False(t, rec.UsedFallback(FallbackStationMinutes))
	assert.Equal(t, 1.0, rec.Row.TimeToStationMin)
}

func TestReconstructAddressWithoutPrefectureUsesCityAlias(t *testing.T) {
	r := newTestReconstructor()

	rec, err := r.Reconstruct(Input{
		Address:        "神戸市中央区",
		AreaSqm:        65,
		BuildingYear:   2005,
		PredictionYear: 2025,
	})
	require.NoError(t, err)
	assert.Equal(t, "兵庫県", rec.Prefecture)
	assert.Equal(t, 3, rec.Row.PrefectureCode)
}

func TestReconstructInputErrors(t *testing.T) {
	r := newTestReconstructor()
	valid := Input{Address: "大阪府大阪市北区", AreaSqm: 60, BuildingYear: 2000, PredictionYear: 2025}

	tests := []struct {
		name   string
		modify func(in *Input)
		want   error
	}{
		{"unknown prefecture", func(in *Input) { in.Address = "東京都港区六本木" }, ErrUnknownPrefecture},
		{"empty address", func(in *Input) { in.Address = "" }, ErrUnknownPrefecture},
		{"zero area", func(in *Input) { in.AreaSqm = 0 }, ErrInvalidArea},
		{"negative area", func(in *Input) { in.AreaSqm = -5 }, ErrInvalidArea},
		{"missing building year", func(in *Input) { in.BuildingYear = 0 }, ErrInvalidBuildingYear},
		{"future building", func(in *Input) { in.BuildingYear = 2026 }, ErrBuildingAgeOutOfRange},
		{"too old", func(in *Input) { in.BuildingYear = 1974 }, ErrBuildingAgeOutOfRange},
		{"negative minutes", func(in *Input) { in.StationMinutes = floatPtr(-1) }, ErrInvalidStationMinutes},
		{"bad quarter", func(in *Input) { in.Quarter = 5 }, ErrInvalidQuarter},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid
			tt.modify(&in)
			_, err := r.Reconstruct(in)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want))
			assert.True(t, IsInputError(err))
		})
	}
}

func TestReconstructAgeBoundaries(t *testing.T) {
	r := newTestReconstructor()

	for _, year := range []int{2025, 1975} {
		rec, err := r.Reconstruct(Input{Address: "大阪府大阪市北区", AreaSqm: 60, BuildingYear: year, PredictionYear: 2025})
		require.NoError(t, err)
		assert.Equal(t, 2025-year, rec.Row.BuildingAge)
	}
}

func TestEncoderFitTransform(t *testing.T) {
	rows := []Row{
		{AreaSqm: 50, BuildingAge: 10, StructureType: normalize.StructureRC, PrefectureCode: 1, StationRank: masterdata.RankMedium, HazardRiskCategory: masterdata.HazardLow, TradeYear: 2024, Quarter: 1},
		{AreaSqm: 70, BuildingAge: 20, StructureType: normalize.StructureSRC, PrefectureCode: 2, StationRank: masterdata.RankMedium, HazardRiskCategory: masterdata.HazardHigh, TradeYear: 2024, Quarter: 3, HasLDK: true},
	}

	enc, err := FitEncoder(rows)
	require.NoError(t, err)

	// 12 numeric + structure(2) + has_ldk(2) + prefecture(2) + rank(1) + hazard(2)
	assert.Equal(t, 21, enc.Width())
	assert.Len(t, enc.FeatureNames(), enc.Width())

	x, err := enc.Transform(rows[0])
	require.NoError(t, err)
	require.Len(t, x, 21)
	assert.InDelta(t, -1.0, x[0], 1e-9)
	assert.InDelta(t, -1.0, x[1], 1e-9)
	// constant trade_year column scales to zero
	assert.InDelta(t, 0.0, x[10], 1e-9)

	unseen := rows[0]
	unseen.StructureType = normalize.StructureWood
	x, err = enc.Transform(unseen)
	require.NoError(t, err)
	// structure one-hot block starts after the numeric columns
	assert.Equal(t, 0.0, x[12])
	assert.Equal(t, 0.0, x[13])
}

func TestEncoderFitEmpty(t *testing.T) {
	_, err := FitEncoder(nil)
	assert.ErrorIs(t, err, ErrNoRows)
}

func TestRowVectorsFollowDeclaredOrder(t *testing.T) {
	row := Row{AreaSqm: 1, BuildingAge: 2, NumRooms: 3, TimeToStationMin: 4, Quarter: 12, HasLDK: true, PrefectureCode: 6}
	assert.Len(t, row.Numeric(), len(NumericFeatures))
	assert.Len(t, row.Categorical(), len(CategoricalFeatures))
	assert.Equal(t, []float64{1, 2, 3, 4}, row.Numeric()[:4])
	assert.Equal(t, 12.0, row.Numeric()[11])
	assert.Equal(t, "1", row.Categorical()[1])
	assert.Equal(t, "6", row.Categorical()[2])
	assert.Equal(t, 30, row.WithAge(30).BuildingAge)
	assert.Equal(t, 2, row.BuildingAge)
}

package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shownfy/kansai-mansion-analytics/internal/config"
	"github.com/shownfy/kansai-mansion-analytics/internal/features"
	"github.com/shownfy/kansai-mansion-analytics/internal/masterdata"
	"github.com/shownfy/kansai-mansion-analytics/internal/models"
	"github.com/shownfy/kansai-mansion-analytics/internal/normalize"
)

func raw(pref, muni string, price int64, area float64, year string) models.RawTransaction {
	return models.RawTransaction{
		Type:           models.CondominiumType,
		Prefecture:     pref,
		Municipality:   muni,
		FloorPlan:      "3LDK",
		Structure:      "RC",
		TradePrice:     price,
		Area:           area,
		CoverageRatio:  80,
		FloorAreaRatio: 400,
		BuildingYear:   year,
		Period:         "2024年第2四半期",
	}
}

func stage(t *testing.T, records ...models.RawTransaction) ([]Record, *Report) {
	t.Helper()
	report := NewReport("test")
	return Stage(records, config.KansaiRegion(), report), report
}

func TestStageDrops(t *testing.T) {
	bad := raw("大阪府", "大阪市北区", 30000000, 60, "2010")
	bad.Period = "2024年"

	records, report := stage(t,
		raw("大阪府", "大阪市北区", 30000000, 60, "平成22年"),
		raw("大阪府", "大阪市北区", 30000000, 60, "大正5年"),
		raw("大阪府", "大阪市北区", 0, 60, "2010"),
		raw("東京都", "港区", 30000000, 60, "2010"),
		raw("大阪府", "", 30000000, 60, "2010"),
		bad,
		raw("大阪府", "大阪市北区", 30000000, 0, "2010"),
	)

	require.Len(t, records, 2)
	assert.Equal(t, 2010, records[0].BuildingYear)
	assert.Equal(t, 2024, records[0].TradeYear)
	assert.Equal(t, 2, records[0].Quarter)
	assert.Equal(t, 1, report.Drops[DropBuildingYear])
	assert.Equal(t, 1, report.Drops[DropPrice])
	assert.Equal(t, 1, report.Drops[DropPrefecture])
	assert.Equal(t, 1, report.Drops[DropMunicipality])
	assert.Equal(t, 1, report.Drops[DropPeriod])
	assert.Equal(t, 5, report.Dropped())
}

func TestBuildDimensionsMunicipalityStats(t *testing.T) {
	cfg := config.DefaultConfig().Pipeline
	records, _ := stage(t,
		raw("京都府", "X市", 20000000, 50, "2010"),
		raw("京都府", "X市", 21000000, 50, "2010"),
		raw("京都府", "X市", 22000000, 50, "2010"),
		raw("京都府", "X市", 99000000, 0, "2010"),
		raw("京都府", "Y町", 10000000, 0, "2010"),
	)

	dims := BuildDimensions(records, config.KansaiRegion(), cfg)
	require.Len(t, dims.Municipalities, 2)

	x := dims.Municipalities[0]
	assert.Equal(t, "X市", x.Name)
	assert.Equal(t, 2, x.PrefectureKey)
	assert.Equal(t, 3, x.TransactionCount)
	assert.InDelta(t, 420000.0, x.AvgPricePerSqm, 1e-6)
	assert.InDelta(t, 420000.0, x.MedianPricePerSqm, 1e-6)
	assert.InDelta(t, 400000.0, x.MinPricePerSqm, 1e-6)
	assert.InDelta(t, 440000.0, x.MaxPricePerSqm, 1e-6)
	assert.Equal(t, models.PriceTierMid, x.PriceTier)
	assert.True(t, x.HasStats())

	y := dims.Municipalities[1]
	assert.Equal(t, "Y町", y.Name)
	assert.False(t, y.HasStats())
	assert.Zero(t, y.AvgPricePerSqm)
	assert.Zero(t, y.MedianPricePerSqm)
	assert.Zero(t, y.MinPricePerSqm)
	assert.Zero(t, y.MaxPricePerSqm)

	assert.Equal(t, map[string]float64{"京都府/X市": x.AvgPricePerSqm}, dims.MunicipalityPrices())
}

func TestMedianEvenCount(t *testing.T) {
	assert.Equal(t, 2.5, median([]float64{1, 2, 3, 4}))
	assert.Equal(t, 3.0, median([]float64{1, 3, 5}))
}

func TestPriceTier(t *testing.T) {
	cfg := config.DefaultConfig().Pipeline
	assert.Equal(t, models.PriceTierHigh, PriceTier(500000, cfg))
	assert.Equal(t, models.PriceTierMid, PriceTier(499999, cfg))
	assert.Equal(t, models.PriceTierMid, PriceTier(300000, cfg))
	assert.Equal(t, models.PriceTierLow, PriceTier(299999, cfg))
}

func TestBuildDimensionsDeterministicKeys(t *testing.T) {
	cfg := config.DefaultConfig().Pipeline
	region := config.KansaiRegion()
	input := []models.RawTransaction{
		raw("兵庫県", "神戸市中央区", 30000000, 60, "2010"),
		raw("大阪府", "大阪市北区", 40000000, 60, "2010"),
		raw("大阪府", "堺市堺区", 20000000, 60, "2010"),
		raw("京都府", "京都市中京区", 35000000, 60, "2010"),
	}
	input[0].Structure = "SRC"
	input[1].FloorPlan = "2DK"

	reversed := make([]models.RawTransaction, len(input))
	for i, r := range input {
		reversed[len(input)-1-i] = r
	}

	a, _ := stage(t, input...)
	b, _ := stage(t, reversed...)
	dimsA := BuildDimensions(a, region, cfg)
	dimsB := BuildDimensions(b, region, cfg)

	assert.Equal(t, dimsA, dimsB)

	keys := make(map[string]int)
	for _, m := range dimsA.Municipalities {
		keys[m.Name] = m.Key
	}
	assert.Equal(t, map[string]int{"堺市堺区": 1, "大阪市北区": 2, "京都市中京区": 3, "神戸市中央区": 4}, keys)

	require.Len(t, dimsA.Prefectures, 3)
	assert.Equal(t, []int{1, 2, 3}, []int{dimsA.Prefectures[0].Key, dimsA.Prefectures[1].Key, dimsA.Prefectures[2].Key})
	assert.Equal(t, "RC", dimsA.Structures[0].RawValue)
	assert.Equal(t, "SRC", dimsA.Structures[1].RawValue)
	assert.Equal(t, string(normalize.StructureSRC), dimsA.Structures[1].StructureType)
	assert.Equal(t, "2DK", dimsA.FloorPlans[0].RawValue)
	assert.Equal(t, 2, dimsA.FloorPlans[0].NumRooms)
	assert.False(t, dimsA.FloorPlans[0].HasLDK)
}

func TestBuildFactsInclusiveBounds(t *testing.T) {
	cfg := config.DefaultConfig().Pipeline
	records, report := stage(t,
		raw("大阪府", "大阪市北区", 30000000, 60, "2024"),  // age 0
		raw("大阪府", "大阪市北区", 30000000, 60, "1924"),  // age 100
		raw("大阪府", "大阪市北区", 30000000, 60, "2025"),  // age -1
		raw("大阪府", "大阪市北区", 30000000, 60, "1923"),  // age 101
		raw("大阪府", "大阪市北区", 30000000, 10, "2010"),  // area 10
		raw("大阪府", "大阪市北区", 30000000, 500, "2010"), // area 500
		raw("大阪府", "大阪市北区", 30000000, 9.99, "2010"),
		raw("大阪府", "大阪市北区", 30000000, 500.01, "2010"),
		raw("大阪府", "大阪市北区", 30000000, 0, "2010"),
	)

	dims := BuildDimensions(records, config.KansaiRegion(), cfg)
	facts := BuildFacts("run", records, dims, cfg, report)

	require.Len(t, facts, 4)
	ages := []int{facts[0].BuildingAge, facts[1].BuildingAge}
	assert.Equal(t, []int{0, 100}, ages)
	assert.Equal(t, 10.0, facts[2].AreaSqm)
	assert.Equal(t, 500.0, facts[3].AreaSqm)
	assert.Equal(t, 2, report.Drops[DropAgeRange])
	assert.Equal(t, 2, report.Drops[DropAreaRange])
	assert.Equal(t, 1, report.Drops[DropArea])
	assert.Equal(t, 4, report.Facts)

	for i, f := range facts {
		assert.Equal(t, uint(i+1), f.ID)
		assert.Equal(t, "run", f.RunID)
		assert.Equal(t, 1, f.PrefectureKey)
		assert.Equal(t, 2024, f.TradeYear)
	}
	assert.InDelta(t, 500000.0, facts[0].PricePerSqm, 1e-6)
}

func TestBuildFactsCountsJoinMisses(t *testing.T) {
	cfg := config.DefaultConfig().Pipeline
	known, _ := stage(t, raw("大阪府", "大阪市北区", 30000000, 60, "2010"))
	dims := BuildDimensions(known, config.KansaiRegion(), cfg)

	other := raw("大阪府", "大阪市北区", 30000000, 60, "2010")
	other.Structure = "木造"
	records, report := stage(t,
		raw("大阪府", "大阪市北区", 30000000, 60, "2010"),
		raw("京都府", "京都市中京区", 30000000, 60, "2010"),
		raw("大阪府", "大阪市中央区", 30000000, 60, "2010"),
		other,
	)

	facts := BuildFacts("run", records, dims, cfg, report)
	assert.Len(t, facts, 1)
	assert.Equal(t, 3, report.Drops[DropJoinMiss])
}

func TestAssembleTrainingUsesStationDefaults(t *testing.T) {
	cfg := config.DefaultConfig().Pipeline
	tables := masterdata.Default()
	records, report := stage(t,
		raw("大阪府", "大阪市北区", 30000000, 60, "2010"),
		raw("奈良県", "吉野郡下市町", 12000000, 60, "1990"),
	)
	dims := BuildDimensions(records, config.KansaiRegion(), cfg)
	facts := BuildFacts("run", records, dims, cfg, report)
	defaults := features.NewStationDefaults(cfg)

	examples := AssembleTraining("run", facts, dims, tables.Hazards, defaults, report)
	require.Len(t, examples, 2)
	assert.Equal(t, 2, report.TrainingRows)

	osaka := examples[0]
	assert.Equal(t, int64(30000000), osaka.TradePrice)
	assert.Equal(t, facts[0].ID, osaka.FactID)
	assert.Equal(t, 1, osaka.Row.PrefectureCode)
	assert.Equal(t, 3, osaka.Row.NumRooms)
	assert.True(t, osaka.Row.HasLDK)
	assert.Equal(t, normalize.StructureRC, osaka.Row.StructureType)
	assert.InDelta(t, 500000.0, osaka.Row.CityAvgPricePerSqm, 1e-6)
	assert.InDelta(t, 550000.0, osaka.Row.StationAvgPricePerSqm, 1e-6)
	assert.Equal(t, 10.0, osaka.Row.TimeToStationMin)
	assert.Equal(t, masterdata.DefaultStation.LogPassengers, osaka.Row.LogPassengerCount)
	assert.Equal(t, masterdata.RankMedium, osaka.Row.StationRank)
	assert.InDelta(t, 0.8, osaka.Row.TotalHazardRisk, 1e-9)
	assert.Equal(t, masterdata.HazardLow, osaka.Row.HazardRiskCategory)
	assert.Equal(t, 14, osaka.Row.BuildingAge)

	nara := examples[1]
	assert.Equal(t, 4, nara.Row.PrefectureCode)
	assert.Equal(t, masterdata.DefaultHazard.Total, nara.Row.TotalHazardRisk)
	assert.Equal(t, masterdata.HazardMedium, nara.Row.HazardRiskCategory)
}

func TestSameNamedMunicipalitiesKeepTheirPrefecture(t *testing.T) {
	cfg := config.DefaultConfig().Pipeline
	base := masterdata.Default()
	hazards := masterdata.NewHazardTable(map[string]masterdata.HazardScores{
		"大阪府/太子町": {Flood: 1, Tsunami: 0, Landslide: 1},
		"兵庫県/太子町": {Flood: 3, Tsunami: 3, Landslide: 3},
	})
	tables := &masterdata.Tables{
		Stations:       base.Stations,
		Municipalities: base.Municipalities,
		Hazards:        hazards,
	}
	records, report := stage(t,
		raw("大阪府", "太子町", 24000000, 60, "2010"),
		raw("兵庫県", "太子町", 12000000, 60, "2010"),
	)
	dims := BuildDimensions(records, config.KansaiRegion(), cfg)
	facts := BuildFacts("run", records, dims, cfg, report)
	examples := AssembleTraining("run", facts, dims, tables.Hazards, features.NewStationDefaults(cfg), report)
	require.Len(t, examples, 2)

	trained := make(map[int]features.Row)
	for _, e := range examples {
		trained[e.Row.PrefectureCode] = e.Row
	}
	require.Contains(t, trained, 1)
	require.Contains(t, trained, 3)
	assert.InDelta(t, 400000.0, trained[1].CityAvgPricePerSqm, 1e-6)
	assert.InDelta(t, 200000.0, trained[3].CityAvgPricePerSqm, 1e-6)
	assert.NotEqual(t, trained[1].TotalHazardRisk, trained[3].TotalHazardRisk)

	serving := tables.WithMunicipalityPrices(dims.MunicipalityPrices())
	recon := features.NewReconstructor(config.KansaiRegion(), serving, cfg, 50)
	for _, tc := range []struct {
		address string
		code    int
	}{
		{"大阪府南河内郡太子町山田1", 1},
		{"兵庫県揖保郡太子町鵤1", 3},
	} {
		rec, err := recon.Reconstruct(features.Input{
			Address:        tc.address,
			AreaSqm:        60,
			BuildingYear:   2010,
			PredictionYear: 2024,
		})
		require.NoError(t, err, tc.address)
		assert.Equal(t, "太子町", rec.Municipality, tc.address)
		assert.False(t, rec.UsedFallback(features.FallbackMunicipality), tc.address)
		assert.False(t, rec.UsedFallback(features.FallbackHazard), tc.address)
		assert.Equal(t, trained[tc.code].CityAvgPricePerSqm, rec.Row.CityAvgPricePerSqm, tc.address)
		assert.Equal(t, trained[tc.code].StationAvgPricePerSqm, rec.Row.StationAvgPricePerSqm, tc.address)
		assert.Equal(t, trained[tc.code].TotalHazardRisk, rec.Row.TotalHazardRisk, tc.address)
	}

	// no observed price in 奈良県 means a flagged fallback, not a neighbour's price
	rec, err := recon.Reconstruct(features.Input{Address: "奈良県北葛城郡太子町1", AreaSqm: 60, BuildingYear: 2010, PredictionYear: 2024})
	require.NoError(t, err)
	assert.True(t, rec.UsedFallback(features.FallbackMunicipality))
}

type fakeSource struct {
	records []models.RawTransaction
	err     error
}

func (f *fakeSource) Records(ctx context.Context) ([]models.RawTransaction, error) {
	return f.records, f.err
}

func TestRun(t *testing.T) {
	cfg := config.DefaultConfig().Pipeline
	p := New(cfg, config.KansaiRegion(), masterdata.Default())

	var stages []string
	p.Progress = func(stage string) { stages = append(stages, stage) }

	src := &fakeSource{records: []models.RawTransaction{
		raw("大阪府", "大阪市北区", 30000000, 60, "2010"),
		raw("大阪府", "大阪市北区", 36000000, 60, "2015"),
		raw("大阪府", "大阪市北区", 36000000, 60, "昭和"),
		raw("兵庫県", "芦屋市", 45000000, 90, "2005"),
	}}

	build, err := p.Run(context.Background(), src)
	require.NoError(t, err)

	assert.NotEmpty(t, build.RunID)
	assert.Equal(t, build.RunID, build.Report.RunID)
	assert.Equal(t, 4, build.Report.RawRecords)
	assert.Equal(t, 3, build.Report.Staged)
	assert.Equal(t, 3, build.Report.Facts)
	assert.Equal(t, 3, build.Report.TrainingRows)
	assert.Equal(t, 1, build.Report.Drops[DropBuildingYear])
	assert.Len(t, build.Training, 3)
	assert.Equal(t, []string{StageLoad, StageNormalize, StageDimensions, StageFacts, StageTraining}, stages)
	assert.Len(t, stages, StageCount)

	rows, targets := Rows(build.Training)
	assert.Len(t, rows, 3)
	assert.Equal(t, []float64{30000000, 36000000, 45000000}, targets)
}

func TestRunSourceError(t *testing.T) {
	p := New(config.DefaultConfig().Pipeline, config.KansaiRegion(), masterdata.Default())
	_, err := p.Run(context.Background(), &fakeSource{err: errors.New("boom")})
	assert.Error(t, err)
}

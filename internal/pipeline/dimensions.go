package pipeline

import (
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/shownfy/kansai-mansion-analytics/internal/config"
	"github.com/shownfy/kansai-mansion-analytics/internal/masterdata"
	"github.com/shownfy/kansai-mansion-analytics/internal/models"
	"github.com/shownfy/kansai-mansion-analytics/internal/normalize"
)

// Dimensions holds the four dimension tables of one build.
type Dimensions struct {
	Prefectures    []models.PrefectureDim
	Municipalities []models.MunicipalityDim
	Structures     []models.StructureDim
	FloorPlans     []models.FloorPlanDim
}

type municipalityID struct {
	prefectureKey int
	name          string
}

// BuildDimensions derives the dimension tables from staged records. Keys
// depend only on the set of names observed, so identical input always
// yields identical keys:
//   - prefecture key = prefecture code (1..6)
//   - municipality keys follow (prefecture code, name) order
//   - structure and floor-plan keys follow raw string order
func BuildDimensions(records []Record, region config.Region, cfg config.PipelineConfig) *Dimensions {
	prefs := make(map[int]config.Prefecture)
	unitPrices := make(map[municipalityID][]float64)
	structures := make(map[string]struct{})
	plans := make(map[string]struct{})

	for _, r := range records {
		pref, ok := region.ByName(r.Prefecture)
		if !ok {
			continue
		}
		prefs[pref.Code] = pref

		id := municipalityID{prefectureKey: pref.Code, name: r.Municipality}
		prices := unitPrices[id]
		if ppsqm, ok := r.PricePerSqm(); ok && r.TradePrice > 0 {
			prices = append(prices, ppsqm)
		}
		unitPrices[id] = prices

		structures[r.Structure] = struct{}{}
		plans[r.FloorPlan] = struct{}{}
	}

	dims := &Dimensions{}

	codes := make([]int, 0, len(prefs))
	for code := range prefs {
		codes = append(codes, code)
	}
	sort.Ints(codes)
	for _, code := range codes {
		p := prefs[code]
		dims.Prefectures = append(dims.Prefectures, models.PrefectureDim{
			Key:     p.Code,
			Name:    p.Name,
			JISCode: p.JISCode,
			Rank:    p.Code,
		})
	}

	ids := make([]municipalityID, 0, len(unitPrices))
	for id := range unitPrices {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if ids[i].prefectureKey != ids[j].prefectureKey {
			return ids[i].prefectureKey < ids[j].prefectureKey
		}
		return ids[i].name < ids[j].name
	})
	for i, id := range ids {
		m := municipalityStats(unitPrices[id], cfg)
		m.Key = i + 1
		m.Name = id.name
		m.PrefectureKey = id.prefectureKey
		m.PrefectureName = prefs[id.prefectureKey].Name
		dims.Municipalities = append(dims.Municipalities, m)
	}

	for i, raw := range sortedKeys(structures) {
		st, _ := normalize.ParseStructure(raw)
		dims.Structures = append(dims.Structures, models.StructureDim{
			Key:           i + 1,
			RawValue:      raw,
			StructureType: string(st),
			Multiplier:    st.Multiplier(),
		})
	}

	for i, raw := range sortedKeys(plans) {
		plan, _ := normalize.ParseFloorPlan(raw)
		dims.FloorPlans = append(dims.FloorPlans, models.FloorPlanDim{
			Key:      i + 1,
			RawValue: raw,
			NumRooms: plan.Rooms,
			HasLDK:   plan.HasLDK,
		})
	}

	return dims
}

// municipalityStats aggregates unit prices. No prices gives a zero row.
func municipalityStats(prices []float64, cfg config.PipelineConfig) models.MunicipalityDim {
	m := models.MunicipalityDim{PriceTier: models.PriceTierLow}
	if len(prices) == 0 {
		return m
	}

	sorted := append([]float64(nil), prices...)
	sort.Float64s(sorted)

	m.TransactionCount = len(sorted)
	m.AvgPricePerSqm = stat.Mean(sorted, nil)
	m.MedianPricePerSqm = median(sorted)
	m.MinPricePerSqm = floats.Min(sorted)
	m.MaxPricePerSqm = floats.Max(sorted)
	m.PriceTier = PriceTier(m.AvgPricePerSqm, cfg)
	return m
}

// PriceTier buckets an average unit price by the configured thresholds.
func PriceTier(avg float64, cfg config.PipelineConfig) models.PriceTier {
	switch {
	case avg >= cfg.HighTierThreshold:
		return models.PriceTierHigh
	case avg >= cfg.MidTierThreshold:
		return models.PriceTierMid
	default:
		return models.PriceTierLow
	}
}

// median expects sorted input
func median(sorted []float64) float64 {
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// dimensionIndex resolves dimension keys by name.
type dimensionIndex struct {
	prefectures    map[string]models.PrefectureDim
	municipalities map[municipalityID]models.MunicipalityDim
	byMunicipality map[int]models.MunicipalityDim
	structures     map[string]models.StructureDim
	structureByKey map[int]models.StructureDim
	floorPlans     map[string]models.FloorPlanDim
	floorPlanByKey map[int]models.FloorPlanDim
}

func (d *Dimensions) index() *dimensionIndex {
	idx := &dimensionIndex{
		prefectures:    make(map[string]models.PrefectureDim, len(d.Prefectures)),
		municipalities: make(map[municipalityID]models.MunicipalityDim, len(d.Municipalities)),
		byMunicipality: make(map[int]models.MunicipalityDim, len(d.Municipalities)),
		structures:     make(map[string]models.StructureDim, len(d.Structures)),
		structureByKey: make(map[int]models.StructureDim, len(d.Structures)),
		floorPlans:     make(map[string]models.FloorPlanDim, len(d.FloorPlans)),
		floorPlanByKey: make(map[int]models.FloorPlanDim, len(d.FloorPlans)),
	}
	for _, p := range d.Prefectures {
		idx.prefectures[p.Name] = p
	}
	for _, m := range d.Municipalities {
		idx.municipalities[municipalityID{prefectureKey: m.PrefectureKey, name: m.Name}] = m
		idx.byMunicipality[m.Key] = m
	}
	for _, s := range d.Structures {
		idx.structures[s.RawValue] = s
		idx.structureByKey[s.Key] = s
	}
	for _, f := range d.FloorPlans {
		idx.floorPlans[f.RawValue] = f
		idx.floorPlanByKey[f.Key] = f
	}
	return idx
}

// MunicipalityPrices returns the average unit price of every municipality
// with at least one qualifying transaction, keyed by masterdata.MunicipalityKey.
func (d *Dimensions) MunicipalityPrices() map[string]float64 {
	prices := make(map[string]float64, len(d.Municipalities))
	for _, m := range d.Municipalities {
		if m.HasStats() {
			prices[masterdata.MunicipalityKey(m.PrefectureName, m.Name)] = m.AvgPricePerSqm
		}
	}
	return prices
}

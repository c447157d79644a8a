package masterdata

import "math"

// HazardCategory buckets the weighted hazard total.
type HazardCategory string

const (
	HazardLow    HazardCategory = "low"
	HazardMedium HazardCategory = "medium"
	HazardHigh   HazardCategory = "high"
)

// Weights of the individual hazards in the total score.
const (
	floodWeight     = 0.40
	tsunamiWeight   = 0.35
	landslideWeight = 0.25
)

// HazardScores are per-hazard risk levels on a 0..5 scale.
type HazardScores struct {
	Flood     int `yaml:"flood" json:"flood"`
	Tsunami   int `yaml:"tsunami" json:"tsunami"`
	Landslide int `yaml:"landslide" json:"landslide"`
}

// HazardRisk is the weighted summary fed to the model.
type HazardRisk struct {
	Scores   HazardScores   `json:"scores"`
	Total    float64        `json:"total_hazard_risk"`
	Category HazardCategory `json:"hazard_risk_category"`
}

// DefaultHazardScores apply when a municipality has no hazard entry.
// Their weighted total falls in the medium category.
var DefaultHazardScores = HazardScores{Flood: 2, Tsunami: 1, Landslide: 2}

// DefaultHazard is the risk used for unresolved municipalities.
var DefaultHazard = DefaultHazardScores.Risk()

// Risk computes the weighted total, rounded to two decimals, and its
// category. The category is taken from the unrounded total.
func (s HazardScores) Risk() HazardRisk {
	total := float64(s.Flood)*floodWeight +
		float64(s.Tsunami)*tsunamiWeight +
		float64(s.Landslide)*landslideWeight
	return HazardRisk{
		Scores:   s,
		Total:    math.Round(total*100) / 100,
		Category: CategorizeHazard(total),
	}
}

// CategorizeHazard maps a total score to its category.
func CategorizeHazard(total float64) HazardCategory {
	switch {
	case total < 1.5:
		return HazardLow
	case total < 2.5:
		return HazardMedium
	default:
		return HazardHigh
	}
}

// DiscountFactor is the price adjustment implied by a hazard total.
func DiscountFactor(total float64) float64 {
	return 1.05 - total*0.03
}

// HazardTable is the read-only hazard master keyed by municipality. Keys
// are bare names or MunicipalityKey values.
type HazardTable struct {
	scores map[string]HazardScores
	names  nameIndex
}

// NewHazardTable builds a hazard table. The map is copied.
func NewHazardTable(scores map[string]HazardScores) *HazardTable {
	t := &HazardTable{scores: mergeMaps(scores)}
	t.names = newNameIndex(t.scores)
	return t
}

// Lookup returns the hazard risk of a municipality in a prefecture.
func (t *HazardTable) Lookup(prefecture, municipality string) (HazardRisk, bool) {
	s, ok := lookupScoped(t.scores, prefecture, municipality)
	if !ok {
		return HazardRisk{}, false
	}
	return s.Risk(), true
}

// Len returns the number of municipalities with hazard data.
func (t *HazardTable) Len() int {
	return len(t.scores)
}

package features

import (
	"strings"
	"time"

	"github.com/shownfy/kansai-mansion-analytics/internal/config"
	"github.com/shownfy/kansai-mansion-analytics/internal/masterdata"
	"github.com/shownfy/kansai-mansion-analytics/internal/normalize"
)

// Values used at serving time for fields that only transactions carry.
const (
	DefaultCoverageRatio  = 60.0
	DefaultFloorAreaRatio = 200.0
	DefaultStructure      = normalize.StructureRC
	DefaultQuarter        = 2
)

// Fallback names a lookup that was substituted with a default value.
type Fallback string

const (
	FallbackMunicipality   Fallback = "municipality"
	FallbackGlobalPrice    Fallback = "global_price"
	FallbackStation        Fallback = "station"
	FallbackStationMinutes Fallback = "station_minutes"
	FallbackHazard         Fallback = "hazard"
)

// Input is what a user supplies for one prediction.
type Input struct {
	Address        string   `json:"address" binding:"required"`
	FloorPlan      string   `json:"floor_plan"`
	AreaSqm        float64  `json:"area_sqm"`
	BuildingYear   int      `json:"building_year"`
	StationMinutes *float64 `json:"station_minutes,omitempty"`
	Station        string   `json:"station,omitempty"`
	Lat            *float64 `json:"lat,omitempty"`
	Lon            *float64 `json:"lon,omitempty"`
	Structure      string   `json:"structure,omitempty"`
	CoverageRatio  float64  `json:"coverage_ratio,omitempty"`
	FloorAreaRatio float64  `json:"floor_area_ratio,omitempty"`
	PredictionYear int      `json:"prediction_year,omitempty"`
	Quarter        int      `json:"quarter,omitempty"`
}

// Reconstruction is a serving row together with what was resolved to build it.
type Reconstruction struct {
	Row          Row        `json:"features"`
	Prefecture   string     `json:"prefecture"`
	Municipality string     `json:"municipality,omitempty"`
	Station      string     `json:"station,omitempty"`
	Fallbacks    []Fallback `json:"fallbacks,omitempty"`
}

// UsedFallback reports whether the given substitution happened.
func (r *Reconstruction) UsedFallback(f Fallback) bool {
	for _, x := range r.Fallbacks {
		if x == f {
			return true
		}
	}
	return false
}

// Reconstructor builds serving rows from user input and the master data
// tables. It holds no mutable state and is safe for concurrent use.
type Reconstructor struct {
	region   config.Region
	tables   *masterdata.Tables
	stations StationDefaults
	maxAge   int
	now      func() time.Time
}

// NewReconstructor creates a reconstructor. maxAge is the oldest building
// the model is trusted for.
func NewReconstructor(region config.Region, tables *masterdata.Tables, pipeline config.PipelineConfig, maxAge int) *Reconstructor {
	return &Reconstructor{
		region:   region,
		tables:   tables,
		stations: NewStationDefaults(pipeline),
		maxAge:   maxAge,
		now:      time.Now,
	}
}

// WithTables returns a copy that resolves against different master data.
func (r *Reconstructor) WithTables(tables *masterdata.Tables) *Reconstructor {
	c := *r
	c.tables = tables
	return &c
}

// Tables returns the master data used for lookups.
func (r *Reconstructor) Tables() *masterdata.Tables {
	return r.tables
}

// MaxAge returns the oldest supported building age.
func (r *Reconstructor) MaxAge() int {
	return r.maxAge
}

// ResolvePrefecture finds the prefecture named in an address.
func ResolvePrefecture(region config.Region, address string) (config.Prefecture, error) {
	address = normalize.Fold(address)
	if address == "" {
		return config.Prefecture{}, inputError("address", ErrUnknownPrefecture, "address is empty")
	}
	p, ok := region.Resolve(address)
	if !ok {
		return config.Prefecture{}, inputError("address", ErrUnknownPrefecture, "%q", address)
	}
	return p, nil
}

// Reconstruct builds one feature row. Invalid input returns an *InputError;
// missing master data never fails and is recorded in Fallbacks instead.
func (r *Reconstructor) Reconstruct(in Input) (*Reconstruction, error) {
	pref, err := ResolvePrefecture(r.region, in.Address)
	if err != nil {
		return nil, err
	}
	if in.AreaSqm <= 0 {
		return nil, inputError("area_sqm", ErrInvalidArea, "got %g", in.AreaSqm)
	}
	if in.BuildingYear <= 0 {
		return nil, inputError("building_year", ErrInvalidBuildingYear, "got %d", in.BuildingYear)
	}
	if in.StationMinutes != nil && *in.StationMinutes < 0 {
		return nil, inputError("station_minutes", ErrInvalidStationMinutes, "got %g", *in.StationMinutes)
	}

	year := in.PredictionYear
	if year == 0 {
		year = r.now().Year()
	}
	age := year - in.BuildingYear
	if age < 0 || age > r.maxAge {
		return nil, inputError("building_year", ErrBuildingAgeOutOfRange, "age %d not in [0, %d]", age, r.maxAge)
	}

	quarter := in.Quarter
	if quarter == 0 {
		quarter = DefaultQuarter
	}
	if quarter < 1 || quarter > 4 {
		return nil, inputError("quarter", ErrInvalidQuarter, "got %d", quarter)
	}

	address := normalize.Fold(in.Address)
	rec := &Reconstruction{Prefecture: pref.Name}

	cityAvg := r.municipalityPrice(rec, pref, address)
	hazard := r.hazard(rec)
	station, minutes := r.station(rec, in, pref, address)

	plan, _ := normalize.ParseFloorPlan(in.FloorPlan)

	structure := DefaultStructure
	if in.Structure != "" {
		structure, _ = normalize.ParseStructure(in.Structure)
	}
	coverage := in.CoverageRatio
	if coverage <= 0 {
		coverage = DefaultCoverageRatio
	}
	far := in.FloorAreaRatio
	if far <= 0 {
		far = DefaultFloorAreaRatio
	}

	rec.Row = Row{
		AreaSqm:               in.AreaSqm,
		BuildingAge:           age,
		NumRooms:              plan.Rooms,
		HasLDK:                plan.HasLDK,
		StructureType:         structure,
		CoverageRatio:         coverage,
		FloorAreaRatio:        far,
		PrefectureCode:        pref.Code,
		TimeToStationMin:      minutes,
		CityAvgPricePerSqm:    cityAvg,
		StationAvgPricePerSqm: r.stations.StationAverage(cityAvg),
		LogPassengerCount:     station.LogPassengers,
		StationRank:           station.Rank,
		TotalHazardRisk:       hazard.Total,
		HazardRiskCategory:    hazard.Category,
		TradeYear:             year,
		Quarter:               quarter,
	}
	return rec, nil
}

func (r *Reconstructor) municipalityPrice(rec *Reconstruction, pref config.Prefecture, address string) float64 {
	if name, ok := r.tables.MunicipalityFromAddress(pref.Name, address); ok {
		rec.Municipality = name
		if price, ok := r.tables.Municipalities.Lookup(pref.Name, name); ok {
			return price
		}
	}

	rec.Fallbacks = append(rec.Fallbacks, FallbackMunicipality)
	price, ok := r.tables.Municipalities.PrefectureDefault(pref.Name)
	if !ok {
		rec.Fallbacks = append(rec.Fallbacks, FallbackGlobalPrice)
	}
	return price
}

func (r *Reconstructor) hazard(rec *Reconstruction) masterdata.HazardRisk {
	if rec.Municipality != "" {
		if risk, ok := r.tables.Hazards.Lookup(rec.Prefecture, rec.Municipality); ok {
			return risk
		}
	}
	rec.Fallbacks = append(rec.Fallbacks, FallbackHazard)
	return masterdata.DefaultHazard
}

// station resolves the nearest station from, in order, the name the user
// picked, the coordinates, and the address text.
func (r *Reconstructor) station(rec *Reconstruction, in Input, pref config.Prefecture, address string) (masterdata.StationStats, float64) {
	var (
		stats   masterdata.StationStats
		found   bool
		minutes = -1.0
	)

	if in.Station != "" {
		stats, found = r.tables.Stations.Lookup(normalize.Fold(in.Station))
	}
	if in.Lat != nil && in.Lon != nil {
		if name, km, ok := r.tables.Stations.Nearest(*in.Lat, *in.Lon); ok {
			if !found {
				stats, found = r.tables.Stations.Lookup(name)
			}
			if found && stats.Name == name {
				minutes = float64(masterdata.WalkingMinutes(km))
			}
		}
	}
	if !found {
		if name, ok := r.tables.Stations.FromAddress(AddressRemainder(address, pref, rec.Municipality), address); ok {
			stats, found = r.tables.Stations.Lookup(name)
		}
	}

	if found {
		rec.Station = stats.Name
	} else {
		stats = r.stations.Station
		rec.Fallbacks = append(rec.Fallbacks, FallbackStation)
	}

	switch {
	case in.StationMinutes != nil:
		minutes = *in.StationMinutes
	case minutes < 0:
		minutes = r.stations.Minutes
		rec.Fallbacks = append(rec.Fallbacks, FallbackStationMinutes)
	}
	return stats, minutes
}

// AddressRemainder strips the prefecture and municipality so that station
// names are only matched against the street part of the address.
func AddressRemainder(address string, pref config.Prefecture, municipality string) string {
	rest := strings.Replace(address, pref.Name, "", 1)
	if municipality != "" {
		rest = strings.Replace(rest, municipality, "", 1)
	}
	return strings.TrimSpace(rest)
}

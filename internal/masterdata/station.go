package masterdata

import (
	"math"
	"sort"
	"strings"
	"unicode/utf8"
)

// StationRank buckets stations by daily passengers.
type StationRank string

const (
	RankLarge  StationRank = "large"
	RankMedium StationRank = "medium"
	RankSmall  StationRank = "small"
)

// Rank thresholds in daily passengers.
const (
	LargeStationPassengers  = 100000
	MediumStationPassengers = 30000
)

// StationStats are the station features used by the model.
type StationStats struct {
	Name          string      `json:"name"`
	Passengers    int         `json:"passengers"`
	LogPassengers float64     `json:"log_passenger_count"`
	Rank          StationRank `json:"station_rank"`
}

// DefaultStation stands in for a station that cannot be resolved. The
// training assembler uses the same values for every record.
var DefaultStation = StationStats{
	Passengers:    30000,
	LogPassengers: 4.48,
	Rank:          RankMedium,
}

// AreaStation maps an address fragment to a representative station.
type AreaStation struct {
	Area    string `yaml:"area" json:"area"`
	Station string `yaml:"station" json:"station"`
}

// Coordinate is a WGS84 latitude/longitude pair.
type Coordinate struct {
	Lat float64 `yaml:"lat" json:"lat"`
	Lon float64 `yaml:"lon" json:"lon"`
}

// RankFor returns the rank of a station with the given passenger count.
func RankFor(passengers int) StationRank {
	switch {
	case passengers >= LargeStationPassengers:
		return RankLarge
	case passengers >= MediumStationPassengers:
		return RankMedium
	default:
		return RankSmall
	}
}

// StationTable is the read-only station master.
type StationTable struct {
	passengers map[string]int
	aliases    map[string]string
	coords     map[string]Coordinate
	areas      []AreaStation
	// names ordered longest first, then lexically, for substring matching
	names []string
}

// NewStationTable builds a station table. The maps are copied.
func NewStationTable(passengers map[string]int, aliases map[string]string, coords map[string]Coordinate, areas []AreaStation) *StationTable {
	t := &StationTable{
		passengers: make(map[string]int, len(passengers)),
		aliases:    make(map[string]string, len(aliases)),
		coords:     make(map[string]Coordinate, len(coords)),
		areas:      append([]AreaStation(nil), areas...),
	}
	for k, v := range passengers {
		t.passengers[k] = v
		t.names = append(t.names, k)
	}
	for k, v := range aliases {
		t.aliases[k] = v
	}
	for k, v := range coords {
		t.coords[k] = v
	}
	sortLongestFirst(t.names)
	return t
}

// Normalize strips a trailing 駅 and resolves spelling aliases.
func (t *StationTable) Normalize(name string) string {
	s := strings.TrimSpace(name)
	s = strings.TrimSuffix(s, "駅")
	if canonical, ok := t.aliases[s]; ok {
		return canonical
	}
	return s
}

// Lookup resolves a station name, trying an exact match before a partial one.
func (t *StationTable) Lookup(name string) (StationStats, bool) {
	normalized := t.Normalize(name)
	if normalized == "" {
		return StationStats{}, false
	}

	if p, ok := t.passengers[normalized]; ok {
		return newStationStats(normalized, p), true
	}
	for _, key := range t.names {
		if strings.Contains(normalized, key) || strings.Contains(key, normalized) {
			return newStationStats(key, t.passengers[key]), true
		}
	}
	return StationStats{}, false
}

// FromAddress infers a station from an address fragment: first a station
// name contained in the text, then a ward or district mapping.
func (t *StationTable) FromAddress(fragment, address string) (string, bool) {
	if fragment != "" {
		for _, name := range t.names {
			if strings.Contains(fragment, name) {
				return name, true
			}
		}
	}
	for _, a := range t.areas {
		if strings.Contains(address, a.Area) {
			return a.Station, true
		}
	}
	return "", false
}

// Nearest returns the closest station with known coordinates.
func (t *StationTable) Nearest(lat, lon float64) (string, float64, bool) {
	best := ""
	bestKM := math.Inf(1)
	for _, name := range t.names {
		c, ok := t.coords[name]
		if !ok {
			continue
		}
		km := HaversineKM(lat, lon, c.Lat, c.Lon)
		if km < bestKM {
			best, bestKM = name, km
		}
	}
	if best == "" {
		return "", 0, false
	}
	return best, bestKM, true
}

// Names returns every station name, longest first.
func (t *StationTable) Names() []string {
	return append([]string(nil), t.names...)
}

// Coordinate returns the location of a station, when known.
func (t *StationTable) Coordinate(name string) (Coordinate, bool) {
	c, ok := t.coords[name]
	return c, ok
}

// Len returns the number of stations.
func (t *StationTable) Len() int {
	return len(t.passengers)
}

func newStationStats(name string, passengers int) StationStats {
	stats := StationStats{
		Name:       name,
		Passengers: passengers,
		Rank:       RankFor(passengers),
	}
	if passengers > 0 {
		stats.LogPassengers = math.Log10(float64(passengers))
	}
	return stats
}

func sortLongestFirst(names []string) {
	sort.Slice(names, func(i, j int) bool {
		li, lj := utf8.RuneCountInString(names[i]), utf8.RuneCountInString(names[j])
		if li != lj {
			return li > lj
		}
		return names[i] < names[j]
	})
}

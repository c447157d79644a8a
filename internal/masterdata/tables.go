// Package masterdata holds the static lookup tables shared by the offline
// pipeline and the serving path: station passengers, municipality prices
// and hazard scores. Tables are built once and never mutated.
package masterdata

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"maps"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

// Tables bundles the three master tables.
type Tables struct {
	Stations       *StationTable
	Municipalities *MunicipalityTable
	Hazards        *HazardTable

	fingerprintOnce sync.Once
	fingerprint     string
}

// Default returns the compiled-in master tables.
func Default() *Tables {
	return &Tables{
		Stations:       NewStationTable(defaultStationPassengers, defaultStationAliases, defaultStationCoordinates, defaultAreaStations),
		Municipalities: NewMunicipalityTable(defaultMunicipalityPrices, defaultPrefecturePrices, DefaultMunicipalityPrice),
		Hazards:        NewHazardTable(defaultHazardScores),
	}
}

// File is the YAML layout of a master data override file. Entries are
// merged over the compiled-in tables.
type File struct {
	Stations struct {
		Passengers  map[string]int        `yaml:"passengers"`
		Aliases     map[string]string     `yaml:"aliases"`
		Coordinates map[string]Coordinate `yaml:"coordinates"`
		Areas       []AreaStation         `yaml:"areas"`
	} `yaml:"stations"`
	Municipalities struct {
		Prices             map[string]float64 `yaml:"prices"`
		PrefectureDefaults map[string]float64 `yaml:"prefecture_defaults"`
		DefaultPrice       float64            `yaml:"default_price"`
	} `yaml:"municipalities"`
	Hazards struct {
		Scores map[string]HazardScores `yaml:"scores"`
	} `yaml:"hazards"`
}

// Load reads an override file and merges it over the defaults. An empty
// path returns the defaults.
func Load(path string) (*Tables, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read master data file: %w", err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse master data file: %w", err)
	}

	return merge(f), nil
}

func merge(f File) *Tables {
	passengers := mergeMaps(defaultStationPassengers, f.Stations.Passengers)
	aliases := mergeMaps(defaultStationAliases, f.Stations.Aliases)
	coords := mergeMaps(defaultStationCoordinates, f.Stations.Coordinates)
	areas := append(append([]AreaStation(nil), f.Stations.Areas...), defaultAreaStations...)

	prices := mergeMaps(defaultMunicipalityPrices, f.Municipalities.Prices)
	prefPrices := mergeMaps(defaultPrefecturePrices, f.Municipalities.PrefectureDefaults)
	defaultPrice := DefaultMunicipalityPrice
	if f.Municipalities.DefaultPrice > 0 {
		defaultPrice = f.Municipalities.DefaultPrice
	}

	hazards := mergeMaps(defaultHazardScores, f.Hazards.Scores)

	return &Tables{
		Stations:       NewStationTable(passengers, aliases, coords, areas),
		Municipalities: NewMunicipalityTable(prices, prefPrices, defaultPrice),
		Hazards:        NewHazardTable(hazards),
	}
}

// WithMunicipalityPrices returns new tables whose municipality prices are
// overlaid with observed averages, typically the warehouse dimension.
// Keys should be MunicipalityKey values.
func (t *Tables) WithMunicipalityPrices(prices map[string]float64) *Tables {
	return &Tables{
		Stations:       t.Stations,
		Municipalities: t.Municipalities.with(prices),
		Hazards:        t.Hazards,
	}
}

// MunicipalityFromAddress finds the municipality of the prefecture named
// in an address, checking the price table before the hazard table.
func (t *Tables) MunicipalityFromAddress(prefecture, address string) (string, bool) {
	if name, ok := t.Municipalities.FindIn(prefecture, address); ok {
		return name, true
	}
	return t.Hazards.names.find(prefecture, address)
}

// Fingerprint is a digest of the table contents. Tables that resolve an
// address differently have different fingerprints.
func (t *Tables) Fingerprint() string {
	t.fingerprintOnce.Do(func() {
		h := sha256.New()
		_ = t.Export(h) // writes to a hash never fail
		t.fingerprint = hex.EncodeToString(h.Sum(nil))[:16]
	})
	return t.fingerprint
}

// Export writes the tables in the override file layout.
func (t *Tables) Export(w io.Writer) error {
	var f File
	f.Stations.Passengers = t.Stations.passengers
	f.Stations.Aliases = t.Stations.aliases
	f.Stations.Coordinates = t.Stations.coords
	f.Stations.Areas = t.Stations.areas
	f.Municipalities.Prices = t.Municipalities.prices
	f.Municipalities.PrefectureDefaults = t.Municipalities.prefecturePrices
	f.Municipalities.DefaultPrice = t.Municipalities.defaultPrice
	f.Hazards.Scores = t.Hazards.scores

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(f); err != nil {
		return fmt.Errorf("failed to encode master data: %w", err)
	}
	return enc.Close()
}

// mergeMaps copies the maps into a new one, later maps winning.
func mergeMaps[V any](ms ...map[string]V) map[string]V {
	n := 0
	for _, m := range ms {
		n += len(m)
	}
	out := make(map[string]V, n)
	for _, m := range ms {
		maps.Copy(out, m)
	}
	return out
}

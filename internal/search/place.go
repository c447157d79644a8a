package search

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/shownfy/kansai-mansion-analytics/internal/config"
	"github.com/shownfy/kansai-mansion-analytics/internal/masterdata"
	"github.com/shownfy/kansai-mansion-analytics/internal/models"
)

// PlaceKind distinguishes the two kinds of indexed place.
type PlaceKind string

const (
	KindStation      PlaceKind = "station"
	KindMunicipality PlaceKind = "municipality"
)

// Place is one searchable master data entry.
type Place struct {
	ID               string                 `json:"id"`
	Kind             PlaceKind              `json:"kind"`
	Name             string                 `json:"name"`
	Prefecture       string                 `json:"prefecture,omitempty"`
	Passengers       int                    `json:"passengers,omitempty"`
	StationRank      masterdata.StationRank `json:"station_rank,omitempty"`
	Lat              *float64               `json:"lat,omitempty"`
	Lon              *float64               `json:"lon,omitempty"`
	AvgPricePerSqm   float64                `json:"avg_price_per_sqm,omitempty"`
	PriceTier        string                 `json:"price_tier,omitempty"`
	TransactionCount int                    `json:"transaction_count,omitempty"`
}

// Searcher finds places by name.
type Searcher interface {
	Index(places []Place) error
	Search(query string, kind PlaceKind, limit int64) ([]Place, error)
}

// BuildPlaces lists every station and municipality. Warehouse statistics
// take precedence over the compiled-in municipality prices.
func BuildPlaces(tables *masterdata.Tables, region config.Region, dims []models.MunicipalityDim) []Place {
	stations := tables.Stations.Names()
	sort.Strings(stations)

	places := make([]Place, 0, len(stations))
	for i, name := range stations {
		stats, _ := tables.Stations.Lookup(name)
		p := Place{
			ID:          fmt.Sprintf("%s-%d", KindStation, i+1),
			Kind:        KindStation,
			Name:        name,
			Passengers:  stats.Passengers,
			StationRank: stats.Rank,
		}
		if c, ok := tables.Stations.Coordinate(name); ok {
			lat, lon := c.Lat, c.Lon
			p.Lat, p.Lon = &lat, &lon
		}
		places = append(places, p)
	}

	byKey := make(map[string]Place)
	observed := make(map[string]bool)
	for _, d := range dims {
		observed[d.Name] = true
		byKey[masterdata.MunicipalityKey(d.PrefectureName, d.Name)] = Place{
			Kind:             KindMunicipality,
			Name:             d.Name,
			Prefecture:       d.PrefectureName,
			AvgPricePerSqm:   d.AvgPricePerSqm,
			PriceTier:        string(d.PriceTier),
			TransactionCount: d.TransactionCount,
		}
	}
	for _, key := range tables.Municipalities.Keys() {
		prefName, name := masterdata.SplitMunicipalityKey(key)
		if prefName == "" {
			pref, ok := region.Resolve(name)
			if !ok && observed[name] {
				// the warehouse entries name the prefecture
				continue
			}
			prefName = pref.Name
		}
		full := masterdata.MunicipalityKey(prefName, name)
		if _, ok := byKey[full]; ok {
			continue
		}
		price, _ := tables.Municipalities.Lookup(prefName, name)
		byKey[full] = Place{Kind: KindMunicipality, Name: name, Prefecture: prefName, AvgPricePerSqm: price}
	}

	keys := make([]string, 0, len(byKey))
	for key := range byKey {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for i, key := range keys {
		p := byKey[key]
		p.ID = fmt.Sprintf("%s-%d", KindMunicipality, i+1)
		places = append(places, p)
	}
	return places
}

// Local is an in-process Searcher used when no search engine is configured.
type Local struct {
	mu     sync.RWMutex
	places []Place
}

// NewLocal creates an empty local index.
func NewLocal() *Local {
	return &Local{}
}

// Index replaces the indexed places.
func (l *Local) Index(places []Place) error {
	l.mu.Lock()
	l.places = append([]Place(nil), places...)
	l.mu.Unlock()
	return nil
}

// Search returns places whose name or prefecture contains the query.
// An empty query matches everything.
func (l *Local) Search(query string, kind PlaceKind, limit int64) ([]Place, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	query = strings.TrimSuffix(strings.TrimSpace(query), "駅")

	l.mu.RLock()
	defer l.mu.RUnlock()

	var hits []Place
	for _, p := range l.places {
		if kind != "" && p.Kind != kind {
			continue
		}
		if query != "" && !strings.Contains(p.Name, query) && !strings.Contains(p.Prefecture, query) {
			continue
		}
		hits = append(hits, p)
		if int64(len(hits)) >= limit {
			break
		}
	}
	return hits, nil
}

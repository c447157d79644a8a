package masterdata

import (
	"sort"
	"strings"
	"unicode/utf8"
)

const keySeparator = "/"

// MunicipalityKey qualifies a municipality name with its prefecture, as in
// "兵庫県/太子町". Kansai has same-named towns in different prefectures, so
// observed prices are always keyed this way. An empty prefecture yields the
// bare name.
func MunicipalityKey(prefecture, name string) string {
	if prefecture == "" {
		return name
	}
	return prefecture + keySeparator + name
}

// SplitMunicipalityKey returns the prefecture and name of a key. A bare
// name has no prefecture and matches in any prefecture.
func SplitMunicipalityKey(key string) (prefecture, name string) {
	if i := strings.Index(key, keySeparator); i >= 0 {
		return key[:i], key[i+len(keySeparator):]
	}
	return "", key
}

// lookupScoped prefers the prefecture-qualified entry over a bare one.
func lookupScoped[V any](m map[string]V, prefecture, name string) (V, bool) {
	if prefecture != "" {
		if v, ok := m[MunicipalityKey(prefecture, name)]; ok {
			return v, true
		}
	}
	v, ok := m[name]
	return v, ok
}

// nameIndex lists table keys for matching names inside an address,
// longest name first.
type nameIndex []string

func newNameIndex[V any](m map[string]V) nameIndex {
	keys := make(nameIndex, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		_, ni := SplitMunicipalityKey(keys[i])
		_, nj := SplitMunicipalityKey(keys[j])
		li, lj := utf8.RuneCountInString(ni), utf8.RuneCountInString(nj)
		if li != lj {
			return li > lj
		}
		return keys[i] < keys[j]
	})
	return keys
}

// find returns the longest name contained in the address among entries
// that are bare or scoped to the given prefecture.
func (x nameIndex) find(prefecture, address string) (string, bool) {
	for _, key := range x {
		pref, name := SplitMunicipalityKey(key)
		if pref != "" && pref != prefecture {
			continue
		}
		if strings.Contains(address, name) {
			return name, true
		}
	}
	return "", false
}

// MunicipalityTable holds average price per square meter by municipality
// with prefecture-level defaults.
type MunicipalityTable struct {
	prices           map[string]float64
	prefecturePrices map[string]float64
	defaultPrice     float64
	names            nameIndex
}

// NewMunicipalityTable builds a municipality price table. Keys are bare
// names or MunicipalityKey values. The maps are copied.
func NewMunicipalityTable(prices, prefecturePrices map[string]float64, defaultPrice float64) *MunicipalityTable {
	t := &MunicipalityTable{
		prices:           mergeMaps(prices),
		prefecturePrices: mergeMaps(prefecturePrices),
		defaultPrice:     defaultPrice,
	}
	t.names = newNameIndex(t.prices)
	return t
}

// Lookup returns the average price of a municipality in a prefecture.
func (t *MunicipalityTable) Lookup(prefecture, municipality string) (float64, bool) {
	return lookupScoped(t.prices, prefecture, municipality)
}

// PrefectureDefault returns the prefecture average, or the global default
// with ok=false when the prefecture has no entry.
func (t *MunicipalityTable) PrefectureDefault(prefecture string) (float64, bool) {
	if p, ok := t.prefecturePrices[prefecture]; ok {
		return p, true
	}
	return t.defaultPrice, false
}

// DefaultPrice returns the global fallback price.
func (t *MunicipalityTable) DefaultPrice() float64 {
	return t.defaultPrice
}

// FindIn returns the longest municipality of the prefecture contained in
// the address.
func (t *MunicipalityTable) FindIn(prefecture, address string) (string, bool) {
	return t.names.find(prefecture, address)
}

// Keys returns every priced key, longest name first.
func (t *MunicipalityTable) Keys() []string {
	return append([]string(nil), t.names...)
}

// Len returns the number of municipalities with a price.
func (t *MunicipalityTable) Len() int {
	return len(t.prices)
}

// with returns a copy of the table with the given prices layered on top.
func (t *MunicipalityTable) with(prices map[string]float64) *MunicipalityTable {
	positive := make(map[string]float64, len(prices))
	for k, v := range prices {
		if v > 0 {
			positive[k] = v
		}
	}
	return NewMunicipalityTable(mergeMaps(t.prices, positive), t.prefecturePrices, t.defaultPrice)
}

package config

import "strings"

// Prefecture is one of the six Kansai prefectures handled by the system.
// Code is the local ordinal (1..6) used as the prefecture_code feature.
type Prefecture struct {
	Name      string `json:"name" yaml:"name"`
	ShortName string `json:"short_name" yaml:"short_name"`
	JISCode   string `json:"jis_code" yaml:"jis_code"`
	Code      int    `json:"code" yaml:"code"`
}

type cityAlias struct {
	city string
	code int
}

// Region is the immutable prefecture table. Build it once with KansaiRegion
// and pass it to the components that resolve prefectures.
type Region struct {
	prefectures []Prefecture
	aliases     []cityAlias
	byName      map[string]int
	byCode      map[int]int
}

// KansaiRegion returns the prefecture table for the Kansai region.
func KansaiRegion() Region {
	prefectures := []Prefecture{
		{Name: "大阪府", ShortName: "大阪", JISCode: "27", Code: 1},
		{Name: "京都府", ShortName: "京都", JISCode: "26", Code: 2},
		{Name: "兵庫県", ShortName: "兵庫", JISCode: "28", Code: 3},
		{Name: "奈良県", ShortName: "奈良", JISCode: "29", Code: 4},
		{Name: "滋賀県", ShortName: "滋賀", JISCode: "25", Code: 5},
		{Name: "和歌山県", ShortName: "和歌山", JISCode: "30", Code: 6},
	}
	// Designated cities that commonly appear without their prefecture.
	aliases := []cityAlias{
		{city: "大阪市", code: 1},
		{city: "堺市", code: 1},
		{city: "京都市", code: 2},
		{city: "神戸市", code: 3},
		{city: "奈良市", code: 4},
		{city: "大津市", code: 5},
		{city: "和歌山市", code: 6},
	}

	r := Region{
		prefectures: prefectures,
		aliases:     aliases,
		byName:      make(map[string]int, len(prefectures)*2),
		byCode:      make(map[int]int, len(prefectures)),
	}
	for i, p := range prefectures {
		r.byName[p.Name] = i
		r.byName[p.ShortName] = i
		r.byCode[p.Code] = i
	}
	return r
}

// Prefectures returns the prefectures ordered by local code.
func (r Region) Prefectures() []Prefecture {
	out := make([]Prefecture, len(r.prefectures))
	copy(out, r.prefectures)
	return out
}

// ByName finds a prefecture by its full or short name.
func (r Region) ByName(name string) (Prefecture, bool) {
	i, ok := r.byName[strings.TrimSpace(name)]
	if !ok {
		return Prefecture{}, false
	}
	return r.prefectures[i], true
}

// ByCode finds a prefecture by local code.
func (r Region) ByCode(code int) (Prefecture, bool) {
	i, ok := r.byCode[code]
	if !ok {
		return Prefecture{}, false
	}
	return r.prefectures[i], true
}

// ByJISCode finds a prefecture by its two-digit JIS code.
func (r Region) ByJISCode(jis string) (Prefecture, bool) {
	for _, p := range r.prefectures {
		if p.JISCode == jis {
			return p, true
		}
	}
	return Prefecture{}, false
}

// Resolve finds the prefecture named in a free-form address. Full
// prefecture names are checked before city aliases so that "京都府" is not
// confused with an address in 東京都.
func (r Region) Resolve(address string) (Prefecture, bool) {
	for _, p := range r.prefectures {
		if strings.Contains(address, p.Name) {
			return p, true
		}
	}
	for _, a := range r.aliases {
		if strings.Contains(address, a.city) {
			return r.ByCode(a.code)
		}
	}
	return Prefecture{}, false
}

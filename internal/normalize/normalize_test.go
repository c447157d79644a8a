package normalize

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseBuildingYear(t *testing.T) {
	tests := []struct {
		raw  string
		want int
		ok   bool
	}{
		{"昭和3年", 1928, true},
		{"昭和６３年", 1988, true},
		{"平成元年", 1989, true},
		{"平成15年", 2003, true},
		{"令和2年", 2020, true},
		{"令和元年", 2019, true},
		{"2005年", 2005, true},
		{"2005", 2005, true},
		{"１９９８年", 1998, true},
		{" 1998 ", 1998, true},
		{"明治30年", 0, false},
		{"戦前", 0, false},
		{"", 0, false},
		{"98年", 0, false},
		{"昭和0年", 0, false},
		{"1998年築", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := ParseBuildingYear(tt.raw)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParsePeriod(t *testing.T) {
	year, quarter, ok := ParsePeriod("2023年第2四半期")
	assert.True(t, ok)
	assert.Equal(t, 2023, year)
	assert.Equal(t, 2, quarter)

	year, quarter, ok = ParsePeriod("２０２１年第４四半期")
	assert.True(t, ok)
	assert.Equal(t, 2021, year)
	assert.Equal(t, 4, quarter)

	year, quarter, ok = ParsePeriod("2022q1")
	assert.True(t, ok)
	assert.Equal(t, 2022, year)
	assert.Equal(t, 1, quarter)

	_, _, ok = ParsePeriod("2023年第5四半期")
	assert.False(t, ok)
	_, _, ok = ParsePeriod("")
	assert.False(t, ok)
}

func TestParseFloorPlan(t *testing.T) {
	tests := []struct {
		raw  string
		want FloorPlan
		ok   bool
	}{
		{"1K", FloorPlan{Rooms: 1}, true},
		{"1R", FloorPlan{Rooms: 1}, true},
		{"1LDK", FloorPlan{Rooms: 1, HasLDK: true}, true},
		{"2DK", FloorPlan{Rooms: 2}, true},
		{"3LDK", FloorPlan{Rooms: 3, HasLDK: true}, true},
		{"３ＬＤＫ", FloorPlan{Rooms: 3, HasLDK: true}, true},
		{"3ldk", FloorPlan{Rooms: 3, HasLDK: true}, true},
		{"2LDK+S", FloorPlan{Rooms: 2, HasLDK: true}, true},
		{"4SLDK", FloorPlan{Rooms: 4, HasLDK: true}, true},
		{"7LDK", FloorPlan{Rooms: 5, HasLDK: true}, true},
		{"0K", FloorPlan{Rooms: 1}, true},
		{"ワンルーム", FloorPlan{Rooms: 1}, true},
		{"オープンフロア", FloorPlan{Rooms: DefaultRooms}, false},
		{"", FloorPlan{Rooms: DefaultRooms}, false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := ParseFloorPlan(tt.raw)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPlanRulesOrderCompoundFirst(t *testing.T) {
	index := map[string]int{}
	for i, r := range PlanRules {
		index[r.Suffix] = i
	}
	assert.Less(t, index["SLDK"], index["LDK"])
	assert.Less(t, index["LDK"], index["DK"])
	assert.Less(t, index["DK"], index["K"])
}

func TestParseStructure(t *testing.T) {
	tests := []struct {
		raw  string
		want StructureType
	}{
		{"RC", StructureRC},
		{"ＲＣ", StructureRC},
		{"SRC", StructureSRC},
		{"ＳＲＣ造", StructureSRC},
		{"鉄骨鉄筋コンクリート造", StructureSRC},
		{"鉄筋コンクリート造", StructureRC},
		{"RC、鉄骨造", StructureRC},
		{"鉄骨造", StructureSteel},
		{"軽量鉄骨造", StructureSteel},
		{"S", StructureSteel},
		{"Ｓ造", StructureSteel},
		{"木造", StructureWood},
		{"W", StructureWood},
		{"ブロック造", StructureOther},
		{"その他", StructureOther},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := ParseStructure(tt.raw)
			assert.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	got, ok := ParseStructure("")
	assert.False(t, ok)
	assert.Equal(t, StructureOther, got)
}

func TestStructureStableAcrossSurroundingText(t *testing.T) {
	wrappers := []string{"%s", "（%s）", "築10年 %s 8階建"}
	for _, rule := range StructureRules {
		for _, w := range wrappers {
			raw := fmt.Sprintf(w, rule.Pattern)
			got, _ := ParseStructure(raw)
			assert.Equal(t, rule.Type, got, raw)
		}
	}
}

func TestStructureMultiplierOrdering(t *testing.T) {
	assert.Greater(t, StructureSRC.Multiplier(), StructureRC.Multiplier())
	assert.Greater(t, StructureRC.Multiplier(), StructureSteel.Multiplier())
	assert.Greater(t, StructureSteel.Multiplier(), StructureOther.Multiplier())
	assert.Greater(t, StructureOther.Multiplier(), StructureWood.Multiplier())
	assert.Equal(t, StructureOther.Multiplier(), StructureType("unknown").Multiplier())
	assert.False(t, StructureType("unknown").Valid())
}

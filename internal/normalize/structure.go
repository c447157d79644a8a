package normalize

import "strings"

// StructureType is the closed set of building structures.
type StructureType string

const (
	StructureRC    StructureType = "RC"
	StructureSRC   StructureType = "SRC"
	StructureSteel StructureType = "S"
	StructureWood  StructureType = "Wood"
	StructureOther StructureType = "Other"
)

// StructureTypes lists every structure type in dimension key order.
var StructureTypes = []StructureType{
	StructureSRC,
	StructureRC,
	StructureSteel,
	StructureOther,
	StructureWood,
}

// Price multipliers are fixed: SRC > RC > S > Other > Wood.
var structureMultipliers = map[StructureType]float64{
	StructureSRC:   1.10,
	StructureRC:    1.00,
	StructureSteel: 0.90,
	StructureOther: 0.85,
	StructureWood:  0.80,
}

// Multiplier returns the fixed price multiplier of the structure type.
func (t StructureType) Multiplier() float64 {
	if m, ok := structureMultipliers[t]; ok {
		return m
	}
	return structureMultipliers[StructureOther]
}

// Valid reports whether t is one of the known structure types.
func (t StructureType) Valid() bool {
	_, ok := structureMultipliers[t]
	return ok
}

// StructureRule maps a substring of a structure string to its type.
type StructureRule struct {
	Pattern string
	Type    StructureType
}

// StructureRules is evaluated in order against the width-folded,
// upper-cased input. Steel-reinforced concrete must precede reinforced
// concrete, and both must precede plain steel.
var StructureRules = []StructureRule{
	{Pattern: "SRC", Type: StructureSRC},
	{Pattern: "鉄骨鉄筋コンクリート", Type: StructureSRC},
	{Pattern: "RC", Type: StructureRC},
	{Pattern: "鉄筋コンクリート", Type: StructureRC},
	{Pattern: "鉄骨", Type: StructureSteel},
	{Pattern: "S造", Type: StructureSteel},
	{Pattern: "木造", Type: StructureWood},
	{Pattern: "W造", Type: StructureWood},
	{Pattern: "ブロック", Type: StructureOther},
}

// ParseStructure maps a raw structure string to a StructureType. Strings
// that match no rule map to StructureOther; ok is false only for empty input.
func ParseStructure(raw string) (StructureType, bool) {
	s := FoldUpper(raw)
	if s == "" {
		return StructureOther, false
	}
	for _, rule := range StructureRules {
		if strings.Contains(s, rule.Pattern) {
			return rule.Type, true
		}
	}
	if s == "S" {
		return StructureSteel, true
	}
	if s == "W" {
		return StructureWood, true
	}
	return StructureOther, true
}

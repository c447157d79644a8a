package normalize

import (
	"regexp"
	"strconv"
	"strings"
)

// Room count bounds for the floor-plan dimension.
const (
	MinRooms     = 1
	MaxRooms     = 5
	DefaultRooms = 2
)

// FloorPlan is the canonical form of a floor-plan notation.
type FloorPlan struct {
	Rooms  int  `json:"num_rooms"`
	HasLDK bool `json:"has_ldk"`
}

// PlanRule maps a layout suffix following the room count to the
// living-dining-kitchen flag. Rules are tried in order, so compound
// notations come before the shorter ones they contain.
type PlanRule struct {
	Suffix string
	HasLDK bool
}

// PlanRules is the ordered rule table used by ParseFloorPlan.
var PlanRules = []PlanRule{
	{Suffix: "SLDK", HasLDK: true},
	{Suffix: "LDK", HasLDK: true},
	{Suffix: "SDK", HasLDK: false},
	{Suffix: "DK", HasLDK: false},
	{Suffix: "SK", HasLDK: false},
	{Suffix: "K", HasLDK: false},
	{Suffix: "R", HasLDK: false},
}

var floorPlanPattern = buildFloorPlanPattern()

func buildFloorPlanPattern() *regexp.Regexp {
	suffixes := make([]string, len(PlanRules))
	for i, r := range PlanRules {
		suffixes[i] = r.Suffix
	}
	return regexp.MustCompile(`(\d+)\s*(` + strings.Join(suffixes, "|") + `)`)
}

// ParseFloorPlan reads the room count and LDK flag from notations such as
// "3LDK", "２ＤＫ" or "1R". Unmatched input yields the default of two rooms
// without LDK and ok=false. Room counts are clamped to [MinRooms, MaxRooms].
func ParseFloorPlan(raw string) (FloorPlan, bool) {
	s := FoldUpper(raw)
	if s == "" {
		return FloorPlan{Rooms: DefaultRooms}, false
	}
	if strings.Contains(s, "ワンルーム") {
		return FloorPlan{Rooms: 1}, true
	}

	m := floorPlanPattern.FindStringSubmatch(s)
	if m == nil {
		return FloorPlan{Rooms: DefaultRooms, HasLDK: strings.Contains(s, "LDK")}, false
	}

	rooms, err := strconv.Atoi(m[1])
	if err != nil {
		return FloorPlan{Rooms: DefaultRooms}, false
	}

	plan := FloorPlan{Rooms: clampRooms(rooms)}
	for _, rule := range PlanRules {
		if rule.Suffix == m[2] {
			plan.HasLDK = rule.HasLDK
			break
		}
	}
	// LDK anywhere in the string sets the flag
	if !plan.HasLDK && strings.Contains(s, "LDK") {
		plan.HasLDK = true
	}
	return plan, true
}

func clampRooms(n int) int {
	if n < MinRooms {
		return MinRooms
	}
	if n > MaxRooms {
		return MaxRooms
	}
	return n
}

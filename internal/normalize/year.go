package normalize

import (
	"regexp"
	"strconv"
)

// Era is a Japanese calendar era. The calendar year of era year n is
// Offset+n.
type Era struct {
	Name   string
	Offset int
}

// Eras accepted in building-year strings.
var Eras = []Era{
	{Name: "昭和", Offset: 1925},
	{Name: "平成", Offset: 1988},
	{Name: "令和", Offset: 2018},
}

var (
	eraYearPattern      = regexp.MustCompile(`^(昭和|平成|令和)\s*(元|\d{1,2})\s*年?$`)
	calendarYearPattern = regexp.MustCompile(`^(\d{4})\s*年?$`)
	periodPattern       = regexp.MustCompile(`^(\d{4})\s*年\s*第\s*([1-4])\s*四半期$`)
	periodShortPattern  = regexp.MustCompile(`^(\d{4})\s*[-/ ]?\s*Q([1-4])$`)
)

// ParseBuildingYear converts a building-year string to a calendar year.
// Accepted forms are 昭和n年, 平成n年, 令和n年 (元年 is year 1) and a bare
// four-digit year with or without a trailing 年.
func ParseBuildingYear(raw string) (int, bool) {
	s := Fold(raw)
	if s == "" {
		return 0, false
	}

	if m := eraYearPattern.FindStringSubmatch(s); m != nil {
		n := 1
		if m[2] != "元" {
			v, err := strconv.Atoi(m[2])
			if err != nil || v < 1 {
				return 0, false
			}
			n = v
		}
		for _, era := range Eras {
			if era.Name == m[1] {
				return era.Offset + n, true
			}
		}
		return 0, false
	}

	if m := calendarYearPattern.FindStringSubmatch(s); m != nil {
		year, err := strconv.Atoi(m[1])
		if err != nil || year < 1800 {
			return 0, false
		}
		return year, true
	}

	return 0, false
}

// ParsePeriod extracts the trade year and quarter from a period string
// such as "2023年第2四半期" or "2023Q2".
func ParsePeriod(raw string) (year, quarter int, ok bool) {
	s := FoldUpper(raw)
	m := periodPattern.FindStringSubmatch(s)
	if m == nil {
		m = periodShortPattern.FindStringSubmatch(s)
	}
	if m == nil {
		return 0, 0, false
	}
	year, _ = strconv.Atoi(m[1])
	quarter, _ = strconv.Atoi(m[2])
	return year, quarter, true
}

// Package source reads raw transaction records for a pipeline run.
package source

import (
	"context"
	"strings"

	"github.com/spf13/cast"

	"github.com/shownfy/kansai-mansion-analytics/internal/models"
)

// Source produces the raw transaction records for one run.
type Source interface {
	Records(ctx context.Context) ([]models.RawTransaction, error)
}

// IsCondominium reports whether a record is a condominium sale.
func IsCondominium(txType string) bool {
	return strings.Contains(txType, "マンション")
}

// fromMap converts one API record into a raw transaction. Unparseable
// numbers become zero and are dropped by staging.
func fromMap(m map[string]interface{}) models.RawTransaction {
	return models.RawTransaction{
		Type:           str(m, "Type"),
		Prefecture:     str(m, "Prefecture"),
		Municipality:   str(m, "Municipality"),
		DistrictName:   str(m, "DistrictName"),
		FloorPlan:      str(m, "FloorPlan"),
		Structure:      str(m, "Structure"),
		TradePrice:     cast.ToInt64(number(m, "TradePrice")),
		Area:           cast.ToFloat64(number(m, "Area")),
		CoverageRatio:  cast.ToFloat64(number(m, "CoverageRatio")),
		FloorAreaRatio: cast.ToFloat64(number(m, "FloorAreaRatio")),
		BuildingYear:   str(m, "BuildingYear"),
		Period:         str(m, "Period"),
	}
}

func str(m map[string]interface{}, key string) string {
	return strings.TrimSpace(cast.ToString(m[key]))
}

// number strips thousands separators so that "12,000,000" parses.
func number(m map[string]interface{}, key string) interface{} {
	v, ok := m[key]
	if !ok || v == nil {
		return 0
	}
	if s, ok := v.(string); ok {
		return strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	}
	return v
}

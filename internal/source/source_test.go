package source

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "transactions.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestJSONFileSourceEnvelope(t *testing.T) {
	path := writeFile(t, `{"status":"OK","data":[
		{"Type":"中古マンション等","Prefecture":"大阪府","Municipality":"大阪市北区","FloorPlan":"３ＬＤＫ",
		 "Structure":"ＲＣ","TradePrice":"42,000,000","Area":"70","CoverageRatio":"80","FloorAreaRatio":"600",
		 "BuildingYear":"平成17年","Period":"2024年第2四半期"},
		{"Type":"宅地(土地)","Prefecture":"大阪府","Municipality":"大阪市北区","TradePrice":"10000000","Area":"100"}
	]}`)

	records, err := NewJSONFileSource(path).Records(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)

	r := records[0]
	assert.Equal(t, "大阪府", r.Prefecture)
	assert.Equal(t, "大阪市北区", r.Municipality)
	assert.Equal(t, int64(42000000), r.TradePrice)
	assert.Equal(t, 70.0, r.Area)
	assert.Equal(t, 80.0, r.CoverageRatio)
	assert.Equal(t, 600.0, r.FloorAreaRatio)
	assert.Equal(t, "平成17年", r.BuildingYear)
	assert.Equal(t, "2024年第2四半期", r.Period)
}

func TestJSONFileSourceArrayAndBadNumbers(t *testing.T) {
	path := writeFile(t, `[
		{"Type":"中古マンション等","Prefecture":"京都府","Municipality":"京都市中京区","TradePrice":30000000,"Area":"2000㎡以上"}
	]`)

	records, err := NewJSONFileSource(path).Records(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, int64(30000000), records[0].TradePrice)
	assert.Equal(t, 0.0, records[0].Area)
}

func TestJSONFileSourceErrors(t *testing.T) {
	_, err := NewJSONFileSource(filepath.Join(t.TempDir(), "missing.json")).Records(context.Background())
	assert.Error(t, err)

	_, err = NewJSONFileSource(writeFile(t, `{not json`)).Records(context.Background())
	assert.Error(t, err)
}

func TestIsCondominium(t *testing.T) {
	assert.True(t, IsCondominium("中古マンション等"))
	assert.False(t, IsCondominium("宅地(土地と建物)"))
	assert.False(t, IsCondominium(""))
}

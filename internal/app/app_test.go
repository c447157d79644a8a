package app

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shownfy/kansai-mansion-analytics/internal/config"
	"github.com/shownfy/kansai-mansion-analytics/internal/source"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Database.SQLite.Path = filepath.Join(dir, "warehouse.db")
	cfg.Source.Path = filepath.Join(dir, "transactions.json")
	cfg.Model.Dir = filepath.Join(dir, "models")
	return cfg
}

func TestNew(t *testing.T) {
	a, err := New(testConfig(t))
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })

	assert.NotNil(t, a.Warehouse)
	assert.IsType(t, &source.JSONFileSource{}, a.Source)
	assert.Nil(t, a.Engine.Artifact())
	assert.False(t, a.Retrain.Running())
	assert.Len(t, a.Region.Prefectures(), 6)
}

func TestNewUnsupportedSource(t *testing.T) {
	cfg := testConfig(t)
	cfg.Source.Type = "s3"

	_, err := New(cfg)
	assert.ErrorContains(t, err, "unsupported source type")
}

func TestCloseRunsInReverseOrder(t *testing.T) {
	var order []int
	a := &App{}
	a.OnClose(func() error { order = append(order, 1); return nil })
	a.OnClose(func() error { order = append(order, 2); return nil })

	require.NoError(t, a.Close())
	assert.Equal(t, []int{2, 1}, order)

	// closers run once
	require.NoError(t, a.Close())
	assert.Equal(t, []int{2, 1}, order)
}

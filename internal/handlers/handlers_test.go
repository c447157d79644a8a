package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/shownfy/kansai-mansion-analytics/internal/config"
	"github.com/shownfy/kansai-mansion-analytics/internal/features"
	"github.com/shownfy/kansai-mansion-analytics/internal/masterdata"
	"github.com/shownfy/kansai-mansion-analytics/internal/metrics"
	"github.com/shownfy/kansai-mansion-analytics/internal/model"
	"github.com/shownfy/kansai-mansion-analytics/internal/models"
	"github.com/shownfy/kansai-mansion-analytics/internal/normalize"
	"github.com/shownfy/kansai-mansion-analytics/internal/predict"
	"github.com/shownfy/kansai-mansion-analytics/internal/ratelimit"
	"github.com/shownfy/kansai-mansion-analytics/internal/retrain"
	"github.com/shownfy/kansai-mansion-analytics/internal/search"
	"github.com/shownfy/kansai-mansion-analytics/internal/warehouse"
)

// fakeTrigger claims the rebuild slot on RunAsync and holds it until finish.
type fakeTrigger struct {
	mu      sync.Mutex
	called  chan string
	running bool
}

func (f *fakeTrigger) RunAsync(trigger string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.running {
		return retrain.ErrAlreadyRunning
	}
	f.running = true
	f.called <- trigger
	return nil
}

func (f *fakeTrigger) Running() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.running
}

func (f *fakeTrigger) finish() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.running = false
}

type testServer struct {
	router  *gin.Engine
	engine  *predict.Engine
	wh      *warehouse.Warehouse
	trigger *fakeTrigger
	metrics *metrics.Metrics
}

func constantArtifact(t *testing.T, price float64) *model.Artifact {
	t.Helper()
	enc, err := features.FitEncoder([]features.Row{
		{AreaSqm: 50, BuildingAge: 5, StructureType: normalize.StructureRC, PrefectureCode: 1, StationRank: masterdata.RankLarge, HazardRiskCategory: masterdata.HazardLow, TradeYear: 2024, Quarter: 1},
		{AreaSqm: 70, BuildingAge: 25, StructureType: normalize.StructureRC, PrefectureCode: 1, StationRank: masterdata.RankMedium, HazardRiskCategory: masterdata.HazardMedium, TradeYear: 2024, Quarter: 3},
	})
	require.NoError(t, err)
	return &model.Artifact{
		Name:        "gradient_boosting",
		Version:     "20250101_000000.000_abcd1234",
		Encoder:     enc,
		Regressor:   &model.Regressor{Init: price, LearningRate: 0.1, NFeatures: enc.Width()},
		Metrics:     model.Metrics{MAPE: 8, R2: 0.9},
		Importances: []model.Importance{{Feature: "area_sqm", Importance: 0.6}, {Feature: "building_age", Importance: 0.3}, {Feature: "quarter", Importance: 0.1}},
	}
}

func setupServer(t *testing.T, art *model.Artifact, limiter *ratelimit.RateLimiter) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	wh := warehouse.NewFromDB(db)
	require.NoError(t, wh.InitSchema())

	cfg := config.DefaultConfig()
	region := config.KansaiRegion()
	tables := masterdata.Default()
	store := model.NewStore(t.TempDir(), cfg.Model.Name)
	recon := features.NewReconstructor(region, tables, cfg.Pipeline, cfg.Model.MaxServingAge)
	m := metrics.New()
	engine := predict.NewEngine(recon, store, cfg.Model).WithObserver(m)
	if art != nil {
		engine.SetArtifact(art)
	}

	idx := search.NewLocal()
	require.NoError(t, idx.Index(search.BuildPlaces(tables, region, nil)))

	trigger := &fakeTrigger{called: make(chan string, 1)}
	router := NewRouter(RouterConfig{
		Engine:         engine,
		Predict:        NewPredictHandler(engine),
		Master:         NewMasterHandler(engine, region, idx, wh),
		Admin:          NewAdminHandler(wh, trigger, trigger, store, engine),
		Limiter:        limiter,
		Metrics:        m,
		AllowedOrigins: []string{"http://localhost:8501"},
	})
	return &testServer{router: router, engine: engine, wh: wh, trigger: trigger, metrics: m}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func validInput() map[string]interface{} {
	return map[string]interface{}{
		"address":         "大阪府大阪市北区梅田1丁目",
		"floor_plan":      "2LDK",
		"area_sqm":        65,
		"building_year":   2010,
		"station_minutes": 4,
		"prediction_year": 2025,
	}
}

func TestPredictEndpoint(t *testing.T) {
	s := setupServer(t, constantArtifact(t, 40_000_000), nil)

	rec := s.do(t, http.MethodPost, "/api/predict", validInput())
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decode(t, rec)
	assert.Equal(t, 40_000_000.0, body["predicted_price"])
	assert.Equal(t, 35_200_000.0, body["confidence_lower"])
	assert.Equal(t, 44_800_000.0, body["confidence_upper"])
	assert.Equal(t, "大阪市北区", body["municipality"])
	assert.Equal(t, "梅田", body["station"])
	assert.NotContains(t, body, "fallbacks")
}

func TestPredictEndpointInputErrors(t *testing.T) {
	s := setupServer(t, constantArtifact(t, 40_000_000), nil)

	in := validInput()
	in["address"] = "東京都千代田区"
	rec := s.do(t, http.MethodPost, "/api/predict", in)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "address", decode(t, rec)["field"])

	in = validInput()
	in["building_year"] = 1960
	rec = s.do(t, http.MethodPost, "/api/predict", in)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "building_year", decode(t, rec)["field"])

	in = validInput()
	delete(in, "address")
	rec = s.do(t, http.MethodPost, "/api/predict", in)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPredictEndpointWithoutModel(t *testing.T) {
	s := setupServer(t, nil, nil)

	rec := s.do(t, http.MethodPost, "/api/predict", validInput())
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/model", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = s.do(t, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, decode(t, rec)["model_loaded"])
}

func TestProjectionEndpoint(t *testing.T) {
	s := setupServer(t, constantArtifact(t, 40_000_000), nil)

	rec := s.do(t, http.MethodPost, "/api/predict/projection", validInput())
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var proj predict.Projection
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &proj))
	require.Len(t, proj.Points, 8)
	assert.Equal(t, 15, proj.Points[0].BuildingAge)
	assert.Equal(t, 50, proj.Points[7].BuildingAge)
}

func TestModelEndpoint(t *testing.T) {
	s := setupServer(t, constantArtifact(t, 40_000_000), nil)

	rec := s.do(t, http.MethodGet, "/api/model?top=2", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "20250101_000000.000_abcd1234", body["version"])
	assert.Len(t, body["importances"], 2)
	assert.Equal(t, 50.0, body["max_age"])

	rec = s.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, true, decode(t, rec)["model_loaded"])
}

func TestMasterEndpoints(t *testing.T) {
	s := setupServer(t, constantArtifact(t, 40_000_000), nil)

	rec := s.do(t, http.MethodGet, "/api/master/prefectures", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["prefectures"], 6)

	rec = s.do(t, http.MethodGet, "/api/master/stations/"+url.PathEscape("梅田駅"), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, decode(t, rec), "coordinate")

	rec = s.do(t, http.MethodGet, "/api/master/stations/"+url.PathEscape("存在しない"), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/master/search?kind=station&q="+url.QueryEscape("梅田"), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1.0, decode(t, rec)["count"])

	rec = s.do(t, http.MethodGet, "/api/master/search?kind=city", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/master/resolve?address="+url.QueryEscape("大阪府大阪市北区梅田"), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "大阪市北区", body["municipality"])
	assert.Equal(t, "梅田", body["station"])
	hazard, ok := body["hazard"].(map[string]interface{})
	require.True(t, ok)
	assert.InDelta(t, 0.8, hazard["total_hazard_risk"], 1e-9)
	assert.InDelta(t, 1.026, body["hazard_discount_factor"], 1e-9)

	rec = s.do(t, http.MethodGet, "/api/master/resolve?address="+url.QueryEscape("東京都"), nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/master/municipalities", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0.0, decode(t, rec)["count"])
}

func TestAdminRebuild(t *testing.T) {
	s := setupServer(t, constantArtifact(t, 40_000_000), nil)

	rec := s.do(t, http.MethodPost, "/api/admin/rebuild", nil)
	require.Equal(t, http.StatusAccepted, rec.Code)
	select {
	case trigger := <-s.trigger.called:
		assert.Equal(t, models.TriggerAdmin, trigger)
	case <-time.After(time.Second):
		t.Fatal("rebuild was not triggered")
	}

	rec = s.do(t, http.MethodPost, "/api/admin/rebuild", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/admin/rebuild/status", nil)
	assert.Equal(t, "running", decode(t, rec)["status"])

	s.trigger.finish()
	rec = s.do(t, http.MethodGet, "/api/admin/rebuild/status", nil)
	assert.Equal(t, "idle", decode(t, rec)["status"])
}

func TestAdminRebuildConcurrentRequests(t *testing.T) {
	s := setupServer(t, constantArtifact(t, 40_000_000), nil)

	codes := make(chan int, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			codes <- s.do(t, http.MethodPost, "/api/admin/rebuild", nil).Code
		}()
	}
	wg.Wait()
	close(codes)

	got := map[int]int{}
	for code := range codes {
		got[code]++
	}
	assert.Equal(t, map[int]int{http.StatusAccepted: 1, http.StatusConflict: 1}, got)
}

func TestAdminRunsAndModels(t *testing.T) {
	s := setupServer(t, constantArtifact(t, 40_000_000), nil)
	ctx := context.Background()

	run := warehouse.NewRun("run-1", models.TriggerCLI)
	require.NoError(t, s.wh.RecordRun(ctx, run))

	rec := s.do(t, http.MethodGet, "/api/admin/runs", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1.0, decode(t, rec)["count"])

	rec = s.do(t, http.MethodGet, "/api/admin/runs/run-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "running", decode(t, rec)["status"])

	rec = s.do(t, http.MethodGet, "/api/admin/runs/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/admin/models", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "20250101_000000.000_abcd1234", decode(t, rec)["serving"])

	rec = s.do(t, http.MethodPost, "/api/admin/models/prune", map[string]interface{}{"dry_run": true})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decode(t, rec)["dry_run"])

	// the store directory is empty
	rec = s.do(t, http.MethodPost, "/api/admin/models/reload", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRateLimitedPredict(t *testing.T) {
	s := setupServer(t, constantArtifact(t, 40_000_000), ratelimit.NewRateLimiter(1, 0, 0, true))

	rec := s.do(t, http.MethodPost, "/api/predict", validInput())
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/predict", validInput())
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	rec = s.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "mansion_rate_limited_requests_total 1")
	assert.Contains(t, rec.Body.String(), `mansion_predictions_total{outcome="ok"} 1`)
}

package handlers

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/shownfy/kansai-mansion-analytics/internal/metrics"
	"github.com/shownfy/kansai-mansion-analytics/internal/predict"
	"github.com/shownfy/kansai-mansion-analytics/internal/ratelimit"
)

// RouterConfig collects the handlers and middleware of the API
type RouterConfig struct {
	Engine         *predict.Engine
	Predict        *PredictHandler
	Master         *MasterHandler
	Admin          *AdminHandler
	Limiter        *ratelimit.RateLimiter
	Metrics        *metrics.Metrics
	AllowedOrigins []string
	LogRequests    bool
}

// NewRouter wires every route
func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.LogRequests {
		r.Use(gin.Logger())
	}

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:8501"}
	}

	// CORS configuration
	r.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST"},
		AllowHeaders:     []string{"Origin", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", healthCheck(cfg.Engine))
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	limit := func(c *gin.Context) { c.Next() }
	if cfg.Limiter != nil {
		var onReject func()
		if cfg.Metrics != nil {
			onReject = cfg.Metrics.RateLimited.Inc
		}
		limit = cfg.Limiter.Middleware(onReject)
		r.GET("/api/ratelimit/stats", func(c *gin.Context) {
			c.JSON(http.StatusOK, cfg.Limiter.GetStats(c.ClientIP()))
		})
	}

	api := r.Group("/api")
	api.POST("/predict", limit, cfg.Predict.Predict)
	api.POST("/predict/projection", limit, cfg.Predict.Project)
	api.GET("/model", cfg.Predict.GetModel)

	master := api.Group("/master")
	master.GET("/prefectures", cfg.Master.GetPrefectures)
	master.GET("/stations/:name", cfg.Master.GetStation)
	master.GET("/municipalities", cfg.Master.GetMunicipalities)
	master.GET("/resolve", cfg.Master.Resolve)
	master.GET("/search", cfg.Master.Search)

	if cfg.Admin != nil {
		admin := api.Group("/admin")
		admin.GET("/runs", cfg.Admin.GetRuns)
		admin.GET("/runs/:id", cfg.Admin.GetRun)
		admin.POST("/rebuild", cfg.Admin.TriggerRebuild)
		admin.GET("/rebuild/status", cfg.Admin.GetRebuildStatus)
		admin.GET("/models", cfg.Admin.GetModels)
		admin.POST("/models/reload", cfg.Admin.ReloadModel)
		admin.POST("/models/prune", cfg.Admin.PruneModels)
	}

	return r
}

func healthCheck(engine *predict.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		resp := gin.H{"status": "ok", "model_loaded": false}
		if art := engine.Artifact(); art != nil {
			resp["model_loaded"] = true
			resp["model_version"] = art.Version
		}
		c.JSON(http.StatusOK, resp)
	}
}

package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/shownfy/kansai-mansion-analytics/internal/config"
	"github.com/shownfy/kansai-mansion-analytics/internal/features"
	"github.com/shownfy/kansai-mansion-analytics/internal/masterdata"
	"github.com/shownfy/kansai-mansion-analytics/internal/predict"
	"github.com/shownfy/kansai-mansion-analytics/internal/search"
	"github.com/shownfy/kansai-mansion-analytics/internal/warehouse"
)

// MasterHandler exposes the master data tables
type MasterHandler struct {
	engine   *predict.Engine
	region   config.Region
	searcher search.Searcher
	wh       *warehouse.Warehouse
}

// NewMasterHandler creates a new master data handler. wh may be nil.
func NewMasterHandler(engine *predict.Engine, region config.Region, searcher search.Searcher, wh *warehouse.Warehouse) *MasterHandler {
	return &MasterHandler{
		engine:   engine,
		region:   region,
		searcher: searcher,
		wh:       wh,
	}
}

func (h *MasterHandler) tables() *masterdata.Tables {
	return h.engine.Reconstructor().Tables()
}

// GetPrefectures lists the supported prefectures
func (h *MasterHandler) GetPrefectures(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"prefectures": h.region.Prefectures()})
}

// GetStation returns the features of one station
func (h *MasterHandler) GetStation(c *gin.Context) {
	stats, ok := h.tables().Stations.Lookup(c.Param("name"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "station not found"})
		return
	}
	resp := gin.H{"station": stats}
	if coord, ok := h.tables().Stations.Coordinate(stats.Name); ok {
		resp["coordinate"] = coord
	}
	c.JSON(http.StatusOK, resp)
}

// GetMunicipalities returns warehouse statistics per municipality
func (h *MasterHandler) GetMunicipalities(c *gin.Context) {
	if h.wh == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "warehouse not available"})
		return
	}
	stats, err := h.wh.MunicipalityStats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"municipalities": stats,
		"count":          len(stats),
	})
}

// Resolve shows how an address is resolved without predicting
func (h *MasterHandler) Resolve(c *gin.Context) {
	address := c.Query("address")
	pref, err := features.ResolvePrefecture(h.region, address)
	if err != nil {
		writeError(c, err)
		return
	}

	tables := h.tables()
	resp := gin.H{"prefecture": pref}
	municipality := ""
	if name, ok := tables.MunicipalityFromAddress(pref.Name, address); ok {
		municipality = name
		resp["municipality"] = name
		if price, ok := tables.Municipalities.Lookup(pref.Name, name); ok {
			resp["avg_price_per_sqm"] = price
		}
		if risk, ok := tables.Hazards.Lookup(pref.Name, name); ok {
			resp["hazard"] = risk
			resp["hazard_discount_factor"] = masterdata.DiscountFactor(risk.Total)
		}
	}
	if station, ok := tables.Stations.FromAddress(features.AddressRemainder(address, pref, municipality), address); ok {
		resp["station"] = station
	}
	c.JSON(http.StatusOK, resp)
}

// Search finds stations and municipalities by name
func (h *MasterHandler) Search(c *gin.Context) {
	limit, _ := strconv.ParseInt(c.DefaultQuery("limit", "20"), 10, 64)
	kind := search.PlaceKind(c.Query("kind"))
	if kind != "" && kind != search.KindStation && kind != search.KindMunicipality {
		c.JSON(http.StatusBadRequest, gin.H{"error": "kind must be station or municipality"})
		return
	}

	hits, err := h.searcher.Search(c.Query("q"), kind, limit)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"hits":  hits,
		"count": len(hits),
	})
}

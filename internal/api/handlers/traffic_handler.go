package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/netsentinel/console/backend/internal/models"
	"github.com/netsentinel/console/backend/internal/services"
)

type TrafficHandler struct {
	db     *gorm.DB
	ingest *services.IngestService
}

func NewTrafficHandler(db *gorm.DB, ingest *services.IngestService) *TrafficHandler {
	return &TrafficHandler{db: db, ingest: ingest}
}

// List returns recent traffic samples, newest first.
func (h *TrafficHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	query := h.db.Order("timestamp desc").Limit(limit).Offset(offset)
	if state := c.Query("state"); state != "" {
		parsed, err := models.ParseTrafficState(state)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		query = query.Where("traffic_state = ?", parsed)
	}

	var samples []models.TrafficSample
	if err := query.Find(&samples).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, samples)
}

// Get returns a single traffic sample by id.
func (h *TrafficHandler) Get(c *gin.Context) {
	var sample models.TrafficSample
	if err := h.db.First(&sample, "id = ?", c.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "sample not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, sample)
}

// Ingest runs the direct ingestion pipeline on the posted sample.
func (h *TrafficHandler) Ingest(c *gin.Context) {
	var req services.IngestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "kind": "validation_error"})
		return
	}

	result, err := h.ingest.Ingest(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

// Analyze always consults the classifier gateway and applies the stricter
// analysis policy.
func (h *TrafficHandler) Analyze(c *gin.Context) {
	var req services.IngestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "kind": "validation_error"})
		return
	}

	result, err := h.ingest.Analyze(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

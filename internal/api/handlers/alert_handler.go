package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/netsentinel/console/backend/internal/api/middleware"
	"github.com/netsentinel/console/backend/internal/models"
	"github.com/netsentinel/console/backend/internal/services"
)

type AlertHandler struct {
	alerts *services.AlertService
}

func NewAlertHandler(alerts *services.AlertService) *AlertHandler {
	return &AlertHandler{alerts: alerts}
}

func (h *AlertHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	alerts, err := h.alerts.List(models.AlertStatus(c.Query("status")), limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, alerts)
}

func (h *AlertHandler) Get(c *gin.Context) {
	alert, err := h.alerts.Get(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, alert)
}

type AssignAlertRequest struct {
	UserID uint `json:"user_id" binding:"required"`
}

func (h *AlertHandler) Assign(c *gin.Context) {
	var req AssignAlertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	alert, err := h.alerts.Assign(c.Param("id"), req.UserID, middleware.ActorEmail(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, alert)
}

type ResolveAlertRequest struct {
	Status string `json:"status" binding:"required"` // "resolved" or "false_positive"
	Notes  string `json:"notes"`
}

func (h *AlertHandler) Resolve(c *gin.Context) {
	var req ResolveAlertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	alert, err := h.alerts.Resolve(c.Param("id"), models.AlertStatus(req.Status), req.Notes, middleware.ActorEmail(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, alert)
}

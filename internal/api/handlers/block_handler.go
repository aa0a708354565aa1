package handlers

import (
	"net"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/netsentinel/console/backend/internal/api/middleware"
	"github.com/netsentinel/console/backend/internal/models"
	"github.com/netsentinel/console/backend/internal/services"
)

type BlockHandler struct {
	blocks *services.BlockService
}

func NewBlockHandler(blocks *services.BlockService) *BlockHandler {
	return &BlockHandler{blocks: blocks}
}

func (h *BlockHandler) ListActive(c *gin.Context) {
	blocks, err := h.blocks.ListActive()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, blocks)
}

type CreateBlockRequest struct {
	IPAddress string `json:"ip_address" binding:"required"`
	Reason    string `json:"reason" binding:"required"`
	BlockType string `json:"block_type"` // "temporary" (default) or "permanent"
}

func (h *BlockHandler) Create(c *gin.Context) {
	var req CreateBlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if net.ParseIP(req.IPAddress) == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid IP address"})
		return
	}

	blockType := models.BlockTypeTemporary
	if req.BlockType == string(models.BlockTypePermanent) {
		blockType = models.BlockTypePermanent
	}

	block, created, err := h.blocks.Block(req.IPAddress, req.Reason, middleware.ActorEmail(c), blockType)
	if err != nil {
		respondError(c, err)
		return
	}

	status := http.StatusCreated
	if !created {
		status = http.StatusOK // already blocked
	}
	c.JSON(status, block)
}

func (h *BlockHandler) Unblock(c *gin.Context) {
	if err := h.blocks.Unblock(c.Param("id"), middleware.ActorEmail(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "block lifted"})
}

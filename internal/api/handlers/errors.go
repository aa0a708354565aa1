package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/netsentinel/console/backend/internal/services"
)

// respondError maps a service error onto an HTTP status and a body carrying
// the distinct error kind.
func respondError(c *gin.Context, err error) {
	kind := services.KindOf(err)

	status := http.StatusInternalServerError
	switch kind {
	case services.KindValidation:
		status = http.StatusBadRequest
	case services.KindGateway:
		status = http.StatusBadGateway
	case services.KindNotFound:
		status = http.StatusNotFound
	case services.KindConflict:
		status = http.StatusConflict
	}

	c.JSON(status, gin.H{"error": err.Error(), "kind": string(kind)})
}

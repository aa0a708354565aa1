package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/netsentinel/console/backend/internal/models"
)

// Capability is one thing a caller may do. Routes declare the capability
// they need; the table below is the single place roles are interpreted.
type Capability string

const (
	CapRead         Capability = "read"          // view traffic, alerts, blocks, dashboard
	CapIngest       Capability = "ingest"        // submit traffic samples
	CapRespond      Capability = "respond"       // assign/resolve alerts
	CapManageBlocks Capability = "manage_blocks" // manual block/unblock
	CapManageUsers  Capability = "manage_users"  // role changes, user admin
)

var capabilities = map[models.Role]map[Capability]struct{}{
	models.RoleViewer: {
		CapRead: {},
	},
	models.RoleAnalyst: {
		CapRead:    {},
		CapIngest:  {},
		CapRespond: {},
	},
	models.RoleAdmin: {
		CapRead:         {},
		CapIngest:       {},
		CapRespond:      {},
		CapManageBlocks: {},
		CapManageUsers:  {},
	},
}

// RoleHasCapability consults the capability table.
func RoleHasCapability(role models.Role, cap Capability) bool {
	caps, ok := capabilities[role]
	if !ok {
		return false
	}
	_, ok = caps[cap]
	return ok
}

// RequireCapability aborts with 403 unless the authenticated caller's role
// grants the capability. Must run after AuthRequired.
func RequireCapability(cap Capability) gin.HandlerFunc {
	return func(c *gin.Context) {
		v, ok := c.Get(RoleKey)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		role, ok := v.(models.Role)
		if !ok || !RoleHasCapability(role, cap) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "insufficient permissions"})
			return
		}
		c.Next()
	}
}

package services

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/netsentinel/console/backend/internal/models"
)

// setupTestDB creates a SQLite in-memory DB unique per test and applies a
// busy timeout to reduce locking during concurrent writes.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsnName := strings.ReplaceAll(t.Name(), "/", "_")
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_busy_timeout=5000", dsnName)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.TrafficSample{},
		&models.Alert{},
		&models.BlockedIP{},
		&models.User{},
		&models.AuditLog{},
	))
	return db
}

package persistence

import (
	"testing"

	"github.com/hms/pharmacy/internal/domain/billing"
	"github.com/hms/pharmacy/internal/domain/catalog"
	"github.com/hms/pharmacy/internal/domain/inventory"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupTestDB creates an in-memory SQLite database with the full schema
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&catalog.Medicine{},
		&inventory.Batch{},
		&inventory.StockItem{},
		&inventory.StockTransaction{},
		&inventory.Alert{},
		&billing.Sale{},
		&billing.LineItem{},
		&billing.Payment{},
	)
	require.NoError(t, err)

	return db
}

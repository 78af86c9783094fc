package persistence

import (
	"testing"

	"github.com/fieldbook/backend/internal/domain/document"
	"github.com/fieldbook/backend/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.ClientModel{},
		&models.ContractorProfileModel{},
		&models.ProjectModel{},
		&models.EstimateModel{},
		&models.InvoiceModel{},
		&models.ChangeOrderModel{},
		&models.AttachmentModel{},
	))
	return db
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func testItem(t *testing.T, description, qty, price string) document.LineItem {
	t.Helper()
	item, err := document.NewLineItem(document.LineItemSpec{
		Description: description,
		Quantity:    dec(qty),
		Unit:        "ea",
		UnitPrice:   dec(price),
		Category:    document.CategoryMaterials,
	})
	require.NoError(t, err)
	return item
}

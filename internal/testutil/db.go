// Package testutil provides shared helpers for database-backed tests.
package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/neemfurnitech/procurement-api/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var dbCounter int64

// SetupTestDB opens an isolated in-memory SQLite database and migrates the
// full schema. Each call gets its own database, so tests stay independent.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	// Shared cache keeps the database alive across the pooled connections;
	// MaxOpenConns(1) serializes access because SQLite has no row locking.
	dsn := fmt.Sprintf("file:test_%d?mode=memory&cache=shared", atomic.AddInt64(&dbCounter, 1))

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err, "failed to open test database")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&domain.PurchaseOrder{},
		&domain.PurchaseOrderItem{},
		&domain.Invoice{},
		&domain.FinanceNotification{},
		&domain.AuditTrailEntry{},
		&domain.NumberSequence{},
	))

	return db
}

// CreateTestOrder inserts a purchase order with a single line item and
// returns it with items preloaded.
func CreateTestOrder(t *testing.T, db *gorm.DB, poNumber string, status domain.PurchaseOrderStatus) *domain.PurchaseOrder {
	t.Helper()

	unitPrice := decimal.NewFromFloat(125.00)
	po := &domain.PurchaseOrder{
		PONumber:    poNumber,
		VendorName:  "Acme Steel",
		VendorEmail: "sales@acmesteel.example",
		VendorPhone: "9876543210",
		Description: "Workshop restock",
		Status:      status,
		TotalAmount: decimal.NewFromFloat(250.00),
		CreatedByID: "test-user",
		Items: []domain.PurchaseOrderItem{
			{
				ProductName: "Steel brackets",
				Quantity:    2,
				UnitPrice:   unitPrice,
				TotalPrice:  domain.LineTotal(2, unitPrice),
			},
		},
	}
	require.NoError(t, db.Create(po).Error)
	return po
}

package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/neemfurnitech/procurement-api/internal/domain"
	"github.com/neemfurnitech/procurement-api/internal/repository"
	"github.com/neemfurnitech/procurement-api/internal/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestUpdateStatusIfCurrent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewPurchaseOrderRepository(db)
	ctx := context.Background()

	po := testutil.CreateTestOrder(t, db, "PO-2026-000001", domain.POStatusSubmitted)

	won, err := repo.UpdateStatusIfCurrent(ctx, po.ID, domain.POStatusSubmitted, domain.POStatusApproved, map[string]interface{}{
		"approval_notes": "fine",
		"updated_at":     time.Now(),
	})
	require.NoError(t, err)
	assert.True(t, won)

	reloaded, err := repo.GetByID(ctx, po.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.POStatusApproved, reloaded.Status)
	assert.Equal(t, "fine", reloaded.ApprovalNotes)

	// A second caller holding the stale expected status loses.
	won, err = repo.UpdateStatusIfCurrent(ctx, po.ID, domain.POStatusSubmitted, domain.POStatusRejected, nil)
	require.NoError(t, err)
	assert.False(t, won)

	reloaded, err = repo.GetByID(ctx, po.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.POStatusApproved, reloaded.Status, "losing write must not apply")
}

func TestUpdateStatusIfCurrentUnknownOrder(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewPurchaseOrderRepository(db)

	won, err := repo.UpdateStatusIfCurrent(context.Background(), uuid.New(), domain.POStatusDraft, domain.POStatusSubmitted, nil)
	require.NoError(t, err)
	assert.False(t, won)
}

func TestDeleteRemovesItems(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewPurchaseOrderRepository(db)
	ctx := context.Background()

	po := testutil.CreateTestOrder(t, db, "PO-2026-000002", domain.POStatusDraft)
	require.NoError(t, repo.Delete(ctx, po.ID))

	var itemCount int64
	require.NoError(t, db.Model(&domain.PurchaseOrderItem{}).
		Where("purchase_order_id = ?", po.ID).Count(&itemCount).Error)
	assert.Zero(t, itemCount)
}

func TestListOrdersNewestFirst(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewPurchaseOrderRepository(db)
	ctx := context.Background()

	older := testutil.CreateTestOrder(t, db, "PO-2026-000003", domain.POStatusDraft)
	require.NoError(t, db.Model(older).Update("created_at", time.Now().Add(-time.Hour)).Error)
	newer := testutil.CreateTestOrder(t, db, "PO-2026-000004", domain.POStatusDraft)

	orders, total, err := repo.List(ctx, domain.PurchaseOrderFilter{Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, orders, 2)
	assert.Equal(t, newer.ID, orders[0].ID)
	assert.Equal(t, older.ID, orders[1].ID)
}

func TestInvoiceUniquePerOrder(t *testing.T) {
	db := testutil.SetupTestDB(t)
	invoiceRepo := repository.NewInvoiceRepository(db)
	ctx := context.Background()

	po := testutil.CreateTestOrder(t, db, "PO-2026-000005", domain.POStatusApproved)

	first := &domain.Invoice{
		InvoiceNumber:   "INV-000005-AAAAAAAA",
		PurchaseOrderID: po.ID,
		TotalAmount:     decimal.NewFromFloat(250.00),
		Status:          domain.InvoiceStatusPending,
		GeneratedAt:     time.Now(),
	}
	require.NoError(t, invoiceRepo.Create(ctx, first))

	second := &domain.Invoice{
		InvoiceNumber:   "INV-000005-BBBBBBBB",
		PurchaseOrderID: po.ID,
		TotalAmount:     decimal.NewFromFloat(250.00),
		Status:          domain.InvoiceStatusPending,
		GeneratedAt:     time.Now(),
	}
	assert.Error(t, invoiceRepo.Create(ctx, second), "unique index must reject a second invoice")
}

func TestListOrdersMissingInvoice(t *testing.T) {
	db := testutil.SetupTestDB(t)
	invoiceRepo := repository.NewInvoiceRepository(db)
	ctx := context.Background()

	stranded := testutil.CreateTestOrder(t, db, "PO-2026-000006", domain.POStatusApproved)
	invoiced := testutil.CreateTestOrder(t, db, "PO-2026-000007", domain.POStatusApproved)
	testutil.CreateTestOrder(t, db, "PO-2026-000008", domain.POStatusSubmitted)

	require.NoError(t, invoiceRepo.Create(ctx, &domain.Invoice{
		InvoiceNumber:   "INV-000007-CCCCCCCC",
		PurchaseOrderID: invoiced.ID,
		TotalAmount:     decimal.NewFromFloat(250.00),
		Status:          domain.InvoiceStatusPending,
		GeneratedAt:     time.Now(),
	}))

	orders, err := invoiceRepo.ListOrdersMissingInvoice(ctx, 50)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, stranded.ID, orders[0].ID)
	assert.NotEmpty(t, orders[0].Items, "items must be preloaded for snapshotting")
}

func TestNumberSequenceGetNext(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewNumberSequenceRepository(db)
	ctx := context.Background()

	first, err := repo.GetNextNumber(ctx, 2026)
	require.NoError(t, err)
	assert.Equal(t, 1, first)

	second, err := repo.GetNextNumber(ctx, 2026)
	require.NoError(t, err)
	assert.Equal(t, 2, second)

	// Years advance independently.
	other, err := repo.GetNextNumber(ctx, 2027)
	require.NoError(t, err)
	assert.Equal(t, 1, other)
}

func TestNumberSequenceFirstCreateSurvivesInsertRace(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewNumberSequenceRepository(db)
	ctx := context.Background()

	// Sneak a row for the year in just before the first-create INSERT runs,
	// the way a concurrent caller would. The INSERT then violates the unique
	// index on year and the increment must be retried, not surfaced.
	injected := false
	require.NoError(t, db.Callback().Create().Before("gorm:create").Register("sequence_insert_race", func(tx *gorm.DB) {
		if injected || tx.Statement.Schema == nil || tx.Statement.Schema.Table != "number_sequences" {
			return
		}
		injected = true
		tx.AddError(tx.Session(&gorm.Session{NewDB: true}).Exec(
			"INSERT INTO number_sequences (id, year, last_sequence, created_at, updated_at) VALUES (?, ?, ?, ?, ?)",
			uuid.New().String(), 2031, 1, time.Now(), time.Now(),
		).Error)
	}))
	t.Cleanup(func() { _ = db.Callback().Create().Remove("sequence_insert_race") })

	n, err := repo.GetNextNumber(ctx, 2031)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.True(t, injected, "the racing insert must have fired")

	next, err := repo.GetNextNumber(ctx, 2031)
	require.NoError(t, err)
	assert.Equal(t, 2, next)
}

func TestAuditTrailListByEntity(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewAuditTrailRepository(db)
	ctx := context.Background()

	entityID := uuid.New()
	for _, action := range []domain.AuditAction{domain.AuditActionApproved, domain.AuditActionInvoiced} {
		require.NoError(t, repo.Create(ctx, &domain.AuditTrailEntry{
			EntityType: domain.EntityTypePurchaseOrder,
			EntityID:   entityID,
			Action:     action,
			Changes:    "null",
		}))
	}
	require.NoError(t, repo.Create(ctx, &domain.AuditTrailEntry{
		EntityType: domain.EntityTypePurchaseOrder,
		EntityID:   uuid.New(),
		Action:     domain.AuditActionRejected,
		Changes:    "null",
	}))

	entries, err := repo.ListByEntity(ctx, domain.EntityTypePurchaseOrder, entityID, 10)
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	count, err := repo.CountByEntity(ctx, domain.EntityTypePurchaseOrder, entityID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)
}

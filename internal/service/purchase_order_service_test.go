package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/neemfurnitech/procurement-api/internal/auth"
	"github.com/neemfurnitech/procurement-api/internal/domain"
	"github.com/neemfurnitech/procurement-api/internal/repository"
	"github.com/neemfurnitech/procurement-api/internal/service"
	"github.com/neemfurnitech/procurement-api/internal/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type testEnv struct {
	db             *gorm.DB
	poService      *service.PurchaseOrderService
	invoiceService *service.InvoiceService
	auditService   *service.AuditTrailService
	financeService *service.FinanceNotificationService
}

func setupEnv(t *testing.T) *testEnv {
	t.Helper()

	db := testutil.SetupTestDB(t)
	log := zap.NewNop()

	poRepo := repository.NewPurchaseOrderRepository(db)
	invoiceRepo := repository.NewInvoiceRepository(db)
	notificationRepo := repository.NewFinanceNotificationRepository(db)
	auditRepo := repository.NewAuditTrailRepository(db)
	seqRepo := repository.NewNumberSequenceRepository(db)

	numberService := service.NewNumberService(seqRepo, log)
	auditService := service.NewAuditTrailService(auditRepo, log)
	financeService := service.NewFinanceNotificationService(notificationRepo, "finance@neemfurnitech.com", log)
	poService := service.NewPurchaseOrderService(poRepo, invoiceRepo, auditService, financeService, numberService, log, db)
	invoiceService := service.NewInvoiceService(invoiceRepo, poService, log)

	return &testEnv{
		db:             db,
		poService:      poService,
		invoiceService: invoiceService,
		auditService:   auditService,
		financeService: financeService,
	}
}

func approverContext() context.Context {
	return auth.WithUserContext(context.Background(), &auth.UserContext{
		UserID:      uuid.New(),
		DisplayName: "Priya Nair",
		Email:       "priya@neemfurnitech.com",
		Roles:       []domain.UserRoleType{domain.RoleApprover},
	})
}

func createRequest() *domain.CreatePurchaseOrderRequest {
	return &domain.CreatePurchaseOrderRequest{
		VendorName:  "Acme Steel",
		VendorEmail: "sales@acmesteel.example",
		VendorPhone: "9876543210",
		Description: "Frame materials",
		Items: []domain.CreatePurchaseOrderItemRequest{
			{ProductName: "Steel brackets", Quantity: 2, UnitPrice: decimal.NewFromFloat(125.00)},
		},
	}
}

func TestCreatePurchaseOrder(t *testing.T) {
	env := setupEnv(t)
	ctx := approverContext()

	po, err := env.poService.Create(ctx, createRequest())
	require.NoError(t, err)

	assert.Equal(t, domain.POStatusDraft, po.Status)
	assert.Regexp(t, `^PO-\d{4}-\d{6}$`, po.PONumber)
	assert.True(t, po.TotalAmount.Equal(decimal.NewFromFloat(250.00)),
		"expected 250.00, got %s", po.TotalAmount)
	require.Len(t, po.Items, 1)
	assert.True(t, po.Items[0].TotalPrice.Equal(decimal.NewFromFloat(250.00)))
	assert.Equal(t, "Priya Nair", po.CreatedByName)
	assert.Nil(t, po.Invoice)
}

func TestCreatePurchaseOrderSequentialNumbers(t *testing.T) {
	env := setupEnv(t)
	ctx := approverContext()

	first, err := env.poService.Create(ctx, createRequest())
	require.NoError(t, err)
	second, err := env.poService.Create(ctx, createRequest())
	require.NoError(t, err)

	assert.NotEqual(t, first.PONumber, second.PONumber)
}

func TestCreatePurchaseOrderRejectsBadItems(t *testing.T) {
	env := setupEnv(t)
	ctx := approverContext()

	req := createRequest()
	req.Items = nil
	_, err := env.poService.Create(ctx, req)
	assert.ErrorIs(t, err, service.ErrInvalidInput)

	req = createRequest()
	req.Items[0].Quantity = 0
	_, err = env.poService.Create(ctx, req)
	assert.ErrorIs(t, err, service.ErrInvalidInput)

	req = createRequest()
	req.Items[0].UnitPrice = decimal.NewFromFloat(-1)
	_, err = env.poService.Create(ctx, req)
	assert.ErrorIs(t, err, service.ErrInvalidInput)
}

func TestUpdateReplacesItems(t *testing.T) {
	env := setupEnv(t)
	ctx := approverContext()

	po, err := env.poService.Create(ctx, createRequest())
	require.NoError(t, err)

	updated, err := env.poService.Update(ctx, po.ID, &domain.UpdatePurchaseOrderRequest{
		VendorName:  "Acme Steel",
		VendorEmail: "sales@acmesteel.example",
		Description: "Revised order",
		Items: []domain.CreatePurchaseOrderItemRequest{
			{ProductName: "Oak panels", Quantity: 3, UnitPrice: decimal.NewFromFloat(40.00)},
			{ProductName: "Wood glue", Quantity: 1, UnitPrice: decimal.NewFromFloat(9.50)},
		},
	})
	require.NoError(t, err)

	require.Len(t, updated.Items, 2)
	assert.True(t, updated.TotalAmount.Equal(decimal.NewFromFloat(129.50)),
		"expected 129.50, got %s", updated.TotalAmount)
	assert.Equal(t, po.PONumber, updated.PONumber, "number must not change on edit")

	// Old items are gone, not orphaned.
	var count int64
	require.NoError(t, env.db.Model(&domain.PurchaseOrderItem{}).
		Where("purchase_order_id = ?", po.ID).Count(&count).Error)
	assert.EqualValues(t, 2, count)
}

func TestUpdateRollsBackTotalWhenItemWriteFails(t *testing.T) {
	env := setupEnv(t)
	ctx := approverContext()

	po, err := env.poService.Create(ctx, createRequest())
	require.NoError(t, err)

	// Make the item delete inside the edit fail so the order save and the
	// item replacement cannot both land. The recomputed total must not
	// survive on its own.
	require.NoError(t, env.db.Callback().Delete().Before("gorm:delete").Register("fail_item_delete", func(tx *gorm.DB) {
		if tx.Statement.Schema != nil && tx.Statement.Schema.Table == "purchase_order_items" {
			tx.AddError(errors.New("disk I/O error"))
		}
	}))

	_, err = env.poService.Update(ctx, po.ID, &domain.UpdatePurchaseOrderRequest{
		VendorName:  "Acme Steel",
		VendorEmail: "sales@acmesteel.example",
		Items: []domain.CreatePurchaseOrderItemRequest{
			{ProductName: "Oak panels", Quantity: 10, UnitPrice: decimal.NewFromFloat(99.99)},
		},
	})
	require.Error(t, err)
	require.NoError(t, env.db.Callback().Delete().Remove("fail_item_delete"))

	// The stored order still matches its stored items.
	after, err := env.poService.GetByID(ctx, po.ID)
	require.NoError(t, err)
	assert.True(t, after.TotalAmount.Equal(decimal.NewFromFloat(250.00)),
		"expected 250.00, got %s", after.TotalAmount)
	require.Len(t, after.Items, 1)

	itemSum := decimal.Zero
	for _, item := range after.Items {
		itemSum = itemSum.Add(item.TotalPrice)
	}
	assert.True(t, after.TotalAmount.Equal(itemSum),
		"total %s must equal item sum %s", after.TotalAmount, itemSum)
}

func TestUpdateRefusedAfterDraft(t *testing.T) {
	env := setupEnv(t)
	ctx := approverContext()

	po, err := env.poService.Create(ctx, createRequest())
	require.NoError(t, err)
	_, err = env.poService.Submit(ctx, po.ID)
	require.NoError(t, err)

	_, err = env.poService.Update(ctx, po.ID, &domain.UpdatePurchaseOrderRequest{
		VendorName:  "Acme Steel",
		VendorEmail: "sales@acmesteel.example",
		Items: []domain.CreatePurchaseOrderItemRequest{
			{ProductName: "Steel brackets", Quantity: 1, UnitPrice: decimal.NewFromFloat(125.00)},
		},
	})
	assert.ErrorIs(t, err, service.ErrNotDraft)
}

func TestDeleteDraftOrder(t *testing.T) {
	env := setupEnv(t)
	ctx := approverContext()

	po, err := env.poService.Create(ctx, createRequest())
	require.NoError(t, err)

	require.NoError(t, env.poService.Delete(ctx, po.ID))

	_, err = env.poService.GetByID(ctx, po.ID)
	assert.ErrorIs(t, err, service.ErrNotFound)

	var count int64
	require.NoError(t, env.db.Model(&domain.PurchaseOrderItem{}).
		Where("purchase_order_id = ?", po.ID).Count(&count).Error)
	assert.Zero(t, count, "items must be removed with the order")
}

func TestDeleteRefusedAfterDraft(t *testing.T) {
	env := setupEnv(t)
	ctx := approverContext()

	po, err := env.poService.Create(ctx, createRequest())
	require.NoError(t, err)
	_, err = env.poService.Submit(ctx, po.ID)
	require.NoError(t, err)

	err = env.poService.Delete(ctx, po.ID)
	assert.ErrorIs(t, err, service.ErrNotDraft)
}

func TestDeleteRefusedWithAuditHistory(t *testing.T) {
	env := setupEnv(t)
	ctx := approverContext()

	po, err := env.poService.Create(ctx, createRequest())
	require.NoError(t, err)

	// A draft with recorded history stays for the record.
	require.NoError(t, env.auditService.Record(ctx, domain.EntityTypePurchaseOrder, po.ID,
		domain.AuditActionApproved, nil))

	err = env.poService.Delete(ctx, po.ID)
	assert.ErrorIs(t, err, service.ErrHasAuditHistory)
}

func TestListFiltersByStatusAndVendor(t *testing.T) {
	env := setupEnv(t)
	ctx := approverContext()

	draft, err := env.poService.Create(ctx, createRequest())
	require.NoError(t, err)

	other := createRequest()
	other.VendorName = "Bharat Timber"
	submitted, err := env.poService.Create(ctx, other)
	require.NoError(t, err)
	_, err = env.poService.Submit(ctx, submitted.ID)
	require.NoError(t, err)

	result, err := env.poService.List(ctx, domain.PurchaseOrderFilter{Status: domain.POStatusDraft})
	require.NoError(t, err)
	require.EqualValues(t, 1, result.Total)
	orders := result.Data.([]domain.PurchaseOrderDTO)
	assert.Equal(t, draft.ID, orders[0].ID)

	result, err = env.poService.List(ctx, domain.PurchaseOrderFilter{VendorName: "timber"})
	require.NoError(t, err)
	require.EqualValues(t, 1, result.Total)
	orders = result.Data.([]domain.PurchaseOrderDTO)
	assert.Equal(t, submitted.ID, orders[0].ID)
}

func TestListRejectsUnknownStatus(t *testing.T) {
	env := setupEnv(t)

	_, err := env.poService.List(context.Background(), domain.PurchaseOrderFilter{Status: "shipped"})
	assert.ErrorIs(t, err, service.ErrInvalidInput)
}

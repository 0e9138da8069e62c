package service_test

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/neemfurnitech/procurement-api/internal/domain"
	"github.com/neemfurnitech/procurement-api/internal/service"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmitDraftOrder(t *testing.T) {
	env := setupEnv(t)
	ctx := approverContext()

	po, err := env.poService.Create(ctx, createRequest())
	require.NoError(t, err)

	submitted, err := env.poService.Submit(ctx, po.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.POStatusSubmitted, submitted.Status)

	// Submitting again is a conflict, not a no-op.
	_, err = env.poService.Submit(ctx, po.ID)
	assert.ErrorIs(t, err, service.ErrInvalidState)
}

func TestApproveGeneratesInvoice(t *testing.T) {
	env := setupEnv(t)
	ctx := approverContext()

	po, err := env.poService.Create(ctx, createRequest())
	require.NoError(t, err)
	_, err = env.poService.Submit(ctx, po.ID)
	require.NoError(t, err)

	approved, err := env.poService.Approve(ctx, po.ID, "within budget")
	require.NoError(t, err)

	assert.Equal(t, domain.POStatusInvoiced, approved.Status)
	require.NotNil(t, approved.ApprovedAt)
	assert.Equal(t, "within budget", approved.ApprovalNotes)
	require.NotNil(t, approved.Invoice)
	assert.Equal(t, domain.InvoiceStatusPending, approved.Invoice.Status)
	assert.Regexp(t, `^INV-\d{6}-[0-9A-F]{8}$`, approved.Invoice.InvoiceNumber)
	assert.True(t, approved.Invoice.TotalAmount.Equal(decimal.NewFromFloat(250.00)))
}

func TestApproveSnapshotsOrderData(t *testing.T) {
	env := setupEnv(t)
	ctx := approverContext()

	po, err := env.poService.Create(ctx, createRequest())
	require.NoError(t, err)
	_, err = env.poService.Submit(ctx, po.ID)
	require.NoError(t, err)
	approved, err := env.poService.Approve(ctx, po.ID, "")
	require.NoError(t, err)

	var snapshot domain.InvoiceSnapshot
	require.NoError(t, json.Unmarshal([]byte(approved.Invoice.InvoiceData), &snapshot))

	assert.Equal(t, po.PONumber, snapshot.PONumber)
	assert.Equal(t, "Acme Steel", snapshot.VendorName)
	assert.Equal(t, "sales@acmesteel.example", snapshot.VendorEmail)
	assert.Equal(t, "250", snapshot.TotalAmount.String())
	require.Len(t, snapshot.Items, 1)
	assert.Equal(t, "Steel brackets", snapshot.Items[0].ProductName)
	assert.Equal(t, 2, snapshot.Items[0].Quantity)
	assert.NotEmpty(t, snapshot.GeneratedAt)
}

func TestApproveRecordsAuditEntries(t *testing.T) {
	env := setupEnv(t)
	ctx := approverContext()

	po, err := env.poService.Create(ctx, createRequest())
	require.NoError(t, err)
	_, err = env.poService.Submit(ctx, po.ID)
	require.NoError(t, err)
	approved, err := env.poService.Approve(ctx, po.ID, "ok")
	require.NoError(t, err)

	entries, err := env.auditService.GetByEntity(ctx, domain.EntityTypePurchaseOrder, po.ID, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	actions := map[domain.AuditAction]domain.AuditTrailEntry{}
	for _, e := range entries {
		actions[e.Action] = e
	}

	approvedEntry, ok := actions[domain.AuditActionApproved]
	require.True(t, ok)
	assert.Equal(t, "Priya Nair", approvedEntry.ChangedBy)
	var approvedChanges map[string]string
	require.NoError(t, json.Unmarshal([]byte(approvedEntry.Changes), &approvedChanges))
	assert.Equal(t, "ok", approvedChanges["approval_notes"])

	invoicedEntry, ok := actions[domain.AuditActionInvoiced]
	require.True(t, ok)
	var invoicedChanges map[string]string
	require.NoError(t, json.Unmarshal([]byte(invoicedEntry.Changes), &invoicedChanges))
	assert.Equal(t, approved.Invoice.InvoiceNumber, invoicedChanges["invoice_number"])
	assert.Equal(t, approved.Invoice.ID.String(), invoicedChanges["invoice_id"])
}

func TestApproveNotifiesFinance(t *testing.T) {
	env := setupEnv(t)
	ctx := approverContext()

	po, err := env.poService.Create(ctx, createRequest())
	require.NoError(t, err)
	_, err = env.poService.Submit(ctx, po.ID)
	require.NoError(t, err)
	approved, err := env.poService.Approve(ctx, po.ID, "")
	require.NoError(t, err)

	notifications, err := env.financeService.ListByPurchaseOrder(ctx, po.ID)
	require.NoError(t, err)
	require.Len(t, notifications, 1)

	n := notifications[0]
	assert.Equal(t, "finance@neemfurnitech.com", n.RecipientEmail)
	assert.Equal(t, domain.NotificationTypeInvoiceGenerated, n.NotificationType)
	assert.Equal(t, "Invoice Generated - PO "+po.PONumber, n.Subject)
	assert.Contains(t, n.Message, po.PONumber)
	assert.Contains(t, n.Message, "Acme Steel")
	assert.Contains(t, n.Message, "₹250.00")
	assert.Equal(t, approved.Invoice.ID, n.InvoiceID)
}

func TestApproveRequiresSubmittedStatus(t *testing.T) {
	env := setupEnv(t)
	ctx := approverContext()

	po, err := env.poService.Create(ctx, createRequest())
	require.NoError(t, err)

	_, err = env.poService.Approve(ctx, po.ID, "")
	assert.ErrorIs(t, err, service.ErrInvalidState)
}

func TestReapproveReturnsExistingInvoice(t *testing.T) {
	env := setupEnv(t)
	ctx := approverContext()

	po, err := env.poService.Create(ctx, createRequest())
	require.NoError(t, err)
	_, err = env.poService.Submit(ctx, po.ID)
	require.NoError(t, err)

	first, err := env.poService.Approve(ctx, po.ID, "first")
	require.NoError(t, err)
	require.NotNil(t, first.Invoice)

	// A second sequential approval succeeds without touching the recorded
	// approval and returns the invoice that already exists.
	second, err := env.poService.Approve(ctx, po.ID, "second")
	require.NoError(t, err)
	assert.Equal(t, domain.POStatusInvoiced, second.Status)
	assert.Equal(t, "first", second.ApprovalNotes, "the original approval stands")
	require.NotNil(t, second.Invoice)
	assert.Equal(t, first.Invoice.ID, second.Invoice.ID)
	assert.Equal(t, first.Invoice.InvoiceNumber, second.Invoice.InvoiceNumber)

	var invoiceCount int64
	require.NoError(t, env.db.Model(&domain.Invoice{}).
		Where("purchase_order_id = ?", po.ID).Count(&invoiceCount).Error)
	assert.EqualValues(t, 1, invoiceCount, "exactly one invoice per order")
}

func TestReapproveCompletesStrandedInvoicing(t *testing.T) {
	env := setupEnv(t)
	ctx := approverContext()

	po, err := env.poService.Create(ctx, createRequest())
	require.NoError(t, err)
	_, err = env.poService.Submit(ctx, po.ID)
	require.NoError(t, err)

	// An order stuck in approved without an invoice gets its invoice on the
	// next approval call, same as the dedicated retry endpoint.
	res := env.db.Model(&domain.PurchaseOrder{}).
		Where("id = ? AND status = ?", po.ID, domain.POStatusSubmitted).
		Update("status", domain.POStatusApproved)
	require.NoError(t, res.Error)
	require.EqualValues(t, 1, res.RowsAffected)

	approved, err := env.poService.Approve(ctx, po.ID, "retry")
	require.NoError(t, err)
	assert.Equal(t, domain.POStatusInvoiced, approved.Status)
	require.NotNil(t, approved.Invoice)
}

func TestConcurrentApprovalsProduceOneInvoice(t *testing.T) {
	env := setupEnv(t)
	ctx := approverContext()

	po, err := env.poService.Create(ctx, createRequest())
	require.NoError(t, err)
	_, err = env.poService.Submit(ctx, po.ID)
	require.NoError(t, err)

	// Fire two approvals at the same order at once. The conditional status
	// update lets exactly one of them record the approval; the other either
	// takes the idempotent path or observes the concurrent change.
	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = env.poService.Approve(ctx, po.ID, "race")
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
		} else {
			assert.ErrorIs(t, err, service.ErrConcurrentModification)
		}
	}
	assert.GreaterOrEqual(t, winners, 1, "at least one approval must succeed")

	var invoiceCount int64
	require.NoError(t, env.db.Model(&domain.Invoice{}).
		Where("purchase_order_id = ?", po.ID).Count(&invoiceCount).Error)
	assert.EqualValues(t, 1, invoiceCount, "exactly one invoice per order")

	order, err := env.poService.GetByID(ctx, po.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.POStatusInvoiced, order.Status)
}

func TestApproveCASLoserGetsConflict(t *testing.T) {
	env := setupEnv(t)
	ctx := approverContext()

	po, err := env.poService.Create(ctx, createRequest())
	require.NoError(t, err)
	_, err = env.poService.Submit(ctx, po.ID)
	require.NoError(t, err)

	// A conditional update against a status the row no longer has (or never
	// had) must not fire. This is the guard every transition relies on.
	res := env.db.Model(&domain.PurchaseOrder{}).
		Where("id = ? AND status = ?", po.ID, domain.POStatusApproved).
		Update("status", domain.POStatusInvoiced)
	require.NoError(t, res.Error)
	assert.EqualValues(t, 0, res.RowsAffected, "stale status guard must not match")
}

func TestRejectSubmittedOrder(t *testing.T) {
	env := setupEnv(t)
	ctx := approverContext()

	po, err := env.poService.Create(ctx, createRequest())
	require.NoError(t, err)
	_, err = env.poService.Submit(ctx, po.ID)
	require.NoError(t, err)

	rejected, err := env.poService.Reject(ctx, po.ID, "over budget")
	require.NoError(t, err)
	assert.Equal(t, domain.POStatusRejected, rejected.Status)
	assert.Equal(t, "over budget", rejected.ApprovalNotes)
	assert.Nil(t, rejected.Invoice, "rejection must never produce an invoice")

	notifications, err := env.financeService.ListByPurchaseOrder(ctx, po.ID)
	require.NoError(t, err)
	assert.Empty(t, notifications)

	entries, err := env.auditService.GetByEntity(ctx, domain.EntityTypePurchaseOrder, po.ID, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, domain.AuditActionRejected, entries[0].Action)
}

func TestRejectWithoutNotes(t *testing.T) {
	env := setupEnv(t)
	ctx := approverContext()

	po, err := env.poService.Create(ctx, createRequest())
	require.NoError(t, err)
	_, err = env.poService.Submit(ctx, po.ID)
	require.NoError(t, err)

	// Notes are optional on rejection.
	rejected, err := env.poService.Reject(ctx, po.ID, "")
	require.NoError(t, err)
	assert.Equal(t, domain.POStatusRejected, rejected.Status)
	assert.Empty(t, rejected.ApprovalNotes)
}

func TestRejectedOrderIsTerminal(t *testing.T) {
	env := setupEnv(t)
	ctx := approverContext()

	po, err := env.poService.Create(ctx, createRequest())
	require.NoError(t, err)
	_, err = env.poService.Submit(ctx, po.ID)
	require.NoError(t, err)
	_, err = env.poService.Reject(ctx, po.ID, "no")
	require.NoError(t, err)

	_, err = env.poService.Submit(ctx, po.ID)
	assert.ErrorIs(t, err, service.ErrInvalidState)
	_, err = env.poService.Approve(ctx, po.ID, "")
	assert.ErrorIs(t, err, service.ErrInvalidState)
}

func TestGenerateInvoiceIsIdempotent(t *testing.T) {
	env := setupEnv(t)
	ctx := approverContext()

	po, err := env.poService.Create(ctx, createRequest())
	require.NoError(t, err)
	_, err = env.poService.Submit(ctx, po.ID)
	require.NoError(t, err)
	approved, err := env.poService.Approve(ctx, po.ID, "")
	require.NoError(t, err)

	again, err := env.poService.GenerateInvoice(ctx, po.ID)
	require.NoError(t, err)
	assert.Equal(t, approved.Invoice.ID, again.ID)
	assert.Equal(t, approved.Invoice.InvoiceNumber, again.InvoiceNumber)

	var invoiceCount int64
	require.NoError(t, env.db.Model(&domain.Invoice{}).
		Where("purchase_order_id = ?", po.ID).Count(&invoiceCount).Error)
	assert.EqualValues(t, 1, invoiceCount)
}

func TestGenerateInvoiceRequiresApprovedStatus(t *testing.T) {
	env := setupEnv(t)
	ctx := approverContext()

	po, err := env.poService.Create(ctx, createRequest())
	require.NoError(t, err)

	_, err = env.poService.GenerateInvoice(ctx, po.ID)
	assert.ErrorIs(t, err, service.ErrInvalidState)
}

func TestGenerateInvoiceRetryAfterFailedApproval(t *testing.T) {
	env := setupEnv(t)
	ctx := approverContext()

	po, err := env.poService.Create(ctx, createRequest())
	require.NoError(t, err)
	_, err = env.poService.Submit(ctx, po.ID)
	require.NoError(t, err)

	// An order stranded in approved without an invoice is exactly what the
	// retry endpoint exists for.
	res := env.db.Model(&domain.PurchaseOrder{}).
		Where("id = ? AND status = ?", po.ID, domain.POStatusSubmitted).
		Update("status", domain.POStatusApproved)
	require.NoError(t, res.Error)
	require.EqualValues(t, 1, res.RowsAffected)

	invoice, err := env.poService.GenerateInvoice(ctx, po.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.InvoiceStatusPending, invoice.Status)

	order, err := env.poService.GetByID(ctx, po.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.POStatusInvoiced, order.Status)
}

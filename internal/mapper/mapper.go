package mapper

import (
	"github.com/neemfurnitech/procurement-api/internal/domain"
)

const timeFormat = "2006-01-02T15:04:05Z"

// ToPurchaseOrderDTO converts PurchaseOrder to PurchaseOrderDTO
func ToPurchaseOrderDTO(po *domain.PurchaseOrder) domain.PurchaseOrderDTO {
	items := make([]domain.PurchaseOrderItemDTO, len(po.Items))
	for i, item := range po.Items {
		items[i] = ToPurchaseOrderItemDTO(&item)
	}

	dto := domain.PurchaseOrderDTO{
		ID:            po.ID,
		PONumber:      po.PONumber,
		VendorName:    po.VendorName,
		VendorEmail:   po.VendorEmail,
		VendorPhone:   po.VendorPhone,
		Description:   po.Description,
		Status:        po.Status,
		TotalAmount:   po.TotalAmount,
		ApprovedByID:  po.ApprovedByID,
		ApprovalNotes: po.ApprovalNotes,
		CreatedByID:   po.CreatedByID,
		CreatedByName: po.CreatedByName,
		Items:         items,
		CreatedAt:     po.CreatedAt.Format(timeFormat),
		UpdatedAt:     po.UpdatedAt.Format(timeFormat),
	}

	if po.ApprovedAt != nil {
		approvedAt := po.ApprovedAt.Format(timeFormat)
		dto.ApprovedAt = &approvedAt
	}

	return dto
}

// ToPurchaseOrderItemDTO converts PurchaseOrderItem to PurchaseOrderItemDTO
func ToPurchaseOrderItemDTO(item *domain.PurchaseOrderItem) domain.PurchaseOrderItemDTO {
	return domain.PurchaseOrderItemDTO{
		ID:          item.ID,
		ProductName: item.ProductName,
		Description: item.Description,
		Quantity:    item.Quantity,
		UnitPrice:   item.UnitPrice,
		TotalPrice:  item.TotalPrice,
	}
}

// ToInvoiceDTO converts Invoice to InvoiceDTO
func ToInvoiceDTO(invoice *domain.Invoice) domain.InvoiceDTO {
	dto := domain.InvoiceDTO{
		ID:              invoice.ID,
		InvoiceNumber:   invoice.InvoiceNumber,
		PurchaseOrderID: invoice.PurchaseOrderID,
		TotalAmount:     invoice.TotalAmount,
		Status:          invoice.Status,
		GeneratedAt:     invoice.GeneratedAt.Format(timeFormat),
		InvoiceData:     invoice.InvoiceData,
	}

	if invoice.PurchaseOrder != nil {
		dto.PONumber = invoice.PurchaseOrder.PONumber
	}

	return dto
}

// ToFinanceNotificationDTO converts FinanceNotification to its DTO
func ToFinanceNotificationDTO(n *domain.FinanceNotification) domain.FinanceNotificationDTO {
	return domain.FinanceNotificationDTO{
		ID:               n.ID,
		RecipientEmail:   n.RecipientEmail,
		InvoiceID:        n.InvoiceID,
		PurchaseOrderID:  n.PurchaseOrderID,
		NotificationType: n.NotificationType,
		Subject:          n.Subject,
		Message:          n.Message,
		CreatedAt:        n.CreatedAt.Format(timeFormat),
	}
}

// ToAuditTrailEntryDTO converts AuditTrailEntry to its DTO
func ToAuditTrailEntryDTO(e *domain.AuditTrailEntry) domain.AuditTrailEntryDTO {
	return domain.AuditTrailEntryDTO{
		ID:          e.ID,
		EntityType:  e.EntityType,
		EntityID:    e.EntityID,
		Action:      e.Action,
		ChangedByID: e.ChangedByID,
		ChangedBy:   e.ChangedBy,
		Changes:     e.Changes,
		CreatedAt:   e.CreatedAt.Format(timeFormat),
	}
}

// BuildItems converts item requests to models with computed line totals
func BuildItems(requests []domain.CreatePurchaseOrderItemRequest) []domain.PurchaseOrderItem {
	items := make([]domain.PurchaseOrderItem, len(requests))
	for i, req := range requests {
		items[i] = domain.PurchaseOrderItem{
			ProductName: req.ProductName,
			Description: req.Description,
			Quantity:    req.Quantity,
			UnitPrice:   req.UnitPrice,
			TotalPrice:  domain.LineTotal(req.Quantity, req.UnitPrice),
		}
	}
	return items
}

// ToInvoiceSnapshot builds the immutable document body for an invoice
func ToInvoiceSnapshot(po *domain.PurchaseOrder, generatedAt string) domain.InvoiceSnapshot {
	items := make([]domain.InvoiceSnapshotItem, len(po.Items))
	for i, item := range po.Items {
		items[i] = domain.InvoiceSnapshotItem{
			ProductName: item.ProductName,
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			TotalPrice:  item.TotalPrice,
		}
	}

	return domain.InvoiceSnapshot{
		PONumber:    po.PONumber,
		VendorName:  po.VendorName,
		VendorEmail: po.VendorEmail,
		VendorPhone: po.VendorPhone,
		TotalAmount: po.TotalAmount,
		Description: po.Description,
		Items:       items,
		GeneratedAt: generatedAt,
	}
}

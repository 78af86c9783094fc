package event

import (
	"github.com/fieldbook/backend/internal/domain/document"
	"github.com/fieldbook/backend/internal/domain/partner"
	"github.com/fieldbook/backend/internal/domain/project"
)

// DocumentEventTypes lists every event the engine publishes, grouped by aggregate
func DocumentEventTypes() []string {
	return []string{
		// Estimate
		document.EventTypeEstimateCreated,
		document.EventTypeEstimateSent,
		document.EventTypeEstimateApproved,
		document.EventTypeEstimateRejected,
		document.EventTypeEstimateReverted,
		document.EventTypeEstimateConverted,

		// Invoice
		document.EventTypeInvoiceCreated,
		document.EventTypeInvoiceSent,
		document.EventTypeInvoicePaid,
		document.EventTypeInvoiceCancelled,
		document.EventTypePaymentRecorded,

		// Change order
		document.EventTypeChangeOrderCreated,
		document.EventTypeChangeOrderApprovalRequested,
		document.EventTypeChangeOrderResponded,

		// Parties
		partner.EventTypeClientCreated,
		partner.EventTypeClientUpdated,
		partner.EventTypeContractorProfileUpdated,
		project.EventTypeProjectCreated,
		project.EventTypeProjectStatusChanged,
	}
}

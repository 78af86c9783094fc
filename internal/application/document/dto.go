package document

import (
	"time"

	"github.com/fieldbook/backend/internal/domain/document"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ==================== Line Item DTOs ====================

// LineItemInput represents a line item in a create or update request
type LineItemInput struct {
	Description        string           `json:"description" binding:"required,min=1,max=500"`
	Quantity           decimal.Decimal  `json:"quantity"`
	Unit               string           `json:"unit" binding:"max=20"`
	UnitPrice          decimal.Decimal  `json:"unit_price"`
	Category           string           `json:"category" binding:"omitempty,oneof=materials equipment labor subcontractor other"`
	MarginPercent      *decimal.Decimal `json:"margin_percent"`
	WasteFactorPercent *decimal.Decimal `json:"waste_factor_percent"`
	// Total overrides quantity x unit price when set
	Total *decimal.Decimal `json:"total"`
}

// SectionInput represents a named group of line items
type SectionInput struct {
	Name  string          `json:"name" binding:"required,min=1,max=100"`
	Order int             `json:"order"`
	Items []LineItemInput `json:"items" binding:"dive"`
}

// LineItemResponse represents a line item in API responses
type LineItemResponse struct {
	ID                 uuid.UUID        `json:"id"`
	Description        string           `json:"description"`
	Quantity           decimal.Decimal  `json:"quantity"`
	Unit               string           `json:"unit"`
	UnitPrice          decimal.Decimal  `json:"unit_price"`
	Total              decimal.Decimal  `json:"total"`
	Category           string           `json:"category"`
	MarginPercent      *decimal.Decimal `json:"margin_percent,omitempty"`
	WasteFactorPercent *decimal.Decimal `json:"waste_factor_percent,omitempty"`
	Override           bool             `json:"override"`
}

// SectionResponse represents a section with its derived subtotal
type SectionResponse struct {
	Name     string             `json:"name"`
	Order    int                `json:"order"`
	Subtotal decimal.Decimal    `json:"subtotal"`
	Items    []LineItemResponse `json:"items"`
}

// ==================== Estimate DTOs ====================

// CreateEstimateRequest represents a request to create an estimate
type CreateEstimateRequest struct {
	ProjectID  *uuid.UUID       `json:"project_id"`
	ClientID   *uuid.UUID       `json:"client_id"`
	Title      string           `json:"title" binding:"max=200"`
	Notes      string           `json:"notes" binding:"max=2000"`
	TaxRate    *decimal.Decimal `json:"tax_rate"`
	ValidUntil *time.Time       `json:"valid_until"`
	Sections   []SectionInput   `json:"sections" binding:"dive"`
}

// UpdateEstimateRequest replaces the content of a draft estimate
type UpdateEstimateRequest struct {
	Title      string           `json:"title" binding:"max=200"`
	Notes      string           `json:"notes" binding:"max=2000"`
	TaxRate    *decimal.Decimal `json:"tax_rate"`
	ValidUntil *time.Time       `json:"valid_until"`
	Sections   []SectionInput   `json:"sections" binding:"dive"`
}

// EstimateListFilter represents filter options for estimate list
type EstimateListFilter struct {
	Search    string     `form:"search"`
	Status    string     `form:"status" binding:"omitempty,oneof=draft sent approved rejected"`
	ProjectID *uuid.UUID `form:"project_id"`
	ClientID  *uuid.UUID `form:"client_id"`
	Page      int        `form:"page" binding:"min=0"`
	PageSize  int        `form:"page_size" binding:"min=0,max=100"`
	OrderBy   string     `form:"order_by"`
	OrderDir  string     `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// ConvertEstimateRequest asks for an invoice to be created from an estimate
type ConvertEstimateRequest struct {
	BillingType string           `json:"billing_type" binding:"required,oneof=final progress"`
	Percentage  *decimal.Decimal `json:"percentage"`
	Phase       string           `json:"phase" binding:"max=100"`
	IssueDate   *time.Time       `json:"issue_date"`
	DueDate     *time.Time       `json:"due_date"`
}

// EstimateResponse represents an estimate in API responses
type EstimateResponse struct {
	ID         uuid.UUID                   `json:"id"`
	Number     string                      `json:"number"`
	ProjectID  *uuid.UUID                  `json:"project_id,omitempty"`
	ClientID   *uuid.UUID                  `json:"client_id,omitempty"`
	Title      string                      `json:"title"`
	Notes      string                      `json:"notes,omitempty"`
	Status     string                      `json:"status"`
	Sections   []SectionResponse           `json:"sections"`
	Subtotal   decimal.Decimal             `json:"subtotal"`
	TaxRate    decimal.Decimal             `json:"tax_rate"`
	Tax        decimal.Decimal             `json:"tax"`
	Total      decimal.Decimal             `json:"total"`
	ValidUntil *time.Time                  `json:"valid_until,omitempty"`
	Expired    bool                        `json:"expired"`
	Client     document.ClientSnapshot     `json:"client"`
	Contractor document.ContractorSnapshot `json:"contractor"`
	InvoiceIDs []uuid.UUID                 `json:"invoice_ids"`
	SentAt     *time.Time                  `json:"sent_at,omitempty"`
	ApprovedAt *time.Time                  `json:"approved_at,omitempty"`
	RejectedAt *time.Time                  `json:"rejected_at,omitempty"`
	CreatedAt  time.Time                   `json:"created_at"`
	UpdatedAt  time.Time                   `json:"updated_at"`
	Version    int                         `json:"version"`
}

// EstimateListItemResponse represents an estimate in list responses
type EstimateListItemResponse struct {
	ID         uuid.UUID       `json:"id"`
	Number     string          `json:"number"`
	Title      string          `json:"title"`
	Status     string          `json:"status"`
	ClientName string          `json:"client_name"`
	ProjectID  *uuid.UUID      `json:"project_id,omitempty"`
	Total      decimal.Decimal `json:"total"`
	ItemCount  int             `json:"item_count"`
	ValidUntil *time.Time      `json:"valid_until,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

// ConversionResponse is the outcome of an estimate conversion.
// Replayed is true when an identical earlier conversion was returned.
type ConversionResponse struct {
	Invoice  InvoiceResponse `json:"invoice"`
	Replayed bool            `json:"replayed"`
}

// ==================== Invoice DTOs ====================

// CreateInvoiceRequest creates an invoice directly from items or sections
type CreateInvoiceRequest struct {
	ProjectID *uuid.UUID       `json:"project_id"`
	ClientID  *uuid.UUID       `json:"client_id"`
	Type      string           `json:"type" binding:"omitempty,oneof=final retainer"`
	Title     string           `json:"title" binding:"max=200"`
	Notes     string           `json:"notes" binding:"max=2000"`
	TaxRate   *decimal.Decimal `json:"tax_rate"`
	IssueDate *time.Time       `json:"issue_date"`
	DueDate   *time.Time       `json:"due_date"`
	Items     []LineItemInput  `json:"items" binding:"dive"`
	Sections  []SectionInput   `json:"sections" binding:"dive"`
}

// UpdateInvoiceRequest replaces the billed items of a draft invoice
type UpdateInvoiceRequest struct {
	Title   string           `json:"title" binding:"max=200"`
	Notes   string           `json:"notes" binding:"max=2000"`
	TaxRate *decimal.Decimal `json:"tax_rate"`
	DueDate *time.Time       `json:"due_date"`
	Items   []LineItemInput  `json:"items" binding:"dive"`
}

// CancelInvoiceRequest represents a request to cancel an invoice
type CancelInvoiceRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

// RecordPaymentRequest represents a payment received against an invoice
type RecordPaymentRequest struct {
	Amount    decimal.Decimal `json:"amount" binding:"required"`
	Date      *time.Time      `json:"date"`
	Method    string          `json:"method" binding:"omitempty,oneof=cash check card bank_transfer other"`
	Reference string          `json:"reference" binding:"max=100"`
	Notes     string          `json:"notes" binding:"max=500"`
}

// InvoiceListFilter represents filter options for invoice list
type InvoiceListFilter struct {
	Search     string     `form:"search"`
	Status     string     `form:"status" binding:"omitempty,oneof=draft sent paid overdue cancelled"`
	Type       string     `form:"type" binding:"omitempty,oneof=progress final change_order retainer"`
	ProjectID  *uuid.UUID `form:"project_id"`
	ClientID   *uuid.UUID `form:"client_id"`
	EstimateID *uuid.UUID `form:"estimate_id"`
	Page       int        `form:"page" binding:"min=0"`
	PageSize   int        `form:"page_size" binding:"min=0,max=100"`
	OrderBy    string     `form:"order_by"`
	OrderDir   string     `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// PaymentResponse represents a recorded payment
type PaymentResponse struct {
	ID         uuid.UUID       `json:"id"`
	Amount     decimal.Decimal `json:"amount"`
	Date       time.Time       `json:"date"`
	Method     string          `json:"method"`
	Reference  string          `json:"reference,omitempty"`
	Notes      string          `json:"notes,omitempty"`
	RecordedAt time.Time       `json:"recorded_at"`
}

// InvoiceResponse represents an invoice in API responses.
// Status is the effective status, so a late sent invoice reads as overdue.
type InvoiceResponse struct {
	ID              uuid.UUID                   `json:"id"`
	Number          string                      `json:"number"`
	Type            string                      `json:"type"`
	Status          string                      `json:"status"`
	ProjectID       *uuid.UUID                  `json:"project_id,omitempty"`
	ClientID        *uuid.UUID                  `json:"client_id,omitempty"`
	EstimateID      *uuid.UUID                  `json:"estimate_id,omitempty"`
	ChangeOrderID   *uuid.UUID                  `json:"change_order_id,omitempty"`
	Title           string                      `json:"title"`
	Notes           string                      `json:"notes,omitempty"`
	Items           []LineItemResponse          `json:"items"`
	ProgressBilling *document.ProgressBilling   `json:"progress_billing,omitempty"`
	Subtotal        decimal.Decimal             `json:"subtotal"`
	TaxRate         decimal.Decimal             `json:"tax_rate"`
	Tax             decimal.Decimal             `json:"tax"`
	Total           decimal.Decimal             `json:"total"`
	AmountPaid      decimal.Decimal             `json:"amount_paid"`
	Balance         decimal.Decimal             `json:"balance"`
	Payments        []PaymentResponse           `json:"payments"`
	IssueDate       time.Time                   `json:"issue_date"`
	DueDate         *time.Time                  `json:"due_date,omitempty"`
	Client          document.ClientSnapshot     `json:"client"`
	Contractor      document.ContractorSnapshot `json:"contractor"`
	SentAt          *time.Time                  `json:"sent_at,omitempty"`
	PaidAt          *time.Time                  `json:"paid_at,omitempty"`
	CancelledAt     *time.Time                  `json:"cancelled_at,omitempty"`
	CancelReason    string                      `json:"cancel_reason,omitempty"`
	CreatedAt       time.Time                   `json:"created_at"`
	UpdatedAt       time.Time                   `json:"updated_at"`
	Version         int                         `json:"version"`
}

// InvoiceListItemResponse represents an invoice in list responses
type InvoiceListItemResponse struct {
	ID         uuid.UUID       `json:"id"`
	Number     string          `json:"number"`
	Type       string          `json:"type"`
	Status     string          `json:"status"`
	Title      string          `json:"title"`
	ClientName string          `json:"client_name"`
	ProjectID  *uuid.UUID      `json:"project_id,omitempty"`
	Total      decimal.Decimal `json:"total"`
	Balance    decimal.Decimal `json:"balance"`
	IssueDate  time.Time       `json:"issue_date"`
	DueDate    *time.Time      `json:"due_date,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

// ==================== Change Order DTOs ====================

// CreateChangeOrderRequest represents a request to create a change order
type CreateChangeOrderRequest struct {
	ProjectID      uuid.UUID        `json:"project_id" binding:"required"`
	ClientID       *uuid.UUID       `json:"client_id"`
	Title          string           `json:"title" binding:"required,min=1,max=200"`
	Description    string           `json:"description" binding:"max=2000"`
	OriginalAmount decimal.Decimal  `json:"original_amount"`
	ChangeAmount   *decimal.Decimal `json:"change_amount"`
	Items          []LineItemInput  `json:"items" binding:"dive"`
}

// UpdateChangeOrderRequest edits a change order that is still pending
type UpdateChangeOrderRequest struct {
	Title          string          `json:"title" binding:"required,min=1,max=200"`
	Description    string          `json:"description" binding:"max=2000"`
	OriginalAmount decimal.Decimal `json:"original_amount"`
	ChangeAmount   decimal.Decimal `json:"change_amount"`
}

// RespondChangeOrderRequest is the client's answer through the approval link
type RespondChangeOrderRequest struct {
	Decision   string `json:"decision" binding:"required,oneof=approve decline"`
	SignerName string `json:"signer_name" binding:"max=200"`
	Comment    string `json:"comment" binding:"max=1000"`
}

// InvoiceChangeOrderRequest bills an approved change order
type InvoiceChangeOrderRequest struct {
	TaxRate   *decimal.Decimal `json:"tax_rate"`
	IssueDate *time.Time       `json:"issue_date"`
	DueDate   *time.Time       `json:"due_date"`
}

// ChangeOrderListFilter represents filter options for change order list
type ChangeOrderListFilter struct {
	Search    string     `form:"search"`
	Status    string     `form:"status" binding:"omitempty,oneof=pending approved declined expired"`
	ProjectID *uuid.UUID `form:"project_id"`
	ClientID  *uuid.UUID `form:"client_id"`
	Page      int        `form:"page" binding:"min=0"`
	PageSize  int        `form:"page_size" binding:"min=0,max=100"`
	OrderBy   string     `form:"order_by"`
	OrderDir  string     `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// ChangeOrderResponse represents a change order in owner-facing responses
type ChangeOrderResponse struct {
	ID             uuid.UUID                `json:"id"`
	Number         string                   `json:"number"`
	ProjectID      uuid.UUID                `json:"project_id"`
	ClientID       *uuid.UUID               `json:"client_id,omitempty"`
	Title          string                   `json:"title"`
	Description    string                   `json:"description,omitempty"`
	Items          []LineItemResponse       `json:"items"`
	OriginalAmount decimal.Decimal          `json:"original_amount"`
	ChangeAmount   decimal.Decimal          `json:"change_amount"`
	NewTotalAmount decimal.Decimal          `json:"new_total_amount"`
	Status         string                   `json:"status"`
	ApprovalURL    string                   `json:"approval_url"`
	ExpiresAt      time.Time                `json:"expires_at"`
	LinkSentAt     *time.Time               `json:"link_sent_at,omitempty"`
	ClientResponse *document.ClientResponse `json:"client_response,omitempty"`
	Client         document.ClientSnapshot  `json:"client"`
	InvoiceID      *uuid.UUID               `json:"invoice_id,omitempty"`
	CreatedAt      time.Time                `json:"created_at"`
	UpdatedAt      time.Time                `json:"updated_at"`
	Version        int                      `json:"version"`
}

// PublicChangeOrderResponse is what the client sees behind the approval link.
// It carries no owner identifiers and no token.
type PublicChangeOrderResponse struct {
	Number         string                   `json:"number"`
	Title          string                   `json:"title"`
	Description    string                   `json:"description,omitempty"`
	Items          []LineItemResponse       `json:"items"`
	OriginalAmount decimal.Decimal          `json:"original_amount"`
	ChangeAmount   decimal.Decimal          `json:"change_amount"`
	NewTotalAmount decimal.Decimal          `json:"new_total_amount"`
	Status         string                   `json:"status"`
	ExpiresAt      time.Time                `json:"expires_at"`
	ClientName     string                   `json:"client_name"`
	ClientResponse *document.ClientResponse `json:"client_response,omitempty"`
}

// ==================== Conversion Functions ====================

// ToLineItemResponse converts a domain LineItem to LineItemResponse
func ToLineItemResponse(item document.LineItem) LineItemResponse {
	return LineItemResponse{
		ID:                 item.ID,
		Description:        item.Description,
		Quantity:           item.Quantity,
		Unit:               item.Unit,
		UnitPrice:          item.UnitPrice,
		Total:              item.Total,
		Category:           string(item.Category),
		MarginPercent:      item.MarginPercent,
		WasteFactorPercent: item.WasteFactorPercent,
		Override:           item.Override,
	}
}

// ToLineItemResponses converts a slice of line items
func ToLineItemResponses(items []document.LineItem) []LineItemResponse {
	responses := make([]LineItemResponse, len(items))
	for i, item := range items {
		responses[i] = ToLineItemResponse(item)
	}
	return responses
}

// ToEstimateResponse converts a domain Estimate to EstimateResponse
func ToEstimateResponse(e *document.Estimate, now time.Time) EstimateResponse {
	sections := make([]SectionResponse, len(e.Sections))
	for i, s := range e.Sections {
		sections[i] = SectionResponse{
			Name:     s.Name,
			Order:    s.Order,
			Subtotal: s.Subtotal(),
			Items:    ToLineItemResponses(s.Items),
		}
	}
	invoiceIDs := e.InvoiceIDs
	if invoiceIDs == nil {
		invoiceIDs = []uuid.UUID{}
	}
	return EstimateResponse{
		ID:         e.ID,
		Number:     e.Number,
		ProjectID:  e.ProjectID,
		ClientID:   e.ClientID,
		Title:      e.Title,
		Notes:      e.Notes,
		Status:     string(e.Status),
		Sections:   sections,
		Subtotal:   e.Subtotal,
		TaxRate:    e.TaxRate,
		Tax:        e.Tax,
		Total:      e.Total,
		ValidUntil: e.ValidUntil,
		Expired:    e.IsExpired(now),
		Client:     e.Client,
		Contractor: e.Contractor,
		InvoiceIDs: invoiceIDs,
		SentAt:     e.SentAt,
		ApprovedAt: e.ApprovedAt,
		RejectedAt: e.RejectedAt,
		CreatedAt:  e.CreatedAt,
		UpdatedAt:  e.UpdatedAt,
		Version:    e.Version,
	}
}

// ToEstimateListItemResponse converts a domain Estimate to a list item
func ToEstimateListItemResponse(e *document.Estimate) EstimateListItemResponse {
	return EstimateListItemResponse{
		ID:         e.ID,
		Number:     e.Number,
		Title:      e.Title,
		Status:     string(e.Status),
		ClientName: e.Client.Name,
		ProjectID:  e.ProjectID,
		Total:      e.Total,
		ItemCount:  e.LineItemCount(),
		ValidUntil: e.ValidUntil,
		CreatedAt:  e.CreatedAt,
	}
}

// ToPaymentResponse converts a domain Payment to PaymentResponse
func ToPaymentResponse(p document.Payment) PaymentResponse {
	return PaymentResponse{
		ID:         p.ID,
		Amount:     p.Amount,
		Date:       p.Date,
		Method:     string(p.Method),
		Reference:  p.Reference,
		Notes:      p.Notes,
		RecordedAt: p.RecordedAt,
	}
}

// ToPaymentResponses converts a slice of payments
func ToPaymentResponses(payments []document.Payment) []PaymentResponse {
	responses := make([]PaymentResponse, len(payments))
	for i, p := range payments {
		responses[i] = ToPaymentResponse(p)
	}
	return responses
}

// ToInvoiceResponse converts a domain Invoice to InvoiceResponse as seen at now
func ToInvoiceResponse(i *document.Invoice, now time.Time) InvoiceResponse {
	return InvoiceResponse{
		ID:              i.ID,
		Number:          i.Number,
		Type:            string(i.Type),
		Status:          string(i.EffectiveStatus(now)),
		ProjectID:       i.ProjectID,
		ClientID:        i.ClientID,
		EstimateID:      i.EstimateID,
		ChangeOrderID:   i.ChangeOrderID,
		Title:           i.Title,
		Notes:           i.Notes,
		Items:           ToLineItemResponses(i.Items),
		ProgressBilling: i.ProgressBilling,
		Subtotal:        i.Subtotal,
		TaxRate:         i.TaxRate,
		Tax:             i.Tax,
		Total:           i.Total,
		AmountPaid:      i.AmountPaid,
		Balance:         i.Balance,
		Payments:        ToPaymentResponses(i.Payments),
		IssueDate:       i.IssueDate,
		DueDate:         i.DueDate,
		Client:          i.Client,
		Contractor:      i.Contractor,
		SentAt:          i.SentAt,
		PaidAt:          i.PaidAt,
		CancelledAt:     i.CancelledAt,
		CancelReason:    i.CancelReason,
		CreatedAt:       i.CreatedAt,
		UpdatedAt:       i.UpdatedAt,
		Version:         i.Version,
	}
}

// ToInvoiceListItemResponse converts a domain Invoice to a list item
func ToInvoiceListItemResponse(i *document.Invoice, now time.Time) InvoiceListItemResponse {
	return InvoiceListItemResponse{
		ID:         i.ID,
		Number:     i.Number,
		Type:       string(i.Type),
		Status:     string(i.EffectiveStatus(now)),
		Title:      i.Title,
		ClientName: i.Client.Name,
		ProjectID:  i.ProjectID,
		Total:      i.Total,
		Balance:    i.Balance,
		IssueDate:  i.IssueDate,
		DueDate:    i.DueDate,
		CreatedAt:  i.CreatedAt,
	}
}

// ToChangeOrderResponse converts a domain ChangeOrder to ChangeOrderResponse
func ToChangeOrderResponse(c *document.ChangeOrder, approvalURL string, now time.Time) ChangeOrderResponse {
	return ChangeOrderResponse{
		ID:             c.ID,
		Number:         c.Number,
		ProjectID:      c.ProjectID,
		ClientID:       c.ClientID,
		Title:          c.Title,
		Description:    c.Description,
		Items:          ToLineItemResponses(c.Items),
		OriginalAmount: c.OriginalAmount,
		ChangeAmount:   c.ChangeAmount,
		NewTotalAmount: c.NewTotalAmount,
		Status:         string(c.EffectiveStatus(now)),
		ApprovalURL:    approvalURL,
		ExpiresAt:      c.ExpiresAt,
		LinkSentAt:     c.LinkSentAt,
		ClientResponse: c.ClientResponse,
		Client:         c.Client,
		InvoiceID:      c.InvoiceID,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
		Version:        c.Version,
	}
}

// ToPublicChangeOrderResponse converts a domain ChangeOrder for the approval page
func ToPublicChangeOrderResponse(c *document.ChangeOrder, now time.Time) PublicChangeOrderResponse {
	return PublicChangeOrderResponse{
		Number:         c.Number,
		Title:          c.Title,
		Description:    c.Description,
		Items:          ToLineItemResponses(c.Items),
		OriginalAmount: c.OriginalAmount,
		ChangeAmount:   c.ChangeAmount,
		NewTotalAmount: c.NewTotalAmount,
		Status:         string(c.EffectiveStatus(now)),
		ExpiresAt:      c.ExpiresAt,
		ClientName:     c.Client.Name,
		ClientResponse: c.ClientResponse,
	}
}

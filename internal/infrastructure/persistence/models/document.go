package models

import (
	"time"

	"github.com/fieldbook/backend/internal/domain/document"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// FinancialDocumentModel holds the columns shared by estimates and invoices.
type FinancialDocumentModel struct {
	OwnedAggregateModel
	Number    string          `gorm:"type:varchar(30);not null;index"`
	ProjectID *uuid.UUID      `gorm:"type:uuid;index"`
	ClientID  *uuid.UUID      `gorm:"type:uuid;index"`
	Title     string          `gorm:"type:varchar(200)"`
	Notes     string          `gorm:"type:text"`
	Subtotal  decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	TaxRate   decimal.Decimal `gorm:"type:decimal(9,4);not null;default:0"`
	Tax       decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	Total     decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	DeletedAt gorm.DeletedAt  `gorm:"index"`
}

func (m *FinancialDocumentModel) fromDomain(d document.FinancialDocument) {
	m.FromDomainOwnedAggregateRoot(d.OwnedAggregateRoot)
	m.Number = d.Number
	m.ProjectID = d.ProjectID
	m.ClientID = d.ClientID
	m.Title = d.Title
	m.Notes = d.Notes
	m.Subtotal = d.Subtotal
	m.TaxRate = d.TaxRate
	m.Tax = d.Tax
	m.Total = d.Total
}

func (m *FinancialDocumentModel) toDomain() document.FinancialDocument {
	return document.FinancialDocument{
		OwnedAggregateRoot: m.ToDomainOwnedAggregateRoot(),
		Number:             m.Number,
		ProjectID:          m.ProjectID,
		ClientID:           m.ClientID,
		Title:              m.Title,
		Notes:              m.Notes,
		Subtotal:           m.Subtotal,
		TaxRate:            m.TaxRate,
		Tax:                m.Tax,
		Total:              m.Total,
	}
}

// EstimateModel is the persistence model for the Estimate aggregate.
// Sections with their line items are stored as one JSON document.
type EstimateModel struct {
	FinancialDocumentModel
	Sections   JSON[[]document.Section]          `gorm:"type:jsonb;not null"`
	Status     document.EstimateStatus           `gorm:"type:varchar(20);not null;default:'draft';index"`
	ValidUntil *time.Time                        `gorm:"index"`
	Client     JSON[document.ClientSnapshot]     `gorm:"column:client_snapshot;type:jsonb"`
	Contractor JSON[document.ContractorSnapshot] `gorm:"column:contractor_snapshot;type:jsonb"`
	InvoiceIDs JSON[[]uuid.UUID]                 `gorm:"column:invoice_ids;type:jsonb"`
	SentAt     *time.Time
	ApprovedAt *time.Time
	RejectedAt *time.Time
}

// TableName returns the table name for GORM
func (EstimateModel) TableName() string {
	return "estimates"
}

// ToDomain converts the persistence model to a domain Estimate.
func (m *EstimateModel) ToDomain() *document.Estimate {
	return &document.Estimate{
		FinancialDocument: m.toDomain(),
		Sections:          m.Sections.Data,
		Status:            m.Status,
		ValidUntil:        m.ValidUntil,
		Client:            m.Client.Data,
		Contractor:        m.Contractor.Data,
		InvoiceIDs:        m.InvoiceIDs.Data,
		SentAt:            m.SentAt,
		ApprovedAt:        m.ApprovedAt,
		RejectedAt:        m.RejectedAt,
	}
}

// EstimateModelFromDomain creates a new persistence model from a domain Estimate.
func EstimateModelFromDomain(e *document.Estimate) *EstimateModel {
	m := &EstimateModel{
		Sections:   NewJSON(e.Sections),
		Status:     e.Status,
		ValidUntil: e.ValidUntil,
		Client:     NewJSON(e.Client),
		Contractor: NewJSON(e.Contractor),
		InvoiceIDs: NewJSON(e.InvoiceIDs),
		SentAt:     e.SentAt,
		ApprovedAt: e.ApprovedAt,
		RejectedAt: e.RejectedAt,
	}
	m.fromDomain(e.FinancialDocument)
	return m
}

// InvoiceModel is the persistence model for the Invoice aggregate.
type InvoiceModel struct {
	FinancialDocumentModel
	Type            document.InvoiceType              `gorm:"type:varchar(20);not null"`
	Status          document.InvoiceStatus            `gorm:"type:varchar(20);not null;default:'draft';index"`
	Items           JSON[[]document.LineItem]         `gorm:"type:jsonb;not null"`
	EstimateID      *uuid.UUID                        `gorm:"type:uuid;index"`
	ChangeOrderID   *uuid.UUID                        `gorm:"type:uuid;index"`
	ProgressBilling JSON[*document.ProgressBilling]   `gorm:"type:jsonb"`
	Payments        JSON[[]document.Payment]          `gorm:"type:jsonb"`
	AmountPaid      decimal.Decimal                   `gorm:"type:decimal(18,2);not null;default:0"`
	Balance         decimal.Decimal                   `gorm:"type:decimal(18,2);not null;default:0"`
	IssueDate       time.Time                         `gorm:"not null"`
	DueDate         *time.Time                        `gorm:"index"`
	Client          JSON[document.ClientSnapshot]     `gorm:"column:client_snapshot;type:jsonb"`
	Contractor      JSON[document.ContractorSnapshot] `gorm:"column:contractor_snapshot;type:jsonb"`
	ConversionKey   *string                           `gorm:"type:varchar(200);index"`
	SentAt          *time.Time
	PaidAt          *time.Time
	CancelledAt     *time.Time
	CancelReason    string `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (InvoiceModel) TableName() string {
	return "invoices"
}

// ToDomain converts the persistence model to a domain Invoice.
func (m *InvoiceModel) ToDomain() *document.Invoice {
	inv := &document.Invoice{
		FinancialDocument: m.toDomain(),
		Type:              m.Type,
		Status:            m.Status,
		Items:             m.Items.Data,
		EstimateID:        m.EstimateID,
		ChangeOrderID:     m.ChangeOrderID,
		ProgressBilling:   m.ProgressBilling.Data,
		Payments:          m.Payments.Data,
		AmountPaid:        m.AmountPaid,
		Balance:           m.Balance,
		IssueDate:         m.IssueDate,
		DueDate:           m.DueDate,
		Client:            m.Client.Data,
		Contractor:        m.Contractor.Data,
		SentAt:            m.SentAt,
		PaidAt:            m.PaidAt,
		CancelledAt:       m.CancelledAt,
		CancelReason:      m.CancelReason,
	}
	if m.ConversionKey != nil {
		inv.ConversionKey = *m.ConversionKey
	}
	return inv
}

// InvoiceModelFromDomain creates a new persistence model from a domain Invoice.
func InvoiceModelFromDomain(inv *document.Invoice) *InvoiceModel {
	m := &InvoiceModel{
		Type:            inv.Type,
		Status:          inv.Status,
		Items:           NewJSON(inv.Items),
		EstimateID:      inv.EstimateID,
		ChangeOrderID:   inv.ChangeOrderID,
		ProgressBilling: NewJSON(inv.ProgressBilling),
		Payments:        NewJSON(inv.Payments),
		AmountPaid:      inv.AmountPaid,
		Balance:         inv.Balance,
		IssueDate:       inv.IssueDate,
		DueDate:         inv.DueDate,
		Client:          NewJSON(inv.Client),
		Contractor:      NewJSON(inv.Contractor),
		SentAt:          inv.SentAt,
		PaidAt:          inv.PaidAt,
		CancelledAt:     inv.CancelledAt,
		CancelReason:    inv.CancelReason,
	}
	if inv.ConversionKey != "" {
		key := inv.ConversionKey
		m.ConversionKey = &key
	}
	m.fromDomain(inv.FinancialDocument)
	return m
}

// ChangeOrderModel is the persistence model for the ChangeOrder aggregate.
type ChangeOrderModel struct {
	OwnedAggregateModel
	Number         string                         `gorm:"type:varchar(30);not null;index"`
	ProjectID      uuid.UUID                      `gorm:"type:uuid;not null;index"`
	ClientID       *uuid.UUID                     `gorm:"type:uuid;index"`
	Title          string                         `gorm:"type:varchar(200);not null"`
	Description    string                         `gorm:"type:text"`
	Items          JSON[[]document.LineItem]      `gorm:"type:jsonb"`
	OriginalAmount decimal.Decimal                `gorm:"type:decimal(18,2);not null;default:0"`
	ChangeAmount   decimal.Decimal                `gorm:"type:decimal(18,2);not null;default:0"`
	NewTotalAmount decimal.Decimal                `gorm:"type:decimal(18,2);not null;default:0"`
	Status         document.ChangeOrderStatus     `gorm:"type:varchar(20);not null;default:'pending';index"`
	ApprovalToken  string                         `gorm:"type:varchar(64);not null;uniqueIndex"`
	ExpiresAt      time.Time                      `gorm:"not null"`
	ClientResponse JSON[*document.ClientResponse] `gorm:"type:jsonb"`
	Client         JSON[document.ClientSnapshot]  `gorm:"column:client_snapshot;type:jsonb"`
	LinkSentAt     *time.Time
	InvoiceID      *uuid.UUID     `gorm:"type:uuid"`
	DeletedAt      gorm.DeletedAt `gorm:"index"`
}

// TableName returns the table name for GORM
func (ChangeOrderModel) TableName() string {
	return "change_orders"
}

// ToDomain converts the persistence model to a domain ChangeOrder.
func (m *ChangeOrderModel) ToDomain() *document.ChangeOrder {
	return &document.ChangeOrder{
		OwnedAggregateRoot: m.ToDomainOwnedAggregateRoot(),
		Number:             m.Number,
		ProjectID:          m.ProjectID,
		ClientID:           m.ClientID,
		Title:              m.Title,
		Description:        m.Description,
		Items:              m.Items.Data,
		OriginalAmount:     m.OriginalAmount,
		ChangeAmount:       m.ChangeAmount,
		NewTotalAmount:     m.NewTotalAmount,
		Status:             m.Status,
		ApprovalToken:      m.ApprovalToken,
		ExpiresAt:          m.ExpiresAt,
		ClientResponse:     m.ClientResponse.Data,
		Client:             m.Client.Data,
		LinkSentAt:         m.LinkSentAt,
		InvoiceID:          m.InvoiceID,
	}
}

// ChangeOrderModelFromDomain creates a new persistence model from a domain ChangeOrder.
func ChangeOrderModelFromDomain(co *document.ChangeOrder) *ChangeOrderModel {
	m := &ChangeOrderModel{
		Number:         co.Number,
		ProjectID:      co.ProjectID,
		ClientID:       co.ClientID,
		Title:          co.Title,
		Description:    co.Description,
		Items:          NewJSON(co.Items),
		OriginalAmount: co.OriginalAmount,
		ChangeAmount:   co.ChangeAmount,
		NewTotalAmount: co.NewTotalAmount,
		Status:         co.Status,
		ApprovalToken:  co.ApprovalToken,
		ExpiresAt:      co.ExpiresAt,
		ClientResponse: NewJSON(co.ClientResponse),
		Client:         NewJSON(co.Client),
		LinkSentAt:     co.LinkSentAt,
		InvoiceID:      co.InvoiceID,
	}
	m.FromDomainOwnedAggregateRoot(co.OwnedAggregateRoot)
	return m
}

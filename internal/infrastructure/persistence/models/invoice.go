package models

import (
	"time"

	"github.com/invoicer/backend/internal/domain/invoicing"
	"github.com/shopspring/decimal"
)

// InvoiceModel is the GORM model for the invoices table
type InvoiceModel struct {
	ID             string               `gorm:"type:varchar(64);primaryKey"`
	OwnedBy        string               `gorm:"column:owned_by;type:varchar(128);not null;index"`
	ClientID       string               `gorm:"column:client_id;type:varchar(64);index"`
	Number         string               `gorm:"type:varchar(64);not null"`
	IssueDate      time.Time            `gorm:"column:issue_date;not null"`
	DueDate        time.Time            `gorm:"column:due_date;not null"`
	Items          []invoicing.LineItem `gorm:"serializer:json;type:text;not null"`
	Subtotal       decimal.Decimal      `gorm:"type:decimal(18,2);not null"`
	TaxRate        decimal.Decimal      `gorm:"column:tax_rate;type:decimal(5,2);not null"`
	Tax            decimal.Decimal      `gorm:"type:decimal(18,2);not null"`
	Total          decimal.Decimal      `gorm:"type:decimal(18,2);not null"`
	Currency       string               `gorm:"type:varchar(3);not null"`
	Status         string               `gorm:"type:varchar(16);not null"`
	PDFURL         string               `gorm:"column:pdf_url;type:text"`
	PDFGeneratedAt *time.Time           `gorm:"column:pdf_generated_at"`
	EmailSentAt    *time.Time           `gorm:"column:email_sent_at"`
	EmailSentTo    string               `gorm:"column:email_sent_to;type:varchar(320)"`
	Timestamps
}

// TableName returns the table name for InvoiceModel
func (InvoiceModel) TableName() string {
	return "invoices"
}

// ToDomain converts InvoiceModel to a domain Invoice
func (m *InvoiceModel) ToDomain() *invoicing.Invoice {
	items := make([]invoicing.LineItem, len(m.Items))
	copy(items, m.Items)
	return &invoicing.Invoice{
		ID:             m.ID,
		OwnedBy:        m.OwnedBy,
		ClientID:       m.ClientID,
		Number:         m.Number,
		IssueDate:      m.IssueDate,
		DueDate:        m.DueDate,
		Items:          items,
		Subtotal:       m.Subtotal,
		TaxRate:        m.TaxRate,
		Tax:            m.Tax,
		Total:          m.Total,
		Currency:       m.Currency,
		Status:         invoicing.Status(m.Status),
		PDFURL:         m.PDFURL,
		PDFGeneratedAt: m.PDFGeneratedAt,
		EmailSentAt:    m.EmailSentAt,
		EmailSentTo:    m.EmailSentTo,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

// InvoiceModelFromDomain creates an InvoiceModel from a domain Invoice
func InvoiceModelFromDomain(inv *invoicing.Invoice) *InvoiceModel {
	return &InvoiceModel{
		ID:             inv.ID,
		OwnedBy:        inv.OwnedBy,
		ClientID:       inv.ClientID,
		Number:         inv.Number,
		IssueDate:      inv.IssueDate,
		DueDate:        inv.DueDate,
		Items:          inv.Items,
		Subtotal:       inv.Subtotal,
		TaxRate:        inv.TaxRate,
		Tax:            inv.Tax,
		Total:          inv.Total,
		Currency:       inv.Currency,
		Status:         string(inv.Status),
		PDFURL:         inv.PDFURL,
		PDFGeneratedAt: inv.PDFGeneratedAt,
		EmailSentAt:    inv.EmailSentAt,
		EmailSentTo:    inv.EmailSentTo,
		Timestamps: Timestamps{
			CreatedAt: inv.CreatedAt,
			UpdatedAt: inv.UpdatedAt,
		},
	}
}

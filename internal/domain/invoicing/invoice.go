package invoicing

import (
	"fmt"
	"strings"
	"time"

	"github.com/invoicer/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

// Status is the invoice lifecycle status. Rendering never changes it.
type Status string

const (
	StatusDraft Status = "draft"
	StatusSent  Status = "sent"
	StatusPaid  Status = "paid"
)

// IsValid checks if the status is one of the known values
func (s Status) IsValid() bool {
	switch s {
	case StatusDraft, StatusSent, StatusPaid:
		return true
	}
	return false
}

// DefaultCurrency is used when an invoice carries no currency code.
const DefaultCurrency = "USD"

// MinQuantity is the smallest quantity a line item may carry.
var MinQuantity = decimal.RequireFromString("0.01")

// Ownable is implemented by records that belong to exactly one principal.
type Ownable interface {
	OwnerID() string
}

// LineItem is a single billed row.
type LineItem struct {
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
}

// Total returns quantity x unit price without rounding.
func (li LineItem) Total() decimal.Decimal {
	return li.Quantity.Mul(li.UnitPrice)
}

// Invoice is the persisted invoice record.
type Invoice struct {
	ID             string
	OwnedBy        string
	ClientID       string
	Number         string
	IssueDate      time.Time
	DueDate        time.Time
	Items          []LineItem
	Subtotal       decimal.Decimal
	TaxRate        decimal.Decimal
	Tax            decimal.Decimal
	Total          decimal.Decimal
	Currency       string
	Status         Status
	PDFURL         string
	PDFGeneratedAt *time.Time
	EmailSentAt    *time.Time
	EmailSentTo    string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// OwnerID implements Ownable
func (i *Invoice) OwnerID() string {
	return i.OwnedBy
}

// HasDocument reports whether a PDF has been published for the invoice.
func (i *Invoice) HasDocument() bool {
	return i.PDFURL != ""
}

// CurrencyCode returns the upper-cased currency, falling back to USD.
func (i *Invoice) CurrencyCode() string {
	c := strings.ToUpper(strings.TrimSpace(i.Currency))
	if c == "" {
		return DefaultCurrency
	}
	return c
}

// ApplyTotals recomputes subtotal, tax and total from the items and tax rate.
func (i *Invoice) ApplyTotals() {
	t := ComputeTotals(i.Items, i.TaxRate)
	i.Subtotal = t.Subtotal
	i.Tax = t.Tax
	i.Total = t.Total
}

// Validate checks the invoice against the record rules.
func (i *Invoice) Validate() error {
	var problems []string
	if strings.TrimSpace(i.OwnedBy) == "" {
		problems = append(problems, "owner is required")
	}
	if strings.TrimSpace(i.Number) == "" {
		problems = append(problems, "number is required")
	}
	if len(i.Items) == 0 {
		problems = append(problems, "at least one line item is required")
	}
	for n, item := range i.Items {
		if strings.TrimSpace(item.Description) == "" {
			problems = append(problems, fmt.Sprintf("item %d: description is required", n+1))
		}
		if item.Quantity.LessThan(MinQuantity) {
			problems = append(problems, fmt.Sprintf("item %d: quantity must be at least %s", n+1, MinQuantity))
		}
		if item.UnitPrice.IsNegative() {
			problems = append(problems, fmt.Sprintf("item %d: unit price cannot be negative", n+1))
		}
	}
	if i.TaxRate.IsNegative() || i.TaxRate.GreaterThan(decimal.NewFromInt(100)) {
		problems = append(problems, "tax rate must be between 0 and 100")
	}
	if len(i.Currency) != 3 {
		problems = append(problems, "currency must be a 3-letter ISO 4217 code")
	} else if _, err := currency.ParseISO(i.Currency); err != nil {
		problems = append(problems, "currency must be a 3-letter ISO 4217 code")
	}
	if !i.Status.IsValid() {
		problems = append(problems, fmt.Sprintf("unknown status %q", i.Status))
	}
	if !i.IssueDate.IsZero() && !i.DueDate.IsZero() && i.DueDate.Before(i.IssueDate) {
		problems = append(problems, "due date cannot be before issue date")
	}
	if len(problems) > 0 {
		return shared.NewDomainError(shared.CodeValidation, strings.Join(problems, "; "))
	}
	return nil
}

// Totals holds the rounded invoice amounts.
type Totals struct {
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
}

// ComputeTotals sums the line totals and applies the tax rate (a percentage).
// Rounding to two places happens once, after summing, so the total always
// equals subtotal + tax exactly.
func ComputeTotals(items []LineItem, taxRate decimal.Decimal) Totals {
	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(item.Total())
	}
	subtotal = subtotal.Round(2)
	tax := subtotal.Mul(taxRate).Div(decimal.NewFromInt(100)).Round(2)
	return Totals{
		Subtotal: subtotal,
		Tax:      tax,
		Total:    subtotal.Add(tax),
	}
}

// StorageKey returns the object key of the invoice's rendered document.
func StorageKey(invoiceID string) string {
	return "invoices/" + invoiceID + ".pdf"
}

// AttachmentName returns the filename used when the document is mailed.
func AttachmentName(number string) string {
	n := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', '"', '\r', '\n':
			return '-'
		}
		return r
	}, strings.TrimSpace(number))
	if n == "" {
		n = "document"
	}
	return "Invoice-" + n + ".pdf"
}

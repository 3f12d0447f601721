package printing

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/invoicer/backend/internal/domain/invoicing"
)

const (
	defaultQuantityLabel  = "Quantity"
	defaultUnitPriceLabel = "Unit Price"
	missingClientName     = "N/A"
)

// InvoiceView is the input to the document template. Client and Issuer are
// optional; absent fields are left out of the document.
type InvoiceView struct {
	Invoice *invoicing.Invoice
	Client  *invoicing.Client
	Issuer  *invoicing.IssuerProfile
}

type partyData struct {
	Name        string
	Email       string
	Phone       string
	Address     string
	TaxID       string
	BankDetails string
	FooterNote  string
}

type lineData struct {
	Description string
	Quantity    string
	UnitPrice   string
	Amount      string
}

type documentData struct {
	Number         string
	Status         string
	IssueDate      string
	DueDate        string
	Client         partyData
	Issuer         partyData
	QuantityLabel  string
	UnitPriceLabel string
	Lines          []lineData
	Subtotal       string
	Tax            string
	Total          string
}

// TemplateRenderer turns invoice records into a self-contained HTML
// document. It performs no I/O and its output depends only on its input.
type TemplateRenderer struct {
	tmpl *template.Template
}

// NewTemplateRenderer parses the invoice layout.
func NewTemplateRenderer() (*TemplateRenderer, error) {
	tmpl, err := template.New("invoice").Funcs(template.FuncMap{
		"multiline":   multiline,
		"statusLabel": statusLabel,
	}).Parse(invoiceTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse invoice template: %w", err)
	}
	return &TemplateRenderer{tmpl: tmpl}, nil
}

// Render produces the invoice markup. Persisted totals are printed as-is;
// only per-line amounts are derived here.
func (r *TemplateRenderer) Render(view InvoiceView) ([]byte, error) {
	if view.Invoice == nil {
		return nil, fmt.Errorf("render invoice: invoice is nil")
	}

	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, buildDocument(view)); err != nil {
		return nil, fmt.Errorf("render invoice %s: %w", view.Invoice.ID, err)
	}
	return buf.Bytes(), nil
}

func buildDocument(view InvoiceView) documentData {
	inv := view.Invoice
	code := inv.CurrencyCode()

	doc := documentData{
		Number:         inv.Number,
		Status:         string(inv.Status),
		IssueDate:      FormatLongDate(inv.IssueDate),
		DueDate:        FormatLongDate(inv.DueDate),
		QuantityLabel:  defaultQuantityLabel,
		UnitPriceLabel: defaultUnitPriceLabel,
		Subtotal:       FormatMoney(inv.Subtotal, code),
		Tax:            FormatMoney(inv.Tax, code),
		Total:          FormatMoney(inv.Total, code),
		Client:         partyData{Name: missingClientName},
	}

	if c := view.Client; c != nil {
		doc.Client = partyData{
			Name:    c.Name,
			Email:   c.Email,
			Phone:   c.Phone,
			Address: c.Address,
			TaxID:   c.TaxID,
		}
		if doc.Client.Name == "" {
			doc.Client.Name = missingClientName
		}
	}

	if p := view.Issuer; p != nil {
		doc.Issuer = partyData{
			Name:        p.CompanyName,
			Email:       p.CompanyEmail,
			Phone:       p.CompanyPhone,
			Address:     p.CompanyAddress,
			BankDetails: p.BankDetails,
			FooterNote:  p.FooterNote,
		}
		if p.QuantityLabel != "" {
			doc.QuantityLabel = p.QuantityLabel
		}
		if p.UnitPriceLabel != "" {
			doc.UnitPriceLabel = p.UnitPriceLabel
		}
	}

	doc.Lines = make([]lineData, 0, len(inv.Items))
	for _, item := range inv.Items {
		doc.Lines = append(doc.Lines, lineData{
			Description: item.Description,
			Quantity:    FormatQuantity(item.Quantity),
			UnitPrice:   FormatMoney(item.UnitPrice, code),
			Amount:      FormatMoney(item.Total(), code),
		})
	}
	return doc
}

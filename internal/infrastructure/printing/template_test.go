package printing

import (
	"strings"
	"testing"
	"time"

	"github.com/invoicer/backend/internal/domain/invoicing"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleView() InvoiceView {
	items := []invoicing.LineItem{
		{Description: "2025 Week 43 & 44 Salary", Quantity: decimal.NewFromInt(80), UnitPrice: decimal.NewFromInt(75)},
	}
	totals := invoicing.ComputeTotals(items, decimal.Zero)
	return InvoiceView{
		Invoice: &invoicing.Invoice{
			ID:        "inv-174",
			OwnedBy:   "user-a",
			ClientID:  "client-1",
			Number:    "174",
			IssueDate: time.Date(2025, 10, 31, 0, 0, 0, 0, time.UTC),
			DueDate:   time.Date(2025, 11, 14, 0, 0, 0, 0, time.UTC),
			Items:     items,
			Subtotal:  totals.Subtotal,
			Tax:       totals.Tax,
			Total:     totals.Total,
			Currency:  "USD",
			Status:    invoicing.StatusDraft,
		},
		Client: &invoicing.Client{
			ID:      "client-1",
			OwnedBy: "user-a",
			Name:    "Globex <Corp>",
			Email:   "ap@globex.test",
			Address: "1 Main St\nSpringfield",
			TaxID:   "US-123",
		},
		Issuer: &invoicing.IssuerProfile{
			PrincipalID:   "user-a",
			CompanyName:   "Acme Consulting",
			CompanyEmail:  "billing@acme.test",
			BankDetails:   "IBAN: DE00 1234\nBIC: ABCDEFXX",
			QuantityLabel: "Hours",
			FooterNote:    "Thank you for your business!",
		},
	}
}

func render(t *testing.T, view InvoiceView) string {
	t.Helper()
	r, err := NewTemplateRenderer()
	require.NoError(t, err)
	out, err := r.Render(view)
	require.NoError(t, err)
	return string(out)
}

func TestRender_SalaryInvoice(t *testing.T) {
	html := render(t, sampleView())

	assert.Contains(t, html, "Invoice 174")
	assert.Contains(t, html, "<td>80</td>")
	assert.Contains(t, html, "<td>$75.00</td>")
	assert.Contains(t, html, `<td class="amount">$6,000.00</td>`)
	assert.Contains(t, html, "<span>Subtotal:</span><span>$6,000.00</span>")
	assert.Contains(t, html, "<span>Tax:</span><span>$0.00</span>")
	assert.Contains(t, html, "<span>Total:</span><span>$6,000.00</span>")
	assert.Contains(t, html, "October 31, 2025")
	assert.Contains(t, html, "November 14, 2025")
	assert.Contains(t, html, `status-draft">Draft</div>`)
}

func TestRender_IsDeterministic(t *testing.T) {
	first := render(t, sampleView())
	second := render(t, sampleView())
	assert.Equal(t, first, second)
}

func TestRender_EscapesUserText(t *testing.T) {
	html := render(t, sampleView())

	assert.Contains(t, html, "Globex &lt;Corp&gt;")
	assert.NotContains(t, html, "Globex <Corp>")
	assert.Contains(t, html, "2025 Week 43 &amp; 44 Salary")
	assert.Contains(t, html, "1 Main St<br>Springfield")
}

func TestRender_PreformattedBlocks(t *testing.T) {
	html := render(t, sampleView())

	assert.Contains(t, html, "<div class=\"bank-details\">IBAN: DE00 1234\nBIC: ABCDEFXX</div>")
	assert.Contains(t, html, "<p>Thank you for your business!</p>")
}

func TestRender_CustomAndDefaultLabels(t *testing.T) {
	view := sampleView()
	html := render(t, view)
	assert.Contains(t, html, "<th>Hours</th>")
	assert.Contains(t, html, "<th>Unit Price</th>")

	view.Issuer.UnitPriceLabel = "Rate"
	html = render(t, view)
	assert.Contains(t, html, "<th>Rate</th>")
}

func TestRender_OptionalPartiesOmitted(t *testing.T) {
	view := sampleView()
	view.Client = nil
	view.Issuer = nil

	html := render(t, view)

	assert.Contains(t, html, `<div class="party-name">N/A</div>`)
	assert.Contains(t, html, "<th>Quantity</th>")
	assert.Contains(t, html, "<th>Unit Price</th>")
	assert.NotContains(t, html, "Bank Details")
	assert.NotContains(t, html, "Tax ID:")
	assert.NotContains(t, html, "<p>")
}

func TestRender_PrintsPersistedTotals(t *testing.T) {
	view := sampleView()
	// totals are never recomputed from the items
	view.Invoice.Total = decimal.RequireFromString("1.23")

	html := render(t, view)
	assert.Contains(t, html, "<span>Total:</span><span>$1.23</span>")
}

func TestRender_CurrencyFollowsInvoice(t *testing.T) {
	view := sampleView()
	view.Invoice.Currency = "EUR"
	html := render(t, view)
	assert.Contains(t, html, "€6,000.00")
	assert.False(t, strings.Contains(html, "$6,000.00"))
}

func TestRender_NilInvoice(t *testing.T) {
	r, err := NewTemplateRenderer()
	require.NoError(t, err)
	_, err = r.Render(InvoiceView{})
	assert.Error(t, err)
}

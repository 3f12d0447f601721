package invoicing

import (
	"errors"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/invoicer/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func validInvoice() *Invoice {
	return &Invoice{
		ID:        "inv-174",
		OwnedBy:   "user-a",
		ClientID:  "client-1",
		Number:    "174",
		IssueDate: time.Date(2025, 10, 31, 0, 0, 0, 0, time.UTC),
		DueDate:   time.Date(2025, 10, 31, 0, 0, 0, 0, time.UTC),
		Items: []LineItem{
			{Description: "Week 43 & 44 Salary", Quantity: d("80"), UnitPrice: d("75")},
		},
		TaxRate:  decimal.Zero,
		Currency: "USD",
		Status:   StatusDraft,
	}
}

func TestComputeTotals(t *testing.T) {
	t.Run("single salary line", func(t *testing.T) {
		totals := ComputeTotals(validInvoice().Items, decimal.Zero)
		assert.Equal(t, "6000.00", totals.Subtotal.StringFixed(2))
		assert.Equal(t, "0.00", totals.Tax.StringFixed(2))
		assert.Equal(t, "6000.00", totals.Total.StringFixed(2))
	})

	t.Run("rounds once after summing", func(t *testing.T) {
		items := []LineItem{
			{Description: "a", Quantity: d("1"), UnitPrice: d("0.333")},
			{Description: "b", Quantity: d("1"), UnitPrice: d("0.333")},
			{Description: "c", Quantity: d("1"), UnitPrice: d("0.333")},
		}
		totals := ComputeTotals(items, decimal.Zero)
		// per-line rounding would give 0.99
		assert.Equal(t, "1.00", totals.Subtotal.StringFixed(2))
	})

	t.Run("total equals subtotal plus tax", func(t *testing.T) {
		items := []LineItem{
			{Description: "a", Quantity: d("3"), UnitPrice: d("19.99")},
			{Description: "b", Quantity: d("0.5"), UnitPrice: d("120.10")},
		}
		totals := ComputeTotals(items, d("8.25"))
		assert.Equal(t, "120.02", totals.Subtotal.StringFixed(2))
		assert.Equal(t, "9.90", totals.Tax.StringFixed(2))
		assert.True(t, totals.Total.Equal(totals.Subtotal.Add(totals.Tax)))

		sum := decimal.Zero
		for _, item := range items {
			sum = sum.Add(item.Total())
		}
		assert.True(t, sum.Round(2).Equal(totals.Subtotal))
	})
}

func TestInvoice_ApplyTotals(t *testing.T) {
	inv := validInvoice()
	inv.TaxRate = d("10")
	inv.ApplyTotals()
	assert.Equal(t, "6000.00", inv.Subtotal.StringFixed(2))
	assert.Equal(t, "600.00", inv.Tax.StringFixed(2))
	assert.Equal(t, "6600.00", inv.Total.StringFixed(2))
}

func TestInvoice_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Invoice)
		wantErr string
	}{
		{name: "valid", mutate: func(*Invoice) {}},
		{name: "missing number", mutate: func(i *Invoice) { i.Number = " " }, wantErr: "number is required"},
		{name: "no items", mutate: func(i *Invoice) { i.Items = nil }, wantErr: "at least one line item"},
		{name: "zero quantity", mutate: func(i *Invoice) { i.Items[0].Quantity = decimal.Zero }, wantErr: "quantity must be at least 0.01"},
		{name: "negative price", mutate: func(i *Invoice) { i.Items[0].UnitPrice = d("-1") }, wantErr: "unit price cannot be negative"},
		{name: "tax over 100", mutate: func(i *Invoice) { i.TaxRate = d("100.5") }, wantErr: "tax rate"},
		{name: "bad currency", mutate: func(i *Invoice) { i.Currency = "ZZZ" }, wantErr: "currency"},
		{name: "short currency", mutate: func(i *Invoice) { i.Currency = "US" }, wantErr: "currency"},
		{name: "bad status", mutate: func(i *Invoice) { i.Status = "void" }, wantErr: "unknown status"},
		{name: "due before issue", mutate: func(i *Invoice) { i.DueDate = i.IssueDate.AddDate(0, 0, -1) }, wantErr: "due date"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := validInvoice()
			tt.mutate(inv)
			err := inv.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, shared.ErrValidation))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestInvoice_CurrencyCode(t *testing.T) {
	inv := validInvoice()
	inv.Currency = " eur "
	assert.Equal(t, "EUR", inv.CurrencyCode())
	inv.Currency = ""
	assert.Equal(t, "USD", inv.CurrencyCode())
}

func TestStorageKey(t *testing.T) {
	assert.Equal(t, "invoices/abc.pdf", StorageKey("abc"))
	assert.Equal(t, StorageKey("abc"), StorageKey("abc"))
}

func TestAttachmentName(t *testing.T) {
	assert.Equal(t, "Invoice-174.pdf", AttachmentName("174"))
	assert.Equal(t, "Invoice-2025-01.pdf", AttachmentName("2025/01"))
	assert.Equal(t, "Invoice-document.pdf", AttachmentName(""))
}

func TestGenerateInvoiceNumber(t *testing.T) {
	now := time.Date(2025, 3, 9, 12, 0, 0, 0, time.UTC)
	n := GenerateInvoiceNumber(now, rand.New(rand.NewPCG(1, 2)))
	assert.Regexp(t, `^INV-202503-\d{4}$`, n)
	assert.Equal(t, "175", SequentialNumber(174, 1))
}

func TestIssuerProfile_MailState(t *testing.T) {
	var nilProfile *IssuerProfile
	assert.Equal(t, MailAwaitingAuthorization, nilProfile.MailState())

	p := &IssuerProfile{PrincipalID: "user-a"}
	assert.Equal(t, MailAwaitingAuthorization, p.MailState())

	p.GmailConnected = true
	p.GmailRefreshToken = "v1.sealed"
	p.GmailEmail = "owner@example.com"
	assert.Equal(t, MailConnected, p.MailState())
	assert.Equal(t, "owner@example.com", p.SenderName())
	assert.Equal(t, "owner@example.com", p.ReplyTo())

	p.CompanyName = "Acme"
	p.CompanyEmail = "billing@acme.test"
	assert.Equal(t, "Acme", p.SenderName())
	assert.Equal(t, "billing@acme.test", p.ReplyTo())
}

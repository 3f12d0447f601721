package models

import (
	"time"

	"github.com/invoicer/backend/internal/domain/invoicing"
	"github.com/shopspring/decimal"
)

// IssuerProfileModel is the GORM model for the issuer_profiles table. One row
// per principal.
type IssuerProfileModel struct {
	PrincipalID        string          `gorm:"column:principal_id;type:varchar(128);primaryKey"`
	CompanyName        string          `gorm:"column:company_name;type:varchar(200)"`
	CompanyAddress     string          `gorm:"column:company_address;type:text"`
	CompanyEmail       string          `gorm:"column:company_email;type:varchar(320)"`
	CompanyPhone       string          `gorm:"column:company_phone;type:varchar(50)"`
	BankDetails        string          `gorm:"column:bank_details;type:text"`
	QuantityLabel      string          `gorm:"column:quantity_label;type:varchar(50)"`
	UnitPriceLabel     string          `gorm:"column:unit_price_label;type:varchar(50)"`
	FooterNote         string          `gorm:"column:footer_note;type:text"`
	InvoiceStartNumber int             `gorm:"column:invoice_start_number;not null;default:1"`
	DefaultTaxRate     decimal.Decimal `gorm:"column:default_tax_rate;type:decimal(5,2);not null;default:0"`
	DefaultCurrency    string          `gorm:"column:default_currency;type:varchar(3);not null;default:'USD'"`
	GmailConnected     bool            `gorm:"column:gmail_connected;not null;default:false"`
	GmailEmail         string          `gorm:"column:gmail_email;type:varchar(320)"`
	GmailRefreshToken  string          `gorm:"column:gmail_refresh_token;type:text"`
	UpdatedAt          time.Time       `gorm:"not null"`
}

// TableName returns the table name for IssuerProfileModel
func (IssuerProfileModel) TableName() string {
	return "issuer_profiles"
}

// ToDomain converts IssuerProfileModel to a domain IssuerProfile
func (m *IssuerProfileModel) ToDomain() *invoicing.IssuerProfile {
	return &invoicing.IssuerProfile{
		PrincipalID:        m.PrincipalID,
		CompanyName:        m.CompanyName,
		CompanyAddress:     m.CompanyAddress,
		CompanyEmail:       m.CompanyEmail,
		CompanyPhone:       m.CompanyPhone,
		BankDetails:        m.BankDetails,
		QuantityLabel:      m.QuantityLabel,
		UnitPriceLabel:     m.UnitPriceLabel,
		FooterNote:         m.FooterNote,
		InvoiceStartNumber: m.InvoiceStartNumber,
		DefaultTaxRate:     m.DefaultTaxRate,
		DefaultCurrency:    m.DefaultCurrency,
		GmailConnected:     m.GmailConnected,
		GmailEmail:         m.GmailEmail,
		GmailRefreshToken:  m.GmailRefreshToken,
		UpdatedAt:          m.UpdatedAt,
	}
}

// IssuerProfileModelFromDomain creates an IssuerProfileModel from a domain IssuerProfile
func IssuerProfileModelFromDomain(p *invoicing.IssuerProfile) *IssuerProfileModel {
	return &IssuerProfileModel{
		PrincipalID:        p.PrincipalID,
		CompanyName:        p.CompanyName,
		CompanyAddress:     p.CompanyAddress,
		CompanyEmail:       p.CompanyEmail,
		CompanyPhone:       p.CompanyPhone,
		BankDetails:        p.BankDetails,
		QuantityLabel:      p.QuantityLabel,
		UnitPriceLabel:     p.UnitPriceLabel,
		FooterNote:         p.FooterNote,
		InvoiceStartNumber: p.InvoiceStartNumber,
		DefaultTaxRate:     p.DefaultTaxRate,
		DefaultCurrency:    p.DefaultCurrency,
		GmailConnected:     p.GmailConnected,
		GmailEmail:         p.GmailEmail,
		GmailRefreshToken:  p.GmailRefreshToken,
		UpdatedAt:          p.UpdatedAt,
	}
}

package invoicing

import (
	"time"

	"github.com/shopspring/decimal"
)

// MailConnectionState tracks where a profile is in the mail authorization flow.
type MailConnectionState string

const (
	MailAwaitingAuthorization MailConnectionState = "awaiting_authorization"
	MailAwaitingCallback      MailConnectionState = "awaiting_callback"
	MailConnected             MailConnectionState = "connected"
)

// IssuerProfile holds the per-principal company settings and the mail
// dispatch connection.
type IssuerProfile struct {
	PrincipalID string

	CompanyName    string
	CompanyAddress string
	CompanyEmail   string
	CompanyPhone   string
	BankDetails    string
	QuantityLabel  string
	UnitPriceLabel string
	FooterNote     string

	InvoiceStartNumber int
	DefaultTaxRate     decimal.Decimal
	DefaultCurrency    string

	GmailConnected bool
	GmailEmail     string
	// GmailRefreshToken is sealed; the domain never sees the plaintext.
	GmailRefreshToken string

	UpdatedAt time.Time
}

// OwnerID implements Ownable
func (p *IssuerProfile) OwnerID() string {
	return p.PrincipalID
}

// MailState derives the connection state from the stored credential. The
// AwaitingCallback phase lives only in the OAuth state store, so a stored
// profile is either connected or awaiting authorization.
func (p *IssuerProfile) MailState() MailConnectionState {
	if p != nil && p.GmailConnected && p.GmailRefreshToken != "" {
		return MailConnected
	}
	return MailAwaitingAuthorization
}

// SenderName is the display name used in the From header.
func (p *IssuerProfile) SenderName() string {
	if p.CompanyName != "" {
		return p.CompanyName
	}
	return p.GmailEmail
}

// ReplyTo is the address replies go to.
func (p *IssuerProfile) ReplyTo() string {
	if p.CompanyEmail != "" {
		return p.CompanyEmail
	}
	return p.GmailEmail
}

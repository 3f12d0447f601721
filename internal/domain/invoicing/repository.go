package invoicing

import (
	"context"
	"time"
)

// InvoiceRepository persists invoices. Only the publish and email fields are
// mutated after creation.
type InvoiceRepository interface {
	FindByID(ctx context.Context, id string) (*Invoice, error)
	Save(ctx context.Context, invoice *Invoice) error
	MarkPublished(ctx context.Context, id, url string, at time.Time) error
	MarkEmailed(ctx context.Context, id, recipient string, at time.Time) error
}

// ClientRepository persists clients.
type ClientRepository interface {
	FindByID(ctx context.Context, id string) (*Client, error)
	Save(ctx context.Context, client *Client) error
}

// IssuerProfileRepository persists issuer settings keyed by principal.
type IssuerProfileRepository interface {
	FindByPrincipal(ctx context.Context, principalID string) (*IssuerProfile, error)
	Save(ctx context.Context, profile *IssuerProfile) error
	// ConnectMail stores a sealed refresh token and mailbox, creating the
	// profile if the principal has none yet.
	ConnectMail(ctx context.Context, principalID, mailbox, sealedToken string, at time.Time) error
	DisconnectMail(ctx context.Context, principalID string, at time.Time) error
}

package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/invoicer/backend/internal/domain/invoicing"
	"github.com/invoicer/backend/internal/domain/shared"
	"github.com/invoicer/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormInvoiceRepository implements invoicing.InvoiceRepository using GORM
type GormInvoiceRepository struct {
	db *gorm.DB
}

// NewGormInvoiceRepository creates a new GormInvoiceRepository
func NewGormInvoiceRepository(db *gorm.DB) *GormInvoiceRepository {
	return &GormInvoiceRepository{db: db}
}

// FindByID finds an invoice by its ID
func (r *GormInvoiceRepository) FindByID(ctx context.Context, id string) (*invoicing.Invoice, error) {
	var model models.InvoiceModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Save creates or replaces the whole invoice row.
func (r *GormInvoiceRepository) Save(ctx context.Context, invoice *invoicing.Invoice) error {
	if invoice == nil || invoice.ID == "" {
		return shared.NewDomainError(shared.CodeValidation, "invoice id is required")
	}
	model := models.InvoiceModelFromDomain(invoice)
	if err := r.db.WithContext(ctx).Save(model).Error; err != nil {
		return err
	}
	invoice.CreatedAt = model.CreatedAt
	invoice.UpdatedAt = model.UpdatedAt
	return nil
}

// MarkPublished records the document URL and generation time. Nothing else
// on the row changes.
func (r *GormInvoiceRepository) MarkPublished(ctx context.Context, id, url string, at time.Time) error {
	return r.update(ctx, id, map[string]any{
		"pdf_url":          url,
		"pdf_generated_at": at,
		"updated_at":       at,
	})
}

// MarkEmailed records the delivery and moves a draft to sent.
func (r *GormInvoiceRepository) MarkEmailed(ctx context.Context, id, recipient string, at time.Time) error {
	return r.update(ctx, id, map[string]any{
		"email_sent_at": at,
		"email_sent_to": recipient,
		"status": gorm.Expr("CASE WHEN status = ? THEN ? ELSE status END",
			string(invoicing.StatusDraft), string(invoicing.StatusSent)),
		"updated_at": at,
	})
}

func (r *GormInvoiceRepository) update(ctx context.Context, id string, columns map[string]any) error {
	result := r.db.WithContext(ctx).
		Model(&models.InvoiceModel{}).
		Where("id = ?", id).
		Updates(columns)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Ensure GormInvoiceRepository implements InvoiceRepository
var _ invoicing.InvoiceRepository = (*GormInvoiceRepository)(nil)

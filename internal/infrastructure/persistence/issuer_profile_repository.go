package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/invoicer/backend/internal/domain/invoicing"
	"github.com/invoicer/backend/internal/domain/shared"
	"github.com/invoicer/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormIssuerProfileRepository implements invoicing.IssuerProfileRepository using GORM
type GormIssuerProfileRepository struct {
	db *gorm.DB
}

// NewGormIssuerProfileRepository creates a new GormIssuerProfileRepository
func NewGormIssuerProfileRepository(db *gorm.DB) *GormIssuerProfileRepository {
	return &GormIssuerProfileRepository{db: db}
}

// FindByPrincipal returns the profile owned by principalID
func (r *GormIssuerProfileRepository) FindByPrincipal(ctx context.Context, principalID string) (*invoicing.IssuerProfile, error) {
	var model models.IssuerProfileModel
	if err := r.db.WithContext(ctx).First(&model, "principal_id = ?", principalID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Save creates or replaces the profile settings. The mail credential columns
// are left alone; they only change through ConnectMail and DisconnectMail.
func (r *GormIssuerProfileRepository) Save(ctx context.Context, profile *invoicing.IssuerProfile) error {
	if profile == nil || profile.PrincipalID == "" {
		return shared.NewDomainError(shared.CodeValidation, "principal id is required")
	}
	model := models.IssuerProfileModelFromDomain(profile)
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "principal_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"company_name", "company_address", "company_email", "company_phone",
			"bank_details", "quantity_label", "unit_price_label", "footer_note",
			"invoice_start_number", "default_tax_rate", "default_currency", "updated_at",
		}),
	}).Create(model).Error
}

// ConnectMail stores the sealed refresh token and mailbox address.
func (r *GormIssuerProfileRepository) ConnectMail(ctx context.Context, principalID, mailbox, sealedToken string, at time.Time) error {
	if principalID == "" || sealedToken == "" {
		return shared.NewDomainError(shared.CodeValidation, "principal id and token are required")
	}
	model := &models.IssuerProfileModel{
		PrincipalID:        principalID,
		InvoiceStartNumber: 1,
		DefaultCurrency:    invoicing.DefaultCurrency,
		GmailConnected:     true,
		GmailEmail:         mailbox,
		GmailRefreshToken:  sealedToken,
		UpdatedAt:          at,
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "principal_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"gmail_connected", "gmail_email", "gmail_refresh_token", "updated_at",
		}),
	}).Create(model).Error
}

// DisconnectMail clears the stored credential. A principal without a profile
// is already disconnected.
func (r *GormIssuerProfileRepository) DisconnectMail(ctx context.Context, principalID string, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.IssuerProfileModel{}).
		Where("principal_id = ?", principalID).
		Updates(map[string]any{
			"gmail_connected":     false,
			"gmail_email":         "",
			"gmail_refresh_token": "",
			"updated_at":          at,
		}).Error
}

var _ invoicing.IssuerProfileRepository = (*GormIssuerProfileRepository)(nil)

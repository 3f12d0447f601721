package persistence

import (
	"context"
	"errors"

	"github.com/invoicer/backend/internal/domain/invoicing"
	"github.com/invoicer/backend/internal/domain/shared"
	"github.com/invoicer/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormClientRepository implements invoicing.ClientRepository using GORM
type GormClientRepository struct {
	db *gorm.DB
}

// NewGormClientRepository creates a new GormClientRepository
func NewGormClientRepository(db *gorm.DB) *GormClientRepository {
	return &GormClientRepository{db: db}
}

// FindByID finds a client by its ID
func (r *GormClientRepository) FindByID(ctx context.Context, id string) (*invoicing.Client, error) {
	var model models.ClientModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Save creates or replaces a client
func (r *GormClientRepository) Save(ctx context.Context, client *invoicing.Client) error {
	if client == nil || client.ID == "" {
		return shared.NewDomainError(shared.CodeValidation, "client id is required")
	}
	model := models.ClientModelFromDomain(client)
	if err := r.db.WithContext(ctx).Save(model).Error; err != nil {
		return err
	}
	client.CreatedAt = model.CreatedAt
	client.UpdatedAt = model.UpdatedAt
	return nil
}

var _ invoicing.ClientRepository = (*GormClientRepository)(nil)

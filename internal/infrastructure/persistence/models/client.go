package models

import "github.com/invoicer/backend/internal/domain/invoicing"

// ClientModel is the GORM model for the clients table
type ClientModel struct {
	ID      string `gorm:"type:varchar(64);primaryKey"`
	OwnedBy string `gorm:"column:owned_by;type:varchar(128);not null;index"`
	Name    string `gorm:"type:varchar(200);not null"`
	Email   string `gorm:"type:varchar(320)"`
	Phone   string `gorm:"type:varchar(50)"`
	Address string `gorm:"type:text"`
	TaxID   string `gorm:"column:tax_id;type:varchar(64)"`
	Notes   string `gorm:"type:text"`
	Timestamps
}

// TableName returns the table name for ClientModel
func (ClientModel) TableName() string {
	return "clients"
}

// ToDomain converts ClientModel to a domain Client
func (m *ClientModel) ToDomain() *invoicing.Client {
	return &invoicing.Client{
		ID:        m.ID,
		OwnedBy:   m.OwnedBy,
		Name:      m.Name,
		Email:     m.Email,
		Phone:     m.Phone,
		Address:   m.Address,
		TaxID:     m.TaxID,
		Notes:     m.Notes,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// ClientModelFromDomain creates a ClientModel from a domain Client
func ClientModelFromDomain(c *invoicing.Client) *ClientModel {
	return &ClientModel{
		ID:      c.ID,
		OwnedBy: c.OwnedBy,
		Name:    c.Name,
		Email:   c.Email,
		Phone:   c.Phone,
		Address: c.Address,
		TaxID:   c.TaxID,
		Notes:   c.Notes,
		Timestamps: Timestamps{
			CreatedAt: c.CreatedAt,
			UpdatedAt: c.UpdatedAt,
		},
	}
}

package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Tenant represents a health-insurance operator account boundary.
// It owns its users, networks and comparisons; deleting a tenant cascades
// over all of them in one transaction.
type Tenant struct {
	ID                  string    `json:"id" gorm:"type:varchar(36);primaryKey"`
	Slug                string    `json:"slug" gorm:"type:varchar(100);uniqueIndex;not null"`
	Name                string    `json:"name" gorm:"type:varchar(100);not null"`
	CNPJ                string    `json:"cnpj" gorm:"type:varchar(20);uniqueIndex;not null"`
	LogoURL             string    `json:"logoUrl" gorm:"type:varchar(255)"`
	Color               string    `json:"color" gorm:"type:varchar(20)"`
	Address             string    `json:"address" gorm:"type:varchar(255)"`
	AddressComplement   string    `json:"addressComplement" gorm:"type:varchar(255)"`
	Neighborhood        string    `json:"neighborhood" gorm:"type:varchar(100)"`
	City                string    `json:"city" gorm:"type:varchar(100)"`
	State               string    `json:"state" gorm:"type:varchar(50)"`
	ZipCode             string    `json:"zipCode" gorm:"type:varchar(20)"`
	Phone               string    `json:"phone" gorm:"type:varchar(30)"`
	IsPremiumSubscriber bool      `json:"isPremiumSubscriber" gorm:"default:false"`
	IsPaused            bool      `json:"isPaused" gorm:"default:false"`
	CreatedAt           time.Time `json:"createdAt"`
	UpdatedAt           time.Time `json:"updatedAt"`
}

func (t *Tenant) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}

// TenantConfig is the public projection of a tenant, safe to expose to an
// unauthenticated client for white-label rendering. It never carries the
// CNPJ, address data or anything beyond branding.
type TenantConfig struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	LogoURL string `json:"logoUrl"`
	Color   string `json:"color"`
	Slug    string `json:"slug"`
}

// Config returns the public projection of the tenant.
func (t *Tenant) Config() TenantConfig {
	return TenantConfig{
		ID:      t.ID,
		Name:    t.Name,
		LogoURL: t.LogoURL,
		Color:   t.Color,
		Slug:    t.Slug,
	}
}

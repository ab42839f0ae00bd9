package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Network is a tenant-scoped provider network used by the comparison
// product. Only the fields the cascade delete needs are modeled here.
type Network struct {
	ID        string    `json:"id" gorm:"type:varchar(36);primaryKey"`
	TenantID  string    `json:"tenantId" gorm:"type:varchar(36);index;not null"`
	Name      string    `json:"name" gorm:"type:varchar(100);not null"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (n *Network) BeforeCreate(tx *gorm.DB) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	return nil
}

// Comparison is a tenant-scoped saved comparison between networks.
type Comparison struct {
	ID        string    `json:"id" gorm:"type:varchar(36);primaryKey"`
	TenantID  string    `json:"tenantId" gorm:"type:varchar(36);index;not null"`
	Title     string    `json:"title" gorm:"type:varchar(150)"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (c *Comparison) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

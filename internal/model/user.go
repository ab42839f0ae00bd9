package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role is the authorization role assigned to a user. ROOT operates above
// the tenant layer; every other role is scoped to exactly one tenant.
type Role string

const (
	RoleRoot    Role = "ROOT"
	RoleAdmin   Role = "ADMIN"
	RoleManager Role = "MANAGER"
	RoleAnalyst Role = "ANALYST"
	RoleViewer  Role = "VIEWER"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleRoot, RoleAdmin, RoleManager, RoleAnalyst, RoleViewer:
		return true
	}
	return false
}

// TenantScoped reports whether the role requires a tenant affiliation.
// A user with a tenant-scoped role must reference an existing tenant;
// only ROOT users may have a nil TenantID.
func (r Role) TenantScoped() bool {
	return r.Valid() && r != RoleRoot
}

// User represents the user model stored in the database.
// The password column holds a bcrypt hash, never plaintext, and is
// excluded from every JSON projection.
type User struct {
	ID        string    `json:"id" gorm:"type:varchar(36);primaryKey"`
	Email     string    `json:"email" gorm:"type:varchar(100);uniqueIndex;not null"`
	Name      string    `json:"name" gorm:"type:varchar(100)"`
	Password  string    `json:"-" gorm:"type:varchar(255)"`
	Role      Role      `json:"role" gorm:"type:varchar(20);not null"`
	TenantID  *string   `json:"tenantId,omitempty" gorm:"type:varchar(36);index"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

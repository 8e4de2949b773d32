package model

import (
	"encoding/json"
	"time"

	"gorm.io/gorm"
)

// TenantUser represents the association between users and tenants
// This enables multi-tenancy by allowing users to belong to multiple tenants,
// with a different role and permission overrides in each
type TenantUser struct {
	ID           uint           `json:"id" gorm:"primaryKey"`
	TenantID     uint           `json:"tenant_id" gorm:"uniqueIndex:idx_tenant_user;not null"`
	UserID       uint           `json:"user_id" gorm:"uniqueIndex:idx_tenant_user;not null"`
	Role         string         `json:"role" gorm:"type:varchar(50);not null;default:'member'"` // 'owner', 'admin', 'manager', 'member', 'viewer'
	CustomRoleID *uint          `json:"custom_role_id,omitempty" gorm:"index"`
	Permissions  string         `json:"permissions" gorm:"type:jsonb;default:'[]'"` // explicit per-user permission overrides
	Active       bool           `json:"active" gorm:"default:true"`
	JoinedAt     time.Time      `json:"joined_at"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	User       User        `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Tenant     Tenant      `json:"tenant,omitempty" gorm:"foreignKey:TenantID"`
	CustomRole *CustomRole `json:"custom_role,omitempty" gorm:"foreignKey:CustomRoleID"`
}

// PermissionOverrides parses the explicit per-user permission codes
func (tu *TenantUser) PermissionOverrides() ([]string, error) {
	if tu.Permissions == "" {
		return nil, nil
	}
	var codes []string
	if err := json.Unmarshal([]byte(tu.Permissions), &codes); err != nil {
		return nil, err
	}
	return codes, nil
}

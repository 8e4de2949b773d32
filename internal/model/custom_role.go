package model

import (
	"encoding/json"
	"time"

	"gorm.io/gorm"
)

// CustomRole is a named, tenant-scoped bag of permission codes
type CustomRole struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	TenantID    uint           `json:"tenant_id" gorm:"uniqueIndex:idx_tenant_role_name;not null"`
	Name        string         `json:"name" gorm:"type:varchar(50);uniqueIndex:idx_tenant_role_name;not null"`
	Permissions string         `json:"permissions" gorm:"type:jsonb;default:'[]'"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`
}

// PermissionCodes parses the role's permission codes
func (r *CustomRole) PermissionCodes() ([]string, error) {
	if r.Permissions == "" {
		return nil, nil
	}
	var codes []string
	if err := json.Unmarshal([]byte(r.Permissions), &codes); err != nil {
		return nil, err
	}
	return codes, nil
}

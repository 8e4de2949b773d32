package model

import (
	"time"

	"gorm.io/gorm"
)

// Tenant represents a customer organization whose data is isolated from other tenants
// This is the core of our multi-tenant architecture
type Tenant struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	Name      string         `json:"name" gorm:"type:varchar(100);uniqueIndex"`
	Domain    *string        `json:"domain,omitempty" gorm:"type:varchar(255);uniqueIndex"` // nil when the tenant has no dedicated domain; NULLs never collide in the unique index
	Active    bool           `json:"active" gorm:"default:true"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

package model

import (
	"time"

	"gorm.io/gorm"
)

// Subscription status values. Lifecycle: trial -> active -> (renewed | expired | cancelled)
const (
	SubscriptionStatusTrial     = "trial"
	SubscriptionStatusActive    = "active"
	SubscriptionStatusCancelled = "cancelled"
	SubscriptionStatusExpired   = "expired"
)

// Subscription binds a tenant to a plan for a time window.
// A tenant has at most one active subscription at a time.
type Subscription struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	TenantID  uint           `json:"tenant_id" gorm:"index;not null"`
	PlanID    uint           `json:"plan_id" gorm:"index;not null"`
	Status    string         `json:"status" gorm:"type:varchar(20);not null;default:'trial'"`
	StartDate time.Time      `json:"start_date"`
	EndDate   *time.Time     `json:"end_date,omitempty"` // nil means open-ended
	AutoRenew bool           `json:"auto_renew" gorm:"default:false"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Plan Plan `json:"plan,omitempty" gorm:"foreignKey:PlanID"`
}

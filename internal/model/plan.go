package model

import (
	"encoding/json"
	"time"
)

// Plan represents a subscription tier defining resource quotas and enabled feature modules.
// Plans are reference data created and updated by platform admins only.
type Plan struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	Name         string    `json:"name" gorm:"type:varchar(50);uniqueIndex"`
	PlanType     string    `json:"plan_type" gorm:"type:varchar(20);not null;default:'free'"` // 'free', 'starter', 'business', 'enterprise'
	MaxUsers     int       `json:"max_users" gorm:"default:0"`                                // 0 means unlimited
	MaxProjects  int       `json:"max_projects" gorm:"default:0"`                             // 0 means unlimited
	Features     string    `json:"features" gorm:"type:jsonb;default:'[]'"`                   // JSON array of enabled module codes
	PriceMinor   int64     `json:"price_minor" gorm:"default:0"`                              // 999 = $9.99
	Currency     string    `json:"currency" gorm:"type:varchar(3);default:'USD'"`
	BillingCycle string    `json:"billing_cycle" gorm:"type:varchar(10);default:'month'"` // 'month' or 'year'
	TrialDays    int       `json:"trial_days" gorm:"default:14"`
	Active       bool      `json:"active" gorm:"default:true"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// FeatureSet parses the plan's Features column into a lookup set
func (p *Plan) FeatureSet() (map[string]bool, error) {
	features := map[string]bool{}
	if p.Features == "" {
		return features, nil
	}
	var codes []string
	if err := json.Unmarshal([]byte(p.Features), &codes); err != nil {
		return nil, err
	}
	for _, code := range codes {
		features[code] = true
	}
	return features, nil
}

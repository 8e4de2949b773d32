package gate

import "time"

// TenantContext is the resolved bundle of tenant, subscription and plan
// facts used to gate a request. It is built once by the subscription
// validator and threaded unchanged through the remaining stages.
type TenantContext struct {
	TenantID           uint
	TenantName         string
	Domain             string
	PlanID             uint
	PlanName           string
	PlanType           string
	MaxUsers           int
	MaxProjects        int
	Features           map[string]bool
	SubscriptionStatus string
	TrialEndsAt        *time.Time
	CachedAt           time.Time
}

// HasFeature reports whether the tenant's plan enables the given module code
func (tc *TenantContext) HasFeature(code string) bool {
	return tc.Features[code]
}

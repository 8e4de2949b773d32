package gate

import (
	"errors"
	"time"

	"erp-service/internal/model"
	"erp-service/internal/store"

	"go.uber.org/zap"
)

// SubscriptionValidator confirms a tenant is active and its subscription
// current, and assembles the TenantContext the rest of the gate runs on.
type SubscriptionValidator struct {
	store store.Store
	log   *zap.Logger
}

// NewSubscriptionValidator creates a validator over the given store
func NewSubscriptionValidator(s store.Store, log *zap.Logger) *SubscriptionValidator {
	return &SubscriptionValidator{store: s, log: log}
}

// Validate resolves and checks the tenant, subscription and plan records.
// The result is what the tenant context cache memoizes.
func (v *SubscriptionValidator) Validate(tenantID uint) (*TenantContext, *Error) {
	tenant, err := v.store.GetTenant(tenantID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, notFound(CodeTenantNotFound, "tenant not found")
		}
		v.log.Error("tenant lookup failed", zap.Uint("tenant_id", tenantID), zap.Error(err))
		return nil, internal(CodeInternalError, "failed to resolve tenant")
	}

	if !tenant.Active {
		return nil, forbidden(CodeTenantInactive, "tenant account is deactivated")
	}

	sub, err := v.store.GetActiveSubscription(tenantID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, forbidden(CodeNoSubscription, "tenant has no subscription")
		}
		v.log.Error("subscription lookup failed", zap.Uint("tenant_id", tenantID), zap.Error(err))
		return nil, internal(CodeInternalError, "failed to resolve subscription")
	}

	if sub.Status != model.SubscriptionStatusActive && sub.Status != model.SubscriptionStatusTrial {
		return nil, forbidden(CodeSubscriptionInactive, "subscription is "+sub.Status)
	}

	// An end date strictly in the past lapses the subscription regardless of status
	if sub.EndDate != nil && sub.EndDate.Before(time.Now()) {
		return nil, forbidden(CodeSubscriptionExpired, "subscription expired on "+sub.EndDate.Format("2006-01-02"))
	}

	plan, err := v.store.GetPlan(sub.PlanID)
	if err != nil {
		// A subscription referencing a missing plan is a data-integrity fault,
		// reported as a server error rather than a caller error
		v.log.Error("subscription references missing plan",
			zap.Uint("tenant_id", tenantID),
			zap.Uint("subscription_id", sub.ID),
			zap.Uint("plan_id", sub.PlanID),
			zap.Error(err))
		return nil, internal(CodePlanMissing, "plan configuration error")
	}

	features, err := plan.FeatureSet()
	if err != nil {
		v.log.Error("plan has malformed feature set",
			zap.Uint("plan_id", plan.ID),
			zap.Error(err))
		return nil, internal(CodePlanMissing, "plan configuration error")
	}

	domain := ""
	if tenant.Domain != nil {
		domain = *tenant.Domain
	}

	tc := &TenantContext{
		TenantID:           tenant.ID,
		TenantName:         tenant.Name,
		Domain:             domain,
		PlanID:             plan.ID,
		PlanName:           plan.Name,
		PlanType:           plan.PlanType,
		MaxUsers:           plan.MaxUsers,
		MaxProjects:        plan.MaxProjects,
		Features:           features,
		SubscriptionStatus: sub.Status,
		CachedAt:           time.Now(),
	}
	if sub.Status == model.SubscriptionStatusTrial {
		tc.TrialEndsAt = sub.EndDate
	}

	return tc, nil
}

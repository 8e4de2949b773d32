package gate

import (
	"fmt"
	"net/http"
	"strings"

	"erp-service/internal/store"

	"go.uber.org/zap"
)

// featureModules maps gated path prefixes to the plan feature code that
// must be present for any access to the subtree
var featureModules = map[string]string{
	"/api/crm":       "crm",
	"/api/hrm":       "hrm",
	"/api/inventory": "inventory",
	"/api/invoices":  "invoicing",
	"/api/events":    "events",
}

// limitTargets maps create paths to the quota they consume
var limitTargets = map[string]string{
	"/api/tenant-users": "users",
	"/api/projects":     "projects",
}

// PlanLimitEnforcer blocks mutations that would exceed the plan's quotas
// and any access to feature modules the plan does not include.
type PlanLimitEnforcer struct {
	store store.Store
	log   *zap.Logger
}

// NewPlanLimitEnforcer creates an enforcer over the given store
func NewPlanLimitEnforcer(s store.Store, log *zap.Logger) *PlanLimitEnforcer {
	return &PlanLimitEnforcer{store: s, log: log}
}

// Check enforces feature entitlement for the path and, on create requests,
// the plan quota for the targeted resource. Reads are never quota-blocked.
// Counts are live store queries at check time; a max of 0 means unlimited.
func (e *PlanLimitEnforcer) Check(tc *TenantContext, method, path string) *Error {
	for prefix, code := range featureModules {
		if strings.HasPrefix(path, prefix) && !tc.HasFeature(code) {
			return forbidden(CodeFeatureNotAvailable,
				fmt.Sprintf("the %s module is not available on the %s plan", code, tc.PlanName))
		}
	}

	if method != http.MethodPost {
		return nil
	}

	for prefix, resource := range limitTargets {
		if !strings.HasPrefix(path, prefix) {
			continue
		}
		switch resource {
		case "users":
			if tc.MaxUsers <= 0 {
				return nil
			}
			count, err := e.store.CountActiveTenantUsers(tc.TenantID)
			if err != nil {
				e.log.Error("user count failed", zap.Uint("tenant_id", tc.TenantID), zap.Error(err))
				return internal(CodeInternalError, "failed to check plan limits")
			}
			if count >= int64(tc.MaxUsers) {
				return forbidden(CodeLimitExceeded,
					fmt.Sprintf("user limit reached (%d/%d), upgrade your plan to add more users", count, tc.MaxUsers))
			}
		case "projects":
			if tc.MaxProjects <= 0 {
				return nil
			}
			count, err := e.store.CountProjects(tc.TenantID)
			if err != nil {
				e.log.Error("project count failed", zap.Uint("tenant_id", tc.TenantID), zap.Error(err))
				return internal(CodeInternalError, "failed to check plan limits")
			}
			if count >= int64(tc.MaxProjects) {
				return forbidden(CodeLimitExceeded,
					fmt.Sprintf("project limit reached (%d/%d), upgrade your plan to add more projects", count, tc.MaxProjects))
			}
		}
	}

	return nil
}

package gate

import "net/http"

// Error codes returned by the gate in rejection bodies
const (
	CodeMissingTenant        = "missing_tenant"
	CodeInvalidTenantHeader  = "invalid_tenant_header"
	CodeTenantNotFound       = "tenant_not_found"
	CodeTenantInactive       = "tenant_inactive"
	CodeNoSubscription       = "no_subscription"
	CodeSubscriptionInactive = "subscription_inactive"
	CodeSubscriptionExpired  = "subscription_expired"
	CodeLimitExceeded        = "limit_exceeded"
	CodeFeatureNotAvailable  = "feature_not_available"
	CodePermissionDenied     = "permission_denied"
	CodePlanMissing          = "plan_missing"
	CodeInternalError        = "internal_error"
)

// Error is a gate stage rejection. Stages return it instead of raising;
// the gate middleware short-circuits on the first non-nil Error.
type Error struct {
	Status int    `json:"-"`
	Code   string `json:"error_code"`
	Detail string `json:"detail"`
}

func (e *Error) Error() string {
	return e.Code + ": " + e.Detail
}

func badRequest(code, detail string) *Error {
	return &Error{Status: http.StatusBadRequest, Code: code, Detail: detail}
}

func notFound(code, detail string) *Error {
	return &Error{Status: http.StatusNotFound, Code: code, Detail: detail}
}

func forbidden(code, detail string) *Error {
	return &Error{Status: http.StatusForbidden, Code: code, Detail: detail}
}

func internal(code, detail string) *Error {
	return &Error{Status: http.StatusInternalServerError, Code: code, Detail: detail}
}

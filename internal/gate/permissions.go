package gate

import (
	"errors"
	"sort"

	"erp-service/internal/store"

	"go.uber.org/zap"
)

// RoleOwner is the distinguished role held by the tenant's owner
const RoleOwner = "owner"

// Permission codes. Stable strings; referenced by fixed roles, custom
// roles and per-user overrides alike.
const (
	PermManageTenant    = "manage_tenant"
	PermManageUsers     = "manage_users"
	PermManageRoles     = "manage_roles"
	PermManageBilling   = "manage_billing"
	PermManageProjects  = "manage_projects"
	PermViewProjects    = "view_projects"
	PermManageCRM       = "manage_crm"
	PermViewCRM         = "view_crm"
	PermManageHRM       = "manage_hrm"
	PermViewHRM         = "view_hrm"
	PermManageInventory = "manage_inventory"
	PermViewInventory   = "view_inventory"
	PermManageInvoices  = "manage_invoices"
	PermViewInvoices    = "view_invoices"
	PermViewReports     = "view_reports"
)

var allPermissions = []string{
	PermManageTenant, PermManageUsers, PermManageRoles, PermManageBilling,
	PermManageProjects, PermViewProjects,
	PermManageCRM, PermViewCRM,
	PermManageHRM, PermViewHRM,
	PermManageInventory, PermViewInventory,
	PermManageInvoices, PermViewInvoices,
	PermViewReports,
}

// rolePermissions is the fixed role -> implied permission codes mapping
var rolePermissions = map[string][]string{
	RoleOwner: allPermissions,
	"admin": {
		PermManageUsers, PermManageRoles,
		PermManageProjects, PermViewProjects,
		PermManageCRM, PermViewCRM,
		PermManageHRM, PermViewHRM,
		PermManageInventory, PermViewInventory,
		PermManageInvoices, PermViewInvoices,
		PermViewReports,
	},
	"manager": {
		PermManageProjects, PermViewProjects,
		PermManageCRM, PermViewCRM,
		PermViewReports,
	},
	"member": {
		PermViewProjects, PermViewCRM, PermViewHRM,
		PermViewInventory, PermViewInvoices,
	},
	"viewer": {
		PermViewProjects, PermViewCRM, PermViewHRM,
		PermViewInventory, PermViewInvoices, PermViewReports,
	},
}

// UserPermissions is the effective permission set for a (user, tenant) pair
type UserPermissions struct {
	Role        string
	IsOwner     bool
	Permissions map[string]bool
}

// Has reports whether the set contains the given permission code
func (up *UserPermissions) Has(code string) bool {
	return up.Permissions[code]
}

// Codes returns the permission codes as a sorted slice
func (up *UserPermissions) Codes() []string {
	codes := make([]string, 0, len(up.Permissions))
	for code := range up.Permissions {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// PermissionResolver computes effective permissions from role, custom role
// and per-user overrides. Always derived fresh so role edits take effect
// immediately; the tenant context cache never holds per-user results.
type PermissionResolver struct {
	store store.Store
	log   *zap.Logger
}

// NewPermissionResolver creates a resolver over the given store
func NewPermissionResolver(s store.Store, log *zap.Logger) *PermissionResolver {
	return &PermissionResolver{store: s, log: log}
}

// Resolve returns the effective permission set for the user in the tenant.
// A user with no active standing in the tenant gets an empty set.
func (r *PermissionResolver) Resolve(userID, tenantID uint) (*UserPermissions, error) {
	up := &UserPermissions{Permissions: map[string]bool{}}

	tu, err := r.store.GetTenantUser(tenantID, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return up, nil
		}
		return nil, err
	}
	if !tu.Active {
		return up, nil
	}

	up.Role = tu.Role
	up.IsOwner = tu.Role == RoleOwner

	for _, code := range rolePermissions[tu.Role] {
		up.Permissions[code] = true
	}

	if tu.CustomRoleID != nil {
		role, err := r.store.GetCustomRole(tenantID, *tu.CustomRoleID)
		if err != nil {
			// A dangling custom role reference narrows the set rather than
			// failing the request
			r.log.Warn("custom role lookup failed",
				zap.Uint("tenant_id", tenantID),
				zap.Uint("custom_role_id", *tu.CustomRoleID),
				zap.Error(err))
		} else {
			codes, err := role.PermissionCodes()
			if err != nil {
				r.log.Warn("custom role has malformed permissions",
					zap.Uint("custom_role_id", role.ID), zap.Error(err))
			}
			for _, code := range codes {
				up.Permissions[code] = true
			}
		}
	}

	overrides, err := tu.PermissionOverrides()
	if err != nil {
		r.log.Warn("tenant user has malformed permission overrides",
			zap.Uint("tenant_user_id", tu.ID), zap.Error(err))
	}
	for _, code := range overrides {
		up.Permissions[code] = true
	}

	return up, nil
}

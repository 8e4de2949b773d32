package gate

import (
	"erp-service/internal/model"
	"erp-service/internal/store"
)

type tenantUserKey struct {
	tenantID uint
	userID   uint
}

// fakeStore is an in-memory Store with per-method call counting, used to
// verify what the gate stages read and how often
type fakeStore struct {
	tenants       map[uint]*model.Tenant
	subscriptions map[uint]*model.Subscription
	plans         map[uint]*model.Plan
	tenantUsers   map[tenantUserKey]*model.TenantUser
	customRoles   map[uint]*model.CustomRole
	userCounts    map[uint]int64
	projectCounts map[uint]int64
	calls         map[string]int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		tenants:       map[uint]*model.Tenant{},
		subscriptions: map[uint]*model.Subscription{},
		plans:         map[uint]*model.Plan{},
		tenantUsers:   map[tenantUserKey]*model.TenantUser{},
		customRoles:   map[uint]*model.CustomRole{},
		userCounts:    map[uint]int64{},
		projectCounts: map[uint]int64{},
		calls:         map[string]int{},
	}
}

func (f *fakeStore) GetTenant(id uint) (*model.Tenant, error) {
	f.calls["GetTenant"]++
	if t, ok := f.tenants[id]; ok {
		return t, nil
	}
	return nil, store.ErrNotFound
}

func (f *fakeStore) GetActiveSubscription(tenantID uint) (*model.Subscription, error) {
	f.calls["GetActiveSubscription"]++
	if s, ok := f.subscriptions[tenantID]; ok {
		return s, nil
	}
	return nil, store.ErrNotFound
}

func (f *fakeStore) GetPlan(id uint) (*model.Plan, error) {
	f.calls["GetPlan"]++
	if p, ok := f.plans[id]; ok {
		return p, nil
	}
	return nil, store.ErrNotFound
}

func (f *fakeStore) GetTenantUser(tenantID, userID uint) (*model.TenantUser, error) {
	f.calls["GetTenantUser"]++
	if tu, ok := f.tenantUsers[tenantUserKey{tenantID, userID}]; ok {
		return tu, nil
	}
	return nil, store.ErrNotFound
}

func (f *fakeStore) GetCustomRole(tenantID, id uint) (*model.CustomRole, error) {
	f.calls["GetCustomRole"]++
	if r, ok := f.customRoles[id]; ok && r.TenantID == tenantID {
		return r, nil
	}
	return nil, store.ErrNotFound
}

func (f *fakeStore) CountActiveTenantUsers(tenantID uint) (int64, error) {
	f.calls["CountActiveTenantUsers"]++
	return f.userCounts[tenantID], nil
}

func (f *fakeStore) CountProjects(tenantID uint) (int64, error) {
	f.calls["CountProjects"]++
	return f.projectCounts[tenantID], nil
}

package store

import (
	"errors"

	"erp-service/internal/model"

	"gorm.io/gorm"
)

// ErrNotFound is returned when a lookup matches no row
var ErrNotFound = errors.New("record not found")

// Store abstracts the row lookups and counts the request gate performs.
// Handlers keep using the global gorm instance directly; the gate goes
// through this interface so its stages can be tested against fakes.
type Store interface {
	GetTenant(id uint) (*model.Tenant, error)
	GetActiveSubscription(tenantID uint) (*model.Subscription, error)
	GetPlan(id uint) (*model.Plan, error)
	GetTenantUser(tenantID, userID uint) (*model.TenantUser, error)
	GetCustomRole(tenantID, id uint) (*model.CustomRole, error)
	CountActiveTenantUsers(tenantID uint) (int64, error)
	CountProjects(tenantID uint) (int64, error)
}

// GormStore is the database-backed Store implementation
type GormStore struct {
	db *gorm.DB
}

// NewGormStore creates a Store backed by the given gorm instance
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) GetTenant(id uint) (*model.Tenant, error) {
	var tenant model.Tenant
	if err := s.db.First(&tenant, id).Error; err != nil {
		return nil, mapNotFound(err)
	}
	return &tenant, nil
}

// GetActiveSubscription returns the tenant's most recent subscription
func (s *GormStore) GetActiveSubscription(tenantID uint) (*model.Subscription, error) {
	var sub model.Subscription
	err := s.db.Where("tenant_id = ?", tenantID).Order("created_at DESC").First(&sub).Error
	if err != nil {
		return nil, mapNotFound(err)
	}
	return &sub, nil
}

func (s *GormStore) GetPlan(id uint) (*model.Plan, error) {
	var plan model.Plan
	if err := s.db.First(&plan, id).Error; err != nil {
		return nil, mapNotFound(err)
	}
	return &plan, nil
}

func (s *GormStore) GetTenantUser(tenantID, userID uint) (*model.TenantUser, error) {
	var tu model.TenantUser
	err := s.db.Where("tenant_id = ? AND user_id = ?", tenantID, userID).First(&tu).Error
	if err != nil {
		return nil, mapNotFound(err)
	}
	return &tu, nil
}

func (s *GormStore) GetCustomRole(tenantID, id uint) (*model.CustomRole, error) {
	var role model.CustomRole
	err := s.db.Where("tenant_id = ? AND id = ?", tenantID, id).First(&role).Error
	if err != nil {
		return nil, mapNotFound(err)
	}
	return &role, nil
}

func (s *GormStore) CountActiveTenantUsers(tenantID uint) (int64, error) {
	var count int64
	err := s.db.Model(&model.TenantUser{}).Where("tenant_id = ? AND active = ?", tenantID, true).Count(&count).Error
	return count, err
}

func (s *GormStore) CountProjects(tenantID uint) (int64, error) {
	var count int64
	err := s.db.Model(&model.Project{}).Where("tenant_id = ?", tenantID).Count(&count).Error
	return count, err
}

func mapNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

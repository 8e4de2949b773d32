package store

import (
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockStore(t *testing.T) (*GormStore, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	t.Cleanup(func() { db.Close() })

	gdb, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 db,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open gorm over the mock connection: %v", err)
	}

	return NewGormStore(gdb), mock
}

func TestGetTenant(t *testing.T) {
	s, mock := newMockStore(t)

	rows := sqlmock.NewRows([]string{"id", "name", "domain", "active", "created_at", "updated_at", "deleted_at"}).
		AddRow(1, "Acme", "acme.example.com", true, time.Now(), time.Now(), nil)
	mock.ExpectQuery(`SELECT \* FROM "tenants"`).WillReturnRows(rows)

	tenant, err := s.GetTenant(1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tenant.ID != 1 || tenant.Name != "Acme" || !tenant.Active {
		t.Errorf("unexpected tenant: %+v", tenant)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestGetTenantNotFound(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT \* FROM "tenants"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "domain", "active"}))

	_, err := s.GetTenant(99)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGetActiveSubscription(t *testing.T) {
	s, mock := newMockStore(t)

	end := time.Now().Add(30 * 24 * time.Hour)
	rows := sqlmock.NewRows([]string{"id", "tenant_id", "plan_id", "status", "start_date", "end_date", "auto_renew"}).
		AddRow(100, 1, 10, "active", time.Now().Add(-time.Hour), end, true)
	mock.ExpectQuery(`SELECT \* FROM "subscriptions"`).WillReturnRows(rows)

	sub, err := s.GetActiveSubscription(1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sub.Status != "active" || sub.PlanID != 10 {
		t.Errorf("unexpected subscription: %+v", sub)
	}
}

func TestCountActiveTenantUsers(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "tenant_users"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	count, err := s.CountActiveTenantUsers(1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 3 {
		t.Errorf("expected 3, got %d", count)
	}
}

func TestCountProjects(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "projects"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(5))

	count, err := s.CountProjects(1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 5 {
		t.Errorf("expected 5, got %d", count)
	}
}

package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"erp-service/internal/gate"
	"erp-service/pkg/database"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockDB(t *testing.T) sqlmock.Sqlmock {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}

	gdb, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 db,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open gorm over the mock connection: %v", err)
	}

	prev := database.DB
	database.DB = gdb
	t.Cleanup(func() {
		database.DB = prev
		db.Close()
	})
	return mock
}

func newTenantScopedContext(t *testing.T, method, path, body string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set(gate.ContextKeyTenant, &gate.TenantContext{TenantID: 1, TenantName: "Acme"})
	return c, rec
}

func TestAddTenantUserRevivesRemovedMember(t *testing.T) {
	mock := newMockDB(t)

	mock.ExpectQuery(`SELECT \* FROM "users"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email"}).AddRow(9, "rejoin@example.com"))

	// A soft-deleted association still occupies the (tenant_id, user_id)
	// unique index; the handler must update it, not insert a duplicate
	removedAt := time.Now().Add(-time.Hour)
	mock.ExpectQuery(`SELECT \* FROM "tenant_users"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "tenant_id", "user_id", "role", "active", "deleted_at"}).
			AddRow(55, 1, 9, "member", false, removedAt))

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "tenant_users"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	c, rec := newTenantScopedContext(t, http.MethodPost, "/api/tenant-users",
		`{"user_email":"rejoin@example.com","role":"member"}`)

	if err := AddTenantUser(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestAddTenantUserUpdatesExistingMemberRole(t *testing.T) {
	mock := newMockDB(t)

	mock.ExpectQuery(`SELECT \* FROM "users"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email"}).AddRow(9, "member@example.com"))

	mock.ExpectQuery(`SELECT \* FROM "tenant_users"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "tenant_id", "user_id", "role", "active"}).
			AddRow(55, 1, 9, "member", true))

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "tenant_users"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	c, rec := newTenantScopedContext(t, http.MethodPost, "/api/tenant-users",
		`{"user_email":"member@example.com","role":"manager"}`)

	if err := AddTenantUser(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

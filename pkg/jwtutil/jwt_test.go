package jwtutil

import (
	"testing"

	"erp-service/pkg/config"
)

func initTestConfig() {
	Initialize(&config.JWTConfig{
		SigningKey:      "test-signing-key",
		ExpirationHours: 1,
	})
}

func TestGenerateAndValidateToken(t *testing.T) {
	initTestConfig()

	token, err := GenerateToken("user@example.com", 7)
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}

	claims, err := ValidateToken(token)
	if err != nil {
		t.Fatalf("failed to validate token: %v", err)
	}
	if claims.UserID != 7 || claims.Email != "user@example.com" {
		t.Errorf("unexpected claims: %+v", claims)
	}
	if claims.TenantID != nil {
		t.Error("plain token should carry no tenant claim")
	}
}

func TestTenantScopedToken(t *testing.T) {
	initTestConfig()

	tenantID := uint(42)
	token, err := GenerateTokenWithTenant("user@example.com", 7, &tenantID, "Acme", "admin")
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}

	claims, err := ValidateToken(token)
	if err != nil {
		t.Fatalf("failed to validate token: %v", err)
	}
	if claims.TenantID == nil || *claims.TenantID != 42 {
		t.Errorf("tenant claim wrong: %+v", claims.TenantID)
	}
	if claims.TenantName != "Acme" || claims.Role != "admin" {
		t.Errorf("unexpected tenant claims: %+v", claims)
	}
}

func TestValidateRejectsTamperedToken(t *testing.T) {
	initTestConfig()

	token, err := GenerateToken("user@example.com", 7)
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}

	if _, err := ValidateToken(token + "x"); err == nil {
		t.Error("tampered token should not validate")
	}
}

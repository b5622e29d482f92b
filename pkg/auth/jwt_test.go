package auth

import (
	"testing"
	"time"
)

func TestGenerateJWT(t *testing.T) {
	userID := 1
	email := "test@example.com"
	role := RoleUser
	secret := "test-secret-key-minimum-32-characters-long"
	expirationHours := 24

	token, err := GenerateJWT(userID, email, role, secret, expirationHours)
	if err != nil {
		t.Fatalf("Failed to generate JWT: %v", err)
	}

	if token == "" {
		t.Error("Token should not be empty")
	}

	if len(token) < 10 {
		t.Error("Token seems too short")
	}
}

func TestValidateJWT(t *testing.T) {
	userID := 123
	email := "test@example.com"
	role := RoleAdmin
	secret := "test-secret-key-minimum-32-characters-long"
	expirationHours := 24

	token, err := GenerateJWT(userID, email, role, secret, expirationHours)
	if err != nil {
		t.Fatalf("Failed to generate JWT: %v", err)
	}

	claims, err := ValidateJWT(token, secret)
	if err != nil {
		t.Fatalf("Failed to validate JWT: %v", err)
	}

	if claims.UserID != userID {
		t.Errorf("Expected UserID %d, got %d", userID, claims.UserID)
	}

	if claims.Email != email {
		t.Errorf("Expected Email %s, got %s", email, claims.Email)
	}

	if claims.Role != role {
		t.Errorf("Expected Role %s, got %s", role, claims.Role)
	}
}

func TestValidateJWT_WrongSecret(t *testing.T) {
	secret := "test-secret-key-minimum-32-characters-long"

	token, err := GenerateJWT(1, "test@example.com", RoleUser, secret, 24)
	if err != nil {
		t.Fatalf("Failed to generate JWT: %v", err)
	}

	_, err = ValidateJWT(token, "a-completely-different-secret-value-here")
	if err == nil {
		t.Error("Expected validation to fail with wrong secret")
	}
}

func TestValidateJWT_Expired(t *testing.T) {
	secret := "test-secret-key-minimum-32-characters-long"

	// Negative expiration produces an already-expired token.
	token, err := GenerateJWT(1, "test@example.com", RoleUser, secret, -1)
	if err != nil {
		t.Fatalf("Failed to generate JWT: %v", err)
	}

	_, err = ValidateJWT(token, secret)
	if err == nil {
		t.Error("Expected validation to fail for expired token")
	}
}

func TestValidateJWT_Garbage(t *testing.T) {
	_, err := ValidateJWT("not.a.token", "test-secret-key-minimum-32-characters-long")
	if err == nil {
		t.Error("Expected validation to fail for malformed token")
	}
}

func TestValidateJWT_ExpirationIsSet(t *testing.T) {
	secret := "test-secret-key-minimum-32-characters-long"

	token, err := GenerateJWT(1, "test@example.com", RoleUser, secret, 2)
	if err != nil {
		t.Fatalf("Failed to generate JWT: %v", err)
	}

	claims, err := ValidateJWT(token, secret)
	if err != nil {
		t.Fatalf("Failed to validate JWT: %v", err)
	}

	remaining := time.Until(claims.ExpiresAt.Time)
	if remaining < time.Hour || remaining > 2*time.Hour {
		t.Errorf("Expected roughly 2h until expiration, got %v", remaining)
	}
}

package utils

import (
	"testing"

	"github.com/google/uuid"
	"github.com/refhub/backend/internal/models"
)

func configureJWTForTest(t *testing.T, secret string, expirationHours int) {
	t.Helper()

	originalSecret := append([]byte(nil), jwtSecret...)
	originalExpiration := jwtExpirationHours

	t.Cleanup(func() {
		jwtSecret = originalSecret
		jwtExpirationHours = originalExpiration
	})

	ConfigureJWT(secret, expirationHours)
}

func TestConfigureJWT(t *testing.T) {
	t.Run("updates secret and expiration when valid values are provided", func(t *testing.T) {
		configureJWTForTest(t, "test-secret", 72)

		if got := string(jwtSecret); got != "test-secret" {
			t.Fatalf("expected jwt secret to be %q, got %q", "test-secret", got)
		}
		if jwtExpirationHours != 72 {
			t.Fatalf("expected jwt expiration to be %d, got %d", 72, jwtExpirationHours)
		}
	})

	t.Run("ignores empty secret and non-positive expiration", func(t *testing.T) {
		configureJWTForTest(t, "initial-secret", 24)

		ConfigureJWT("", 0)

		if got := string(jwtSecret); got != "initial-secret" {
			t.Fatalf("expected jwt secret to remain %q, got %q", "initial-secret", got)
		}
		if jwtExpirationHours != 24 {
			t.Fatalf("expected jwt expiration to remain %d, got %d", 24, jwtExpirationHours)
		}
	})
}

func TestGenerateAndValidateToken(t *testing.T) {
	configureJWTForTest(t, "roundtrip-secret", 1)

	user := &models.User{
		BaseModel: models.BaseModel{ID: uuid.New()},
		Email:     "user@example.com",
		Username:  "user",
	}

	token, err := GenerateToken(user)
	if err != nil {
		t.Fatalf("failed generating token: %v", err)
	}

	claims, err := ValidateToken(token)
	if err != nil {
		t.Fatalf("failed validating token: %v", err)
	}
	if claims.UserID != user.ID {
		t.Fatalf("expected user id %s in claims, got %s", user.ID, claims.UserID)
	}
	if claims.Email != user.Email {
		t.Fatalf("expected email %q in claims, got %q", user.Email, claims.Email)
	}
}

func TestValidateTokenRejectsTampering(t *testing.T) {
	configureJWTForTest(t, "first-secret", 1)

	user := &models.User{BaseModel: models.BaseModel{ID: uuid.New()}, Email: "user@example.com"}
	token, err := GenerateToken(user)
	if err != nil {
		t.Fatalf("failed generating token: %v", err)
	}

	ConfigureJWT("second-secret", 1)
	if _, err := ValidateToken(token); err == nil {
		t.Fatal("expected validation to fail after secret rotation")
	}

	if _, err := ValidateToken("not.a.token"); err == nil {
		t.Fatal("expected validation to fail for garbage input")
	}
}

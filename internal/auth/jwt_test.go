package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/yourorg/teamchat/realtime-service/internal/apperr"
)

const testSecret = "unit-test-secret"

func signToken(t *testing.T, secret, userID string, expiresAt time.Time) string {
	t.Helper()
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return s
}

func TestVerifyRoundTrip(t *testing.T) {
	v := NewVerifier(testSecret)
	token := signToken(t, testSecret, "u1", time.Now().Add(time.Hour))

	userID, err := v.Verify(token)
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if userID != "u1" {
		t.Errorf("expected user u1, got %q", userID)
	}
}

func TestVerifyEmptyToken(t *testing.T) {
	v := NewVerifier(testSecret)
	if _, err := v.Verify(""); !errors.Is(err, apperr.ErrMissingCredential) {
		t.Errorf("expected ErrMissingCredential, got %v", err)
	}
}

func TestVerifyWrongSecret(t *testing.T) {
	v := NewVerifier(testSecret)
	token := signToken(t, "other-secret", "u1", time.Now().Add(time.Hour))
	if _, err := v.Verify(token); !errors.Is(err, apperr.ErrInvalidCredential) {
		t.Errorf("expected ErrInvalidCredential, got %v", err)
	}
}

func TestVerifyExpiredToken(t *testing.T) {
	v := NewVerifier(testSecret)
	token := signToken(t, testSecret, "u1", time.Now().Add(-time.Minute))
	if _, err := v.Verify(token); !errors.Is(err, apperr.ErrInvalidCredential) {
		t.Errorf("expected ErrInvalidCredential, got %v", err)
	}
}

func TestVerifyMissingUserID(t *testing.T) {
	v := NewVerifier(testSecret)
	token := signToken(t, testSecret, "", time.Now().Add(time.Hour))
	if _, err := v.Verify(token); !errors.Is(err, apperr.ErrInvalidCredential) {
		t.Errorf("expected ErrInvalidCredential, got %v", err)
	}
}

func TestVerifyRejectsUnsignedToken(t *testing.T) {
	v := NewVerifier(testSecret)
	claims := Claims{UserID: "u1"}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none token: %v", err)
	}
	if _, err := v.Verify(token); !errors.Is(err, apperr.ErrInvalidCredential) {
		t.Errorf("expected ErrInvalidCredential, got %v", err)
	}
}

func TestVerifyGarbage(t *testing.T) {
	v := NewVerifier(testSecret)
	if _, err := v.Verify("not.a.jwt"); !errors.Is(err, apperr.ErrInvalidCredential) {
		t.Errorf("expected ErrInvalidCredential, got %v", err)
	}
}

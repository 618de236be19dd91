package services

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/caffeinepub/ace8win-3/internal/config"
	"github.com/caffeinepub/ace8win-3/internal/models"
)

func newTestSessionService(t *testing.T) *SessionService {
	t.Helper()
	cfg := &config.Config{
		RedisURL: "localhost:6379",
		RedisDB:  15, // test database
	}
	service, err := NewSessionService(cfg)
	if err != nil {
		t.Skipf("Redis not available, skipping: %v", err)
	}
	return service
}

func TestSessionLifecycle(t *testing.T) {
	service := newTestSessionService(t)
	defer service.Close()

	session := &models.UserSession{
		Principal: "test-principal",
		SessionID: models.GenerateSessionID(),
		CreatedAt: time.Now(),
	}

	if err := service.StoreSession(session, time.Minute); err != nil {
		t.Fatalf("StoreSession failed: %v", err)
	}

	got, err := service.GetSession(session.Principal, session.SessionID)
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if got.Principal != session.Principal {
		t.Errorf("Expected principal %s, got %s", session.Principal, got.Principal)
	}
	if got.LastAccessed.IsZero() {
		t.Error("GetSession should touch LastAccessed")
	}

	if err := service.DeleteSession(session.Principal, session.SessionID); err != nil {
		t.Fatalf("DeleteSession failed: %v", err)
	}
	if _, err := service.GetSession(session.Principal, session.SessionID); err == nil {
		t.Error("Deleted session should not be retrievable")
	}
}

func TestRateLimit(t *testing.T) {
	service := newTestSessionService(t)
	defer service.Close()

	principal := models.Principal(models.GenerateSessionID())
	defer service.ClearRateLimit(principal, "submit_payment")

	for i := 0; i < RateLimitSubmit; i++ {
		allowed, err := service.CheckRateLimit(principal, "submit_payment", RateLimitSubmit, time.Minute)
		if err != nil {
			t.Fatalf("CheckRateLimit failed: %v", err)
		}
		if !allowed {
			t.Fatalf("Request %d should be allowed", i+1)
		}
	}

	allowed, err := service.CheckRateLimit(principal, "submit_payment", RateLimitSubmit, time.Minute)
	if err != nil {
		t.Fatalf("CheckRateLimit failed: %v", err)
	}
	if allowed {
		t.Error("Request over the limit should be refused")
	}
}

func TestJWTRoundTrip(t *testing.T) {
	cfg := &config.Config{
		JWTSecret:      "test-secret",
		JWTIssuer:      "test-issuer",
		IdentitySecret: "test-identity-secret",
		SessionTTL:     time.Hour,
	}
	service := NewJWTService(cfg)

	token, err := service.IssueSessionToken("test-principal", "session-1")
	if err != nil {
		t.Fatalf("IssueSessionToken failed: %v", err)
	}

	claims, err := service.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken failed: %v", err)
	}
	if claims.Principal != "test-principal" || claims.SessionID != "session-1" {
		t.Errorf("Unexpected claims: %+v", claims)
	}

	if _, err := service.ValidateToken(token + "tampered"); err == nil {
		t.Error("Tampered token should fail validation")
	}

	other := NewJWTService(&config.Config{
		JWTSecret:      "other-secret",
		JWTIssuer:      "test-issuer",
		IdentitySecret: "test-identity-secret",
		SessionTTL:     time.Hour,
	})
	if _, err := other.ValidateToken(token); err == nil {
		t.Error("Token signed with a different secret should fail")
	}
}

func TestVerifyIdentityAssertion(t *testing.T) {
	cfg := &config.Config{
		JWTSecret:      "test-secret",
		JWTIssuer:      "test-issuer",
		IdentitySecret: "test-identity-secret",
		SessionTTL:     time.Hour,
	}
	service := NewJWTService(cfg)

	assertion, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "test-principal",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
	}).SignedString([]byte(cfg.IdentitySecret))
	if err != nil {
		t.Fatalf("Signing assertion failed: %v", err)
	}

	principal, err := service.VerifyIdentityAssertion(assertion)
	if err != nil {
		t.Fatalf("VerifyIdentityAssertion failed: %v", err)
	}
	if principal != "test-principal" {
		t.Errorf("Expected test-principal, got %s", principal)
	}

	forged, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject: "test-principal",
	}).SignedString([]byte("wrong-secret"))
	if _, err := service.VerifyIdentityAssertion(forged); err == nil {
		t.Error("Assertion signed with the wrong secret should fail")
	}

	anonymous, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{}).
		SignedString([]byte(cfg.IdentitySecret))
	if _, err := service.VerifyIdentityAssertion(anonymous); err == nil {
		t.Error("Assertion without a subject should fail")
	}
}

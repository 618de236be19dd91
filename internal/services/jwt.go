package services

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/caffeinepub/ace8win-3/internal/config"
	"github.com/caffeinepub/ace8win-3/internal/models"
)

type SessionClaims struct {
	Principal string `json:"principal"`
	SessionID string `json:"session_id"`
	jwt.RegisteredClaims
}

// JWTService verifies identity-provider assertions and mints app session
// tokens. The identity provider signs an assertion whose subject is the
// caller's principal; this service is the only place that trusts it.
type JWTService struct {
	sessionSecret  []byte
	identitySecret []byte
	issuer         string
	ttl            time.Duration
}

func NewJWTService(cfg *config.Config) *JWTService {
	return &JWTService{
		sessionSecret:  []byte(cfg.JWTSecret),
		identitySecret: []byte(cfg.IdentitySecret),
		issuer:         cfg.JWTIssuer,
		ttl:            cfg.SessionTTL,
	}
}

// VerifyIdentityAssertion checks a signed assertion from the identity
// provider and extracts the principal it vouches for.
func (s *JWTService) VerifyIdentityAssertion(assertion string) (models.Principal, error) {
	token, err := jwt.ParseWithClaims(assertion, &jwt.RegisteredClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return s.identitySecret, nil
	})
	if err != nil {
		return "", fmt.Errorf("invalid identity assertion: %v", err)
	}
	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || !token.Valid || claims.Subject == "" {
		return "", fmt.Errorf("identity assertion carries no principal")
	}
	return models.Principal(claims.Subject), nil
}

func (s *JWTService) IssueSessionToken(principal models.Principal, sessionID string) (string, error) {
	now := time.Now().UTC()
	claims := SessionClaims{
		Principal: principal.String(),
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   principal.String(),
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.sessionSecret)
}

func (s *JWTService) ValidateToken(tokenString string) (*SessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return s.sessionSecret, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}

package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Env  string
	Port string

	RedisURL  string
	RedisPass string
	RedisDB   int

	JWTSecret      string
	JWTIssuer      string
	IdentitySecret string
	SessionTTL     time.Duration

	// AuthorityURL empty means the in-process authority (local development).
	AuthorityURL    string
	AuthorityAPIKey string

	// AdminPrincipal is granted the admin role on the in-process authority.
	AdminPrincipal string

	UpiID string
}

func Load() (*Config, error) {
	return &Config{
		Env:             getenv("ENV", "development"),
		Port:            getenv("PORT", "8080"),
		RedisURL:        getenv("REDIS_URL", "localhost:6379"),
		RedisPass:       getenv("REDIS_PASS", ""),
		RedisDB:         getenvInt("REDIS_DB", 0),
		JWTSecret:       getenv("JWT_SECRET", "dev-secret"),
		JWTIssuer:       getenv("JWT_ISSUER", "ace8win-client"),
		IdentitySecret:  getenv("IDENTITY_SECRET", "dev-identity-secret"),
		SessionTTL:      getenvDuration("SESSION_TTL", 24*time.Hour),
		AuthorityURL:    getenv("AUTHORITY_URL", ""),
		AuthorityAPIKey: getenv("AUTHORITY_API_KEY", ""),
		AdminPrincipal:  getenv("ADMIN_PRINCIPAL", ""),
		UpiID:           getenv("UPI_ID", "ace8zonereal@ptyes"),
	}, nil
}

func getenv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
	}
	return fallback
}

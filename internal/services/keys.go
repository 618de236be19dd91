package services

import (
	"fmt"
	"time"

	"github.com/caffeinepub/ace8win-3/internal/models"
)

// Cache key roots. Keys are hierarchical: invalidating a root invalidates
// every key beneath it (root + ":" + suffix).
const (
	KeyMatches         = "matches"
	KeyParticipants    = "participants"
	KeyTransactions    = "transactions"
	KeyPaymentStatus   = "paymentStatus"
	KeyPendingPayments = "pendingPayments"
	KeyProfile         = "profile"
	KeyAllProfiles     = "allProfiles"
	KeyIsAdmin         = "isAdmin"
	KeyRole            = "role"
)

// Freshness windows. Frequently changing aggregates go time-stale and are
// refetched on the next read; everything else is invalidated only by events.
const (
	TTLMatches       = 10 * time.Second
	TTLParticipants  = 5 * time.Second
	TTLPaymentStatus = 5 * time.Second
	TTLNone          = time.Duration(0)
)

// Redis session storage.
const (
	KeySession      = "session:%s:%s"
	KeyRateLimit    = "ratelimit:%s:%s"
	TTLUserSession  = 24 * time.Hour
	RateLimitSubmit = 5 // payment submissions per minute
)

func ParticipantsKey(matchID string) string {
	return fmt.Sprintf("%s:%s", KeyParticipants, matchID)
}

func TransactionsKey(user models.Principal) string {
	return fmt.Sprintf("%s:%s", KeyTransactions, user)
}

func PaymentStatusKey(user models.Principal) string {
	return fmt.Sprintf("%s:%s", KeyPaymentStatus, user)
}

func PendingPaymentKey(user models.Principal) string {
	return fmt.Sprintf("%s:%s", KeyPendingPayments, user)
}

func ProfileKey(user models.Principal) string {
	return fmt.Sprintf("%s:%s", KeyProfile, user)
}

func IsAdminKey(user models.Principal) string {
	return fmt.Sprintf("%s:%s", KeyIsAdmin, user)
}

func RoleKey(user models.Principal) string {
	return fmt.Sprintf("%s:%s", KeyRole, user)
}

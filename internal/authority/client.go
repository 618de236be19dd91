// Package authority defines the remote procedure surface of the platform
// backend and the client implementations used to reach it. The backend is
// treated as a trusted, strongly consistent authority: every call is atomic
// and its result is durable. The caller credential travels implicitly in the
// context (see the identity package); admin operations additionally name an
// explicit target principal.
package authority

import (
	"context"
	"time"

	"github.com/caffeinepub/ace8win-3/internal/blob"
	"github.com/caffeinepub/ace8win-3/internal/models"
)

type Client interface {
	// Caller profile and registration.
	GetCallerUserProfile(ctx context.Context) (*models.UserProfile, error)
	SaveCallerUserProfile(ctx context.Context, profile models.UserProfile) error
	RegisterUser(ctx context.Context, gameUID, gameName, phoneNumber string, refundQr []byte) error

	// Matches.
	GetAllMatches(ctx context.Context) ([]models.Match, error)
	CreateMatch(ctx context.Context, name string, startTime time.Time, duration time.Duration, paymentAmount int64) error
	GetMatchParticipants(ctx context.Context, matchID string) ([]models.PlayerInfo, error)
	JoinMatch(ctx context.Context, matchID string) error

	// Payments.
	SubmitPayment(ctx context.Context, matchID string, amount int64, proof *blob.Blob) error
	GetPaymentStatus(ctx context.Context, user models.Principal) (models.PaymentStatus, error)
	GetPayment(ctx context.Context, user models.Principal) (*models.Payment, error)
	ApprovePayment(ctx context.Context, user models.Principal, matchID string) error
	RejectPayment(ctx context.Context, user models.Principal, matchID string) error

	// Transactions.
	GetTransactionHistory(ctx context.Context, user models.Principal) ([]models.Transaction, error)

	// Roles.
	GetCallerUserRole(ctx context.Context) (models.UserRole, error)
	IsCallerAdmin(ctx context.Context) (bool, error)
	AssignCallerUserRole(ctx context.Context, user models.Principal, role models.UserRole) error
	PromoteToUser(ctx context.Context, user models.Principal) error

	// Admin user management.
	GetAllUserProfiles(ctx context.Context) ([]models.ProfileRecord, error)
	GetUserProfile(ctx context.Context, user models.Principal) (*models.UserProfile, error)
	UpdateUserProfile(ctx context.Context, user models.Principal, gameUID, gameName, phoneNumber string, refundQr []byte) error
	DeleteUser(ctx context.Context, user models.Principal) error

	// Server-side validation mirror.
	IsValidPhoneNumber(ctx context.Context, phoneNumber string) (bool, error)
}

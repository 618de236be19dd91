package services

import (
	"context"
	"time"

	"github.com/caffeinepub/ace8win-3/internal/authority"
	"github.com/caffeinepub/ace8win-3/internal/blob"
	"github.com/caffeinepub/ace8win-3/internal/identity"
	"github.com/caffeinepub/ace8win-3/internal/models"
	"github.com/caffeinepub/ace8win-3/internal/policy"
)

// Mutations is the write side: fire the remote call, await its result, then
// invalidate exactly the cache keys it can affect. No optimistic local
// update is ever applied, so a failed call leaves nothing to roll back.
type Mutations struct {
	store       *SyncStore
	client      authority.Client
	broadcaster Broadcaster
}

func NewMutations(store *SyncStore, client authority.Client) *Mutations {
	return &Mutations{store: store, client: client}
}

// SetBroadcaster attaches the live-update hub. Optional; nil means no push.
func (m *Mutations) SetBroadcaster(b Broadcaster) {
	m.broadcaster = b
}

func (m *Mutations) Register(ctx context.Context, gameUID, gameName, phoneNumber string, refundQr []byte) error {
	if err := policy.ValidateRegistration(gameUID, gameName, phoneNumber, refundQr); err != nil {
		return err
	}
	caller := identity.PrincipalFrom(ctx)
	return m.store.Mutate(ctx, func(ctx context.Context) error {
		return m.client.RegisterUser(ctx, gameUID, gameName, phoneNumber, refundQr)
	}, ProfileKey(caller))
}

func (m *Mutations) SaveProfile(ctx context.Context, profile models.UserProfile) error {
	if err := policy.ValidatePhoneNumber(profile.PhoneNumber); err != nil {
		return err
	}
	caller := identity.PrincipalFrom(ctx)
	return m.store.Mutate(ctx, func(ctx context.Context) error {
		return m.client.SaveCallerUserProfile(ctx, profile)
	}, ProfileKey(caller))
}

func (m *Mutations) CreateMatch(ctx context.Context, name string, startTime time.Time, duration time.Duration, paymentAmount int64) error {
	if name == "" {
		return &policy.ValidationError{Field: "name", Msg: "is required"}
	}
	if paymentAmount <= 0 {
		return &policy.ValidationError{Field: "payment_amount", Msg: "must be positive"}
	}
	err := m.store.Mutate(ctx, func(ctx context.Context) error {
		return m.client.CreateMatch(ctx, name, startTime, duration, paymentAmount)
	}, KeyMatches)
	if err == nil && m.broadcaster != nil {
		m.broadcaster.BroadcastMatchesChanged()
	}
	return err
}

func (m *Mutations) JoinMatch(ctx context.Context, matchID string) error {
	caller := identity.PrincipalFrom(ctx)
	err := m.store.Mutate(ctx, func(ctx context.Context) error {
		return m.client.JoinMatch(ctx, matchID)
	}, KeyMatches, ParticipantsKey(matchID), TransactionsKey(caller), PaymentStatusKey(caller))
	if err == nil && m.broadcaster != nil {
		m.broadcaster.BroadcastParticipantsChanged(matchID)
	}
	return err
}

// SubmitPayment uploads the proof and records the payment. The transaction
// history and payment status keys are invalidated only once the authority
// confirms.
func (m *Mutations) SubmitPayment(ctx context.Context, matchID string, amount int64, proof *blob.Blob) error {
	if proof == nil || (proof.Size() == 0 && proof.DirectURL() == "") {
		return &policy.ValidationError{Field: "proof", Msg: "payment proof screenshot is required"}
	}
	caller := identity.PrincipalFrom(ctx)
	return m.store.Mutate(ctx, func(ctx context.Context) error {
		return m.client.SubmitPayment(ctx, matchID, amount, proof)
	}, TransactionsKey(caller), PaymentStatusKey(caller))
}

func (m *Mutations) ApprovePayment(ctx context.Context, user models.Principal, matchID string) error {
	err := m.store.Mutate(ctx, func(ctx context.Context) error {
		return m.client.ApprovePayment(ctx, user, matchID)
	}, KeyPendingPayments, KeyParticipants, KeyMatches, TransactionsKey(user), PaymentStatusKey(user))
	if err == nil && m.broadcaster != nil {
		m.broadcaster.BroadcastParticipantsChanged(matchID)
	}
	return err
}

func (m *Mutations) RejectPayment(ctx context.Context, user models.Principal, matchID string) error {
	return m.store.Mutate(ctx, func(ctx context.Context) error {
		return m.client.RejectPayment(ctx, user, matchID)
	}, KeyPendingPayments, TransactionsKey(user), PaymentStatusKey(user))
}

func (m *Mutations) UpdateProfile(ctx context.Context, user models.Principal, gameUID, gameName, phoneNumber string, refundQr []byte) error {
	if err := policy.ValidatePhoneNumber(phoneNumber); err != nil {
		return err
	}
	return m.store.Mutate(ctx, func(ctx context.Context) error {
		return m.client.UpdateUserProfile(ctx, user, gameUID, gameName, phoneNumber, refundQr)
	}, KeyAllProfiles, ProfileKey(user))
}

func (m *Mutations) DeleteUser(ctx context.Context, user models.Principal) error {
	return m.store.Mutate(ctx, func(ctx context.Context) error {
		return m.client.DeleteUser(ctx, user)
	}, KeyAllProfiles, ProfileKey(user))
}

func (m *Mutations) AssignRole(ctx context.Context, user models.Principal, role models.UserRole) error {
	return m.store.Mutate(ctx, func(ctx context.Context) error {
		return m.client.AssignCallerUserRole(ctx, user, role)
	}, RoleKey(user), IsAdminKey(user), KeyAllProfiles)
}

func (m *Mutations) PromoteToUser(ctx context.Context, user models.Principal) error {
	return m.store.Mutate(ctx, func(ctx context.Context) error {
		return m.client.PromoteToUser(ctx, user)
	}, RoleKey(user), IsAdminKey(user), KeyAllProfiles)
}

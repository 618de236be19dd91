package services

import (
	"context"

	"github.com/caffeinepub/ace8win-3/internal/authority"
	"github.com/caffeinepub/ace8win-3/internal/identity"
	"github.com/caffeinepub/ace8win-3/internal/models"
)

// Queries is the typed read-through layer over the sync store. Every read
// goes through a cache key; identity-scoped reads collapse to an empty
// result without touching the authority when the context has no principal.
// Authority unavailability also degrades to an empty, unconfirmed result
// rather than an error, so views can render a neutral state.
type Queries struct {
	store  *SyncStore
	client authority.Client
}

func NewQueries(store *SyncStore, client authority.Client) *Queries {
	return &Queries{store: store, client: client}
}

// degrade maps transient unavailability onto "not fetched yet".
func degrade(err error) (bool, error) {
	if err == nil {
		return true, nil
	}
	if authority.IsUnavailable(err) {
		return false, nil
	}
	return true, err
}

// CallerProfile returns the caller's profile, nil meaning "confirmed
// unregistered" only when fetched is true. The registration gate depends on
// that distinction.
func (q *Queries) CallerProfile(ctx context.Context) (profile *models.UserProfile, fetched bool, err error) {
	p := identity.PrincipalFrom(ctx)
	if p.IsAnonymous() {
		return nil, false, nil
	}
	snap := q.store.Read(ctx, ProfileKey(p), TTLNone, func(ctx context.Context) (any, error) {
		return q.client.GetCallerUserProfile(ctx)
	})
	fetched, err = degrade(snap.Err)
	if err != nil || !fetched {
		return nil, fetched, err
	}
	profile, _ = snap.Data.(*models.UserProfile)
	return profile, true, nil
}

func (q *Queries) Matches(ctx context.Context) ([]models.Match, error) {
	snap := q.store.Read(ctx, KeyMatches, TTLMatches, func(ctx context.Context) (any, error) {
		return q.client.GetAllMatches(ctx)
	})
	if _, err := degrade(snap.Err); err != nil {
		return nil, err
	}
	matches, _ := snap.Data.([]models.Match)
	return matches, nil
}

// MatchByID resolves a single match from the cached match list.
func (q *Queries) MatchByID(ctx context.Context, matchID string) (*models.Match, error) {
	matches, err := q.Matches(ctx)
	if err != nil {
		return nil, err
	}
	for i := range matches {
		if matches[i].ID == matchID {
			return &matches[i], nil
		}
	}
	return nil, nil
}

func (q *Queries) Participants(ctx context.Context, matchID string) ([]models.PlayerInfo, error) {
	snap := q.store.Read(ctx, ParticipantsKey(matchID), TTLParticipants, func(ctx context.Context) (any, error) {
		return q.client.GetMatchParticipants(ctx, matchID)
	})
	if _, err := degrade(snap.Err); err != nil {
		return nil, err
	}
	players, _ := snap.Data.([]models.PlayerInfo)
	return players, nil
}

func (q *Queries) Transactions(ctx context.Context, user models.Principal) ([]models.Transaction, error) {
	if user.IsAnonymous() {
		return nil, nil
	}
	snap := q.store.Read(ctx, TransactionsKey(user), TTLNone, func(ctx context.Context) (any, error) {
		return q.client.GetTransactionHistory(ctx, user)
	})
	if _, err := degrade(snap.Err); err != nil {
		return nil, err
	}
	txs, _ := snap.Data.([]models.Transaction)
	return txs, nil
}

// PaymentStatus returns "" when the user has no payment on record.
func (q *Queries) PaymentStatus(ctx context.Context, user models.Principal) (models.PaymentStatus, error) {
	if user.IsAnonymous() {
		return "", nil
	}
	snap := q.store.Read(ctx, PaymentStatusKey(user), TTLPaymentStatus, func(ctx context.Context) (any, error) {
		status, err := q.client.GetPaymentStatus(ctx, user)
		if authority.IsNotFound(err) {
			return models.PaymentStatus(""), nil
		}
		return status, err
	})
	if _, err := degrade(snap.Err); err != nil {
		return "", err
	}
	status, _ := snap.Data.(models.PaymentStatus)
	return status, nil
}

func (q *Queries) Payment(ctx context.Context, user models.Principal) (*models.Payment, error) {
	if user.IsAnonymous() {
		return nil, nil
	}
	snap := q.store.Read(ctx, PendingPaymentKey(user), TTLPaymentStatus, func(ctx context.Context) (any, error) {
		payment, err := q.client.GetPayment(ctx, user)
		if authority.IsNotFound(err) {
			return (*models.Payment)(nil), nil
		}
		return payment, err
	})
	if _, err := degrade(snap.Err); err != nil {
		return nil, err
	}
	payment, _ := snap.Data.(*models.Payment)
	return payment, nil
}

// IsAdmin reports the caller's admin standing and whether the role query has
// actually resolved. Role gates must not grant or deny until resolved.
func (q *Queries) IsAdmin(ctx context.Context) (isAdmin, resolved bool, err error) {
	p := identity.PrincipalFrom(ctx)
	if p.IsAnonymous() {
		return false, false, nil
	}
	snap := q.store.Read(ctx, IsAdminKey(p), TTLNone, func(ctx context.Context) (any, error) {
		return q.client.IsCallerAdmin(ctx)
	})
	resolved, err = degrade(snap.Err)
	if err != nil || !resolved {
		return false, resolved, err
	}
	isAdmin, _ = snap.Data.(bool)
	return isAdmin, true, nil
}

// Role is fetched fresh per session; a cached value never survives a
// logout/login cycle because the store is cleared on logout.
func (q *Queries) Role(ctx context.Context) (models.UserRole, bool, error) {
	p := identity.PrincipalFrom(ctx)
	if p.IsAnonymous() {
		return models.RoleGuest, false, nil
	}
	snap := q.store.Read(ctx, RoleKey(p), TTLNone, func(ctx context.Context) (any, error) {
		return q.client.GetCallerUserRole(ctx)
	})
	resolved, err := degrade(snap.Err)
	if err != nil || !resolved {
		return models.RoleGuest, resolved, err
	}
	role, _ := snap.Data.(models.UserRole)
	return role, true, nil
}

func (q *Queries) AllProfiles(ctx context.Context) ([]models.ProfileRecord, error) {
	snap := q.store.Read(ctx, KeyAllProfiles, TTLNone, func(ctx context.Context) (any, error) {
		return q.client.GetAllUserProfiles(ctx)
	})
	if _, err := degrade(snap.Err); err != nil {
		return nil, err
	}
	records, _ := snap.Data.([]models.ProfileRecord)
	return records, nil
}

package authority

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/caffeinepub/ace8win-3/internal/blob"
	"github.com/caffeinepub/ace8win-3/internal/identity"
	"github.com/caffeinepub/ace8win-3/internal/models"
)

// Memory is an in-process authority. It enforces the same invariants the
// remote backend does (one pending payment per user and match, monotonic
// participants, roles derived only from principal) so it can stand in for it
// deterministically in tests and in local development.
type Memory struct {
	mu           sync.Mutex
	admins       map[models.Principal]bool
	profiles     map[models.Principal]models.UserProfile
	profileOrder []models.Principal
	matches      map[string]*models.Match
	matchOrder   []string
	payments     map[string]*models.Payment // keyed by user+matchID
	lastPayment  map[models.Principal]*models.Payment
	transactions []models.Transaction
}

func NewMemory() *Memory {
	return &Memory{
		admins:      make(map[models.Principal]bool),
		profiles:    make(map[models.Principal]models.UserProfile),
		matches:     make(map[string]*models.Match),
		payments:    make(map[string]*models.Payment),
		lastPayment: make(map[models.Principal]*models.Payment),
	}
}

// SeedAdmin grants admin to a principal. Role assignment is an authority
// decision; this is its stand-in.
func (m *Memory) SeedAdmin(p models.Principal) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.admins[p] = true
}

func paymentKey(user models.Principal, matchID string) string {
	return string(user) + "|" + matchID
}

func caller(ctx context.Context) (models.Principal, error) {
	p := identity.PrincipalFrom(ctx)
	if p.IsAnonymous() {
		return "", ErrUnavailable
	}
	return p, nil
}

func (m *Memory) requireAdmin(ctx context.Context, op string) (models.Principal, error) {
	p, err := caller(ctx)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	isAdmin := m.admins[p]
	m.mu.Unlock()
	if !isAdmin {
		return "", &CallError{Op: op, Err: fmt.Errorf("caller %s is not an admin", p)}
	}
	return p, nil
}

func (m *Memory) GetCallerUserProfile(ctx context.Context) (*models.UserProfile, error) {
	p, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	profile, ok := m.profiles[p]
	if !ok {
		return nil, nil
	}
	return &profile, nil
}

func (m *Memory) SaveCallerUserProfile(ctx context.Context, profile models.UserProfile) error {
	p, err := caller(ctx)
	if err != nil {
		return err
	}
	if ok, _ := m.IsValidPhoneNumber(ctx, profile.PhoneNumber); !ok {
		return &CallError{Op: "saveCallerUserProfile", Err: fmt.Errorf("invalid phone number %q", profile.PhoneNumber)}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.profiles[p]; !ok {
		m.profileOrder = append(m.profileOrder, p)
	}
	m.profiles[p] = profile
	return nil
}

func (m *Memory) RegisterUser(ctx context.Context, gameUID, gameName, phoneNumber string, refundQr []byte) error {
	p, err := caller(ctx)
	if err != nil {
		return err
	}
	if ok, _ := m.IsValidPhoneNumber(ctx, phoneNumber); !ok {
		return &CallError{Op: "registerUser", Err: fmt.Errorf("invalid phone number %q", phoneNumber)}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.profiles[p]; ok {
		return &CallError{Op: "registerUser", Err: fmt.Errorf("principal %s is already registered", p)}
	}
	m.profiles[p] = models.UserProfile{
		GameUID:     gameUID,
		GameName:    gameName,
		PhoneNumber: phoneNumber,
		RefundQr:    refundQr,
	}
	m.profileOrder = append(m.profileOrder, p)
	return nil
}

func (m *Memory) GetAllMatches(ctx context.Context) ([]models.Match, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Match, 0, len(m.matchOrder))
	for _, id := range m.matchOrder {
		out = append(out, *m.matches[id])
	}
	return out, nil
}

func (m *Memory) CreateMatch(ctx context.Context, name string, startTime time.Time, duration time.Duration, paymentAmount int64) error {
	if _, err := m.requireAdmin(ctx, "createMatch"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	match := &models.Match{
		ID:            models.GenerateMatchID(),
		Name:          name,
		StartTime:     startTime,
		Duration:      duration,
		PaymentAmount: paymentAmount,
		Status:        models.MatchUpcoming,
	}
	m.matches[match.ID] = match
	m.matchOrder = append(m.matchOrder, match.ID)
	return nil
}

func (m *Memory) GetMatchParticipants(ctx context.Context, matchID string) ([]models.PlayerInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	match, ok := m.matches[matchID]
	if !ok {
		return nil, fmt.Errorf("match %s: %w", matchID, ErrNotFound)
	}
	out := make([]models.PlayerInfo, len(match.JoinedPlayers))
	copy(out, match.JoinedPlayers)
	return out, nil
}

// JoinMatch records the caller as a participant. Membership is a set:
// joining twice never removes or duplicates an entry.
func (m *Memory) JoinMatch(ctx context.Context, matchID string) error {
	p, err := caller(ctx)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	match, ok := m.matches[matchID]
	if !ok {
		return fmt.Errorf("match %s: %w", matchID, ErrNotFound)
	}
	profile, ok := m.profiles[p]
	if !ok {
		return &CallError{Op: "joinMatch", Err: fmt.Errorf("principal %s has no profile", p)}
	}
	if !match.HasParticipant(p) {
		match.Participants = append(match.Participants, p)
		match.JoinedPlayers = append(match.JoinedPlayers, models.PlayerInfo{
			PlayerID:            string(p),
			RegistrationDetails: profile,
		})
	}
	return nil
}

func (m *Memory) SubmitPayment(ctx context.Context, matchID string, amount int64, proof *blob.Blob) error {
	p, err := caller(ctx)
	if err != nil {
		return err
	}
	proofURL := proof.DirectURL()
	if proofURL == "" {
		// Consuming the bytes is the upload; progress observers fire here.
		data, err := proof.Bytes()
		if err != nil {
			return &CallError{Op: "submitPayment", Err: err}
		}
		proofURL = fmt.Sprintf("mem://proof/%s/%s/%d", p, matchID, len(data))
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.matches[matchID]; !ok {
		return fmt.Errorf("match %s: %w", matchID, ErrNotFound)
	}
	key := paymentKey(p, matchID)
	if existing, ok := m.payments[key]; ok && existing.Status == models.PaymentPending {
		return &CallError{Op: "submitPayment", Err: fmt.Errorf("payment for match %s is already pending", matchID)}
	}
	payment := &models.Payment{
		Status:         models.PaymentPending,
		SubmissionTime: time.Now(),
		ProofURL:       proofURL,
		Amount:         amount,
	}
	m.payments[key] = payment
	m.lastPayment[p] = payment
	m.transactions = append(m.transactions, models.Transaction{
		ID:            models.GenerateTransactionID(),
		Time:          payment.SubmissionTime,
		User:          p,
		MatchID:       matchID,
		Amount:        amount,
		PaymentStatus: models.PaymentPending,
	})
	return nil
}

func (m *Memory) GetPaymentStatus(ctx context.Context, user models.Principal) (models.PaymentStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	payment, ok := m.lastPayment[user]
	if !ok {
		return "", fmt.Errorf("payment for %s: %w", user, ErrNotFound)
	}
	return payment.Status, nil
}

func (m *Memory) GetPayment(ctx context.Context, user models.Principal) (*models.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	payment, ok := m.lastPayment[user]
	if !ok {
		return nil, fmt.Errorf("payment for %s: %w", user, ErrNotFound)
	}
	out := *payment
	return &out, nil
}

// ApprovePayment moves a pending payment to approved and admits the payer to
// the match. Participant membership only ever grows.
func (m *Memory) ApprovePayment(ctx context.Context, user models.Principal, matchID string) error {
	if _, err := m.requireAdmin(ctx, "approvePayment"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	payment, ok := m.payments[paymentKey(user, matchID)]
	if !ok {
		return fmt.Errorf("payment for %s on match %s: %w", user, matchID, ErrNotFound)
	}
	if payment.Status != models.PaymentPending {
		return &CallError{Op: "approvePayment", Err: fmt.Errorf("payment is %s, not pending", payment.Status)}
	}
	payment.Status = models.PaymentApproved
	m.setTransactionStatus(user, matchID, models.PaymentApproved)
	if match, ok := m.matches[matchID]; ok && !match.HasParticipant(user) {
		match.Participants = append(match.Participants, user)
		match.JoinedPlayers = append(match.JoinedPlayers, models.PlayerInfo{
			PlayerID:            string(user),
			RegistrationDetails: m.profiles[user],
		})
	}
	return nil
}

func (m *Memory) RejectPayment(ctx context.Context, user models.Principal, matchID string) error {
	if _, err := m.requireAdmin(ctx, "rejectPayment"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	payment, ok := m.payments[paymentKey(user, matchID)]
	if !ok {
		return fmt.Errorf("payment for %s on match %s: %w", user, matchID, ErrNotFound)
	}
	if payment.Status != models.PaymentPending {
		return &CallError{Op: "rejectPayment", Err: fmt.Errorf("payment is %s, not pending", payment.Status)}
	}
	payment.Status = models.PaymentRejected
	m.setTransactionStatus(user, matchID, models.PaymentRejected)
	return nil
}

// setTransactionStatus updates the newest transaction for the pair. Caller
// holds the lock.
func (m *Memory) setTransactionStatus(user models.Principal, matchID string, status models.PaymentStatus) {
	for i := len(m.transactions) - 1; i >= 0; i-- {
		tx := &m.transactions[i]
		if tx.User == user && tx.MatchID == matchID {
			tx.PaymentStatus = status
			return
		}
	}
}

func (m *Memory) GetTransactionHistory(ctx context.Context, user models.Principal) ([]models.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Transaction
	for _, tx := range m.transactions {
		if tx.User == user {
			out = append(out, tx)
		}
	}
	return out, nil
}

func (m *Memory) GetCallerUserRole(ctx context.Context) (models.UserRole, error) {
	p, err := caller(ctx)
	if err != nil {
		return models.RoleGuest, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	switch {
	case m.admins[p]:
		return models.RoleAdmin, nil
	default:
		if _, ok := m.profiles[p]; ok {
			return models.RoleUser, nil
		}
		return models.RoleGuest, nil
	}
}

func (m *Memory) IsCallerAdmin(ctx context.Context) (bool, error) {
	p, err := caller(ctx)
	if err != nil {
		return false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.admins[p], nil
}

func (m *Memory) AssignCallerUserRole(ctx context.Context, user models.Principal, role models.UserRole) error {
	if _, err := m.requireAdmin(ctx, "assignCallerUserRole"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if role == models.RoleAdmin {
		m.admins[user] = true
	} else {
		delete(m.admins, user)
	}
	return nil
}

func (m *Memory) PromoteToUser(ctx context.Context, user models.Principal) error {
	if _, err := m.requireAdmin(ctx, "promoteToUser"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.admins, user)
	return nil
}

func (m *Memory) GetAllUserProfiles(ctx context.Context) ([]models.ProfileRecord, error) {
	if _, err := m.requireAdmin(ctx, "getAllUserProfiles"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.ProfileRecord, 0, len(m.profileOrder))
	for _, p := range m.profileOrder {
		out = append(out, models.ProfileRecord{User: p, Profile: m.profiles[p]})
	}
	return out, nil
}

func (m *Memory) GetUserProfile(ctx context.Context, user models.Principal) (*models.UserProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	profile, ok := m.profiles[user]
	if !ok {
		return nil, fmt.Errorf("profile for %s: %w", user, ErrNotFound)
	}
	return &profile, nil
}

func (m *Memory) UpdateUserProfile(ctx context.Context, user models.Principal, gameUID, gameName, phoneNumber string, refundQr []byte) error {
	if _, err := m.requireAdmin(ctx, "updateUserProfile"); err != nil {
		return err
	}
	if ok, _ := m.IsValidPhoneNumber(ctx, phoneNumber); !ok {
		return &CallError{Op: "updateUserProfile", Err: fmt.Errorf("invalid phone number %q", phoneNumber)}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.profiles[user]; !ok {
		return fmt.Errorf("profile for %s: %w", user, ErrNotFound)
	}
	m.profiles[user] = models.UserProfile{
		GameUID:     gameUID,
		GameName:    gameName,
		PhoneNumber: phoneNumber,
		RefundQr:    refundQr,
	}
	return nil
}

func (m *Memory) DeleteUser(ctx context.Context, user models.Principal) error {
	if _, err := m.requireAdmin(ctx, "deleteUser"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.profiles[user]; !ok {
		return fmt.Errorf("profile for %s: %w", user, ErrNotFound)
	}
	delete(m.profiles, user)
	delete(m.admins, user)
	for i, p := range m.profileOrder {
		if p == user {
			m.profileOrder = append(m.profileOrder[:i], m.profileOrder[i+1:]...)
			break
		}
	}
	return nil
}

func (m *Memory) IsValidPhoneNumber(ctx context.Context, phoneNumber string) (bool, error) {
	if len(phoneNumber) != 10 {
		return false, nil
	}
	switch phoneNumber[0] {
	case '7', '8', '9':
	default:
		return false, nil
	}
	for _, c := range phoneNumber {
		if c < '0' || c > '9' {
			return false, nil
		}
	}
	return true, nil
}

var _ Client = (*Memory)(nil)

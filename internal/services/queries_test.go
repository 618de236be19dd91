package services_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/caffeinepub/ace8win-3/internal/authority"
	"github.com/caffeinepub/ace8win-3/internal/blob"
	"github.com/caffeinepub/ace8win-3/internal/identity"
	"github.com/caffeinepub/ace8win-3/internal/models"
	"github.com/caffeinepub/ace8win-3/internal/services"
)

func as(p models.Principal) context.Context {
	return identity.WithPrincipal(context.Background(), p)
}

// countingClient counts profile fetches so tests can assert that
// identity-scoped reads skip the remote call entirely.
type countingClient struct {
	authority.Client
	profileCalls int32
}

func (c *countingClient) GetCallerUserProfile(ctx context.Context) (*models.UserProfile, error) {
	atomic.AddInt32(&c.profileCalls, 1)
	return c.Client.GetCallerUserProfile(ctx)
}

// unavailableClient simulates an authority that is not reachable yet.
type unavailableClient struct {
	authority.Client
}

func (c *unavailableClient) GetAllMatches(ctx context.Context) ([]models.Match, error) {
	return nil, authority.ErrUnavailable
}

func (c *unavailableClient) IsCallerAdmin(ctx context.Context) (bool, error) {
	return false, authority.ErrUnavailable
}

func newStack(t *testing.T, client authority.Client) (*services.Queries, *services.Mutations) {
	t.Helper()
	store := services.NewSyncStore()
	return services.NewQueries(store, client), services.NewMutations(store, client)
}

func TestAnonymousProfileCollapses(t *testing.T) {
	client := &countingClient{Client: authority.NewMemory()}
	queries, _ := newStack(t, client)

	profile, fetched, err := queries.CallerProfile(context.Background())
	if err != nil {
		t.Fatalf("CallerProfile failed: %v", err)
	}
	if profile != nil || fetched {
		t.Errorf("Anonymous caller should get (nil, unfetched), got (%+v, %v)", profile, fetched)
	}
	if client.profileCalls != 0 {
		t.Errorf("Anonymous read must not reach the authority, got %d calls", client.profileCalls)
	}
}

func TestRegistrationInvalidatesProfile(t *testing.T) {
	mem := authority.NewMemory()
	queries, mutations := newStack(t, mem)
	ctx := as("alice")

	profile, fetched, err := queries.CallerProfile(ctx)
	if err != nil {
		t.Fatalf("CallerProfile failed: %v", err)
	}
	if profile != nil || !fetched {
		t.Fatalf("Expected confirmed missing profile, got (%+v, %v)", profile, fetched)
	}

	if err := mutations.Register(ctx, "uid-1", "Alice", "9876543210", []byte("qr")); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	profile, fetched, err = queries.CallerProfile(ctx)
	if err != nil {
		t.Fatalf("CallerProfile after register failed: %v", err)
	}
	if profile == nil || !fetched {
		t.Fatal("Registered profile should be visible on the next read")
	}
	if profile.GameName != "Alice" {
		t.Errorf("Unexpected profile: %+v", profile)
	}
}

func TestRegisterValidatesLocally(t *testing.T) {
	mem := authority.NewMemory()
	_, mutations := newStack(t, mem)

	err := mutations.Register(as("alice"), "uid-1", "Alice", "1234567890", []byte("qr"))
	if err == nil {
		t.Fatal("Invalid phone number should fail before the remote call")
	}
	if profile, _ := mem.GetCallerUserProfile(as("alice")); profile != nil {
		t.Error("Failed validation must not reach the authority")
	}
}

func TestApprovalShowsUpInHistory(t *testing.T) {
	mem := authority.NewMemory()
	mem.SeedAdmin("admin")
	queries, mutations := newStack(t, mem)
	alice := as("alice")

	if err := mutations.Register(alice, "uid-1", "Alice", "9876543210", []byte("qr")); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if err := mutations.CreateMatch(as("admin"), "Final", time.Now().Add(time.Hour), 30*time.Minute, 100); err != nil {
		t.Fatalf("CreateMatch failed: %v", err)
	}
	matches, err := queries.Matches(alice)
	if err != nil || len(matches) != 1 {
		t.Fatalf("Matches = %v, %v", matches, err)
	}
	matchID := matches[0].ID

	proof := blob.FromBytes([]byte("screenshot"))
	if err := mutations.SubmitPayment(alice, matchID, 100, proof); err != nil {
		t.Fatalf("SubmitPayment failed: %v", err)
	}

	txs, err := queries.Transactions(alice, "alice")
	if err != nil || len(txs) != 1 {
		t.Fatalf("Transactions = %v, %v", txs, err)
	}
	if txs[0].PaymentStatus != models.PaymentPending {
		t.Fatalf("Expected pending, got %s", txs[0].PaymentStatus)
	}

	if err := mutations.ApprovePayment(as("admin"), "alice", matchID); err != nil {
		t.Fatalf("ApprovePayment failed: %v", err)
	}

	// History is keyed without a TTL; approval must show up through
	// invalidation alone.
	txs, err = queries.Transactions(alice, "alice")
	if err != nil {
		t.Fatalf("Transactions after approval failed: %v", err)
	}
	if txs[0].PaymentStatus != models.PaymentApproved {
		t.Errorf("Expected approved after invalidation, got %s", txs[0].PaymentStatus)
	}
}

func TestPaymentStatusMissingIsEmpty(t *testing.T) {
	mem := authority.NewMemory()
	queries, _ := newStack(t, mem)

	status, err := queries.PaymentStatus(as("alice"), "alice")
	if err != nil {
		t.Fatalf("PaymentStatus failed: %v", err)
	}
	if status != "" {
		t.Errorf("No payment on record should read as empty, got %q", status)
	}
}

func TestUnavailableAuthorityDegrades(t *testing.T) {
	client := &unavailableClient{Client: authority.NewMemory()}
	queries, _ := newStack(t, client)
	ctx := as("alice")

	matches, err := queries.Matches(ctx)
	if err != nil {
		t.Fatalf("Unavailability should not surface as an error, got %v", err)
	}
	if matches != nil {
		t.Errorf("Expected neutral empty matches, got %v", matches)
	}

	isAdmin, resolved, err := queries.IsAdmin(ctx)
	if err != nil {
		t.Fatalf("IsAdmin failed: %v", err)
	}
	if isAdmin || resolved {
		t.Errorf("Unresolvable role query must stay unresolved, got (%v, %v)", isAdmin, resolved)
	}
}

func TestInFlightTracker(t *testing.T) {
	tracker := services.NewInFlightTracker()

	done, err := tracker.Begin("alice", "submit_payment")
	if err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	if !tracker.InFlight("alice", "submit_payment") {
		t.Error("Submission should be in flight")
	}

	if _, err := tracker.Begin("alice", "submit_payment"); err == nil {
		t.Error("Duplicate submission should be refused")
	}

	// A different principal or action is unaffected.
	if otherDone, err := tracker.Begin("bob", "submit_payment"); err != nil {
		t.Errorf("Begin for other principal failed: %v", err)
	} else {
		otherDone()
	}

	done()
	done() // idempotent
	if tracker.InFlight("alice", "submit_payment") {
		t.Error("Completed submission should be cleared")
	}

	if _, err := tracker.Begin("alice", "submit_payment"); err != nil {
		t.Errorf("Begin after completion failed: %v", err)
	}
}

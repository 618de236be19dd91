package authority_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/caffeinepub/ace8win-3/internal/authority"
	"github.com/caffeinepub/ace8win-3/internal/blob"
	"github.com/caffeinepub/ace8win-3/internal/identity"
	"github.com/caffeinepub/ace8win-3/internal/models"
)

func as(p models.Principal) context.Context {
	return identity.WithPrincipal(context.Background(), p)
}

func newMatch(t *testing.T, m *authority.Memory, admin models.Principal) string {
	t.Helper()
	if err := m.CreateMatch(as(admin), "Test Match", time.Now().Add(time.Hour), 30*time.Minute, 100); err != nil {
		t.Fatalf("CreateMatch failed: %v", err)
	}
	matches, err := m.GetAllMatches(context.Background())
	if err != nil {
		t.Fatalf("GetAllMatches failed: %v", err)
	}
	return matches[len(matches)-1].ID
}

func register(t *testing.T, m *authority.Memory, p models.Principal) {
	t.Helper()
	if err := m.RegisterUser(as(p), "uid-"+string(p), string(p), "9876543210", []byte("qr")); err != nil {
		t.Fatalf("RegisterUser(%s) failed: %v", p, err)
	}
}

func TestRegisterUser(t *testing.T) {
	m := authority.NewMemory()
	register(t, m, "alice")

	profile, err := m.GetCallerUserProfile(as("alice"))
	if err != nil {
		t.Fatalf("GetCallerUserProfile failed: %v", err)
	}
	if profile == nil || profile.GameName != "alice" {
		t.Fatalf("Unexpected profile: %+v", profile)
	}

	if err := m.RegisterUser(as("alice"), "uid-2", "alice", "9876543210", []byte("qr")); err == nil {
		t.Error("Re-registration should fail")
	}

	if err := m.RegisterUser(as("bob"), "uid-b", "bob", "1234567890", []byte("qr")); err == nil {
		t.Error("Invalid phone number should fail")
	}
}

func TestUnregisteredProfileIsNil(t *testing.T) {
	m := authority.NewMemory()
	profile, err := m.GetCallerUserProfile(as("ghost"))
	if err != nil {
		t.Fatalf("GetCallerUserProfile failed: %v", err)
	}
	if profile != nil {
		t.Errorf("Unregistered caller should have nil profile, got %+v", profile)
	}
}

func TestPaymentLifecycle(t *testing.T) {
	m := authority.NewMemory()
	m.SeedAdmin("admin")
	register(t, m, "alice")
	matchID := newMatch(t, m, "admin")

	proof := blob.FromBytes([]byte("payment screenshot"))
	if err := m.SubmitPayment(as("alice"), matchID, 100, proof); err != nil {
		t.Fatalf("SubmitPayment failed: %v", err)
	}

	// A second submission while the first is pending is refused.
	if err := m.SubmitPayment(as("alice"), matchID, 100, proof); err == nil {
		t.Error("Duplicate pending payment should be refused")
	}

	status, err := m.GetPaymentStatus(context.Background(), "alice")
	if err != nil {
		t.Fatalf("GetPaymentStatus failed: %v", err)
	}
	if status != models.PaymentPending {
		t.Errorf("Expected pending, got %s", status)
	}

	if err := m.ApprovePayment(as("alice"), "alice", matchID); err == nil {
		t.Error("Non-admin approval should fail")
	}
	if err := m.ApprovePayment(as("admin"), "alice", matchID); err != nil {
		t.Fatalf("ApprovePayment failed: %v", err)
	}
	if err := m.ApprovePayment(as("admin"), "alice", matchID); err == nil {
		t.Error("Approving a non-pending payment should fail")
	}

	status, _ = m.GetPaymentStatus(context.Background(), "alice")
	if status != models.PaymentApproved {
		t.Errorf("Expected approved, got %s", status)
	}

	// Approval admits the payer to the match.
	players, err := m.GetMatchParticipants(context.Background(), matchID)
	if err != nil {
		t.Fatalf("GetMatchParticipants failed: %v", err)
	}
	if len(players) != 1 || players[0].PlayerID != "alice" {
		t.Errorf("Expected alice as participant, got %+v", players)
	}

	// The submission transaction tracks the final status.
	txs, err := m.GetTransactionHistory(context.Background(), "alice")
	if err != nil {
		t.Fatalf("GetTransactionHistory failed: %v", err)
	}
	if len(txs) != 1 || txs[0].PaymentStatus != models.PaymentApproved {
		t.Errorf("Unexpected transactions: %+v", txs)
	}

	// A rejected payment can be resubmitted.
	if err := m.SubmitPayment(as("alice"), matchID, 100, proof); err != nil {
		t.Fatalf("Resubmission after approval failed: %v", err)
	}
	if err := m.RejectPayment(as("admin"), "alice", matchID); err != nil {
		t.Fatalf("RejectPayment failed: %v", err)
	}
	if err := m.SubmitPayment(as("alice"), matchID, 100, proof); err != nil {
		t.Errorf("Resubmission after rejection failed: %v", err)
	}
}

func TestJoinMatchIsSetSemantics(t *testing.T) {
	m := authority.NewMemory()
	m.SeedAdmin("admin")
	register(t, m, "alice")
	matchID := newMatch(t, m, "admin")

	if err := m.JoinMatch(as("ghost"), matchID); err == nil {
		t.Error("Joining without a profile should fail")
	}

	if err := m.JoinMatch(as("alice"), matchID); err != nil {
		t.Fatalf("JoinMatch failed: %v", err)
	}
	if err := m.JoinMatch(as("alice"), matchID); err != nil {
		t.Fatalf("Repeat join failed: %v", err)
	}

	players, _ := m.GetMatchParticipants(context.Background(), matchID)
	if len(players) != 1 {
		t.Errorf("Repeat join must not duplicate membership, got %d entries", len(players))
	}
}

func TestRoleQueries(t *testing.T) {
	m := authority.NewMemory()
	m.SeedAdmin("admin")
	register(t, m, "alice")

	role, err := m.GetCallerUserRole(as("admin"))
	if err != nil || role != models.RoleAdmin {
		t.Errorf("Expected admin role, got %s (%v)", role, err)
	}
	role, _ = m.GetCallerUserRole(as("alice"))
	if role != models.RoleUser {
		t.Errorf("Expected user role, got %s", role)
	}
	role, _ = m.GetCallerUserRole(as("ghost"))
	if role != models.RoleGuest {
		t.Errorf("Expected guest role, got %s", role)
	}

	isAdmin, err := m.IsCallerAdmin(as("admin"))
	if err != nil || !isAdmin {
		t.Errorf("Expected admin, got %v (%v)", isAdmin, err)
	}

	if err := m.AssignCallerUserRole(as("admin"), "alice", models.RoleAdmin); err != nil {
		t.Fatalf("AssignCallerUserRole failed: %v", err)
	}
	if isAdmin, _ := m.IsCallerAdmin(as("alice")); !isAdmin {
		t.Error("alice should be admin after assignment")
	}
	if err := m.PromoteToUser(as("admin"), "alice"); err != nil {
		t.Fatalf("PromoteToUser failed: %v", err)
	}
	if isAdmin, _ := m.IsCallerAdmin(as("alice")); isAdmin {
		t.Error("alice should not be admin after demotion")
	}
}

func TestConcurrentRoleChecksAndAssignments(t *testing.T) {
	m := authority.NewMemory()
	m.SeedAdmin("admin")
	register(t, m, "alice")

	// Admin-gated calls race role assignments; the race detector flags any
	// unsynchronized access to the role table.
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			role := models.RoleAdmin
			if i%2 == 1 {
				role = models.RoleUser
			}
			if err := m.AssignCallerUserRole(as("admin"), "alice", role); err != nil {
				t.Errorf("AssignCallerUserRole failed: %v", err)
				return
			}
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			if err := m.CreateMatch(as("admin"), "Race Cup", time.Now().Add(time.Hour), 30*time.Minute, 100); err != nil {
				t.Errorf("CreateMatch failed: %v", err)
				return
			}
		}
	}()
	wg.Wait()
}

func TestProfileAdministration(t *testing.T) {
	m := authority.NewMemory()
	m.SeedAdmin("admin")
	register(t, m, "alice")
	register(t, m, "bob")

	if _, err := m.GetAllUserProfiles(as("alice")); err == nil {
		t.Error("Profile listing should require admin")
	}

	records, err := m.GetAllUserProfiles(as("admin"))
	if err != nil {
		t.Fatalf("GetAllUserProfiles failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(records))
	}
	// Each record carries the owning principal, so admin actions can target
	// a real account.
	if records[0].User != "alice" || records[1].User != "bob" {
		t.Errorf("Unexpected record owners: %+v", records)
	}

	if err := m.UpdateUserProfile(as("admin"), "alice", "uid-new", "Alice", "8000000000", []byte("qr2")); err != nil {
		t.Fatalf("UpdateUserProfile failed: %v", err)
	}
	profile, _ := m.GetUserProfile(context.Background(), "alice")
	if profile.GameUID != "uid-new" {
		t.Errorf("Update not applied: %+v", profile)
	}

	if err := m.DeleteUser(as("admin"), "bob"); err != nil {
		t.Fatalf("DeleteUser failed: %v", err)
	}
	if _, err := m.GetUserProfile(context.Background(), "bob"); !authority.IsNotFound(err) {
		t.Errorf("Expected not found after delete, got %v", err)
	}
	records, _ = m.GetAllUserProfiles(as("admin"))
	if len(records) != 1 {
		t.Errorf("Expected 1 record after delete, got %d", len(records))
	}
}

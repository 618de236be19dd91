package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/caffeinepub/ace8win-3/internal/authority"
	"github.com/caffeinepub/ace8win-3/internal/identity"
	"github.com/caffeinepub/ace8win-3/internal/models"
	"github.com/caffeinepub/ace8win-3/internal/services"
	"github.com/caffeinepub/ace8win-3/internal/views"
)

func newAdminRouter(t *testing.T) (*gin.Engine, *authority.Memory) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mem := authority.NewMemory()
	mem.SeedAdmin("admin")
	store := services.NewSyncStore()
	queries := services.NewQueries(store, mem)
	mutations := services.NewMutations(store, mem)
	handler := NewAdminHandler(views.NewAdmin(queries), mutations)

	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Request = c.Request.WithContext(identity.WithPrincipal(c.Request.Context(), "admin"))
	})
	router.PUT("/users/:principal", handler.UpdateUser)
	return router, mem
}

func TestUpdateUserRejectsMalformedRefundQr(t *testing.T) {
	router, mem := newAdminRouter(t)

	aliceCtx := identity.WithPrincipal(context.Background(), models.Principal("alice"))
	if err := mem.RegisterUser(aliceCtx, "uid-1", "Alice", "9876543210", []byte("original-qr")); err != nil {
		t.Fatalf("RegisterUser failed: %v", err)
	}

	body := `{"game_uid":"uid-1","game_name":"Alice","phone_number":"9876543210","refund_qr":"%%%not-base64%%%"}`
	req := httptest.NewRequest(http.MethodPut, "/users/alice", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400 for malformed refund QR, got %d: %s", w.Code, w.Body.String())
	}

	// The stored profile is untouched.
	profile, err := mem.GetUserProfile(context.Background(), "alice")
	if err != nil {
		t.Fatalf("GetUserProfile failed: %v", err)
	}
	if string(profile.RefundQr) != "original-qr" {
		t.Errorf("Refund QR should be unchanged, got %q", profile.RefundQr)
	}
}

func TestUpdateUserAcceptsValidRefundQr(t *testing.T) {
	router, mem := newAdminRouter(t)

	aliceCtx := identity.WithPrincipal(context.Background(), models.Principal("alice"))
	if err := mem.RegisterUser(aliceCtx, "uid-1", "Alice", "9876543210", []byte("original-qr")); err != nil {
		t.Fatalf("RegisterUser failed: %v", err)
	}

	// "new-qr" in base64.
	body := `{"game_uid":"uid-2","game_name":"Alice","phone_number":"8000000000","refund_qr":"bmV3LXFy"}`
	req := httptest.NewRequest(http.MethodPut, "/users/alice", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	profile, err := mem.GetUserProfile(context.Background(), "alice")
	if err != nil {
		t.Fatalf("GetUserProfile failed: %v", err)
	}
	if profile.GameUID != "uid-2" || string(profile.RefundQr) != "new-qr" {
		t.Errorf("Update not applied: %+v", profile)
	}
}

package handlers

import (
	"encoding/base64"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/caffeinepub/ace8win-3/internal/models"
	"github.com/caffeinepub/ace8win-3/internal/services"
	"github.com/caffeinepub/ace8win-3/internal/views"
)

type UserHandler struct {
	sessions     *services.SessionService
	queries      *services.Queries
	mutations    *services.Mutations
	dashboard    *views.Dashboard
	transactions *views.Transactions
	store        *services.SyncStore
}

func NewUserHandler(sessions *services.SessionService, queries *services.Queries, mutations *services.Mutations, dashboard *views.Dashboard, transactions *views.Transactions, store *services.SyncStore) *UserHandler {
	return &UserHandler{
		sessions:     sessions,
		queries:      queries,
		mutations:    mutations,
		dashboard:    dashboard,
		transactions: transactions,
		store:        store,
	}
}

// GetCurrentUser returns the caller's session, profile and role, plus
// whether the registration prompt should be shown.
func (h *UserHandler) GetCurrentUser(c *gin.Context) {
	principal, exists := c.Get("principal")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	sessionID, exists := c.Get("session_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Session not found"})
		return
	}

	session, err := h.sessions.GetSession(principal.(models.Principal), sessionID.(string))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Session expired or invalid"})
		return
	}

	ctx := c.Request.Context()

	profile, fetched, err := h.queries.CallerProfile(ctx)
	if err != nil {
		respondError(c, err)
		return
	}

	role, _, err := h.queries.Role(ctx)
	if err != nil {
		respondError(c, err)
		return
	}

	showRegistration, err := h.dashboard.RegistrationPrompt(ctx)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"session": gin.H{
			"session_id":    session.SessionID,
			"created_at":    session.CreatedAt,
			"last_accessed": session.LastAccessed,
		},
		"principal":         session.Principal,
		"profile":           profile,
		"profile_fetched":   fetched,
		"role":              role,
		"show_registration": showRegistration,
	})
}

// Register completes the registration prompt. The refund QR arrives either
// as a multipart file or as base64 JSON; validation runs locally before the
// authority is called.
func (h *UserHandler) Register(c *gin.Context) {
	var req struct {
		GameUID     string `json:"game_uid"`
		GameName    string `json:"game_name"`
		PhoneNumber string `json:"phone_number"`
		RefundQrB64 string `json:"refund_qr"`
	}

	var refundQr []byte
	if file, err := c.FormFile("refund_qr"); err == nil {
		req.GameUID = c.PostForm("game_uid")
		req.GameName = c.PostForm("game_name")
		req.PhoneNumber = c.PostForm("phone_number")
		opened, err := file.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read refund QR upload"})
			return
		}
		defer opened.Close()
		refundQr, err = io.ReadAll(opened)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read refund QR upload"})
			return
		}
	} else {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "Invalid request",
				"details": err.Error(),
			})
			return
		}
		refundQr, _ = base64.StdEncoding.DecodeString(req.RefundQrB64)
	}

	if err := h.mutations.Register(c.Request.Context(), req.GameUID, req.GameName, req.PhoneNumber, refundQr); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Registration successful"})
}

func (h *UserHandler) GetTransactions(c *gin.Context) {
	respondOutcome(c, h.transactions.Render(c.Request.Context()))
}

// Logout deletes the redis session and clears the synchronization cache for
// this process: a later login starts from a cold cache, never a stale role.
func (h *UserHandler) Logout(c *gin.Context) {
	principal, exists := c.Get("principal")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	sessionID, exists := c.Get("session_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Session not found"})
		return
	}

	err := h.sessions.DeleteSession(principal.(models.Principal), sessionID.(string))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to logout"})
		return
	}

	h.store.Clear()

	c.JSON(http.StatusOK, gin.H{"message": "Successfully logged out"})
}

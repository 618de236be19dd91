package handlers

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/caffeinepub/ace8win-3/internal/models"
	"github.com/caffeinepub/ace8win-3/internal/services"
)

type AuthHandler struct {
	sessions *services.SessionService
	jwt      *services.JWTService
	store    *services.SyncStore
}

func NewAuthHandler(sessions *services.SessionService, jwtService *services.JWTService, store *services.SyncStore) *AuthHandler {
	return &AuthHandler{
		sessions: sessions,
		jwt:      jwtService,
		store:    store,
	}
}

// Login exchanges an identity-provider assertion for an app session token.
// The assertion is the only credential we accept; roles come later, from the
// authority, never from the login payload.
func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Assertion string `json:"assertion" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"details": err.Error(),
		})
		return
	}

	principal, err := h.jwt.VerifyIdentityAssertion(req.Assertion)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid identity assertion"})
		return
	}

	session := &models.UserSession{
		Principal:    principal,
		SessionID:    models.GenerateSessionID(),
		CreatedAt:    time.Now(),
		LastAccessed: time.Now(),
	}
	if err := h.sessions.StoreSession(session, services.TTLUserSession); err != nil {
		log.Printf("Failed to store session: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create session"})
		return
	}

	token, err := h.jwt.IssueSessionToken(principal, session.SessionID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to issue token"})
		return
	}

	// A fresh login never inherits cached role or profile answers from an
	// earlier session.
	h.store.Invalidate(
		services.ProfileKey(principal),
		services.RoleKey(principal),
		services.IsAdminKey(principal),
	)

	c.JSON(http.StatusOK, gin.H{
		"token":      token,
		"principal":  principal,
		"session_id": session.SessionID,
	})
}

package handlers

import (
	"encoding/base64"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/caffeinepub/ace8win-3/internal/models"
	"github.com/caffeinepub/ace8win-3/internal/services"
	"github.com/caffeinepub/ace8win-3/internal/views"
)

type AdminHandler struct {
	admin     *views.Admin
	mutations *services.Mutations
}

func NewAdminHandler(admin *views.Admin, mutations *services.Mutations) *AdminHandler {
	return &AdminHandler{admin: admin, mutations: mutations}
}

// authorize resolves the role gate before any admin mutation. Screens do
// their own gating inside the view; mutations gate here.
func (h *AdminHandler) authorize(c *gin.Context) bool {
	outcome, ok := h.admin.Authorize(c.Request.Context())
	if !ok {
		respondOutcome(c, outcome)
	}
	return ok
}

func (h *AdminHandler) CreateMatch(c *gin.Context) {
	if !h.authorize(c) {
		return
	}

	var req struct {
		Name            string    `json:"name" binding:"required"`
		StartTime       time.Time `json:"start_time" binding:"required"`
		DurationMinutes int64     `json:"duration_minutes" binding:"required"`
		PaymentAmount   int64     `json:"payment_amount" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"details": err.Error(),
		})
		return
	}

	duration := time.Duration(req.DurationMinutes) * time.Minute
	if err := h.mutations.CreateMatch(c.Request.Context(), req.Name, req.StartTime, duration, req.PaymentAmount); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Match created"})
}

func (h *AdminHandler) PaymentsOverview(c *gin.Context) {
	respondOutcome(c, h.admin.PaymentsOverview(c.Request.Context()))
}

func (h *AdminHandler) Participants(c *gin.Context) {
	respondOutcome(c, h.admin.Participants(c.Request.Context(), c.Param("matchId")))
}

func (h *AdminHandler) Users(c *gin.Context) {
	respondOutcome(c, h.admin.Users(c.Request.Context(), c.Query("search")))
}

type paymentDecisionRequest struct {
	User    models.Principal `json:"user" binding:"required"`
	MatchID string           `json:"match_id" binding:"required"`
}

func (h *AdminHandler) ApprovePayment(c *gin.Context) {
	if !h.authorize(c) {
		return
	}

	var req paymentDecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	if err := h.mutations.ApprovePayment(c.Request.Context(), req.User, req.MatchID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": models.PaymentApproved})
}

func (h *AdminHandler) RejectPayment(c *gin.Context) {
	if !h.authorize(c) {
		return
	}

	var req paymentDecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	if err := h.mutations.RejectPayment(c.Request.Context(), req.User, req.MatchID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": models.PaymentRejected})
}

func (h *AdminHandler) UpdateUser(c *gin.Context) {
	if !h.authorize(c) {
		return
	}

	user := models.Principal(c.Param("principal"))

	var req struct {
		GameUID     string `json:"game_uid" binding:"required"`
		GameName    string `json:"game_name" binding:"required"`
		PhoneNumber string `json:"phone_number" binding:"required"`
		RefundQr    string `json:"refund_qr"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	var refundQr []byte
	if req.RefundQr != "" {
		decoded, err := base64.StdEncoding.DecodeString(req.RefundQr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid refund QR encoding"})
			return
		}
		refundQr = decoded
	}
	if err := h.mutations.UpdateProfile(c.Request.Context(), user, req.GameUID, req.GameName, req.PhoneNumber, refundQr); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Profile updated"})
}

// DeleteUser removes an account by its real principal, taken from the user
// management table rows.
func (h *AdminHandler) DeleteUser(c *gin.Context) {
	if !h.authorize(c) {
		return
	}

	user := models.Principal(c.Param("principal"))
	if err := h.mutations.DeleteUser(c.Request.Context(), user); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "User deleted"})
}

func (h *AdminHandler) PromoteToUser(c *gin.Context) {
	if !h.authorize(c) {
		return
	}

	user := models.Principal(c.Param("principal"))
	if err := h.mutations.PromoteToUser(c.Request.Context(), user); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "User promoted"})
}

func (h *AdminHandler) AssignRole(c *gin.Context) {
	if !h.authorize(c) {
		return
	}

	user := models.Principal(c.Param("principal"))

	var req struct {
		Role models.UserRole `json:"role" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	if err := h.mutations.AssignRole(c.Request.Context(), user, req.Role); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"role": req.Role})
}

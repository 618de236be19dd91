package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/caffeinepub/ace8win-3/internal/views"
)

type MatchHandler struct {
	dashboard *views.Dashboard
	flow      *views.PaymentFlow
}

func NewMatchHandler(dashboard *views.Dashboard, flow *views.PaymentFlow) *MatchHandler {
	return &MatchHandler{dashboard: dashboard, flow: flow}
}

// GetBoard renders the match board grouped into live and upcoming sections.
func (h *MatchHandler) GetBoard(c *gin.Context) {
	respondOutcome(c, h.dashboard.Render(c.Request.Context()))
}

// Join records the caller's intent to enter a match. A repeat join returns
// needs_confirmation instead of proceeding; the client resubmits with
// confirmed=true to go ahead anyway.
func (h *MatchHandler) Join(c *gin.Context) {
	matchID := c.Param("matchId")

	var req struct {
		Confirmed bool `json:"confirmed"`
	}
	// An empty body means an unconfirmed first attempt.
	c.ShouldBindJSON(&req)

	needsConfirmation, err := h.flow.Join(c.Request.Context(), matchID, req.Confirmed)
	if err != nil {
		respondError(c, err)
		return
	}
	if needsConfirmation {
		c.JSON(http.StatusOK, gin.H{
			"needs_confirmation": true,
			"message":            "Already registered for this match. Joining again requires another payment.",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"needs_confirmation": false,
		"joined":             true,
	})
}

package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/caffeinepub/ace8win-3/internal/blob"
	"github.com/caffeinepub/ace8win-3/internal/models"
	"github.com/caffeinepub/ace8win-3/internal/services"
	"github.com/caffeinepub/ace8win-3/internal/views"
)

const actionSubmitPayment = "submit_payment"

type PaymentHandler struct {
	flow     *views.PaymentFlow
	inflight *services.InFlightTracker
	ws       *WebSocketHandler
}

func NewPaymentHandler(flow *views.PaymentFlow, inflight *services.InFlightTracker, ws *WebSocketHandler) *PaymentHandler {
	return &PaymentHandler{flow: flow, inflight: inflight, ws: ws}
}

// GetDetails renders the UPI instructions for a match's entry fee.
func (h *PaymentHandler) GetDetails(c *gin.Context) {
	respondOutcome(c, h.flow.Render(c.Request.Context(), c.Param("matchId")))
}

// SubmitProof accepts the payment proof screenshot as a multipart upload and
// forwards it to the authority. The submission is marked in flight from the
// moment the upload starts until the remote call completes; the mark is
// cleared on every path, success or failure.
func (h *PaymentHandler) SubmitProof(c *gin.Context) {
	principal := c.MustGet("principal").(models.Principal)
	matchID := c.Param("matchId")

	done, err := h.inflight.Begin(principal, actionSubmitPayment)
	if err != nil {
		respondError(c, err)
		return
	}
	defer done()

	file, err := c.FormFile("proof")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Payment proof screenshot is required"})
		return
	}

	opened, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read proof upload"})
		return
	}
	defer opened.Close()

	data, err := io.ReadAll(opened)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read proof upload"})
		return
	}

	proof := blob.FromBytes(data).WithUploadProgress(func(percentage int) {
		if h.ws != nil {
			h.ws.SendUploadProgress(principal, matchID, percentage)
		}
	})

	if err := h.flow.SubmitProof(c.Request.Context(), matchID, proof); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  models.PaymentPending,
		"message": "Payment proof submitted. Waiting for admin approval.",
	})
}

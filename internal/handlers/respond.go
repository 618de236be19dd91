package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/caffeinepub/ace8win-3/internal/authority"
	"github.com/caffeinepub/ace8win-3/internal/policy"
	"github.com/caffeinepub/ace8win-3/internal/services"
	"github.com/caffeinepub/ace8win-3/internal/views"
)

// respondOutcome maps a screen's terminal rendering decision onto HTTP.
// Loading and empty are successful neutral states, not failures.
func respondOutcome(c *gin.Context, outcome views.Outcome) {
	switch outcome.State {
	case views.StateAccessDenied:
		c.JSON(http.StatusForbidden, gin.H{"state": outcome.State})
	case views.StateError:
		status := http.StatusBadGateway
		if authority.IsNotFound(outcome.Err) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{
			"state": outcome.State,
			"error": outcome.Err.Error(),
		})
	default:
		c.JSON(http.StatusOK, outcome)
	}
}

// respondError maps the error taxonomy onto HTTP: local validation is the
// caller's mistake, in-flight duplicates are conflicts, authority failures
// are upstream failures.
func respondError(c *gin.Context, err error) {
	var validationErr *policy.ValidationError
	var inflightErr *services.ErrAlreadyInFlight
	var callErr *authority.CallError

	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": validationErr.Error()})
	case errors.As(err, &inflightErr):
		c.JSON(http.StatusConflict, gin.H{"error": inflightErr.Error()})
	case authority.IsNotFound(err):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case authority.IsUnavailable(err):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	case errors.As(err, &callErr):
		c.JSON(http.StatusBadGateway, gin.H{"error": callErr.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

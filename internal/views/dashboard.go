package views

import (
	"context"

	"github.com/caffeinepub/ace8win-3/internal/identity"
	"github.com/caffeinepub/ace8win-3/internal/models"
	"github.com/caffeinepub/ace8win-3/internal/policy"
	"github.com/caffeinepub/ace8win-3/internal/services"
)

// Dashboard is the match board screen.
type Dashboard struct {
	queries *services.Queries
}

func NewDashboard(queries *services.Queries) *Dashboard {
	return &Dashboard{queries: queries}
}

// MatchSummary is one match card. NeedsConfirmation mirrors the
// duplicate-join policy so the UI can raise the warning before payment.
type MatchSummary struct {
	Match             models.Match `json:"match"`
	JoinedCount       int          `json:"joined_count"`
	HasJoined         bool         `json:"has_joined"`
	NeedsConfirmation bool         `json:"needs_confirmation"`
}

type DashboardData struct {
	Live     []MatchSummary `json:"live"`
	Upcoming []MatchSummary `json:"upcoming"`
}

func (d *Dashboard) summarize(m models.Match, p models.Principal) MatchSummary {
	joined := m.HasParticipant(p)
	return MatchSummary{
		Match:             m,
		JoinedCount:       len(m.Participants),
		HasJoined:         joined,
		NeedsConfirmation: policy.NeedsJoinConfirmation(&m, p),
	}
}

// Render resolves the board. Gate order: identity, then match data, then the
// grouped content.
func (d *Dashboard) Render(ctx context.Context) Outcome {
	p := identity.PrincipalFrom(ctx)
	if p.IsAnonymous() {
		return Empty()
	}

	matches, err := d.queries.Matches(ctx)
	if err != nil {
		return Failed(err)
	}

	data := DashboardData{}
	for _, m := range matches {
		switch m.Status {
		case models.MatchLive:
			data.Live = append(data.Live, d.summarize(m, p))
		case models.MatchUpcoming:
			data.Upcoming = append(data.Upcoming, d.summarize(m, p))
		}
	}
	if len(data.Live) == 0 && len(data.Upcoming) == 0 {
		return Empty()
	}
	return Content(data)
}

// RegistrationPrompt reports whether the registration modal should overlay
// the board: identity present, profile query confirmed, profile exactly nil.
func (d *Dashboard) RegistrationPrompt(ctx context.Context) (bool, error) {
	p := identity.PrincipalFrom(ctx)
	profile, fetched, err := d.queries.CallerProfile(ctx)
	if err != nil {
		return false, err
	}
	return policy.ShowRegistrationPrompt(!p.IsAnonymous(), fetched, profile), nil
}
